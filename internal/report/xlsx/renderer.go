package xlsx

import (
	"fmt"
	"io"

	"github.com/kubev2v/inventory-report/internal/inventory"
	"github.com/kubev2v/inventory-report/internal/report/types"
	"github.com/xuri/excelize/v2"
)

const (
	SummarySheet    = "Summary"
	VMSheet         = "VMs"
	HostSheet       = "Hosts"
	DatastoreSheet  = "Datastores"
	defaultSheet    = "Sheet1"
	headerRowOffset = 1
)

var sheetByKind = map[inventory.Kind]string{
	inventory.KindVM:        VMSheet,
	inventory.KindHost:      HostSheet,
	inventory.KindDatastore: DatastoreSheet,
}

type Renderer struct{}

func NewRenderer() *Renderer {
	return &Renderer{}
}

func (r *Renderer) SupportedFormat() types.ReportFormat {
	return types.ReportFormatXLSX
}

// Render writes a workbook with a Summary sheet followed by one sheet per
// record kind. Numeric cells stay numeric, the sentinel stays text.
func (r *Renderer) Render(w io.Writer, data *types.ReportData) error {
	if data == nil || data.Inventory == nil {
		return fmt.Errorf("no inventory to render")
	}

	f := excelize.NewFile()
	defer func() { _ = f.Close() }()

	if err := f.SetSheetName(defaultSheet, SummarySheet); err != nil {
		return fmt.Errorf("failed to rename default sheet: %w", err)
	}
	if err := r.writeSummary(f, data.Inventory.Summary); err != nil {
		return err
	}

	for _, t := range data.Inventory.Tables() {
		if err := r.writeTable(f, sheetByKind[t.Kind], t); err != nil {
			return err
		}
	}

	if err := f.Write(w); err != nil {
		return fmt.Errorf("failed to write workbook: %w", err)
	}
	return nil
}

func (r *Renderer) writeSummary(f *excelize.File, summary inventory.SummaryStats) error {
	header := []interface{}{"Metric", "Value"}
	if err := f.SetSheetRow(SummarySheet, "A1", &header); err != nil {
		return fmt.Errorf("failed to write summary header: %w", err)
	}
	for i, m := range summary.Metrics() {
		row := []interface{}{m.Name, m.Value}
		cell, err := excelize.CoordinatesToCellName(1, i+1+headerRowOffset)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(SummarySheet, cell, &row); err != nil {
			return fmt.Errorf("failed to write summary row %d: %w", i, err)
		}
	}
	return nil
}

func (r *Renderer) writeTable(f *excelize.File, sheet string, t inventory.Table) error {
	if _, err := f.NewSheet(sheet); err != nil {
		return fmt.Errorf("failed to create sheet %s: %w", sheet, err)
	}

	header := make([]interface{}, 0, len(t.Columns))
	for _, c := range t.Columns {
		header = append(header, c)
	}
	if err := f.SetSheetRow(sheet, "A1", &header); err != nil {
		return fmt.Errorf("failed to write %s header: %w", sheet, err)
	}

	for i, row := range t.Rows {
		cells := make([]interface{}, 0, len(row))
		for _, v := range row {
			cells = append(cells, cellValue(v))
		}
		cell, err := excelize.CoordinatesToCellName(1, i+1+headerRowOffset)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(sheet, cell, &cells); err != nil {
			return fmt.Errorf("failed to write %s row %d: %w", sheet, i, err)
		}
	}
	return nil
}

func cellValue(v inventory.Value) interface{} {
	if f, ok := v.Float(); ok {
		return f
	}
	return v.String()
}
