package csv

import (
	"encoding/csv"
	"fmt"
	"io"

	"github.com/kubev2v/inventory-report/internal/inventory"
)

type Renderer struct{}

func NewRenderer() *Renderer {
	return &Renderer{}
}

// RenderTable writes a header row followed by one row per record. An empty
// table yields the header only.
func (r *Renderer) RenderTable(w io.Writer, table inventory.Table) error {
	csvRows := make([][]string, 0, len(table.Rows)+1)
	csvRows = append(csvRows, table.Columns)

	for _, row := range table.Rows {
		cells := make([]string, 0, len(row))
		for _, v := range row {
			cells = append(cells, v.String())
		}
		csvRows = append(csvRows, cells)
	}

	return r.writeRows(w, csvRows)
}

// RenderSummary writes Metric,Value rows in the summary's declared order.
func (r *Renderer) RenderSummary(w io.Writer, summary inventory.SummaryStats) error {
	csvRows := [][]string{{"Metric", "Value"}}
	for _, m := range summary.Metrics() {
		csvRows = append(csvRows, []string{m.Name, m.Value})
	}

	return r.writeRows(w, csvRows)
}

func (r *Renderer) writeRows(w io.Writer, csvRows [][]string) error {
	writer := csv.NewWriter(w)

	for _, row := range csvRows {
		if err := writer.Write(row); err != nil {
			return fmt.Errorf("failed to write CSV row: %w", err)
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return fmt.Errorf("failed to flush CSV writer: %w", err)
	}

	return nil
}
