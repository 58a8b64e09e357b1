package types

import (
	"io"
	"time"

	"github.com/kubev2v/inventory-report/internal/inventory"
)

type ReportFormat string

const (
	ReportFormatHTML ReportFormat = "html"
	ReportFormatXLSX ReportFormat = "xlsx"
)

// ReportRenderer renders a whole inventory into a single document.
type ReportRenderer interface {
	Render(w io.Writer, data *ReportData) error
	SupportedFormat() ReportFormat
}

type ReportData struct {
	Inventory  *inventory.Inventory
	Timestamps ReportTimestamps
}

type ReportTimestamps struct {
	Generated     string
	GeneratedTime string
}

func NewReportData(inv *inventory.Inventory) *ReportData {
	generated := inv.GeneratedAt
	if generated.IsZero() {
		generated = time.Now()
	}
	return &ReportData{
		Inventory: inv,
		Timestamps: ReportTimestamps{
			Generated:     generated.Format("2006-01-02"),
			GeneratedTime: generated.Format("15:04:05 MST"),
		},
	}
}
