package report

import (
	"io"

	"github.com/kubev2v/inventory-report/internal/fileio"
	"github.com/kubev2v/inventory-report/internal/inventory"
	"github.com/kubev2v/inventory-report/internal/report/csv"
	"github.com/kubev2v/inventory-report/internal/report/html"
	"github.com/kubev2v/inventory-report/internal/report/types"
	"github.com/kubev2v/inventory-report/internal/report/xlsx"
	"github.com/kubev2v/inventory-report/pkg/metrics"
	"github.com/pkg/errors"
	"go.uber.org/zap"
)

const (
	VMsFile        = "VMs.csv"
	HostsFile      = "Hosts.csv"
	DatastoresFile = "Datastores.csv"
	SummaryFile    = "Summary.csv"
	HTMLFile       = "Report.html"
	WorkbookFile   = "Inventory.xlsx"
)

var tableFiles = map[inventory.Kind]string{
	inventory.KindVM:        VMsFile,
	inventory.KindHost:      HostsFile,
	inventory.KindDatastore: DatastoresFile,
}

// ErrExport is a failure to produce one artifact. It never aborts a run.
type ErrExport struct {
	error
	File string
}

func NewErrExport(file string, err error) *ErrExport {
	return &ErrExport{error: errors.Wrapf(err, "failed to export %s", file), File: file}
}

func (e *ErrExport) Unwrap() error {
	return e.error
}

type artifact struct {
	file   string
	render func(io.Writer) error
}

// Exporter writes every artifact of a run into a single directory.
type Exporter struct {
	writer  *fileio.Writer
	csv     *csv.Renderer
	docs    []types.ReportRenderer
	metrics *metrics.Recorder
}

func NewExporter(dir string, m *metrics.Recorder) *Exporter {
	return &Exporter{
		writer:  fileio.NewWriter(dir),
		csv:     csv.NewRenderer(),
		docs:    []types.ReportRenderer{html.NewRenderer(), xlsx.NewRenderer()},
		metrics: m,
	}
}

// Export writes each artifact independently and returns the faults of the
// ones that failed. A failed artifact leaves no partial file behind.
func (e *Exporter) Export(inv *inventory.Inventory) []error {
	logger := zap.S().Named("exporter")

	var faults []error
	for _, a := range e.artifacts(inv) {
		if err := e.writer.WriteStream(a.file, a.render); err != nil {
			fault := NewErrExport(a.file, err)
			logger.Errorf("%v", fault)
			e.metrics.IncExportFault(a.file)
			faults = append(faults, fault)
			continue
		}
		logger.Infof("Wrote %s", e.writer.PathFor(a.file))
	}
	return faults
}

func (e *Exporter) artifacts(inv *inventory.Inventory) []artifact {
	var out []artifact

	for _, t := range inv.Tables() {
		table := t
		out = append(out, artifact{
			file:   tableFiles[table.Kind],
			render: func(w io.Writer) error { return e.csv.RenderTable(w, table) },
		})
	}
	out = append(out, artifact{
		file:   SummaryFile,
		render: func(w io.Writer) error { return e.csv.RenderSummary(w, inv.Summary) },
	})

	data := types.NewReportData(inv)
	for _, r := range e.docs {
		renderer := r
		out = append(out, artifact{
			file:   fileFor(renderer.SupportedFormat()),
			render: func(w io.Writer) error { return renderer.Render(w, data) },
		})
	}
	return out
}

func fileFor(format types.ReportFormat) string {
	switch format {
	case types.ReportFormatHTML:
		return HTMLFile
	case types.ReportFormatXLSX:
		return WorkbookFile
	}
	return "report." + string(format)
}
