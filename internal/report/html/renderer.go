package html

import (
	"fmt"
	"html/template"
	"io"

	"github.com/kubev2v/inventory-report/internal/inventory"
	"github.com/kubev2v/inventory-report/internal/report/types"
)

type Renderer struct {
	tmpl *template.Template
}

func NewRenderer() *Renderer {
	return &Renderer{
		tmpl: template.Must(template.New("report").Parse(htmlReportTemplate)),
	}
}

func (r *Renderer) SupportedFormat() types.ReportFormat {
	return types.ReportFormatHTML
}

type tableSection struct {
	Title   string
	Columns []string
	Rows    [][]string
}

type templateData struct {
	CSS           template.CSS
	GeneratedDate string
	GeneratedTime string
	Identity      inventory.Identity
	Summary       []inventory.Metric
	TotalVMs      int
	TotalHosts    int
	TotalDS       int
	Tables        []tableSection
}

// Render writes a single self-contained document. Every cell goes through
// html/template escaping.
func (r *Renderer) Render(w io.Writer, data *types.ReportData) error {
	if data == nil || data.Inventory == nil {
		return fmt.Errorf("no inventory to render")
	}
	inv := data.Inventory

	td := templateData{
		CSS:           template.CSS(r.getCSS()),
		GeneratedDate: data.Timestamps.Generated,
		GeneratedTime: data.Timestamps.GeneratedTime,
		Identity:      inv.Identity,
		Summary:       inv.Summary.Metrics(),
		TotalVMs:      inv.Summary.TotalVMs,
		TotalHosts:    inv.Summary.TotalHosts,
		TotalDS:       inv.Summary.TotalDatastores,
	}
	for _, t := range inv.Tables() {
		td.Tables = append(td.Tables, r.generateTableSection(t))
	}

	if err := r.tmpl.Execute(w, td); err != nil {
		return fmt.Errorf("failed to execute HTML template: %w", err)
	}
	return nil
}

func (r *Renderer) generateTableSection(t inventory.Table) tableSection {
	section := tableSection{
		Title:   fmt.Sprintf("%s (%d)", t.Kind, len(t.Rows)),
		Columns: t.Columns,
		Rows:    make([][]string, 0, len(t.Rows)),
	}
	for _, row := range t.Rows {
		cells := make([]string, 0, len(row))
		for _, v := range row {
			cells = append(cells, v.String())
		}
		section.Rows = append(section.Rows, cells)
	}
	return section
}

func (r *Renderer) getCSS() string {
	return `
        body { font-family: Arial, sans-serif; margin: 20px; background: #f5f5f5; }
        .container { max-width: 1400px; margin: 0 auto; background: white; padding: 30px; border-radius: 10px; box-shadow: 0 2px 10px rgba(0,0,0,0.1); }
        .header { text-align: center; margin-bottom: 40px; }
        .header h1 { color: #2c3e50; margin-bottom: 10px; font-size: 2.5em; }
        .header p { color: #7f8c8d; font-size: 1.1em; }
        .summary-grid { display: grid; grid-template-columns: repeat(auto-fit, minmax(200px, 1fr)); gap: 20px; margin: 30px 0; }
        .summary-card { background: #3498db; color: white; padding: 20px; border-radius: 8px; text-align: center; }
        .summary-card h4 { margin: 0 0 10px 0; font-size: 14px; font-weight: 600; }
        .summary-card .number { font-size: 32px; font-weight: bold; }
        .section { margin: 40px 0; }
        .section h2 { color: #2c3e50; border-left: 4px solid #3498db; padding-left: 15px; margin-bottom: 25px; }
        .table-wrapper { overflow-x: auto; }
        table { width: 100%; border-collapse: collapse; margin: 20px 0; background: white; border-radius: 8px; overflow: hidden; box-shadow: 0 2px 5px rgba(0,0,0,0.1); }
        th, td { padding: 10px 12px; text-align: left; border-bottom: 1px solid #ddd; font-size: 13px; }
        th { background: linear-gradient(135deg, #667eea 0%, #764ba2 100%); color: white; font-weight: 600; }
        tr:nth-child(even) { background-color: #f8f9fa; }
        tr:hover { background-color: #e8f4ff; }
        .environment td:first-child { font-weight: 600; width: 35%; }
        .empty { color: #7f8c8d; font-style: italic; }
        .footer { text-align: center; margin-top: 40px; color: #7f8c8d; border-top: 1px solid #eee; padding-top: 20px; }
        .footer p { margin: 5px 0; }
        @media print { body { background: white; } .container { box-shadow: none; } }
        @media (max-width: 768px) {
            .summary-grid { grid-template-columns: repeat(2, 1fr); }
            .container { padding: 20px; margin: 10px; }
        }`
}

const htmlReportTemplate = `<!DOCTYPE html>
<html lang="en">
<head>
    <meta charset="UTF-8">
    <meta name="viewport" content="width=device-width, initial-scale=1.0">
    <title>vSphere Inventory Report</title>
    <style>
        {{.CSS}}
    </style>
</head>
<body>
    <div class="container">
        <div class="header">
            <h1>vSphere Inventory Report</h1>
            <p>Generated: {{.GeneratedDate}} at {{.GeneratedTime}}</p>
        </div>

        <div class="summary-grid">
            <div class="summary-card">
                <h4>Virtual Machines</h4>
                <div class="number">{{.TotalVMs}}</div>
            </div>
            <div class="summary-card" style="background: #e74c3c;">
                <h4>ESXi Hosts</h4>
                <div class="number">{{.TotalHosts}}</div>
            </div>
            <div class="summary-card" style="background: #27ae60;">
                <h4>Datastores</h4>
                <div class="number">{{.TotalDS}}</div>
            </div>
        </div>

        <div class="section">
            <h2>Environment</h2>
            <table class="environment">
                <tbody>
                    <tr><td>Endpoint</td><td>{{.Identity.Endpoint}}</td></tr>
                    <tr><td>Product</td><td>{{.Identity.Product}}</td></tr>
                    <tr><td>Version</td><td>{{.Identity.Version}}</td></tr>
                    <tr><td>Build</td><td>{{.Identity.Build}}</td></tr>
                    <tr><td>Connected As</td><td>{{.Identity.Principal}}</td></tr>
                    <tr><td>Generated</td><td>{{.GeneratedDate}} {{.GeneratedTime}}</td></tr>
                    {{- range .Summary}}
                    <tr><td>{{.Name}}</td><td>{{.Value}}</td></tr>
                    {{- end}}
                </tbody>
            </table>
        </div>
        {{range .Tables}}
        <div class="section">
            <h2>{{.Title}}</h2>
            {{- if .Rows}}
            <div class="table-wrapper">
                <table>
                    <thead>
                        <tr>{{range .Columns}}<th>{{.}}</th>{{end}}</tr>
                    </thead>
                    <tbody>
                        {{- range .Rows}}
                        <tr>{{range .}}<td>{{.}}</td>{{end}}</tr>
                        {{- end}}
                    </tbody>
                </table>
            </div>
            {{- else}}
            <p class="empty">No data</p>
            {{- end}}
        </div>
        {{end}}
        <div class="footer">
            <p>vSphere Inventory Report</p>
            <p>Generated: {{.GeneratedDate}} at {{.GeneratedTime}}</p>
        </div>
    </div>
</body>
</html>`
