package pipeline

import (
	"fmt"
	"io"
	"text/tabwriter"
)

// PrintSummary writes the console block shown after a successful run.
func PrintSummary(out io.Writer, run *RunContext, res *Result) error {
	inv := res.Inventory
	w := tabwriter.NewWriter(out, 0, 8, 1, '\t', 0)

	fmt.Fprintln(w, "==================== Inventory Summary ====================")
	fmt.Fprintf(w, "Endpoint\t%s\n", inv.Identity.Endpoint)
	fmt.Fprintf(w, "Product\t%s %s (build %s)\n", inv.Identity.Product, inv.Identity.Version, inv.Identity.Build)
	fmt.Fprintf(w, "Run ID\t%s\n", run.ID)
	for _, m := range inv.Summary.Metrics() {
		fmt.Fprintf(w, "%s\t%s\n", m.Name, m.Value)
	}
	fmt.Fprintf(w, "Reports\t%s\n", run.Dir)
	if n := len(res.ExportFaults); n > 0 {
		fmt.Fprintf(w, "Failed artifacts\t%d (see %s)\n", n, run.LogPath)
	}
	fmt.Fprintln(w, "===========================================================")

	return w.Flush()
}
