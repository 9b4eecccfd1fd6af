package scenario

import (
	"fmt"
	"io"
	"strconv"

	"github.com/olekukonko/tablewriter"
)

// PrintReport renders a report as a table of steps followed by a summary line
func PrintReport(w io.Writer, r *RunReport) {
	fmt.Fprintf(w, "scenario %s (run %s)\n", r.Scenario, r.ID)

	table := tablewriter.NewWriter(w)
	table.SetHeader([]string{"#", "Step", "Kind", "Result", "Seq", "Expected", "Actual", "Gas", "Duration"})
	table.SetAutoWrapText(false)
	table.SetAutoFormatHeaders(false)
	table.SetAlignment(tablewriter.ALIGN_LEFT)
	for _, e := range r.Entries {
		result := "PASS"
		if !e.Passed {
			result = "FAIL"
		}
		table.Append([]string{
			strconv.Itoa(e.Index),
			e.Name,
			string(e.Kind),
			result,
			strconv.FormatUint(e.Sequence, 10),
			e.Expected,
			e.Actual,
			strconv.FormatUint(e.GasUsed, 10),
			e.Duration.String(),
		})
	}
	if skipped := r.Steps - len(r.Entries); skipped > 0 {
		table.SetFooter([]string{"", "", "", "", "", "", fmt.Sprintf("%d steps not run", skipped), "", ""})
	}
	table.Render()

	fmt.Fprintln(w, r.Summary())
}
