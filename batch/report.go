package batch

import (
	"fmt"
	"io"
	"strconv"

	"github.com/olekukonko/tablewriter"

	"vba2py/lang"
)

// WriteReport renders one row per result and a footer with the totals.
func WriteReport(w io.Writer, results []Result) {
	table := tablewriter.NewWriter(w)
	table.SetHeader([]string{"File", "Status", "Warnings", "Errors", "Detail"})
	table.SetAutoWrapText(false)
	table.SetAlignment(tablewriter.ALIGN_LEFT)

	for _, r := range results {
		table.Append([]string{
			r.Rel,
			r.Status.String(),
			strconv.Itoa(r.Count(lang.SeverityWarning)),
			strconv.Itoa(r.Count(lang.SeverityError)),
			detail(r),
		})
	}

	s := Summarize(results)
	table.SetFooter([]string{
		fmt.Sprintf("%d files", s.Files),
		fmt.Sprintf("%d ok", s.OK),
		fmt.Sprintf("%d warned", s.Warnings),
		fmt.Sprintf("%d failed", s.Failed),
		"",
	})
	table.Render()
}

// detail is the first thing a reader needs to look at for a result.
func detail(r Result) string {
	for _, d := range r.Diagnostics {
		if d.Severity == lang.SeverityError {
			return d.String()
		}
	}
	if r.Err != nil {
		return r.Err.Error()
	}
	if len(r.Diagnostics) > 0 {
		return r.Diagnostics[0].String()
	}
	return ""
}
