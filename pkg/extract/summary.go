package extract

import (
	"fmt"
	"io"

	"github.com/fatih/color"
)

// PrintSummary writes a per-sample table of the run to w
func (r *Result) PrintSummary(w io.Writer) {
	bold := color.New(color.Bold)
	green := color.New(color.FgGreen)
	yellow := color.New(color.FgYellow)

	bold.Fprintf(w, "\n%-24s %9s %9s %10s  %s\n", "Sample", "Extracted", "Skipped", "Reads", "Merged")
	fmt.Fprintln(w, "----------------------------------------------------------------------")
	for _, s := range r.Samples {
		merged := "-"
		switch {
		case s.MergeSkipped:
			merged = yellow.Sprint("kept")
		case s.Merged != "":
			merged = green.Sprint("written")
		}
		fmt.Fprintf(w, "%-24s %9d %9d %10d  %s\n", s.Sample, s.Extracted, s.Skipped, s.Reads, merged)
	}

	total := len(r.Outputs())
	green.Fprintf(w, "\n%d sub-BAM(s) in %s (%.1fs)\n", total, r.WorkDir, r.Elapsed.Seconds())
}
