package cli

import (
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/fatih/color"
	"github.com/olekukonko/tablewriter"

	"github.com/turtacn/pubconcept/internal/application/replacement"
	"github.com/turtacn/pubconcept/internal/domain/concept"
)

// writeSummary renders a run summary as two tables: record counts, then
// annotation verdicts in rule order.
func writeSummary(w io.Writer, s *replacement.RunSummary) {
	fmt.Fprintf(w, "\n=== Run %s ===\n\n", s.RunID)

	table := tablewriter.NewWriter(w)
	table.Header("Metric", "Value")
	for _, row := range [][]string{
		{"Input", s.Input},
		{"Lines read", count(s.Reader.LinesRead)},
		{"Records read", count(s.Reader.RecordsEmitted)},
		{"Records written", color.GreenString(count(s.Written))},
		{"Spans applied", count(s.SpansApplied)},
		{"Skipped (not relevant)", count(s.SkippedIrrelevant)},
		{"Skipped (malformed)", warnIfNonZero(s.SkippedStructural)},
		{"Unrecognized lines", warnIfNonZero(s.Reader.UnrecognizedLines)},
		{"Duration", s.Duration.Round(time.Millisecond).String()},
	} {
		table.Append(row)
	}
	table.Render()

	fmt.Fprintln(w)
	verdicts := tablewriter.NewWriter(w)
	verdicts.Header("Annotation verdict", "Count")
	for _, v := range concept.Verdicts() {
		n := count(s.Verdicts[v.String()])
		if v == concept.Accepted {
			n = color.GreenString(n)
		}
		verdicts.Append([]string{v.String(), n})
	}
	verdicts.Render()
}

func count(n int64) string { return strconv.FormatInt(n, 10) }

func warnIfNonZero(n int64) string {
	if n == 0 {
		return count(n)
	}
	return color.YellowString(count(n))
}

//Personal.AI order the ending
