// Package render presents the output matrix: plain rows on stdout, plus an
// HTML time-series graph opened in the browser when stdout is a terminal.
package render

import (
	"fmt"
	"io"
	"strings"

	"github.com/cratestats/cargo-tally/internal/engine"
	"github.com/cratestats/cargo-tally/internal/matrix"
)

// Print writes one line per matrix row: the timestamp followed by the
// counts, or by fractions of the running total in relative mode.
func Print(w io.Writer, m *matrix.Matrix, totals *engine.Totals) {
	for _, row := range m.Rows() {
		var cells []string
		if totals != nil {
			total := totals.Eval(row.Time)
			for _, count := range row.Counts {
				cells = append(cells, matrix.FormatFraction(count, total))
			}
		} else {
			for _, count := range row.Counts {
				cells = append(cells, fmt.Sprint(count))
			}
		}
		fmt.Fprintf(w, "%s [%s]\n", row.Time.UTC().Format("2006-01-02 15:04:05"), strings.Join(cells, ", "))
	}
}
