package render

import (
	_ "embed"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/cratestats/cargo-tally/internal/engine"
	"github.com/cratestats/cargo-tally/internal/matrix"
)

//go:embed index.html
var indexHTML string

// Graph renders the matrix as an HTML page in the temp directory and
// returns its path. Each query becomes one step series; runs of identical
// values collapse to their first point, a zero point is synthesized one
// second before a series first becomes nonzero, and the last value extends
// to the present so the graph does not end at the final release event.
func Graph(title string, transitive bool, m *matrix.Matrix, labels []string, totals *engine.Totals) (string, error) {
	now := time.Now().UTC()

	if title == "" {
		switch {
		case totals != nil && transitive:
			title = "fraction of crates.io depending transitively"
		case totals != nil:
			title = "fraction of crates.io depending directly"
		case transitive:
			title = "number of crates depending transitively"
		default:
			title = "number of crates depending directly"
		}
	}

	var data strings.Builder
	data.WriteString("var data = [\n")
	for i, label := range labels {
		fmt.Fprintf(&data, "      {\"name\":%q, \"values\":[\n", label)
		emitted := false
		var prev uint32
		for _, row := range m.Rows() {
			value := row.Counts[i]
			if !emitted {
				if value == 0 {
					continue
				}
				writePoint(&data, row.Time.Add(-time.Second), 0, totals)
			} else if prev == value {
				continue
			}
			writePoint(&data, row.Time, value, totals)
			prev = value
			emitted = true
		}
		if m.Len() > 0 {
			last := m.Last()
			if last.Time.Before(now) {
				writePoint(&data, now, last.Counts[i], totals)
			}
		}
		data.WriteString("      ]},\n")
	}
	data.WriteString("    ];")

	html := strings.Replace(indexHTML, `var title = "";`, fmt.Sprintf("var title = %q;", title), 1)
	html = strings.Replace(html, `var data = [];`, data.String(), 1)

	dir := filepath.Join(os.TempDir(), "cargo-tally")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create graph directory: %w", err)
	}
	path := filepath.Join(dir, fmt.Sprintf("%d.html", now.UnixMilli()))
	if err := os.WriteFile(path, []byte(html), 0o644); err != nil {
		return "", fmt.Errorf("failed to write graph: %w", err)
	}
	return path, nil
}

func writePoint(data *strings.Builder, at time.Time, value uint32, totals *engine.Totals) {
	data.WriteString("        {\"time\":")
	fmt.Fprint(data, at.UnixMilli())
	data.WriteString(", \"edges\":")
	if totals != nil {
		data.WriteString(matrix.FormatFraction(value, totals.Eval(at)))
	} else {
		fmt.Fprint(data, value)
	}
	data.WriteString("},\n")
}
