// Package matrix holds the engine's output: one row per timestamp at which
// some query's count changed, one column per query.
package matrix

import (
	"strconv"
	"strings"
	"time"
)

// Row is one observation: the counts of every query at Time.
type Row struct {
	Time   time.Time
	Counts []uint32
}

// Matrix is an ordered series of rows.
type Matrix struct {
	width int
	rows  []Row
}

// New returns an empty matrix with one column per query.
func New(width int) *Matrix {
	return &Matrix{width: width}
}

// Width returns the number of query columns.
func (m *Matrix) Width() int {
	return m.width
}

// Len returns the number of rows.
func (m *Matrix) Len() int {
	return len(m.rows)
}

// IsEmpty reports whether no row was ever emitted.
func (m *Matrix) IsEmpty() bool {
	return len(m.rows) == 0
}

// Push appends a row. Rows must arrive in timestamp order.
func (m *Matrix) Push(at time.Time, counts []uint32) {
	m.rows = append(m.rows, Row{Time: at, Counts: counts})
}

// Rows exposes the row series.
func (m *Matrix) Rows() []Row {
	return m.rows
}

// Last returns the final row.
func (m *Matrix) Last() Row {
	return m.rows[len(m.rows)-1]
}

// FormatFraction renders value/total the way the graph output wants it:
// float32 shortest representation truncated to two digits past the first
// significant one, trailing zeros stripped.
func FormatFraction(value, total uint32) string {
	if total == 0 {
		return "0"
	}
	repr := strconv.FormatFloat(float64(float32(value)/float32(total)), 'f', -1, 32)
	nonzero := func(r rune) bool { return r >= '1' && r <= '9' }
	if first := strings.IndexFunc(repr, nonzero); first >= 0 && first+3 < len(repr) {
		repr = repr[:first+3]
	}
	if last := strings.LastIndexFunc(repr, nonzero); last >= 0 {
		repr = repr[:last+1]
	}
	return repr
}
