package dump

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/cratestats/cargo-tally/internal/semver"
	"github.com/cratestats/cargo-tally/internal/types"
)

// forEachRow streams a CSV table, mapping the named columns through the
// header row and invoking fn with the values in the requested order.
// Missing optional trailing columns come through as "".
func forEachRow(r io.Reader, columns []string, fn func(row []string) error) error {
	reader := csv.NewReader(r)
	reader.ReuseRecord = true
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err == io.EOF {
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to read csv header: %w", err)
	}
	index := make([]int, len(columns))
	for i, want := range columns {
		index[i] = -1
		for j, have := range header {
			if have == want {
				index[i] = j
				break
			}
		}
	}

	row := make([]string, len(columns))
	line := 1
	for {
		record, err := reader.Read()
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return fmt.Errorf("failed to read csv row: %w", err)
		}
		line++
		for i, j := range index {
			if j >= 0 && j < len(record) {
				row[i] = record[j]
			} else {
				row[i] = ""
			}
		}
		if err := fn(row); err != nil {
			return fmt.Errorf("row %d: %w", line, err)
		}
	}
}

func parseID(s string) (uint32, error) {
	n, err := strconv.ParseUint(s, 10, 32)
	if err != nil {
		return 0, fmt.Errorf("invalid id %q", s)
	}
	return uint32(n), nil
}

// parseBool accepts the Postgres CSV encodings of booleans.
func parseBool(s string) bool {
	return s == "t" || s == "true" || s == "1"
}

// timestampFormats covers the encodings seen across dump vintages.
var timestampFormats = []string{
	"2006-01-02 15:04:05.999999999",
	"2006-01-02 15:04:05.999999999-07",
	time.RFC3339Nano,
}

func parseTimestamp(s string) (time.Time, error) {
	for _, format := range timestampFormats {
		if t, err := time.Parse(format, s); err == nil {
			return t.UTC().Truncate(time.Second), nil
		}
	}
	return time.Time{}, fmt.Errorf("invalid timestamp %q", s)
}

func parseVersion(s string) (semver.Version, error) {
	return semver.Parse(s)
}

func parseReq(s string) (semver.VersionReq, error) {
	return semver.ParseReq(s)
}

// parsePgArray decodes a Postgres text array literal like {serde,"rc"}.
// The feature names crates.io stores never need full quote unescaping
// beyond stripping the surrounding quotes.
func parsePgArray(s string) []string {
	s = strings.TrimSpace(s)
	if s == "" || s == "{}" {
		return nil
	}
	s = strings.TrimPrefix(s, "{")
	s = strings.TrimSuffix(s, "}")
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, part := range parts {
		part = strings.Trim(strings.TrimSpace(part), `"`)
		if part != "" {
			out = append(out, part)
		}
	}
	return out
}

func parseKind(s string) types.DependencyKind {
	switch s {
	case "1", "build":
		return types.DependencyBuild
	case "2", "dev":
		return types.DependencyDev
	}
	return types.DependencyNormal
}
