// Package cargotally provides a minimal public API for embedding the tally
// engine.
//
// Most consumers should use the cargo-tally command. This package exports
// only the essential types and functions needed to load a database dump
// and run queries programmatically.
package cargotally

import (
	"context"
	"io"

	"github.com/cratestats/cargo-tally/internal/cratemap"
	"github.com/cratestats/cargo-tally/internal/dump"
	"github.com/cratestats/cargo-tally/internal/engine"
	"github.com/cratestats/cargo-tally/internal/matrix"
	"github.com/cratestats/cargo-tally/internal/query"
	"github.com/cratestats/cargo-tally/internal/types"
)

// Core types for working with the engine
type (
	DbDump   = types.DbDump
	CrateMap = cratemap.CrateMap
	Matrix   = matrix.Matrix
	Row      = matrix.Row
	Totals   = engine.Totals
)

// Options configures Tally.
type Options struct {
	// Transitive counts reverse dependencies through the feature graph.
	Transitive bool
	// Jobs bounds worker parallelism; zero picks a default.
	Jobs int
}

// Load reads a gzipped tar archive of the crates.io database dump,
// applying the full defect-mending pipeline.
func Load(r io.Reader) (*DbDump, *CrateMap, error) {
	db, crates, err := dump.Load(r)
	if err != nil {
		return nil, nil, err
	}
	if err := dump.Mend(db, crates); err != nil {
		return nil, nil, err
	}
	dump.SortReleases(db)
	dump.Clean(db, crates)
	return db, crates, nil
}

// Tally runs queries against a loaded dump and returns the time series of
// per-query counts.
func Tally(ctx context.Context, db *DbDump, crates *CrateMap, queries []string, opts Options) (*Matrix, error) {
	parsed, err := query.Parse(queries, crates)
	if err != nil {
		return nil, err
	}
	return engine.Run(ctx, db, parsed, engine.Options{
		Transitive: opts.Transitive,
		Jobs:       opts.Jobs,
	})
}

// TotalsIndex builds the relative-mode denominator from a loaded dump.
func TotalsIndex(db *DbDump) *Totals {
	return engine.IndexTotals(db.Releases)
}
