package engine

import (
	"context"
	"runtime"

	"golang.org/x/sync/errgroup"

	"github.com/cratestats/cargo-tally/internal/matrix"
	"github.com/cratestats/cargo-tally/internal/types"
)

// Options configures a tally run.
type Options struct {
	// Transitive counts reverse dependencies through the feature graph
	// rather than first-order edges.
	Transitive bool
	// Jobs bounds the per-batch fixpoint parallelism. Zero means
	// min(GOMAXPROCS, 32).
	Jobs int
	// Progress, when non-nil, observes (processed, total) release counts.
	Progress func(done, total int)
}

// DefaultJobs is the worker count used when Options.Jobs is zero.
func DefaultJobs() int {
	jobs := runtime.GOMAXPROCS(0)
	if jobs > 32 {
		jobs = 32
	}
	return jobs
}

// Run replays the release stream and produces one matrix row per timestamp
// at which some count changed. db.Releases must be sorted chronologically.
func Run(ctx context.Context, db *types.DbDump, queries []types.Query, opts Options) (*matrix.Matrix, error) {
	jobs := opts.Jobs
	if jobs <= 0 {
		jobs = DefaultJobs()
	}

	e := newEngine(db, queries, opts.Transitive)
	collect := newCollector(len(queries))

	releases := db.Releases
	for i := 0; i < len(releases); {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		// Releases sharing a timestamp are one simultaneous batch.
		at := releases[i].CreatedAt
		j := i
		for j < len(releases) && releases[j].CreatedAt.Equal(at) {
			e.insert(&releases[j])
			j++
		}

		if err := e.settle(ctx, jobs); err != nil {
			return nil, err
		}
		collect.offer(at, e.snapshot())

		if opts.Progress != nil {
			opts.Progress(j, len(releases))
		}
		i = j
	}

	return collect.m, nil
}

// settle reruns the fixpoint of every query whose reachable set may have
// shrunk during this batch. Queries are independent, so dirty ones run
// concurrently.
func (e *engine) settle(ctx context.Context, jobs int) error {
	if !e.transitive {
		return nil
	}
	var pending []int
	for q := range e.queries {
		if e.dirty[q] {
			pending = append(pending, q)
		}
	}
	switch len(pending) {
	case 0:
		return nil
	case 1:
		e.recompute(pending[0])
		return nil
	}

	g, _ := errgroup.WithContext(ctx)
	g.SetLimit(jobs)
	for _, q := range pending {
		g.Go(func() error {
			e.recompute(q)
			return nil
		})
	}
	return g.Wait()
}
