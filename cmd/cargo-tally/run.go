package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"regexp"

	"github.com/pkg/browser"
	"github.com/spf13/cobra"
	"github.com/vbauerster/mpb/v8"
	"github.com/vbauerster/mpb/v8/decor"
	"golang.org/x/term"

	"github.com/cratestats/cargo-tally/internal/config"
	"github.com/cratestats/cargo-tally/internal/debug"
	"github.com/cratestats/cargo-tally/internal/dump"
	"github.com/cratestats/cargo-tally/internal/engine"
	"github.com/cratestats/cargo-tally/internal/memlimit"
	"github.com/cratestats/cargo-tally/internal/query"
	"github.com/cratestats/cargo-tally/internal/render"
	"github.com/cratestats/cargo-tally/internal/ui"
)

var errNothingFound = errors.New("nothing found for this query")

func run(cmd *cobra.Command, args []string) error {
	// Configuration problems are reported before any load work begins.
	for _, q := range args {
		if err := query.Validate(q); err != nil {
			return fmt.Errorf("failed to parse query %q: %w", q, err)
		}
	}
	var exclude []*regexp.Regexp
	for _, pattern := range config.Exclude() {
		compiled, err := regexp.Compile(pattern)
		if err != nil {
			return fmt.Errorf("invalid exclude pattern: %w", err)
		}
		exclude = append(exclude, compiled)
	}

	monitor := memlimit.Start(config.MemoryLimit())
	defer func() {
		monitor.Stop()
		debug.Logf("%s\n", monitor.Stats())
	}()

	file, err := os.Open(config.DB())
	if err != nil {
		return fmt.Errorf("failed to open database dump %s (https://static.crates.io/db-dump.tar.gz): %w", config.DB(), err)
	}
	defer file.Close()

	progress := newProgress()
	db, crates, err := dump.Load(progress.loadReader(file))
	if err != nil {
		return err
	}

	if err := dump.Mend(db, crates); err != nil {
		return err
	}
	dump.SortReleases(db)
	dump.Exclude(db, crates, exclude)
	dump.Clean(db, crates)

	queries, err := query.Parse(args, crates)
	if err != nil {
		return err
	}

	var totals *engine.Totals
	if config.Relative() {
		totals = engine.IndexTotals(db.Releases)
	}
	dump.Disjoin(db, queries)

	matrix, err := engine.Run(cmd.Context(), db, queries, engine.Options{
		Transitive: config.Transitive(),
		Jobs:       config.Jobs(),
		Progress:   progress.events(len(db.Releases)),
	})
	progress.finish()
	if err != nil {
		return err
	}
	if matrix.IsEmpty() {
		return errNothingFound
	}

	labels := make([]string, len(args))
	for i, q := range args {
		labels[i] = query.Format(q, crates)
	}

	render.Print(os.Stdout, matrix, totals)

	if term.IsTerminal(int(os.Stdout.Fd())) {
		path, err := render.Graph(config.Title(), config.Transitive(), matrix, labels, totals)
		if err != nil {
			return err
		}
		if err := browser.OpenFile(path); err != nil {
			ui.Warnf("wrote %s but could not open a browser: %v", path, err)
		}
	}
	return nil
}

// progressBars owns the stderr progress display: one bar for decompressing
// the dump, one for replaying the release stream. Hidden when stderr is
// not a terminal.
type progressBars struct {
	container *mpb.Progress
	eventsBar   *mpb.Bar
}

func newProgress() *progressBars {
	if !term.IsTerminal(int(os.Stderr.Fd())) {
		return &progressBars{}
	}
	return &progressBars{container: mpb.New(mpb.WithOutput(os.Stderr), mpb.WithWidth(48))}
}

func (p *progressBars) loadReader(file *os.File) io.Reader {
	if p.container == nil {
		return file
	}
	size := int64(0)
	if info, err := file.Stat(); err == nil {
		size = info.Size()
	}
	bar := p.container.AddBar(size,
		mpb.PrependDecorators(decor.Name("load")),
		mpb.AppendDecorators(decor.CountersKibiByte("% .1f / % .1f")),
		mpb.BarRemoveOnComplete(),
	)
	return bar.ProxyReader(file)
}

func (p *progressBars) events(total int) func(done, total int) {
	if p.container == nil {
		return nil
	}
	p.eventsBar = p.container.AddBar(int64(total),
		mpb.PrependDecorators(decor.Name("tally")),
		mpb.AppendDecorators(decor.Percentage()),
		mpb.BarRemoveOnComplete(),
	)
	return func(done, total int) {
		p.eventsBar.SetCurrent(int64(done))
	}
}

func (p *progressBars) finish() {
	if p.container == nil {
		return
	}
	if p.eventsBar != nil {
		p.eventsBar.SetTotal(-1, true)
	}
	p.container.Wait()
}
