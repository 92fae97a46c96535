// Package memlimit enforces the optional process-wide memory ceiling.
//
// Go exposes no allocation hook, so the ceiling is enforced two ways: the
// runtime's soft memory limit makes the collector fight for the budget,
// and a sampling watchdog aborts the process if live heap exceeds the
// ceiling anyway. Exceeding the ceiling is fatal by design; the
// computation is not restartable.
package memlimit

import (
	"fmt"
	"os"
	"runtime"
	rtdebug "runtime/debug"
	"sync"
	"time"

	"github.com/dustin/go-humanize"
)

const sampleInterval = 250 * time.Millisecond

// Monitor samples heap usage until stopped.
type Monitor struct {
	limit int64
	peak  uint64
	mu    sync.Mutex
	stop  chan struct{}
	done  chan struct{}
}

// Start begins enforcement of limit bytes; zero means observe only.
func Start(limit int64) *Monitor {
	if limit > 0 {
		rtdebug.SetMemoryLimit(limit)
	}
	m := &Monitor{
		limit: limit,
		stop:  make(chan struct{}),
		done:  make(chan struct{}),
	}
	go m.watch()
	return m
}

func (m *Monitor) watch() {
	defer close(m.done)
	ticker := time.NewTicker(sampleInterval)
	defer ticker.Stop()
	for {
		select {
		case <-m.stop:
			m.sample()
			return
		case <-ticker.C:
			m.sample()
		}
	}
}

func (m *Monitor) sample() {
	var stats runtime.MemStats
	runtime.ReadMemStats(&stats)
	m.mu.Lock()
	if stats.HeapAlloc > m.peak {
		m.peak = stats.HeapAlloc
	}
	m.mu.Unlock()
	if m.limit > 0 && stats.HeapAlloc > uint64(m.limit) {
		fmt.Fprintf(os.Stderr, "memory limit exceeded: %s in use, limit %s\n",
			humanize.Bytes(stats.HeapAlloc), humanize.Bytes(uint64(m.limit)))
		os.Exit(134)
	}
}

// Stop ends sampling, taking one final sample first.
func (m *Monitor) Stop() {
	close(m.stop)
	<-m.done
}

// Stats summarizes allocation behavior for the trace log.
func (m *Monitor) Stats() string {
	var stats runtime.MemStats
	runtime.ReadMemStats(&stats)
	m.mu.Lock()
	peak := m.peak
	m.mu.Unlock()
	if stats.HeapAlloc > peak {
		peak = stats.HeapAlloc
	}
	return fmt.Sprintf("%d allocations, total %s, peak %s",
		stats.Mallocs, humanize.Bytes(stats.TotalAlloc), humanize.Bytes(peak))
}
