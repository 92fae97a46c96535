// Package debug provides env-gated trace logging for the engine.
//
// Referential and feature-resolution defects in the dump are expected and
// silently repaired; set CARGO_TALLY_DEBUG=1 to see a trace of the
// dependency rows, feature clauses and patch rows the loader drops or
// skips, plus allocation statistics at exit.
package debug

import (
	"fmt"
	"os"
	"sync"
)

var (
	enabled     = os.Getenv("CARGO_TALLY_DEBUG") != ""
	verboseMode = false
	logMutex    sync.Mutex
)

// Enabled reports whether trace logging is active.
func Enabled() bool {
	return enabled || verboseMode
}

// SetVerbose enables trace output regardless of the environment.
func SetVerbose(verbose bool) {
	verboseMode = verbose
}

// Logf writes a trace line to stderr when tracing is active.
func Logf(format string, args ...interface{}) {
	if !Enabled() {
		return
	}
	logMutex.Lock()
	defer logMutex.Unlock()
	fmt.Fprintf(os.Stderr, format, args...)
}
