// Package ui renders user-facing diagnostics on stderr.
package ui

import (
	"fmt"
	"os"

	"github.com/fatih/color"
)

var (
	errPrefix  = color.New(color.FgRed, color.Bold)
	warnColor  = color.New(color.FgYellow)
	traceColor = color.New(color.FgMagenta, color.Faint)
)

// Errorf prints an error line: a bold red "error:" prefix followed by the
// formatted message.
func Errorf(format string, args ...interface{}) {
	errPrefix.Fprint(os.Stderr, "error:")
	fmt.Fprintf(os.Stderr, " "+format+"\n", args...)
}

// Warnf prints a yellow warning line.
func Warnf(format string, args ...interface{}) {
	warnColor.Fprintf(os.Stderr, format+"\n", args...)
}

// Tracef prints a dimmed trace line.
func Tracef(format string, args ...interface{}) {
	traceColor.Fprintf(os.Stderr, format+"\n", args...)
}
