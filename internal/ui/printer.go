// Package ui owns console output. The terminal is the application surface:
// chat lines, trade prompts, and diagnostics all go through one printer so
// they never interleave mid-line.
package ui

import (
	"fmt"
	"io"
	"sync"
)

// Printer writes user-facing lines unconditionally and diagnostics gated on a
// verbosity threshold (-v count flag).
type Printer struct {
	mu        sync.Mutex
	out       io.Writer
	verbosity int
}

func New(out io.Writer, verbosity int) *Printer {
	return &Printer{out: out, verbosity: verbosity}
}

// Printf prints a user-facing line.
func (p *Printer) Printf(format string, args ...any) {
	p.mu.Lock()
	defer p.mu.Unlock()
	fmt.Fprintf(p.out, format+"\n", args...)
}

// Prompt prints without a trailing newline so input appears on the same line.
func (p *Printer) Prompt(format string, args ...any) {
	p.mu.Lock()
	defer p.mu.Unlock()
	fmt.Fprintf(p.out, format, args...)
}

// Verbosef prints a diagnostic if level is within the verbosity threshold.
func (p *Printer) Verbosef(level int, format string, args ...any) {
	if level > p.verbosity {
		return
	}
	p.Printf(format, args...)
}
