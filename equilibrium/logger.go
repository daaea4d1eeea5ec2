// Copyright ©2025 curioloop. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package equilibrium

import (
	"fmt"
	"io"
)

// LogLevel gates how much trace a Logger emits.
type LogLevel int

const (
	// LogNone emits nothing.
	LogNone LogLevel = iota
	// LogSummary emits one line per attempt: trial number, iterations
	// used, and whether the attempt converged.
	LogSummary
	// LogIter additionally emits one line per trust-region iteration:
	// rho, the trust-region radius, and the step tag.
	LogIter
)

// Logger writes solver trace to an io.Writer, gated by Level. A zero
// Logger (Out == nil) discards everything regardless of Level.
type Logger struct {
	Out   io.Writer
	Level LogLevel
}

func (l *Logger) enabled(level LogLevel) bool {
	return l != nil && l.Out != nil && l.Level >= level
}

func (l *Logger) logf(level LogLevel, format string, args ...interface{}) {
	if !l.enabled(level) {
		return
	}
	fmt.Fprintf(l.Out, format, args...)
	fmt.Fprintln(l.Out)
}
