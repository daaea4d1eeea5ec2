// Copyright ©2025 curioloop. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package equilibrium

import (
	"fmt"
	"os"
)

// overflowExitCode mirrors the original program's ERR_OVERFLOW constant.
const overflowExitCode = 1

func defaultOverflowHandler(e *OverflowError) {
	fmt.Fprintln(os.Stderr, e.Error())
	os.Exit(overflowExitCode)
}

// OverflowError reports an unrecoverable overflow: the initial guess at
// the start of a fresh attempt already maps to a mole fraction beyond
// maxLogX, with no retry left to fall back on. This mirrors the original
// C program's ERR_OVERFLOW exit code, which the surrounding executable
// relied on to distinguish this failure mode from others.
type OverflowError struct {
	Trial int // the attempt number (1-based) during which it occurred
}

func (e *OverflowError) Error() string {
	return fmt.Sprintf("equilibrium: overflow computing initial mole fractions on trial %d", e.Trial)
}

// OverflowHandler is invoked whenever an *OverflowError occurs instead of
// terminating the process, letting an embedding program intercept what
// the original C implementation handled by calling exit(ERR_OVERFLOW).
// The default calls os.Exit(1), preserving that process-exit contract
// for callers that depend on it; override it to recover instead.
var OverflowHandler func(*OverflowError) = defaultOverflowHandler

// SetOverflowHandler installs h as the overflow handler. Passing nil
// restores the default process-exit behavior.
func SetOverflowHandler(h func(*OverflowError)) {
	if h == nil {
		OverflowHandler = defaultOverflowHandler
		return
	}
	OverflowHandler = h
}
