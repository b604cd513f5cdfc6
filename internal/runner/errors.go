// Copyright 2024 The maxsat Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package runner

import (
	"fmt"
	"os"
)

// LaunchError reports a program that could not be started at all, for
// example because it does not exist or is not executable.
type LaunchError struct {
	Label   string
	Program string
	Err     error
}

func (e *LaunchError) Error() string {
	return fmt.Sprintf("failed to run %s: %v", e.Label, e.Err)
}

func (e *LaunchError) Unwrap() error { return e.Err }

// ExitError reports a program that started but did not succeed.
type ExitError struct {
	Label  string
	Code   int    // exit code, -1 when the process was killed by a signal
	Signal string // terminating signal name, empty for a normal exit
}

func (e *ExitError) Error() string {
	return fmt.Sprintf("%s exited with %s", e.Label, e.Status())
}

// Status describes how the process terminated.
func (e *ExitError) Status() string {
	if e.Signal != "" {
		return "signal " + e.Signal
	}
	return fmt.Sprintf("exit status %d", e.Code)
}

func newExitError(label string, ps *os.ProcessState) *ExitError {
	e := &ExitError{Label: label, Code: -1}
	if ps == nil {
		return e
	}
	e.Code = ps.ExitCode()
	if sig, ok := signalOf(ps); ok {
		e.Signal = sig
	}
	return e
}
