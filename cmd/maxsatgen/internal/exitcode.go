// Copyright 2024 The maxsat Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package internal

import (
	"errors"
	"strings"

	"github.com/goplus/maxsat/internal/bindgen"
	"github.com/goplus/maxsat/internal/config"
	"github.com/goplus/maxsat/internal/deps"
	"github.com/goplus/maxsat/internal/pipeline"
	"github.com/goplus/maxsat/internal/runner"
)

// Exit codes of maxsatgen.
const (
	exitOK       = 0
	exitBuild    = 1 // an external build step failed
	exitUsage    = 2 // bad flags, arguments or configuration
	exitLaunch   = 3 // an external tool could not be started
	exitGenerate = 4 // bindings could not be generated or written
)

type usageError struct {
	err error
}

func (e *usageError) Error() string { return e.err.Error() }

func (e *usageError) Unwrap() error { return e.err }

// exitCode classifies err.
func exitCode(err error) int {
	var (
		ue  *usageError
		ce  *config.Error
		ge  *deps.GraphError
		le  *runner.LaunchError
		ee  *runner.ExitError
		be  *bindgen.Error
		bwe *bindgen.WriteError
		pwe *pipeline.WriteError
	)
	switch {
	case err == nil:
		return exitOK
	case errors.As(err, &ue), errors.As(err, &ce), errors.As(err, &ge):
		return exitUsage
	case errors.As(err, &le):
		return exitLaunch
	case errors.As(err, &be), errors.As(err, &bwe), errors.As(err, &pwe):
		return exitGenerate
	case errors.As(err, &ee):
		return exitBuild
	case strings.HasPrefix(err.Error(), "unknown command"):
		return exitUsage
	}
	return exitBuild
}
