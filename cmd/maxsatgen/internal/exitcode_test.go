// Copyright 2024 The maxsat Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package internal

import (
	"errors"
	"fmt"
	"testing"

	"github.com/goplus/maxsat/internal/bindgen"
	"github.com/goplus/maxsat/internal/config"
	"github.com/goplus/maxsat/internal/deps"
	"github.com/goplus/maxsat/internal/pipeline"
	"github.com/goplus/maxsat/internal/runner"
)

func TestExitCode(t *testing.T) {
	exit := &runner.ExitError{Label: "configure cadical", Code: 2}
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"nil", nil, exitOK},
		{"build", fmt.Errorf("dependency cadical: %w", exit), exitBuild},
		{"launch", &runner.LaunchError{Label: "build cadical", Program: "make", Err: errors.New("not found")}, exitLaunch},
		{"flags", &usageError{errors.New("unknown flag: --x")}, exitUsage},
		{"config", &config.Error{Source: "jobs", Err: errors.New("-1 is negative")}, exitUsage},
		{"graph", &deps.GraphError{Kind: deps.ErrCycle, Msg: "a -> b -> a"}, exitUsage},
		{"unknown command", errors.New(`unknown command "x" for "maxsatgen"`), exitUsage},
		{"bindgen", &bindgen.Error{Header: "wrapper.h", Err: errors.New("bad")}, exitGenerate},
		{"preprocess", &bindgen.Error{Header: "wrapper.h", Err: exit}, exitGenerate},
		{"write", &bindgen.WriteError{Path: "ffi/ipamir.go", Err: errors.New("denied")}, exitGenerate},
		{"stamp", &pipeline.WriteError{Path: "ffi/.maxsatgen.json", Err: errors.New("denied")}, exitGenerate},
		{"other", errors.New("boom"), exitBuild},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := exitCode(tt.err); got != tt.want {
				t.Errorf("exitCode(%v) = %d, want %d", tt.err, got, tt.want)
			}
		})
	}
}

func TestModuleVersion(t *testing.T) {
	tests := map[string]string{
		"v1.2.3":        "v1.2.3",
		"v1.2":          "v1.2.0",
		"v0.1.0-rc.1":   "v0.1.0-rc.1",
		"(devel)":       "(devel)",
		"":              "(devel)",
		"v2.0.0+meta.1": "v2.0.0+meta.1",
	}
	for in, want := range tests {
		if got := moduleVersion(in); got != want {
			t.Errorf("moduleVersion(%q) = %q, want %q", in, got, want)
		}
	}
}
