// Copyright 2024 The maxsat Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package deps

import (
	"context"
	"errors"
	"path/filepath"
	"reflect"
	"strings"
	"testing"

	"github.com/goplus/maxsat/internal/runner"
	"github.com/goplus/maxsat/internal/runner/runnertest"
	"github.com/goplus/maxsat/pkgs/buildsys"
)

func TestBuildAllSolvers(t *testing.T) {
	rec := &runnertest.Recorder{}
	if err := NewBuilder(rec).BuildAll(context.Background(), Solvers("/src")); err != nil {
		t.Fatalf("BuildAll: %v", err)
	}
	want := []runner.BuildStep{
		{Program: "./configure", Dir: "/src/cadical", Args: []string{"--no-contracts", "--no-tracing"}, Label: "configure cadical"},
		{Program: "make", Dir: "/src/cadical", Args: []string{"cadical"}, Label: "build cadical"},
		{Program: "make", Dir: "/src/UWrMaxSat", Args: []string{"MAXPRE=", "USESCIP=", "LDFLAG_STATIC=", "r"}, Label: "build UWrMaxSat release"},
	}
	if !reflect.DeepEqual(rec.Steps, want) {
		t.Errorf("steps:\n got %+v\nwant %+v", rec.Steps, want)
	}
}

func TestBuildAllStopsOnFirstFailure(t *testing.T) {
	tests := []struct {
		failing string
		ran     []string
		words   []string
	}{
		{"configure cadical", []string{"configure cadical"}, []string{"configure", "cadical", "exit status 2"}},
		{"build cadical", []string{"configure cadical", "build cadical"}, []string{"build cadical"}},
		{"build UWrMaxSat release", []string{"configure cadical", "build cadical", "build UWrMaxSat release"}, []string{"UWrMaxSat"}},
	}
	for _, tt := range tests {
		t.Run(tt.failing, func(t *testing.T) {
			rec := &runnertest.Recorder{Fail: map[string]error{tt.failing: runnertest.ExitFailure(tt.failing, 2)}}
			err := NewBuilder(rec).BuildAll(context.Background(), Solvers("/src"))
			if err == nil {
				t.Fatal("BuildAll succeeded")
			}
			var ee *runner.ExitError
			if !errors.As(err, &ee) || ee.Label != tt.failing {
				t.Errorf("error = %v, want ExitError for %q", err, tt.failing)
			}
			for _, w := range tt.words {
				if !strings.Contains(err.Error(), w) {
					t.Errorf("error %q does not mention %q", err, w)
				}
			}
			if got := rec.Labels(); !reflect.DeepEqual(got, tt.ran) {
				t.Errorf("ran %q, want %q", got, tt.ran)
			}
		})
	}
}

func TestBuildAllRejectsBadGraph(t *testing.T) {
	rec := &runnertest.Recorder{}
	err := NewBuilder(rec).BuildAll(context.Background(), []Dependency{UWrMaxSat("u")})
	var ge *GraphError
	if !errors.As(err, &ge) {
		t.Fatalf("error = %v, want *GraphError", err)
	}
	if len(rec.Steps) != 0 {
		t.Errorf("ran %d steps before validating the graph", len(rec.Steps))
	}
}

func TestBuildPassesEnv(t *testing.T) {
	rec := &runnertest.Recorder{}
	d := Cadical("/c")
	d.Env = map[string]string{"CXX": "clang++"}
	if err := NewBuilder(rec).Build(context.Background(), &d); err != nil {
		t.Fatal(err)
	}
	for _, s := range rec.Steps {
		if s.Env["CXX"] != "clang++" {
			t.Errorf("%s: env = %v", s.Label, s.Env)
		}
	}
}

func TestArtifactDir(t *testing.T) {
	c, u := Cadical("/s/cadical"), UWrMaxSat("/s/UWrMaxSat")
	if got := c.ArtifactDir(); got != filepath.Join("/s/cadical", "build") {
		t.Errorf("cadical artifact dir = %s", got)
	}
	if got := u.ArtifactDir(); got != filepath.Join("/s/UWrMaxSat", "build", "release", "lib") {
		t.Errorf("UWrMaxSat artifact dir = %s", got)
	}
	if c.Artifact.Kind != Static || u.Artifact.Kind != Static {
		t.Error("solver artifacts must be static")
	}
}

func TestTune(t *testing.T) {
	base := Solvers("/src")
	ds := Tune(base, 4, buildsys.Debug)
	for _, d := range ds {
		if d.Config.Jobs != 4 || d.Config.Variant != buildsys.Debug {
			t.Errorf("%s: config = %+v", d.Name, d.Config)
		}
	}
	if got, want := ds[1].ArtifactDir(), filepath.Join("/src/UWrMaxSat", "build", "debug", "lib"); got != want {
		t.Errorf("UWrMaxSat artifacts in %s, want %s", got, want)
	}
	if got, want := ds[0].ArtifactDir(), filepath.Join("/src/cadical", "build"); got != want {
		t.Errorf("cadical artifacts in %s, want %s", got, want)
	}
	if base[1].Config.Variant != buildsys.Release || base[1].Artifact.Dir != filepath.Join("build", "release", "lib") {
		t.Error("Tune modified its input")
	}
}
