// Copyright 2024 The maxsat Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package runner executes external build steps synchronously and converts
// their outcome into typed errors.
package runner

import (
	"bytes"
	"context"
	"errors"
	"io"
	"os"
	"os/exec"
	"sort"
	"strings"

	"github.com/qiniu/x/gsh"
	"github.com/qiniu/x/log"
)

// BuildStep is one invocation of an external tool.
type BuildStep struct {
	Program string            // executable name or path, relative paths resolve against Dir
	Dir     string            // working directory, empty means the current directory
	Args    []string          // arguments in order
	Env     map[string]string // overrides applied on top of the inherited environment
	Label   string            // human readable description used in diagnostics
}

// String returns the command line of the step.
func (s BuildStep) String() string {
	if len(s.Args) == 0 {
		return s.Program
	}
	return s.Program + " " + strings.Join(s.Args, " ")
}

// Runner runs build steps. A nil error means the step succeeded; otherwise
// the error is a *LaunchError or an *ExitError.
type Runner interface {
	// Run blocks until the step terminates. The child inherits the
	// runner's output streams.
	Run(ctx context.Context, step BuildStep) error

	// Output is like Run but captures and returns the child's stdout.
	Output(ctx context.Context, step BuildStep) ([]byte, error)
}

// Exec runs steps as child processes of the current process.
type Exec struct {
	Stdout io.Writer
	Stderr io.Writer

	// OS starts the child processes and supplies the environment they
	// inherit. Nil means gsh.Sys.
	OS gsh.OS
}

var _ Runner = (*Exec)(nil)

// NewExec returns a Runner wired to the process' own stdout and stderr.
func NewExec() *Exec {
	return &Exec{Stdout: os.Stdout, Stderr: os.Stderr, OS: gsh.Sys}
}

func (e *Exec) Run(ctx context.Context, step BuildStep) error {
	cmd := e.command(ctx, step)
	cmd.Stdout = e.Stdout
	return e.run(step, cmd)
}

func (e *Exec) Output(ctx context.Context, step BuildStep) ([]byte, error) {
	var out bytes.Buffer
	cmd := e.command(ctx, step)
	cmd.Stdout = &out
	if err := e.run(step, cmd); err != nil {
		return nil, err
	}
	return out.Bytes(), nil
}

func (e *Exec) command(ctx context.Context, step BuildStep) *exec.Cmd {
	cmd := exec.CommandContext(ctx, step.Program, step.Args...)
	cmd.Dir = step.Dir
	cmd.Stderr = e.Stderr
	cmd.Env = mergeEnv(e.shell().Environ(), step.Env)
	return cmd
}

func (e *Exec) run(step BuildStep, cmd *exec.Cmd) error {
	log.Debugf("%s: %s (dir=%s)", step.Label, step, step.Dir)

	err := e.shell().Run(cmd)
	if err == nil {
		log.Debugf("%s: ok", step.Label)
		return nil
	}
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		return newExitError(step.Label, exitErr.ProcessState)
	}
	return &LaunchError{Label: step.Label, Program: step.Program, Err: err}
}

func (e *Exec) shell() gsh.OS {
	if e.OS == nil {
		return gsh.Sys
	}
	return e.OS
}

// mergeEnv overlays override on base and returns a sorted KEY=VALUE list.
func mergeEnv(base []string, override map[string]string) []string {
	envMap := make(map[string]string, len(base)+len(override))
	for _, kv := range base {
		if k, v, ok := strings.Cut(kv, "="); ok {
			envMap[k] = v
		}
	}
	for k, v := range override {
		envMap[k] = v
	}
	keys := make([]string, 0, len(envMap))
	for k := range envMap {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	out := make([]string, 0, len(keys))
	for _, k := range keys {
		out = append(out, k+"="+envMap[k])
	}
	return out
}
