// Copyright 2024 The maxsat Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package autotools drives the classic "./configure && make <target>"
// workflow inside a dependency's source tree.
package autotools

import (
	"context"
	"strconv"

	"github.com/goplus/maxsat/internal/runner"
	"github.com/goplus/maxsat/pkgs/buildsys"
)

// AutoTools wraps the configure and make steps of one dependency.
type AutoTools struct {
	name      string
	sourceDir string
	config    buildsys.Config
	env       map[string]string
	runner    runner.Runner
}

var _ buildsys.BuildSystem = (*AutoTools)(nil)

// New creates an AutoTools helper for the dependency name rooted at sourceDir.
func New(r runner.Runner, name, sourceDir string, config buildsys.Config) *AutoTools {
	return &AutoTools{
		name:      name,
		sourceDir: sourceDir,
		config:    config,
		env:       map[string]string{},
		runner:    r,
	}
}

func (a *AutoTools) Env(key, value string) {
	a.env[key] = value
}

// Configure runs ./configure in the source directory.
func (a *AutoTools) Configure(ctx context.Context) error {
	return a.runner.Run(ctx, a.configureStep())
}

// Build runs make for the configured target in the source directory.
func (a *AutoTools) Build(ctx context.Context) error {
	return a.runner.Run(ctx, a.buildStep())
}

func (a *AutoTools) configureStep() runner.BuildStep {
	return runner.BuildStep{
		Program: "./configure",
		Dir:     a.sourceDir,
		Args:    a.ConfigureArgs(),
		Env:     a.stepEnv(),
		Label:   "configure " + a.name,
	}
}

func (a *AutoTools) buildStep() runner.BuildStep {
	return runner.BuildStep{
		Program: "make",
		Dir:     a.sourceDir,
		Args:    a.BuildArgs(),
		Env:     a.stepEnv(),
		Label:   "build " + a.name,
	}
}

// ConfigureArgs translates the configuration into configure script flags.
func (a *AutoTools) ConfigureArgs() []string {
	var args []string
	if a.config.DisableContracts {
		args = append(args, "--no-contracts")
	}
	if a.config.DisableTracing {
		args = append(args, "--no-tracing")
	}
	if a.config.Variant == buildsys.Debug {
		args = append(args, "-g")
	}
	return args
}

// BuildArgs returns the make arguments: optional job count, then the target.
func (a *AutoTools) BuildArgs() []string {
	var args []string
	if a.config.Jobs > 0 {
		args = append(args, "-j"+strconv.Itoa(a.config.Jobs))
	}
	if a.config.Target != "" {
		args = append(args, a.config.Target)
	}
	return args
}

func (a *AutoTools) stepEnv() map[string]string {
	if len(a.env) == 0 {
		return nil
	}
	env := make(map[string]string, len(a.env))
	for k, v := range a.env {
		env[k] = v
	}
	return env
}
