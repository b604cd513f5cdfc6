// Copyright 2024 The maxsat Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package gnumake drives dependencies whose Makefile takes its configuration
// as variable assignments on the make command line.
package gnumake

import (
	"context"
	"strconv"

	"github.com/goplus/maxsat/internal/runner"
	"github.com/goplus/maxsat/pkgs/buildsys"
)

// GNUMake runs a single make invocation; there is no separate configure
// step.
type GNUMake struct {
	name      string
	sourceDir string
	config    buildsys.Config
	env       map[string]string
	runner    runner.Runner
}

var _ buildsys.BuildSystem = (*GNUMake)(nil)

// New creates a GNUMake helper for the dependency name rooted at sourceDir.
func New(r runner.Runner, name, sourceDir string, config buildsys.Config) *GNUMake {
	return &GNUMake{
		name:      name,
		sourceDir: sourceDir,
		config:    config,
		env:       map[string]string{},
		runner:    r,
	}
}

func (m *GNUMake) Env(key, value string) {
	m.env[key] = value
}

// Configure is a no-op: configuration travels in the make arguments.
func (m *GNUMake) Configure(ctx context.Context) error {
	return nil
}

func (m *GNUMake) Build(ctx context.Context) error {
	var env map[string]string
	if len(m.env) > 0 {
		env = make(map[string]string, len(m.env))
		for k, v := range m.env {
			env[k] = v
		}
	}
	return m.runner.Run(ctx, runner.BuildStep{
		Program: "make",
		Dir:     m.sourceDir,
		Args:    m.Args(),
		Env:     env,
		Label:   "build " + m.name + " " + m.config.Variant.String(),
	})
}

// Args returns the make command line: optional job count, feature
// variables, then the target.
func (m *GNUMake) Args() []string {
	var args []string
	if m.config.Jobs > 0 {
		args = append(args, "-j"+strconv.Itoa(m.config.Jobs))
	}
	if m.config.DisableMaxPre {
		args = append(args, "MAXPRE=")
	}
	if m.config.DisableSCIP {
		args = append(args, "USESCIP=")
	}
	if m.config.NoStaticLinkFlags {
		args = append(args, "LDFLAG_STATIC=")
	}
	return append(args, m.target())
}

// target maps the variant onto the minisat-style Makefile targets.
func (m *GNUMake) target() string {
	if m.config.Target != "" {
		return m.config.Target
	}
	if m.config.Variant == buildsys.Debug {
		return "d"
	}
	return "r"
}
