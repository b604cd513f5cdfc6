// Copyright 2024 The maxsat Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package deps

import (
	"context"
	"fmt"

	"github.com/qiniu/x/log"

	"github.com/goplus/maxsat/internal/runner"
	"github.com/goplus/maxsat/pkgs/buildsys"
	"github.com/goplus/maxsat/pkgs/buildsys/autotools"
	"github.com/goplus/maxsat/pkgs/buildsys/gnumake"
)

// Builder builds dependencies one at a time through a runner.
type Builder struct {
	runner runner.Runner
}

func NewBuilder(r runner.Runner) *Builder {
	return &Builder{runner: r}
}

// System returns the build system driver for d.
func (b *Builder) System(d *Dependency) buildsys.BuildSystem {
	var sys buildsys.BuildSystem
	switch d.System {
	case GNUMake:
		sys = gnumake.New(b.runner, d.Name, d.Root, d.Config)
	default:
		sys = autotools.New(b.runner, d.Name, d.Root, d.Config)
	}
	for k, v := range d.Env {
		sys.Env(k, v)
	}
	return sys
}

// Build configures and compiles d. The first failing step ends the build.
func (b *Builder) Build(ctx context.Context, d *Dependency) error {
	sys := b.System(d)
	log.Infof("building %s in %s", d.Name, d.Root)
	if err := sys.Configure(ctx); err != nil {
		return fmt.Errorf("dependency %s: %w", d.Name, err)
	}
	if err := sys.Build(ctx); err != nil {
		return fmt.Errorf("dependency %s: %w", d.Name, err)
	}
	return nil
}

// BuildAll builds every dependency in build order, strictly sequentially.
// A failure stops the run; later dependencies are never started.
func (b *Builder) BuildAll(ctx context.Context, deps []Dependency) error {
	order, err := BuildOrder(deps)
	if err != nil {
		return err
	}
	for i := range order {
		if err := b.Build(ctx, &order[i]); err != nil {
			return err
		}
	}
	return nil
}
