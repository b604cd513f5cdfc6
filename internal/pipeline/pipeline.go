// Copyright 2024 The maxsat Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package pipeline runs the build-prep steps in order: rebuild triggers,
// native dependency builds, link directives, cgo bindings and the metadata
// stamp. The first failure stops the run.
package pipeline

import (
	"context"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/qiniu/x/log"

	"github.com/goplus/maxsat/internal/bindgen"
	"github.com/goplus/maxsat/internal/config"
	"github.com/goplus/maxsat/internal/deps"
	"github.com/goplus/maxsat/internal/env"
	"github.com/goplus/maxsat/internal/link"
	"github.com/goplus/maxsat/internal/runner"
	"github.com/goplus/maxsat/internal/trigger"
	"github.com/goplus/maxsat/pkgs/buildsys"
)

// WriteError reports an output file other than the bindings that could
// not be written.
type WriteError struct {
	Path string
	Err  error
}

func (e *WriteError) Error() string {
	return fmt.Sprintf("write %s: %v", e.Path, e.Err)
}

func (e *WriteError) Unwrap() error { return e.Err }

// Pipeline holds what a run needs. Instructions (triggers and link
// directives) are written to Out.
type Pipeline struct {
	Config *config.Config
	Runner runner.Runner
	Out    io.Writer
}

// Result is what a successful run produced.
type Result struct {
	Triggers   []string
	Directives []link.Directive
	Bindings   []bindgen.Binding
	File       string // generated source file
}

// New returns a Pipeline for c.
func New(c *config.Config, r runner.Runner, out io.Writer) *Pipeline {
	return &Pipeline{Config: c, Runner: r, Out: out}
}

// Dependencies returns the solver pair as configured for this run.
func (p *Pipeline) Dependencies() []deps.Dependency {
	v := buildsys.Release
	if p.Config.Debug {
		v = buildsys.Debug
	}
	return deps.Tune(deps.Solvers(p.Config.Root), p.Config.Jobs, v)
}

// Triggers returns the inputs whose change calls for a new run: the header
// and every dependency source tree.
func (p *Pipeline) Triggers(ds []deps.Dependency) []string {
	paths := []string{p.Config.HeaderPath()}
	for _, d := range ds {
		paths = append(paths, d.Root)
	}
	return trigger.Paths(paths)
}

// Prepare runs every step.
func (p *Pipeline) Prepare(ctx context.Context) (*Result, error) {
	ds := p.Dependencies()
	res := &Result{Triggers: p.Triggers(ds)}

	log.Infof("registering %d rebuild triggers", len(res.Triggers))
	if err := trigger.Register(p.Out, res.Triggers); err != nil {
		return nil, err
	}

	log.Infof("building %d dependencies", len(ds))
	if err := deps.NewBuilder(p.Runner).BuildAll(ctx, ds); err != nil {
		return nil, err
	}

	directives, err := p.Directives(ds)
	if err != nil {
		return nil, err
	}
	res.Directives = directives

	if err := p.bind(ctx, res); err != nil {
		return nil, err
	}

	if dep := p.Config.Depfile; dep != "" {
		path := p.Config.Path(dep)
		if err := trigger.WriteDepfile(path, res.File, res.Triggers); err != nil {
			return nil, &WriteError{Path: path, Err: err}
		}
	}

	if err := p.stamp(ds, res); err != nil {
		return nil, err
	}
	log.Infof("bindings for %d declarations written to %s", len(res.Bindings), res.File)
	return res, nil
}

// Directives computes the link directives of ds and writes them to Out.
func (p *Pipeline) Directives(ds []deps.Dependency) ([]link.Directive, error) {
	directives, err := link.Emit(ds, deps.SystemLibs)
	if err != nil {
		return nil, err
	}
	log.Infof("emitting %d link directives", len(directives))
	if err := link.WriteTo(p.Out, directives); err != nil {
		return nil, err
	}
	return directives, nil
}

// Bindings generates and writes the cgo bindings without building the
// dependencies. The linker flags in the generated file still name the
// expected archives.
func (p *Pipeline) Bindings(ctx context.Context) (*Result, error) {
	directives, err := link.Emit(p.Dependencies(), deps.SystemLibs)
	if err != nil {
		return nil, err
	}
	res := &Result{Directives: directives}
	if err := p.bind(ctx, res); err != nil {
		return nil, err
	}
	return res, nil
}

func (p *Pipeline) bind(ctx context.Context, res *Result) error {
	c := p.Config
	header := c.HeaderPath()
	includes := make([]string, len(c.Includes))
	for i, dir := range c.Includes {
		includes[i] = c.Path(dir)
	}

	log.Infof("generating bindings for %s", header)
	s, err := bindgen.Parse(ctx, p.Runner, c.CC, header, includes)
	if err != nil {
		return err
	}
	goos, goarch := env.Target()
	out := c.Path(c.Out)
	opts := bindgen.Options{
		Package:    c.Package,
		Header:     filepath.Base(header),
		CFlags:     cflags(c.Root, out, append([]string{filepath.Dir(header)}, includes...)),
		LDFlags:    link.LDFlags(cgoDirectives(c.Root, out, res.Directives)),
		CharSigned: bindgen.CharSigned(goos, goarch),
	}
	bindings, src, err := bindgen.Generate(s, opts)
	if err != nil {
		return err
	}
	file := c.OutFile()
	if err := bindgen.Write(file, src); err != nil {
		return err
	}
	res.Bindings = bindings
	res.File = file
	return nil
}

// cflags turns include directories into -I flags.
func cflags(root, out string, dirs []string) []string {
	flags := make([]string, 0, len(dirs))
	for _, dir := range dirs {
		flags = append(flags, "-I"+srcdir(root, out, dir))
	}
	return flags
}

// cgoDirectives returns ds with search paths spelled for the generated
// file. cgo resolves a relative -L against the package directory, not
// against the directory the run started in.
func cgoDirectives(root, out string, ds []link.Directive) []link.Directive {
	res := make([]link.Directive, len(ds))
	for i, d := range ds {
		if d.Kind == link.SearchPath {
			d.Value = srcdir(root, out, d.Value)
		}
		res[i] = d
	}
	return res
}

// srcdir spells dir for a #cgo line of a file in out. Directories inside
// root are relative to ${SRCDIR} so that the generated file does not depend
// on where the tree is checked out; others are absolute.
func srcdir(root, out, dir string) string {
	absRoot, err1 := filepath.Abs(root)
	absOut, err2 := filepath.Abs(out)
	abs, err := filepath.Abs(dir)
	if err != nil || err1 != nil || err2 != nil {
		return dir
	}
	if within(absRoot, abs) && within(absRoot, absOut) {
		if rel, err := filepath.Rel(absOut, abs); err == nil {
			return "${SRCDIR}/" + filepath.ToSlash(rel)
		}
	}
	return abs
}

func within(root, p string) bool {
	rel, err := filepath.Rel(root, p)
	return err == nil && rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator))
}
