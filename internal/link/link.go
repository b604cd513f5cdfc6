// Copyright 2024 The maxsat Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package link computes the linker directives a consumer of the solver
// bindings needs, and renders them for the build tool and for cgo.
package link

import (
	"fmt"
	"io"
	"strings"

	"github.com/goplus/maxsat/internal/deps"
)

// Kind distinguishes the three directive forms.
type Kind int

const (
	SearchPath  Kind = iota // add a directory to the native library search path
	LinkStatic              // link an archive
	LinkDynamic             // link a shared library from the system
)

// Directive is one instruction to the linker.
type Directive struct {
	Kind  Kind
	Value string
}

func (d Directive) String() string {
	switch d.Kind {
	case SearchPath:
		return "link-search=native=" + d.Value
	case LinkStatic:
		return "link-lib=static=" + d.Value
	case LinkDynamic:
		return "link-lib=dylib=" + d.Value
	}
	return fmt.Sprintf("link-unknown(%d)=%s", int(d.Kind), d.Value)
}

// Flag renders d as a plain linker flag.
func (d Directive) Flag() string {
	if d.Kind == SearchPath {
		return "-L" + d.Value
	}
	return "-l" + d.Value
}

// Emit returns the directives for linking deps followed by the system
// libraries. Each dependency contributes its search path then its library,
// in link order, so that an archive precedes the archives it uses. The
// system libraries come last, in the order given.
func Emit(ds []deps.Dependency, system []string) ([]Directive, error) {
	order, err := deps.LinkOrder(ds)
	if err != nil {
		return nil, err
	}
	out := make([]Directive, 0, 2*len(order)+len(system))
	for i := range order {
		d := &order[i]
		kind := LinkStatic
		if d.Artifact.Kind == deps.Dynamic {
			kind = LinkDynamic
		}
		out = append(out,
			Directive{Kind: SearchPath, Value: d.ArtifactDir()},
			Directive{Kind: kind, Value: d.Artifact.Name},
		)
	}
	for _, lib := range system {
		out = append(out, Directive{Kind: LinkDynamic, Value: lib})
	}
	return out, nil
}

// WriteTo writes one directive per line.
func WriteTo(w io.Writer, ds []Directive) error {
	for _, d := range ds {
		if _, err := fmt.Fprintln(w, d.String()); err != nil {
			return err
		}
	}
	return nil
}

// LDFlags joins the directives into a cgo LDFLAGS value. Runs of static
// libraries are bracketed with -Bstatic/-Bdynamic so the linker picks the
// archives even when a shared build of the same library is installed.
func LDFlags(ds []Directive) string {
	var flags []string
	static := false
	for _, d := range ds {
		switch {
		case d.Kind == LinkStatic && !static:
			flags = append(flags, "-Wl,-Bstatic")
			static = true
		case d.Kind == LinkDynamic && static:
			flags = append(flags, "-Wl,-Bdynamic")
			static = false
		}
		flags = append(flags, d.Flag())
	}
	if static {
		flags = append(flags, "-Wl,-Bdynamic")
	}
	return strings.Join(flags, " ")
}
