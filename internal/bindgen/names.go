// Copyright 2024 The maxsat Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package bindgen

import (
	"go/token"
	"strconv"
	"strings"

	"github.com/goplus/maxsat/internal/cheader"
)

// exportName turns a C identifier into an exported Go identifier by
// upper-casing its first letter. Names starting with an underscore get an
// X prefix.
func exportName(name string) string {
	if name == "" {
		return name
	}
	switch c := name[0]; {
	case 'a' <= c && c <= 'z':
		return strings.ToUpper(name[:1]) + name[1:]
	case c == '_':
		return "X" + name
	}
	return name
}

// namer hands out unique package-level names.
type namer struct {
	used map[string]bool
}

func newNamer() *namer {
	return &namer{used: map[string]bool{"C": true}}
}

func (n *namer) take(name string) string {
	for n.used[name] {
		name += "_"
	}
	n.used[name] = true
	return name
}

func (n *namer) taken(name string) bool {
	return n.used[name]
}

// names is the Go naming of a surface: one name per declaration plus one
// per enumerator of every enum mirrored as a type.
type names struct {
	decls       map[*cheader.Decl]string
	enumerators map[string]string
	all         *namer
}

// allocate names every declaration. Typedefs are named first so that they
// keep their plain names; a record or enum that collides with one is
// prefixed with its kind, anything else gets a trailing underscore.
func allocate(s *cheader.Surface) *names {
	ns := &names{
		decls:       make(map[*cheader.Decl]string),
		enumerators: make(map[string]string),
		all:         newNamer(),
	}
	for _, d := range s.Decls {
		if d.Kind == cheader.DeclTypedef {
			ns.decls[d] = ns.all.take(exportName(d.Name))
		}
	}
	for _, d := range s.Decls {
		if d.Kind == cheader.DeclTypedef {
			continue
		}
		name := exportName(d.Name)
		if ns.all.taken(name) {
			switch d.Kind {
			case cheader.DeclStruct:
				name = "Struct" + name
			case cheader.DeclUnion:
				name = "Union" + name
			case cheader.DeclEnum:
				name = "Enum" + name
			}
		}
		ns.decls[d] = ns.all.take(name)
	}
	for _, d := range s.Decls {
		if en := enumOf(d); en != nil {
			for _, v := range en.Values {
				ns.enumerators[v.Name] = ns.all.take(exportName(v.Name))
			}
		}
	}
	return ns
}

// enumOf returns the enum whose constants d declares as typed constants:
// a tagged enum, or the anonymous enum of a typedef.
func enumOf(d *cheader.Decl) *cheader.EnumType {
	switch {
	case d.Kind == cheader.DeclEnum:
		return d.Type.Enum
	case d.Kind == cheader.DeclTypedef && d.Type.Kind == cheader.Enum && d.Type.Enum.Tag == "":
		return d.Type.Enum
	}
	return nil
}

// params names the parameters of a wrapper. Unnamed parameters become
// p0, p1, ...; keywords and names that would shadow package-level names
// get a trailing underscore.
func (ns *names) params(ps []cheader.Param) []string {
	seen := make(map[string]bool, len(ps))
	out := make([]string, len(ps))
	for i, p := range ps {
		name := p.Name
		if name == "" {
			name = "p" + strconv.Itoa(i)
		}
		for token.IsKeyword(name) || name == "unsafe" || name == "ret" || ns.all.taken(name) || seen[name] {
			name += "_"
		}
		seen[name] = true
		out[i] = name
	}
	return out
}

// fields names the members of a mirrored record.
func fields(fs []cheader.Field) []string {
	seen := make(map[string]bool, len(fs))
	out := make([]string, len(fs))
	for i, f := range fs {
		name := exportName(f.Name)
		for seen[name] {
			name += "_"
		}
		seen[name] = true
		out[i] = name
	}
	return out
}

// cgoField is the name cgo gives a C struct member.
func cgoField(name string) string {
	if token.IsKeyword(name) {
		return "_" + name
	}
	return name
}
