// Copyright 2024 The maxsat Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package cheader

import (
	"strconv"
	"strings"
)

// Signature renders d as C source text, without the trailing semicolon.
func (d *Decl) Signature() string {
	switch d.Kind {
	case DeclFunc:
		return Declare(d.Type, d.Name)
	case DeclVar:
		return "extern " + Declare(d.Type, d.Name)
	case DeclTypedef:
		return "typedef " + Declare(d.Type, d.Name)
	case DeclStruct, DeclUnion:
		return recordText(d.Type.Record)
	case DeclEnum:
		return enumText(d.Type.Enum)
	case DeclConst:
		if d.Type != nil {
			return d.Name + " = " + strconv.FormatInt(d.Value.Int, 10)
		}
		return "#define " + d.Name + " " + d.Value.String()
	}
	return d.Name
}

func (t *Type) String() string {
	return Declare(t, "")
}

// Declare renders a declaration of name with type t; an empty name yields
// the type name.
func Declare(t *Type, name string) string {
	switch t.Kind {
	case Pointer:
		s := "*"
		if t.Const {
			s += "const"
			if name != "" {
				s += " "
			}
		}
		s += name
		if e := t.Elem.Kind; e == Array || e == Func {
			s = "(" + s + ")"
		}
		return Declare(t.Elem, s)
	case Array:
		n := ""
		if t.Len >= 0 {
			n = strconv.FormatInt(t.Len, 10)
		}
		return Declare(t.Elem, name+"["+n+"]")
	case Func:
		return Declare(t.Result, name+"("+paramsText(t)+")")
	}
	s := specText(t)
	if t.Const {
		s = "const " + s
	}
	if name == "" {
		return s
	}
	return s + " " + name
}

func paramsText(t *Type) string {
	if len(t.Params) == 0 && !t.Variadic {
		return "void"
	}
	parts := make([]string, 0, len(t.Params)+1)
	for _, p := range t.Params {
		parts = append(parts, Declare(p.Type, p.Name))
	}
	if t.Variadic {
		parts = append(parts, "...")
	}
	return strings.Join(parts, ", ")
}

func specText(t *Type) string {
	switch t.Kind {
	case Struct, Union:
		kw := "struct"
		if t.Kind == Union {
			kw = "union"
		}
		if t.Record.Tag == "" {
			return recordText(t.Record)
		}
		return kw + " " + t.Record.Tag
	case Enum:
		if t.Enum.Tag == "" {
			return enumText(t.Enum)
		}
		return "enum " + t.Enum.Tag
	case Named:
		return t.Name
	}
	return t.Kind.String()
}

func recordText(r *Record) string {
	var b strings.Builder
	if r.Union {
		b.WriteString("union")
	} else {
		b.WriteString("struct")
	}
	if r.Tag != "" {
		b.WriteString(" " + r.Tag)
	}
	if !r.Complete {
		return b.String()
	}
	b.WriteString(" {")
	for _, f := range r.Fields {
		b.WriteString(" " + Declare(f.Type, f.Name))
		if f.Bits >= 0 {
			b.WriteString(" : " + strconv.Itoa(f.Bits))
		}
		b.WriteString(";")
	}
	b.WriteString(" }")
	return b.String()
}

func enumText(e *EnumType) string {
	var b strings.Builder
	b.WriteString("enum")
	if e.Tag != "" {
		b.WriteString(" " + e.Tag)
	}
	if !e.Complete {
		return b.String()
	}
	b.WriteString(" {")
	for i, v := range e.Values {
		if i > 0 {
			b.WriteString(",")
		}
		b.WriteString(" " + v.Name + " = " + strconv.FormatInt(v.Value, 10))
	}
	b.WriteString(" }")
	return b.String()
}
