// Copyright 2024 The maxsat Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package bindgen

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/goplus/maxsat/internal/cheader"
)

// class says how a value crosses the cgo boundary.
type class int

const (
	scalar   class = iota // numbers, bool and enums: plain conversion
	voidPtr               // void and opaque pointers: unsafe.Pointer
	funcPtr               // function pointers: unsafe.Pointer, *[0]byte in cgo
	typedPtr              // pointers to mirrored types
	value                 // records and arrays, reinterpreted in place
)

// mapped is the Go and cgo spelling of one C type.
type mapped struct {
	gotype string
	ctype  string
	class  class
}

var scalarTypes = map[cheader.Kind][2]string{
	cheader.Bool:      {"bool", "C._Bool"},
	cheader.SChar:     {"int8", "C.schar"},
	cheader.UChar:     {"uint8", "C.uchar"},
	cheader.Short:     {"int16", "C.short"},
	cheader.UShort:    {"uint16", "C.ushort"},
	cheader.Int:       {"int32", "C.int"},
	cheader.UInt:      {"uint32", "C.uint"},
	cheader.Long:      {"int", "C.long"},
	cheader.ULong:     {"uint", "C.ulong"},
	cheader.LongLong:  {"int64", "C.longlong"},
	cheader.ULongLong: {"uint64", "C.ulonglong"},
	cheader.Float:     {"float32", "C.float"},
	cheader.Double:    {"float64", "C.double"},
}

// wellKnown maps the standard typedefs to Go types of the same width
// regardless of how the system headers spell them.
var wellKnown = map[string]string{
	"int8_t":    "int8",
	"uint8_t":   "uint8",
	"int16_t":   "int16",
	"uint16_t":  "uint16",
	"int32_t":   "int32",
	"uint32_t":  "uint32",
	"int64_t":   "int64",
	"uint64_t":  "uint64",
	"intptr_t":  "int",
	"uintptr_t": "uintptr",
	"ptrdiff_t": "int",
	"intmax_t":  "int64",
	"uintmax_t": "uint64",
	"size_t":    "uint",
	"ssize_t":   "int",
}

// mapper maps C types onto the Go declarations of one generated file.
// records holds the mirrored user records: tagged ones under their own
// name, anonymous ones under the name of the typedef that introduced them.
type mapper struct {
	charSigned bool
	records    map[*cheader.Record]string
	enums      map[*cheader.EnumType]string
	typedefs   map[string]string
}

func (m *mapper) typeOf(t *cheader.Type) (mapped, error) {
	if st, ok := scalarTypes[t.Kind]; ok {
		return mapped{gotype: st[0], ctype: st[1], class: scalar}, nil
	}
	switch t.Kind {
	case cheader.Char:
		if m.charSigned {
			return mapped{gotype: "int8", ctype: "C.char"}, nil
		}
		return mapped{gotype: "uint8", ctype: "C.char"}, nil
	case cheader.Void:
		return mapped{}, fmt.Errorf("void used as a value")
	case cheader.Pointer:
		return m.pointer(t)
	case cheader.Array:
		if t.Len < 0 {
			return mapped{}, fmt.Errorf("flexible array %s is not supported", t)
		}
		e, err := m.typeOf(t.Elem)
		if err != nil {
			return mapped{}, err
		}
		n := "[" + strconv.FormatInt(t.Len, 10) + "]"
		return mapped{gotype: n + e.gotype, ctype: n + e.ctype, class: value}, nil
	case cheader.Struct, cheader.Union:
		rec := t.Record
		name, ok := m.records[rec]
		switch {
		case !ok && rec.Tag == "":
			return mapped{}, fmt.Errorf("anonymous nested %s is not supported", t.Kind)
		case !ok:
			return mapped{}, fmt.Errorf("%s %s from a system header cannot be passed by value", t.Kind, rec.Tag)
		case !rec.Complete:
			return mapped{}, fmt.Errorf("incomplete %s %s cannot be passed by value", t.Kind, rec.Tag)
		}
		return mapped{gotype: name, ctype: cname(t), class: value}, nil
	case cheader.Enum:
		gotype, ctype := "uint32", "C.uint"
		if t.Enum.Signed() {
			gotype, ctype = "int32", "C.int"
		}
		if t.Enum.Tag == "" {
			return mapped{gotype: gotype, ctype: ctype, class: scalar}, nil
		}
		if name, ok := m.enums[t.Enum]; ok {
			gotype = name
		}
		return mapped{gotype: gotype, ctype: cname(t), class: scalar}, nil
	case cheader.Named:
		return m.named(t)
	}
	return mapped{}, fmt.Errorf("%s has no Go equivalent", t.Kind)
}

func (m *mapper) named(t *cheader.Type) (mapped, error) {
	if name, ok := m.typedefs[t.Name]; ok {
		r := t.Resolve()
		if r != nil && r.Kind == cheader.Func {
			return mapped{gotype: name, ctype: "C." + t.Name, class: funcPtr}, nil
		}
		under, err := m.typeOf(t.Base)
		if err != nil {
			return mapped{}, fmt.Errorf("%s: %w", t.Name, err)
		}
		return mapped{gotype: name, ctype: "C." + t.Name, class: under.class}, nil
	}
	if gt, ok := wellKnown[t.Name]; ok {
		return mapped{gotype: gt, ctype: "C." + t.Name, class: scalar}, nil
	}
	r := t.Resolve()
	switch {
	case r == nil:
		return mapped{}, fmt.Errorf("opaque type %s cannot be passed by value", t.Name)
	case r.Kind == cheader.Struct || r.Kind == cheader.Union:
		return mapped{}, fmt.Errorf("%s from a system header cannot be passed by value", t.Name)
	}
	under, err := m.typeOf(t.Base)
	if err != nil {
		return mapped{}, fmt.Errorf("%s: %w", t.Name, err)
	}
	under.ctype = "C." + t.Name
	return under, nil
}

func (m *mapper) pointer(t *cheader.Type) (mapped, error) {
	elem := t.Elem
	r := elem.Resolve()
	switch {
	case r == nil:
		return mapped{gotype: "unsafe.Pointer", ctype: "*" + cname(elem), class: voidPtr}, nil
	case r.Kind == cheader.Void:
		return mapped{gotype: "unsafe.Pointer", ctype: "unsafe.Pointer", class: voidPtr}, nil
	case r.Kind == cheader.Func:
		return mapped{gotype: "unsafe.Pointer", ctype: "*[0]byte", class: funcPtr}, nil
	case r.Kind == cheader.Struct || r.Kind == cheader.Union:
		if _, ok := m.records[r.Record]; !ok || !r.Record.Complete {
			if elem.Kind != cheader.Named && r.Record.Tag == "" {
				return mapped{}, fmt.Errorf("pointer to anonymous %s is not supported", r.Kind)
			}
			return mapped{gotype: "unsafe.Pointer", ctype: "*" + cname(elem), class: voidPtr}, nil
		}
	}
	e, err := m.typeOf(elem)
	if err != nil {
		return mapped{}, err
	}
	return mapped{gotype: "*" + e.gotype, ctype: "*" + e.ctype, class: typedPtr}, nil
}

// cname spells a named C type the way cgo exposes it.
func cname(t *cheader.Type) string {
	switch t.Kind {
	case cheader.Named:
		return "C." + t.Name
	case cheader.Struct:
		return "C.struct_" + t.Record.Tag
	case cheader.Union:
		return "C.union_" + t.Record.Tag
	case cheader.Enum:
		return "C.enum_" + t.Enum.Tag
	}
	return "C." + strings.ReplaceAll(t.Kind.String(), " ", "")
}

// toC converts the Go expression expr to the cgo type of m.
func toC(m mapped, expr string) string {
	switch m.class {
	case voidPtr:
		if m.ctype == "unsafe.Pointer" {
			return expr
		}
		return conv(m.ctype, expr)
	case typedPtr:
		return conv(m.ctype, "unsafe.Pointer("+expr+")")
	case value:
		return "*(*" + m.ctype + ")(unsafe.Pointer(&" + expr + "))"
	}
	return conv(m.ctype, expr)
}

// fromC converts the cgo expression expr to the Go type of m. Values are
// handled by the caller, which needs an addressable temporary.
func fromC(m mapped, expr string) string {
	switch m.class {
	case voidPtr, funcPtr:
		return conv(m.gotype, expr)
	case typedPtr:
		return conv(m.gotype, "unsafe.Pointer("+expr+")")
	}
	return conv(m.gotype, expr)
}

func conv(typ, expr string) string {
	if strings.HasPrefix(typ, "*") || strings.HasPrefix(typ, "[") {
		return "(" + typ + ")(" + expr + ")"
	}
	return typ + "(" + expr + ")"
}
