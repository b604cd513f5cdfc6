// Copyright 2024 The maxsat Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package cheader parses preprocessed C headers into the declarations they
// make visible to a consumer.
//
// The input is the output of "cc -E -dD": linemarkers tell the parser which
// text came from system headers, and the retained #define lines carry the
// object-like macros. Declarations from system headers are read leniently
// and only their typedefs are kept; declarations from user headers are
// parsed strictly and become the Surface.
package cheader

import (
	"fmt"
	"strconv"
)

// Kind classifies a Type.
type Kind int

const (
	Void Kind = iota
	Bool
	Char
	SChar
	UChar
	Short
	UShort
	Int
	UInt
	Long
	ULong
	LongLong
	ULongLong
	Int128
	UInt128
	Float
	Double
	LongDouble
	Complex
	Pointer
	Array
	Func
	Struct
	Union
	Enum
	Named // reference to a typedef name
)

var kindNames = [...]string{
	Void:       "void",
	Bool:       "_Bool",
	Char:       "char",
	SChar:      "signed char",
	UChar:      "unsigned char",
	Short:      "short",
	UShort:     "unsigned short",
	Int:        "int",
	UInt:       "unsigned int",
	Long:       "long",
	ULong:      "unsigned long",
	LongLong:   "long long",
	ULongLong:  "unsigned long long",
	Int128:     "__int128",
	UInt128:    "unsigned __int128",
	Float:      "float",
	Double:     "double",
	LongDouble: "long double",
	Complex:    "_Complex",
	Pointer:    "pointer",
	Array:      "array",
	Func:       "function",
	Struct:     "struct",
	Union:      "union",
	Enum:       "enum",
	Named:      "typedef",
}

func (k Kind) String() string {
	if k >= 0 && int(k) < len(kindNames) {
		return kindNames[k]
	}
	return "Kind(" + strconv.Itoa(int(k)) + ")"
}

// IsInteger reports whether k is one of the integer kinds, _Bool included.
func (k Kind) IsInteger() bool {
	return k >= Bool && k <= UInt128
}

// Type is a C type. Struct, union and enum types share one Record or Enum
// per tag, so a forward declaration and the later definition are the same
// object.
type Type struct {
	Kind  Kind
	Const bool

	Elem *Type // Pointer, Array
	Len  int64 // Array; -1 when the length is omitted

	Record *Record // Struct, Union
	Enum   *EnumType

	Name string // Named
	Base *Type  // Named; nil when the typedef is opaque to the parser

	Params   []Param // Func
	Result   *Type
	Variadic bool
}

// Resolve follows typedef references down to the first non-typedef type.
// It returns nil for an opaque typedef.
func (t *Type) Resolve() *Type {
	for t != nil && t.Kind == Named {
		t = t.Base
	}
	return t
}

// Param is one function parameter. Name is empty for unnamed parameters.
type Param struct {
	Name string
	Type *Type
}

// Record is a struct or union.
type Record struct {
	Tag      string // empty for anonymous records
	Union    bool
	Fields   []Field
	Complete bool
	System   bool     // declared in a system header
	Attrs    []string // layout attributes (packed, aligned)
	Pos      Pos
}

// Field is a record member. Bits is -1 unless the field is a bitfield.
type Field struct {
	Name string
	Type *Type
	Bits int
	Pos  Pos
}

// EnumType is an enumeration with its constants in declaration order.
type EnumType struct {
	Tag      string
	Values   []Enumerator
	Complete bool
	System   bool
}

// Signed reports whether any enumerator is negative.
func (e *EnumType) Signed() bool {
	for _, v := range e.Values {
		if v.Value < 0 {
			return true
		}
	}
	return false
}

type Enumerator struct {
	Name  string
	Value int64
}

// DeclKind is the kind of a top-level declaration.
type DeclKind int

const (
	DeclFunc DeclKind = iota
	DeclVar
	DeclStruct
	DeclUnion
	DeclEnum
	DeclTypedef
	DeclConst
)

func (k DeclKind) String() string {
	switch k {
	case DeclFunc:
		return "func"
	case DeclVar:
		return "var"
	case DeclStruct:
		return "struct"
	case DeclUnion:
		return "union"
	case DeclEnum:
		return "enum"
	case DeclTypedef:
		return "typedef"
	case DeclConst:
		return "const"
	}
	return "DeclKind(" + strconv.Itoa(int(k)) + ")"
}

// Decl is one declaration of the header surface.
//
// For DeclFunc and DeclVar, Type is the declared type. For DeclStruct,
// DeclUnion and DeclEnum it is the tagged type and Name is the tag. For
// DeclTypedef it is the aliased type. A DeclConst is either an enumerator
// of an anonymous enum (Type is that enum) or an object-like macro (Type is
// nil and Value holds the evaluated body).
type Decl struct {
	Name  string
	Kind  DeclKind
	Type  *Type
	Value Value
	Pos   Pos

	order int
}

// Surface is the ordered set of declarations visible from a header.
type Surface struct {
	Decls []*Decl

	// Skipped lists the user macros left out of Decls because their body
	// is empty or not a constant expression.
	Skipped []string
}

// Lookup returns the first declaration named name, or nil.
func (s *Surface) Lookup(name string) *Decl {
	for _, d := range s.Decls {
		if d.Name == name {
			return d
		}
	}
	return nil
}

// Pos is a source position as reported by the preprocessor's linemarkers.
type Pos struct {
	File string
	Line int
}

func (p Pos) String() string {
	if p.File == "" {
		return "line " + strconv.Itoa(p.Line)
	}
	return p.File + ":" + strconv.Itoa(p.Line)
}

// Error is a parse error at a source position.
type Error struct {
	Pos Pos
	Msg string
}

func (e *Error) Error() string {
	return fmt.Sprintf("%v: %s", e.Pos, e.Msg)
}

func errorf(pos Pos, format string, args ...any) *Error {
	return &Error{Pos: pos, Msg: fmt.Sprintf(format, args...)}
}
