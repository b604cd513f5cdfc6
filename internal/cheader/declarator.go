// Copyright 2024 The maxsat Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package cheader

import "strings"

type declSpec struct {
	typ      *Type
	typedef  bool
	anonEnum *EnumType // anonymous enum defined by these specifiers
}

// specifiers parses declaration specifiers: storage classes, qualifiers,
// attributes and exactly one type.
func (p *parser) specifiers() (declSpec, error) {
	var (
		ds    declSpec
		base  *Type
		words []string
		konst bool
	)
	start := p.peek()
loop:
	for {
		t := p.peek()
		if t.kind != tIdent {
			break
		}
		switch t.text {
		case "typedef":
			ds.typedef = true
		case "extern", "static", "auto", "register", "inline", "__inline", "__inline__",
			"_Noreturn", "__extension__", "_Thread_local", "__thread",
			"volatile", "__volatile", "__volatile__", "restrict", "__restrict", "__restrict__":
		case "const", "__const", "__const__":
			konst = true
		case "__attribute__", "__attribute", "__declspec":
			if _, err := p.attributes(); err != nil {
				return ds, err
			}
			continue
		case "_Alignas", "_Atomic", "__typeof__", "__typeof", "typeof", "__auto_type":
			return ds, p.errorf("%s is not supported", t.text)
		case "signed", "__signed", "__signed__", "unsigned", "short", "long", "int", "char",
			"float", "double", "void", "_Bool", "__int128", "_Complex", "__complex__":
			if base != nil {
				return ds, p.errorf("conflicting type specifiers")
			}
			w := t.text
			if strings.HasPrefix(w, "__signed") {
				w = "signed"
			} else if w == "__complex__" {
				w = "_Complex"
			}
			words = append(words, w)
		case "struct", "union":
			if base != nil || len(words) > 0 {
				return ds, p.errorf("conflicting type specifiers")
			}
			typ, err := p.recordSpec()
			if err != nil {
				return ds, err
			}
			base = typ
			continue
		case "enum":
			if base != nil || len(words) > 0 {
				return ds, p.errorf("conflicting type specifiers")
			}
			typ, err := p.enumSpec()
			if err != nil {
				return ds, err
			}
			if typ.Enum.Tag == "" {
				ds.anonEnum = typ.Enum
			}
			base = typ
			continue
		default:
			if base != nil || len(words) > 0 {
				break loop
			}
			td := p.typedefs[t.text]
			if td == nil {
				break loop
			}
			base = td
		}
		p.next()
	}
	if base == nil {
		if len(words) == 0 {
			if p.peek().kind == tIdent {
				return ds, p.errorf("unknown type name %q", p.peek().text)
			}
			return ds, errorf(start.pos, "expected type specifier, found %v", start)
		}
		k, ok := basicKind(words)
		if !ok {
			return ds, errorf(start.pos, "invalid type %q", strings.Join(words, " "))
		}
		base = &Type{Kind: k}
	}
	if konst {
		c := *base
		c.Const = true
		base = &c
	}
	ds.typ = base
	return ds, nil
}

// basicKind combines arithmetic type keywords.
func basicKind(words []string) (Kind, bool) {
	var signed, unsigned, short, char, intKw, float, double, void, boolKw, int128, complex bool
	long := 0
	for _, w := range words {
		switch w {
		case "signed":
			signed = true
		case "unsigned":
			unsigned = true
		case "short":
			short = true
		case "long":
			long++
		case "int":
			intKw = true
		case "char":
			char = true
		case "float":
			float = true
		case "double":
			double = true
		case "void":
			void = true
		case "_Bool":
			boolKw = true
		case "__int128":
			int128 = true
		case "_Complex":
			complex = true
		default:
			return 0, false
		}
	}
	if signed && unsigned {
		return 0, false
	}
	pick := func(s, u Kind) Kind {
		if unsigned {
			return u
		}
		return s
	}
	switch {
	case void:
		return Void, len(words) == 1
	case boolKw:
		return Bool, len(words) == 1
	case char:
		if signed {
			return SChar, true
		}
		return pick(Char, UChar), true
	case int128:
		return pick(Int128, UInt128), true
	case complex:
		return Complex, true
	case float:
		return Float, len(words) == 1
	case double:
		if long > 0 {
			return LongDouble, true
		}
		return Double, len(words) == 1
	case short:
		return pick(Short, UShort), true
	case long == 1:
		return pick(Long, ULong), true
	case long == 2:
		return pick(LongLong, ULongLong), true
	case long > 2:
		return 0, false
	case intKw || signed || unsigned:
		return pick(Int, UInt), true
	}
	return 0, false
}

func (p *parser) recordSpec() (*Type, error) {
	kw := p.next()
	union := kw.text == "union"
	attrs, err := p.attributes()
	if err != nil {
		return nil, err
	}
	var rec *Record
	if t := p.peek(); t.kind == tIdent && !keywords[t.text] {
		p.next()
		rec = p.records[t.text]
		if rec == nil {
			rec = &Record{Tag: t.text, Union: union, System: p.sys, Pos: kw.pos}
			p.records[t.text] = rec
		} else if rec.Union != union {
			return nil, errorf(t.pos, "%s %s redeclared as a different kind of tag", kw.text, t.text)
		}
		p.declareTag(rec.Tag, recordKind(rec), &Type{Kind: recordKind(rec).typeKind(), Record: rec}, kw.pos, rec.System)
	} else if !p.is("{") {
		return nil, p.errorf("expected %s tag or body", kw.text)
	} else {
		rec = &Record{Union: union, System: p.sys, Pos: kw.pos}
	}
	typ := &Type{Kind: Struct, Record: rec}
	if union {
		typ.Kind = Union
	}
	if !p.accept("{") {
		return typ, nil
	}
	if rec.Complete {
		return nil, errorf(kw.pos, "redefinition of %s %s", kw.text, rec.Tag)
	}
	if err := p.fields(rec); err != nil {
		return nil, err
	}
	rec.Complete = true
	trailing, err := p.attributes()
	if err != nil {
		return nil, err
	}
	rec.Attrs = append(rec.Attrs, attrs...)
	rec.Attrs = append(rec.Attrs, trailing...)
	return typ, nil
}

func recordKind(r *Record) DeclKind {
	if r.Union {
		return DeclUnion
	}
	return DeclStruct
}

func (k DeclKind) typeKind() Kind {
	switch k {
	case DeclUnion:
		return Union
	case DeclEnum:
		return Enum
	}
	return Struct
}

// fields parses a record body after its opening brace.
func (p *parser) fields(rec *Record) error {
	for !p.accept("}") {
		if p.peek().kind == tEOF {
			return p.errorf("unterminated record body")
		}
		if p.accept(";") {
			continue
		}
		if p.is("_Static_assert") || p.is("static_assert") {
			p.next()
			if err := p.skipBalanced(); err != nil {
				return err
			}
			if err := p.expect(";"); err != nil {
				return err
			}
			continue
		}
		pos := p.peek().pos
		spec, err := p.specifiers()
		if err != nil {
			return err
		}
		if spec.typedef {
			return errorf(pos, "typedef inside a record")
		}
		if spec.anonEnum != nil {
			p.addEnumConsts(spec.anonEnum, pos)
		}
		if p.accept(";") {
			rec.Fields = append(rec.Fields, Field{Type: spec.typ, Bits: -1, Pos: pos})
			continue
		}
		for {
			f := Field{Type: spec.typ, Bits: -1, Pos: p.peek().pos}
			if !p.is(":") {
				if f.Name, f.Type, err = p.declarator(spec.typ); err != nil {
					return err
				}
			}
			if p.accept(":") {
				v, err := p.constExpr(",", ";")
				if err != nil {
					return err
				}
				f.Bits = int(v.Int)
			}
			attrs, err := p.attributes()
			if err != nil {
				return err
			}
			rec.Attrs = append(rec.Attrs, attrs...)
			rec.Fields = append(rec.Fields, f)
			if !p.accept(",") {
				break
			}
		}
		if err := p.expect(";"); err != nil {
			return err
		}
	}
	return nil
}

func (p *parser) enumSpec() (*Type, error) {
	kw := p.next()
	if _, err := p.attributes(); err != nil {
		return nil, err
	}
	var en *EnumType
	if t := p.peek(); t.kind == tIdent && !keywords[t.text] {
		p.next()
		en = p.enums[t.text]
		if en == nil {
			en = &EnumType{Tag: t.text, System: p.sys}
			p.enums[t.text] = en
		}
		p.declareTag(en.Tag, DeclEnum, &Type{Kind: Enum, Enum: en}, kw.pos, en.System)
	} else if !p.is("{") {
		return nil, p.errorf("expected enum tag or body")
	} else {
		en = &EnumType{System: p.sys}
	}
	typ := &Type{Kind: Enum, Enum: en}
	if !p.accept("{") {
		return typ, nil
	}
	if en.Complete {
		return nil, errorf(kw.pos, "redefinition of enum %s", en.Tag)
	}
	next := int64(0)
	for !p.accept("}") {
		t := p.next()
		if t.kind != tIdent {
			return nil, errorf(t.pos, "expected enumerator name, found %v", t)
		}
		if _, err := p.attributes(); err != nil {
			return nil, err
		}
		val := next
		if p.accept("=") {
			v, err := p.constExpr(",", "}")
			if err != nil {
				return nil, err
			}
			if v.Kind != IntValue {
				return nil, errorf(t.pos, "enumerator %s is not an integer", t.text)
			}
			val = v.Int
		}
		en.Values = append(en.Values, Enumerator{Name: t.text, Value: val})
		p.consts[t.text] = Value{Kind: IntValue, Int: val}
		next = val + 1
		if !p.accept(",") {
			if err := p.expect("}"); err != nil {
				return nil, err
			}
			break
		}
	}
	en.Complete = true
	if _, err := p.attributes(); err != nil {
		return nil, err
	}
	return typ, nil
}

type suffix struct {
	array    bool
	length   int64
	params   []Param
	variadic bool
}

// declarator parses a possibly abstract declarator and returns the
// declared name (empty when abstract) and type.
func (p *parser) declarator(base *Type) (string, *Type, error) {
	for p.accept("*") {
		konst, err := p.qualifiers()
		if err != nil {
			return "", nil, err
		}
		base = &Type{Kind: Pointer, Elem: base, Const: konst}
	}

	var (
		name  string
		hole  *Type
		inner *Type
	)
	switch t := p.peek(); {
	case t.kind == tIdent && !keywords[t.text]:
		name = p.next().text
	case t.kind == tPunct && t.text == "(" && p.nestedAhead():
		p.next()
		if _, err := p.attributes(); err != nil {
			return "", nil, err
		}
		hole = &Type{}
		var err error
		if name, inner, err = p.declarator(hole); err != nil {
			return "", nil, err
		}
		if err := p.expect(")"); err != nil {
			return "", nil, err
		}
	}

	var sfx []suffix
	for {
		if p.accept("[") {
			for p.accept("static") || p.accept("const") || p.accept("restrict") || p.accept("__restrict") || p.accept("volatile") {
			}
			length := int64(-1)
			if !p.is("]") {
				v, err := p.constExpr("]")
				if err != nil {
					return "", nil, err
				}
				if v.Kind != IntValue || v.Int < 0 {
					return "", nil, p.errorf("invalid array length")
				}
				length = v.Int
			}
			if err := p.expect("]"); err != nil {
				return "", nil, err
			}
			sfx = append(sfx, suffix{array: true, length: length})
			continue
		}
		if p.accept("(") {
			params, variadic, err := p.paramList()
			if err != nil {
				return "", nil, err
			}
			sfx = append(sfx, suffix{params: params, variadic: variadic})
			continue
		}
		break
	}

	t := base
	for i := len(sfx) - 1; i >= 0; i-- {
		s := sfx[i]
		if s.array {
			t = &Type{Kind: Array, Elem: t, Len: s.length}
		} else {
			t = &Type{Kind: Func, Result: t, Params: s.params, Variadic: s.variadic}
		}
	}
	if hole != nil {
		*hole = *t
		t = inner
	}
	return name, t, nil
}

// nestedAhead reports whether the '(' at the cursor opens a nested
// declarator rather than a parameter list.
func (p *parser) nestedAhead() bool {
	t := p.peekAt(1)
	switch t.kind {
	case tPunct:
		return t.text == "*" || t.text == "(" || t.text == "[" || t.text == "^"
	case tIdent:
		return !p.isTypeStart(t.text)
	}
	return false
}

func (p *parser) isTypeStart(word string) bool {
	return typeWords[word] || p.typedefs[word] != nil
}

// paramList parses a parameter list after its opening parenthesis. An
// empty list declares no parameters.
func (p *parser) paramList() ([]Param, bool, error) {
	p.params++
	defer func() { p.params-- }()
	if p.accept(")") {
		return nil, false, nil
	}
	if p.is("void") && p.peekAt(1).text == ")" {
		p.p += 2
		return nil, false, nil
	}
	var params []Param
	for {
		if p.accept("...") {
			return params, true, p.expect(")")
		}
		if t := p.peek(); t.kind == tIdent && !p.isTypeStart(t.text) {
			return nil, false, p.errorf("parameter %s has no type (K&R-style declarations are not supported)", t.text)
		}
		spec, err := p.specifiers()
		if err != nil {
			return nil, false, err
		}
		name, typ, err := p.declarator(spec.typ)
		if err != nil {
			return nil, false, err
		}
		if _, err := p.attributes(); err != nil {
			return nil, false, err
		}
		if r := typ.Resolve(); r != nil {
			switch r.Kind {
			case Array:
				typ = &Type{Kind: Pointer, Elem: r.Elem}
			case Func:
				typ = &Type{Kind: Pointer, Elem: typ}
			}
		}
		params = append(params, Param{Name: name, Type: typ})
		if !p.accept(",") {
			return params, false, p.expect(")")
		}
	}
}

// qualifiers consumes type qualifiers and attributes after a '*'.
func (p *parser) qualifiers() (konst bool, err error) {
	for {
		t := p.peek()
		if t.kind != tIdent {
			return konst, nil
		}
		switch t.text {
		case "const", "__const", "__const__":
			konst = true
		case "volatile", "__volatile", "__volatile__", "restrict", "__restrict", "__restrict__",
			"_Nonnull", "_Nullable", "_Null_unspecified", "__extension__":
		case "__attribute__", "__attribute":
			if _, err := p.attributes(); err != nil {
				return false, err
			}
			continue
		default:
			return konst, nil
		}
		p.next()
	}
}

// attributes skips GNU attributes and asm labels, returning the layout
// attributes among them.
func (p *parser) attributes() ([]string, error) {
	var layout []string
	for {
		t := p.peek()
		if t.kind != tIdent {
			return layout, nil
		}
		switch {
		case t.text == "__attribute__" || t.text == "__attribute" || t.text == "__declspec":
			p.next()
			start := p.p
			if err := p.skipBalanced(); err != nil {
				return nil, err
			}
			for _, a := range p.toks[start:p.p] {
				if a.kind != tIdent {
					continue
				}
				switch strings.Trim(a.text, "_") {
				case "packed", "aligned":
					layout = append(layout, strings.Trim(a.text, "_"))
				}
			}
		case isAsm(t.text):
			p.next()
			for p.accept("volatile") || p.accept("__volatile__") {
			}
			if err := p.skipBalanced(); err != nil {
				return nil, err
			}
		default:
			return layout, nil
		}
	}
}
