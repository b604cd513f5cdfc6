// Copyright 2024 The maxsat Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package cheader

import (
	"math"
	"sort"
	"strings"
)

// Parse parses the output of "cc -E -dD" into the declarations of the user
// headers it contains.
func Parse(src []byte) (*Surface, error) {
	lx := newLexer(src)
	toks, err := lx.tokens()
	if err != nil {
		return nil, err
	}
	p := newParser(toks)
	if err := p.parse(); err != nil {
		return nil, err
	}
	if err := p.check(); err != nil {
		return nil, err
	}
	s := &Surface{Decls: p.decls}
	p.addMacros(s, lx.macros)
	sort.SliceStable(s.Decls, func(i, j int) bool { return s.Decls[i].order < s.Decls[j].order })
	return s, nil
}

// predeclared seeds the typedef table with the fixed-width and size types,
// so headers that use them parse even when the defining system header was
// not part of the input.
var predeclared = map[string]Kind{
	"int8_t":    SChar,
	"uint8_t":   UChar,
	"int16_t":   Short,
	"uint16_t":  UShort,
	"int32_t":   Int,
	"uint32_t":  UInt,
	"int64_t":   Long,
	"uint64_t":  ULong,
	"intptr_t":  Long,
	"uintptr_t": ULong,
	"intmax_t":  Long,
	"uintmax_t": ULong,
	"ptrdiff_t": Long,
	"size_t":    ULong,
	"ssize_t":   Long,

	"__int128_t":  Int128,
	"__uint128_t": UInt128,
}

type parser struct {
	toks []token
	p    int
	sys  bool // the current declaration started in a system header

	typedefs map[string]*Type
	records  map[string]*Record
	enums    map[string]*EnumType
	consts   map[string]Value

	decls    []*Decl
	declared map[string]bool
	params   int // parameter list nesting
}

func newParser(toks []token) *parser {
	p := &parser{
		toks:     toks,
		typedefs: make(map[string]*Type),
		records:  make(map[string]*Record),
		enums:    make(map[string]*EnumType),
		consts:   make(map[string]Value),
		declared: make(map[string]bool),
	}
	for name, k := range predeclared {
		p.typedefs[name] = &Type{Kind: Named, Name: name, Base: &Type{Kind: k}}
	}
	p.typedefs["__builtin_va_list"] = &Type{Kind: Named, Name: "__builtin_va_list"}
	return p
}

func (p *parser) peek() token {
	return p.toks[p.p]
}

func (p *parser) peekAt(n int) token {
	if p.p+n < len(p.toks) {
		return p.toks[p.p+n]
	}
	return p.toks[len(p.toks)-1]
}

func (p *parser) next() token {
	t := p.toks[p.p]
	if t.kind != tEOF {
		p.p++
	}
	return t
}

func (p *parser) is(text string) bool {
	t := p.peek()
	return (t.kind == tPunct || t.kind == tIdent) && t.text == text
}

func (p *parser) accept(text string) bool {
	if p.is(text) {
		p.p++
		return true
	}
	return false
}

func (p *parser) expect(text string) error {
	if !p.accept(text) {
		return p.errorf("expected %q, found %v", text, p.peek())
	}
	return nil
}

func (p *parser) errorf(format string, args ...any) error {
	return errorf(p.peek().pos, format, args...)
}

func (p *parser) parse() error {
	for p.peek().kind != tEOF {
		start := p.p
		sys := p.peek().sys
		err := p.external()
		if err == nil {
			continue
		}
		if !sys {
			return err
		}
		p.p = start
		p.recover()
	}
	return nil
}

// external parses one file-scope declaration or function definition.
func (p *parser) external() error {
	t := p.peek()
	p.sys = t.sys
	switch {
	case p.accept(";"):
		return nil
	case t.kind == tIdent && (t.text == "_Static_assert" || t.text == "static_assert" || isAsm(t.text)):
		p.next()
		if err := p.skipBalanced(); err != nil {
			return err
		}
		return p.expect(";")
	}

	spec, err := p.specifiers()
	if err != nil {
		return err
	}
	if spec.anonEnum != nil && !spec.typedef {
		p.addEnumConsts(spec.anonEnum, t.pos)
	}
	if p.accept(";") {
		return nil
	}
	for first := true; ; first = false {
		pos := p.peek().pos
		name, typ, err := p.declarator(spec.typ)
		if err != nil {
			return err
		}
		if name == "" {
			return errorf(pos, "expected identifier in declaration")
		}
		if _, err := p.attributes(); err != nil {
			return err
		}
		switch {
		case spec.typedef:
			p.addTypedef(name, typ, pos)
		case typ.Kind == Func && p.is("{"):
			if !first {
				return p.errorf("unexpected function body")
			}
			if err := p.skipBalanced(); err != nil {
				return err
			}
			p.addDecl(name, DeclFunc, typ, pos)
			return nil
		case typ.Kind == Func:
			p.addDecl(name, DeclFunc, typ, pos)
		default:
			if p.accept("=") {
				if _, err := p.skipUntil(",", ";"); err != nil {
					return err
				}
			}
			p.addDecl(name, DeclVar, typ, pos)
		}
		if !p.accept(",") {
			return p.expect(";")
		}
	}
}

func isAsm(word string) bool {
	return word == "__asm__" || word == "__asm" || word == "asm"
}

// skipBalanced skips a parenthesised, bracketed or braced group starting
// at the cursor.
func (p *parser) skipBalanced() error {
	open := p.next()
	if open.kind != tPunct || (open.text != "(" && open.text != "[" && open.text != "{") {
		return errorf(open.pos, "expected group, found %v", open)
	}
	depth := 1
	for depth > 0 {
		t := p.next()
		if t.kind == tEOF {
			return errorf(open.pos, "unbalanced %q", open.text)
		}
		if t.kind != tPunct {
			continue
		}
		switch t.text {
		case "(", "[", "{":
			depth++
		case ")", "]", "}":
			depth--
		}
	}
	return nil
}

// skipUntil skips to the first of stops outside any group, without
// consuming it, and returns the skipped tokens.
func (p *parser) skipUntil(stops ...string) ([]token, error) {
	start := p.p
	depth := 0
	for {
		t := p.peek()
		if t.kind == tEOF {
			return nil, p.errorf("unexpected end of input")
		}
		if t.kind == tPunct {
			if depth == 0 {
				for _, s := range stops {
					if t.text == s {
						return p.toks[start:p.p], nil
					}
				}
			}
			switch t.text {
			case "(", "[", "{":
				depth++
			case ")", "]", "}":
				depth--
			}
		}
		p.next()
	}
}

// constExpr evaluates the constant expression that ends at one of stops.
func (p *parser) constExpr(stops ...string) (Value, error) {
	pos := p.peek().pos
	toks, err := p.skipUntil(stops...)
	if err != nil {
		return Value{}, err
	}
	e := &evaluator{toks: toks, lookup: p.lookupConst, cast: p.castKind}
	v, err := e.eval()
	if err != nil {
		return Value{}, errorf(pos, "invalid constant expression: %v", err)
	}
	return v, nil
}

func (p *parser) lookupConst(name string) (Value, bool) {
	v, ok := p.consts[name]
	return v, ok
}

// castKind resolves the type name of a cast in a constant expression.
func (p *parser) castKind(toks []token) (Kind, bool) {
	words := make([]string, len(toks))
	for i, t := range toks {
		words[i] = t.text
	}
	if len(words) == 1 {
		if td := p.typedefs[words[0]]; td != nil {
			if r := td.Resolve(); r != nil {
				return r.Kind, r.Kind.IsInteger() || r.Kind == Float || r.Kind == Double
			}
			return 0, false
		}
	}
	return basicKind(words)
}

// recover skips a system-header declaration the parser could not handle.
// If it was a typedef, the name is still recorded as an opaque type.
func (p *parser) recover() {
	var (
		paren, brace int
		attrAt       = -1
		body         bool
		typedef      bool
		outer, inner string
		prev         token
	)
	defer func() {
		name := inner
		if name == "" {
			name = outer
		}
		if typedef && name != "" && p.typedefs[name] == nil {
			p.typedefs[name] = &Type{Kind: Named, Name: name}
		}
	}()
	for {
		t := p.next()
		switch t.kind {
		case tEOF:
			return
		case tPunct:
			switch t.text {
			case "(", "[":
				paren++
			case ")", "]":
				paren--
				if paren == attrAt {
					attrAt = -1
				}
			case "{":
				if brace == 0 && paren == 0 && prev.kind == tPunct && prev.text == ")" {
					body = true
				}
				brace++
			case "}":
				brace--
				if brace == 0 && paren == 0 && body {
					return
				}
			case ";":
				if brace == 0 && paren == 0 {
					return
				}
			}
		case tIdent:
			switch {
			case brace > 0:
			case t.text == "typedef":
				typedef = true
			case t.text == "__attribute__" || t.text == "__attribute" || isAsm(t.text):
				attrAt = paren
			case keywords[t.text] || attrAt >= 0:
			case paren == 0:
				outer = t.text
			case inner == "" && prev.kind == tPunct && (prev.text == "*" || prev.text == "("):
				inner = t.text
			}
		}
		prev = t
	}
}

func (p *parser) addDecl(name string, kind DeclKind, typ *Type, pos Pos) {
	if p.sys {
		return
	}
	key := "id:" + name
	if p.declared[key] {
		return
	}
	p.declared[key] = true
	p.decls = append(p.decls, &Decl{Name: name, Kind: kind, Type: typ, Pos: pos, order: 2*p.p + 1})
}

func (p *parser) addTypedef(name string, typ *Type, pos Pos) {
	if p.typedefs[name] == nil {
		p.typedefs[name] = &Type{Kind: Named, Name: name, Base: typ}
	}
	p.addDecl(name, DeclTypedef, typ, pos)
}

// declareTag records the first file-scope mention of a user tag.
func (p *parser) declareTag(tag string, kind DeclKind, typ *Type, pos Pos, system bool) {
	if system || p.sys || p.params > 0 {
		return
	}
	key := "tag:" + tag
	if p.declared[key] {
		return
	}
	p.declared[key] = true
	p.decls = append(p.decls, &Decl{Name: tag, Kind: kind, Type: typ, Pos: pos, order: 2*p.p + 1})
}

func (p *parser) addEnumConsts(en *EnumType, pos Pos) {
	typ := &Type{Kind: Enum, Enum: en}
	for _, v := range en.Values {
		if p.sys || p.declared["id:"+v.Name] {
			continue
		}
		p.addDecl(v.Name, DeclConst, typ, pos)
		p.decls[len(p.decls)-1].Value = Value{Kind: IntValue, Int: v.Value}
	}
}

// check rejects user declarations whose layout or calling convention
// cannot be mirrored.
func (p *parser) check() error {
	for _, d := range p.decls {
		switch d.Kind {
		case DeclFunc:
			if d.Type.Variadic {
				return errorf(d.Pos, "variadic function %s is not supported", d.Name)
			}
			if err := checkType(d.Type, d.Pos); err != nil {
				return err
			}
		case DeclVar, DeclTypedef:
			if err := checkType(d.Type, d.Pos); err != nil {
				return err
			}
		case DeclStruct, DeclUnion:
			if err := checkRecord(d.Type.Record, d.Pos); err != nil {
				return err
			}
		}
	}
	return nil
}

func checkRecord(r *Record, pos Pos) error {
	name := "anonymous " + recordKind(r).String()
	if r.Tag != "" {
		name = recordKind(r).String() + " " + r.Tag
	}
	if len(r.Attrs) > 0 {
		return errorf(r.Pos, "%s attribute on %s is not supported", r.Attrs[0], name)
	}
	for _, f := range r.Fields {
		if f.Bits >= 0 {
			return errorf(f.Pos, "bitfield %s in %s is not supported", f.Name, name)
		}
		if err := checkType(f.Type, f.Pos); err != nil {
			return err
		}
	}
	return nil
}

func checkType(t *Type, pos Pos) error {
	switch t.Kind {
	case LongDouble:
		return errorf(pos, "long double is not supported")
	case Pointer, Array:
		return checkType(t.Elem, pos)
	case Func:
		for _, prm := range t.Params {
			if err := checkType(prm.Type, pos); err != nil {
				return err
			}
		}
		return checkType(t.Result, pos)
	case Struct, Union:
		if t.Record.Tag == "" {
			return checkRecord(t.Record, pos)
		}
	}
	return nil
}

// addMacros evaluates the object-like macros of user headers and adds the
// constant ones to s.
func (p *parser) addMacros(s *Surface, macros map[string]*macro) {
	var user []*macro
	for _, m := range macros {
		if !m.sys {
			user = append(user, m)
		}
	}
	sort.Slice(user, func(i, j int) bool {
		if user[i].order != user[j].order {
			return user[i].order < user[j].order
		}
		return user[i].seq < user[j].seq
	})
	for _, m := range user {
		v, err := p.evalMacro(m.name, macros, map[string]bool{})
		if err != nil || p.declared["id:"+m.name] {
			s.Skipped = append(s.Skipped, m.name)
			continue
		}
		s.Decls = append(s.Decls, &Decl{Name: m.name, Kind: DeclConst, Value: v, Pos: m.pos, order: 2 * m.order})
	}
}

func (p *parser) evalMacro(name string, macros map[string]*macro, active map[string]bool) (Value, error) {
	m := macros[name]
	if m == nil || active[name] {
		return Value{}, errNotConst
	}
	active[name] = true
	defer delete(active, name)

	toks, err := newLexer([]byte(m.body)).tokens()
	if err != nil {
		return Value{}, err
	}
	e := &evaluator{
		toks: toks[:len(toks)-1],
		lookup: func(id string) (Value, bool) {
			if macros[id] != nil {
				v, err := p.evalMacro(id, macros, active)
				return v, err == nil
			}
			return p.lookupConst(id)
		},
		cast: p.castKind,
	}
	v, err := e.eval()
	if err != nil {
		return Value{}, err
	}
	if v.Kind == FloatValue && (math.IsInf(v.Float, 0) || math.IsNaN(v.Float)) {
		return Value{}, errNotConst
	}
	return v, nil
}

var keywords = map[string]bool{}

// typeWords are the identifiers that can begin a type name.
var typeWords = map[string]bool{}

func init() {
	for _, w := range strings.Fields(`
		auto break case char const continue default do double else enum extern
		float for goto if inline int long register restrict return short signed
		sizeof static struct switch typedef union unsigned void volatile while
		_Alignas _Alignof _Atomic _Bool _Complex _Generic _Imaginary _Noreturn
		_Static_assert _Thread_local __asm__ __asm asm __attribute__ __attribute
		__extension__ __inline __inline__ __restrict __restrict__ __const __const__
		__volatile __volatile__ __signed __signed__ __typeof__ __typeof typeof
		__int128 __complex__ __thread __declspec __auto_type _Nonnull _Nullable
		_Null_unspecified`) {
		keywords[w] = true
	}
	for _, w := range strings.Fields(`
		char const double enum extern float inline int long register restrict
		short signed static struct typedef union unsigned void volatile auto
		_Alignas _Atomic _Bool _Complex _Noreturn _Thread_local __attribute__
		__attribute __extension__ __inline __inline__ __restrict __restrict__
		__const __const__ __volatile __volatile__ __signed __signed__ __typeof__
		__typeof typeof __int128 __complex__ __thread __declspec`) {
		typeWords[w] = true
	}
}
