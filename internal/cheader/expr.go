// Copyright 2024 The maxsat Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package cheader

import (
	"errors"
	"math"
	"strconv"
	"strings"
)

// ValueKind is the kind of an evaluated constant.
type ValueKind int

const (
	IntValue ValueKind = iota
	FloatValue
	StringValue
)

// Value is the result of evaluating a constant expression.
type Value struct {
	Kind     ValueKind
	Int      int64
	Unsigned bool
	Float    float64
	Str      string
}

func (v Value) String() string {
	switch v.Kind {
	case FloatValue:
		return strconv.FormatFloat(v.Float, 'g', -1, 64)
	case StringValue:
		return strconv.Quote(v.Str)
	}
	if v.Unsigned {
		return strconv.FormatUint(uint64(v.Int), 10)
	}
	return strconv.FormatInt(v.Int, 10)
}

var errNotConst = errors.New("not a constant expression")

// evaluator computes C constant expressions over a token slice by
// precedence climbing. Identifiers are resolved through lookup.
type evaluator struct {
	toks   []token
	i      int
	lookup func(name string) (Value, bool)
	cast   func(toks []token) (Kind, bool)
}

func (e *evaluator) peek() token {
	if e.i < len(e.toks) {
		return e.toks[e.i]
	}
	return token{kind: tEOF}
}

func (e *evaluator) is(text string) bool {
	t := e.peek()
	return t.kind == tPunct && t.text == text
}

// eval evaluates the whole token slice.
func (e *evaluator) eval() (Value, error) {
	if len(e.toks) == 0 {
		return Value{}, errNotConst
	}
	v, err := e.ternary()
	if err != nil {
		return Value{}, err
	}
	if e.i != len(e.toks) {
		return Value{}, errNotConst
	}
	return v, nil
}

func (e *evaluator) ternary() (Value, error) {
	cond, err := e.binary(0)
	if err != nil || !e.is("?") {
		return cond, err
	}
	e.i++
	a, err := e.ternary()
	if err != nil {
		return Value{}, err
	}
	if !e.is(":") {
		return Value{}, errNotConst
	}
	e.i++
	b, err := e.ternary()
	if err != nil {
		return Value{}, err
	}
	if truth(cond) {
		return a, nil
	}
	return b, nil
}

var precedence = map[string]int{
	"||": 1,
	"&&": 2,
	"|":  3,
	"^":  4,
	"&":  5,
	"==": 6, "!=": 6,
	"<": 7, "<=": 7, ">": 7, ">=": 7,
	"<<": 8, ">>": 8,
	"+": 9, "-": 9,
	"*": 10, "/": 10, "%": 10,
}

func (e *evaluator) binary(minPrec int) (Value, error) {
	lhs, err := e.unary()
	if err != nil {
		return Value{}, err
	}
	for {
		t := e.peek()
		prec, ok := precedence[t.text]
		if t.kind != tPunct || !ok || prec <= minPrec {
			return lhs, nil
		}
		e.i++
		rhs, err := e.binary(prec)
		if err != nil {
			return Value{}, err
		}
		if lhs, err = apply(t.text, lhs, rhs); err != nil {
			return Value{}, err
		}
	}
}

func (e *evaluator) unary() (Value, error) {
	t := e.peek()
	if t.kind == tPunct {
		switch t.text {
		case "+", "-", "~", "!":
			e.i++
			v, err := e.unary()
			if err != nil {
				return Value{}, err
			}
			return applyUnary(t.text, v)
		case "(":
			if kind, n, ok := e.castAt(); ok {
				e.i += n
				v, err := e.unary()
				if err != nil {
					return Value{}, err
				}
				return convert(v, kind)
			}
			e.i++
			v, err := e.ternary()
			if err != nil {
				return Value{}, err
			}
			if !e.is(")") {
				return Value{}, errNotConst
			}
			e.i++
			return v, nil
		}
	}
	return e.primary()
}

// castAt recognises "(type-name)" at the cursor and returns the target kind
// and the number of tokens it spans.
func (e *evaluator) castAt() (Kind, int, bool) {
	if e.cast == nil {
		return 0, 0, false
	}
	for j := e.i + 1; j < len(e.toks); j++ {
		t := e.toks[j]
		if t.kind == tPunct && t.text == ")" {
			if j == e.i+1 {
				return 0, 0, false
			}
			kind, ok := e.cast(e.toks[e.i+1 : j])
			return kind, j - e.i + 1, ok
		}
		if t.kind != tIdent {
			return 0, 0, false
		}
	}
	return 0, 0, false
}

func (e *evaluator) primary() (Value, error) {
	t := e.peek()
	e.i++
	switch t.kind {
	case tNumber:
		return parseNumber(t.text)
	case tChar:
		return parseChar(t.text)
	case tString:
		s, err := parseString(t.text)
		if err != nil {
			return Value{}, err
		}
		for e.peek().kind == tString {
			more, err := parseString(e.peek().text)
			if err != nil {
				return Value{}, err
			}
			s += more
			e.i++
		}
		return Value{Kind: StringValue, Str: s}, nil
	case tIdent:
		if e.lookup != nil {
			if v, ok := e.lookup(t.text); ok {
				return v, nil
			}
		}
	}
	return Value{}, errNotConst
}

func parseNumber(text string) (Value, error) {
	lower := strings.ToLower(text)
	hex := strings.HasPrefix(lower, "0x")
	if strings.Contains(lower, ".") || (!hex && strings.Contains(lower, "e")) || (hex && strings.Contains(lower, "p")) {
		f, err := strconv.ParseFloat(strings.TrimRight(lower, "fl"), 64)
		if err != nil {
			return Value{}, errNotConst
		}
		return Value{Kind: FloatValue, Float: f}, nil
	}
	digits := strings.TrimRight(lower, "ul")
	suffix := lower[len(digits):]
	if len(digits) > 1 && digits[0] == '0' && digits[1] >= '0' && digits[1] <= '9' {
		digits = "0o" + digits[1:]
	}
	u, err := strconv.ParseUint(digits, 0, 64)
	if err != nil || strings.Contains(digits, "_") {
		return Value{}, errNotConst
	}
	return Value{Kind: IntValue, Int: int64(u), Unsigned: strings.Contains(suffix, "u") || u > math.MaxInt64}, nil
}

func parseChar(text string) (Value, error) {
	if !strings.HasPrefix(text, "'") {
		return Value{}, errNotConst // wide and unicode character constants
	}
	s, err := unescapeC(text[1 : len(text)-1])
	if err != nil || len(s) != 1 {
		return Value{}, errNotConst
	}
	return Value{Kind: IntValue, Int: int64(s[0])}, nil
}

func parseString(text string) (string, error) {
	if !strings.HasPrefix(text, `"`) {
		return "", errNotConst
	}
	s, err := unescapeC(text[1 : len(text)-1])
	if err != nil {
		return "", errNotConst
	}
	return s, nil
}

func truth(v Value) bool {
	switch v.Kind {
	case FloatValue:
		return v.Float != 0
	case StringValue:
		return true
	}
	return v.Int != 0
}

func boolValue(b bool) Value {
	if b {
		return Value{Kind: IntValue, Int: 1}
	}
	return Value{Kind: IntValue}
}

func applyUnary(op string, v Value) (Value, error) {
	if v.Kind == StringValue {
		return Value{}, errNotConst
	}
	switch op {
	case "+":
		return v, nil
	case "-":
		if v.Kind == FloatValue {
			v.Float = -v.Float
		} else {
			v.Int = -v.Int
		}
		return v, nil
	case "~":
		if v.Kind == FloatValue {
			return Value{}, errNotConst
		}
		v.Int = ^v.Int
		return v, nil
	}
	return boolValue(!truth(v)), nil
}

func apply(op string, a, b Value) (Value, error) {
	if a.Kind == StringValue || b.Kind == StringValue {
		return Value{}, errNotConst
	}
	switch op {
	case "&&":
		return boolValue(truth(a) && truth(b)), nil
	case "||":
		return boolValue(truth(a) || truth(b)), nil
	}
	if a.Kind == FloatValue || b.Kind == FloatValue {
		return applyFloat(op, toFloat(a), toFloat(b))
	}
	unsigned := a.Unsigned || b.Unsigned
	x, y := a.Int, b.Int
	ux, uy := uint64(x), uint64(y)
	r := Value{Kind: IntValue, Unsigned: unsigned}
	switch op {
	case "+":
		r.Int = x + y
	case "-":
		r.Int = x - y
	case "*":
		r.Int = x * y
	case "/", "%":
		if y == 0 {
			return Value{}, errors.New("division by zero")
		}
		switch {
		case unsigned && op == "/":
			r.Int = int64(ux / uy)
		case unsigned:
			r.Int = int64(ux % uy)
		case op == "/":
			r.Int = x / y
		default:
			r.Int = x % y
		}
	case "<<":
		r.Int, r.Unsigned = x<<uy, a.Unsigned
	case ">>":
		r.Unsigned = a.Unsigned
		if a.Unsigned {
			r.Int = int64(ux >> uy)
		} else {
			r.Int = x >> uy
		}
	case "&":
		r.Int = x & y
	case "|":
		r.Int = x | y
	case "^":
		r.Int = x ^ y
	case "==":
		return boolValue(x == y), nil
	case "!=":
		return boolValue(x != y), nil
	case "<", "<=", ">", ">=":
		var c int
		switch {
		case unsigned && ux < uy, !unsigned && x < y:
			c = -1
		case x != y:
			c = 1
		}
		return boolValue(compare(op, c)), nil
	}
	return r, nil
}

func applyFloat(op string, x, y float64) (Value, error) {
	r := Value{Kind: FloatValue}
	switch op {
	case "+":
		r.Float = x + y
	case "-":
		r.Float = x - y
	case "*":
		r.Float = x * y
	case "/":
		r.Float = x / y
	case "==":
		return boolValue(x == y), nil
	case "!=":
		return boolValue(x != y), nil
	case "<", "<=", ">", ">=":
		c := 0
		if x < y {
			c = -1
		} else if x > y {
			c = 1
		}
		return boolValue(compare(op, c)), nil
	default:
		return Value{}, errNotConst
	}
	return r, nil
}

func compare(op string, c int) bool {
	switch op {
	case "<":
		return c < 0
	case "<=":
		return c <= 0
	case ">":
		return c > 0
	}
	return c >= 0
}

func toFloat(v Value) float64 {
	switch {
	case v.Kind == FloatValue:
		return v.Float
	case v.Unsigned:
		return float64(uint64(v.Int))
	}
	return float64(v.Int)
}

// convert applies a cast to an arithmetic kind.
func convert(v Value, k Kind) (Value, error) {
	if v.Kind == StringValue {
		return Value{}, errNotConst
	}
	switch k {
	case Float, Double:
		return Value{Kind: FloatValue, Float: toFloat(v)}, nil
	case Bool:
		return boolValue(truth(v)), nil
	}
	if !k.IsInteger() {
		return Value{}, errNotConst
	}
	if v.Kind == FloatValue {
		v = Value{Kind: IntValue, Int: int64(v.Float)}
	}
	bits, signed := intWidth(k)
	r := Value{Kind: IntValue, Int: v.Int, Unsigned: !signed}
	if bits < 64 {
		shift := 64 - bits
		if signed {
			r.Int = r.Int << shift >> shift
		} else {
			r.Int = int64(uint64(r.Int) << shift >> shift)
		}
	}
	return r, nil
}

// intWidth reports the width of k on LP64 targets.
func intWidth(k Kind) (bits uint, signed bool) {
	switch k {
	case Char, SChar:
		return 8, true
	case UChar:
		return 8, false
	case Short:
		return 16, true
	case UShort:
		return 16, false
	case Int:
		return 32, true
	case UInt:
		return 32, false
	case Long, LongLong, Int128:
		return 64, true
	}
	return 64, false
}
