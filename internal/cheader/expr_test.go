// Copyright 2024 The maxsat Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package cheader

import "testing"

func evalString(t *testing.T, src string, lookup func(string) (Value, bool)) (Value, error) {
	t.Helper()
	toks, err := newLexer([]byte(src)).tokens()
	if err != nil {
		t.Fatalf("lex %q: %v", src, err)
	}
	p := newParser(nil)
	e := &evaluator{toks: toks[:len(toks)-1], lookup: lookup, cast: p.castKind}
	return e.eval()
}

func TestEval(t *testing.T) {
	consts := map[string]Value{"TEN": {Kind: IntValue, Int: 10}}
	lookup := func(name string) (Value, bool) {
		v, ok := consts[name]
		return v, ok
	}
	tests := []struct {
		src  string
		want Value
	}{
		{"42", Value{Kind: IntValue, Int: 42}},
		{"0x1F", Value{Kind: IntValue, Int: 31}},
		{"010", Value{Kind: IntValue, Int: 8}},
		{"0b101", Value{Kind: IntValue, Int: 5}},
		{"7u", Value{Kind: IntValue, Int: 7, Unsigned: true}},
		{"1ULL << 40", Value{Kind: IntValue, Int: 1 << 40, Unsigned: true}},
		{"-5 / 2", Value{Kind: IntValue, Int: -2}},
		{"-5 % 3", Value{Kind: IntValue, Int: -2}},
		{"1 + 2 * 3", Value{Kind: IntValue, Int: 7}},
		{"(1 + 2) * 3", Value{Kind: IntValue, Int: 9}},
		{"TEN - 1 - 1", Value{Kind: IntValue, Int: 8}},
		{"~0", Value{Kind: IntValue, Int: -1}},
		{"!TEN", Value{Kind: IntValue, Int: 0}},
		{"TEN > 3 && TEN < 20", Value{Kind: IntValue, Int: 1}},
		{"TEN == 10 ? 'a' : 'b'", Value{Kind: IntValue, Int: 'a'}},
		{"'\\n'", Value{Kind: IntValue, Int: '\n'}},
		{"'\\0'", Value{Kind: IntValue, Int: 0}},
		{"1.5e3", Value{Kind: FloatValue, Float: 1500}},
		{"0.5f * 2", Value{Kind: FloatValue, Float: 1}},
		{"-.25", Value{Kind: FloatValue, Float: -0.25}},
		{"0x1p4", Value{Kind: FloatValue, Float: 16}},
		{"(unsigned char)300", Value{Kind: IntValue, Int: 44, Unsigned: true}},
		{"(int)0xFFFFFFFF", Value{Kind: IntValue, Int: -1}},
		{"(double)3", Value{Kind: FloatValue, Float: 3}},
		{"(int32_t)-1", Value{Kind: IntValue, Int: -1}},
		{"(TEN)", Value{Kind: IntValue, Int: 10}},
		{`"a" "b\tc"`, Value{Kind: StringValue, Str: "ab\tc"}},
		{"-1 < 0u", Value{Kind: IntValue, Int: 0}},
		{"0xFFFFFFFFFFFFFFFF", Value{Kind: IntValue, Int: -1, Unsigned: true}},
	}
	for _, tt := range tests {
		got, err := evalString(t, tt.src, lookup)
		if err != nil {
			t.Errorf("eval(%q): %v", tt.src, err)
			continue
		}
		if got != tt.want {
			t.Errorf("eval(%q) = %+v, want %+v", tt.src, got, tt.want)
		}
	}
}

func TestEvalRejects(t *testing.T) {
	for _, src := range []string{
		"", "unknown", "1 +", "(1", "1 / 0", `"a" + 1`, "int", "sizeof(int)", "1.5 % 2",
		"x(1)", "L'a'", "{1}", "1 2",
	} {
		if v, err := evalString(t, src, nil); err == nil {
			t.Errorf("eval(%q) = %v, want an error", src, v)
		}
	}
}
