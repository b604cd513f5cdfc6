// Copyright 2024 The maxsat Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package cheader

import (
	"reflect"
	"strings"
	"testing"
)

const ipamirSrc = `# 0 "wrapper.h"
# 0 "<built-in>"
#define __STDC__ 1
#define __x86_64__ 1
# 0 "<command-line>"
# 1 "wrapper.h"
# 1 "/usr/include/stdint.h" 1 3 4
typedef signed char __int8_t;
typedef int __int32_t;
typedef unsigned long int __uint64_t;
typedef __int32_t int32_t;
typedef __uint64_t uint64_t;
extern int printf (const char *__restrict __format, ...) __attribute__ ((__nothrow__));
static __inline unsigned int __bswap_32 (unsigned int __bsx) { return __builtin_bswap32 (__bsx); }
typedef _Float128 __float128_alias;
typedef struct { int __val[2]; } __fsid_t;
#define INT32_MAX (2147483647)
# 2 "wrapper.h" 2
# 1 "UWrMaxSat/ipamir.h" 1
#define IPAMIR_VERSION 2
#define IPAMIR_NAME "uwrmaxsat"
#define IPAMIR_API
const char * ipamir_signature ();
void * ipamir_init ();
void ipamir_release (void * solver);
void ipamir_add_hard (void * solver, int32_t lit_or_zero);
void ipamir_add_soft_lit (void * solver, int32_t lit, uint64_t weight);
int ipamir_solve (void * solver);
uint64_t ipamir_val_obj (void * solver);
void ipamir_set_terminate (void * solver, void * state, int (*terminate)(void * state));
# 2 "wrapper.h" 2
`

func declNames(s *Surface) []string {
	names := make([]string, len(s.Decls))
	for i, d := range s.Decls {
		names[i] = d.Name
	}
	return names
}

func TestParseIPAMIR(t *testing.T) {
	s, err := Parse([]byte(ipamirSrc))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	want := []string{
		"IPAMIR_VERSION", "IPAMIR_NAME",
		"ipamir_signature", "ipamir_init", "ipamir_release", "ipamir_add_hard",
		"ipamir_add_soft_lit", "ipamir_solve", "ipamir_val_obj", "ipamir_set_terminate",
	}
	if got := declNames(s); !reflect.DeepEqual(got, want) {
		t.Fatalf("decls:\n got %q\nwant %q", got, want)
	}
	if !reflect.DeepEqual(s.Skipped, []string{"IPAMIR_API"}) {
		t.Errorf("skipped = %q", s.Skipped)
	}

	sigs := map[string]string{
		"ipamir_signature":     "const char *ipamir_signature(void)",
		"ipamir_init":          "void *ipamir_init(void)",
		"ipamir_add_hard":      "void ipamir_add_hard(void *solver, int32_t lit_or_zero)",
		"ipamir_solve":         "int ipamir_solve(void *solver)",
		"ipamir_val_obj":       "uint64_t ipamir_val_obj(void *solver)",
		"ipamir_set_terminate": "void ipamir_set_terminate(void *solver, void *state, int (*terminate)(void *state))",
		"IPAMIR_VERSION":       "#define IPAMIR_VERSION 2",
		"IPAMIR_NAME":          `#define IPAMIR_NAME "uwrmaxsat"`,
	}
	for name, want := range sigs {
		if got := s.Lookup(name).Signature(); got != want {
			t.Errorf("%s signature = %q, want %q", name, got, want)
		}
	}

	solve := s.Lookup("ipamir_solve")
	if solve.Pos != (Pos{File: "UWrMaxSat/ipamir.h", Line: 9}) {
		t.Errorf("ipamir_solve at %v", solve.Pos)
	}
	if solve.Kind != DeclFunc || len(solve.Type.Params) != 1 || solve.Type.Result.Kind != Int {
		t.Errorf("ipamir_solve = %+v", solve.Type)
	}
	if init := s.Lookup("ipamir_init"); len(init.Type.Params) != 0 || init.Type.Variadic {
		t.Errorf("empty parameter list must declare no parameters")
	}
	if v := s.Lookup("IPAMIR_VERSION").Value; v.Kind != IntValue || v.Int != 2 {
		t.Errorf("IPAMIR_VERSION = %v", v)
	}
	if s.Lookup("INT32_MAX") != nil || s.Lookup("printf") != nil || s.Lookup("__fsid_t") != nil {
		t.Error("system header declarations leaked into the surface")
	}
}

const typesSrc = `# 1 "t.h"
struct point { int x; int y; };
typedef struct point point_t;
typedef struct { double re, im; } cplx;
enum color { RED, GREEN = 4, BLUE };
enum { FLAG_A = 1 << 0, FLAG_B = 1 << 1 };
typedef enum { NEG = -1, POS = 1 } sign_t;
union num { int i; float f; };
extern int counter;
typedef int (*cmp_fn)(const void *, const void *);
int arr_sum(const int values[], unsigned long n);
static inline int twice(int v) { return v * 2; }
int (*get_handler(int sig))(int);
extern char *names[3];
extern int (*grid)[4];
struct node;
struct node *next_node(struct node *n);
#define SIZE (4 * 8)
#define RATIO 0.5
#define ALIAS SIZE
#define GREEN_PLUS (GREEN + 1)
#define FN(x) (x)
#define NAME "a\x41" "b"
#define GONE 1
#undef GONE
`

func TestParseTypes(t *testing.T) {
	s, err := Parse([]byte(typesSrc))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	want := []string{
		"point", "point_t", "cplx", "color", "FLAG_A", "FLAG_B", "sign_t", "num",
		"counter", "cmp_fn", "arr_sum", "twice", "get_handler", "names", "grid",
		"node", "next_node",
		"SIZE", "RATIO", "ALIAS", "GREEN_PLUS", "NAME",
	}
	if got := declNames(s); !reflect.DeepEqual(got, want) {
		t.Fatalf("decls:\n got %q\nwant %q", got, want)
	}

	kinds := map[string]DeclKind{
		"point": DeclStruct, "point_t": DeclTypedef, "color": DeclEnum, "FLAG_B": DeclConst,
		"num": DeclUnion, "counter": DeclVar, "twice": DeclFunc, "node": DeclStruct, "NAME": DeclConst,
	}
	for name, k := range kinds {
		if got := s.Lookup(name).Kind; got != k {
			t.Errorf("%s kind = %v, want %v", name, got, k)
		}
	}

	sigs := map[string]string{
		"point":       "struct point { int x; int y; }",
		"point_t":     "typedef struct point point_t",
		"cplx":        "typedef struct { double re; double im; } cplx",
		"color":       "enum color { RED = 0, GREEN = 4, BLUE = 5 }",
		"FLAG_B":      "FLAG_B = 2",
		"counter":     "extern int counter",
		"cmp_fn":      "typedef int (*cmp_fn)(const void *, const void *)",
		"arr_sum":     "int arr_sum(const int *values, unsigned long n)",
		"twice":       "int twice(int v)",
		"get_handler": "int (*get_handler(int sig))(int)",
		"names":       "extern char *names[3]",
		"grid":        "extern int (*grid)[4]",
		"node":        "struct node",
		"next_node":   "struct node *next_node(struct node *n)",
	}
	for name, want := range sigs {
		if got := s.Lookup(name).Signature(); got != want {
			t.Errorf("%s signature = %q, want %q", name, got, want)
		}
	}

	values := map[string]Value{
		"SIZE":       {Kind: IntValue, Int: 32},
		"RATIO":      {Kind: FloatValue, Float: 0.5},
		"ALIAS":      {Kind: IntValue, Int: 32},
		"GREEN_PLUS": {Kind: IntValue, Int: 5},
		"NAME":       {Kind: StringValue, Str: "aAb"},
	}
	for name, want := range values {
		if got := s.Lookup(name).Value; got != want {
			t.Errorf("%s = %+v, want %+v", name, got, want)
		}
	}

	if st := s.Lookup("sign_t").Type; st.Kind != Enum || !st.Enum.Signed() {
		t.Errorf("sign_t = %v, want a signed enum", st)
	}
	point := s.Lookup("point").Type.Record
	if typedef := s.Lookup("point_t").Type; typedef.Record != point {
		t.Error("struct point and its typedef do not share the record")
	}
	if s.Lookup("node").Type.Record.Complete {
		t.Error("forward-declared struct node reported complete")
	}
	if s.Lookup("FN") != nil || s.Lookup("GONE") != nil {
		t.Error("function-like or undefined macros must not be declared")
	}
}

func TestParseDuplicates(t *testing.T) {
	src := "# 1 \"d.h\"\nint f(void);\nint f(void);\nint f(void) { return 1; }\ntypedef int t;\ntypedef int t;\n"
	s, err := Parse([]byte(src))
	if err != nil {
		t.Fatal(err)
	}
	if got := declNames(s); !reflect.DeepEqual(got, []string{"f", "t"}) {
		t.Errorf("decls = %q", got)
	}
}

func TestParseSystemTypedefs(t *testing.T) {
	src := "# 1 \"/usr/include/x.h\" 1 3 4\n" +
		"typedef struct { int __val[2]; } __fsid_t;\n" +
		"typedef __weird_t (*broken_t)(int);\n" +
		"typedef _Float64x __long_alias;\n" +
		"# 1 \"u.h\" 2\n" +
		"void g(__fsid_t *id, broken_t cb, __long_alias *p);\n"
	s, err := Parse([]byte(src))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	g := s.Lookup("g")
	if g == nil || len(g.Type.Params) != 3 {
		t.Fatalf("g = %+v", g)
	}
	if base := g.Type.Params[1].Type; base.Kind != Named || base.Base != nil {
		t.Errorf("broken_t = %+v, want an opaque typedef", base)
	}
}

func TestParseErrors(t *testing.T) {
	tests := []struct {
		name string
		src  string
		msg  string
	}{
		{"bitfield", "struct s { int a : 3; };", "bitfield a"},
		{"variadic", "int log_msg(const char *fmt, ...);", "variadic function log_msg"},
		{"long double", "long double ld(void);", "long double"},
		{"long double field", "struct w { long double v; };", "long double"},
		{"K&R", "int f(a, b) int a; int b; { return 0; }", "K&R"},
		{"packed", "struct __attribute__((packed)) p { char c; int i; };", "packed attribute on struct p"},
		{"aligned", "struct q { char c; } __attribute__((aligned(8)));", "aligned attribute on struct q"},
		{"aligned field", "struct r { int x __attribute__((__aligned__(16))); };", "aligned attribute"},
		{"unknown type", "foo_t x;", `unknown type name "foo_t"`},
		{"unterminated params", "int f(void", `expected ")"`},
		{"stray brace", "}", "expected type specifier"},
		{"missing name", "int;\nint *;", "expected identifier"},
		{"tag kind", "struct a; union a;", "different kind of tag"},
		{"redefinition", "struct b { int x; }; struct b { int y; };", "redefinition of struct b"},
		{"atomic", "_Atomic int n;", "_Atomic is not supported"},
		{"bad array", "int a[-1];", "invalid array length"},
		{"unterminated comment", "int a; /* oops", "unterminated comment"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte("# 1 \"e.h\"\n" + tt.src + "\n"))
			if err == nil {
				t.Fatal("Parse succeeded")
			}
			if !strings.Contains(err.Error(), tt.msg) {
				t.Errorf("error = %q, want it to contain %q", err, tt.msg)
			}
			if !strings.HasPrefix(err.Error(), "e.h:") {
				t.Errorf("error %q lacks a position", err)
			}
		})
	}
}

func TestParseDeterministic(t *testing.T) {
	a, err := Parse([]byte(typesSrc))
	if err != nil {
		t.Fatal(err)
	}
	b, _ := Parse([]byte(typesSrc))
	for i := range a.Decls {
		if a.Decls[i].Signature() != b.Decls[i].Signature() {
			t.Fatalf("decl %d differs between runs", i)
		}
	}
}
