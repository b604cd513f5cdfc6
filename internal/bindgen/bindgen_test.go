// Copyright 2024 The maxsat Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package bindgen

import (
	"context"
	"errors"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/goplus/maxsat/internal/cheader"
	"github.com/goplus/maxsat/internal/runner"
	"github.com/goplus/maxsat/internal/runner/runnertest"
)

func TestPreprocess(t *testing.T) {
	rec := &runnertest.Recorder{
		Outputs: map[string][]byte{"preprocess wrapper.h": []byte("# 1 \"wrapper.h\"\nint solve(void* handle);\n")},
	}
	out, err := Preprocess(context.Background(), rec, "gcc -m32", "/src/wrapper.h", []string{"/src/UWrMaxSat"})
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(out), "solve") {
		t.Errorf("output = %q", out)
	}
	if len(rec.Steps) != 1 {
		t.Fatalf("got %d steps, want 1", len(rec.Steps))
	}
	step := rec.Steps[0]
	want := "-m32 -E -dD -x c -I/src/UWrMaxSat /src/wrapper.h"
	if step.Program != "gcc" || strings.Join(step.Args, " ") != want {
		t.Errorf("step = %s %q, want gcc %s", step.Program, step.Args, want)
	}
}

func TestPreprocessDefaultCompiler(t *testing.T) {
	rec := &runnertest.Recorder{}
	if _, err := Preprocess(context.Background(), rec, "", "wrapper.h", nil); err != nil {
		t.Fatal(err)
	}
	if got := rec.Steps[0].Program; got != "cc" {
		t.Errorf("program = %q, want cc", got)
	}
}

func TestParseErrors(t *testing.T) {
	ctx := context.Background()

	rec := &runnertest.Recorder{
		Fail: map[string]error{"preprocess wrapper.h": runnertest.ExitFailure("preprocess wrapper.h", 1)},
	}
	_, err := Parse(ctx, rec, "cc", "wrapper.h", nil)
	var be *Error
	if !errors.As(err, &be) || be.Header != "wrapper.h" {
		t.Fatalf("error = %v, want *Error for wrapper.h", err)
	}
	var ee *runner.ExitError
	if !errors.As(err, &ee) || ee.Code != 1 {
		t.Errorf("error = %v, want it to wrap the exit status", err)
	}

	rec = &runnertest.Recorder{
		Outputs: map[string][]byte{"preprocess wrapper.h": []byte("# 1 \"wrapper.h\"\nint f(...);\n")},
	}
	_, err = Parse(ctx, rec, "cc", "wrapper.h", nil)
	var ce *cheader.Error
	if !errors.As(err, &be) || !errors.As(err, &ce) {
		t.Fatalf("error = %v, want *Error wrapping *cheader.Error", err)
	}
	if ce.Pos.File != "wrapper.h" || ce.Pos.Line != 1 {
		t.Errorf("error position = %v", ce.Pos)
	}
}

func TestWrite(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "ffi", "ipamir.go")
	src := []byte("package ffi\n")
	if err := Write(path, src); err != nil {
		t.Fatal(err)
	}
	got, err := os.ReadFile(path)
	if err != nil || string(got) != string(src) {
		t.Fatalf("read back %q, %v", got, err)
	}

	old := time.Now().Add(-time.Hour).Truncate(time.Second)
	if err := os.Chtimes(path, old, old); err != nil {
		t.Fatal(err)
	}
	if err := Write(path, src); err != nil {
		t.Fatal(err)
	}
	if fi, err := os.Stat(path); err != nil || !fi.ModTime().Equal(old) {
		t.Errorf("identical content rewrote the file")
	}

	if err := Write(path, []byte("package ffi\n\nconst N = 1\n")); err != nil {
		t.Fatal(err)
	}
	if fi, _ := os.Stat(path); fi.ModTime().Equal(old) {
		t.Errorf("changed content was not written")
	}
}

func TestWriteError(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "plain")
	if err := os.WriteFile(file, nil, 0644); err != nil {
		t.Fatal(err)
	}
	path := filepath.Join(file, "ipamir.go")
	err := Write(path, []byte("package ffi\n"))
	var we *WriteError
	if !errors.As(err, &we) || we.Path != path {
		t.Fatalf("error = %v, want *WriteError for %s", err, path)
	}
}

// TestGenerateWithCompiler runs the whole chain against the system C
// preprocessor.
func TestGenerateWithCompiler(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping in short mode")
	}
	if _, err := exec.LookPath("cc"); err != nil {
		t.Skip("cc not found")
	}
	dir := t.TempDir()
	header := filepath.Join(dir, "wrapper.h")
	src := `#include <stdint.h>
#include <stdio.h>
#define NAME "uwrmaxsat"
typedef struct lits { int32_t *data; size_t len; } lits;
int solve(void *handle);
int add_all(void *handle, const lits *l);
int dump(void *handle, FILE *out);
`
	if err := os.WriteFile(header, []byte(src), 0644); err != nil {
		t.Fatal(err)
	}
	s, err := Parse(context.Background(), runner.NewExec(), "cc", header, nil)
	if err != nil {
		t.Fatal(err)
	}
	bindings, file, err := Generate(s, Options{Package: "ffi", Header: header})
	if err != nil {
		t.Fatal(err)
	}
	if len(bindings) != len(s.Decls) {
		t.Errorf("%d bindings for %d declarations", len(bindings), len(s.Decls))
	}
	for _, want := range []string{
		"const NAME = \"uwrmaxsat\"",
		"type StructLits struct {",
		"type Lits = StructLits",
		"func Solve(handle unsafe.Pointer) int32 {",
		"func Add_all(handle unsafe.Pointer, l *Lits) int32 {",
		"C.dump(handle, (*C.FILE)(out))",
	} {
		if !strings.Contains(string(file), want) {
			t.Errorf("file lacks %q", want)
		}
	}
}
