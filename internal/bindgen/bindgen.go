// Copyright 2024 The maxsat Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package bindgen turns the declarations of a C header into a cgo source
// file that mirrors them.
package bindgen

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/qiniu/x/log"

	"github.com/goplus/maxsat/internal/cheader"
	"github.com/goplus/maxsat/internal/runner"
)

// Error reports a header that could not be preprocessed, parsed or bound.
type Error struct {
	Header string
	Err    error
}

func (e *Error) Error() string {
	return fmt.Sprintf("generate bindings for %s: %v", e.Header, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// WriteError reports a generated file that could not be written.
type WriteError struct {
	Path string
	Err  error
}

func (e *WriteError) Error() string {
	return fmt.Sprintf("write bindings to %s: %v", e.Path, e.Err)
}

func (e *WriteError) Unwrap() error { return e.Err }

// Binding is the Go rendition of one header declaration.
type Binding struct {
	Decl   *cheader.Decl
	GoName string
	Source string // gofmt'ed Go declarations
}

// Options controls the generated file.
type Options struct {
	Package    string   // package clause
	Header     string   // path used in the #include line
	Source     string   // header name shown in the generated-code notice, defaults to the base of Header
	CFlags     []string // #cgo CFLAGS
	LDFlags    string   // #cgo LDFLAGS
	CharSigned bool     // plain char is signed on the target
}

// Preprocess runs the C compiler's preprocessor over header, keeping
// linemarkers and macro definitions. cc may carry extra arguments, as in
// "gcc -m32".
func Preprocess(ctx context.Context, r runner.Runner, cc, header string, includes []string) ([]byte, error) {
	words := strings.Fields(cc)
	if len(words) == 0 {
		words = []string{"cc"}
	}
	args := append(words[1:len(words):len(words)], "-E", "-dD", "-x", "c")
	for _, dir := range includes {
		args = append(args, "-I"+dir)
	}
	args = append(args, header)
	out, err := r.Output(ctx, runner.BuildStep{
		Program: words[0],
		Args:    args,
		Label:   "preprocess " + filepath.Base(header),
	})
	if err != nil {
		return nil, &Error{Header: header, Err: err}
	}
	return out, nil
}

// Parse preprocesses and parses header.
func Parse(ctx context.Context, r runner.Runner, cc, header string, includes []string) (*cheader.Surface, error) {
	src, err := Preprocess(ctx, r, cc, header, includes)
	if err != nil {
		return nil, err
	}
	s, err := cheader.Parse(src)
	if err != nil {
		return nil, &Error{Header: header, Err: err}
	}
	log.Debugf("parsed %s: %d declarations, %d macros skipped", header, len(s.Decls), len(s.Skipped))
	return s, nil
}

// Write stores src at path, creating the directory as needed. An
// identical existing file is left untouched.
func Write(path string, src []byte) error {
	if old, err := os.ReadFile(path); err == nil && bytes.Equal(old, src) {
		log.Debugf("%s is up to date", path)
		return nil
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return &WriteError{Path: path, Err: err}
	}
	if err := os.WriteFile(path, src, 0644); err != nil {
		return &WriteError{Path: path, Err: err}
	}
	return nil
}

// CharSigned reports whether plain char is signed for a Go target.
func CharSigned(goos, goarch string) bool {
	switch goarch {
	case "arm64":
		return goos == "darwin" || goos == "ios"
	case "arm", "ppc64", "ppc64le", "s390x", "riscv64":
		return false
	}
	return true
}
