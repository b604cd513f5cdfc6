// Copyright 2024 The maxsat Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package trigger declares the inputs whose change must rerun the
// build-prep step.
package trigger

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"slices"
	"strings"
)

// Paths returns paths cleaned, sorted and without duplicates.
func Paths(paths []string) []string {
	out := make([]string, 0, len(paths))
	for _, p := range paths {
		if p != "" {
			out = append(out, filepath.Clean(p))
		}
	}
	slices.Sort(out)
	return slices.Compact(out)
}

// Register writes one rerun-if-changed instruction per path.
func Register(w io.Writer, paths []string) error {
	for _, p := range Paths(paths) {
		if _, err := fmt.Fprintf(w, "rerun-if-changed=%s\n", p); err != nil {
			return err
		}
	}
	return nil
}

// WriteDepfile writes a Make rule stating that target depends on paths.
func WriteDepfile(path, target string, paths []string) error {
	var b strings.Builder
	b.WriteString(escape(target))
	b.WriteString(":")
	for _, p := range Paths(paths) {
		b.WriteString(" \\\n  ")
		b.WriteString(escape(p))
	}
	b.WriteString("\n")
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}
	return os.WriteFile(path, []byte(b.String()), 0644)
}

// escape quotes the characters Make treats specially in a rule.
func escape(p string) string {
	r := strings.NewReplacer(" ", `\ `, "#", `\#`, "$", "$$")
	return r.Replace(p)
}
