// Copyright 2024 The maxsat Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package config

import (
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"testing"
)

// clearEnv unsets every variable Load consults.
func clearEnv(t *testing.T) {
	t.Helper()
	for _, name := range []string{
		"MAXSAT_ROOT", "MAXSAT_HEADER", "MAXSAT_PACKAGE", "MAXSAT_DEPFILE",
		"MAXSAT_CC", "MAXSAT_JOBS", "MAXSAT_DEBUG", "CC", "OUT_DIR",
	} {
		t.Setenv(name, "")
	}
}

func TestLoadDefaults(t *testing.T) {
	clearEnv(t)
	chdir(t, t.TempDir())

	c, err := Load("")
	if err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(c, Default()) {
		t.Errorf("Load() = %+v, want defaults", c)
	}
	if err := c.Validate(); err != nil {
		t.Errorf("Validate: %v", err)
	}
	if got := c.OutFile(); got != filepath.Join("ffi", "ipamir.go") {
		t.Errorf("OutFile() = %s", got)
	}
}

func TestLoadFile(t *testing.T) {
	clearEnv(t)
	dir := t.TempDir()
	path := filepath.Join(dir, "maxsatgen.yaml")
	data := `root: third_party
header: include/wrapper.h
includes: [include, /opt/gmp/include]
package: ipamir
jobs: 4
debug: true
`
	if err := os.WriteFile(path, []byte(data), 0644); err != nil {
		t.Fatal(err)
	}
	c, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if c.Root != filepath.Join(dir, "third_party") {
		t.Errorf("Root = %s", c.Root)
	}
	if c.HeaderPath() != filepath.Join(dir, "third_party", "include", "wrapper.h") {
		t.Errorf("HeaderPath() = %s", c.HeaderPath())
	}
	if c.Package != "ipamir" || c.Jobs != 4 || !c.Debug || len(c.Includes) != 2 {
		t.Errorf("Load() = %+v", c)
	}
	if c.Path("/opt/gmp/include") != "/opt/gmp/include" {
		t.Error("absolute paths must be kept")
	}
	if c.Out != "ffi" || c.File != "ipamir.go" {
		t.Errorf("unset keys lost their defaults: %+v", c)
	}
}

func TestLoadEnv(t *testing.T) {
	clearEnv(t)
	chdir(t, t.TempDir())
	if err := os.WriteFile(FileName, []byte("jobs: 2\ncc: clang\n"), 0644); err != nil {
		t.Fatal(err)
	}
	t.Setenv("MAXSAT_JOBS", "8")
	t.Setenv("CC", "gcc")
	t.Setenv("OUT_DIR", "/tmp/out")
	t.Setenv("MAXSAT_PACKAGE", "solver")

	c, err := Load("")
	if err != nil {
		t.Fatal(err)
	}
	if c.Jobs != 8 || c.CC != "gcc" || c.Out != "/tmp/out" || c.Package != "solver" {
		t.Errorf("Load() = %+v", c)
	}
	if c.OutFile() != "/tmp/out/ipamir.go" {
		t.Errorf("OutFile() = %s", c.OutFile())
	}

	t.Setenv("MAXSAT_CC", "gcc -m32")
	if c, _ := Load(""); c.CC != "gcc -m32" {
		t.Errorf("CC = %q, want MAXSAT_CC", c.CC)
	}
}

func TestLoadErrors(t *testing.T) {
	clearEnv(t)
	dir := t.TempDir()

	_, err := Load(filepath.Join(dir, "missing.yaml"))
	var ce *Error
	if !errors.As(err, &ce) {
		t.Errorf("missing explicit file: error = %v, want *Error", err)
	}

	bad := filepath.Join(dir, "bad.yaml")
	if err := os.WriteFile(bad, []byte("jobs: [1"), 0644); err != nil {
		t.Fatal(err)
	}
	if _, err := Load(bad); !errors.As(err, &ce) || ce.Source != bad {
		t.Errorf("bad YAML: error = %v", err)
	}

	chdir(t, dir)
	t.Setenv("MAXSAT_JOBS", "lots")
	if _, err := Load(""); !errors.As(err, &ce) || ce.Source != "MAXSAT_JOBS" {
		t.Errorf("bad MAXSAT_JOBS: error = %v", err)
	}
}

func TestValidate(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "plain")
	if err := os.WriteFile(file, nil, 0644); err != nil {
		t.Fatal(err)
	}
	tests := []struct {
		name   string
		modify func(*Config)
		source string
	}{
		{"ok", func(*Config) {}, ""},
		{"no header", func(c *Config) { c.Header = "" }, "header"},
		{"no out", func(c *Config) { c.Out = "" }, "out"},
		{"file with dir", func(c *Config) { c.File = "x/y.go" }, "file"},
		{"file not go", func(c *Config) { c.File = "y.c" }, "file"},
		{"keyword package", func(c *Config) { c.Package = "type" }, "package"},
		{"bad package", func(c *Config) { c.Package = "my-ffi" }, "package"},
		{"no cc", func(c *Config) { c.CC = "" }, "cc"},
		{"negative jobs", func(c *Config) { c.Jobs = -1 }, "jobs"},
		{"missing root", func(c *Config) { c.Root = filepath.Join(dir, "none") }, "root"},
		{"root is file", func(c *Config) { c.Root = file }, "root"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := Default()
			c.Root = dir
			tt.modify(c)
			err := c.Validate()
			if tt.source == "" {
				if err != nil {
					t.Errorf("Validate() = %v", err)
				}
				return
			}
			var ce *Error
			if !errors.As(err, &ce) || ce.Source != tt.source {
				t.Errorf("Validate() = %v, want error for %s", err, tt.source)
			}
		})
	}
}
