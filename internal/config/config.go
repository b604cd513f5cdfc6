// Copyright 2024 The maxsat Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package config loads the settings of a maxsatgen run.
//
// Values are layered, later layers winning: built-in defaults, the YAML
// file, the environment and finally command line flags, which the caller
// applies before calling Validate.
package config

import (
	"errors"
	"fmt"
	"go/token"
	"io/fs"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/goplus/maxsat/internal/env"
)

// FileName is the configuration file looked up in the working directory
// when no file is named explicitly.
const FileName = "maxsatgen.yaml"

// Config holds the settings of one run. Relative paths are relative to
// Root.
type Config struct {
	Root     string   `yaml:"root"`     // holds the solver source trees
	Header   string   `yaml:"header"`   // aggregating C header
	Includes []string `yaml:"includes"` // extra preprocessor search paths
	Out      string   `yaml:"out"`      // directory of the generated package
	Package  string   `yaml:"package"`  // package clause of the generated file
	File     string   `yaml:"file"`     // generated file name inside Out
	Depfile  string   `yaml:"depfile"`  // Make depfile, none if empty
	CC       string   `yaml:"cc"`       // C compiler command
	Jobs     int      `yaml:"jobs"`     // parallel make jobs
	Debug    bool     `yaml:"debug"`    // build debug variants of the solvers
}

// Error reports an unusable configuration.
type Error struct {
	Source string // file name, environment variable or setting
	Err    error
}

func (e *Error) Error() string {
	return fmt.Sprintf("config %s: %v", e.Source, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// Default returns the built-in settings.
func Default() *Config {
	return &Config{
		Root:    ".",
		Header:  "wrapper.h",
		Out:     "ffi",
		Package: "ffi",
		File:    "ipamir.go",
		CC:      "cc",
	}
}

// Load builds a Config from defaults, the file at path and the
// environment. An empty path reads FileName if it exists.
func Load(path string) (*Config, error) {
	c := Default()
	explicit := path != ""
	if !explicit {
		path = FileName
	}
	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, c); err != nil {
			return nil, &Error{Source: path, Err: err}
		}
		// Paths in the file are relative to the file.
		if dir := filepath.Dir(path); !filepath.IsAbs(c.Root) {
			c.Root = filepath.Join(dir, c.Root)
		}
	case explicit || !errors.Is(err, fs.ErrNotExist):
		return nil, &Error{Source: path, Err: err}
	}
	if err := c.applyEnv(); err != nil {
		return nil, err
	}
	return c, nil
}

func (c *Config) applyEnv() error {
	for name, dst := range map[string]*string{
		"ROOT":    &c.Root,
		"HEADER":  &c.Header,
		"PACKAGE": &c.Package,
		"DEPFILE": &c.Depfile,
	} {
		if v, ok := env.Lookup(name); ok {
			*dst = v
		}
	}
	if v := env.OutDir(); v != "" {
		c.Out = v
	}
	if _, ok := env.Lookup("CC"); ok || os.Getenv("CC") != "" {
		c.CC = env.CC()
	}
	if n, ok, err := env.Int("JOBS"); err != nil {
		return &Error{Source: env.Prefix + "JOBS", Err: err}
	} else if ok {
		c.Jobs = n
	}
	if b, ok, err := env.Bool("DEBUG"); err != nil {
		return &Error{Source: env.Prefix + "DEBUG", Err: err}
	} else if ok {
		c.Debug = b
	}
	return nil
}

// Path resolves p against Root.
func (c *Config) Path(p string) string {
	if filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(c.Root, p)
}

// HeaderPath is the absolute location of the aggregating header.
func (c *Config) HeaderPath() string {
	return c.Path(c.Header)
}

// OutFile is the location of the generated source file.
func (c *Config) OutFile() string {
	return filepath.Join(c.Path(c.Out), c.File)
}

// Validate reports the first setting that cannot work.
func (c *Config) Validate() error {
	switch {
	case c.Header == "":
		return &Error{Source: "header", Err: errors.New("must not be empty")}
	case c.Out == "":
		return &Error{Source: "out", Err: errors.New("must not be empty")}
	case c.File == "" || filepath.Base(c.File) != c.File || filepath.Ext(c.File) != ".go":
		return &Error{Source: "file", Err: fmt.Errorf("%q is not a Go file name", c.File)}
	case !token.IsIdentifier(c.Package) || c.Package == "_":
		return &Error{Source: "package", Err: fmt.Errorf("%q is not a valid package name", c.Package)}
	case c.CC == "":
		return &Error{Source: "cc", Err: errors.New("must not be empty")}
	case c.Jobs < 0:
		return &Error{Source: "jobs", Err: fmt.Errorf("%d is negative", c.Jobs)}
	}
	fi, err := os.Stat(c.Root)
	if err != nil {
		return &Error{Source: "root", Err: err}
	}
	if !fi.IsDir() {
		return &Error{Source: "root", Err: fmt.Errorf("%s is not a directory", c.Root)}
	}
	return nil
}
