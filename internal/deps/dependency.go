// Copyright 2024 The maxsat Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package deps models the native dependencies, the order they must be built
// in and the builder that drives their build systems.
package deps

import (
	"path/filepath"

	"github.com/goplus/maxsat/pkgs/buildsys"
)

// LinkKind says how the consuming program links an artifact.
type LinkKind int

const (
	Static LinkKind = iota
	Dynamic
)

func (k LinkKind) String() string {
	if k == Dynamic {
		return "dylib"
	}
	return "static"
}

// System names the build system that drives a dependency.
type System int

const (
	Autotools System = iota // ./configure followed by make <target>
	GNUMake                 // make with configuration passed as variables
)

// Artifact is the library a dependency build leaves on disk.
type Artifact struct {
	Dir  string // directory holding the library, relative to the dependency root
	Name string // library name without the lib prefix and file extension
	Kind LinkKind
}

// Dependency is one externally sourced native library.
type Dependency struct {
	Name      string
	Root      string   // source tree, also the working directory of every step
	DependsOn []string // names of dependencies whose artifacts must exist first
	System    System
	Config    buildsys.Config
	Env       map[string]string
	Artifact  Artifact
}

// ArtifactDir returns the directory the linker must search for the artifact.
func (d *Dependency) ArtifactDir() string {
	return filepath.Join(d.Root, d.Artifact.Dir)
}
