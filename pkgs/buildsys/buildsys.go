// Copyright 2024 The maxsat Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package buildsys describes how a native dependency is configured and
// compiled, independent of the concrete tool that does it.
package buildsys

import "context"

// BuildSystem captures the lifecycle shared by build helpers (configure
// script + make, plain make, ...). Every method blocks until the external
// tool exits.
type BuildSystem interface {
	// Env sets an environment variable for every step run afterwards.
	Env(key, val string)

	// Configure prepares the source tree. Build systems that fold
	// configuration into the build invocation do nothing here.
	Configure(ctx context.Context) error

	// Build compiles the configured target.
	Build(ctx context.Context) error
}

// Variant selects the build flavour of a dependency.
type Variant int

const (
	Release Variant = iota
	Debug
)

func (v Variant) String() string {
	switch v {
	case Release:
		return "release"
	case Debug:
		return "debug"
	}
	return "unknown"
}

// Config enumerates the options a dependency build recognises. Each build
// system translates the fields it understands into its own flag syntax and
// ignores the rest.
type Config struct {
	DisableContracts  bool // no runtime API contract checks
	DisableTracing    bool // no API call tracing instrumentation
	DisableMaxPre     bool // build without the MaxPre preprocessor
	DisableSCIP       bool // build without the SCIP solver backend
	NoStaticLinkFlags bool // clear the static-linking linker flags

	Variant Variant
	Target  string // make target, overrides the variant's default target
	Jobs    int    // parallel make jobs, 0 leaves the tool default
}
