// Copyright 2024 The maxsat Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package deps

import (
	"path/filepath"

	"github.com/goplus/maxsat/pkgs/buildsys"
)

const (
	CadicalName   = "cadical"
	UWrMaxSatName = "UWrMaxSat"
)

// Cadical describes the CaDiCaL SAT solver checked out at root. It is built
// as a minimal production library: no API contracts, no tracing.
func Cadical(root string) Dependency {
	return Dependency{
		Name:   CadicalName,
		Root:   root,
		System: Autotools,
		Config: buildsys.Config{
			DisableContracts: true,
			DisableTracing:   true,
			Target:           "cadical",
		},
		Artifact: Artifact{Dir: "build", Name: "cadical", Kind: Static},
	}
}

// UWrMaxSat describes the UWrMaxSat MaxSAT solver checked out at root. Its
// Makefile expects CaDiCaL to be built already.
func UWrMaxSat(root string) Dependency {
	return Dependency{
		Name:      UWrMaxSatName,
		Root:      root,
		DependsOn: []string{CadicalName},
		System:    GNUMake,
		Config: buildsys.Config{
			DisableMaxPre:     true,
			DisableSCIP:       true,
			NoStaticLinkFlags: true,
			Variant:           buildsys.Release,
		},
		Artifact: Artifact{Dir: filepath.Join("build", "release", "lib"), Name: "uwrmaxsat", Kind: Static},
	}
}

// Solvers returns the fixed dependency pair with source trees under baseDir.
func Solvers(baseDir string) []Dependency {
	return []Dependency{
		Cadical(filepath.Join(baseDir, CadicalName)),
		UWrMaxSat(filepath.Join(baseDir, UWrMaxSatName)),
	}
}

// SystemLibs are the shared libraries the static solver archives need at
// link time. They are expected to be installed on the host.
var SystemLibs = []string{"gmp", "z", "stdc++", "m", "pthread"}

// Tune returns a copy of ds set up for jobs parallel make jobs and the
// given variant. The UWrMaxSat archive moves with the variant.
func Tune(ds []Dependency, jobs int, v buildsys.Variant) []Dependency {
	out := make([]Dependency, len(ds))
	for i, d := range ds {
		d.Config.Jobs = jobs
		d.Config.Variant = v
		if d.Name == UWrMaxSatName {
			d.Artifact.Dir = filepath.Join("build", v.String(), "lib")
		}
		out[i] = d
	}
	return out
}
