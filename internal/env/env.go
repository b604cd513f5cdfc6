// Copyright 2024 The maxsat Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package env resolves the settings maxsatgen takes from its process
// environment.
package env

import (
	"fmt"
	"os"
	"runtime"
	"strconv"
)

// Prefix starts every maxsatgen specific variable.
const Prefix = "MAXSAT_"

// Lookup returns the value of MAXSAT_<name>, if set and not empty.
func Lookup(name string) (string, bool) {
	v, ok := os.LookupEnv(Prefix + name)
	return v, ok && v != ""
}

// CC returns the C compiler command: MAXSAT_CC, then CC, then cc.
func CC() string {
	if v, ok := Lookup("CC"); ok {
		return v
	}
	if v := os.Getenv("CC"); v != "" {
		return v
	}
	return "cc"
}

// OutDir returns the output directory set by an enclosing build system.
func OutDir() string {
	return os.Getenv("OUT_DIR")
}

// Target returns the platform the bindings are generated for. GOOS and
// GOARCH override the host.
func Target() (goos, goarch string) {
	goos, goarch = os.Getenv("GOOS"), os.Getenv("GOARCH")
	if goos == "" {
		goos = runtime.GOOS
	}
	if goarch == "" {
		goarch = runtime.GOARCH
	}
	return
}

// Int returns MAXSAT_<name> parsed as a decimal integer.
func Int(name string) (int, bool, error) {
	v, ok := Lookup(name)
	if !ok {
		return 0, false, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, false, fmt.Errorf("%s%s: %q is not an integer", Prefix, name, v)
	}
	return n, true, nil
}

// Bool returns MAXSAT_<name> parsed as a boolean.
func Bool(name string) (bool, bool, error) {
	v, ok := Lookup(name)
	if !ok {
		return false, false, nil
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return false, false, fmt.Errorf("%s%s: %q is not a boolean", Prefix, name, v)
	}
	return b, true, nil
}
