// Copyright 2024 The maxsat Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package maxsat hosts the UWrMaxSat MaxSAT solver build. Run go generate
// to build the solver libraries and regenerate the ffi bindings.
package maxsat

//go:generate go run ./cmd/maxsatgen prepare
