// Copyright 2024 The maxsat Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Command maxsatgen builds the native MaxSAT solver libraries and generates
// the cgo bindings that link against them.
package main

import (
	"os"

	"github.com/goplus/maxsat/cmd/maxsatgen/internal"
)

func main() {
	os.Exit(internal.Execute())
}
