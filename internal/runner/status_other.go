// Copyright 2024 The maxsat Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

//go:build !(linux || darwin || freebsd || netbsd || openbsd)

package runner

import "os"

func signalOf(ps *os.ProcessState) (string, bool) {
	return "", false
}
