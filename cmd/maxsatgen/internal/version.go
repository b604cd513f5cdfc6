// Copyright 2024 The maxsat Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package internal

import (
	"fmt"
	"runtime/debug"

	"github.com/spf13/cobra"
	"golang.org/x/mod/semver"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the maxsatgen version",
	Args:  noArgs,
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintln(cmd.OutOrStdout(), "maxsatgen", version())
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}

// version returns the module version maxsatgen was built from, or
// "(devel)" for a build from a work tree.
func version() string {
	info, ok := debug.ReadBuildInfo()
	if !ok {
		return "(devel)"
	}
	return moduleVersion(info.Main.Version)
}

func moduleVersion(v string) string {
	if !semver.IsValid(v) {
		return "(devel)"
	}
	return semver.Canonical(v) + semver.Build(v)
}
