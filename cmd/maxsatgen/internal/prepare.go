// Copyright 2024 The maxsat Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package internal

import (
	"github.com/spf13/cobra"
)

var prepareCmd = &cobra.Command{
	Use:   "prepare",
	Short: "Build the solvers and generate the bindings",
	Long: `Prepare registers the rebuild triggers, builds CaDiCaL and UWrMaxSat,
prints the link directives, writes the cgo bindings and records the run in
the output directory.`,
	Args: noArgs,
	RunE: runPrepare,
}

func init() {
	rootCmd.AddCommand(prepareCmd)
}

func runPrepare(cmd *cobra.Command, args []string) error {
	p, err := newPipeline(cmd)
	if err != nil {
		return err
	}
	_, err = p.Prepare(cmd.Context())
	return err
}
