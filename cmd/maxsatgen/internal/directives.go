// Copyright 2024 The maxsat Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package internal

import (
	"github.com/spf13/cobra"
)

var directivesCmd = &cobra.Command{
	Use:   "directives",
	Short: "Print the link directives",
	Long:  `Directives prints the library search paths and link kinds of the solver archives in link order.`,
	Args:  noArgs,
	RunE:  runDirectives,
}

func init() {
	rootCmd.AddCommand(directivesCmd)
}

func runDirectives(cmd *cobra.Command, args []string) error {
	p, err := newPipeline(cmd)
	if err != nil {
		return err
	}
	_, err = p.Directives(p.Dependencies())
	return err
}
