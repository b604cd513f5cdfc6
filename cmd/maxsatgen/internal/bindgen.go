// Copyright 2024 The maxsat Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package internal

import (
	"fmt"

	"github.com/spf13/cobra"
)

var bindgenList bool

var bindgenCmd = &cobra.Command{
	Use:   "bindgen",
	Short: "Generate the bindings only",
	Long:  `Bindgen parses the header and writes the cgo bindings without building the solvers.`,
	Args:  noArgs,
	RunE:  runBindgen,
}

func init() {
	bindgenCmd.Flags().BoolVarP(&bindgenList, "list", "l", false, "print the Go name of every binding")
	rootCmd.AddCommand(bindgenCmd)
}

func runBindgen(cmd *cobra.Command, args []string) error {
	p, err := newPipeline(cmd)
	if err != nil {
		return err
	}
	res, err := p.Bindings(cmd.Context())
	if err != nil {
		return err
	}
	if bindgenList {
		for _, b := range res.Bindings {
			fmt.Fprintf(cmd.OutOrStdout(), "%s\t%s %s\n", b.GoName, b.Decl.Kind, b.Decl.Name)
		}
	}
	return nil
}
