// Copyright 2024 The maxsat Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package internal

import (
	"fmt"
	"os"

	"github.com/qiniu/x/log"
	"github.com/spf13/cobra"

	"github.com/goplus/maxsat/internal/config"
	"github.com/goplus/maxsat/internal/pipeline"
	"github.com/goplus/maxsat/internal/runner"
)

var (
	configFile string
	verbose    bool
	outDir     string
	headerFile string
)

var rootCmd = &cobra.Command{
	Use:   "maxsatgen",
	Short: "maxsatgen prepares the UWrMaxSat solver for use from Go",
	Long: `maxsatgen builds CaDiCaL and UWrMaxSat from their source trees, prints the
link directives for the resulting archives and generates cgo bindings for
the declarations of wrapper.h.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		if verbose {
			log.SetOutputLevel(log.Ldebug)
		} else {
			log.SetOutputLevel(log.Linfo)
		}
	},
}

func init() {
	flags := rootCmd.PersistentFlags()
	flags.StringVar(&configFile, "config", "", "configuration file (default "+config.FileName+" if present)")
	flags.BoolVarP(&verbose, "verbose", "v", false, "log every external step")
	flags.StringVar(&outDir, "out", "", "directory of the generated package")
	flags.StringVar(&headerFile, "header", "", "aggregating C header")
	rootCmd.SetFlagErrorFunc(func(cmd *cobra.Command, err error) error {
		return &usageError{err}
	})
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It returns the process exit code.
func Execute() int {
	err := rootCmd.Execute()
	if err == nil {
		return 0
	}
	fmt.Fprintln(os.Stderr, "maxsatgen:", err)
	return exitCode(err)
}

// noArgs rejects positional arguments as a usage error.
func noArgs(cmd *cobra.Command, args []string) error {
	if err := cobra.NoArgs(cmd, args); err != nil {
		return &usageError{err}
	}
	return nil
}

// loadConfig layers the command line flags over the configuration file
// and the environment.
func loadConfig() (*config.Config, error) {
	c, err := config.Load(configFile)
	if err != nil {
		return nil, err
	}
	if outDir != "" {
		c.Out = outDir
	}
	if headerFile != "" {
		c.Header = headerFile
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return c, nil
}

// newPipeline wires a pipeline to the real process runner. Child output
// goes to stderr; stdout carries instructions only.
func newPipeline(cmd *cobra.Command) (*pipeline.Pipeline, error) {
	c, err := loadConfig()
	if err != nil {
		return nil, err
	}
	r := runner.NewExec()
	r.Stdout = cmd.ErrOrStderr()
	r.Stderr = cmd.ErrOrStderr()
	return pipeline.New(c, r, cmd.OutOrStdout()), nil
}
