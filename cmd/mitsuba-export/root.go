// Copyright (c) 2024, Cogent Core. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package main

import (
	"fmt"

	"github.com/mitsuba-renderer/mitsuba-blender-sub001/config"
	"github.com/mitsuba-renderer/mitsuba-blender-sub001/logx"
	"github.com/spf13/cobra"
)

// Flags are the command line flags shared by all commands.
type Flags struct {

	// Config is an optional TOML file with export options.
	Config string

	// Verbose shows info messages, VeryVerbose debug messages,
	// and Quiet only errors.
	Verbose     bool
	VeryVerbose bool
	Quiet       bool
}

// Options returns the export options from the config file, or the defaults.
func (f *Flags) Options() (config.Options, error) {
	if f.Config == "" {
		return config.Defaults(), nil
	}
	return config.Open(f.Config)
}

// NewRoot returns the root command.
func NewRoot() *cobra.Command {
	f := &Flags{}
	root := &cobra.Command{
		Use:          "mitsuba-export",
		Short:        "Export scene descriptions to renderer XML",
		SilenceUsage: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			logx.SetDefault(logx.LevelFromFlags(f.VeryVerbose, f.Verbose, f.Quiet))
		},
	}
	pf := root.PersistentFlags()
	pf.StringVarP(&f.Config, "config", "c", "", "TOML file with export options")
	pf.BoolVarP(&f.Verbose, "verbose", "v", false, "show info messages")
	pf.BoolVar(&f.VeryVerbose, "vv", false, "show debug messages")
	pf.BoolVarP(&f.Quiet, "quiet", "q", false, "only show errors")

	root.AddCommand(newExportCmd(f), newConfigCmd(f))
	return root
}

func newConfigCmd(f *Flags) *cobra.Command {
	return &cobra.Command{
		Use:   "config",
		Short: "Print the export options as TOML",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			opts, err := f.Options()
			if err != nil {
				return err
			}
			b, err := opts.Marshal()
			if err != nil {
				return err
			}
			_, err = fmt.Fprint(cmd.OutOrStdout(), string(b))
			return err
		},
	}
}
