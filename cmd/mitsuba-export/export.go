// Copyright (c) 2024, Cogent Core. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package main

import (
	"context"
	"log/slog"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/mitsuba-renderer/mitsuba-blender-sub001/base/errors"
	"github.com/mitsuba-renderer/mitsuba-blender-sub001/config"
	"github.com/mitsuba-renderer/mitsuba-blender-sub001/export"
	"github.com/mitsuba-renderer/mitsuba-blender-sub001/host"
	"github.com/spf13/cobra"
)

// ExportFlags are the flags of the export command.
type ExportFlags struct {

	// Output is the scene file to write; by default the input
	// file name with an xml extension.
	Output string

	// Split overrides the split_files option.
	Split bool

	// Watch exports again whenever the input file changes.
	Watch bool
}

func newExportCmd(f *Flags) *cobra.Command {
	ef := &ExportFlags{}
	cmd := &cobra.Command{
		Use:   "export <scene.yaml>",
		Short: "Export a scene description",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			opts, err := f.Options()
			if err != nil {
				return err
			}
			if ef.Split {
				opts.SplitFiles = true
			}
			out := ef.Output
			if out == "" {
				out = strings.TrimSuffix(args[0], filepath.Ext(args[0])) + ".xml"
			}
			if err := Export(cmd.Context(), args[0], out, opts); err != nil {
				return err
			}
			if !ef.Watch {
				return nil
			}
			return Watch(cmd.Context(), args[0], out, opts)
		},
	}
	cmd.Flags().StringVarP(&ef.Output, "output", "o", "", "scene file to write")
	cmd.Flags().BoolVar(&ef.Split, "split", false, "write fragment files for each section")
	cmd.Flags().BoolVarP(&ef.Watch, "watch", "w", false, "export again when the input changes")
	return cmd
}

// Export reads the scene description in input and writes it to output.
func Export(ctx context.Context, input, output string, opts config.Options) error {
	sc, err := host.Open(input)
	if err != nil {
		return err
	}
	return export.New(opts).Export(ctx, sc, output)
}

// watchLag is the time to wait for more changes before exporting.
const watchLag = 100 * time.Millisecond

// Watch exports input to output every time the input file is written,
// until the context is done. Export errors are logged.
func Watch(ctx context.Context, input, output string, opts config.Options) error {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer func() { errors.Log(w.Close()) }()
	abs, err := filepath.Abs(input)
	if err != nil {
		return err
	}
	// editors often replace the file, so watch its directory
	if err := w.Add(filepath.Dir(abs)); err != nil {
		return err
	}
	slog.Info("watching for changes", "file", abs)
	var timer <-chan time.Time
	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-w.Events:
			if !ok {
				return nil
			}
			if event.Name != abs || !event.Op.Has(fsnotify.Write) && !event.Op.Has(fsnotify.Create) {
				continue
			}
			timer = time.After(watchLag)
		case <-timer:
			timer = nil
			if errors.Log(Export(ctx, input, output, opts)) != nil {
				continue
			}
			slog.Info("exported", "file", output)
		case err, ok := <-w.Errors:
			if !ok {
				return nil
			}
			slog.Error("watcher", "error", err)
		}
	}
}
