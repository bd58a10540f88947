// Copyright (c) 2024, Cogent Core. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package export runs an export session: it walks a host scene,
// builds the plugin scene from its render settings, camera, lights,
// world and objects, and writes it out as renderer XML.
package export

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"github.com/mitsuba-renderer/mitsuba-blender-sub001/assets"
	"github.com/mitsuba-renderer/mitsuba-blender-sub001/base/errors"
	"github.com/mitsuba-renderer/mitsuba-blender-sub001/config"
	"github.com/mitsuba-renderer/mitsuba-blender-sub001/geometry"
	"github.com/mitsuba-renderer/mitsuba-blender-sub001/host"
	"github.com/mitsuba-renderer/mitsuba-blender-sub001/materials"
	"github.com/mitsuba-renderer/mitsuba-blender-sub001/math32"
	"github.com/mitsuba-renderer/mitsuba-blender-sub001/plugin"
	"github.com/mitsuba-renderer/mitsuba-blender-sub001/preprocess"
	"github.com/mitsuba-renderer/mitsuba-blender-sub001/scene"
	"github.com/mitsuba-renderer/mitsuba-blender-sub001/shader"
	"github.com/mitsuba-renderer/mitsuba-blender-sub001/spectrum"
	"github.com/mitsuba-renderer/mitsuba-blender-sub001/writer"
)

// Exporter is an export session. The scene, the asset cache and the
// material and mesh records are created fresh by every [Exporter.Export].
type Exporter struct {
	Options config.Options

	// Session identifies the current export in log messages.
	Session string

	Log        *slog.Logger
	Scene      *scene.Scene
	Assets     *assets.Cache
	Translator *shader.Translator
	Materials  *materials.Exporter
	Geometry   *geometry.Exporter

	axis math32.Matrix4
}

// New returns a new exporter with the given options.
func New(opts config.Options) *Exporter {
	return &Exporter{Options: opts}
}

// reset starts a new session writing to the given directory.
func (ex *Exporter) reset(dir string) error {
	if err := ex.Options.Validate(); err != nil {
		return err
	}
	axis, err := ex.Options.Axis()
	if err != nil {
		return err
	}
	ex.axis = axis
	ex.Session = uuid.NewString()
	ex.Log = slog.Default().With("session", ex.Session)
	ex.Scene = scene.New()
	ex.Assets = assets.New(dir, ex.Log)
	ex.Translator = &shader.Translator{
		Spectrum: &spectrum.Encoder{Mode: ex.Options.ColorMode, Assets: ex.Assets, Log: ex.Log},
		Assets:   ex.Assets,
		Axis:     axis,
		Log:      ex.Log,
	}
	ex.Materials = materials.NewExporter(ex.Scene, ex.Translator, ex.Log)
	ex.Geometry = geometry.NewExporter(ex.Scene, ex.Assets, ex.Materials, axis, ex.Log)
	return nil
}

// Export writes the given host scene to filename, with its assets
// next to it. The context is checked between objects.
func (ex *Exporter) Export(ctx context.Context, hs *host.Scene, filename string) error {
	abs, err := filepath.Abs(filename)
	if err != nil {
		return err
	}
	if err := ex.reset(filepath.Dir(abs)); err != nil {
		return err
	}
	ex.Log.Info("exporting scene", "scene", hs.Name, "file", abs)

	if err := ex.integrator(&hs.Render); err != nil {
		return err
	}
	if hs.Camera != nil {
		if err := ex.camera(hs.Camera, &hs.Render); err != nil {
			return fmt.Errorf("camera %q: %w", hs.Camera.Name, err)
		}
	} else {
		ex.Log.Warn("scene has no camera")
	}
	for _, l := range hs.Lights {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := ex.light(l); err != nil {
			return fmt.Errorf("light %q: %w", l.Name, err)
		}
	}
	if err := ex.world(hs.World); err != nil {
		return err
	}
	for _, inst := range hs.Instances {
		if err := ex.Geometry.Export(ctx, inst); err != nil {
			return fmt.Errorf("object %q: %w", inst.Name, err)
		}
	}

	name := strings.TrimSuffix(filepath.Base(abs), filepath.Ext(abs))
	res, err := preprocess.Process(ex.Scene, preprocess.Options{Split: ex.Options.SplitFiles, Name: name})
	if err != nil {
		return err
	}
	w := writer.New(ex.Assets, writer.Options{
		ExportIDs:    ex.Options.ExportIDs,
		SceneVersion: ex.Options.SceneVersion,
		SensorScale:  ex.Options.ExportSensorScale,
		IndentWidth:  ex.Options.IndentWidth,
	})
	w.Log = ex.Log
	if err := w.SetFilename(abs, ex.Options.SplitFiles); err != nil {
		return err
	}
	if err := w.Configure(res); err != nil {
		return err
	}
	ex.Log.Info("exported scene", "plugins", ex.Scene.Len(), "copies", ex.Assets.Copies())
	return nil
}

// add adds d to the scene under the given name, made unique with a
// counter when another entry holds it. An empty name gets a generated key.
func (ex *Exporter) add(d *plugin.Dict, name string) error {
	if name != "" {
		name = ex.Scene.UniqueName(name)
	}
	_, err := ex.Scene.Add(d, name)
	return err
}

// world adds the background emitter. Backgrounds that cannot be
// translated are left out with a warning.
func (ex *Exporter) world(w *host.World) error {
	d, err := ex.Translator.World(w, ex.Options.IgnoreBackground)
	if errors.Is(err, shader.ErrNotImplemented) {
		ex.Log.Warn("cannot export world", "error", err)
		return nil
	}
	if err != nil {
		return fmt.Errorf("world: %w", err)
	}
	if d == nil {
		return nil
	}
	name := "World"
	if w.Name != "" {
		name = w.Name
	}
	return ex.add(d, name)
}
