// Copyright (c) 2024, Cogent Core. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package materials exports host materials into the scene, keeping
// track of the ones that emit light so that shapes using them can
// carry both a bsdf reference and an area emitter.
package materials

import (
	"fmt"
	"log/slog"

	"github.com/mitsuba-renderer/mitsuba-blender-sub001/base/errors"
	"github.com/mitsuba-renderer/mitsuba-blender-sub001/host"
	"github.com/mitsuba-renderer/mitsuba-blender-sub001/math32"
	"github.com/mitsuba-renderer/mitsuba-blender-sub001/plugin"
	"github.com/mitsuba-renderer/mitsuba-blender-sub001/scene"
	"github.com/mitsuba-renderer/mitsuba-blender-sub001/shader"
	"github.com/mitsuba-renderer/mitsuba-blender-sub001/spectrum"
)

// EmptyEmitterBSDF is the id of the black bsdf used by shapes whose
// material only emits.
const EmptyEmitterBSDF = "empty-emitter-bsdf"

// Entry is an emissive material: the id of its bsdf in the scene,
// and the emitter to put inside every shape that uses it.
type Entry struct {
	BSDF    string
	Emitter *plugin.Dict
}

// Cache holds the emissive materials by material id.
type Cache struct {
	entries map[string]Entry
}

// NewCache returns a new empty cache.
func NewCache() *Cache {
	return &Cache{entries: map[string]Entry{}}
}

// AddMaterial records the entry for the given material id.
func (c *Cache) AddMaterial(entry Entry, id string) {
	c.entries[id] = entry
}

// HasMat returns whether the given material id is emissive.
func (c *Cache) HasMat(id string) bool {
	_, ok := c.entries[id]
	return ok
}

// Get returns the entry for the given material id.
func (c *Cache) Get(id string) (Entry, bool) {
	e, ok := c.entries[id]
	return e, ok
}

// Exporter exports materials into a scene, each at most once.
type Exporter struct {
	Scene      *scene.Scene
	Cache      *Cache
	Translator *shader.Translator
	Log        *slog.Logger

	// ids maps exported material names to their scene ids.
	ids        map[string]string
	emptyAdded bool
}

// NewExporter returns a new exporter adding to the given scene.
func NewExporter(sc *scene.Scene, tr *shader.Translator, log *slog.Logger) *Exporter {
	if log == nil {
		log = slog.Default()
	}
	return &Exporter{Scene: sc, Cache: NewCache(), Translator: tr, Log: log, ids: map[string]string{}}
}

// Export adds the bsdf of the given material to the scene and returns
// its id, which is the material name unless another entry already
// uses it. Emissive materials are also recorded in the cache. Graphs
// that cannot be translated are replaced by a magenta diffuse.
func (e *Exporter) Export(mat *host.Material) (string, error) {
	if id, ok := e.ids[mat.Name]; ok {
		return id, nil
	}
	id := mat.Name
	for n := 1; e.Scene.Has(id) || id == EmptyEmitterBSDF; n++ {
		id = fmt.Sprintf("%s.%03d", mat.Name, n)
	}
	e.ids[mat.Name] = id

	var res shader.Result
	if mat.Nodes == nil {
		refl, err := e.Translator.Spectrum.Encode(mat.ViewportColor)
		if err != nil {
			return "", err
		}
		res.BSDF = plugin.New("twosided").Set("bsdf", plugin.New("diffuse").Set("reflectance", refl))
	} else {
		var err error
		res, err = e.Translator.Surface(mat.Nodes)
		if errors.Is(err, shader.ErrNotImplemented) {
			e.Log.Warn("cannot export material, using magenta fallback", "material", id, "error", err)
			res, err = shader.Result{BSDF: e.fallback()}, nil
		}
		if err != nil {
			return "", fmt.Errorf("material %q: %w", id, err)
		}
	}

	switch res.Kind() {
	case shader.BSDFOnly:
		if _, err := e.Scene.Add(res.BSDF, id); err != nil {
			return "", fmt.Errorf("material %q: %w", id, err)
		}
	case shader.Mixed:
		if _, err := e.Scene.Add(res.BSDF, id); err != nil {
			return "", fmt.Errorf("material %q: %w", id, err)
		}
		if err := e.addEmissive(Entry{BSDF: id, Emitter: res.Emitter}, id); err != nil {
			return "", err
		}
	case shader.EmitterOnly:
		if err := e.addEmissive(Entry{BSDF: EmptyEmitterBSDF, Emitter: res.Emitter}, id); err != nil {
			return "", err
		}
	}
	return id, nil
}

// addEmissive caches the entry, adding the black bsdf to the scene
// the first time.
func (e *Exporter) addEmissive(entry Entry, id string) error {
	if err := entry.Emitter.Validate(); err != nil {
		return fmt.Errorf("material %q: emitter: %w", id, err)
	}
	if !e.emptyAdded {
		empty := plugin.New("diffuse").Set("reflectance", spectrum.Uniform(0))
		if _, err := e.Scene.Add(empty, EmptyEmitterBSDF); err != nil {
			return err
		}
		e.emptyAdded = true
	}
	e.Cache.AddMaterial(entry, id)
	return nil
}

// fallback returns the magenta diffuse used for untranslatable materials.
func (e *Exporter) fallback() *plugin.Dict {
	refl, err := e.Translator.Spectrum.Encode(math32.Vec3(1, 0, 1))
	if err != nil {
		refl = plugin.NewRGB(math32.Vec3(1, 0, 1))
	}
	return plugin.New("diffuse").Set("reflectance", refl)
}

// Default returns the diffuse used for shapes without a material.
func Default() *plugin.Dict {
	return plugin.New("diffuse")
}
