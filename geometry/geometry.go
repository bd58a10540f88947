// Copyright (c) 2024, Cogent Core. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package geometry exports mesh objects: one PLY file per mesh and
// material slot, and one shape per object and slot referencing it.
package geometry

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"slices"

	"github.com/mitsuba-renderer/mitsuba-blender-sub001/assets"
	"github.com/mitsuba-renderer/mitsuba-blender-sub001/host"
	"github.com/mitsuba-renderer/mitsuba-blender-sub001/materials"
	"github.com/mitsuba-renderer/mitsuba-blender-sub001/math32"
	"github.com/mitsuba-renderer/mitsuba-blender-sub001/plugin"
	"github.com/mitsuba-renderer/mitsuba-blender-sub001/scene"
)

// NoSlot is the slot of objects without any material.
const NoSlot = -1

// Exporter exports mesh objects into a scene. It is created
// for one export.
type Exporter struct {
	Scene     *scene.Scene
	Assets    *assets.Cache
	Materials *materials.Exporter

	// Axis is the coordinate conversion applied to world matrices;
	// the zero matrix means identity.
	Axis math32.Matrix4

	Log *slog.Logger

	// meshes records the slots of each mesh already written to disk,
	// with [NoSlot] for the file holding every face.
	meshes map[string][]int
}

// NewExporter returns a new exporter.
func NewExporter(sc *scene.Scene, a *assets.Cache, mats *materials.Exporter, axis math32.Matrix4, log *slog.Logger) *Exporter {
	if log == nil {
		log = slog.Default()
	}
	return &Exporter{Scene: sc, Assets: a, Materials: mats, Axis: axis, Log: log, meshes: map[string][]int{}}
}

// Exported returns the slots of the given mesh written so far.
// [NoSlot] stands for the file holding every face.
func (e *Exporter) Exported(mesh string) []int {
	return e.meshes[mesh]
}

// slots returns the material slots of inst that hold a material,
// or [NoSlot] if there are none.
func slots(inst *host.Instance) []int {
	var res []int
	for i, m := range inst.Materials {
		if m != nil {
			res = append(res, i)
		}
	}
	if len(res) == 0 {
		return []int{NoSlot}
	}
	return res
}

// toWorld returns the world matrix of the shape. Instance copies share
// the mesh of their original, so its world matrix is undone.
func (e *Exporter) toWorld(inst *host.Instance) math32.Matrix4 {
	axis := e.Axis
	if axis.IsZero() {
		axis = math32.Identity4()
	}
	m := inst.World
	if inst.IsInstance && !inst.Basis.IsZero() {
		inv, err := inst.Basis.Inverse()
		if err != nil {
			e.Log.Warn("cannot invert instance basis, using world matrix", "object", inst.Name, "error", err)
		} else {
			m = m.Mul(inv)
		}
	}
	return axis.Mul(m)
}

// Export adds the shapes of the given object to the scene, writing
// its mesh files and materials as needed.
func (e *Exporter) Export(ctx context.Context, inst *host.Instance) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if inst.IsInstancer && !inst.ShowInstancer {
		e.Log.Debug("skipping instancer", "object", inst.Name)
		return nil
	}
	if inst.Mesh == nil {
		return fmt.Errorf("geometry: object %q has no mesh", inst.Name)
	}
	sl := slots(inst)
	for _, slot := range sl {
		// A single slot writes all faces under the plain mesh name, so
		// the written slot, not the material slot, names the file.
		write := slot
		if len(sl) == 1 {
			write = NoSlot
		}
		suffix := ""
		if write != NoSlot {
			suffix = fmt.Sprintf("-%d", write)
		}
		mesh := inst.Mesh
		if mesh.NumTriangles(write) == 0 {
			e.Log.Warn("skipping empty mesh", "object", inst.Name, "mesh", mesh.Name(), "slot", slot)
			continue
		}
		rel := "meshes/" + mesh.Name() + suffix + ".ply"
		if !slices.Contains(e.meshes[mesh.Name()], write) {
			if mesh.UVLayers() > 1 {
				e.Log.Warn("mesh has multiple uv layers, using the active one", "mesh", mesh.Name())
			}
			if err := mesh.WritePLY(filepath.Join(e.Assets.Dir(), filepath.FromSlash(rel)), write); err != nil {
				return fmt.Errorf("geometry: writing mesh %q: %w", mesh.Name(), err)
			}
			e.meshes[mesh.Name()] = append(e.meshes[mesh.Name()], write)
		}

		shape := plugin.New("ply").Set("filename", rel).Set("to_world", e.toWorld(inst))
		if slot == NoSlot {
			shape.Set("bsdf", materials.Default())
		} else {
			id, err := e.Materials.Export(inst.Materials[slot])
			if err != nil {
				return err
			}
			if entry, ok := e.Materials.Cache.Get(id); ok {
				shape.Set("bsdf", plugin.NewRef(entry.BSDF))
				shape.Set("emitter", entry.Emitter.Clone())
			} else {
				shape.Set("bsdf", plugin.NewRef(id))
			}
		}
		if _, err := e.Scene.Add(shape, e.Scene.UniqueName(inst.Name+suffix)); err != nil {
			return fmt.Errorf("geometry: object %q: %w", inst.Name, err)
		}
	}
	return nil
}
