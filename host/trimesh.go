// Copyright (c) 2024, Cogent Core. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package host

import (
	"fmt"

	"github.com/mitsuba-renderer/mitsuba-blender-sub001/math32"
	"github.com/mitsuba-renderer/mitsuba-blender-sub001/ply"
)

// TriMesh is a [Mesh] held in memory as indexed triangles.
type TriMesh struct {
	MeshName string

	Vertices []math32.Vector3

	// Normals are per-vertex normals, empty if absent.
	Normals []math32.Vector3

	// UVs are per-vertex texture coordinates of the active layer,
	// empty if absent.
	UVs [][2]float32

	// UVLayerCount is the number of texture coordinate layers.
	UVLayerCount int

	Faces [][3]int

	// MaterialIndex is the material slot of each face; missing
	// entries use slot 0.
	MaterialIndex []int
}

var _ Mesh = (*TriMesh)(nil)

func (tm *TriMesh) Name() string { return tm.MeshName }

func (tm *TriMesh) UVLayers() int { return tm.UVLayerCount }

// slot returns the material slot of face i.
func (tm *TriMesh) slot(i int) int {
	if i < len(tm.MaterialIndex) {
		return tm.MaterialIndex[i]
	}
	return 0
}

func (tm *TriMesh) NumTriangles(slot int) int {
	if slot < 0 {
		return len(tm.Faces)
	}
	n := 0
	for i := range tm.Faces {
		if tm.slot(i) == slot {
			n++
		}
	}
	return n
}

// WritePLY writes the faces of the given slot, with only
// the vertices they use.
func (tm *TriMesh) WritePLY(filename string, slot int) error {
	m := &ply.Mesh{
		HasNormals: len(tm.Normals) == len(tm.Vertices),
		HasUVs:     len(tm.UVs) == len(tm.Vertices),
	}
	remap := make(map[int]uint32)
	for i, f := range tm.Faces {
		if slot >= 0 && tm.slot(i) != slot {
			continue
		}
		var face [3]uint32
		for k, vi := range f {
			if vi < 0 || vi >= len(tm.Vertices) {
				return fmt.Errorf("host.TriMesh.WritePLY: %s: face %d uses vertex %d of %d", tm.MeshName, i, vi, len(tm.Vertices))
			}
			ni, ok := remap[vi]
			if !ok {
				ni = uint32(len(m.Vertices))
				remap[vi] = ni
				v := ply.Vertex{Pos: tm.Vertices[vi]}
				if m.HasNormals {
					v.Normal = tm.Normals[vi]
				}
				if m.HasUVs {
					v.UV = tm.UVs[vi]
				}
				m.Vertices = append(m.Vertices, v)
			}
			face[k] = ni
		}
		m.Faces = append(m.Faces, face)
	}
	return ply.Save(filename, m)
}
