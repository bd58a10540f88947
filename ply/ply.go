// Copyright (c) 2024, Cogent Core. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package ply reads and writes triangle meshes in the
// binary little-endian PLY format loaded by the renderer.
package ply

import (
	"bufio"
	"encoding/binary"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/mitsuba-renderer/mitsuba-blender-sub001/math32"
)

// Vertex is one mesh vertex.
type Vertex struct {
	Pos    math32.Vector3
	Normal math32.Vector3
	UV     [2]float32
}

// Mesh is an indexed triangle mesh.
type Mesh struct {
	Vertices []Vertex
	Faces    [][3]uint32

	// HasNormals is whether the vertex normals are written.
	HasNormals bool

	// HasUVs is whether the vertex texture coordinates are written.
	HasUVs bool
}

// Header returns the PLY header for the mesh.
func (m *Mesh) Header() string {
	var b strings.Builder
	b.WriteString("ply\nformat binary_little_endian 1.0\n")
	fmt.Fprintf(&b, "element vertex %d\n", len(m.Vertices))
	b.WriteString("property float x\nproperty float y\nproperty float z\n")
	if m.HasNormals {
		b.WriteString("property float nx\nproperty float ny\nproperty float nz\n")
	}
	if m.HasUVs {
		b.WriteString("property float u\nproperty float v\n")
	}
	fmt.Fprintf(&b, "element face %d\n", len(m.Faces))
	b.WriteString("property list uchar int vertex_indices\nend_header\n")
	return b.String()
}

// Write writes the mesh to the given writer.
func Write(w io.Writer, m *Mesh) error {
	bw := bufio.NewWriter(w)
	if _, err := bw.WriteString(m.Header()); err != nil {
		return err
	}
	vals := make([]float32, 0, 8)
	for _, v := range m.Vertices {
		vals = append(vals[:0], v.Pos.X, v.Pos.Y, v.Pos.Z)
		if m.HasNormals {
			vals = append(vals, v.Normal.X, v.Normal.Y, v.Normal.Z)
		}
		if m.HasUVs {
			vals = append(vals, v.UV[0], v.UV[1])
		}
		if err := binary.Write(bw, binary.LittleEndian, vals); err != nil {
			return err
		}
	}
	for _, f := range m.Faces {
		if err := bw.WriteByte(3); err != nil {
			return err
		}
		idx := [3]int32{int32(f[0]), int32(f[1]), int32(f[2])}
		if err := binary.Write(bw, binary.LittleEndian, idx); err != nil {
			return err
		}
	}
	return bw.Flush()
}

// Save writes the mesh to the given file, creating its directory.
func Save(filename string, m *Mesh) error {
	if err := os.MkdirAll(filepath.Dir(filename), 0o755); err != nil {
		return err
	}
	f, err := os.Create(filename)
	if err != nil {
		return err
	}
	if err := Write(f, m); err != nil {
		f.Close()
		return fmt.Errorf("ply.Save: %s: %w", filename, err)
	}
	return f.Close()
}

// Read reads a mesh written by [Write].
func Read(r io.Reader) (*Mesh, error) {
	br := bufio.NewReader(r)
	m := &Mesh{}
	nverts, nfaces := 0, 0
	for {
		line, err := br.ReadString('\n')
		if err != nil {
			return nil, fmt.Errorf("ply.Read: header: %w", err)
		}
		fs := strings.Fields(line)
		if len(fs) == 0 {
			continue
		}
		switch fs[0] {
		case "format":
			if len(fs) < 2 || fs[1] != "binary_little_endian" {
				return nil, fmt.Errorf("ply.Read: unsupported format %q", strings.TrimSpace(line))
			}
		case "element":
			if len(fs) != 3 {
				return nil, fmt.Errorf("ply.Read: bad element line %q", strings.TrimSpace(line))
			}
			n, err := strconv.Atoi(fs[2])
			if err != nil {
				return nil, fmt.Errorf("ply.Read: %w", err)
			}
			if fs[1] == "vertex" {
				nverts = n
			} else {
				nfaces = n
			}
		case "property":
			switch fs[len(fs)-1] {
			case "nx":
				m.HasNormals = true
			case "u":
				m.HasUVs = true
			}
		}
		if fs[0] == "end_header" {
			break
		}
	}
	nfloat := 3
	if m.HasNormals {
		nfloat += 3
	}
	if m.HasUVs {
		nfloat += 2
	}
	vals := make([]float32, nfloat)
	m.Vertices = make([]Vertex, nverts)
	for i := range m.Vertices {
		if err := binary.Read(br, binary.LittleEndian, vals); err != nil {
			return nil, fmt.Errorf("ply.Read: vertex %d: %w", i, err)
		}
		v := &m.Vertices[i]
		v.Pos = math32.Vec3(vals[0], vals[1], vals[2])
		k := 3
		if m.HasNormals {
			v.Normal = math32.Vec3(vals[3], vals[4], vals[5])
			k = 6
		}
		if m.HasUVs {
			v.UV = [2]float32{vals[k], vals[k+1]}
		}
	}
	m.Faces = make([][3]uint32, nfaces)
	for i := range m.Faces {
		n, err := br.ReadByte()
		if err != nil {
			return nil, fmt.Errorf("ply.Read: face %d: %w", i, err)
		}
		if n != 3 {
			return nil, fmt.Errorf("ply.Read: face %d has %d vertices", i, n)
		}
		var idx [3]int32
		if err := binary.Read(br, binary.LittleEndian, &idx); err != nil {
			return nil, fmt.Errorf("ply.Read: face %d: %w", i, err)
		}
		m.Faces[i] = [3]uint32{uint32(idx[0]), uint32(idx[1]), uint32(idx[2])}
	}
	return m, nil
}

// Open reads the mesh in the given file.
func Open(filename string) (*Mesh, error) {
	f, err := os.Open(filename)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return Read(f)
}
