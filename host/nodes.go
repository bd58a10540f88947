// Copyright (c) 2024, Cogent Core. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package host

import (
	"fmt"
	"strings"

	"github.com/mitsuba-renderer/mitsuba-blender-sub001/math32"
)

// NodeKind is the kind of a shader node.
type NodeKind int32

const (
	UnknownNode NodeKind = iota
	OutputMaterial
	OutputWorld
	BsdfDiffuse
	BsdfGlossy
	BsdfGlass
	BsdfPrincipled
	Emission
	Background
	MixShader
	AddShader
	TexImage
	TexEnvironment
	RGB
	VertexColor
	Mapping
	TexCoord
)

var nodeKindNames = [...]string{"Unknown", "OutputMaterial", "OutputWorld", "BsdfDiffuse", "BsdfGlossy", "BsdfGlass", "BsdfPrincipled", "Emission", "Background", "MixShader", "AddShader", "TexImage", "TexEnvironment", "RGB", "VertexColor", "Mapping", "TexCoord"}

// String returns the node kind name, e.g. BsdfDiffuse.
func (nk NodeKind) String() string {
	if nk < 0 || int(nk) >= len(nodeKindNames) {
		return fmt.Sprintf("NodeKind(%d)", nk)
	}
	return nodeKindNames[nk]
}

// IDName returns the host type identifier of the node kind,
// e.g. ShaderNodeBsdfDiffuse.
func (nk NodeKind) IDName() string {
	return "ShaderNode" + nk.String()
}

// SetString sets the node kind from its name or its host identifier.
func (nk *NodeKind) SetString(s string) error {
	s = strings.TrimPrefix(s, "ShaderNode")
	for i, nm := range nodeKindNames {
		if i > 0 && nm == s {
			*nk = NodeKind(i)
			return nil
		}
	}
	return fmt.Errorf("host: unknown shader node kind %q", s)
}

// NodeTree is a shader graph.
type NodeTree struct {
	Nodes []*Node
}

// Node returns the node with the given name, or nil.
func (nt *NodeTree) Node(name string) *Node {
	for _, n := range nt.Nodes {
		if n.Name == name {
			return n
		}
	}
	return nil
}

// Output returns the first node of the given output kind, or nil.
func (nt *NodeTree) Output(kind NodeKind) *Node {
	if nt == nil {
		return nil
	}
	for _, n := range nt.Nodes {
		if n.Kind == kind {
			return n
		}
	}
	return nil
}

// Node is a shader node.
type Node struct {
	Name string
	Kind NodeKind

	// Inputs are the input sockets in order; names may repeat,
	// as for the two shader inputs of a mix node.
	Inputs []*Socket

	// Props are the enum properties of the node, such as
	// distribution, interpolation, extension or vector_type.
	Props map[string]string

	// Image is the image of texture nodes.
	Image Image

	// Layer is the attribute layer of a vertex color node.
	Layer string
}

// Input returns the first input socket with the given name, or nil.
func (n *Node) Input(name string) *Socket {
	for _, s := range n.Inputs {
		if s.Name == name {
			return s
		}
	}
	return nil
}

// InputAt returns the input socket at the given index, or nil.
func (n *Node) InputAt(i int) *Socket {
	if i < 0 || i >= len(n.Inputs) {
		return nil
	}
	return n.Inputs[i]
}

// Prop returns the enum property with the given name,
// or def if it is not set.
func (n *Node) Prop(name, def string) string {
	if v, ok := n.Props[name]; ok {
		return v
	}
	return def
}

// Link connects an input socket to an output of another node.
type Link struct {
	From   *Node
	Output string
}

// Socket is a node input socket, holding either a link
// or a default value.
type Socket struct {
	Name string

	// Value is the default value: a float32, a []float32,
	// a string or a bool.
	Value any

	Link *Link
}

// IsLinked returns whether the socket is connected to another node.
func (s *Socket) IsLinked() bool {
	return s != nil && s.Link != nil && s.Link.From != nil
}

// Float returns the default value as a scalar, using the
// first component of vector values.
func (s *Socket) Float() float32 {
	if s == nil {
		return 0
	}
	switch v := s.Value.(type) {
	case float32:
		return v
	case []float32:
		if len(v) > 0 {
			return v[0]
		}
	case bool:
		if v {
			return 1
		}
	}
	return 0
}

// Floats returns the default value as a vector.
func (s *Socket) Floats() []float32 {
	if s == nil {
		return nil
	}
	switch v := s.Value.(type) {
	case []float32:
		return v
	case float32:
		return []float32{v}
	}
	return nil
}

// Vector3 returns the first three components of the default value;
// a scalar is repeated on all three.
func (s *Socket) Vector3() math32.Vector3 {
	f := s.Floats()
	switch {
	case len(f) >= 3:
		return math32.Vec3(f[0], f[1], f[2])
	case len(f) > 0:
		return math32.Vector3Scalar(f[0])
	}
	return math32.Vector3{}
}
