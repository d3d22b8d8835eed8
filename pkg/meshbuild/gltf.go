package meshbuild

import (
	"encoding/binary"
	"fmt"
	stdmath "math"

	"github.com/qmuntal/gltf"
	"github.com/qmuntal/gltf/modeler"

	"github.com/Faultbox/flexgen/pkg/geometry"
	"github.com/Faultbox/flexgen/pkg/material"
	"github.com/Faultbox/flexgen/pkg/math"
)

// Document converts the model to a glTF document with one mesh per LOD
// level and one primitive per material.
func Document(m *Model) (*gltf.Document, error) {
	if len(m.VertexBuffers) != 1 || len(m.IndexBuffers) != 1 {
		return nil, fmt.Errorf("glTF export needs exactly one vertex and index buffer, got %d and %d",
			len(m.VertexBuffers), len(m.IndexBuffers))
	}
	layout := m.VertexBuffers[0].Layout
	if _, ok := layout.Find(geometry.SemPosition, 0); !ok {
		return nil, fmt.Errorf("glTF export: layout %s has no position", layout)
	}

	vertices := m.VertexBuffers[0].Vertices()
	indices := m.IndexBuffers[0].Indices()

	doc := gltf.NewDocument()
	doc.Asset.Generator = "flexgen"

	positions := make([][3]float32, len(vertices))
	for i, v := range vertices {
		positions[i] = [3]float32{v.Position.X, v.Position.Y, v.Position.Z}
	}
	attributes := map[string]uint32{
		gltf.POSITION: uint32(modeler.WritePosition(doc, positions)),
	}
	if _, ok := layout.Find(geometry.SemNormal, 0); ok {
		normals := make([][3]float32, len(vertices))
		for i, v := range vertices {
			n := v.Normal.Normalize()
			normals[i] = [3]float32{n.X, n.Y, n.Z}
		}
		attributes[gltf.NORMAL] = uint32(modeler.WriteNormal(doc, normals))
	}
	if _, ok := layout.Find(geometry.SemTexCoord, 0); ok {
		uvs := make([][2]float32, len(vertices))
		for i, v := range vertices {
			uvs[i] = [2]float32{v.UV[0].X, v.UV[0].Y}
		}
		attributes[gltf.TEXCOORD_0] = uint32(modeler.WriteTextureCoord(doc, uvs))
	}
	if _, ok := layout.Find(geometry.SemColor, 0); ok {
		colors := make([][4]float32, len(vertices))
		for i, v := range vertices {
			c := v.Colors[0]
			colors[i] = [4]float32{c.X, c.Y, c.Z, c.W}
		}
		attributes[gltf.COLOR_0] = uint32(modeler.WriteColor(doc, colors))
	}

	for i := range m.Geometries {
		name := fmt.Sprintf("material%d", i)
		if i < len(m.Materials) && m.Materials[i] != nil && m.Materials[i].Name != "" {
			name = m.Materials[i].Name
		}
		doc.Materials = append(doc.Materials, &gltf.Material{
			Name: name,
			PBRMetallicRoughness: &gltf.PBRMetallicRoughness{
				BaseColorFactor: &[4]float32{1, 1, 1, 1},
				MetallicFactor:  gltf.Float(0),
				RoughnessFactor: gltf.Float(1),
			},
		})
	}

	maxLod := 0
	for i := range m.Geometries {
		maxLod = max(maxLod, m.NumLodLevels(i))
	}
	for lod := 0; lod < maxLod; lod++ {
		mesh := &gltf.Mesh{Name: fmt.Sprintf("%s_lod%d", m.Name, lod)}
		for i, levels := range m.Geometries {
			if lod >= len(levels) || levels[lod].Empty() {
				continue
			}
			g := levels[lod]
			acc := modeler.WriteIndices(doc, indices[g.IndexStart:g.IndexStart+g.IndexCount])
			mesh.Primitives = append(mesh.Primitives, &gltf.Primitive{
				Attributes: attributes,
				Indices:    gltf.Index(uint32(acc)),
				Material:   gltf.Index(uint32(i)),
			})
		}
		if len(mesh.Primitives) == 0 {
			continue
		}
		doc.Meshes = append(doc.Meshes, mesh)
		doc.Nodes = append(doc.Nodes, &gltf.Node{
			Name: mesh.Name,
			Mesh: gltf.Index(uint32(len(doc.Meshes) - 1)),
		})
		if lod == 0 {
			doc.Scenes[0].Nodes = append(doc.Scenes[0].Nodes, uint32(len(doc.Nodes)-1))
		}
	}
	return doc, nil
}

// WriteGLB saves the model as a binary glTF file.
func WriteGLB(m *Model, path string) error {
	doc, err := Document(m)
	if err != nil {
		return err
	}
	if err := gltf.SaveBinary(doc, path); err != nil {
		return fmt.Errorf("save %s: %w", path, err)
	}
	return nil
}

// ReadModel loads a glTF or GLB file written by WriteGLB or another
// exporter. Mesh i becomes LOD level i and every primitive is grouped by
// its material.
func ReadModel(path string, opts ...Option) (*Model, error) {
	doc, err := gltf.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	m, err := FromDocument(doc, opts...)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	return m, nil
}

// FromDocument builds a model from the meshes of doc.
func FromDocument(doc *gltf.Document, opts ...Option) (*Model, error) {
	f := New(geometry.DefaultLayout(), true, opts...)

	materials := make([]*material.Material, len(doc.Materials))
	for i, gm := range doc.Materials {
		materials[i] = material.New(gm.Name, "Diffuse")
	}
	var fallback *material.Material

	for lod, mesh := range doc.Meshes {
		for pi, prim := range mesh.Primitives {
			mat := fallback
			if prim.Material != nil && int(*prim.Material) < len(materials) {
				mat = materials[*prim.Material]
			} else if mat == nil {
				fallback = material.New("default", "Diffuse")
				mat = fallback
			}
			vertices, indices, err := readPrimitive(doc, prim)
			if err != nil {
				return nil, fmt.Errorf("mesh %d primitive %d: %w", lod, pi, err)
			}
			f.SubmitVertices(f.BeginGroup(mat, true, lod), vertices, indices)
		}
	}
	if f.NumMaterials() == 0 {
		return nil, fmt.Errorf("document has no primitives")
	}
	model := f.Build()
	if len(doc.Meshes) > 0 {
		model.Name = doc.Meshes[0].Name
	}
	return model, nil
}

// readPrimitive returns the vertices referenced by prim and its indices
// rebased onto them.
func readPrimitive(doc *gltf.Document, prim *gltf.Primitive) ([]geometry.Vertex, []uint32, error) {
	posIdx, ok := prim.Attributes[gltf.POSITION]
	if !ok {
		return nil, nil, fmt.Errorf("primitive has no %s", gltf.POSITION)
	}
	positions, err := readFloats(doc, posIdx, 3)
	if err != nil {
		return nil, nil, fmt.Errorf("%s: %w", gltf.POSITION, err)
	}
	count := len(positions) / 3

	optional := func(name string, comps int) ([]float32, error) {
		idx, ok := prim.Attributes[name]
		if !ok {
			return nil, nil
		}
		data, err := readFloats(doc, idx, comps)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", name, err)
		}
		if len(data)/comps != count {
			return nil, fmt.Errorf("%s has %d elements, want %d", name, len(data)/comps, count)
		}
		return data, nil
	}
	normals, err := optional(gltf.NORMAL, 3)
	if err != nil {
		return nil, nil, err
	}
	uvs, err := optional(gltf.TEXCOORD_0, 2)
	if err != nil {
		return nil, nil, err
	}
	colors, err := optional(gltf.COLOR_0, 4)
	if err != nil {
		return nil, nil, err
	}

	var source []uint32
	if prim.Indices != nil {
		if source, err = readIndices(doc, *prim.Indices); err != nil {
			return nil, nil, fmt.Errorf("indices: %w", err)
		}
	} else {
		source = make([]uint32, count)
		for i := range source {
			source[i] = uint32(i)
		}
	}

	remap := make(map[uint32]uint32, count)
	var vertices []geometry.Vertex
	indices := make([]uint32, len(source))
	for i, src := range source {
		if int(src) >= count {
			return nil, nil, fmt.Errorf("index %d out of range for %d vertices", src, count)
		}
		local, seen := remap[src]
		if !seen {
			var v geometry.Vertex
			v.Position = math.Vec3{X: positions[src*3], Y: positions[src*3+1], Z: positions[src*3+2]}
			if normals != nil {
				v.Normal = math.Vec3{X: normals[src*3], Y: normals[src*3+1], Z: normals[src*3+2]}
			}
			if uvs != nil {
				v.UV[0] = math.Vec4{X: uvs[src*2], Y: uvs[src*2+1]}
			}
			if colors != nil {
				v.Colors[0] = math.Vec4{X: colors[src*4], Y: colors[src*4+1], Z: colors[src*4+2], W: colors[src*4+3]}
			} else {
				v.Colors[0] = math.Vec4{X: 1, Y: 1, Z: 1, W: 1}
			}
			local = uint32(len(vertices))
			remap[src] = local
			vertices = append(vertices, v)
		}
		indices[i] = local
	}
	return vertices, indices, nil
}

func accessorBytes(doc *gltf.Document, index uint32, elemSize int) ([]byte, int, int, error) {
	if int(index) >= len(doc.Accessors) {
		return nil, 0, 0, fmt.Errorf("accessor %d out of range", index)
	}
	acc := doc.Accessors[index]
	if acc.BufferView == nil {
		return nil, 0, 0, fmt.Errorf("accessor %d has no buffer view", index)
	}
	view := doc.BufferViews[*acc.BufferView]
	data := doc.Buffers[view.Buffer].Data
	stride := int(view.ByteStride)
	if stride == 0 {
		stride = elemSize
	}
	start := int(view.ByteOffset + acc.ByteOffset)
	count := int(acc.Count)
	if count > 0 && start+(count-1)*stride+elemSize > len(data) {
		return nil, 0, 0, fmt.Errorf("accessor %d exceeds its buffer", index)
	}
	return data[start:], stride, count, nil
}

func readFloats(doc *gltf.Document, index uint32, comps int) ([]float32, error) {
	if int(index) >= len(doc.Accessors) {
		return nil, fmt.Errorf("accessor %d out of range", index)
	}
	if ct := doc.Accessors[index].ComponentType; ct != gltf.ComponentFloat {
		return nil, fmt.Errorf("unsupported component type %v", ct)
	}
	data, stride, count, err := accessorBytes(doc, index, comps*4)
	if err != nil {
		return nil, err
	}
	out := make([]float32, count*comps)
	for i := 0; i < count; i++ {
		for c := 0; c < comps; c++ {
			bits := binary.LittleEndian.Uint32(data[i*stride+c*4:])
			out[i*comps+c] = stdmath.Float32frombits(bits)
		}
	}
	return out, nil
}

func readIndices(doc *gltf.Document, index uint32) ([]uint32, error) {
	if int(index) >= len(doc.Accessors) {
		return nil, fmt.Errorf("accessor %d out of range", index)
	}
	var size int
	switch ct := doc.Accessors[index].ComponentType; ct {
	case gltf.ComponentUbyte:
		size = 1
	case gltf.ComponentUshort:
		size = 2
	case gltf.ComponentUint:
		size = 4
	default:
		return nil, fmt.Errorf("unsupported index component type %v", ct)
	}
	data, stride, count, err := accessorBytes(doc, index, size)
	if err != nil {
		return nil, err
	}
	out := make([]uint32, count)
	for i := range out {
		b := data[i*stride:]
		switch size {
		case 1:
			out[i] = uint32(b[0])
		case 2:
			out[i] = uint32(binary.LittleEndian.Uint16(b))
		default:
			out[i] = binary.LittleEndian.Uint32(b)
		}
	}
	return out, nil
}
