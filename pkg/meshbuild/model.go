package meshbuild

import (
	"github.com/Faultbox/flexgen/pkg/geometry"
	"github.com/Faultbox/flexgen/pkg/material"
	"github.com/Faultbox/flexgen/pkg/math"
)

// VertexBuffer is an encoded vertex array.
type VertexBuffer struct {
	Layout *geometry.VertexLayout
	Data   []byte
	Count  int
}

// Vertices decodes the buffer.
func (b *VertexBuffer) Vertices() []geometry.Vertex {
	return b.Layout.Decode(b.Data)
}

// IndexBuffer is an encoded triangle list.
type IndexBuffer struct {
	Large bool
	Data  []byte
	Count int
}

// Indices decodes the buffer.
func (b *IndexBuffer) Indices() []uint32 {
	return geometry.DecodeIndices(b.Data, b.Large)
}

// Geometry is the draw range of one LOD level of one material. The buffer
// fields index Model.VertexBuffers and Model.IndexBuffers.
type Geometry struct {
	VertexBuffer int
	IndexBuffer  int
	IndexStart   int
	IndexCount   int
	LodDistance  float32
}

// Empty reports whether the geometry draws nothing.
func (g Geometry) Empty() bool {
	return g.IndexCount == 0
}

// Model is a merged mesh: buffers, draw ranges per material and LOD, and
// the materials in geometry order.
type Model struct {
	Name          string
	VertexBuffers []*VertexBuffer
	IndexBuffers  []*IndexBuffer
	Geometries    [][]Geometry
	Materials     []*material.Material
	BoundingBox   math.BoundingBox
}

// NumGeometries returns the number of material groups.
func (m *Model) NumGeometries() int {
	return len(m.Geometries)
}

// NumLodLevels returns the number of LOD levels of geometry i.
func (m *Model) NumLodLevels(i int) int {
	if i < 0 || i >= len(m.Geometries) {
		return 0
	}
	return len(m.Geometries[i])
}

// HasBoundingBox reports whether a bounding box was computed.
func (m *Model) HasBoundingBox() bool {
	return m.BoundingBox.Defined
}

// DrawRange is a flattened Geometry entry.
type DrawRange struct {
	Geometry    int
	Lod         int
	IndexOffset int
	IndexCount  int
}

// DrawRanges lists every draw range in geometry then LOD order.
func (m *Model) DrawRanges() []DrawRange {
	var out []DrawRange
	for i, levels := range m.Geometries {
		for lod, g := range levels {
			out = append(out, DrawRange{Geometry: i, Lod: lod, IndexOffset: g.IndexStart, IndexCount: g.IndexCount})
		}
	}
	return out
}

// Triangles returns the vertices of geometry (i, lod) and its indices
// resolved against them.
func (m *Model) Triangles(i, lod int) ([]geometry.Vertex, []uint32) {
	g := m.Geometries[i][lod]
	if g.Empty() {
		return nil, nil
	}
	vertices := m.VertexBuffers[g.VertexBuffer].Vertices()
	indices := m.IndexBuffers[g.IndexBuffer].Indices()
	return vertices, indices[g.IndexStart : g.IndexStart+g.IndexCount]
}

// AppendGeometries appends the buffers, geometries and materials of src
// to dest. Buffer references of the appended geometries are shifted so
// they keep pointing at src's buffers.
func AppendGeometries(dest, src *Model) {
	vbBase := len(dest.VertexBuffers)
	ibBase := len(dest.IndexBuffers)
	dest.VertexBuffers = append(dest.VertexBuffers, src.VertexBuffers...)
	dest.IndexBuffers = append(dest.IndexBuffers, src.IndexBuffers...)

	for i, levels := range src.Geometries {
		copied := make([]Geometry, len(levels))
		for lod, g := range levels {
			g.VertexBuffer += vbBase
			g.IndexBuffer += ibBase
			copied[lod] = g
		}
		dest.Geometries = append(dest.Geometries, copied)
		var mat *material.Material
		if i < len(src.Materials) {
			mat = src.Materials[i]
		}
		dest.Materials = append(dest.Materials, mat)
	}
	dest.BoundingBox.MergeBox(src.BoundingBox)
}

// AppendEmptyLod adds an empty LOD level switching in at distance to
// every geometry.
func AppendEmptyLod(model *Model, distance float32) {
	for i := range model.Geometries {
		model.Geometries[i] = append(model.Geometries[i], Geometry{LodDistance: distance})
	}
}

// SetLodDistances assigns distances to LOD levels 1..n of every geometry.
// Level 0 always stays at distance 0.
func SetLodDistances(model *Model, distances ...float32) {
	for i := range model.Geometries {
		for lod := 1; lod < len(model.Geometries[i]) && lod-1 < len(distances); lod++ {
			model.Geometries[i][lod].LodDistance = distances[lod-1]
		}
	}
}

// QuadModelName is the resource name of the unit render quad.
const QuadModelName = "DefaultRenderTargetModel"

// NewQuadModel builds the unit quad used to render full-texture passes:
// positions (0,0) to (1,1) at depth 0.5 with flipped V in UV0 and UV1
// set to one.
func NewQuadModel() *Model {
	positions := [4]math.Vec2{{X: 0, Y: 0}, {X: 1, Y: 0}, {X: 0, Y: 1}, {X: 1, Y: 1}}
	var vertices [4]geometry.Vertex
	for i, p := range positions {
		vertices[i].Position = math.Vec3{X: p.X, Y: p.Y, Z: 0.5}
		vertices[i].UV[0] = math.Vec4{X: p.X, Y: 1 - p.Y}
		vertices[i].UV[1] = math.Vec4{X: 1, Y: 1, Z: 1, W: 1}
	}

	f := New(geometry.DefaultLayout(), true)
	f.SubmitVertices(f.BeginGroup(nil, true, 0), vertices[:], []uint32{0, 2, 3, 0, 3, 1})
	model := f.Build()
	model.Name = QuadModelName
	return model
}
