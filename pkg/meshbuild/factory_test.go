package meshbuild

import (
	"bytes"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/Faultbox/flexgen/pkg/geometry"
	"github.com/Faultbox/flexgen/pkg/material"
	"github.com/Faultbox/flexgen/pkg/math"
)

func triangle(offset float32) []geometry.Vertex {
	v := make([]geometry.Vertex, 3)
	v[0].Position = math.Vec3{X: offset}
	v[1].Position = math.Vec3{X: offset + 1}
	v[2].Position = math.Vec3{X: offset, Y: 1}
	return v
}

func TestSelectMaterialReuse(t *testing.T) {
	f := New(geometry.DefaultLayout(), false)
	a := material.New("a", "Unlit")
	b := material.New("a", "Unlit")

	assert.Equal(t, MaterialSlot(0), f.SelectMaterial(a, true))
	assert.Equal(t, MaterialSlot(0), f.SelectMaterial(a, true))
	assert.Equal(t, MaterialSlot(1), f.SelectMaterial(b, true), "equal content is not identity")
	assert.Equal(t, MaterialSlot(2), f.SelectMaterial(a, false))
	assert.Equal(t, 3, f.NumMaterials())
	assert.Equal(t, []*material.Material{a, b, a}, f.Materials())
}

func TestSubmitRebase(t *testing.T) {
	f := New(geometry.DefaultLayout(), false)
	h := f.BeginGroup(nil, true, 0)
	f.SubmitVertices(h, triangle(0), []uint32{0, 1, 2})
	f.SubmitVertices(h, triangle(5), []uint32{0, 1, 2})

	assert.Equal(t, 6, f.NumVertices(h.Slot, 0))
	assert.Equal(t, 6, f.NumIndices(h.Slot, 0))
	assert.Equal(t, []uint32{0, 1, 2, 3, 4, 5}, geometry.DecodeIndices(f.IndexData(h.Slot, 0), false))

	// Without rebase indices are stored verbatim.
	f.Submit(h, f.Layout().Encode(triangle(9)), 3, geometry.EncodeIndices([]uint32{6, 7, 8}, false), 3, false)
	assert.Equal(t, []uint32{6, 7, 8}, geometry.DecodeIndices(f.IndexData(h.Slot, 0), false)[6:])
}

func TestSubmitPreconditions(t *testing.T) {
	f := New(geometry.DefaultLayout(), true)
	h := f.BeginGroup(nil, true, 0)

	assert.Panics(t, func() {
		f.Submit(h, make([]byte, f.VertexSize()+1), 1, nil, 0, false)
	}, "stride mismatch")
	assert.Panics(t, func() {
		f.Submit(h, make([]byte, f.VertexSize()), 1, make([]byte, 3), 1, false)
	}, "index size mismatch")
	assert.Panics(t, func() {
		f.SubmitVertices(h, triangle(0), []uint32{0, 1, 3})
	}, "index out of range")

	f.Reset(geometry.DefaultLayout(), true)
	assert.Panics(t, func() { f.SubmitVertices(h, triangle(0), []uint32{0, 1, 2}) }, "stale handle")
}

// positionsOnly returns n vertices for a layout holding positions only.
func positionsOnly(n int) []geometry.Vertex {
	v := make([]geometry.Vertex, n)
	for i := range v {
		v[i].Position = math.Vec3{X: float32(i)}
	}
	return v
}

func TestSubmitRejectsSmallIndexOverflow(t *testing.T) {
	layout := geometry.NewLayout(geometry.VertexElement{Type: geometry.TypeVec3, Semantic: geometry.SemPosition})
	f := New(layout, false)
	h := f.BeginGroup(nil, true, 0)
	f.SubmitVertices(h, positionsOnly(65530), []uint32{0, 1, 2})

	assert.Panics(t, func() {
		f.SubmitVertices(h, positionsOnly(10), []uint32{7, 8, 9})
	})
	assert.Equal(t, 65530, f.NumVertices(h.Slot, 0), "rejected submit leaves the group unchanged")
	assert.Equal(t, []uint32{0, 1, 2}, geometry.DecodeIndices(f.IndexData(h.Slot, 0), false))

	assert.Panics(t, func() {
		f.SubmitVertices(h, triangle(0), []uint32{0, 1, 3})
	})
	assert.Equal(t, 3, f.NumIndices(h.Slot, 0), "out of range indices are not stored")
}

func TestBuildRejectsSmallIndexOverflow(t *testing.T) {
	layout := geometry.NewLayout(geometry.VertexElement{Type: geometry.TypeVec3, Semantic: geometry.SemPosition})
	f := New(layout, false)
	a := f.BeginGroup(material.New("a", "Unlit"), true, 0)
	f.SubmitVertices(a, positionsOnly(65000), []uint32{0, 1, 2})
	b := f.BeginGroup(material.New("b", "Unlit"), true, 0)
	f.SubmitVertices(b, positionsOnly(1000), []uint32{997, 998, 999})

	assert.Panics(t, func() { f.Build() })

	f.Reset(layout, true)
	a = f.BeginGroup(material.New("a", "Unlit"), true, 0)
	f.SubmitVertices(a, positionsOnly(65000), []uint32{0, 1, 2})
	b = f.BeginGroup(material.New("b", "Unlit"), true, 0)
	f.SubmitVertices(b, positionsOnly(1000), []uint32{997, 998, 999})

	model := f.Build()
	_, indices := model.Triangles(1, 0)
	assert.Equal(t, []uint32{65997, 65998, 65999}, indices)
}

func TestSparseLodLevels(t *testing.T) {
	f := New(geometry.DefaultLayout(), false)
	h := f.BeginGroup(nil, true, 2)
	f.SubmitVertices(h, triangle(0), []uint32{0, 1, 2})

	assert.Equal(t, 3, f.NumLevels(h.Slot))
	assert.Equal(t, 0, f.NumVertices(h.Slot, 0))
	assert.Equal(t, 0, f.NumVertices(h.Slot, 7))

	model := f.Build()
	require.Equal(t, 1, model.NumGeometries())
	require.Equal(t, 3, model.NumLodLevels(0))
	assert.True(t, model.Geometries[0][0].Empty())
	assert.Equal(t, 3, model.Geometries[0][2].IndexCount)
}

func TestBuildMergeOrder(t *testing.T) {
	f := New(geometry.DefaultLayout(), false)
	matA := material.New("a", "Unlit")
	matEmpty := material.New("empty", "Unlit")
	matB := material.New("b", "Unlit")

	a1 := f.BeginGroup(matA, true, 1)
	f.SelectMaterial(matEmpty, true)
	b0 := f.BeginGroup(matB, true, 0)
	a0 := f.Group(a1.Slot, 0)

	f.SubmitVertices(b0, triangle(20), []uint32{0, 1, 2})
	f.SubmitVertices(a1, triangle(10), []uint32{2, 1, 0})
	f.SubmitVertices(a0, triangle(0), []uint32{0, 1, 2, 0, 2, 1})

	model := f.Build()
	require.Equal(t, 2, model.NumGeometries(), "material without levels is dropped")
	assert.Equal(t, []*material.Material{matA, matB}, model.Materials)

	assert.Equal(t, []DrawRange{
		{Geometry: 0, Lod: 0, IndexOffset: 0, IndexCount: 6},
		{Geometry: 0, Lod: 1, IndexOffset: 6, IndexCount: 3},
		{Geometry: 1, Lod: 0, IndexOffset: 9, IndexCount: 3},
	}, model.DrawRanges())

	vb := model.VertexBuffers[0]
	ib := model.IndexBuffers[0]
	assert.Equal(t, 9, vb.Count)
	assert.Equal(t, []uint32{0, 1, 2, 0, 2, 1, 5, 4, 3, 6, 7, 8}, ib.Indices())
	for _, idx := range ib.Indices() {
		assert.Less(t, idx, uint32(vb.Count))
	}

	require.True(t, model.HasBoundingBox())
	assert.Equal(t, math.Vec3{}, model.BoundingBox.Min)
	assert.Equal(t, math.Vec3{X: 21, Y: 1}, model.BoundingBox.Max)
}

func TestBuildGroupContentsIndependentOfOrder(t *testing.T) {
	layout := geometry.DefaultLayout()
	winding := func(m *material.Material) []uint32 {
		if m.Name == "a" {
			return []uint32{0, 1, 2}
		}
		return []uint32{0, 2, 1}
	}
	build := func(first, second *material.Material) *Model {
		f := New(layout, true)
		f.SubmitVertices(f.BeginGroup(first, true, 0), triangle(float32(len(first.Name))), winding(first))
		f.SubmitVertices(f.BeginGroup(second, true, 0), triangle(float32(len(second.Name))), winding(second))
		return f.Build()
	}
	a := material.New("a", "Unlit")
	bb := material.New("bb", "Unlit")

	ab := build(a, bb)
	ba := build(bb, a)

	groupBytes := func(m *Model, geom int) ([]byte, []uint32) {
		stride := layout.Stride()
		g := m.Geometries[geom][0]
		indices := m.IndexBuffers[0].Indices()[g.IndexStart : g.IndexStart+g.IndexCount]
		lo := int(indices[0])
		for _, idx := range indices {
			lo = min(lo, int(idx))
		}
		local := make([]uint32, len(indices))
		for i, idx := range indices {
			local[i] = idx - uint32(lo)
		}
		return m.VertexBuffers[0].Data[lo*stride : (lo+3)*stride], local
	}

	abA, abAIdx := groupBytes(ab, 0)
	baA, baAIdx := groupBytes(ba, 1)
	assert.True(t, bytes.Equal(abA, baA))
	assert.Equal(t, abAIdx, baAIdx)
	assert.Equal(t, ab.BoundingBox, ba.BoundingBox)
}

func TestBuildWithoutPositionLogs(t *testing.T) {
	core, logs := observer.New(zap.ErrorLevel)
	layout := geometry.NewLayout(geometry.VertexElement{Type: geometry.TypeVec4, Semantic: geometry.SemColor})
	f := New(layout, false, WithLogger(zap.New(core)))

	vertices := make([]geometry.Vertex, 3)
	f.SubmitVertices(f.BeginGroup(nil, true, 0), vertices, []uint32{0, 1, 2})
	model := f.Build()

	assert.False(t, model.HasBoundingBox())
	assert.Equal(t, 3, model.VertexBuffers[0].Count)
	assert.Equal(t, 1, logs.FilterMessage("position was not found in vertex layout").Len())
}

func TestBuildMesh(t *testing.T) {
	layout := geometry.DefaultLayout()
	m := material.New("m", "Unlit")
	model := BuildMesh(layout, false, []Submission{
		{Material: m, Reuse: true, Lod: 0, VertexData: layout.Encode(triangle(0)), NumVertices: 3,
			IndexData: geometry.EncodeIndices([]uint32{0, 1, 2}, false), NumIndices: 3, Rebase: true},
		{Material: m, Reuse: true, Lod: 0, VertexData: layout.Encode(triangle(1)), NumVertices: 3,
			IndexData: geometry.EncodeIndices([]uint32{0, 1, 2}, false), NumIndices: 3, Rebase: true},
	})
	require.Equal(t, 1, model.NumGeometries())
	assert.Equal(t, []uint32{0, 1, 2, 3, 4, 5}, model.IndexBuffers[0].Indices())
}

func TestQuadModel(t *testing.T) {
	model := NewQuadModel()
	assert.Equal(t, QuadModelName, model.Name)
	require.Equal(t, 1, model.NumGeometries())

	vertices, indices := model.Triangles(0, 0)
	require.Len(t, vertices, 4)
	assert.Equal(t, []uint32{0, 2, 3, 0, 3, 1}, indices)
	assert.Equal(t, math.Vec4{X: 0, Y: 0}, vertices[2].UV[0])
	assert.Equal(t, math.Vec4{X: 1, Y: 1, Z: 1, W: 1}, vertices[3].UV[1])
	assert.Equal(t, math.NewBoundingBox(math.Vec3{Z: 0.5}, math.Vec3{X: 1, Y: 1, Z: 0.5}), model.BoundingBox)
}

func TestAppendGeometriesAndEmptyLod(t *testing.T) {
	dest := NewQuadModel()
	src := NewQuadModel()
	src.Materials[0] = material.New("second", "Unlit")

	AppendGeometries(dest, src)
	require.Equal(t, 2, dest.NumGeometries())
	assert.Len(t, dest.VertexBuffers, 2)
	assert.Equal(t, 1, dest.Geometries[1][0].VertexBuffer)
	assert.Equal(t, 1, dest.Geometries[1][0].IndexBuffer)
	assert.Equal(t, "second", dest.Materials[1].Name)

	AppendEmptyLod(dest, 50)
	for i := 0; i < dest.NumGeometries(); i++ {
		require.Equal(t, 2, dest.NumLodLevels(i))
		assert.True(t, dest.Geometries[i][1].Empty())
		assert.Equal(t, float32(50), dest.Geometries[i][1].LodDistance)
	}
}

func TestWriteGLB(t *testing.T) {
	f := New(geometry.DefaultLayout(), true)
	vertices, indices := geometry.TessellateQuad(triangle(0)[0], triangle(0)[1], triangle(0)[2], triangle(1)[1], 2, 2, false)
	f.SubmitVertices(f.BeginGroup(material.New("ground", "Diffuse"), true, 0), vertices, indices)
	f.SubmitVertices(f.Group(0, 1), vertices[:4], []uint32{0, 1, 2})
	model := f.Build()
	model.Name = "grid"

	doc, err := Document(model)
	require.NoError(t, err)
	assert.Len(t, doc.Meshes, 2)
	assert.Len(t, doc.Materials, 1)
	assert.Equal(t, "ground", doc.Materials[0].Name)
	assert.Equal(t, []uint32{0}, doc.Scenes[0].Nodes)

	path := filepath.Join(t.TempDir(), "grid.glb")
	require.NoError(t, WriteGLB(model, path))
	assert.FileExists(t, path)
}

func TestReadModelRoundTrip(t *testing.T) {
	f := New(geometry.DefaultLayout(), true)
	vertices, indices := geometry.TessellateQuad(triangle(0)[0], triangle(0)[1], triangle(0)[2], triangle(1)[1], 3, 2, false)
	f.SubmitVertices(f.BeginGroup(material.New("ground", "Diffuse"), true, 0), vertices, indices)
	f.SubmitVertices(f.Group(0, 1), vertices[:4], []uint32{0, 1, 2})
	model := f.Build()
	model.Name = "grid"

	path := filepath.Join(t.TempDir(), "grid.glb")
	require.NoError(t, WriteGLB(model, path))

	back, err := ReadModel(path)
	require.NoError(t, err)
	require.Equal(t, 1, back.NumGeometries())
	require.Equal(t, 2, back.NumLodLevels(0))
	assert.Equal(t, "ground", back.Materials[0].Name)
	assert.Equal(t, "grid_lod0", back.Name)

	want, wantIdx := model.Triangles(0, 0)
	got, gotIdx := back.Triangles(0, 0)
	require.Len(t, gotIdx, len(wantIdx))
	for i := range wantIdx {
		assert.Equal(t, want[wantIdx[i]].Position, got[gotIdx[i]].Position)
		assert.Equal(t, want[wantIdx[i]].UV[0].XY(), got[gotIdx[i]].UV[0].XY())
	}
	assert.Equal(t, 3, back.Geometries[0][1].IndexCount)
	assert.Equal(t, model.BoundingBox, back.BoundingBox)

	_, err = ReadModel(filepath.Join(t.TempDir(), "missing.glb"))
	assert.Error(t, err)
}
