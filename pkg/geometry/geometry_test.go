package geometry

import (
	"testing"

	"github.com/Faultbox/flexgen/pkg/math"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func vtx(x, y, z, u, v float32) Vertex {
	var out Vertex
	out.Position = math.Vec3{X: x, Y: y, Z: z}
	out.UV[0] = math.Vec4{X: u, Y: v}
	return out
}

func assertVec3(t *testing.T, want, got math.Vec3) {
	t.Helper()
	assert.InDelta(t, want.X, got.X, 1e-4, "x")
	assert.InDelta(t, want.Y, got.Y, 1e-4, "y")
	assert.InDelta(t, want.Z, got.Z, 1e-4, "z")
}

func TestComputeBoundingBoxContainsAll(t *testing.T) {
	vertices := []Vertex{
		vtx(1, 2, 3, 0, 0),
		vtx(-4, 0, 7, 0, 0),
		vtx(0, -1, -2, 0, 0),
	}
	box := ComputeBoundingBox(vertices)
	assert.Equal(t, math.Vec3{X: -4, Y: -1, Z: -2}, box.Min)
	assert.Equal(t, math.Vec3{X: 1, Y: 2, Z: 7}, box.Max)
	for _, v := range vertices {
		assert.True(t, box.Contains(v.Position))
	}
}

func TestComputeBoundingBoxEmptyPanics(t *testing.T) {
	assert.Panics(t, func() { ComputeBoundingBox(nil) })
}

func TestComputeNormalsQuad(t *testing.T) {
	vertices, indices := AppendQuad(nil, nil,
		vtx(0, 0, 0, 0, 0), vtx(1, 0, 0, 1, 0),
		vtx(0, 0, 1, 0, 1), vtx(1, 0, 1, 1, 1), false)
	ComputeNormals(vertices, indices)
	for _, v := range vertices {
		assertVec3(t, math.Vec3{Y: 1}, v.Normal)
	}
}

func TestComputeNormalsAreaWeighted(t *testing.T) {
	// Shared vertex 0: a large triangle facing +Z and a small one facing +X.
	vertices := []Vertex{
		vtx(0, 0, 0, 0, 0),
		vtx(4, 0, 0, 0, 0),
		vtx(0, 4, 0, 0, 0),
		vtx(0, 1, 0, 0, 0),
		vtx(0, 0, 1, 0, 0),
	}
	indices := []uint32{0, 1, 2, 0, 3, 4}
	ComputeNormals(vertices, indices)

	want := math.Vec3{X: 1, Z: 16}.Normalize()
	assertVec3(t, want, vertices[0].Normal)
}

func TestComputeNormalsOrderIndependent(t *testing.T) {
	build := func() []Vertex {
		vertices, _ := TessellateQuad(
			vtx(0, 0, 0, 0, 0), vtx(1, 0.5, 0, 1, 0),
			vtx(0, 0.2, 1, 0, 1), vtx(1, 1, 1, 1, 1), 3, 2, false)
		return vertices
	}
	_, indices := TessellateQuad(Vertex{}, Vertex{}, Vertex{}, Vertex{}, 3, 2, false)

	forward := build()
	ComputeNormals(forward, indices)

	reversed := make([]uint32, 0, len(indices))
	for t := len(indices) - 3; t >= 0; t -= 3 {
		reversed = append(reversed, indices[t:t+3]...)
	}
	backward := build()
	ComputeNormals(backward, reversed)

	for i := range forward {
		assertVec3(t, forward[i].Normal, backward[i].Normal)
	}
}

func TestComputeNormalsDegenerateTriangle(t *testing.T) {
	vertices := []Vertex{
		vtx(0, 0, 0, 0, 0), vtx(1, 0, 0, 0, 0), vtx(0, 1, 0, 0, 0),
		vtx(2, 2, 2, 0, 0),
	}
	// Second triangle is collapsed onto a single point.
	indices := []uint32{0, 1, 2, 3, 3, 3}
	ComputeNormals(vertices, indices)
	assertVec3(t, math.Vec3{Z: 1}, vertices[0].Normal)
	assert.Equal(t, math.Vec3{}, vertices[3].Normal)
}

func TestComputeTangentBasisParallelUV(t *testing.T) {
	tangent, binormal := ComputeTangentBasis(
		vtx(0, 0, 0, 0, 0), vtx(1, 0, 0, 1, 1), vtx(0, 1, 0, 2, 2))
	assert.Equal(t, math.Vec3{}, tangent)
	assert.Equal(t, math.Vec3{}, binormal)
}

func TestComputeTangentBasisRoundTrip(t *testing.T) {
	v0 := vtx(0.5, 0.1, -0.3, 0.2, 0.1)
	v1 := vtx(2, 1, 0.4, 0.9, 0.3)
	v2 := vtx(-1, 3, 1.5, 0.4, 0.8)
	tangent, binormal := ComputeTangentBasis(v0, v1, v2)
	require.NotEqual(t, math.Vec3{}, tangent)

	uv1 := v1.UV[0].Sub(v0.UV[0])
	uv2 := v2.UV[0].Sub(v0.UV[0])
	assertVec3(t, v1.Position.Sub(v0.Position), tangent.Scale(uv1.X).Add(binormal.Scale(uv1.Y)))
	assertVec3(t, v2.Position.Sub(v0.Position), tangent.Scale(uv2.X).Add(binormal.Scale(uv2.Y)))
}

func TestComputeTangentsGrid(t *testing.T) {
	vertices, indices := TessellateQuad(
		vtx(0, 0, 0, 0, 0), vtx(2, 0, 0, 1, 0),
		vtx(0, 0, 2, 0, 1), vtx(2, 0, 2, 1, 1), 2, 2, false)
	ComputeTangents(vertices, indices)
	for _, v := range vertices {
		assertVec3(t, math.Vec3{X: 1}, v.Tangent)
		assertVec3(t, math.Vec3{Z: 1}, v.Binormal)
	}
}

func TestAppendQuadIndices(t *testing.T) {
	assert.Equal(t, []uint32{10, 12, 13, 10, 13, 11}, AppendQuadIndices(nil, 10, 0, 1, 2, 3, false))
	assert.Equal(t, []uint32{10, 13, 12, 10, 11, 13}, AppendQuadIndices(nil, 10, 0, 1, 2, 3, true))
}

func TestTessellateQuad(t *testing.T) {
	v0, v1, v2, v3 := vtx(0, 0, 0, 0, 0), vtx(1, 0, 0, 1, 0), vtx(0, 0, 1, 0, 1), vtx(1, 0, 1, 1, 1)
	v0.Colors[0] = math.Vec4{X: 1, W: 1}
	v3.Colors[0] = math.Vec4{Z: 1, W: 1}
	v0.BoneWeights = math.Vec4{X: 1}
	v1.BoneWeights = math.Vec4{X: 1}
	v2.BoneWeights = math.Vec4{X: 1}

	vertices, indices := TessellateQuad(v0, v1, v2, v3, 4, 2, false)
	require.Len(t, vertices, 5*3)
	require.Len(t, indices, 4*2*6)

	center := vertices[1*5+2]
	assertVec3(t, math.Vec3{X: 0.5, Z: 0.5}, center.Position)
	assert.InDelta(t, 0.5, center.UV[0].X, 1e-6)
	assert.InDelta(t, 0.25, center.Colors[0].X, 1e-6)
	assert.InDelta(t, 0.25, center.Colors[0].Z, 1e-6)
	assert.InDelta(t, 0.75, center.BoneWeights.X, 1e-6)

	for _, idx := range indices {
		assert.Less(t, idx, uint32(len(vertices)))
	}
	// Same winding for every cell: all normals point the same way.
	ComputeNormals(vertices, indices)
	for _, v := range vertices {
		assertVec3(t, math.Vec3{Y: 1}, v.Normal)
	}
}

func TestLerpVerticesKeepsLeftBones(t *testing.T) {
	a, b := Vertex{}, Vertex{}
	a.BoneIndices = [4]uint8{1, 2, 3, 4}
	b.BoneIndices = [4]uint8{9, 9, 9, 9}
	a.Normal = math.Vec3{X: 1}
	b.Normal = math.Vec3{Y: 1}
	out := LerpVertices(a, b, 0.5)
	assert.Equal(t, a.BoneIndices, out.BoneIndices)
	assert.InDelta(t, 1, out.Normal.Length(), 1e-5)
}

func TestPackedTangent(t *testing.T) {
	v := Vertex{Tangent: math.Vec3{X: 1}, Normal: math.Vec3{Y: 1}, Binormal: math.Vec3{Z: 1}}
	assert.Equal(t, float32(1), v.PackedTangent().W)
	v.Binormal = math.Vec3{Z: -1}
	assert.Equal(t, float32(-1), v.PackedTangent().W)
}

func TestDefaultLayout(t *testing.T) {
	l := DefaultLayout()
	assert.Equal(t, 5*12+8*16+4+16, l.Stride())
	pos, ok := l.Find(SemPosition, 0)
	require.True(t, ok)
	assert.Equal(t, 0, pos.Offset)
	weights, ok := l.Find(SemBlendWeights, 0)
	require.True(t, ok)
	assert.Equal(t, l.Stride()-16, weights.Offset)
	assert.True(t, l.Equal(DefaultLayout()))
}

func TestLayoutEncodeDecode(t *testing.T) {
	l := NewLayout(
		VertexElement{Type: TypeVec3, Semantic: SemPosition},
		VertexElement{Type: TypeVec2, Semantic: SemTexCoord},
		VertexElement{Type: TypeUByte4Norm, Semantic: SemColor},
	)
	require.Equal(t, 12+8+4, l.Stride())

	v := vtx(1, 2, 3, 0.25, 0.75)
	v.UV[0].Z = 9
	v.Colors[0] = math.Vec4{X: 1, Y: 0, Z: 1, W: 1}
	data := l.Encode([]Vertex{v, v})
	require.Len(t, data, 2*l.Stride())

	out := l.Decode(data)
	require.Len(t, out, 2)
	assert.Equal(t, v.Position, out[1].Position)
	assert.Equal(t, math.Vec4{X: 0.25, Y: 0.75}, out[1].UV[0])
	assert.Equal(t, v.Colors[0], out[1].Colors[0])

	pos, _ := l.Find(SemPosition, 0)
	assert.Equal(t, v.Position, ReadPosition(data, pos, l.Stride(), 1))
}

func TestAdjustIndicesBase(t *testing.T) {
	for _, large := range []bool{false, true} {
		data := EncodeIndices([]uint32{0, 1, 2}, large)
		assert.Len(t, data, 3*IndexSize(large))
		AdjustIndicesBase(data, large, 5)
		assert.Equal(t, []uint32{5, 6, 7}, DecodeIndices(data, large))
	}
	assert.Panics(t, func() { EncodeIndices([]uint32{70000}, false) })
}

func TestAdjustIndicesBaseOverflow(t *testing.T) {
	data := EncodeIndices([]uint32{1, 7}, false)
	assert.Panics(t, func() { AdjustIndicesBase(data, false, 65530) })
	assert.Equal(t, []uint32{1, 7}, DecodeIndices(data, false), "data untouched after overflow")

	AdjustIndicesBase(data, false, 65528)
	assert.Equal(t, []uint32{65529, 65535}, DecodeIndices(data, false))

	large := EncodeIndices([]uint32{7}, true)
	AdjustIndicesBase(large, true, 65530)
	assert.Equal(t, []uint32{65537}, DecodeIndices(large, true))
	assert.Panics(t, func() { AdjustIndicesBase(large, true, 0xFFFFFFFF) })
}
