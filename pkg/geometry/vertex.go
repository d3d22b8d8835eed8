// Package geometry provides the fat vertex record, vertex layouts and the
// pure functions that derive bounding boxes, normals and tangents and that
// emit quads and grids.
package geometry

import "github.com/Faultbox/flexgen/pkg/math"

// Channel counts of the fat vertex.
const (
	MaxUVs      = 4
	MaxColors   = 4
	MaxBones    = 4
	MaxNormals  = 2
	DefaultUV   = 0
	SecondaryUV = 1
)

// Vertex carries every channel a generated mesh can use. Layouts pick
// which channels end up in the vertex buffer.
type Vertex struct {
	Position       math.Vec3
	Tangent        math.Vec3
	Binormal       math.Vec3
	Normal         math.Vec3
	GeometryNormal math.Vec3
	UV             [MaxUVs]math.Vec4
	Colors         [MaxColors]math.Vec4
	BoneIndices    [MaxBones]uint8
	BoneWeights    math.Vec4
}

// PackedTangent returns the tangent with the handedness of the
// tangent/normal/binormal frame in w.
func (v Vertex) PackedTangent() math.Vec4 {
	sign := float32(-1)
	if v.Tangent.Cross(v.Normal).Dot(v.Binormal) > 0 {
		sign = 1
	}
	return v.Tangent.Vec4(sign)
}

// LerpVertices interpolates every channel of two vertices. Direction
// channels are renormalized and bone indices are taken from lhs.
func LerpVertices(lhs, rhs Vertex, t float32) Vertex {
	var out Vertex
	out.Position = lhs.Position.Lerp(rhs.Position, t)
	out.GeometryNormal = lhs.GeometryNormal.Lerp(rhs.GeometryNormal, t).Normalize()
	out.Tangent = lhs.Tangent.Lerp(rhs.Tangent, t).Normalize()
	out.Binormal = lhs.Binormal.Lerp(rhs.Binormal, t).Normalize()
	out.Normal = lhs.Normal.Lerp(rhs.Normal, t).Normalize()
	for i := range out.UV {
		out.UV[i] = lhs.UV[i].Lerp(rhs.UV[i], t)
	}
	for i := range out.Colors {
		out.Colors[i] = lhs.Colors[i].Lerp(rhs.Colors[i], t)
	}
	out.BoneIndices = lhs.BoneIndices
	out.BoneWeights = lhs.BoneWeights.Lerp(rhs.BoneWeights, t)
	return out
}

// QLerpVertices bilinearly interpolates a quad: v0-v1 along x, then the
// v0v1 and v2v3 edges along y.
func QLerpVertices(v0, v1, v2, v3 Vertex, fx, fy float32) Vertex {
	return LerpVertices(LerpVertices(v0, v1, fx), LerpVertices(v2, v3, fx), fy)
}
