package geometry

import (
	"github.com/Faultbox/flexgen/internal/workers"
	"github.com/Faultbox/flexgen/pkg/math"
)

const normalizeChunk = 4096

// ComputeBoundingBox folds every vertex position into a box.
// The vertex set must not be empty.
func ComputeBoundingBox(vertices []Vertex) math.BoundingBox {
	if len(vertices) == 0 {
		panic("geometry: bounding box of empty vertex set")
	}
	var box math.BoundingBox
	for i := range vertices {
		box.Merge(vertices[i].Position)
	}
	return box
}

// FaceNormal returns the unnormalized normal of triangle p0 p1 p2.
// Its length is twice the triangle area.
func FaceNormal(p0, p1, p2 math.Vec3) math.Vec3 {
	return p1.Sub(p0).Cross(p2.Sub(p0))
}

// ComputeNormals adds the unnormalized face normal of every triangle to
// its three vertices, then normalizes every vertex normal. Vertices not
// referenced by any triangle keep a normalized copy of their input.
func ComputeNormals(vertices []Vertex, indices []uint32) {
	for t := 0; t+2 < len(indices); t += 3 {
		a, b, c := indices[t], indices[t+1], indices[t+2]
		n := FaceNormal(vertices[a].Position, vertices[b].Position, vertices[c].Position)
		vertices[a].Normal = vertices[a].Normal.Add(n)
		vertices[b].Normal = vertices[b].Normal.Add(n)
		vertices[c].Normal = vertices[c].Normal.Add(n)
	}

	workers.ForEach(len(vertices), normalizeChunk, func(lo, hi int) {
		for i := lo; i < hi; i++ {
			vertices[i].Normal = vertices[i].Normal.Normalize()
		}
	})
}

// ComputeTangentBasis solves the UV to position mapping of one triangle
// using its first UV channel. Parallel UV edges yield zero vectors.
func ComputeTangentBasis(v0, v1, v2 Vertex) (tangent, binormal math.Vec3) {
	e1 := v1.Position.Sub(v0.Position)
	e2 := v2.Position.Sub(v0.Position)
	uv1 := v1.UV[DefaultUV].Sub(v0.UV[DefaultUV])
	uv2 := v2.UV[DefaultUV].Sub(v0.UV[DefaultUV])

	cp := uv1.X*uv2.Y - uv2.X*uv1.Y
	if math.Equals(cp, 0) {
		return math.Vec3{}, math.Vec3{}
	}
	den := 1 / cp

	tangent = e1.Scale(uv2.Y).Sub(e2.Scale(uv1.Y)).Scale(den)
	binormal = e2.Scale(uv1.X).Sub(e1.Scale(uv2.X)).Scale(den)
	return tangent, binormal
}

// ComputeTangents accumulates the tangent basis of every triangle into its
// vertices and normalizes the result.
func ComputeTangents(vertices []Vertex, indices []uint32) {
	numTriangles := len(indices) / 3
	tangents := make([]math.Vec3, numTriangles)
	binormals := make([]math.Vec3, numTriangles)
	workers.ForEach(numTriangles, normalizeChunk, func(lo, hi int) {
		for t := lo; t < hi; t++ {
			a, b, c := indices[3*t], indices[3*t+1], indices[3*t+2]
			tangents[t], binormals[t] = ComputeTangentBasis(vertices[a], vertices[b], vertices[c])
		}
	})

	for t := 0; t < numTriangles; t++ {
		for _, idx := range indices[3*t : 3*t+3] {
			vertices[idx].Tangent = vertices[idx].Tangent.Add(tangents[t])
			vertices[idx].Binormal = vertices[idx].Binormal.Add(binormals[t])
		}
	}

	workers.ForEach(len(vertices), normalizeChunk, func(lo, hi int) {
		for i := lo; i < hi; i++ {
			vertices[i].Tangent = vertices[i].Tangent.Normalize()
			vertices[i].Binormal = vertices[i].Binormal.Normalize()
		}
	})
}
