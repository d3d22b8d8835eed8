package geometry

// AppendQuadIndices appends the two triangles of quad v0 v1 v2 v3, where
// v0 v1 is the first row and v2 v3 the second.
func AppendQuadIndices(indices []uint32, base, v0, v1, v2, v3 uint32, flipped bool) []uint32 {
	if !flipped {
		return append(indices,
			base+v0, base+v2, base+v3,
			base+v0, base+v3, base+v1)
	}
	return append(indices,
		base+v0, base+v3, base+v2,
		base+v0, base+v1, base+v3)
}

// AppendQuad appends four vertices and the two triangles joining them.
func AppendQuad(vertices []Vertex, indices []uint32, v0, v1, v2, v3 Vertex, flipped bool) ([]Vertex, []uint32) {
	base := uint32(len(vertices))
	vertices = append(vertices, v0, v1, v2, v3)
	indices = AppendQuadIndices(indices, base, 0, 1, 2, 3, flipped)
	return vertices, indices
}

// AppendQuadGrid tessellates the quad into stepsX by stepsZ cells and
// appends (stepsX+1)*(stepsZ+1) interpolated vertices with two triangles
// per cell. Steps below one are treated as one.
func AppendQuadGrid(vertices []Vertex, indices []uint32, v0, v1, v2, v3 Vertex,
	stepsX, stepsZ int, flipped bool) ([]Vertex, []uint32) {
	stepsX = max(stepsX, 1)
	stepsZ = max(stepsZ, 1)
	base := uint32(len(vertices))

	for j := 0; j <= stepsZ; j++ {
		for i := 0; i <= stepsX; i++ {
			vertices = append(vertices, QLerpVertices(v0, v1, v2, v3,
				float32(i)/float32(stepsX), float32(j)/float32(stepsZ)))
		}
	}

	row := uint32(stepsX + 1)
	for j := uint32(0); j < uint32(stepsZ); j++ {
		for i := uint32(0); i < uint32(stepsX); i++ {
			indices = AppendQuadIndices(indices, base,
				j*row+i,
				j*row+i+1,
				(j+1)*row+i,
				(j+1)*row+i+1,
				flipped)
		}
	}
	return vertices, indices
}

// TessellateQuad returns a fresh grid for the quad.
func TessellateQuad(v0, v1, v2, v3 Vertex, stepsX, stepsZ int, flipped bool) ([]Vertex, []uint32) {
	return AppendQuadGrid(nil, nil, v0, v1, v2, v3, stepsX, stepsZ, flipped)
}
