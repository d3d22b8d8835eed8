package factory

import (
	"fmt"

	"github.com/Faultbox/flexgen/pkg/geometry"
	"github.com/Faultbox/flexgen/pkg/material"
	"github.com/Faultbox/flexgen/pkg/math"
	"github.com/Faultbox/flexgen/pkg/meshbuild"
)

// Geometry generator names.
const (
	GeneratorQuad = "quad"
	GeneratorGrid = "grid"
)

// Plane builds the unit square at depth 0.5 facing the identity camera,
// tessellated into steps x steps cells. LOD level n halves the steps n
// times. Normals and tangents are computed from the grid.
func Plane(steps, lods int, mat *material.Material, opts ...meshbuild.Option) *meshbuild.Model {
	corner := func(x, y float32) geometry.Vertex {
		var v geometry.Vertex
		v.Position = math.Vec3{X: x, Y: y, Z: 0.5}
		v.UV[geometry.DefaultUV] = math.Vec4{X: x, Y: 1 - y}
		v.UV[geometry.SecondaryUV] = math.Vec4{X: x, Y: 1 - y}
		v.Colors[0] = math.Vec4{X: 1, Y: 1, Z: 1, W: 1}
		return v
	}
	v0, v1, v2, v3 := corner(0, 0), corner(1, 0), corner(0, 1), corner(1, 1)

	f := meshbuild.New(geometry.DefaultLayout(), true, opts...)
	for lod := 0; lod < max(lods, 1); lod++ {
		n := max(steps>>lod, 1)
		vertices, indices := geometry.TessellateQuad(v0, v1, v2, v3, n, n, false)
		geometry.ComputeNormals(vertices, indices)
		geometry.ComputeTangents(vertices, indices)
		f.SubmitVertices(f.BeginGroup(mat, true, lod), vertices, indices)
	}
	model := f.Build()
	model.Name = fmt.Sprintf("plane%d", steps)
	return model
}

// Generate builds the model of a named generator.
func Generate(name string, steps int, mat *material.Material) (*meshbuild.Model, error) {
	switch name {
	case GeneratorQuad:
		return Plane(1, 1, mat), nil
	case GeneratorGrid:
		if steps <= 0 {
			return nil, fmt.Errorf("generator %q needs positive steps, got %d", name, steps)
		}
		return Plane(steps, 1, mat), nil
	default:
		return nil, fmt.Errorf("unknown geometry generator %q", name)
	}
}
