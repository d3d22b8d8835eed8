package soft

import (
	"fmt"

	"github.com/chewxy/math32"

	"github.com/Faultbox/flexgen/pkg/imaging"
	"github.com/Faultbox/flexgen/pkg/material"
	"github.com/Faultbox/flexgen/pkg/math"
	"github.com/Faultbox/flexgen/pkg/texgen"
)

// fragment holds interpolated vertex attributes at a pixel center.
type fragment struct {
	UV     [2]math.Vec2
	Color  imaging.Color
	Normal math.Vec3
}

// Shader computes the color of one fragment.
type Shader func(m *material.Material, f *fragment) imaging.Color

var shaders = map[string]Shader{
	texgen.ShaderUnlit:       unlit,
	texgen.ShaderDiffuse:     diffuse,
	texgen.ShaderVertexColor: vertexColor,
	texgen.ShaderNoise:       noise,
	texgen.ShaderFillGaps:    fillGaps,
}

// UnknownShaderError is returned for materials whose shader is not built in.
type UnknownShaderError struct {
	Name string
}

func (e *UnknownShaderError) Error() string {
	return fmt.Sprintf("unknown shader %q", e.Name)
}

func lookupShader(name string) (Shader, error) {
	if name == "" {
		return unlit, nil
	}
	if s, ok := shaders[name]; ok {
		return s, nil
	}
	return nil, &UnknownShaderError{Name: name}
}

func diffColor(m *material.Material) imaging.Color {
	if v, ok := m.Parameter(texgen.ParamDiffColor); ok {
		return imaging.FromVec4(v)
	}
	return imaging.White
}

func modulate(a, b imaging.Color) imaging.Color {
	return imaging.Color{R: a.R * b.R, G: a.G * b.G, B: a.B * b.B, A: a.A * b.A}
}

func unlit(m *material.Material, _ *fragment) imaging.Color {
	return diffColor(m)
}

func diffuse(m *material.Material, f *fragment) imaging.Color {
	c := diffColor(m)
	if tex := m.Texture(material.UnitDiffuse); tex != nil && tex.Image != nil {
		c = modulate(c, sample(tex, f.UV[0]))
	}
	return c
}

func vertexColor(m *material.Material, f *fragment) imaging.Color {
	return modulate(diffColor(m), f.Color)
}

// noise reads (scaleX, scaleY, seed) from the diffuse color uniform and
// writes the noise value to every color channel.
func noise(m *material.Material, f *fragment) imaging.Color {
	p, _ := m.Parameter(texgen.ParamDiffColor)
	v := perlin(f.UV[0].X*p.X, f.UV[0].Y*p.Y, p.Z)*0.5 + 0.5
	v = math.Saturate(v)
	return imaging.Color{R: v, G: v, B: v, A: 1}
}

var fillGapsOffsets = [8][2]float32{
	{-1, -1}, {0, -1}, {1, -1},
	{-1, 0}, {1, 0},
	{-1, 1}, {0, 1}, {1, 1},
}

// fillGaps keeps opaque texels and replaces transparent ones with the
// alpha weighted average of their eight neighbors.
func fillGaps(m *material.Material, f *fragment) imaging.Color {
	tex := m.Texture(material.UnitDiffuse)
	if tex == nil || tex.Image == nil {
		return imaging.Transparent
	}
	c := sample(tex, f.UV[0])
	if c.A > imaging.GapEpsilon {
		return c
	}

	step, ok := m.Parameter(texgen.ParamInputInvSize)
	if !ok {
		step = math.Vec4{X: 1 / float32(tex.Width()), Y: 1 / float32(tex.Height())}
	}
	var sum imaging.Color
	for _, o := range fillGapsOffsets {
		uv := math.Vec2{X: f.UV[0].X + o[0]*step.X, Y: f.UV[0].Y + o[1]*step.Y}
		n := sample(tex, uv)
		sum.R += n.R * n.A
		sum.G += n.G * n.A
		sum.B += n.B * n.A
		sum.A += n.A
	}
	if sum.A <= imaging.GapEpsilon {
		return c
	}
	return imaging.Color{R: sum.R / sum.A, G: sum.G / sum.A, B: sum.B / sum.A, A: 1}
}

// sample reads the texel under uv with wrap addressing. V = 0 is the top
// image row.
func sample(tex *material.Texture, uv math.Vec2) imaging.Color {
	w, h := tex.Width(), tex.Height()
	x := wrap(int(math32.Floor(uv.X*float32(w))), w)
	y := wrap(int(math32.Floor(uv.Y*float32(h))), h)
	return imaging.At(tex.Image, x, y)
}

func wrap(v, n int) int {
	v %= n
	if v < 0 {
		v += n
	}
	return v
}
