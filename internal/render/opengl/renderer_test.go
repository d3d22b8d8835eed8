package opengl

import (
	"errors"
	"image"
	"image/color"
	"os"
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Faultbox/flexgen/internal/render/soft"
	"github.com/Faultbox/flexgen/pkg/imaging"
	"github.com/Faultbox/flexgen/pkg/material"
	"github.com/Faultbox/flexgen/pkg/math"
	"github.com/Faultbox/flexgen/pkg/texgen"
)

func TestFlipRows(t *testing.T) {
	// 1x2 image stored bottom row first.
	pixels := []byte{
		0, 0, 255, 255, // bottom: blue
		255, 0, 0, 255, // top: red
	}
	img, err := flipRows(pixels, 1, 2)
	require.NoError(t, err)
	assert.Equal(t, color.NRGBA{R: 255, A: 255}, img.NRGBAAt(0, 0))
	assert.Equal(t, color.NRGBA{B: 255, A: 255}, img.NRGBAAt(0, 1))

	_, err = flipRows(pixels, 2, 2)
	assert.Error(t, err)
}

func TestFragmentSources(t *testing.T) {
	for _, name := range []string{
		texgen.ShaderUnlit, texgen.ShaderDiffuse, texgen.ShaderVertexColor,
		texgen.ShaderNoise, texgen.ShaderFillGaps, "",
	} {
		src, err := fragmentSource(name)
		require.NoError(t, err, name)
		assert.Contains(t, src, "#version 410 core")
	}

	_, err := fragmentSource("Toon")
	var unknown *UnknownShaderError
	require.True(t, errors.As(err, &unknown))
	assert.Equal(t, "Toon", unknown.Name)
}

// newTestRenderer opens a GL context or skips when none is available.
func newTestRenderer(t *testing.T) *Renderer {
	t.Helper()
	if runtime.GOOS == "linux" && os.Getenv("DISPLAY") == "" && os.Getenv("WAYLAND_DISPLAY") == "" {
		t.Skip("no display available")
	}
	r, err := New()
	if err != nil {
		t.Skipf("OpenGL unavailable: %v", err)
	}
	t.Cleanup(r.Close)
	return r
}

func checker() *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, 4, 4))
	for y := 0; y < 4; y++ {
		for x := 0; x < 4; x++ {
			img.SetNRGBA(x, y, color.NRGBA{R: uint8(x * 60), G: uint8(y * 60), B: 200, A: 255})
		}
	}
	return img
}

func TestRendererMatchesSoftware(t *testing.T) {
	r := newTestRenderer(t)

	tex := checker()
	mat := material.New("copy", texgen.ShaderDiffuse)
	mat.SetTexture(material.UnitDiffuse, &material.Texture{Name: "checker", Image: tex})

	desc := &texgen.TextureDesc{
		Width:      4,
		Height:     4,
		Cameras:    []texgen.OrthoCamera{texgen.IdentityCamera(4, 4, math.Vec3{})},
		RenderPath: &texgen.RenderPath{Name: "Forward"},
		Parameters: map[string]math.Vec4{},
	}

	gpu := texgen.NewPipeline(r)
	desc.Geometries = []texgen.GeometryDesc{{Model: gpu.QuadModel(), Materials: []*material.Material{mat}}}
	got, err := gpu.RenderTexture(desc, nil)
	require.NoError(t, err)

	cpu := texgen.NewPipeline(soft.New())
	want, err := cpu.RenderTexture(desc, nil)
	require.NoError(t, err)

	assert.Equal(t, want.Pix, got.Pix)
	assert.Equal(t, tex.Pix, got.Pix)
}

func TestRendererClearAndUnlit(t *testing.T) {
	r := newTestRenderer(t)
	p := texgen.NewPipeline(r)

	mat := material.New("red", texgen.ShaderUnlit)
	mat.SetParameter(texgen.ParamDiffColor, math.Vec4{X: 1, W: 1})

	cam := texgen.IdentityCamera(8, 8, math.Vec3{})
	cam.Viewport = image.Rect(0, 0, 4, 8)
	desc := &texgen.TextureDesc{
		Width:      8,
		Height:     8,
		Cameras:    []texgen.OrthoCamera{cam},
		Geometries: []texgen.GeometryDesc{{Model: p.QuadModel(), Materials: []*material.Material{mat}}},
		RenderPath: &texgen.RenderPath{Name: "Forward", ClearColor: imaging.Color{B: 1, A: 1}},
	}

	img, err := p.RenderTexture(desc, nil)
	require.NoError(t, err)
	assert.Equal(t, color.NRGBA{R: 255, A: 255}, img.NRGBAAt(1, 1))
	assert.Equal(t, color.NRGBA{R: 255, A: 255}, img.NRGBAAt(3, 7))
	// Outside the viewport the surface keeps its transparent start.
	assert.Equal(t, color.NRGBA{}, img.NRGBAAt(6, 3))
}

func TestRendererSurfaceErrors(t *testing.T) {
	r := newTestRenderer(t)

	s, err := r.NewSurface(2, 2)
	require.NoError(t, err)
	r.Release(s)
	_, err = r.ReadBack(s)
	assert.ErrorIs(t, err, ErrForeignSurface)

	_, err = r.NewSurface(0, 2)
	assert.Error(t, err)
}
