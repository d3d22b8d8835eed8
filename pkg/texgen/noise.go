package texgen

import (
	"fmt"
	"image"

	"github.com/Faultbox/flexgen/internal/workers"
	"github.com/Faultbox/flexgen/pkg/imaging"
	"github.com/Faultbox/flexgen/pkg/material"
	"github.com/Faultbox/flexgen/pkg/math"
	"github.com/Faultbox/flexgen/pkg/meshbuild"
)

// Octave is one noise layer. Scale is relative to the texture aspect.
type Octave struct {
	Scale     math.Vec2
	Magnitude float32
	Seed      float32
}

// NoiseParams configures GeneratePerlinNoise.
type NoiseParams struct {
	Name       string
	RenderPath *RenderPath
	// Model defaults to the pipeline quad.
	Model    *meshbuild.Model
	Material *material.Material

	Width, Height int

	FirstColor, SecondColor imaging.Color
	Octaves                 []Octave

	Bias     float32
	Contrast float32
	// Range remaps the biased value; {0, 1} keeps it.
	Range math.Vec2
}

// RenderNoiseOctave renders one full texture pass with the octave scale
// and seed bound to the diffuse color uniform.
func (p *Pipeline) RenderNoiseOctave(params *NoiseParams, scale math.Vec2, seed float32) (*image.NRGBA, error) {
	desc, err := p.fullscreenDesc(params.RenderPath, params.Model, params.Material, params.Width, params.Height)
	if err != nil {
		return nil, err
	}
	desc.Parameters[ParamDiffColor] = math.Vec4{X: scale.X, Y: scale.Y, Z: seed, W: seed}
	return p.renderNamed(params.Name, desc, nil)
}

// GeneratePerlinNoise sums the red channel of every octave weighted by
// its magnitude, then per pixel normalizes, adds bias, applies contrast
// and remaps into Range, clamping after each step. The value picks a
// color between FirstColor and SecondColor.
func (p *Pipeline) GeneratePerlinNoise(params *NoiseParams) (*image.NRGBA, error) {
	w, h := max(params.Width, 1), max(params.Height, 1)
	buffer := make([]float32, w*h)

	textureScale := math.Vec2{X: 1, Y: float32(h) / float32(w)}
	if w > h {
		textureScale = math.Vec2{X: float32(w) / float32(h), Y: 1}
	}

	var maxMagnitude float32
	for i, octave := range params.Octaves {
		scale := math.Vec2{X: octave.Scale.X * textureScale.X, Y: octave.Scale.Y * textureScale.Y}
		img, err := p.RenderNoiseOctave(params, scale, octave.Seed)
		if err != nil {
			return nil, fmt.Errorf("noise octave %d: %w", i, err)
		}
		if b := img.Bounds(); b.Dx() != w || b.Dy() != h {
			return nil, fmt.Errorf("noise octave %d: got %dx%d image, want %dx%d", i, b.Dx(), b.Dy(), w, h)
		}
		maxMagnitude += octave.Magnitude
		magnitude := octave.Magnitude
		workers.ForEachRow(h, func(y int) {
			for x := 0; x < w; x++ {
				buffer[y*w+x] += imaging.At(img, x, y).R * magnitude
			}
		})
	}

	out := image.NewNRGBA(image.Rect(0, 0, w, h))
	workers.ForEachRow(h, func(y int) {
		for x := 0; x < w; x++ {
			v := NoiseValue(buffer[y*w+x], maxMagnitude, params.Bias, params.Contrast, params.Range)
			imaging.Set(out, x, y, params.FirstColor.Lerp(params.SecondColor, v))
		}
	})
	p.stage(params.Name, StageNoiseComposed)
	p.stage(params.Name, StageFinalized)
	return out, nil
}

// NoiseValue applies normalize, bias, contrast and range remap to one
// accumulated sample. A zero total magnitude yields 0 before bias.
func NoiseValue(sum, totalMagnitude, bias, contrast float32, valueRange math.Vec2) float32 {
	var v float32
	if totalMagnitude != 0 {
		v = sum / totalMagnitude
	}
	v = math.Saturate(v + bias)
	v = math.SmoothStepEx(v, contrast)
	return math.Saturate(math.Lerp(valueRange.X, valueRange.Y, v))
}

func (p *Pipeline) fullscreenDesc(rp *RenderPath, model *meshbuild.Model, mat *material.Material, w, h int) (*TextureDesc, error) {
	if rp == nil {
		return nil, ErrNoRenderPath
	}
	if mat == nil {
		return nil, ErrMissingMaterial
	}
	if model == nil {
		model = p.QuadModel()
	}
	desc := &TextureDesc{
		Width:      max(w, 1),
		Height:     max(h, 1),
		RenderPath: rp,
		Geometries: []GeometryDesc{{
			Model:         model,
			ModelName:     model.Name,
			Materials:     []*material.Material{mat},
			MaterialNames: []string{mat.Name},
		}},
		Textures:   map[material.TextureUnit]string{},
		Parameters: map[string]math.Vec4{},
	}
	desc.Cameras = []OrthoCamera{IdentityCamera(desc.Width, desc.Height, math.Vec3{})}
	return desc, nil
}
