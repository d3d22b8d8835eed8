package texgen

import (
	"fmt"
	"image"

	"github.com/Faultbox/flexgen/pkg/imaging"
	"github.com/Faultbox/flexgen/pkg/material"
	"github.com/Faultbox/flexgen/pkg/math"
	"github.com/Faultbox/flexgen/pkg/meshbuild"
)

// FillParams configures FillTextureGaps.
type FillParams struct {
	Name string
	// Depth is the number of dilation passes. Each pass halves the
	// remaining gap width.
	Depth       int
	Transparent bool
	RenderPath  *RenderPath
	// Model defaults to the pipeline quad.
	Model    *meshbuild.Model
	Material *material.Material
	// SizeUniform receives (1/width, 1/height, 0, 0). Defaults to
	// ParamInputInvSize.
	SizeUniform string
}

// FillTextureGaps dilates img with Depth render passes, each reading the
// previous result as the "Input" texture. Without Transparent the black
// background is turned into transparency first and the result is made
// opaque again; otherwise the result keeps the alpha of img.
func (p *Pipeline) FillTextureGaps(img *image.NRGBA, params *FillParams) (*image.NRGBA, error) {
	var result *image.NRGBA
	if params.Transparent {
		result = imaging.ToNRGBA(img)
	} else {
		result = imaging.ConvertColorKeyToAlpha(img, imaging.Black)
	}

	uniform := params.SizeUniform
	if uniform == "" {
		uniform = ParamInputInvSize
	}

	for i := 0; i < params.Depth; i++ {
		b := result.Bounds()
		desc, err := p.fullscreenDesc(params.RenderPath, params.Model, params.Material, b.Dx(), b.Dy())
		if err != nil {
			return nil, err
		}
		desc.Textures[material.UnitDiffuse] = InputTextureName
		desc.Parameters[uniform] = math.Vec4{X: 1 / float32(desc.Width), Y: 1 / float32(desc.Height)}

		inputs := TextureMap{}
		inputs.Add(InputTextureName, result)
		next, err := p.renderNamed(params.Name, desc, inputs)
		if err != nil {
			return nil, fmt.Errorf("gap fill pass %d: %w", i, err)
		}
		result = next
	}

	if params.Transparent {
		imaging.CopyAlpha(result, img)
	} else {
		imaging.ResetAlpha(result, 1)
	}
	p.stage(params.Name, StageGapFilled)
	p.stage(params.Name, StageFinalized)
	return result, nil
}
