package texgen_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Faultbox/flexgen/pkg/math"
	"github.com/Faultbox/flexgen/pkg/texgen"
)

func TestDescriptorTextures(t *testing.T) {
	var d texgen.Descriptor
	require.NoError(t, d.AddTexture("Grass", &texgen.TextureDesc{Width: 1}))
	require.NoError(t, d.AddTexture("Rock", &texgen.TextureDesc{Width: 2}))

	err := d.AddTexture("GRASS", &texgen.TextureDesc{})
	assert.ErrorIs(t, err, texgen.ErrDuplicateTexture)
	assert.Error(t, d.AddTexture("", &texgen.TextureDesc{}))

	assert.Equal(t, 1, d.FindTexture("rock"))
	assert.Equal(t, -1, d.FindTexture("sand"))
	desc, ok := d.Texture("grass")
	require.True(t, ok)
	assert.Equal(t, 1, desc.Width)

	names := []string{}
	for _, e := range d.Textures() {
		names = append(names, e.Name)
	}
	assert.Equal(t, []string{"Grass", "Rock"}, names)

	d.RemoveAllTextures()
	assert.Empty(t, d.Textures())
}

func TestDescriptorOutputs(t *testing.T) {
	var d texgen.Descriptor
	require.NoError(t, d.AddTexture("Grass", &texgen.TextureDesc{}))

	require.NoError(t, d.AddOutput("grass", "textures/grass.png"))
	assert.ErrorIs(t, d.AddOutput("Sand", "sand.png"), texgen.ErrNotFound)
	assert.Equal(t, []texgen.Output{{Name: "grass", File: "textures/grass.png"}}, d.Outputs())

	d.RemoveAllOutputs()
	assert.Empty(t, d.Outputs())
}

func TestTextureDescClone(t *testing.T) {
	orig := &texgen.TextureDesc{
		Cameras:    []texgen.OrthoCamera{texgen.IdentityCamera(1, 1, math.Vec3{})},
		Parameters: map[string]math.Vec4{"A": {X: 1}},
	}
	c := orig.Clone()
	c.Parameters["B"] = math.Vec4{}
	c.Cameras[0].FarClip = 5
	assert.Len(t, orig.Parameters, 1)
	assert.Equal(t, float32(1), orig.Cameras[0].FarClip)
}

func TestIdentityCameraMapsUnitSquare(t *testing.T) {
	cam := texgen.IdentityCamera(4, 4, math.Vec3{})
	require.NoError(t, cam.Validate())
	vp := cam.ViewProjection()

	low := vp.TransformVec3(math.Vec3{X: 0, Y: 0, Z: 0.5})
	high := vp.TransformVec3(math.Vec3{X: 1, Y: 1, Z: 1})
	assert.InDelta(t, -1, low.X, 1e-5)
	assert.InDelta(t, -1, low.Y, 1e-5)
	assert.InDelta(t, 0, low.Z, 1e-5)
	assert.InDelta(t, 1, high.X, 1e-5)
	assert.InDelta(t, 1, high.Y, 1e-5)
	assert.InDelta(t, 1, high.Z, 1e-5)
}

func TestFitCamera(t *testing.T) {
	box := math.NewBoundingBox(math.Vec3{X: -2, Y: 0, Z: 1}, math.Vec3{X: 2, Y: 1, Z: 3})
	cam := texgen.FitCamera(box, 8, 2)
	require.NoError(t, cam.Validate())

	corner := cam.ViewProjection().TransformVec3(math.Vec3{X: 2, Y: 1, Z: 3})
	assert.InDelta(t, 1, corner.X, 1e-5)
	assert.InDelta(t, 1, corner.Y, 1e-5)
	assert.LessOrEqual(t, corner.Z, float32(1))
}

func TestStageString(t *testing.T) {
	assert.Equal(t, "gap_filled", texgen.StageGapFilled.String())
	assert.Equal(t, "Stage(42)", texgen.Stage(42).String())
}
