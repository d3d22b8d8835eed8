package imaging

import (
	"image"
	"image/color"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestColorRoundTrip(t *testing.T) {
	c := color.NRGBA{R: 10, G: 128, B: 255, A: 77}
	assert.Equal(t, c, FromNRGBA(c).NRGBA())
	assert.Equal(t, color.NRGBA{R: 255, A: 0}, Color{R: 2, A: -1}.NRGBA())
}

func TestLuma(t *testing.T) {
	assert.InDelta(t, 1, White.Luma(), 1e-6)
	assert.InDelta(t, 0, Black.Luma(), 1e-6)
	assert.InDelta(t, 0.299, Color{R: 1}.Luma(), 1e-6)
}

func TestConvertColorKeyToAlpha(t *testing.T) {
	img := New(2, 1, Black)
	Set(img, 1, 0, Color{R: 0.5, G: 0.2, B: 0.1, A: 0.3})

	out := ConvertColorKeyToAlpha(img, Black)
	assert.Equal(t, color.NRGBA{}, out.NRGBAAt(0, 0))
	px := out.NRGBAAt(1, 0)
	assert.Equal(t, uint8(255), px.A)
	assert.Equal(t, img.NRGBAAt(1, 0).R, px.R)
	assert.Equal(t, uint8(255), img.NRGBAAt(0, 0).A, "input untouched")
}

func TestCopyAndResetAlpha(t *testing.T) {
	dst := New(2, 2, Color{R: 1, A: 1})
	src := New(2, 2, Color{A: 0.5})

	CopyAlpha(dst, src)
	assert.Equal(t, uint8(128), dst.NRGBAAt(1, 1).A)
	assert.Equal(t, uint8(255), dst.NRGBAAt(1, 1).R)

	ResetAlpha(dst, 1)
	assert.Equal(t, uint8(255), dst.NRGBAAt(0, 0).A)

	assert.Panics(t, func() { CopyAlpha(dst, New(3, 2, White)) })
}

func TestNormalMapHelpers(t *testing.T) {
	img := New(2, 1, Transparent)
	Set(img, 0, 0, Color{R: 0.5, G: 0.5, B: 1, A: 0})

	BuildNormalMapAlpha(img)
	assert.Equal(t, uint8(255), img.NRGBAAt(0, 0).A)
	assert.Equal(t, uint8(0), img.NRGBAAt(1, 0).A)

	FlipNormalMapZ(img)
	assert.Equal(t, uint8(0), img.NRGBAAt(0, 0).B)
	assert.Equal(t, uint8(0), img.NRGBAAt(1, 0).B, "black pixels stay black")
}

func TestNumLevels(t *testing.T) {
	assert.Equal(t, 1, NumLevels(1, 1))
	assert.Equal(t, 3, NumLevels(4, 4))
	assert.Equal(t, 4, NumLevels(8, 2))
}

func TestNextLevelUniform(t *testing.T) {
	c := Color{R: 0.2, G: 0.4, B: 0.6, A: 1}
	next := NextLevel(New(8, 4, c))
	require.Equal(t, image.Rect(0, 0, 4, 2), next.Bounds())
	for y := 0; y < 2; y++ {
		for x := 0; x < 4; x++ {
			assert.InDelta(t, c.NRGBA().R, next.NRGBAAt(x, y).R, 1)
			assert.InDelta(t, c.NRGBA().B, next.NRGBAAt(x, y).B, 1)
		}
	}
}

func TestNextLevelIgnoresTransparentColor(t *testing.T) {
	img := New(2, 2, Color{R: 1, G: 1, B: 1, A: 0})
	Set(img, 0, 0, Color{R: 1, A: 1})
	next := NextLevel(img)
	require.Equal(t, image.Rect(0, 0, 1, 1), next.Bounds())
	px := next.NRGBAAt(0, 0)
	assert.InDelta(t, 255, px.R, 2)
	assert.InDelta(t, 0, px.G, 2)
	assert.Less(t, px.A, uint8(255))
}

func TestLevelsAndAdjustAlpha(t *testing.T) {
	levels := Levels(New(4, 4, White))
	require.Len(t, levels, 3)
	AdjustLevelsAlpha(levels, 0.5)
	assert.Equal(t, uint8(255), levels[0].NRGBAAt(0, 0).A)
	assert.Equal(t, uint8(128), levels[1].NRGBAAt(0, 0).A)
	assert.Equal(t, uint8(64), levels[2].NRGBAAt(0, 0).A)
}

func TestToNRGBAOrigin(t *testing.T) {
	src := image.NewNRGBA(image.Rect(5, 5, 7, 6))
	src.SetNRGBA(6, 5, color.NRGBA{R: 9, A: 255})
	out := ToNRGBA(src)
	assert.Equal(t, image.Rect(0, 0, 2, 1), out.Bounds())
	assert.Equal(t, uint8(9), out.NRGBAAt(1, 0).R)
}
