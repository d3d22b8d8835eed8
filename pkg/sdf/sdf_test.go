package sdf

import (
	"image/color"
	"testing"

	"github.com/chewxy/math32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Faultbox/flexgen/pkg/imaging"
)

func TestFieldCornerWraps(t *testing.T) {
	img := imaging.New(4, 4, imaging.Transparent)
	imaging.Set(img, 0, 0, imaging.White)

	f := New(img, true)
	nx, ny, ok := f.NearestPixel(3, 3)
	require.True(t, ok)
	assert.Equal(t, 0, nx)
	assert.Equal(t, 0, ny)
	// (3,3) touches (0,0) diagonally across both edges.
	assert.InDelta(t, math32.Sqrt2, f.Distance(3, 3), 1e-5)
	assert.InDelta(t, 2, f.Distance(2, 0), 1e-5)
	assert.Equal(t, float32(0), f.Distance(0, 0))
}

func TestFieldSinglePixel(t *testing.T) {
	const n = 9
	img := imaging.New(n, n, imaging.Transparent)
	imaging.Set(img, 4, 4, imaging.White)
	f := New(img, true)

	for y := 0; y < n; y++ {
		for x := 0; x < n; x++ {
			nx, ny, ok := f.NearestPixel(x, y)
			require.True(t, ok)
			assert.Equal(t, 4, nx, "x of nearest for (%d,%d)", x, y)
			assert.Equal(t, 4, ny, "y of nearest for (%d,%d)", x, y)

			dx, dy := float32(x-4), float32(y-4)
			assert.GreaterOrEqual(t, f.Distance(x, y)+1e-5, math32.Sqrt(dx*dx+dy*dy))
		}
	}

	// Distance grows moving away from the source along a row and a diagonal.
	for d := 1; d <= 4; d++ {
		assert.GreaterOrEqual(t, f.Distance(4+d, 4), f.Distance(4+d-1, 4))
		assert.GreaterOrEqual(t, f.Distance(4+d, 4+d), f.Distance(4+d-1, 4+d-1))
	}
	assert.InDelta(t, 3, f.Distance(7, 4), 1e-5)
}

func TestFieldAllGaps(t *testing.T) {
	f := New(imaging.New(3, 3, imaging.Transparent), true)
	_, _, ok := f.NearestPixel(1, 1)
	assert.False(t, ok)
	assert.True(t, math32.IsInf(f.Distance(1, 1), 1))
}

func TestFieldLumaPredicate(t *testing.T) {
	img := imaging.New(3, 1, imaging.Black)
	imaging.Set(img, 2, 0, imaging.Color{R: 1, A: 1})
	f := New(img, false)
	nx, _, ok := f.NearestPixel(0, 0)
	require.True(t, ok)
	assert.Equal(t, 2, nx)
	assert.InDelta(t, 1, f.Distance(0, 0), 1e-5, "wraps left to the last column")
}

func TestWrap(t *testing.T) {
	f := New(imaging.New(4, 3, imaging.White), true)
	x, y := f.Wrap(-1, 7)
	assert.Equal(t, 3, x)
	assert.Equal(t, 1, y)
}

func TestFillGapsSinglePixel(t *testing.T) {
	c := imaging.Color{R: 0.2, G: 0.6, B: 0.4, A: 1}
	img := imaging.New(5, 5, c)
	img.SetNRGBA(2, 2, color.NRGBA{})

	out := FillGaps(img, 0, true)
	px := out.NRGBAAt(2, 2)
	want := c.NRGBA()
	assert.Equal(t, want.R, px.R)
	assert.Equal(t, want.G, px.G)
	assert.Equal(t, want.B, px.B)
	assert.Equal(t, uint8(0), px.A, "alpha of the gap is preserved")
	assert.Equal(t, color.NRGBA{}, img.NRGBAAt(2, 2), "input untouched")
}

func TestFillGapsDownsampled(t *testing.T) {
	red := imaging.Color{R: 1, A: 1}
	img := imaging.New(8, 8, imaging.Transparent)
	for y := 0; y < 8; y++ {
		for x := 0; x < 4; x++ {
			imaging.Set(img, x, y, red)
		}
	}

	out := FillGaps(img, 1, true)
	for y := 0; y < 8; y++ {
		for x := 4; x < 8; x++ {
			px := out.NRGBAAt(x, y)
			assert.Equal(t, uint8(255), px.R, "pixel (%d,%d)", x, y)
			assert.Equal(t, uint8(0), px.G, "pixel (%d,%d)", x, y)
			assert.Equal(t, uint8(0), px.A, "pixel (%d,%d)", x, y)
		}
	}
	assert.Equal(t, red.NRGBA(), out.NRGBAAt(0, 0))
}

func TestFillGapsDownsampledKeepsStraightColor(t *testing.T) {
	// One opaque red pixel among transparent green ones: the reduced pixel
	// must come back as pure red, not darkened or tinted by the gaps.
	img := imaging.New(2, 2, imaging.Color{G: 1})
	imaging.Set(img, 0, 0, imaging.Color{R: 1, A: 1})

	out := FillGaps(img, 1, true)
	for _, p := range [][2]int{{1, 0}, {0, 1}, {1, 1}} {
		px := out.NRGBAAt(p[0], p[1])
		assert.Equal(t, color.NRGBA{R: 255}, px, "pixel %v", p)
	}
	assert.Equal(t, color.NRGBA{R: 255, A: 255}, out.NRGBAAt(0, 0))
}

func TestFillGapsLuma(t *testing.T) {
	img := imaging.New(4, 1, imaging.Black)
	blue := imaging.Color{B: 1, A: 1}
	imaging.Set(img, 0, 0, blue)

	out := FillGaps(img, 0, false)
	for x := 0; x < 4; x++ {
		assert.Equal(t, blue.NRGBA(), out.NRGBAAt(x, 0))
	}
}
