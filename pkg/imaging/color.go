// Package imaging holds float color math and the whole-image helpers used
// around texture rendering: alpha handling, normal maps and mip levels.
package imaging

import (
	"image"
	"image/color"
	"image/draw"

	"github.com/chewxy/math32"

	"github.com/Faultbox/flexgen/pkg/math"
)

// GapEpsilon is the threshold below which alpha or luma counts as empty.
const GapEpsilon = math.LargeEpsilon

// Color is a straight alpha RGBA color with float channels in [0, 1].
type Color struct {
	R, G, B, A float32
}

// Common colors.
var (
	Black       = Color{0, 0, 0, 1}
	White       = Color{1, 1, 1, 1}
	Transparent = Color{}
)

// FromNRGBA converts an 8 bit color.
func FromNRGBA(c color.NRGBA) Color {
	return Color{float32(c.R) / 255, float32(c.G) / 255, float32(c.B) / 255, float32(c.A) / 255}
}

// FromVec4 converts a vector in RGBA order.
func FromVec4(v math.Vec4) Color {
	return Color{v.X, v.Y, v.Z, v.W}
}

// Vec4 returns the color as a vector in RGBA order.
func (c Color) Vec4() math.Vec4 {
	return math.Vec4{X: c.R, Y: c.G, Z: c.B, W: c.A}
}

// NRGBA converts to 8 bits per channel, clamping to [0, 1].
func (c Color) NRGBA() color.NRGBA {
	return color.NRGBA{R: toByte(c.R), G: toByte(c.G), B: toByte(c.B), A: toByte(c.A)}
}

func toByte(v float32) uint8 {
	return uint8(math32.Round(math.Saturate(v) * 255))
}

// Luma returns the perceived brightness of the RGB part.
func (c Color) Luma() float32 {
	return c.R*0.299 + c.G*0.587 + c.B*0.114
}

// Sub returns c - other per channel.
func (c Color) Sub(other Color) Color {
	return Color{c.R - other.R, c.G - other.G, c.B - other.B, c.A - other.A}
}

// Scale multiplies every channel.
func (c Color) Scale(s float32) Color {
	return Color{c.R * s, c.G * s, c.B * s, c.A * s}
}

// Lerp interpolates every channel.
func (c Color) Lerp(other Color, t float32) Color {
	return Color{
		math.Lerp(c.R, other.R, t),
		math.Lerp(c.G, other.G, t),
		math.Lerp(c.B, other.B, t),
		math.Lerp(c.A, other.A, t),
	}
}

// WithAlpha replaces the alpha channel.
func (c Color) WithAlpha(a float32) Color {
	c.A = a
	return c
}

// At reads pixel (x, y) relative to the image origin.
func At(img *image.NRGBA, x, y int) Color {
	b := img.Bounds()
	return FromNRGBA(img.NRGBAAt(b.Min.X+x, b.Min.Y+y))
}

// Set writes pixel (x, y) relative to the image origin.
func Set(img *image.NRGBA, x, y int, c Color) {
	b := img.Bounds()
	img.SetNRGBA(b.Min.X+x, b.Min.Y+y, c.NRGBA())
}

// New returns a w x h image cleared to c.
func New(w, h int, c Color) *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, max(w, 1), max(h, 1)))
	Fill(img, c)
	return img
}

// Fill clears the image to c.
func Fill(img *image.NRGBA, c Color) {
	px := c.NRGBA()
	b := img.Bounds()
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			img.SetNRGBA(x, y, px)
		}
	}
}

// ToNRGBA converts any image to a zero-origin NRGBA image. NRGBA inputs
// with a zero origin are copied.
func ToNRGBA(src image.Image) *image.NRGBA {
	b := src.Bounds()
	dst := image.NewNRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.Draw(dst, dst.Bounds(), src, b.Min, draw.Src)
	return dst
}
