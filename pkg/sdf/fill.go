package sdf

import (
	"image"

	"github.com/Faultbox/flexgen/internal/workers"
	"github.com/Faultbox/flexgen/pkg/imaging"
)

// FillGaps returns a copy of img where every gap pixel takes the color of
// its nearest non-gap pixel and keeps its own alpha. With downsample > 0
// the field is built on the image reduced that many mip levels, which
// smooths the fill boundary and makes the field cheaper.
func FillGaps(img *image.NRGBA, downsample int, transparent bool) *image.NRGBA {
	out := imaging.ToNRGBA(img)
	b := out.Bounds()
	if b.Empty() {
		return out
	}

	source := out
	if downsample > 0 {
		source = imaging.Downsample(out, downsample)
	}
	field := New(source, transparent)

	workers.ForEachRow(b.Dy(), func(y int) {
		for x := 0; x < b.Dx(); x++ {
			pixel := imaging.At(out, x, y)
			if !IsGap(pixel, transparent) {
				continue
			}
			nx, ny, ok := field.NearestPixel(x>>downsample, y>>downsample)
			if !ok {
				continue
			}
			fill := imaging.At(source, nx, ny)
			imaging.Set(out, x, y, fill.WithAlpha(pixel.A))
		}
	})
	return out
}
