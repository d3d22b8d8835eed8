package imaging

import (
	"image"

	"github.com/anthonynsimon/bild/transform"
)

// NumLevels returns the length of the full mip chain of a w x h image.
func NumLevels(w, h int) int {
	n := 1
	for w > 1 || h > 1 {
		w = max(w/2, 1)
		h = max(h/2, 1)
		n++
	}
	return n
}

// NextLevel returns the half resolution box filtered image. Filtering is
// done on premultiplied colors, so transparent pixels do not darken their
// neighbors and the result holds straight colors again.
func NextLevel(img *image.NRGBA) *image.NRGBA {
	b := img.Bounds()
	w := max(b.Dx()/2, 1)
	h := max(b.Dy()/2, 1)
	return ToNRGBA(transform.Resize(img, w, h, transform.Box))
}

// Downsample applies NextLevel n times.
func Downsample(img *image.NRGBA, n int) *image.NRGBA {
	for i := 0; i < n; i++ {
		img = NextLevel(img)
	}
	return img
}

// Levels returns the full mip chain starting with img itself.
func Levels(img *image.NRGBA) []*image.NRGBA {
	b := img.Bounds()
	levels := []*image.NRGBA{img}
	for i := 1; i < NumLevels(b.Dx(), b.Dy()); i++ {
		levels = append(levels, NextLevel(levels[i-1]))
	}
	return levels
}

// AdjustLevelsAlpha scales the alpha of level i by factor^i.
func AdjustLevelsAlpha(levels []*image.NRGBA, factor float32) {
	k := factor
	for _, level := range levels[min(1, len(levels)):] {
		b := level.Bounds()
		for y := 0; y < b.Dy(); y++ {
			for x := 0; x < b.Dx(); x++ {
				c := At(level, x, y)
				Set(level, x, y, c.WithAlpha(c.A*k))
			}
		}
		k *= factor
	}
}
