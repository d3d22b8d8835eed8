package imaging

import "image"

// ConvertColorKeyToAlpha returns a copy of img where pixels matching key
// become fully transparent and all others fully opaque.
func ConvertColorKeyToAlpha(img *image.NRGBA, key Color) *image.NRGBA {
	b := img.Bounds()
	out := image.NewNRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	for y := 0; y < b.Dy(); y++ {
		for x := 0; x < b.Dx(); x++ {
			c := At(img, x, y)
			diff := key.Sub(c).Luma()
			if diff < 0 {
				diff = -diff
			}
			if diff < GapEpsilon {
				Set(out, x, y, Transparent)
			} else {
				Set(out, x, y, c.WithAlpha(1))
			}
		}
	}
	return out
}

// CopyAlpha replaces the alpha of dst with the alpha of src. Both images
// must have the same size.
func CopyAlpha(dst, src *image.NRGBA) {
	db, sb := dst.Bounds(), src.Bounds()
	if db.Dx() != sb.Dx() || db.Dy() != sb.Dy() {
		panic("imaging: CopyAlpha size mismatch")
	}
	for y := 0; y < db.Dy(); y++ {
		for x := 0; x < db.Dx(); x++ {
			d := dst.NRGBAAt(db.Min.X+x, db.Min.Y+y)
			d.A = src.NRGBAAt(sb.Min.X+x, sb.Min.Y+y).A
			dst.SetNRGBA(db.Min.X+x, db.Min.Y+y, d)
		}
	}
}

// ResetAlpha sets the alpha of every pixel.
func ResetAlpha(img *image.NRGBA, alpha float32) {
	a := Color{A: alpha}.NRGBA().A
	b := img.Bounds()
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			c := img.NRGBAAt(x, y)
			c.A = a
			img.SetNRGBA(x, y, c)
		}
	}
}

// BuildNormalMapAlpha marks non-black pixels opaque and black pixels
// transparent.
func BuildNormalMapAlpha(img *image.NRGBA) {
	b := img.Bounds()
	for y := 0; y < b.Dy(); y++ {
		for x := 0; x < b.Dx(); x++ {
			c := At(img, x, y)
			if c.Luma() > GapEpsilon {
				Set(img, x, y, c.WithAlpha(1))
			} else {
				Set(img, x, y, c.WithAlpha(0))
			}
		}
	}
}

// FlipNormalMapZ inverts the blue channel of non-black pixels.
func FlipNormalMapZ(img *image.NRGBA) {
	b := img.Bounds()
	for y := 0; y < b.Dy(); y++ {
		for x := 0; x < b.Dx(); x++ {
			c := At(img, x, y)
			if c.Luma() > GapEpsilon {
				c.B = 1 - c.B
				Set(img, x, y, c)
			}
		}
	}
}
