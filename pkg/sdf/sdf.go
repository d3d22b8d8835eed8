// Package sdf builds a wrap-around distance field over the empty pixels
// of an image and uses it to flood gaps with the nearest valid color.
package sdf

import (
	"image"

	"github.com/chewxy/math32"

	"github.com/Faultbox/flexgen/internal/workers"
	"github.com/Faultbox/flexgen/pkg/imaging"
)

// Cell holds the offset from a pixel to its nearest non-gap pixel and the
// length of that offset.
type Cell struct {
	DX, DY   float32
	Distance float32
}

// Field is an immutable width x height distance field. Coordinates wrap
// around both axes, so tileable textures fill across their edges.
type Field struct {
	width, height int
	cells         []Cell
}

// IsGap reports whether c counts as empty: alpha below threshold for
// transparent images, luma below threshold otherwise.
func IsGap(c imaging.Color, transparent bool) bool {
	if transparent {
		return c.A < imaging.GapEpsilon
	}
	return c.Luma() < imaging.GapEpsilon
}

var (
	forwardNeighbors  = [4][2]int{{-1, -1}, {0, -1}, {1, -1}, {-1, 0}}
	backwardNeighbors = [4][2]int{{1, 0}, {-1, 1}, {0, 1}, {1, 1}}
)

// New computes the field of img with a forward raster pass followed by a
// backward one. The result approximates the Euclidean distance transform.
func New(img *image.NRGBA, transparent bool) *Field {
	b := img.Bounds()
	f := &Field{
		width:  b.Dx(),
		height: b.Dy(),
		cells:  make([]Cell, b.Dx()*b.Dy()),
	}
	if len(f.cells) == 0 {
		return f
	}

	inf := math32.Inf(1)
	workers.ForEachRow(f.height, func(y int) {
		for x := 0; x < f.width; x++ {
			if IsGap(imaging.At(img, x, y), transparent) {
				f.cells[y*f.width+x] = Cell{DX: inf, DY: inf, Distance: inf}
			}
		}
	})

	for y := 0; y < f.height; y++ {
		for x := 0; x < f.width; x++ {
			f.relax(x, y, forwardNeighbors)
		}
	}
	for y := f.height - 1; y >= 0; y-- {
		for x := f.width - 1; x >= 0; x-- {
			f.relax(x, y, backwardNeighbors)
		}
	}
	return f
}

func (f *Field) relax(x, y int, neighbors [4][2]int) {
	cur := &f.cells[y*f.width+x]
	for _, n := range neighbors {
		src := f.At(x+n[0], y+n[1])
		dx := src.DX + float32(n[0])
		dy := src.DY + float32(n[1])
		d := math32.Sqrt(dx*dx + dy*dy)
		if d < cur.Distance {
			*cur = Cell{DX: dx, DY: dy, Distance: d}
		}
	}
}

// Width returns the field width.
func (f *Field) Width() int { return f.width }

// Height returns the field height.
func (f *Field) Height() int { return f.height }

// Wrap maps any coordinate into the field.
func (f *Field) Wrap(x, y int) (int, int) {
	x %= f.width
	if x < 0 {
		x += f.width
	}
	y %= f.height
	if y < 0 {
		y += f.height
	}
	return x, y
}

// At returns the cell at a wrapped coordinate.
func (f *Field) At(x, y int) Cell {
	x, y = f.Wrap(x, y)
	return f.cells[y*f.width+x]
}

// Distance returns the distance from (x, y) to its nearest non-gap pixel.
// It is +Inf when the image has no non-gap pixel.
func (f *Field) Distance(x, y int) float32 {
	return f.At(x, y).Distance
}

// NearestPixel returns the wrapped coordinate of the non-gap pixel
// closest to (x, y). ok is false when the image has no non-gap pixel.
func (f *Field) NearestPixel(x, y int) (nx, ny int, ok bool) {
	c := f.At(x, y)
	if math32.IsInf(c.Distance, 0) {
		return 0, 0, false
	}
	nx = x + int(math32.Round(c.DX))
	ny = y + int(math32.Round(c.DY))
	nx, ny = f.Wrap(nx, ny)
	return nx, ny, true
}
