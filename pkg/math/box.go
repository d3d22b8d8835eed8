package math

import "github.com/chewxy/math32"

// BoundingBox is an axis-aligned box. The zero value is undefined and
// becomes defined on the first merge.
type BoundingBox struct {
	Min, Max Vec3
	Defined  bool
}

// NewBoundingBox returns a box spanning min and max.
func NewBoundingBox(min, max Vec3) BoundingBox {
	return BoundingBox{Min: min, Max: max, Defined: true}
}

// Merge grows the box to include p.
func (b *BoundingBox) Merge(p Vec3) {
	if !b.Defined {
		b.Min, b.Max, b.Defined = p, p, true
		return
	}
	b.Min = b.Min.Min(p)
	b.Max = b.Max.Max(p)
}

// MergeBox grows the box to include other.
func (b *BoundingBox) MergeBox(other BoundingBox) {
	if !other.Defined {
		return
	}
	b.Merge(other.Min)
	b.Merge(other.Max)
}

// Contains reports whether p lies inside the box (inclusive).
func (b BoundingBox) Contains(p Vec3) bool {
	return b.Defined &&
		p.X >= b.Min.X && p.X <= b.Max.X &&
		p.Y >= b.Min.Y && p.Y <= b.Max.Y &&
		p.Z >= b.Min.Z && p.Z <= b.Max.Z
}

// Size returns the box extent.
func (b BoundingBox) Size() Vec3 {
	return b.Max.Sub(b.Min)
}

// Center returns the box center.
func (b BoundingBox) Center() Vec3 {
	return b.Min.Add(b.Max).Scale(0.5)
}

// IsFinite reports whether both corners are finite.
func (b BoundingBox) IsFinite() bool {
	for _, f := range [...]float32{b.Min.X, b.Min.Y, b.Min.Z, b.Max.X, b.Max.Y, b.Max.Z} {
		if math32.IsInf(f, 0) || math32.IsNaN(f) {
			return false
		}
	}
	return true
}
