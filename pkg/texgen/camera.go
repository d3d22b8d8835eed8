package texgen

import (
	"fmt"
	"image"

	"github.com/Faultbox/flexgen/pkg/math"
)

// OrthoCamera is an orthographic camera looking down its local +Z axis.
type OrthoCamera struct {
	Position math.Vec3
	Rotation math.Quat
	FarClip  float32
	Size     math.Vec2
	Viewport image.Rectangle
}

// LodDistance is the distance used for LOD selection. An orthographic
// view has no depth falloff, so it is the view height.
func (c OrthoCamera) LodDistance() float32 {
	return c.Size.Y
}

// IdentityCamera maps the unit square at z in [0, 1] onto the whole
// w x h target.
func IdentityCamera(w, h int, offset math.Vec3) OrthoCamera {
	return OrthoCamera{
		Position: math.Vec3{X: 0.5, Y: 0.5}.Add(offset),
		Rotation: math.QuatIdentity(),
		FarClip:  1,
		Size:     math.Vec2{X: 1, Y: 1},
		Viewport: image.Rect(0, 0, w, h),
	}
}

// FitCamera frames the XY extent of box, looking along +Z from just in
// front of it.
func FitCamera(box math.BoundingBox, w, h int) OrthoCamera {
	size := box.Size()
	center := box.Center()
	return OrthoCamera{
		Position: math.Vec3{X: center.X, Y: center.Y, Z: box.Min.Z - 0.5},
		Rotation: math.QuatIdentity(),
		FarClip:  size.Z + 1,
		Size:     math.Vec2{X: max(size.X, math.Epsilon), Y: max(size.Y, math.Epsilon)},
		Viewport: image.Rect(0, 0, w, h),
	}
}

// Validate checks that the camera can produce a projection.
func (c OrthoCamera) Validate() error {
	if c.Size.X <= 0 || c.Size.Y <= 0 {
		return fmt.Errorf("%w: ortho size %v", ErrInvalidCamera, c.Size)
	}
	if c.FarClip <= 0 {
		return fmt.Errorf("%w: far clip %v", ErrInvalidCamera, c.FarClip)
	}
	if c.Viewport.Empty() {
		return fmt.Errorf("%w: empty viewport %v", ErrInvalidCamera, c.Viewport)
	}
	return nil
}

// View returns the world to camera transform.
func (c OrthoCamera) View() math.Mat4 {
	return math.Compose(c.Position, c.Rotation, math.Vec3{X: 1, Y: 1, Z: 1}).Inverse()
}

// Projection returns the camera to clip transform. Depth 0 to FarClip maps
// to [-1, 1].
func (c OrthoCamera) Projection() math.Mat4 {
	return math.OrthoLH(c.Size.X, c.Size.Y, 0, c.FarClip)
}

// ViewProjection returns Projection * View.
func (c OrthoCamera) ViewProjection() math.Mat4 {
	return c.Projection().Mul(c.View())
}
