// Package soft is a CPU implementation of the texture renderer. It draws
// orthographic views of static models with the built-in shaders and is
// the reference the OpenGL backend is checked against.
package soft

import (
	"errors"
	"fmt"
	"image"

	"github.com/chewxy/math32"
	"go.uber.org/zap"

	"github.com/Faultbox/flexgen/internal/workers"
	"github.com/Faultbox/flexgen/pkg/geometry"
	"github.com/Faultbox/flexgen/pkg/imaging"
	"github.com/Faultbox/flexgen/pkg/material"
	"github.com/Faultbox/flexgen/pkg/math"
	"github.com/Faultbox/flexgen/pkg/texgen"
)

// ErrForeignSurface is returned for surfaces created by another renderer.
var ErrForeignSurface = errors.New("soft: surface not created by this renderer")

// Surface is a float color buffer with a depth buffer.
type Surface struct {
	width, height int
	color         []imaging.Color
	depth         []float32
}

// Width returns the surface width in pixels.
func (s *Surface) Width() int { return s.width }

// Height returns the surface height in pixels.
func (s *Surface) Height() int { return s.height }

// Renderer rasterizes views on the CPU.
type Renderer struct {
	log *zap.Logger
}

// Option configures a Renderer.
type Option func(*Renderer)

// WithLogger sets the renderer logger.
func WithLogger(l *zap.Logger) Option {
	return func(r *Renderer) {
		if l != nil {
			r.log = l
		}
	}
}

// New creates a software renderer.
func New(opts ...Option) *Renderer {
	r := &Renderer{log: zap.NewNop()}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// NewSurface allocates a transparent w x h surface.
func (r *Renderer) NewSurface(w, h int) (texgen.Surface, error) {
	if w <= 0 || h <= 0 {
		return nil, fmt.Errorf("soft: invalid surface size %dx%d", w, h)
	}
	s := &Surface{
		width:  w,
		height: h,
		color:  make([]imaging.Color, w*h),
		depth:  make([]float32, w*h),
	}
	for i := range s.depth {
		s.depth[i] = math32.Inf(1)
	}
	return s, nil
}

func (r *Renderer) surface(target texgen.Surface) (*Surface, error) {
	s, ok := target.(*Surface)
	if !ok || s.color == nil {
		return nil, ErrForeignSurface
	}
	return s, nil
}

// Render clears the view's viewport with the render path clear color and
// draws every object.
func (r *Renderer) Render(target texgen.Surface, view texgen.View) error {
	s, err := r.surface(target)
	if err != nil {
		return err
	}
	vp := view.Viewport.Intersect(image.Rect(0, 0, s.width, s.height))
	if vp.Empty() {
		return fmt.Errorf("soft: viewport %v outside %dx%d surface", view.Viewport, s.width, s.height)
	}

	var clear imaging.Color
	if view.RenderPath != nil {
		clear = view.RenderPath.ClearColor
	}
	for y := vp.Min.Y; y < vp.Max.Y; y++ {
		for x := vp.Min.X; x < vp.Max.X; x++ {
			s.color[y*s.width+x] = clear
			s.depth[y*s.width+x] = math32.Inf(1)
		}
	}

	viewProj := view.Camera.ViewProjection()
	triangles := 0
	for oi, obj := range view.Objects {
		if obj.Model == nil {
			continue
		}
		for gi := range obj.Model.Geometries {
			if obj.Model.NumLodLevels(gi) == 0 {
				continue
			}
			var mat *material.Material
			if gi < len(obj.Materials) {
				mat = obj.Materials[gi]
			}
			if mat == nil {
				mat = material.New("", texgen.ShaderUnlit)
			}
			shader, err := lookupShader(mat.Shader)
			if err != nil {
				return fmt.Errorf("object %d geometry %d material %q: %w", oi, gi, mat.Name, err)
			}
			vertices, indices := obj.Model.Triangles(gi, obj.Lod(gi))
			for i := 0; i+2 < len(indices); i += 3 {
				r.drawTriangle(s, vp, viewProj, shader, mat,
					&vertices[indices[i]], &vertices[indices[i+1]], &vertices[indices[i+2]])
				triangles++
			}
		}
	}
	r.log.Debug("rendered view",
		zap.Int("objects", len(view.Objects)),
		zap.Int("triangles", triangles),
		zap.Stringer("viewport", vp))
	return nil
}

type screenVertex struct {
	X, Y, Z float32
	v       *geometry.Vertex
}

func (r *Renderer) drawTriangle(s *Surface, vp image.Rectangle, viewProj math.Mat4,
	shader Shader, mat *material.Material, v0, v1, v2 *geometry.Vertex) {
	var sv [3]screenVertex
	vw, vh := float32(vp.Dx()), float32(vp.Dy())
	for i, v := range [3]*geometry.Vertex{v0, v1, v2} {
		ndc := viewProj.TransformVec3(v.Position)
		sv[i] = screenVertex{
			X: float32(vp.Min.X) + (ndc.X+1)*0.5*vw,
			Y: float32(vp.Min.Y) + (1-ndc.Y)*0.5*vh,
			Z: ndc.Z,
			v: v,
		}
	}

	area := edge(sv[0], sv[1], sv[2].X, sv[2].Y)
	if area == 0 {
		return
	}

	minX := max(vp.Min.X, int(math32.Floor(min(sv[0].X, sv[1].X, sv[2].X))))
	maxX := min(vp.Max.X-1, int(math32.Ceil(max(sv[0].X, sv[1].X, sv[2].X))))
	minY := max(vp.Min.Y, int(math32.Floor(min(sv[0].Y, sv[1].Y, sv[2].Y))))
	maxY := min(vp.Max.Y-1, int(math32.Ceil(max(sv[0].Y, sv[1].Y, sv[2].Y))))
	if minX > maxX || minY > maxY {
		return
	}

	workers.ForEachRow(maxY-minY+1, func(row int) {
		y := minY + row
		py := float32(y) + 0.5
		for x := minX; x <= maxX; x++ {
			px := float32(x) + 0.5
			w0 := edge(sv[1], sv[2], px, py) / area
			w1 := edge(sv[2], sv[0], px, py) / area
			w2 := edge(sv[0], sv[1], px, py) / area
			if w0 < 0 || w1 < 0 || w2 < 0 {
				continue
			}
			z := w0*sv[0].Z + w1*sv[1].Z + w2*sv[2].Z
			if z < -1 || z > 1 {
				continue
			}
			idx := y*s.width + x
			if z > s.depth[idx] {
				continue
			}
			f := interpolate(sv[0].v, sv[1].v, sv[2].v, w0, w1, w2)
			s.color[idx] = shader(mat, &f)
			s.depth[idx] = z
		}
	})
}

// edge is twice the signed area of (a, b, p).
func edge(a, b screenVertex, px, py float32) float32 {
	return (b.X-a.X)*(py-a.Y) - (b.Y-a.Y)*(px-a.X)
}

func interpolate(v0, v1, v2 *geometry.Vertex, w0, w1, w2 float32) fragment {
	var f fragment
	for i := range f.UV {
		uv := v0.UV[i].Scale(w0).Add(v1.UV[i].Scale(w1)).Add(v2.UV[i].Scale(w2))
		f.UV[i] = uv.XY()
	}
	c := v0.Colors[0].Scale(w0).Add(v1.Colors[0].Scale(w1)).Add(v2.Colors[0].Scale(w2))
	f.Color = imaging.FromVec4(c)
	f.Normal = v0.Normal.Scale(w0).Add(v1.Normal.Scale(w1)).Add(v2.Normal.Scale(w2)).Normalize()
	return f
}

// ReadBack copies the surface into an 8 bit image.
func (r *Renderer) ReadBack(target texgen.Surface) (*image.NRGBA, error) {
	s, err := r.surface(target)
	if err != nil {
		return nil, err
	}
	img := image.NewNRGBA(image.Rect(0, 0, s.width, s.height))
	workers.ForEachRow(s.height, func(y int) {
		for x := 0; x < s.width; x++ {
			imaging.Set(img, x, y, s.color[y*s.width+x])
		}
	})
	return img, nil
}

// Release drops the surface buffers.
func (r *Renderer) Release(target texgen.Surface) {
	if s, ok := target.(*Surface); ok {
		s.color = nil
		s.depth = nil
	}
}
