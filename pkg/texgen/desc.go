// Package texgen renders declarative texture descriptions through an
// external renderer and post-processes the results: procedural noise
// composition and chained gap filling.
package texgen

import (
	"errors"
	"image"
	"maps"

	"github.com/Faultbox/flexgen/pkg/imaging"
	"github.com/Faultbox/flexgen/pkg/material"
	"github.com/Faultbox/flexgen/pkg/math"
	"github.com/Faultbox/flexgen/pkg/meshbuild"
)

// Resolution errors. Wrapped errors carry the offending name.
var (
	ErrNotFound        = errors.New("resource not found")
	ErrMissingModel    = errors.New("missing model")
	ErrMissingMaterial = errors.New("missing material")
	ErrInvalidCamera   = errors.New("invalid camera")
	ErrNoRenderer      = errors.New("no renderer")
	ErrNoRenderPath    = errors.New("missing render path")
)

// Built-in shader and uniform names.
const (
	ShaderUnlit       = "Unlit"
	ShaderDiffuse     = "Diffuse"
	ShaderVertexColor = "VertexColor"
	ShaderNoise       = "Noise"
	ShaderFillGaps    = "FillGaps"

	ParamDiffColor    = "MatDiffColor"
	ParamInputInvSize = "InputInvSize"

	// InputTextureName is the texture map key a gap fill pass reads.
	InputTextureName = "Input"
)

// RenderPath describes how a view is drawn.
type RenderPath struct {
	Name       string
	ClearColor imaging.Color
}

// GeometryDesc is one model with the materials of its geometries.
type GeometryDesc struct {
	Model     *meshbuild.Model
	ModelName string
	Materials []*material.Material
	// MaterialNames parallels Materials for error reporting.
	MaterialNames []string
}

// TextureDesc describes one generated texture. Without cameras,
// geometries or render path it is a flat Color fill.
type TextureDesc struct {
	Width, Height int
	Color         imaging.Color
	Cameras       []OrthoCamera
	Geometries    []GeometryDesc
	Textures      map[material.TextureUnit]string
	Parameters    map[string]math.Vec4
	RenderPath    *RenderPath
}

// Renderable reports whether the description needs a render pass.
func (d *TextureDesc) Renderable() bool {
	return len(d.Cameras) > 0 && len(d.Geometries) > 0 && d.RenderPath != nil
}

// Size returns width and height, each at least one.
func (d *TextureDesc) Size() (int, int) {
	return max(d.Width, 1), max(d.Height, 1)
}

// Clone returns a copy whose slices and maps can be changed independently.
// Models and materials are shared.
func (d *TextureDesc) Clone() *TextureDesc {
	c := *d
	c.Cameras = append([]OrthoCamera(nil), d.Cameras...)
	c.Geometries = append([]GeometryDesc(nil), d.Geometries...)
	c.Textures = maps.Clone(d.Textures)
	c.Parameters = maps.Clone(d.Parameters)
	return &c
}

// TextureMap maps names to already available textures.
type TextureMap map[string]*material.Texture

// Add registers img under name.
func (m TextureMap) Add(name string, img *image.NRGBA) {
	m[name] = &material.Texture{Name: name, Image: img}
}

// Resources looks up shared assets by name. Implementations return an
// error wrapping ErrNotFound for unknown names.
type Resources interface {
	Texture(name string) (*material.Texture, error)
	Material(name string) (*material.Material, error)
	Model(name string) (*meshbuild.Model, error)
	RenderPath(name string) (*RenderPath, error)
}

// Object is one model instance in a view, with per-geometry materials
// and the LOD level drawn for each geometry.
type Object struct {
	Model     *meshbuild.Model
	Materials []*material.Material
	Lods      []int
}

// Lod returns the LOD level to draw for geometry gi.
func (o *Object) Lod(gi int) int {
	if gi < 0 || gi >= len(o.Lods) {
		return 0
	}
	return o.Lods[gi]
}

// View is a transient scene rendered with one camera.
type View struct {
	Camera     OrthoCamera
	Viewport   image.Rectangle
	RenderPath *RenderPath
	Objects    []Object
}

// Surface is a render target owned by a Renderer.
type Surface interface {
	Width() int
	Height() int
}

// Renderer draws views. Calls are sequential: one surface is rendered at
// a time.
type Renderer interface {
	// NewSurface allocates a cleared w x h RGBA target.
	NewSurface(w, h int) (Surface, error)
	// Render draws one view into target and returns once the frame is
	// submitted.
	Render(target Surface, view View) error
	// ReadBack copies the target contents into a CPU side image.
	ReadBack(target Surface) (*image.NRGBA, error)
	// Release frees the target.
	Release(target Surface)
}
