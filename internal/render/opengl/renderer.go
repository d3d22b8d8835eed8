package opengl

import (
	"errors"
	"fmt"
	"image"

	"github.com/go-gl/gl/v4.1-core/gl"
	"go.uber.org/zap"

	"github.com/Faultbox/flexgen/pkg/imaging"
	"github.com/Faultbox/flexgen/pkg/material"
	"github.com/Faultbox/flexgen/pkg/meshbuild"
	"github.com/Faultbox/flexgen/pkg/texgen"
)

// ErrForeignSurface is returned for surfaces created by another renderer.
var ErrForeignSurface = errors.New("opengl: surface not created by this renderer")

// floats per interleaved vertex: position, uv0, uv1, color, normal
const vertexFloats = 3 + 2 + 2 + 4 + 3

type meshKey struct {
	model    *meshbuild.Model
	geometry int
	lod      int
}

// mesh is one LOD level of one model geometry uploaded to the GPU.
type mesh struct {
	vao, vbo, ebo uint32
	count         int32
}

// Renderer draws texture views with OpenGL.
type Renderer struct {
	ctx      *Context
	log      *zap.Logger
	vertex   string
	programs map[string]*program
	meshes   map[meshKey]*mesh
	// textures uploaded by the Render call in progress
	textures map[*image.NRGBA]uint32
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

// New opens a hidden OpenGL context and returns a renderer bound to the
// calling goroutine.
func New(opts ...Option) (*Renderer, error) {
	r := &Renderer{
		log:      zap.NewNop(),
		vertex:   vertexShader,
		programs: make(map[string]*program),
		meshes:   make(map[meshKey]*mesh),
		textures: make(map[*image.NRGBA]uint32),
	}
	for _, opt := range opts {
		opt(r)
	}
	ctx, err := NewContext(r.log)
	if err != nil {
		return nil, err
	}
	r.ctx = ctx
	gl.Enable(gl.DEPTH_TEST)
	gl.DepthFunc(gl.LEQUAL)
	gl.Disable(gl.CULL_FACE)
	gl.Disable(gl.BLEND)
	gl.PixelStorei(gl.UNPACK_ALIGNMENT, 1)
	return r, nil
}

// Close frees every cached GPU object and the context.
func (r *Renderer) Close() {
	for _, p := range r.programs {
		p.delete()
	}
	for _, m := range r.meshes {
		gl.DeleteVertexArrays(1, &m.vao)
		gl.DeleteBuffers(1, &m.vbo)
		gl.DeleteBuffers(1, &m.ebo)
	}
	r.releaseTextures()
	clear(r.programs)
	clear(r.meshes)
	if r.ctx != nil {
		r.ctx.Close()
		r.ctx = nil
	}
}

// NewSurface allocates a transparent w x h framebuffer.
func (r *Renderer) NewSurface(w, h int) (texgen.Surface, error) {
	return newSurface(w, h)
}

func (r *Renderer) surface(target texgen.Surface) (*Surface, error) {
	s, ok := target.(*Surface)
	if !ok || s.fbo == 0 {
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
	vp := view.Viewport.Intersect(image.Rect(0, 0, s.Width(), s.Height()))
	if vp.Empty() {
		return fmt.Errorf("opengl: viewport %v outside %dx%d surface", view.Viewport, s.width, s.height)
	}

	s.bindViewport(vp)
	defer gl.BindFramebuffer(gl.FRAMEBUFFER, 0)
	defer r.releaseTextures()

	var clearColor imaging.Color
	if view.RenderPath != nil {
		clearColor = view.RenderPath.ClearColor
	}
	gl.Enable(gl.SCISSOR_TEST)
	gl.ClearColor(clearColor.R, clearColor.G, clearColor.B, clearColor.A)
	gl.ClearDepth(1)
	gl.Clear(gl.COLOR_BUFFER_BIT | gl.DEPTH_BUFFER_BIT)
	gl.Disable(gl.SCISSOR_TEST)

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
			p, err := r.program(mat.Shader)
			if err != nil {
				return fmt.Errorf("object %d geometry %d material %q: %w", oi, gi, mat.Name, err)
			}
			m := r.mesh(obj.Model, gi, obj.Lod(gi))
			if m.count == 0 {
				continue
			}

			gl.UseProgram(p.id)
			gl.UniformMatrix4fv(p.uniform("uViewProj"), 1, false, &viewProj[0])
			r.bindMaterial(p, mat)

			gl.BindVertexArray(m.vao)
			gl.DrawElements(gl.TRIANGLES, m.count, gl.UNSIGNED_INT, nil)
			triangles += int(m.count) / 3
		}
	}
	gl.BindVertexArray(0)
	gl.Finish()

	if code := gl.GetError(); code != gl.NO_ERROR {
		return fmt.Errorf("opengl: render error 0x%x", code)
	}
	r.log.Debug("rendered view",
		zap.Int("objects", len(view.Objects)),
		zap.Int("triangles", triangles),
		zap.Stringer("viewport", vp))
	return nil
}

func (r *Renderer) program(shader string) (*program, error) {
	if shader == "" {
		shader = texgen.ShaderUnlit
	}
	if p, ok := r.programs[shader]; ok {
		return p, nil
	}
	src, err := fragmentSource(shader)
	if err != nil {
		return nil, err
	}
	p, err := newProgram(r.vertex, src)
	if err != nil {
		return nil, fmt.Errorf("compiling %s: %w", shader, err)
	}
	if loc := p.uniform("Perm"); loc >= 0 {
		gl.UseProgram(p.id)
		gl.Uniform1iv(loc, int32(len(permutation)), &permutation[0])
	}
	r.programs[shader] = p
	r.log.Debug("compiled program", zap.String("shader", shader))
	return p, nil
}

// bindMaterial uploads the material uniforms and binds its diffuse map to
// texture unit 0.
func (r *Renderer) bindMaterial(p *program, mat *material.Material) {
	diff, ok := mat.Parameter(texgen.ParamDiffColor)
	if !ok {
		diff = imaging.White.Vec4()
	}
	gl.Uniform4f(p.uniform(texgen.ParamDiffColor), diff.X, diff.Y, diff.Z, diff.W)

	for name, v := range mat.Parameters {
		if name == texgen.ParamDiffColor {
			continue
		}
		if loc := p.uniform(name); loc >= 0 {
			gl.Uniform4f(loc, v.X, v.Y, v.Z, v.W)
		}
	}

	tex := mat.Texture(material.UnitDiffuse)
	hasMap := tex != nil && tex.Image != nil
	var hasMapValue int32
	if hasMap {
		hasMapValue = 1
		gl.ActiveTexture(gl.TEXTURE0)
		gl.BindTexture(gl.TEXTURE_2D, r.texture(tex.Image))
		if _, ok := mat.Parameter(texgen.ParamInputInvSize); !ok {
			gl.Uniform4f(p.uniform(texgen.ParamInputInvSize),
				1/float32(tex.Width()), 1/float32(tex.Height()), 0, 0)
		}
	}
	gl.Uniform1i(p.uniform("HasDiffMap"), hasMapValue)
	gl.Uniform1i(p.uniform("DiffMap"), 0)
}

// texture uploads img with nearest filtering and wrap addressing. Row 0
// of the image lands at v = 0. Uploads live until the end of the current
// Render call.
func (r *Renderer) texture(img *image.NRGBA) uint32 {
	if id, ok := r.textures[img]; ok {
		return id
	}
	src := img
	if img.Stride != img.Rect.Dx()*4 || img.Rect.Min != (image.Point{}) {
		src = imaging.ToNRGBA(img)
	}
	var id uint32
	gl.GenTextures(1, &id)
	gl.BindTexture(gl.TEXTURE_2D, id)
	gl.TexImage2D(gl.TEXTURE_2D, 0, gl.RGBA8, int32(src.Rect.Dx()), int32(src.Rect.Dy()), 0,
		gl.RGBA, gl.UNSIGNED_BYTE, gl.Ptr(src.Pix))
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_MIN_FILTER, gl.NEAREST)
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_MAG_FILTER, gl.NEAREST)
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_WRAP_S, gl.REPEAT)
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_WRAP_T, gl.REPEAT)
	r.textures[img] = id
	return id
}

// mesh uploads LOD lod of geometry gi of model as interleaved float32
// vertices and 32 bit indices.
func (r *Renderer) mesh(model *meshbuild.Model, gi, lod int) *mesh {
	key := meshKey{model: model, geometry: gi, lod: lod}
	if m, ok := r.meshes[key]; ok {
		return m
	}

	vertices, indices := model.Triangles(gi, lod)
	data := make([]float32, 0, len(vertices)*vertexFloats)
	for _, v := range vertices {
		c := v.Colors[0]
		data = append(data,
			v.Position.X, v.Position.Y, v.Position.Z,
			v.UV[0].X, v.UV[0].Y,
			v.UV[1].X, v.UV[1].Y,
			c.X, c.Y, c.Z, c.W,
			v.Normal.X, v.Normal.Y, v.Normal.Z)
	}

	m := &mesh{count: int32(len(indices))}
	r.meshes[key] = m
	if len(indices) == 0 {
		return m
	}

	gl.GenVertexArrays(1, &m.vao)
	gl.BindVertexArray(m.vao)

	gl.GenBuffers(1, &m.vbo)
	gl.BindBuffer(gl.ARRAY_BUFFER, m.vbo)
	gl.BufferData(gl.ARRAY_BUFFER, len(data)*4, gl.Ptr(data), gl.STATIC_DRAW)

	gl.GenBuffers(1, &m.ebo)
	gl.BindBuffer(gl.ELEMENT_ARRAY_BUFFER, m.ebo)
	gl.BufferData(gl.ELEMENT_ARRAY_BUFFER, len(indices)*4, gl.Ptr(indices), gl.STATIC_DRAW)

	stride := int32(vertexFloats * 4)
	attribs := []struct {
		loc, size uint32
		offset    int
	}{
		{attribPosition, 3, 0},
		{attribUV0, 2, 3},
		{attribUV1, 2, 5},
		{attribColor, 4, 7},
		{attribNormal, 3, 11},
	}
	for _, a := range attribs {
		gl.EnableVertexAttribArray(a.loc)
		gl.VertexAttribPointerWithOffset(a.loc, int32(a.size), gl.FLOAT, false, stride, uintptr(a.offset*4))
	}

	gl.BindVertexArray(0)
	return m
}

// ReadBack copies the framebuffer into an image with row 0 at the top.
func (r *Renderer) ReadBack(target texgen.Surface) (*image.NRGBA, error) {
	s, err := r.surface(target)
	if err != nil {
		return nil, err
	}
	return flipRows(s.readPixels(), s.Width(), s.Height())
}

// Release deletes the framebuffer.
func (r *Renderer) Release(target texgen.Surface) {
	if s, ok := target.(*Surface); ok {
		s.destroy()
	}
}

func (r *Renderer) releaseTextures() {
	for img, id := range r.textures {
		gl.DeleteTextures(1, &id)
		delete(r.textures, img)
	}
}
