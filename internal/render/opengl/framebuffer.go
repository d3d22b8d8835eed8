package opengl

import (
	"fmt"
	"image"

	"github.com/go-gl/gl/v4.1-core/gl"
)

// Surface is an offscreen render target with color and depth attachments.
type Surface struct {
	fbo          uint32
	colorTexture uint32
	depthRBO     uint32
	width        int32
	height       int32
}

// Width returns the framebuffer width in pixels.
func (s *Surface) Width() int { return int(s.width) }

// Height returns the framebuffer height in pixels.
func (s *Surface) Height() int { return int(s.height) }

func newSurface(width, height int) (*Surface, error) {
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("opengl: invalid surface size %dx%d", width, height)
	}
	s := &Surface{width: int32(width), height: int32(height)}
	if err := s.create(); err != nil {
		return nil, fmt.Errorf("creating framebuffer: %w", err)
	}
	return s, nil
}

func (s *Surface) create() error {
	gl.GenFramebuffers(1, &s.fbo)
	gl.BindFramebuffer(gl.FRAMEBUFFER, s.fbo)

	gl.GenTextures(1, &s.colorTexture)
	gl.BindTexture(gl.TEXTURE_2D, s.colorTexture)
	gl.TexImage2D(gl.TEXTURE_2D, 0, gl.RGBA8, s.width, s.height, 0, gl.RGBA, gl.UNSIGNED_BYTE, nil)
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_MIN_FILTER, gl.NEAREST)
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_MAG_FILTER, gl.NEAREST)
	gl.FramebufferTexture2D(gl.FRAMEBUFFER, gl.COLOR_ATTACHMENT0, gl.TEXTURE_2D, s.colorTexture, 0)

	gl.GenRenderbuffers(1, &s.depthRBO)
	gl.BindRenderbuffer(gl.RENDERBUFFER, s.depthRBO)
	gl.RenderbufferStorage(gl.RENDERBUFFER, gl.DEPTH_COMPONENT24, s.width, s.height)
	gl.FramebufferRenderbuffer(gl.FRAMEBUFFER, gl.DEPTH_ATTACHMENT, gl.RENDERBUFFER, s.depthRBO)

	status := gl.CheckFramebufferStatus(gl.FRAMEBUFFER)
	if status != gl.FRAMEBUFFER_COMPLETE {
		s.destroy()
		return fmt.Errorf("framebuffer incomplete: 0x%x", status)
	}

	// New surfaces start transparent with a far depth.
	gl.ClearColor(0, 0, 0, 0)
	gl.ClearDepth(1)
	gl.Clear(gl.COLOR_BUFFER_BIT | gl.DEPTH_BUFFER_BIT)

	gl.BindFramebuffer(gl.FRAMEBUFFER, 0)
	return nil
}

// bindViewport binds the framebuffer and maps vp, given with a top-left
// origin, to the bottom-left origin OpenGL uses. The scissor box follows
// the viewport so clears stay inside it.
func (s *Surface) bindViewport(vp image.Rectangle) {
	gl.BindFramebuffer(gl.FRAMEBUFFER, s.fbo)
	y := s.height - int32(vp.Max.Y)
	gl.Viewport(int32(vp.Min.X), y, int32(vp.Dx()), int32(vp.Dy()))
	gl.Scissor(int32(vp.Min.X), y, int32(vp.Dx()), int32(vp.Dy()))
}

// readPixels reads the color attachment bottom row first.
func (s *Surface) readPixels() []byte {
	pixels := make([]byte, s.width*s.height*4)

	var prevFBO int32
	gl.GetIntegerv(gl.FRAMEBUFFER_BINDING, &prevFBO)
	gl.BindFramebuffer(gl.FRAMEBUFFER, s.fbo)

	gl.PixelStorei(gl.PACK_ALIGNMENT, 1)
	gl.ReadPixels(0, 0, s.width, s.height, gl.RGBA, gl.UNSIGNED_BYTE, gl.Ptr(pixels))

	gl.BindFramebuffer(gl.FRAMEBUFFER, uint32(prevFBO))
	return pixels
}

func (s *Surface) destroy() {
	if s.fbo != 0 {
		gl.DeleteFramebuffers(1, &s.fbo)
		s.fbo = 0
	}
	if s.colorTexture != 0 {
		gl.DeleteTextures(1, &s.colorTexture)
		s.colorTexture = 0
	}
	if s.depthRBO != 0 {
		gl.DeleteRenderbuffers(1, &s.depthRBO)
		s.depthRBO = 0
	}
}

// flipRows copies bottom-up RGBA rows into a top-down image.
func flipRows(pixels []byte, width, height int) (*image.NRGBA, error) {
	if len(pixels) != width*height*4 {
		return nil, fmt.Errorf("pixel data size mismatch: expected %d, got %d", width*height*4, len(pixels))
	}
	img := image.NewNRGBA(image.Rect(0, 0, width, height))
	rowSize := width * 4
	for y := 0; y < height; y++ {
		srcOffset := (height - 1 - y) * rowSize
		dstOffset := y * img.Stride
		copy(img.Pix[dstOffset:dstOffset+rowSize], pixels[srcOffset:srcOffset+rowSize])
	}
	return img, nil
}
