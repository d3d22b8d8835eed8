// Package opengl renders texture views on the GPU. It opens a hidden SDL2
// window to own an OpenGL 4.1 core context and draws into offscreen
// framebuffers with GLSL versions of the built-in shaders.
//
// OpenGL calls must come from the thread that created the context. New
// locks the calling goroutine to its OS thread; use the Renderer from that
// goroutine only.
package opengl

import (
	"fmt"
	"runtime"

	"github.com/go-gl/gl/v4.1-core/gl"
	"github.com/veandco/go-sdl2/sdl"
	"go.uber.org/zap"
)

// Context wraps a hidden SDL2 window and its OpenGL context.
type Context struct {
	window    *sdl.Window
	glContext sdl.GLContext
	log       *zap.Logger
}

// NewContext creates the hidden window and makes its context current.
func NewContext(log *zap.Logger) (*Context, error) {
	runtime.LockOSThread()

	if err := sdl.Init(sdl.INIT_VIDEO); err != nil {
		runtime.UnlockOSThread()
		return nil, fmt.Errorf("SDL_Init failed: %w", err)
	}

	// OpenGL 4.1 Core Profile is the newest macOS supports
	sdl.GLSetAttribute(sdl.GL_CONTEXT_MAJOR_VERSION, 4)
	sdl.GLSetAttribute(sdl.GL_CONTEXT_MINOR_VERSION, 1)
	sdl.GLSetAttribute(sdl.GL_CONTEXT_PROFILE_MASK, sdl.GL_CONTEXT_PROFILE_CORE)
	sdl.GLSetAttribute(sdl.GL_DEPTH_SIZE, 24)

	c := &Context{log: log}

	var err error
	c.window, err = sdl.CreateWindow("flexgen",
		sdl.WINDOWPOS_UNDEFINED, sdl.WINDOWPOS_UNDEFINED, 1, 1,
		sdl.WINDOW_OPENGL|sdl.WINDOW_HIDDEN)
	if err != nil {
		c.quit()
		return nil, fmt.Errorf("SDL_CreateWindow failed: %w", err)
	}

	c.glContext, err = c.window.GLCreateContext()
	if err != nil {
		c.Close()
		return nil, fmt.Errorf("SDL_GL_CreateContext failed: %w", err)
	}

	if err := gl.Init(); err != nil {
		c.Close()
		return nil, fmt.Errorf("loading OpenGL functions: %w", err)
	}

	log.Info("OpenGL context created",
		zap.String("version", gl.GoStr(gl.GetString(gl.VERSION))),
		zap.String("renderer", gl.GoStr(gl.GetString(gl.RENDERER))))
	return c, nil
}

// Close destroys the context and window and shuts SDL2 down.
func (c *Context) Close() {
	if c.glContext != nil {
		sdl.GLDeleteContext(c.glContext)
		c.glContext = nil
	}
	if c.window != nil {
		c.window.Destroy()
		c.window = nil
	}
	c.quit()
}

func (c *Context) quit() {
	sdl.Quit()
	runtime.UnlockOSThread()
}
