package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Faultbox/flexgen/internal/config"
	"github.com/Faultbox/flexgen/internal/render/soft"
	"github.com/Faultbox/flexgen/pkg/imaging"
)

func TestParseFloats(t *testing.T) {
	values, err := parseFloats(" 1, 0.5,,0.25 ")
	require.NoError(t, err)
	assert.Equal(t, []float32{1, 0.5, 0.25}, values)

	_, err = parseFloats("1,x")
	assert.Error(t, err)

	assert.Equal(t, "1,0.5,0.25", formatFloats(values))
}

func TestParseColor(t *testing.T) {
	c, err := parseColor("0.5")
	require.NoError(t, err)
	assert.Equal(t, imaging.Color{R: 0.5, G: 0.5, B: 0.5, A: 1}, c)

	c, err = parseColor("1,0,0,0.25")
	require.NoError(t, err)
	assert.Equal(t, imaging.Color{R: 1, A: 0.25}, c)

	_, err = parseColor("1,2,3,4,5")
	assert.Error(t, err)
}

func TestNewRendererSoft(t *testing.T) {
	cfg := config.Default()
	r, release, err := newRenderer(cfg)
	require.NoError(t, err)
	defer release()
	assert.IsType(t, &soft.Renderer{}, r)
}

func TestNewRendererMissingBackend(t *testing.T) {
	gl, ok := backends[config.BackendGL]
	delete(backends, config.BackendGL)
	defer func() {
		if ok {
			backends[config.BackendGL] = gl
		}
	}()

	cfg := config.Default()
	cfg.Render.Backend = config.BackendGL
	_, _, err := newRenderer(cfg)
	require.Error(t, err)
	assert.Contains(t, err.Error(), `"gl"`)
	assert.Contains(t, err.Error(), "soft")
}
