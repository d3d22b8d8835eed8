package main

import (
	"fmt"
	"sort"

	"github.com/Faultbox/flexgen/internal/config"
	"github.com/Faultbox/flexgen/internal/logger"
	"github.com/Faultbox/flexgen/internal/render/soft"
	"github.com/Faultbox/flexgen/pkg/texgen"
)

// backendFunc opens a renderer and returns the function releasing it.
type backendFunc func(cfg *config.Config) (texgen.Renderer, func(), error)

// backends holds the renderers compiled into this binary. The OpenGL
// backend registers itself unless built with the nogl tag.
var backends = map[string]backendFunc{
	config.BackendSoft: func(*config.Config) (texgen.Renderer, func(), error) {
		return soft.New(soft.WithLogger(logger.Named("soft"))), func() {}, nil
	},
}

func registerBackend(name string, fn backendFunc) {
	backends[name] = fn
}

func backendNames() []string {
	names := make([]string, 0, len(backends))
	for name := range backends {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// newRenderer opens the configured backend. The returned function
// releases it.
func newRenderer(cfg *config.Config) (texgen.Renderer, func(), error) {
	name := cfg.Render.Backend
	if name == "" {
		name = config.BackendSoft
	}
	open, ok := backends[name]
	if !ok {
		return nil, nil, fmt.Errorf("render backend %q not available in this build (have %v)", name, backendNames())
	}
	return open(cfg)
}
