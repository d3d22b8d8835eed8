//go:build !nogl

package main

import (
	"github.com/Faultbox/flexgen/internal/config"
	"github.com/Faultbox/flexgen/internal/logger"
	"github.com/Faultbox/flexgen/internal/render/opengl"
	"github.com/Faultbox/flexgen/pkg/texgen"
)

func init() {
	registerBackend(config.BackendGL, func(*config.Config) (texgen.Renderer, func(), error) {
		r, err := opengl.New(opengl.WithLogger(logger.Named("opengl")))
		if err != nil {
			return nil, nil, err
		}
		return r, r.Close, nil
	})
}
