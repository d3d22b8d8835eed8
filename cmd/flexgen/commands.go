package main

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"go.uber.org/multierr"
	"go.uber.org/zap"

	"github.com/Faultbox/flexgen/internal/config"
	"github.com/Faultbox/flexgen/internal/factory"
	"github.com/Faultbox/flexgen/internal/logger"
	"github.com/Faultbox/flexgen/internal/resource"
	"github.com/Faultbox/flexgen/pkg/imaging"
	"github.com/Faultbox/flexgen/pkg/material"
	"github.com/Faultbox/flexgen/pkg/math"
	"github.com/Faultbox/flexgen/pkg/meshbuild"
	"github.com/Faultbox/flexgen/pkg/sdf"
	"github.com/Faultbox/flexgen/pkg/texgen"
)

func newResources(cfg *config.Config) (*resource.Cache, error) {
	cache := resource.New(resource.WithLogger(logger.Named("resource")))
	for _, dir := range cfg.Resources.Dirs {
		if err := cache.AddDir(dir); err != nil {
			return nil, err
		}
	}
	return cache, nil
}

func cmdTextures(cfg *config.Config, args []string) error {
	fs := flag.NewFlagSet("textures", flag.ExitOnError)
	quiet := fs.Bool("q", false, "Do not show progress")
	fs.Parse(args)

	if fs.NArg() < 1 {
		fmt.Fprintln(os.Stderr, "Usage: flexgen textures [-q] <factory.yaml>...")
		os.Exit(1)
	}

	cache, err := newResources(cfg)
	if err != nil {
		return err
	}
	renderer, release, err := newRenderer(cfg)
	if err != nil {
		return err
	}
	defer release()

	opts := []factory.RunnerOption{
		factory.WithOutputDir(cfg.Output.Dir),
		factory.WithForce(cfg.Output.Force),
		factory.WithLogger(logger.Named("factory")),
	}
	if !*quiet {
		opts = append(opts, factory.WithProgress(os.Stderr))
	}
	runner := factory.NewRunner(renderer, cache, opts...)
	loader := factory.NewLoader(cache, factory.WithLoaderLogger(logger.Named("loader")))

	var errs error
	for _, path := range fs.Args() {
		d, err := loader.LoadFile(path)
		if err != nil {
			errs = multierr.Append(errs, err)
			continue
		}
		res, err := runner.Run(d)
		if err != nil {
			errs = multierr.Append(errs, fmt.Errorf("%s: %w", path, err))
		}
		if res != nil {
			logger.Info("factory done",
				zap.String("file", path),
				zap.Bool("skipped", res.Skipped),
				zap.Int("generated", res.Generated),
				zap.Int("written", len(res.Written)))
		}
	}
	return errs
}

func cmdFillGaps(cfg *config.Config, args []string) error {
	fs := flag.NewFlagSet("fillgaps", flag.ExitOnError)
	downsample := fs.Int("downsample", cfg.GapFill.Downsample, "Build the distance field N mip levels down")
	luma := fs.Bool("luma", !cfg.GapFill.Transparent, "Treat black pixels as gaps instead of transparent ones")
	passes := fs.Int("passes", 0, "Use N render dilation passes instead of the distance field")
	fs.Parse(args)

	if fs.NArg() < 2 {
		fmt.Fprintln(os.Stderr, "Usage: flexgen fillgaps [-downsample N] [-luma] [-passes N] <in> <out>")
		os.Exit(1)
	}
	in, out := fs.Arg(0), fs.Arg(1)

	img, err := resource.LoadImage(in)
	if err != nil {
		return fmt.Errorf("loading %s: %w", in, err)
	}
	transparent := !*luma

	result := img
	if *passes > 0 {
		renderer, release, err := newRenderer(cfg)
		if err != nil {
			return err
		}
		defer release()

		cache, err := newResources(cfg)
		if err != nil {
			return err
		}
		rp, err := cache.RenderPath(resource.DefaultRenderPath)
		if err != nil {
			return err
		}
		pipeline := texgen.NewPipeline(renderer,
			texgen.WithResources(cache),
			texgen.WithLogger(logger.Named("pipeline")))
		result, err = pipeline.FillTextureGaps(img, &texgen.FillParams{
			Name:        filepath.Base(out),
			Depth:       *passes,
			Transparent: transparent,
			RenderPath:  rp,
			Material:    material.New("FillGaps", texgen.ShaderFillGaps),
		})
		if err != nil {
			return err
		}
	} else {
		result = sdf.FillGaps(img, *downsample, transparent)
	}

	out = factory.OutputPath(cfg.Output.Dir, out)
	if err := factory.SavePNG(out, result); err != nil {
		return err
	}
	logger.Info("filled gaps", zap.String("input", in), zap.String("output", out))
	return nil
}

func cmdNoise(cfg *config.Config, args []string) error {
	nc := cfg.Noise
	fs := flag.NewFlagSet("noise", flag.ExitOnError)
	size := fs.Int("size", nc.Size, "Texture width and height")
	width := fs.Int("width", 0, "Texture width (overrides -size)")
	height := fs.Int("height", 0, "Texture height (overrides -size)")
	octaves := fs.String("octaves", formatFloats(nc.Octaves), "Comma separated octave magnitudes")
	scale := fs.Float64("scale", 4, "Noise scale of the first octave")
	seed := fs.Float64("seed", float64(nc.Seed), "Noise seed")
	bias := fs.Float64("bias", float64(nc.Bias), "Value added after normalization")
	contrast := fs.Float64("contrast", float64(nc.Contrast), "Contrast in [0, 1]")
	first := fs.String("first", "0", "Color of value 0 (1 to 4 comma separated floats)")
	second := fs.String("second", "1", "Color of value 1 (1 to 4 comma separated floats)")
	fs.Parse(args)

	if fs.NArg() < 1 {
		fmt.Fprintln(os.Stderr, "Usage: flexgen noise [-size N] [-octaves 1,0.5] <out.png>")
		os.Exit(1)
	}

	magnitudes, err := parseFloats(*octaves)
	if err != nil {
		return fmt.Errorf("octaves: %w", err)
	}
	firstColor, err := parseColor(*first)
	if err != nil {
		return fmt.Errorf("first color: %w", err)
	}
	secondColor, err := parseColor(*second)
	if err != nil {
		return fmt.Errorf("second color: %w", err)
	}

	params := &texgen.NoiseParams{
		Name:        filepath.Base(fs.Arg(0)),
		Material:    material.New("Noise", texgen.ShaderNoise),
		Width:       *size,
		Height:      *size,
		FirstColor:  firstColor,
		SecondColor: secondColor,
		Bias:        float32(*bias),
		Contrast:    float32(*contrast),
		Range:       math.Vec2{X: 0, Y: 1},
	}
	if *width > 0 {
		params.Width = *width
	}
	if *height > 0 {
		params.Height = *height
	}
	s := float32(*scale)
	for i, m := range magnitudes {
		params.Octaves = append(params.Octaves, texgen.Octave{
			Scale:     math.Vec2{X: s, Y: s},
			Magnitude: m,
			Seed:      float32(*seed) + float32(i),
		})
		s *= 2
	}

	renderer, release, err := newRenderer(cfg)
	if err != nil {
		return err
	}
	defer release()
	cache, err := newResources(cfg)
	if err != nil {
		return err
	}
	if params.RenderPath, err = cache.RenderPath(resource.DefaultRenderPath); err != nil {
		return err
	}

	pipeline := texgen.NewPipeline(renderer,
		texgen.WithResources(cache),
		texgen.WithLogger(logger.Named("pipeline")))
	img, err := pipeline.GeneratePerlinNoise(params)
	if err != nil {
		return err
	}

	out := factory.OutputPath(cfg.Output.Dir, fs.Arg(0))
	if err := factory.SavePNG(out, img); err != nil {
		return err
	}
	logger.Info("generated noise",
		zap.String("output", out),
		zap.Int("octaves", len(params.Octaves)))
	return nil
}

func cmdMesh(cfg *config.Config, args []string) error {
	fs := flag.NewFlagSet("mesh", flag.ExitOnError)
	steps := fs.Int("steps", 8, "Grid cells per side at LOD 0")
	lods := fs.Int("lods", 1, "Number of LOD levels, each halving the steps")
	lodDistance := fs.Float64("lod-distance", 10, "Switch distance between LOD levels")
	matName := fs.String("material", "default", "Material name stored in the model")
	fs.Parse(args)

	if fs.NArg() < 1 {
		fmt.Fprintln(os.Stderr, "Usage: flexgen mesh [-steps N] [-lods N] <out.glb>")
		os.Exit(1)
	}
	if *steps <= 0 || *lods <= 0 {
		return fmt.Errorf("steps and lods must be positive, got %d and %d", *steps, *lods)
	}

	mat := material.New(*matName, texgen.ShaderDiffuse)
	model := factory.Plane(*steps, *lods, mat, meshbuild.WithLogger(logger.Named("meshbuild")))
	// Level n starts at n times the switch distance.
	distances := make([]float32, *lods-1)
	for i := range distances {
		distances[i] = float32(i+1) * float32(*lodDistance)
	}
	meshbuild.SetLodDistances(model, distances...)

	out := factory.OutputPath(cfg.Output.Dir, fs.Arg(0))
	if err := os.MkdirAll(filepath.Dir(out), 0755); err != nil {
		return err
	}
	if err := meshbuild.WriteGLB(model, out); err != nil {
		return err
	}
	logger.Info("wrote mesh",
		zap.String("output", out),
		zap.Int("lods", model.NumLodLevels(0)),
		zap.Int("vertices", model.VertexBuffers[0].Count))
	return nil
}

func parseFloats(s string) ([]float32, error) {
	var values []float32
	for _, field := range strings.Split(s, ",") {
		field = strings.TrimSpace(field)
		if field == "" {
			continue
		}
		v, err := strconv.ParseFloat(field, 32)
		if err != nil {
			return nil, err
		}
		values = append(values, float32(v))
	}
	return values, nil
}

func formatFloats(values []float32) string {
	parts := make([]string, len(values))
	for i, v := range values {
		parts[i] = strconv.FormatFloat(float64(v), 'g', -1, 32)
	}
	return strings.Join(parts, ",")
}

func parseColor(s string) (imaging.Color, error) {
	values, err := parseFloats(s)
	if err != nil {
		return imaging.Color{}, err
	}
	v, err := resource.Vec4(values, 1)
	if err != nil {
		return imaging.Color{}, err
	}
	return imaging.FromVec4(v), nil
}
