package factory

import (
	"io"

	"github.com/schollz/progressbar/v3"
	"go.uber.org/multierr"
	"go.uber.org/zap"

	"github.com/Faultbox/flexgen/pkg/texgen"
)

// Runner generates descriptors and saves their outputs.
type Runner struct {
	renderer  texgen.Renderer
	resources texgen.Resources
	outputDir string
	force     bool
	progress  io.Writer
	log       *zap.Logger
}

// RunnerOption configures a Runner.
type RunnerOption func(*Runner)

// WithOutputDir sets the directory output files are relative to.
func WithOutputDir(dir string) RunnerOption {
	return func(r *Runner) { r.outputDir = dir }
}

// WithForce regenerates even when every output exists.
func WithForce(force bool) RunnerOption {
	return func(r *Runner) { r.force = force }
}

// WithProgress draws a progress bar to w.
func WithProgress(w io.Writer) RunnerOption {
	return func(r *Runner) { r.progress = w }
}

// WithLogger sets the runner logger.
func WithLogger(l *zap.Logger) RunnerOption {
	return func(r *Runner) {
		if l != nil {
			r.log = l
		}
	}
}

// NewRunner creates a runner rendering through renderer.
func NewRunner(renderer texgen.Renderer, res texgen.Resources, opts ...RunnerOption) *Runner {
	r := &Runner{renderer: renderer, resources: res, log: zap.NewNop()}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Result summarizes one run.
type Result struct {
	Skipped   bool
	Generated int
	Written   []string
}

// Run generates d and writes its outputs. Generation is skipped when all
// outputs exist, unless forced. A failing texture does not stop the
// others; the returned error combines every failure.
func (r *Runner) Run(d *texgen.Descriptor) (*Result, error) {
	if !r.force && CheckOutputs(r.outputDir, d) {
		r.log.Info("outputs are up to date", zap.Int("outputs", len(d.Outputs())))
		return &Result{Skipped: true}, nil
	}

	var bar *progressbar.ProgressBar
	if r.progress != nil {
		bar = progressbar.NewOptions(len(d.Textures()),
			progressbar.OptionSetWriter(r.progress),
			progressbar.OptionSetDescription("textures"),
			progressbar.OptionShowCount())
	}
	pipeline := texgen.NewPipeline(r.renderer,
		texgen.WithResources(r.resources),
		texgen.WithLogger(r.log.Named("pipeline")),
		texgen.WithStageHook(func(name string, s texgen.Stage) {
			if bar != nil && s == texgen.StageFinalized {
				bar.Describe(name)
				_ = bar.Add(1)
			}
		}))

	images, genErr := pipeline.GenerateTextures(d, nil)
	if bar != nil {
		_ = bar.Finish()
	}

	written, saveErr := SaveOutputs(r.outputDir, d, images)
	for _, path := range written {
		r.log.Info("saved texture", zap.String("path", path))
	}
	return &Result{Generated: len(images), Written: written}, multierr.Combine(genErr, saveErr)
}
