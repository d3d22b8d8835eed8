package texgen

import (
	"errors"
	"fmt"
	"image"

	"go.uber.org/multierr"
	"go.uber.org/zap"

	"github.com/Faultbox/flexgen/pkg/imaging"
	"github.com/Faultbox/flexgen/pkg/material"
	"github.com/Faultbox/flexgen/pkg/meshbuild"
)

// Stage is the progress of one texture through the pipeline.
type Stage int

// Pipeline stages.
const (
	StageUnresolved Stage = iota
	StageViewsConstructed
	StageRendered
	StageGapFilled
	StageNoiseComposed
	StageFinalized
)

func (s Stage) String() string {
	switch s {
	case StageUnresolved:
		return "unresolved"
	case StageViewsConstructed:
		return "views_constructed"
	case StageRendered:
		return "rendered"
	case StageGapFilled:
		return "gap_filled"
	case StageNoiseComposed:
		return "noise_composed"
	case StageFinalized:
		return "finalized"
	default:
		return fmt.Sprintf("Stage(%d)", s)
	}
}

// StageHook observes stage transitions.
type StageHook func(name string, stage Stage)

// Pipeline renders texture descriptions. It owns the quad model used by
// full-texture passes. A Pipeline must not be used concurrently.
type Pipeline struct {
	renderer  Renderer
	resources Resources
	log       *zap.Logger
	hook      StageHook
	quad      *meshbuild.Model
}

// Option configures a Pipeline.
type Option func(*Pipeline)

// WithLogger sets the pipeline logger.
func WithLogger(l *zap.Logger) Option {
	return func(p *Pipeline) {
		if l != nil {
			p.log = l
		}
	}
}

// WithResources sets the fallback lookup for names missing from texture
// maps.
func WithResources(r Resources) Option {
	return func(p *Pipeline) { p.resources = r }
}

// WithStageHook registers a stage observer.
func WithStageHook(h StageHook) Option {
	return func(p *Pipeline) { p.hook = h }
}

// WithQuadModel replaces the lazily built unit quad.
func WithQuadModel(m *meshbuild.Model) Option {
	return func(p *Pipeline) { p.quad = m }
}

// NewPipeline creates a pipeline drawing through r.
func NewPipeline(r Renderer, opts ...Option) *Pipeline {
	p := &Pipeline{renderer: r, log: zap.NewNop()}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// QuadModel returns the unit quad, building it on first use.
func (p *Pipeline) QuadModel() *meshbuild.Model {
	if p.quad == nil {
		p.quad = meshbuild.NewQuadModel()
	}
	return p.quad
}

func (p *Pipeline) stage(name string, s Stage) {
	p.log.Debug("texture stage", zap.String("texture", name), zap.Stringer("stage", s))
	if p.hook != nil {
		p.hook(name, s)
	}
}

// ResolveTexture looks name up in textures, then in the resources.
func (p *Pipeline) ResolveTexture(name string, textures TextureMap) (*material.Texture, error) {
	if tex, ok := textures[name]; ok && tex != nil {
		return tex, nil
	}
	if p.resources == nil {
		return nil, fmt.Errorf("input texture %q: %w", name, ErrNotFound)
	}
	tex, err := p.resources.Texture(name)
	if err != nil {
		return nil, fmt.Errorf("input texture %q: %w", name, err)
	}
	return tex, nil
}

// ConstructViews builds one transient view per camera. Materials are
// cloned before texture and parameter overrides are applied, so shared
// materials are never modified. Input textures that cannot be resolved
// are logged and skipped. Each geometry draws the LOD level its
// switch distances select for the camera.
func (p *Pipeline) ConstructViews(desc *TextureDesc, textures TextureMap) ([]View, error) {
	overrides := make(map[material.TextureUnit]*material.Texture, len(desc.Textures))
	for unit, name := range desc.Textures {
		tex, err := p.ResolveTexture(name, textures)
		if err != nil {
			// The material keeps its own binding for this unit.
			p.log.Warn("cannot resolve input texture",
				zap.String("texture", name), zap.Stringer("unit", unit), zap.Error(err))
			continue
		}
		overrides[unit] = tex
	}

	views := make([]View, 0, len(desc.Cameras))
	for _, cam := range desc.Cameras {
		if err := cam.Validate(); err != nil {
			return nil, err
		}
		view := View{
			Camera:     cam,
			Viewport:   cam.Viewport,
			RenderPath: desc.RenderPath,
		}
		for gi, g := range desc.Geometries {
			if g.Model == nil {
				return nil, fmt.Errorf("geometry %d model %q: %w", gi, g.ModelName, ErrMissingModel)
			}
			sm := meshbuild.NewStaticModel(g.Model, false)
			sm.Reset(cam.LodDistance())
			obj := Object{
				Model:     g.Model,
				Materials: make([]*material.Material, len(g.Materials)),
				Lods:      sm.Lods(),
			}
			for mi, m := range g.Materials {
				if m == nil {
					name := ""
					if mi < len(g.MaterialNames) {
						name = g.MaterialNames[mi]
					}
					return nil, fmt.Errorf("geometry %d material %d %q: %w", gi, mi, name, ErrMissingMaterial)
				}
				clone := m.Clone()
				for unit, tex := range overrides {
					clone.SetTexture(unit, tex)
				}
				for name, value := range desc.Parameters {
					clone.SetParameter(name, value)
				}
				obj.Materials[mi] = clone
			}
			view.Objects = append(view.Objects, obj)
		}
		views = append(views, view)
	}
	return views, nil
}

// RenderViews draws views into a fresh w x h surface and reads it back.
func (p *Pipeline) RenderViews(w, h int, views []View) (*image.NRGBA, error) {
	if p.renderer == nil {
		return nil, ErrNoRenderer
	}
	target, err := p.renderer.NewSurface(max(w, 1), max(h, 1))
	if err != nil {
		return nil, fmt.Errorf("allocate %dx%d surface: %w", w, h, err)
	}
	defer p.renderer.Release(target)

	for i, view := range views {
		if err := p.renderer.Render(target, view); err != nil {
			return nil, fmt.Errorf("render view %d: %w", i, err)
		}
	}
	img, err := p.renderer.ReadBack(target)
	if err != nil {
		return nil, fmt.Errorf("read back surface: %w", err)
	}
	return img, nil
}

// RenderTexture produces the image of one description.
func (p *Pipeline) RenderTexture(desc *TextureDesc, textures TextureMap) (*image.NRGBA, error) {
	img, err := p.renderNamed("", desc, textures)
	if err != nil {
		return nil, err
	}
	p.stage("", StageFinalized)
	return img, nil
}

func (p *Pipeline) renderNamed(name string, desc *TextureDesc, textures TextureMap) (*image.NRGBA, error) {
	p.stage(name, StageUnresolved)
	w, h := desc.Size()
	if !desc.Renderable() {
		return imaging.New(w, h, desc.Color), nil
	}

	views, err := p.ConstructViews(desc, textures)
	if err != nil {
		return nil, err
	}
	p.stage(name, StageViewsConstructed)

	img, err := p.RenderViews(w, h, views)
	if err != nil {
		return nil, err
	}
	p.stage(name, StageRendered)
	return img, nil
}

// GenerateTextures renders every texture of d in order. Each result is
// added to the texture map under its name, so later textures can use
// earlier ones as inputs. A failing texture is logged and skipped; the
// returned error combines every failure.
func (p *Pipeline) GenerateTextures(d *Descriptor, overrides TextureMap) (map[string]*image.NRGBA, error) {
	textures := make(TextureMap, len(overrides)+len(d.textures))
	for k, v := range overrides {
		textures[k] = v
	}

	results := make(map[string]*image.NRGBA, len(d.textures))
	var errs error
	for _, entry := range d.textures {
		img, err := p.renderNamed(entry.Name, entry.Desc, textures)
		if err != nil {
			p.log.Error("cannot generate texture",
				zap.String("texture", entry.Name), zap.Error(err))
			errs = multierr.Append(errs, fmt.Errorf("texture %q: %w", entry.Name, err))
			continue
		}
		p.stage(entry.Name, StageFinalized)
		results[entry.Name] = img
		textures.Add(entry.Name, img)
	}
	return results, errs
}

// IsResolutionError reports whether err comes from a missing or invalid
// named input rather than from the renderer.
func IsResolutionError(err error) bool {
	return errors.Is(err, ErrNotFound) ||
		errors.Is(err, ErrMissingModel) ||
		errors.Is(err, ErrMissingMaterial) ||
		errors.Is(err, ErrInvalidCamera) ||
		errors.Is(err, material.ErrUnknownTextureUnit)
}
