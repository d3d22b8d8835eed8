// Package factory loads texture factory files, runs them through the
// texture pipeline and writes the declared outputs.
package factory

import (
	"errors"
	"fmt"
	"image"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/Faultbox/flexgen/internal/resource"
	"github.com/Faultbox/flexgen/pkg/imaging"
	"github.com/Faultbox/flexgen/pkg/material"
	"github.com/Faultbox/flexgen/pkg/math"
	"github.com/Faultbox/flexgen/pkg/texgen"
)

// ErrInvalidFile is wrapped by every load error caused by the file
// contents.
var ErrInvalidFile = errors.New("invalid factory file")

// File is the YAML form of a texture factory.
type File struct {
	Textures []TextureEntry `yaml:"textures"`
	Outputs  []OutputEntry  `yaml:"outputs"`
}

// TextureEntry describes one generated texture and its variations.
type TextureEntry struct {
	Name       string           `yaml:"name"`
	Color      []float32        `yaml:"color"`
	Width      int              `yaml:"width"`
	Height     int              `yaml:"height"`
	Geometries []GeometryEntry  `yaml:"geometries"`
	Cameras    []CameraEntry    `yaml:"cameras"`
	Inputs     []InputEntry     `yaml:"inputs"`
	Params     []ParamEntry     `yaml:"params"`
	RenderPath string           `yaml:"renderpath"`
	Variations []VariationEntry `yaml:"variations"`
}

// GeometryEntry names a model or a procedural generator and its materials.
type GeometryEntry struct {
	Model     string   `yaml:"model"`
	Generator string   `yaml:"generator"`
	Steps     int      `yaml:"steps"`
	Materials []string `yaml:"materials"`
}

// CameraEntry overrides parts of the camera fitted to the geometry.
type CameraEntry struct {
	Position []float32 `yaml:"position"`
	Rotation []float32 `yaml:"rotation"`
	Size     []float32 `yaml:"size"`
	FarClip  float32   `yaml:"far_clip"`
	Viewport []int     `yaml:"viewport"`
}

// InputEntry binds a texture to a material unit.
type InputEntry struct {
	Unit    string `yaml:"unit"`
	Texture string `yaml:"texture"`
}

// ParamEntry sets a shader parameter from one to four floats.
type ParamEntry struct {
	Name  string    `yaml:"name"`
	Value []float32 `yaml:"value"`
}

// VariationEntry renders the texture again under another name and render path.
type VariationEntry struct {
	Name       string `yaml:"name"`
	RenderPath string `yaml:"renderpath"`
}

// OutputEntry writes a generated texture to file.
type OutputEntry struct {
	Name string `yaml:"name"`
	File string `yaml:"file"`
}

// Loader turns factory files into descriptors, resolving named resources.
type Loader struct {
	res texgen.Resources
	log *zap.Logger
}

// LoaderOption configures a Loader.
type LoaderOption func(*Loader)

// WithLoaderLogger sets the loader logger.
func WithLoaderLogger(l *zap.Logger) LoaderOption {
	return func(ld *Loader) {
		if l != nil {
			ld.log = l
		}
	}
}

// NewLoader creates a loader resolving names through res.
func NewLoader(res texgen.Resources, opts ...LoaderOption) *Loader {
	l := &Loader{res: res, log: zap.NewNop()}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// LoadFile reads and loads a factory file. "@" in resource names stands
// for the directory of the file.
func (l *Loader) LoadFile(path string) (*texgen.Descriptor, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	d, err := l.Load(data, filepath.Dir(path))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return d, nil
}

// Load parses factory YAML. dir replaces "@" in resource names.
func (l *Loader) Load(data []byte, dir string) (*texgen.Descriptor, error) {
	var f File
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidFile, err)
	}
	return l.Build(&f, dir)
}

// Build converts a parsed factory file.
func (l *Loader) Build(f *File, dir string) (*texgen.Descriptor, error) {
	expand := func(name string) string {
		name = strings.TrimSpace(name)
		if dir == "" {
			name = strings.ReplaceAll(name, "@/", "")
			return strings.ReplaceAll(name, "@", "")
		}
		prefix := filepath.ToSlash(dir) + "/"
		name = strings.ReplaceAll(name, "@/", prefix)
		return strings.ReplaceAll(name, "@", prefix)
	}

	d := &texgen.Descriptor{}
	var generated []string
	for i := range f.Textures {
		names, err := l.addTexture(d, &f.Textures[i], expand)
		if err != nil {
			return nil, err
		}
		generated = append(generated, names...)
	}

	for _, out := range f.Outputs {
		if err := d.AddOutput(out.Name, expand(out.File)); err != nil {
			return nil, fmt.Errorf("%w: %w", ErrInvalidFile, err)
		}
	}
	if len(f.Outputs) == 0 {
		for _, name := range generated {
			if err := d.AddOutput(name, name+".png"); err != nil {
				return nil, err
			}
		}
	}
	l.log.Debug("loaded texture factory",
		zap.Int("textures", len(d.Textures())),
		zap.Int("outputs", len(d.Outputs())))
	return d, nil
}

func (l *Loader) addTexture(d *texgen.Descriptor, e *TextureEntry, expand func(string) string) ([]string, error) {
	if len(e.Color) > 0 {
		if e.Name == "" {
			return nil, fmt.Errorf("%w: texture name must be specified and non-empty", ErrInvalidFile)
		}
		c, err := resource.Vec4(e.Color, 1)
		if err != nil {
			return nil, fmt.Errorf("%w: texture %q color: %v", ErrInvalidFile, e.Name, err)
		}
		if err := d.AddTexture(e.Name, &texgen.TextureDesc{Width: 1, Height: 1, Color: imaging.FromVec4(c)}); err != nil {
			return nil, fmt.Errorf("%w: %w", ErrInvalidFile, err)
		}
		return nil, nil
	}

	if e.Width <= 0 {
		return nil, fmt.Errorf("%w: texture %q width must be specified and positive", ErrInvalidFile, e.Name)
	}
	if e.Height <= 0 {
		return nil, fmt.Errorf("%w: texture %q height must be specified and positive", ErrInvalidFile, e.Name)
	}
	desc := &texgen.TextureDesc{
		Width:      e.Width,
		Height:     e.Height,
		Textures:   map[material.TextureUnit]string{},
		Parameters: map[string]math.Vec4{},
	}

	var box math.BoundingBox
	for gi, g := range e.Geometries {
		gd, err := l.geometry(g, expand)
		if err != nil {
			return nil, fmt.Errorf("texture %q geometry %d: %w", e.Name, gi, err)
		}
		box.MergeBox(gd.Model.BoundingBox)
		desc.Geometries = append(desc.Geometries, gd)
	}

	for ci, c := range e.Cameras {
		cam, err := camera(c, box, e.Width, e.Height)
		if err != nil {
			return nil, fmt.Errorf("%w: texture %q camera %d: %v", ErrInvalidFile, e.Name, ci, err)
		}
		desc.Cameras = append(desc.Cameras, cam)
	}
	if len(desc.Cameras) == 0 {
		desc.Cameras = append(desc.Cameras, texgen.IdentityCamera(e.Width, e.Height, math.Vec3{}))
	}

	for _, in := range e.Inputs {
		unit, err := material.ParseTextureUnit(in.Unit)
		if err != nil {
			return nil, fmt.Errorf("%w: texture %q: %w", ErrInvalidFile, e.Name, err)
		}
		if strings.TrimSpace(in.Texture) == "" {
			return nil, fmt.Errorf("%w: texture %q: input texture name must be non-empty", ErrInvalidFile, e.Name)
		}
		desc.Textures[unit] = expand(in.Texture)
	}

	for _, p := range e.Params {
		v, err := resource.Vec4(p.Value, 0)
		if err != nil {
			return nil, fmt.Errorf("%w: texture %q param %q: %v", ErrInvalidFile, e.Name, p.Name, err)
		}
		desc.Parameters[p.Name] = v
	}

	variations := e.Variations
	if len(variations) == 0 {
		variations = []VariationEntry{{Name: e.Name, RenderPath: e.RenderPath}}
	}
	var names []string
	for _, v := range variations {
		if v.Name == "" {
			return nil, fmt.Errorf("%w: texture variation name must be specified and non-empty", ErrInvalidFile)
		}
		rpName := expand(v.RenderPath)
		if rpName == "" {
			rpName = resource.DefaultRenderPath
		}
		rp, err := l.res.RenderPath(rpName)
		if err != nil {
			return nil, fmt.Errorf("texture variation %q: %w", v.Name, err)
		}
		vd := desc.Clone()
		vd.RenderPath = rp
		if err := d.AddTexture(v.Name, vd); err != nil {
			return nil, fmt.Errorf("%w: texture variation %q must be unique: %w", ErrInvalidFile, v.Name, err)
		}
		names = append(names, v.Name)
	}
	return names, nil
}

func (l *Loader) geometry(g GeometryEntry, expand func(string) string) (texgen.GeometryDesc, error) {
	var gd texgen.GeometryDesc
	for _, name := range g.Materials {
		name = expand(name)
		m, err := l.res.Material(name)
		if err != nil {
			l.log.Error("source geometry material was not found", zap.String("material", name))
			return gd, err
		}
		gd.Materials = append(gd.Materials, m)
		gd.MaterialNames = append(gd.MaterialNames, name)
	}

	switch {
	case g.Model != "":
		gd.ModelName = expand(g.Model)
		m, err := l.res.Model(gd.ModelName)
		if err != nil {
			l.log.Error("source geometry model was not found", zap.String("model", gd.ModelName))
			return gd, err
		}
		gd.Model = m
	case g.Generator != "":
		var mat *material.Material
		if len(gd.Materials) > 0 {
			mat = gd.Materials[0]
		}
		m, err := Generate(g.Generator, g.Steps, mat)
		if err != nil {
			return gd, fmt.Errorf("%w: %v", ErrInvalidFile, err)
		}
		gd.Model = m
		gd.ModelName = m.Name
	default:
		return gd, fmt.Errorf("%w: geometry needs a model or a generator", ErrInvalidFile)
	}
	return gd, nil
}

// camera fits an orthographic camera to box and applies the explicit
// fields of c. Without a bounding box the identity camera is the base.
func camera(c CameraEntry, box math.BoundingBox, w, h int) (texgen.OrthoCamera, error) {
	cam := texgen.IdentityCamera(w, h, math.Vec3{})
	if box.Defined {
		cam = texgen.FitCamera(box, w, h)
	}
	if len(c.Position) > 0 {
		if len(c.Position) != 3 {
			return cam, fmt.Errorf("position needs 3 values, got %d", len(c.Position))
		}
		cam.Position = math.Vec3{X: c.Position[0], Y: c.Position[1], Z: c.Position[2]}
	}
	if len(c.Rotation) > 0 {
		if len(c.Rotation) != 3 {
			return cam, fmt.Errorf("rotation needs 3 angles, got %d", len(c.Rotation))
		}
		cam.Rotation = math.QuatFromEuler(c.Rotation[0], c.Rotation[1], c.Rotation[2])
	}
	if len(c.Size) > 0 {
		if len(c.Size) != 2 {
			return cam, fmt.Errorf("size needs 2 values, got %d", len(c.Size))
		}
		cam.Size = math.Vec2{X: c.Size[0], Y: c.Size[1]}
	}
	if c.FarClip != 0 {
		cam.FarClip = c.FarClip
	}
	if len(c.Viewport) > 0 {
		if len(c.Viewport) != 4 {
			return cam, fmt.Errorf("viewport needs 4 values, got %d", len(c.Viewport))
		}
		cam.Viewport = image.Rect(c.Viewport[0], c.Viewport[1], c.Viewport[2], c.Viewport[3])
	}
	return cam, cam.Validate()
}
