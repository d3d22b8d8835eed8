package resource

import (
	"bytes"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"os"
	"path/filepath"
	"strings"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	"gopkg.in/yaml.v3"

	"github.com/Faultbox/flexgen/pkg/imaging"
	"github.com/Faultbox/flexgen/pkg/material"
	"github.com/Faultbox/flexgen/pkg/math"
	"github.com/Faultbox/flexgen/pkg/texgen"
)

// LoadImage decodes a PNG, JPEG, GIF, BMP, TIFF or TGA file.
func LoadImage(path string) (*image.NRGBA, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	if strings.EqualFold(filepath.Ext(path), ".tga") {
		return DecodeTGA(data)
	}
	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", path, err)
	}
	return imaging.ToNRGBA(img), nil
}

// MaterialFile is the YAML form of a material.
//
//	name: ground
//	shader: Diffuse
//	textures:
//	  diffuse: textures/grass.png
//	parameters:
//	  MatDiffColor: [1, 1, 1, 1]
type MaterialFile struct {
	Name       string               `yaml:"name"`
	Shader     string               `yaml:"shader"`
	Textures   map[string]string    `yaml:"textures"`
	Parameters map[string][]float32 `yaml:"parameters"`
}

// RenderPathFile is the YAML form of a render path.
type RenderPathFile struct {
	Name       string    `yaml:"name"`
	ClearColor []float32 `yaml:"clear_color"`
}

func (c *Cache) loadMaterial(path string) (*material.Material, error) {
	var f MaterialFile
	if err := readYAML(path, &f); err != nil {
		return nil, err
	}
	return c.BuildMaterial(&f, path)
}

// BuildMaterial resolves the textures of f and returns the material.
func (c *Cache) BuildMaterial(f *MaterialFile, source string) (*material.Material, error) {
	name := f.Name
	if name == "" {
		name = strings.TrimSuffix(filepath.Base(source), filepath.Ext(source))
	}
	shader := f.Shader
	if shader == "" {
		shader = texgen.ShaderDiffuse
	}
	m := material.New(name, shader)
	for unitName, texName := range f.Textures {
		unit, err := material.ParseTextureUnit(unitName)
		if err != nil {
			return nil, err
		}
		tex, err := c.Texture(texName)
		if err != nil {
			return nil, err
		}
		m.SetTexture(unit, tex)
	}
	for param, value := range f.Parameters {
		v, err := Vec4(value, 0)
		if err != nil {
			return nil, fmt.Errorf("parameter %q: %w", param, err)
		}
		m.SetParameter(param, v)
	}
	return m, nil
}

func loadRenderPath(path string) (*texgen.RenderPath, error) {
	var f RenderPathFile
	if err := readYAML(path, &f); err != nil {
		return nil, err
	}
	rp := &texgen.RenderPath{Name: f.Name}
	if rp.Name == "" {
		rp.Name = strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	}
	if len(f.ClearColor) > 0 {
		v, err := Vec4(f.ClearColor, 1)
		if err != nil {
			return nil, fmt.Errorf("clear_color: %w", err)
		}
		rp.ClearColor = imaging.FromVec4(v)
	}
	return rp, nil
}

func readYAML(path string, out any) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	if err := yaml.Unmarshal(data, out); err != nil {
		return fmt.Errorf("parse %s: %w", path, err)
	}
	return nil
}

// Vec4 converts one to four floats into a vector. Missing components
// take fill, except that a single value is broadcast to x, y and z.
func Vec4(values []float32, fill float32) (math.Vec4, error) {
	switch len(values) {
	case 1:
		return math.Vec4{X: values[0], Y: values[0], Z: values[0], W: fill}, nil
	case 2:
		return math.Vec4{X: values[0], Y: values[1], Z: fill, W: fill}, nil
	case 3:
		return math.Vec4{X: values[0], Y: values[1], Z: values[2], W: fill}, nil
	case 4:
		return math.Vec4{X: values[0], Y: values[1], Z: values[2], W: values[3]}, nil
	default:
		return math.Vec4{}, fmt.Errorf("expected 1 to 4 values, got %d", len(values))
	}
}
