// Package material holds the texture units, textures and materials the
// generators bind to geometry.
package material

import (
	"errors"
	"fmt"
	"image"
	"maps"
	"strings"

	"github.com/Faultbox/flexgen/pkg/math"
)

// TextureUnit is a material texture slot.
type TextureUnit uint8

// Texture units.
const (
	UnitDiffuse TextureUnit = iota
	UnitNormal
	UnitSpecular
	UnitEmissive
	NumUnits
)

// ErrUnknownTextureUnit is matched by every UnknownUnitError.
var ErrUnknownTextureUnit = errors.New("unknown texture unit")

// UnknownUnitError reports a texture unit name that does not parse.
type UnknownUnitError struct {
	Name string
}

func (e *UnknownUnitError) Error() string {
	return fmt.Sprintf("unknown texture unit %q", e.Name)
}

// Is makes errors.Is(err, ErrUnknownTextureUnit) hold.
func (e *UnknownUnitError) Is(target error) bool {
	return target == ErrUnknownTextureUnit
}

// ParseTextureUnit maps a unit name or number to a TextureUnit.
func ParseTextureUnit(name string) (TextureUnit, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "diffuse", "diff", "0":
		return UnitDiffuse, nil
	case "normal", "norm", "1":
		return UnitNormal, nil
	case "specular", "spec", "2":
		return UnitSpecular, nil
	case "emissive", "3":
		return UnitEmissive, nil
	default:
		return 0, &UnknownUnitError{Name: name}
	}
}

func (u TextureUnit) String() string {
	switch u {
	case UnitDiffuse:
		return "diffuse"
	case UnitNormal:
		return "normal"
	case UnitSpecular:
		return "specular"
	case UnitEmissive:
		return "emissive"
	default:
		return fmt.Sprintf("TextureUnit(%d)", u)
	}
}

// Texture is a named CPU side RGBA image.
type Texture struct {
	Name  string
	Image *image.NRGBA
}

// Width returns the image width, or 0 for an empty texture.
func (t *Texture) Width() int {
	if t == nil || t.Image == nil {
		return 0
	}
	return t.Image.Bounds().Dx()
}

// Height returns the image height, or 0 for an empty texture.
func (t *Texture) Height() int {
	if t == nil || t.Image == nil {
		return 0
	}
	return t.Image.Bounds().Dy()
}

// Material is a shader reference plus texture and parameter bindings.
type Material struct {
	Name       string
	Shader     string
	Textures   map[TextureUnit]*Texture
	Parameters map[string]math.Vec4
}

// New returns an empty material using shader.
func New(name, shader string) *Material {
	return &Material{
		Name:       name,
		Shader:     shader,
		Textures:   make(map[TextureUnit]*Texture),
		Parameters: make(map[string]math.Vec4),
	}
}

// Clone returns a material whose binding tables can be changed without
// touching m. Textures themselves are shared.
func (m *Material) Clone() *Material {
	c := *m
	c.Textures = maps.Clone(m.Textures)
	c.Parameters = maps.Clone(m.Parameters)
	if c.Textures == nil {
		c.Textures = make(map[TextureUnit]*Texture)
	}
	if c.Parameters == nil {
		c.Parameters = make(map[string]math.Vec4)
	}
	return &c
}

// SetTexture binds tex to unit.
func (m *Material) SetTexture(unit TextureUnit, tex *Texture) {
	if m.Textures == nil {
		m.Textures = make(map[TextureUnit]*Texture)
	}
	m.Textures[unit] = tex
}

// Texture returns the texture bound to unit, or nil.
func (m *Material) Texture(unit TextureUnit) *Texture {
	return m.Textures[unit]
}

// SetParameter sets a shader parameter.
func (m *Material) SetParameter(name string, value math.Vec4) {
	if m.Parameters == nil {
		m.Parameters = make(map[string]math.Vec4)
	}
	m.Parameters[name] = value
}

// Parameter returns a shader parameter and whether it is set.
func (m *Material) Parameter(name string) (math.Vec4, bool) {
	v, ok := m.Parameters[name]
	return v, ok
}
