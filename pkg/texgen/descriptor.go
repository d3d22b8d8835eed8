package texgen

import (
	"errors"
	"fmt"
	"strings"
)

// ErrDuplicateTexture is returned when a texture name is already taken.
var ErrDuplicateTexture = errors.New("duplicate texture name")

// NamedTexture is one entry of a Descriptor.
type NamedTexture struct {
	Name string
	Desc *TextureDesc
}

// Output maps a texture to a file name relative to the output directory.
type Output struct {
	Name string
	File string
}

// Descriptor is an ordered set of texture descriptions and the outputs
// written after generation. Texture names are case-insensitive.
type Descriptor struct {
	textures []NamedTexture
	outputs  []Output
}

// AddTexture appends a description. Empty or duplicate names are
// rejected.
func (d *Descriptor) AddTexture(name string, desc *TextureDesc) error {
	if name == "" {
		return errors.New("texture name must be non-empty")
	}
	if d.FindTexture(name) >= 0 {
		return fmt.Errorf("%w: %q", ErrDuplicateTexture, name)
	}
	d.textures = append(d.textures, NamedTexture{Name: name, Desc: desc})
	return nil
}

// FindTexture returns the index of name, or -1.
func (d *Descriptor) FindTexture(name string) int {
	for i, t := range d.textures {
		if strings.EqualFold(t.Name, name) {
			return i
		}
	}
	return -1
}

// Texture returns the description registered under name.
func (d *Descriptor) Texture(name string) (*TextureDesc, bool) {
	i := d.FindTexture(name)
	if i < 0 {
		return nil, false
	}
	return d.textures[i].Desc, true
}

// AddOutput registers an output for an existing texture.
func (d *Descriptor) AddOutput(name, file string) error {
	if d.FindTexture(name) < 0 {
		return fmt.Errorf("output texture %q: %w", name, ErrNotFound)
	}
	d.outputs = append(d.outputs, Output{Name: name, File: file})
	return nil
}

// Textures returns the entries in insertion order.
func (d *Descriptor) Textures() []NamedTexture {
	return d.textures
}

// Outputs returns the outputs in insertion order.
func (d *Descriptor) Outputs() []Output {
	return d.outputs
}

// RemoveAllTextures drops every texture description.
func (d *Descriptor) RemoveAllTextures() {
	d.textures = nil
}

// RemoveAllOutputs drops every output.
func (d *Descriptor) RemoveAllOutputs() {
	d.outputs = nil
}
