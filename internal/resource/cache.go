// Package resource looks up textures, materials, models and render paths
// by name, from in-memory registrations and from search directories.
package resource

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"go.uber.org/zap"

	"github.com/Faultbox/flexgen/pkg/material"
	"github.com/Faultbox/flexgen/pkg/meshbuild"
	"github.com/Faultbox/flexgen/pkg/texgen"
)

// DefaultRenderPath is the name of the built-in render path.
const DefaultRenderPath = "Forward"

// Cache resolves resource names. Registered resources win over files;
// directories are searched in reverse order, so the last added directory
// has the highest priority. A Cache is safe for concurrent use.
type Cache struct {
	mu          sync.RWMutex
	dirs        []string
	textures    map[string]*material.Texture
	materials   map[string]*material.Material
	models      map[string]*meshbuild.Model
	renderPaths map[string]*texgen.RenderPath

	hits   int
	misses int

	log *zap.Logger
}

// Option configures a Cache.
type Option func(*Cache)

// WithLogger sets the cache logger.
func WithLogger(l *zap.Logger) Option {
	return func(c *Cache) {
		if l != nil {
			c.log = l
		}
	}
}

// New creates a cache holding the unit quad model and the default render
// path.
func New(opts ...Option) *Cache {
	c := &Cache{log: zap.NewNop()}
	for _, opt := range opts {
		opt(c)
	}
	c.reset()
	return c
}

func (c *Cache) reset() {
	c.textures = make(map[string]*material.Texture)
	c.materials = make(map[string]*material.Material)
	c.models = map[string]*meshbuild.Model{
		meshbuild.QuadModelName: meshbuild.NewQuadModel(),
	}
	c.renderPaths = map[string]*texgen.RenderPath{
		DefaultRenderPath: {Name: DefaultRenderPath},
	}
	c.hits, c.misses = 0, 0
}

// AddDir appends a search directory.
func (c *Cache) AddDir(dir string) error {
	info, err := os.Stat(dir)
	if err != nil {
		return fmt.Errorf("resource dir: %w", err)
	}
	if !info.IsDir() {
		return fmt.Errorf("resource dir %s: not a directory", dir)
	}
	c.mu.Lock()
	c.dirs = append(c.dirs, dir)
	c.mu.Unlock()
	return nil
}

// Dirs returns the search directories in priority order, highest first.
func (c *Cache) Dirs() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]string, 0, len(c.dirs))
	for i := len(c.dirs) - 1; i >= 0; i-- {
		out = append(out, c.dirs[i])
	}
	return out
}

// AddTexture registers tex under name, replacing any earlier entry.
func (c *Cache) AddTexture(name string, tex *material.Texture) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.textures[name] = tex
}

// AddMaterial registers m under name.
func (c *Cache) AddMaterial(name string, m *material.Material) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.materials[name] = m
}

// AddModel registers m under name.
func (c *Cache) AddModel(name string, m *meshbuild.Model) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.models[name] = m
}

// AddRenderPath registers rp under name.
func (c *Cache) AddRenderPath(name string, rp *texgen.RenderPath) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.renderPaths[name] = rp
}

// Texture returns a registered texture or decodes it from the search
// directories.
func (c *Cache) Texture(name string) (*material.Texture, error) {
	return lookup(c, c.textures, name, "texture", func(path string) (*material.Texture, error) {
		img, err := LoadImage(path)
		if err != nil {
			return nil, err
		}
		return &material.Texture{Name: name, Image: img}, nil
	})
}

// Material returns a registered material or loads a YAML material file.
func (c *Cache) Material(name string) (*material.Material, error) {
	return lookup(c, c.materials, name, "material", c.loadMaterial)
}

// Model returns a registered model or loads a glTF/GLB file.
func (c *Cache) Model(name string) (*meshbuild.Model, error) {
	return lookup(c, c.models, name, "model", func(path string) (*meshbuild.Model, error) {
		return meshbuild.ReadModel(path, meshbuild.WithLogger(c.log))
	})
}

// RenderPath returns a registered render path or loads a YAML render
// path file.
func (c *Cache) RenderPath(name string) (*texgen.RenderPath, error) {
	return lookup(c, c.renderPaths, name, "render path", loadRenderPath)
}

func lookup[T any](c *Cache, m map[string]*T, name, kind string, load func(path string) (*T, error)) (*T, error) {
	name = strings.TrimSpace(name)
	c.mu.Lock()
	if v, ok := m[name]; ok {
		c.hits++
		c.mu.Unlock()
		return v, nil
	}
	c.misses++
	c.mu.Unlock()

	path, err := c.find(name)
	if err != nil {
		c.log.Warn("resource not found", zap.String("kind", kind), zap.String("name", name))
		return nil, fmt.Errorf("%s %q: %w", kind, name, err)
	}
	v, err := load(path)
	if err != nil {
		return nil, fmt.Errorf("%s %q: %w", kind, name, err)
	}
	c.log.Debug("loaded resource", zap.String("kind", kind), zap.String("path", path))

	c.mu.Lock()
	defer c.mu.Unlock()
	if existing, ok := m[name]; ok {
		return existing, nil
	}
	m[name] = v
	return v, nil
}

// find resolves name against the search directories. Absolute names and
// names relative to the working directory are accepted as is.
func (c *Cache) find(name string) (string, error) {
	if name == "" {
		return "", texgen.ErrNotFound
	}
	if filepath.IsAbs(name) {
		if fileExists(name) {
			return name, nil
		}
		return "", texgen.ErrNotFound
	}
	for _, dir := range c.Dirs() {
		path := filepath.Join(dir, filepath.FromSlash(name))
		if fileExists(path) {
			return path, nil
		}
	}
	if fileExists(name) {
		return name, nil
	}
	return "", texgen.ErrNotFound
}

// Exists reports whether name is registered or found on disk.
func (c *Cache) Exists(name string) bool {
	c.mu.RLock()
	_, t := c.textures[name]
	_, m := c.materials[name]
	_, md := c.models[name]
	_, rp := c.renderPaths[name]
	c.mu.RUnlock()
	if t || m || md || rp {
		return true
	}
	_, err := c.find(name)
	return err == nil
}

// Stats returns cache hit and miss counts.
func (c *Cache) Stats() (hits, misses int) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.hits, c.misses
}

// Clear drops every cached resource and keeps the search directories.
func (c *Cache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.reset()
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}

// IsNotFound reports whether err is a failed lookup.
func IsNotFound(err error) bool {
	return errors.Is(err, texgen.ErrNotFound)
}

var _ texgen.Resources = (*Cache)(nil)
