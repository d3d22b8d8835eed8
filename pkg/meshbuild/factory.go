// Package meshbuild accumulates vertex and index data per material and
// LOD level and merges it into a single model with per group draw ranges.
package meshbuild

import (
	"fmt"
	"slices"

	"go.uber.org/zap"

	"github.com/Faultbox/flexgen/pkg/geometry"
	"github.com/Faultbox/flexgen/pkg/material"
)

// MaterialSlot indexes a material in first-seen order.
type MaterialSlot int

// GroupHandle addresses the buffers of one (material, LOD) pair. Handles
// are invalidated by Reset.
type GroupHandle struct {
	Slot MaterialSlot
	Lod  int
	gen  uint64
}

type groupBuffer struct {
	vertexData []byte
	indexData  []byte
}

// Factory collects geometry submissions. It is not safe for concurrent
// use.
type Factory struct {
	layout *geometry.VertexLayout
	large  bool

	materials []*material.Material
	groups    [][]*groupBuffer
	gen       uint64

	log *zap.Logger
}

// Option configures a Factory.
type Option func(*Factory)

// WithLogger sets the logger used to report recoverable build problems.
func WithLogger(l *zap.Logger) Option {
	return func(f *Factory) {
		if l != nil {
			f.log = l
		}
	}
}

// New creates a factory for the given vertex layout and index width.
func New(layout *geometry.VertexLayout, largeIndices bool, opts ...Option) *Factory {
	f := &Factory{log: zap.NewNop()}
	for _, opt := range opts {
		opt(f)
	}
	f.Reset(layout, largeIndices)
	return f
}

// Reset drops all geometry and fixes layout and index width for
// subsequent submissions.
func (f *Factory) Reset(layout *geometry.VertexLayout, largeIndices bool) {
	if layout == nil || layout.Stride() == 0 {
		panic("meshbuild: empty vertex layout")
	}
	f.layout = layout
	f.large = largeIndices
	f.materials = nil
	f.groups = nil
	f.gen++
}

// Layout returns the vertex layout.
func (f *Factory) Layout() *geometry.VertexLayout { return f.layout }

// LargeIndices reports whether indices are 32 bit.
func (f *Factory) LargeIndices() bool { return f.large }

// VertexSize returns the vertex stride in bytes.
func (f *Factory) VertexSize() int { return f.layout.Stride() }

// IndexSize returns the index width in bytes.
func (f *Factory) IndexSize() int { return geometry.IndexSize(f.large) }

// SelectMaterial returns the slot for m. With reuse, a slot already
// holding the same material pointer is returned; otherwise a new slot is
// always allocated.
func (f *Factory) SelectMaterial(m *material.Material, reuse bool) MaterialSlot {
	if reuse {
		for i, existing := range f.materials {
			if existing == m {
				return MaterialSlot(i)
			}
		}
	}
	f.materials = append(f.materials, m)
	f.groups = append(f.groups, nil)
	return MaterialSlot(len(f.materials) - 1)
}

// Group returns the handle for (slot, lod), creating empty levels up to
// lod when needed.
func (f *Factory) Group(slot MaterialSlot, lod int) GroupHandle {
	if slot < 0 || int(slot) >= len(f.groups) {
		panic(fmt.Sprintf("meshbuild: material slot %d out of range", slot))
	}
	if lod < 0 {
		panic(fmt.Sprintf("meshbuild: negative LOD level %d", lod))
	}
	for len(f.groups[slot]) <= lod {
		f.groups[slot] = append(f.groups[slot], &groupBuffer{})
	}
	return GroupHandle{Slot: slot, Lod: lod, gen: f.gen}
}

// BeginGroup selects a material and returns the handle for its LOD level.
func (f *Factory) BeginGroup(m *material.Material, reuse bool, lod int) GroupHandle {
	return f.Group(f.SelectMaterial(m, reuse), lod)
}

func (f *Factory) buffer(h GroupHandle) *groupBuffer {
	if h.gen != f.gen {
		panic("meshbuild: stale group handle")
	}
	if int(h.Slot) >= len(f.groups) || h.Lod >= len(f.groups[h.Slot]) {
		panic(fmt.Sprintf("meshbuild: invalid group handle (%d, %d)", h.Slot, h.Lod))
	}
	return f.groups[h.Slot][h.Lod]
}

// Submit appends raw vertex and index bytes to a group. The byte sizes
// must match the counts exactly. With rebase, the new indices are shifted
// by the number of vertices the group held before the call.
func (f *Factory) Submit(h GroupHandle, vertexData []byte, numVertices int, indexData []byte, numIndices int, rebase bool) {
	buf := f.buffer(h)
	if len(vertexData) != numVertices*f.VertexSize() {
		panic(fmt.Sprintf("meshbuild: vertex data is %d bytes, want %d vertices of stride %d",
			len(vertexData), numVertices, f.VertexSize()))
	}
	if len(indexData) != numIndices*f.IndexSize() {
		panic(fmt.Sprintf("meshbuild: index data is %d bytes, want %d indices of size %d",
			len(indexData), numIndices, f.IndexSize()))
	}

	base := len(buf.vertexData) / f.VertexSize()
	added := slices.Clone(indexData)
	if rebase {
		geometry.AdjustIndicesBase(added, f.large, uint32(base))
	}

	total := uint32(base + numVertices)
	for _, idx := range geometry.DecodeIndices(added, f.large) {
		if idx >= total {
			panic(fmt.Sprintf("meshbuild: index %d out of range for %d vertices", idx, total))
		}
	}

	buf.vertexData = append(buf.vertexData, vertexData...)
	buf.indexData = append(buf.indexData, added...)
}

// SubmitVertices encodes vertices with the factory layout and submits
// them with locally 0-based indices.
func (f *Factory) SubmitVertices(h GroupHandle, vertices []geometry.Vertex, indices []uint32) {
	f.Submit(h, f.layout.Encode(vertices), len(vertices),
		geometry.EncodeIndices(indices, f.large), len(indices), true)
}

// NumMaterials returns the number of material slots.
func (f *Factory) NumMaterials() int { return len(f.materials) }

// NumLevels returns the number of LOD levels of a slot.
func (f *Factory) NumLevels(slot MaterialSlot) int {
	if slot < 0 || int(slot) >= len(f.groups) {
		return 0
	}
	return len(f.groups[slot])
}

func (f *Factory) lookup(slot MaterialSlot, lod int) *groupBuffer {
	if lod < 0 || lod >= f.NumLevels(slot) {
		return nil
	}
	return f.groups[slot][lod]
}

// NumVertices returns the vertex count of (slot, lod).
func (f *Factory) NumVertices(slot MaterialSlot, lod int) int {
	if buf := f.lookup(slot, lod); buf != nil {
		return len(buf.vertexData) / f.VertexSize()
	}
	return 0
}

// NumIndices returns the index count of (slot, lod).
func (f *Factory) NumIndices(slot MaterialSlot, lod int) int {
	if buf := f.lookup(slot, lod); buf != nil {
		return len(buf.indexData) / f.IndexSize()
	}
	return 0
}

// VertexData returns the raw vertex bytes of (slot, lod).
func (f *Factory) VertexData(slot MaterialSlot, lod int) []byte {
	if buf := f.lookup(slot, lod); buf != nil {
		return buf.vertexData
	}
	return nil
}

// IndexData returns the raw, group relative index bytes of (slot, lod).
func (f *Factory) IndexData(slot MaterialSlot, lod int) []byte {
	if buf := f.lookup(slot, lod); buf != nil {
		return buf.indexData
	}
	return nil
}

// Materials returns the materials in slot order.
func (f *Factory) Materials() []*material.Material {
	return append([]*material.Material(nil), f.materials...)
}

// Build merges every group into one vertex and one index buffer. Slots
// without LOD levels are dropped. Groups are merged in slot order, then
// ascending LOD, with indices rebased onto the running vertex count.
func (f *Factory) Build() *Model {
	stride := f.VertexSize()
	indexSize := f.IndexSize()

	var vertexData, indexData []byte
	model := &Model{}
	for slot, levels := range f.groups {
		if len(levels) == 0 {
			continue
		}
		geometries := make([]Geometry, len(levels))
		for lod, buf := range levels {
			base := len(vertexData) / stride
			offset := len(indexData)
			vertexData = append(vertexData, buf.vertexData...)
			indexData = append(indexData, buf.indexData...)
			geometry.AdjustIndicesBase(indexData[offset:], f.large, uint32(base))

			geometries[lod] = Geometry{
				IndexStart: offset / indexSize,
				IndexCount: len(buf.indexData) / indexSize,
			}
		}
		model.Geometries = append(model.Geometries, geometries)
		model.Materials = append(model.Materials, f.materials[slot])
	}

	model.VertexBuffers = []*VertexBuffer{{
		Layout: f.layout,
		Data:   vertexData,
		Count:  len(vertexData) / stride,
	}}
	model.IndexBuffers = []*IndexBuffer{{
		Large: f.large,
		Data:  indexData,
		Count: len(indexData) / indexSize,
	}}

	f.computeBoundingBox(model)
	return model
}

func (f *Factory) computeBoundingBox(model *Model) {
	pos, ok := f.layout.Find(geometry.SemPosition, 0)
	if !ok {
		f.log.Error("position was not found in vertex layout",
			zap.Stringer("layout", f.layout))
		return
	}
	if pos.Type != geometry.TypeVec3 && pos.Type != geometry.TypeVec4 {
		f.log.Error("position attribute must have type vec3 or vec4",
			zap.Stringer("type", pos.Type))
		return
	}

	vb := model.VertexBuffers[0]
	for i := 0; i < vb.Count; i++ {
		model.BoundingBox.Merge(geometry.ReadPosition(vb.Data, pos, f.VertexSize(), i))
	}
}

// Submission is one geometry chunk for BuildMesh.
type Submission struct {
	Material    *material.Material
	Reuse       bool
	Lod         int
	VertexData  []byte
	NumVertices int
	IndexData   []byte
	NumIndices  int
	Rebase      bool
}

// BuildMesh runs a factory over the submissions and builds the model.
func BuildMesh(layout *geometry.VertexLayout, largeIndices bool, submissions []Submission, opts ...Option) *Model {
	f := New(layout, largeIndices, opts...)
	for _, s := range submissions {
		h := f.BeginGroup(s.Material, s.Reuse, s.Lod)
		f.Submit(h, s.VertexData, s.NumVertices, s.IndexData, s.NumIndices, s.Rebase)
	}
	return f.Build()
}
