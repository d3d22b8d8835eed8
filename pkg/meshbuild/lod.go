package meshbuild

import (
	"github.com/chewxy/math32"

	"github.com/Faultbox/flexgen/pkg/material"
	"github.com/Faultbox/flexgen/pkg/math"
)

// LodState is the per-geometry state of a StaticModel.
type LodState struct {
	// Original is the material assigned by the caller; Material is what
	// gets drawn, a private clone when the model clones materials.
	Original *material.Material
	Material *material.Material

	Primary   int
	Secondary int
	// Mix is the blend from Primary (0) towards Secondary (1) while a
	// switch is in progress.
	Mix float32
	// Distances holds [start, end) per LOD level after the switch bias.
	Distances []math.Vec2
}

// Switching reports whether a LOD transition is in progress.
func (s *LodState) Switching() bool {
	return s.Primary != s.Secondary
}

// StaticModel is one placed instance of a Model with its own materials
// and LOD selection. The host calls Update once per tick.
type StaticModel struct {
	Model      *Model
	Geometries []LodState

	cloneMaterials bool
	bias           float32
	duration       float32
}

// NewStaticModel creates an instance of m using the model materials. With
// cloneMaterials every geometry draws a private copy of its material.
func NewStaticModel(m *Model, cloneMaterials bool) *StaticModel {
	s := &StaticModel{
		Model:          m,
		Geometries:     make([]LodState, m.NumGeometries()),
		cloneMaterials: cloneMaterials,
		bias:           1,
		duration:       1,
	}
	for i := range s.Geometries {
		var mat *material.Material
		if i < len(m.Materials) {
			mat = m.Materials[i]
		}
		s.SetMaterial(i, mat)
	}
	s.setupDistances()
	return s
}

// CloneMaterials reports whether geometries draw private material copies.
func (s *StaticModel) CloneMaterials() bool { return s.cloneMaterials }

// SetMaterial assigns the material of geometry i. It returns false for an
// out of range index.
func (s *StaticModel) SetMaterial(i int, m *material.Material) bool {
	if i < 0 || i >= len(s.Geometries) {
		return false
	}
	g := &s.Geometries[i]
	g.Original = m
	g.Material = m
	if s.cloneMaterials && m != nil {
		g.Material = m.Clone()
	}
	return true
}

// SetAllMaterials assigns m to every geometry.
func (s *StaticModel) SetAllMaterials(m *material.Material) {
	for i := range s.Geometries {
		s.SetMaterial(i, m)
	}
}

// Material returns the drawn material of geometry i, or nil.
func (s *StaticModel) Material(i int) *material.Material {
	if i < 0 || i >= len(s.Geometries) {
		return nil
	}
	return s.Geometries[i].Material
}

// SetLodBias scales every switch distance. Values <= 0 are ignored.
func (s *StaticModel) SetLodBias(bias float32) {
	if bias <= 0 {
		return
	}
	s.bias = bias
	s.setupDistances()
}

// LodBias returns the switch distance scale.
func (s *StaticModel) LodBias() float32 { return s.bias }

// SetSwitchDuration sets the time a LOD switch takes. Zero switches
// instantly.
func (s *StaticModel) SetSwitchDuration(d float32) {
	s.duration = max(d, 0)
}

// SwitchDuration returns the time a LOD switch takes.
func (s *StaticModel) SwitchDuration() float32 { return s.duration }

func (s *StaticModel) setupDistances() {
	for i := range s.Geometries {
		lods := s.Model.Geometries[i]
		d := make([]math.Vec2, len(lods))
		for lod := range lods {
			d[lod].X = lods[lod].LodDistance * s.bias
			d[lod].Y = math32.Inf(1)
			if lod+1 < len(lods) {
				d[lod].Y = lods[lod+1].LodDistance * s.bias
			}
		}
		s.Geometries[i].Distances = d
	}
}

// Reset drops running switches and picks the LOD for distance directly.
func (s *StaticModel) Reset(distance float32) {
	for i := range s.Geometries {
		g := &s.Geometries[i]
		lod := ComputeBestLod(distance, 0, g.Distances)
		g.Primary, g.Secondary, g.Mix = lod, lod, 0
	}
}

// Update advances LOD selection for the camera distance by timeStep
// seconds and returns the number of geometries still switching.
func (s *StaticModel) Update(distance, timeStep float32) int {
	switching := 0
	for i := range s.Geometries {
		g := &s.Geometries[i]
		best := ComputeBestLod(distance, g.Primary, g.Distances)

		switch {
		case !g.Switching() && best != g.Primary:
			g.Secondary = best
			g.Mix = 0
		case g.Switching() && best != g.Secondary && best != g.Primary:
			// Retarget; the blend restarts from the current primary.
			g.Secondary = best
			g.Mix = 0
		}
		if !g.Switching() {
			continue
		}

		step := float32(1)
		if s.duration > 0 {
			step = timeStep / s.duration
		}
		if best == g.Primary {
			// Distance went back; fade the pending level out.
			g.Mix -= step
			if g.Mix <= 0 {
				g.Secondary, g.Mix = g.Primary, 0
				continue
			}
		} else {
			g.Mix += step
			if g.Mix >= 1 {
				g.Primary, g.Mix = g.Secondary, 0
				continue
			}
		}
		switching++
	}
	return switching
}

// Lods returns the primary LOD of every geometry.
func (s *StaticModel) Lods() []int {
	lods := make([]int, len(s.Geometries))
	for i := range s.Geometries {
		lods[i] = s.Geometries[i].Primary
	}
	return lods
}

// ComputeBestLod returns current while distance stays inside its range,
// otherwise the first level whose range holds distance. Distances below
// every range select level 0 and beyond every range the last level.
func ComputeBestLod(distance float32, current int, distances []math.Vec2) int {
	if len(distances) == 0 {
		return 0
	}
	if current >= 0 && current < len(distances) {
		r := distances[current]
		if distance >= r.X && distance < r.Y {
			return current
		}
	}
	for lod, r := range distances {
		if distance < r.Y {
			return lod
		}
	}
	return len(distances) - 1
}
