package meshbuild

import (
	"testing"

	"github.com/chewxy/math32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Faultbox/flexgen/pkg/material"
	"github.com/Faultbox/flexgen/pkg/math"
)

// lodModel has one geometry with levels switching in at 0, 10 and 20.
func lodModel(mat *material.Material) *Model {
	return &Model{
		Geometries: [][]Geometry{{
			{IndexCount: 3},
			{IndexCount: 3, LodDistance: 10},
			{LodDistance: 20},
		}},
		Materials: []*material.Material{mat},
	}
}

func TestComputeBestLod(t *testing.T) {
	distances := []math.Vec2{{X: 0, Y: 10}, {X: 10, Y: 20}, {X: 20, Y: math32.Inf(1)}}

	tests := []struct {
		distance float32
		current  int
		want     int
	}{
		{5, 0, 0},
		{15, 0, 1},
		{25, 1, 2},
		{10, 1, 1},
		{-1, 2, 0},
		{15, 7, 1},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, ComputeBestLod(tt.distance, tt.current, distances),
			"distance %v from lod %d", tt.distance, tt.current)
	}
	assert.Equal(t, 0, ComputeBestLod(100, 0, nil))
}

func TestStaticModelClonesMaterials(t *testing.T) {
	shared := material.New("stone", "Diffuse")

	sm := NewStaticModel(lodModel(shared), true)
	assert.True(t, sm.CloneMaterials())
	require.NotNil(t, sm.Material(0))
	assert.NotSame(t, shared, sm.Material(0))
	assert.Same(t, shared, sm.Geometries[0].Original)

	sm.Material(0).SetParameter("MatDiffColor", math.Vec4{X: 1})
	_, ok := shared.Parameter("MatDiffColor")
	assert.False(t, ok, "shared material is never modified")

	plain := NewStaticModel(lodModel(shared), false)
	assert.Same(t, shared, plain.Material(0))

	other := material.New("wood", "Diffuse")
	plain.SetAllMaterials(other)
	assert.Same(t, other, plain.Material(0))

	assert.False(t, sm.SetMaterial(1, other))
	assert.Nil(t, sm.Material(-1))
}

func TestStaticModelInstantSwitch(t *testing.T) {
	sm := NewStaticModel(lodModel(nil), false)
	sm.SetSwitchDuration(0)

	assert.Equal(t, 0, sm.Update(15, 0.1))
	assert.Equal(t, []int{1}, sm.Lods())
	assert.False(t, sm.Geometries[0].Switching())

	assert.Equal(t, 0, sm.Update(30, 0.1))
	assert.Equal(t, []int{2}, sm.Lods())
}

func TestStaticModelAnimatedSwitch(t *testing.T) {
	sm := NewStaticModel(lodModel(nil), false)
	require.Equal(t, float32(1), sm.SwitchDuration())

	assert.Equal(t, 1, sm.Update(15, 0.25))
	g := &sm.Geometries[0]
	assert.Equal(t, 0, g.Primary)
	assert.Equal(t, 1, g.Secondary)
	assert.InDelta(t, 0.25, g.Mix, 1e-6)

	assert.Equal(t, 1, sm.Update(15, 0.5))
	assert.InDelta(t, 0.75, g.Mix, 1e-6)

	assert.Equal(t, 0, sm.Update(15, 0.5))
	assert.Equal(t, 1, g.Primary)
	assert.Equal(t, float32(0), g.Mix)
}

func TestStaticModelSwitchFadesBack(t *testing.T) {
	sm := NewStaticModel(lodModel(nil), false)
	g := &sm.Geometries[0]

	sm.Update(15, 0.5)
	require.True(t, g.Switching())

	assert.Equal(t, 1, sm.Update(5, 0.25))
	assert.InDelta(t, 0.25, g.Mix, 1e-6)

	assert.Equal(t, 0, sm.Update(5, 0.5))
	assert.False(t, g.Switching())
	assert.Equal(t, 0, g.Primary)
}

func TestStaticModelLodBias(t *testing.T) {
	sm := NewStaticModel(lodModel(nil), false)
	sm.SetLodBias(2)
	assert.Equal(t, float32(2), sm.LodBias())
	assert.Equal(t, math.Vec2{X: 20, Y: 40}, sm.Geometries[0].Distances[1])

	sm.Reset(15)
	assert.Equal(t, []int{0}, sm.Lods())
	sm.Reset(25)
	assert.Equal(t, []int{1}, sm.Lods())

	sm.SetLodBias(0)
	assert.Equal(t, float32(2), sm.LodBias(), "non-positive bias is ignored")
}
