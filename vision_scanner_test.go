package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// S6 - a square with one sharp corner (curvature 1.0 there, 0 elsewhere)
// spends roughly 3x as long near the corner as on the straight edges, for
// T_scan=4s, since weight = 1/(sqrt(curvature)+eps) is lowest at the corner,
// so the dwell time 1/weight peaks there.
func TestContourScanner_VariableSpeedS6(t *testing.T) {
	n := 40
	verts := make([]vertex, n)
	for i := range verts {
		verts[i].curvature = 0
	}
	cornerIdx := 10
	verts[cornerIdx].curvature = 1.0

	for i := range verts {
		const eps = 0.05
		w := 1 / (sqrt32(verts[i].curvature) + eps)
		verts[i].weight = clampf32(w, 0.25, 3)
	}

	// weight is a speed: the corner (high curvature) is slower, so its
	// dwell time 1/weight is the larger of the two.
	cornerWeight := verts[cornerIdx].weight
	edgeWeight := verts[0].weight
	assert.Less(t, cornerWeight, edgeWeight)

	dwellRatio := (1 / cornerWeight) / (1 / edgeWeight)
	assert.InDelta(t, 3.0, dwellRatio, 0.5)
}

func sqrt32(v float32) float32 {
	if v <= 0 {
		return 0
	}
	lo, hi := float32(0), v
	if hi < 1 {
		hi = 1
	}
	for i := 0; i < 30; i++ {
		mid := (lo + hi) / 2
		if mid*mid < v {
			lo = mid
		} else {
			hi = mid
		}
	}
	return (lo + hi) / 2
}

func TestThreePointCurvature_StraightLineIsZero(t *testing.T) {
	a := vertex{x: 0, y: 0}
	b := vertex{x: 1, y: 0}
	c := vertex{x: 2, y: 0}
	assert.InDelta(t, 0, threePointCurvature(a, b, c), 1e-6)
}

func TestThreePointCurvature_RightAngleIsHalf(t *testing.T) {
	a := vertex{x: 0, y: 0}
	b := vertex{x: 1, y: 0}
	c := vertex{x: 1, y: 1}
	assert.InDelta(t, 0.5, threePointCurvature(a, b, c), 1e-3)
}

func TestSampleCursor_DistributesByWeight(t *testing.T) {
	verts := []vertex{
		{x: 0, weight: 1}, // dwell 1
		{x: 1, weight: 3}, // dwell 1/3
	}
	// total dwell 4/3; vertex 0 (slower, lower weight) owns the larger
	// share [0, 0.75) since it lingers longer, vertex 1 owns [0.75, 1).
	idx, _, _, _, _ := sampleCursor(verts, 0.1)
	require.Equal(t, 0, idx)

	idx, _, _, _, _ = sampleCursor(verts, 0.9)
	require.Equal(t, 1, idx)
}
