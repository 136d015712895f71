package dco

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRoundingHeuristic_RoundsAndChecksFeasibility(t *testing.T) {
	p := NewProblem(Minimize)
	x := p.AddVariable("x").SetInteger().SetBounds(0, 10).SetCoeff(1)
	p.AddConstraint().AddTerm(1, x).SmallerThanOrEqualTo(10)
	require.NoError(t, p.Setup())

	h := NewRoundingHeuristic(HeuristicAuto, 1)
	point, obj, ok := h.TryRound([]float64{4.6}, p, 1e-6, 1e-6)
	require.True(t, ok)
	assert.Equal(t, []float64{5.0}, point)
	assert.Equal(t, 5.0, obj)
}

func TestRoundingHeuristic_RejectsOutOfBoundsRounding(t *testing.T) {
	p := NewProblem(Minimize)
	p.AddVariable("x").SetInteger().SetBounds(0, 4)
	require.NoError(t, p.Setup())

	h := NewRoundingHeuristic(HeuristicAuto, 1)
	_, _, ok := h.TryRound([]float64{4.6}, p, 1e-6, 1e-6)
	assert.False(t, ok)
}

func TestHeuristicEngine_RunAtNodePicksBestFeasible(t *testing.T) {
	p := NewProblem(Minimize)
	p.AddVariable("x").SetInteger().SetBounds(0, 10).SetCoeff(1)
	require.NoError(t, p.Setup())

	e := NewHeuristicEngine()
	e.AddHeuristic(NewRoundingHeuristic(HeuristicAuto, 1))

	point, obj, found := e.RunAtNode([]float64{3.2}, p, 1e-6, 1e-6, 0, true, false)
	require.True(t, found)
	assert.Equal(t, []float64{3.0}, point)
	assert.Equal(t, 3.0, obj)
}

func TestHeuristicEngine_isDueScheduling(t *testing.T) {
	e := NewHeuristicEngine()
	root := NewRoundingHeuristic(HeuristicRoot, 1)
	periodic := NewRoundingHeuristic(HeuristicPeriodic, 4)

	assert.True(t, e.isDue(root, 0, true, false))
	assert.False(t, e.isDue(root, 0, false, false))
	assert.True(t, e.isDue(periodic, 8, false, false))
	assert.False(t, e.isDue(periodic, 7, false, false))
}
