package dco

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCutEngine_EffectiveStrategyIsMostPermissive(t *testing.T) {
	e := NewCutEngine(2, 1000, 1)
	e.AddGenerator(NewConicSupportGenerator(1e-6, CutRoot, 1))
	e.AddGenerator(NewConicSupportGenerator(1e-6, CutAuto, 1))
	assert.Equal(t, CutAuto, e.EffectiveStrategy())
}

func TestCutEngine_EffectiveFrequencyIsMinimum(t *testing.T) {
	e := NewCutEngine(2, 1000, 1)
	e.AddGenerator(NewConicSupportGenerator(1e-6, CutPeriodic, 5))
	e.AddGenerator(NewConicSupportGenerator(1e-6, CutPeriodic, 2))
	assert.Equal(t, 2, e.EffectiveFrequency())
}

func TestCutEngine_DuplicateCutSuppression(t *testing.T) {
	p := NewProblem(Minimize)
	x0 := p.AddVariable("x0")
	x1 := p.AddVariable("x1")
	_, err := p.AddConicConstraint(Lorentz, []int{x0.index, x1.index})
	require.NoError(t, err)
	require.NoError(t, p.Setup())

	e := NewCutEngine(p.NumCols(), 1000, 7)
	e.AddGenerator(NewConicSupportGenerator(1e-6, CutAuto, 1))

	relax := NewSimplexRelaxation()
	require.NoError(t, relax.Load(p))

	sol := []float64{1, 5}

	first, firstHandles := e.RunBoundingPass(sol, p, relax, 0)
	assert.Len(t, first, 1)
	assert.Len(t, firstHandles, 1)

	second, secondHandles := e.RunBoundingPass(sol, p, relax, 0)
	assert.Len(t, second, 0)
	assert.Len(t, secondHandles, 0)
}

func TestCutEngine_DenseCutSuppression(t *testing.T) {
	p := NewProblem(Minimize)
	x0 := p.AddVariable("x0")
	x1 := p.AddVariable("x1")
	_, err := p.AddConicConstraint(Lorentz, []int{x0.index, x1.index})
	require.NoError(t, err)
	require.NoError(t, p.Setup())

	e := NewCutEngine(p.NumCols(), 0, 7) // denseConCutoff=0 rejects any row with terms
	e.AddGenerator(NewConicSupportGenerator(1e-6, CutAuto, 1))

	relax := NewSimplexRelaxation()
	require.NoError(t, relax.Load(p))

	installed, handles := e.RunBoundingPass([]float64{1, 5}, p, relax, 0)
	assert.Len(t, installed, 0)
	assert.Len(t, handles, 0)
}

func TestCutEngine_isDue(t *testing.T) {
	e := NewCutEngine(1, 1000, 1)
	rootOnly := NewConicSupportGenerator(1e-6, CutRoot, 1)
	periodic := NewConicSupportGenerator(1e-6, CutPeriodic, 3)
	none := NewConicSupportGenerator(1e-6, CutNone, 1)

	assert.True(t, e.isDue(rootOnly, 0))
	assert.False(t, e.isDue(rootOnly, 1))
	assert.True(t, e.isDue(periodic, 0))
	assert.False(t, e.isDue(periodic, 1))
	assert.True(t, e.isDue(periodic, 3))
	assert.False(t, e.isDue(none, 0))
}
