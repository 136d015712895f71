package dco

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProblem_AddVariableDefaults(t *testing.T) {
	p := NewProblem(Minimize)
	v := p.AddVariable("x")
	lower, upper := v.Bounds()
	assert.Equal(t, 0.0, lower)
	assert.True(t, math.IsInf(upper, 1))
	assert.False(t, v.IsInteger())
}

func TestProblem_SetupRoundsIntegerBounds(t *testing.T) {
	p := NewProblem(Minimize)
	v := p.AddVariable("x").SetInteger().SetBounds(0.3, 4.7)
	require.NoError(t, p.Setup())
	lower, upper := v.Bounds()
	assert.Equal(t, 1.0, lower)
	assert.Equal(t, 4.0, upper)
}

func TestProblem_SetupRejectsInconsistentBounds(t *testing.T) {
	p := NewProblem(Minimize)
	p.AddVariable("x").SetBounds(5, 1)
	assert.ErrorIs(t, p.Setup(), ErrInconsistentBounds)
}

func TestProblem_ColumnMatrixReflectsTerms(t *testing.T) {
	p := NewProblem(Minimize)
	x := p.AddVariable("x")
	y := p.AddVariable("y")
	p.AddConstraint().AddTerm(1, x).AddTerm(2, y).SmallerThanOrEqualTo(10)
	require.NoError(t, p.Setup())

	m := p.ColumnMatrix()
	assert.Equal(t, 1.0, m.At(0, 0))
	assert.Equal(t, 2.0, m.At(0, 1))
}

func TestProblem_ObjectiveCoefficientsFlipSignForMaximize(t *testing.T) {
	p := NewProblem(Maximize)
	p.AddVariable("x").SetCoeff(3)
	require.NoError(t, p.Setup())
	assert.Equal(t, []float64{-3.0}, p.ObjectiveCoefficients())
}

func TestConicConstraint_RejectsEmptyCone(t *testing.T) {
	p := NewProblem(Minimize)
	_, err := p.AddConicConstraint(Lorentz, nil)
	assert.ErrorIs(t, err, ErrEmptyCone)
}

func TestConicConstraint_RejectsUndersizedRotatedCone(t *testing.T) {
	p := NewProblem(Minimize)
	x := p.AddVariable("x")
	y := p.AddVariable("y")
	_, err := p.AddConicConstraint(RotatedLorentz, []int{x.index, y.index})
	assert.ErrorIs(t, err, ErrRotatedConeTooSmall)
}

func TestConicConstraint_AcceptsValidCones(t *testing.T) {
	p := NewProblem(Minimize)
	vars := make([]*Variable, 3)
	for i := range vars {
		vars[i] = p.AddVariable("v")
	}
	indices := []int{vars[0].index, vars[1].index, vars[2].index}

	_, err := p.AddConicConstraint(Lorentz, indices[:2])
	assert.NoError(t, err)

	_, err = p.AddConicConstraint(RotatedLorentz, indices)
	assert.NoError(t, err)
}

func TestProblem_RowBounds(t *testing.T) {
	p := NewProblem(Minimize)
	x := p.AddVariable("x")
	p.AddConstraint().AddTerm(1, x).Between(2, 5)
	require.NoError(t, p.Setup())

	lb, ub := p.RowBounds()
	assert.Equal(t, []float64{2}, lb)
	assert.Equal(t, []float64{5}, ub)
}
