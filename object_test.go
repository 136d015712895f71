package dco

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIntegerVariableObject_Infeasibility(t *testing.T) {
	p := NewProblem(Minimize)
	v := p.AddVariable("x").SetInteger().SetBounds(0, 10)
	require.NoError(t, p.Setup())

	obj := &IntegerVariableObject{Variable: v}

	amount, dir := obj.Infeasibility([]float64{2.0}, 1e-6, 1e-6)
	assert.Equal(t, 0.0, amount)
	assert.Equal(t, DirectionEither, dir)

	amount, dir = obj.Infeasibility([]float64{2.3}, 1e-6, 1e-6)
	assert.InDelta(t, 0.3, amount, 1e-9)
	assert.Equal(t, DirectionDown, dir)

	amount, dir = obj.Infeasibility([]float64{2.8}, 1e-6, 1e-6)
	assert.InDelta(t, 0.2, amount, 1e-9)
	assert.Equal(t, DirectionUp, dir)
}

func TestIntegerVariableObject_CreateBranching(t *testing.T) {
	p := NewProblem(Minimize)
	v := p.AddVariable("x").SetInteger().SetBounds(0, 10)
	require.NoError(t, p.Setup())

	obj := &IntegerVariableObject{Variable: v}
	desc := obj.CreateBranching([]float64{3.4})

	downBound := desc.DownBounds[v.index]
	assert.True(t, downBound.HasUpper)
	assert.Equal(t, 3.0, downBound.Upper)

	upBound := desc.UpBounds[v.index]
	assert.True(t, upBound.HasLower)
	assert.Equal(t, 4.0, upBound.Lower)
}

func TestConicRowObject_Infeasibility_LorentzCone(t *testing.T) {
	p := NewProblem(Minimize)
	x0 := p.AddVariable("x0")
	x1 := p.AddVariable("x1")
	x2 := p.AddVariable("x2")
	cone, err := p.AddConicConstraint(Lorentz, []int{x0.index, x1.index, x2.index})
	require.NoError(t, err)
	require.NoError(t, p.Setup())

	obj := &ConicRowObject{Constraint: cone}

	// Feasible: axis >= norm(rest).
	amount, _ := obj.Infeasibility([]float64{5, 3, 4}, 1e-6, 1e-6)
	assert.Equal(t, 0.0, amount)

	// Infeasible: axis < norm(rest).
	amount, dir := obj.Infeasibility([]float64{1, 3, 4}, 1e-6, 1e-6)
	assert.InDelta(t, 4.0, amount, 1e-9)
	assert.Equal(t, DirectionUp, dir)
}

func TestConicRowObject_Infeasibility_RotatedCone(t *testing.T) {
	p := NewProblem(Minimize)
	x0 := p.AddVariable("x0")
	x1 := p.AddVariable("x1")
	x2 := p.AddVariable("x2")
	cone, err := p.AddConicConstraint(RotatedLorentz, []int{x0.index, x1.index, x2.index})
	require.NoError(t, err)
	require.NoError(t, p.Setup())

	obj := &ConicRowObject{Constraint: cone}

	// 2*x0*x1 >= x2^2: 2*4*2=16 >= 9, feasible.
	amount, _ := obj.Infeasibility([]float64{4, 2, 3}, 1e-6, 1e-6)
	assert.LessOrEqual(t, amount, 0.0)
}

func TestConicRowObject_CreateBranchingProducesValidSupport(t *testing.T) {
	p := NewProblem(Minimize)
	x0 := p.AddVariable("x0")
	x1 := p.AddVariable("x1")
	cone, err := p.AddConicConstraint(Lorentz, []int{x0.index, x1.index})
	require.NoError(t, err)
	require.NoError(t, p.Setup())

	obj := &ConicRowObject{Constraint: cone}
	desc := obj.CreateBranching([]float64{1, 5})
	require.NotNil(t, desc.DownRow)
	assert.Equal(t, math.Inf(-1), desc.DownRow.lb)
	assert.Equal(t, 0.0, desc.DownRow.ub)
}
