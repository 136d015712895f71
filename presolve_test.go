package dco

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPresolver_FoldsFixedVariableOutOfRow(t *testing.T) {
	p := NewProblem(Minimize)
	x := p.AddVariable("x").SetBounds(3, 3) // fixed
	y := p.AddVariable("y").SetBounds(0, 10)
	c := p.AddConstraint().AddTerm(2, x).AddTerm(1, y)
	c.Between(5, 20)

	pp := NewPresolver()
	pp.Tighten(p)

	require.NoError(t, p.Setup())
	require.Len(t, c.terms, 1)
	assert.Equal(t, y, c.terms[0].variable)
	// lb/ub shifted down by 2*3 = 6
	assert.Equal(t, -1.0, c.lb)
	assert.Equal(t, 14.0, c.ub)
}

func TestPresolver_LeavesConeMembershipIntact(t *testing.T) {
	p := NewProblem(Minimize)
	x0 := p.AddVariable("x0").SetBounds(2, 2) // fixed
	x1 := p.AddVariable("x1")
	cone, err := p.AddConicConstraint(Lorentz, []int{x0.index, x1.index})
	require.NoError(t, err)

	pp := NewPresolver()
	pp.Tighten(p)
	require.NoError(t, p.Setup())

	// fixing x0 must not remove it from the cone's member list.
	assert.Equal(t, []int{x0.index, x1.index}, cone.Members())
}

func TestPresolver_Restore(t *testing.T) {
	p := NewProblem(Minimize)
	p.AddVariable("x").SetBounds(3, 3)
	p.AddVariable("y").SetBounds(0, 10)

	pp := NewPresolver()
	pp.Tighten(p)
	require.NoError(t, p.Setup())

	restored := pp.Restore([]float64{0, 7})
	assert.Equal(t, []float64{3, 7}, restored)
}
