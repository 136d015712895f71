package dco

import (
	"context"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestModel_PureLP(t *testing.T) {
	p := NewProblem(Maximize)
	x := p.AddVariable("x").SetCoeff(2).SetBounds(0, math.Inf(1))
	y := p.AddVariable("y").SetCoeff(3).SetBounds(0, math.Inf(1))
	p.AddConstraint().AddTerm(1, x).AddTerm(1, y).SmallerThanOrEqualTo(4)
	require.NoError(t, p.Setup())

	m, err := NewModel(p)
	require.NoError(t, err)

	result := m.Solve(context.Background())
	assert.Equal(t, SolveOptimal, result.Status)
	assert.InDelta(t, 12.0, result.Objective, 1e-6)
}

func TestModel_SimpleMILP(t *testing.T) {
	// maximize x + y subject to 2x + 5y <= 11, x,y integer, 0<=x,y<=10
	p := NewProblem(Maximize)
	x := p.AddVariable("x").SetCoeff(1).SetInteger().SetBounds(0, 10)
	y := p.AddVariable("y").SetCoeff(1).SetInteger().SetBounds(0, 10)
	p.AddConstraint().AddTerm(2, x).AddTerm(5, y).SmallerThanOrEqualTo(11)
	require.NoError(t, p.Setup())

	m, err := NewModel(p)
	require.NoError(t, err)

	result := m.Solve(context.Background())
	require.Equal(t, SolveOptimal, result.Status)

	for _, idx := range p.IntegerColumns() {
		v := result.Point[idx]
		dist := math.Abs(v - math.Round(v))
		assert.LessOrEqual(t, dist, 1e-6)
	}
}

func TestModel_InfeasibleProblem(t *testing.T) {
	p := NewProblem(Minimize)
	x := p.AddVariable("x").SetBounds(0, 10)
	p.AddConstraint().AddTerm(1, x).GreaterThanOrEqualTo(50)
	require.NoError(t, p.Setup())

	m, err := NewModel(p)
	require.NoError(t, err)

	result := m.Solve(context.Background())
	assert.Equal(t, SolveInfeasible, result.Status)
}

func TestModel_TimeLimitTerminatesPromptly(t *testing.T) {
	p := NewProblem(Minimize)
	x := p.AddVariable("x").SetInteger().SetBounds(0, 1000000)
	p.AddConstraint().AddTerm(1, x).GreaterThanOrEqualTo(0)
	require.NoError(t, p.Setup())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	m, err := NewModel(p)
	require.NoError(t, err)

	result := m.Solve(ctx)
	assert.Equal(t, SolveTimeLimit, result.Status)
}

func TestModel_BoundMonotonicity(t *testing.T) {
	p := NewProblem(Maximize)
	x := p.AddVariable("x").SetCoeff(1).SetInteger().SetBounds(0, 20)
	y := p.AddVariable("y").SetCoeff(1).SetInteger().SetBounds(0, 20)
	p.AddConstraint().AddTerm(3, x).AddTerm(4, y).SmallerThanOrEqualTo(25)
	require.NoError(t, p.Setup())

	m, err := NewModel(p)
	require.NoError(t, err)

	result := m.Solve(context.Background())
	require.Equal(t, SolveOptimal, result.Status)

	// Every node that was actually branched on must have had an internal
	// (minimized) dual bound at least as good as the final internal
	// incumbent; the engine always minimizes internally, so the Problem's
	// Maximize sense means the internal incumbent is -result.Objective.
	internalIncumbent := -result.Objective
	for _, rec := range result.Statistics.Nodes {
		if rec.Status == StatusBranched {
			assert.LessOrEqual(t, rec.DualBound, internalIncumbent+1e-6)
		}
	}
}
