package dco

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func candidatesFor(sol []float64, cols ...int) []BranchCandidate {
	var out []BranchCandidate
	for _, c := range cols {
		x := sol[c]
		frac := x - float64(int(x))
		dist := frac
		if 1-frac < dist {
			dist = 1 - frac
		}
		out = append(out, BranchCandidate{ColumnIndex: c, Infeasibility: dist})
	}
	return out
}

func TestMostFractional_PicksClosestToHalf(t *testing.T) {
	sol := []float64{1.1, 2.5, 3.9}
	candidates := candidatesFor(sol, 0, 1, 2)

	best := MostFractional{}.Select(candidates, sol)
	assert.Equal(t, 1, best.ColumnIndex)
}

func TestPseudoCost_FallsBackToMostFractionalWithNoHistory(t *testing.T) {
	sol := []float64{1.1, 2.5}
	candidates := candidatesFor(sol, 0, 1)

	pc := NewPseudoCost()
	best := pc.Select(candidates, sol)
	assert.Equal(t, 1, best.ColumnIndex)
}

func TestPseudoCost_PrefersHigherScoringHistory(t *testing.T) {
	sol := []float64{1.5, 1.5}
	candidates := candidatesFor(sol, 0, 1)

	pc := NewPseudoCost()
	pc.Record(0, DirectionDown, 10)
	pc.Record(0, DirectionUp, 10)
	pc.Record(1, DirectionDown, 1)
	pc.Record(1, DirectionUp, 1)

	best := pc.Select(candidates, sol)
	assert.Equal(t, 0, best.ColumnIndex)
}

type stubEvaluator struct {
	byCol map[int][4]float64 // downDelta, upDelta, downFeasible(0/1), upFeasible(0/1)
}

func (s *stubEvaluator) Evaluate(c BranchCandidate) (float64, float64, bool, bool) {
	v := s.byCol[c.ColumnIndex]
	return v[0], v[1], v[2] != 0, v[3] != 0
}

func TestStrongBranching_PicksBestWorstCaseDegradation(t *testing.T) {
	sol := []float64{1.5, 1.5}
	candidates := candidatesFor(sol, 0, 1)

	eval := &stubEvaluator{byCol: map[int][4]float64{
		0: {1, 1, 1, 1},
		1: {5, 5, 1, 1},
	}}
	strategy := &StrongBranching{NumStrong: 2, Evaluator: eval}
	best := strategy.Select(candidates, sol)
	assert.Equal(t, 1, best.ColumnIndex)
}

func TestReliability_UsesStrongUntilThresholdThenPseudoCost(t *testing.T) {
	sol := []float64{1.5, 1.5}
	candidates := candidatesFor(sol, 0, 1)

	pc := NewPseudoCost()
	eval := &stubEvaluator{byCol: map[int][4]float64{
		0: {3, 3, 1, 1},
		1: {1, 1, 1, 1},
	}}
	rel := &Reliability{
		Threshold:  1,
		PseudoCost: pc,
		Strong:     &StrongBranching{NumStrong: 2, Evaluator: eval},
	}

	// No history yet: falls to StrongBranching, which prefers column 0.
	best := rel.Select(candidates, sol)
	assert.Equal(t, 0, best.ColumnIndex)

	// After both columns are "reliable", falls to PseudoCost.
	pc.Record(0, DirectionDown, 1)
	pc.Record(0, DirectionUp, 1)
	pc.Record(1, DirectionDown, 10)
	pc.Record(1, DirectionUp, 10)
	best = rel.Select(candidates, sol)
	assert.Equal(t, 1, best.ColumnIndex)
}
