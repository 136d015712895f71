package dco

import "math"

// HeuristicStrategy mirrors CutStrategy's shape for scheduling when a
// primal heuristic runs, per spec.md §4.5.
type HeuristicStrategy int

const (
	HeuristicNone HeuristicStrategy = iota
	HeuristicRoot
	HeuristicAuto
	HeuristicPeriodic
)

// Heuristic attempts to construct an integer- and cone-feasible solution
// from the current relaxation point, without necessarily solving anything
// exactly.
type Heuristic interface {
	Name() string
	Strategy() HeuristicStrategy
	Frequency() int
	// TryRound attempts to build a feasible point; ok is false if it could
	// not find one.
	TryRound(sol []float64, p *Problem, integerTol, coneTol float64) (point []float64, objValue float64, ok bool)
}

// heuristicStats accumulates spec.md §6's per-heuristic statistics
// (MsgHeuristicStatFinal/MsgHeuristicStatNode).
type heuristicStats struct {
	calls int
	hits  int
}

// HeuristicEngine runs registered Heuristics at root and per node, per
// spec.md §4.5's atRoot/atNode scheduling. RunAtNode accepts an
// onIncumbent flag, but no strategy looks at it, so there is no separate
// on-new-incumbent schedule.
//
// Grounded on spec.md §4.5 directly (jjhbw-GoMILP has no primal heuristic);
// the scheduling policy mirrors CutEngine's strategy/frequency convention
// by design, so a caller configuring both subsystems uses one mental model.
type HeuristicEngine struct {
	heuristics []Heuristic
	stats      map[string]*heuristicStats
}

// NewHeuristicEngine returns an empty HeuristicEngine.
func NewHeuristicEngine() *HeuristicEngine {
	return &HeuristicEngine{stats: make(map[string]*heuristicStats)}
}

// AddHeuristic registers a Heuristic.
func (e *HeuristicEngine) AddHeuristic(h Heuristic) {
	e.heuristics = append(e.heuristics, h)
	e.stats[h.Name()] = &heuristicStats{}
}

func (e *HeuristicEngine) isDue(h Heuristic, nodeDepth int, atRoot, onIncumbent bool) bool {
	switch h.Strategy() {
	case HeuristicNone:
		return false
	case HeuristicRoot:
		return atRoot
	case HeuristicPeriodic:
		freq := h.Frequency()
		if freq <= 0 {
			freq = 1
		}
		return nodeDepth%freq == 0
	case HeuristicAuto:
		return true
	default:
		return false
	}
}

// RunAtNode tries every due heuristic at this node, returning the best
// feasible point found (if any) alongside whether one was found.
func (e *HeuristicEngine) RunAtNode(sol []float64, p *Problem, integerTol, coneTol float64, nodeDepth int, atRoot, onIncumbent bool) (best []float64, bestObj float64, found bool) {
	for _, h := range e.heuristics {
		if !e.isDue(h, nodeDepth, atRoot, onIncumbent) {
			continue
		}
		stats := e.stats[h.Name()]
		stats.calls++
		point, obj, ok := h.TryRound(sol, p, integerTol, coneTol)
		if !ok {
			continue
		}
		stats.hits++
		if !found || obj < bestObj {
			best, bestObj, found = point, obj, true
		}
	}
	return
}

// RoundingHeuristic is the simplest possible primal heuristic: round every
// integer column to its nearest integer and check feasibility directly
// against the original rows, without attempting any repair.
//
// Grounded on spec.md §4.5 (no teacher precedent); written in the same
// "small, self-contained struct with one behavior" idiom as
// jjhbw-GoMILP/branching.go's BranchHeuristic constants.
type RoundingHeuristic struct {
	strategy  HeuristicStrategy
	frequency int
}

// NewRoundingHeuristic builds a RoundingHeuristic with the given schedule.
func NewRoundingHeuristic(strategy HeuristicStrategy, frequency int) *RoundingHeuristic {
	return &RoundingHeuristic{strategy: strategy, frequency: frequency}
}

func (h *RoundingHeuristic) Name() string              { return "Rounding" }
func (h *RoundingHeuristic) Strategy() HeuristicStrategy { return h.strategy }
func (h *RoundingHeuristic) Frequency() int             { return h.frequency }

func (h *RoundingHeuristic) TryRound(sol []float64, p *Problem, integerTol, coneTol float64) ([]float64, float64, bool) {
	point := append([]float64(nil), sol...)
	for _, idx := range p.IntegerColumns() {
		x := point[idx]
		r := roundNearest(x)
		v := p.variables[idx]
		if r < v.lower || r > v.upper {
			return nil, 0, false
		}
		point[idx] = r
	}

	for _, cone := range p.conic {
		obj := &ConicRowObject{Constraint: cone}
		if amount, _ := obj.Infeasibility(point, integerTol, coneTol); amount > 0 {
			return nil, 0, false
		}
	}

	for _, row := range p.linear {
		v := 0.0
		for _, t := range row.terms {
			v += t.coef * point[t.variable.index]
		}
		if v < row.lb-1e-7 || v > row.ub+1e-7 {
			return nil, 0, false
		}
	}

	obj := 0.0
	for i, c := range p.ObjectiveCoefficients() {
		obj += c * point[i]
	}
	return point, obj, true
}

func roundNearest(x float64) float64 {
	return math.Floor(x + 0.5)
}
