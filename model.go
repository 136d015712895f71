package dco

import (
	"container/heap"
	"context"
	"math"
	"time"
)

// SolveStatus is the final status line spec.md §7 specifies: exactly one
// of Optimal, Infeasible, GapLimit, TimeLimit, NodeLimit, or Error.
type SolveStatus int

const (
	SolveOptimal SolveStatus = iota
	SolveInfeasible
	SolveGapLimit
	SolveTimeLimit
	SolveNodeLimit
	SolveError
)

func (s SolveStatus) String() string {
	switch s {
	case SolveOptimal:
		return "Optimal"
	case SolveInfeasible:
		return "Infeasible"
	case SolveGapLimit:
		return "GapLimit"
	case SolveTimeLimit:
		return "TimeLimit"
	case SolveNodeLimit:
		return "NodeLimit"
	case SolveError:
		return "Error"
	default:
		return "?"
	}
}

// Result is what Model.Solve returns: the final status, the incumbent (if
// any), and the accumulated Statistics.
type Result struct {
	Status     SolveStatus
	Objective  float64
	Point      []float64
	Statistics *Statistics
	Err        error
}

// Model owns everything a search needs: the Problem, its Object layer, a
// live Relaxation, the configured Cut Engine, Heuristic Engine, Branching
// Strategy, and the running incumbent/cutoff/Statistics.
//
// Grounded on jjhbw-GoMILP/ilp.go's milpProblem (there the solve() receiver)
// and api.go's Problem.Solve top-level entry point; the field set is wider
// because this Model owns the Cut/Heuristic engines and Object layer the
// teacher never had.
type Model struct {
	problem *Problem

	objects []Object

	relaxation Relaxation
	branching  BranchingStrategy
	cuts       *CutEngine
	heuristics *HeuristicEngine

	params Params
	logger Logger
	msgs   *MessageHandler
	stats  *Statistics

	haveIncumbent bool
	incumbent     []float64
	incumbentObj  float64

	nextNodeID int64
	maxPassesPerNode int
}

// NewModel builds a Model over an already Setup Problem, applying opts in
// order. A default SimplexRelaxation, MostFractional branching strategy,
// and empty Cut/Heuristic engines are used unless overridden.
func NewModel(p *Problem, opts ...Option) (*Model, error) {
	m := &Model{
		problem:    p,
		params:     DefaultParams(),
		relaxation: NewSimplexRelaxation(),
		branching:  MostFractional{},
		cuts:       NewCutEngine(p.NumCols(), 1000, 1),
		heuristics: NewHeuristicEngine(),
		stats:      NewStatistics(),
	}
	explicitBranching := false
	for _, opt := range opts {
		before := m.branching
		if err := opt(m); err != nil {
			return nil, err
		}
		if m.branching != before {
			explicitBranching = true
		}
	}
	if !explicitBranching {
		m.branching = m.defaultBranchingStrategy()
	}
	m.msgs = newMessageHandler(m.logger, m.params.LogLevel)
	m.maxPassesPerNode = m.params.MaxPassesPerNode
	if m.maxPassesPerNode <= 0 {
		m.maxPassesPerNode = 1
	}

	if err := m.relaxation.Load(p); err != nil {
		return nil, newFatalError(MsgReadMPSError, "%s", err.Error())
	}
	m.buildObjects()
	return m, nil
}

// defaultBranchingStrategy translates params.BranchStrategy into a concrete
// BranchingStrategy, used when the caller did not supply one explicitly via
// WithBranchingStrategy.
func (m *Model) defaultBranchingStrategy() BranchingStrategy {
	switch m.params.BranchStrategy {
	case BranchPseudoCost:
		return NewPseudoCost()
	case BranchStrongBranching:
		return &StrongBranching{NumStrong: m.params.NumStrong, Evaluator: newStrongBranchEvaluator(m)}
	case BranchReliability:
		pc := NewPseudoCost()
		return &Reliability{
			Threshold:  3,
			PseudoCost: pc,
			Strong:     &StrongBranching{NumStrong: m.params.NumStrong, Evaluator: newStrongBranchEvaluator(m)},
		}
	default:
		return MostFractional{}
	}
}

// buildObjects populates the Object layer: one IntegerVariableObject per
// integer column and one ConicRowObject per cone. Linear rows are enforced
// directly by the Relaxation's bounds/rows, so they are not added as
// branching Objects (spec.md §4.1): LinearRowObject exists for callers that
// want a uniform Object view (e.g. a cut generator ranking rows and cones
// together), not for the default branching candidate set.
func (m *Model) buildObjects() {
	for _, idx := range m.problem.IntegerColumns() {
		m.objects = append(m.objects, &IntegerVariableObject{Variable: m.problem.variables[idx]})
	}
	for _, cone := range m.problem.conic {
		m.objects = append(m.objects, &ConicRowObject{Constraint: cone})
	}
}

// nodeQueueItem is one entry of the best-first node frontier.
type nodeQueueItem struct {
	node      *Node
	boundHint float64
}

// nodeQueue implements container/heap.Interface, ordering by boundHint
// ascending (best-first for a minimization search).
//
// Grounded on spec.md §4.7's "best-first node frontier"; stdlib
// container/heap is the pack's established idiom for this (confirmed in
// multiple other_examples/ branch-and-bound and scheduler files using the
// same package for a priority queue).
type nodeQueue []*nodeQueueItem

func (q nodeQueue) Len() int            { return len(q) }
func (q nodeQueue) Less(i, j int) bool  { return q[i].boundHint < q[j].boundHint }
func (q nodeQueue) Swap(i, j int)       { q[i], q[j] = q[j], q[i] }
func (q *nodeQueue) Push(x interface{}) { *q = append(*q, x.(*nodeQueueItem)) }
func (q *nodeQueue) Pop() interface{} {
	old := *q
	n := len(old)
	item := old[n-1]
	*q = old[:n-1]
	return item
}

// Solve runs the branch-and-bound search to completion, termination, or
// ctx cancellation, per spec.md §4.7's main loop and §7's termination
// ordering (time limit and ctx cancellation checked before gap; gap checked
// before declaring Optimal). There is no node limit, so SolveNodeLimit is
// never returned.
//
// Grounded on jjhbw-GoMILP/ilp.go's milpProblem.solve(ctx, workers,
// instrumentation) signature (context-based cancellation), filling in the
// newEnumerationTree/startSearch logic the teacher snapshot left
// unimplemented, using the subProblem/bnbConstraint branch-and-split idiom
// from subproblem.go generalized onto Node/Object.
func (m *Model) Solve(ctx context.Context) *Result {
	m.stats.StartTime = time.Now()

	var deadline <-chan time.Time
	if m.params.TimeLimit > 0 {
		timer := time.NewTimer(m.params.TimeLimit)
		defer timer.Stop()
		deadline = timer.C
	}

	root := newRootNode(m.problem)
	frontier := &nodeQueue{}
	heap.Init(frontier)
	heap.Push(frontier, &nodeQueueItem{node: root, boundHint: math.Inf(-1)})

	status := SolveInfeasible

	for frontier.Len() > 0 {
		select {
		case <-ctx.Done():
			status = SolveTimeLimit
			return m.finish(status, nil)
		case <-deadline:
			status = SolveTimeLimit
			return m.finish(status, nil)
		default:
		}

		item := heap.Pop(frontier).(*nodeQueueItem)
		node := item.node

		if m.haveIncumbent && item.boundHint >= m.incumbentObj {
			node.status = StatusFathomed
			m.stats.RecordNode(node)
			continue
		}

		node.install(m.relaxation)
		if m.haveIncumbent {
			m.relaxation.SetCutoff(m.incumbentObj)
		}

		result := m.processNode(node)

		switch result.outcome {
		case nodeOutcomeInfeasible:
			node.status = StatusInfeasible
		case nodeOutcomeFathomed:
			node.status = StatusFathomed
		case nodeOutcomeIncumbent:
			m.acceptIncumbent(result.point, result.objValue)
			node.status = StatusFathomed
		case nodeOutcomeBranch:
			node.status = StatusBranched
			node.recordWarmStart(m.relaxation)
			down, up := m.createChildren(node, result)
			heap.Push(frontier, &nodeQueueItem{node: down, boundHint: result.objValue})
			heap.Push(frontier, &nodeQueueItem{node: up, boundHint: result.objValue})
		}
		m.stats.RecordNode(node)

		node.uninstall(m.relaxation)

		bestBound := math.Inf(-1)
		if frontier.Len() > 0 {
			bestBound = (*frontier)[0].boundHint
		}
		if m.haveIncumbent && m.gapSatisfied(bestBound) {
			status = SolveOptimal
			break
		}
	}

	if frontier.Len() == 0 && status != SolveTimeLimit {
		if m.haveIncumbent {
			status = SolveOptimal
		} else {
			status = SolveInfeasible
		}
	}

	m.stats.MergeCutEngine(m.cuts)
	m.stats.MergeHeuristics(m.heuristics)
	return m.finish(status, nil)
}

// nodeOutcome classifies what processNode discovered.
type nodeOutcome int

const (
	nodeOutcomeInfeasible nodeOutcome = iota
	nodeOutcomeFathomed
	nodeOutcomeIncumbent
	nodeOutcomeBranch
)

type nodeProcessResult struct {
	outcome     nodeOutcome
	objValue    float64
	point       []float64
	candidate   BranchCandidate
	candidates  []BranchCandidate
}

// processNode resolves node's relaxation, runs the Cut Engine's bounding
// pass up to maxPassesPerNode times, and classifies the result: infeasible,
// bound-dominated (fathomed), integer/cone-feasible (a new incumbent), or
// in need of branching.
//
// Grounded on spec.md §4.3's per-node bounding loop and §4.7's node
// classification; the feasible-vs-branch decision mirrors
// jjhbw-GoMILP/subproblem.go's solution.branch() gate (there: feasible iff
// no fractional integer column), generalized to also require every
// ConicRowObject be within coneTol.
func (m *Model) processNode(node *Node) nodeProcessResult {
	status := m.relaxation.Resolve()
	switch status {
	case StatusCutoffReached:
		return nodeProcessResult{outcome: nodeOutcomeFathomed}
	case StatusInfeasible, StatusUnbounded, StatusUnknown, StatusFailed:
		return nodeProcessResult{outcome: nodeOutcomeInfeasible}
	}

	for pass := 0; pass < m.maxPassesPerNode; pass++ {
		sol := m.relaxation.Primal()
		installed, handles := m.cuts.RunBoundingPass(sol, m.problem, m.relaxation, node.depth)
		if len(installed) == 0 {
			break
		}
		node.localRows = append(node.localRows, installed...)
		node.rowHandles = append(node.rowHandles, handles...)
		status = m.relaxation.Resolve()
		if status == StatusCutoffReached {
			return nodeProcessResult{outcome: nodeOutcomeFathomed}
		}
		if status != StatusOptimal {
			return nodeProcessResult{outcome: nodeOutcomeInfeasible}
		}
	}

	sol := m.relaxation.Primal()
	objValue := m.relaxation.ObjValue()
	node.setDualBound(objValue)

	if m.haveIncumbent && objValue >= m.incumbentObj {
		return nodeProcessResult{outcome: nodeOutcomeFathomed}
	}

	var candidates []BranchCandidate
	for _, obj := range m.objects {
		amount, _ := obj.Infeasibility(sol, m.params.IntegerTol, m.params.ConeTol)
		if amount <= 0 {
			continue
		}
		col := -1
		if iv, ok := obj.(*IntegerVariableObject); ok {
			col = iv.Variable.index
		}
		candidates = append(candidates, BranchCandidate{Object: obj, ColumnIndex: col, Infeasibility: amount})
	}

	if len(candidates) == 0 {
		if point, obj, ok := m.heuristics.RunAtNode(sol, m.problem, m.params.IntegerTol, m.params.ConeTol, node.depth, node.depth == 0, false); ok && obj < objValue {
			return nodeProcessResult{outcome: nodeOutcomeIncumbent, objValue: obj, point: point}
		}
		return nodeProcessResult{outcome: nodeOutcomeIncumbent, objValue: objValue, point: append([]float64(nil), sol...)}
	}

	best := m.branching.Select(candidates, sol)
	return nodeProcessResult{outcome: nodeOutcomeBranch, objValue: objValue, candidate: best, candidates: candidates}
}

// createChildren turns a branch decision into two new Candidate Nodes,
// pushed onto the frontier by the caller.
//
// Grounded on jjhbw-GoMILP/subproblem.go's solution.branch()/getChild two-
// child split, generalized from a hardcoded variable-bound split to
// whatever BranchDescriptor the winning Object's CreateBranching produces
// (a variable bound split or a new row, per object.go).
func (m *Model) createChildren(node *Node, result nodeProcessResult) (*Node, *Node) {
	sol := m.relaxation.Primal()
	desc := result.candidate.Object.CreateBranching(sol)

	m.nextNodeID++
	downID := m.nextNodeID
	m.nextNodeID++
	upID := m.nextNodeID

	downBounds := boundDeltasFromMap(desc.DownBounds)
	upBounds := boundDeltasFromMap(desc.UpBounds)

	var downRows, upRows []*LinearConstraint
	if desc.DownRow != nil {
		downRows = append(downRows, desc.DownRow)
	}
	if desc.UpRow != nil {
		upRows = append(upRows, desc.UpRow)
	}

	down := node.createChild(downID, downBounds, downRows)
	up := node.createChild(upID, upBounds, upRows)
	return down, up
}

func boundDeltasFromMap(m map[int]Bound) []boundDelta {
	deltas := make([]boundDelta, 0, len(m))
	for col, b := range m {
		deltas = append(deltas, boundDelta{col: col, lower: b.Lower, upper: b.Upper, hasLower: b.HasLower, hasUpper: b.HasUpper})
	}
	return deltas
}

// acceptIncumbent installs a new best solution if it improves on the
// current one (or there is none yet), per spec.md §8's incumbent
// monotonicity property.
func (m *Model) acceptIncumbent(point []float64, objValue float64) {
	if m.haveIncumbent && objValue >= m.incumbentObj {
		return
	}
	m.haveIncumbent = true
	m.incumbent = point
	m.incumbentObj = objValue
	m.msgs.Printf(MsgHeuristicHit, 1, "incumbent", objValue)
}

// gapSatisfied reports whether the best remaining dual bound and the
// current incumbent are within the configured optimality gap, per spec.md
// §8's "tolerance-exactly-equal-to-gap treated feasible" boundary behavior.
// bestBound is the lowest boundHint (the parent's dual bound) among nodes
// still on the frontier; -Inf if that is unknown.
func (m *Model) gapSatisfied(bestBound float64) bool {
	if !m.haveIncumbent || math.IsInf(bestBound, -1) {
		return false
	}
	absGap := math.Abs(m.incumbentObj - bestBound)
	if absGap <= m.params.OptimalAbsGap {
		return true
	}
	relGap := absGap / math.Max(1e-10, math.Abs(m.incumbentObj))
	return relGap <= m.params.OptimalRelGap
}

func (m *Model) finish(status SolveStatus, err error) *Result {
	m.stats.WallClock = time.Since(m.stats.StartTime)
	r := &Result{
		Status:     status,
		Statistics: m.stats,
		Err:        err,
	}
	if m.haveIncumbent {
		r.Objective = m.externalObjective(m.incumbentObj)
		r.Point = m.incumbent
	}
	return r
}

// externalObjective converts an internally-minimized objective value (the
// engine always minimizes, per problem.go's ObjectiveCoefficients) back to
// the Problem's declared sense for reporting.
func (m *Model) externalObjective(internal float64) float64 {
	if m.problem.Sense() == Maximize {
		return -internal
	}
	return internal
}

// modelStrongBranchEvaluator implements StrongBranchEvaluator against a
// Model's own live Relaxation: it tentatively installs each child's bound
// delta, resolves, records the objective movement, and restores the
// relaxation before returning.
//
// Grounded on spec.md §4.4's StrongBranching description ("solves a trial
// relaxation for each candidate"); the save/mutate/restore shape mirrors
// Node.install/uninstall's bound handling.
type modelStrongBranchEvaluator struct {
	model *Model
}

// newStrongBranchEvaluator returns a StrongBranchEvaluator wired to m,
// suitable for passing into a StrongBranching or Reliability strategy via
// WithBranchingStrategy.
func newStrongBranchEvaluator(m *Model) StrongBranchEvaluator {
	return &modelStrongBranchEvaluator{model: m}
}

func (e *modelStrongBranchEvaluator) Evaluate(c BranchCandidate) (float64, float64, bool, bool) {
	relax := e.model.relaxation
	parentObj := relax.ObjValue()

	if c.ColumnIndex < 0 {
		// Non-column (conic) candidates have no single bound to perturb
		// for a trial solve; report no usable signal.
		return 0, 0, false, false
	}

	lower, upper := relax.(boundsReader).ColumnBounds(c.ColumnIndex)
	sol := relax.Primal()
	x := sol[c.ColumnIndex]

	relax.SetBounds(c.ColumnIndex, lower, math.Floor(x))
	downStatus := relax.Resolve()
	downFeasible := downStatus == StatusOptimal
	downDelta := 0.0
	if downFeasible {
		downDelta = relax.ObjValue() - parentObj
	}

	relax.SetBounds(c.ColumnIndex, math.Ceil(x), upper)
	upStatus := relax.Resolve()
	upFeasible := upStatus == StatusOptimal
	upDelta := 0.0
	if upFeasible {
		upDelta = relax.ObjValue() - parentObj
	}

	relax.SetBounds(c.ColumnIndex, lower, upper)
	relax.Resolve()

	return downDelta, upDelta, downFeasible, upFeasible
}
