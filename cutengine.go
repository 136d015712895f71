package dco

import (
	"math/rand"

	"gonum.org/v1/gonum/floats"
)

// CutStrategy controls when a cut generator (or, aggregated, the whole Cut
// Engine) runs, per spec.md §4.3.
type CutStrategy int

const (
	CutNone CutStrategy = iota
	CutRoot
	CutAuto
	CutPeriodic
)

// mostPermissive returns the most generator-friendly of two strategies,
// used to compute the Cut Engine's effective global strategy from its
// generators' individual settings.
//
// Grounded on original_source/src/DcoModel.hpp's documented rule: "the
// global cut strategy is set to the most allowing one among [the
// generators']".
func mostPermissive(a, b CutStrategy) CutStrategy {
	rank := func(s CutStrategy) int {
		switch s {
		case CutNone:
			return 0
		case CutRoot:
			return 1
		case CutPeriodic:
			return 2
		case CutAuto:
			return 3
		}
		return 0
	}
	if rank(a) >= rank(b) {
		return a
	}
	return b
}

// CutGenerator produces zero or more valid rows (linear rows or conic
// supports) for a node's current relaxation solution.
type CutGenerator interface {
	Name() string
	Strategy() CutStrategy
	Frequency() int
	// Generate proposes new linear rows that cut off sol without removing
	// any integer-feasible, cone-feasible point.
	Generate(sol []float64, p *Problem) []*LinearConstraint
}

// generatorStats accumulates spec.md §6's per-generator statistics
// (MsgCutStatFinal/MsgCutStatNode).
type generatorStats struct {
	calls     int
	generated int
}

// CutEngine runs registered CutGenerators in a node's bounding pass,
// suppressing duplicate and overly dense cuts and forgetting the
// signatures of cuts after maxAge passes.
//
// Grounded on spec.md §4.3 directly; the per-node local-addition/backtrack
// bookkeeping idiom is grounded on jjhbw-GoMILP/subproblem.go's
// bnbConstraints slice, generalized from "branch bounds only" to "any
// generated row".
type CutEngine struct {
	generators []CutGenerator
	stats      map[string]*generatorStats

	// conRandoms is a fixed random projection vector used to hash a row's
	// coefficients for duplicate suppression, per spec.md §4.3.
	conRandoms []float64

	denseConCutoff int

	seen map[uint64]bool

	// age tracks, per cut signature, how many bounding passes have run
	// since the cut was installed; whether the cut is tight is not checked.
	// Past maxAge the signature is dropped from age and seen, so the same
	// cut may be generated again; the row itself is not removed from the
	// relaxation.
	age    map[uint64]int
	maxAge int
}

// NewCutEngine builds a CutEngine sized for numCols columns, seeding
// conRandoms deterministically from seed so repeated runs (and encode/decode
// round-trips that replay a search) hash identically.
func NewCutEngine(numCols int, denseConCutoff int, seed int64) *CutEngine {
	rng := rand.New(rand.NewSource(seed))
	randoms := make([]float64, numCols)
	for i := range randoms {
		randoms[i] = rng.Float64()
	}
	return &CutEngine{
		stats:          make(map[string]*generatorStats),
		conRandoms:     randoms,
		denseConCutoff: denseConCutoff,
		seen:           make(map[uint64]bool),
		age:            make(map[uint64]int),
		maxAge:         50,
	}
}

// AddGenerator registers a CutGenerator.
func (e *CutEngine) AddGenerator(g CutGenerator) {
	e.generators = append(e.generators, g)
	e.stats[g.Name()] = &generatorStats{}
}

// EffectiveStrategy returns the most permissive strategy among all
// registered generators (CutNone if there are none).
func (e *CutEngine) EffectiveStrategy() CutStrategy {
	strat := CutNone
	for _, g := range e.generators {
		strat = mostPermissive(strat, g.Strategy())
	}
	return strat
}

// EffectiveFrequency returns the minimum (most frequent) frequency among all
// registered generators, per original_source/src/DcoModel.hpp's documented
// rule that the global frequency is "set to the most frequent one".
func (e *CutEngine) EffectiveFrequency() int {
	freq := -1
	for _, g := range e.generators {
		if freq == -1 || g.Frequency() < freq {
			freq = g.Frequency()
		}
	}
	if freq == -1 {
		return 0
	}
	return freq
}

// rowSignature hashes a row's sorted (index, value) pairs against
// conRandoms, the duplicate-cut fingerprint spec.md §4.3 calls for.
func (e *CutEngine) rowSignature(row *LinearConstraint) uint64 {
	dense := make([]float64, len(e.conRandoms))
	for _, t := range row.terms {
		if t.variable.index < len(dense) {
			dense[t.variable.index] = t.coef
		}
	}
	dot := floats.Dot(dense, e.conRandoms)
	return uint64FromFloat(dot)
}

func uint64FromFloat(f float64) uint64 {
	// A simple, deterministic quantization: multiply into an integer
	// range wide enough that two distinct real cuts practically never
	// collide, while identical cuts always hash identically.
	scaled := f * 1e9
	if scaled < 0 {
		scaled = -scaled
	}
	return uint64(scaled)
}

// density reports the number of nonzero coefficients in a row.
func density(row *LinearConstraint) int {
	return len(row.terms)
}

// RunBoundingPass performs one node's generator sweep per spec.md §4.3's
// 8-step loop:
//  1. run each due generator against the current relaxation solution
//  2. collect candidate rows
//  3. drop rows denser than denseConCutoff
//  4. drop rows whose signature this engine has already seen (at any node,
//     until that signature ages out)
//  5. add surviving rows to the relaxation
//  6. resolve
//  7. record per-generator statistics
//  8. age every remembered signature and forget any past maxAge
//
// It returns the rows actually installed alongside the Relaxation handle
// each one was given by AddRow, so the caller (the Node) can record those
// handles in its own rowHandles and remove the physical rows again via
// RemoveRows on backtrack — without this, a cut added mid-node would have
// no handle recorded anywhere and would leak into the relaxation for the
// rest of the search.
func (e *CutEngine) RunBoundingPass(sol []float64, p *Problem, relax Relaxation, nodeDepth int) ([]*LinearConstraint, []int) {
	var installed []*LinearConstraint
	localSeen := make(map[uint64]bool)

	for _, g := range e.generators {
		if !e.isDue(g, nodeDepth) {
			continue
		}
		stats := e.stats[g.Name()]
		stats.calls++

		rows := g.Generate(sol, p)
		for _, row := range rows {
			if density(row) > e.denseConCutoff {
				continue
			}
			sig := e.rowSignature(row)
			if e.seen[sig] || localSeen[sig] {
				continue
			}
			localSeen[sig] = true
			e.seen[sig] = true
			e.age[sig] = 0
			stats.generated++
			installed = append(installed, row)
		}
	}

	var handles []int
	for _, row := range installed {
		handles = append(handles, relax.AddRow(row))
	}
	if len(installed) > 0 {
		relax.Resolve()
	}

	for sig := range e.age {
		e.age[sig]++
		if e.age[sig] > e.maxAge {
			delete(e.age, sig)
			delete(e.seen, sig)
		}
	}

	return installed, handles
}

// isDue decides whether a generator should run at this node, applying its
// own strategy/frequency (spec.md §4.3): Root generators only run at
// depth 0, Periodic generators run at depths that are multiples of
// Frequency() (the count of processed nodes is not used), Auto and None
// are left to the caller's discretion (Auto always runs; None never runs).
func (e *CutEngine) isDue(g CutGenerator, nodeDepth int) bool {
	switch g.Strategy() {
	case CutNone:
		return false
	case CutRoot:
		return nodeDepth == 0
	case CutPeriodic:
		freq := g.Frequency()
		if freq <= 0 {
			freq = 1
		}
		return nodeDepth%freq == 0
	case CutAuto:
		return true
	default:
		return false
	}
}

// ConicSupportGenerator generates a linear outer-approximation support for
// every ConicConstraint whose current point lies (tolerably) outside the
// cone — the supporting-hyperplane cut spec.md's glossary describes.
//
// Grounded on original_source/src/DcoConicConstraint.hpp's supports_ array
// construction, reimplemented as a stateless generator rather than a method
// on the constraint itself, to fit the CutGenerator interface.
type ConicSupportGenerator struct {
	Tol       float64
	strategy  CutStrategy
	frequency int
}

// NewConicSupportGenerator builds a generator running with the given
// strategy/frequency.
func NewConicSupportGenerator(tol float64, strategy CutStrategy, frequency int) *ConicSupportGenerator {
	return &ConicSupportGenerator{Tol: tol, strategy: strategy, frequency: frequency}
}

func (g *ConicSupportGenerator) Name() string         { return "ConicSupport" }
func (g *ConicSupportGenerator) Strategy() CutStrategy { return g.strategy }
func (g *ConicSupportGenerator) Frequency() int        { return g.frequency }

func (g *ConicSupportGenerator) Generate(sol []float64, p *Problem) []*LinearConstraint {
	var rows []*LinearConstraint
	for _, cone := range p.conic {
		obj := &ConicRowObject{Constraint: cone}
		amount, _ := obj.Infeasibility(sol, 0, g.Tol)
		if amount <= 0 {
			continue
		}
		desc := obj.CreateBranching(sol)
		if desc.DownRow != nil {
			rows = append(rows, desc.DownRow)
		}
	}
	return rows
}
