package dco

import (
	"math"

	"gonum.org/v1/gonum/floats"
)

// Direction indicates which way an Object would like a bound moved to
// remove its infeasibility.
type Direction int

const (
	DirectionDown Direction = iota
	DirectionUp
	DirectionEither
)

// BranchDescriptor is what createBranching returns: two child bound/row
// deltas, ready for Model.createChildren to pass to Node.createChild.
//
// Grounded on spec.md §3's BranchDescriptor and DisCO's two-way branching
// convention (down child first, up child second).
type BranchDescriptor struct {
	// DownBounds/UpBounds are (variable index -> new upper/lower bound)
	// deltas applied to the down/up children respectively. A branch on an
	// integer variable sets exactly one entry in each; a branch on a conic
	// Object may add a row instead (DownRow/UpRow).
	DownBounds map[int]Bound
	UpBounds   map[int]Bound

	DownRow *LinearConstraint
	UpRow   *LinearConstraint
}

// Bound is a one-sided bound tightening: either a new lower or new upper
// limit for a single column.
type Bound struct {
	Lower, Upper float64
	HasLower     bool
	HasUpper     bool
}

// Object is the tagged-variant polymorphic unit the Branching Strategy and
// bounding pass both operate on: something that can measure its own
// infeasibility against a candidate solution and propose a two-way branch.
//
// Grounded on spec.md §4.1's design note (tagged-variant interface instead
// of an inheritance hierarchy, mirroring DisCO's BcpsObject/
// DcoConicConstraint split without reproducing C++ virtual dispatch).
type Object interface {
	// Infeasibility reports how far sol violates this Object, and which
	// direction resolving it would naturally go. amount is 0 when the
	// Object is satisfied within tolerance.
	Infeasibility(sol []float64, integerTol, coneTol float64) (amount float64, dir Direction)

	// CreateBranching proposes a two-way split that would reduce (or
	// eliminate) this Object's infeasibility at sol.
	CreateBranching(sol []float64) BranchDescriptor
}

// IntegerVariableObject wraps a Variable, measuring fractionality.
type IntegerVariableObject struct {
	Variable *Variable
}

func (o *IntegerVariableObject) Infeasibility(sol []float64, integerTol, _ float64) (float64, Direction) {
	x := sol[o.Variable.index]
	frac := x - math.Floor(x)
	dist := math.Min(frac, 1-frac)
	if dist <= integerTol {
		return 0, DirectionEither
	}
	if frac > 0.5 {
		return dist, DirectionUp
	}
	return dist, DirectionDown
}

// CreateBranching splits on the variable's fractional value: down child
// gets x <= floor(x), up child gets x >= ceil(x).
//
// Grounded on jjhbw-GoMILP/subproblem.go's getChild(branchOn, factor,
// smallerOrEqualThan) two-way split, generalized to the bound-delta map
// shape BranchDescriptor uses.
func (o *IntegerVariableObject) CreateBranching(sol []float64) BranchDescriptor {
	x := sol[o.Variable.index]
	idx := o.Variable.index
	return BranchDescriptor{
		DownBounds: map[int]Bound{idx: {Upper: math.Floor(x), HasUpper: true}},
		UpBounds:   map[int]Bound{idx: {Lower: math.Ceil(x), HasLower: true}},
	}
}

// LinearRowObject wraps a LinearConstraint, measuring row violation. Linear
// rows are enforced directly by the relaxation's bounds, so in practice
// their infeasibility is always (near) zero post-resolve; the Object exists
// so cut generators can uniformly rank linear and conic rows together.
type LinearRowObject struct {
	Constraint *LinearConstraint
	RowIndex   int
	matrixRow  []float64
}

func (o *LinearRowObject) Infeasibility(sol []float64, _, _ float64) (float64, Direction) {
	v := floats.Dot(o.matrixRow, sol)
	lb, ub := o.Constraint.lb, o.Constraint.ub
	if v < lb-1e-9 {
		return lb - v, DirectionUp
	}
	if v > ub+1e-9 {
		return v - ub, DirectionDown
	}
	return 0, DirectionEither
}

// CreateBranching is not meaningful for a linear row (linear infeasibility
// is resolved by the relaxation itself, not by branching); it returns an
// empty descriptor.
func (o *LinearRowObject) CreateBranching(_ []float64) BranchDescriptor {
	return BranchDescriptor{}
}

// ConicRowObject wraps a ConicConstraint, measuring how far a point sits
// outside the cone.
//
// Grounded on original_source/src/DcoConicConstraint.hpp's infeasibility():
// for a Lorentz cone (x0, x1..xn), infeasibility is ||x1..xn|| - x0 when
// positive; for a rotated cone (x0, x1, x2..xn), it is the same residual
// taken after the rotated-to-standard transform: axis (x0+x1)/sqrt2 and
// remaining entries ((x0-x1)/sqrt2, x2..xn).
type ConicRowObject struct {
	Constraint *ConicConstraint
}

func (o *ConicRowObject) Infeasibility(sol []float64, _, coneTol float64) (float64, Direction) {
	members := o.Constraint.members
	vals := make([]float64, len(members))
	for i, idx := range members {
		vals[i] = sol[idx]
	}

	var axis float64
	var rest []float64
	switch o.Constraint.coneType {
	case Lorentz:
		axis = vals[0]
		rest = vals[1:]
	case RotatedLorentz:
		sqrt2 := math.Sqrt2
		axis = (vals[0] + vals[1]) / sqrt2
		x1 := (vals[0] - vals[1]) / sqrt2
		rest = append([]float64{x1}, vals[2:]...)
	}

	norm := floats.Norm(rest, 2)
	gap := norm - axis
	if gap <= coneTol {
		return 0, DirectionEither
	}
	// Increasing the axis variable reduces the gap fastest; prefer that
	// direction when proposing a branch or cut.
	return gap, DirectionUp
}

// CreateBranching for a conic Object adds a linear support cutting off the
// current point from one side, rather than tightening a variable bound
// directly: this is the outer-approximation branch spec.md's glossary
// describes. Both children receive the same new row (it is globally valid);
// callers that want strict OA branching instead of OA cutting should prefer
// the Cut Engine's generator for this cone and treat CreateBranching as a
// fallback when branching is forced (e.g. StrongBranching evaluating a
// conic Object as a branching candidate).
func (o *ConicRowObject) CreateBranching(sol []float64) BranchDescriptor {
	members := o.Constraint.members
	vals := make([]float64, len(members))
	for i, idx := range members {
		vals[i] = sol[idx]
	}
	rotated := o.Constraint.coneType == RotatedLorentz
	if rotated {
		// Work in the standard-cone coordinates Infeasibility uses: axis
		// (x0+x1)/sqrt2, first remaining entry (x0-x1)/sqrt2.
		vals[0], vals[1] = (vals[0]+vals[1])/math.Sqrt2, (vals[0]-vals[1])/math.Sqrt2
	}
	norm := floats.Norm(vals[1:], 2)
	if norm == 0 {
		return BranchDescriptor{}
	}
	indices := append([]int(nil), members...)
	values := make([]float64, len(members))
	values[0] = -1
	for i := 1; i < len(members); i++ {
		values[i] = vals[i] / norm
	}
	if rotated {
		// Map the support's axis and first entry back onto x0 and x1.
		u := values[1]
		values[0], values[1] = (u-1)/math.Sqrt2, (-1-u)/math.Sqrt2
	}
	row := &LinearConstraint{
		lb: math.Inf(-1),
		ub: 0,
	}
	for i, idx := range indices {
		row.terms = append(row.terms, LinearExpr{coef: values[i], variable: &Variable{index: idx}})
	}
	return BranchDescriptor{DownRow: row, UpRow: row}
}
