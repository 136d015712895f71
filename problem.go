package dco

import (
	"math"
	"sort"

	"gonum.org/v1/gonum/mat"
)

// ObjectiveSense is the optimization direction.
type ObjectiveSense int

const (
	Minimize ObjectiveSense = iota
	Maximize
)

// Variable is a decision variable of the master Problem: identity, bounds,
// and an integrality flag.
//
// Grounded on jjhbw-GoMILP/api.go's Variable, generalized with an explicit
// index (the teacher relied on slice position alone) and integer-bound
// rounding at setup time (spec.md §3's Variable invariant).
type Variable struct {
	index       int
	name        string
	coefficient float64
	integer     bool
	lower       float64
	upper       float64
}

// NewVariable builds a standalone Variable. Problem.AddVariable is the
// normal entry point; this constructor exists for tests and for building
// Variables before they are attached to a Problem (e.g. decoding).
func NewVariable(name string, lower, upper float64) *Variable {
	return &Variable{name: name, lower: lower, upper: upper}
}

func (v *Variable) Index() int        { return v.index }
func (v *Variable) Name() string      { return v.name }
func (v *Variable) Bounds() (float64, float64) { return v.lower, v.upper }
func (v *Variable) IsInteger() bool   { return v.integer }

// SetCoeff sets the variable's coefficient in the objective function.
func (v *Variable) SetCoeff(c float64) *Variable {
	v.coefficient = c
	return v
}

// SetInteger marks the variable as integral.
func (v *Variable) SetInteger() *Variable {
	v.integer = true
	return v
}

// SetBounds sets the variable's lower and upper bound.
func (v *Variable) SetBounds(lower, upper float64) *Variable {
	v.lower = lower
	v.upper = upper
	return v
}

// roundIntegerBounds tightens an integer variable's bounds inward to the
// nearest integers, per spec.md §3's Variable invariant.
func (v *Variable) roundIntegerBounds() {
	if !v.integer {
		return
	}
	if !math.IsInf(v.lower, -1) {
		v.lower = math.Ceil(v.lower)
	}
	if !math.IsInf(v.upper, 1) {
		v.upper = math.Floor(v.upper)
	}
}

// LinearExpr is one (coefficient, variable) term of a LinearConstraint's
// left-hand side.
type LinearExpr struct {
	coef     float64
	variable *Variable
}

// LinearConstraint is a sparse row with a lower and upper bound, either of
// which may be infinite.
//
// Grounded on jjhbw-GoMILP/api.go's Constraint (which only supported
// EqualTo/SmallerThanOrEqualTo), generalized to the two-sided range
// constraint spec.md §3 requires.
type LinearConstraint struct {
	id       int
	terms    []LinearExpr
	lb, ub   float64
	problem  *Problem
}

// AddTerm appends a (coefficient, variable) term. The variable must already
// be registered with the same Problem.
func (c *LinearConstraint) AddTerm(coef float64, v *Variable) *LinearConstraint {
	c.problem.mustOwn(v)
	c.terms = append(c.terms, LinearExpr{coef: coef, variable: v})
	return c
}

// EqualTo constrains the row to equal val.
func (c *LinearConstraint) EqualTo(val float64) *LinearConstraint {
	c.lb, c.ub = val, val
	return c
}

// SmallerThanOrEqualTo constrains the row's upper bound; the lower bound is
// left at -Inf unless previously set.
func (c *LinearConstraint) SmallerThanOrEqualTo(val float64) *LinearConstraint {
	c.ub = val
	return c
}

// GreaterThanOrEqualTo constrains the row's lower bound; the upper bound is
// left at +Inf unless previously set.
func (c *LinearConstraint) GreaterThanOrEqualTo(val float64) *LinearConstraint {
	c.lb = val
	return c
}

// Between constrains the row to lie in [lb, ub].
func (c *LinearConstraint) Between(lb, ub float64) *LinearConstraint {
	c.lb, c.ub = lb, ub
	return c
}

// ConeType distinguishes a standard Lorentz cone from a rotated one.
type ConeType int

const (
	Lorentz ConeType = iota
	RotatedLorentz
)

// Support is a linear inequality that outer-approximates a ConicConstraint:
// it is tangent to the cone and valid everywhere on it.
//
// Grounded on original_source/src/DcoConicConstraint.hpp's supports_/
// activeSupports_ arrays.
type Support struct {
	// Indices/Values describe sum(Values[i]*x[Indices[i]]) <= RHS.
	Indices []int
	Values  []float64
	RHS     float64
	Active  bool
}

// ConicConstraint is a Lorentz or rotated-Lorentz cone over an ordered list
// of variable indices, plus zero or more linear supports.
//
// Grounded on original_source/src/DcoConicConstraint.hpp, generalized into a
// Go value type with a slice of Support rather than a C array pair.
type ConicConstraint struct {
	id       int
	coneType ConeType
	members  []int // variable indices; members[0] is the "axis" variable
	supports []Support
}

func (c *ConicConstraint) Type() ConeType    { return c.coneType }
func (c *ConicConstraint) Members() []int    { return append([]int(nil), c.members...) }
func (c *ConicConstraint) Size() int         { return len(c.members) }
func (c *ConicConstraint) Supports() []Support { return c.supports }

// AddSupport registers a new, initially active, linear support for this
// cone.
func (c *ConicConstraint) AddSupport(s Support) {
	s.Active = true
	c.supports = append(c.supports, s)
}

// validate checks the structural invariants spec.md §3 and §8 place on a
// cone: nonempty, and rotated cones need at least 3 members.
func (c *ConicConstraint) validate() error {
	if len(c.members) == 0 {
		return ErrEmptyCone
	}
	if c.coneType == RotatedLorentz && len(c.members) < 3 {
		return ErrRotatedConeTooSmall
	}
	return nil
}

// Problem is the immutable-after-setup master problem: variable bounds and
// types, the linear constraint matrix with row bounds, and a list of conic
// constraints over variable subsets.
//
// Grounded on jjhbw-GoMILP/api.go's Problem/toSolveable, extended with conic
// constraints and a column-major matrix cache (spec.md §3's "derived
// caches").
type Problem struct {
	sense       ObjectiveSense
	variables   []*Variable
	linear      []*LinearConstraint
	conic       []*ConicConstraint

	// set true by Setup(); no further structural mutation is allowed.
	frozen bool

	// derived caches, populated by Setup().
	columnMatrix    *mat.Dense // numRows x numCols, linear rows only
	integerColumns  []int
}

// NewProblem creates an empty Problem minimizing by default.
func NewProblem(sense ObjectiveSense) *Problem {
	return &Problem{sense: sense}
}

func (p *Problem) mustOwn(v *Variable) {
	if v.index < 0 || v.index >= len(p.variables) || p.variables[v.index] != v {
		panic("dco: variable does not belong to this problem")
	}
}

// AddVariable registers a new continuous variable with default bounds
// [0, +Inf) and zero objective coefficient, returning a reference for
// further configuration.
func (p *Problem) AddVariable(name string) *Variable {
	if p.frozen {
		panic("dco: cannot add variables after Setup")
	}
	v := &Variable{
		index: len(p.variables),
		name:  name,
		lower: 0,
		upper: math.Inf(1),
	}
	p.variables = append(p.variables, v)
	return v
}

// AddConstraint starts a new LinearConstraint with unbounded [-Inf, +Inf]
// range; call EqualTo/Between/etc. to tighten it.
func (p *Problem) AddConstraint() *LinearConstraint {
	if p.frozen {
		panic("dco: cannot add constraints after Setup")
	}
	c := &LinearConstraint{
		id:      len(p.linear),
		lb:      math.Inf(-1),
		ub:      math.Inf(1),
		problem: p,
	}
	p.linear = append(p.linear, c)
	return c
}

// AddConicConstraint registers a cone of the given type over the given
// ordered member variables (by index into p.Variables()).
func (p *Problem) AddConicConstraint(coneType ConeType, members []int) (*ConicConstraint, error) {
	if p.frozen {
		panic("dco: cannot add constraints after Setup")
	}
	c := &ConicConstraint{
		id:       len(p.conic),
		coneType: coneType,
		members:  append([]int(nil), members...),
	}
	if err := c.validate(); err != nil {
		return nil, err
	}
	p.conic = append(p.conic, c)
	return c, nil
}

func (p *Problem) Sense() ObjectiveSense        { return p.sense }
func (p *Problem) Variables() []*Variable        { return p.variables }
func (p *Problem) LinearConstraints() []*LinearConstraint { return p.linear }
func (p *Problem) ConicConstraints() []*ConicConstraint   { return p.conic }
func (p *Problem) NumCols() int { return len(p.variables) }
func (p *Problem) NumRows() int { return len(p.linear) }

// IntegerColumns returns the indices of integer-constrained columns,
// ascending.
func (p *Problem) IntegerColumns() []int { return append([]int(nil), p.integerColumns...) }

// ColumnMatrix returns the column-major-cached dense linear constraint
// matrix (numRows x numCols). Only valid after Setup.
func (p *Problem) ColumnMatrix() *mat.Dense { return p.columnMatrix }

// Setup freezes the Problem, validates its invariants, rounds integer
// variable bounds inward, and builds derived caches. It must be called
// exactly once before the Problem is handed to a Model.
func (p *Problem) Setup() error {
	for _, v := range p.variables {
		if v.lower > v.upper {
			return ErrInconsistentBounds
		}
		v.roundIntegerBounds()
		if v.integer {
			p.integerColumns = append(p.integerColumns, v.index)
		}
	}
	sort.Ints(p.integerColumns)

	for _, c := range p.linear {
		seen := make(map[int]bool, len(c.terms))
		for _, t := range c.terms {
			if seen[t.variable.index] {
				return ErrUnsortedIndices
			}
			seen[t.variable.index] = true
			if math.IsNaN(t.coef) || math.IsInf(t.coef, 0) {
				return ErrInvalidCoefficient
			}
		}
	}

	numCols := len(p.variables)
	numRows := len(p.linear)
	// mat.NewDense panics on a zero dimension, so a problem with no linear
	// rows (or no columns) gets an empty Dense instead.
	m := &mat.Dense{}
	if numRows > 0 && numCols > 0 {
		m = mat.NewDense(numRows, numCols, nil)
	}
	for i, c := range p.linear {
		for _, t := range c.terms {
			m.Set(i, t.variable.index, t.coef)
		}
	}
	p.columnMatrix = m
	p.frozen = true
	return nil
}

// ObjectiveCoefficients returns the per-column objective coefficients,
// already sign-flipped to a minimization sense (spec.md §3: Problem stores
// objective sense and coefficients; the engine always minimizes
// internally).
func (p *Problem) ObjectiveCoefficients() []float64 {
	c := make([]float64, len(p.variables))
	for i, v := range p.variables {
		k := v.coefficient
		if p.sense == Maximize {
			k = -k
		}
		c[i] = k
	}
	return c
}

// RowBounds returns the lower and upper bound vectors of the linear rows,
// in row order.
func (p *Problem) RowBounds() (lb, ub []float64) {
	lb = make([]float64, len(p.linear))
	ub = make([]float64, len(p.linear))
	for i, c := range p.linear {
		lb[i], ub[i] = c.lb, c.ub
	}
	return
}
