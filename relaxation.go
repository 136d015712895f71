package dco

import (
	"math"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/optimize/convex/lp"
)

// RelaxationStatus reports the outcome of a resolve, per spec.md §4.2.
type RelaxationStatus int

const (
	StatusOptimal RelaxationStatus = iota
	StatusInfeasible
	StatusCutoffReached
	StatusIterationLimit
	StatusUnbounded
	StatusUnknown
	StatusFailed
)

func (s RelaxationStatus) String() string {
	switch s {
	case StatusOptimal:
		return "Optimal"
	case StatusInfeasible:
		return "Infeasible"
	case StatusCutoffReached:
		return "CutoffReached"
	case StatusIterationLimit:
		return "IterationLimit"
	case StatusUnbounded:
		return "Unbounded"
	case StatusUnknown:
		return "Unknown"
	case StatusFailed:
		return "Failed"
	default:
		return "?"
	}
}

// WarmStartHandle opaquely identifies a basis the relaxation can resume
// from. The engine never inspects its contents; Relaxation implementations
// define what it holds.
type WarmStartHandle interface{}

// Relaxation is the contract the Search Driver uses to solve node
// relaxations, per spec.md §4.2. A Relaxation is owned exclusively by the
// Model and its currently active Node (spec.md §5) — it is mutated in
// place rather than rebuilt per node.
type Relaxation interface {
	// Load installs the base problem: objective, the full linear row set,
	// and column bounds. Called once, before any node is processed.
	Load(p *Problem) error

	// SetBounds overrides the bounds of column idx for the active node.
	SetBounds(col int, lower, upper float64)

	// AddRow appends a temporary row (a branch-generated cut or OA
	// support) to the relaxation, returning a handle used by RemoveRows.
	AddRow(row *LinearConstraint) int

	// RemoveRows drops rows with the given handles, restoring the
	// relaxation to its state before they were added.
	RemoveRows(handles []int)

	// SetCutoff installs a primal bound the simplex may use to prune
	// (StatusCutoffReached) without finishing the full solve.
	SetCutoff(bound float64)

	SetWarmStart(h WarmStartHandle)
	GetWarmStart() WarmStartHandle

	// Resolve re-solves the relaxation from its current state.
	Resolve() RelaxationStatus

	Primal() []float64
	Dual() []float64
	ObjValue() float64
	IterationCount() int
}

// SimplexRelaxation is the reference Relaxation implementation: a dense
// simplex tableau resolved from scratch on every call via
// gonum.org/v1/gonum/optimize/convex/lp. It keeps no true warm start (gonum's
// lp.Simplex has none to offer) but satisfies the Relaxation contract so
// that tests and small problems never require a CGO solver.
//
// Grounded on jjhbw-GoMILP/subproblem.go's subProblem.solve/
// combineInequalities/convertToEqualities, generalized from a throwaway
// per-node struct into a long-lived, mutable object that the Search Driver
// reconfigures between nodes instead of reallocating.
type SimplexRelaxation struct {
	baseA    *mat.Dense
	baseLB   []float64
	baseUB   []float64
	colLower []float64
	colUpper []float64
	cutoff   float64
	haveCutoff bool

	extraRows []*LinearConstraint
	rowIDs    []int
	nextRowID int

	warmStart WarmStartHandle

	objective []float64

	// last resolve outputs
	primal    []float64
	objValue  float64
	iterCount int
}

// NewSimplexRelaxation constructs an empty relaxation; call Load before use.
func NewSimplexRelaxation() *SimplexRelaxation {
	return &SimplexRelaxation{}
}

func (r *SimplexRelaxation) Load(p *Problem) error {
	r.objective = p.ObjectiveCoefficients()
	r.baseA = p.columnMatrix
	r.baseLB, r.baseUB = p.RowBounds()

	n := p.NumCols()
	r.colLower = make([]float64, n)
	r.colUpper = make([]float64, n)
	for i, v := range p.variables {
		r.colLower[i], r.colUpper[i] = v.lower, v.upper
	}
	return nil
}

func (r *SimplexRelaxation) SetBounds(col int, lower, upper float64) {
	r.colLower[col] = lower
	r.colUpper[col] = upper
}

// ColumnBounds reports column col's currently installed bounds, satisfying
// the boundsReader interface Node.install relies on.
func (r *SimplexRelaxation) ColumnBounds(col int) (float64, float64) {
	return r.colLower[col], r.colUpper[col]
}

func (r *SimplexRelaxation) AddRow(row *LinearConstraint) int {
	r.nextRowID++
	id := r.nextRowID
	r.extraRows = append(r.extraRows, row)
	r.rowIDs = append(r.rowIDs, id)
	return id
}

func (r *SimplexRelaxation) RemoveRows(handles []int) {
	remove := make(map[int]bool, len(handles))
	for _, h := range handles {
		remove[h] = true
	}
	kept := r.extraRows[:0]
	keptIDs := r.rowIDs[:0]
	for i, id := range r.rowIDs {
		if remove[id] {
			continue
		}
		kept = append(kept, r.extraRows[i])
		keptIDs = append(keptIDs, id)
	}
	r.extraRows = kept
	r.rowIDs = keptIDs
}

func (r *SimplexRelaxation) SetCutoff(bound float64) {
	r.cutoff = bound
	r.haveCutoff = true
}

func (r *SimplexRelaxation) SetWarmStart(h WarmStartHandle) { r.warmStart = h }
func (r *SimplexRelaxation) GetWarmStart() WarmStartHandle  { return r.warmStart }

// Resolve combines the base rows, any extra rows, and column bounds (as
// additional rows, since lp.Simplex wants everything in standard
// equality-with-slacks form) and calls gonum's simplex solver.
//
// Grounded on jjhbw-GoMILP/subproblem.go's combineInequalities (merging base
// and branch-local rows) and convertToEqualities (slack-variable
// standard-form conversion), both generalized to also fold in column bound
// rows rather than passing them to lp.Simplex separately, since gonum's
// lp.Simplex takes only a single A/b/c equality-standard-form triple.
func (r *SimplexRelaxation) Resolve() RelaxationStatus {
	numCols := len(r.objective)
	rows := make([][]float64, 0, r.baseA.RawMatrix().Rows+len(r.extraRows)+2*numCols)
	lowers := make([]float64, 0, cap(rows))
	uppers := make([]float64, 0, cap(rows))

	nr, _ := r.baseA.Dims()
	for i := 0; i < nr; i++ {
		row := make([]float64, numCols)
		mat.Row(row, i, r.baseA)
		rows = append(rows, row)
		lowers = append(lowers, r.baseLB[i])
		uppers = append(uppers, r.baseUB[i])
	}
	for _, er := range r.extraRows {
		row := make([]float64, numCols)
		for _, t := range er.terms {
			row[t.variable.index] = t.coef
		}
		rows = append(rows, row)
		lowers = append(lowers, er.lb)
		uppers = append(uppers, er.ub)
	}
	for i := 0; i < numCols; i++ {
		row := make([]float64, numCols)
		row[i] = 1
		rows = append(rows, row)
		lowers = append(lowers, r.colLower[i])
		uppers = append(uppers, r.colUpper[i])
	}

	A, b, c, err := convertToEqualities(rows, lowers, uppers, r.objective)
	if err != nil {
		return StatusFailed
	}

	optF, optX, err := lp.Simplex(c, A, b, 0, nil)
	switch {
	case err == lp.ErrInfeasible:
		return StatusInfeasible
	case err == lp.ErrUnbounded:
		return StatusUnbounded
	case err == lp.ErrSingular:
		return StatusFailed
	case err != nil:
		return StatusUnknown
	}

	r.primal = optX[:numCols]
	r.objValue = optF
	r.iterCount = 1
	if r.haveCutoff && r.objValue > r.cutoff {
		return StatusCutoffReached
	}
	return StatusOptimal
}

func (r *SimplexRelaxation) Primal() []float64 { return r.primal }
func (r *SimplexRelaxation) Dual() []float64   { return nil }
func (r *SimplexRelaxation) ObjValue() float64 { return r.objValue }
func (r *SimplexRelaxation) IterationCount() int { return r.iterCount }

// rowKind classifies how a (lower, upper) range row is folded into
// equality-with-slack standard form.
type rowKind int

const (
	rowEquality  rowKind = iota // lower == upper
	rowLowerOnly                // lower finite, upper +Inf
	rowUpperOnly                // upper finite, lower -Inf
	rowRange                    // both finite and unequal: a true two-sided range
	rowFree                     // both infinite: no constraint at all
)

func classifyRow(lower, upper float64) rowKind {
	switch {
	case lower == upper:
		return rowEquality
	case math.IsInf(lower, -1) && math.IsInf(upper, 1):
		return rowFree
	case math.IsInf(upper, 1):
		return rowLowerOnly
	case math.IsInf(lower, -1):
		return rowUpperOnly
	default:
		return rowRange
	}
}

// convertToEqualities turns a set of (row, lower, upper) range constraints
// plus an objective into the Ax = b, x >= 0 standard form gonum's
// lp.Simplex requires. A one-sided row gets one slack column; a genuine
// two-sided range (lower and upper both finite and distinct) is split into
// two equality rows — "row + slackUpper = upper" and "row - slackLower =
// lower" — each with its own slack, so both sides of the range actually
// bind instead of one being silently dropped. A row with no finite bound on
// either side imposes no constraint and is omitted.
//
// Grounded on jjhbw-GoMILP/subproblem.go's convertToEqualities, generalized
// from a fixed two-sided-inequality shape to arbitrary [lower, upper] rows,
// including true two-sided ranges (spec.md §3's RANGES-derived rows).
func convertToEqualities(rows [][]float64, lowers, uppers, objective []float64) (*mat.Dense, []float64, []float64, error) {
	numCols := len(objective)

	kinds := make([]rowKind, len(rows))
	slackCols := 0
	outRows := 0
	for i := range rows {
		k := classifyRow(lowers[i], uppers[i])
		kinds[i] = k
		switch k {
		case rowEquality:
			outRows++
		case rowLowerOnly, rowUpperOnly:
			outRows++
			slackCols++
		case rowRange:
			outRows += 2
			slackCols += 2
		case rowFree:
			// no output row, no slack
		}
	}

	totalCols := numCols + slackCols
	A := mat.NewDense(outRows, totalCols, nil)
	b := make([]float64, outRows)
	c := make([]float64, totalCols)
	copy(c, objective)

	slackIdx := numCols
	outIdx := 0
	setRow := func(row []float64, slackCol int, slackCoef, rhs float64) {
		for j, v := range row {
			A.Set(outIdx, j, v)
		}
		if slackCol >= 0 {
			A.Set(outIdx, slackCol, slackCoef)
		}
		b[outIdx] = rhs
		outIdx++
	}

	for i, row := range rows {
		switch kinds[i] {
		case rowEquality:
			setRow(row, -1, 0, lowers[i])
		case rowLowerOnly:
			// row - slack = lower, slack >= 0
			setRow(row, slackIdx, -1, lowers[i])
			slackIdx++
		case rowUpperOnly:
			// row + slack = upper, slack >= 0
			setRow(row, slackIdx, 1, uppers[i])
			slackIdx++
		case rowRange:
			// row + slackUpper = upper, slackUpper >= 0
			setRow(row, slackIdx, 1, uppers[i])
			slackIdx++
			// row - slackLower = lower, slackLower >= 0
			setRow(row, slackIdx, -1, lowers[i])
			slackIdx++
		case rowFree:
			// omitted: no constraint
		}
	}
	return A, b, c, nil
}
