package dco

// TODO: see Andersen 1995 for a fuller enumeration of presolving operations.

// Presolver folds fixed-bound variables (lower == upper) out of the linear
// rows they appear in, tightening each row's bounds by the fixed
// contribution, and records what it did so a final solution can be
// reported in terms of the original columns.
//
// Grounded on jjhbw-GoMILP/presolve.go's preProcessor/filterFixedVars,
// generalized from "delete the column entirely" (which only worked because
// the teacher had no conic constraints referencing columns by index) to
// "fold the column out of linear rows but leave it in place", since a
// ConicConstraint's members are positional indices into Problem.variables
// and collapsing that slice would silently renumber every cone (see
// DESIGN.md's "Dropped teacher code" entry for this file).
type Presolver struct {
	fixedValue map[int]float64
}

// NewPresolver returns an empty Presolver.
func NewPresolver() *Presolver {
	return &Presolver{fixedValue: make(map[int]float64)}
}

// Tighten scans p's variables for fixed bounds and folds them out of every
// linear row's term list, adjusting lb/ub accordingly. It must run before
// Problem.Setup, since it mutates row term lists and bounds directly.
func (pp *Presolver) Tighten(p *Problem) {
	for _, v := range p.variables {
		if isFixed(v) {
			pp.fixedValue[v.index] = v.lower
		}
	}
	if len(pp.fixedValue) == 0 {
		return
	}

	for _, c := range p.linear {
		var kept []LinearExpr
		var contribution float64
		for _, t := range c.terms {
			if val, ok := pp.fixedValue[t.variable.index]; ok {
				contribution += t.coef * val
				continue
			}
			kept = append(kept, t)
		}
		if contribution != 0 {
			c.lb -= contribution
			c.ub -= contribution
		}
		c.terms = kept
	}
}

// Restore fills in the fixed-variable entries of a solution point computed
// against the tightened rows, so the reported solution covers every
// original column, fixed or not.
func (pp *Presolver) Restore(point []float64) []float64 {
	out := append([]float64(nil), point...)
	for idx, val := range pp.fixedValue {
		if idx < len(out) {
			out[idx] = val
		}
	}
	return out
}

// isFixed reports whether v's bounds pin it to a single value.
func isFixed(v *Variable) bool {
	return v.lower == v.upper
}
