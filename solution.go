package dco

import "fmt"

// Solution is a named view over a raw solution point, resolving values by
// variable name instead of column index.
//
// Grounded on jjhbw-GoMILP/api.go's Solution.GetValueFor, generalized to
// wrap any Problem/point pair (e.g. Model.Solve's Result.Point) instead of
// being the sole return type of a one-shot Solve call.
type Solution struct {
	problem   *Problem
	point     []float64
	Objective float64
}

// NewSolution wraps point (already in original-column order, i.e. already
// passed through Presolver.Restore if presolve ran) together with the
// Problem it solves.
func NewSolution(p *Problem, point []float64, objective float64) *Solution {
	return &Solution{problem: p, point: point, Objective: objective}
}

// GetValueFor retrieves the value for a decision variable by its name.
func (s *Solution) GetValueFor(varName string) (float64, error) {
	for _, v := range s.problem.variables {
		if v.name == varName {
			return s.point[v.index], nil
		}
	}
	return 0, fmt.Errorf("dco: variable name %q not found in solution", varName)
}

// Values returns the raw solution point in column order.
func (s *Solution) Values() []float64 { return s.point }
