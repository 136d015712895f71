package dco

import "time"

// Params carries every named tunable spec.md §6 lists as a CLI parameter.
//
// Grounded on spec.md §6's CLI parameter list and §10.3's ambient
// configuration expansion; the functional-options wiring (option.go) and
// this single flat struct follow costela-golpa's Model construction style
// rather than per-field setter methods.
type Params struct {
	TimeLimit time.Duration

	IntegerTol    float64
	ConeTol       float64
	OptimalRelGap float64
	OptimalAbsGap float64

	CutStrategy      CutStrategy
	CutFrequency     int
	HeurStrategy     HeuristicStrategy
	HeurFrequency    int
	BranchStrategy   BranchStrategyKind
	MaxPassesPerNode int
	DenseConCutoff   int
	NumStrong        int
	LogLevel         int
}

// DefaultParams returns the parameter set a Model uses when no WithParams
// option is supplied, matching spec.md §6's documented defaults.
func DefaultParams() Params {
	return Params{
		TimeLimit:        0, // 0 means unlimited
		IntegerTol:       1e-6,
		ConeTol:          1e-6,
		OptimalRelGap:    1e-4,
		OptimalAbsGap:    1e-6,
		CutStrategy:      CutAuto,
		CutFrequency:     1,
		HeurStrategy:     HeuristicAuto,
		HeurFrequency:    10,
		BranchStrategy:   BranchMostFractional,
		MaxPassesPerNode: 20,
		DenseConCutoff:   1000,
		NumStrong:        5,
		LogLevel:         1,
	}
}
