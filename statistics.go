package dco

import "time"

// NodeRecord is a single logged entry of node processing, the data
// TreeLogger kept informally in jjhbw-GoMILP/instrumentation.go, now typed
// against the Node state machine.
type NodeRecord struct {
	NodeID    int64
	ParentID  int64
	Depth     int
	Status    NodeStatus
	DualBound float64
}

// Statistics accumulates search-wide counters and per-node history, per
// spec.md §3's Statistics type.
//
// Grounded on jjhbw-GoMILP/instrumentation.go's TreeLogger (there a
// BnbMiddleware implementation recording ProcessDecision/NewSubProblem
// calls into a map[int64]node for later DOT export); generalized here into
// a plain accumulator the Search Driver updates directly, since spec.md's
// Node already carries the state TreeLogger used to infer from bnbDecision
// strings.
type Statistics struct {
	NodesProcessed  int
	NodesFathomed   int
	NodesInfeasible int
	NodesBranched   int

	TotalIterations int

	CutsGenerated map[string]int
	CutsCalls     map[string]int
	HeuristicHits map[string]int
	HeuristicCalls map[string]int

	Nodes []NodeRecord

	StartTime time.Time
	WallClock time.Duration
}

// NewStatistics returns a zeroed Statistics ready for a new search.
func NewStatistics() *Statistics {
	return &Statistics{
		CutsGenerated:  make(map[string]int),
		CutsCalls:      make(map[string]int),
		HeuristicHits:  make(map[string]int),
		HeuristicCalls: make(map[string]int),
	}
}

// RecordNode appends a NodeRecord and updates the coarse counters.
func (s *Statistics) RecordNode(n *Node) {
	parentID := int64(-1)
	if n.parent != nil {
		parentID = n.parent.id
	}
	s.Nodes = append(s.Nodes, NodeRecord{
		NodeID:    n.id,
		ParentID:  parentID,
		Depth:     n.depth,
		Status:    n.status,
		DualBound: n.dualBound,
	})
	s.NodesProcessed++
	switch n.status {
	case StatusFathomed:
		s.NodesFathomed++
	case StatusInfeasible:
		s.NodesInfeasible++
	case StatusBranched:
		s.NodesBranched++
	}
}

// MergeCutEngine pulls the CutEngine's per-generator call/generated counts
// into the shared Statistics, for the final MsgCutStatFinal report.
func (s *Statistics) MergeCutEngine(e *CutEngine) {
	for name, st := range e.stats {
		s.CutsCalls[name] += st.calls
		s.CutsGenerated[name] += st.generated
	}
}

// MergeHeuristics pulls the HeuristicEngine's per-heuristic call/hit counts
// into the shared Statistics, for the final MsgHeuristicStatFinal report.
func (s *Statistics) MergeHeuristics(e *HeuristicEngine) {
	for name, st := range e.stats {
		s.HeuristicCalls[name] += st.calls
		s.HeuristicHits[name] += st.hits
	}
}
