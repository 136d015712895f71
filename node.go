package dco

// NodeStatus is the Node's position in the search state machine, per
// spec.md §3.
type NodeStatus int

const (
	StatusCandidate NodeStatus = iota
	StatusActive
	StatusBranched
	StatusFathomed
	StatusInfeasible
)

func (s NodeStatus) String() string {
	switch s {
	case StatusCandidate:
		return "Candidate"
	case StatusActive:
		return "Active"
	case StatusBranched:
		return "Branched"
	case StatusFathomed:
		return "Fathomed"
	case StatusInfeasible:
		return "Infeasible"
	default:
		return "?"
	}
}

// boundDelta is a single column's bound tightening relative to the parent.
type boundDelta struct {
	col          int
	lower, upper float64
	hasLower, hasUpper bool
}

// warmStartRef is a reference-counted handle, shared between a node and its
// children until one of them actually resolves and replaces it with its own
// basis — per spec.md §5's "warm-start handles reference-counted" and §9's
// design note.
type warmStartRef struct {
	handle WarmStartHandle
	refs   int
}

func (w *warmStartRef) retain() *warmStartRef {
	if w == nil {
		return nil
	}
	w.refs++
	return w
}

func (w *warmStartRef) release() {
	if w == nil {
		return
	}
	w.refs--
}

// Node is one vertex of the branch-and-bound search tree: an id, parent
// linkage, depth, status, and the local bound/row deltas that distinguish
// it from its parent's relaxation.
//
// Grounded on jjhbw-GoMILP/subproblem.go's subProblem/bnbConstraint,
// generalized from a flat bnbConstraints list plus ad hoc "copy on branch"
// semantics to the full Candidate/Active/Branched/Fathomed/Infeasible state
// machine spec.md §3/§4.6 specifies, with explicit install/uninstall
// methods instead of subProblem.copy()'s implicit slice-sharing.
type Node struct {
	id       int64
	parent   *Node
	root     *Node
	depth    int
	status   NodeStatus

	// problem is the master Problem this node's bound deltas are relative
	// to; install uses its Variable bounds as the reset point before
	// replaying the root-to-node delta path (spec.md §4.6).
	problem *Problem

	localBounds []boundDelta
	localRows   []*LinearConstraint
	rowHandles  []int

	warmStart *warmStartRef

	// dualBound is this node's relaxation objective value once resolved
	// (resolved is then true); zero until then.
	dualBound float64
	resolved  bool

	// leafToRoot caches the path from this node up to the root, built
	// lazily and memoized since it is walked repeatedly by install/uninstall.
	leafToRoot []*Node
}

// newRootNode creates the id-0 root node with no local deltas, remembering
// p so later installs can restore every column's default bounds before
// replaying deltas.
func newRootNode(p *Problem) *Node {
	n := &Node{id: 0, depth: 0, status: StatusCandidate, problem: p}
	n.root = n
	return n
}

// createChild builds a new Candidate node one depth below n, inheriting a
// retained reference to n's warm start and carrying the given additional
// bound/row deltas.
func (n *Node) createChild(id int64, bounds []boundDelta, rows []*LinearConstraint) *Node {
	return &Node{
		id:          id,
		parent:      n,
		root:        n.root,
		problem:     n.problem,
		depth:       n.depth + 1,
		status:      StatusCandidate,
		localBounds: bounds,
		localRows:   rows,
		warmStart:   n.warmStart.retain(),
	}
}

// leafToRootPath returns the path from n up to (and including) the root,
// root first, memoizing the result.
//
// Grounded on jjhbw-GoMILP/tree.go's node.children bookkeeping (there used
// for DOT export, here for install/uninstall traversal), per spec.md
// §4.6's "leafToRootPath caching".
func (n *Node) leafToRootPath() []*Node {
	if n.leafToRoot != nil {
		return n.leafToRoot
	}
	var path []*Node
	for cur := n; cur != nil; cur = cur.parent {
		path = append([]*Node{cur}, path...)
	}
	n.leafToRoot = path
	return path
}

// install restores every column to the Problem's default bounds, then
// replays each ancestor's bound and row deltas over that reset state, root
// to node, transitioning n to Active. The reset step matters because the
// Search Driver pops nodes best-first rather than depth-first: the
// previously active node is typically an unrelated sibling or cousin, so a
// column it tightened but this node's own path never touches must not leak
// into this node's relaxation — resetting only the columns this node's own
// path happens to mention would miss exactly that case, since the stale
// bound was left by a *different* path. Symmetric with uninstall, per
// spec.md §4.6's "install/uninstall symmetry" invariant.
func (n *Node) install(relax Relaxation) {
	for _, v := range n.problem.variables {
		relax.SetBounds(v.index, v.lower, v.upper)
	}

	path := n.leafToRootPath()
	for _, anc := range path {
		for _, bd := range anc.localBounds {
			lower, upper := relax.(boundsReader).ColumnBounds(bd.col)
			if bd.hasLower {
				lower = bd.lower
			}
			if bd.hasUpper {
				upper = bd.upper
			}
			relax.SetBounds(bd.col, lower, upper)
		}
		anc.rowHandles = anc.rowHandles[:0]
		for _, row := range anc.localRows {
			anc.rowHandles = append(anc.rowHandles, relax.AddRow(row))
		}
	}
	if n.warmStart != nil {
		relax.SetWarmStart(n.warmStart.handle)
	}
	n.status = StatusActive
}

// uninstall reverses install: it removes every ancestor's locally-added
// rows (bound changes on a shared Relaxation are left for the next node's
// install to overwrite, since every column always has some bound in
// force). Called when the Search Driver backtracks away from n's subtree.
func (n *Node) uninstall(relax Relaxation) {
	path := n.leafToRootPath()
	for i := len(path) - 1; i >= 0; i-- {
		anc := path[i]
		relax.RemoveRows(anc.rowHandles)
	}
	n.warmStart.release()
}

// boundsReader is implemented by Relaxations that can report a column's
// current bounds, needed by install to apply a delta on top of whatever
// bound is already in force rather than overwriting both sides.
type boundsReader interface {
	ColumnBounds(col int) (lower, upper float64)
}

// recordWarmStart replaces n's warm-start reference with a fresh,
// singly-referenced one built from relax's current basis, called once n
// has actually been resolved (per spec.md §9: a node only owns its own
// warm start after it resolves; before that it borrows its parent's).
func (n *Node) recordWarmStart(relax Relaxation) {
	n.warmStart.release()
	n.warmStart = &warmStartRef{handle: relax.GetWarmStart(), refs: 1}
}

func (n *Node) setDualBound(v float64) {
	n.dualBound = v
	n.resolved = true
}
