package dco

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNode_LeafToRootPath(t *testing.T) {
	root := newRootNode(nil)
	child := root.createChild(1, nil, nil)
	grandchild := child.createChild(2, nil, nil)

	path := grandchild.leafToRootPath()
	require.Len(t, path, 3)
	assert.Equal(t, root, path[0])
	assert.Equal(t, child, path[1])
	assert.Equal(t, grandchild, path[2])
}

func TestNode_InstallAppliesAncestorBoundDeltas(t *testing.T) {
	p := NewProblem(Minimize)
	x := p.AddVariable("x").SetBounds(0, 10)
	require.NoError(t, p.Setup())

	relax := NewSimplexRelaxation()
	require.NoError(t, relax.Load(p))

	root := newRootNode(p)
	child := root.createChild(1, []boundDelta{{col: x.index, upper: 4, hasUpper: true}}, nil)

	child.install(relax)
	lower, upper := relax.ColumnBounds(x.index)
	assert.Equal(t, 0.0, lower)
	assert.Equal(t, 4.0, upper)
	assert.Equal(t, StatusActive, child.status)
}

func TestNode_InstallResetsToDefaultBeforeReplayingDeltas(t *testing.T) {
	// Simulates the Search Driver's best-first popping order: an unrelated
	// node tightens column x, then a sibling with no delta on x at all is
	// installed. x must come back to the Problem's default bounds, not
	// stay stuck at the previous node's tightened bound.
	p := NewProblem(Minimize)
	x := p.AddVariable("x").SetBounds(0, 10)
	require.NoError(t, p.Setup())

	relax := NewSimplexRelaxation()
	require.NoError(t, relax.Load(p))

	root := newRootNode(p)
	tightened := root.createChild(1, []boundDelta{{col: x.index, upper: 2, hasUpper: true}}, nil)
	untouched := root.createChild(2, nil, nil)

	tightened.install(relax)
	_, upper := relax.ColumnBounds(x.index)
	assert.Equal(t, 2.0, upper)
	tightened.uninstall(relax)

	untouched.install(relax)
	lower, upper := relax.ColumnBounds(x.index)
	assert.Equal(t, 0.0, lower)
	assert.Equal(t, 10.0, upper)
}

func TestNode_InstallUninstallSymmetryOnRows(t *testing.T) {
	p := NewProblem(Minimize)
	x := p.AddVariable("x").SetCoeff(-1).SetBounds(0, 10)
	require.NoError(t, p.Setup())

	relax := NewSimplexRelaxation()
	require.NoError(t, relax.Load(p))

	row := &LinearConstraint{lb: 0, ub: 6}
	row.terms = []LinearExpr{{coef: 1, variable: x}}

	root := newRootNode(p)
	child := root.createChild(1, nil, []*LinearConstraint{row})

	child.install(relax)
	statusAfterInstall := relax.Resolve()
	require.Equal(t, StatusOptimal, statusAfterInstall)
	assert.InDelta(t, 6.0, relax.Primal()[0], 1e-6)

	child.uninstall(relax)
	statusAfterUninstall := relax.Resolve()
	require.Equal(t, StatusOptimal, statusAfterUninstall)
	assert.InDelta(t, 10.0, relax.Primal()[0], 1e-6)
}

func TestNode_UninstallRemovesRowsAddedAfterInstall(t *testing.T) {
	// Mirrors how the bounding pass actually adds rows: install() runs
	// first (populating rowHandles from localRows only), then a cut row is
	// added directly to the live Relaxation mid-node and its handle is
	// appended to node.rowHandles by the caller, exactly as model.go's
	// processNode loop does with RunBoundingPass's returned handles.
	// uninstall must still remove it.
	p := NewProblem(Minimize)
	x := p.AddVariable("x").SetCoeff(-1).SetBounds(0, 10)
	require.NoError(t, p.Setup())

	relax := NewSimplexRelaxation()
	require.NoError(t, relax.Load(p))

	root := newRootNode(p)
	child := root.createChild(1, nil, nil)

	child.install(relax)

	cutRow := &LinearConstraint{lb: 0, ub: 6}
	cutRow.terms = []LinearExpr{{coef: 1, variable: x}}
	handle := relax.AddRow(cutRow)
	child.rowHandles = append(child.rowHandles, handle)

	statusAfterCut := relax.Resolve()
	require.Equal(t, StatusOptimal, statusAfterCut)
	assert.InDelta(t, 6.0, relax.Primal()[0], 1e-6)

	child.uninstall(relax)
	statusAfterUninstall := relax.Resolve()
	require.Equal(t, StatusOptimal, statusAfterUninstall)
	assert.InDelta(t, 10.0, relax.Primal()[0], 1e-6)
}

func TestNode_WarmStartRefCounting(t *testing.T) {
	root := newRootNode(nil)
	root.warmStart = &warmStartRef{handle: "root-basis", refs: 1}

	down := root.createChild(1, nil, nil)
	up := root.createChild(2, nil, nil)

	assert.Equal(t, 3, root.warmStart.refs)
	assert.Equal(t, "root-basis", down.warmStart.handle)
	assert.Equal(t, "root-basis", up.warmStart.handle)

	down.uninstall(&SimplexRelaxation{})
	assert.Equal(t, 2, root.warmStart.refs)
}
