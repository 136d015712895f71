package dco

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStatistics_RecordNodeUpdatesCounters(t *testing.T) {
	s := NewStatistics()
	root := newRootNode(nil)
	root.status = StatusBranched
	s.RecordNode(root)

	child := root.createChild(1, nil, nil)
	child.status = StatusFathomed
	s.RecordNode(child)

	assert.Equal(t, 2, s.NodesProcessed)
	assert.Equal(t, 1, s.NodesBranched)
	assert.Equal(t, 1, s.NodesFathomed)
}

func TestStatistics_MergeCutEngineAccumulatesCounts(t *testing.T) {
	s := NewStatistics()
	e := NewCutEngine(2, 1000, 1)
	g := NewConicSupportGenerator(1e-6, CutAuto, 1)
	e.AddGenerator(g)
	e.stats[g.Name()].calls = 3
	e.stats[g.Name()].generated = 2

	s.MergeCutEngine(e)
	assert.Equal(t, 3, s.CutsCalls[g.Name()])
	assert.Equal(t, 2, s.CutsGenerated[g.Name()])
}
