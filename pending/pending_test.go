package pending

import (
	"testing"

	"github.com/sleepychain/node/types"
)

func blockAt(height uint64, parent types.Hash) *types.Block {
	return &types.Block{Header: &types.Header{Height: height, ParentHash: parent, Timestamp: height}}
}

func TestOrphanTableAddAndDrain(t *testing.T) {
	o := NewOrphanTable(0, 0)
	parent := types.Hash{1}
	o.Add(parent, blockAt(1, parent))
	o.Add(parent, blockAt(2, parent))
	if o.Len() != 2 {
		t.Fatalf("expected 2 parked orphans, got %d", o.Len())
	}

	drained := o.Drain(parent)
	if len(drained) != 2 {
		t.Fatalf("expected 2 drained orphans, got %d", len(drained))
	}
	if o.Len() != 0 {
		t.Fatalf("expected 0 remaining after drain, got %d", o.Len())
	}
	if len(o.Drain(parent)) != 0 {
		t.Fatalf("draining an empty parent must return nothing")
	}
}

func TestOrphanTableCaps(t *testing.T) {
	o := NewOrphanTable(1, 1)
	parent := types.Hash{1}
	if !o.Add(parent, blockAt(1, parent)) {
		t.Fatalf("first add under cap should succeed")
	}
	if o.Add(parent, blockAt(2, parent)) {
		t.Fatalf("add beyond the per-parent and total caps should be dropped")
	}
}

func TestFutureQueueDrainDue(t *testing.T) {
	f := NewFutureQueue(0)
	f.Add(blockAt(1, types.Hash{}))
	f.Add(blockAt(5, types.Hash{}))
	f.Add(blockAt(10, types.Hash{}))

	due := f.DrainDue(5)
	if len(due) != 2 {
		t.Fatalf("expected 2 due blocks at now=5, got %d", len(due))
	}
	if f.Len() != 1 {
		t.Fatalf("expected 1 remaining block, got %d", f.Len())
	}
	remaining := f.DrainDue(10)
	if len(remaining) != 1 || f.Len() != 0 {
		t.Fatalf("expected remaining block to drain at now=10")
	}
}
