package txwindow

import (
	"testing"

	"github.com/sleepychain/node/types"
)

func hashOf(b byte) types.Hash {
	var h types.Hash
	h[0] = b
	return h
}

func TestWindowSizeInvariant(t *testing.T) {
	w := New(3, 1) // size = 3+1+1 = 5
	if w.Size() != 5 {
		t.Fatalf("expected size 5, got %d", w.Size())
	}
	for i := uint64(0); i < 8; i++ {
		w.PushBack(BlockInfo{Hash: hashOf(byte(i)), Height: i, Timestamp: i, Transactions: []types.Hash{hashOf(byte(100 + i))}})
	}
	if w.Len() != w.Size() {
		t.Fatalf("expected window to saturate at %d, got %d", w.Size(), w.Len())
	}
	front, ok := w.Front()
	if !ok || front.Height != 3 {
		t.Fatalf("expected oldest retained height 3, got %+v", front)
	}
	back, ok := w.Back()
	if !ok || back.Height != 7 {
		t.Fatalf("expected tip height 7, got %+v", back)
	}
}

func TestWindowContainsRange(t *testing.T) {
	w := New(5, 2)
	for i := uint64(0); i < 4; i++ {
		w.PushBack(BlockInfo{Hash: hashOf(byte(i)), Height: i, Timestamp: i, Transactions: []types.Hash{hashOf(byte(i))}})
	}
	if !w.Contains(hashOf(2), 0, 3) {
		t.Fatalf("expected tx at height 2 to be contained in [0,3]")
	}
	if w.Contains(hashOf(2), 3, 3) {
		t.Fatalf("tx at height 2 must not be reported contained in [3,3]")
	}
	if w.Contains(hashOf(99), 0, 10) {
		t.Fatalf("unknown tx hash must not be contained")
	}
}

func TestWindowReplace(t *testing.T) {
	w := New(2, 1)
	w.PushBack(BlockInfo{Hash: hashOf(1), Height: 1, Transactions: []types.Hash{hashOf(10)}})
	w.PushBack(BlockInfo{Hash: hashOf(2), Height: 2, Transactions: []types.Hash{hashOf(20)}})

	if err := w.Replace(2, BlockInfo{Hash: hashOf(3), Height: 2, Transactions: []types.Hash{hashOf(30)}}); err != nil {
		t.Fatalf("replace: %v", err)
	}
	if w.Contains(hashOf(20), 0, 10) {
		t.Fatalf("old entry's tx hash should have departed the map")
	}
	if !w.Contains(hashOf(30), 0, 10) {
		t.Fatalf("new entry's tx hash should be in the map")
	}
	bi, ok := w.BlockInfoAt(2)
	if !ok || bi.Hash != hashOf(3) {
		t.Fatalf("expected replaced block info at height 2, got %+v ok=%v", bi, ok)
	}

	if err := w.Replace(99, BlockInfo{Height: 99}); err == nil {
		t.Fatalf("expected error replacing a height not in the window")
	}
}

func TestWindowPopFront(t *testing.T) {
	w := New(1, 0) // size 2
	w.PushBack(BlockInfo{Hash: hashOf(1), Height: 1, Transactions: []types.Hash{hashOf(10)}})
	w.PushBack(BlockInfo{Hash: hashOf(2), Height: 2, Transactions: []types.Hash{hashOf(20)}})

	popped, ok := w.PopFront()
	if !ok || popped.Height != 1 {
		t.Fatalf("expected to pop height 1, got %+v", popped)
	}
	if w.Contains(hashOf(10), 0, 10) {
		t.Fatalf("popped block's tx hash should have left the map")
	}
	if _, ok := w.BlockInfoAt(1); ok {
		t.Fatalf("height 1 should no longer be indexed")
	}
}
