// Package txwindow implements the sliding-window duplicate-transaction
// index (C5): a deque of per-block transaction-hash sets covering the
// most recent W = lookback + buffer + 1 canonical blocks, answering
// "has this transaction hash appeared in the window, at a height in
// [lo, hi]?"
package txwindow

import (
	"container/list"
	"fmt"

	"github.com/sleepychain/node/types"
)

// BlockInfo is one window entry.
type BlockInfo struct {
	Hash         types.Hash
	Height       uint64
	Timestamp    uint64
	Transactions []types.Hash
}

// Window is not safe for concurrent use on its own; the chain engine
// guards it with the window lock from the lock-ordering rule in §5.
type Window struct {
	size int // lookback + buffer + 1

	deque    *list.List // front = oldest, back = tip
	byHeight map[uint64]*list.Element
	txHeight map[types.Hash]uint64 // tx hash -> canonical height
}

// New builds an empty window sized for lookback duplicate-detection
// horizon plus buffer fork-tolerance depth, plus one for the tip itself.
func New(lookback, buffer int) *Window {
	return &Window{
		size:     lookback + buffer + 1,
		deque:    list.New(),
		byHeight: make(map[uint64]*list.Element),
		txHeight: make(map[types.Hash]uint64),
	}
}

func (w *Window) Size() int { return w.size }
func (w *Window) Len() int  { return w.deque.Len() }

// PushBack appends a new tip, entering all its tx hashes into the map at
// its height. If the window is at capacity, the oldest entry is retired
// first (equivalent to a caller-driven PopFront then PushBack).
func (w *Window) PushBack(b BlockInfo) {
	if w.deque.Len() >= w.size {
		w.PopFront()
	}
	elem := w.deque.PushBack(b)
	w.byHeight[b.Height] = elem
	for _, h := range b.Transactions {
		w.txHeight[h] = b.Height
	}
}

// PopFront retires the oldest block, removing all its tx hashes from the
// map.
func (w *Window) PopFront() (BlockInfo, bool) {
	front := w.deque.Front()
	if front == nil {
		return BlockInfo{}, false
	}
	b := front.Value.(BlockInfo)
	w.deque.Remove(front)
	delete(w.byHeight, b.Height)
	for _, h := range b.Transactions {
		if w.txHeight[h] == b.Height {
			delete(w.txHeight, h)
		}
	}
	return b, true
}

// Replace swaps the window entry at height with b: the old entry's tx
// hashes depart the map, the new entry's enter, and the entry is re-indexed
// under b.Height. height must currently be present in the window.
func (w *Window) Replace(height uint64, b BlockInfo) error {
	elem, ok := w.byHeight[height]
	if !ok {
		return fmt.Errorf("txwindow: height %d not in window", height)
	}
	old := elem.Value.(BlockInfo)
	for _, h := range old.Transactions {
		if w.txHeight[h] == old.Height {
			delete(w.txHeight, h)
		}
	}
	elem.Value = b
	delete(w.byHeight, height)
	w.byHeight[b.Height] = elem
	for _, h := range b.Transactions {
		w.txHeight[h] = b.Height
	}
	return nil
}

// Contains reports whether txHash is in the window's auxiliary map with a
// recorded height in [lo, hi].
func (w *Window) Contains(txHash types.Hash, lo, hi uint64) bool {
	height, ok := w.txHeight[txHash]
	if !ok {
		return false
	}
	return height >= lo && height <= hi
}

// BlockInfoAt returns the window entry at height, for heights the window
// currently covers.
func (w *Window) BlockInfoAt(height uint64) (BlockInfo, bool) {
	elem, ok := w.byHeight[height]
	if !ok {
		return BlockInfo{}, false
	}
	return elem.Value.(BlockInfo), true
}

// Front returns the oldest retained entry.
func (w *Window) Front() (BlockInfo, bool) {
	front := w.deque.Front()
	if front == nil {
		return BlockInfo{}, false
	}
	return front.Value.(BlockInfo), true
}

// Back returns the current tip entry.
func (w *Window) Back() (BlockInfo, bool) {
	back := w.deque.Back()
	if back == nil {
		return BlockInfo{}, false
	}
	return back.Value.(BlockInfo), true
}

// Snapshot returns all window entries, oldest first. Used by the long-fork
// switch to roll the window back and replay it.
func (w *Window) Snapshot() []BlockInfo {
	out := make([]BlockInfo, 0, w.deque.Len())
	for e := w.deque.Front(); e != nil; e = e.Next() {
		out = append(out, e.Value.(BlockInfo))
	}
	return out
}
