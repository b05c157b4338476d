package chain

import (
	"math/rand"
	"testing"

	"github.com/sleepychain/node/types"
)

// alwaysSwitchSource is a rand.Source that forces wins()'s coin draw to
// report "switch" on every call, for the forced tie-break in S5.
type alwaysSwitchSource struct{}

func (alwaysSwitchSource) Int63() int64 { return int64(1) << 32 }
func (alwaysSwitchSource) Seed(int64)   {}

// S5 — short fork with tip displacement: a sibling branch at equal height
// wins the forced tie-break and displaces the incumbent tip, rewriting
// the block-number and transaction-address indices.
func TestShortForkTipDisplacement(t *testing.T) {
	tc := newTestChain(t, 1700000000)
	genesis := tc.chain.Status()

	tc.clock.slot = 1700000001
	txA1 := mkTx(t, 0xA1, 1700000000501)
	a1 := tc.mine(t, genesis.Height, genesis.Hash, 1700000001, []types.SignedTransaction{txA1})
	if err := tc.chain.Insert(a1); err != nil {
		t.Fatalf("insert a1: %v", err)
	}
	a1Hash := a1.Hash(tc.chain.hash)

	tc.clock.slot = 1700000002
	txA2 := mkTx(t, 0xA2, 1700000000502)
	a2 := tc.mine(t, 1, a1Hash, 1700000002, []types.SignedTransaction{txA2})
	if err := tc.chain.Insert(a2); err != nil {
		t.Fatalf("insert a2: %v", err)
	}

	// Sibling branch: B1' at height 1, same parent (genesis), distinct
	// time_signature (distinct slot). The tip must stay at A2 (height 2).
	tc.clock.slot = 1700000003
	txB1 := mkTx(t, 0xB1, 1700000000503)
	b1 := tc.mine(t, genesis.Height, genesis.Hash, 1700000003, []types.SignedTransaction{txB1})
	if err := tc.chain.Insert(b1); err != nil {
		t.Fatalf("insert b1': %v", err)
	}
	if status := tc.chain.Status(); status.Height != 2 {
		t.Fatalf("tip must stay at height 2 while b1' is a shorter sibling, got %d", status.Height)
	}
	b1Hash := b1.Hash(tc.chain.hash)

	// Force the equal-height tie-break to "switch" before inserting B2'.
	tc.chain.cfg.TieBreakRNG = rand.New(alwaysSwitchSource{})

	tc.clock.slot = 1700000004
	txB2 := mkTx(t, 0xB2, 1700000000504)
	b2 := tc.mine(t, 1, b1Hash, 1700000004, []types.SignedTransaction{txB2})
	if err := tc.chain.Insert(b2); err != nil {
		t.Fatalf("insert b2': %v", err)
	}
	b2Hash := b2.Hash(tc.chain.hash)

	status := tc.chain.Status()
	if status.Height != 2 || status.Hash != b2Hash {
		t.Fatalf("expected tip (2, %s) after forced switch, got (%d, %s)", b2Hash, status.Height, status.Hash)
	}

	hashAt1, ok, err := tc.chain.BlockHashByNumber(1)
	if err != nil || !ok || hashAt1 != b1Hash {
		t.Fatalf("block_hash_by_number(1) = %s, want %s", hashAt1, b1Hash)
	}

	if _, ok, _ := tc.chain.GetTransactionAddress(txA1.Hash); ok {
		t.Fatalf("txA1's address should have been removed by the reorg")
	}
	if _, ok, _ := tc.chain.GetTransactionAddress(txA2.Hash); ok {
		t.Fatalf("txA2's address should have been removed by the reorg")
	}
	addr1, ok, err := tc.chain.GetTransactionAddress(txB1.Hash)
	if err != nil || !ok || addr1.BlockHash != b1Hash {
		t.Fatalf("txB1 address not installed correctly: %+v ok=%v err=%v", addr1, ok, err)
	}
	addr2, ok, err := tc.chain.GetTransactionAddress(txB2.Hash)
	if err != nil || !ok || addr2.BlockHash != b2Hash {
		t.Fatalf("txB2 address not installed correctly: %+v ok=%v err=%v", addr2, ok, err)
	}
}
