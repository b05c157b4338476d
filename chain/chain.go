// Package chain implements the chain engine (C6): the consensus core
// responsible for accepting, validating, ordering and persisting blocks,
// maintaining the canonical chain across forks, enforcing the sliding
// window transaction-uniqueness rule and resolving long-range forks.
//
// The admission pipeline, fork-choice tie-break, window-uniqueness check
// and reorg/long-fork-switch procedures are adapted from the teacher
// repo's store.DB (node/store/reorg.go's fork-point walk and
// disconnect/reconnect shape) generalized from UTXO undo/apply to header
// and transaction-address reindexing, and from node/sync.go's
// snapshot/rollback pattern around a stateful apply.
package chain

import (
	"fmt"
	"sync"

	"github.com/sleepychain/node/pending"
	"github.com/sleepychain/node/store"
	"github.com/sleepychain/node/txwindow"
	"github.com/sleepychain/node/types"
)

// Chain is a single long-lived instance shared by the network, miner and
// RPC collaborators via an explicit construction site (Init) and a
// handle returned to the caller — never a process-global singleton, per
// the design notes.
//
// Lock ordering follows §5: a goroutine that needs more than one of
// these must acquire them tip before window before pending, and must
// never hold a read lock on one while acquiring a write lock on another.
// The store's own per-column caches (headers/bodies/block-hashes/
// tx-addresses) are synchronized internally by bbolt's transaction
// semantics and hashicorp/golang-lru's own locking, so this struct does
// not re-guard them individually.
type Chain struct {
	cfg  Config
	deps Dependencies
	st   *store.DB

	muTip sync.RWMutex
	height uint64
	tip    types.Hash

	muWindow sync.RWMutex
	window   *txwindow.Window

	orphans *pending.OrphanTable
	future  *pending.FutureQueue

	orphanSignal chan types.Hash
}

// Status is the (height, hash) pair returned by status().
type Status struct {
	Height uint64
	Hash   types.Hash
}

// Init opens the chain per §4.4's public contract: if a canonical tip is
// already persisted, it loads the tip header and repopulates the window
// by walking parents backward; otherwise it constructs and inserts a
// genesis block at cfg.StartTime and seeds the window with a single
// genesis entry (the window is not padded to its full size).
func Init(cfg Config, deps Dependencies, st *store.DB) (*Chain, error) {
	if st == nil {
		return nil, fmt.Errorf("chain: nil store")
	}
	if deps.Crypto == nil {
		return nil, fmt.Errorf("chain: nil crypto provider")
	}
	if deps.Clock == nil {
		return nil, fmt.Errorf("chain: nil clock")
	}
	if cfg.TieBreakRNG == nil {
		return nil, fmt.Errorf("chain: nil tie-break rng")
	}
	c := &Chain{
		cfg:          cfg,
		deps:         deps,
		st:           st,
		window:       txwindow.New(cfg.Lookback, cfg.BufferSize),
		orphans:      pending.NewOrphanTable(0, 0),
		future:       pending.NewFutureQueue(0),
		orphanSignal: make(chan types.Hash, 256),
	}

	currentHash, hasTip, err := st.GetCurrentHash()
	if err != nil {
		return nil, err
	}
	if hasTip {
		if err := c.loadExistingTip(currentHash); err != nil {
			return nil, err
		}
		return c, nil
	}
	if err := c.initGenesis(); err != nil {
		return nil, err
	}
	return c, nil
}

func (c *Chain) loadExistingTip(tipHash types.Hash) error {
	rh, ok, err := c.st.GetHeader(tipHash)
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("chain: current_hash %s not found in store", tipHash)
	}
	c.height = rh.Header.Height
	c.tip = tipHash

	// Walk parents backward to repopulate the window with up to Size()
	// canonical ancestors of the tip (fewer if genesis is reached first).
	entries := make([]txwindow.BlockInfo, 0, c.window.Size())
	cur := tipHash
	for i := 0; i < c.window.Size(); i++ {
		curHeader, ok, err := c.st.GetHeader(cur)
		if err != nil {
			return err
		}
		if !ok {
			break
		}
		body, ok, err := c.st.GetBody(cur)
		if err != nil {
			return err
		}
		if !ok {
			return fmt.Errorf("chain: body for %s missing", cur)
		}
		entries = append(entries, txwindow.BlockInfo{
			Hash:         cur,
			Height:       curHeader.Header.Height,
			Timestamp:    curHeader.Header.Timestamp,
			Transactions: body.TxHashes(),
		})
		if curHeader.Header.Height == 0 {
			break
		}
		cur = curHeader.Header.ParentHash
	}
	for i := len(entries) - 1; i >= 0; i-- {
		c.window.PushBack(entries[i])
	}
	return nil
}

// Status returns the current canonical tip.
func (c *Chain) Status() Status {
	c.muTip.RLock()
	defer c.muTip.RUnlock()
	return Status{Height: c.height, Hash: c.tip}
}

func (c *Chain) BlockHashByNumber(n uint64) (types.Hash, bool, error) {
	return c.st.GetBlockHashByNumber(n)
}

func (c *Chain) GetBlockHeaderByHash(hash types.Hash) (types.RichHeader, bool, error) {
	return c.st.GetHeader(hash)
}

func (c *Chain) GetBlockBodyByHash(hash types.Hash) (types.Body, bool, error) {
	return c.st.GetBody(hash)
}

func (c *Chain) GetTransactionAddress(txHash types.Hash) (types.TransactionAddress, bool, error) {
	return c.st.GetTransactionAddress(txHash)
}

func (c *Chain) hash(b []byte) types.Hash {
	return c.deps.Crypto.SHA3_256(b)
}

// WindowSize returns the current depth of the sliding transaction window,
// for the tx_window_size gauge (SPEC_FULL.md §6.6).
func (c *Chain) WindowSize() int {
	c.muWindow.RLock()
	defer c.muWindow.RUnlock()
	return c.window.Len()
}

// OrphanDepth returns the number of blocks currently parked on an unknown
// parent, for the orphan_queue_depth gauge.
func (c *Chain) OrphanDepth() int {
	return c.orphans.Len()
}

// FutureDepth returns the number of blocks currently parked awaiting their
// slot, for the future_queue_depth gauge.
func (c *Chain) FutureDepth() int {
	return c.future.Len()
}

// CollectGarbage runs the store's LRU eviction sweep and returns the
// resulting estimated cache footprint in bytes, for the cache_bytes_in_use
// gauge. Per §5, correctness never depends on this being called, but it
// must be invoked periodically by an external maintenance task to keep the
// cache within its configured ceiling.
func (c *Chain) CollectGarbage(estimatedEntryBytes uint64) uint64 {
	return c.st.CollectGarbage(estimatedEntryBytes)
}
