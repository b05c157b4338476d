package chain

import (
	"github.com/sleepychain/node/cache"
	"github.com/sleepychain/node/store"
	"github.com/sleepychain/node/txwindow"
	"github.com/sleepychain/node/types"
)

// branchEntry is one block along a collected branch path, root (confluence
// side) to tip.
type branchEntry struct {
	height   uint64
	hash     types.Hash
	header   *types.Header
	body     types.Body
	verified bool
}

func reverseBranch(b []branchEntry) {
	for i, j := 0, len(b)-1; i < j; i, j = i+1, j-1 {
		b[i], b[j] = b[j], b[i]
	}
}

// collectBranch walks parent pointers from (height, hash) until it meets
// the canonical chain, returning the divergent branch in root-to-tip order
// (excluding the confluence block) and the confluence height. This is the
// same two-pointer "descend, then walk to confluence" shape as the
// teacher's store.findForkPoint, generalized from UTXO undo bookkeeping to
// header/body bookkeeping.
func (c *Chain) collectBranch(height uint64, hash types.Hash) ([]branchEntry, uint64, error) {
	var branch []branchEntry
	curHeight, curHash := height, hash
	for {
		canonHash, ok, err := c.st.GetBlockHashByNumber(curHeight)
		if err != nil {
			return nil, 0, err
		}
		if ok && canonHash == curHash {
			reverseBranch(branch)
			return branch, curHeight, nil
		}
		rh, ok, err := c.st.GetHeader(curHash)
		if err != nil {
			return nil, 0, err
		}
		if !ok {
			return nil, 0, ErrUnknownAncestor
		}
		body, ok, err := c.st.GetBody(curHash)
		if err != nil {
			return nil, 0, err
		}
		if !ok {
			return nil, 0, ErrUnknownAncestor
		}
		branch = append(branch, branchEntry{
			height: curHeight, hash: curHash, header: rh.Header, body: body, verified: rh.Verified,
		})
		if curHeight == 0 {
			reverseBranch(branch)
			return branch, 0, nil
		}
		curHash = rh.Header.ParentHash
		curHeight--
	}
}

// collectOldSuffix returns the canonical chain's entries above confluenceHeight
// up to the current tip — the blocks the new branch is displacing.
func (c *Chain) collectOldSuffix(confluenceHeight uint64) ([]branchEntry, error) {
	oldSuffix := make([]branchEntry, 0)
	for h := confluenceHeight + 1; h <= c.height; h++ {
		hash, ok, err := c.st.GetBlockHashByNumber(h)
		if err != nil {
			return nil, err
		}
		if !ok {
			break
		}
		rh, ok, err := c.st.GetHeader(hash)
		if err != nil {
			return nil, err
		}
		if !ok {
			break
		}
		body, _, err := c.st.GetBody(hash)
		if err != nil {
			return nil, err
		}
		oldSuffix = append(oldSuffix, branchEntry{height: h, hash: hash, header: rh.Header, body: body, verified: rh.Verified})
	}
	return oldSuffix, nil
}

// switchTip makes newTipHash the canonical tip, dispatching to a short
// reorg (§4.4.5) or a long-fork switch (§4.4.6) depending on how deep the
// new branch diverges and whether its headers are already verified.
// Caller must hold muTip for write.
func (c *Chain) switchTip(batch *store.Batch, newTipHash types.Hash, newTipHeader *types.Header) error {
	newBranch, confluenceHeight, err := c.collectBranch(newTipHeader.Height, newTipHash)
	if err != nil {
		return err
	}
	if len(newBranch) == 0 {
		// The new tip IS the confluence block (e.g. direct linear
		// extension where the walk immediately matched canonical at
		// parent height); nothing to reorg.
		return nil
	}

	windowTotal := uint64(c.window.Size())
	n := newTipHeader.Height - confluenceHeight
	if n > windowTotal {
		return errLongFork
	}

	oldSuffix, err := c.collectOldSuffix(confluenceHeight)
	if err != nil {
		return err
	}

	allVerified := true
	for _, e := range newBranch {
		if !e.verified {
			allVerified = false
			break
		}
	}
	if allVerified {
		return c.applySwitch(batch, newBranch, oldSuffix, confluenceHeight)
	}
	return c.longForkSwitch(batch, newBranch, oldSuffix, confluenceHeight)
}

// applyIndices rewrites the block-number and transaction-address indices:
// remove every entry the old suffix contributed, install every entry the
// new branch contributes.
func (c *Chain) applyIndices(batch *store.Batch, newBranch, oldSuffix []branchEntry) error {
	for _, e := range oldSuffix {
		if err := c.st.DeleteBlockHashByNumber(batch, e.height); err != nil {
			return err
		}
		for _, txh := range e.body.TxHashes() {
			if err := c.st.DeleteTransactionAddress(batch, txh); err != nil {
				return err
			}
		}
	}
	for _, e := range newBranch {
		if err := c.st.PutBlockHashByNumber(batch, e.height, e.hash); err != nil {
			return err
		}
		for i, txh := range e.body.TxHashes() {
			addr := types.TransactionAddress{BlockHash: e.hash, Index: uint32(i)}
			if err := c.st.PutTransactionAddress(batch, txh, addr); err != nil {
				return err
			}
		}
	}
	return nil
}

// applySwitch implements §4.4.5: every new-branch header is already
// verified, so the window simply gets the new BlockInfos replacing the old
// ones at shared heights (or appended, rotating the deque forward).
func (c *Chain) applySwitch(batch *store.Batch, newBranch, oldSuffix []branchEntry, confluenceHeight uint64) error {
	if err := c.applyIndices(batch, newBranch, oldSuffix); err != nil {
		return err
	}

	c.muWindow.Lock()
	for _, e := range newBranch {
		bi := txwindow.BlockInfo{Hash: e.hash, Height: e.height, Timestamp: e.header.Timestamp, Transactions: e.body.TxHashes()}
		if _, ok := c.window.BlockInfoAt(e.height); ok {
			_ = c.window.Replace(e.height, bi)
		} else {
			c.window.PushBack(bi)
		}
	}
	c.muWindow.Unlock()

	tipEntry := newBranch[len(newBranch)-1]
	c.height = tipEntry.height
	c.tip = tipEntry.hash
	return c.st.PutCurrentHash(batch, c.tip)
}

// snapshotWindowUpTo builds a fresh window containing only the live
// window's entries at or below confluenceHeight, the rolled-back starting
// point for a long-fork switch's replay.
func (c *Chain) snapshotWindowUpTo(confluenceHeight uint64) *txwindow.Window {
	c.muWindow.RLock()
	entries := c.window.Snapshot()
	size := c.window.Size()
	c.muWindow.RUnlock()

	sim := txwindow.New(size-1, 0)
	for _, e := range entries {
		if e.Height <= confluenceHeight {
			sim.PushBack(e)
		}
	}
	return sim
}

// longForkSwitch implements §4.4.6: the window is rolled back to the
// verified ancestor, then the new branch is replayed forward, re-validating
// every previously-unverified header against the rolling window. A single
// failure aborts the whole switch (errLongFork), leaving the new tip block
// stored but not canonical and the live window untouched.
func (c *Chain) longForkSwitch(batch *store.Batch, newBranch, oldSuffix []branchEntry, confluenceHeight uint64) error {
	sim := c.snapshotWindowUpTo(confluenceHeight)

	for _, e := range newBranch {
		bi := txwindow.BlockInfo{Hash: e.hash, Height: e.height, Timestamp: e.header.Timestamp, Transactions: e.body.TxHashes()}
		if e.verified {
			sim.PushBack(bi)
			continue
		}
		parentHeight := e.height - 1
		ok, err := c.checkWindowAgainst(sim, parentHeight, e.header.ParentHash, e.body.Transactions)
		if err != nil || !ok {
			return errLongFork
		}
		sim.PushBack(bi)
	}

	for _, e := range newBranch {
		if !e.verified {
			rh := types.RichHeader{Header: e.header, Verified: true}
			if err := c.st.PutHeader(batch, e.hash, rh, cache.Overwrite); err != nil {
				return err
			}
		}
	}
	if err := c.applyIndices(batch, newBranch, oldSuffix); err != nil {
		return err
	}

	c.muWindow.Lock()
	c.window = sim
	c.muWindow.Unlock()

	tipEntry := newBranch[len(newBranch)-1]
	c.height = tipEntry.height
	c.tip = tipEntry.hash
	return c.st.PutCurrentHash(batch, c.tip)
}
