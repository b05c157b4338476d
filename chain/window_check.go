package chain

import (
	"github.com/sleepychain/node/txwindow"
	"github.com/sleepychain/node/types"
)

// walkForkOnly walks from (parentHeight, parentHash) toward the canonical
// chain, accumulating the transaction hashes of every divergent block, per
// §4.4.3 step 1. It reports longFork=true (no error) if the walked block is
// unverified or the walk exceeds buffer steps before reaching confluence —
// in either case the candidate is still admissible, just unverified.
func (c *Chain) walkForkOnly(parentHeight uint64, parentHash types.Hash) (forkOnly map[types.Hash]struct{}, confluenceHeight uint64, longFork bool, err error) {
	forkOnly = make(map[types.Hash]struct{})
	curHeight, curHash := parentHeight, parentHash
	steps := 0
	buffer := c.cfg.BufferSize

	for {
		canonHash, ok, err := c.st.GetBlockHashByNumber(curHeight)
		if err != nil {
			return nil, 0, false, err
		}
		if ok && canonHash == curHash {
			return forkOnly, curHeight, false, nil
		}
		if steps >= buffer {
			return nil, 0, true, nil
		}
		rh, ok, err := c.st.GetHeader(curHash)
		if err != nil {
			return nil, 0, false, err
		}
		if !ok {
			return nil, 0, true, nil
		}
		if !rh.Verified {
			return nil, 0, true, nil
		}
		body, ok, err := c.st.GetBody(curHash)
		if err != nil {
			return nil, 0, false, err
		}
		if !ok {
			return nil, 0, true, nil
		}
		for _, h := range body.TxHashes() {
			forkOnly[h] = struct{}{}
		}
		if curHeight == 0 {
			return nil, 0, true, nil
		}
		curHash = rh.Header.ParentHash
		curHeight--
		steps++
	}
}

// checkWindowAndVerify implements §4.4.3 against the chain's live window,
// reporting whether the candidate block's transactions are free of window
// collisions (verified=true) or that the branch is a long fork
// (verified=false, err=nil) or a hard rejection (err != nil).
func (c *Chain) checkWindowAndVerify(parentHeight uint64, parentHash types.Hash, txs []types.SignedTransaction) (bool, error) {
	c.muWindow.RLock()
	defer c.muWindow.RUnlock()
	return c.checkWindowAgainst(c.window, parentHeight, parentHash, txs)
}

// checkWindowAgainst is the window-parameterized core of §4.4.3, reused by
// the long-fork switch to re-validate headers against a simulated,
// rolled-back window copy instead of the live one. Caller holds whatever
// lock guards w.
func (c *Chain) checkWindowAgainst(w *txwindow.Window, parentHeight uint64, parentHash types.Hash, txs []types.SignedTransaction) (bool, error) {
	forkOnly, confluenceHeight, longFork, err := c.walkForkOnly(parentHeight, parentHash)
	if err != nil {
		return false, err
	}
	if longFork {
		return false, nil
	}

	leftHeight := int64(parentHeight) - int64(c.cfg.BufferSize)
	if leftHeight < 0 {
		leftHeight = 0
	}
	var bh, bt uint64
	if leftInfo, ok := w.BlockInfoAt(uint64(leftHeight)); ok {
		bh = leftInfo.Height
		if c.cfg.SlotsPerSec > 0 {
			bt = leftInfo.Timestamp * 1000 / c.cfg.SlotsPerSec
		}
	}

	for _, tx := range txs {
		if tx.Timestamp <= bt {
			return false, ErrOverdueTransaction
		}
		if _, dup := forkOnly[tx.Hash]; dup {
			return false, ErrDuplicateTransaction
		}
		if w.Contains(tx.Hash, bh, confluenceHeight) {
			return false, ErrDuplicateTransaction
		}
		forkOnly[tx.Hash] = struct{}{}
	}
	return true, nil
}

// FilterTransactions applies the same predicates as checkWindowAndVerify
// but silently drops offending transactions instead of erroring, for the
// miner's gen_block candidate set (§4.4.3's filter_transactions).
func (c *Chain) FilterTransactions(parentHeight uint64, parentHash types.Hash, candidates []types.SignedTransaction) []types.SignedTransaction {
	c.muWindow.RLock()
	defer c.muWindow.RUnlock()

	forkOnly, confluenceHeight, longFork, err := c.walkForkOnly(parentHeight, parentHash)
	if err != nil || longFork {
		return nil
	}

	leftHeight := int64(parentHeight) - int64(c.cfg.BufferSize)
	if leftHeight < 0 {
		leftHeight = 0
	}
	var bh, bt uint64
	if leftInfo, ok := c.window.BlockInfoAt(uint64(leftHeight)); ok {
		bh = leftInfo.Height
		if c.cfg.SlotsPerSec > 0 {
			bt = leftInfo.Timestamp * 1000 / c.cfg.SlotsPerSec
		}
	}

	out := make([]types.SignedTransaction, 0, len(candidates))
	for _, tx := range candidates {
		if tx.Timestamp <= bt {
			continue
		}
		if _, dup := forkOnly[tx.Hash]; dup {
			continue
		}
		if c.window.Contains(tx.Hash, bh, confluenceHeight) {
			continue
		}
		forkOnly[tx.Hash] = struct{}{}
		out = append(out, tx)
	}
	return out
}
