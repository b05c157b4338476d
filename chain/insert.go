package chain

import (
	"github.com/sleepychain/node/cache"
	"github.com/sleepychain/node/store"
	"github.com/sleepychain/node/txwindow"
	"github.com/sleepychain/node/types"
	"github.com/sleepychain/node/verifier"
)

// Insert validates and attempts to admit block, implementing the nine-step
// admission algorithm of §4.4.1. Errors are the taxonomy in errors.go;
// success does not imply canonicality — a stored-but-not-canonical block
// returns nil with the tip unchanged. Every call is counted against
// Dependencies.Metrics, when set, per SPEC_FULL.md §6.6.
func (c *Chain) Insert(block *types.Block) error {
	err := c.insert(block)
	if c.deps.Metrics != nil {
		if err != nil {
			c.deps.Metrics.IncRejected(rejectReason(err))
		} else {
			c.deps.Metrics.IncInserted()
		}
	}
	return err
}

func (c *Chain) insert(block *types.Block) error {
	header := block.Header

	if header.Height == 0 {
		if !header.ParentHash.IsZero() {
			return ErrInvalidFormat
		}
	} else if header.ParentHash.IsZero() {
		return ErrInvalidFormat
	}

	// 1. Stateless check.
	windowSec := uint64(1)
	if c.cfg.SlotsPerSec > 0 {
		windowSec = c.cfg.WindowSlots / c.cfg.SlotsPerSec
		if windowSec == 0 {
			windowSec = 1
		}
	}
	target := verifier.Target(c.cfg.ParticipantCount, c.cfg.SlotsPerSec, windowSec)
	if !verifier.DifficultyOK(c.deps.Crypto, header, target) {
		return ErrInvalidProof
	}
	now, ok := c.deps.Clock.Now()
	if !ok {
		return ErrTimeSourceUnavailable
	}
	if !verifier.TimestampSane(header.Timestamp, now, c.cfg.FutureSlack) {
		return ErrInvalidTimestamp
	}

	blockHash := block.Hash(c.hash)

	// 2. Duplicate check.
	if _, found, err := c.st.GetHeader(blockHash); err != nil {
		return err
	} else if found {
		return ErrDuplicateBlock
	}

	// 3. Parent check.
	parentRH, foundParent, err := c.st.GetHeader(header.ParentHash)
	if err != nil {
		return err
	}
	if !foundParent {
		c.orphans.Add(header.ParentHash, block)
		return ErrUnknownParent
	}
	if header.Timestamp <= parentRH.Header.Timestamp {
		return ErrInvalidTimestamp
	}

	// 4. Future check.
	if header.Timestamp > now {
		c.future.Add(block)
		return ErrFutureBlock
	}

	// 5. Ancestor resolution.
	ancestorHash, err := c.ancestorAtEpochBoundary(header.Height, parentRH.Header.Height, header.ParentHash)
	if err != nil {
		return ErrUnknownAncestor
	}

	// 6. Proof validity.
	signerPub, ok := verifier.SignerOK(c.deps.Crypto, header, blockHash)
	if !ok {
		return ErrInvalidSignature
	}
	kg, ok := c.cfg.KeygroupBySignerPub(signerPub)
	if !ok {
		return ErrInvalidPublicKey
	}
	if !verifier.ProofOK(c.deps.Crypto, header, ancestorHash, kg.ProofPub, kg.ProofG) {
		return ErrInvalidProof
	}

	// 7. Transaction window check.
	verified, err := c.checkWindowAndVerify(parentRH.Header.Height, header.ParentHash, block.Body.Transactions)
	if err != nil {
		return err
	}

	// 8. Commit.
	if err := c.commit(block, blockHash, verified); err != nil {
		return err
	}

	// 9. Orphan release.
	select {
	case c.orphanSignal <- blockHash:
	default:
	}
	return nil
}

// commit persists header and body, then — if the block wins fork-choice —
// switches the canonical tip, all within a single atomic batch, per §4.4.1
// step 8 and §5's serialized tip-update critical section.
func (c *Chain) commit(block *types.Block, blockHash types.Hash, verified bool) error {
	c.muTip.Lock()
	defer c.muTip.Unlock()

	batch, err := c.st.NewBatch()
	if err != nil {
		return err
	}

	rh := types.RichHeader{Header: block.Header, Verified: verified}
	if err := c.st.PutHeader(batch, blockHash, rh, cache.Overwrite); err != nil {
		batch.Rollback()
		return err
	}
	if err := c.st.PutBody(batch, blockHash, block.Body); err != nil {
		batch.Rollback()
		return err
	}

	if !c.wins(block.Header.Height) {
		return batch.Commit()
	}

	if block.Header.Height == c.height+1 && block.Header.ParentHash == c.tip {
		if err := c.extendTip(batch, block, blockHash); err != nil {
			batch.Rollback()
			return err
		}
		return batch.Commit()
	}

	if err := c.switchTip(batch, blockHash, block.Header); err != nil {
		// A rejected-as-unreachable long fork, or an internal
		// LongFork abort during re-validation, is not a hard error:
		// the block stays stored, just not canonical.
		if err == errLongFork {
			return batch.Commit()
		}
		batch.Rollback()
		return err
	}
	return batch.Commit()
}

// extendTip handles the common case: block directly extends the current
// tip by one height, so no branch collection is needed.
func (c *Chain) extendTip(batch *store.Batch, block *types.Block, blockHash types.Hash) error {
	if err := c.st.PutBlockHashByNumber(batch, block.Header.Height, blockHash); err != nil {
		return err
	}
	for i, tx := range block.Body.Transactions {
		addr := types.TransactionAddress{BlockHash: blockHash, Index: uint32(i)}
		if err := c.st.PutTransactionAddress(batch, tx.Hash, addr); err != nil {
			return err
		}
	}

	c.muWindow.Lock()
	c.window.PushBack(txwindow.BlockInfo{
		Hash:         blockHash,
		Height:       block.Header.Height,
		Timestamp:    block.Header.Timestamp,
		Transactions: block.Body.TxHashes(),
	})
	c.muWindow.Unlock()

	c.height = block.Header.Height
	c.tip = blockHash
	return c.st.PutCurrentHash(batch, blockHash)
}
