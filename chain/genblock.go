package chain

import (
	"fmt"

	"github.com/sleepychain/node/types"
)

// GenBlock implements the miner's public contract (§4.4): filter
// candidateTxs through the window-uniqueness predicates, construct a
// header extending (prevHeight, prevHash) at slot with the supplied
// time_signature, self-sign it with the configured signer key, and insert
// it through Insert. The stateless checks (difficulty, timestamp sanity) are
// not skipped for the miner's own block: Insert runs them again, so
// admission, fork-choice and persistence stay on a single code path.
func (c *Chain) GenBlock(prevHeight uint64, prevHash types.Hash, slot uint64, timeSignature []byte, candidateTxs []types.SignedTransaction) (*types.Block, error) {
	txs := c.FilterTransactions(prevHeight, prevHash, candidateTxs)

	txHashes := make([]types.Hash, len(txs))
	for i := range txs {
		txHashes[i] = txs[i].Hash
	}
	var txRoot types.Hash
	if len(txHashes) > 0 {
		root, err := types.MerkleRoot(c.hash, txHashes)
		if err != nil {
			return nil, err
		}
		txRoot = root
	}

	header := &types.Header{
		ParentHash:       prevHash,
		Timestamp:        slot,
		Height:           prevHeight + 1,
		TransactionsRoot: txRoot,
		StateRoot:        types.ZeroHash,
		ReceiptsRoot:     types.ZeroHash,
		Proof: types.Proof{
			TimeSignature: timeSignature,
		},
	}

	headerHash := header.Hash(c.hash)
	blockSig, err := c.deps.Crypto.Sign(c.cfg.SignerPrivateKey, headerHash)
	if err != nil {
		return nil, fmt.Errorf("chain: self-sign block: %w", err)
	}
	header.Proof.BlockSignature = blockSig

	block := &types.Block{Header: header, Body: types.Body{Transactions: txs}}
	if err := c.Insert(block); err != nil {
		return nil, err
	}
	return block, nil
}
