// Package txpool provides the standalone candidate-transaction filter
// named in SPEC_FULL.md §9, adapted from
// original_source/tx_pool/src/filter.rs: that filter wraps an LRU of
// recently-seen transaction hashes so the mempool collaborator doesn't
// keep re-offering the same transaction to gen_block every slot, on top
// of the chain engine's own duplicate/overdue window predicates.
//
// Full mempool admission/eviction policy is out of scope (spec.md §1's
// transport/mempool Non-goal); this package only narrows a candidate set
// down to what gen_block could plausibly include.
package txpool

import (
	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/sleepychain/node/types"
)

// ChainFilter is the subset of *chain.Chain the pool filter calls through
// to apply the sliding-window duplicate/overdue predicates, named as an
// interface so this package does not import chain directly (mirrors
// original_source's tx_pool crate sitting beside, not on top of, chain).
type ChainFilter interface {
	FilterTransactions(parentHeight uint64, parentHash types.Hash, candidates []types.SignedTransaction) []types.SignedTransaction
}

// Pool tracks recently-seen transaction hashes (an LRU, the same role
// Filter's lru_cache::LruCache plays in the original) and narrows gen_block
// candidate sets down to fresh, well-formed, window-eligible transactions.
type Pool struct {
	seen *lru.Cache[types.Hash, struct{}]
}

// New builds a Pool whose recent-seen LRU holds up to capacity hashes.
func New(capacity int) (*Pool, error) {
	seen, err := lru.New[types.Hash, struct{}](capacity)
	if err != nil {
		return nil, err
	}
	return &Pool{seen: seen}, nil
}

// Filter narrows candidates to transactions that are well-formed (non-empty
// payload and signature), not already offered this session, and pass the
// chain engine's duplicate/overdue window predicates for the block being
// built on top of (parentHeight, parentHash). Transactions that pass are
// marked seen so a later call with the same candidates (e.g. a retried
// slot) does not re-offer them.
func (p *Pool) Filter(chainFilter ChainFilter, parentHeight uint64, parentHash types.Hash, candidates []types.SignedTransaction) []types.SignedTransaction {
	wellFormed := make([]types.SignedTransaction, 0, len(candidates))
	for _, tx := range candidates {
		if len(tx.Payload) == 0 || len(tx.Signature) == 0 {
			continue
		}
		if _, dup := p.seen.Get(tx.Hash); dup {
			continue
		}
		wellFormed = append(wellFormed, tx)
	}

	eligible := chainFilter.FilterTransactions(parentHeight, parentHash, wellFormed)
	for _, tx := range eligible {
		p.seen.Add(tx.Hash, struct{}{})
	}
	return eligible
}

// Forget removes hash from the recent-seen set, e.g. after a block
// carrying it is reorged out and it becomes eligible for re-inclusion.
func (p *Pool) Forget(hash types.Hash) {
	p.seen.Remove(hash)
}
