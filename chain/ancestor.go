package chain

import "github.com/sleepychain/node/types"

// ancHeight computes anc_height(h) = max(h/epoch_len - 1, 0) * epoch_len,
// the epoch-boundary height whose canonical block is the proof's ancestor
// message input (§4.4.4).
func ancHeight(h, epochLen uint64) uint64 {
	if epochLen == 0 {
		return 0
	}
	e := h / epochLen
	if e == 0 {
		return 0
	}
	return (e - 1) * epochLen
}

// ancestorAtEpochBoundary resolves A = ancestor_at_epoch_boundary(parentHeight,
// parentHash) for a candidate block of height newHeight: it walks parent
// pointers starting at (parentHeight, parentHash), fork-aware — stopping
// either when the walk reaches the target epoch-boundary height, or when
// the walked hash rejoins the canonical chain (in which case the
// canonical hash at the target height is returned directly).
func (c *Chain) ancestorAtEpochBoundary(newHeight, parentHeight uint64, parentHash types.Hash) (types.Hash, error) {
	target := ancHeight(newHeight, c.cfg.EpochLen)
	if target > parentHeight {
		return types.Hash{}, ErrUnknownAncestor
	}

	curHeight, curHash := parentHeight, parentHash
	for {
		canonHash, ok, err := c.st.GetBlockHashByNumber(curHeight)
		if err != nil {
			return types.Hash{}, err
		}
		if ok && canonHash == curHash {
			if curHeight == target {
				return curHash, nil
			}
			targetHash, ok, err := c.st.GetBlockHashByNumber(target)
			if err != nil {
				return types.Hash{}, err
			}
			if !ok {
				return types.Hash{}, ErrUnknownAncestor
			}
			return targetHash, nil
		}
		if curHeight == target {
			return curHash, nil
		}
		if curHeight == 0 {
			return types.Hash{}, ErrUnknownAncestor
		}
		rh, ok, err := c.st.GetHeader(curHash)
		if err != nil {
			return types.Hash{}, err
		}
		if !ok {
			return types.Hash{}, ErrUnknownAncestor
		}
		curHash = rh.Header.ParentHash
		curHeight--
	}
}
