package types

import "errors"

// ErrEmptyMerkleInput is returned by MerkleRoot for a body with no
// transactions; genesis and any other transaction-free block must use
// ZeroHash as its TransactionsRoot instead of calling this.
var ErrEmptyMerkleInput = errors.New("types: merkle root of empty transaction list")

// MerkleRoot computes the merkle root over tx hashes using leaf/inner-node
// domain separation, mirroring the teacher's tagged-hash construction
// (leaf prefix 0x00, inner-node prefix 0x01) so that a leaf hash can never
// collide with an inner node hash.
func MerkleRoot(hashFn func([]byte) Hash, hashes []Hash) (Hash, error) {
	if len(hashes) == 0 {
		return Hash{}, ErrEmptyMerkleInput
	}
	level := make([]Hash, len(hashes))
	leafBuf := make([]byte, 1+32)
	leafBuf[0] = 0x00
	for i, h := range hashes {
		copy(leafBuf[1:], h[:])
		level[i] = hashFn(leafBuf)
	}

	nodeBuf := make([]byte, 1+32+32)
	nodeBuf[0] = 0x01
	for len(level) > 1 {
		next := make([]Hash, 0, (len(level)+1)/2)
		for i := 0; i < len(level); i += 2 {
			if i+1 == len(level) {
				next = append(next, level[i])
				continue
			}
			copy(nodeBuf[1:33], level[i][:])
			copy(nodeBuf[33:], level[i+1][:])
			next = append(next, hashFn(nodeBuf))
		}
		level = next
	}
	return level[0], nil
}
