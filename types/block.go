package types

// Block is a Header paired with its Body, identified by Header.Hash.
type Block struct {
	Header *Header
	Body   Body
}

func (b *Block) Hash(hashFn func([]byte) Hash) Hash {
	return b.Header.Hash(hashFn)
}

// IsGenesis reports whether b is positioned as the chain's height-0 block.
// Invariant 2 of the data model ties this to a zero ParentHash in both
// directions; callers that need to enforce the invariant do so explicitly
// at admission time, this is just the predicate.
func (b *Block) IsGenesis() bool {
	return b.Header.Height == 0
}
