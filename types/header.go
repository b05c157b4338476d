package types

import (
	"encoding/binary"
	"sync/atomic"
)

// Proof carries the two opaque signature byte-strings a producer attaches
// to a header: the verifiable-time proof over (timestamp, height,
// ancestor_hash) and the signature over the header hash itself. Neither
// byte-string is interpreted by this package; recovery and verification
// are the verifier package's job.
type Proof struct {
	TimeSignature  []byte
	BlockSignature []byte
}

func (p Proof) clone() Proof {
	return Proof{
		TimeSignature:  append([]byte(nil), p.TimeSignature...),
		BlockSignature: append([]byte(nil), p.BlockSignature...),
	}
}

// Header is the block header. Height 0 is genesis and must carry a zero
// ParentHash; every other header's ParentHash must name a stored block
// (invariants 2 and 3 in the chain engine's data model).
//
// StateRoot and ReceiptsRoot are opaque placeholders: this repository
// orders transactions, it does not execute them, so nothing ever computes
// a state trie. They are carried for wire compatibility with a future
// execution layer.
type Header struct {
	ParentHash       Hash
	Timestamp        uint64
	Height           uint64
	TransactionsRoot Hash
	StateRoot        Hash
	ReceiptsRoot     Hash
	Proof            Proof

	hash atomic.Pointer[Hash]
}

// hashPreimage returns the fields that determine the header's content hash:
// every field except BlockSignature. BlockSignature is deliberately
// excluded — it is the producer's signature *over* Header.hash (§4.4.1 step
// 6), so the hash itself must be computable before that signature exists.
// Invariant 1 of the data model calls out TimeSignature explicitly as part
// of the hashed fields and is silent on BlockSignature for exactly this
// reason.
//
// Layout: parent_hash(32) || timestamp(8 be) || height(8 be) ||
// transactions_root(32) || state_root(32) || receipts_root(32) ||
// len(time_signature)(4 be) || time_signature.
func (h *Header) hashPreimage() []byte {
	out := make([]byte, 0, 32+8+8+32+32+32+4+len(h.Proof.TimeSignature))
	out = append(out, h.ParentHash[:]...)

	var tmp8 [8]byte
	binary.BigEndian.PutUint64(tmp8[:], h.Timestamp)
	out = append(out, tmp8[:]...)
	binary.BigEndian.PutUint64(tmp8[:], h.Height)
	out = append(out, tmp8[:]...)

	out = append(out, h.TransactionsRoot[:]...)
	out = append(out, h.StateRoot[:]...)
	out = append(out, h.ReceiptsRoot[:]...)

	var tmp4 [4]byte
	binary.BigEndian.PutUint32(tmp4[:], uint32(len(h.Proof.TimeSignature)))
	out = append(out, tmp4[:]...)
	out = append(out, h.Proof.TimeSignature...)
	return out
}

// Bytes returns the full wire/storage encoding of the header, including
// BlockSignature. This is what the store adapter persists; it is distinct
// from hashPreimage, which is what Hash actually hashes.
//
// Layout: hashPreimage() || len(block_signature)(4 be) || block_signature.
func (h *Header) Bytes() []byte {
	pre := h.hashPreimage()
	out := make([]byte, 0, len(pre)+4+len(h.Proof.BlockSignature))
	out = append(out, pre...)
	var tmp4 [4]byte
	binary.BigEndian.PutUint32(tmp4[:], uint32(len(h.Proof.BlockSignature)))
	out = append(out, tmp4[:]...)
	out = append(out, h.Proof.BlockSignature...)
	return out
}

// Hash returns the header's content hash, computing it on first observation
// and caching the result. hashFn is typically a crypto.Provider's SHA3_256;
// it is injected rather than imported, since low-level hash primitives are
// an external collaborator (§1 of the spec this package implements).
//
// Concurrent first calls race harmlessly to the same value: hashPreimage is
// a pure function of every header field except BlockSignature, so whichever
// goroutine wins the CAS, every goroutine observes the same hash.
func (h *Header) Hash(hashFn func([]byte) Hash) Hash {
	if cached := h.hash.Load(); cached != nil {
		return *cached
	}
	computed := hashFn(h.hashPreimage())
	h.hash.CompareAndSwap(nil, &computed)
	return *h.hash.Load()
}

// Clone returns a deep copy of the header. An already-memoized hash is
// copied into the clone; otherwise the clone computes it on first use.
func (h *Header) Clone() *Header {
	out := &Header{
		ParentHash:       h.ParentHash,
		Timestamp:        h.Timestamp,
		Height:           h.Height,
		TransactionsRoot: h.TransactionsRoot,
		StateRoot:        h.StateRoot,
		ReceiptsRoot:     h.ReceiptsRoot,
		Proof:            h.Proof.clone(),
	}
	if cached := h.hash.Load(); cached != nil {
		v := *cached
		out.hash.Store(&v)
	}
	return out
}

// RichHeader is a Header plus the verified flag described in the data
// model: a header is verified iff its body has passed sliding-window
// uniqueness checking against a canonical chain alignment.
type RichHeader struct {
	Header   *Header
	Verified bool
}
