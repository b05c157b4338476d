package types

import (
	"encoding/binary"
	"testing"
)

// fakeHash is a cheap, order-sensitive stand-in for a real cryptographic
// hash (FNV-1a, expanded to 32 bytes), used so types tests don't depend on
// the crypto package's Provider.
func fakeHash(b []byte) Hash {
	var acc uint64 = 14695981039346656037
	for _, v := range b {
		acc ^= uint64(v)
		acc *= 1099511628211
	}
	var h Hash
	for i := 0; i < 4; i++ {
		binary.BigEndian.PutUint64(h[i*8:i*8+8], acc)
		acc *= 1099511628211
	}
	return h
}

func TestHeaderHashExcludesBlockSignature(t *testing.T) {
	h := &Header{
		Timestamp: 10,
		Height:    1,
		Proof:     Proof{TimeSignature: []byte("time-sig")},
	}
	before := h.Hash(fakeHash)

	h2 := &Header{
		Timestamp: 10,
		Height:    1,
		Proof:     Proof{TimeSignature: []byte("time-sig"), BlockSignature: []byte("unrelated-block-sig")},
	}
	after := h2.Hash(fakeHash)

	if before != after {
		t.Fatalf("header hash must not depend on BlockSignature: %x vs %x", before, after)
	}
}

func TestHeaderHashMemoized(t *testing.T) {
	h := &Header{Timestamp: 1, Height: 1}
	calls := 0
	counting := func(b []byte) Hash {
		calls++
		return fakeHash(b)
	}
	first := h.Hash(counting)
	second := h.Hash(counting)
	if first != second {
		t.Fatalf("memoized hash must be stable")
	}
	if calls != 1 {
		t.Fatalf("expected hashFn invoked once, got %d", calls)
	}
}

func TestHeaderHashPureFunctionOfFields(t *testing.T) {
	h1 := &Header{ParentHash: hashOfByte(1), Timestamp: 5, Height: 2, Proof: Proof{TimeSignature: []byte("x")}}
	h2 := &Header{ParentHash: hashOfByte(1), Timestamp: 5, Height: 2, Proof: Proof{TimeSignature: []byte("x")}}
	if h1.Hash(fakeHash) != h2.Hash(fakeHash) {
		t.Fatalf("identical non-hash fields must produce identical hashes")
	}

	h3 := &Header{ParentHash: hashOfByte(1), Timestamp: 6, Height: 2, Proof: Proof{TimeSignature: []byte("x")}}
	if h1.Hash(fakeHash) == h3.Hash(fakeHash) {
		t.Fatalf("differing timestamp should (almost certainly) change the hash")
	}
}

func hashOfByte(b byte) Hash {
	var h Hash
	h[0] = b
	return h
}

func TestHeaderCloneResetsNothingObservable(t *testing.T) {
	h := &Header{Timestamp: 1, Height: 1, Proof: Proof{TimeSignature: []byte("a"), BlockSignature: []byte("b")}}
	original := h.Hash(fakeHash)
	clone := h.Clone()
	if clone.Hash(fakeHash) != original {
		t.Fatalf("clone must compute the same hash as the original")
	}
	clone.Proof.TimeSignature[0] = 'z'
	if string(h.Proof.TimeSignature) == string(clone.Proof.TimeSignature) {
		t.Fatalf("clone must deep-copy the proof, not alias it")
	}
}
