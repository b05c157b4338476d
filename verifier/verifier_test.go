package verifier

import (
	"math/big"
	"testing"

	"github.com/decred/dcrd/dcrec/secp256k1/v4"
	"github.com/decred/dcrd/dcrec/secp256k1/v4/ecdsa"

	"github.com/sleepychain/node/crypto"
	"github.com/sleepychain/node/types"
)

func TestTargetMonotonicInParticipantCount(t *testing.T) {
	small := Target(1, 1, 1)
	large := Target(100, 1, 1)
	if large.Cmp(small) >= 0 {
		t.Fatalf("target must shrink as participant count grows: small=%s large=%s", small, large)
	}
}

func TestTargetZeroDenominatorReturnsMax(t *testing.T) {
	// slotsPerSec = 0 makes the denominator zero; Target must not panic or
	// divide by zero, and must fall back to the maximum (least strict)
	// target.
	target := Target(5, 0, 10)
	maxVal := new(big.Int).Lsh(big.NewInt(1), 256)
	maxVal.Sub(maxVal, big.NewInt(1))
	if target.Cmp(maxVal) != 0 {
		t.Fatalf("expected MAX target on zero denominator, got %s", target)
	}
}

func TestTimestampSane(t *testing.T) {
	if !TimestampSane(100, 100, 10) {
		t.Fatalf("slot == now must be sane")
	}
	if !TimestampSane(119, 100, 10) {
		t.Fatalf("slot within 2*slack must be sane")
	}
	if TimestampSane(121, 100, 10) {
		t.Fatalf("slot beyond 2*slack must not be sane")
	}
}

func TestDifficultyOK(t *testing.T) {
	dev := crypto.DevProvider{}
	header := &types.Header{Proof: types.Proof{TimeSignature: []byte("anything")}}
	maxVal := new(big.Int).Lsh(big.NewInt(1), 256)
	maxVal.Sub(maxVal, big.NewInt(1))
	if !DifficultyOK(dev, header, maxVal) {
		t.Fatalf("any digest must satisfy the maximum target")
	}
	zero := big.NewInt(0)
	if DifficultyOK(dev, header, zero) {
		t.Fatalf("a non-zero digest must not satisfy a zero target (astronomically unlikely to pass)")
	}
}

func TestSignerOKRecoversSigner(t *testing.T) {
	dev := crypto.DevProvider{}
	priv, err := secp256k1.GeneratePrivateKey()
	if err != nil {
		t.Fatalf("generate key: %v", err)
	}
	header := &types.Header{Timestamp: 1, Height: 1}
	headerHash := header.Hash(dev.SHA3_256)

	sig, err := dev.Sign(priv.Serialize(), headerHash)
	if err != nil {
		t.Fatalf("sign: %v", err)
	}
	header.Proof.BlockSignature = sig

	recovered, ok := SignerOK(dev, header, headerHash)
	if !ok {
		t.Fatalf("expected signer recovery to succeed")
	}
	want := priv.PubKey().SerializeCompressed()
	if string(recovered) != string(want) {
		t.Fatalf("recovered pubkey mismatch")
	}
}

func TestProofOKRoundTrip(t *testing.T) {
	dev := crypto.DevProvider{}
	priv, err := secp256k1.GeneratePrivateKey()
	if err != nil {
		t.Fatalf("generate key: %v", err)
	}
	header := &types.Header{Timestamp: 5, Height: 2}
	ancestor := types.Hash{9, 9, 9}

	msg := proofMessage(header.Timestamp, header.Height, ancestor)
	digest := dev.SHA3_256(msg)
	sig := ecdsa.SignCompact(priv, digest[:], false)
	header.Proof.TimeSignature = sig

	proofPub := priv.PubKey().SerializeCompressed()
	if !ProofOK(dev, header, ancestor, proofPub, nil) {
		t.Fatalf("expected proof to verify under the signer's own proof key")
	}

	other, err := secp256k1.GeneratePrivateKey()
	if err != nil {
		t.Fatalf("generate key: %v", err)
	}
	if ProofOK(dev, header, ancestor, other.PubKey().SerializeCompressed(), nil) {
		t.Fatalf("proof must not verify under an unrelated proof key")
	}
}
