package chain

import (
	"math/rand"
	"path/filepath"
	"testing"

	"github.com/decred/dcrd/dcrec/secp256k1/v4"
	"github.com/decred/dcrd/dcrec/secp256k1/v4/ecdsa"

	"github.com/sleepychain/node/crypto"
	"github.com/sleepychain/node/store"
	"github.com/sleepychain/node/types"
)

// fixedClock is a TimeSource whose reading is set directly by tests,
// standing in for the NTP-polled time source collaborator (§1's
// TimeSourceUnavailable is exercised by toggling ok).
type fixedClock struct {
	slot uint64
	ok   bool
}

func (c *fixedClock) Now() (uint64, bool) { return c.slot, c.ok }

// participant bundles a miner (proof) keypair and a signer keypair, the
// two keys every authorized block producer carries per §6's keygroups.
type participant struct {
	minerPriv  *secp256k1.PrivateKey
	signerPriv *secp256k1.PrivateKey
}

func newParticipant(t *testing.T) participant {
	t.Helper()
	mp, err := secp256k1.GeneratePrivateKey()
	if err != nil {
		t.Fatalf("generate miner key: %v", err)
	}
	sp, err := secp256k1.GeneratePrivateKey()
	if err != nil {
		t.Fatalf("generate signer key: %v", err)
	}
	return participant{minerPriv: mp, signerPriv: sp}
}

func (p participant) proofPub() []byte {
	return p.minerPriv.PubKey().SerializeCompressed()
}

func (p participant) signerPub() []byte {
	return p.signerPriv.PubKey().SerializeCompressed()
}

func (p participant) keygroup() Keygroup {
	return Keygroup{ProofPub: p.proofPub(), ProofG: nil, SignerPub: p.signerPub()}
}

// mineTimeSignature reproduces the producer side of verifier.ProofOK: sign
// sha3(timestamp || height || ancestorHash) under the participant's proof
// key, using the same compact-recoverable scheme VerifyProof's fallback
// path checks.
func mineTimeSignature(t *testing.T, p participant, timestamp, height uint64, ancestorHash types.Hash) []byte {
	t.Helper()
	dev := crypto.DevProvider{}
	msg := make([]byte, 0, 16+32)
	msg = appendU64(msg, timestamp)
	msg = appendU64(msg, height)
	msg = append(msg, ancestorHash[:]...)
	digest := dev.SHA3_256(msg)
	sig := ecdsa.SignCompact(p.minerPriv, digest[:], false)
	return sig
}

func appendU64(buf []byte, v uint64) []byte {
	var tmp [8]byte
	for i := 0; i < 8; i++ {
		tmp[7-i] = byte(v)
		v >>= 8
	}
	return append(buf, tmp[:]...)
}

// testChain wires a fresh bbolt-backed chain with a single authorized
// participant and a caller-controlled clock.
type testChain struct {
	chain  *Chain
	clock  *fixedClock
	p      participant
	cfg    Config
}

func newTestChain(t *testing.T, startTime uint64) *testChain {
	t.Helper()
	dir := t.TempDir()
	st, err := store.Open(filepath.Join(dir, "chain.db"))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { _ = st.Close() })

	p := newParticipant(t)
	cfg := Config{
		ParticipantCount: 0,
		SlotsPerSec:      1,
		WindowSlots:      1,
		EpochLen:         8,
		BufferSize:       3,
		Lookback:         5,
		StartTime:        startTime,
		FutureSlack:      10,
		MinerPrivateKey:  p.minerPriv.Serialize(),
		SignerPrivateKey: p.signerPriv.Serialize(),
		Keygroups:        map[string]Keygroup{string(p.signerPub()): p.keygroup()},
		TieBreakRNG:      rand.New(rand.NewSource(1)),
	}
	clock := &fixedClock{slot: startTime, ok: true}
	deps := Dependencies{Crypto: crypto.DevProvider{}, Clock: clock}

	c, err := Init(cfg, deps, st)
	if err != nil {
		t.Fatalf("init chain: %v", err)
	}
	return &testChain{chain: c, clock: clock, p: p, cfg: cfg}
}

// mine builds and self-signs a block extending (prevHeight, prevHash),
// mirroring what gen_block does internally but letting the test control
// the transaction set and slot directly instead of going through
// FilterTransactions, so tests can construct deliberately-duplicate or
// deliberately-overdue transactions.
func (tc *testChain) mine(t *testing.T, prevHeight uint64, prevHash types.Hash, slot uint64, txs []types.SignedTransaction) *types.Block {
	t.Helper()
	ancestorHash, err := tc.chain.ancestorAtEpochBoundary(prevHeight+1, prevHeight, prevHash)
	if err != nil {
		t.Fatalf("ancestor lookup: %v", err)
	}
	timeSig := mineTimeSignature(t, tc.p, slot, prevHeight+1, ancestorHash)

	var txRoot types.Hash
	if len(txs) > 0 {
		hashes := make([]types.Hash, len(txs))
		for i := range txs {
			hashes[i] = txs[i].Hash
		}
		root, err := types.MerkleRoot(tc.chain.hash, hashes)
		if err != nil {
			t.Fatalf("merkle root: %v", err)
		}
		txRoot = root
	}

	header := &types.Header{
		ParentHash:       prevHash,
		Timestamp:        slot,
		Height:           prevHeight + 1,
		TransactionsRoot: txRoot,
		Proof:            types.Proof{TimeSignature: timeSig},
	}
	headerHash := header.Hash(tc.chain.hash)
	blockSig, err := crypto.DevProvider{}.Sign(tc.p.signerPriv.Serialize(), headerHash)
	if err != nil {
		t.Fatalf("sign block: %v", err)
	}
	header.Proof.BlockSignature = blockSig

	return &types.Block{Header: header, Body: types.Body{Transactions: txs}}
}

func mkTx(t *testing.T, seed byte, timestampMs uint64) types.SignedTransaction {
	t.Helper()
	dev := crypto.DevProvider{}
	payload := []byte{seed}
	h := dev.SHA3_256(payload)
	return types.SignedTransaction{Payload: payload, Timestamp: timestampMs, Hash: h}
}
