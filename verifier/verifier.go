// Package verifier holds the chain engine's stateless admission checks:
// difficulty, timestamp sanity, proof validity and signer recovery. None
// of these predicates touch the store, the window or the tip — they are
// pure functions of a block, a target and a clock reading, mirroring the
// teacher's consensus package split between stateless block-basic checks
// and stateful connect logic.
package verifier

import (
	"math/big"

	"github.com/sleepychain/node/crypto"
	"github.com/sleepychain/node/types"
)

// DifficultyOK reports whether integer_value(hash(time_signature)) <=
// target, the simulated proof-of-work lottery check from §4.4.1.
func DifficultyOK(p crypto.Provider, header *types.Header, target *big.Int) bool {
	digest := p.SHA3_256(header.Proof.TimeSignature)
	value := new(big.Int).SetBytes(digest[:])
	return value.Cmp(target) <= 0
}

// Target computes target = MAX / ((N+1) * slotsPerSec * windowSec), the
// system-wide difficulty target derived from the configured participant
// count and the difficulty window.
func Target(participantCount uint64, slotsPerSec uint64, windowSec uint64) *big.Int {
	maxVal := new(big.Int).Lsh(big.NewInt(1), 256)
	maxVal.Sub(maxVal, big.NewInt(1))
	denom := new(big.Int).SetUint64(participantCount + 1)
	denom.Mul(denom, new(big.Int).SetUint64(slotsPerSec))
	denom.Mul(denom, new(big.Int).SetUint64(windowSec))
	if denom.Sign() == 0 {
		return maxVal
	}
	return new(big.Int).Div(maxVal, denom)
}

// TimestampSane checks slot <= now + 2*futureSlack. Monotonicity against
// the parent is checked by the chain engine, which has the parent header
// in hand; this predicate only bounds the ceiling.
func TimestampSane(slot uint64, now uint64, futureSlack uint64) bool {
	return slot <= now+2*futureSlack
}

// SignerOK recovers and returns the public key that produced
// header.Proof.BlockSignature over the header hash.
func SignerOK(p crypto.Provider, header *types.Header, headerHash types.Hash) (pubkey []byte, ok bool) {
	return p.RecoverPublicKey(header.Proof.BlockSignature, headerHash)
}

// ProofOK verifies the time signature over H = sha3(timestamp || height ||
// ancestorHash) under the participant's registered (proofPub, proofG)
// pair, per §4.4.1 step 6.
func ProofOK(p crypto.Provider, header *types.Header, ancestorHash types.Hash, proofPub, proofG []byte) bool {
	msg := proofMessage(header.Timestamp, header.Height, ancestorHash)
	digest := p.SHA3_256(msg)
	return p.VerifyProof(proofPub, proofG, header.Proof.TimeSignature, digest)
}

func proofMessage(timestamp, height uint64, ancestorHash types.Hash) []byte {
	buf := make([]byte, 0, 8+8+32)
	buf = appendUint64(buf, timestamp)
	buf = appendUint64(buf, height)
	buf = append(buf, ancestorHash[:]...)
	return buf
}

func appendUint64(buf []byte, v uint64) []byte {
	var tmp [8]byte
	for i := 0; i < 8; i++ {
		tmp[7-i] = byte(v)
		v >>= 8
	}
	return append(buf, tmp[:]...)
}
