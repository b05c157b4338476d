// Package crypto defines the narrow cryptographic interface the chain
// engine and verifier depend on, and a devnet implementation of it.
//
// Signature sign/recover and hashing are, per this system's scope,
// external collaborators: the consensus code only ever calls through the
// Provider interface, never a concrete algorithm. Production deployments
// are expected to supply an HSM- or wolfCrypt-backed Provider; the
// DevProvider here exists so the chain engine can be exercised standalone.
package crypto

import "github.com/sleepychain/node/types"

// Provider is the cryptographic primitive set consumed by the verifier
// (difficulty hashing, proof verification, signer recovery) and by the
// miner (self-signing a produced block).
type Provider interface {
	// SHA3_256 hashes input under SHA3-256. Used for header hashing,
	// transaction hashing, merkle roots and the proof message digest.
	SHA3_256(input []byte) types.Hash

	// Sign produces a signature over digest using the private key sk.
	Sign(sk []byte, digest types.Hash) ([]byte, error)

	// RecoverPublicKey recovers the signer's public key from a signature
	// produced by Sign over digest. It returns false if the signature
	// does not recover to a valid public key.
	RecoverPublicKey(sig []byte, digest types.Hash) (pubkey []byte, ok bool)

	// VerifyProof verifies a verifiable-time proof: sig over digest under
	// the registered (proofPub, proofG) pair for a participant. The
	// meaning of proofG is implementation-defined (e.g. a VRF generator
	// point); DevProvider treats it as auxiliary domain-separation data
	// folded into the digest.
	VerifyProof(proofPub, proofG []byte, sig []byte, digest types.Hash) bool
}
