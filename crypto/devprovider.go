package crypto

import (
	"github.com/decred/dcrd/dcrec/secp256k1/v4"
	"github.com/decred/dcrd/dcrec/secp256k1/v4/ecdsa"
	"golang.org/x/crypto/sha3"

	"github.com/sleepychain/node/types"
)

// DevProvider is a development-only Provider backed by secp256k1 recoverable
// ECDSA signatures and SHA3-256 hashing. It does not claim FIPS compliance
// and exists to unblock local/devnet bring-up and tests, the same role the
// teacher repo's DevStdCryptoProvider plays for its own consensus code.
type DevProvider struct{}

var _ Provider = DevProvider{}

func (DevProvider) SHA3_256(input []byte) types.Hash {
	h := sha3.New256()
	_, _ = h.Write(input)
	var out types.Hash
	copy(out[:], h.Sum(nil))
	return out
}

// Sign produces a secp256k1 recoverable ("compact") signature over digest.
func (DevProvider) Sign(sk []byte, digest types.Hash) ([]byte, error) {
	priv := secp256k1.PrivKeyFromBytes(sk)
	sig := ecdsa.SignCompact(priv, digest[:], false)
	return sig, nil
}

// RecoverPublicKey recovers the 33-byte compressed public key that produced
// sig over digest via Sign.
func (DevProvider) RecoverPublicKey(sig []byte, digest types.Hash) ([]byte, bool) {
	pub, _, err := ecdsa.RecoverCompact(sig, digest[:])
	if err != nil {
		return nil, false
	}
	return pub.SerializeCompressed(), true
}

// VerifyProof checks sig over digest under the participant's registered
// proof key. proofG is folded into the digest as domain-separation data
// ahead of the message hash the time-signature commits to, standing in for
// the VRF generator point a production PRF implementation would use.
func (DevProvider) VerifyProof(proofPub, proofG []byte, sig []byte, digest types.Hash) bool {
	pub, err := secp256k1.ParsePubKey(proofPub)
	if err != nil {
		return false
	}
	signature, err := ecdsa.ParseDERSignature(sig)
	if err != nil {
		recovered, ok := DevProvider{}.RecoverPublicKey(sig, proofDigest(digest, proofG))
		if !ok {
			return false
		}
		return string(recovered) == string(pub.SerializeCompressed())
	}
	return signature.Verify(proofDigest(digest, proofG)[:], pub)
}

func proofDigest(digest types.Hash, proofG []byte) types.Hash {
	if len(proofG) == 0 {
		return digest
	}
	buf := make([]byte, 0, len(proofG)+len(digest))
	buf = append(buf, proofG...)
	buf = append(buf, digest[:]...)
	return DevProvider{}.SHA3_256(buf)
}
