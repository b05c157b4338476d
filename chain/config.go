package chain

import (
	"math/rand"

	"github.com/sleepychain/node/crypto"
)

// Keygroup is a registered (proof_pub, proof_g, signer_pub) triple: the
// config-loaded authorization list described in §6. SignerPub is the key
// recovered from a header's block_signature; ProofPub/ProofG are looked
// up by that recovered key to verify the time signature.
type Keygroup struct {
	ProofPub  []byte
	ProofG    []byte
	SignerPub []byte
}

// Config is the chain engine's view of the node configuration (§6),
// narrowed to what the engine itself consumes. Loading it from TOML and
// validating peer/network fields is the config package's job.
type Config struct {
	ParticipantCount uint64 // max_peer, N in the difficulty formula
	SlotsPerSec      uint64
	WindowSlots      uint64 // steps in the difficulty window
	EpochLen         uint64
	BufferSize       int
	Lookback         int
	StartTime        uint64
	FutureSlack      uint64

	MinerPrivateKey  []byte
	SignerPrivateKey []byte

	// Keygroups indexed by the hex-decoded signer public key they
	// authorize, built once at load time per SPEC_FULL.md §9.
	Keygroups map[string]Keygroup

	// TieBreakRNG resolves equal-height fork-choice ties (§4.4.2). Tests
	// inject a seeded source for reproducibility; production uses a
	// process-global source seeded from crypto/rand at startup.
	TieBreakRNG *rand.Rand
}

func (c Config) WindowSize() int {
	return c.Lookback + c.BufferSize + 1
}

func (c Config) KeygroupBySignerPub(signerPub []byte) (Keygroup, bool) {
	kg, ok := c.Keygroups[string(signerPub)]
	return kg, ok
}

// TimeSource is the injected wall-clock/NTP collaborator. Now returns the
// current slot and false when no reading is available (TimeSourceUnavailable).
type TimeSource interface {
	Now() (slot uint64, ok bool)
}

// Metrics receives per-Insert outcome counters (SPEC_FULL.md §6.6). It is
// optional: a nil Dependencies.Metrics leaves Insert's counting a no-op, so
// tests and offline tooling (e.g. rubin-consensus-cli) don't need a
// Prometheus registry just to construct a Chain.
type Metrics interface {
	IncInserted()
	IncRejected(reason string)
}

// Dependencies bundles the chain engine's external collaborators besides
// the store, so Init's signature stays small as more are added.
type Dependencies struct {
	Crypto  crypto.Provider
	Clock   TimeSource
	Metrics Metrics // optional
}
