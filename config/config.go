// Package config loads and validates a node's on-disk configuration: the
// chain engine parameters, keygroup registry and peer list described in
// spec.md §6, plus the ambient fields (data dir, log level, NTP servers)
// a runnable node needs. It is loaded from TOML via github.com/naoina/toml,
// the same library ethereum-mive-mive's cmd/mive/config.go decodes its
// node.Config from.
package config

import (
	"bufio"
	"encoding/hex"
	"fmt"
	"os"
	"reflect"
	"unicode"

	"github.com/naoina/toml"

	"github.com/sleepychain/node/chain"
)

// tomlSettings mirrors ethereum-mive-mive's cmd/mive/config.go: TOML keys
// are matched to Go struct field names verbatim, and an unrecognized field
// is a hard error rather than silently ignored.
var tomlSettings = toml.Config{
	NormFieldName: func(rt reflect.Type, key string) string { return key },
	FieldToKey:    func(rt reflect.Type, field string) string { return field },
	MissingField: func(rt reflect.Type, field string) error {
		var link string
		if unicode.IsUpper(rune(rt.Name()[0])) {
			link = fmt.Sprintf(" (in %s)", rt.String())
		}
		return fmt.Errorf("config: field %q is not defined%s", field, link)
	},
}

// Peer is a configured network participant: id/address/port, matching
// original_source/network/src/config.rs's peer envelope. The transport
// itself is out of scope; this struct only records who the node would
// dial if a transport existed.
type Peer struct {
	ID      string `toml:"id"`
	Address string `toml:"address"`
	Port    int    `toml:"port"`
}

// KeygroupEntry is a registered participant's authorization triple as it
// appears in the config file, hex-encoded. ChainConfig builds a
// signer-pubkey-indexed lookup table from these.
type KeygroupEntry struct {
	ProofPub  string `toml:"proof_pub"`
	ProofG    string `toml:"proof_g"`
	SignerPub string `toml:"signer_pub"`
}

// Config is the full node configuration file shape.
type Config struct {
	DataDir  string `toml:"data_dir"`
	LogLevel string `toml:"log_level"`
	LogFile  string `toml:"log_file"`

	ListenAddress string `toml:"listen_address"`
	MetricsAddr   string `toml:"metrics_address"`

	MaxPeer     uint64 `toml:"max_peer"`
	SlotsPerSec uint64 `toml:"slots_per_sec"`
	WindowSlots uint64 `toml:"window_slots"`
	EpochLen    uint64 `toml:"epoch_len"`
	BufferSize  int    `toml:"buffer_size"`
	Lookback    int    `toml:"lookback"`
	StartTime   uint64 `toml:"start_time"`
	FutureSlack uint64 `toml:"future_slack"`

	MinerPrivateKey  string `toml:"miner_private_key"`
	SignerPrivateKey string `toml:"signer_private_key"`

	Peers      []Peer          `toml:"peers"`
	Keygroups  []KeygroupEntry `toml:"keygroups"`
	NTPServers []string        `toml:"ntp_servers"`
}

// DefaultConfig returns the baseline configuration a fresh node starts
// from before any TOML file or flag overrides are applied, mirroring the
// teacher's node.DefaultConfig() role.
func DefaultConfig() Config {
	return Config{
		DataDir:       "./data",
		LogLevel:      "info",
		ListenAddress: "127.0.0.1:30303",
		MetricsAddr:   "127.0.0.1:9090",
		MaxPeer:       1,
		SlotsPerSec:   1,
		WindowSlots:   60,
		EpochLen:      256,
		BufferSize:    8,
		Lookback:      32,
		FutureSlack:   5,
		NTPServers:    []string{"pool.ntp.org"},
	}
}

// Load reads and decodes a TOML configuration file into cfg, starting from
// DefaultConfig() and overlaying whatever the file sets.
func Load(path string) (Config, error) {
	cfg := DefaultConfig()
	f, err := os.Open(path)
	if err != nil {
		return cfg, fmt.Errorf("config: open %s: %w", path, err)
	}
	defer f.Close()

	if err := tomlSettings.NewDecoder(bufio.NewReader(f)).Decode(&cfg); err != nil {
		if _, ok := err.(*toml.LineError); ok {
			return cfg, fmt.Errorf("config: %s: %w", path, err)
		}
		return cfg, fmt.Errorf("config: decode %s: %w", path, err)
	}
	return cfg, nil
}

// Validate rejects a configuration that could not possibly produce a
// working chain engine: malformed keys, peers missing an address, or a
// window size that isn't internally consistent. It does not attempt to
// validate liveness (e.g. that peers are reachable).
func Validate(cfg Config) error {
	if cfg.SlotsPerSec == 0 {
		return fmt.Errorf("config: slots_per_sec must be > 0")
	}
	if cfg.Lookback <= 0 || cfg.BufferSize <= 0 {
		return fmt.Errorf("config: lookback and buffer_size must be > 0")
	}
	if _, err := hex.DecodeString(cfg.MinerPrivateKey); err != nil {
		return fmt.Errorf("config: miner_private_key must be hex: %w", err)
	}
	if _, err := hex.DecodeString(cfg.SignerPrivateKey); err != nil {
		return fmt.Errorf("config: signer_private_key must be hex: %w", err)
	}
	for i, p := range cfg.Peers {
		if p.ID == "" || p.Address == "" {
			return fmt.Errorf("config: peers[%d]: id and address are required", i)
		}
	}
	for i, kg := range cfg.Keygroups {
		if kg.SignerPub == "" || kg.ProofPub == "" {
			return fmt.Errorf("config: keygroups[%d]: signer_pub and proof_pub are required", i)
		}
		if _, err := hex.DecodeString(kg.SignerPub); err != nil {
			return fmt.Errorf("config: keygroups[%d].signer_pub: %w", i, err)
		}
		if _, err := hex.DecodeString(kg.ProofPub); err != nil {
			return fmt.Errorf("config: keygroups[%d].proof_pub: %w", i, err)
		}
	}
	return nil
}

// ChainConfig builds the chain engine's narrower Config view (chain.Config)
// from the full node configuration, decoding hex-encoded keys and building
// the signer-pubkey-indexed keygroup lookup table once, per
// SPEC_FULL.md §9's "keygroup-driven participant registry" supplement.
func ChainConfig(cfg Config) (chain.Config, error) {
	minerKey, err := hex.DecodeString(cfg.MinerPrivateKey)
	if err != nil {
		return chain.Config{}, fmt.Errorf("config: miner_private_key: %w", err)
	}
	signerKey, err := hex.DecodeString(cfg.SignerPrivateKey)
	if err != nil {
		return chain.Config{}, fmt.Errorf("config: signer_private_key: %w", err)
	}

	keygroups := make(map[string]chain.Keygroup, len(cfg.Keygroups))
	for i, kg := range cfg.Keygroups {
		signerPub, err := hex.DecodeString(kg.SignerPub)
		if err != nil {
			return chain.Config{}, fmt.Errorf("config: keygroups[%d].signer_pub: %w", i, err)
		}
		proofPub, err := hex.DecodeString(kg.ProofPub)
		if err != nil {
			return chain.Config{}, fmt.Errorf("config: keygroups[%d].proof_pub: %w", i, err)
		}
		proofG, err := hex.DecodeString(kg.ProofG)
		if err != nil {
			return chain.Config{}, fmt.Errorf("config: keygroups[%d].proof_g: %w", i, err)
		}
		keygroups[string(signerPub)] = chain.Keygroup{
			ProofPub:  proofPub,
			ProofG:    proofG,
			SignerPub: signerPub,
		}
	}

	return chain.Config{
		ParticipantCount: cfg.MaxPeer,
		SlotsPerSec:      cfg.SlotsPerSec,
		WindowSlots:      cfg.WindowSlots,
		EpochLen:         cfg.EpochLen,
		BufferSize:       cfg.BufferSize,
		Lookback:         cfg.Lookback,
		StartTime:        cfg.StartTime,
		FutureSlack:      cfg.FutureSlack,
		MinerPrivateKey:  minerKey,
		SignerPrivateKey: signerKey,
		Keygroups:        keygroups,
	}, nil
}
