package config

import "testing"

func validBaseConfig() Config {
	cfg := DefaultConfig()
	cfg.MinerPrivateKey = "00"
	cfg.SignerPrivateKey = "00"
	return cfg
}

func TestValidateAcceptsDefaults(t *testing.T) {
	if err := Validate(validBaseConfig()); err != nil {
		t.Fatalf("expected valid base config, got %v", err)
	}
}

func TestValidateRejectsZeroSlotsPerSec(t *testing.T) {
	cfg := validBaseConfig()
	cfg.SlotsPerSec = 0
	if err := Validate(cfg); err == nil {
		t.Fatalf("expected error for zero slots_per_sec")
	}
}

func TestValidateRejectsNonHexKeys(t *testing.T) {
	cfg := validBaseConfig()
	cfg.MinerPrivateKey = "not-hex"
	if err := Validate(cfg); err == nil {
		t.Fatalf("expected error for non-hex miner_private_key")
	}
}

func TestValidateRejectsIncompletePeer(t *testing.T) {
	cfg := validBaseConfig()
	cfg.Peers = []Peer{{ID: "a"}}
	if err := Validate(cfg); err == nil {
		t.Fatalf("expected error for peer missing address")
	}
}

func TestValidateRejectsMalformedKeygroup(t *testing.T) {
	cfg := validBaseConfig()
	cfg.Keygroups = []KeygroupEntry{{SignerPub: "zz", ProofPub: "00"}}
	if err := Validate(cfg); err == nil {
		t.Fatalf("expected error for non-hex keygroup signer_pub")
	}
}

func TestChainConfigBuildsKeygroupLookup(t *testing.T) {
	cfg := validBaseConfig()
	cfg.Keygroups = []KeygroupEntry{
		{SignerPub: "aa", ProofPub: "bb", ProofG: ""},
	}
	chainCfg, err := ChainConfig(cfg)
	if err != nil {
		t.Fatalf("chain config: %v", err)
	}
	kg, ok := chainCfg.KeygroupBySignerPub([]byte{0xaa})
	if !ok {
		t.Fatalf("expected keygroup lookup to find the registered signer")
	}
	if string(kg.ProofPub) != string([]byte{0xbb}) {
		t.Fatalf("unexpected proof pub: %v", kg.ProofPub)
	}
}
