package txpool

import (
	"testing"

	"github.com/sleepychain/node/types"
)

// passthroughFilter returns every candidate it's given, so tests can
// isolate the pool's own well-formedness/seen-set behavior from the chain
// engine's window predicates (covered separately in chain's own tests).
type passthroughFilter struct{}

func (passthroughFilter) FilterTransactions(parentHeight uint64, parentHash types.Hash, candidates []types.SignedTransaction) []types.SignedTransaction {
	return candidates
}

func tx(seed byte) types.SignedTransaction {
	var h types.Hash
	h[0] = seed
	return types.SignedTransaction{Payload: []byte{seed}, Signature: []byte{seed}, Hash: h}
}

func TestFilterDropsMalformedTransactions(t *testing.T) {
	p, err := New(16)
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	malformed := types.SignedTransaction{Hash: types.Hash{9}}
	out := p.Filter(passthroughFilter{}, 0, types.Hash{}, []types.SignedTransaction{malformed, tx(1)})
	if len(out) != 1 || out[0].Hash != (types.Hash{1}) {
		t.Fatalf("expected only the well-formed transaction to survive, got %+v", out)
	}
}

func TestFilterSuppressesAlreadySeen(t *testing.T) {
	p, err := New(16)
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	first := p.Filter(passthroughFilter{}, 0, types.Hash{}, []types.SignedTransaction{tx(1)})
	if len(first) != 1 {
		t.Fatalf("expected first offer to pass through, got %d", len(first))
	}
	second := p.Filter(passthroughFilter{}, 0, types.Hash{}, []types.SignedTransaction{tx(1)})
	if len(second) != 0 {
		t.Fatalf("expected repeated offer of the same tx to be suppressed, got %d", len(second))
	}
}

func TestForgetAllowsReoffering(t *testing.T) {
	p, err := New(16)
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	_ = p.Filter(passthroughFilter{}, 0, types.Hash{}, []types.SignedTransaction{tx(2)})
	p.Forget(types.Hash{2})
	out := p.Filter(passthroughFilter{}, 0, types.Hash{}, []types.SignedTransaction{tx(2)})
	if len(out) != 1 {
		t.Fatalf("expected forgotten tx to be re-offerable, got %d", len(out))
	}
}
