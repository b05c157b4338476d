package types

import "testing"

func TestBodyTxHashes(t *testing.T) {
	body := Body{Transactions: []SignedTransaction{
		{Hash: hashOfByte(1)},
		{Hash: hashOfByte(2)},
	}}
	hashes := body.TxHashes()
	if len(hashes) != 2 || hashes[0] != hashOfByte(1) || hashes[1] != hashOfByte(2) {
		t.Fatalf("unexpected tx hashes: %v", hashes)
	}
}

func TestSignedTransactionBytesRoundTripLength(t *testing.T) {
	tx := SignedTransaction{Payload: []byte("payload"), Timestamp: 42, Signature: []byte("sig")}
	b := tx.Bytes()
	// len(payload)(4) + payload + timestamp(8) + len(sig)(4) + sig
	want := 4 + len(tx.Payload) + 8 + 4 + len(tx.Signature)
	if len(b) != want {
		t.Fatalf("expected encoded length %d, got %d", want, len(b))
	}
}

func TestBlockIsGenesis(t *testing.T) {
	b := &Block{Header: &Header{Height: 0}}
	if !b.IsGenesis() {
		t.Fatalf("height 0 block must report IsGenesis")
	}
	b2 := &Block{Header: &Header{Height: 1}}
	if b2.IsGenesis() {
		t.Fatalf("height 1 block must not report IsGenesis")
	}
}
