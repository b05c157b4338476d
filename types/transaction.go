package types

import "encoding/binary"

// SignedTransaction is an opaque, signed payload. Its Hash field is
// canonical — two SignedTransactions with the same Hash are the same
// transaction — and is computed once by whoever constructs the value
// (the mempool collaborator or the miner), not lazily like Header.Hash,
// since transactions arrive pre-hashed off the wire.
type SignedTransaction struct {
	Payload   []byte
	Timestamp uint64 // milliseconds
	Hash      Hash
	Signature []byte
}

// Bytes returns the canonical encoding used to compute Hash and to include
// the transaction in a block body. Layout: len(payload)(4 be) || payload ||
// timestamp(8 be) || len(signature)(4 be) || signature.
func (tx *SignedTransaction) Bytes() []byte {
	out := make([]byte, 0, 4+len(tx.Payload)+8+4+len(tx.Signature))
	var tmp4 [4]byte
	binary.BigEndian.PutUint32(tmp4[:], uint32(len(tx.Payload)))
	out = append(out, tmp4[:]...)
	out = append(out, tx.Payload...)

	var tmp8 [8]byte
	binary.BigEndian.PutUint64(tmp8[:], tx.Timestamp)
	out = append(out, tmp8[:]...)

	binary.BigEndian.PutUint32(tmp4[:], uint32(len(tx.Signature)))
	out = append(out, tmp4[:]...)
	out = append(out, tx.Signature...)
	return out
}

// Body is the ordered sequence of transactions carried by a block.
// TransactionsRoot in the paired Header must equal MerkleRoot of the
// transaction hashes in this Body.
type Body struct {
	Transactions []SignedTransaction
}

func (b *Body) TxHashes() []Hash {
	out := make([]Hash, len(b.Transactions))
	for i := range b.Transactions {
		out[i] = b.Transactions[i].Hash
	}
	return out
}

// TransactionAddress locates a transaction's inclusion site: the block
// that carries it and its index within that block's body.
type TransactionAddress struct {
	BlockHash Hash
	Index     uint32
}
