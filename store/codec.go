package store

import (
	"encoding/binary"
	"fmt"

	"github.com/sleepychain/node/types"
)

// encodeRichHeader serializes a RichHeader for the HEADERS column:
// verified(1) || header bytes (Header.Bytes(), which already includes the
// proof signatures).
func encodeRichHeader(rh types.RichHeader) []byte {
	hb := rh.Header.Bytes()
	out := make([]byte, 0, 1+len(hb))
	if rh.Verified {
		out = append(out, 1)
	} else {
		out = append(out, 0)
	}
	out = append(out, hb...)
	return out
}

func decodeRichHeader(b []byte) (types.RichHeader, error) {
	if len(b) < 1+32+8+8+32+32+32+4+4 {
		return types.RichHeader{}, fmt.Errorf("store: truncated header record")
	}
	verified := b[0] == 1
	header, err := decodeHeaderBytes(b[1:])
	if err != nil {
		return types.RichHeader{}, err
	}
	return types.RichHeader{Header: header, Verified: verified}, nil
}

func decodeHeaderBytes(b []byte) (*types.Header, error) {
	if len(b) < 32+8+8+32+32+32+4 {
		return nil, fmt.Errorf("store: truncated header bytes")
	}
	h := &types.Header{}
	off := 0
	copy(h.ParentHash[:], b[off:off+32])
	off += 32
	h.Timestamp = binary.BigEndian.Uint64(b[off : off+8])
	off += 8
	h.Height = binary.BigEndian.Uint64(b[off : off+8])
	off += 8
	copy(h.TransactionsRoot[:], b[off:off+32])
	off += 32
	copy(h.StateRoot[:], b[off:off+32])
	off += 32
	copy(h.ReceiptsRoot[:], b[off:off+32])
	off += 32

	tsLen := int(binary.BigEndian.Uint32(b[off : off+4]))
	off += 4
	if off+tsLen+4 > len(b) {
		return nil, fmt.Errorf("store: truncated time_signature")
	}
	h.Proof.TimeSignature = append([]byte(nil), b[off:off+tsLen]...)
	off += tsLen

	bsLen := int(binary.BigEndian.Uint32(b[off : off+4]))
	off += 4
	if off+bsLen > len(b) {
		return nil, fmt.Errorf("store: truncated block_signature")
	}
	h.Proof.BlockSignature = append([]byte(nil), b[off:off+bsLen]...)
	return h, nil
}

// encodeBody serializes a Body for the BODIES column: count(4 be)
// followed by each transaction's canonical Bytes(), itself length-prefixed
// so decoding can walk the list without a separate index.
func encodeBody(body types.Body) []byte {
	out := make([]byte, 0, 4)
	var tmp4 [4]byte
	binary.BigEndian.PutUint32(tmp4[:], uint32(len(body.Transactions)))
	out = append(out, tmp4[:]...)
	for i := range body.Transactions {
		tx := &body.Transactions[i]
		txBytes := tx.Bytes()
		binary.BigEndian.PutUint32(tmp4[:], uint32(len(txBytes)))
		out = append(out, tmp4[:]...)
		out = append(out, txBytes...)
		out = append(out, tx.Hash[:]...)
	}
	return out
}

func decodeBody(b []byte) (types.Body, error) {
	if len(b) < 4 {
		return types.Body{}, fmt.Errorf("store: truncated body")
	}
	count := int(binary.BigEndian.Uint32(b[:4]))
	off := 4
	txs := make([]types.SignedTransaction, 0, count)
	for i := 0; i < count; i++ {
		if off+4 > len(b) {
			return types.Body{}, fmt.Errorf("store: truncated tx length")
		}
		txLen := int(binary.BigEndian.Uint32(b[off : off+4]))
		off += 4
		if off+txLen+32 > len(b) {
			return types.Body{}, fmt.Errorf("store: truncated tx payload")
		}
		tx, err := decodeSignedTransaction(b[off:off+txLen], b[off+txLen:off+txLen+32])
		if err != nil {
			return types.Body{}, err
		}
		off += txLen + 32
		txs = append(txs, tx)
	}
	return types.Body{Transactions: txs}, nil
}

func decodeSignedTransaction(b []byte, hashBytes []byte) (types.SignedTransaction, error) {
	if len(b) < 4 {
		return types.SignedTransaction{}, fmt.Errorf("store: truncated transaction")
	}
	off := 0
	plLen := int(binary.BigEndian.Uint32(b[off : off+4]))
	off += 4
	if off+plLen+8+4 > len(b) {
		return types.SignedTransaction{}, fmt.Errorf("store: truncated transaction payload")
	}
	payload := append([]byte(nil), b[off:off+plLen]...)
	off += plLen
	timestamp := binary.BigEndian.Uint64(b[off : off+8])
	off += 8
	sigLen := int(binary.BigEndian.Uint32(b[off : off+4]))
	off += 4
	if off+sigLen > len(b) {
		return types.SignedTransaction{}, fmt.Errorf("store: truncated transaction signature")
	}
	sig := append([]byte(nil), b[off:off+sigLen]...)

	var hash types.Hash
	copy(hash[:], hashBytes)
	return types.SignedTransaction{
		Payload:   payload,
		Timestamp: timestamp,
		Hash:      hash,
		Signature: sig,
	}, nil
}

// heightKey encodes the 0x01-tagged block-hash-by-height extras key: a
// single tag byte followed by the height truncated to 4 big-endian bytes,
// exactly as specified.
func heightKey(height uint64) []byte {
	out := make([]byte, 5)
	out[0] = 0x01
	binary.BigEndian.PutUint32(out[1:], uint32(height))
	return out
}

// txAddrKey encodes the 0x02-tagged transaction-address extras key: tag
// byte followed by the 32-byte transaction hash.
func txAddrKey(txHash types.Hash) []byte {
	out := make([]byte, 33)
	out[0] = 0x02
	copy(out[1:], txHash[:])
	return out
}

func encodeTxAddress(addr types.TransactionAddress) []byte {
	out := make([]byte, 36)
	copy(out[:32], addr.BlockHash[:])
	binary.BigEndian.PutUint32(out[32:], addr.Index)
	return out
}

func decodeTxAddress(b []byte) (types.TransactionAddress, error) {
	if len(b) != 36 {
		return types.TransactionAddress{}, fmt.Errorf("store: malformed transaction address")
	}
	var addr types.TransactionAddress
	copy(addr.BlockHash[:], b[:32])
	addr.Index = binary.BigEndian.Uint32(b[32:])
	return addr, nil
}

const metaCurrentHashKey = "current_hash"
