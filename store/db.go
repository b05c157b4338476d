// Package store implements the chain engine's store adapter (C3): typed
// read/write over a columnar byte-keyed value store, with write batches
// and a per-column in-memory cache. It is built on go.etcd.io/bbolt, the
// same embedded KV store the teacher repo persists its chain database
// with.
package store

import (
	"fmt"
	"time"

	bolt "go.etcd.io/bbolt"

	"github.com/sleepychain/node/cache"
	"github.com/sleepychain/node/types"
)

var (
	bucketHeaders = []byte("headers")
	bucketBodies  = []byte("bodies")
	bucketExtra   = []byte("extra")
)

const (
	defaultHeaderCacheCap = 4096
	defaultBodyCacheCap   = 1024
	defaultExtraCacheCap  = 4096
)

// DB is the store adapter. All reads consult the relevant column cache
// before touching bbolt; every Put*/Delete* method queues the durable write
// onto a Batch and updates the matching column cache in the same call.
type DB struct {
	bolt *bolt.DB

	headers    *cache.Column[types.Hash, types.RichHeader]
	bodies     *cache.Column[types.Hash, types.Body]
	blockHash  *cache.Column[uint64, types.Hash]
	txAddr     *cache.Column[types.Hash, types.TransactionAddress]
	cacheMgr   *cache.Manager
}

func Open(path string) (*DB, error) {
	bdb, err := bolt.Open(path, 0o600, &bolt.Options{Timeout: 1 * time.Second})
	if err != nil {
		return nil, fmt.Errorf("store: open bbolt: %w", err)
	}
	if err := bdb.Update(func(tx *bolt.Tx) error {
		for _, b := range [][]byte{bucketHeaders, bucketBodies, bucketExtra} {
			if _, err := tx.CreateBucketIfNotExists(b); err != nil {
				return fmt.Errorf("store: create bucket %s: %w", b, err)
			}
		}
		return nil
	}); err != nil {
		_ = bdb.Close()
		return nil, err
	}
	return &DB{
		bolt:      bdb,
		headers:   cache.NewColumn[types.Hash, types.RichHeader](defaultHeaderCacheCap),
		bodies:    cache.NewColumn[types.Hash, types.Body](defaultBodyCacheCap),
		blockHash: cache.NewColumn[uint64, types.Hash](defaultExtraCacheCap),
		txAddr:    cache.NewColumn[types.Hash, types.TransactionAddress](defaultExtraCacheCap),
		cacheMgr:  cache.NewManager(64 << 20),
	}, nil
}

func (d *DB) Close() error {
	if d == nil || d.bolt == nil {
		return nil
	}
	return d.bolt.Close()
}

// Batch wraps the bbolt write transaction that backs a single atomic
// commit(batch) as described in §4.1. Multiple logical writes accumulate
// against it before Commit flushes them together.
type Batch struct {
	tx *bolt.Tx
}

// NewBatch opens a writable bbolt transaction. Callers must Commit or
// Rollback it.
func (d *DB) NewBatch() (*Batch, error) {
	tx, err := d.bolt.Begin(true)
	if err != nil {
		return nil, err
	}
	return &Batch{tx: tx}, nil
}

// Commit atomically applies the batch. Failure is fatal to the caller's
// in-progress operation: the chain engine's invariants demand atomic
// commit of a reorg step, so callers must not attempt to patch up a
// partially-applied batch.
func (b *Batch) Commit() error {
	return b.tx.Commit()
}

func (b *Batch) Rollback() error {
	return b.tx.Rollback()
}

// GetHeader reads a RichHeader, consulting the header cache first.
func (d *DB) GetHeader(hash types.Hash) (types.RichHeader, bool, error) {
	if rh, ok := d.headers.Get(hash); ok {
		d.cacheMgr.NoteUsed(headerCacheID(hash))
		return rh, true, nil
	}
	var out types.RichHeader
	var found bool
	err := d.bolt.View(func(tx *bolt.Tx) error {
		v := tx.Bucket(bucketHeaders).Get(hash[:])
		if v == nil {
			return nil
		}
		rh, err := decodeRichHeader(v)
		if err != nil {
			return err
		}
		out = rh
		found = true
		return nil
	})
	if err != nil {
		return types.RichHeader{}, false, err
	}
	if found {
		d.headers.Put(hash, out, cache.Overwrite)
		d.cacheMgr.NoteUsed(headerCacheID(hash))
	}
	return out, found, nil
}

// PutHeader queues a header write onto batch and updates the cache per
// policy.
func (d *DB) PutHeader(batch *Batch, hash types.Hash, rh types.RichHeader, policy cache.Policy) error {
	if err := batch.tx.Bucket(bucketHeaders).Put(hash[:], encodeRichHeader(rh)); err != nil {
		return err
	}
	d.headers.Put(hash, rh, policy)
	if policy == cache.Remove {
		d.cacheMgr.Forget(headerCacheID(hash))
	} else {
		d.cacheMgr.NoteUsed(headerCacheID(hash))
	}
	return nil
}

func (d *DB) GetBody(hash types.Hash) (types.Body, bool, error) {
	if body, ok := d.bodies.Get(hash); ok {
		d.cacheMgr.NoteUsed(bodyCacheID(hash))
		return body, true, nil
	}
	var out types.Body
	var found bool
	err := d.bolt.View(func(tx *bolt.Tx) error {
		v := tx.Bucket(bucketBodies).Get(hash[:])
		if v == nil {
			return nil
		}
		body, err := decodeBody(v)
		if err != nil {
			return err
		}
		out = body
		found = true
		return nil
	})
	if err != nil {
		return types.Body{}, false, err
	}
	if found {
		d.bodies.Put(hash, out, cache.Overwrite)
		d.cacheMgr.NoteUsed(bodyCacheID(hash))
	}
	return out, found, nil
}

func (d *DB) PutBody(batch *Batch, hash types.Hash, body types.Body) error {
	if err := batch.tx.Bucket(bucketBodies).Put(hash[:], encodeBody(body)); err != nil {
		return err
	}
	d.bodies.Put(hash, body, cache.Overwrite)
	d.cacheMgr.NoteUsed(bodyCacheID(hash))
	return nil
}

func (d *DB) GetBlockHashByNumber(height uint64) (types.Hash, bool, error) {
	if h, ok := d.blockHash.Get(height); ok {
		d.cacheMgr.NoteUsed(blockHashCacheID(height))
		return h, true, nil
	}
	var out types.Hash
	var found bool
	err := d.bolt.View(func(tx *bolt.Tx) error {
		v := tx.Bucket(bucketExtra).Get(heightKey(height))
		if v == nil {
			return nil
		}
		var ok bool
		out, ok = types.HashFromSlice(v)
		if !ok {
			return fmt.Errorf("store: malformed block-hash-by-height value")
		}
		found = true
		return nil
	})
	if err != nil {
		return types.Hash{}, false, err
	}
	if found {
		d.blockHash.Put(height, out, cache.Overwrite)
		d.cacheMgr.NoteUsed(blockHashCacheID(height))
	}
	return out, found, nil
}

func (d *DB) PutBlockHashByNumber(batch *Batch, height uint64, hash types.Hash) error {
	if err := batch.tx.Bucket(bucketExtra).Put(heightKey(height), hash[:]); err != nil {
		return err
	}
	d.blockHash.Put(height, hash, cache.Overwrite)
	d.cacheMgr.NoteUsed(blockHashCacheID(height))
	return nil
}

func (d *DB) DeleteBlockHashByNumber(batch *Batch, height uint64) error {
	if err := batch.tx.Bucket(bucketExtra).Delete(heightKey(height)); err != nil {
		return err
	}
	d.blockHash.Put(height, types.Hash{}, cache.Remove)
	d.cacheMgr.Forget(blockHashCacheID(height))
	return nil
}

func (d *DB) GetTransactionAddress(txHash types.Hash) (types.TransactionAddress, bool, error) {
	if addr, ok := d.txAddr.Get(txHash); ok {
		d.cacheMgr.NoteUsed(txAddrCacheID(txHash))
		return addr, true, nil
	}
	var out types.TransactionAddress
	var found bool
	err := d.bolt.View(func(tx *bolt.Tx) error {
		v := tx.Bucket(bucketExtra).Get(txAddrKey(txHash))
		if v == nil {
			return nil
		}
		addr, err := decodeTxAddress(v)
		if err != nil {
			return err
		}
		out = addr
		found = true
		return nil
	})
	if err != nil {
		return types.TransactionAddress{}, false, err
	}
	if found {
		d.txAddr.Put(txHash, out, cache.Overwrite)
		d.cacheMgr.NoteUsed(txAddrCacheID(txHash))
	}
	return out, found, nil
}

func (d *DB) PutTransactionAddress(batch *Batch, txHash types.Hash, addr types.TransactionAddress) error {
	if err := batch.tx.Bucket(bucketExtra).Put(txAddrKey(txHash), encodeTxAddress(addr)); err != nil {
		return err
	}
	d.txAddr.Put(txHash, addr, cache.Overwrite)
	d.cacheMgr.NoteUsed(txAddrCacheID(txHash))
	return nil
}

func (d *DB) DeleteTransactionAddress(batch *Batch, txHash types.Hash) error {
	if err := batch.tx.Bucket(bucketExtra).Delete(txAddrKey(txHash)); err != nil {
		return err
	}
	d.txAddr.Put(txHash, types.TransactionAddress{}, cache.Remove)
	d.cacheMgr.Forget(txAddrCacheID(txHash))
	return nil
}

func (d *DB) GetCurrentHash() (types.Hash, bool, error) {
	var out types.Hash
	var found bool
	err := d.bolt.View(func(tx *bolt.Tx) error {
		v := tx.Bucket(bucketExtra).Get([]byte(metaCurrentHashKey))
		if v == nil {
			return nil
		}
		var ok bool
		out, ok = types.HashFromSlice(v)
		if !ok {
			return fmt.Errorf("store: malformed current_hash value")
		}
		found = true
		return nil
	})
	return out, found, err
}

func (d *DB) PutCurrentHash(batch *Batch, hash types.Hash) error {
	return batch.tx.Bucket(bucketExtra).Put([]byte(metaCurrentHashKey), hash[:])
}

// CollectGarbage runs the LRU manager's eviction sweep across all four
// columns, estimating the combined cache footprint from entry counts.
// Intended to be invoked periodically by an external maintenance task, per
// §5's resource policy; eviction never affects correctness.
func (d *DB) CollectGarbage(estimatedEntryBytes uint64) uint64 {
	currentSize := uint64(d.headers.Len()+d.bodies.Len()+d.blockHash.Len()+d.txAddr.Len()) * estimatedEntryBytes
	return d.cacheMgr.CollectGarbage(currentSize, func(ids []cache.ID) uint64 {
		for _, id := range ids {
			switch v := id.(type) {
			case cacheIDHeader:
				d.headers.Remove(types.Hash(v))
			case cacheIDBody:
				d.bodies.Remove(types.Hash(v))
			case cacheIDBlockHash:
				d.blockHash.Remove(uint64(v))
			case cacheIDTxAddr:
				d.txAddr.Remove(types.Hash(v))
			}
		}
		return uint64(d.headers.Len()+d.bodies.Len()+d.blockHash.Len()+d.txAddr.Len()) * estimatedEntryBytes
	})
}

type (
	cacheIDHeader    types.Hash
	cacheIDBody      types.Hash
	cacheIDBlockHash uint64
	cacheIDTxAddr    types.Hash
)

func headerCacheID(h types.Hash) cache.ID    { return cacheIDHeader(h) }
func bodyCacheID(h types.Hash) cache.ID      { return cacheIDBody(h) }
func blockHashCacheID(n uint64) cache.ID     { return cacheIDBlockHash(n) }
func txAddrCacheID(h types.Hash) cache.ID    { return cacheIDTxAddr(h) }
