// Package cache implements a bounded, byte-budgeted working set shared
// across the store adapter's per-column caches, in the spirit of
// go-ethereum's common/lru generic cache wrapper but adding the
// cross-column eviction coordinator (collect_garbage) the spec requires:
// correctness of the chain never depends on a cache hit, only on the
// durable store, so eviction here is approximate by design.
package cache

import "sync"

// ID identifies one cacheable item across all columns (e.g. a block hash
// or a height), opaque to the manager itself.
type ID any

// Evictor removes the given ids from whatever per-column cache(s) they
// live in and returns the resulting total size in bytes.
type Evictor func(ids []ID) (newSize uint64)

// Manager tracks MRU order across heterogeneous cache IDs and decides how
// many of them must be evicted to bring the tracked working set under a
// configured byte ceiling. It does not hold the cached values itself —
// those live in the store adapter's per-column caches — only the
// recency order and the ceiling.
type Manager struct {
	mu       sync.Mutex
	ceiling  uint64
	order    []ID          // LRU order, front = least recently used
	position map[ID]int    // id -> index in order, kept in sync with order
}

func NewManager(ceilingBytes uint64) *Manager {
	return &Manager{
		ceiling:  ceilingBytes,
		order:    make([]ID, 0, 1024),
		position: make(map[ID]int, 1024),
	}
}

// NoteUsed moves id to the MRU position, inserting it if unseen.
func (m *Manager) NoteUsed(id ID) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if idx, ok := m.position[id]; ok {
		m.order = append(m.order[:idx], m.order[idx+1:]...)
		for i := idx; i < len(m.order); i++ {
			m.position[m.order[i]] = i
		}
	}
	m.order = append(m.order, id)
	m.position[id] = len(m.order) - 1
}

// Forget removes id from the recency tracker without invoking an evictor;
// used when the store adapter proactively drops an id (e.g. delete_with_cache).
func (m *Manager) Forget(id ID) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.removeLocked(id)
}

func (m *Manager) removeLocked(id ID) {
	idx, ok := m.position[id]
	if !ok {
		return
	}
	m.order = append(m.order[:idx], m.order[idx+1:]...)
	delete(m.position, id)
	for i := idx; i < len(m.order); i++ {
		m.position[m.order[i]] = i
	}
}

// CollectGarbage evicts the least-recently-used ids in a single pass: it
// estimates how many ids must go (from the average bytes per tracked id),
// invokes evictor once with that set, and returns the size evictor reports.
// It does not re-check that size against the ceiling or run a second pass.
// It is a no-op if currentSize is already at or under the ceiling.
//
// This must be invoked periodically by an external maintenance task; the
// manager never evicts on its own schedule.
func (m *Manager) CollectGarbage(currentSize uint64, evictor Evictor) uint64 {
	m.mu.Lock()
	if currentSize <= m.ceiling || len(m.order) == 0 {
		m.mu.Unlock()
		return currentSize
	}
	// Evict oldest-first until we expect to be under budget; the evictor
	// reports the ground truth, so this is a best estimate of how many
	// ids to hand it, not a promise.
	evictCount := 0
	bytesPerEntry := currentSize / uint64(len(m.order))
	if bytesPerEntry == 0 {
		bytesPerEntry = 1
	}
	overage := currentSize - m.ceiling
	evictCount = int(overage/bytesPerEntry) + 1
	if evictCount > len(m.order) {
		evictCount = len(m.order)
	}
	victims := append([]ID(nil), m.order[:evictCount]...)
	for _, id := range victims {
		m.removeLocked(id)
	}
	m.mu.Unlock()

	return evictor(victims)
}

// Len reports how many ids are currently tracked.
func (m *Manager) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.order)
}
