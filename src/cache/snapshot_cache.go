package cache

import (
	"sort"
	"sync"

	"invest-client/src/metrics"
	"invest-client/src/models"
)

// -----------------------------------------------------------------------------
// SnapshotCache keeps the current value per instrument uid. Values are fully
// replaced on write; no history is kept.
// -----------------------------------------------------------------------------

type SnapshotCache[T any] struct {
	name  string
	keyOf func(T) string
	items map[string]T
	mu    sync.RWMutex
}

// -----------------------------------------------------------------------------

func NewSnapshotCache[T any](name string, keyOf func(T) string) *SnapshotCache[T] {
	return &SnapshotCache[T]{
		name:  name,
		keyOf: keyOf,
		items: make(map[string]T),
	}
}

func NewOrderBookCache() *SnapshotCache[models.MOrderBook] {
	return NewSnapshotCache("orderbooks", models.MOrderBook.KeyUID)
}

func NewTradingStatusCache() *SnapshotCache[models.MTradingStatus] {
	return NewSnapshotCache("trading_statuses", models.MTradingStatus.KeyUID)
}

func NewPortfolioCache() *SnapshotCache[models.MPortfolioPosition] {
	return NewSnapshotCache("portfolio", models.MPortfolioPosition.KeyUID)
}

// -----------------------------------------------------------------------------

func (sc *SnapshotCache[T]) Get(uid string) (T, bool) {
	sc.mu.RLock()
	defer sc.mu.RUnlock()

	v, ok := sc.items[uid]
	return v, ok
}

// Insert creates or replaces the value for its uid.
func (sc *SnapshotCache[T]) Insert(v T) {
	sc.mu.Lock()
	defer sc.mu.Unlock()

	sc.items[sc.keyOf(v)] = v
	metrics.SetCacheSize(sc.name, len(sc.items))
}

// Update replaces an existing value and ignores unknown uids.
func (sc *SnapshotCache[T]) Update(v T) {
	sc.mu.Lock()
	defer sc.mu.Unlock()

	key := sc.keyOf(v)
	if _, ok := sc.items[key]; ok {
		sc.items[key] = v
	}
}

// Upsert reports whether v replaced an existing value.
func (sc *SnapshotCache[T]) Upsert(v T) bool {
	sc.mu.Lock()
	defer sc.mu.Unlock()

	key := sc.keyOf(v)
	_, existed := sc.items[key]
	sc.items[key] = v
	metrics.SetCacheSize(sc.name, len(sc.items))
	return existed
}

// Delete removes and returns the value for uid.
func (sc *SnapshotCache[T]) Delete(uid string) (T, bool) {
	sc.mu.Lock()
	defer sc.mu.Unlock()

	v, ok := sc.items[uid]
	if ok {
		delete(sc.items, uid)
		metrics.SetCacheSize(sc.name, len(sc.items))
	}
	return v, ok
}

// -----------------------------------------------------------------------------

func (sc *SnapshotCache[T]) BulkInsert(values []T) {
	for _, v := range values {
		sc.Insert(v)
	}
}

func (sc *SnapshotCache[T]) BulkUpdate(values []T) {
	for _, v := range values {
		sc.Update(v)
	}
}

func (sc *SnapshotCache[T]) BulkUpsert(values []T) {
	for _, v := range values {
		sc.Upsert(v)
	}
}

// -----------------------------------------------------------------------------

func (sc *SnapshotCache[T]) Len() int {
	sc.mu.RLock()
	defer sc.mu.RUnlock()

	return len(sc.items)
}

// Keys returns the stored uids, sorted.
func (sc *SnapshotCache[T]) Keys() []string {
	sc.mu.RLock()
	defer sc.mu.RUnlock()

	keys := make([]string, 0, len(sc.items))
	for k := range sc.items {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
