package cache

import (
	"slices"
	"sort"
	"sync"

	"invest-client/src/metrics"
	"invest-client/src/models"
)

// -----------------------------------------------------------------------------
// InstrumentCache holds instrument records under four indices: uid, figi,
// ticker and (class code, ticker). Records without a figi sit under "".
//
// Each index has its own lock. Readers take one read lock. Writers take every
// write lock in the order uid, figi, ticker, class code/ticker and release
// them in reverse, so readers never observe a half-applied mutation.
// -----------------------------------------------------------------------------

type InstrumentCache struct {
	byUID             map[string]models.MInstrument
	byFigi            map[string][]models.MInstrument
	byTicker          map[string][]models.MInstrument
	byClassCodeTicker map[models.MClassCodeTicker][]models.MInstrument

	uidMu             sync.RWMutex
	figiMu            sync.RWMutex
	tickerMu          sync.RWMutex
	classCodeTickerMu sync.RWMutex
}

// -----------------------------------------------------------------------------

func NewInstrumentCache() *InstrumentCache {
	return &InstrumentCache{
		byUID:             make(map[string]models.MInstrument),
		byFigi:            make(map[string][]models.MInstrument),
		byTicker:          make(map[string][]models.MInstrument),
		byClassCodeTicker: make(map[models.MClassCodeTicker][]models.MInstrument),
	}
}

// NewInstrumentCacheFrom builds a cache from a full instrument listing.
func NewInstrumentCacheFrom(records []models.MInstrument) *InstrumentCache {
	ic := NewInstrumentCache()
	ic.BulkInsert(records)
	return ic
}

// -----------------------------------------------------------------------------

func (ic *InstrumentCache) lockAll() {
	ic.uidMu.Lock()
	ic.figiMu.Lock()
	ic.tickerMu.Lock()
	ic.classCodeTickerMu.Lock()
}

func (ic *InstrumentCache) unlockAll() {
	metrics.SetCacheSize("instruments", len(ic.byUID))
	ic.classCodeTickerMu.Unlock()
	ic.tickerMu.Unlock()
	ic.figiMu.Unlock()
	ic.uidMu.Unlock()
}

// -----------------------------------------------------------------------------
// Reads
// -----------------------------------------------------------------------------

func (ic *InstrumentCache) GetByUID(uid string) (models.MInstrument, bool) {
	ic.uidMu.RLock()
	defer ic.uidMu.RUnlock()

	r, ok := ic.byUID[uid]
	return r, ok
}

// GetByFigi returns the records carrying figi. An empty figi returns the
// records that have none.
func (ic *InstrumentCache) GetByFigi(figi string) ([]models.MInstrument, bool) {
	ic.figiMu.RLock()
	defer ic.figiMu.RUnlock()

	return lookup(ic.byFigi, figi)
}

func (ic *InstrumentCache) GetByTicker(ticker string) ([]models.MInstrument, bool) {
	ic.tickerMu.RLock()
	defer ic.tickerMu.RUnlock()

	return lookup(ic.byTicker, ticker)
}

func (ic *InstrumentCache) GetByClassCodeAndTicker(key models.IClassCodeTickerKey) ([]models.MInstrument, bool) {
	ic.classCodeTickerMu.RLock()
	defer ic.classCodeTickerMu.RUnlock()

	return lookup(ic.byClassCodeTicker, models.ClassCodeTickerOf(key))
}

// Len returns the number of records.
func (ic *InstrumentCache) Len() int {
	ic.uidMu.RLock()
	defer ic.uidMu.RUnlock()

	return len(ic.byUID)
}

// All returns every record sorted by uid.
func (ic *InstrumentCache) All() []models.MInstrument {
	ic.uidMu.RLock()
	out := make([]models.MInstrument, 0, len(ic.byUID))
	for _, r := range ic.byUID {
		out = append(out, r)
	}
	ic.uidMu.RUnlock()

	sort.Slice(out, func(i, j int) bool { return out[i].UID < out[j].UID })
	return out
}

// -----------------------------------------------------------------------------
// Writes
// -----------------------------------------------------------------------------

// Insert adds r to every index. A record already present under r.UID is
// replaced wherever it appears.
func (ic *InstrumentCache) Insert(r models.MInstrument) {
	ic.lockAll()
	defer ic.unlockAll()

	if old, ok := ic.byUID[r.UID]; ok {
		ic.updateLocked(old, r)
		return
	}
	ic.insertLocked(r)
}

// Update replaces the record stored under r.UID in every index. Unknown uids
// are ignored. When figi, ticker or class code changed the record moves to
// its new buckets and emptied old buckets are removed.
func (ic *InstrumentCache) Update(r models.MInstrument) {
	ic.lockAll()
	defer ic.unlockAll()

	if old, ok := ic.byUID[r.UID]; ok {
		ic.updateLocked(old, r)
	}
}

// Upsert inserts r or updates the existing record with the same uid.
func (ic *InstrumentCache) Upsert(r models.MInstrument) {
	ic.lockAll()
	defer ic.unlockAll()

	if old, ok := ic.byUID[r.UID]; ok {
		ic.updateLocked(old, r)
	} else {
		ic.insertLocked(r)
	}
}

// SetTradingStatus changes the trading status of the record stored under uid
// in one write step. It reports false for an unknown uid or an unchanged status.
func (ic *InstrumentCache) SetTradingStatus(uid string, status models.TradingStatus) (models.MInstrument, bool) {
	ic.lockAll()
	defer ic.unlockAll()

	old, ok := ic.byUID[uid]
	if !ok || old.TradingStatus == status {
		return old, false
	}
	r := old
	r.TradingStatus = status
	ic.updateLocked(old, r)
	return r, true
}

// DeleteByUID removes the record from every index and returns it.
func (ic *InstrumentCache) DeleteByUID(uid string) (models.MInstrument, bool) {
	ic.lockAll()
	defer ic.unlockAll()

	old, ok := ic.byUID[uid]
	if !ok {
		return models.MInstrument{}, false
	}
	delete(ic.byUID, uid)
	remove(ic.byFigi, old.Figi, uid)
	remove(ic.byTicker, old.Ticker, uid)
	remove(ic.byClassCodeTicker, models.ClassCodeTickerOf(old), uid)
	return old, true
}

// -----------------------------------------------------------------------------

func (ic *InstrumentCache) BulkInsert(records []models.MInstrument) {
	for _, r := range records {
		ic.Insert(r)
	}
}

func (ic *InstrumentCache) BulkUpdate(records []models.MInstrument) {
	for _, r := range records {
		ic.Update(r)
	}
}

func (ic *InstrumentCache) BulkUpsert(records []models.MInstrument) {
	for _, r := range records {
		ic.Upsert(r)
	}
}

// -----------------------------------------------------------------------------
// Locked helpers, callers hold every write lock
// -----------------------------------------------------------------------------

func (ic *InstrumentCache) insertLocked(r models.MInstrument) {
	ic.byUID[r.UID] = r
	ic.byFigi[r.Figi] = append(ic.byFigi[r.Figi], r)
	ic.byTicker[r.Ticker] = append(ic.byTicker[r.Ticker], r)
	key := models.ClassCodeTickerOf(r)
	ic.byClassCodeTicker[key] = append(ic.byClassCodeTicker[key], r)
}

func (ic *InstrumentCache) updateLocked(old, r models.MInstrument) {
	ic.byUID[r.UID] = r
	replace(ic.byFigi, old.Figi, r.Figi, r)
	replace(ic.byTicker, old.Ticker, r.Ticker, r)
	replace(ic.byClassCodeTicker, models.ClassCodeTickerOf(old), models.ClassCodeTickerOf(r), r)
}

// -----------------------------------------------------------------------------

func lookup[K comparable](idx map[K][]models.MInstrument, key K) ([]models.MInstrument, bool) {
	bucket, ok := idx[key]
	if !ok {
		return nil, false
	}
	return slices.Clone(bucket), true
}

// replace swaps the entry with r.UID in place when the key is unchanged,
// otherwise moves it from the old bucket to the new one.
func replace[K comparable](idx map[K][]models.MInstrument, oldKey, newKey K, r models.MInstrument) {
	if oldKey == newKey {
		bucket := idx[newKey]
		if i := slices.IndexFunc(bucket, func(x models.MInstrument) bool { return x.UID == r.UID }); i >= 0 {
			bucket[i] = r
			return
		}
	} else {
		remove(idx, oldKey, r.UID)
	}
	idx[newKey] = append(idx[newKey], r)
}

// remove drops the entry with uid from the bucket and prunes an emptied bucket.
func remove[K comparable](idx map[K][]models.MInstrument, key K, uid string) {
	bucket, ok := idx[key]
	if !ok {
		return
	}
	bucket = slices.DeleteFunc(bucket, func(x models.MInstrument) bool { return x.UID == uid })
	if len(bucket) == 0 {
		delete(idx, key)
		return
	}
	idx[key] = bucket
}
