package cache

import (
	"fmt"
	"sort"
	"sync"

	"invest-client/src/helpers"
	"invest-client/src/logger"
	"invest-client/src/metrics"
	"invest-client/src/models"
)

// -----------------------------------------------------------------------------
// CandleCache owns one CandleBuffer per instrument uid. Buckets are created
// explicitly; pushing a candle for an unregistered uid fails.
// -----------------------------------------------------------------------------

type CandleCache struct {
	buckets      map[string]*CandleBuffer
	defaultLimit int
	logger       *logger.Logger
	mu           sync.RWMutex
}

// -----------------------------------------------------------------------------

func NewCandleCache(defaultLimit int, log *logger.Logger) *CandleCache {
	if log == nil {
		log = logger.NewLogger(nil, "CandleCache")
	}
	return &CandleCache{
		buckets:      make(map[string]*CandleBuffer),
		defaultLimit: defaultLimit,
		logger:       log,
	}
}

// -----------------------------------------------------------------------------

// CreateBucket registers uid. It is a no-op when the bucket already exists.
func (cc *CandleCache) CreateBucket(uid string) {
	cc.mu.Lock()
	defer cc.mu.Unlock()

	if _, ok := cc.buckets[uid]; ok {
		return
	}
	cc.buckets[uid] = NewCandleBuffer(cc.defaultLimit)
	metrics.SetCacheSize("candle_buckets", len(cc.buckets))
	cc.logger.Debug("created candle bucket %s (limit %d)", uid, cc.defaultLimit)
}

// -----------------------------------------------------------------------------

// RemoveBucket drops uid and its history.
func (cc *CandleCache) RemoveBucket(uid string) {
	cc.mu.Lock()
	defer cc.mu.Unlock()

	delete(cc.buckets, uid)
	metrics.SetCacheSize("candle_buckets", len(cc.buckets))
}

// -----------------------------------------------------------------------------

func (cc *CandleCache) SetLimit(uid string, n int) error {
	cc.mu.Lock()
	defer cc.mu.Unlock()

	buf, ok := cc.buckets[uid]
	if !ok {
		return fmt.Errorf("set limit for %s: %w", uid, helpers.ErrInstrumentNotFound)
	}
	buf.SetLimit(n)
	return nil
}

// -----------------------------------------------------------------------------

// Push routes c to the bucket of its own instrument uid.
func (cc *CandleCache) Push(c models.MCandlestick) error {
	if c.InstrumentUID == "" {
		return helpers.NewValidationError(helpers.ErrInstrumentKeyMissing, "push candle at %s", c.Time)
	}

	cc.mu.Lock()
	defer cc.mu.Unlock()

	buf, ok := cc.buckets[c.InstrumentUID]
	if !ok {
		return fmt.Errorf("push candle for %s: %w", c.InstrumentUID, helpers.ErrInstrumentNotFound)
	}
	buf.Push(c)
	return nil
}

// -----------------------------------------------------------------------------

// GetLastN returns a copy of the n most recent candles of uid, oldest first.
// It reports false for an unknown uid or when fewer than n are stored.
func (cc *CandleCache) GetLastN(uid string, n int) ([]models.MCandlestick, bool) {
	cc.mu.RLock()
	defer cc.mu.RUnlock()

	buf, ok := cc.buckets[uid]
	if !ok {
		return nil, false
	}
	view, ok := buf.GetLastN(n)
	if !ok {
		return nil, false
	}
	out := make([]models.MCandlestick, len(view))
	copy(out, view)
	return out, true
}

// -----------------------------------------------------------------------------

// Last returns the newest candle of uid.
func (cc *CandleCache) Last(uid string) (models.MCandlestick, bool) {
	cc.mu.RLock()
	defer cc.mu.RUnlock()

	buf, ok := cc.buckets[uid]
	if !ok {
		return models.MCandlestick{}, false
	}
	return buf.Last()
}

// Len returns the number of candles stored for uid, 0 when unknown.
func (cc *CandleCache) Len(uid string) int {
	cc.mu.RLock()
	defer cc.mu.RUnlock()

	if buf, ok := cc.buckets[uid]; ok {
		return buf.Len()
	}
	return 0
}

// Buckets returns the registered uids, sorted.
func (cc *CandleCache) Buckets() []string {
	cc.mu.RLock()
	defer cc.mu.RUnlock()

	uids := make([]string, 0, len(cc.buckets))
	for uid := range cc.buckets {
		uids = append(uids, uid)
	}
	sort.Strings(uids)
	return uids
}
