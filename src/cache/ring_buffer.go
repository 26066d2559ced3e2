package cache

import (
	"invest-client/src/models"
)

// -----------------------------------------------------------------------------
// CandleBuffer keeps the most recent candles of one instrument in ascending
// time order with no duplicate timestamps.
// Not safe for concurrent use; CandleCache guards it.
// -----------------------------------------------------------------------------

type CandleBuffer struct {
	data  []models.MCandlestick
	start int // index of the oldest live entry in data
	limit int // 0 = unbounded
}

// -----------------------------------------------------------------------------

// NewCandleBuffer creates a buffer holding at most limit candles (0 = unbounded)
func NewCandleBuffer(limit int) *CandleBuffer {
	if limit < 0 {
		limit = 0
	}
	size := limit
	if size == 0 || size > 1024 {
		size = 64
	}
	return &CandleBuffer{
		data:  make([]models.MCandlestick, 0, size),
		limit: limit,
	}
}

// -----------------------------------------------------------------------------

// SetLimit changes the capacity. Existing entries are not trimmed; the limit is
// enforced on the next appending Push.
func (b *CandleBuffer) SetLimit(n int) {
	if n < 0 {
		n = 0
	}
	b.limit = n
}

// -----------------------------------------------------------------------------

// Push stores c according to its time relative to the last stored candle:
// earlier is dropped, equal overwrites the last entry, later appends and
// evicts the oldest entry when the buffer is at capacity.
func (b *CandleBuffer) Push(c models.MCandlestick) {
	if n := b.Len(); n > 0 {
		last := &b.data[len(b.data)-1]
		switch {
		case c.Time.Before(last.Time):
			return
		case c.Time.Equal(last.Time):
			*last = c
			return
		}
		if b.limit > 0 && n >= b.limit {
			b.data[b.start] = models.MCandlestick{}
			b.start++
		}
	}

	b.compact()
	b.data = append(b.data, c)
}

// compact moves live entries to the front once the evicted prefix is at least
// as long as the live part, keeping Push O(1) amortized
func (b *CandleBuffer) compact() {
	if b.start == 0 || b.start*2 < len(b.data) {
		return
	}
	n := copy(b.data, b.data[b.start:])
	clear(b.data[n:])
	b.data = b.data[:n]
	b.start = 0
}

// -----------------------------------------------------------------------------

// GetLastN returns the n most recent candles, oldest first, as a view into the
// buffer. The view is only valid until the next Push. It reports false when
// fewer than n candles are stored.
func (b *CandleBuffer) GetLastN(n int) ([]models.MCandlestick, bool) {
	live := b.data[b.start:]
	if n < 0 || n > len(live) {
		return nil, false
	}
	return live[len(live)-n : len(live) : len(live)], true
}

// -----------------------------------------------------------------------------

// Last returns the newest candle.
func (b *CandleBuffer) Last() (models.MCandlestick, bool) {
	if b.IsEmpty() {
		return models.MCandlestick{}, false
	}
	return b.data[len(b.data)-1], true
}

// Len returns current number of candles
func (b *CandleBuffer) Len() int {
	return len(b.data) - b.start
}

func (b *CandleBuffer) IsEmpty() bool {
	return b.Len() == 0
}

func (b *CandleBuffer) Limit() int {
	return b.limit
}
