package feed

import (
	"context"
	"sync"
	"testing"
	"time"

	"invest-client/src/cache"
	"invest-client/src/logger"
	"invest-client/src/models"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingSink struct {
	mu     sync.Mutex
	events []models.MMarketDataEvent
}

func (s *recordingSink) Broadcast(ev models.MMarketDataEvent) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, ev)
}

func (s *recordingSink) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.events)
}

func newTestFeeder() *Feeder {
	instruments := cache.NewInstrumentCacheFrom([]models.MInstrument{
		{UID: "uid-1", Figi: "F1", Ticker: "SBER", ClassCode: "TQBR", TradingStatus: models.StatusNormalTrading},
	})
	candles := cache.NewCandleCache(10, logger.NewTestLogger())
	candles.CreateBucket("uid-1")
	return NewFeeder(candles, cache.NewOrderBookCache(), cache.NewTradingStatusCache(), instruments, logger.NewTestLogger())
}

func candleEvent(uid string, minute int) models.MMarketDataEvent {
	return models.MMarketDataEvent{Kind: models.EventCandle, Candle: &models.MCandlestick{
		InstrumentUID: uid,
		Interval:      models.Interval1Min,
		Close:         decimal.NewFromInt(int64(minute)),
		Time:          time.Date(2024, 3, 1, 10, minute, 0, 0, time.UTC),
	}}
}

// -----------------------------------------------------------------------------

func TestFeederRoutesEvents(t *testing.T) {
	f := newTestFeeder()
	sink := &recordingSink{}
	f.Sink = sink

	f.Handle(candleEvent("uid-1", 1))
	f.Handle(candleEvent("uid-1", 2))
	f.Handle(models.MMarketDataEvent{Kind: models.EventOrderBook, OrderBook: &models.MOrderBook{InstrumentUID: "uid-1", Depth: 10}})
	f.Handle(models.MMarketDataEvent{Kind: models.EventTradingStatus, TradingStatus: &models.MTradingStatus{InstrumentUID: "uid-1", Status: models.StatusBreakInTrading}})

	assert.Equal(t, 2, f.Candles.Len("uid-1"))
	book, ok := f.OrderBooks.Get("uid-1")
	require.True(t, ok)
	assert.EqualValues(t, 10, book.Depth)

	st, ok := f.Statuses.Get("uid-1")
	require.True(t, ok)
	assert.Equal(t, models.StatusBreakInTrading, st.Status)

	inst, ok := f.Instruments.GetByUID("uid-1")
	require.True(t, ok)
	assert.Equal(t, models.StatusBreakInTrading, inst.TradingStatus)

	assert.EqualValues(t, 4, f.Handled())
	assert.Equal(t, 4, sink.Len())
}

func TestFeederSkipsUnroutableEvents(t *testing.T) {
	f := newTestFeeder()
	sink := &recordingSink{}
	f.Sink = sink

	f.Handle(candleEvent("uid-unknown", 1))
	f.Handle(candleEvent("", 1))
	f.Handle(models.MMarketDataEvent{Kind: models.EventOrderBook})
	f.Handle(models.MMarketDataEvent{Kind: "trade"})

	assert.EqualValues(t, 4, f.Skipped())
	assert.Zero(t, f.Handled())
	assert.Zero(t, sink.Len())
	assert.Equal(t, []string{"uid-1"}, f.Candles.Buckets())
}

func TestFeederStatusForUnlistedInstrument(t *testing.T) {
	f := newTestFeeder()

	f.Handle(models.MMarketDataEvent{Kind: models.EventTradingStatus, TradingStatus: &models.MTradingStatus{InstrumentUID: "uid-2", Status: models.StatusSessionClose}})

	_, ok := f.Statuses.Get("uid-2")
	assert.True(t, ok)
	_, ok = f.Instruments.GetByUID("uid-2")
	assert.False(t, ok, "a status must not create an instrument record")
}

func TestFeederRunStopsWhenChannelCloses(t *testing.T) {
	f := newTestFeeder()
	events := make(chan models.MMarketDataEvent, 3)
	events <- candleEvent("uid-1", 1)
	events <- candleEvent("uid-1", 2)
	close(events)

	require.NoError(t, f.Run(context.Background(), events))
	assert.Equal(t, 2, f.Candles.Len("uid-1"))
}

func TestFeederRunStopsOnContext(t *testing.T) {
	f := newTestFeeder()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	assert.ErrorIs(t, f.Run(ctx, make(chan models.MMarketDataEvent)), context.Canceled)
}
