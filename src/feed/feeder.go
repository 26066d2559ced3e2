package feed

import (
	"context"
	"errors"
	"sync/atomic"

	"invest-client/src/cache"
	"invest-client/src/helpers"
	"invest-client/src/interfaces"
	"invest-client/src/logger"
	"invest-client/src/models"
)

// -----------------------------------------------------------------------------
// Feeder applies market data events to the caches. It is the only writer of
// the candle, order book and trading status caches while the stream runs.
// -----------------------------------------------------------------------------

type Feeder struct {
	Candles     *cache.CandleCache
	OrderBooks  *cache.SnapshotCache[models.MOrderBook]
	Statuses    *cache.SnapshotCache[models.MTradingStatus]
	Instruments *cache.InstrumentCache
	Sink        interfaces.IEventSink
	Logger      *logger.Logger

	handled atomic.Uint64
	skipped atomic.Uint64
}

// -----------------------------------------------------------------------------

func NewFeeder(candles *cache.CandleCache, books *cache.SnapshotCache[models.MOrderBook], statuses *cache.SnapshotCache[models.MTradingStatus], instruments *cache.InstrumentCache, log *logger.Logger) *Feeder {
	if log == nil {
		log = logger.NewLogger(nil, "Feeder")
	}
	return &Feeder{
		Candles:     candles,
		OrderBooks:  books,
		Statuses:    statuses,
		Instruments: instruments,
		Logger:      log,
	}
}

// -----------------------------------------------------------------------------

// Run applies events until the channel is closed or ctx is done.
func (f *Feeder) Run(ctx context.Context, events <-chan models.MMarketDataEvent) error {
	for {
		select {
		case ev, ok := <-events:
			if !ok {
				f.Logger.Info("event channel closed after %d events (%d skipped)", f.Handled(), f.Skipped())
				return nil
			}
			f.Handle(ev)
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

// Handle applies one event and forwards it to Sink.
func (f *Feeder) Handle(ev models.MMarketDataEvent) {
	switch ev.Kind {
	case models.EventCandle:
		if ev.Candle == nil || !f.pushCandle(*ev.Candle) {
			f.skipped.Add(1)
			return
		}
	case models.EventOrderBook:
		if ev.OrderBook == nil || ev.OrderBook.InstrumentUID == "" {
			f.skipped.Add(1)
			return
		}
		if f.OrderBooks != nil {
			f.OrderBooks.Upsert(*ev.OrderBook)
		}
	case models.EventTradingStatus:
		if ev.TradingStatus == nil || ev.TradingStatus.InstrumentUID == "" {
			f.skipped.Add(1)
			return
		}
		f.applyStatus(*ev.TradingStatus)
	default:
		f.skipped.Add(1)
		return
	}

	f.handled.Add(1)
	if f.Sink != nil {
		f.Sink.Broadcast(ev)
	}
}

func (f *Feeder) pushCandle(c models.MCandlestick) bool {
	if f.Candles == nil {
		return true
	}
	err := f.Candles.Push(c)
	switch {
	case err == nil:
		return true
	case errors.Is(err, helpers.ErrInstrumentNotFound):
		f.Logger.Debug("no candle bucket for %s, candle skipped", c.InstrumentUID)
	default:
		f.Logger.Warning("candle rejected: %v", err)
	}
	return false
}

func (f *Feeder) applyStatus(ts models.MTradingStatus) {
	if f.Statuses != nil {
		f.Statuses.Upsert(ts)
	}
	if f.Instruments == nil {
		return
	}
	inst, changed := f.Instruments.SetTradingStatus(ts.InstrumentUID, ts.Status)
	if !changed {
		return
	}
	f.Logger.Debug("%s trading status -> %s", inst.Ticker, ts.Status)
}

// Handled counts applied events.
func (f *Feeder) Handled() uint64 { return f.handled.Load() }

// Skipped counts events that could not be applied.
func (f *Feeder) Skipped() uint64 { return f.skipped.Load() }
