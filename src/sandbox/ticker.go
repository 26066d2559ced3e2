package sandbox

import (
	"context"
	"math/rand"
	"time"

	"invest-client/src/contract"

	"github.com/shopspring/decimal"
)

var now = func() time.Time { return time.Now().UTC() }

// -----------------------------------------------------------------------------

// RunTicker publishes a synthetic candle for every candle subscription and a
// synthetic order book for every order book subscription once per tick, until
// ctx is done. Prices follow a random walk per instrument.
func (s *Server) RunTicker(ctx context.Context, every time.Duration) {
	rng := rand.New(rand.NewSource(now().UnixNano()))
	prices := make(map[string]decimal.Decimal)
	ticker := time.NewTicker(every)
	defer ticker.Stop()

	s.Logger.Info("sandbox ticker started (every %v)", every)
	for {
		select {
		case <-ctx.Done():
			s.Logger.Info("sandbox ticker stopped")
			return
		case <-ticker.C:
		}

		for _, resp := range s.tick(rng, prices) {
			s.Publish(resp)
		}
	}
}

func (s *Server) tick(rng *rand.Rand, prices map[string]decimal.Decimal) []*contract.MarketDataResponse {
	s.mu.Lock()
	defer s.mu.Unlock()

	ts := now()
	step := func(uid string) decimal.Decimal {
		p, ok := prices[uid]
		if !ok {
			p = decimal.NewFromInt(int64(100 + rng.Intn(200)))
		}
		p = p.Add(decimal.NewFromFloat(rng.Float64() - 0.5)).Round(2)
		if p.LessThanOrEqual(decimal.Zero) {
			p = decimal.NewFromInt(1)
		}
		prices[uid] = p
		return p
	}

	var out []*contract.MarketDataResponse
	for uid, interval := range s.candles {
		p := step(uid)
		bar := ts.Truncate(interval.ToModel().Duration())
		q := contract.QuotationFromDecimal(p)
		out = append(out, &contract.MarketDataResponse{Candle: &contract.Candle{
			InstrumentUID: uid,
			Interval:      interval,
			Open:          q,
			High:          contract.QuotationFromDecimal(p.Add(decimal.NewFromFloat(0.1))),
			Low:           contract.QuotationFromDecimal(p.Sub(decimal.NewFromFloat(0.1))),
			Close:         q,
			Volume:        int64(rng.Intn(1000)),
			Time:          bar,
			LastTradeTs:   ts,
		}})
	}
	for uid, depth := range s.books {
		p := step(uid)
		book := &contract.OrderBook{InstrumentUID: uid, Depth: depth, IsConsistent: true, Time: ts}
		for i := int32(0); i < depth; i++ {
			offset := decimal.NewFromFloat(0.01).Mul(decimal.NewFromInt(int64(i + 1)))
			book.Bids = append(book.Bids, contract.Order{Price: contract.QuotationFromDecimal(p.Sub(offset)), Quantity: int64(1 + rng.Intn(50))})
			book.Asks = append(book.Asks, contract.Order{Price: contract.QuotationFromDecimal(p.Add(offset)), Quantity: int64(1 + rng.Intn(50))})
		}
		out = append(out, &contract.MarketDataResponse{OrderBook: book})
	}
	return out
}
