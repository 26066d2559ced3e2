package feed

import (
	"context"

	"invest-client/src/cache"
	"invest-client/src/helpers"
	"invest-client/src/logger"
	"invest-client/src/models"
	"invest-client/src/stream"
)

// Bootstrap loads the instrument listing into instruments and registers a
// candle bucket for each configured uid. Unknown uids still get a bucket.
func Bootstrap(ctx context.Context, sources *SourceManager, instruments *cache.InstrumentCache, candles *cache.CandleCache, uids []string, log *logger.Logger) error {
	listing, err := sources.FetchAll(ctx)
	if err != nil {
		return err
	}
	instruments.BulkUpsert(listing)
	log.Info("loaded %d instruments", instruments.Len())

	for _, uid := range uids {
		if _, ok := instruments.GetByUID(uid); !ok {
			log.Warning("configured instrument %s is not in the listing", uid)
		}
		candles.CreateBucket(uid)
	}
	return nil
}

// Subscribe requests candles, order books and trading statuses for uids.
func Subscribe(ctx context.Context, s *stream.MarketDataStream, uids []string, interval models.CandleInterval, depth int32) error {
	if len(uids) == 0 {
		return helpers.NewValidationError(nil, "no instruments to subscribe")
	}
	keys := models.UIDs(uids...)

	if err := s.SubscribeCandlesticks(ctx, keys, interval); err != nil {
		return err
	}
	if err := s.SubscribeOrderBook(ctx, keys, depth); err != nil {
		return err
	}
	return s.SubscribeTradingStatus(ctx, keys)
}
