package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// MOrderBookOrder is one price level.
type MOrderBookOrder struct {
	Price decimal.Decimal `json:"price"`
	Lots  int64           `json:"lots"`
}

// MOrderBook is the current depth snapshot of one instrument.
type MOrderBook struct {
	InstrumentUID  string            `json:"instrument_uid"`
	Depth          int32             `json:"depth"`
	Bids           []MOrderBookOrder `json:"bids"`
	Asks           []MOrderBookOrder `json:"asks"`
	LimitPriceUp   decimal.Decimal   `json:"limit_price_up"`
	LimitPriceDown decimal.Decimal   `json:"limit_price_down"`
	Time           time.Time         `json:"time"`
}

func (ob MOrderBook) KeyUID() string { return ob.InstrumentUID }

// Spread returns best ask minus best bid, false when either side is empty.
func (ob MOrderBook) Spread() (decimal.Decimal, bool) {
	if len(ob.Bids) == 0 || len(ob.Asks) == 0 {
		return decimal.Zero, false
	}
	return ob.Asks[0].Price.Sub(ob.Bids[0].Price), true
}
