package models

// EventKind tags a decoded stream payload.
type EventKind string

const (
	EventCandle        EventKind = "candle"
	EventOrderBook     EventKind = "orderbook"
	EventTradingStatus EventKind = "trading_status"
)

// MMarketDataEvent carries exactly one payload matching Kind.
type MMarketDataEvent struct {
	Kind          EventKind       `json:"kind"`
	Candle        *MCandlestick   `json:"candle,omitempty"`
	OrderBook     *MOrderBook     `json:"orderbook,omitempty"`
	TradingStatus *MTradingStatus `json:"trading_status,omitempty"`
}

// InstrumentUID returns the uid of whichever payload is set.
func (e MMarketDataEvent) InstrumentUID() string {
	switch {
	case e.Candle != nil:
		return e.Candle.InstrumentUID
	case e.OrderBook != nil:
		return e.OrderBook.InstrumentUID
	case e.TradingStatus != nil:
		return e.TradingStatus.InstrumentUID
	}
	return ""
}
