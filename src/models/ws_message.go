package models

// MSubscribeCommand is sent by websocket clients to choose what they receive.
// Empty Instruments or Kinds mean everything.
type MSubscribeCommand struct {
	Command     string      `json:"command"`
	Instruments []string    `json:"instruments"`
	Kinds       []EventKind `json:"kinds"`
}

// MInstrumentSnapshot is the cached state of one instrument.
type MInstrumentSnapshot struct {
	Instrument    *MInstrument    `json:"instrument,omitempty"`
	LastCandle    *MCandlestick   `json:"last_candle,omitempty"`
	OrderBook     *MOrderBook     `json:"orderbook,omitempty"`
	TradingStatus *MTradingStatus `json:"trading_status,omitempty"`
}

// MStreamMessage is what the websocket relay writes. INITIAL carries
// snapshots in reply to a subscribe command, UPDATE carries one event.
type MStreamMessage struct {
	Type      string                         `json:"type"`
	Snapshots map[string]MInstrumentSnapshot `json:"snapshots,omitempty"`
	Event     *MMarketDataEvent              `json:"event,omitempty"`
}
