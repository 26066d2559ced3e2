package models

import "github.com/shopspring/decimal"

// -----------------------------------------------------------------------------
// Instrument kinds and currencies
// -----------------------------------------------------------------------------

type InstrumentKind string

const (
	KindCurrency InstrumentKind = "currency"
	KindShare    InstrumentKind = "share"
	KindFuture   InstrumentKind = "future"
	KindOption   InstrumentKind = "option"
	KindBond     InstrumentKind = "bond"
	KindEtf      InstrumentKind = "etf"
)

type Currency string

const (
	CurrencyRUB Currency = "rub"
	CurrencyUSD Currency = "usd"
	CurrencyEUR Currency = "eur"
	CurrencyCNY Currency = "cny"
	CurrencyCHF Currency = "chf"
)

// -----------------------------------------------------------------------------

// MInstrument is a tradable market instrument as listed by the broker.
// UID is the primary key. Ticker and ClassCode are not unique on their own.
type MInstrument struct {
	UID               string          `json:"uid"`
	Figi              string          `json:"figi,omitempty"`
	Isin              string          `json:"isin,omitempty"`
	Ticker            string          `json:"ticker"`
	ClassCode         string          `json:"class_code"`
	Kind              InstrumentKind  `json:"kind"`
	Name              string          `json:"name"`
	Lot               int64           `json:"lot"`
	Currency          Currency        `json:"currency"`
	MinPriceIncrement decimal.Decimal `json:"min_price_increment"`
	TradingStatus     TradingStatus   `json:"trading_status"`
	APITradeAvailable bool            `json:"api_trade_available"`
	BuyAvailable      bool            `json:"buy_available"`
	SellAvailable     bool            `json:"sell_available"`
}

func (i MInstrument) KeyUID() string       { return i.UID }
func (i MInstrument) KeyTicker() string    { return i.Ticker }
func (i MInstrument) KeyClassCode() string { return i.ClassCode }

// IsTradable reports whether orders can currently be sent for the instrument.
func (i MInstrument) IsTradable() bool {
	return i.APITradeAvailable && i.TradingStatus.IsTrading()
}
