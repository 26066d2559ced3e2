package models

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// -----------------------------------------------------------------------------

type CandleInterval string

const (
	IntervalUnspecified CandleInterval = ""
	Interval1Min        CandleInterval = "1m"
	Interval5Min        CandleInterval = "5m"
	Interval15Min       CandleInterval = "15m"
	IntervalHour        CandleInterval = "1h"
	IntervalDay         CandleInterval = "1d"
)

// ParseCandleInterval accepts the short names used in config files.
func ParseCandleInterval(s string) (CandleInterval, error) {
	switch CandleInterval(s) {
	case Interval1Min, Interval5Min, Interval15Min, IntervalHour, IntervalDay:
		return CandleInterval(s), nil
	}
	return IntervalUnspecified, fmt.Errorf("unknown candle interval %q", s)
}

// Duration returns the bar length, zero when unspecified.
func (ci CandleInterval) Duration() time.Duration {
	switch ci {
	case Interval1Min:
		return time.Minute
	case Interval5Min:
		return 5 * time.Minute
	case Interval15Min:
		return 15 * time.Minute
	case IntervalHour:
		return time.Hour
	case IntervalDay:
		return 24 * time.Hour
	}
	return 0
}

// -----------------------------------------------------------------------------

// MCandlestick is one OHLCV bar. InstrumentUID may be empty for candles that
// came from a per-instrument history call.
type MCandlestick struct {
	InstrumentUID string          `json:"instrument_uid,omitempty"`
	Interval      CandleInterval  `json:"interval,omitempty"`
	Open          decimal.Decimal `json:"open"`
	High          decimal.Decimal `json:"high"`
	Low           decimal.Decimal `json:"low"`
	Close         decimal.Decimal `json:"close"`
	Volume        int64           `json:"volume"`
	Time          time.Time       `json:"time"`
	IsComplete    bool            `json:"is_complete"`
}
