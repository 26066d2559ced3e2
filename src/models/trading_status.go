package models

import "time"

// -----------------------------------------------------------------------------

type TradingStatus string

const (
	StatusUnspecified            TradingStatus = "unspecified"
	StatusNotAvailableForTrading TradingStatus = "not_available_for_trading"
	StatusOpeningPeriod          TradingStatus = "opening_period"
	StatusClosingPeriod          TradingStatus = "closing_period"
	StatusBreakInTrading         TradingStatus = "break_in_trading"
	StatusNormalTrading          TradingStatus = "normal_trading"
	StatusClosingAuction         TradingStatus = "closing_auction"
	StatusDarkPoolAuction        TradingStatus = "dark_pool_auction"
	StatusDiscreteAuction        TradingStatus = "discrete_auction"
	StatusOpeningAuctionPeriod   TradingStatus = "opening_auction_period"
	StatusTradingAtClosePrice    TradingStatus = "trading_at_closing_auction_price"
	StatusSessionAssigned        TradingStatus = "session_assigned"
	StatusSessionClose           TradingStatus = "session_close"
	StatusSessionOpen            TradingStatus = "session_open"
	StatusDealerNormalTrading    TradingStatus = "dealer_normal_trading"
	StatusDealerBreakInTrading   TradingStatus = "dealer_break_in_trading"
	StatusDealerNotAvailable     TradingStatus = "dealer_not_available_for_trading"
)

// IsTrading is true for statuses where the venue accepts orders.
func (s TradingStatus) IsTrading() bool {
	switch s {
	case StatusNormalTrading, StatusDealerNormalTrading, StatusClosingAuction,
		StatusOpeningAuctionPeriod, StatusDiscreteAuction, StatusTradingAtClosePrice:
		return true
	}
	return false
}

// -----------------------------------------------------------------------------

// MTradingStatus is the latest trading status reported for an instrument.
type MTradingStatus struct {
	InstrumentUID       string        `json:"instrument_uid"`
	Status              TradingStatus `json:"status"`
	LimitOrderAvailable bool          `json:"limit_order_available"`
	MarketOrderAvailable bool         `json:"market_order_available"`
	Time                time.Time     `json:"time"`
}

func (s MTradingStatus) KeyUID() string { return s.InstrumentUID }
