package contract

import "invest-client/src/models"

// -----------------------------------------------------------------------------

type SubscriptionAction int32

const (
	SubscriptionActionUnspecified SubscriptionAction = iota
	SubscriptionActionSubscribe
	SubscriptionActionUnsubscribe
)

func (a SubscriptionAction) String() string {
	switch a {
	case SubscriptionActionSubscribe:
		return "subscribe"
	case SubscriptionActionUnsubscribe:
		return "unsubscribe"
	}
	return "unspecified"
}

// -----------------------------------------------------------------------------

type SubscriptionStatus int32

const (
	SubscriptionStatusUnspecified SubscriptionStatus = iota
	SubscriptionStatusSuccess
	SubscriptionStatusInstrumentNotFound
	SubscriptionStatusSubscriptionActionIsInvalid
	SubscriptionStatusDepthIsInvalid
	SubscriptionStatusIntervalIsInvalid
)

// -----------------------------------------------------------------------------

type SubscriptionInterval int32

const (
	SubscriptionIntervalUnspecified SubscriptionInterval = iota
	SubscriptionIntervalOneMinute
	SubscriptionIntervalFiveMinutes
	SubscriptionIntervalFifteenMinutes
	SubscriptionIntervalOneHour
	SubscriptionIntervalOneDay
)

var intervals = map[SubscriptionInterval]models.CandleInterval{
	SubscriptionIntervalOneMinute:      models.Interval1Min,
	SubscriptionIntervalFiveMinutes:    models.Interval5Min,
	SubscriptionIntervalFifteenMinutes: models.Interval15Min,
	SubscriptionIntervalOneHour:        models.IntervalHour,
	SubscriptionIntervalOneDay:         models.IntervalDay,
}

func (i SubscriptionInterval) ToModel() models.CandleInterval {
	return intervals[i]
}

func SubscriptionIntervalFromModel(ci models.CandleInterval) SubscriptionInterval {
	for k, v := range intervals {
		if v == ci {
			return k
		}
	}
	return SubscriptionIntervalUnspecified
}

// -----------------------------------------------------------------------------

type SecurityTradingStatus int32

// indexed by the wire value
var tradingStatuses = []models.TradingStatus{
	models.StatusUnspecified,
	models.StatusNotAvailableForTrading,
	models.StatusOpeningPeriod,
	models.StatusClosingPeriod,
	models.StatusBreakInTrading,
	models.StatusNormalTrading,
	models.StatusClosingAuction,
	models.StatusDarkPoolAuction,
	models.StatusDiscreteAuction,
	models.StatusOpeningAuctionPeriod,
	models.StatusTradingAtClosePrice,
	models.StatusSessionAssigned,
	models.StatusSessionClose,
	models.StatusSessionOpen,
	models.StatusDealerNormalTrading,
	models.StatusDealerBreakInTrading,
	models.StatusDealerNotAvailable,
}

func (s SecurityTradingStatus) ToModel() models.TradingStatus {
	if s < 0 || int(s) >= len(tradingStatuses) {
		return models.StatusUnspecified
	}
	return tradingStatuses[s]
}

func SecurityTradingStatusFromModel(ts models.TradingStatus) SecurityTradingStatus {
	for i, v := range tradingStatuses {
		if v == ts {
			return SecurityTradingStatus(i)
		}
	}
	return 0
}

// -----------------------------------------------------------------------------

type InstrumentStatus int32

const (
	InstrumentStatusUnspecified InstrumentStatus = iota
	InstrumentStatusBase
	InstrumentStatusAll
)
