package contract

import (
	"time"

	"invest-client/src/models"
)

const (
	MarketDataStreamServiceName = "tinkoff.public.invest.api.contract.v1.MarketDataStreamService"
	MarketDataStreamMethod      = "/" + MarketDataStreamServiceName + "/MarketDataStream"
)

// -----------------------------------------------------------------------------
// Requests
// -----------------------------------------------------------------------------

type CandleInstrument struct {
	InstrumentID string               `json:"instrumentId"`
	Interval     SubscriptionInterval `json:"interval"`
}

type SubscribeCandlesRequest struct {
	SubscriptionAction SubscriptionAction `json:"subscriptionAction"`
	Instruments        []CandleInstrument `json:"instruments"`
	WaitingClose       bool               `json:"waitingClose,omitempty"`
}

type OrderBookInstrument struct {
	InstrumentID string `json:"instrumentId"`
	Depth        int32  `json:"depth"`
}

type SubscribeOrderBookRequest struct {
	SubscriptionAction SubscriptionAction    `json:"subscriptionAction"`
	Instruments        []OrderBookInstrument `json:"instruments"`
}

type InfoInstrument struct {
	InstrumentID string `json:"instrumentId"`
}

type SubscribeInfoRequest struct {
	SubscriptionAction SubscriptionAction `json:"subscriptionAction"`
	Instruments        []InfoInstrument   `json:"instruments"`
}

type PingRequest struct {
	Time time.Time `json:"time"`
}

// MarketDataRequest carries exactly one of its fields.
type MarketDataRequest struct {
	SubscribeCandlesRequest   *SubscribeCandlesRequest   `json:"subscribeCandlesRequest,omitempty"`
	SubscribeOrderBookRequest *SubscribeOrderBookRequest `json:"subscribeOrderBookRequest,omitempty"`
	SubscribeInfoRequest      *SubscribeInfoRequest      `json:"subscribeInfoRequest,omitempty"`
	Ping                      *PingRequest               `json:"ping,omitempty"`
}

// Action returns the subscription action of whichever request is set.
func (r *MarketDataRequest) Action() SubscriptionAction {
	switch {
	case r.SubscribeCandlesRequest != nil:
		return r.SubscribeCandlesRequest.SubscriptionAction
	case r.SubscribeOrderBookRequest != nil:
		return r.SubscribeOrderBookRequest.SubscriptionAction
	case r.SubscribeInfoRequest != nil:
		return r.SubscribeInfoRequest.SubscriptionAction
	}
	return SubscriptionActionUnspecified
}

// -----------------------------------------------------------------------------
// Responses
// -----------------------------------------------------------------------------

type Candle struct {
	InstrumentUID string               `json:"instrumentUid"`
	Figi          string               `json:"figi,omitempty"`
	Interval      SubscriptionInterval `json:"interval"`
	Open          Quotation            `json:"open"`
	High          Quotation            `json:"high"`
	Low           Quotation            `json:"low"`
	Close         Quotation            `json:"close"`
	Volume        int64                `json:"volume,string"`
	Time          time.Time            `json:"time"`
	LastTradeTs   time.Time            `json:"lastTradeTs"`
}

// ToModel converts a streamed candle. IsComplete stays false: the wire candle
// does not say whether it is final, only the subscription (waitingClose) does.
func (c *Candle) ToModel() models.MCandlestick {
	return models.MCandlestick{
		InstrumentUID: c.InstrumentUID,
		Interval:      c.Interval.ToModel(),
		Open:          c.Open.ToDecimal(),
		High:          c.High.ToDecimal(),
		Low:           c.Low.ToDecimal(),
		Close:         c.Close.ToDecimal(),
		Volume:        c.Volume,
		Time:          c.Time,
	}
}

type Order struct {
	Price    Quotation `json:"price"`
	Quantity int64     `json:"quantity,string"`
}

type OrderBook struct {
	InstrumentUID string    `json:"instrumentUid"`
	Figi          string    `json:"figi,omitempty"`
	Depth         int32     `json:"depth"`
	IsConsistent  bool      `json:"isConsistent"`
	Bids          []Order   `json:"bids"`
	Asks          []Order   `json:"asks"`
	Time          time.Time `json:"time"`
	LimitUp       Quotation `json:"limitUp"`
	LimitDown     Quotation `json:"limitDown"`
}

func (ob *OrderBook) ToModel() models.MOrderBook {
	convert := func(orders []Order) []models.MOrderBookOrder {
		out := make([]models.MOrderBookOrder, len(orders))
		for i, o := range orders {
			out[i] = models.MOrderBookOrder{Price: o.Price.ToDecimal(), Lots: o.Quantity}
		}
		return out
	}
	return models.MOrderBook{
		InstrumentUID:  ob.InstrumentUID,
		Depth:          ob.Depth,
		Bids:           convert(ob.Bids),
		Asks:           convert(ob.Asks),
		LimitPriceUp:   ob.LimitUp.ToDecimal(),
		LimitPriceDown: ob.LimitDown.ToDecimal(),
		Time:           ob.Time,
	}
}

type TradingStatus struct {
	InstrumentUID            string                `json:"instrumentUid"`
	Figi                     string                `json:"figi,omitempty"`
	TradingStatus            SecurityTradingStatus `json:"tradingStatus"`
	Time                     time.Time             `json:"time"`
	LimitOrderAvailableFlag  bool                  `json:"limitOrderAvailableFlag"`
	MarketOrderAvailableFlag bool                  `json:"marketOrderAvailableFlag"`
}

func (ts *TradingStatus) ToModel() models.MTradingStatus {
	return models.MTradingStatus{
		InstrumentUID:        ts.InstrumentUID,
		Status:               ts.TradingStatus.ToModel(),
		LimitOrderAvailable:  ts.LimitOrderAvailableFlag,
		MarketOrderAvailable: ts.MarketOrderAvailableFlag,
		Time:                 ts.Time,
	}
}

// -----------------------------------------------------------------------------

type SubscriptionResult struct {
	InstrumentUID      string             `json:"instrumentUid"`
	SubscriptionStatus SubscriptionStatus `json:"subscriptionStatus"`
}

type SubscribeResponse struct {
	TrackingID    string               `json:"trackingId"`
	Subscriptions []SubscriptionResult `json:"subscriptions"`
}

type Ping struct {
	Time time.Time `json:"time"`
}

// MarketDataResponse carries exactly one of its fields.
type MarketDataResponse struct {
	SubscribeCandlesResponse   *SubscribeResponse `json:"subscribeCandlesResponse,omitempty"`
	SubscribeOrderBookResponse *SubscribeResponse `json:"subscribeOrderBookResponse,omitempty"`
	SubscribeInfoResponse      *SubscribeResponse `json:"subscribeInfoResponse,omitempty"`
	Candle                     *Candle            `json:"candle,omitempty"`
	OrderBook                  *OrderBook         `json:"orderbook,omitempty"`
	TradingStatus              *TradingStatus     `json:"tradingStatus,omitempty"`
	Ping                       *Ping              `json:"ping,omitempty"`
}

// ToEvent classifies the payload. Subscription acks, pings and empty
// responses report false.
func (r *MarketDataResponse) ToEvent() (models.MMarketDataEvent, bool) {
	switch {
	case r.Candle != nil:
		c := r.Candle.ToModel()
		return models.MMarketDataEvent{Kind: models.EventCandle, Candle: &c}, true
	case r.OrderBook != nil:
		ob := r.OrderBook.ToModel()
		return models.MMarketDataEvent{Kind: models.EventOrderBook, OrderBook: &ob}, true
	case r.TradingStatus != nil:
		ts := r.TradingStatus.ToModel()
		return models.MMarketDataEvent{Kind: models.EventTradingStatus, TradingStatus: &ts}, true
	}
	return models.MMarketDataEvent{}, false
}
