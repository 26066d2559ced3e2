package contract

import (
	"testing"
	"time"

	"invest-client/src/models"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc/encoding"
)

func TestQuotationDecimal(t *testing.T) {
	q := Quotation{Units: 114, Nano: 250000000}
	assert.Equal(t, "114.25", q.ToDecimal().String())

	assert.Equal(t, Quotation{Units: 0, Nano: 10000000}, QuotationFromDecimal(decimal.RequireFromString("0.01")))
	assert.Equal(t, Quotation{Units: -1, Nano: -500000000}, QuotationFromDecimal(decimal.RequireFromString("-1.5")))
}

func TestCodecRegistered(t *testing.T) {
	codec := encoding.GetCodec(CodecName)
	require.NotNil(t, codec)

	in := &MarketDataRequest{SubscribeCandlesRequest: &SubscribeCandlesRequest{
		SubscriptionAction: SubscriptionActionSubscribe,
		Instruments:        []CandleInstrument{{InstrumentID: "uid-1", Interval: SubscriptionIntervalOneMinute}},
	}}
	data, err := codec.Marshal(in)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"subscribeCandlesRequest"`)
	assert.NotContains(t, string(data), `"ping"`)

	var out MarketDataRequest
	require.NoError(t, codec.Unmarshal(data, &out))
	assert.Equal(t, in, &out)
	assert.Equal(t, SubscriptionActionSubscribe, out.Action())
}

func TestResponseToEvent(t *testing.T) {
	ts := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)

	ev, ok := (&MarketDataResponse{Candle: &Candle{
		InstrumentUID: "uid-1",
		Interval:      SubscriptionIntervalFiveMinutes,
		Close:         Quotation{Units: 10, Nano: 500000000},
		Volume:        42,
		Time:          ts,
	}}).ToEvent()
	require.True(t, ok)
	assert.Equal(t, models.EventCandle, ev.Kind)
	assert.Equal(t, "uid-1", ev.InstrumentUID())
	assert.Equal(t, models.Interval5Min, ev.Candle.Interval)
	assert.Equal(t, "10.5", ev.Candle.Close.String())

	ev, ok = (&MarketDataResponse{OrderBook: &OrderBook{
		InstrumentUID: "uid-2",
		Depth:         1,
		Bids:          []Order{{Price: Quotation{Units: 99}, Quantity: 3}},
		Asks:          []Order{{Price: Quotation{Units: 101}, Quantity: 1}},
	}}).ToEvent()
	require.True(t, ok)
	assert.Equal(t, models.EventOrderBook, ev.Kind)
	spread, ok := ev.OrderBook.Spread()
	require.True(t, ok)
	assert.Equal(t, "2", spread.String())

	ev, ok = (&MarketDataResponse{TradingStatus: &TradingStatus{InstrumentUID: "uid-3", TradingStatus: 5}}).ToEvent()
	require.True(t, ok)
	assert.Equal(t, models.StatusNormalTrading, ev.TradingStatus.Status)

	_, ok = (&MarketDataResponse{Ping: &Ping{Time: ts}}).ToEvent()
	assert.False(t, ok)
	_, ok = (&MarketDataResponse{SubscribeCandlesResponse: &SubscribeResponse{}}).ToEvent()
	assert.False(t, ok)
}

func TestEnumMappings(t *testing.T) {
	assert.Equal(t, SubscriptionIntervalOneHour, SubscriptionIntervalFromModel(models.IntervalHour))
	assert.Equal(t, SubscriptionIntervalUnspecified, SubscriptionIntervalFromModel("2h"))
	assert.Equal(t, models.StatusUnspecified, SecurityTradingStatus(99).ToModel())
	assert.Equal(t, SecurityTradingStatus(6), SecurityTradingStatusFromModel(models.StatusClosingAuction))
}

func TestListingToModel(t *testing.T) {
	shares := &SharesResponse{Instruments: []Share{{Instrument: Instrument{
		UID: "u", Figi: "BBG004730N88", Ticker: "SBER", ClassCode: "TQBR", Lot: 10, Currency: "RUB",
		MinPriceIncrement: Quotation{Nano: 10000000}, TradingStatus: 5, APITradeAvailableFlag: true,
	}}}}
	got := shares.ToModel()
	require.Len(t, got, 1)
	assert.Equal(t, models.KindShare, got[0].Kind)
	assert.Equal(t, models.CurrencyRUB, got[0].Currency)
	assert.EqualValues(t, 10, got[0].Lot)
	assert.True(t, got[0].IsTradable())
	assert.Equal(t, "0.01", got[0].MinPriceIncrement.String())

	back := InstrumentFromModel(got[0])
	assert.Equal(t, "SBER", back.Ticker)
	assert.Equal(t, SecurityTradingStatus(5), back.TradingStatus)

	cur := (&CurrenciesResponse{Instruments: []CurrencyInstrument{{Instrument: Instrument{UID: "c"}}}}).ToModel()
	assert.Equal(t, models.KindCurrency, cur[0].Kind)
}
