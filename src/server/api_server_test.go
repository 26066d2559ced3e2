package server

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"invest-client/src/cache"
	"invest-client/src/config"
	"invest-client/src/logger"
	"invest-client/src/metrics"
	"invest-client/src/models"
	"invest-client/src/utils"

	"github.com/gorilla/websocket"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func candle(uid string, minute int) models.MCandlestick {
	return models.MCandlestick{
		InstrumentUID: uid,
		Interval:      models.Interval1Min,
		Close:         decimal.NewFromInt(int64(100 + minute)),
		Time:          time.Date(2024, 3, 1, 10, minute, 0, 0, time.UTC),
	}
}

func newTestServer(t *testing.T) (*APIServer, *httptest.Server) {
	t.Helper()
	log := logger.NewTestLogger()

	caches := Caches{
		Instruments: cache.NewInstrumentCacheFrom([]models.MInstrument{
			{UID: "uid-1", Figi: "F1", Ticker: "SBER", ClassCode: "TQBR", Kind: models.KindShare},
			{UID: "uid-2", Ticker: "SBER", ClassCode: "SPBRU", Kind: models.KindShare},
			{UID: "uid-3", Figi: "F3", Ticker: "USD000UTSTOM", ClassCode: "CETS", Kind: models.KindCurrency},
		}),
		Candles:    cache.NewCandleCache(10, log),
		OrderBooks: cache.NewOrderBookCache(),
		Statuses:   cache.NewTradingStatusCache(),
	}
	caches.Candles.CreateBucket("uid-1")
	caches.Candles.CreateBucket("uid-2")
	for m := 0; m < 3; m++ {
		require.NoError(t, caches.Candles.Push(candle("uid-1", m)))
	}

	s := NewAPIServer(config.Default().MConfig, caches, utils.NewMarketScheduler([]string{"TQBR"}, log), log)
	ctx, cancel := context.WithCancel(context.Background())
	s.StartHub(ctx)

	ts := httptest.NewServer(s.Handler())
	t.Cleanup(func() {
		ts.Close()
		cancel()
	})
	return s, ts
}

func get(t *testing.T, url string, out interface{}) int {
	t.Helper()
	resp, err := http.Get(url)
	require.NoError(t, err)
	defer resp.Body.Close()
	if out != nil && resp.StatusCode == http.StatusOK {
		require.NoError(t, json.NewDecoder(resp.Body).Decode(out))
	}
	return resp.StatusCode
}

// -----------------------------------------------------------------------------

func TestHealth(t *testing.T) {
	_, ts := newTestServer(t)

	var body map[string]interface{}
	require.Equal(t, http.StatusOK, get(t, ts.URL+"/api/health", &body))
	assert.Equal(t, "ok", body["status"])
	assert.EqualValues(t, 3, body["instruments"])
	assert.EqualValues(t, 2, body["candle_buckets"])
	assert.Contains(t, body["markets"], "xmos")
}

func TestInstrumentRoutes(t *testing.T) {
	_, ts := newTestServer(t)

	var all []models.MInstrument
	require.Equal(t, http.StatusOK, get(t, ts.URL+"/api/instruments", &all))
	assert.Len(t, all, 3)

	var currencies []models.MInstrument
	require.Equal(t, http.StatusOK, get(t, ts.URL+"/api/instruments?kind=currency", &currencies))
	require.Len(t, currencies, 1)
	assert.Equal(t, "uid-3", currencies[0].UID)

	var one models.MInstrument
	require.Equal(t, http.StatusOK, get(t, ts.URL+"/api/instruments/uid/uid-2", &one))
	assert.Equal(t, "SPBRU", one.ClassCode)
	assert.Equal(t, http.StatusNotFound, get(t, ts.URL+"/api/instruments/uid/nope", nil))

	var byTicker []models.MInstrument
	require.Equal(t, http.StatusOK, get(t, ts.URL+"/api/instruments/ticker/SBER", &byTicker))
	assert.Len(t, byTicker, 2)

	var byFigi []models.MInstrument
	require.Equal(t, http.StatusOK, get(t, ts.URL+"/api/instruments/figi/F3", &byFigi))
	assert.Equal(t, "uid-3", byFigi[0].UID)

	var byClass []models.MInstrument
	require.Equal(t, http.StatusOK, get(t, ts.URL+"/api/instruments/class/TQBR/SBER", &byClass))
	require.Len(t, byClass, 1)
	assert.Equal(t, "uid-1", byClass[0].UID)
	assert.Equal(t, http.StatusNotFound, get(t, ts.URL+"/api/instruments/class/TQBR/GAZP", nil))
}

func TestCandleRoute(t *testing.T) {
	_, ts := newTestServer(t)

	var body struct {
		Count   int                   `json:"count"`
		Candles []models.MCandlestick `json:"candles"`
	}
	require.Equal(t, http.StatusOK, get(t, ts.URL+"/api/candles/uid-1?n=2", &body))
	require.Equal(t, 2, body.Count)
	assert.Equal(t, 1, body.Candles[0].Time.Minute())
	assert.Equal(t, 2, body.Candles[1].Time.Minute())

	require.Equal(t, http.StatusOK, get(t, ts.URL+"/api/candles/uid-1?n=50", &body))
	assert.Equal(t, 3, body.Count)

	require.Equal(t, http.StatusOK, get(t, ts.URL+"/api/candles/uid-2", &body))
	assert.Equal(t, 0, body.Count)

	assert.Equal(t, http.StatusBadRequest, get(t, ts.URL+"/api/candles/uid-1?n=-1", nil))
	assert.Equal(t, http.StatusNotFound, get(t, ts.URL+"/api/candles/uid-9", nil))
}

func TestSnapshotRoutes(t *testing.T) {
	s, ts := newTestServer(t)

	assert.Equal(t, http.StatusNotFound, get(t, ts.URL+"/api/orderbook/uid-1", nil))
	assert.Equal(t, http.StatusNotFound, get(t, ts.URL+"/api/status/uid-1", nil))

	s.Caches.OrderBooks.Upsert(models.MOrderBook{InstrumentUID: "uid-1", Depth: 10})
	s.Caches.Statuses.Upsert(models.MTradingStatus{InstrumentUID: "uid-1", Status: models.StatusNormalTrading})

	var book models.MOrderBook
	require.Equal(t, http.StatusOK, get(t, ts.URL+"/api/orderbook/uid-1", &book))
	assert.EqualValues(t, 10, book.Depth)

	var st models.MTradingStatus
	require.Equal(t, http.StatusOK, get(t, ts.URL+"/api/status/uid-1", &st))
	assert.Equal(t, models.StatusNormalTrading, st.Status)
}

func TestMetricsRoute(t *testing.T) {
	metrics.Init()
	_, ts := newTestServer(t)

	resp, err := http.Get(ts.URL + "/metrics")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), "invest_cache_size")
}

// -----------------------------------------------------------------------------

func readMessage(t *testing.T, conn *websocket.Conn) models.MStreamMessage {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	var msg models.MStreamMessage
	require.NoError(t, conn.ReadJSON(&msg))
	return msg
}

func TestWebSocketRelay(t *testing.T) {
	s, ts := newTestServer(t)

	conn, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(ts.URL, "http")+"/ws", nil)
	require.NoError(t, err)
	defer conn.Close()
	require.Eventually(t, func() bool { return s.Connections() == 1 }, 2*time.Second, 5*time.Millisecond)

	c := candle("uid-1", 5)
	s.Broadcast(models.MMarketDataEvent{Kind: models.EventCandle, Candle: &c})
	msg := readMessage(t, conn)
	assert.Equal(t, "UPDATE", msg.Type)
	require.NotNil(t, msg.Event)
	assert.Equal(t, "uid-1", msg.Event.InstrumentUID())

	require.NoError(t, conn.WriteJSON(models.MSubscribeCommand{Command: "subscribe", Instruments: []string{"uid-1"}, Kinds: []models.EventKind{models.EventOrderBook}}))
	initial := readMessage(t, conn)
	assert.Equal(t, "INITIAL", initial.Type)
	require.Contains(t, initial.Snapshots, "uid-1")
	assert.Equal(t, "SBER", initial.Snapshots["uid-1"].Instrument.Ticker)
	assert.Equal(t, 2, initial.Snapshots["uid-1"].LastCandle.Time.Minute())

	// filtered out by kind, then by instrument
	s.Broadcast(models.MMarketDataEvent{Kind: models.EventCandle, Candle: &c})
	s.Broadcast(models.MMarketDataEvent{Kind: models.EventOrderBook, OrderBook: &models.MOrderBook{InstrumentUID: "uid-2"}})
	s.Broadcast(models.MMarketDataEvent{Kind: models.EventOrderBook, OrderBook: &models.MOrderBook{InstrumentUID: "uid-1", Depth: 20}})

	msg = readMessage(t, conn)
	require.NotNil(t, msg.Event)
	assert.Equal(t, models.EventOrderBook, msg.Event.Kind)
	assert.EqualValues(t, 20, msg.Event.OrderBook.Depth)

	conn.Close()
	assert.Eventually(t, func() bool { return s.Connections() == 0 }, 2*time.Second, 5*time.Millisecond)
}

func TestHubPrunesSlowClients(t *testing.T) {
	s, _ := newTestServer(t)
	slow := &Client{hub: s, send: make(chan *models.MStreamMessage, 1)}
	s.register <- slow

	c := candle("uid-1", 1)
	s.Broadcast(models.MMarketDataEvent{Kind: models.EventCandle, Candle: &c})
	s.Broadcast(models.MMarketDataEvent{Kind: models.EventCandle, Candle: &c})

	require.Eventually(t, func() bool { return s.Connections() == 0 }, 2*time.Second, 5*time.Millisecond)
	_, ok := <-slow.send
	assert.True(t, ok, "the buffered message is still delivered")
	_, ok = <-slow.send
	assert.False(t, ok)
}
