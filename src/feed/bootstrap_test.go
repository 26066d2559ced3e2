package feed

import (
	"context"
	"net"
	"testing"
	"time"

	"invest-client/src/cache"
	"invest-client/src/contract"
	"invest-client/src/logger"
	"invest-client/src/models"
	"invest-client/src/network"
	"invest-client/src/sandbox"
	"invest-client/src/stream"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/test/bufconn"
)

func dialSandbox(t *testing.T, srv *sandbox.Server) *grpc.ClientConn {
	t.Helper()
	lis := bufconn.Listen(1 << 20)
	go func() { _ = srv.Serve(lis) }()
	t.Cleanup(srv.Stop)

	conn, err := grpc.NewClient("passthrough:///bufnet",
		grpc.WithContextDialer(func(ctx context.Context, _ string) (net.Conn, error) { return lis.DialContext(ctx) }),
		grpc.WithTransportCredentials(insecure.NewCredentials()),
		grpc.WithDefaultCallOptions(grpc.CallContentSubtype(contract.CodecName)),
	)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return conn
}

func TestBootstrapAndFeedFromSandbox(t *testing.T) {
	srv := sandbox.NewServer(nil, logger.NewTestLogger())
	conn := dialSandbox(t, srv)
	log := logger.NewTestLogger()

	instruments := cache.NewInstrumentCache()
	candles := cache.NewCandleCache(100, log)
	sources := NewSourceManager(log)
	require.NoError(t, sources.AddSources(network.NewInstrumentsClient(conn, time.Second, log).Sources()...))

	sber := sandbox.DefaultInstruments()[0]
	uids := []string{sber.UID, "not-listed"}
	require.NoError(t, Bootstrap(context.Background(), sources, instruments, candles, uids, log))

	assert.Equal(t, len(sandbox.DefaultInstruments()), instruments.Len())
	bySymbol, ok := instruments.GetByClassCodeAndTicker(models.MClassCodeTicker{ClassCode: "TQBR", Ticker: "SBER"})
	require.True(t, ok)
	assert.Equal(t, sber.UID, bySymbol[0].UID)
	assert.ElementsMatch(t, uids, candles.Buckets())

	s, err := stream.NewMarketDataStreamBuilder().
		WithConn(conn).
		WithInterceptor(network.NewTokenInterceptor("t", "").Stream()).
		WithLogger(log).
		Build(context.Background())
	require.NoError(t, err)

	feeder := NewFeeder(candles, cache.NewOrderBookCache(), cache.NewTradingStatusCache(), instruments, log)
	done := make(chan error, 1)
	r := s.NewReceiver()
	go func() { done <- feeder.Run(context.Background(), r.Events()) }()

	require.NoError(t, Subscribe(context.Background(), s, []string{sber.UID}, models.Interval1Min, 10))
	require.Eventually(t, func() bool { return len(srv.Requests()) == 3 }, 2*time.Second, 5*time.Millisecond)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go srv.RunTicker(ctx, 5*time.Millisecond)

	require.Eventually(t, func() bool {
		_, book := feeder.OrderBooks.Get(sber.UID)
		_, status := feeder.Statuses.Get(sber.UID)
		return candles.Len(sber.UID) > 0 && book && status
	}, 2*time.Second, 5*time.Millisecond)

	cancel()
	s.Close()
	require.NoError(t, s.Wait())
	require.NoError(t, <-done)
}

func TestSubscribeRequiresInstruments(t *testing.T) {
	assert.Error(t, Subscribe(context.Background(), nil, nil, models.Interval1Min, 10))
}
