package stream

import (
	"context"

	"invest-client/src/helpers"
	"invest-client/src/logger"
	"invest-client/src/network"

	"google.golang.org/grpc"
)

const (
	DefaultBroadcastCapacity = 1024
	DefaultControlBuffer     = 16
)

// -----------------------------------------------------------------------------
// MarketDataStreamBuilder collects what a MarketDataStream needs. Build checks
// it all before opening anything.
// -----------------------------------------------------------------------------

type MarketDataStreamBuilder struct {
	conn          *grpc.ClientConn
	target        string
	dialOpts      []grpc.DialOption
	interceptor   grpc.StreamClientInterceptor
	capacity      int
	controlBuffer int
	waitingClose  bool
	logger        *logger.Logger
}

func NewMarketDataStreamBuilder() *MarketDataStreamBuilder {
	return &MarketDataStreamBuilder{
		capacity:      DefaultBroadcastCapacity,
		controlBuffer: DefaultControlBuffer,
	}
}

// WithConn reuses an existing connection. It wins over WithTarget.
func (b *MarketDataStreamBuilder) WithConn(conn *grpc.ClientConn) *MarketDataStreamBuilder {
	b.conn = conn
	return b
}

// WithTarget dials target on Build when no connection was given. The
// connection is then owned by the stream and closed when it terminates.
func (b *MarketDataStreamBuilder) WithTarget(target string, opts ...grpc.DialOption) *MarketDataStreamBuilder {
	b.target = target
	b.dialOpts = opts
	return b
}

// WithInterceptor sets the interceptor that authenticates the stream.
func (b *MarketDataStreamBuilder) WithInterceptor(interceptor grpc.StreamClientInterceptor) *MarketDataStreamBuilder {
	b.interceptor = interceptor
	return b
}

// WithBroadcastCapacity sets the per-receiver buffer. A receiver that falls
// this far behind loses events.
func (b *MarketDataStreamBuilder) WithBroadcastCapacity(n int) *MarketDataStreamBuilder {
	if n > 0 {
		b.capacity = n
	}
	return b
}

// WithControlBuffer sets how many control requests may queue before
// Subscribe calls block.
func (b *MarketDataStreamBuilder) WithControlBuffer(n int) *MarketDataStreamBuilder {
	if n >= 0 {
		b.controlBuffer = n
	}
	return b
}

// WithWaitingClose makes candle subscriptions deliver only finished candles,
// which then arrive with IsComplete set. Without it every update of the
// forming candle is delivered and overwrites the previous one in the cache.
func (b *MarketDataStreamBuilder) WithWaitingClose(waitingClose bool) *MarketDataStreamBuilder {
	b.waitingClose = waitingClose
	return b
}

func (b *MarketDataStreamBuilder) WithLogger(log *logger.Logger) *MarketDataStreamBuilder {
	b.logger = log
	return b
}

// -----------------------------------------------------------------------------

// Build opens the market data stream and starts pumping it. ctx bounds the
// lifetime of the stream, not just the call.
func (b *MarketDataStreamBuilder) Build(ctx context.Context) (*MarketDataStream, error) {
	if b.conn == nil && b.target == "" {
		return nil, helpers.NewConfigurationError(helpers.ErrChannelNotSet, "build market data stream")
	}
	if b.interceptor == nil {
		return nil, helpers.NewConfigurationError(helpers.ErrInterceptorNotSet, "build market data stream")
	}
	log := b.logger
	if log == nil {
		log = logger.NewLogger(nil, "MarketDataStream")
	}

	conn, owned := b.conn, false
	if conn == nil {
		c, err := grpc.NewClient(b.target, b.dialOpts...)
		if err != nil {
			return nil, helpers.NewNetworkError(err, "dial %s", b.target)
		}
		conn, owned = c, true
	}

	streamCtx, cancel := context.WithCancel(ctx)
	client, err := network.OpenMarketDataStream(streamCtx, conn, b.interceptor)
	if err != nil {
		cancel()
		if owned {
			conn.Close()
		}
		return nil, helpers.NewStreamError(err, "open market data stream")
	}

	s := newMarketDataStream(streamCtx, cancel, client, b.capacity, b.controlBuffer, log)
	s.waitingClose = b.waitingClose
	if owned {
		s.onExit = conn.Close
	}
	s.start()
	log.Info("market data stream running (broadcast capacity %d)", b.capacity)
	return s, nil
}
