package stream

import (
	"context"
	"errors"
	"io"
	"sync"

	"invest-client/src/contract"
	"invest-client/src/helpers"
	"invest-client/src/interfaces"
	"invest-client/src/logger"
	"invest-client/src/metrics"
	"invest-client/src/models"

	"github.com/google/uuid"
)

// -----------------------------------------------------------------------------
// MarketDataStream fans one bidirectional market data stream out to any
// number of Receivers.
//
// One goroutine owns Recv: it classifies responses and offers each event to
// every receiver without blocking. Another owns Send: it drains the control
// channel in order. When Recv fails, Send fails or the stream ends, every
// receiver channel and Done are closed; the stream is never restarted.
// -----------------------------------------------------------------------------

type MarketDataStream struct {
	client   interfaces.IMarketDataStreamClient
	ctx      context.Context
	cancel   context.CancelFunc
	capacity int
	logger   *logger.Logger
	onExit   func() error

	// waitingClose subscribes to finished candles only.
	waitingClose bool

	control    chan *contract.MarketDataRequest
	ctlMu      sync.RWMutex
	ctlClosed  bool
	writerDone chan struct{}

	mu         sync.RWMutex
	receivers  map[string]*Receiver
	terminated bool
	err        error
	sendErr    error

	done chan struct{}
	wg   sync.WaitGroup
}

// -----------------------------------------------------------------------------

func newMarketDataStream(ctx context.Context, cancel context.CancelFunc, client interfaces.IMarketDataStreamClient, capacity, controlBuffer int, log *logger.Logger) *MarketDataStream {
	return &MarketDataStream{
		client:    client,
		ctx:       ctx,
		cancel:    cancel,
		capacity:  capacity,
		logger:    log,
		control:    make(chan *contract.MarketDataRequest, controlBuffer),
		writerDone: make(chan struct{}),
		receivers:  make(map[string]*Receiver),
		done:       make(chan struct{}),
	}
}

func (s *MarketDataStream) start() {
	s.wg.Add(2)
	go s.writePump()
	go s.readPump()
}

// -----------------------------------------------------------------------------
// Pumps
// -----------------------------------------------------------------------------

func (s *MarketDataStream) writePump() {
	defer s.wg.Done()
	defer close(s.writerDone)

	for {
		select {
		case req, ok := <-s.control:
			if !ok {
				if err := s.client.CloseSend(); err != nil {
					s.logger.Warning("close send side: %v", err)
				}
				return
			}
			if err := s.client.Send(req); err != nil {
				s.logger.Warning("send control request: %v", err)
				s.mu.Lock()
				s.sendErr = err
				s.mu.Unlock()
				// unblocks Recv so the read pump terminates with sendErr
				s.cancel()
				return
			}
			metrics.IncControlRequest(req.Action().String())
		case <-s.done:
			return
		}
	}
}

func (s *MarketDataStream) readPump() {
	defer s.wg.Done()

	var cause error
	for {
		resp, err := s.client.Recv()
		if err != nil {
			if !errors.Is(err, io.EOF) {
				cause = err
				if ctxErr := s.ctx.Err(); ctxErr != nil {
					cause = ctxErr
				}
			}
			s.mu.RLock()
			if s.sendErr != nil {
				cause = s.sendErr
			}
			s.mu.RUnlock()
			break
		}

		event, ok := resp.ToEvent()
		if !ok {
			continue
		}
		if s.waitingClose && event.Candle != nil {
			event.Candle.IsComplete = true
		}
		metrics.IncStreamEvent(string(event.Kind))
		s.broadcast(event)
	}

	s.terminate(cause)
}

func (s *MarketDataStream) broadcast(event models.MMarketDataEvent) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, r := range s.receivers {
		select {
		case r.events <- event:
		default:
			r.dropped.Add(1)
			metrics.IncStreamDropped()
		}
	}
}

func (s *MarketDataStream) terminate(cause error) {
	s.mu.Lock()
	s.terminated = true
	if cause != nil && !errors.Is(cause, context.Canceled) {
		cause = helpers.NewStreamError(cause, "market data stream")
	}
	s.err = cause
	for id, r := range s.receivers {
		close(r.events)
		delete(s.receivers, id)
	}
	s.mu.Unlock()

	close(s.done)
	s.cancel()
	if s.onExit != nil {
		if err := s.onExit(); err != nil {
			s.logger.Warning("release connection: %v", err)
		}
	}

	if cause != nil {
		s.logger.Error("market data stream terminated: %v", cause)
	} else {
		s.logger.Info("market data stream ended")
	}
}

// -----------------------------------------------------------------------------
// Receivers
// -----------------------------------------------------------------------------

// NewReceiver attaches a subscriber. After termination the returned
// receiver's channel is already closed.
func (s *MarketDataStream) NewReceiver() *Receiver {
	r := &Receiver{
		id:     uuid.NewString(),
		events: make(chan models.MMarketDataEvent, s.capacity),
		stream: s,
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.terminated {
		close(r.events)
		return r
	}
	s.receivers[r.id] = r
	return r
}

func (s *MarketDataStream) removeReceiver(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if r, ok := s.receivers[id]; ok {
		delete(s.receivers, id)
		close(r.events)
	}
}

// Receivers returns the number of attached receivers.
func (s *MarketDataStream) Receivers() int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return len(s.receivers)
}

// -----------------------------------------------------------------------------
// Control
// -----------------------------------------------------------------------------

func (s *MarketDataStream) SubscribeCandlesticks(ctx context.Context, instruments []models.IUIDKey, interval models.CandleInterval) error {
	return s.candles(ctx, contract.SubscriptionActionSubscribe, instruments, interval)
}

func (s *MarketDataStream) UnsubscribeCandlesticks(ctx context.Context, instruments []models.IUIDKey, interval models.CandleInterval) error {
	return s.candles(ctx, contract.SubscriptionActionUnsubscribe, instruments, interval)
}

func (s *MarketDataStream) SubscribeOrderBook(ctx context.Context, instruments []models.IUIDKey, depth int32) error {
	return s.orderBook(ctx, contract.SubscriptionActionSubscribe, instruments, depth)
}

func (s *MarketDataStream) UnsubscribeOrderBook(ctx context.Context, instruments []models.IUIDKey, depth int32) error {
	return s.orderBook(ctx, contract.SubscriptionActionUnsubscribe, instruments, depth)
}

func (s *MarketDataStream) SubscribeTradingStatus(ctx context.Context, instruments []models.IUIDKey) error {
	return s.info(ctx, contract.SubscriptionActionSubscribe, instruments)
}

func (s *MarketDataStream) UnsubscribeTradingStatus(ctx context.Context, instruments []models.IUIDKey) error {
	return s.info(ctx, contract.SubscriptionActionUnsubscribe, instruments)
}

// -----------------------------------------------------------------------------

func (s *MarketDataStream) candles(ctx context.Context, action contract.SubscriptionAction, instruments []models.IUIDKey, interval models.CandleInterval) error {
	if len(instruments) == 0 {
		return helpers.NewValidationError(nil, "%s candles: no instruments", action)
	}
	wire := contract.SubscriptionIntervalFromModel(interval)
	if wire == contract.SubscriptionIntervalUnspecified {
		return helpers.NewValidationError(nil, "%s candles: unsupported interval %q", action, interval)
	}

	req := &contract.SubscribeCandlesRequest{SubscriptionAction: action, WaitingClose: s.waitingClose}
	for _, inst := range instruments {
		req.Instruments = append(req.Instruments, contract.CandleInstrument{InstrumentID: inst.KeyUID(), Interval: wire})
	}
	return s.sendControl(ctx, &contract.MarketDataRequest{SubscribeCandlesRequest: req})
}

func (s *MarketDataStream) orderBook(ctx context.Context, action contract.SubscriptionAction, instruments []models.IUIDKey, depth int32) error {
	if len(instruments) == 0 {
		return helpers.NewValidationError(nil, "%s order book: no instruments", action)
	}

	req := &contract.SubscribeOrderBookRequest{SubscriptionAction: action}
	for _, inst := range instruments {
		req.Instruments = append(req.Instruments, contract.OrderBookInstrument{InstrumentID: inst.KeyUID(), Depth: depth})
	}
	return s.sendControl(ctx, &contract.MarketDataRequest{SubscribeOrderBookRequest: req})
}

func (s *MarketDataStream) info(ctx context.Context, action contract.SubscriptionAction, instruments []models.IUIDKey) error {
	if len(instruments) == 0 {
		return helpers.NewValidationError(nil, "%s trading status: no instruments", action)
	}

	req := &contract.SubscribeInfoRequest{SubscriptionAction: action}
	for _, inst := range instruments {
		req.Instruments = append(req.Instruments, contract.InfoInstrument{InstrumentID: inst.KeyUID()})
	}
	return s.sendControl(ctx, &contract.MarketDataRequest{SubscribeInfoRequest: req})
}

// sendControl hands req to the write pump. It fails with ErrStreamClosed once
// the stream has terminated, the write pump has exited or Close was called.
func (s *MarketDataStream) sendControl(ctx context.Context, req *contract.MarketDataRequest) error {
	s.ctlMu.RLock()
	defer s.ctlMu.RUnlock()

	if s.ctlClosed || s.writerGone() {
		return helpers.ErrStreamClosed
	}

	select {
	case s.control <- req:
		// a buffered send can still win the race against a writer that
		// exited meanwhile; nothing drains the channel after that
		if s.writerGone() {
			return helpers.ErrStreamClosed
		}
		return nil
	case <-s.writerDone:
		return helpers.ErrStreamClosed
	case <-s.done:
		return helpers.ErrStreamClosed
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (s *MarketDataStream) writerGone() bool {
	select {
	case <-s.writerDone:
		return true
	case <-s.done:
		return true
	default:
		return false
	}
}

// -----------------------------------------------------------------------------
// Lifecycle
// -----------------------------------------------------------------------------

// Close stops accepting control requests and half-closes the send side once
// queued requests are written. Events keep flowing until the server ends the
// stream; use Abort to stop immediately.
func (s *MarketDataStream) Close() {
	s.ctlMu.Lock()
	defer s.ctlMu.Unlock()

	if !s.ctlClosed {
		s.ctlClosed = true
		close(s.control)
	}
}

// Abort cancels the stream. Err then reports context.Canceled.
func (s *MarketDataStream) Abort() {
	s.cancel()
}

// Done is closed when the stream has terminated.
func (s *MarketDataStream) Done() <-chan struct{} {
	return s.done
}

// Err returns why the stream terminated, nil for a clean end of stream or
// while still running.
func (s *MarketDataStream) Err() error {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.err
}

// Wait blocks until both pumps have exited and returns Err.
func (s *MarketDataStream) Wait() error {
	<-s.done
	s.wg.Wait()
	return s.Err()
}
