package sandbox

import (
	"context"
	"errors"
	"io"
	"net"
	"sync"

	"invest-client/src/contract"
	"invest-client/src/logger"
	"invest-client/src/models"

	"github.com/google/uuid"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
)

const sessionBuffer = 256

// -----------------------------------------------------------------------------
// Server is an in-process stand-in for the broker API. It serves a fixed
// instrument listing, acknowledges stream subscriptions, records every control
// request and lets the caller publish responses to all open streams.
// -----------------------------------------------------------------------------

type Server struct {
	Logger *logger.Logger
	// Token, when set, must match the bearer token of every call.
	Token string

	instruments []models.MInstrument
	known       map[string]bool

	mu       sync.Mutex
	sessions map[string]*session
	requests []contract.MarketDataRequest
	candles  map[string]contract.SubscriptionInterval
	books    map[string]int32
	infos    map[string]bool

	grpcServer *grpc.Server
}

type session struct {
	out  chan *contract.MarketDataResponse
	kill chan error
	done chan struct{}
}

// -----------------------------------------------------------------------------

// NewServer creates a sandbox serving instruments, or DefaultInstruments when
// the listing is empty.
func NewServer(instruments []models.MInstrument, log *logger.Logger) *Server {
	if len(instruments) == 0 {
		instruments = DefaultInstruments()
	}
	if log == nil {
		log = logger.NewLogger(nil, "Sandbox")
	}
	known := make(map[string]bool, len(instruments))
	for _, inst := range instruments {
		known[inst.UID] = true
	}
	return &Server{
		Logger:      log,
		instruments: instruments,
		known:       known,
		sessions:    make(map[string]*session),
		candles:     make(map[string]contract.SubscriptionInterval),
		books:       make(map[string]int32),
		infos:       make(map[string]bool),
	}
}

// -----------------------------------------------------------------------------

// Register attaches both services to gs.
func (s *Server) Register(gs *grpc.Server) {
	gs.RegisterService(&marketDataStreamServiceDesc, s)
	gs.RegisterService(&instrumentsServiceDesc, s)
}

// Serve blocks serving on lis until Stop.
func (s *Server) Serve(lis net.Listener, opts ...grpc.ServerOption) error {
	gs := grpc.NewServer(opts...)
	s.Register(gs)

	s.mu.Lock()
	s.grpcServer = gs
	s.mu.Unlock()

	s.Logger.Info("sandbox serving on %s", lis.Addr())
	return gs.Serve(lis)
}

func (s *Server) Stop() {
	s.mu.Lock()
	gs := s.grpcServer
	s.mu.Unlock()
	if gs != nil {
		gs.Stop()
	}
}

// -----------------------------------------------------------------------------

func (s *Server) authorize(ctx context.Context) error {
	if s.Token == "" {
		return nil
	}
	md, _ := metadata.FromIncomingContext(ctx)
	for _, v := range md.Get("authorization") {
		if v == "Bearer "+s.Token {
			return nil
		}
	}
	return status.Error(codes.Unauthenticated, "invalid token")
}

// -----------------------------------------------------------------------------
// InstrumentsService
// -----------------------------------------------------------------------------

func (s *Server) Shares(ctx context.Context, req *contract.InstrumentsRequest) (*contract.SharesResponse, error) {
	if err := s.authorize(ctx); err != nil {
		return nil, err
	}
	resp := &contract.SharesResponse{}
	for _, inst := range s.instruments {
		if inst.Kind == models.KindShare {
			resp.Instruments = append(resp.Instruments, contract.Share{Instrument: contract.InstrumentFromModel(inst)})
		}
	}
	return resp, nil
}

func (s *Server) Currencies(ctx context.Context, req *contract.InstrumentsRequest) (*contract.CurrenciesResponse, error) {
	if err := s.authorize(ctx); err != nil {
		return nil, err
	}
	resp := &contract.CurrenciesResponse{}
	for _, inst := range s.instruments {
		if inst.Kind == models.KindCurrency {
			resp.Instruments = append(resp.Instruments, contract.CurrencyInstrument{
				Instrument:      contract.InstrumentFromModel(inst),
				IsoCurrencyName: string(inst.Currency),
			})
		}
	}
	return resp, nil
}

// -----------------------------------------------------------------------------
// MarketDataStreamService
// -----------------------------------------------------------------------------

// MarketDataStream ends cleanly when the client half-closes its side.
func (s *Server) MarketDataStream(stream grpc.ServerStream) error {
	if err := s.authorize(stream.Context()); err != nil {
		return err
	}

	id := uuid.NewString()
	sess := &session{
		out:  make(chan *contract.MarketDataResponse, sessionBuffer),
		kill: make(chan error, 1),
		done: make(chan struct{}),
	}
	s.mu.Lock()
	s.sessions[id] = sess
	s.mu.Unlock()
	defer func() {
		s.mu.Lock()
		delete(s.sessions, id)
		s.mu.Unlock()
		close(sess.done)
	}()

	recvErr := make(chan error, 1)
	go func() {
		for {
			req := new(contract.MarketDataRequest)
			if err := stream.RecvMsg(req); err != nil {
				recvErr <- err
				return
			}
			for _, resp := range s.handle(req) {
				select {
				case sess.out <- resp:
				case <-sess.done:
					return
				}
			}
		}
	}()

	for {
		select {
		case resp := <-sess.out:
			if err := stream.SendMsg(resp); err != nil {
				return err
			}
		case err := <-recvErr:
			if errors.Is(err, io.EOF) {
				return nil
			}
			return err
		case err := <-sess.kill:
			return err
		case <-stream.Context().Done():
			return stream.Context().Err()
		}
	}
}

// handle records req, updates subscriptions and builds the replies.
func (s *Server) handle(req *contract.MarketDataRequest) []*contract.MarketDataResponse {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.requests = append(s.requests, *req)
	trackingID := uuid.NewString()

	switch {
	case req.SubscribeCandlesRequest != nil:
		r := req.SubscribeCandlesRequest
		ack := &contract.SubscribeResponse{TrackingID: trackingID}
		for _, inst := range r.Instruments {
			st := s.statusFor(inst.InstrumentID)
			if st == contract.SubscriptionStatusSuccess && inst.Interval == contract.SubscriptionIntervalUnspecified {
				st = contract.SubscriptionStatusIntervalIsInvalid
			}
			if st == contract.SubscriptionStatusSuccess {
				if r.SubscriptionAction == contract.SubscriptionActionSubscribe {
					s.candles[inst.InstrumentID] = inst.Interval
				} else {
					delete(s.candles, inst.InstrumentID)
				}
			}
			ack.Subscriptions = append(ack.Subscriptions, contract.SubscriptionResult{InstrumentUID: inst.InstrumentID, SubscriptionStatus: st})
		}
		return []*contract.MarketDataResponse{{SubscribeCandlesResponse: ack}}

	case req.SubscribeOrderBookRequest != nil:
		r := req.SubscribeOrderBookRequest
		ack := &contract.SubscribeResponse{TrackingID: trackingID}
		for _, inst := range r.Instruments {
			st := s.statusFor(inst.InstrumentID)
			if st == contract.SubscriptionStatusSuccess && inst.Depth <= 0 {
				st = contract.SubscriptionStatusDepthIsInvalid
			}
			if st == contract.SubscriptionStatusSuccess {
				if r.SubscriptionAction == contract.SubscriptionActionSubscribe {
					s.books[inst.InstrumentID] = inst.Depth
				} else {
					delete(s.books, inst.InstrumentID)
				}
			}
			ack.Subscriptions = append(ack.Subscriptions, contract.SubscriptionResult{InstrumentUID: inst.InstrumentID, SubscriptionStatus: st})
		}
		return []*contract.MarketDataResponse{{SubscribeOrderBookResponse: ack}}

	case req.SubscribeInfoRequest != nil:
		r := req.SubscribeInfoRequest
		ack := &contract.SubscribeResponse{TrackingID: trackingID}
		replies := []*contract.MarketDataResponse{{SubscribeInfoResponse: ack}}
		for _, inst := range r.Instruments {
			st := s.statusFor(inst.InstrumentID)
			if st == contract.SubscriptionStatusSuccess {
				if r.SubscriptionAction == contract.SubscriptionActionSubscribe {
					s.infos[inst.InstrumentID] = true
					replies = append(replies, &contract.MarketDataResponse{TradingStatus: s.tradingStatus(inst.InstrumentID)})
				} else {
					delete(s.infos, inst.InstrumentID)
				}
			}
			ack.Subscriptions = append(ack.Subscriptions, contract.SubscriptionResult{InstrumentUID: inst.InstrumentID, SubscriptionStatus: st})
		}
		return replies

	case req.Ping != nil:
		return []*contract.MarketDataResponse{{Ping: &contract.Ping{Time: req.Ping.Time}}}
	}
	return nil
}

func (s *Server) statusFor(uid string) contract.SubscriptionStatus {
	if !s.known[uid] {
		return contract.SubscriptionStatusInstrumentNotFound
	}
	return contract.SubscriptionStatusSuccess
}

func (s *Server) tradingStatus(uid string) *contract.TradingStatus {
	for _, inst := range s.instruments {
		if inst.UID == uid {
			return &contract.TradingStatus{
				InstrumentUID:            uid,
				Figi:                     inst.Figi,
				TradingStatus:            contract.SecurityTradingStatusFromModel(inst.TradingStatus),
				Time:                     now(),
				LimitOrderAvailableFlag:  inst.APITradeAvailable,
				MarketOrderAvailableFlag: inst.APITradeAvailable,
			}
		}
	}
	return &contract.TradingStatus{InstrumentUID: uid, Time: now()}
}

// -----------------------------------------------------------------------------
// Control surface
// -----------------------------------------------------------------------------

// Publish queues resp on every open stream. It blocks while a stream's
// buffer is full.
func (s *Server) Publish(resp *contract.MarketDataResponse) {
	s.mu.Lock()
	targets := make([]*session, 0, len(s.sessions))
	for _, sess := range s.sessions {
		targets = append(targets, sess)
	}
	s.mu.Unlock()

	for _, sess := range targets {
		select {
		case sess.out <- resp:
		case <-sess.done:
		}
	}
}

// Disconnect ends every open stream with err.
func (s *Server) Disconnect(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, sess := range s.sessions {
		select {
		case sess.kill <- err:
		default:
		}
	}
}

// Requests returns every control request received so far.
func (s *Server) Requests() []contract.MarketDataRequest {
	s.mu.Lock()
	defer s.mu.Unlock()

	return append([]contract.MarketDataRequest(nil), s.requests...)
}

// Streams returns the number of open market data streams.
func (s *Server) Streams() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	return len(s.sessions)
}

// CandleSubscriptions returns the active candle subscriptions by uid.
func (s *Server) CandleSubscriptions() map[string]models.CandleInterval {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make(map[string]models.CandleInterval, len(s.candles))
	for uid, iv := range s.candles {
		out[uid] = iv.ToModel()
	}
	return out
}
