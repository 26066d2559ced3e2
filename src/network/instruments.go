package network

import (
	"context"
	"time"

	"invest-client/src/contract"
	"invest-client/src/helpers"
	"invest-client/src/interfaces"
	"invest-client/src/logger"
	"invest-client/src/models"

	"google.golang.org/grpc"
)

// -----------------------------------------------------------------------------
// InstrumentsClient calls the instrument listing methods.
// -----------------------------------------------------------------------------

type InstrumentsClient struct {
	conn    grpc.ClientConnInterface
	timeout time.Duration
	logger  *logger.Logger
}

func NewInstrumentsClient(conn grpc.ClientConnInterface, timeout time.Duration, log *logger.Logger) *InstrumentsClient {
	if log == nil {
		log = logger.NewLogger(nil, "Instruments")
	}
	return &InstrumentsClient{conn: conn, timeout: timeout, logger: log}
}

func (c *InstrumentsClient) invoke(ctx context.Context, method string, reply interface{}) error {
	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}
	req := &contract.InstrumentsRequest{InstrumentStatus: contract.InstrumentStatusBase}
	if err := c.conn.Invoke(ctx, method, req, reply, grpc.CallContentSubtype(contract.CodecName)); err != nil {
		return helpers.NewNetworkError(err, "call %s", method)
	}
	return nil
}

// -----------------------------------------------------------------------------

func (c *InstrumentsClient) Shares(ctx context.Context) ([]models.MInstrument, error) {
	var resp contract.SharesResponse
	if err := c.invoke(ctx, contract.SharesMethod, &resp); err != nil {
		return nil, err
	}
	c.logger.Debug("loaded %d shares", len(resp.Instruments))
	return resp.ToModel(), nil
}

func (c *InstrumentsClient) Currencies(ctx context.Context) ([]models.MInstrument, error) {
	var resp contract.CurrenciesResponse
	if err := c.invoke(ctx, contract.CurrenciesMethod, &resp); err != nil {
		return nil, err
	}
	c.logger.Debug("loaded %d currencies", len(resp.Instruments))
	return resp.ToModel(), nil
}

// All returns shares followed by currencies.
func (c *InstrumentsClient) All(ctx context.Context) ([]models.MInstrument, error) {
	shares, err := c.Shares(ctx)
	if err != nil {
		return nil, err
	}
	currencies, err := c.Currencies(ctx)
	if err != nil {
		return nil, err
	}
	return append(shares, currencies...), nil
}

// -----------------------------------------------------------------------------

// Sources exposes each listing method as its own instrument source.
func (c *InstrumentsClient) Sources() []interfaces.IInstrumentSource {
	return []interfaces.IInstrumentSource{
		&instrumentSource{name: "shares", fetch: c.Shares},
		&instrumentSource{name: "currencies", fetch: c.Currencies},
	}
}

type instrumentSource struct {
	name  string
	fetch func(context.Context) ([]models.MInstrument, error)
}

func (s *instrumentSource) Name() string { return s.name }

func (s *instrumentSource) FetchInstruments(ctx context.Context) ([]models.MInstrument, error) {
	return s.fetch(ctx)
}
