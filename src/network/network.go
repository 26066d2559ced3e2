package network

import (
	"context"
	"crypto/tls"
	"time"

	"invest-client/src/contract"
	"invest-client/src/helpers"
	"invest-client/src/logger"
	"invest-client/src/models"

	"golang.org/x/time/rate"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials"
	"google.golang.org/grpc/credentials/insecure"
)

// -----------------------------------------------------------------------------
// NetworkManager owns the grpc connection to the broker API. Unary calls are
// authenticated and throttled by interceptors installed on the connection.
// The stream interceptor is exposed separately for the market data stream.
// -----------------------------------------------------------------------------

type NetworkManager struct {
	Config      *models.MAPIConfig
	Conn        *grpc.ClientConn
	Interceptor *TokenInterceptor
	Limiter     *rate.Limiter
	Logger      *logger.Logger
}

// -----------------------------------------------------------------------------

// NewNetworkManager validates cfg and creates the (lazily connecting) client.
// extra options are appended, e.g. a bufconn dialer in tests.
func NewNetworkManager(cfg *models.MAPIConfig, log *logger.Logger, extra ...grpc.DialOption) (*NetworkManager, error) {
	if cfg.Endpoint == "" {
		return nil, helpers.NewConfigurationError(helpers.ErrChannelNotSet, "api endpoint")
	}
	if cfg.Token == "" {
		return nil, helpers.NewConfigurationError(helpers.ErrTokenNotSet, "api token")
	}
	if log == nil {
		log = logger.NewLogger(nil, "Network")
	}

	nm := &NetworkManager{
		Config:      cfg,
		Interceptor: NewTokenInterceptor(cfg.Token, cfg.AppName),
		Logger:      log,
	}
	if cfg.RequestsPerSecond > 0 {
		burst := int(cfg.RequestsPerSecond)
		if burst < 1 {
			burst = 1
		}
		nm.Limiter = rate.NewLimiter(rate.Limit(cfg.RequestsPerSecond), burst)
	}

	conn, err := grpc.NewClient(cfg.Endpoint, append(nm.dialOptions(), extra...)...)
	if err != nil {
		return nil, helpers.NewNetworkError(err, "create client for %s", cfg.Endpoint)
	}
	nm.Conn = conn
	nm.Logger.Info("API client for %s created (insecure=%v)", cfg.Endpoint, cfg.Insecure)
	return nm, nil
}

// -----------------------------------------------------------------------------

func (nm *NetworkManager) dialOptions() []grpc.DialOption {
	creds := credentials.NewTLS(&tls.Config{MinVersion: tls.VersionTLS12})
	if nm.Config.Insecure {
		creds = insecure.NewCredentials()
	}

	unary := []grpc.UnaryClientInterceptor{nm.Interceptor.Unary()}
	if nm.Limiter != nil {
		unary = append(unary, RateLimitInterceptor(nm.Limiter))
	}

	return []grpc.DialOption{
		grpc.WithTransportCredentials(creds),
		grpc.WithChainUnaryInterceptor(unary...),
		grpc.WithDefaultCallOptions(grpc.CallContentSubtype(contract.CodecName)),
	}
}

// -----------------------------------------------------------------------------

// Timeout returns the per-call deadline for unary requests.
func (nm *NetworkManager) Timeout() time.Duration {
	if nm.Config.TimeoutSeconds <= 0 {
		return 30 * time.Second
	}
	return time.Duration(nm.Config.TimeoutSeconds) * time.Second
}

// Close releases the connection.
func (nm *NetworkManager) Close() error {
	if nm.Conn == nil {
		return nil
	}
	return nm.Conn.Close()
}

// -----------------------------------------------------------------------------

// RateLimitInterceptor waits for a token before each unary call.
func RateLimitInterceptor(limiter *rate.Limiter) grpc.UnaryClientInterceptor {
	return func(ctx context.Context, method string, req, reply interface{}, cc *grpc.ClientConn, invoker grpc.UnaryInvoker, opts ...grpc.CallOption) error {
		if err := limiter.Wait(ctx); err != nil {
			return err
		}
		return invoker(ctx, method, req, reply, cc, opts...)
	}
}
