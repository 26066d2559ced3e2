package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"
	"time"

	"invest-client/src/config"
	"invest-client/src/feed"
	"invest-client/src/helpers"
	"invest-client/src/logger"
	"invest-client/src/models"
	"invest-client/src/server"
	"invest-client/src/stream"
	"invest-client/src/utils"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

// how long a closed stream may take to end before it is aborted
const drainTimeout = 5 * time.Second

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Subscribe to the configured instruments and keep the caches current",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()
		return serve(ctx, cfg)
	},
}

// -----------------------------------------------------------------------------

// serve runs until ctx is done or the market data stream terminates.
func serve(ctx context.Context, cfg *config.Config) error {
	a, err := newApp(cfg)
	if err != nil {
		return err
	}
	defer a.close()

	uids := a.instruments()
	if len(uids) == 0 {
		return helpers.NewConfigurationError(nil, "no stream instruments configured")
	}
	if err := a.bootstrap(ctx); err != nil {
		return err
	}
	interval, err := models.ParseCandleInterval(cfg.Stream.CandleInterval)
	if err != nil {
		return helpers.NewConfigurationError(err, "stream candle interval")
	}

	// the stream outlives ctx so that it can be closed gracefully
	s, err := stream.NewMarketDataStreamBuilder().
		WithConn(a.network.Conn).
		WithInterceptor(a.network.Interceptor.Stream()).
		WithBroadcastCapacity(cfg.Stream.BroadcastCapacity).
		WithControlBuffer(cfg.Stream.ControlBuffer).
		WithWaitingClose(cfg.Stream.WaitingClose).
		WithLogger(logger.NewLogger(cfg, "MarketDataStream")).
		Build(context.Background())
	if err != nil {
		return err
	}
	defer s.Abort()

	feeder := feed.NewFeeder(a.caches.Candles, a.caches.OrderBooks, a.caches.Statuses, a.caches.Instruments, logger.NewLogger(cfg, "Feeder"))
	receiver := s.NewReceiver()

	g, gctx := errgroup.WithContext(ctx)

	if cfg.Server.Enabled {
		var classCodes []string
		for _, uid := range uids {
			if inst, ok := a.caches.Instruments.GetByUID(uid); ok {
				classCodes = append(classCodes, inst.ClassCode)
			}
		}
		scheduler := utils.NewMarketScheduler(classCodes, logger.NewLogger(cfg, "MarketScheduler"))
		api := server.NewAPIServer(cfg.MConfig, a.caches, scheduler, logger.NewLogger(cfg, "APIServer"))
		feeder.Sink = api
		g.Go(func() error { return api.Run(gctx) })
	}

	g.Go(func() error { return feeder.Run(gctx, receiver.Events()) })

	if a.sandbox != nil {
		tick := time.Duration(cfg.Sandbox.TickIntervalMs) * time.Millisecond
		g.Go(func() error {
			a.sandbox.RunTicker(gctx, tick)
			return nil
		})
	}

	g.Go(func() error {
		return feed.Subscribe(gctx, s, uids, interval, cfg.Stream.OrderBookDepth)
	})

	g.Go(func() error {
		select {
		case <-s.Done():
			if err := s.Err(); err != nil {
				return err
			}
			return helpers.ErrStreamClosed
		case <-gctx.Done():
		}

		s.Close()
		select {
		case <-s.Done():
		case <-time.After(drainTimeout):
			a.log.Warning("market data stream did not end within %v, aborting", drainTimeout)
			s.Abort()
		}
		return s.Wait()
	})

	a.log.Info("serving %d instruments (%s candles, order book depth %d)", len(uids), interval, cfg.Stream.OrderBookDepth)
	err = g.Wait()
	a.log.Info("stopped: %d events applied, %d skipped, %d dropped by the receiver", feeder.Handled(), feeder.Skipped(), receiver.Dropped())

	if ctx.Err() != nil && (errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)) {
		return nil
	}
	return err
}
