package main

import (
	"context"
	"net"

	"invest-client/src/cache"
	"invest-client/src/config"
	"invest-client/src/feed"
	"invest-client/src/logger"
	"invest-client/src/metrics"
	"invest-client/src/network"
	"invest-client/src/sandbox"
	"invest-client/src/server"

	"google.golang.org/grpc"
	"google.golang.org/grpc/test/bufconn"
)

const sandboxToken = "sandbox"

// -----------------------------------------------------------------------------
// app holds the components shared by the subcommands.
// -----------------------------------------------------------------------------

type app struct {
	cfg     *config.Config
	log     *logger.Logger
	network *network.NetworkManager
	sandbox *sandbox.Server
	caches  server.Caches
}

func newApp(cfg *config.Config) (*app, error) {
	if err := logger.Configure(cfg.Log.Level, cfg.Log.Format, cfg.Log.Output, cfg.Log.MaxAgeDays); err != nil {
		return nil, err
	}
	metrics.Init()

	a := &app{cfg: cfg, log: logger.NewLogger(cfg, cfg.Name)}
	a.caches = server.Caches{
		Instruments: cache.NewInstrumentCache(),
		Candles:     cache.NewCandleCache(cfg.Cache.CandleLimit, logger.NewLogger(cfg, "CandleCache")),
		OrderBooks:  cache.NewOrderBookCache(),
		Statuses:    cache.NewTradingStatusCache(),
	}

	apiCfg := cfg.API
	var extra []grpc.DialOption
	if cfg.Sandbox.Enabled {
		a.sandbox = sandbox.NewServer(nil, logger.NewLogger(cfg, "Sandbox"))
		a.sandbox.Token = sandboxToken

		lis := bufconn.Listen(1 << 20)
		go func() {
			if err := a.sandbox.Serve(lis); err != nil {
				a.log.Error("sandbox server: %v", err)
			}
		}()

		apiCfg.Endpoint = "passthrough:///sandbox"
		apiCfg.Token = sandboxToken
		apiCfg.Insecure = true
		extra = append(extra, grpc.WithContextDialer(func(ctx context.Context, _ string) (net.Conn, error) {
			return lis.DialContext(ctx)
		}))
		a.log.Info("running against the in-process sandbox")
	}

	nm, err := network.NewNetworkManager(&apiCfg, logger.NewLogger(cfg, "Network"), extra...)
	if err != nil {
		a.close()
		return nil, err
	}
	a.network = nm
	return a, nil
}

// -----------------------------------------------------------------------------

// instruments returns the configured uids, or the whole sandbox listing when
// none are configured in sandbox mode.
func (a *app) instruments() []string {
	if len(a.cfg.Stream.Instruments) > 0 || a.sandbox == nil {
		return a.cfg.Stream.Instruments
	}
	var uids []string
	for _, inst := range sandbox.DefaultInstruments() {
		uids = append(uids, inst.UID)
	}
	return uids
}

// bootstrap loads the instrument listing and creates candle buckets.
func (a *app) bootstrap(ctx context.Context) error {
	client := network.NewInstrumentsClient(a.network.Conn, a.network.Timeout(), logger.NewLogger(a.cfg, "Instruments"))
	sources := feed.NewSourceManager(logger.NewLogger(a.cfg, "SourceManager"))
	if err := sources.AddSources(client.Sources()...); err != nil {
		return err
	}
	return feed.Bootstrap(ctx, sources, a.caches.Instruments, a.caches.Candles, a.instruments(), a.log)
}

func (a *app) close() {
	if a.network != nil {
		if err := a.network.Close(); err != nil {
			a.log.Warning("close connection: %v", err)
		}
	}
	if a.sandbox != nil {
		a.sandbox.Stop()
	}
}
