package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"invest-client/src/cache"
	"invest-client/src/logger"
	"invest-client/src/metrics"
	"invest-client/src/models"
	"invest-client/src/utils"

	"github.com/gin-gonic/gin"
)

// -----------------------------------------------------------------------------
// APIServer
// -----------------------------------------------------------------------------

// Caches are the read models served over HTTP.
type Caches struct {
	Instruments *cache.InstrumentCache
	Candles     *cache.CandleCache
	OrderBooks  *cache.SnapshotCache[models.MOrderBook]
	Statuses    *cache.SnapshotCache[models.MTradingStatus]
}

type APIServer struct {
	Config    *models.MConfig
	Logger    *logger.Logger
	Caches    Caches
	Scheduler *utils.MarketScheduler
	engine    *gin.Engine
	started   time.Time

	// WebSocket clients, owned by the hub goroutine
	clients     map[*Client]struct{}
	broadcast   chan models.MMarketDataEvent
	register    chan *Client
	unregister  chan *Client
	replies     chan reply
	hubOnce     sync.Once
	hubDone     chan struct{}
	connections atomic.Int64
	dropped     atomic.Uint64
}

// -----------------------------------------------------------------------------
// Constructor
// -----------------------------------------------------------------------------

func NewAPIServer(cfg *models.MConfig, caches Caches, scheduler *utils.MarketScheduler, log *logger.Logger) *APIServer {
	if cfg.Log.Level != "debug" {
		gin.SetMode(gin.ReleaseMode)
	}
	if log == nil {
		log = logger.NewLogger(cfg, "APIServer")
	}

	s := &APIServer{
		Config:    cfg,
		Logger:    log,
		Caches:    caches,
		Scheduler: scheduler,
		engine:    gin.New(),
		started:   time.Now(),
		clients:   make(map[*Client]struct{}),
		// Buffered so that Broadcast never waits for the hub
		broadcast:  make(chan models.MMarketDataEvent, 1024),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		replies:    make(chan reply, 64),
		hubDone:    make(chan struct{}),
	}

	s.engine.Use(gin.Recovery(), s.requestLogger())

	// CORS for local dashboards
	s.engine.Use(func(c *gin.Context) {
		origin := c.Request.Header.Get("Origin")
		if strings.HasPrefix(origin, "http://127.0.0.1:") || strings.HasPrefix(origin, "http://localhost:") {
			c.Writer.Header().Set("Access-Control-Allow-Origin", origin)
		}
		c.Writer.Header().Set("Access-Control-Allow-Credentials", "true")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Content-Length, Accept-Encoding, Authorization, accept, origin, Cache-Control, X-Requested-With")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "OPTIONS, GET")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	})

	s.setupRoutes()
	return s
}

// -----------------------------------------------------------------------------
// Route Setup
// -----------------------------------------------------------------------------

func (s *APIServer) setupRoutes() {
	api := s.engine.Group("/api")
	api.GET("/health", s.getHealth)
	api.GET("/instruments", s.getInstruments)
	api.GET("/instruments/uid/:uid", s.getInstrumentByUID)
	api.GET("/instruments/ticker/:ticker", s.getInstrumentsByTicker)
	api.GET("/instruments/figi/:figi", s.getInstrumentsByFigi)
	api.GET("/instruments/class/:class/:ticker", s.getInstrumentsByClassCode)
	api.GET("/candles/:uid", s.getCandles)
	api.GET("/orderbook/:uid", s.getOrderBook)
	api.GET("/status/:uid", s.getTradingStatus)

	s.engine.GET("/metrics", gin.WrapH(metrics.Handler()))

	// WebSocket endpoint
	s.engine.GET("/ws", s.handleWebSocket)
}

// Handler exposes the router, e.g. for httptest.
func (s *APIServer) Handler() http.Handler {
	return s.engine
}

func (s *APIServer) requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		s.Logger.Debug("%s %s -> %d (%v)", c.Request.Method, c.Request.URL.Path, c.Writer.Status(), time.Since(start))
	}
}

// -----------------------------------------------------------------------------
// Server Lifecycle
// -----------------------------------------------------------------------------

// Run serves HTTP until ctx is done, then shuts down gracefully.
func (s *APIServer) Run(ctx context.Context) error {
	addr := fmt.Sprintf("%s:%d", s.Config.Server.Host, s.Config.Server.Port)
	s.Logger.Info("Starting server on %s", addr)

	s.StartHub(ctx)

	srv := &http.Server{Addr: addr, Handler: s.engine, ReadHeaderTimeout: 10 * time.Second}
	errCh := make(chan error, 1)
	go func() { errCh <- srv.ListenAndServe() }()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		s.Logger.Info("Stopping server on %s", addr)
		return srv.Shutdown(shutdownCtx)
	}
}

// StartHub starts the websocket hub once; it stops with ctx.
func (s *APIServer) StartHub(ctx context.Context) {
	s.hubOnce.Do(func() { go s.runHub(ctx) })
}

// Connections returns the number of websocket clients.
func (s *APIServer) Connections() int {
	return int(s.connections.Load())
}

// -----------------------------------------------------------------------------
// Route Handlers
// -----------------------------------------------------------------------------

func (s *APIServer) getHealth(c *gin.Context) {
	now := time.Now()
	body := gin.H{
		"status":          "ok",
		"connections":     s.Connections(),
		"instruments":     s.Caches.Instruments.Len(),
		"candle_buckets":  len(s.Caches.Candles.Buckets()),
		"dropped_events":  s.dropped.Load(),
		"uptime_seconds":  int64(now.Sub(s.started).Seconds()),
		"server_time_utc": now.UTC(),
	}
	if s.Scheduler != nil {
		body["markets"] = s.Scheduler.OpenMarkets(now)
		body["market_open"] = s.Scheduler.AnyMarketOpen(now)
	}
	c.JSON(http.StatusOK, body)
}

// -----------------------------------------------------------------------------

func (s *APIServer) getInstruments(c *gin.Context) {
	all := s.Caches.Instruments.All()
	if kind := c.Query("kind"); kind != "" {
		filtered := all[:0]
		for _, inst := range all {
			if string(inst.Kind) == kind {
				filtered = append(filtered, inst)
			}
		}
		all = filtered
	}
	c.JSON(http.StatusOK, all)
}

func (s *APIServer) getInstrumentByUID(c *gin.Context) {
	inst, ok := s.Caches.Instruments.GetByUID(c.Param("uid"))
	if !ok {
		notFound(c, "instrument", c.Param("uid"))
		return
	}
	c.JSON(http.StatusOK, inst)
}

func (s *APIServer) getInstrumentsByTicker(c *gin.Context) {
	list, ok := s.Caches.Instruments.GetByTicker(c.Param("ticker"))
	if !ok {
		notFound(c, "ticker", c.Param("ticker"))
		return
	}
	c.JSON(http.StatusOK, list)
}

func (s *APIServer) getInstrumentsByFigi(c *gin.Context) {
	list, ok := s.Caches.Instruments.GetByFigi(c.Param("figi"))
	if !ok {
		notFound(c, "figi", c.Param("figi"))
		return
	}
	c.JSON(http.StatusOK, list)
}

func (s *APIServer) getInstrumentsByClassCode(c *gin.Context) {
	key := models.MClassCodeTicker{ClassCode: c.Param("class"), Ticker: c.Param("ticker")}
	list, ok := s.Caches.Instruments.GetByClassCodeAndTicker(key)
	if !ok {
		notFound(c, "instrument", key.ClassCode+"/"+key.Ticker)
		return
	}
	c.JSON(http.StatusOK, list)
}

// -----------------------------------------------------------------------------

// getCandles returns up to n of the latest candles, all when n is omitted.
func (s *APIServer) getCandles(c *gin.Context) {
	uid := c.Param("uid")
	stored := s.Caches.Candles.Len(uid)

	n, err := parseCount(c.Query("n"), stored)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if n > stored {
		n = stored
	}

	candles, ok := s.Caches.Candles.GetLastN(uid, n)
	if !ok {
		notFound(c, "candles", uid)
		return
	}
	c.JSON(http.StatusOK, gin.H{"instrument_uid": uid, "count": len(candles), "candles": candles})
}

func (s *APIServer) getOrderBook(c *gin.Context) {
	book, ok := s.Caches.OrderBooks.Get(c.Param("uid"))
	if !ok {
		notFound(c, "orderbook", c.Param("uid"))
		return
	}
	c.JSON(http.StatusOK, book)
}

func (s *APIServer) getTradingStatus(c *gin.Context) {
	st, ok := s.Caches.Statuses.Get(c.Param("uid"))
	if !ok {
		notFound(c, "trading status", c.Param("uid"))
		return
	}
	c.JSON(http.StatusOK, st)
}
