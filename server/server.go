package server

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Asvarisch/Jackpot/auth"
	"github.com/Asvarisch/Jackpot/config"
	"github.com/Asvarisch/Jackpot/events/kafka"
	"github.com/Asvarisch/Jackpot/middleware"
	"github.com/Asvarisch/Jackpot/pkg/jackpot"
	"github.com/Asvarisch/Jackpot/pkg/jackpot/repository"
	"github.com/Asvarisch/Jackpot/pkg/jackpot/service"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// App represents the jackpot service application.
type App struct {
	engine         *gin.Engine
	config         *config.Config
	logger         zerolog.Logger
	db             *gorm.DB
	jackpots       *repository.JackpotRepository
	contributions  *service.ContributionService
	evaluations    *service.EvaluationService
	notifier       *jackpot.Notifier
	cache          *jackpot.SnapshotCache
	producer       *kafka.Producer
	betsTopic      string
	httpServer     *http.Server
	onShutdown     []func()
	jackpotHandler *JackpotAPIHandler
	streamHandler  *JackpotHandler
}

// Options holds server construction dependencies, assembled by hand in
// cmd/jackpotd (wire.ProvideServerOptions declares the same graph).
type Options struct {
	Config        *config.Config
	Logger        zerolog.Logger
	DB            *gorm.DB
	Jackpots      *repository.JackpotRepository
	Contributions *service.ContributionService
	Evaluations   *service.EvaluationService
	Notifier      *jackpot.Notifier
	// Cache is optional: a nil value disables read-through caching for
	// GET /api/jackpots/{jackpotId} and the handler reads Postgres directly.
	Cache *jackpot.SnapshotCache
	// Producer publishes submitted bets onto the bus for the Contribution
	// Service's consumer to pick up; a nil value means POST /api/bets is
	// unavailable (no Kafka brokers configured).
	Producer  *kafka.Producer
	BetsTopic string
}

// Router is an alias for gin.Engine for convenience.
type Router = gin.Engine

// New creates a new jackpot service application.
func New(opts Options) *App {
	// Jackpot amounts marshal as JSON numbers rather than strings.
	// WARNING: this can lose precision for clients parsing with IEEE 754
	// doubles (e.g. JavaScript); acceptable at the amounts this engine deals in.
	decimal.MarshalJSONWithoutQuotes = true

	if opts.Config.IsDevelopment() {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}

	engine := gin.New()

	app := &App{
		engine:        engine,
		config:        opts.Config,
		logger:        opts.Logger,
		db:            opts.DB,
		jackpots:      opts.Jackpots,
		contributions: opts.Contributions,
		evaluations:   opts.Evaluations,
		notifier:      opts.Notifier,
		cache:         opts.Cache,
		producer:      opts.Producer,
		betsTopic:     opts.BetsTopic,
	}

	app.jackpotHandler = NewJackpotAPIHandler(app)
	app.streamHandler = NewJackpotHandler(app, opts.Notifier)

	return app
}

// UseCommonMiddlewares adds the standard middleware chain.
func (a *App) UseCommonMiddlewares() {
	a.engine.Use(middleware.Recovery(a.logger))
	a.engine.Use(middleware.TraceID())
	a.engine.Use(middleware.Logging(a.logger))
	if a.config.Server.EnableCORS {
		a.engine.Use(middleware.CORS())
	}
	if a.config.Server.WriteTimeout > 0 {
		a.engine.Use(middleware.Timeout(a.config.Server.WriteTimeout))
	}
}

// UseMiddleware adds a custom middleware.
func (a *App) UseMiddleware(m gin.HandlerFunc) {
	a.engine.Use(m)
}

// RegisterHealthCheck adds the liveness endpoint.
func (a *App) RegisterHealthCheck() {
	a.engine.GET("/healthz", a.healthCheck)
}

func (a *App) healthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":      "healthy",
		"timestamp":   time.Now(),
		"environment": a.config.Environment,
	})
}

// RegisterJackpotRoutes registers the public jackpot API.
//
// Routes:
//   - POST /api/bets                    -> ingest a bet contribution
//   - GET  /api/evaluations/{betId}      -> evaluate and, on a win, reward
//   - GET  /api/jackpots/{jackpotId}     -> read current jackpot state
//   - GET  /api/jackpots/{jackpotId}/updates    -> SSE stream
//   - GET  /api/jackpots/{jackpotId}/updates/ws -> WebSocket stream
func (a *App) RegisterJackpotRoutes() {
	api := a.engine.Group("/api")
	if a.config.JWT.Secret != "" {
		api.Use(auth.JWTMiddleware(a.config.JWT.Secret, a.logger))
	}
	{
		api.POST("/bets", a.jackpotHandler.SubmitBet)
		api.GET("/evaluations/:betId", a.jackpotHandler.Evaluate)
		api.GET("/jackpots/:jackpotId", a.jackpotHandler.GetJackpot)
		api.GET("/jackpots/:jackpotId/updates", a.streamHandler.StreamUpdates)
		api.GET("/jackpots/:jackpotId/updates/ws", a.streamHandler.StreamUpdatesWebSocket)
	}

	a.logger.Info().Msg("jackpot routes registered under /api")
}

// Router returns the Gin engine for custom route registration.
func (a *App) Router() *gin.Engine {
	return a.engine
}

// Group creates a route group.
func (a *App) Group(path string, handlers ...gin.HandlerFunc) *gin.RouterGroup {
	return a.engine.Group(path, handlers...)
}

// RegisterRoutes registers custom routes using a callback.
func (a *App) RegisterRoutes(fn func(*gin.Engine)) {
	fn(a.engine)
}

// OnShutdown registers a function to be called on shutdown.
func (a *App) OnShutdown(fn func()) {
	a.onShutdown = append(a.onShutdown, fn)
}

// Run starts the HTTP server and blocks until an interrupt signal.
func (a *App) Run() error {
	addr := fmt.Sprintf(":%d", a.config.Server.Port)

	a.httpServer = &http.Server{
		Addr:         addr,
		Handler:      a.engine,
		ReadTimeout:  a.config.Server.ReadTimeout,
		WriteTimeout: a.config.Server.WriteTimeout,
		IdleTimeout:  a.config.Server.IdleTimeout,
	}

	go func() {
		a.logger.Info().
			Int("port", a.config.Server.Port).
			Str("environment", a.config.Environment).
			Msg("starting HTTP server")

		if err := a.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			a.logger.Fatal().Err(err).Msg("failed to start server")
		}
	}()

	return a.waitForShutdown()
}

// RunWithContext starts the HTTP server, shutting down when ctx is canceled.
func (a *App) RunWithContext(ctx context.Context) error {
	addr := fmt.Sprintf(":%d", a.config.Server.Port)

	a.httpServer = &http.Server{
		Addr:         addr,
		Handler:      a.engine,
		ReadTimeout:  a.config.Server.ReadTimeout,
		WriteTimeout: a.config.Server.WriteTimeout,
		IdleTimeout:  a.config.Server.IdleTimeout,
	}

	errChan := make(chan error, 1)
	go func() {
		a.logger.Info().
			Int("port", a.config.Server.Port).
			Str("environment", a.config.Environment).
			Msg("starting HTTP server")

		if err := a.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errChan <- err
		}
	}()

	select {
	case <-ctx.Done():
		return a.shutdown()
	case err := <-errChan:
		return err
	}
}

func (a *App) waitForShutdown() error {
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	return a.shutdown()
}

func (a *App) shutdown() error {
	a.logger.Info().Msg("shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	for _, fn := range a.onShutdown {
		fn()
	}

	if err := a.httpServer.Shutdown(ctx); err != nil {
		a.logger.Error().Err(err).Msg("error during server shutdown")
		return err
	}

	a.logger.Info().Msg("server shutdown complete")
	return nil
}

// Config returns the application configuration.
func (a *App) Config() *config.Config {
	return a.config
}

// Logger returns the application logger.
func (a *App) Logger() zerolog.Logger {
	return a.logger
}
