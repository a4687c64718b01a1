// Package api exposes the game over HTTP and WebSocket using gin.
package api

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/stockleague/backend/internal/domain"
	"github.com/stockleague/backend/internal/usecase/history"
	"github.com/stockleague/backend/internal/usecase/leaderboard"
	"github.com/stockleague/backend/internal/usecase/seeder"
	"github.com/stockleague/backend/internal/usecase/trade"
)

// Config holds the HTTP server parameters.
type Config struct {
	Host        string
	Port        int
	CORSOrigins []string
	AdminToken  string
}

// Server wires the usecase services to HTTP routes and owns the WebSocket
// hub that pushes standings to connected clients.
type Server struct {
	cfg    Config
	logger *slog.Logger
	engine *gin.Engine
	hub    *Hub
	http   *http.Server

	PlayerRepo         domain.PlayerRepository
	QuoteSource        domain.QuoteSource
	HistorySource      domain.HistorySource
	PriceCache         domain.PriceCache
	TradeService       *trade.Service
	HistoryService     *history.Service
	LeaderboardService *leaderboard.Service
	Seeder             *seeder.Seeder
}

// NewServer creates the API server and registers all routes.
func NewServer(
	cfg Config,
	playerRepo domain.PlayerRepository,
	quoteSource domain.QuoteSource,
	historySource domain.HistorySource,
	priceCache domain.PriceCache,
	tradeService *trade.Service,
	historyService *history.Service,
	leaderboardService *leaderboard.Service,
	gameSeeder *seeder.Seeder,
	logger *slog.Logger,
) *Server {
	gin.SetMode(gin.ReleaseMode)
	engine := gin.New()

	s := &Server{
		cfg:                cfg,
		logger:             logger,
		engine:             engine,
		hub:                NewHub(logger),
		PlayerRepo:         playerRepo,
		QuoteSource:        quoteSource,
		HistorySource:      historySource,
		PriceCache:         priceCache,
		TradeService:       tradeService,
		HistoryService:     historyService,
		LeaderboardService: leaderboardService,
		Seeder:             gameSeeder,
	}

	engine.Use(gin.Recovery())
	engine.Use(requestLogger(logger))
	engine.Use(corsMiddleware(cfg.CORSOrigins))

	s.setupRoutes()
	return s
}

func (s *Server) setupRoutes() {
	api := s.engine.Group("/api")
	{
		api.GET("/health", s.getHealth)

		api.GET("/players", s.listPlayers)
		api.POST("/players", s.createPlayer)
		api.GET("/players/:id", s.getPlayer)

		api.POST("/players/:id/holdings", s.buyHolding)
		api.DELETE("/players/:id/holdings/:holdingID", s.sellHolding)

		api.GET("/players/:id/history", s.getHistory)
		api.POST("/players/:id/history", s.recordHistory)

		api.GET("/quotes", s.getQuotes)
		api.GET("/stocks/history", s.getStockHistory)
		api.GET("/leaderboard", s.getLeaderboard)

		api.POST("/reset", adminOnly(s.cfg.AdminToken), s.resetGame)
	}

	s.engine.GET("/ws", s.hub.handleWebSocket)
}

// Hub returns the WebSocket hub so the refresher can broadcast standings.
func (s *Server) Hub() *Hub {
	return s.hub
}

// Start runs the hub loop and serves HTTP until the context is cancelled,
// then drains in-flight requests.
func (s *Server) Start(ctx context.Context) error {
	go s.hub.Run(ctx)

	s.http = &http.Server{
		Addr:              fmt.Sprintf("%s:%d", s.cfg.Host, s.cfg.Port),
		Handler:           s.engine,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("http server listening", "addr", s.http.Addr)
		if err := s.http.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return s.http.Shutdown(shutdownCtx)
	}
}

// Handler exposes the underlying handler for tests.
func (s *Server) Handler() http.Handler {
	return s.engine
}
