package main

import (
	"context"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/stockleague/backend/internal/adapter/api"
	redisadapter "github.com/stockleague/backend/internal/adapter/cache/redis"
	"github.com/stockleague/backend/internal/adapter/quote/yahoo"
	"github.com/stockleague/backend/internal/adapter/repository/mongodb"
	"github.com/stockleague/backend/internal/config"
	"github.com/stockleague/backend/internal/usecase/history"
	"github.com/stockleague/backend/internal/usecase/leaderboard"
	"github.com/stockleague/backend/internal/usecase/refresher"
	"github.com/stockleague/backend/internal/usecase/seeder"
	"github.com/stockleague/backend/internal/usecase/trade"
	"github.com/stockleague/backend/internal/usecase/valuation"
)

func main() {
	configPath := flag.String("config", "", "path to YAML config file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := newLogger(cfg.LogLevel)
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
	defer stop()

	// 1. Storage and caches
	db, err := mongodb.NewDB(ctx, cfg.Mongo.URI, cfg.Mongo.Database)
	if err != nil {
		logger.Error("failed to connect to mongodb", "error", err)
		os.Exit(1)
	}
	defer db.Close(context.Background())

	redisClient, err := redisadapter.New(ctx, redisadapter.ClientConfig{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	if err != nil {
		logger.Error("failed to connect to redis", "error", err)
		os.Exit(1)
	}
	defer redisClient.Close()

	playerRepo := mongodb.NewPlayerRepository(db)
	priceCache := redisadapter.NewPriceCache(redisClient)
	quoteSource := yahoo.NewClient(cfg.Quotes.BaseURL, cfg.Quotes.RequestTimeout(), logger)

	// 2. Usecase services
	startingCash := cfg.Game.StartingCashDecimal()
	valuationService := valuation.NewService(startingCash)
	tradeService := trade.NewService(playerRepo, quoteSource)
	historyService := history.NewService(playerRepo)
	leaderboardService := leaderboard.NewService(playerRepo, valuationService)
	gameSeeder := seeder.NewSeeder(playerRepo, cfg.Game.DefaultPlayers, startingCash)

	if err := gameSeeder.Seed(ctx); err != nil {
		logger.Error("failed to seed default players", "error", err)
		os.Exit(1)
	}
	logger.Info("default players seeded", "count", len(cfg.Game.DefaultPlayers))

	// 3. HTTP server and background refresher
	server := api.NewServer(
		api.Config{
			Host:        cfg.Server.Host,
			Port:        cfg.Server.Port,
			CORSOrigins: cfg.Server.CORSOrigins,
			AdminToken:  cfg.Server.AdminToken,
		},
		playerRepo,
		quoteSource,
		quoteSource,
		priceCache,
		tradeService,
		historyService,
		leaderboardService,
		gameSeeder,
		logger,
	)

	quoteRefresher := refresher.New(
		leaderboardService,
		historyService,
		valuationService,
		playerRepo,
		quoteSource,
		priceCache,
		server.Hub(),
		refresher.Config{
			Interval:            cfg.Quotes.RefreshInterval(),
			SnapshotMinInterval: cfg.Quotes.SnapshotMinInterval(),
		},
		logger,
	)
	go quoteRefresher.Run(ctx)

	if err := server.Start(ctx); err != nil {
		logger.Error("server exited with error", "error", err)
		os.Exit(1)
	}
	logger.Info("server stopped")
}

func newLogger(level string) *slog.Logger {
	var l slog.Level
	switch level {
	case "debug":
		l = slog.LevelDebug
	case "warn":
		l = slog.LevelWarn
	case "error":
		l = slog.LevelError
	default:
		l = slog.LevelInfo
	}
	return slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: l}))
}
