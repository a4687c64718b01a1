package refresher

import (
	"context"
	"log/slog"
	"time"

	"github.com/stockleague/backend/internal/domain"
	"github.com/stockleague/backend/internal/usecase/history"
	"github.com/stockleague/backend/internal/usecase/leaderboard"
	"github.com/stockleague/backend/internal/usecase/valuation"
)

// Broadcaster pushes a refreshed leaderboard to connected subscribers.
type Broadcaster interface {
	BroadcastStandings(rows []leaderboard.Row)
}

// Refresher periodically refreshes the current price map from the quote
// source and drives the event-driven snapshot trigger: when a refresh
// produces materially different prices, a portfolio-value snapshot is
// recorded for every player. Snapshot writes are debounced by a minimum
// interval to bound write amplification.
type Refresher struct {
	Leaderboard *leaderboard.Service
	History     *history.Service
	Valuation   *valuation.Service
	PlayerRepo  domain.PlayerRepository
	Quotes      domain.QuoteSource
	Cache       domain.PriceCache
	Broadcaster Broadcaster // optional

	Interval            time.Duration
	SnapshotMinInterval time.Duration

	logger       *slog.Logger
	lastPrices   domain.PriceMap
	lastSnapshot time.Time
	now          func() time.Time
}

// Config holds the refresher's timing parameters.
type Config struct {
	Interval            time.Duration
	SnapshotMinInterval time.Duration
}

// New creates a new Refresher instance.
func New(
	leaderboardService *leaderboard.Service,
	historyService *history.Service,
	valuationService *valuation.Service,
	playerRepo domain.PlayerRepository,
	quotes domain.QuoteSource,
	cache domain.PriceCache,
	broadcaster Broadcaster,
	cfg Config,
	logger *slog.Logger,
) *Refresher {
	return &Refresher{
		Leaderboard:         leaderboardService,
		History:             historyService,
		Valuation:           valuationService,
		PlayerRepo:          playerRepo,
		Quotes:              quotes,
		Cache:               cache,
		Broadcaster:         broadcaster,
		Interval:            cfg.Interval,
		SnapshotMinInterval: cfg.SnapshotMinInterval,
		logger:              logger,
		now:                 time.Now,
	}
}

// Run refreshes on the configured interval until the context is cancelled.
// An immediate refresh is performed on start so subscribers do not wait a
// full interval for the first price map.
func (r *Refresher) Run(ctx context.Context) {
	if _, err := r.RefreshOnce(ctx); err != nil {
		r.logger.Warn("initial quote refresh failed", slog.String("error", err.Error()))
	}

	ticker := time.NewTicker(r.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			r.logger.Info("refresher stopped")
			return
		case <-ticker.C:
			if _, err := r.RefreshOnce(ctx); err != nil {
				r.logger.Warn("quote refresh failed", slog.String("error", err.Error()))
			}
		}
	}
}

// RefreshOnce performs one refresh cycle: fetch quotes for every held
// ticker, store them in the price cache, snapshot player values when prices
// changed (debounced), and broadcast the refreshed leaderboard. Per-ticker
// quote failures degrade the price map rather than failing the cycle.
func (r *Refresher) RefreshOnce(ctx context.Context) (domain.PriceMap, error) {
	tickers, err := r.Leaderboard.Tickers(ctx)
	if err != nil {
		return nil, err
	}

	prices := domain.PriceMap{}
	if len(tickers) > 0 {
		quotes, err := r.Quotes.GetQuotes(ctx, tickers)
		if err != nil {
			return nil, err
		}
		prices = domain.PriceMapFromQuotes(quotes)

		if err := r.Cache.SetPrices(ctx, prices, r.now()); err != nil {
			r.logger.Warn("failed to cache prices", slog.String("error", err.Error()))
		}
	}

	changed := r.lastPrices == nil || !prices.Equal(r.lastPrices)
	r.lastPrices = prices

	if changed {
		if err := r.snapshotAll(ctx, prices); err != nil {
			r.logger.Warn("snapshot pass failed", slog.String("error", err.Error()))
		}
	}

	if r.Broadcaster != nil {
		rows, err := r.Leaderboard.Standings(ctx, prices)
		if err != nil {
			r.logger.Warn("failed to assemble standings", slog.String("error", err.Error()))
		} else {
			r.Broadcaster.BroadcastStandings(rows)
		}
	}

	return prices, nil
}

// snapshotAll records one portfolio-value snapshot per player, unless the
// debounce window since the previous snapshot pass has not elapsed yet.
func (r *Refresher) snapshotAll(ctx context.Context, prices domain.PriceMap) error {
	now := r.now()
	if !r.lastSnapshot.IsZero() && now.Sub(r.lastSnapshot) < r.SnapshotMinInterval {
		return nil
	}

	players, err := r.PlayerRepo.List(ctx)
	if err != nil {
		return err
	}

	for _, p := range players {
		value := r.Valuation.PortfolioValue(p, prices)
		if err := r.History.Record(ctx, p.ID, value); err != nil {
			r.logger.Warn("failed to record snapshot",
				slog.String("player", p.Name),
				slog.String("error", err.Error()),
			)
		}
	}

	r.lastSnapshot = now
	return nil
}
