package domain

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// PlayerRepository defines the interface for player persistence operations.
// Trade mutations are single atomic read-modify-write updates against the
// persisted player record to avoid lost updates under concurrent requests
// for the same player.
type PlayerRepository interface {
	// Create persists a new player.
	Create(ctx context.Context, player *Player) error

	// List retrieves all players.
	List(ctx context.Context) ([]*Player, error)

	// GetByID retrieves a player by its ID.
	// Returns ErrNotFound when the player does not exist.
	GetByID(ctx context.Context, id uuid.UUID) (*Player, error)

	// AddHolding appends a holding and debits the buy cost from the player's
	// cash in one atomic update, conditional on the player having at least
	// cost cash remaining. Returns ErrNotFound for an unknown player and
	// ErrInsufficientFunds when the condition fails.
	AddHolding(ctx context.Context, playerID uuid.UUID, holding Holding, cost decimal.Decimal) error

	// RemoveHolding removes the holding in its entirety and credits the
	// caller-supplied current value to the player's cash in one atomic
	// update. Returns the updated player, ErrNotFound for an unknown player,
	// or ErrHoldingNotFound for an unknown holding.
	RemoveHolding(ctx context.Context, playerID, holdingID uuid.UUID, credit decimal.Decimal) (*Player, error)

	// AppendHistoricalValue appends a snapshot and prunes entries dated
	// before cutoff on the same write path.
	AppendHistoricalValue(ctx context.Context, playerID uuid.UUID, entry HistoricalValue, cutoff time.Time) error

	// DeleteAll removes every player. Used by the whole-game reset only.
	DeleteAll(ctx context.Context) error
}

// QuoteSource supplies current market quotes for ticker symbols, best-effort.
type QuoteSource interface {
	// GetQuote fetches a quote for a single ticker.
	// Returns ErrQuoteUnavailable when no usable price exists.
	GetQuote(ctx context.Context, ticker string) (*Quote, error)

	// GetQuotes fetches quotes for a set of tickers. Tickers that fail are
	// omitted from the result; a partial failure never fails the batch.
	GetQuotes(ctx context.Context, tickers []string) (map[string]Quote, error)
}

// HistorySource supplies trailing daily closing prices per ticker.
type HistorySource interface {
	// GetDailyHistory returns the daily closes for the trailing 30 days,
	// ascending by date. Days without a close are skipped. Returns
	// ErrQuoteUnavailable when the provider has no data for the ticker.
	GetDailyHistory(ctx context.Context, ticker string) ([]DailyClose, error)
}

// PriceCache stores the latest known price per ticker between refresh cycles.
type PriceCache interface {
	// SetPrices stores the given prices with the given observation time.
	SetPrices(ctx context.Context, prices PriceMap, ts time.Time) error

	// GetPrices retrieves the latest known prices for the given tickers.
	// Tickers with no cached price are silently omitted.
	GetPrices(ctx context.Context, tickers []string) (PriceMap, error)
}
