package trade

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stockleague/backend/internal/domain"
)

// BuyInput represents the input for executing a buy trade.
type BuyInput struct {
	Ticker        string
	Shares        decimal.Decimal
	PurchasePrice decimal.Decimal
	PurchaseDate  time.Time
}

// Service handles trade execution. Trades are all-or-nothing: a rejected
// trade leaves cash and holdings untouched.
type Service struct {
	PlayerRepo  domain.PlayerRepository
	QuoteSource domain.QuoteSource
}

// NewService creates a new trade Service instance.
func NewService(playerRepo domain.PlayerRepository, quoteSource domain.QuoteSource) *Service {
	return &Service{
		PlayerRepo:  playerRepo,
		QuoteSource: quoteSource,
	}
}

// ExecuteBuy executes a buy trade for a player.
// Logic:
//  1. Validate shares and price are positive
//  2. Resolve the company name from the quote source (fails the buy when the
//     ticker has no quote)
//  3. Append the holding and debit cash in a single atomic update,
//     conditional on cost <= cash remaining
//
// Returns ErrInsufficientFunds when the cost exceeds the player's cash and
// ErrNotFound for an unknown player.
func (s *Service) ExecuteBuy(ctx context.Context, playerID uuid.UUID, input BuyInput) (*domain.Holding, error) {
	ticker := domain.NormalizeTicker(input.Ticker)
	if ticker == "" {
		return nil, fmt.Errorf("%w: ticker cannot be empty", domain.ErrInvalidInput)
	}
	if input.Shares.LessThanOrEqual(decimal.Zero) {
		return nil, fmt.Errorf("%w: share count must be positive", domain.ErrInvalidInput)
	}
	if input.PurchasePrice.LessThanOrEqual(decimal.Zero) {
		return nil, fmt.Errorf("%w: purchase price must be positive", domain.ErrInvalidInput)
	}

	quote, err := s.QuoteSource.GetQuote(ctx, ticker)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch quote for %s: %w", ticker, err)
	}

	companyName := quote.CompanyName
	if companyName == "" {
		companyName = ticker
	}

	purchaseDate := input.PurchaseDate
	if purchaseDate.IsZero() {
		purchaseDate = time.Now()
	}

	holding := domain.Holding{
		ID:            uuid.New(),
		Ticker:        ticker,
		CompanyName:   companyName,
		Shares:        input.Shares,
		PurchasePrice: input.PurchasePrice,
		PurchaseDate:  purchaseDate,
	}

	if err := holding.Validate(); err != nil {
		return nil, err
	}

	if err := s.PlayerRepo.AddHolding(ctx, playerID, holding, holding.Cost()); err != nil {
		return nil, err
	}

	return &holding, nil
}

// ExecuteSell sells a whole position: the holding is removed in its entirety
// and the caller-supplied current value is credited to the player's cash.
// The model supports whole-position sells only; no partial-share reduction.
// Returns the updated player, ErrNotFound for an unknown player, or
// ErrHoldingNotFound for an unknown holding.
func (s *Service) ExecuteSell(ctx context.Context, playerID, holdingID uuid.UUID, currentValue decimal.Decimal) (*domain.Player, error) {
	if currentValue.IsNegative() {
		return nil, fmt.Errorf("%w: current value cannot be negative", domain.ErrInvalidInput)
	}

	return s.PlayerRepo.RemoveHolding(ctx, playerID, holdingID, currentValue)
}
