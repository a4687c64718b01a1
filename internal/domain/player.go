package domain

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Player represents a participant in the stock picking game.
// Each player starts with the same fixed cash amount and competes by buying
// and selling real stock positions against live market quotes.
type Player struct {
	ID               uuid.UUID         `json:"id"`
	Name             string            `json:"name"`
	CashRemaining    decimal.Decimal   `json:"cashRemaining"`
	Portfolio        []Holding         `json:"portfolio"`
	HistoricalValues []HistoricalValue `json:"historicalValues"`
	CreatedAt        time.Time         `json:"createdAt"`
	UpdatedAt        time.Time         `json:"updatedAt"`
}

// Holding represents a single open stock position owned by one player.
// Positions are sold whole: a sell removes the entire holding and credits
// its current value back to the player's cash.
type Holding struct {
	ID            uuid.UUID       `json:"id"`
	Ticker        string          `json:"ticker"`
	CompanyName   string          `json:"companyName"`
	Shares        decimal.Decimal `json:"shares"`
	PurchasePrice decimal.Decimal `json:"purchasePrice"`
	PurchaseDate  time.Time       `json:"purchaseDate"`
}

// HistoricalValue is a timestamped total-portfolio-value record used to draw
// trend charts. Entries older than the retention window are pruned on write.
type HistoricalValue struct {
	Date  time.Time       `json:"date"`
	Value decimal.Decimal `json:"value"`
}

// HistoryRetention is the trailing window kept for historical values.
const HistoryRetention = 30 * 24 * time.Hour

// NormalizeTicker uppercases and trims a ticker symbol.
func NormalizeTicker(ticker string) string {
	return strings.ToUpper(strings.TrimSpace(ticker))
}

// Validate ensures the player adheres to domain rules.
// Failures wrap ErrInvalidInput.
func (p *Player) Validate() error {
	if p.Name == "" {
		return fmt.Errorf("%w: player name cannot be empty", ErrInvalidInput)
	}

	if p.CashRemaining.IsNegative() {
		return fmt.Errorf("%w: cash remaining cannot be negative", ErrInvalidInput)
	}

	for i := range p.Portfolio {
		if err := p.Portfolio[i].Validate(); err != nil {
			return err
		}
	}

	return nil
}

// Validate ensures the holding adheres to domain rules.
// Share count and purchase price are never negative.
func (h *Holding) Validate() error {
	if NormalizeTicker(h.Ticker) == "" {
		return fmt.Errorf("%w: holding ticker cannot be empty", ErrInvalidInput)
	}

	if h.Shares.IsNegative() {
		return fmt.Errorf("%w: holding share count cannot be negative", ErrInvalidInput)
	}

	if h.PurchasePrice.IsNegative() {
		return fmt.Errorf("%w: holding purchase price cannot be negative", ErrInvalidInput)
	}

	return nil
}

// Cost returns shares * purchase price, the cash debited when the holding
// was bought.
func (h *Holding) Cost() decimal.Decimal {
	return h.Shares.Mul(h.PurchasePrice)
}

// FindHolding returns the holding with the given ID, or nil if the player
// does not own it.
func (p *Player) FindHolding(id uuid.UUID) *Holding {
	for i := range p.Portfolio {
		if p.Portfolio[i].ID == id {
			return &p.Portfolio[i]
		}
	}
	return nil
}

// Tickers returns the distinct tickers across the player's portfolio.
func (p *Player) Tickers() []string {
	seen := make(map[string]struct{}, len(p.Portfolio))
	tickers := make([]string, 0, len(p.Portfolio))
	for i := range p.Portfolio {
		t := NormalizeTicker(p.Portfolio[i].Ticker)
		if _, ok := seen[t]; ok {
			continue
		}
		seen[t] = struct{}{}
		tickers = append(tickers, t)
	}
	return tickers
}
