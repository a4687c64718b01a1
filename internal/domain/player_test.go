package domain

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestPlayerValidate_Valid(t *testing.T) {
	player := &Player{
		ID:            uuid.New(),
		Name:          "Langdon",
		CashRemaining: decimal.NewFromInt(50),
		Portfolio: []Holding{
			{
				ID:            uuid.New(),
				Ticker:        "AAPL",
				CompanyName:   "Apple Inc.",
				Shares:        decimal.NewFromInt(2),
				PurchasePrice: decimal.NewFromInt(10),
				PurchaseDate:  time.Now(),
			},
		},
	}

	assert.NoError(t, player.Validate())
}

func TestPlayerValidate_EmptyName(t *testing.T) {
	player := &Player{
		ID:            uuid.New(),
		CashRemaining: decimal.NewFromInt(50),
	}

	err := player.Validate()
	assert.ErrorIs(t, err, ErrInvalidInput)
	assert.Contains(t, err.Error(), "name cannot be empty")
}

func TestPlayerValidate_NegativeCash(t *testing.T) {
	player := &Player{
		ID:            uuid.New(),
		Name:          "Andy",
		CashRemaining: decimal.NewFromInt(-1),
	}

	err := player.Validate()
	assert.ErrorIs(t, err, ErrInvalidInput)
	assert.Contains(t, err.Error(), "cash remaining cannot be negative")
}

func TestHoldingValidate_NegativeShares(t *testing.T) {
	holding := &Holding{
		ID:            uuid.New(),
		Ticker:        "AAPL",
		Shares:        decimal.NewFromInt(-2),
		PurchasePrice: decimal.NewFromInt(10),
	}

	err := holding.Validate()
	assert.ErrorIs(t, err, ErrInvalidInput)
	assert.Contains(t, err.Error(), "share count cannot be negative")
}

func TestHoldingValidate_NegativePurchasePrice(t *testing.T) {
	holding := &Holding{
		ID:            uuid.New(),
		Ticker:        "AAPL",
		Shares:        decimal.NewFromInt(2),
		PurchasePrice: decimal.NewFromInt(-10),
	}

	err := holding.Validate()
	assert.ErrorIs(t, err, ErrInvalidInput)
	assert.Contains(t, err.Error(), "purchase price cannot be negative")
}

func TestHoldingCost(t *testing.T) {
	holding := &Holding{
		Ticker:        "AAPL",
		Shares:        decimal.NewFromInt(2),
		PurchasePrice: decimal.NewFromInt(10),
	}

	assert.True(t, holding.Cost().Equal(decimal.NewFromInt(20)))
}

func TestNormalizeTicker(t *testing.T) {
	assert.Equal(t, "AAPL", NormalizeTicker(" aapl "))
	assert.Equal(t, "MSFT", NormalizeTicker("MSFT"))
}

func TestPlayerTickers_Distinct(t *testing.T) {
	player := &Player{
		Name: "Andy",
		Portfolio: []Holding{
			{Ticker: "aapl", Shares: decimal.NewFromInt(1), PurchasePrice: decimal.NewFromInt(1)},
			{Ticker: "AAPL", Shares: decimal.NewFromInt(2), PurchasePrice: decimal.NewFromInt(2)},
			{Ticker: "msft", Shares: decimal.NewFromInt(1), PurchasePrice: decimal.NewFromInt(1)},
		},
	}

	assert.Equal(t, []string{"AAPL", "MSFT"}, player.Tickers())
}

func TestPriceMapPrice_NormalizesTicker(t *testing.T) {
	prices := PriceMap{"AAPL": decimal.NewFromInt(12)}

	p, ok := prices.Price("aapl")
	assert.True(t, ok)
	assert.True(t, p.Equal(decimal.NewFromInt(12)))

	_, ok = prices.Price("MSFT")
	assert.False(t, ok)
}

func TestPriceMapEqual(t *testing.T) {
	a := PriceMap{"AAPL": decimal.NewFromInt(12), "MSFT": decimal.NewFromInt(300)}
	b := PriceMap{"AAPL": decimal.NewFromInt(12), "MSFT": decimal.NewFromInt(300)}
	c := PriceMap{"AAPL": decimal.NewFromInt(13), "MSFT": decimal.NewFromInt(300)}
	d := PriceMap{"AAPL": decimal.NewFromInt(12)}

	assert.True(t, a.Equal(b))
	assert.False(t, a.Equal(c))
	assert.False(t, a.Equal(d))
}
