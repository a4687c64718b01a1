package mongodb

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stockleague/backend/internal/domain"
)

func TestPlayerDocument_RoundTrip(t *testing.T) {
	now := time.Date(2026, 8, 28, 12, 0, 0, 0, time.UTC)
	player := &domain.Player{
		ID:            uuid.New(),
		Name:          "Andy",
		CashRemaining: decimal.RequireFromString("30.25"),
		Portfolio: []domain.Holding{
			{
				ID:            uuid.New(),
				Ticker:        "AAPL",
				CompanyName:   "Apple Inc.",
				Shares:        decimal.RequireFromString("2.5"),
				PurchasePrice: decimal.RequireFromString("10.10"),
				PurchaseDate:  now,
			},
		},
		HistoricalValues: []domain.HistoricalValue{
			{Date: now, Value: decimal.RequireFromString("55.50")},
		},
		CreatedAt: now,
		UpdatedAt: now,
	}

	doc, err := toPlayerDocument(player)
	require.NoError(t, err)
	assert.Equal(t, player.ID.String(), doc.ID)

	got, err := toDomainPlayer(doc)
	require.NoError(t, err)

	assert.Equal(t, player.ID, got.ID)
	assert.Equal(t, player.Name, got.Name)
	assert.True(t, got.CashRemaining.Equal(player.CashRemaining))
	require.Len(t, got.Portfolio, 1)
	assert.Equal(t, player.Portfolio[0].ID, got.Portfolio[0].ID)
	assert.True(t, got.Portfolio[0].Shares.Equal(player.Portfolio[0].Shares))
	assert.True(t, got.Portfolio[0].PurchasePrice.Equal(player.Portfolio[0].PurchasePrice))
	require.Len(t, got.HistoricalValues, 1)
	assert.True(t, got.HistoricalValues[0].Value.Equal(player.HistoricalValues[0].Value))
}

func TestToDomainPlayer_RejectsMalformedID(t *testing.T) {
	doc := &playerDocument{ID: "not-a-uuid"}
	_, err := toDomainPlayer(doc)
	assert.Error(t, err)
}

func TestDecimal128_PreservesExactValues(t *testing.T) {
	for _, s := range []string{"0", "50.00", "-12.3456789", "0.1"} {
		d := decimal.RequireFromString(s)
		v, err := toDecimal128(d)
		require.NoError(t, err)
		back, err := fromDecimal128(v)
		require.NoError(t, err)
		assert.True(t, back.Equal(d), "round trip of %s", s)
	}
}
