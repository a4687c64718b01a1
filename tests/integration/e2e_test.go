//go:build integration

package integration

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stockleague/backend/internal/adapter/repository/mongodb"
	"github.com/stockleague/backend/internal/domain"
	"github.com/stockleague/backend/internal/usecase/leaderboard"
)

var (
	db         *mongodb.DB
	playerRepo *mongodb.PlayerRepository
	baseURL    string
	adminToken string
	httpClient = &http.Client{Timeout: 15 * time.Second}
)

// TestMain sets up the test environment. It expects a running server plus
// its MongoDB, reachable via STOCKLEAGUE_* environment variables.
func TestMain(m *testing.M) {
	ctx := context.Background()

	baseURL = getenv("STOCKLEAGUE_API_URL", "http://localhost:8080")
	adminToken = getenv("STOCKLEAGUE_ADMIN_TOKEN", "dev-token")

	var err error
	db, err = mongodb.NewDB(ctx,
		getenv("STOCKLEAGUE_MONGO_URI", "mongodb://localhost:27017"),
		getenv("STOCKLEAGUE_MONGO_DATABASE", "stockleague"),
	)
	if err != nil {
		panic(fmt.Sprintf("failed to connect to mongodb: %v", err))
	}
	defer db.Close(ctx)

	playerRepo = mongodb.NewPlayerRepository(db)

	code := m.Run()
	os.Exit(code)
}

func getenv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func doJSON(t *testing.T, method, path string, body any, out any, header map[string]string) int {
	t.Helper()

	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequest(method, baseURL+path, reader)
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	for k, v := range header {
		req.Header.Set(k, v)
	}

	resp, err := httpClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	if out != nil && resp.StatusCode < 300 {
		require.NoError(t, json.NewDecoder(resp.Body).Decode(out))
	} else {
		io.Copy(io.Discard, resp.Body)
	}
	return resp.StatusCode
}

func adminHeader() map[string]string {
	return map[string]string{"X-Admin-Token": adminToken}
}

// TestEndToEndFlow drives a full game round: reset, create a player, buy a
// position, snapshot history, sell the position, and read the leaderboard.
func TestEndToEndFlow(t *testing.T) {
	ctx := context.Background()

	// Step A: Reset the game to a known state.
	var resetResp struct {
		Players []*domain.Player `json:"players"`
	}
	code := doJSON(t, http.MethodPost, "/api/reset", nil, &resetResp, adminHeader())
	require.Equal(t, http.StatusOK, code, "reset should succeed")
	require.NotEmpty(t, resetResp.Players, "reset should recreate the default players")
	for _, p := range resetResp.Players {
		assert.Empty(t, p.Portfolio, "reset players start with no holdings")
	}

	// Step B: Create a dedicated player for this run.
	var player domain.Player
	code = doJSON(t, http.MethodPost, "/api/players",
		map[string]string{"name": "E2E Player"}, &player, nil)
	require.Equal(t, http.StatusCreated, code, "player creation should succeed")
	startingCash := player.CashRemaining

	// Step C: Buy one share at a price well inside the starting cash.
	buyPrice := decimal.RequireFromString("1.25")
	var holding domain.Holding
	code = doJSON(t, http.MethodPost, fmt.Sprintf("/api/players/%s/holdings", player.ID),
		map[string]any{"ticker": "AAPL", "shares": "1", "purchasePrice": buyPrice.String()},
		&holding, nil)
	require.Equal(t, http.StatusCreated, code, "buy should succeed")
	assert.Equal(t, "AAPL", holding.Ticker)

	// Step D: The persisted player carries the holding and the debited cash.
	stored, err := playerRepo.GetByID(ctx, player.ID)
	require.NoError(t, err)
	require.Len(t, stored.Portfolio, 1)
	expectedCash := startingCash.Sub(buyPrice)
	assert.True(t, stored.CashRemaining.Equal(expectedCash),
		"cash should be debited by the cost: got %s, expected %s",
		stored.CashRemaining, expectedCash)

	// Step E: Record a portfolio value snapshot and read the history window.
	code = doJSON(t, http.MethodPost, fmt.Sprintf("/api/players/%s/history", player.ID),
		map[string]string{"value": "54.00"}, nil, nil)
	require.Equal(t, http.StatusNoContent, code, "history record should succeed")

	var historyResp struct {
		History []domain.HistoricalValue `json:"history"`
		Deltas  []decimal.Decimal        `json:"deltas"`
	}
	code = doJSON(t, http.MethodGet, fmt.Sprintf("/api/players/%s/history", player.ID),
		nil, &historyResp, nil)
	require.Equal(t, http.StatusOK, code)
	require.NotEmpty(t, historyResp.History)
	assert.Len(t, historyResp.Deltas, len(historyResp.History))

	// Step F: Sell the whole position, crediting its current value.
	sellValue := decimal.RequireFromString("2.50")
	var afterSell domain.Player
	code = doJSON(t, http.MethodDelete,
		fmt.Sprintf("/api/players/%s/holdings/%s?currentValue=%s", player.ID, holding.ID, sellValue),
		nil, &afterSell, nil)
	require.Equal(t, http.StatusOK, code, "sell should succeed")
	assert.Empty(t, afterSell.Portfolio, "the whole position is removed on sell")

	expectedAfterSell := expectedCash.Add(sellValue)
	assert.True(t, afterSell.CashRemaining.Equal(expectedAfterSell),
		"cash should be credited with the sell value: got %s, expected %s",
		afterSell.CashRemaining, expectedAfterSell)

	// Step G: The leaderboard lists every player in descending value order.
	var leaderboardResp struct {
		Rows []leaderboard.Row `json:"rows"`
	}
	code = doJSON(t, http.MethodGet, "/api/leaderboard", nil, &leaderboardResp, nil)
	require.Equal(t, http.StatusOK, code)
	require.NotEmpty(t, leaderboardResp.Rows)
	for i := 1; i < len(leaderboardResp.Rows); i++ {
		assert.True(t,
			leaderboardResp.Rows[i].Value.LessThanOrEqual(leaderboardResp.Rows[i-1].Value),
			"leaderboard rows should be ordered by descending value")
	}
	top := leaderboardResp.Rows[0]
	assert.True(t, top.VsTopDollar.IsZero(), "top row has zero vs-top dollar gap")
	assert.True(t, top.VsTopPercent.IsZero(), "top row has zero vs-top percent gap")
}

// TestNegativeScenarios tests error handling for invalid inputs.
func TestNegativeScenarios(t *testing.T) {
	t.Run("MalformedPlayerID", func(t *testing.T) {
		code := doJSON(t, http.MethodGet, "/api/players/not-a-uuid", nil, nil, nil)
		assert.Equal(t, http.StatusBadRequest, code)
	})

	t.Run("UnknownPlayer", func(t *testing.T) {
		code := doJSON(t, http.MethodGet, "/api/players/"+uuid.NewString(), nil, nil, nil)
		assert.Equal(t, http.StatusNotFound, code)
	})

	t.Run("NonPositiveShares", func(t *testing.T) {
		var player domain.Player
		code := doJSON(t, http.MethodPost, "/api/players",
			map[string]string{"name": "Negative Shares Player"}, &player, nil)
		require.Equal(t, http.StatusCreated, code)

		code = doJSON(t, http.MethodPost, fmt.Sprintf("/api/players/%s/holdings", player.ID),
			map[string]any{"ticker": "AAPL", "shares": "0", "purchasePrice": "10"}, nil, nil)
		assert.Equal(t, http.StatusBadRequest, code)
	})

	t.Run("OverdrawnBuy", func(t *testing.T) {
		var player domain.Player
		code := doJSON(t, http.MethodPost, "/api/players",
			map[string]string{"name": "Overdrawn Player"}, &player, nil)
		require.Equal(t, http.StatusCreated, code)

		// Cost far beyond the starting cash.
		code = doJSON(t, http.MethodPost, fmt.Sprintf("/api/players/%s/holdings", player.ID),
			map[string]any{"ticker": "AAPL", "shares": "1000", "purchasePrice": "1000"}, nil, nil)
		assert.Equal(t, http.StatusBadRequest, code)
	})

	t.Run("StockHistoryMissingTicker", func(t *testing.T) {
		code := doJSON(t, http.MethodGet, "/api/stocks/history", nil, nil, nil)
		assert.Equal(t, http.StatusBadRequest, code)
	})

	t.Run("ResetWithoutToken", func(t *testing.T) {
		code := doJSON(t, http.MethodPost, "/api/reset", nil, nil, nil)
		assert.Equal(t, http.StatusForbidden, code)
	})
}
