package api

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/stockleague/backend/internal/domain"
	"github.com/stockleague/backend/internal/usecase/history"
	"github.com/stockleague/backend/internal/usecase/trade"
)

type createPlayerRequest struct {
	Name string `json:"name" binding:"required"`
}

type buyHoldingRequest struct {
	Ticker        string          `json:"ticker" binding:"required"`
	Shares        decimal.Decimal `json:"shares"`
	PurchasePrice decimal.Decimal `json:"purchasePrice"`
	PurchaseDate  time.Time       `json:"purchaseDate"`
}

type recordHistoryRequest struct {
	Value decimal.Decimal `json:"value"`
}

func (s *Server) getHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (s *Server) listPlayers(c *gin.Context) {
	players, err := s.PlayerRepo.List(c.Request.Context())
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"players": players})
}

func (s *Server) createPlayer(c *gin.Context) {
	var req createPlayerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "name is required"})
		return
	}

	player := s.Seeder.NewPlayer(strings.TrimSpace(req.Name))
	if err := player.Validate(); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if err := s.PlayerRepo.Create(c.Request.Context(), player); err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, player)
}

func (s *Server) getPlayer(c *gin.Context) {
	id, ok := parseID(c, c.Param("id"))
	if !ok {
		return
	}
	player, err := s.PlayerRepo.GetByID(c.Request.Context(), id)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, player)
}

func (s *Server) buyHolding(c *gin.Context) {
	id, ok := parseID(c, c.Param("id"))
	if !ok {
		return
	}

	var req buyHoldingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid buy request: " + err.Error()})
		return
	}

	holding, err := s.TradeService.ExecuteBuy(c.Request.Context(), id, trade.BuyInput{
		Ticker:        req.Ticker,
		Shares:        req.Shares,
		PurchasePrice: req.PurchasePrice,
		PurchaseDate:  req.PurchaseDate,
	})
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, holding)
}

func (s *Server) sellHolding(c *gin.Context) {
	playerID, ok := parseID(c, c.Param("id"))
	if !ok {
		return
	}
	holdingID, ok := parseID(c, c.Param("holdingID"))
	if !ok {
		return
	}

	currentValue, err := decimal.NewFromString(c.Query("currentValue"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "currentValue query parameter is required"})
		return
	}

	player, err := s.TradeService.ExecuteSell(c.Request.Context(), playerID, holdingID, currentValue)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, player)
}

func (s *Server) getHistory(c *gin.Context) {
	id, ok := parseID(c, c.Param("id"))
	if !ok {
		return
	}

	window, err := s.HistoryService.Window(c.Request.Context(), id)
	if err != nil {
		s.fail(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"history": window,
		"deltas":  history.TrendDeltas(window),
	})
}

func (s *Server) recordHistory(c *gin.Context) {
	id, ok := parseID(c, c.Param("id"))
	if !ok {
		return
	}

	var req recordHistoryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid history request: " + err.Error()})
		return
	}

	if err := s.HistoryService.Record(c.Request.Context(), id, req.Value); err != nil {
		s.fail(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (s *Server) getQuotes(c *gin.Context) {
	raw := c.Query("tickers")
	if raw == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "tickers query parameter is required"})
		return
	}

	tickers := make([]string, 0)
	for _, t := range strings.Split(raw, ",") {
		if normalized := domain.NormalizeTicker(t); normalized != "" {
			tickers = append(tickers, normalized)
		}
	}
	if len(tickers) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "no valid tickers supplied"})
		return
	}

	quotes, err := s.QuoteSource.GetQuotes(c.Request.Context(), tickers)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"quotes": quotes})
}

func (s *Server) getStockHistory(c *gin.Context) {
	ticker := domain.NormalizeTicker(c.Query("ticker"))
	if ticker == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "ticker query parameter is required"})
		return
	}

	closes, err := s.HistorySource.GetDailyHistory(c.Request.Context(), ticker)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, closes)
}

func (s *Server) getLeaderboard(c *gin.Context) {
	ctx := c.Request.Context()

	tickers, err := s.LeaderboardService.Tickers(ctx)
	if err != nil {
		s.fail(c, err)
		return
	}

	prices, err := s.PriceCache.GetPrices(ctx, tickers)
	if err != nil {
		// Valuation falls back to purchase prices when the cache is
		// unreachable.
		s.logger.Warn("price cache unavailable", "error", err)
		prices = domain.PriceMap{}
	}

	rows, err := s.LeaderboardService.Standings(ctx, prices)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"rows": rows})
}

func (s *Server) resetGame(c *gin.Context) {
	players, err := s.Seeder.Reset(c.Request.Context())
	if err != nil {
		s.fail(c, err)
		return
	}
	s.logger.Info("game reset", "players", len(players))
	c.JSON(http.StatusOK, gin.H{"players": players})
}

func parseID(c *gin.Context, raw string) (uuid.UUID, bool) {
	id, err := uuid.Parse(raw)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid id: " + raw})
		return uuid.UUID{}, false
	}
	return id, true
}

// fail maps domain errors to HTTP status codes.
func (s *Server) fail(c *gin.Context, err error) {
	switch {
	case errors.Is(err, domain.ErrNotFound), errors.Is(err, domain.ErrHoldingNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.Is(err, domain.ErrInsufficientFunds), errors.Is(err, domain.ErrInvalidInput):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, domain.ErrQuoteUnavailable):
		c.JSON(http.StatusBadGateway, gin.H{"error": err.Error()})
	default:
		s.logger.Error("request failed", "path", c.Request.URL.Path, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
	}
}
