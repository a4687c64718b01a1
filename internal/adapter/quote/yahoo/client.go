// Package yahoo implements the quote and daily-history sources against the
// Yahoo Finance v7 quote and v8 chart APIs.
package yahoo

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/stockleague/backend/internal/domain"
)

// Client fetches market quotes over HTTP. A single request resolves a whole
// ticker batch; tickers the provider cannot price are dropped from the result
// rather than failing the batch.
type Client struct {
	baseURL    string
	httpClient *http.Client
	logger     *slog.Logger
}

// NewClient creates a quote client against the given base URL, typically
// https://query1.finance.yahoo.com.
func NewClient(baseURL string, timeout time.Duration, logger *slog.Logger) *Client {
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: timeout},
		logger:     logger,
	}
}

// quoteResponse mirrors the subset of the v7 quote payload the game uses.
type quoteResponse struct {
	QuoteResponse struct {
		Result []quoteResult `json:"result"`
		Error  *struct {
			Code        string `json:"code"`
			Description string `json:"description"`
		} `json:"error"`
	} `json:"quoteResponse"`
}

type quoteResult struct {
	Symbol                     string   `json:"symbol"`
	LongName                   string   `json:"longName"`
	ShortName                  string   `json:"shortName"`
	RegularMarketPrice         *float64 `json:"regularMarketPrice"`
	RegularMarketDayHigh       float64  `json:"regularMarketDayHigh"`
	RegularMarketDayLow        float64  `json:"regularMarketDayLow"`
	RegularMarketChange        float64  `json:"regularMarketChange"`
	RegularMarketChangePercent float64  `json:"regularMarketChangePercent"`
	FiftyTwoWeekHigh           float64  `json:"fiftyTwoWeekHigh"`
	FiftyTwoWeekLow            float64  `json:"fiftyTwoWeekLow"`
}

// GetQuote fetches a quote for a single ticker. It returns
// domain.ErrQuoteUnavailable when the provider has no usable price.
func (c *Client) GetQuote(ctx context.Context, ticker string) (*domain.Quote, error) {
	ticker = domain.NormalizeTicker(ticker)
	quotes, err := c.GetQuotes(ctx, []string{ticker})
	if err != nil {
		return nil, err
	}
	quote, ok := quotes[ticker]
	if !ok {
		return nil, domain.ErrQuoteUnavailable
	}
	return &quote, nil
}

// GetQuotes fetches quotes for a set of tickers in one request. Tickers the
// provider omits or prices at nothing are left out of the result.
func (c *Client) GetQuotes(ctx context.Context, tickers []string) (map[string]domain.Quote, error) {
	if len(tickers) == 0 {
		return map[string]domain.Quote{}, nil
	}

	normalized := make([]string, 0, len(tickers))
	for _, t := range tickers {
		normalized = append(normalized, domain.NormalizeTicker(t))
	}

	endpoint := fmt.Sprintf("%s/v7/finance/quote?symbols=%s",
		c.baseURL, url.QueryEscape(strings.Join(normalized, ",")))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build quote request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("quote request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		io.Copy(io.Discard, resp.Body)
		return nil, fmt.Errorf("quote request returned status %d", resp.StatusCode)
	}

	var parsed quoteResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return nil, fmt.Errorf("failed to decode quote response: %w", err)
	}
	if parsed.QuoteResponse.Error != nil {
		return nil, fmt.Errorf("quote provider error: %s", parsed.QuoteResponse.Error.Description)
	}

	now := time.Now().UTC()
	quotes := make(map[string]domain.Quote, len(parsed.QuoteResponse.Result))
	for _, result := range parsed.QuoteResponse.Result {
		if result.RegularMarketPrice == nil || *result.RegularMarketPrice <= 0 {
			c.logger.Warn("quote without usable price", "ticker", result.Symbol)
			continue
		}
		ticker := domain.NormalizeTicker(result.Symbol)
		name := result.LongName
		if name == "" {
			name = result.ShortName
		}
		quotes[ticker] = domain.Quote{
			Ticker:             ticker,
			CompanyName:        name,
			CurrentPrice:       decimal.NewFromFloat(*result.RegularMarketPrice),
			DailyHigh:          decimal.NewFromFloat(result.RegularMarketDayHigh),
			DailyLow:           decimal.NewFromFloat(result.RegularMarketDayLow),
			DailyChange:        decimal.NewFromFloat(result.RegularMarketChange),
			DailyChangePercent: decimal.NewFromFloat(result.RegularMarketChangePercent),
			FiftyTwoWeekHigh:   decimal.NewFromFloat(result.FiftyTwoWeekHigh),
			FiftyTwoWeekLow:    decimal.NewFromFloat(result.FiftyTwoWeekLow),
			FetchedAt:          now,
		}
	}

	if len(quotes) < len(normalized) {
		c.logger.Debug("partial quote batch",
			"requested", len(normalized), "resolved", len(quotes))
	}

	return quotes, nil
}

// historyWindow is the trailing span of daily closes fetched per ticker,
// matching the portfolio history retention window.
const historyWindow = 30 * 24 * time.Hour

// chartResponse mirrors the subset of the v8 chart payload the game uses.
type chartResponse struct {
	Chart struct {
		Result []struct {
			Timestamp  []int64 `json:"timestamp"`
			Indicators struct {
				Quote []struct {
					Close []*float64 `json:"close"`
				} `json:"quote"`
			} `json:"indicators"`
		} `json:"result"`
		Error *struct {
			Code        string `json:"code"`
			Description string `json:"description"`
		} `json:"error"`
	} `json:"chart"`
}

// GetDailyHistory fetches the trailing 30 days of daily closing prices for
// one ticker. The chart endpoint reports bars in ascending timestamp order;
// bars without a close (market holidays, halted sessions) are skipped.
// Closes are rounded to cents.
func (c *Client) GetDailyHistory(ctx context.Context, ticker string) ([]domain.DailyClose, error) {
	ticker = domain.NormalizeTicker(ticker)
	if ticker == "" {
		return nil, domain.ErrQuoteUnavailable
	}

	now := time.Now()
	endpoint := fmt.Sprintf("%s/v8/finance/chart/%s?interval=1d&period1=%d&period2=%d",
		c.baseURL, url.PathEscape(ticker), now.Add(-historyWindow).Unix(), now.Unix())

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build chart request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("chart request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		io.Copy(io.Discard, resp.Body)
		return nil, domain.ErrQuoteUnavailable
	}
	if resp.StatusCode != http.StatusOK {
		io.Copy(io.Discard, resp.Body)
		return nil, fmt.Errorf("chart request returned status %d", resp.StatusCode)
	}

	var parsed chartResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return nil, fmt.Errorf("failed to decode chart response: %w", err)
	}
	if parsed.Chart.Error != nil {
		return nil, fmt.Errorf("chart provider error: %s", parsed.Chart.Error.Description)
	}
	if len(parsed.Chart.Result) == 0 || len(parsed.Chart.Result[0].Indicators.Quote) == 0 {
		return nil, domain.ErrQuoteUnavailable
	}

	result := parsed.Chart.Result[0]
	closes := result.Indicators.Quote[0].Close
	history := make([]domain.DailyClose, 0, len(result.Timestamp))
	for i, ts := range result.Timestamp {
		if i >= len(closes) || closes[i] == nil {
			continue
		}
		history = append(history, domain.DailyClose{
			Date:  time.Unix(ts, 0).UTC().Format("2006-01-02"),
			Close: decimal.NewFromFloat(*closes[i]).Round(2),
		})
	}
	return history, nil
}

// Compile-time interface checks.
var (
	_ domain.QuoteSource   = (*Client)(nil)
	_ domain.HistorySource = (*Client)(nil)
)
