package redis

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"

	"github.com/stockleague/backend/internal/domain"
)

// PriceCache implements domain.PriceCache using Redis hashes.
// Each ticker's price is stored as a hash at key "price:{TICKER}" with fields
// "price" (decimal string) and "ts" (Unix nanosecond timestamp).
type PriceCache struct {
	rdb *redis.Client
}

// NewPriceCache creates a PriceCache backed by the given Client.
func NewPriceCache(c *Client) *PriceCache {
	return &PriceCache{rdb: c.Underlying()}
}

func priceKey(ticker string) string {
	return "price:" + domain.NormalizeTicker(ticker)
}

// SetPrices stores the latest price per ticker with the given observation
// time, using a single pipeline round trip.
func (pc *PriceCache) SetPrices(ctx context.Context, prices domain.PriceMap, ts time.Time) error {
	if len(prices) == 0 {
		return nil
	}

	tsStr := strconv.FormatInt(ts.UnixNano(), 10)
	pipe := pc.rdb.Pipeline()
	for ticker, price := range prices {
		pipe.HSet(ctx, priceKey(ticker), map[string]interface{}{
			"price": price.String(),
			"ts":    tsStr,
		})
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("redis: set prices pipeline: %w", err)
	}
	return nil
}

// GetPrices retrieves the latest prices for the given tickers using a
// pipeline. Tickers whose keys do not exist are silently omitted.
func (pc *PriceCache) GetPrices(ctx context.Context, tickers []string) (domain.PriceMap, error) {
	if len(tickers) == 0 {
		return domain.PriceMap{}, nil
	}

	pipe := pc.rdb.Pipeline()
	cmds := make(map[string]*redis.MapStringStringCmd, len(tickers))
	for _, ticker := range tickers {
		normalized := domain.NormalizeTicker(ticker)
		cmds[normalized] = pipe.HGetAll(ctx, priceKey(normalized))
	}

	if _, err := pipe.Exec(ctx); err != nil && !errors.Is(err, redis.Nil) {
		return nil, fmt.Errorf("redis: get prices pipeline: %w", err)
	}

	result := make(domain.PriceMap, len(tickers))
	for ticker, cmd := range cmds {
		vals, err := cmd.Result()
		if err != nil || len(vals) == 0 {
			continue
		}
		priceStr, ok := vals["price"]
		if !ok {
			continue
		}
		price, err := decimal.NewFromString(priceStr)
		if err != nil {
			continue
		}
		result[ticker] = price
	}

	return result, nil
}

// Compile-time interface check.
var _ domain.PriceCache = (*PriceCache)(nil)
