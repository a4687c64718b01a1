package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// Quote is a single best-effort market quote for a ticker, as returned by the
// quote source. Fields beyond the current price are informational and may be
// zero when the provider omits them.
type Quote struct {
	Ticker             string          `json:"ticker"`
	CompanyName        string          `json:"companyName"`
	CurrentPrice       decimal.Decimal `json:"currentPrice"`
	DailyHigh          decimal.Decimal `json:"dailyHigh"`
	DailyLow           decimal.Decimal `json:"dailyLow"`
	DailyChange        decimal.Decimal `json:"dailyChange"`
	DailyChangePercent decimal.Decimal `json:"dailyChangePercent"`
	FiftyTwoWeekHigh   decimal.Decimal `json:"fiftyTwoWeekHigh"`
	FiftyTwoWeekLow    decimal.Decimal `json:"fiftyTwoWeekLow"`
	FetchedAt          time.Time       `json:"fetchedAt"`
}

// DailyClose is one day's closing price for a ticker, used to draw
// per-holding trend bars. Date is a calendar day in YYYY-MM-DD form.
type DailyClose struct {
	Date  string          `json:"date"`
	Close decimal.Decimal `json:"close"`
}

// PriceMap maps ticker to the latest known market price. It is transient:
// shared read-only input to every valuation computation in one refresh cycle.
type PriceMap map[string]decimal.Decimal

// Price resolves the current price for a ticker. The second return reports
// whether a price is known.
func (m PriceMap) Price(ticker string) (decimal.Decimal, bool) {
	p, ok := m[NormalizeTicker(ticker)]
	return p, ok
}

// Equal reports whether two price maps carry the same prices for the same
// tickers.
func (m PriceMap) Equal(other PriceMap) bool {
	if len(m) != len(other) {
		return false
	}
	for ticker, price := range m {
		op, ok := other[ticker]
		if !ok || !price.Equal(op) {
			return false
		}
	}
	return true
}

// PriceMapFromQuotes collapses a quote batch into a price map.
func PriceMapFromQuotes(quotes map[string]Quote) PriceMap {
	prices := make(PriceMap, len(quotes))
	for ticker, q := range quotes {
		prices[NormalizeTicker(ticker)] = q.CurrentPrice
	}
	return prices
}
