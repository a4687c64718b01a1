package valuation

import (
	"sort"

	"github.com/shopspring/decimal"
	"github.com/stockleague/backend/internal/domain"
)

// Service computes a player's current standing from its own state and a
// shared price map. Every operation is a deterministic pure function of its
// arguments: no repository access, no failure modes.
type Service struct {
	StartingCash decimal.Decimal
}

// NewService creates a new valuation Service with the game's fixed starting
// cash amount.
func NewService(startingCash decimal.Decimal) *Service {
	return &Service{StartingCash: startingCash}
}

// StartingValue returns the fixed starting cash constant for a player.
// It is independent of subsequent trades: "starting value" always reflects
// the initial stake, not post-trade cash.
func (s *Service) StartingValue(_ *domain.Player) decimal.Decimal {
	return s.StartingCash
}

// PortfolioValue sums shares * current price over every holding, plus the
// player's remaining cash. When no current price is known for a ticker the
// holding's purchase price is used instead, so a quote gap degrades accuracy
// but never fails the valuation.
func (s *Service) PortfolioValue(player *domain.Player, prices domain.PriceMap) decimal.Decimal {
	total := player.CashRemaining
	for i := range player.Portfolio {
		h := &player.Portfolio[i]
		price, ok := prices.Price(h.Ticker)
		if !ok {
			price = h.PurchasePrice
		}
		total = total.Add(h.Shares.Mul(price))
	}
	return total
}

// DollarChange returns the signed difference between the player's current
// portfolio value and the starting value. Zero at game start.
func (s *Service) DollarChange(player *domain.Player, prices domain.PriceMap) decimal.Decimal {
	return s.PortfolioValue(player, prices).Sub(s.StartingValue(player))
}

// PercentChange returns the dollar change as a percentage of the starting
// value. Defined as zero when the starting value is zero.
func (s *Service) PercentChange(player *domain.Player, prices domain.PriceMap) decimal.Decimal {
	starting := s.StartingValue(player)
	if starting.IsZero() {
		return decimal.Zero
	}
	return s.DollarChange(player, prices).Div(starting).Mul(decimal.NewFromInt(100))
}

// TopPerformer returns the player with the maximum portfolio value. Ties are
// broken by first-encountered input order. Returns nil for an empty list.
func (s *Service) TopPerformer(players []*domain.Player, prices domain.PriceMap) *domain.Player {
	if len(players) == 0 {
		return nil
	}

	top := players[0]
	topValue := s.PortfolioValue(top, prices)
	for _, p := range players[1:] {
		if v := s.PortfolioValue(p, prices); v.GreaterThan(topValue) {
			top = p
			topValue = v
		}
	}
	return top
}

// VsTopDollar returns the player's value minus the top performer's value.
// Zero for the top performer itself.
func (s *Service) VsTopDollar(player, top *domain.Player, prices domain.PriceMap) decimal.Decimal {
	return s.PortfolioValue(player, prices).Sub(s.PortfolioValue(top, prices))
}

// VsTopPercent returns the player's shortfall versus the top performer as a
// percentage of the top value. Defined as zero when the top value is zero.
func (s *Service) VsTopPercent(player, top *domain.Player, prices domain.PriceMap) decimal.Decimal {
	topValue := s.PortfolioValue(top, prices)
	if topValue.IsZero() {
		return decimal.Zero
	}
	return s.PortfolioValue(player, prices).Sub(topValue).Div(topValue).Mul(decimal.NewFromInt(100))
}

// Rank returns the players ordered by descending portfolio value. The sort
// is stable: players with equal value retain their relative input order.
// The input slice is not modified.
func (s *Service) Rank(players []*domain.Player, prices domain.PriceMap) []*domain.Player {
	ranked := make([]*domain.Player, len(players))
	copy(ranked, players)

	values := make(map[*domain.Player]decimal.Decimal, len(players))
	for _, p := range ranked {
		values[p] = s.PortfolioValue(p, prices)
	}

	sort.SliceStable(ranked, func(i, j int) bool {
		return values[ranked[i]].GreaterThan(values[ranked[j]])
	})

	return ranked
}
