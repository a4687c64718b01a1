package leaderboard

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"
	"github.com/stockleague/backend/internal/domain"
	"github.com/stockleague/backend/internal/usecase/valuation"
)

// Row is one leaderboard entry: a player's current standing relative to the
// game start and to the top-ranked player.
type Row struct {
	Player        *domain.Player  `json:"player"`
	Value         decimal.Decimal `json:"value"`
	DollarChange  decimal.Decimal `json:"dollarChange"`
	PercentChange decimal.Decimal `json:"percentChange"`
	VsTopDollar   decimal.Decimal `json:"vsTopDollar"`
	VsTopPercent  decimal.Decimal `json:"vsTopPercent"`
}

// Service assembles the ranked leaderboard consumed by the presentation
// layer.
type Service struct {
	PlayerRepo domain.PlayerRepository
	Valuation  *valuation.Service
}

// NewService creates a new leaderboard Service instance.
func NewService(playerRepo domain.PlayerRepository, valuationService *valuation.Service) *Service {
	return &Service{
		PlayerRepo: playerRepo,
		Valuation:  valuationService,
	}
}

// Standings returns one row per player, ordered by descending portfolio
// value. Element 0 is the top performer; its vs-top figures are zero.
func (s *Service) Standings(ctx context.Context, prices domain.PriceMap) ([]Row, error) {
	players, err := s.PlayerRepo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list players: %w", err)
	}

	ranked := s.Valuation.Rank(players, prices)
	if len(ranked) == 0 {
		return []Row{}, nil
	}

	top := ranked[0]
	rows := make([]Row, 0, len(ranked))
	for _, p := range ranked {
		rows = append(rows, Row{
			Player:        p,
			Value:         s.Valuation.PortfolioValue(p, prices),
			DollarChange:  s.Valuation.DollarChange(p, prices),
			PercentChange: s.Valuation.PercentChange(p, prices),
			VsTopDollar:   s.Valuation.VsTopDollar(p, top, prices),
			VsTopPercent:  s.Valuation.VsTopPercent(p, top, prices),
		})
	}

	return rows, nil
}

// Tickers returns the distinct tickers held across all players, the set the
// refresher needs quotes for.
func (s *Service) Tickers(ctx context.Context) ([]string, error) {
	players, err := s.PlayerRepo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list players: %w", err)
	}

	seen := make(map[string]struct{})
	tickers := make([]string, 0)
	for _, p := range players {
		for _, t := range p.Tickers() {
			if _, ok := seen[t]; ok {
				continue
			}
			seen[t] = struct{}{}
			tickers = append(tickers, t)
		}
	}

	return tickers, nil
}
