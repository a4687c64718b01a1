package seeder

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stockleague/backend/internal/domain"
)

// Seeder creates the game's default players and handles the whole-game
// reset. Every player starts with the same fixed cash amount and a single
// seed snapshot equal to it.
type Seeder struct {
	repo         domain.PlayerRepository
	playerNames  []string
	startingCash decimal.Decimal
}

// NewSeeder creates a new Seeder instance.
func NewSeeder(repo domain.PlayerRepository, playerNames []string, startingCash decimal.Decimal) *Seeder {
	return &Seeder{
		repo:         repo,
		playerNames:  playerNames,
		startingCash: startingCash,
	}
}

// Seed ensures the configured default players exist. Players that already
// exist (matched by name) are left untouched, so Seed is safe to run on
// every startup.
func (s *Seeder) Seed(ctx context.Context) error {
	existing, err := s.repo.List(ctx)
	if err != nil {
		return fmt.Errorf("failed to list players: %w", err)
	}

	byName := make(map[string]struct{}, len(existing))
	for _, p := range existing {
		byName[p.Name] = struct{}{}
	}

	for _, name := range s.playerNames {
		if _, ok := byName[name]; ok {
			continue
		}
		if err := s.createPlayer(ctx, name); err != nil {
			return err
		}
	}

	return nil
}

// Reset deletes every player and recreates the defaults at the starting cash
// amount with empty holdings and a fresh seed snapshot. Destructive; callers
// must gate it behind the admin capability check.
func (s *Seeder) Reset(ctx context.Context) ([]*domain.Player, error) {
	if len(s.playerNames) == 0 {
		return nil, errors.New("no default players configured")
	}

	if err := s.repo.DeleteAll(ctx); err != nil {
		return nil, fmt.Errorf("failed to delete players: %w", err)
	}

	for _, name := range s.playerNames {
		if err := s.createPlayer(ctx, name); err != nil {
			return nil, err
		}
	}

	players, err := s.repo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list players after reset: %w", err)
	}

	return players, nil
}

// NewPlayer builds a player at the starting cash with an initial snapshot
// equal to it.
func (s *Seeder) NewPlayer(name string) *domain.Player {
	now := time.Now()
	return &domain.Player{
		ID:            uuid.New(),
		Name:          name,
		CashRemaining: s.startingCash,
		Portfolio:     []domain.Holding{},
		HistoricalValues: []domain.HistoricalValue{
			{Date: now, Value: s.startingCash},
		},
		CreatedAt: now,
		UpdatedAt: now,
	}
}

func (s *Seeder) createPlayer(ctx context.Context, name string) error {
	player := s.NewPlayer(name)

	if err := player.Validate(); err != nil {
		return err
	}

	if err := s.repo.Create(ctx, player); err != nil {
		return fmt.Errorf("failed to create player %s: %w", name, err)
	}

	return nil
}
