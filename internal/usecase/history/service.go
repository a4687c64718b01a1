package history

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stockleague/backend/internal/domain"
)

// Service handles historical portfolio-value snapshotting. Snapshots are
// append-only; entries older than the trailing retention window are pruned
// on write.
type Service struct {
	PlayerRepo domain.PlayerRepository
	Retention  time.Duration
	now        func() time.Time
}

// NewService creates a new history Service instance with the default 30-day
// retention window.
func NewService(playerRepo domain.PlayerRepository) *Service {
	return &Service{
		PlayerRepo: playerRepo,
		Retention:  domain.HistoryRetention,
		now:        time.Now,
	}
}

// Record appends a snapshot of the player's total portfolio value and prunes
// entries older than the retention window in the same write.
func (s *Service) Record(ctx context.Context, playerID uuid.UUID, value decimal.Decimal) error {
	if value.IsNegative() {
		return fmt.Errorf("%w: snapshot value cannot be negative", domain.ErrInvalidInput)
	}

	now := s.now()
	entry := domain.HistoricalValue{
		Date:  now,
		Value: value,
	}

	return s.PlayerRepo.AppendHistoricalValue(ctx, playerID, entry, now.Add(-s.Retention))
}

// Window returns the player's snapshots within the trailing retention
// window, sorted ascending by date.
func (s *Service) Window(ctx context.Context, playerID uuid.UUID) ([]domain.HistoricalValue, error) {
	player, err := s.PlayerRepo.GetByID(ctx, playerID)
	if err != nil {
		return nil, err
	}

	cutoff := s.now().Add(-s.Retention)
	window := make([]domain.HistoricalValue, 0, len(player.HistoricalValues))
	for _, entry := range player.HistoricalValues {
		if entry.Date.Before(cutoff) {
			continue
		}
		window = append(window, entry)
	}

	sort.Slice(window, func(i, j int) bool {
		return window[i].Date.Before(window[j].Date)
	})

	return window, nil
}

// TrendDeltas converts a snapshot window into the series the presentation
// layer renders as a bar sparkline: each snapshot's value minus the
// first-in-window value, positive and negative deltas colored differently.
func TrendDeltas(snapshots []domain.HistoricalValue) []decimal.Decimal {
	if len(snapshots) == 0 {
		return nil
	}

	first := snapshots[0].Value
	deltas := make([]decimal.Decimal, len(snapshots))
	for i, snap := range snapshots {
		deltas[i] = snap.Value.Sub(first)
	}
	return deltas
}
