package services

import (
	"context"
	"errors"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"gorm.io/gorm"

	"github.com/tbourn/go-tictactoe-backend/internal/domain"
	"github.com/tbourn/go-tictactoe-backend/internal/repo"
)

// StatsAggregator maintains per-player counters. Ensure and Adjust run inside
// the caller's transaction; Get reads through DB.
type StatsAggregator struct {
	DB  *gorm.DB
	Now func() time.Time
}

func (s *StatsAggregator) now() time.Time {
	if s != nil && s.Now != nil {
		return s.Now()
	}
	return time.Now()
}

// Ensure creates a zero-valued row for player on first sight, and counts a
// start on every later call.
func (s *StatsAggregator) Ensure(ctx context.Context, tx *gorm.DB, player string) error {
	now := s.now()
	existed, err := repo.AddPlayerStats(ctx, tx, player, repo.StatsDelta{Starts: 1}, now)
	if err != nil || existed {
		return err
	}
	_, err = repo.CreatePlayerStats(ctx, tx, player, now)
	return err
}

// Adjust adds d to player's counters and reports whether the row existed.
// A missing row is left missing.
func (s *StatsAggregator) Adjust(ctx context.Context, tx *gorm.DB, player string, d repo.StatsDelta) (bool, error) {
	if d.IsZero() || player == domain.NoPlayer {
		return false, nil
	}
	return repo.AddPlayerStats(ctx, tx, player, d, s.now())
}

// Get returns the stats of player or ErrStatsNotFound.
func (s *StatsAggregator) Get(ctx context.Context, player string) (*domain.PlayerStats, error) {
	ctx, span := otel.Tracer("services/StatsAggregator").Start(ctx, "Get",
		trace.WithAttributes(attribute.String("player.id", player)),
	)
	defer span.End()

	if strings.TrimSpace(player) == "" {
		return nil, ErrPlayerRequired
	}
	st, err := repo.GetPlayerStats(ctx, s.DB, player)
	if errors.Is(err, repo.ErrNotFound) {
		return nil, ErrStatsNotFound
	}
	return st, err
}
