// Package repo implements the data persistence layer for domain entities,
// backed by GORM. This file provides the per-player statistics queries used
// by the stats aggregator. Counters are only ever incremented, in SQL, so a
// concurrent reader never observes a lost update.
package repo

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/tbourn/go-tictactoe-backend/internal/domain"
)

// StatsDelta holds non-negative increments for PlayerStats counters.
type StatsDelta struct {
	Starts          uint32
	EarlyDepartures uint32
	Wins            uint32
	Ties            uint32
	Losses          uint32
}

// IsZero reports whether every increment is zero.
func (d StatsDelta) IsZero() bool { return d == StatsDelta{} }

// GetPlayerStats returns the stats row of playerID or ErrNotFound.
func GetPlayerStats(ctx context.Context, db *gorm.DB, playerID string) (*domain.PlayerStats, error) {
	var s domain.PlayerStats
	if err := db.WithContext(ctx).Where("player_id = ?", playerID).First(&s).Error; err != nil {
		return nil, err
	}
	return &s, nil
}

// CreatePlayerStats inserts a zero-valued stats row for playerID.
func CreatePlayerStats(ctx context.Context, db *gorm.DB, playerID string, now time.Time) (*domain.PlayerStats, error) {
	s := &domain.PlayerStats{
		PlayerID:  playerID,
		CreatedAt: now.UTC(),
		UpdatedAt: now.UTC(),
	}
	if err := db.WithContext(ctx).Create(s).Error; err != nil {
		return nil, err
	}
	return s, nil
}

// AddPlayerStats adds d to the counters of playerID and refreshes
// updated_at. It reports whether a row existed; no row is created.
//
// Return values:
//   - existed: false when playerID has no stats row
//   - err:     database error, if any
func AddPlayerStats(ctx context.Context, db *gorm.DB, playerID string, d StatsDelta, now time.Time) (existed bool, err error) {
	res := db.WithContext(ctx).
		Model(&domain.PlayerStats{}).
		Where("player_id = ?", playerID).
		Updates(map[string]any{
			"starts":           gorm.Expr("starts + ?", d.Starts),
			"early_departures": gorm.Expr("early_departures + ?", d.EarlyDepartures),
			"wins":             gorm.Expr("wins + ?", d.Wins),
			"ties":             gorm.Expr("ties + ?", d.Ties),
			"losses":           gorm.Expr("losses + ?", d.Losses),
			"updated_at":       now.UTC(),
		})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}
