package repo

import (
	"context"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/tbourn/go-tictactoe-backend/internal/domain"
)

// CreateTimer records a pending cleanup for gameID firing at `at`. When a
// timer for the game already exists nothing is written and created is
// false; this is not an error.
func CreateTimer(ctx context.Context, db *gorm.DB, gameID uint32, at time.Time) (timer *domain.DeleteGameTimer, created bool, err error) {
	t := &domain.DeleteGameTimer{
		ScheduledAt: at.UTC(),
		GameID:      gameID,
	}
	res := db.WithContext(ctx).Clauses(clause.OnConflict{DoNothing: true}).Create(t)
	if res.Error != nil {
		if IsDuplicate(res.Error) {
			return nil, false, nil
		}
		return nil, false, res.Error
	}
	if res.RowsAffected == 0 {
		return nil, false, nil
	}
	return t, true, nil
}

// ListTimers returns every pending timer, earliest first.
func ListTimers(ctx context.Context, db *gorm.DB) ([]domain.DeleteGameTimer, error) {
	var out []domain.DeleteGameTimer
	err := db.WithContext(ctx).Order("scheduled_at ASC, scheduled_id ASC").Find(&out).Error
	return out, err
}

// DeleteTimer removes the timer of gameID, if any.
func DeleteTimer(ctx context.Context, db *gorm.DB, gameID uint32) (int64, error) {
	res := db.WithContext(ctx).Where("game_id = ?", gameID).Delete(&domain.DeleteGameTimer{})
	return res.RowsAffected, res.Error
}
