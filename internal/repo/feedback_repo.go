// Package repo implements the data persistence layer for domain entities,
// backed by GORM. This file provides repository functions for the Feedback
// model: the per-player message log the engine writes and players read.
//
// Functions:
//
//   - CreateFeedback(ctx, db, gameID, playerID, message, now) -> *domain.Feedback, error
//     Inserts a feedback row. The game must exist (foreign key).
//
//   - CountFeedback / ListFeedbackPage
//     Paginated reads of the feedback addressed to one player in one game,
//     oldest first.
//
//   - DeleteFeedback(ctx, db, gameID) -> (int64, error)
//     Removes every feedback row of a game (cleanup).
package repo

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/tbourn/go-tictactoe-backend/internal/domain"
)

// CreateFeedback inserts a feedback row for the given game and player.
func CreateFeedback(ctx context.Context, db *gorm.DB, gameID uint32, playerID, message string, now time.Time) (*domain.Feedback, error) {
	fb := &domain.Feedback{
		GameID:   gameID,
		PlayerID: playerID,
		When:     now.UTC(),
		Message:  message,
	}
	if err := db.WithContext(ctx).Create(fb).Error; err != nil {
		return nil, err
	}
	return fb, nil
}

// CountFeedback returns how many feedback rows playerID has for gameID.
func CountFeedback(ctx context.Context, db *gorm.DB, gameID uint32, playerID string) (int64, error) {
	var total int64
	err := db.WithContext(ctx).
		Model(&domain.Feedback{}).
		Where("game_id = ? AND player_id = ?", gameID, playerID).
		Count(&total).Error
	return total, err
}

// ListFeedbackPage returns a page of feedback for (gameID, playerID) ordered
// oldest first. The caller computes offset and limit.
func ListFeedbackPage(ctx context.Context, db *gorm.DB, gameID uint32, playerID string, offset, limit int) ([]domain.Feedback, error) {
	var out []domain.Feedback
	err := db.WithContext(ctx).
		Where("game_id = ? AND player_id = ?", gameID, playerID).
		Order("id ASC").
		Offset(offset).
		Limit(limit).
		Find(&out).Error
	return out, err
}

// DeleteFeedback removes every feedback row of a game.
func DeleteFeedback(ctx context.Context, db *gorm.DB, gameID uint32) (int64, error) {
	res := db.WithContext(ctx).Where("game_id = ?", gameID).Delete(&domain.Feedback{})
	return res.RowsAffected, res.Error
}
