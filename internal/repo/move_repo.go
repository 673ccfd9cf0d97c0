package repo

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/tbourn/go-tictactoe-backend/internal/domain"
)

// CreateMove appends a move to a game's log.
func CreateMove(ctx context.Context, db *gorm.DB, gameID uint32, player string, position uint8, now time.Time) (*domain.GameMove, error) {
	m := &domain.GameMove{
		GameID:   gameID,
		PlayerID: player,
		When:     now.UTC(),
		Position: position,
	}
	if err := db.WithContext(ctx).Create(m).Error; err != nil {
		return nil, err
	}
	return m, nil
}

// ListMoves returns the moves of a game in creation order (ascending id).
func ListMoves(ctx context.Context, db *gorm.DB, gameID uint32) ([]domain.GameMove, error) {
	var out []domain.GameMove
	err := db.WithContext(ctx).
		Where("game_id = ?", gameID).
		Order("id ASC").
		Find(&out).Error
	return out, err
}

// DeleteMoves removes every move of a game and reports rows affected.
func DeleteMoves(ctx context.Context, db *gorm.DB, gameID uint32) (int64, error) {
	res := db.WithContext(ctx).Where("game_id = ?", gameID).Delete(&domain.GameMove{})
	return res.RowsAffected, res.Error
}
