// Package repo implements the data persistence layer for domain entities,
// backed by GORM. This file provides repository functions for the Game model.
//
// All functions are context-aware and accept a *gorm.DB handle, making them
// safe for use within transactions. They follow the "thin repository"
// approach: no business rules, only persistence and query composition.
//
// Error semantics:
//   - When a game is not found, functions return gorm.ErrRecordNotFound
//     (also exported here as ErrNotFound for convenience).
//   - On DB errors (constraint violations, connectivity issues, etc.),
//     the raw gorm error is propagated.
//
// Functions:
//
//   - CreateGame(ctx, db, p1, now) -> *domain.Game, error
//     Inserts an unstarted game with p1 seated and an empty P2 seat.
//
//   - GetGame(ctx, db, id) -> *domain.Game, error
//     Fetches a game by id, or ErrNotFound.
//
//   - FindUnstartedGame(ctx, db, exclude) -> *domain.Game, error
//     First unstarted game (lowest id) whose P1 is not exclude.
//
//   - FindActiveGameByPlayer(ctx, db, player) -> *domain.Game, error
//     First unstarted or ongoing game in which player holds a seat.
//
//   - ListActiveGamesByPlayer(ctx, db, player) -> []domain.Game, error
//     Every unstarted or ongoing game seating player, by ascending id.
//
//   - SaveGame(ctx, db, g) -> error
//     Persists every column of g.
//
//   - DeleteGame(ctx, db, id) -> (int64, error)
//     Hard-deletes the game row and reports rows affected.
package repo

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/tbourn/go-tictactoe-backend/internal/domain"
)

// ErrNotFound is returned when a requested record does not exist.
// It aliases gorm.ErrRecordNotFound for convenience and consistency
// across the service layer and handlers.
var ErrNotFound = gorm.ErrRecordNotFound

// CreateGame inserts a new unstarted game with p1 in the first seat.
func CreateGame(ctx context.Context, db *gorm.DB, p1 string, now time.Time) (*domain.Game, error) {
	g := &domain.Game{
		P1:     p1,
		P2:     domain.NoPlayer,
		Result: domain.ResultUnstarted,
		When:   now.UTC(),
		Ready1: true,
	}
	if err := db.WithContext(ctx).Create(g).Error; err != nil {
		return nil, err
	}
	return g, nil
}

// GetGame fetches a single game by id. If the record does not exist, it
// returns ErrNotFound.
func GetGame(ctx context.Context, db *gorm.DB, id uint32) (*domain.Game, error) {
	var g domain.Game
	if err := db.WithContext(ctx).Where("id = ?", id).First(&g).Error; err != nil {
		return nil, err
	}
	return &g, nil
}

// FindUnstartedGame returns the unstarted game with the lowest id whose P1
// differs from exclude, or ErrNotFound when nobody is waiting.
func FindUnstartedGame(ctx context.Context, db *gorm.DB, exclude string) (*domain.Game, error) {
	var g domain.Game
	err := db.WithContext(ctx).
		Where("result = ? AND p1 <> ?", domain.ResultUnstarted, exclude).
		Order("id ASC").
		First(&g).Error
	if err != nil {
		return nil, err
	}
	return &g, nil
}

// FindActiveGameByPlayer returns the lowest-id game that is still unstarted
// or ongoing and seats player, or ErrNotFound.
func FindActiveGameByPlayer(ctx context.Context, db *gorm.DB, player string) (*domain.Game, error) {
	var g domain.Game
	err := db.WithContext(ctx).
		Where("result IN ? AND (p1 = ? OR p2 = ?)",
			[]domain.Result{domain.ResultUnstarted, domain.ResultOngoing}, player, player).
		Order("id ASC").
		First(&g).Error
	if err != nil {
		return nil, err
	}
	return &g, nil
}

// ListActiveGamesByPlayer returns every unstarted or ongoing game seating
// player, ordered by id. An empty slice means the player holds no live seat.
func ListActiveGamesByPlayer(ctx context.Context, db *gorm.DB, player string) ([]domain.Game, error) {
	var games []domain.Game
	err := db.WithContext(ctx).
		Where("result IN ? AND (p1 = ? OR p2 = ?)",
			[]domain.Result{domain.ResultUnstarted, domain.ResultOngoing}, player, player).
		Order("id ASC").
		Find(&games).Error
	return games, err
}

// SaveGame writes all columns of g.
func SaveGame(ctx context.Context, db *gorm.DB, g *domain.Game) error {
	return db.WithContext(ctx).Save(g).Error
}

// DeleteGame removes the game row. A missing row is not an error; callers
// inspect the returned count.
func DeleteGame(ctx context.Context, db *gorm.DB, id uint32) (int64, error) {
	res := db.WithContext(ctx).Where("id = ?", id).Delete(&domain.Game{})
	return res.RowsAffected, res.Error
}
