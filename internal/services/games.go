package services

import (
	"context"
	"errors"
	"fmt"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"gorm.io/gorm"

	"github.com/tbourn/go-tictactoe-backend/internal/board"
	"github.com/tbourn/go-tictactoe-backend/internal/domain"
	"github.com/tbourn/go-tictactoe-backend/internal/repo"
)

// Snapshot is a game together with the board derived from its move log.
type Snapshot struct {
	Game  domain.Game
	Board board.Board
	Moves int
}

// GameReader serves read-only game lookups. It never writes, so it may use
// the pool directly instead of going through the Serializer.
type GameReader struct {
	DB *gorm.DB
}

// Snapshot loads gameID and rebuilds its board. A purged or unknown id yields
// ErrGameNotFound; an inconsistent log yields a wrapped board.ErrCorrupt.
func (r *GameReader) Snapshot(ctx context.Context, gameID uint32) (*Snapshot, error) {
	ctx, span := otel.Tracer("services/GameReader").Start(ctx, "Snapshot",
		trace.WithAttributes(attribute.Int64("game.id", int64(gameID))),
	)
	defer span.End()

	g, err := repo.GetGame(ctx, r.DB, gameID)
	if errors.Is(err, repo.ErrNotFound) {
		return nil, ErrGameNotFound
	}
	if err != nil {
		return nil, err
	}
	moves, err := repo.ListMoves(ctx, r.DB, gameID)
	if err != nil {
		return nil, err
	}
	b, err := board.FromMoves(moves)
	if err != nil {
		return nil, fmt.Errorf("game %d: %w", gameID, err)
	}
	return &Snapshot{Game: *g, Board: b, Moves: len(moves)}, nil
}

// ActiveFor returns the unstarted or ongoing game player takes part in, or
// ErrGameNotFound.
func (r *GameReader) ActiveFor(ctx context.Context, player string) (*Snapshot, error) {
	g, err := repo.FindActiveGameByPlayer(ctx, r.DB, player)
	if errors.Is(err, repo.ErrNotFound) {
		return nil, ErrGameNotFound
	}
	if err != nil {
		return nil, err
	}
	return r.Snapshot(ctx, g.ID)
}
