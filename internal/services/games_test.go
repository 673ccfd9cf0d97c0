package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tbourn/go-tictactoe-backend/internal/board"
	"github.com/tbourn/go-tictactoe-backend/internal/domain"
)

func TestGameReader_SnapshotDerivesBoard(t *testing.T) {
	h := newHarness(t, DefaultCleanupDelay)
	g := h.pair(t, "alice", "bob")
	h.playAll(t, g, 0, 4, 1)

	r := &GameReader{DB: h.db}
	snap, err := r.Snapshot(context.Background(), g.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.ResultOngoing, snap.Game.Result)
	assert.Equal(t, 3, snap.Moves)
	assert.Equal(t, board.X, snap.Board[0])
	assert.Equal(t, board.X, snap.Board[1])
	assert.Equal(t, board.O, snap.Board[4])
	assert.Equal(t, board.O, board.NextMark(snap.Board))
}

func TestGameReader_UnknownGame(t *testing.T) {
	h := newHarness(t, DefaultCleanupDelay)
	r := &GameReader{DB: h.db}

	_, err := r.Snapshot(context.Background(), 404)
	assert.ErrorIs(t, err, ErrGameNotFound)
	_, err = r.ActiveFor(context.Background(), "nobody")
	assert.ErrorIs(t, err, ErrGameNotFound)
}

func TestGameReader_ActiveFor(t *testing.T) {
	h := newHarness(t, DefaultCleanupDelay)
	ctx := context.Background()
	g, err := h.mm.Connect(ctx, "alice")
	require.NoError(t, err)

	r := &GameReader{DB: h.db}
	snap, err := r.ActiveFor(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, g.ID, snap.Game.ID)
	assert.Equal(t, domain.ResultUnstarted, snap.Game.Result)
	assert.Zero(t, snap.Moves)
}
