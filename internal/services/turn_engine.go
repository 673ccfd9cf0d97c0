// Package services – TurnEngine
//
// The turn engine validates and applies a single move. The board is rebuilt
// from the move log on every call; nothing about the grid is cached. Checks
// run in a fixed order (game state, position range, turn, full board,
// occupancy) and every rejection is answered with feedback to the caller
// without touching the game. An accepted move may end the game, in which
// case the result, the statistics and the cleanup timer are written in the
// same transaction as the move.
package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"gorm.io/gorm"

	"github.com/tbourn/go-tictactoe-backend/internal/board"
	"github.com/tbourn/go-tictactoe-backend/internal/domain"
	"github.com/tbourn/go-tictactoe-backend/internal/observability"
	"github.com/tbourn/go-tictactoe-backend/internal/repo"
)

// Rejection reasons reported in PlayOutcome.Reason and metrics.
const (
	ReasonGameNotFound = "game_not_found"
	ReasonGameOver     = "game_over"
	ReasonNotStarted   = "not_started"
	ReasonOutOfRange   = "out_of_range"
	ReasonNotYourTurn  = "not_your_turn"
	ReasonFullBoard    = "full_board"
	ReasonOccupied     = "occupied"
)

// PlayOutcome describes what a Play call did.
type PlayOutcome struct {
	// Game is the game after the call, nil when it does not exist.
	Game *domain.Game
	// Board is derived from the move log after the call.
	Board board.Board
	// Accepted is true when the move was appended.
	Accepted bool
	// Reason names the rule that rejected the move.
	Reason string
	// Feedback lists the messages produced, in delivery order.
	Feedback []domain.Feedback
}

// TurnEngine applies moves.
type TurnEngine struct {
	Tx       *repo.Serializer
	Stats    *StatsAggregator
	Cleanup  *CleanupScheduler
	Messages *Composer
	Notifier Notifier
	Now      func() time.Time
}

func (e *TurnEngine) now() time.Time {
	if e.Now != nil {
		return e.Now()
	}
	return time.Now()
}

// Play attempts to place player's mark at position (0..8, row-major) in
// gameID. Rule violations are not errors; a non-nil error means the
// transaction failed or the move log is corrupt (board.ErrCorrupt).
func (e *TurnEngine) Play(ctx context.Context, gameID uint32, player string, position int) (*PlayOutcome, error) {
	ctx, span := otel.Tracer("services/TurnEngine").Start(ctx, "Play",
		trace.WithAttributes(
			attribute.Int64("game.id", int64(gameID)),
			attribute.String("player.id", player),
			attribute.Int("position", position),
		),
	)
	defer span.End()

	if strings.TrimSpace(player) == "" {
		return nil, ErrPlayerRequired
	}

	box := newOutbox(e.Messages, e.now())
	var (
		out   *PlayOutcome
		timer *domain.DeleteGameTimer
	)
	err := e.Tx.Do(ctx, func(tx *gorm.DB) error {
		out = &PlayOutcome{}
		var err error
		timer, err = e.play(ctx, tx, box, out, gameID, player, position)
		return err
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		if errors.Is(err, board.ErrCorrupt) {
			log.Error().Err(err).Uint32("game_id", gameID).Msg("move log corrupt")
		}
		return nil, err
	}

	box.flush(e.Notifier)
	if timer != nil {
		if err := e.Cleanup.Arm(*timer); err != nil {
			log.Error().Err(err).Uint32("game_id", gameID).Msg("arm cleanup")
		}
	}
	out.Feedback = box.items

	ev := log.Info().Uint32("game_id", gameID).Str("player_id", player).Int("position", position)
	switch {
	case !out.Accepted:
		observability.MovesRejected.WithLabelValues(out.Reason).Inc()
		ev.Str("reason", out.Reason).Msg("move rejected")
	case out.Game.Result.IsTerminal():
		observability.MovesAccepted.Inc()
		observability.GamesFinished.WithLabelValues(out.Game.Result.String()).Inc()
		ev.Str("result", out.Game.Result.String()).Str("board", out.Board.String()).Msg("game finished")
	default:
		observability.MovesAccepted.Inc()
		ev.Str("board", out.Board.String()).Msg("move applied")
	}
	return out, nil
}

func (e *TurnEngine) play(ctx context.Context, tx *gorm.DB, box *outbox, out *PlayOutcome, gameID uint32, player string, position int) (*domain.DeleteGameTimer, error) {
	g, err := repo.GetGame(ctx, tx, gameID)
	if errors.Is(err, repo.ErrNotFound) {
		// No game row to attach a record to; the message is delivered live only.
		box.tell(gameID, player, MsgGameNotFound)
		out.Reason = ReasonGameNotFound
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	out.Game = g

	moves, err := repo.ListMoves(ctx, tx, gameID)
	if err != nil {
		return nil, err
	}
	b, err := board.FromMoves(moves)
	if err != nil {
		return nil, fmt.Errorf("game %d: %w", gameID, err)
	}
	out.Board = b

	reject := func(reason, key string) (*domain.DeleteGameTimer, error) {
		out.Reason = reason
		return nil, box.give(ctx, tx, gameID, player, key)
	}

	switch {
	case g.Result.IsTerminal():
		return reject(ReasonGameOver, MsgGameOver)
	case g.Result == domain.ResultUnstarted:
		return reject(ReasonNotStarted, MsgNotStarted)
	case position < 0 || position >= board.Size:
		return reject(ReasonOutOfRange, MsgOutOfRange)
	}

	toPlay := g.P1
	if board.FilledCount(b)%2 == 1 {
		toPlay = g.P2
	}
	if player != toPlay {
		return reject(ReasonNotYourTurn, MsgNotYourTurn)
	}
	if board.IsFull(b) {
		return reject(ReasonFullBoard, MsgFullBoard)
	}
	if b[position] != board.Empty {
		return reject(ReasonOccupied, MsgOccupied)
	}

	mark := board.NextMark(b)
	if _, err := repo.CreateMove(ctx, tx, gameID, player, uint8(position), box.now); err != nil {
		return nil, err
	}
	b[position] = mark
	out.Board = b
	out.Accepted = true

	ack := MsgValidMoveX
	if mark == board.O {
		ack = MsgValidMoveO
	}
	if err := box.give(ctx, tx, gameID, g.P1, ack); err != nil {
		return nil, err
	}
	if err := box.give(ctx, tx, gameID, g.P2, ack); err != nil {
		return nil, err
	}

	switch {
	case board.HasWon(b, mark):
		g.Result = domain.ResultP1Won
		if mark == board.O {
			g.Result = domain.ResultP2Won
		}
		loser := g.Opponent(player)
		if err := box.give(ctx, tx, gameID, player, MsgYouWon); err != nil {
			return nil, err
		}
		if err := box.give(ctx, tx, gameID, loser, MsgYouLost); err != nil {
			return nil, err
		}
		if _, err := e.Stats.Adjust(ctx, tx, player, repo.StatsDelta{Wins: 1}); err != nil {
			return nil, err
		}
		if _, err := e.Stats.Adjust(ctx, tx, loser, repo.StatsDelta{Losses: 1}); err != nil {
			return nil, err
		}
	case board.IsFull(b):
		g.Result = domain.ResultTie
		for _, p := range []string{g.P1, g.P2} {
			if err := box.give(ctx, tx, gameID, p, MsgTie); err != nil {
				return nil, err
			}
			if _, err := e.Stats.Adjust(ctx, tx, p, repo.StatsDelta{Ties: 1}); err != nil {
				return nil, err
			}
		}
	default:
		return nil, nil
	}

	if err := repo.SaveGame(ctx, tx, g); err != nil {
		return nil, err
	}
	return e.Cleanup.Schedule(ctx, tx, g.ID)
}
