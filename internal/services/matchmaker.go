// Package services – Matchmaker
//
// The matchmaker pairs arriving players into games and abandons games when a
// seated player leaves. Matching looks up the lowest-id unstarted game inside
// the same transaction that binds the second seat, so two concurrent
// arrivals can never claim the same game.
package services

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"gorm.io/gorm"

	"github.com/tbourn/go-tictactoe-backend/internal/domain"
	"github.com/tbourn/go-tictactoe-backend/internal/observability"
	"github.com/tbourn/go-tictactoe-backend/internal/repo"
)

// Matchmaker handles player arrival and departure.
type Matchmaker struct {
	Tx       *repo.Serializer
	Stats    *StatsAggregator
	Cleanup  *CleanupScheduler
	Messages *Composer
	Notifier Notifier
	Now      func() time.Time
}

func (m *Matchmaker) now() time.Time {
	if m.Now != nil {
		return m.Now()
	}
	return time.Now()
}

// Connect seats player in a waiting game, starting it, or opens a new game
// for player to wait in. A player is never matched against their own game.
func (m *Matchmaker) Connect(ctx context.Context, player string) (*domain.Game, error) {
	ctx, span := otel.Tracer("services/Matchmaker").Start(ctx, "Connect",
		trace.WithAttributes(attribute.String("player.id", player)),
	)
	defer span.End()

	if strings.TrimSpace(player) == "" {
		return nil, ErrPlayerRequired
	}

	box := newOutbox(m.Messages, m.now())
	var (
		game    *domain.Game
		started bool
	)
	err := m.Tx.Do(ctx, func(tx *gorm.DB) error {
		if err := m.Stats.Ensure(ctx, tx, player); err != nil {
			return err
		}

		g, err := repo.FindUnstartedGame(ctx, tx, player)
		switch {
		case err == nil:
			g.P2 = player
			g.Ready2 = true
			g.Result = domain.ResultOngoing
			if err := repo.SaveGame(ctx, tx, g); err != nil {
				return err
			}
			if err := box.give(ctx, tx, g.ID, g.P1, MsgStartFirst); err != nil {
				return err
			}
			if err := box.give(ctx, tx, g.ID, g.P2, MsgStartSecond); err != nil {
				return err
			}
			started = true
		case errors.Is(err, repo.ErrNotFound):
			g, err = repo.CreateGame(ctx, tx, player, box.now)
			if err != nil {
				return err
			}
			if err := box.give(ctx, tx, g.ID, player, MsgWaiting); err != nil {
				return err
			}
		default:
			return err
		}
		game = g
		return nil
	})
	if err != nil {
		span.RecordError(err)
		return nil, err
	}

	box.flush(m.Notifier)
	span.SetAttributes(attribute.Int64("game.id", int64(game.ID)))
	if started {
		observability.GamesStarted.Inc()
		log.Info().Uint32("game_id", game.ID).Str("p1", game.P1).Str("p2", game.P2).Msg("game starting")
	} else {
		observability.GamesCreated.Inc()
		log.Info().Uint32("game_id", game.ID).Str("player_id", player).Msg("game created")
	}
	return game, nil
}

// Disconnect abandons every live game seating player. Each abandoned game
// notifies the opponent, counts one early departure and schedules cleanup.
// It is a no-op when player has no unstarted or ongoing game.
func (m *Matchmaker) Disconnect(ctx context.Context, player string) error {
	ctx, span := otel.Tracer("services/Matchmaker").Start(ctx, "Disconnect",
		trace.WithAttributes(attribute.String("player.id", player)),
	)
	defer span.End()

	if strings.TrimSpace(player) == "" {
		return ErrPlayerRequired
	}

	box := newOutbox(m.Messages, m.now())
	var (
		games  []domain.Game
		timers []domain.DeleteGameTimer
	)
	err := m.Tx.Do(ctx, func(tx *gorm.DB) error {
		live, err := repo.ListActiveGamesByPlayer(ctx, tx, player)
		if err != nil {
			return err
		}
		for i := range live {
			g := &live[i]
			if g.P1 == player {
				g.Ready1 = false
			} else {
				g.Ready2 = false
			}
			g.Result = domain.ResultAbandoned
			if err := repo.SaveGame(ctx, tx, g); err != nil {
				return err
			}
			if err := box.give(ctx, tx, g.ID, g.Opponent(player), MsgOpponentLeft); err != nil {
				return err
			}
			if _, err := m.Stats.Adjust(ctx, tx, player, repo.StatsDelta{EarlyDepartures: 1}); err != nil {
				return err
			}
			timer, err := m.Cleanup.Schedule(ctx, tx, g.ID)
			if err != nil {
				return err
			}
			if timer != nil {
				timers = append(timers, *timer)
			}
		}
		games = live
		return nil
	})
	if err != nil {
		span.RecordError(err)
		return err
	}
	if len(games) == 0 {
		log.Debug().Str("player_id", player).Msg("disconnect without live game")
		return nil
	}

	box.flush(m.Notifier)
	for _, t := range timers {
		if err := m.Cleanup.Arm(t); err != nil {
			log.Error().Err(err).Uint32("game_id", t.GameID).Msg("arm cleanup")
		}
	}
	span.SetAttributes(attribute.Int("games.abandoned", len(games)))
	for _, g := range games {
		observability.GamesFinished.WithLabelValues(g.Result.String()).Inc()
		log.Info().Uint32("game_id", g.ID).Str("player_id", player).Msg("game abandoned")
	}
	return nil
}
