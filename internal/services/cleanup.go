// Package services – CleanupScheduler
//
// Finished and abandoned games are reclaimed a short delay after their
// terminal transition. Scheduling writes a delete_game_timers row inside the
// transition's own transaction; once that transaction commits, Arm registers
// a gocron one-time job that runs Purge. Because the timer rows are durable,
// Restore can re-arm every pending cleanup after a restart.
package services

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/go-co-op/gocron/v2"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"gorm.io/gorm"

	"github.com/tbourn/go-tictactoe-backend/internal/domain"
	"github.com/tbourn/go-tictactoe-backend/internal/observability"
	"github.com/tbourn/go-tictactoe-backend/internal/repo"
)

// DefaultCleanupDelay is how long a terminal game stays readable.
const DefaultCleanupDelay = 250 * time.Millisecond

// immediateWindow is the lead time under which a timer fires right away;
// gocron rejects one-time start times that are already in the past.
const immediateWindow = 10 * time.Millisecond

// CleanupScheduler owns the deferred deletion of terminal games.
type CleanupScheduler struct {
	Tx    *repo.Serializer
	Delay time.Duration
	Now   func() time.Time

	sched   gocron.Scheduler
	mu      sync.Mutex
	stopped bool
}

// NewCleanupScheduler starts a gocron scheduler bound to tx. A non-positive
// delay selects DefaultCleanupDelay.
func NewCleanupScheduler(tx *repo.Serializer, delay time.Duration) (*CleanupScheduler, error) {
	if delay <= 0 {
		delay = DefaultCleanupDelay
	}
	s, err := gocron.NewScheduler(
		gocron.WithLocation(time.UTC),
		gocron.WithGlobalJobOptions(
			gocron.WithEventListeners(
				gocron.AfterJobRunsWithError(func(_ uuid.UUID, name string, err error) {
					log.Error().Err(err).Str("job", name).Msg("cleanup job failed")
				}),
			),
		),
	)
	if err != nil {
		return nil, fmt.Errorf("create scheduler: %w", err)
	}
	s.Start()
	return &CleanupScheduler{Tx: tx, Delay: delay, sched: s}, nil
}

func (c *CleanupScheduler) now() time.Time {
	if c.Now != nil {
		return c.Now()
	}
	return time.Now()
}

// Schedule records a cleanup for gameID at now+Delay using tx. It returns
// nil when a timer for the game already exists. The returned timer must be
// passed to Arm after tx commits.
func (c *CleanupScheduler) Schedule(ctx context.Context, tx *gorm.DB, gameID uint32) (*domain.DeleteGameTimer, error) {
	at := c.now().Add(c.Delay)
	t, created, err := repo.CreateTimer(ctx, tx, gameID, at)
	if err != nil {
		return nil, err
	}
	if !created {
		log.Debug().Uint32("game_id", gameID).Msg("cleanup already scheduled")
		return nil, nil
	}
	log.Info().Uint32("game_id", gameID).Dur("delay", c.Delay).Msg("cleanup scheduled")
	return t, nil
}

// Arm registers a one-time job firing Purge for t.GameID at t.ScheduledAt.
// Past-due timers fire immediately. The job is limited to a single run so the
// scheduler drops it once the purge has fired.
func (c *CleanupScheduler) Arm(t domain.DeleteGameTimer) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.stopped {
		return ErrSchedulerStopped
	}

	start := gocron.OneTimeJobStartImmediately()
	if t.ScheduledAt.Sub(c.now()) > immediateWindow {
		start = gocron.OneTimeJobStartDateTime(t.ScheduledAt)
	}
	gameID := t.GameID
	_, err := c.sched.NewJob(
		gocron.OneTimeJob(start),
		gocron.NewTask(func() error {
			return c.Purge(context.Background(), gameID)
		}),
		gocron.WithName(fmt.Sprintf("purge-game-%d", gameID)),
		gocron.WithLimitedRuns(1),
	)
	if err != nil {
		return fmt.Errorf("arm cleanup for game %d: %w", gameID, err)
	}
	return nil
}

// Purge deletes the game with its moves, feedback and timer. Purging a game
// that is already gone is a no-op.
func (c *CleanupScheduler) Purge(ctx context.Context, gameID uint32) error {
	ctx, span := otel.Tracer("services/CleanupScheduler").Start(ctx, "Purge",
		trace.WithAttributes(attribute.Int64("game.id", int64(gameID))),
	)
	defer span.End()

	var games int64
	err := c.Tx.Do(ctx, func(tx *gorm.DB) error {
		if _, err := repo.DeleteFeedback(ctx, tx, gameID); err != nil {
			return err
		}
		if _, err := repo.DeleteMoves(ctx, tx, gameID); err != nil {
			return err
		}
		n, err := repo.DeleteGame(ctx, tx, gameID)
		if err != nil {
			return err
		}
		games = n
		_, err = repo.DeleteTimer(ctx, tx, gameID)
		return err
	})
	if err != nil {
		span.RecordError(err)
		return fmt.Errorf("purge game %d: %w", gameID, err)
	}
	if games > 0 {
		observability.GamesPurged.Inc()
		log.Info().Uint32("game_id", gameID).Msg("game purged")
	}
	return nil
}

// Restore re-arms every persisted timer and returns how many were armed.
func (c *CleanupScheduler) Restore(ctx context.Context) (int, error) {
	timers, err := repo.ListTimers(ctx, c.Tx.DB)
	if err != nil {
		return 0, err
	}
	for _, t := range timers {
		if err := c.Arm(t); err != nil {
			return 0, err
		}
	}
	if len(timers) > 0 {
		log.Info().Int("timers", len(timers)).Msg("pending cleanups restored")
	}
	return len(timers), nil
}

// SweepIdempotency registers a recurring job removing expired idempotency
// records every interval.
func (c *CleanupScheduler) SweepIdempotency(interval time.Duration) error {
	if interval <= 0 {
		return nil
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.stopped {
		return ErrSchedulerStopped
	}
	_, err := c.sched.NewJob(
		gocron.DurationJob(interval),
		gocron.NewTask(func() error {
			ctx := context.Background()
			return c.Tx.Do(ctx, func(tx *gorm.DB) error {
				n, err := repo.PurgeExpiredIdempotency(ctx, tx, c.now().UTC())
				if n > 0 {
					log.Debug().Int64("rows", n).Msg("expired idempotency keys removed")
				}
				return err
			})
		}),
		gocron.WithName("sweep-idempotency"),
	)
	return err
}

// Shutdown stops the scheduler, waiting for running jobs. Pending timers stay
// in the database for Restore.
func (c *CleanupScheduler) Shutdown() error {
	c.mu.Lock()
	if c.stopped {
		c.mu.Unlock()
		return nil
	}
	c.stopped = true
	c.mu.Unlock()
	return c.sched.Shutdown()
}
