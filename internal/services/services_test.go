package services

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	sqlite "github.com/glebarez/sqlite"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/tbourn/go-tictactoe-backend/internal/domain"
	"github.com/tbourn/go-tictactoe-backend/internal/repo"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:enginesvc_%s?mode=memory&cache=shared", uuid.NewString())

	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	db.Exec("PRAGMA foreign_keys=ON;")
	require.NoError(t, repo.AutoMigrate(db))
	return db
}

// recorder is a Notifier capturing live deliveries.
type recorder struct {
	mu  sync.Mutex
	got []domain.Feedback
}

func (r *recorder) Deliver(fb domain.Feedback) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.got = append(r.got, fb)
}

func (r *recorder) messagesFor(player string) []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []string
	for _, fb := range r.got {
		if fb.PlayerID == player {
			out = append(out, fb.Message)
		}
	}
	return out
}

type harness struct {
	db      *gorm.DB
	tx      *repo.Serializer
	stats   *StatsAggregator
	cleanup *CleanupScheduler
	mm      *Matchmaker
	engine  *TurnEngine
	live    *recorder
}

func newHarness(t *testing.T, delay time.Duration) *harness {
	t.Helper()
	db := newTestDB(t)
	tx := repo.NewSerializer(db)
	cl, err := NewCleanupScheduler(tx, delay)
	require.NoError(t, err)
	t.Cleanup(func() { _ = cl.Shutdown() })

	h := &harness{
		db:      db,
		tx:      tx,
		stats:   &StatsAggregator{DB: db},
		cleanup: cl,
		live:    &recorder{},
	}
	msgs := NewComposer("en")
	h.mm = &Matchmaker{Tx: tx, Stats: h.stats, Cleanup: cl, Messages: msgs, Notifier: h.live}
	h.engine = &TurnEngine{Tx: tx, Stats: h.stats, Cleanup: cl, Messages: msgs, Notifier: h.live}
	return h
}

// pair connects p1 then p2 and returns their shared, started game.
func (h *harness) pair(t *testing.T, p1, p2 string) *domain.Game {
	t.Helper()
	ctx := context.Background()
	g1, err := h.mm.Connect(ctx, p1)
	require.NoError(t, err)
	g2, err := h.mm.Connect(ctx, p2)
	require.NoError(t, err)
	require.Equal(t, g1.ID, g2.ID)
	require.Equal(t, domain.ResultOngoing, g2.Result)
	return g2
}

// playAll plays positions alternately for p1 and p2, requiring acceptance.
func (h *harness) playAll(t *testing.T, g *domain.Game, positions ...int) *PlayOutcome {
	t.Helper()
	var out *PlayOutcome
	for i, pos := range positions {
		player := g.P1
		if i%2 == 1 {
			player = g.P2
		}
		var err error
		out, err = h.engine.Play(context.Background(), g.ID, player, pos)
		require.NoError(t, err)
		require.Truef(t, out.Accepted, "move %d at %d rejected: %s", i, pos, out.Reason)
	}
	return out
}

func (h *harness) count(t *testing.T, model any, where string, args ...any) int64 {
	t.Helper()
	var n int64
	require.NoError(t, h.db.Model(model).Where(where, args...).Count(&n).Error)
	return n
}

func (h *harness) storedFeedback(t *testing.T, gameID uint32, player string) []string {
	t.Helper()
	var rows []domain.Feedback
	require.NoError(t, h.db.Where("game_id = ? AND player_id = ?", gameID, player).Order("id").Find(&rows).Error)
	out := make([]string, 0, len(rows))
	for _, r := range rows {
		out = append(out, r.Message)
	}
	return out
}
