package domain

import (
	"fmt"
	"testing"
	"time"

	sqlite "github.com/glebarez/sqlite" // pure-Go SQLite (no CGO)
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	// One connection so the per-connection PRAGMA below sticks.
	if sqlDB, err := db.DB(); err == nil {
		sqlDB.SetMaxOpenConns(1)
	}
	// Enforce FKs so cascades actually execute.
	db.Exec("PRAGMA foreign_keys=ON;")
	return db
}

func TestTableNames(t *testing.T) {
	cases := map[string]string{
		(Game{}).TableName():            "games",
		(GameMove{}).TableName():        "game_moves",
		(Feedback{}).TableName():        "feedback",
		(PlayerStats{}).TableName():     "player_stats",
		(DeleteGameTimer{}).TableName(): "delete_game_timers",
		(Idempotency{}).TableName():     "idempotency",
	}
	for got, want := range cases {
		if got != want {
			t.Fatalf("TableName() = %q; want %q", got, want)
		}
	}
}

func TestResult_StringAndTerminal(t *testing.T) {
	tests := []struct {
		r        Result
		name     string
		terminal bool
	}{
		{ResultUnstarted, "unstarted", false},
		{ResultOngoing, "ongoing", false},
		{ResultP1Won, "p1_won", true},
		{ResultTie, "tie", true},
		{ResultP2Won, "p2_won", true},
		{ResultAbandoned, "abandoned", true},
		{Result(42), "unknown", false},
	}
	for _, tt := range tests {
		if got := tt.r.String(); got != tt.name {
			t.Fatalf("Result(%d).String() = %q; want %q", tt.r, got, tt.name)
		}
		if got := tt.r.IsTerminal(); got != tt.terminal {
			t.Fatalf("Result(%d).IsTerminal() = %v; want %v", tt.r, got, tt.terminal)
		}
	}
}

func TestGame_Opponent(t *testing.T) {
	g := Game{P1: "alice", P2: "bob"}
	if got := g.Opponent("alice"); got != "bob" {
		t.Fatalf("Opponent(alice) = %q", got)
	}
	if got := g.Opponent("bob"); got != "alice" {
		t.Fatalf("Opponent(bob) = %q", got)
	}
	if got := g.Opponent("carol"); got != NoPlayer {
		t.Fatalf("Opponent(carol) = %q; want NoPlayer", got)
	}

	waiting := Game{P1: "alice"}
	if got := waiting.Opponent("alice"); got != NoPlayer {
		t.Fatalf("unpaired game should have no opponent, got %q", got)
	}
}

func TestMigrations_Indexes_AndCascades(t *testing.T) {
	db := newTestDB(t)

	if err := db.AutoMigrate(&Game{}, &GameMove{}, &Feedback{}, &PlayerStats{}, &DeleteGameTimer{}); err != nil {
		t.Fatalf("automigrate: %v", err)
	}
	m := db.Migrator()

	if !m.HasIndex(&GameMove{}, "ux_move_game_position") {
		t.Fatalf("expected unique index ux_move_game_position on game_moves")
	}
	if !m.HasIndex(&DeleteGameTimer{}, "ux_timer_game") {
		t.Fatalf("expected unique index ux_timer_game on delete_game_timers")
	}

	now := time.Now().UTC()
	g := &Game{P1: "alice", P2: "bob", Result: ResultOngoing, When: now}
	if err := db.Create(g).Error; err != nil {
		t.Fatalf("insert game: %v", err)
	}
	if g.ID == 0 {
		t.Fatalf("expected auto-incremented game id")
	}

	if err := db.Create(&GameMove{GameID: g.ID, PlayerID: "alice", When: now, Position: 4}).Error; err != nil {
		t.Fatalf("insert move: %v", err)
	}
	// Same cell twice must be rejected by the unique index.
	if err := db.Create(&GameMove{GameID: g.ID, PlayerID: "bob", When: now, Position: 4}).Error; err == nil {
		t.Fatalf("expected unique violation for a second move on the same cell")
	}
	if err := db.Create(&Feedback{GameID: g.ID, PlayerID: "bob", When: now, Message: "hi"}).Error; err != nil {
		t.Fatalf("insert feedback: %v", err)
	}

	// CASCADE: deleting the game removes its moves and feedback.
	if err := db.Delete(&Game{}, "id = ?", g.ID).Error; err != nil {
		t.Fatalf("delete game: %v", err)
	}
	var cnt int64
	if err := db.Model(&GameMove{}).Where("game_id = ?", g.ID).Count(&cnt).Error; err != nil {
		t.Fatalf("count moves: %v", err)
	}
	if cnt != 0 {
		t.Fatalf("expected moves to cascade-delete, got %d", cnt)
	}
	if err := db.Model(&Feedback{}).Where("game_id = ?", g.ID).Count(&cnt).Error; err != nil {
		t.Fatalf("count feedback: %v", err)
	}
	if cnt != 0 {
		t.Fatalf("expected feedback to cascade-delete, got %d", cnt)
	}
}

func TestUnpairedGame_DefaultsToNoPlayer(t *testing.T) {
	db := newTestDB(t)
	if err := db.AutoMigrate(&Game{}); err != nil {
		t.Fatalf("automigrate: %v", err)
	}

	g := &Game{P1: "alice", When: time.Now().UTC()}
	if err := db.Create(g).Error; err != nil {
		t.Fatalf("insert: %v", err)
	}

	var got Game
	if err := db.First(&got, g.ID).Error; err != nil {
		t.Fatalf("readback: %v", err)
	}
	if got.P2 != NoPlayer || got.Result != ResultUnstarted {
		t.Fatalf("unexpected defaults: %+v", got)
	}
}
