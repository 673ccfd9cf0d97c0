// Package domain defines the persistence models for games, moves, feedback,
// player statistics and deferred cleanup timers. These types are mapped with
// GORM and form the core data layer of the tic-tac-toe session engine.
//
// The board itself is never stored: it is always derived from the ordered
// move log of a game (see package board).
package domain

import (
	"time"
)

// NoPlayer is the sentinel identity of an empty seat. A game's P2 holds this
// value until a second player is paired in.
const NoPlayer = ""

// Result is the lifecycle state of a game.
//
// The numeric values are stored as-is in the games.result column and are
// part of the public JSON shape of Game.
type Result uint8

const (
	ResultUnstarted Result = iota
	ResultOngoing
	ResultP1Won
	ResultTie
	ResultP2Won
	ResultAbandoned
)

var resultNames = [...]string{
	ResultUnstarted: "unstarted",
	ResultOngoing:   "ongoing",
	ResultP1Won:     "p1_won",
	ResultTie:       "tie",
	ResultP2Won:     "p2_won",
	ResultAbandoned: "abandoned",
}

// String returns the snake_case name used in API responses and logs.
func (r Result) String() string {
	if int(r) < len(resultNames) {
		return resultNames[r]
	}
	return "unknown"
}

// IsTerminal reports whether no further moves may be accepted.
func (r Result) IsTerminal() bool {
	switch r {
	case ResultP1Won, ResultTie, ResultP2Won, ResultAbandoned:
		return true
	default:
		return false
	}
}

// Game is one two-player session from pairing to cleanup.
//
// Fields:
//   - ID: auto-incremented numeric id, assigned on creation.
//   - P1: identity of the first player (always set, plays X).
//   - P2: identity of the second player, NoPlayer while unstarted (plays O).
//   - Result: lifecycle state; indexed for matchmaking lookups.
//   - When: creation timestamp.
//   - Ready1 / Ready2: presence flags, set on join and cleared on leave.
type Game struct {
	ID     uint32    `json:"id"      gorm:"primaryKey;autoIncrement"`
	P1     string    `json:"p1"      gorm:"type:varchar(64);not null;index"`
	P2     string    `json:"p2"      gorm:"type:varchar(64);not null;default:'';index"`
	Result Result    `json:"result"  gorm:"type:integer;not null;default:0;index"`
	When   time.Time `json:"when"    gorm:"not null"`
	Ready1 bool      `json:"ready1"  gorm:"not null;default:false"`
	Ready2 bool      `json:"ready2"  gorm:"not null;default:false"`
}

// TableName returns the database table name for Game.
func (Game) TableName() string { return "games" }

// Opponent returns the other seat of the game relative to player, or
// NoPlayer when player does not sit at this game.
func (g Game) Opponent(player string) string {
	switch player {
	case g.P1:
		return g.P2
	case g.P2:
		return g.P1
	default:
		return NoPlayer
	}
}

// GameMove is one accepted move. Moves are append-only and, read in id
// order, alternate strictly between P1 and P2 starting with P1.
//
// The (game_id, position) unique index backs the "one move per cell" rule
// at the storage level.
type GameMove struct {
	ID       uint32    `json:"id"        gorm:"primaryKey;autoIncrement"`
	GameID   uint32    `json:"game_id"   gorm:"not null;index;uniqueIndex:ux_move_game_position,priority:1"`
	PlayerID string    `json:"player_id" gorm:"type:varchar(64);not null"`
	When     time.Time `json:"when"      gorm:"not null"`
	Position uint8     `json:"position"  gorm:"not null;uniqueIndex:ux_move_game_position,priority:2;check:position <= 8"`

	Game Game `json:"-" gorm:"foreignKey:GameID;references:ID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE"`
}

// TableName returns the database table name for GameMove.
func (GameMove) TableName() string { return "game_moves" }

// Feedback is a one-way message from the engine to a single player about a
// single game. Players only read these rows.
type Feedback struct {
	ID       uint32    `json:"id"        gorm:"primaryKey;autoIncrement"`
	GameID   uint32    `json:"game_id"   gorm:"not null;index"`
	PlayerID string    `json:"player_id" gorm:"type:varchar(64);not null;index"`
	When     time.Time `json:"when"      gorm:"not null"`
	Message  string    `json:"message"   gorm:"type:text;not null"`

	Game Game `json:"-" gorm:"foreignKey:GameID;references:ID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE"`
}

// TableName returns the database table name for Feedback.
func (Feedback) TableName() string { return "feedback" }

// PlayerStats accumulates per-player counters across games. Rows are created
// lazily on first connection, never deleted, and counters only grow.
type PlayerStats struct {
	PlayerID        string    `json:"player_id"        gorm:"type:varchar(64);primaryKey"`
	Starts          uint32    `json:"starts"           gorm:"not null;default:0"`
	EarlyDepartures uint32    `json:"early_departures" gorm:"not null;default:0"`
	Wins            uint32    `json:"wins"             gorm:"not null;default:0"`
	Ties            uint32    `json:"ties"             gorm:"not null;default:0"`
	Losses          uint32    `json:"losses"           gorm:"not null;default:0"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}

// TableName returns the database table name for PlayerStats.
func (PlayerStats) TableName() string { return "player_stats" }

// DeleteGameTimer is a pending deferred cleanup. At most one timer exists
// per game (unique game_id); the row is removed when the purge runs.
type DeleteGameTimer struct {
	ScheduledID uint64    `json:"scheduled_id" gorm:"primaryKey;autoIncrement"`
	ScheduledAt time.Time `json:"scheduled_at" gorm:"not null;index"`
	GameID      uint32    `json:"game_id"      gorm:"not null;uniqueIndex:ux_timer_game"`
}

// TableName returns the database table name for DeleteGameTimer.
func (DeleteGameTimer) TableName() string { return "delete_game_timers" }
