package domain

import "time"

// Idempotency records that a move request carrying an Idempotency-Key was
// already processed for (player_id, game_id, key). A retried request with the
// same key is answered from the current game state instead of being replayed
// through the turn engine, which would otherwise answer "not your turn!".
type Idempotency struct {
	ID        string    `gorm:"type:TEXT NOT NULL;primaryKey"`
	PlayerID  string    `gorm:"type:TEXT NOT NULL;uniqueIndex:ux_player_game_key,priority:1"`
	GameID    uint32    `gorm:"type:INTEGER NOT NULL;uniqueIndex:ux_player_game_key,priority:2"`
	Key       string    `gorm:"type:TEXT NOT NULL;uniqueIndex:ux_player_game_key,priority:3"`
	Status    int       `gorm:"type:INTEGER NOT NULL"`
	CreatedAt time.Time `gorm:"type:DATETIME NOT NULL;autoCreateTime"`
	ExpiresAt time.Time `gorm:"type:DATETIME NOT NULL;index"`
}

// TableName implements the GORM tabler interface.
func (Idempotency) TableName() string { return "idempotency" }
