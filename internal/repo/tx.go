package repo

import (
	"context"
	"sync"

	"gorm.io/gorm"
)

// Serializer is the transaction boundary for every mutating engine
// operation. Each Do call runs fn inside one GORM transaction while holding a
// process-wide lock, so invocations observe a consistent snapshot and commit
// indivisibly, one after another.
//
// SQLite allows a single writer anyway; the lock keeps concurrent
// read-then-write transactions from failing with SQLITE_BUSY on upgrade and
// keeps two arrivals from pairing into the same waiting game.
type Serializer struct {
	DB *gorm.DB
	mu sync.Mutex
}

// NewSerializer wraps db.
func NewSerializer(db *gorm.DB) *Serializer {
	return &Serializer{DB: db}
}

// Do runs fn in a transaction. fn must only use the tx handle it receives.
// Returning an error rolls the transaction back.
func (s *Serializer) Do(ctx context.Context, fn func(tx *gorm.DB) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.DB.WithContext(ctx).Transaction(fn)
}
