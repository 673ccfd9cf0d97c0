// Package services defines the session engine: matchmaking, the turn engine,
// statistics, feedback composition and deferred cleanup.
// This file centralizes common service-level error values so that they can be
// consistently returned by service methods and checked by callers.
//
// Rule violations during play (wrong turn, occupied cell, unknown game) are
// not errors: they are answered with feedback to the acting player. The
// values below cover the remaining caller mistakes and read-side lookups.
// Translation into HTTP status codes is performed at the handler layer.
package services

import "errors"

var (
	// ErrPlayerRequired is returned when an operation is invoked without a
	// player identity.
	ErrPlayerRequired = errors.New("player identity is required")

	// ErrGameNotFound indicates that a game snapshot was requested for an id
	// that does not exist (never created or already purged).
	ErrGameNotFound = errors.New("game not found")

	// ErrStatsNotFound indicates that a player has never connected and has
	// no statistics row.
	ErrStatsNotFound = errors.New("player stats not found")

	// ErrSchedulerStopped is returned when a cleanup is armed after Shutdown.
	ErrSchedulerStopped = errors.New("cleanup scheduler stopped")
)
