// Package handlers defines HTTP-layer error codes used across all API endpoints.
//
// The codes are passed to fail() together with the HTTP status and give
// clients a stable, machine-readable taxonomy next to the human message.
// Generic codes mirror HTTP status semantics; domain codes name failures that
// the status alone cannot convey.
//
// Rule violations during play are not errors at this layer: they come back
// as a 200 PlayResponse with accepted=false and the rejection reason.
//
// Example response:
//
//	{
//	  "request_id": "e1b9be03-4999-4289-9f03-999b042d65d6",
//	  "code": "player_required",
//	  "message": "X-Player-ID header is required"
//	}
package handlers

const (
	ErrCodeBadRequest       = "bad_request"
	ErrCodeNotFound         = "not_found"
	ErrCodeRateLimited      = "too_many_requests"
	ErrCodeInternal         = "internal_error"
	ErrCodeMethodNotAllowed = "method_not_allowed"

	// Domain-specific:
	ErrCodePlayerRequired = "player_required"
	ErrCodeInvalidGameID  = "invalid_game_id"
	ErrCodeCorruptGame    = "corrupt_game"
	ErrCodePlayFailed     = "play_failed"
	ErrCodeConnectFailed  = "connect_failed"
	ErrCodeListFailed     = "list_failed"
)
