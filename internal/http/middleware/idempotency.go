// Package middleware contains shared Gin middleware used by the HTTP layer.
//
// This file implements idempotency support for move submission. A client
// retrying POST /games/:id/moves with the same Idempotency-Key must not be
// answered "not your turn!" for a move that already went through. The
// middleware validates the key, asks a lookup whether (player, game, key) was
// already processed, and annotates the context so handlers can:
//   - read the normalized key (GetIdempotencyKey)
//   - detect replayed requests (IsReplay)
//   - bypass rate limiting when a replay is served
package middleware

import (
	"context"
	"net/http"
	"regexp"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
)

// HeaderIdempotencyKey is the request header carrying the idempotency key.
const HeaderIdempotencyKey = "Idempotency-Key"

const (
	ctxKeyIdemKey    = "idem.key"
	ctxKeyIdemReplay = "idem.replay" // bool: a stored record exists
	ctxKeyRateBypass = "rate.bypass" // bool: skip rate limiting
)

// GetIdempotencyKey returns the validated key stored by IdempotencyValidator.
func GetIdempotencyKey(c *gin.Context) (string, bool) {
	v, ok := c.Get(ctxKeyIdemKey)
	if !ok {
		return "", false
	}
	s, _ := v.(string)
	return s, s != ""
}

// IsReplay reports whether the request repeats an already processed move.
func IsReplay(c *gin.Context) bool {
	v, ok := c.Get(ctxKeyIdemReplay)
	if !ok {
		return false
	}
	b, _ := v.(bool)
	return b
}

// IdempotencyOptions configures key validation. Expiry is the lookup's
// business.
type IdempotencyOptions struct {
	// MaxLen caps the key length. Values <= 0 default to 200.
	MaxLen int
	// Pattern restricts allowed characters; nil means ^[A-Za-z0-9._~\-:]+$.
	Pattern *regexp.Regexp
}

// IdempotencyLookup reports whether a still-valid record exists for
// (playerID, gameID, key). Errors never block the request.
type IdempotencyLookup func(ctx context.Context, playerID string, gameID uint32, key string, now time.Time) (exists bool, err error)

// IdempotencyValidator validates the Idempotency-Key header when present and
// marks replays. Requests without the header pass through untouched; a
// malformed key is answered 400. The game id is read from the :id path
// parameter, so the validator only looks up records on game routes.
func IdempotencyValidator(opts IdempotencyOptions, lookup IdempotencyLookup) gin.HandlerFunc {
	maxLen := opts.MaxLen
	if maxLen <= 0 {
		maxLen = 200
	}
	pat := opts.Pattern
	if pat == nil {
		pat = regexp.MustCompile(`^[A-Za-z0-9._~\-:]+$`)
	}

	return func(c *gin.Context) {
		key := c.GetHeader(HeaderIdempotencyKey)
		if key == "" {
			c.Next()
			return
		}
		if len(key) > maxLen || !pat.MatchString(key) {
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{
				"request_id": c.Writer.Header().Get(requestIDHeader),
				"code":       "bad_idempotency_key",
				"message":    "invalid Idempotency-Key",
			})
			return
		}
		c.Set(ctxKeyIdemKey, key)

		if lookup != nil {
			player := PlayerFrom(c)
			gameID, err := strconv.ParseUint(c.Param("id"), 10, 32)
			if player != "" && err == nil {
				if exists, _ := lookup(c.Request.Context(), player, uint32(gameID), key, time.Now().UTC()); exists {
					c.Set(ctxKeyIdemReplay, true)
					c.Set(ctxKeyRateBypass, true)
				}
			}
		}

		c.Next()
	}
}
