// Package middleware contains shared Gin middleware used by the HTTP layer.
//
// This file resolves the acting player of a request. There is no
// authentication: the identity is whatever the client presents, either in the
// X-Player-ID header or, for /players/:id routes, in the path. Downstream
// middleware (rate limiting, idempotency, logging) and handlers read it back
// with PlayerFrom.
package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"
)

// HeaderPlayerID carries the caller's player identity.
const HeaderPlayerID = "X-Player-ID"

// ctxKeyPlayer is the Gin context key holding the resolved player identity.
const ctxKeyPlayer = "playerID"

// maxPlayerIDLen bounds identities; longer values are ignored.
const maxPlayerIDLen = 64

// PlayerIdentity stores the caller's identity in the Gin context. The path
// parameter named param wins over the header when both are present, so
// /players/:id routes act on the player they name.
func PlayerIdentity(param string) gin.HandlerFunc {
	return func(c *gin.Context) {
		id := ""
		if param != "" && isPlayerRoute(c.FullPath(), param) {
			id = strings.TrimSpace(c.Param(param))
		}
		if id == "" {
			id = strings.TrimSpace(c.GetHeader(HeaderPlayerID))
		}
		if id != "" && len(id) <= maxPlayerIDLen {
			c.Set(ctxKeyPlayer, id)
		}
		c.Next()
	}
}

// isPlayerRoute reports whether route names a player in its :param segment.
func isPlayerRoute(route, param string) bool {
	return strings.Contains(route, "/players/:"+param)
}

// PlayerFrom returns the identity stored by PlayerIdentity, or "".
func PlayerFrom(c *gin.Context) string {
	if v, ok := c.Get(ctxKeyPlayer); ok {
		if s, ok := v.(string); ok {
			return s
		}
	}
	return ""
}
