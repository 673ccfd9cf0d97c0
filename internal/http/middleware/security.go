// Package middleware contains shared Gin middleware used by the HTTP layer.
//
// This file provides SecurityHeaders: conservative response headers for a JSON
// API behind a reverse proxy. No CSP is sent (the API serves no HTML besides
// the optional Swagger UI) and HSTS is opt-in, applied only to HTTPS requests.
package middleware

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
)

// SecurityOptions configures SecurityHeaders.
type SecurityOptions struct {
	EnableHSTS   bool          // only when traffic is HTTPS end-to-end
	HSTSMaxAge   time.Duration // defaults to 180 days
	NoStore      bool          // add Cache-Control: no-store
	EnablePolicy bool          // include Permissions-Policy, etc.
}

// SecurityHeaders sets nosniff, frame denial and no-referrer on every
// response, plus the optional policy, no-store and HSTS headers. It also
// exposes X-Request-ID to browser clients.
func SecurityHeaders(opt SecurityOptions) gin.HandlerFunc {
	maxAge := int(opt.HSTSMaxAge.Seconds())
	if maxAge <= 0 {
		maxAge = int((180 * 24 * time.Hour).Seconds())
	}
	hsts := "max-age=" + strconv.Itoa(maxAge) + "; includeSubDomains; preload"

	return func(c *gin.Context) {
		h := c.Writer.Header()
		h.Set("X-Content-Type-Options", "nosniff")
		h.Set("X-Frame-Options", "DENY")
		h.Set("Referrer-Policy", "no-referrer")

		if opt.EnablePolicy {
			h.Set("Permissions-Policy", "geolocation=(), microphone=(), camera=(), payment=()")
			h.Set("X-Permitted-Cross-Domain-Policies", "none")
		}
		if opt.NoStore {
			h.Set("Cache-Control", "no-store")
			h.Set("Pragma", "no-cache")
			h.Set("Expires", "0")
		}
		if opt.EnableHSTS && isHTTPS(c.Request) {
			h.Set("Strict-Transport-Security", hsts)
		}

		if h.Get(requestIDHeader) != "" {
			const expose = "Access-Control-Expose-Headers"
			switch cur := h.Get(expose); {
			case cur == "":
				h.Set(expose, requestIDHeader)
			case !strings.Contains(cur, requestIDHeader):
				h.Set(expose, cur+", "+requestIDHeader)
			}
		}

		c.Next()
	}
}

// isHTTPS reports whether the request arrived over TLS directly or through a
// proxy that set X-Forwarded-Proto: https.
func isHTTPS(r *http.Request) bool {
	if r.TLS != nil {
		return true
	}
	return strings.EqualFold(r.Header.Get("X-Forwarded-Proto"), "https")
}
