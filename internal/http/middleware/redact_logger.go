// Package middleware contains shared Gin middleware used by the HTTP layer.
//
// This file implements RedactingLogger, the access logger. It attaches a
// request-scoped zerolog logger (request id, player, route) for handlers to
// enrich, and emits one line per request with obvious PII scrubbed from the
// query string and headers. Bodies are never logged.
//
// Usage:
//
//	r.Use(middleware.RedactingLogger(middleware.RedactOptions{
//	    MaskHeaders: []string{"X-Api-Key"},
//	}))
package middleware

import (
	"regexp"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
)

// RedactOptions configures additional scrubbing.
//
// MaskHeaders lists extra header names (case-insensitive) whose values are
// replaced with "[REDACTED]", on top of Authorization, Cookie and Set-Cookie.
type RedactOptions struct {
	MaskHeaders []string
}

var (
	// UUIDs go first so the looser phone pattern never eats their digit runs.
	uuidRE  = regexp.MustCompile(`(?i)\b[0-9a-f]{8}\-[0-9a-f]{4}\-[1-5][0-9a-f]{3}\-[89ab][0-9a-f]{3}\-[0-9a-f]{12}\b`)
	emailRE = regexp.MustCompile(`(?i)\b[a-z0-9._%+\-]+@[a-z0-9.\-]+\.[a-z]{2,}\b`)
	phoneRE = regexp.MustCompile(`\b(?:\+?\d{1,3}[ .-]?)?(?:\(?\d{2,4}\)?[ .-]?)?\d{3,4}[ .-]?\d{4}\b`)
)

// redact scrubs UUIDs, emails and phone numbers from s.
func redact(s string) string {
	if s == "" {
		return s
	}
	s = uuidRE.ReplaceAllString(s, "[REDACTED:id]")
	s = emailRE.ReplaceAllString(s, "[REDACTED:email]")
	return phoneRE.ReplaceAllString(s, "[REDACTED:phone]")
}

// RedactingLogger logs each request at info, warn (4xx) or error (5xx or
// collected Gin errors) and stores the request-scoped logger for LoggerFrom.
func RedactingLogger(opts RedactOptions) gin.HandlerFunc {
	masked := map[string]struct{}{
		"authorization": {},
		"cookie":        {},
		"set-cookie":    {},
	}
	for _, h := range opts.MaskHeaders {
		if h = strings.ToLower(strings.TrimSpace(h)); h != "" {
			masked[h] = struct{}{}
		}
	}

	return func(c *gin.Context) {
		start := time.Now()

		path := c.FullPath()
		if path == "" {
			path = c.Request.URL.Path
		}
		headers := make(map[string]string, len(c.Request.Header))
		for k, vv := range c.Request.Header {
			if _, ok := masked[strings.ToLower(k)]; ok {
				headers[k] = "[REDACTED]"
				continue
			}
			headers[k] = redact(strings.Join(vv, ", "))
		}

		l := log.With().
			Str("request_id", RequestIDFrom(c)).
			Str("player_id", PlayerFrom(c)).
			Str("method", c.Request.Method).
			Str("path", path).
			Logger()
		c.Set(loggerKey, &l)

		c.Next()

		status := c.Writer.Status()
		ev := l.Info()
		switch {
		case len(c.Errors) > 0 || status >= 500:
			ev = l.Error()
			if len(c.Errors) > 0 {
				ev = ev.Str("errors", c.Errors.String())
			}
		case status >= 400:
			ev = l.Warn()
		}
		if id := c.Param("id"); id != "" && strings.HasPrefix(path, "/") && strings.Contains(path, "/games/") {
			ev = ev.Str("game_id", id)
		}
		ev.
			Str("query", truncate(redact(c.Request.URL.RawQuery), maxQueryLogLength)).
			Str("remote_ip", c.ClientIP()).
			Int("status", status).
			Int("bytes", c.Writer.Size()).
			Dur("latency", time.Since(start)).
			Interface("headers", headers).
			Msg("http_request")
	}
}
