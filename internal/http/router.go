// Package httpapi wires the HTTP transport (Gin) to the game services,
// middleware and route handlers. It centralizes cross-cutting concerns such
// as tracing, correlation IDs, player identity, logging with redaction, panic
// recovery, metrics, CORS, compression, security headers, idempotency and
// rate limiting.
//
// Design goals:
//   - Observability first (OTel + Prometheus)
//   - Middleware ordered RequestID → identity → logging → recovery
//   - All services injected; the router builds none of them
package httpapi

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-contrib/gzip"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"gorm.io/gorm"

	_ "github.com/tbourn/go-tictactoe-backend/docs"
	"github.com/tbourn/go-tictactoe-backend/internal/config"
	"github.com/tbourn/go-tictactoe-backend/internal/http/handlers"
	"github.com/tbourn/go-tictactoe-backend/internal/http/middleware"
	"github.com/tbourn/go-tictactoe-backend/internal/repo"
)

// Deps are the collaborators mounted by RegisterRoutes.
type Deps struct {
	// DB backs the idempotency records.
	DB *gorm.DB
	// API are the handler services. When API.Idem is nil a store over DB is
	// used.
	API handlers.Deps
	// WS serves GET /ws; nil leaves the route unmounted.
	WS http.HandlerFunc
}

// idempotencyStore keeps processed move keys in the idempotency table.
type idempotencyStore struct {
	db  *gorm.DB
	ttl time.Duration
}

// Remember records key for (player, gameID). A concurrent duplicate is not an
// error: the first writer already recorded the same move.
func (s idempotencyStore) Remember(ctx context.Context, player string, gameID uint32, key string, status int) error {
	_, err := repo.CreateIdempotency(ctx, s.db, player, gameID, key, status, s.ttl)
	if errors.Is(err, repo.ErrDuplicate) {
		return nil
	}
	return err
}

// lookup reports whether a live record exists. Lookup errors count as a miss
// so a flaky read never blocks a move.
func (s idempotencyStore) lookup(ctx context.Context, player string, gameID uint32, key string, now time.Time) (bool, error) {
	rec, err := repo.GetIdempotency(ctx, s.db, player, gameID, key, now)
	if err != nil || rec == nil {
		return false, nil
	}
	return true, nil
}

// RegisterRoutes attaches all middleware and HTTP endpoints to the given Gin
// engine: observability, player identity, idempotency and rate limiting, CORS,
// compression and security headers, health and metrics, optional Swagger UI,
// the websocket endpoint, and the versioned game API under cfg.APIBasePath.
//
// Middleware order matters:
//  1. OpenTelemetry: trace everything
//  2. RequestID: generate/propagate correlation id
//  3. PlayerIdentity: resolve the acting player for everything below
//  4. RedactingLogger: structured logs with PII scrubbing
//  5. Recovery: capture panics after logger
//  6. Body size limiter
//  7. Metrics
//  8. Idempotency validator (before rate limiter to allow bypass on replay)
//  9. Rate limiter (per player/IP, bypass on replay)
//  10. CORS, gzip and security headers
func RegisterRoutes(r *gin.Engine, d Deps, cfg config.Config) {
	r.HandleMethodNotAllowed = true

	store := idempotencyStore{db: d.DB, ttl: cfg.IdempotencyTTL}
	api := d.API
	if api.Idem == nil && d.DB != nil {
		api.Idem = store
	}

	// 1) Trace all HTTP requests
	r.Use(otelgin.Middleware(cfg.OTEL.ServiceName))

	// 2) Correlate requests and logs
	r.Use(middleware.RequestID())

	// 3) Acting player from /players/:id or X-Player-ID
	r.Use(middleware.PlayerIdentity("id"))

	// 4) Structured logging with redaction
	r.Use(middleware.RedactingLogger(middleware.RedactOptions{
		MaskHeaders: []string{"X-API-Key"},
	}))

	// 5) Panic recovery to JSON 500 (with request id)
	r.Use(middleware.Recovery())

	// 6) Global body size limit; move payloads are tiny
	r.Use(limitBody(64 << 10))

	// 7) Prometheus metrics and /metrics endpoint
	r.Use(middleware.Metrics())
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// 8) Idempotency validation (before rate limiting)
	var lookup middleware.IdempotencyLookup
	if d.DB != nil {
		lookup = store.lookup
	}
	r.Use(middleware.IdempotencyValidator(middleware.IdempotencyOptions{MaxLen: 200}, lookup))

	// 9) Token-bucket rate limiter per player/IP
	rl := middleware.NewRateLimiter(cfg.RateRPS, cfg.RateBurst, middleware.KeyByPlayerOrIP())
	r.Use(rl.Handler())

	// 10) CORS posture (allow all if none configured)
	allowHeaders := []string{"Origin", "Content-Type", "Accept", middleware.HeaderPlayerID, middleware.HeaderIdempotencyKey, "If-None-Match"}
	exposeHeaders := []string{"X-Request-ID", "Content-Length", "ETag"}
	if len(cfg.CORS.AllowedOrigins) == 0 {
		r.Use(func(c *gin.Context) {
			c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
			c.Next()
		})
		r.Use(cors.New(cors.Config{
			AllowAllOrigins:  true,
			AllowMethods:     []string{"GET", "POST", "OPTIONS"},
			AllowHeaders:     allowHeaders,
			ExposeHeaders:    exposeHeaders,
			AllowCredentials: false, // must remain false with AllowAllOrigins
			MaxAge:           12 * time.Hour,
		}))
	} else {
		allowed := make(map[string]struct{}, len(cfg.CORS.AllowedOrigins))
		for _, o := range cfg.CORS.AllowedOrigins {
			allowed[o] = struct{}{}
		}
		r.Use(func(c *gin.Context) {
			if origin := c.GetHeader("Origin"); origin != "" {
				if _, ok := allowed[origin]; ok {
					h := c.Writer.Header()
					h.Set("Access-Control-Allow-Origin", origin)
					h.Add("Vary", "Origin")
				}
			}
			c.Next()
		})
		r.Use(cors.New(cors.Config{
			AllowOrigins:     cfg.CORS.AllowedOrigins,
			AllowMethods:     []string{"GET", "POST", "OPTIONS"},
			AllowHeaders:     allowHeaders,
			ExposeHeaders:    exposeHeaders,
			AllowCredentials: false,
			MaxAge:           12 * time.Hour,
		}))
	}

	// gzip breaks the websocket upgrade and double-compresses nothing useful
	// on /metrics, so both are excluded.
	r.Use(gzip.Gzip(gzip.DefaultCompression, gzip.WithExcludedPaths([]string{"/ws", "/metrics"})))

	// Security headers (HSTS only when enabled and request is HTTPS)
	r.Use(middleware.SecurityHeaders(middleware.SecurityOptions{
		EnableHSTS:   cfg.Security.EnableHSTS,
		HSTSMaxAge:   cfg.Security.HSTSMaxAge,
		NoStore:      true,
		EnablePolicy: true,
	}))

	// Fallbacks
	r.NoRoute(func(c *gin.Context) {
		handlers.Fail(c, http.StatusNotFound, handlers.ErrCodeNotFound, "route not found")
	})
	r.NoMethod(func(c *gin.Context) {
		handlers.Fail(c, http.StatusMethodNotAllowed, handlers.ErrCodeMethodNotAllowed, "method not allowed")
	})

	// Liveness/health
	r.GET("/health", func(c *gin.Context) { c.JSON(http.StatusOK, gin.H{"status": "ok"}) })

	if cfg.SwaggerEnabled {
		r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	if d.WS != nil {
		r.GET("/ws", gin.WrapF(d.WS))
	}

	h := handlers.New(api)
	g := groupWithPrefix(r, cfg.APIBasePath)
	{
		// Players
		g.POST("/players/:id/connect", h.Connect)
		g.POST("/players/:id/disconnect", h.Disconnect)
		g.GET("/players/:id/stats", h.GetStats)

		// Games
		g.GET("/games/:id", h.GetGame)
		g.POST("/games/:id/moves", h.PlayMove)
		g.GET("/games/:id/feedback", h.ListFeedback)
	}
}

// limitBody returns a Gin middleware that caps the request body size for all
// endpoints to maxBytes using http.MaxBytesReader. Requests exceeding the cap
// will cause downstream body reads to error.
func limitBody(maxBytes int64) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxBytes)
		c.Next()
	}
}

// groupWithPrefix mounts a group at prefix, treating "/" (or empty) as root.
func groupWithPrefix(r *gin.Engine, prefix string) *gin.RouterGroup {
	if prefix == "" || prefix == "/" {
		return r.Group("")
	}
	return r.Group(prefix)
}
