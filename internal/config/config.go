// Package config loads the server configuration from environment variables,
// applying defaults and validating the result. Command-line flags of the
// serve command override individual fields after Load.
package config

import (
	"errors"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/tbourn/go-tictactoe-backend/internal/sysutil"
)

// CORSConfig defines Cross-Origin Resource Sharing settings.
type CORSConfig struct {
	AllowedOrigins []string
}

// SecurityConfig defines security-related settings such as HSTS.
type SecurityConfig struct {
	EnableHSTS bool
	HSTSMaxAge time.Duration
}

// OTELConfig defines OpenTelemetry observability settings.
type OTELConfig struct {
	Enabled     bool    // OTEL_ENABLED
	Endpoint    string  // OTEL_EXPORTER_OTLP_ENDPOINT (e.g. "otel:4317")
	Insecure    bool    // OTEL_EXPORTER_OTLP_INSECURE (true if no TLS)
	ServiceName string  // OTEL_SERVICE_NAME (e.g. "tictactoe")
	SampleRatio float64 // OTEL_TRACES_SAMPLER_ARG in [0..1]
}

// WSConfig configures the websocket player transport.
type WSConfig struct {
	AllowedOrigins []string // WS_ALLOWED_ORIGINS; empty accepts any Origin
}

// Config holds all configuration values for the application.
type Config struct {
	// Server
	Port              string        // just the number
	ReadTimeout       time.Duration // e.g. 15s
	ReadHeaderTimeout time.Duration // e.g. 10s
	WriteTimeout      time.Duration // e.g. 20s
	IdleTimeout       time.Duration // e.g. 60s
	MaxHeaderBytes    int           // bytes
	GinMode           string        // debug|release|test

	// Logging / Docs
	LogLevel       string // debug|info|warn|error|fatal|panic
	LogPretty      bool   // pretty console logs in dev
	SwaggerEnabled bool   // enable Swagger UI route
	APIBasePath    string // base path for API routes

	// Game engine
	DBPath         string        // SQLite path
	CleanupDelay   time.Duration // finished game → deletion
	FeedbackLocale string        // en|es

	// Rate limiting
	RateRPS   float64 // tokens per second (>= 0)
	RateBurst int     // bucket size (>= 1)

	// Web protection
	CORS     CORSConfig
	Security SecurityConfig

	// Idempotency
	IdempotencyTTL   time.Duration // how long a given Idempotency-Key is valid
	IdempotencySweep time.Duration // purge interval for expired keys

	// Transport
	WS WSConfig

	// Observability
	OTEL OTELConfig
}

// MustLoad loads the configuration and panics if validation fails.
func MustLoad() Config {
	cfg, err := Load()
	if err != nil {
		panic(err)
	}
	return cfg
}

// Load reads configuration from environment variables,
// applies defaults, normalizes values, and validates the result.
func Load() (Config, error) {
	cfg := Config{
		// Server
		Port:              getenv("PORT", "8080"),
		ReadTimeout:       getdur("READ_TIMEOUT", 15*time.Second),
		ReadHeaderTimeout: getdur("READ_HEADER_TIMEOUT", 10*time.Second),
		WriteTimeout:      getdur("WRITE_TIMEOUT", 20*time.Second),
		IdleTimeout:       getdur("IDLE_TIMEOUT", 60*time.Second),
		MaxHeaderBytes:    getint("MAX_HEADER_BYTES", 1<<20),
		GinMode:           strings.ToLower(getenv("GIN_MODE", "release")),

		// Logging / Docs
		LogLevel:       strings.ToLower(getenv("LOG_LEVEL", "info")),
		LogPretty:      getbool("LOG_PRETTY", false),
		SwaggerEnabled: getbool("SWAGGER_ENABLED", false),
		APIBasePath:    normalizeBasePath(getenv("API_BASE_PATH", "/api/v1")),

		// Game engine
		DBPath:         getenv("DB_PATH", "tictactoe.db"),
		CleanupDelay:   getdur("CLEANUP_DELAY", 250*time.Millisecond),
		FeedbackLocale: strings.ToLower(getenv("FEEDBACK_LOCALE", "en")),

		// Rate limiting
		RateRPS:   getfloat("RATE_RPS", 5.0),
		RateBurst: getint("RATE_BURST", 10),

		// Web protection
		CORS: CORSConfig{
			AllowedOrigins: splitCSV(getenv("CORS_ALLOWED_ORIGINS", "")),
		},
		Security: SecurityConfig{
			EnableHSTS: getbool("ENABLE_HSTS", false),
			HSTSMaxAge: getdur("HSTS_MAX_AGE", 180*24*time.Hour),
		},

		// Idempotency
		IdempotencyTTL:   getdur("IDEMPOTENCY_TTL", 10*time.Minute),
		IdempotencySweep: getdur("IDEMPOTENCY_SWEEP", time.Minute),

		// Transport
		WS: WSConfig{
			AllowedOrigins: splitCSV(getenv("WS_ALLOWED_ORIGINS", "")),
		},

		// Observability (OpenTelemetry)
		OTEL: OTELConfig{
			Enabled:     getbool("OTEL_ENABLED", false),
			Endpoint:    getenv("OTEL_EXPORTER_OTLP_ENDPOINT", "localhost:4317"),
			Insecure:    getbool("OTEL_EXPORTER_OTLP_INSECURE", true),
			ServiceName: getenv("OTEL_SERVICE_NAME", "tictactoe"),
			SampleRatio: getfloat("OTEL_TRACES_SAMPLER_ARG", 1.0),
		},
	}

	// --- normalization ---
	if cfg.LogLevel == "warning" {
		cfg.LogLevel = "warn"
	}
	switch cfg.GinMode {
	case "debug", "release", "test":
	default:
		cfg.GinMode = "release"
	}

	return cfg, cfg.Validate()
}

// Validate reports every invalid setting at once, joined into one error.
func (c Config) Validate() error {
	var errs []error
	check := func(bad bool, msg string) {
		if bad {
			errs = append(errs, errors.New(msg))
		}
	}

	switch c.LogLevel {
	case "debug", "info", "warn", "error", "fatal", "panic":
	default:
		errs = append(errs, errors.New("LOG_LEVEL must be one of: debug, info, warn, error, fatal, panic"))
	}
	check(strings.TrimSpace(c.Port) == "", "PORT must not be empty")
	check(c.ReadTimeout <= 0 || c.ReadHeaderTimeout <= 0 || c.WriteTimeout <= 0 || c.IdleTimeout <= 0,
		"timeouts must be positive durations")
	check(c.MaxHeaderBytes <= 0, "MAX_HEADER_BYTES must be > 0")

	check(strings.TrimSpace(c.DBPath) == "", "DB_PATH must not be empty")
	check(c.CleanupDelay < 0, "CLEANUP_DELAY must be >= 0")
	switch c.FeedbackLocale {
	case "en", "es":
	default:
		errs = append(errs, errors.New("FEEDBACK_LOCALE must be one of: en, es"))
	}

	check(c.RateRPS < 0, "RATE_RPS must be >= 0")
	check(c.RateBurst < 1, "RATE_BURST must be >= 1")
	check(c.Security.HSTSMaxAge < 0, "HSTS_MAX_AGE must be >= 0")
	check(c.IdempotencyTTL <= 0, "IDEMPOTENCY_TTL must be > 0")
	check(c.IdempotencySweep <= 0, "IDEMPOTENCY_SWEEP must be > 0")
	check(c.OTEL.SampleRatio < 0 || c.OTEL.SampleRatio > 1, "OTEL_TRACES_SAMPLER_ARG must be in [0,1]")

	return errors.Join(errs...)
}

// ---- env readers ----

var errUnknownBool = errors.New("not a boolean")

// envOr parses the variable k, returning def when it is unset, empty or
// does not parse.
func envOr[T any](k string, def T, parse func(string) (T, error)) T {
	v, ok := os.LookupEnv(k)
	if !ok || v == "" {
		return def
	}
	out, err := parse(v)
	if err != nil {
		return def
	}
	return out
}

func getenv(k, def string) string {
	return envOr(k, def, func(s string) (string, error) { return s, nil })
}

func getint(k string, def int) int { return envOr(k, def, strconv.Atoi) }

func getfloat(k string, def float64) float64 {
	return envOr(k, def, func(s string) (float64, error) { return strconv.ParseFloat(s, 64) })
}

func getdur(k string, def time.Duration) time.Duration { return envOr(k, def, time.ParseDuration) }

func getbool(k string, def bool) bool { return envOr(k, def, parseBool) }

func parseBool(s string) (bool, error) {
	if sysutil.IsTruthy(s) {
		return true, nil
	}
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "0", "false", "no", "n", "off":
		return false, nil
	}
	return false, errUnknownBool
}

// splitCSV splits a comma list, dropping blanks.
func splitCSV(s string) []string {
	var out []string
	for _, p := range strings.Split(s, ",") {
		if t := strings.TrimSpace(p); t != "" {
			out = append(out, t)
		}
	}
	return out
}

// normalizeBasePath ensures a leading '/' and strips trailing ones (except root).
func normalizeBasePath(p string) string {
	p = strings.Trim(strings.TrimSpace(p), "/")
	return "/" + p
}
