package cli

import (
	"context"
	"errors"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/tbourn/go-tictactoe-backend/internal/observability"
)

// shutdownGrace bounds graceful shutdown of the HTTP server and exporters.
const shutdownGrace = 10 * time.Second

// ServeOptions holds flags for the serve command.
type ServeOptions struct {
	Port string
	DB   string
}

// NewServeCommand creates the serve command.
func NewServeCommand(root *RootOptions) *cobra.Command {
	opts := &ServeOptions{}

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API and websocket server",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return runServe(ctx, root, opts)
		},
	}

	cmd.Flags().StringVarP(&opts.Port, "port", "p", "", "listen port; overrides PORT")
	cmd.Flags().StringVar(&opts.DB, "db", "", "SQLite path; overrides DB_PATH")

	return cmd
}

func runServe(ctx context.Context, root *RootOptions, opts *ServeOptions) error {
	cfg, err := loadConfig(root)
	if err != nil {
		return err
	}
	if opts.Port != "" {
		cfg.Port = opts.Port
	}
	if opts.DB != "" {
		cfg.DBPath = opts.DB
	}

	shutdownOTel, err := observability.SetupOTel(ctx, cfg.OTEL, Version)
	if err != nil {
		return err
	}
	defer func() {
		sctx, cancel := context.WithTimeout(context.Background(), shutdownGrace)
		defer cancel()
		if err := shutdownOTel(sctx); err != nil {
			log.Warn().Err(err).Msg("otel shutdown")
		}
	}()

	a, err := newApp(ctx, cfg)
	if err != nil {
		return err
	}
	defer func() {
		if err := a.close(); err != nil {
			log.Warn().Err(err).Msg("close app")
		}
	}()

	hubCtx, stopHub := context.WithCancel(context.Background())
	hubDone := make(chan struct{})
	go func() {
		defer close(hubDone)
		a.hub.Run(hubCtx)
	}()

	srv := &http.Server{
		Addr:              net.JoinHostPort("", cfg.Port),
		Handler:           a.router,
		ReadTimeout:       cfg.ReadTimeout,
		ReadHeaderTimeout: cfg.ReadHeaderTimeout,
		WriteTimeout:      cfg.WriteTimeout,
		IdleTimeout:       cfg.IdleTimeout,
		MaxHeaderBytes:    cfg.MaxHeaderBytes,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info().
			Str("addr", srv.Addr).
			Str("db", cfg.DBPath).
			Str("locale", cfg.FeedbackLocale).
			Str("version", Version).
			Msg("server listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case <-ctx.Done():
		log.Info().Msg("shutdown requested")
	case err := <-errCh:
		if err != nil {
			stopHub()
			<-hubDone
			return err
		}
	}

	sctx, cancel := context.WithTimeout(context.Background(), shutdownGrace)
	defer cancel()
	err = srv.Shutdown(sctx)

	// Hijacked websocket connections are not covered by Shutdown; stopping
	// the hub closes them.
	stopHub()
	<-hubDone
	return err
}
