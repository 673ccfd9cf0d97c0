package cli

import (
	"context"
	"fmt"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/tbourn/go-tictactoe-backend/internal/config"
	httpapi "github.com/tbourn/go-tictactoe-backend/internal/http"
	"github.com/tbourn/go-tictactoe-backend/internal/http/handlers"
	"github.com/tbourn/go-tictactoe-backend/internal/repo"
	"github.com/tbourn/go-tictactoe-backend/internal/services"
	"github.com/tbourn/go-tictactoe-backend/internal/transport/ws"
)

// app is the assembled server: storage, scheduler, live hub and router.
type app struct {
	db      *gorm.DB
	cleanup *services.CleanupScheduler
	hub     *ws.Hub
	router  *gin.Engine
}

// newApp opens the database and wires every service. Pending cleanups left
// by a previous run are re-armed before the router is returned.
func newApp(ctx context.Context, cfg config.Config) (*app, error) {
	db, err := repo.OpenSQLite(cfg.DBPath)
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	if err := repo.AutoMigrate(db); err != nil {
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return assemble(ctx, db, cfg)
}

func assemble(ctx context.Context, db *gorm.DB, cfg config.Config) (*app, error) {
	tx := repo.NewSerializer(db)
	cl, err := services.NewCleanupScheduler(tx, cfg.CleanupDelay)
	if err != nil {
		return nil, err
	}
	if _, err := cl.Restore(ctx); err != nil {
		_ = cl.Shutdown()
		return nil, fmt.Errorf("restore timers: %w", err)
	}
	if err := cl.SweepIdempotency(cfg.IdempotencySweep); err != nil {
		_ = cl.Shutdown()
		return nil, err
	}

	stats := &services.StatsAggregator{DB: db}
	msgs := services.NewComposer(cfg.FeedbackLocale)
	mm := &services.Matchmaker{Tx: tx, Stats: stats, Cleanup: cl, Messages: msgs}
	engine := &services.TurnEngine{Tx: tx, Stats: stats, Cleanup: cl, Messages: msgs}

	// The hub both drives the services and receives their feedback.
	hub := ws.NewHub(mm, engine, cfg.WS.AllowedOrigins)
	mm.Notifier = hub
	engine.Notifier = hub

	gin.SetMode(cfg.GinMode)
	r := gin.New()
	httpapi.RegisterRoutes(r, httpapi.Deps{
		DB: db,
		API: handlers.Deps{
			Match:    mm,
			Turns:    engine,
			Games:    &services.GameReader{DB: db},
			Feedback: &services.FeedbackService{DB: db},
			Stats:    stats,
		},
		WS: hub.ServeWS,
	}, cfg)

	return &app{db: db, cleanup: cl, hub: hub, router: r}, nil
}

// close stops the scheduler and releases the database.
func (a *app) close() error {
	err := a.cleanup.Shutdown()
	if sqlDB, dbErr := a.db.DB(); dbErr == nil {
		if cerr := sqlDB.Close(); err == nil {
			err = cerr
		}
	}
	return err
}
