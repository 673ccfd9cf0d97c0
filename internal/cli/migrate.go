package cli

import (
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/tbourn/go-tictactoe-backend/internal/repo"
	"github.com/tbourn/go-tictactoe-backend/internal/sysutil"
)

// MigrateOptions holds flags for the migrate command.
type MigrateOptions struct {
	DB string
}

// NewMigrateCommand creates the migrate command.
func NewMigrateCommand(root *RootOptions) *cobra.Command {
	opts := &MigrateOptions{}

	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Create or update the database schema",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runMigrate(root, opts)
		},
	}

	cmd.Flags().StringVar(&opts.DB, "db", "", "SQLite path; overrides DB_PATH")

	return cmd
}

func runMigrate(root *RootOptions, opts *MigrateOptions) error {
	cfg, err := loadConfig(root)
	if err != nil {
		return err
	}
	path := sysutil.FirstNonEmpty(opts.DB, cfg.DBPath)

	db, err := repo.OpenSQLite(path)
	if err != nil {
		return err
	}
	if sqlDB, err := db.DB(); err == nil {
		defer sqlDB.Close()
	}
	if err := repo.AutoMigrate(db); err != nil {
		return err
	}
	log.Info().Str("db", path).Msg("schema up to date")
	return nil
}
