package cli

import (
	"fmt"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/tbourn/go-tictactoe-backend/internal/repo"
	"github.com/tbourn/go-tictactoe-backend/internal/services"
	"github.com/tbourn/go-tictactoe-backend/internal/sysutil"
)

// PurgeOptions holds flags for the purge command.
type PurgeOptions struct {
	DB     string
	GameID uint32
}

// NewPurgeCommand creates the purge command, which deletes one game with its
// moves, feedback and pending timer without waiting for the scheduler.
func NewPurgeCommand(root *RootOptions) *cobra.Command {
	opts := &PurgeOptions{}

	cmd := &cobra.Command{
		Use:   "purge",
		Short: "Delete a game and everything attached to it",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if opts.GameID == 0 {
				return fmt.Errorf("--game is required")
			}
			return runPurge(cmd, root, opts)
		},
	}

	cmd.Flags().StringVar(&opts.DB, "db", "", "SQLite path; overrides DB_PATH")
	cmd.Flags().Uint32VarP(&opts.GameID, "game", "g", 0, "id of the game to delete")

	return cmd
}

func runPurge(cmd *cobra.Command, root *RootOptions, opts *PurgeOptions) error {
	cfg, err := loadConfig(root)
	if err != nil {
		return err
	}

	db, err := repo.OpenSQLite(sysutil.FirstNonEmpty(opts.DB, cfg.DBPath))
	if err != nil {
		return err
	}
	if sqlDB, err := db.DB(); err == nil {
		defer sqlDB.Close()
	}

	cl, err := services.NewCleanupScheduler(repo.NewSerializer(db), cfg.CleanupDelay)
	if err != nil {
		return err
	}
	defer cl.Shutdown()

	if err := cl.Purge(cmd.Context(), opts.GameID); err != nil {
		return err
	}
	log.Info().Uint32("game_id", opts.GameID).Msg("purge finished")
	fmt.Fprintf(cmd.OutOrStdout(), "game %d purged\n", opts.GameID)
	return nil
}
