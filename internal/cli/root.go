// Package cli implements the tictactoe command line: serve runs the HTTP and
// websocket server, migrate prepares the database and purge removes a game
// by hand.
package cli

import (
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/tbourn/go-tictactoe-backend/internal/config"
	"github.com/tbourn/go-tictactoe-backend/internal/sysutil"
)

// Version is stamped at build time with -ldflags "-X ...cli.Version=...".
var Version = "dev"

// RootOptions holds global flags for all commands.
type RootOptions struct {
	EnvFile  string
	LogLevel string // overrides LOG_LEVEL when set
}

// NewRootCommand creates the root command of the tictactoe CLI.
func NewRootCommand() *cobra.Command {
	opts := &RootOptions{}

	cmd := &cobra.Command{
		Use:          "tictactoe",
		Short:        "Two-player tic-tac-toe session server",
		Long:         "Pairs players into games, validates turns, delivers feedback and keeps per-player statistics.",
		Version:      Version,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return loadEnvFile(opts.EnvFile)
		},
	}

	// Global flags
	cmd.PersistentFlags().StringVar(&opts.EnvFile, "env-file", ".env", "dotenv file loaded before reading the environment")
	cmd.PersistentFlags().StringVar(&opts.LogLevel, "log-level", "", "log level (debug|info|warn|error); overrides LOG_LEVEL")

	// Add subcommands
	cmd.AddCommand(NewServeCommand(opts))
	cmd.AddCommand(NewMigrateCommand(opts))
	cmd.AddCommand(NewPurgeCommand(opts))

	return cmd
}

// loadEnvFile loads path into the environment without overriding variables
// already set. A missing file is fine.
func loadEnvFile(path string) error {
	if path == "" {
		return nil
	}
	if err := godotenv.Load(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("load %s: %w", path, err)
	}
	return nil
}

// loadConfig reads the configuration, applies the global flag overrides and
// installs the logger.
func loadConfig(opts *RootOptions) (config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return cfg, fmt.Errorf("config: %w", err)
	}
	cfg.LogLevel = sysutil.FirstNonEmpty(opts.LogLevel, cfg.LogLevel)
	sysutil.SetupLogger(os.Stderr, cfg.LogLevel, cfg.LogPretty)
	return cfg, nil
}
