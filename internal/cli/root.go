// Package cli holds the goodsctl operator commands: offline catalog imports
// and manual outbox relay runs.
package cli

import (
	"database/sql"
	"fmt"
	"os"

	"goods-be/internal/config"
	"goods-be/internal/db"
	"goods-be/internal/logger"

	"github.com/spf13/cobra"
)

// openDB is replaced in tests.
var openDB = func(cfg *config.Config) (*sql.DB, error) {
	return db.NewDatabase(cfg)
}

func NewRootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:   "goodsctl",
		Short: "Operator tooling for the goods backend",
		Long: `goodsctl runs maintenance tasks against the goods database:
importing a shop's catalog feed without the HTTP API and draining the
order event outbox by hand.`,
		SilenceUsage: true,
	}
	root.AddCommand(newImportCommand(), newRelayCommand())
	return root
}

// Execute runs the root command
func Execute() {
	defer logger.Sync()
	if err := NewRootCommand().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func connect() (*config.Config, *sql.DB, error) {
	cfg, err := config.LoadConfig()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load config: %w", err)
	}
	logger.Init(cfg.AppEnv)

	database, err := openDB(cfg)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	return cfg, database, nil
}
