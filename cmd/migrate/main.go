package main

import (
	"database/sql"
	"flag"
	"fmt"

	"goods-be/internal/config"
	"goods-be/internal/db"
	"goods-be/internal/logger"

	_ "github.com/lib/pq"
	"go.uber.org/zap"
)

type migrator interface {
	Up() error
	Down(steps int) error
	Version() (uint, bool, error)
}

func main() {
	mode := flag.String("mode", "up", "migration mode: up, down or version")
	steps := flag.Int("steps", 1, "steps to roll back in down mode; 0 rolls back everything")
	flag.Parse()

	log := logger.L()
	defer logger.Sync()

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatal("invalid configuration", zap.Error(err))
	}

	database, err := sql.Open("postgres", db.URL(cfg))
	if err != nil {
		log.Fatal("failed to connect db", zap.Error(err))
	}
	defer database.Close()

	m, err := db.NewMigrator(database, cfg.MigrationsPath, log)
	if err != nil {
		log.Fatal("failed to load migrations", zap.Error(err))
	}

	if err := run(m, *mode, *steps, log); err != nil {
		log.Fatal("migration failed", zap.Error(err))
	}
}

func run(m migrator, mode string, steps int, log *zap.Logger) error {
	switch mode {
	case "up":
		return m.Up()
	case "down":
		return m.Down(steps)
	case "version":
		v, dirty, err := m.Version()
		if err != nil {
			return err
		}
		log.Info("schema version", zap.Uint("version", v), zap.Bool("dirty", dirty))
		return nil
	default:
		return fmt.Errorf("unknown mode: %s (use 'up', 'down' or 'version')", mode)
	}
}
