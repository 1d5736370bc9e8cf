package main

import (
	"log"

	"archway-web/internal/config"
	"archway-web/internal/database"
	"archway-web/internal/logger"
)

// Tables with serial ids whose sequences fall behind after migrate_data.
var tables = []string{
	"submissions",
}

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	lggr, err := logger.New(cfg.LogLevel)
	if err != nil {
		log.Fatalf("Failed to create logger: %v", err)
	}
	defer func() { _ = lggr.Sync() }()

	if cfg.DBDriver != "postgres" {
		lggr.Fatalf("DB_DRIVER must be postgres, got %q", cfg.DBDriver)
	}

	db, err := database.Open(cfg, lggr)
	if err != nil {
		lggr.Fatalf("Failed to connect: %v", err)
	}

	lggr.Info("Syncing PostgreSQL sequences")

	for _, table := range tables {
		query := "SELECT setval(pg_get_serial_sequence('" + table + "', 'id'), coalesce(max(id), 0) + 1, false) FROM " + table
		if err := db.Exec(query).Error; err != nil {
			lggr.Errorw("Error syncing sequence", "table", table, "err", err)
		} else {
			lggr.Infow("Successfully synced sequence", "table", table)
		}
	}

	lggr.Info("Done")
}
