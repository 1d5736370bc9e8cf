// Command migrate_data copies the submission log from the local SQLite file
// into the configured PostgreSQL database.
package main

import (
	"log"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"archway-web/internal/config"
	"archway-web/internal/database"
	"archway-web/internal/logger"
	"archway-web/internal/models"
)

const batchSize = 500

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

	// Source
	sqliteDB, err := gorm.Open(sqlite.Open(cfg.DBPath), &gorm.Config{})
	if err != nil {
		lggr.Fatalf("Failed to connect to SQLite: %v", err)
	}
	lggr.Infow("Connected to SQLite", "path", cfg.DBPath)

	// Destination
	pgDB, err := database.Open(cfg, lggr)
	if err != nil {
		lggr.Fatalf("Failed to connect to PostgreSQL: %v", err)
	}

	lggr.Info("Starting data migration")

	var submissions []models.Submission
	migrateTable(lggr, sqliteDB, pgDB, "submissions", &submissions)

	var settings []models.SystemSetting
	migrateTable(lggr, sqliteDB, pgDB, "system_settings", &settings)

	lggr.Info("Migration completed, run sync_sequences next")
}

// migrateTable copies every row of a table. Rows already present in the
// destination are left alone, so the command can be rerun.
func migrateTable[T any](lggr logger.Logger, src, dst *gorm.DB, table string, rows *[]T) {
	lggr.Infow("Migrating table", "table", table)

	if err := src.Find(rows).Error; err != nil {
		lggr.Errorw("Error reading table from SQLite", "table", table, "err", err)
		return
	}
	if len(*rows) == 0 {
		lggr.Infow("Nothing to migrate", "table", table)
		return
	}

	err := dst.Transaction(func(tx *gorm.DB) error {
		return tx.Clauses(clause.OnConflict{DoNothing: true}).CreateInBatches(rows, batchSize).Error
	})
	if err != nil {
		lggr.Errorw("Error writing table to PostgreSQL", "table", table, "err", err)
		return
	}
	lggr.Infow("Successfully migrated table", "table", table, "rows", len(*rows))
}
