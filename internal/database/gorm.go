package database

import (
	"errors"
	"fmt"

	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"archway-web/internal/config"
	"archway-web/internal/logger"
	"archway-web/internal/models"
)

// Dialector returns the gorm dialector for the configured driver.
func Dialector(cfg *config.Config) (gorm.Dialector, error) {
	switch cfg.DBDriver {
	case "sqlite":
		return sqlite.Open(cfg.DBPath), nil
	case "postgres":
		return postgres.Open(cfg.PostgresDSN()), nil
	}
	return nil, fmt.Errorf("unsupported database driver %q", cfg.DBDriver)
}

// Open connects to the submission log database and migrates its schema.
func Open(cfg *config.Config, lggr logger.Logger) (*gorm.DB, error) {
	dialector, err := Dialector(cfg)
	if err != nil {
		return nil, err
	}

	db, err := OpenDialector(dialector)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to %s: %w", cfg.DBDriver, err)
	}

	lggr.Infow("Connected to database", "driver", cfg.DBDriver)
	return db, nil
}

// OpenDialector opens and migrates any gorm dialector.
func OpenDialector(dialector gorm.Dialector) (*gorm.DB, error) {
	db, err := gorm.Open(dialector, &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Warn),
	})
	if err != nil {
		return nil, err
	}

	if err := Migrate(db); err != nil {
		return nil, err
	}
	return db, nil
}

// Migrate creates or updates the tables of every model.
func Migrate(db *gorm.DB) error {
	if err := db.AutoMigrate(
		&models.Submission{},
		&models.SystemSetting{},
	); err != nil {
		return fmt.Errorf("failed to run auto-migration: %w", err)
	}
	return nil
}

// SyncSettings makes the webhook token survive restarts: a value stored in the
// database wins over an empty config, and a configured value is stored when
// the database has none.
func SyncSettings(db *gorm.DB, cfg *config.Config, lggr logger.Logger) error {
	settings := []struct {
		Key   string
		Value *string
	}{
		{"WEBHOOK_VERIFY_TOKEN", &cfg.WebhookVerifyToken},
	}

	for _, s := range settings {
		var setting models.SystemSetting
		err := db.Where("key = ?", s.Key).First(&setting).Error
		switch {
		case err == nil:
			if *s.Value == "" && setting.Value != "" {
				*s.Value = setting.Value
			}
		case errors.Is(err, gorm.ErrRecordNotFound):
			if *s.Value != "" {
				if err := db.Create(&models.SystemSetting{Key: s.Key, Value: *s.Value}).Error; err != nil {
					return fmt.Errorf("failed to store setting %s: %w", s.Key, err)
				}
			}
		default:
			return fmt.Errorf("failed to read setting %s: %w", s.Key, err)
		}
	}

	lggr.Debug("System settings synchronized from database")
	return nil
}
