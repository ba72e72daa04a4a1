package config

import (
	"fmt"
	"time"

	_ "github.com/lib/pq" // registers the "postgres" database/sql driver for DB_DRIVER=postgres
	logrus "github.com/sirupsen/logrus"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"field_tracker/internal/logger"
	"field_tracker/internal/models"
)

// InitDB opens the Postgres connection described by cfg, tunes the pool and
// migrates the schema.
func InitDB(cfg *Config) (*gorm.DB, error) {
	pgCfg := postgres.Config{DSN: cfg.DSN()}
	if cfg.DBDriver == "postgres" {
		pgCfg.DriverName = "postgres"
	}

	db, err := gorm.Open(postgres.New(pgCfg), &gorm.Config{
		Logger:         logger.GormLogger(),
		TranslateError: true,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get sql.DB: %w", err)
	}
	sqlDB.SetMaxOpenConns(25)
	sqlDB.SetMaxIdleConns(10)
	sqlDB.SetConnMaxLifetime(30 * time.Minute)

	if err := Migrate(db); err != nil {
		return nil, fmt.Errorf("auto-migration failed: %w", err)
	}

	logrus.WithFields(logrus.Fields{
		"host":   cfg.DBHost,
		"db":     cfg.DBName,
		"driver": cfg.DBDriver,
	}).Info("database connected")

	return db, nil
}

// Migrate creates or updates every table. Parents come before children so
// foreign keys resolve.
func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&models.Profile{},
		&models.Group{},
		&models.Role{},
		&models.User{},
		&models.Device{},
		&models.Track{},
	)
}
