package database

import (
	"fmt"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"quantaview/internal/models"
)

// NewDatabase opens the sqlite database and migrates the schema.
// Unlike a backtest scratch store, imported trade history is the
// product here, so migration never drops existing tables.
func NewDatabase(dsn string) (*gorm.DB, error) {
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	if err := AutoMigrate(db); err != nil {
		return nil, err
	}

	return db, nil
}

// AutoMigrate brings the schema up to date with the current models.
func AutoMigrate(db *gorm.DB) error {
	err := db.AutoMigrate(
		&models.TradingAccount{},
		&models.Trade{},
		&models.APIKey{},
	)
	if err != nil {
		return fmt.Errorf("failed to auto-migrate database: %w", err)
	}
	return nil
}
