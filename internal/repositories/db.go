package repositories

import (
	"fmt"
	"log/slog"

	"github.com/rohits-web03/reciperater/internal/models"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// ConnectDatabase opens the Postgres connection and migrates the schema.
func ConnectDatabase(dsn string, logger *slog.Logger) (*gorm.DB, error) {
	if dsn == "" {
		return nil, fmt.Errorf("connect database: DB_URL is empty")
	}
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Warn),
	})
	if err != nil {
		return nil, fmt.Errorf("connect database: %w", err)
	}
	if err := Migrate(db); err != nil {
		return nil, err
	}
	logger.Info("connected to database")
	return db, nil
}

// Migrate creates or updates the tables backing users and meals.
func Migrate(db *gorm.DB) error {
	if err := db.AutoMigrate(
		&models.User{},
		&models.Meal{},
	); err != nil {
		return fmt.Errorf("migrate: %w", err)
	}
	return nil
}
