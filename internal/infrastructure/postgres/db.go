package postgres

import (
	"fmt"

	"github.com/lead-verify/internal/config"
	"github.com/lead-verify/internal/domain"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// Open connects to PostgreSQL using cfg.DatabaseURL.
func Open(cfg *config.Config) (*gorm.DB, error) {
	if cfg.DatabaseURL == "" {
		return nil, fmt.Errorf("DATABASE_URL is required for the postgres lead store")
	}
	return gorm.Open(postgres.Open(cfg.DatabaseURL), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Warn),
	})
}

// Migrate creates or updates the leads table.
func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(&domain.Lead{})
}
