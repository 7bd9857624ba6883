package database

import (
	"fmt"

	"riskgate/internal/models"

	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

// InitDB opens the service's own database and migrates the tables it owns.
// Each table has exactly one writing service, so migrations never race.
func InitDB(config *models.DatabaseConfiguration, tables ...any) *gorm.DB {
	if config == nil {
		zap.L().Fatal("Missing database configuration")
	}

	sslMode := config.SSLMode
	if sslMode == "" {
		sslMode = "disable"
	}

	dsn := fmt.Sprintf(
		"host=%s user=%s password=%s dbname=%s port=%d sslmode=%s",
		config.Host, config.User, config.Password, config.Name, config.Port, sslMode,
	)

	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{})
	if err != nil {
		zap.L().Fatal("Failed to connect to database",
			zap.String("host", config.Host),
			zap.String("name", config.Name),
			zap.Error(err))
	}

	if len(tables) > 0 {
		if err = db.AutoMigrate(tables...); err != nil {
			zap.L().Fatal("Failed to migrate database", zap.Error(err))
		}
	}

	return db
}
