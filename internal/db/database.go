package db

import (
	"fmt"

	"github.com/digitalghar/storefront/config"
	appLogger "github.com/digitalghar/storefront/pkg/logger"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

var DB *gorm.DB

// Initialize opens the session database for the configured storage driver.
// Only the postgres and sqlite drivers use a SQL database.
func Initialize(cfg *config.Config) error {
	switch cfg.Storage.Driver {
	case "postgres":
		return InitializePostgres(&cfg.Database)
	case "sqlite":
		return InitializeSQLite(cfg.Storage.SQLitePath)
	default:
		return fmt.Errorf("storage driver %q does not use a database", cfg.Storage.Driver)
	}
}

// InitializePostgres initializes the database connection
func InitializePostgres(cfg *config.DatabaseConfig) error {
	appLogger.Info("Connecting to database", map[string]interface{}{
		"host":     cfg.Host,
		"port":     cfg.Port,
		"database": cfg.DBName,
		"user":     cfg.User,
	})

	var err error
	DB, err = gorm.Open(postgres.Open(cfg.DSN()), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}

	sqlDB, err := DB.DB()
	if err != nil {
		return fmt.Errorf("failed to get database instance: %w", err)
	}

	sqlDB.SetMaxIdleConns(10)
	sqlDB.SetMaxOpenConns(100)

	appLogger.Info("Database connection established successfully", map[string]interface{}{
		"max_idle_conns": 10,
		"max_open_conns": 100,
	})
	return nil
}

// InitializeSQLite opens a file backed database for single instance deployments.
func InitializeSQLite(path string) error {
	appLogger.Info("Opening SQLite database", map[string]interface{}{
		"path": path,
	})

	var err error
	DB, err = gorm.Open(sqlite.Open(path), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return fmt.Errorf("failed to open sqlite database: %w", err)
	}

	sqlDB, err := DB.DB()
	if err != nil {
		return fmt.Errorf("failed to get database instance: %w", err)
	}
	// sqlite serializes writers
	sqlDB.SetMaxOpenConns(1)
	return nil
}

// Close closes the database connection
func Close() error {
	if DB == nil {
		return nil
	}
	sqlDB, err := DB.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// GetDB returns the database instance
func GetDB() *gorm.DB {
	return DB
}
