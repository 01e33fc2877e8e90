package config

import (
	"errors"
	"os"

	"gorm.io/driver/mysql"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

// InitDB opens the database named by DB_DRIVER/DB_DSN. MySQL is the
// production driver; sqlite exists for local runs and tests.
func InitDB() (*gorm.DB, error) {
	driver := os.Getenv("DB_DRIVER")
	dsn := os.Getenv("DB_DSN")

	// TranslateError maps driver duplicate-key errors onto
	// gorm.ErrDuplicatedKey, which the join path relies on.
	cfg := &gorm.Config{TranslateError: true}

	switch driver {
	case "", "mysql":
		if dsn == "" {
			return nil, errors.New("DB_DSN is required for mysql")
		}
		return gorm.Open(mysql.Open(dsn), cfg)
	case "sqlite":
		if dsn == "" {
			dsn = "tableshare.db"
		}
		return gorm.Open(sqlite.Open(dsn), cfg)
	default:
		return nil, errors.New("unsupported DB_DRIVER: " + driver)
	}
}
