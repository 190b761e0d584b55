package utils

import (
	"database/sql"
	"fmt"
	"log"
	"os"
	"sync"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/joho/godotenv"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// DB is the global database handle shared by the repositories
var DB *gorm.DB

var dbMu sync.Mutex

// OpenDB opens a SQLite database at the given path. Foreign key
// enforcement is off by default in SQLite, so it is switched on here;
// cascade deletes depend on it.
func OpenDB(path string) (*gorm.DB, error) {
	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := db.Exec("PRAGMA foreign_keys = ON").Error; err != nil {
		return nil, fmt.Errorf("failed to enable foreign keys: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to access connection pool: %w", err)
	}

	// SQLite allows one writer at a time; a single connection keeps the
	// in-memory database alive and serializes writes at the pool level.
	sqlDB.SetMaxOpenConns(GetEnvAsInt("DB_MAX_OPEN_CONNS", 1))
	sqlDB.SetConnMaxLifetime(GetEnvAsDuration("DB_MAX_CONN_LIFETIME", time.Hour))

	return db, nil
}

// InitDB initializes the global database handle from the environment
func InitDB() {
	// Only try to load .env if not in test mode
	if os.Getenv("GO_ENV") != "test" {
		if err := godotenv.Load(); err != nil {
			log.Println("No .env file found, relying on environment")
		}
	}

	path := GetEnvAsString("DB_PATH", "qingnote.db")

	dbMu.Lock()
	defer dbMu.Unlock()
	if DB != nil {
		return
	}

	db, err := OpenDB(path)
	if err != nil {
		log.Fatal("Failed to open database:", err)
	}
	DB = db
}

// ResetDB tears down the global handle so tests can start from a clean
// database. Production code never calls this.
func ResetDB() {
	dbMu.Lock()
	defer dbMu.Unlock()
	if DB == nil {
		return
	}
	if sqlDB, err := DB.DB(); err == nil {
		sqlDB.Close()
	}
	DB = nil
}

// CloseDB closes the underlying connection pool
func CloseDB() error {
	dbMu.Lock()
	defer dbMu.Unlock()
	if DB == nil {
		return nil
	}
	sqlDB, err := DB.DB()
	if err != nil {
		return err
	}
	DB = nil
	return sqlDB.Close()
}

// DBStats reports connection pool statistics for the stats endpoint
func DBStats() (sql.DBStats, error) {
	if DB == nil {
		return sql.DBStats{}, fmt.Errorf("database not initialized")
	}
	sqlDB, err := DB.DB()
	if err != nil {
		return sql.DBStats{}, err
	}
	return sqlDB.Stats(), nil
}
