package repository

import (
	"testing"

	"main/utils"

	"gorm.io/gorm"
)

// newTestDB opens a throwaway in-memory database with the schema
// migrated and the default admin seeded
func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := utils.OpenDB(":memory:")
	if err != nil {
		t.Fatal("failed to open test database:", err)
	}
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			sqlDB.Close()
		}
	})

	if err := SetupDatabase(db); err != nil {
		t.Fatal("failed to set up test database:", err)
	}
	return db
}
