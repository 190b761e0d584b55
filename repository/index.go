package repository

import (
	"fmt"
	"log"
	"time"

	"main/model"
	"main/services"
	"main/utils"

	"gorm.io/gorm"
)

// Default account written on first setup so a fresh install is usable
// immediately. Intended for local development.
const (
	DefaultAdminUsername = "admin"
	DefaultAdminPassword = "admin123"
	DefaultAdminEmail    = "admin@example.com"
	DefaultAdminFullName = "Administrator"
)

// SetupDatabase migrates the schema and seeds the default admin account.
// Safe to call more than once.
func SetupDatabase(db *gorm.DB) error {
	if err := db.AutoMigrate(&model.User{}, &model.Note{}, &model.Attachment{}); err != nil {
		return fmt.Errorf("failed to migrate schema: %w", err)
	}

	if err := seedDefaultAdmin(db); err != nil {
		return fmt.Errorf("failed to seed default admin: %w", err)
	}

	log.Println("Database schema ready")
	return nil
}

func seedDefaultAdmin(db *gorm.DB) error {
	var count int64
	if err := db.Model(&model.User{}).Count(&count).Error; err != nil {
		return err
	}
	if count > 0 {
		return nil
	}

	hashed, err := services.HashPassword(DefaultAdminPassword)
	if err != nil {
		return err
	}

	admin := model.User{
		UserID:       utils.GenerateUserID(),
		Username:     DefaultAdminUsername,
		Email:        DefaultAdminEmail,
		PasswordHash: hashed,
		FullName:     DefaultAdminFullName,
		CreatedAt:    time.Now(),
	}

	if err := db.Create(&admin).Error; err != nil {
		return err
	}

	log.Printf("Seeded default admin account %q", DefaultAdminUsername)
	return nil
}
