package db

import (
	"errors"
	"fmt"
	"log"

	"gorm.io/gorm"

	"certchain/internal/auth"
	"certchain/internal/model"
)

// Migrate runs database migrations for all models
func Migrate(db *gorm.DB) error {
	log.Println("Starting database migration...")

	models := []interface{}{
		&model.User{},
		&model.TxRecord{},
		&model.TxEvent{},
	}

	if err := db.AutoMigrate(models...); err != nil {
		return fmt.Errorf("failed to migrate database: %w", err)
	}

	log.Printf("✓ Database migration completed successfully (%d tables)", len(models))
	return nil
}

// EnsureOperator creates the named operator if it does not exist yet.
// An existing operator is left untouched.
func EnsureOperator(db *gorm.DB, username, password, role string) error {
	if username == "" || password == "" {
		return nil
	}

	var existing model.User
	err := db.Where("username = ?", username).First(&existing).Error
	if err == nil {
		return nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return fmt.Errorf("failed to query operator: %w", err)
	}

	hash, err := auth.HashPassword(password)
	if err != nil {
		return fmt.Errorf("failed to hash operator password: %w", err)
	}
	user := model.User{
		Username:     username,
		PasswordHash: hash,
		Role:         role,
		Status:       model.UserStatusActive,
	}
	if err := db.Create(&user).Error; err != nil {
		return fmt.Errorf("failed to create operator: %w", err)
	}

	log.Printf("✓ Operator %s created (role=%s)", username, role)
	return nil
}
