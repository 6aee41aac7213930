package config

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"p9e.in/workorders/models"
)

// Seed creates the first admin account and fills the company name setting.
// It is safe to run repeatedly: an existing admin or non-empty setting is
// left alone.
func Seed(ctx context.Context, db *gorm.DB, cfg SeedConfig, bcryptCost int, log *slog.Logger) error {
	db = db.WithContext(ctx)

	var admins int64
	if err := db.Model(&models.Employee{}).Where("role = ?", models.RoleAdmin).Count(&admins).Error; err != nil {
		return fmt.Errorf("count admins: %w", err)
	}
	if admins == 0 {
		if cfg.AdminPassword == "" {
			return errors.New("SEED_ADMIN_PASSWORD must be set to create the first admin")
		}
		hash, err := bcrypt.GenerateFromPassword([]byte(cfg.AdminPassword), bcryptCost)
		if err != nil {
			return fmt.Errorf("hash admin password: %w", err)
		}
		admin := models.Employee{
			FirstName:    "Admin",
			LastName:     "Admin",
			Email:        strings.ToLower(cfg.AdminEmail),
			PasswordHash: string(hash),
			Role:         models.RoleAdmin,
			IsActive:     true,
		}
		if err := db.Create(&admin).Error; err != nil {
			return fmt.Errorf("create admin: %w", err)
		}
		log.Info("seeded admin account", "email", admin.Email)
	} else {
		log.Info("admin account exists, skipping", "admins", admins)
	}

	if cfg.CompanyName != "" {
		res := db.Model(&models.GlobalSetting{}).
			Where("key = ? AND (value IS NULL OR value = '')", models.SettingCompanyName).
			Update("value", cfg.CompanyName)
		if res.Error != nil {
			return fmt.Errorf("seed company name: %w", res.Error)
		}
	}
	return nil
}
