package config

import (
	"bytes"
	"context"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"p9e.in/workorders/models"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("PORT", "")
	t.Setenv("JWT_EXPIRATION", "")
	t.Setenv("STORAGE_BACKEND", "")
	t.Setenv("USE_GCS", "")
	t.Setenv("K_SERVICE", "")

	cfg := Load()
	assert.Equal(t, "8080", cfg.Server.Port)
	assert.Equal(t, 12*time.Hour, cfg.Auth.TokenTTL)
	assert.Equal(t, "local", cfg.Storage.Backend)
	assert.Equal(t, int64(10<<20), cfg.Storage.MaxUploadBytes)
	assert.Equal(t, 1.0, cfg.Geocoding.RequestsPerSecond)
	assert.True(t, cfg.Geocoding.Enabled)
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("RATE_LIMIT_WINDOW", "30")
	t.Setenv("ALLOWED_ORIGINS", "https://a.hr, https://b.hr,")
	t.Setenv("K_SERVICE", "workorders")
	t.Setenv("STORAGE_BACKEND", "")
	t.Setenv("GEOCODING_ENABLED", "false")

	cfg := Load()
	assert.Equal(t, 30*time.Second, cfg.RateLimit.Window)
	assert.Equal(t, []string{"https://a.hr", "https://b.hr"}, cfg.CORS.AllowedOrigins)
	assert.Equal(t, "gcs", cfg.Storage.Backend)
	assert.False(t, cfg.Geocoding.Enabled)
}

func TestValidate(t *testing.T) {
	cfg := &Config{
		Server:   ServerConfig{Environment: "production"},
		Auth:     AuthConfig{JWTSecret: devSecret},
		Database: DatabaseConfig{Driver: "mysql"},
		Storage:  StorageConfig{Backend: "gcs"},
	}
	err := cfg.Validate()
	require.Error(t, err)
	for _, want := range []string{"JWT_SECRET", "DB_DRIVER", "DB_DSN", "GCS_BUCKET"} {
		assert.Contains(t, err.Error(), want)
	}

	cfg = &Config{
		Auth:     AuthConfig{JWTSecret: "s3cret"},
		Database: DatabaseConfig{Driver: "sqlite", DSN: ":memory:"},
		Storage:  StorageConfig{Backend: "local"},
	}
	assert.NoError(t, cfg.Validate())
}

func TestNewLogger(t *testing.T) {
	var buf bytes.Buffer
	NewLogger(LoggingConfig{Level: "warn", Format: "text"}, &buf).Info("hidden")
	assert.Empty(t, buf.String())

	NewLogger(LoggingConfig{Level: "debug", Format: "json"}, &buf).Debug("shown", "k", "v")
	assert.Contains(t, buf.String(), `"msg":"shown"`)
}

func testDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := Connect(DatabaseConfig{Driver: "sqlite", DSN: "file::memory:", LogLevel: "silent", MaxOpenConns: 1})
	require.NoError(t, err)
	return db
}

func TestMigrationsAndSeed(t *testing.T) {
	db := testDB(t)
	require.NoError(t, Migrations(db))
	require.NoError(t, Migrations(db), "migrations are idempotent")

	var settings int64
	require.NoError(t, db.Model(&models.GlobalSetting{}).Count(&settings).Error)
	assert.Equal(t, int64(len(models.SettingKeys)), settings)

	log := slog.New(slog.NewTextHandler(&bytes.Buffer{}, nil))
	ctx := context.Background()

	err := Seed(ctx, db, SeedConfig{AdminEmail: "admin@example.com"}, 4, log)
	assert.Error(t, err, "password is required for the first admin")

	cfg := SeedConfig{AdminEmail: "Admin@Example.com", AdminPassword: "tajna", CompanyName: "Servis d.o.o."}
	require.NoError(t, Seed(ctx, db, cfg, 4, log))
	require.NoError(t, Seed(ctx, db, cfg, 4, log))

	var admins []models.Employee
	require.NoError(t, db.Where("role = ?", models.RoleAdmin).Find(&admins).Error)
	require.Len(t, admins, 1)
	assert.Equal(t, "admin@example.com", admins[0].Email)

	var name models.GlobalSetting
	require.NoError(t, db.First(&name, "key = ?", models.SettingCompanyName).Error)
	assert.Equal(t, "Servis d.o.o.", name.Value)
}
