package config

import (
	"errors"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all application configuration
type Config struct {
	Server    ServerConfig
	Database  DatabaseConfig
	Auth      AuthConfig
	Storage   StorageConfig
	Geocoding GeocodingConfig
	PDF       PDFConfig
	RateLimit RateLimitConfig
	CORS      CORSConfig
	Logging   LoggingConfig
	Seed      SeedConfig
}

type ServerConfig struct {
	Port            string
	Host            string
	Environment     string
	ShutdownTimeout time.Duration
}

type DatabaseConfig struct {
	Driver       string // postgres or sqlite
	DSN          string
	MaxOpenConns int
	MaxIdleConns int
	LogLevel     string
}

type AuthConfig struct {
	JWTSecret  string
	TokenTTL   time.Duration
	BcryptCost int
}

type StorageConfig struct {
	Backend        string // local or gcs
	LocalDir       string
	URLPrefix      string
	GCSBucket      string
	GCSCredentials string
	MaxUploadBytes int64
}

type GeocodingConfig struct {
	Enabled           bool
	Endpoint          string
	UserAgent         string
	Timeout           time.Duration
	RequestsPerSecond float64
	CacheTTL          time.Duration
}

type PDFConfig struct {
	FontDir string
}

type RateLimitConfig struct {
	Requests int
	Window   time.Duration
	// TrustedProxies are CIDRs or addresses whose X-Forwarded-For is believed.
	TrustedProxies []string
}

type CORSConfig struct {
	AllowedOrigins []string
}

type LoggingConfig struct {
	Level  string
	Format string
}

// SeedConfig is the first admin account created by the seed command.
type SeedConfig struct {
	AdminEmail    string
	AdminPassword string
	CompanyName   string
}

const devSecret = "dev-secret-key"

// Load reads .env (when present) and then the environment.
func Load() *Config {
	if err := godotenv.Load(); err != nil {
		slog.Debug("no .env file found, using system environment variables")
	}

	return &Config{
		Server: ServerConfig{
			Port:            getEnv("PORT", "8080"),
			Host:            getEnv("HOST", "0.0.0.0"),
			Environment:     getEnv("ENVIRONMENT", "development"),
			ShutdownTimeout: parseDuration(getEnv("SHUTDOWN_TIMEOUT", "15s"), 15*time.Second),
		},
		Database: DatabaseConfig{
			Driver:       getEnv("DB_DRIVER", "postgres"),
			DSN:          getEnv("DB_DSN", ""),
			MaxOpenConns: parseInt(getEnv("DB_MAX_OPEN_CONNS", "20"), 20),
			MaxIdleConns: parseInt(getEnv("DB_MAX_IDLE_CONNS", "5"), 5),
			LogLevel:     getEnv("DB_LOG_LEVEL", "warn"),
		},
		Auth: AuthConfig{
			JWTSecret:  getEnv("JWT_SECRET", devSecret),
			TokenTTL:   parseDuration(getEnv("JWT_EXPIRATION", "12h"), 12*time.Hour),
			BcryptCost: parseInt(getEnv("BCRYPT_COST", "12"), 12),
		},
		Storage: StorageConfig{
			Backend:        storageBackend(),
			LocalDir:       getEnv("UPLOAD_DIR", "./uploads"),
			URLPrefix:      getEnv("UPLOAD_URL_PREFIX", "/uploads"),
			GCSBucket:      getEnv("GCS_BUCKET", ""),
			GCSCredentials: getEnv("GOOGLE_APPLICATION_CREDENTIALS", ""),
			MaxUploadBytes: int64(parseInt(getEnv("MAX_UPLOAD_MB", "10"), 10)) << 20,
		},
		Geocoding: GeocodingConfig{
			Enabled:           parseBool(getEnv("GEOCODING_ENABLED", "true"), true),
			Endpoint:          getEnv("GEOCODING_ENDPOINT", "https://nominatim.openstreetmap.org"),
			UserAgent:         getEnv("GEOCODING_USER_AGENT", "workorders/1.0"),
			Timeout:           parseDuration(getEnv("GEOCODING_TIMEOUT", "5s"), 5*time.Second),
			RequestsPerSecond: parseFloat(getEnv("GEOCODING_RPS", "1"), 1),
			CacheTTL:          parseDuration(getEnv("GEOCODING_CACHE_TTL", "24h"), 24*time.Hour),
		},
		PDF: PDFConfig{
			FontDir: getEnv("PDF_FONT_DIR", ""),
		},
		RateLimit: RateLimitConfig{
			Requests:       parseInt(getEnv("RATE_LIMIT_REQUESTS", "100"), 100),
			Window:         parseDuration(getEnv("RATE_LIMIT_WINDOW", "60"), 60*time.Second),
			TrustedProxies: parseStringSlice(getEnv("TRUSTED_PROXIES", "")),
		},
		CORS: CORSConfig{
			AllowedOrigins: parseStringSlice(getEnv("ALLOWED_ORIGINS", "*")),
		},
		Logging: LoggingConfig{
			Level:  getEnv("LOG_LEVEL", "info"),
			Format: getEnv("LOG_FORMAT", "json"),
		},
		Seed: SeedConfig{
			AdminEmail:    getEnv("SEED_ADMIN_EMAIL", "admin@example.com"),
			AdminPassword: getEnv("SEED_ADMIN_PASSWORD", ""),
			CompanyName:   getEnv("SEED_COMPANY_NAME", ""),
		},
	}
}

// storageBackend honours STORAGE_BACKEND, otherwise picks GCS when running
// on Google Cloud (USE_GCS or the Cloud Run K_SERVICE variable).
func storageBackend() string {
	if b := os.Getenv("STORAGE_BACKEND"); b != "" {
		return strings.ToLower(b)
	}
	if os.Getenv("USE_GCS") == "true" || os.Getenv("K_SERVICE") != "" {
		return "gcs"
	}
	return "local"
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func parseInt(s string, defaultValue int) int {
	if i, err := strconv.Atoi(s); err == nil {
		return i
	}
	return defaultValue
}

func parseFloat(s string, defaultValue float64) float64 {
	if f, err := strconv.ParseFloat(s, 64); err == nil {
		return f
	}
	return defaultValue
}

func parseBool(s string, defaultValue bool) bool {
	if b, err := strconv.ParseBool(s); err == nil {
		return b
	}
	return defaultValue
}

func parseDuration(s string, defaultValue time.Duration) time.Duration {
	if d, err := time.ParseDuration(s); err == nil {
		return d
	}
	// If it's just a number, assume seconds
	if i, err := strconv.Atoi(s); err == nil {
		return time.Duration(i) * time.Second
	}
	return defaultValue
}

func parseStringSlice(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func (c *Config) IsProduction() bool {
	return c.Server.Environment == "production"
}

// Validate reports configuration that would fail at runtime.
func (c *Config) Validate() error {
	var errs []error
	if c.Auth.JWTSecret == devSecret && c.IsProduction() {
		errs = append(errs, errors.New("JWT_SECRET must be set in production"))
	}
	switch c.Database.Driver {
	case "postgres", "sqlite":
	default:
		errs = append(errs, errors.New("DB_DRIVER must be postgres or sqlite"))
	}
	if c.Database.DSN == "" {
		errs = append(errs, errors.New("DB_DSN must be set"))
	}
	switch c.Storage.Backend {
	case "local":
	case "gcs":
		if c.Storage.GCSBucket == "" {
			errs = append(errs, errors.New("GCS_BUCKET must be set for the gcs storage backend"))
		}
	default:
		errs = append(errs, errors.New("STORAGE_BACKEND must be local or gcs"))
	}
	return errors.Join(errs...)
}
