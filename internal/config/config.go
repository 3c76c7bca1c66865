// Package config loads application configuration from the environment.
// A .env file in the working directory is honoured for local development.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/caarlos0/env/v10"
	"github.com/joho/godotenv"
)

// devSigningKey signs tokens in development when no key is configured.
const devSigningKey = "dev-identity-signing-key-change-me-32b"

// DefaultPlaceholderImageURL is used for projects without an uploaded image.
const DefaultPlaceholderImageURL = "https://placehold.co/600x400?text=Project"

// Config holds all application configuration.
type Config struct {
	AppEnv  string `env:"APP_ENV" envDefault:"development"`
	AppPort int    `env:"APP_PORT" envDefault:"8080"`

	DatabaseURL string `env:"DATABASE_URL,required"`

	// Empty RedisURL keeps identity accounts in process memory (development only).
	RedisURL string `env:"REDIS_URL"`

	FrontendURL string `env:"FRONTEND_URL" envDefault:"http://localhost:3000"`

	LogLevel  string `env:"LOG_LEVEL" envDefault:"info"`
	LogFormat string `env:"LOG_FORMAT" envDefault:"json"`

	ReadTimeout     time.Duration `env:"READ_TIMEOUT" envDefault:"10s"`
	WriteTimeout    time.Duration `env:"WRITE_TIMEOUT" envDefault:"30s"`
	ShutdownTimeout time.Duration `env:"SHUTDOWN_TIMEOUT" envDefault:"15s"`

	Identity   IdentityConfig
	Images     ImageConfig
	AI         AIConfig
	Background BackgroundConfig
}

// IdentityConfig configures the ID token provider.
type IdentityConfig struct {
	SigningKey string `env:"IDENTITY_SIGNING_KEY"`
	Issuer     string `env:"IDENTITY_ISSUER" envDefault:"folio-identity"`
	Audience   string `env:"IDENTITY_AUDIENCE" envDefault:"folio"`

	// DevAdminUID bootstraps an admin account in the in-memory store.
	DevAdminUID string `env:"IDENTITY_DEV_ADMIN_UID"`
}

// ImageConfig configures the image host. The three Cloudinary values are
// only honoured together.
type ImageConfig struct {
	CloudName      string `env:"CLOUDINARY_CLOUD_NAME"`
	APIKey         string `env:"CLOUDINARY_API_KEY"`
	APISecret      string `env:"CLOUDINARY_API_SECRET"`
	Folder         string `env:"CLOUDINARY_FOLDER" envDefault:"portfolio"`
	UploadDir      string `env:"UPLOAD_DIR"`
	PlaceholderURL string `env:"PLACEHOLDER_IMAGE_URL" envDefault:"https://placehold.co/600x400?text=Project"`
}

// AIConfig configures the text classification/generation service.
type AIConfig struct {
	APIKey  string        `env:"AI_API_KEY"`
	Model   string        `env:"AI_MODEL" envDefault:"gemini-2.0-flash"`
	BaseURL string        `env:"AI_BASE_URL" envDefault:"https://generativelanguage.googleapis.com"`
	Timeout time.Duration `env:"AI_TIMEOUT" envDefault:"20s"`
}

// BackgroundConfig configures the fire-and-forget task dispatcher.
type BackgroundConfig struct {
	Workers     int           `env:"BACKGROUND_WORKERS" envDefault:"4"`
	QueueSize   int           `env:"BACKGROUND_QUEUE_SIZE" envDefault:"64"`
	TaskTimeout time.Duration `env:"BACKGROUND_TASK_TIMEOUT" envDefault:"30s"`
}

// CloudinaryState reports how much of the Cloudinary trio is set.
type CloudinaryState int

const (
	CloudinaryUnset CloudinaryState = iota
	CloudinaryPartial
	CloudinaryComplete
)

// Cloudinary returns whether the image host is fully, partially or not configured.
func (c ImageConfig) Cloudinary() CloudinaryState {
	set := 0
	for _, v := range []string{c.CloudName, c.APIKey, c.APISecret} {
		if strings.TrimSpace(v) != "" {
			set++
		}
	}
	switch set {
	case 0:
		return CloudinaryUnset
	case 3:
		return CloudinaryComplete
	default:
		return CloudinaryPartial
	}
}

// MissingCloudinaryVars lists the unset Cloudinary variables, for warnings.
func (c ImageConfig) MissingCloudinaryVars() []string {
	var missing []string
	if strings.TrimSpace(c.CloudName) == "" {
		missing = append(missing, "CLOUDINARY_CLOUD_NAME")
	}
	if strings.TrimSpace(c.APIKey) == "" {
		missing = append(missing, "CLOUDINARY_API_KEY")
	}
	if strings.TrimSpace(c.APISecret) == "" {
		missing = append(missing, "CLOUDINARY_API_SECRET")
	}
	return missing
}

// Enabled reports whether AI credentials are present.
func (c AIConfig) Enabled() bool {
	return c.APIKey != ""
}

// IsDevelopment returns true if running in development mode.
func (c *Config) IsDevelopment() bool {
	return c.AppEnv == "development"
}

// IsProduction returns true if running in production mode.
func (c *Config) IsProduction() bool {
	return c.AppEnv == "production"
}

// Load reads .env (if present) and parses environment variables into a Config.
func Load() (*Config, error) {
	_ = godotenv.Load()
	return Parse()
}

// Parse parses the current environment without touching .env files.
func Parse() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	if cfg.Identity.SigningKey == "" {
		if !cfg.IsDevelopment() {
			return nil, fmt.Errorf("IDENTITY_SIGNING_KEY is required when APP_ENV is %q", cfg.AppEnv)
		}
		cfg.Identity.SigningKey = devSigningKey
	}
	if cfg.Identity.DevAdminUID != "" && !cfg.IsDevelopment() {
		return nil, fmt.Errorf("IDENTITY_DEV_ADMIN_UID is only honoured in development")
	}
	if cfg.Images.PlaceholderURL == "" {
		cfg.Images.PlaceholderURL = DefaultPlaceholderImageURL
	}
	return cfg, nil
}
