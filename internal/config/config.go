package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// EnvProduction is the value of SHEPHERD_ENV that enables production checks.
const EnvProduction = "production"

// Config holds process settings shared by the server and the admin CLI.
type Config struct {
	Env            string
	ChurchName     string
	Addr           string
	DBPath         string
	UploadDir      string
	TokenSecret    string
	TokenTTL       time.Duration
	CSRFKey        string
	ResendKey      string
	EmailFrom      string
	ReplyTo        string
	AdminEmail     string
	AdminPassword  string
	OutboxInterval time.Duration
	Location       *time.Location // calendar used for report windows and check-in dates
}

// IsProduction reports whether the process runs with production settings.
func (c Config) IsProduction() bool {
	return c.Env == EnvProduction
}

// Load reads an optional .env file and then the SHEPHERD_* environment.
// Variables already set in the environment win over the file.
// PRE: none
// POST: Returns a populated Config or an error for invalid or missing production settings
func Load() (Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return Config{}, fmt.Errorf("load .env: %w", err)
	}

	cfg := Config{
		Env:           envOrDefault("SHEPHERD_ENV", "development"),
		ChurchName:    envOrDefault("SHEPHERD_CHURCH_NAME", "our church"),
		Addr:          envOrDefault("SHEPHERD_ADDR", ":8080"),
		DBPath:        envOrDefault("SHEPHERD_DB", "shepherd.db"),
		UploadDir:     envOrDefault("SHEPHERD_UPLOAD_DIR", "uploads"),
		TokenSecret:   os.Getenv("SHEPHERD_TOKEN_SECRET"),
		CSRFKey:       os.Getenv("SHEPHERD_CSRF_KEY"),
		ResendKey:     os.Getenv("SHEPHERD_RESEND_KEY"),
		EmailFrom:     envOrDefault("SHEPHERD_EMAIL_FROM", "Shepherd <noreply@example.org>"),
		ReplyTo:       envOrDefault("SHEPHERD_REPLY_TO", "office@example.org"),
		AdminEmail:    envOrDefault("SHEPHERD_ADMIN_EMAIL", "admin@example.org"),
		AdminPassword: os.Getenv("SHEPHERD_ADMIN_PASSWORD"),
	}

	var err error
	if cfg.TokenTTL, err = durationOrDefault("SHEPHERD_TOKEN_TTL", 4*time.Hour); err != nil {
		return Config{}, err
	}
	if cfg.OutboxInterval, err = durationOrDefault("SHEPHERD_OUTBOX_INTERVAL", time.Minute); err != nil {
		return Config{}, err
	}
	if cfg.Location, err = time.LoadLocation(envOrDefault("SHEPHERD_TZ", "UTC")); err != nil {
		return Config{}, fmt.Errorf("SHEPHERD_TZ: %w", err)
	}

	if cfg.IsProduction() {
		if cfg.TokenSecret == "" {
			return Config{}, errors.New("SHEPHERD_TOKEN_SECRET is required in production")
		}
		if len(cfg.CSRFKey) != 32 {
			return Config{}, errors.New("SHEPHERD_CSRF_KEY must be exactly 32 bytes in production")
		}
	}
	if cfg.TokenSecret == "" {
		cfg.TokenSecret = "dev-only-token-secret"
	}
	if cfg.CSRFKey == "" {
		cfg.CSRFKey = "dev-only-csrf-key-32-bytes-long!"
	}
	return cfg, nil
}

func envOrDefault(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// durationOrDefault accepts Go durations ("90m") or bare minutes ("90").
func durationOrDefault(key string, fallback time.Duration) (time.Duration, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	if mins, err := strconv.Atoi(v); err == nil {
		return time.Duration(mins) * time.Minute, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil || d <= 0 {
		return 0, fmt.Errorf("%s: invalid duration %q", key, v)
	}
	return d, nil
}
