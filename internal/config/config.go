// Package config loads process configuration from the environment. The .env
// file (if any) is loaded by main before Load is called.
package config

import (
	"errors"
	"os"
	"strconv"
	"strings"
)

const (
	EnvDevelopment = "development"
	EnvProduction  = "production"
)

type App struct {
	Name    string
	Env     string
	Addr    string
	BaseURL string // public URL used when building links in emails
}

type JWT struct {
	Secret           string
	RefreshSecret    string
	ExpiresIn        string // lifetime string, e.g. "15m", "1d"
	RefreshExpiresIn string
}

type Upload struct {
	Dir          string
	MaxFileSize  int64
	AllowedTypes []string
}

type Mail struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
}

type Config struct {
	App    App
	JWT    JWT
	Upload Upload
	Mail   Mail
}

// Load reads configuration from the environment. In production the JWT
// secrets are mandatory and Load fails fast when they are absent; in
// development they fall back to fixed dev-only values.
func Load() (*Config, error) {
	cfg := &Config{
		App: App{
			Name:    envOr("APP_NAME", "Blog System"),
			Env:     envOr("APP_ENV", EnvDevelopment),
			Addr:    envOr("APP_ADDR", "0.0.0.0:8431"),
			BaseURL: envOr("APP_BASE_URL", "http://localhost:8431"),
		},
		JWT: JWT{
			Secret:           os.Getenv("JWT_SECRET"),
			RefreshSecret:    os.Getenv("JWT_REFRESH_SECRET"),
			ExpiresIn:        envOr("JWT_EXPIRES_IN", "1d"),
			RefreshExpiresIn: envOr("JWT_REFRESH_EXPIRES_IN", "7d"),
		},
		Upload: Upload{
			Dir:         envOr("UPLOAD_DIR", "./uploads"),
			MaxFileSize: envInt64("UPLOAD_MAX_FILE_SIZE", 5*1024*1024),
			AllowedTypes: splitList(envOr("UPLOAD_ALLOWED_MIME_TYPES",
				"image/jpeg,image/png,image/gif,image/webp")),
		},
		Mail: Mail{
			Host:     os.Getenv("EMAIL_HOST"),
			Port:     int(envInt64("EMAIL_PORT", 587)),
			Username: os.Getenv("EMAIL_USER"),
			Password: os.Getenv("EMAIL_PASS"),
			From:     envOr("EMAIL_FROM", "noreply@localhost"),
		},
	}

	if cfg.JWT.Secret == "" || cfg.JWT.RefreshSecret == "" {
		if cfg.App.Env == EnvProduction {
			return nil, errors.New("JWT_SECRET and JWT_REFRESH_SECRET are required in production")
		}
		if cfg.JWT.Secret == "" {
			cfg.JWT.Secret = "dev-secret"
		}
		if cfg.JWT.RefreshSecret == "" {
			cfg.JWT.RefreshSecret = "dev-refresh-secret"
		}
	}
	if cfg.JWT.Secret == cfg.JWT.RefreshSecret {
		// separate secrets are what keep access and refresh tokens apart
		return nil, errors.New("JWT_SECRET and JWT_REFRESH_SECRET must differ")
	}
	return cfg, nil
}

func envOr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func envInt64(key string, def int64) int64 {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			return n
		}
	}
	return def
}

func splitList(s string) []string {
	parts := strings.Split(s, ",")
	out := parts[:0]
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
