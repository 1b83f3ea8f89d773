// Package config assembles runtime configuration from environment
// variables. Every knob has a development-friendly default so a bare
// `go run` against local docker services works without a .env file.
package config

import (
	"fmt"
	"os"
	"strconv"
)

type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	Redis    RedisConfig
	Email    EmailConfig
}

type ServerConfig struct {
	Host        string
	Port        int
	Secure      bool   // HTTPS-only cookies and HSTS
	Environment string // "development", "production", "test"
}

type DatabaseConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	DBName   string
	SSLMode  string
}

// DSN renders the pgx connection string.
func (d DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s",
		d.User, d.Password, d.Host, d.Port, d.DBName, d.SSLMode,
	)
}

type RedisConfig struct {
	Host     string
	Port     int
	Password string
	DB       int
}

func (r RedisConfig) Addr() string {
	return fmt.Sprintf("%s:%d", r.Host, r.Port)
}

type EmailConfig struct {
	Provider     string // "resend", "smtp", "console"
	FromAddress  string
	FromName     string
	ResendAPIKey string
	SMTPHost     string // Mailpit in local dev
	SMTPPort     int
}

func Load() (*Config, error) {
	var cfg Config

	cfg.Server = ServerConfig{
		Host:        envString("SERVER_HOST", "0.0.0.0"),
		Port:        envInt("SERVER_PORT", 8080),
		Secure:      envBool("SERVER_SECURE", false),
		Environment: envString("APP_ENV", "development"),
	}
	cfg.Database = DatabaseConfig{
		Host:     envString("DB_HOST", "localhost"),
		Port:     envInt("DB_PORT", 5432),
		User:     envString("DB_USER", "venner"),
		Password: envString("DB_PASSWORD", "venner"),
		DBName:   envString("DB_NAME", "venner"),
		SSLMode:  envString("DB_SSLMODE", "disable"),
	}
	cfg.Redis = RedisConfig{
		Host:     envString("REDIS_HOST", "localhost"),
		Port:     envInt("REDIS_PORT", 6379),
		Password: envString("REDIS_PASSWORD", ""),
		DB:       envInt("REDIS_DB", 0),
	}
	cfg.Email = EmailConfig{
		Provider:     envString("EMAIL_PROVIDER", "console"),
		FromAddress:  envString("EMAIL_FROM_ADDRESS", "noreply@venner.app"),
		FromName:     envString("EMAIL_FROM_NAME", "Venner"),
		ResendAPIKey: envString("RESEND_API_KEY", ""),
		SMTPHost:     envString("SMTP_HOST", "localhost"),
		SMTPPort:     envInt("SMTP_PORT", 1025),
	}

	return &cfg, nil
}

func envString(key, fallback string) string {
	if v, ok := os.LookupEnv(key); ok {
		return v
	}
	return fallback
}

// envInt and envBool fall back on unparsable values rather than failing, so
// a typo in one variable does not take the whole server down.
func envInt(key string, fallback int) int {
	v, ok := os.LookupEnv(key)
	if !ok {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return n
}

func envBool(key string, fallback bool) bool {
	v, ok := os.LookupEnv(key)
	if !ok {
		return fallback
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return fallback
	}
	return b
}
