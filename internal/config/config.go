package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all application configuration.
type Config struct {
	Server ServerConfig
	DB     DBConfig
	Log    LogConfig
	CORS   CORSConfig
	Ledger LedgerConfig
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Port         string        `mapstructure:"port"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
	Environment  string        `mapstructure:"environment"`
}

// DBConfig holds PostgreSQL connection settings.
type DBConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	Name     string `mapstructure:"name"`
	SSLMode  string `mapstructure:"sslmode"`
	MaxOpen  int    `mapstructure:"max_open"`
	MaxIdle  int    `mapstructure:"max_idle"`
}

// DSN returns the PostgreSQL connection string.
func (d *DBConfig) DSN() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s",
		d.User, d.Password, d.Host, d.Port, d.Name, d.SSLMode,
	)
}

// LogConfig holds logging settings.
type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// CORSConfig holds CORS settings.
type CORSConfig struct {
	AllowedOrigins []string `mapstructure:"allowed_origins"`
}

// LedgerConfig holds quantity ledger tuning.
type LedgerConfig struct {
	// ConflictRetries is the number of internal retries after an
	// optimistic version conflict before the conflict is surfaced.
	ConflictRetries int `mapstructure:"conflict_retries"`
}

// Load reads configuration from environment variables with the RABILL_ prefix.
func Load() (*Config, error) {
	v := viper.New()
	v.SetEnvPrefix("RABILL")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Server defaults
	v.SetDefault("server.port", ":8080")
	v.SetDefault("server.read_timeout", "15s")
	v.SetDefault("server.write_timeout", "15s")
	v.SetDefault("server.environment", "development")

	// DB defaults
	v.SetDefault("db.host", "localhost")
	v.SetDefault("db.port", 5432)
	v.SetDefault("db.user", "rabill")
	v.SetDefault("db.password", "rabill_secret")
	v.SetDefault("db.name", "rabill_db")
	v.SetDefault("db.sslmode", "disable")
	v.SetDefault("db.max_open", 25)
	v.SetDefault("db.max_idle", 10)

	// Log defaults
	v.SetDefault("log.level", "debug")
	v.SetDefault("log.format", "console")

	// CORS defaults (localhost origins for development)
	v.SetDefault("cors.allowed_origins", "http://localhost:3000,http://127.0.0.1:3000")

	// Ledger defaults
	v.SetDefault("ledger.conflict_retries", 1)

	// Bind environment variables explicitly for nested keys
	envBindings := map[string]string{
		"server.port":             "RABILL_SERVER_PORT",
		"server.read_timeout":     "RABILL_SERVER_READ_TIMEOUT",
		"server.write_timeout":    "RABILL_SERVER_WRITE_TIMEOUT",
		"server.environment":      "RABILL_SERVER_ENVIRONMENT",
		"db.host":                 "RABILL_DB_HOST",
		"db.port":                 "RABILL_DB_PORT",
		"db.user":                 "RABILL_DB_USER",
		"db.password":             "RABILL_DB_PASSWORD",
		"db.name":                 "RABILL_DB_NAME",
		"db.sslmode":              "RABILL_DB_SSLMODE",
		"db.max_open":             "RABILL_DB_MAX_OPEN",
		"db.max_idle":             "RABILL_DB_MAX_IDLE",
		"log.level":               "RABILL_LOG_LEVEL",
		"log.format":              "RABILL_LOG_FORMAT",
		"cors.allowed_origins":    "RABILL_CORS_ALLOWED_ORIGINS",
		"ledger.conflict_retries": "RABILL_LEDGER_CONFLICT_RETRIES",
	}
	for key, env := range envBindings {
		_ = v.BindEnv(key, env)
	}

	cfg := &Config{}

	// Railway/Heroku/Render set a PORT env var. Use it if RABILL_SERVER_PORT is not explicitly set.
	serverPort := v.GetString("server.port")
	if port := os.Getenv("PORT"); port != "" && os.Getenv("RABILL_SERVER_PORT") == "" {
		serverPort = ":" + port
	}

	cfg.Server = ServerConfig{
		Port:         serverPort,
		ReadTimeout:  v.GetDuration("server.read_timeout"),
		WriteTimeout: v.GetDuration("server.write_timeout"),
		Environment:  v.GetString("server.environment"),
	}
	cfg.DB = DBConfig{
		Host:     v.GetString("db.host"),
		Port:     v.GetInt("db.port"),
		User:     v.GetString("db.user"),
		Password: v.GetString("db.password"),
		Name:     v.GetString("db.name"),
		SSLMode:  v.GetString("db.sslmode"),
		MaxOpen:  v.GetInt("db.max_open"),
		MaxIdle:  v.GetInt("db.max_idle"),
	}
	cfg.Log = LogConfig{
		Level:  v.GetString("log.level"),
		Format: v.GetString("log.format"),
	}

	// Parse CORS allowed origins from comma-separated string
	var corsOrigins []string
	for _, o := range strings.Split(v.GetString("cors.allowed_origins"), ",") {
		o = strings.TrimSpace(o)
		if o != "" {
			corsOrigins = append(corsOrigins, o)
		}
	}
	cfg.CORS = CORSConfig{
		AllowedOrigins: corsOrigins,
	}

	cfg.Ledger = LedgerConfig{
		ConflictRetries: v.GetInt("ledger.conflict_retries"),
	}

	return cfg, nil
}
