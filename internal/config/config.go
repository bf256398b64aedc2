// Package config loads the application configuration from defaults,
// command-line flags, a .env file and environment variables, in that order
// of increasing precedence, and validates the result.
package config

import (
	"flag"
	"log"
	"os"
	"time"

	env "github.com/caarlos0/env/v6"
	validator "github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
)

// Config holds every runtime setting of the service.
type Config struct {
	RunAddr               string        `env:"SERVER_ADDRESS" validate:"hostname_port"`
	LogLevel              string        `env:"LOG_LEVEL" validate:"loglevel"`
	DatabaseDSN           string        `env:"DATABASE_DSN"`
	DBConnectionTimeout   time.Duration `env:"DB_CONNECTION_TIMEOUT"`
	MigrationsDir         string        `env:"MIGRATIONS_DIR" validate:"filepath"`
	RedisAddr             string        `env:"REDIS_ADDR"`
	RedisPassword         string        `env:"REDIS_PASSWORD"`
	RedisDB               int           `env:"REDIS_DB"`
	ShortenerBaseURL      string        `env:"SHORTENER_BASE_URL" validate:"url"`
	ShortenerTimeout      time.Duration `env:"SHORTENER_TIMEOUT"`
	TokenSigningSecretKey string        `env:"TOKEN_SIGNING_SECRET_KEY"`
	TokenTTL              time.Duration `env:"TOKEN_TTL"`
	SessionTTL            time.Duration `env:"SESSION_TTL"`
	URLCacheTTL           time.Duration `env:"URL_CACHE_TTL"`
}

func validateFilePath(fieldLevel validator.FieldLevel) bool {
	path := fieldLevel.Field().String()
	_, err := os.Stat(path)

	return err == nil || os.IsNotExist(err)
}

func validateLogLevel(fieldLevel validator.FieldLevel) bool {
	allowedLogLevels := map[string]bool{
		"debug": true,
		"info":  true,
		"warn":  true,
		"error": true,
		"fatal": true,
	}

	return allowedLogLevels[fieldLevel.Field().String()]
}

func (c *Config) validate() error {
	validate := validator.New()

	if err := validate.RegisterValidation("loglevel", validateLogLevel); err != nil {
		return err
	}

	if err := validate.RegisterValidation("filepath", validateFilePath); err != nil {
		return err
	}

	return validate.Struct(c)
}

// InitOption configures the behavior of New.
type InitOption func(*initOptions)

type initOptions struct {
	disableFlagsParsing bool
}

// WithDisableFlagsParsing prevents New from touching the process flag set.
// It is intended for tests, where flags may already be parsed.
func WithDisableFlagsParsing(disable bool) InitOption {
	return func(options *initOptions) {
		options.disableFlagsParsing = disable
	}
}

// New builds a Config from defaults, flags, .env and environment variables.
func New(optionsProto ...InitOption) (*Config, error) {
	options := &initOptions{}
	for _, protoOption := range optionsProto {
		protoOption(options)
	}

	if err := godotenv.Load(); err != nil {
		log.Printf("Unable to load .env file: %v", err)
	}

	cfg := &Config{
		RunAddr:             ":8080",
		LogLevel:            "info",
		DBConnectionTimeout: 10 * time.Second,
		MigrationsDir:       "cmd/urlbox/migrations",
		RedisAddr:           "",
		ShortenerBaseURL:    "http://localhost:5000",
		ShortenerTimeout:    5 * time.Second,
		TokenTTL:            time.Hour,
		SessionTTL:          time.Hour,
		URLCacheTTL:         time.Hour,
		// Development-only default, overridden in any real deployment.
		TokenSigningSecretKey: "dXJsYm94LWRldi1zaWduaW5nLWtleQ==",
	}

	if !options.disableFlagsParsing {
		flag.StringVar(&cfg.RunAddr, "a", cfg.RunAddr, "address and port to run server")
		flag.StringVar(&cfg.LogLevel, "l", cfg.LogLevel, "logger level")
		flag.StringVar(&cfg.DatabaseDSN, "d", cfg.DatabaseDSN, "database connection string; in-memory storage when empty")
		flag.StringVar(&cfg.RedisAddr, "r", cfg.RedisAddr, "redis address; in-memory cache when empty")
		flag.StringVar(&cfg.ShortenerBaseURL, "s", cfg.ShortenerBaseURL, "base URL of the external shortening service")
		flag.StringVar(&cfg.MigrationsDir, "m", cfg.MigrationsDir, "directory with goose migrations")
		flag.Parse()
	}

	if err := env.Parse(cfg); err != nil {
		return nil, err
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}
