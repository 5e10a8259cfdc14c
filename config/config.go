package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const (
	DriverPostgres = "postgres"
	DriverPebble   = "pebble"
)

// Default values for optional configuration fields.
const (
	DefaultPort            = "8080"
	DefaultStoreDriver     = DriverPostgres
	DefaultDBPort          = "5432"
	DefaultDBSSLMode       = "disable"
	DefaultMaxDBAttempts   = 10
	DefaultDBRetryDelay    = 2 * time.Second
	DefaultPebblePath      = "data/orderbook"
	DefaultLogLevel        = "info"
	DefaultShutdownTimeout = 5 * time.Second
)

type PostgresConfig struct {
	Host        string
	Port        string
	User        string
	Password    string
	DB          string
	SSLMode     string
	MaxAttempts int
	RetryDelay  time.Duration
	InitSchema  bool
}

// ConnString renders the lib/pq key/value connection string.
func (c PostgresConfig) ConnString() string {
	return fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.DB, c.SSLMode,
	)
}

type Config struct {
	Port               string
	StoreDriver        string
	Postgres           PostgresConfig
	PebblePath         string
	LogLevel           string
	CORSAllowedOrigins []string
	ShutdownTimeout    time.Duration
}

// Load reads configuration from the .env file at envPath (if it exists) and
// the environment. Priority: ENV > .env file > defaults.
func Load(envPath string) (*Config, error) {
	if envPath != "" {
		_ = godotenv.Load(envPath)
	} else {
		_ = godotenv.Load()
	}

	cfg := &Config{
		Port:        os.Getenv("PORT"),
		StoreDriver: strings.ToLower(os.Getenv("STORE_DRIVER")),
		Postgres: PostgresConfig{
			Host:       os.Getenv("POSTGRES_HOST"),
			Port:       os.Getenv("POSTGRES_PORT"),
			User:       os.Getenv("POSTGRES_USER"),
			Password:   os.Getenv("POSTGRES_PASSWORD"),
			DB:         os.Getenv("POSTGRES_DB"),
			SSLMode:    os.Getenv("POSTGRES_SSLMODE"),
			InitSchema: os.Getenv("POSTGRES_INIT_SCHEMA") != "false",
		},
		PebblePath: os.Getenv("PEBBLE_PATH"),
		LogLevel:   os.Getenv("LOG_LEVEL"),
	}

	if v := os.Getenv("MAX_DB_ATTEMPTS"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return nil, fmt.Errorf("MAX_DB_ATTEMPTS: %w", err)
		}
		cfg.Postgres.MaxAttempts = n
	}
	if v := os.Getenv("SHUTDOWN_TIMEOUT"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return nil, fmt.Errorf("SHUTDOWN_TIMEOUT: %w", err)
		}
		cfg.ShutdownTimeout = d
	}
	if v := os.Getenv("CORS_ALLOWED_ORIGINS"); v != "" {
		for _, origin := range strings.Split(v, ",") {
			if origin = strings.TrimSpace(origin); origin != "" {
				cfg.CORSAllowedOrigins = append(cfg.CORSAllowedOrigins, origin)
			}
		}
	}

	cfg.applyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) applyDefaults() {
	if c.Port == "" {
		c.Port = DefaultPort
	}
	if c.StoreDriver == "" {
		c.StoreDriver = DefaultStoreDriver
	}
	if c.Postgres.Port == "" {
		c.Postgres.Port = DefaultDBPort
	}
	if c.Postgres.SSLMode == "" {
		c.Postgres.SSLMode = DefaultDBSSLMode
	}
	if c.Postgres.MaxAttempts == 0 {
		c.Postgres.MaxAttempts = DefaultMaxDBAttempts
	}
	if c.Postgres.RetryDelay == 0 {
		c.Postgres.RetryDelay = DefaultDBRetryDelay
	}
	if c.PebblePath == "" {
		c.PebblePath = DefaultPebblePath
	}
	if c.LogLevel == "" {
		c.LogLevel = DefaultLogLevel
	}
	if c.ShutdownTimeout == 0 {
		c.ShutdownTimeout = DefaultShutdownTimeout
	}
}

// Validate checks the configuration for errors.
func (c *Config) Validate() error {
	var errs []error

	switch c.StoreDriver {
	case DriverPostgres:
		if c.Postgres.Host == "" {
			errs = append(errs, errors.New("POSTGRES_HOST is required for the postgres driver"))
		}
		if c.Postgres.User == "" {
			errs = append(errs, errors.New("POSTGRES_USER is required for the postgres driver"))
		}
		if c.Postgres.DB == "" {
			errs = append(errs, errors.New("POSTGRES_DB is required for the postgres driver"))
		}
		if c.Postgres.MaxAttempts < 1 {
			errs = append(errs, errors.New("MAX_DB_ATTEMPTS must be at least 1"))
		}
	case DriverPebble:
	default:
		errs = append(errs, fmt.Errorf("unknown STORE_DRIVER %q (want %s or %s)", c.StoreDriver, DriverPostgres, DriverPebble))
	}

	if _, err := strconv.Atoi(c.Port); err != nil {
		errs = append(errs, fmt.Errorf("invalid PORT %q", c.Port))
	}

	switch c.LogLevel {
	case "debug", "info", "warn", "error":
	default:
		errs = append(errs, fmt.Errorf("invalid LOG_LEVEL %q", c.LogLevel))
	}

	return errors.Join(errs...)
}
