package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/google/uuid"
	"gopkg.in/yaml.v3"
)

// DefaultConfigFile is the path checked for YAML configuration.
const DefaultConfigFile = "whippet.yaml"

var drivers = map[string]bool{"postgres": true, "mysql": true, "sqlserver": true, "sqlite": true}

// Load returns a Config using the hierarchy: defaults < YAML < ENV.
// YAML file is optional; missing file is not an error.
func Load() (*Config, error) {
	return LoadFrom(DefaultConfigFile)
}

// LoadFrom returns a Config loaded from the given YAML path using the
// hierarchy: defaults < YAML < ENV. The YAML file is optional.
func LoadFrom(yamlPath string) (*Config, error) {
	cfg := Defaults()

	if err := loadYAML(&cfg, yamlPath); err != nil {
		return nil, fmt.Errorf("config yaml: %w", err)
	}

	loadEnv(&cfg)

	if err := validate(&cfg); err != nil {
		return nil, fmt.Errorf("config validate: %w", err)
	}

	return &cfg, nil
}

// loadYAML reads the YAML file and unmarshals it over cfg.
// Returns nil if the file does not exist.
func loadYAML(cfg *Config, path string) error {
	data, err := os.ReadFile(path) //nolint:gosec // G304: path is validated by caller
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("read %s: %w", path, err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("parse %s: %w", path, err)
	}

	return nil
}

// loadEnv overlays environment variables onto cfg.
// Only non-empty env values override the current config.
func loadEnv(cfg *Config) {
	setString(&cfg.Server.Port, "WHIPPET_PORT")
	setString(&cfg.Server.CORSOrigin, "WHIPPET_CORS_ORIGIN")

	setString(&cfg.Database.Driver, "WHIPPET_DB_DRIVER")
	setString(&cfg.Database.DSN, "DATABASE_URL")
	setInt32(&cfg.Database.MaxConns, "WHIPPET_DB_MAX_CONNS")
	setInt32(&cfg.Database.MinConns, "WHIPPET_DB_MIN_CONNS")
	setDuration(&cfg.Database.MaxConnLifetime, "WHIPPET_DB_MAX_CONN_LIFETIME")
	setDuration(&cfg.Database.MaxConnIdleTime, "WHIPPET_DB_MAX_CONN_IDLE_TIME")
	setDuration(&cfg.Database.HealthCheck, "WHIPPET_DB_HEALTH_CHECK")
	setBool(&cfg.Database.AutoMigrate, "WHIPPET_DB_AUTO_MIGRATE")

	setString(&cfg.NATS.URL, "NATS_URL")

	setInt64(&cfg.Cache.L1MaxSizeMB, "WHIPPET_CACHE_L1_SIZE_MB")
	setString(&cfg.Cache.L2Bucket, "WHIPPET_CACHE_L2_BUCKET")
	setDuration(&cfg.Cache.L2TTL, "WHIPPET_CACHE_L2_TTL")
	setDuration(&cfg.Cache.TTL, "WHIPPET_CACHE_TTL")

	setString(&cfg.Logging.Level, "WHIPPET_LOG_LEVEL")
	setString(&cfg.Logging.Service, "WHIPPET_LOG_SERVICE")
	setBool(&cfg.Logging.Async, "WHIPPET_LOG_ASYNC")

	setInt(&cfg.Breaker.MaxFailures, "WHIPPET_BREAKER_MAX_FAILURES")
	setDuration(&cfg.Breaker.Timeout, "WHIPPET_BREAKER_TIMEOUT")

	setString(&cfg.Identity.SystemUserID, "WHIPPET_SYSTEM_USER_ID")

	setString(&cfg.Root.ID, "WHIPPET_ROOT_ID")
	setString(&cfg.Root.Name, "WHIPPET_ROOT_NAME")
	setString(&cfg.Root.URL, "WHIPPET_ROOT_URL")

	setBool(&cfg.OTEL.Enabled, "WHIPPET_OTEL_ENABLED")
	setString(&cfg.OTEL.Endpoint, "WHIPPET_OTEL_ENDPOINT")
	setString(&cfg.OTEL.ServiceName, "WHIPPET_OTEL_SERVICE_NAME")
	setBool(&cfg.OTEL.Insecure, "WHIPPET_OTEL_INSECURE")
	setFloat64(&cfg.OTEL.SampleRate, "WHIPPET_OTEL_SAMPLE_RATE")

	setString(&cfg.Locale, "WHIPPET_LOCALE")
}

// validate checks that required fields are set.
func validate(cfg *Config) error {
	if cfg.Server.Port == "" {
		return errors.New("server.port is required")
	}
	if !drivers[cfg.Database.Driver] {
		return fmt.Errorf("database.driver %q is not supported", cfg.Database.Driver)
	}
	if cfg.Database.DSN == "" {
		return errors.New("database.dsn is required")
	}
	if cfg.Database.MaxConns < 1 {
		return errors.New("database.max_conns must be >= 1")
	}
	if cfg.Breaker.MaxFailures < 1 {
		return errors.New("breaker.max_failures must be >= 1")
	}
	if _, err := uuid.Parse(cfg.Identity.SystemUserID); err != nil {
		return fmt.Errorf("identity.system_user_id: %w", err)
	}
	if cfg.Root.Enabled() {
		if _, err := uuid.Parse(cfg.Root.ID); err != nil {
			return fmt.Errorf("root.id: %w", err)
		}
		if cfg.Root.Name == "" || cfg.Root.URL == "" {
			return errors.New("root.name and root.url are required when root.id is set")
		}
	}
	if cfg.OTEL.SampleRate < 0 || cfg.OTEL.SampleRate > 1 {
		return errors.New("otel.sample_rate must be between 0 and 1")
	}
	return nil
}

func setString(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

func setInt(dst *int, key string) {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			*dst = n
		}
	}
}

func setInt32(dst *int32, key string) {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.ParseInt(v, 10, 32); err == nil {
			*dst = int32(n)
		}
	}
}

func setFloat64(dst *float64, key string) {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			*dst = f
		}
	}
}

func setInt64(dst *int64, key string) {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			*dst = n
		}
	}
}

func setBool(dst *bool, key string) {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			*dst = b
		}
	}
}

func setDuration(dst *time.Duration, key string) {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			*dst = d
		}
	}
}
