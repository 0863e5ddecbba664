package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// DefaultConfigFile is the path checked for YAML configuration.
const DefaultConfigFile = "engine.yaml"

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
	setString(&cfg.Server.Port, "ENGINE_PORT")
	setString(&cfg.Server.CORSOrigin, "ENGINE_CORS_ORIGIN")
	setString(&cfg.Postgres.DSN, "DATABASE_URL")
	setInt32(&cfg.Postgres.MaxConns, "ENGINE_PG_MAX_CONNS")
	setInt32(&cfg.Postgres.MinConns, "ENGINE_PG_MIN_CONNS")
	setDuration(&cfg.Postgres.MaxConnLifetime, "ENGINE_PG_MAX_CONN_LIFETIME")
	setDuration(&cfg.Postgres.MaxConnIdleTime, "ENGINE_PG_MAX_CONN_IDLE_TIME")
	setDuration(&cfg.Postgres.HealthCheck, "ENGINE_PG_HEALTH_CHECK")
	setString(&cfg.NATS.URL, "NATS_URL")
	setString(&cfg.Gateway.URL, "ENGINE_GATEWAY_URL")
	setString(&cfg.Gateway.APIKey, "ENGINE_GATEWAY_API_KEY")
	setDuration(&cfg.Gateway.Timeout, "ENGINE_GATEWAY_TIMEOUT")
	setString(&cfg.Logging.Level, "ENGINE_LOG_LEVEL")
	setString(&cfg.Logging.Service, "ENGINE_LOG_SERVICE")
	setInt(&cfg.Breaker.MaxFailures, "ENGINE_BREAKER_MAX_FAILURES")
	setDuration(&cfg.Breaker.Timeout, "ENGINE_BREAKER_TIMEOUT")
	setInt64(&cfg.Cache.MaxSizeMB, "ENGINE_CACHE_SIZE_MB")
	setDuration(&cfg.Cache.TTL, "ENGINE_CACHE_TTL")
	setDuration(&cfg.Workflow.HoldInactivityWindow, "ENGINE_HOLD_INACTIVITY_WINDOW")
	setDuration(&cfg.Workflow.HoldEscalationAfter, "ENGINE_HOLD_ESCALATION_AFTER")
	setDuration(&cfg.Workflow.SweepInterval, "ENGINE_SWEEP_INTERVAL")
	setString(&cfg.Alerts.SlackWebhookURL, "ENGINE_SLACK_WEBHOOK_URL")
	setString(&cfg.OTel.Endpoint, "OTEL_EXPORTER_OTLP_ENDPOINT")
	setBool(&cfg.OTel.Insecure, "OTEL_EXPORTER_OTLP_INSECURE")
}

// validate checks that required fields are set.
func validate(cfg *Config) error {
	if cfg.Server.Port == "" {
		return errors.New("server.port is required")
	}
	if cfg.Postgres.DSN == "" {
		return errors.New("postgres.dsn is required")
	}
	if cfg.NATS.URL == "" {
		return errors.New("nats.url is required")
	}
	if cfg.Postgres.MaxConns < 1 {
		return errors.New("postgres.max_conns must be >= 1")
	}
	if cfg.Breaker.MaxFailures < 1 {
		return errors.New("breaker.max_failures must be >= 1")
	}
	if cfg.Workflow.HoldInactivityWindow <= 0 {
		return errors.New("workflow.hold_inactivity_window must be positive")
	}
	for _, o := range cfg.Workflow.ModelOverrides {
		if o.Model == "" {
			return fmt.Errorf("workflow.model_overrides: empty model for %s/%s", o.Phase, o.Tier)
		}
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
