package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/motion-granted/engine/internal/domain/phase"
	"github.com/motion-granted/engine/internal/domain/tier"
)

func TestDefaults(t *testing.T) {
	cfg := Defaults()

	if cfg.Server.Port != "8080" {
		t.Errorf("expected port 8080, got %s", cfg.Server.Port)
	}
	if cfg.Postgres.MaxConns != 10 {
		t.Errorf("expected max_conns 10, got %d", cfg.Postgres.MaxConns)
	}
	if cfg.Breaker.Timeout != 30*time.Second {
		t.Errorf("expected breaker timeout 30s, got %v", cfg.Breaker.Timeout)
	}
	if cfg.Workflow.HoldInactivityWindow != 72*time.Hour {
		t.Errorf("expected 72h hold window, got %v", cfg.Workflow.HoldInactivityWindow)
	}
	if cfg.Workflow.HoldEscalationAfter != 24*time.Hour {
		t.Errorf("expected 24h escalation threshold, got %v", cfg.Workflow.HoldEscalationAfter)
	}
}

func TestLoadYAMLOverride(t *testing.T) {
	dir := t.TempDir()
	yamlPath := filepath.Join(dir, "test.yaml")

	content := `
server:
  port: "9090"
  cors_origin: "http://example.com"
postgres:
  max_conns: 20
logging:
  level: "debug"
workflow:
  hold_inactivity_window: 48h
  model_overrides:
    - phase: "IX"
      tier: "premium"
      model: "anthropic/claude-sonnet-4"
`
	if err := os.WriteFile(yamlPath, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg := Defaults()
	if err := loadYAML(&cfg, yamlPath); err != nil {
		t.Fatal(err)
	}

	if cfg.Server.Port != "9090" {
		t.Errorf("expected port 9090, got %s", cfg.Server.Port)
	}
	if cfg.Server.CORSOrigin != "http://example.com" {
		t.Errorf("expected cors http://example.com, got %s", cfg.Server.CORSOrigin)
	}
	if cfg.Postgres.MaxConns != 20 {
		t.Errorf("expected max_conns 20, got %d", cfg.Postgres.MaxConns)
	}
	if cfg.Logging.Level != "debug" {
		t.Errorf("expected log level debug, got %s", cfg.Logging.Level)
	}
	if cfg.Workflow.HoldInactivityWindow != 48*time.Hour {
		t.Errorf("expected 48h hold window, got %v", cfg.Workflow.HoldInactivityWindow)
	}
	if len(cfg.Workflow.ModelOverrides) != 1 {
		t.Fatalf("expected 1 model override, got %d", len(cfg.Workflow.ModelOverrides))
	}
	ov := cfg.Workflow.ModelOverrides[0]
	if ov.Phase != phase.ArgumentDraft || ov.Tier != tier.ExecPremium {
		t.Errorf("unexpected override route: %+v", ov)
	}
	// Unchanged fields keep defaults
	if cfg.NATS.URL != "nats://localhost:4222" {
		t.Errorf("expected default NATS URL, got %s", cfg.NATS.URL)
	}
}

func TestLoadYAMLMissing(t *testing.T) {
	cfg := Defaults()
	err := loadYAML(&cfg, "/nonexistent/path.yaml")
	if err != nil {
		t.Errorf("missing YAML should not error, got %v", err)
	}
}

func TestEnvOverride(t *testing.T) {
	cfg := Defaults()

	t.Setenv("ENGINE_PORT", "7070")
	t.Setenv("DATABASE_URL", "postgres://test:test@db:5432/test")
	t.Setenv("ENGINE_PG_MAX_CONNS", "25")
	t.Setenv("ENGINE_LOG_LEVEL", "warn")
	t.Setenv("ENGINE_BREAKER_TIMEOUT", "1m")
	t.Setenv("ENGINE_HOLD_INACTIVITY_WINDOW", "96h")

	loadEnv(&cfg)

	if cfg.Server.Port != "7070" {
		t.Errorf("expected port 7070, got %s", cfg.Server.Port)
	}
	if cfg.Postgres.DSN != "postgres://test:test@db:5432/test" {
		t.Errorf("expected test DSN, got %s", cfg.Postgres.DSN)
	}
	if cfg.Postgres.MaxConns != 25 {
		t.Errorf("expected max_conns 25, got %d", cfg.Postgres.MaxConns)
	}
	if cfg.Logging.Level != "warn" {
		t.Errorf("expected log level warn, got %s", cfg.Logging.Level)
	}
	if cfg.Breaker.Timeout != time.Minute {
		t.Errorf("expected breaker timeout 1m, got %v", cfg.Breaker.Timeout)
	}
	if cfg.Workflow.HoldInactivityWindow != 96*time.Hour {
		t.Errorf("expected 96h hold window, got %v", cfg.Workflow.HoldInactivityWindow)
	}
}

func TestValidateRequired(t *testing.T) {
	tests := []struct {
		name   string
		modify func(*Config)
		errMsg string
	}{
		{
			name:   "empty port",
			modify: func(c *Config) { c.Server.Port = "" },
			errMsg: "server.port is required",
		},
		{
			name:   "empty DSN",
			modify: func(c *Config) { c.Postgres.DSN = "" },
			errMsg: "postgres.dsn is required",
		},
		{
			name:   "empty NATS URL",
			modify: func(c *Config) { c.NATS.URL = "" },
			errMsg: "nats.url is required",
		},
		{
			name:   "zero max_conns",
			modify: func(c *Config) { c.Postgres.MaxConns = 0 },
			errMsg: "postgres.max_conns must be >= 1",
		},
		{
			name:   "zero breaker failures",
			modify: func(c *Config) { c.Breaker.MaxFailures = 0 },
			errMsg: "breaker.max_failures must be >= 1",
		},
		{
			name:   "zero hold window",
			modify: func(c *Config) { c.Workflow.HoldInactivityWindow = 0 },
			errMsg: "workflow.hold_inactivity_window must be positive",
		},
		{
			name: "override without model",
			modify: func(c *Config) {
				c.Workflow.ModelOverrides = []phase.ModelOverride{
					{Phase: phase.ArgumentDraft, Tier: tier.ExecPremium},
				}
			},
			errMsg: "workflow.model_overrides",
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			cfg := Defaults()
			tc.modify(&cfg)
			err := validate(&cfg)
			if err == nil {
				t.Fatal("expected validation error")
			}
			if !strings.Contains(err.Error(), tc.errMsg) {
				t.Errorf("expected %q in error, got %q", tc.errMsg, err.Error())
			}
		})
	}
}

func TestLoadFromAppliesHierarchy(t *testing.T) {
	dir := t.TempDir()
	yamlPath := filepath.Join(dir, "engine.yaml")
	content := `
server:
  port: "9090"
`
	if err := os.WriteFile(yamlPath, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	t.Setenv("ENGINE_PORT", "7070")

	cfg, err := LoadFrom(yamlPath)
	if err != nil {
		t.Fatalf("LoadFrom: %v", err)
	}
	// ENV beats YAML beats defaults.
	if cfg.Server.Port != "7070" {
		t.Errorf("expected env to win with 7070, got %s", cfg.Server.Port)
	}
}
