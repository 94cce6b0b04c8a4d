package config

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/MikeSquared-Agency/Impact/internal/scoring"
)

var envVars = []string{
	"IMPACT_PORT", "IMPACT_METRICS_PORT", "IMPACT_ADMIN_TOKEN",
	"IMPACT_DATABASE_URL", "IMPACT_HERMES_URL", "IMPACT_SCORING_MODEL",
	"IMPACT_SECONDARY_WEIGHT", "IMPACT_SEED_PATH", "IMPACT_SEED_DISABLED",
	"IMPACT_LOG_LEVEL", "IMPACT_LOG_FORMAT",
}

func clearEnv(t *testing.T) {
	for _, k := range envVars {
		t.Setenv(k, "")
		os.Unsetenv(k)
	}
}

func TestLoadDefaults(t *testing.T) {
	clearEnv(t)

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.Server.Port != 8700 {
		t.Errorf("expected port 8700, got %d", cfg.Server.Port)
	}
	if cfg.Server.MetricsPort != 8701 {
		t.Errorf("expected metrics port 8701, got %d", cfg.Server.MetricsPort)
	}
	if cfg.Server.RateLimit != 120 {
		t.Errorf("expected rate limit 120, got %d", cfg.Server.RateLimit)
	}
	if cfg.Database.URL != "" {
		t.Errorf("expected in-memory store by default, got %s", cfg.Database.URL)
	}
	if cfg.Hermes.URL != "nats://localhost:4222" {
		t.Errorf("expected nats URL, got %s", cfg.Hermes.URL)
	}
	if cfg.Logging.Level != "info" || cfg.Logging.Format != "json" {
		t.Errorf("expected info/json logging, got %s/%s", cfg.Logging.Level, cfg.Logging.Format)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("default config invalid: %v", err)
	}

	sc, err := cfg.ScoringConfig()
	if err != nil {
		t.Fatal(err)
	}
	if sc.Model.Name != scoring.ModelExperience {
		t.Errorf("expected experience model, got %s", sc.Model.Name)
	}
	if sc.Weights != scoring.DefaultWeights() {
		t.Errorf("expected default weights, got %v", sc.Weights)
	}
	if sc.Blend != scoring.DefaultBlend() {
		t.Errorf("expected default blend, got %+v", sc.Blend)
	}
	if sc.ROI != scoring.DefaultROI() {
		t.Errorf("expected default roi, got %+v", sc.ROI)
	}
	if sc.SecondaryWeight != scoring.SecondaryNone {
		t.Errorf("expected secondary weight none, got %s", sc.SecondaryWeight)
	}
}

func TestLoadFromEnv(t *testing.T) {
	t.Setenv("IMPACT_PORT", "9000")
	t.Setenv("IMPACT_METRICS_PORT", "9001")
	t.Setenv("IMPACT_ADMIN_TOKEN", "secret-token")
	t.Setenv("IMPACT_DATABASE_URL", "postgres://localhost/impact_test")
	t.Setenv("IMPACT_HERMES_URL", "nats://nats:4222")
	t.Setenv("IMPACT_SCORING_MODEL", "effort")
	t.Setenv("IMPACT_SECONDARY_WEIGHT", "score")
	t.Setenv("IMPACT_SEED_PATH", "/etc/impact/scenario.yaml")
	t.Setenv("IMPACT_SEED_DISABLED", "true")
	t.Setenv("IMPACT_LOG_LEVEL", "debug")
	t.Setenv("IMPACT_LOG_FORMAT", "text")

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.Server.Port != 9000 || cfg.Server.MetricsPort != 9001 {
		t.Errorf("expected ports 9000/9001, got %d/%d", cfg.Server.Port, cfg.Server.MetricsPort)
	}
	if cfg.Server.AdminToken != "secret-token" {
		t.Errorf("expected admin token 'secret-token', got '%s'", cfg.Server.AdminToken)
	}
	if cfg.Database.URL != "postgres://localhost/impact_test" {
		t.Errorf("expected database URL, got '%s'", cfg.Database.URL)
	}
	if cfg.Hermes.URL != "nats://nats:4222" {
		t.Errorf("expected hermes URL, got '%s'", cfg.Hermes.URL)
	}
	if cfg.Seed.Path != "/etc/impact/scenario.yaml" || !cfg.Seed.Disabled {
		t.Errorf("unexpected seed config: %+v", cfg.Seed)
	}
	if cfg.Logging.Level != "debug" || cfg.Logging.Format != "text" {
		t.Errorf("expected debug/text logging, got %s/%s", cfg.Logging.Level, cfg.Logging.Format)
	}

	sc, err := cfg.ScoringConfig()
	if err != nil {
		t.Fatal(err)
	}
	if sc.Model.Name != scoring.ModelEffort {
		t.Errorf("expected effort model, got %s", sc.Model.Name)
	}
	if sc.Weights != scoring.EffortWeights() {
		t.Errorf("expected effort weights, got %v", sc.Weights)
	}
	if sc.SecondaryWeight != scoring.SecondaryScore {
		t.Errorf("expected secondary weight score, got %s", sc.SecondaryWeight)
	}
}

func TestLoadFromFile(t *testing.T) {
	clearEnv(t)

	path := filepath.Join(t.TempDir(), "impact.yaml")
	data := `
server:
  port: 8800
scoring:
  model: experience
  weights:
    factor_a: 0.3
    factor_b: 0.4
    factor_c: 0.3
  secondary_weight: volume
`
	if err := os.WriteFile(path, []byte(data), 0o600); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Server.Port != 8800 {
		t.Errorf("expected port 8800, got %d", cfg.Server.Port)
	}
	// Untouched keys keep their defaults.
	if cfg.Server.MetricsPort != 8701 {
		t.Errorf("expected metrics port 8701, got %d", cfg.Server.MetricsPort)
	}
	sc, err := cfg.ScoringConfig()
	if err != nil {
		t.Fatal(err)
	}
	if sc.Weights != (scoring.FactorWeights{0.3, 0.4, 0.3}) {
		t.Errorf("expected file weights, got %v", sc.Weights)
	}
	if sc.SecondaryWeight != scoring.SecondaryVolume {
		t.Errorf("expected volume secondary weight, got %s", sc.SecondaryWeight)
	}
	if sc.Blend != scoring.DefaultBlend() {
		t.Errorf("expected default blend, got %+v", sc.Blend)
	}
}

func TestValidateRejectsBadWeights(t *testing.T) {
	clearEnv(t)

	cfg, err := Load("")
	if err != nil {
		t.Fatal(err)
	}
	cfg.Scoring.Weights = &FactorWeights{FactorA: 0.5, FactorB: 0.5, FactorC: 0.5}
	if err := cfg.Validate(); !errors.Is(err, scoring.ErrInvalidWeights) {
		t.Errorf("expected ErrInvalidWeights, got %v", err)
	}

	cfg.Scoring.Weights = nil
	cfg.Scoring.Model = "nps"
	if err := cfg.Validate(); err == nil {
		t.Error("expected error for unknown model")
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Error("expected error for missing config file")
	}
}

func TestNewLogger(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger(LoggingConfig{Level: "warn", Format: "json"}, &buf)
	logger.Info("hidden")
	logger.Warn("shown", "k", "v")

	out := buf.String()
	if strings.Contains(out, "hidden") {
		t.Error("info message should be filtered at warn level")
	}
	if !strings.Contains(out, `"msg":"shown"`) {
		t.Errorf("expected JSON warn line, got %q", out)
	}
}
