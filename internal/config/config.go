package config

import (
	"fmt"
	"os"
	"strconv"

	"gopkg.in/yaml.v3"

	"github.com/MikeSquared-Agency/Impact/internal/scoring"
)

type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Database DatabaseConfig `yaml:"database"`
	Hermes   HermesConfig   `yaml:"hermes"`
	Scoring  ScoringConfig  `yaml:"scoring"`
	Seed     SeedConfig     `yaml:"seed"`
	Logging  LoggingConfig  `yaml:"logging"`
}

type ServerConfig struct {
	Port        int    `yaml:"port"`
	MetricsPort int    `yaml:"metrics_port"`
	AdminToken  string `yaml:"admin_token"`
	RateLimit   int    `yaml:"rate_limit_per_minute"`
}

// DatabaseConfig selects the store. An empty URL keeps everything in memory.
type DatabaseConfig struct {
	URL string `yaml:"url"`
}

// HermesConfig points at the NATS server. An empty URL disables events.
type HermesConfig struct {
	URL string `yaml:"url"`
}

type ScoringConfig struct {
	Model           string         `yaml:"model"`
	Weights         *FactorWeights `yaml:"weights"`
	Blend           BlendConfig    `yaml:"blend"`
	ROI             ROIConfig      `yaml:"roi"`
	SecondaryWeight string         `yaml:"secondary_weight"`
}

// FactorWeights are listed in model factor order. Left unset, the model's
// preset weights apply.
type FactorWeights struct {
	FactorA float64 `yaml:"factor_a"`
	FactorB float64 `yaml:"factor_b"`
	FactorC float64 `yaml:"factor_c"`
}

type BlendConfig struct {
	BaselineWeight    float64 `yaml:"baseline_weight"`
	FulfillmentWeight float64 `yaml:"fulfillment_weight"`
}

type ROIConfig struct {
	Midpoint float64 `yaml:"midpoint"`
	Scale    float64 `yaml:"scale"`
}

// SeedConfig names a scenario file loaded into an empty store at startup.
// Empty uses the built-in scenario for the configured model.
type SeedConfig struct {
	Path     string `yaml:"path"`
	Disabled bool   `yaml:"disabled"`
}

type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// ScoringConfig converts the file/env settings into an engine config.
func (c *Config) ScoringConfig() (scoring.Config, error) {
	sc, err := scoring.ConfigForModel(c.Scoring.Model)
	if err != nil {
		return scoring.Config{}, err
	}
	if w := c.Scoring.Weights; w != nil {
		sc.Weights = scoring.FactorWeights{w.FactorA, w.FactorB, w.FactorC}
	}
	sc.Blend = scoring.Blend{
		Baseline:    c.Scoring.Blend.BaselineWeight,
		Fulfillment: c.Scoring.Blend.FulfillmentWeight,
	}
	sc.ROI = scoring.ROIParams{Midpoint: c.Scoring.ROI.Midpoint, Scale: c.Scoring.ROI.Scale}
	sc.SecondaryWeight = scoring.SecondaryWeight(c.Scoring.SecondaryWeight)
	return sc, nil
}

// Validate rejects configs the service must not start with.
func (c *Config) Validate() error {
	sc, err := c.ScoringConfig()
	if err != nil {
		return err
	}
	if err := sc.Validate(); err != nil {
		return fmt.Errorf("scoring: %w", err)
	}
	return nil
}

func Load(path string) (*Config, error) {
	cfg := &Config{
		Server: ServerConfig{
			Port:        8700,
			MetricsPort: 8701,
			RateLimit:   120,
		},
		Hermes: HermesConfig{
			URL: "nats://localhost:4222",
		},
		Scoring: ScoringConfig{
			Model: scoring.ModelExperience,
			Blend: BlendConfig{
				BaselineWeight:    0.3,
				FulfillmentWeight: 0.7,
			},
			ROI: ROIConfig{
				Midpoint: 50,
				Scale:    1000,
			},
			SecondaryWeight: string(scoring.SecondaryNone),
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
		},
	}

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config: %w", err)
		}
	}

	applyEnv(cfg)
	return cfg, nil
}

func applyEnv(cfg *Config) {
	if v := os.Getenv("IMPACT_PORT"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Server.Port = n
		}
	}
	if v := os.Getenv("IMPACT_METRICS_PORT"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Server.MetricsPort = n
		}
	}
	if v := os.Getenv("IMPACT_ADMIN_TOKEN"); v != "" {
		cfg.Server.AdminToken = v
	}
	if v := os.Getenv("IMPACT_DATABASE_URL"); v != "" {
		cfg.Database.URL = v
	}
	if v := os.Getenv("IMPACT_HERMES_URL"); v != "" {
		cfg.Hermes.URL = v
	}
	if v := os.Getenv("IMPACT_SCORING_MODEL"); v != "" {
		cfg.Scoring.Model = v
	}
	if v := os.Getenv("IMPACT_SECONDARY_WEIGHT"); v != "" {
		cfg.Scoring.SecondaryWeight = v
	}
	if v := os.Getenv("IMPACT_SEED_PATH"); v != "" {
		cfg.Seed.Path = v
	}
	if v := os.Getenv("IMPACT_SEED_DISABLED"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			cfg.Seed.Disabled = b
		}
	}
	if v := os.Getenv("IMPACT_LOG_LEVEL"); v != "" {
		cfg.Logging.Level = v
	}
	if v := os.Getenv("IMPACT_LOG_FORMAT"); v != "" {
		cfg.Logging.Format = v
	}
}
