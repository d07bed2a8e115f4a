package config

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/knadh/koanf/parsers/json"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"

	"github.com/kilianp07/auvplan/core/metrics"
	"github.com/kilianp07/auvplan/core/model"
	"github.com/kilianp07/auvplan/core/power"
	"github.com/kilianp07/auvplan/core/speed"
	"github.com/kilianp07/auvplan/infra/mqtt"
)

type Config struct {
	Plan     PlanConfig         `json:"plan"`
	Speed    speed.Config       `json:"speed"`
	Power    power.Config       `json:"power"`
	Entities []model.EntityInfo `json:"entities"`
	MQTT     mqtt.Config        `json:"mqtt"`
	Metrics  metrics.Config     `json:"metrics"`
	Store    StoreConfig        `json:"store"`
	Sentry   SentryConfig       `json:"sentry"`
	API      APIConfig          `json:"api"`
}

// Default returns the configuration used when a file leaves settings out.
func Default() Config {
	return Config{
		Plan: PlanConfig{ComputeProgress: true, FuelPrediction: true},
	}
}

func Load(path string) (*Config, error) {
	k := koanf.New(".")
	ext := strings.ToLower(filepath.Ext(path))
	var parser koanf.Parser
	switch ext {
	case ".yaml", ".yml":
		parser = yaml.Parser()
	case ".json":
		parser = json.Parser()
	default:
		return nil, fmt.Errorf("unsupported config format: %s", ext)
	}
	if err := k.Load(file.Provider(path), parser); err != nil {
		return nil, err
	}
	// Optional environment overrides
	if err := k.Load(env.Provider("K_", "__", func(s string) string {
		s = strings.TrimPrefix(strings.ToLower(s), "k_")
		return strings.ReplaceAll(s, "__", ".")
	}), nil); err != nil {
		return nil, err
	}
	cfg := Default()
	if err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{Tag: "json"}); err != nil {
		return nil, err
	}
	cfg.SetDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// SetDefaults fills unset settings of every section.
func (c *Config) SetDefaults() {
	c.Plan.SetDefaults()
	c.Store.SetDefaults()
	c.API.SetDefaults()
}

// Validate checks every section and reports all problems at once.
func (c Config) Validate() error {
	var errs []error
	if err := c.Plan.Validate(); err != nil {
		errs = append(errs, fmt.Errorf("plan: %w", err))
	}
	if err := c.Store.Validate(); err != nil {
		errs = append(errs, fmt.Errorf("store: %w", err))
	}
	seen := make(map[string]struct{}, len(c.Entities))
	for i, e := range c.Entities {
		if e.Label == "" {
			errs = append(errs, fmt.Errorf("entities[%d]: label is required", i))
			continue
		}
		if _, dup := seen[e.Label]; dup {
			errs = append(errs, fmt.Errorf("entities[%d]: duplicate label %s", i, e.Label))
		}
		seen[e.Label] = struct{}{}
	}
	return errors.Join(errs...)
}
