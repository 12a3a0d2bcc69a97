package config

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

type Config struct {
	ListenAddr       string        `yaml:"listen_addr"`
	DB               DBConfig      `yaml:"db"`
	ConstitutionPath string        `yaml:"constitution_path"`
	ActionPolicyPath string        `yaml:"action_policy_path"`
	Notify           NotifyConfig  `yaml:"notify"`
	Monitor          MonitorConfig `yaml:"monitor"`
}

type DBConfig struct {
	Driver string `yaml:"driver"`
	DSN    string `yaml:"dsn"`
}

type NotifyConfig struct {
	WebhookURL string            `yaml:"webhook_url"`
	Headers    map[string]string `yaml:"headers"`
}

// MonitorConfig overrides tripwire thresholds. Zero values keep defaults.
type MonitorConfig struct {
	FairnessRisePts  float64 `yaml:"fairness_rise_pts"`
	ReserveFloorPct  float64 `yaml:"reserve_floor_pct"`
	ReserveSlackPct  float64 `yaml:"reserve_slack_pct"`
	OODZScore        float64 `yaml:"ood_z_score"`
	AppealRatePct    float64 `yaml:"appeal_rate_pct"`
	AppealsUpheldPct float64 `yaml:"appeals_upheld_pct"`
}

func Load(path string) (Config, error) {
	// #nosec G304 -- path is operator-provided config path.
	raw, err := os.ReadFile(path)
	if err != nil {
		return Config{}, err
	}

	expanded := os.ExpandEnv(string(raw))
	expanded = strings.ReplaceAll(expanded, "\r\n", "\n")

	var cfg Config
	if err := yaml.Unmarshal([]byte(expanded), &cfg); err != nil {
		return Config{}, err
	}
	return cfg, cfg.Validate()
}

func (c Config) Validate() error {
	if c.ListenAddr == "" {
		return fmt.Errorf("listen_addr is required")
	}
	if c.ConstitutionPath == "" {
		return fmt.Errorf("constitution_path is required")
	}

	if c.DB.Driver != "" && c.DB.DSN == "" {
		return fmt.Errorf("db.dsn is required when db.driver is set")
	}
	switch c.DB.Driver {
	case "", "sqlite", "postgres":
	default:
		return fmt.Errorf("db.driver must be sqlite or postgres, got %q", c.DB.Driver)
	}

	return nil
}
