package config

import (
	"strings"
	"time"

	"github.com/pkg/errors"
	"github.com/spf13/viper"

	"github.com/ansatz-systems/goqaoa/goqaoa"
)

// Backend designations accepted by Config.Backend.
const (
	BackendSim   = "sim"
	BackendCloud = "cloud"
)

// Config carries every run setting the CLI and scripts accept.
//
// The cloud access token is deliberately not part of Config: the cloud
// package reads it from the environment, so it is never serialized.
type Config struct {
	GraphExpr   string      `mapstructure:"graph"`   // graph expression, e.g. "0-1-2-0"
	Layers      int         `mapstructure:"layers"`  // circuit layers (beta, gamma pairs)
	Shots       int         `mapstructure:"shots"`   // samples per circuit execution
	Seed        int64       `mapstructure:"seed"`    // sampling seed; 0 draws from the clock
	Backend     string      `mapstructure:"backend"` // "sim" or "cloud"
	CatalogPath string      `mapstructure:"catalog"` // run catalog db dir; empty disables persistence
	HistPath    string      `mapstructure:"hist"`    // histogram PNG output path; empty skips it
	DotPath     string      `mapstructure:"dot"`     // graph DOT output path; empty skips it
	TopK        int         `mapstructure:"top"`     // leaderboard depth for reports
	Cloud       CloudConfig `mapstructure:"cloud"`
}

type CloudConfig struct {
	APIRoot   string        `mapstructure:"api_root"`   // device service root; empty uses the cloud package fallbacks
	MinQubits int           `mapstructure:"min_qubits"` // smallest device LeastBusy may pick
	PollEvery time.Duration `mapstructure:"poll_every"` // job status poll period
}

func DefaultConfig() Config {
	return Config{
		GraphExpr: "0-1-2-3-4-5-0, 0-2",
		Layers:    1,
		Shots:     1024,
		Seed:      10,
		Backend:   BackendSim,
		TopK:      10,
		Cloud: CloudConfig{
			MinQubits: 6,
			PollEvery: 2 * time.Second,
		},
	}
}

// Load resolves a Config from defaults, an optional YAML file, and the
// environment (GOQAOA_ prefix: GOQAOA_SHOTS, GOQAOA_CLOUD_MIN_QUBITS, ...).
// Environment values win over file values.
func Load(cfgPath string) (Config, error) {
	cfg := DefaultConfig()

	v := viper.New()
	v.SetDefault("graph", cfg.GraphExpr)
	v.SetDefault("layers", cfg.Layers)
	v.SetDefault("shots", cfg.Shots)
	v.SetDefault("seed", cfg.Seed)
	v.SetDefault("backend", cfg.Backend)
	v.SetDefault("catalog", cfg.CatalogPath)
	v.SetDefault("hist", cfg.HistPath)
	v.SetDefault("dot", cfg.DotPath)
	v.SetDefault("top", cfg.TopK)
	v.SetDefault("cloud.api_root", cfg.Cloud.APIRoot)
	v.SetDefault("cloud.min_qubits", cfg.Cloud.MinQubits)
	v.SetDefault("cloud.poll_every", cfg.Cloud.PollEvery)

	v.SetEnvPrefix("GOQAOA")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if len(cfgPath) > 0 {
		v.SetConfigFile(cfgPath)
		if err := v.ReadInConfig(); err != nil {
			return cfg, errors.Wrapf(err, "reading config %q", cfgPath)
		}
	}

	if err := v.Unmarshal(&cfg); err != nil {
		return cfg, errors.Wrap(err, "unmarshaling config")
	}
	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

func (cfg *Config) Validate() error {
	if len(cfg.GraphExpr) == 0 {
		return errors.Wrap(goqaoa.ErrBadGraphExpr, "graph expression is empty")
	}
	if cfg.Layers < 1 {
		return errors.Wrapf(goqaoa.ErrBadParams, "layers must be 1+, got %d", cfg.Layers)
	}
	if cfg.Shots < 1 {
		return errors.Wrapf(goqaoa.ErrBadShotCount, "shots must be 1+, got %d", cfg.Shots)
	}
	if cfg.TopK < 1 {
		return errors.Errorf("top must be 1+, got %d", cfg.TopK)
	}
	switch cfg.Backend {
	case BackendSim:
	case BackendCloud:
		if cfg.Cloud.MinQubits < 1 {
			return errors.Errorf("cloud.min_qubits must be 1+, got %d", cfg.Cloud.MinQubits)
		}
		if cfg.Cloud.PollEvery <= 0 {
			return errors.Errorf("cloud.poll_every must be positive, got %s", cfg.Cloud.PollEvery)
		}
	default:
		return errors.Errorf("unknown backend %q (want %q or %q)", cfg.Backend, BackendSim, BackendCloud)
	}
	return nil
}
