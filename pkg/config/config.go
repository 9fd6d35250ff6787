// Package config loads crewctl's process-wide settings from a YAML file.
// Socket dir, working dir, relieve cooldown, metrics listen address, log
// level and the developer pool bounds can each be overridden by a
// CREWCTL_* environment variable; backend settings and log format cannot.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"

	"crewctl/pkg/backend"
)

// DeveloperPool bounds the developer crew size; the bounds themselves are
// a spec-fixed [1,3] invariant, carried as data so the clamp in
// pkg/runtime reads from config rather than a scattered literal.
type DeveloperPool struct {
	Min int `yaml:"min"`
	Max int `yaml:"max"`
}

// BackendConfig selects which concrete Backend a role's worker constructs
// and how it is configured.
type BackendConfig struct {
	Kind              backend.Kind  `yaml:"kind"`
	Model             string        `yaml:"model"`
	APIKey            string        `yaml:"api_key"`
	OllamaHost        string        `yaml:"ollama_host"`
	TotalTimeout      time.Duration `yaml:"total_timeout"`
	InactivityTimeout time.Duration `yaml:"inactivity_timeout"`
}

// LoggingConfig controls the ambient logger.
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// MetricsConfig controls the Prometheus HTTP exposition endpoint.
type MetricsConfig struct {
	ListenAddr string `yaml:"listen_addr"`
}

// Config is the top-level shape of crewctl.yaml.
type Config struct {
	SocketDir       string                   `yaml:"socket_dir"`
	WorkingDir      string                   `yaml:"working_dir"`
	DeveloperPool   DeveloperPool            `yaml:"developer_pool"`
	RelieveCooldown time.Duration            `yaml:"relieve_cooldown"`
	Backend         map[string]BackendConfig `yaml:"backend"`
	Logging         LoggingConfig            `yaml:"logging"`
	Metrics         MetricsConfig            `yaml:"metrics"`
}

// Default returns the configuration spec.md's defaults describe: socket
// dir /tmp/claude/orchestrator, pool [1,3], 60s cooldown, claude-cli
// backend for every role, info logging, metrics on :9090.
func Default() *Config {
	defaultBackend := BackendConfig{Kind: backend.KindClaudeCLI}
	return &Config{
		SocketDir:       "/tmp/claude/orchestrator",
		WorkingDir:      ".",
		DeveloperPool:   DeveloperPool{Min: 1, Max: 3},
		RelieveCooldown: 60 * time.Second,
		Backend: map[string]BackendConfig{
			"manager":   defaultBackend,
			"architect": defaultBackend,
			"developer": defaultBackend,
			"scorer":    defaultBackend,
		},
		Logging: LoggingConfig{Level: "info", Format: "text"},
		Metrics: MetricsConfig{ListenAddr: ":9090"},
	}
}

// BackendFor returns the configured BackendConfig for role, falling back
// to the claude-cli default if the role has no explicit entry.
func (c *Config) BackendFor(role string) BackendConfig {
	if cfg, ok := c.Backend[role]; ok {
		return cfg
	}
	return BackendConfig{Kind: backend.KindClaudeCLI}
}

// Load reads path (YAML), applies CREWCTL_* environment overrides on top
// of its defaults, and returns the resolved Config. A missing file is not
// an error: Load falls back to Default() before applying overrides, the
// same way a fresh checkout with no config file should still run.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			if !os.IsNotExist(err) {
				return nil, fmt.Errorf("config: read %s: %w", path, err)
			}
		} else if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("config: parse %s: %w", path, err)
		}
	}

	applyEnvOverrides(cfg)

	if cfg.DeveloperPool.Min < 1 {
		cfg.DeveloperPool.Min = 1
	}
	if cfg.DeveloperPool.Max > 3 {
		cfg.DeveloperPool.Max = 3
	}

	return cfg, nil
}

// applyEnvOverrides mirrors the teacher's environment-substitution
// behavior in pkg/config/loader.go, simplified to direct env var binds
// (per SPEC_FULL.md §6) rather than ${VAR} substitution inside the file.
func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("CREWCTL_SOCKET_DIR"); v != "" {
		cfg.SocketDir = v
	}
	if v := os.Getenv("CREWCTL_WORKING_DIR"); v != "" {
		cfg.WorkingDir = v
	}
	if v := os.Getenv("CREWCTL_RELIEVE_COOLDOWN"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			cfg.RelieveCooldown = d
		}
	}
	if v := os.Getenv("CREWCTL_METRICS_LISTEN_ADDR"); v != "" {
		cfg.Metrics.ListenAddr = v
	}
	if v := os.Getenv("CREWCTL_LOG_LEVEL"); v != "" {
		cfg.Logging.Level = v
	}
	if v := os.Getenv("CREWCTL_DEVELOPER_POOL_MIN"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.DeveloperPool.Min = n
		}
	}
	if v := os.Getenv("CREWCTL_DEVELOPER_POOL_MAX"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.DeveloperPool.Max = n
		}
	}
}

// ConfigPath resolves the configuration file path per SPEC_FULL.md §6:
// $CREWCTL_CONFIG if set, else ./crewctl.yaml.
func ConfigPath() string {
	if v := os.Getenv("CREWCTL_CONFIG"); v != "" {
		return v
	}
	return "crewctl.yaml"
}
