// Package config loads the runtime tunables for the MCP server and task
// executor from a TOML file, with sensible defaults when no file is present.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
)

// Config is the top-level runtime configuration.
type Config struct {
	ScanPackages              []string       `toml:"scan_packages"`
	DefaultTimeoutMs          int            `toml:"default_timeout_ms"`
	MaxInitializationTimeMs   int            `toml:"max_initialization_time_ms"`
	WorkerParallelism         int            `toml:"worker_parallelism"`
	StuckTaskThresholdMinutes int            `toml:"stuck_task_threshold_minutes"`
	RetentionDays             int            `toml:"retention_days"`
	MaxQueueDepth             int            `toml:"max_queue_depth"` // 0 = unbounded
	AsyncEnabled              bool           `toml:"async_enabled"`
	LogToolDiscovery          bool           `toml:"log_tool_discovery"`
	LogToolExecution          bool           `toml:"log_tool_execution"`
	LogPerformanceMetrics     bool           `toml:"log_performance_metrics"`
	CacheProvider             string         `toml:"cache_provider"` // "none" | "persistent"
	DBPath                    string         `toml:"db_path"`
	HTTPAddr                  string         `toml:"http_addr"`
	Keys                      APIKeys        `toml:"keys"`
	DescribeProvider          ProviderConfig `toml:"describe_provider"`
}

// APIKeys holds per-provider credentials. describe_tool reads Anthropic for
// kind "anthropic" and OpenAI for kind "openai_compat"; GLM, Kimi and
// MiniMax are stored but not read.
type APIKeys struct {
	Anthropic string `toml:"anthropic"`
	OpenAI    string `toml:"openai"`
	GLM       string `toml:"glm"`
	Kimi      string `toml:"kimi"`
	MiniMax   string `toml:"minimax"`
}

// ProviderConfig selects which AI provider and model back describe_tool's
// AI-assisted description generation. The operator supplies the model ID
// and (for openai_compat) the base URL directly — this deployment has no
// hardcoded model roster.
type ProviderConfig struct {
	Kind    string `toml:"kind"`     // "anthropic" | "openai_compat"
	ModelID string `toml:"model_id"`
	BaseURL string `toml:"base_url"` // openai_compat only; empty = api.openai.com
}

// Default returns the configuration's documented defaults.
func Default() *Config {
	return &Config{
		DefaultTimeoutMs:          10000,
		MaxInitializationTimeMs:   5000,
		WorkerParallelism:         4,
		StuckTaskThresholdMinutes: 30,
		RetentionDays:             7,
		MaxQueueDepth:             0,
		AsyncEnabled:              true,
		LogToolDiscovery:          true,
		LogToolExecution:          true,
		LogPerformanceMetrics:     false,
		CacheProvider:             "none",
		DBPath:                    "",
		HTTPAddr:                  ":8080",
		DescribeProvider:          ProviderConfig{Kind: "anthropic", ModelID: "claude-haiku"},
	}
}

// configDir returns ~/.config/argo/.
func configDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("config: cannot determine home directory: %w", err)
	}
	return filepath.Join(home, ".config", "argo"), nil
}

func configPath() (string, error) {
	dir, err := configDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.toml"), nil
}

// Load reads ~/.config/argo/config.toml, falling back silently to defaults
// when the file does not exist (the MCP runtime is expected to work
// out of the box, unlike a CLI that must be explicitly initialised).
func Load() (*Config, error) {
	cfg := Default()

	path, err := configPath()
	if err != nil {
		return cfg, nil
	}

	if _, err := toml.DecodeFile(path, cfg); err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return nil, fmt.Errorf("config: failed to parse %s: %w", path, err)
	}
	return cfg, nil
}

// Save writes cfg to ~/.config/argo/config.toml, creating the directory if
// needed.
func Save(cfg *Config) error {
	dir, err := configDir()
	if err != nil {
		return err
	}
	if err := os.MkdirAll(dir, 0700); err != nil {
		return fmt.Errorf("config: failed to create directory %s: %w", dir, err)
	}

	path := filepath.Join(dir, "config.toml")
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("config: failed to create %s: %w", path, err)
	}
	defer f.Close()

	if err := toml.NewEncoder(f).Encode(cfg); err != nil {
		return fmt.Errorf("config: failed to write %s: %w", path, err)
	}
	return nil
}

// DefaultDBPath returns the default sqlite path under ~/.config/argo/.
func DefaultDBPath() (string, error) {
	dir, err := configDir()
	if err != nil {
		return "", err
	}
	if err := os.MkdirAll(dir, 0700); err != nil {
		return "", fmt.Errorf("config: failed to create directory %s: %w", dir, err)
	}
	return filepath.Join(dir, "argo.db"), nil
}
