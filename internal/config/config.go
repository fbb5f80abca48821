// Package config loads studymatch settings from the platform backend and
// STUDYMATCH_* environment variables.
package config

import (
	"fmt"
	"time"
)

type Config struct {
	Server    ServerConfig
	Storage   StorageConfig
	Log       LogConfig
	Matching  MatchingConfig
	Recommend RecommendConfig
	History   HistoryConfig
}

type ServerConfig struct {
	Port       int
	MCPEnabled bool
}

type StorageConfig struct {
	DataDir string
}

type LogConfig struct {
	Level string
}

// MatchingConfig controls partner matching.
type MatchingConfig struct {
	TopN      int
	MinScore  float64
	Normalize string // "exact" or "casefold"
}

type RecommendConfig struct {
	GroupLimit       int
	GroupMinScore    float64
	ResourceLimit    int
	ResourceMinScore float64
}

// HistoryConfig controls the background match-history writer. When disabled,
// history rows are written inline by the request that produced them.
type HistoryConfig struct {
	Enabled      bool
	PollInterval string
}

// PollDuration parses PollInterval, falling back to 500ms when it is invalid.
func (h HistoryConfig) PollDuration() time.Duration {
	d, err := time.ParseDuration(h.PollInterval)
	if err != nil || d <= 0 {
		return 500 * time.Millisecond
	}
	return d
}

func defaults() Config {
	return Config{
		Server: ServerConfig{
			Port:       4100,
			MCPEnabled: true,
		},
		Storage: StorageConfig{
			DataDir: defaultDataDir(),
		},
		Log: LogConfig{
			Level: "info",
		},
		Matching: MatchingConfig{
			TopN:      3,
			MinScore:  0.2,
			Normalize: "exact",
		},
		Recommend: RecommendConfig{
			GroupLimit:       5,
			GroupMinScore:    0.2,
			ResourceLimit:    5,
			ResourceMinScore: 0.1,
		},
		History: HistoryConfig{
			Enabled:      true,
			PollInterval: "500ms",
		},
	}
}

// Load reads configuration from the platform-native backend and environment
// variables.
//
// On macOS the backend is UserDefaults (domain: com.studymatch.app).
// Elsewhere it is a JSON file at $XDG_CONFIG_HOME/studymatch/config.json.
//
// Environment variables (STUDYMATCH_*) override backend values on all platforms.
func Load() (Config, error) {
	return loadWith(newPlatformBackend())
}

func loadWith(b Backend) (Config, error) {
	cfg := defaults()

	if err := applyBackend(&cfg, b); err != nil {
		return Config{}, err
	}

	applyEnvOverrides(&cfg)

	if err := cfg.validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c Config) validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid config: server.port %d out of range", c.Server.Port)
	}
	switch c.Log.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("invalid config: log.level %q (want debug, info, warn or error)", c.Log.Level)
	}
	switch c.Matching.Normalize {
	case "exact", "casefold":
	default:
		return fmt.Errorf("invalid config: matching.normalize %q (want exact or casefold)", c.Matching.Normalize)
	}
	return nil
}
