package config

import (
	"fmt"
	"os"
	"strconv"
)

type keyType int

const (
	kString keyType = iota
	kInt
	kBool
	kFloat
)

type keySpec struct {
	key     string
	typ     keyType
	env     string
	apply   func(cfg *Config, v any)
	extract func(cfg Config) any
}

var specs = []keySpec{
	{
		key: "server.port", typ: kInt, env: "STUDYMATCH_SERVER_PORT",
		apply:   func(cfg *Config, v any) { cfg.Server.Port = v.(int) },
		extract: func(cfg Config) any { return cfg.Server.Port },
	},
	{
		key: "server.mcp_enabled", typ: kBool, env: "STUDYMATCH_SERVER_MCP_ENABLED",
		apply:   func(cfg *Config, v any) { cfg.Server.MCPEnabled = v.(bool) },
		extract: func(cfg Config) any { return cfg.Server.MCPEnabled },
	},
	{
		key: "storage.data_dir", typ: kString, env: "STUDYMATCH_STORAGE_DATA_DIR",
		apply:   func(cfg *Config, v any) { cfg.Storage.DataDir = v.(string) },
		extract: func(cfg Config) any { return cfg.Storage.DataDir },
	},
	{
		key: "log.level", typ: kString, env: "STUDYMATCH_LOG_LEVEL",
		apply:   func(cfg *Config, v any) { cfg.Log.Level = v.(string) },
		extract: func(cfg Config) any { return cfg.Log.Level },
	},
	{
		key: "matching.top_n", typ: kInt, env: "STUDYMATCH_MATCHING_TOP_N",
		apply:   func(cfg *Config, v any) { cfg.Matching.TopN = v.(int) },
		extract: func(cfg Config) any { return cfg.Matching.TopN },
	},
	{
		key: "matching.min_score", typ: kFloat, env: "STUDYMATCH_MATCHING_MIN_SCORE",
		apply:   func(cfg *Config, v any) { cfg.Matching.MinScore = v.(float64) },
		extract: func(cfg Config) any { return cfg.Matching.MinScore },
	},
	{
		key: "matching.normalize", typ: kString, env: "STUDYMATCH_MATCHING_NORMALIZE",
		apply:   func(cfg *Config, v any) { cfg.Matching.Normalize = v.(string) },
		extract: func(cfg Config) any { return cfg.Matching.Normalize },
	},
	{
		key: "recommend.group_limit", typ: kInt, env: "STUDYMATCH_RECOMMEND_GROUP_LIMIT",
		apply:   func(cfg *Config, v any) { cfg.Recommend.GroupLimit = v.(int) },
		extract: func(cfg Config) any { return cfg.Recommend.GroupLimit },
	},
	{
		key: "recommend.group_min_score", typ: kFloat, env: "STUDYMATCH_RECOMMEND_GROUP_MIN_SCORE",
		apply:   func(cfg *Config, v any) { cfg.Recommend.GroupMinScore = v.(float64) },
		extract: func(cfg Config) any { return cfg.Recommend.GroupMinScore },
	},
	{
		key: "recommend.resource_limit", typ: kInt, env: "STUDYMATCH_RECOMMEND_RESOURCE_LIMIT",
		apply:   func(cfg *Config, v any) { cfg.Recommend.ResourceLimit = v.(int) },
		extract: func(cfg Config) any { return cfg.Recommend.ResourceLimit },
	},
	{
		key: "recommend.resource_min_score", typ: kFloat, env: "STUDYMATCH_RECOMMEND_RESOURCE_MIN_SCORE",
		apply:   func(cfg *Config, v any) { cfg.Recommend.ResourceMinScore = v.(float64) },
		extract: func(cfg Config) any { return cfg.Recommend.ResourceMinScore },
	},
	{
		key: "history.enabled", typ: kBool, env: "STUDYMATCH_HISTORY_ENABLED",
		apply:   func(cfg *Config, v any) { cfg.History.Enabled = v.(bool) },
		extract: func(cfg Config) any { return cfg.History.Enabled },
	},
	{
		key: "history.poll_interval", typ: kString, env: "STUDYMATCH_HISTORY_POLL_INTERVAL",
		apply:   func(cfg *Config, v any) { cfg.History.PollInterval = v.(string) },
		extract: func(cfg Config) any { return cfg.History.PollInterval },
	},
}

// parse converts a raw string into the key's type.
func (s keySpec) parse(raw string) (any, error) {
	switch s.typ {
	case kInt:
		return strconv.Atoi(raw)
	case kBool:
		return strconv.ParseBool(raw)
	case kFloat:
		return strconv.ParseFloat(raw, 64)
	default:
		return raw, nil
	}
}

// applyBackend overlays stored values. A stored value that no longer parses
// is skipped with a warning so a bad entry cannot keep the server down.
func applyBackend(cfg *Config, b Backend) error {
	for _, s := range specs {
		raw, ok, err := b.Lookup(s.key)
		if err != nil {
			return fmt.Errorf("reading %s: %w", s.key, err)
		}
		if !ok || (raw == "" && s.typ != kString) {
			continue
		}
		v, err := s.parse(raw)
		if err != nil {
			fmt.Fprintf(os.Stderr, "[WARN] could not parse config key %s=%q: %v. Using default value.\n", s.key, raw, err)
			continue
		}
		s.apply(cfg, v)
	}
	return nil
}

func applyEnvOverrides(cfg *Config) {
	for _, s := range specs {
		raw := os.Getenv(s.env)
		if raw == "" {
			continue
		}
		v, err := s.parse(raw)
		if err != nil {
			fmt.Fprintf(os.Stderr, "[WARN] could not parse env var %s=%q: %v. Using default value.\n", s.env, raw, err)
			continue
		}
		s.apply(cfg, v)
	}
}
