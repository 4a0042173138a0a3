package config

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
)

// Defaults for tunable engine parameters.
const (
	DefaultRetentionDays       = 30
	DefaultSimilarityThreshold = 0.8
	DefaultCacheTTLSeconds     = 3600
	DefaultCacheSize           = 1000
	DefaultDescriptionModel    = "gpt-4o-mini"
)

// Config holds application configuration.
type Config struct {
	// StorageDir is where managed screenshot copies live.
	// Defaults to baseDir/screenshots.
	StorageDir string `json:"storage_dir,omitempty"`

	// RetentionDays is the default max age used by the cleanup command
	// when no explicit value is given.
	RetentionDays int `json:"retention_days,omitempty"`

	// SimilarityThreshold is the default minimum similarity for
	// find-similar queries. Must stay in (0, 1].
	SimilarityThreshold float64 `json:"similarity_threshold,omitempty"`

	// CacheTTLSeconds bounds how long AI description responses are reused.
	CacheTTLSeconds int `json:"cache_ttl_seconds,omitempty"`

	// CacheSize is the maximum number of cached description responses.
	CacheSize int `json:"cache_size,omitempty"`

	// DescriptionModel names the vision model used by the describe command.
	DescriptionModel string `json:"description_model,omitempty"`

	// DBMaxOpenConns limits the maximum number of open database connections.
	// If set to 1, all database access is serialized (reduces "database is locked" errors).
	// 0 means use sql.DB default (unlimited). Only set if you experience contention.
	DBMaxOpenConns int `json:"db_max_open_conns,omitempty"`

	// DBMaxIdleConns limits the maximum number of idle database connections.
	// 0 means use sql.DB default. Typically set equal to DBMaxOpenConns.
	DBMaxIdleConns int `json:"db_max_idle_conns,omitempty"`

	// DisabledTools is a list of MCP tool names to exclude from registration.
	// Unknown tool names are ignored at registration time.
	DisabledTools []string `json:"disabled_tools,omitempty"`
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		RetentionDays:       DefaultRetentionDays,
		SimilarityThreshold: DefaultSimilarityThreshold,
		CacheTTLSeconds:     DefaultCacheTTLSeconds,
		CacheSize:           DefaultCacheSize,
		DescriptionModel:    DefaultDescriptionModel,
	}
}

// Load loads configuration from baseDir/config.json.
// Returns default config (with StorageDir under baseDir) if the file doesn't exist.
// The baseDir parameter allows tests to use t.TempDir() instead of ~/.glimpse.
func Load(baseDir string) (*Config, error) {
	cfg, err := loadFile(filepath.Join(baseDir, "config.json"))
	if err != nil {
		return nil, err
	}
	if cfg.StorageDir == "" {
		cfg.StorageDir = filepath.Join(baseDir, "screenshots")
	}
	return cfg, nil
}

// loadFile loads configuration from a specific file path.
func loadFile(configPath string) (*Config, error) {
	data, err := os.ReadFile(configPath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return DefaultConfig(), nil
		}
		return nil, err
	}

	cfg := &Config{}
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, err
	}

	return Merge(DefaultConfig(), cfg), nil
}

// Merge combines base and overlay configs.
// Overlay values take precedence for non-zero scalars.
func Merge(base, overlay *Config) *Config {
	result := &Config{}

	result.StorageDir = overlay.StorageDir
	if result.StorageDir == "" {
		result.StorageDir = base.StorageDir
	}

	result.RetentionDays = overlay.RetentionDays
	if result.RetentionDays == 0 {
		result.RetentionDays = base.RetentionDays
	}

	result.SimilarityThreshold = overlay.SimilarityThreshold
	if result.SimilarityThreshold == 0 {
		result.SimilarityThreshold = base.SimilarityThreshold
	}

	result.CacheTTLSeconds = overlay.CacheTTLSeconds
	if result.CacheTTLSeconds == 0 {
		result.CacheTTLSeconds = base.CacheTTLSeconds
	}

	result.CacheSize = overlay.CacheSize
	if result.CacheSize == 0 {
		result.CacheSize = base.CacheSize
	}

	result.DescriptionModel = overlay.DescriptionModel
	if result.DescriptionModel == "" {
		result.DescriptionModel = base.DescriptionModel
	}

	result.DBMaxOpenConns = overlay.DBMaxOpenConns
	if result.DBMaxOpenConns == 0 {
		result.DBMaxOpenConns = base.DBMaxOpenConns
	}

	result.DBMaxIdleConns = overlay.DBMaxIdleConns
	if result.DBMaxIdleConns == 0 {
		result.DBMaxIdleConns = base.DBMaxIdleConns
	}

	result.DisabledTools = mergeStringSlice(base.DisabledTools, overlay.DisabledTools)

	return result
}

// mergeStringSlice combines two slices and removes duplicates.
func mergeStringSlice(a, b []string) []string {
	seen := make(map[string]bool)
	result := make([]string, 0, len(a)+len(b))

	for _, s := range append(append([]string{}, a...), b...) {
		if s != "" && !seen[s] {
			seen[s] = true
			result = append(result, s)
		}
	}

	if len(result) == 0 {
		return nil
	}
	return result
}
