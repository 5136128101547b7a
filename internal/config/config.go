// Package config loads and validates unisearch configuration.
//
// Precedence, lowest to highest:
//  1. Built-in defaults
//  2. Config file (.unisearch.yaml in the archive root, or an explicit path)
//  3. UNISEARCH_* environment variables
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// ConfigFileName is the per-archive config file name.
const ConfigFileName = ".unisearch.yaml"

// DataDirName is the per-archive data directory name.
const DataDirName = ".unisearch"

// Config represents the complete unisearch configuration.
type Config struct {
	Version   int             `yaml:"version" json:"version"`
	Search    SearchConfig    `yaml:"search" json:"search"`
	Suggest   SuggestConfig   `yaml:"suggest" json:"suggest"`
	Analytics AnalyticsConfig `yaml:"analytics" json:"analytics"`
	Index     IndexConfig     `yaml:"index" json:"index"`
	Server    ServerConfig    `yaml:"server" json:"server"`
}

// SearchConfig configures matching and ranking.
type SearchConfig struct {
	// FuzzyThreshold is the similarity ratio below which fuzzy matches are
	// rejected outright (0.0-1.0). Exact and substring matches are unaffected.
	FuzzyThreshold float64 `yaml:"fuzzy_threshold" json:"fuzzy_threshold"`

	// MinSimilarity is the default score cutoff applied to ranked results.
	MinSimilarity float64 `yaml:"min_similarity" json:"min_similarity"`

	// FuzzyEnabled toggles fuzzy matching by default; exact substring
	// containment always works regardless.
	FuzzyEnabled bool `yaml:"fuzzy_enabled" json:"fuzzy_enabled"`

	// DefaultLimit is the default page size.
	DefaultLimit int `yaml:"default_limit" json:"default_limit"`

	// MaxLimit is the maximum allowed page size.
	MaxLimit int `yaml:"max_limit" json:"max_limit"`
}

// SuggestConfig configures the autocomplete suggester.
type SuggestConfig struct {
	// MaxLimit caps suggestion counts regardless of the requested limit.
	MaxLimit int `yaml:"max_limit" json:"max_limit"`

	// CacheSize is the LRU cache capacity for suggestion result lists.
	CacheSize int `yaml:"cache_size" json:"cache_size"`
}

// AnalyticsConfig configures the analytics tracker.
type AnalyticsConfig struct {
	// RecentCapacity bounds the recent-searches list.
	RecentCapacity int `yaml:"recent_capacity" json:"recent_capacity"`

	// PopularCapacity bounds the popular-queries table.
	PopularCapacity int `yaml:"popular_capacity" json:"popular_capacity"`

	// FlushInterval is how often the snapshot is persisted ("60s", "5m",
	// "0" disables the flush loop).
	FlushInterval string `yaml:"flush_interval" json:"flush_interval"`
}

// IndexConfig configures the record index and its providers.
type IndexConfig struct {
	// ArchivePath is the SQLite archive database to project records from.
	ArchivePath string `yaml:"archive_path" json:"archive_path"`

	// ExcerptIndexPath is the Bleve excerpt index location. Empty disables
	// the auxiliary document candidate source.
	ExcerptIndexPath string `yaml:"excerpt_index_path" json:"excerpt_index_path"`

	// WatchDebounce is the quiet period after an archive change before a
	// rebuild is triggered ("500ms").
	WatchDebounce string `yaml:"watch_debounce" json:"watch_debounce"`
}

// ServerConfig configures the MCP server.
type ServerConfig struct {
	Transport string `yaml:"transport" json:"transport"`
	LogLevel  string `yaml:"log_level" json:"log_level"`
}

// NewConfig returns a Config populated with defaults.
func NewConfig() *Config {
	return &Config{
		Version: 1,
		Search: SearchConfig{
			FuzzyThreshold: 0.6,
			MinSimilarity:  0.3,
			FuzzyEnabled:   true,
			DefaultLimit:   10,
			MaxLimit:       100,
		},
		Suggest: SuggestConfig{
			MaxLimit:  50,
			CacheSize: 256,
		},
		Analytics: AnalyticsConfig{
			RecentCapacity:  100,
			PopularCapacity: 500,
			FlushInterval:   "60s",
		},
		Index: IndexConfig{
			ArchivePath:   filepath.Join(DataDirName, "archive.db"),
			WatchDebounce: "500ms",
		},
		Server: ServerConfig{
			Transport: "stdio",
			LogLevel:  "info",
		},
	}
}

// Load reads configuration from the given file path, falling back to
// defaults if the file does not exist. Environment overrides are applied
// last. Pass "" to skip file loading entirely.
func Load(path string) (*Config, error) {
	cfg := NewConfig()

	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case os.IsNotExist(err):
			// Defaults only
		case err != nil:
			return nil, fmt.Errorf("read config %s: %w", path, err)
		default:
			if err := yaml.Unmarshal(data, cfg); err != nil {
				return nil, fmt.Errorf("parse config %s: %w", path, err)
			}
		}
	}

	cfg.applyEnv()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadFromRoot loads .unisearch.yaml relative to an archive root directory.
func LoadFromRoot(root string) (*Config, error) {
	return Load(filepath.Join(root, ConfigFileName))
}

// applyEnv applies UNISEARCH_* environment variable overrides.
func (c *Config) applyEnv() {
	if v := os.Getenv("UNISEARCH_FUZZY_THRESHOLD"); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			c.Search.FuzzyThreshold = f
		}
	}
	if v := os.Getenv("UNISEARCH_MIN_SIMILARITY"); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			c.Search.MinSimilarity = f
		}
	}
	if v := os.Getenv("UNISEARCH_MAX_LIMIT"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			c.Search.MaxLimit = n
		}
	}
	if v := os.Getenv("UNISEARCH_ARCHIVE_PATH"); v != "" {
		c.Index.ArchivePath = v
	}
	if v := os.Getenv("UNISEARCH_LOG_LEVEL"); v != "" {
		c.Server.LogLevel = v
	}
	if v := os.Getenv("UNISEARCH_FLUSH_INTERVAL"); v != "" {
		c.Analytics.FlushInterval = v
	}
}

// Validate checks configuration invariants.
func (c *Config) Validate() error {
	if c.Search.FuzzyThreshold < 0 || c.Search.FuzzyThreshold > 1 {
		return fmt.Errorf("search.fuzzy_threshold must be in [0,1], got %v", c.Search.FuzzyThreshold)
	}
	if c.Search.MinSimilarity < 0 || c.Search.MinSimilarity > 1 {
		return fmt.Errorf("search.min_similarity must be in [0,1], got %v", c.Search.MinSimilarity)
	}
	if c.Search.DefaultLimit <= 0 {
		return fmt.Errorf("search.default_limit must be positive, got %d", c.Search.DefaultLimit)
	}
	if c.Search.MaxLimit < c.Search.DefaultLimit {
		return fmt.Errorf("search.max_limit (%d) must be >= search.default_limit (%d)",
			c.Search.MaxLimit, c.Search.DefaultLimit)
	}
	if c.Suggest.MaxLimit <= 0 || c.Suggest.MaxLimit > 50 {
		return fmt.Errorf("suggest.max_limit must be in (0,50], got %d", c.Suggest.MaxLimit)
	}
	if c.Analytics.RecentCapacity <= 0 {
		return fmt.Errorf("analytics.recent_capacity must be positive, got %d", c.Analytics.RecentCapacity)
	}
	if c.Analytics.PopularCapacity <= 0 {
		return fmt.Errorf("analytics.popular_capacity must be positive, got %d", c.Analytics.PopularCapacity)
	}
	if _, err := c.FlushInterval(); err != nil {
		return err
	}
	if _, err := c.WatchDebounce(); err != nil {
		return err
	}
	return nil
}

// FlushInterval parses the analytics flush interval.
func (c *Config) FlushInterval() (time.Duration, error) {
	return parseDuration("analytics.flush_interval", c.Analytics.FlushInterval, 60*time.Second)
}

// WatchDebounce parses the index watch debounce.
func (c *Config) WatchDebounce() (time.Duration, error) {
	return parseDuration("index.watch_debounce", c.Index.WatchDebounce, 500*time.Millisecond)
}

func parseDuration(field, value string, fallback time.Duration) (time.Duration, error) {
	if value == "" {
		return fallback, nil
	}
	if value == "0" {
		return 0, nil
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		return 0, fmt.Errorf("%s: invalid duration %q", field, value)
	}
	if d < 0 {
		return 0, fmt.Errorf("%s: duration must not be negative", field)
	}
	return d, nil
}

// Save writes the configuration to the given path as YAML.
func (c *Config) Save(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create config directory: %w", err)
	}
	return os.WriteFile(path, data, 0o644)
}
