// Package config provides configuration management for the pager and the
// REPL host.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/bawdo/sqlpage/paging"
	"github.com/bawdo/sqlpage/parser"
)

// Config holds every tunable of a pagination deployment.
type Config struct {
	// Elision rule
	ElideOrderBy         bool `json:"elide_order_by" yaml:"elide_order_by"`
	ElideLimit           bool `json:"elide_limit" yaml:"elide_limit"`
	ElideOffset          bool `json:"elide_offset" yaml:"elide_offset"`
	ElideRootSelectItems bool `json:"elide_root_select_items" yaml:"elide_root_select_items"`

	// Parser limits
	MaxDepth int `json:"max_depth" yaml:"max_depth"` // Parenthesis nesting limit

	// Paging
	DefaultPageSize int    `json:"default_page_size" yaml:"default_page_size"` // Rows per page when none is requested
	MaxPageSize     int    `json:"max_page_size" yaml:"max_page_size"`         // Upper bound on requested page sizes
	OverflowToLast  bool   `json:"overflow_to_last" yaml:"overflow_to_last"`   // Clamp offsets past the end to the last page
	Placeholder     string `json:"placeholder" yaml:"placeholder"`             // "question" or "dollar"
	CacheSize       int    `json:"cache_size" yaml:"cache_size"`               // Parsed statements kept (0 = no cache)

	// Logging
	LogLevel  string `json:"log_level" yaml:"log_level"`   // DEBUG, INFO, WARN, ERROR
	LogFormat string `json:"log_format" yaml:"log_format"` // text or json
}

// Default configuration values
const (
	DefaultMaxDepth        = parser.DefaultMaxDepth
	DefaultPageSize        = 20
	DefaultMaxPageSize     = 1000
	DefaultCacheSize       = 128
	DefaultPlaceholder     = "question"
	DefaultLogLevel        = "INFO"
	DefaultLogFormat       = "text"
	placeholderDollar      = "dollar"
	envPrefix              = "SQLPAGE_"
	maxReasonableCacheSize = 1 << 20
)

// NewConfig creates a configuration with default values.
func NewConfig() Config {
	return Config{
		ElideOrderBy:         true,
		ElideLimit:           true,
		ElideOffset:          true,
		ElideRootSelectItems: true,

		MaxDepth: DefaultMaxDepth,

		DefaultPageSize: DefaultPageSize,
		MaxPageSize:     DefaultMaxPageSize,
		OverflowToLast:  true,
		Placeholder:     DefaultPlaceholder,
		CacheSize:       DefaultCacheSize,

		LogLevel:  DefaultLogLevel,
		LogFormat: DefaultLogFormat,
	}
}

// Validate validates the configuration and returns an error if invalid.
func (c *Config) Validate() error {
	if c.MaxDepth <= 0 {
		return fmt.Errorf("MaxDepth must be positive, got %d", c.MaxDepth)
	}
	if c.DefaultPageSize <= 0 {
		return fmt.Errorf("DefaultPageSize must be positive, got %d", c.DefaultPageSize)
	}
	if c.MaxPageSize <= 0 {
		return fmt.Errorf("MaxPageSize must be positive, got %d", c.MaxPageSize)
	}
	if c.DefaultPageSize > c.MaxPageSize {
		return fmt.Errorf("DefaultPageSize (%d) cannot exceed MaxPageSize (%d)", c.DefaultPageSize, c.MaxPageSize)
	}
	if c.CacheSize < 0 || c.CacheSize > maxReasonableCacheSize {
		return fmt.Errorf("CacheSize must be between 0 and %d, got %d", maxReasonableCacheSize, c.CacheSize)
	}
	switch strings.ToLower(c.Placeholder) {
	case DefaultPlaceholder, placeholderDollar:
	default:
		return fmt.Errorf("Placeholder must be %q or %q, got %q", DefaultPlaceholder, placeholderDollar, c.Placeholder)
	}
	switch strings.ToUpper(c.LogLevel) {
	case "DEBUG", "INFO", "WARN", "ERROR":
	default:
		return fmt.Errorf("LogLevel must be DEBUG, INFO, WARN or ERROR, got %q", c.LogLevel)
	}
	switch strings.ToLower(c.LogFormat) {
	case "text", "json":
	default:
		return fmt.Errorf("LogFormat must be text or json, got %q", c.LogFormat)
	}
	return nil
}

// WithDefaults fills zero-valued numeric and string fields with defaults.
// Booleans are left as loaded.
func (c Config) WithDefaults() Config {
	if c.MaxDepth == 0 {
		c.MaxDepth = DefaultMaxDepth
	}
	if c.DefaultPageSize == 0 {
		c.DefaultPageSize = DefaultPageSize
	}
	if c.MaxPageSize == 0 {
		c.MaxPageSize = DefaultMaxPageSize
	}
	if c.Placeholder == "" {
		c.Placeholder = DefaultPlaceholder
	}
	if c.LogLevel == "" {
		c.LogLevel = DefaultLogLevel
	}
	if c.LogFormat == "" {
		c.LogFormat = DefaultLogFormat
	}
	return c
}

// ForEngine returns c with the placeholder style the engine's driver
// accepts. postgres only binds $n and mysql only binds ?; other engines keep
// the configured style.
func (c Config) ForEngine(engine string) Config {
	switch strings.ToLower(engine) {
	case "postgres":
		c.Placeholder = placeholderDollar
	case "mysql":
		c.Placeholder = DefaultPlaceholder
	}
	return c
}

// LoadFromJSON loads configuration from JSON data. Fields absent from data
// keep their defaults.
func LoadFromJSON(data []byte) (Config, error) {
	config := NewConfig()
	if err := json.Unmarshal(data, &config); err != nil {
		return Config{}, fmt.Errorf("parsing JSON configuration: %w", err)
	}
	return config.WithDefaults(), nil
}

// LoadFromFile loads configuration from a JSON or YAML file. Fields absent
// from the file keep their defaults.
func LoadFromFile(filename string) (Config, error) {
	data, err := os.ReadFile(filename)
	if err != nil {
		return Config{}, fmt.Errorf("reading config file %s: %w", filename, err)
	}

	config := NewConfig()
	ext := strings.ToLower(filepath.Ext(filename))

	switch ext {
	case ".json":
		err = json.Unmarshal(data, &config)
	case ".yaml", ".yml":
		err = yaml.Unmarshal(data, &config)
	default:
		return Config{}, fmt.Errorf("unsupported config file format: %s", ext)
	}

	if err != nil {
		return Config{}, fmt.Errorf("parsing config file %s: %w", filename, err)
	}

	return config.WithDefaults(), nil
}

// LoadFromEnv loads configuration from SQLPAGE_* environment variables over
// the defaults. Unparsable values are ignored.
func LoadFromEnv() Config {
	config := NewConfig()

	envBool("ELIDE_ORDER_BY", &config.ElideOrderBy)
	envBool("ELIDE_LIMIT", &config.ElideLimit)
	envBool("ELIDE_OFFSET", &config.ElideOffset)
	envBool("ELIDE_ROOT_SELECT_ITEMS", &config.ElideRootSelectItems)
	envBool("OVERFLOW_TO_LAST", &config.OverflowToLast)

	envInt("MAX_DEPTH", &config.MaxDepth)
	envInt("DEFAULT_PAGE_SIZE", &config.DefaultPageSize)
	envInt("MAX_PAGE_SIZE", &config.MaxPageSize)
	envInt("CACHE_SIZE", &config.CacheSize)

	if val := os.Getenv(envPrefix + "PLACEHOLDER"); val != "" {
		config.Placeholder = strings.ToLower(val)
	}
	if val := os.Getenv(envPrefix + "LOG_LEVEL"); val != "" {
		config.LogLevel = strings.ToUpper(val)
	}
	if val := os.Getenv(envPrefix + "LOG_FORMAT"); val != "" {
		config.LogFormat = strings.ToLower(val)
	}

	return config
}

func envBool(name string, dst *bool) {
	if val := os.Getenv(envPrefix + name); val != "" {
		if parsed, err := strconv.ParseBool(val); err == nil {
			*dst = parsed
		}
	}
}

func envInt(name string, dst *int) {
	if val := os.Getenv(envPrefix + name); val != "" {
		if parsed, err := strconv.Atoi(val); err == nil {
			*dst = parsed
		}
	}
}

// Rule returns the parse rule.
func (c *Config) Rule() parser.ParseRule {
	return parser.ParseRule{
		ElideOrderBy:         c.ElideOrderBy,
		ElideLimit:           c.ElideLimit,
		ElideOffset:          c.ElideOffset,
		ElideRootSelectItems: c.ElideRootSelectItems,
	}
}

// PlaceholderFunc returns the placeholder format.
func (c *Config) PlaceholderFunc() paging.FormatParamFunc {
	if strings.ToLower(c.Placeholder) == placeholderDollar {
		return paging.Dollar
	}
	return paging.Question
}

// PagerOptions returns the pager options described by c.
func (c *Config) PagerOptions() []paging.Option {
	var cache *paging.Cache
	if c.CacheSize > 0 {
		cache = paging.NewCache(c.CacheSize)
	}
	return []paging.Option{
		paging.WithRule(c.Rule()),
		paging.WithMaxDepth(c.MaxDepth),
		paging.WithPlaceholder(c.PlaceholderFunc()),
		paging.WithCache(cache),
		paging.WithOverflowToLast(c.OverflowToLast),
	}
}

// ClampPageSize bounds a requested page size; non-positive requests get the
// default.
func (c *Config) ClampPageSize(n int) int {
	if n <= 0 {
		return c.DefaultPageSize
	}
	if n > c.MaxPageSize {
		return c.MaxPageSize
	}
	return n
}
