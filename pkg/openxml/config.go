package openxml

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"sync"

	"github.com/benjaminschreck/go-openxml/pkg/openxml/archive"
	"github.com/benjaminschreck/go-openxml/pkg/openxml/parts"
	"github.com/benjaminschreck/go-openxml/pkg/openxml/store"
	"github.com/klauspost/compress/flate"
	"gopkg.in/yaml.v3"
)

// Config contains all configuration options for a package session
type Config struct {
	// InMemory keeps the staging database in memory instead of a scratch file.
	InMemory bool `yaml:"in_memory"`
	// TempDir is where the scratch file is created. Empty means os.TempDir().
	TempDir string `yaml:"temp_dir"`
	// Compression is the codec for staged content: zstd, lz4 or none.
	Compression string `yaml:"compression"`
	// CompressionLevel is passed to the codec. 0 selects its default.
	CompressionLevel int `yaml:"compression_level"`
	// ZipLevel is the DEFLATE level used when the package is saved (-2 to 9,
	// or -3 for no compression). 0 selects the library default.
	ZipLevel int `yaml:"zip_level"`
	// CacheTrees stores a parsed snapshot beside each flushed part.
	CacheTrees bool `yaml:"cache_trees"`
	// LogLevel controls the verbosity of logging (debug, info, warn, error, off)
	LogLevel string `yaml:"log_level"`
}

var (
	globalConfig      *Config
	globalConfigMutex sync.RWMutex
)

// DefaultConfig returns the default configuration
func DefaultConfig() *Config {
	return &Config{
		InMemory:         false,
		Compression:      store.DefaultCompression.String(),
		CompressionLevel: 0,
		ZipLevel:         flate.DefaultCompression,
		CacheTrees:       false,
		LogLevel:         "info",
	}
}

// ConfigFromEnvironment creates a configuration from OPENXML_* environment
// variables. The library never calls it; the command line tool does.
func ConfigFromEnvironment() *Config {
	config := DefaultConfig()

	// OPENXML_IN_MEMORY
	if val := os.Getenv("OPENXML_IN_MEMORY"); val != "" {
		config.InMemory = parseBool(val)
	}

	// OPENXML_TEMP_DIR
	if val := os.Getenv("OPENXML_TEMP_DIR"); val != "" {
		config.TempDir = val
	}

	// OPENXML_COMPRESSION
	if val := os.Getenv("OPENXML_COMPRESSION"); val != "" {
		config.Compression = val
	}

	// OPENXML_COMPRESSION_LEVEL
	if val := os.Getenv("OPENXML_COMPRESSION_LEVEL"); val != "" {
		if level, err := strconv.Atoi(val); err == nil {
			config.CompressionLevel = level
		}
	}

	// OPENXML_ZIP_LEVEL
	if val := os.Getenv("OPENXML_ZIP_LEVEL"); val != "" {
		if level, err := strconv.Atoi(val); err == nil {
			config.ZipLevel = level
		}
	}

	// OPENXML_CACHE_TREES
	if val := os.Getenv("OPENXML_CACHE_TREES"); val != "" {
		config.CacheTrees = parseBool(val)
	}

	// OPENXML_LOG_LEVEL
	if val := os.Getenv("OPENXML_LOG_LEVEL"); val != "" {
		config.LogLevel = val
	}

	return config
}

// LoadConfigFile reads a YAML configuration. Keys missing from the file
// keep their default values.
func LoadConfigFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("openxml: reading config %s: %w", path, err)
	}
	config := DefaultConfig()
	if err := yaml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("openxml: parsing config %s: %w", path, err)
	}
	return config, nil
}

// NewConfigWithDefaults creates a new configuration with defaults applied to unset fields
func NewConfigWithDefaults(overrides *Config) *Config {
	defaults := DefaultConfig()

	if overrides == nil {
		return defaults
	}

	config := *overrides

	if config.Compression == "" {
		config.Compression = defaults.Compression
	}

	if config.ZipLevel == 0 {
		config.ZipLevel = defaults.ZipLevel
	}

	if config.LogLevel == "" {
		config.LogLevel = defaults.LogLevel
	}

	return &config
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	var verr ValidationError

	codec, err := store.ParseCompression(c.Compression)
	if err != nil {
		verr.add("Compression", "unknown codec %q", c.Compression)
	} else if err := store.ValidateLevel(codec, c.CompressionLevel); err != nil {
		verr.add("CompressionLevel", "%v", err)
	}

	if err := archive.ValidateLevel(c.ZipLevel); err != nil {
		verr.add("ZipLevel", "%v", err)
	}

	validLogLevels := map[string]bool{
		"debug": true,
		"info":  true,
		"warn":  true,
		"error": true,
		"off":   true,
	}

	if !validLogLevels[c.LogLevel] {
		verr.add("LogLevel", "invalid log level: %s", c.LogLevel)
	}

	if c.TempDir != "" && !c.InMemory {
		if info, err := os.Stat(c.TempDir); err != nil {
			verr.add("TempDir", "%v", err)
		} else if !info.IsDir() {
			verr.add("TempDir", "%s is not a directory", c.TempDir)
		}
	}

	return verr.err()
}

func (c *Config) storeOptions(logger *Logger) (store.Options, error) {
	codec, err := store.ParseCompression(c.Compression)
	if err != nil {
		return store.Options{}, err
	}
	return store.Options{
		InMemory:         c.InMemory,
		TempDir:          c.TempDir,
		Compression:      codec,
		CompressionLevel: c.CompressionLevel,
		Logger:           logger.Slog(),
	}, nil
}

func (c *Config) archiveOptions(logger *Logger) archive.Options {
	return archive.Options{ZipLevel: c.ZipLevel, Logger: logger.Slog()}
}

func (c *Config) partsOptions(logger *Logger) parts.Options {
	return parts.Options{CacheTrees: c.CacheTrees, Logger: logger.Slog()}
}

// GetGlobalConfig returns a copy of the global configuration
func GetGlobalConfig() *Config {
	globalConfigMutex.RLock()
	defer globalConfigMutex.RUnlock()

	if globalConfig == nil {
		return DefaultConfig()
	}

	configCopy := *globalConfig
	return &configCopy
}

// SetGlobalConfig sets the configuration used when New or Open is given nil
func SetGlobalConfig(config *Config) {
	globalConfigMutex.Lock()
	globalConfig = config
	globalConfigMutex.Unlock()

	if config != nil {
		UpdateLoggerFromConfig(config)
	}
}

// parseBool parses a boolean value from a string
func parseBool(s string) bool {
	s = strings.ToLower(strings.TrimSpace(s))
	return s == "true" || s == "1" || s == "yes" || s == "on"
}
