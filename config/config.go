// Package config loads and stores ambient runtime settings for the mapcore
// engine: the pieces the expression/connection core needs but spec.md
// leaves to the embedder (default history depths, the expression stack
// bound, the RNG source for uniform()).
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"

	"github.com/BurntSushi/toml"
)

// Config represents the mapcore engine configuration.
type Config struct {
	// Engine settings
	Engine struct {
		DefaultInputHistorySize  int `toml:"default_input_history_size"`
		DefaultOutputHistorySize int `toml:"default_output_history_size"`
		MaxExpressionStackDepth  int `toml:"max_expression_stack_depth"`
		MaxVectorLength          int `toml:"max_vector_length"`
	} `toml:"engine"`

	// Random settings (feeds the expression uniform() function)
	Random struct {
		Seed       int64 `toml:"seed"`
		DeriveTime bool  `toml:"derive_from_time"`
	} `toml:"random"`

	// Logging settings
	Logging struct {
		Level      string `toml:"level"` // debug, info, warn, error
		OutputFile string `toml:"output_file"`
	} `toml:"logging"`
}

// DefaultConfig returns a configuration with default values.
func DefaultConfig() *Config {
	cfg := &Config{}

	cfg.Engine.DefaultInputHistorySize = 1
	cfg.Engine.DefaultOutputHistorySize = 1
	cfg.Engine.MaxExpressionStackDepth = 128
	cfg.Engine.MaxVectorLength = 256

	cfg.Random.Seed = 1
	cfg.Random.DeriveTime = true

	cfg.Logging.Level = "info"
	cfg.Logging.OutputFile = ""

	return cfg
}

// Validate checks that the loaded configuration describes a usable engine.
func (c *Config) Validate() error {
	if c.Engine.DefaultInputHistorySize < 1 {
		return fmt.Errorf("engine.default_input_history_size must be >= 1, got %d", c.Engine.DefaultInputHistorySize)
	}
	if c.Engine.DefaultOutputHistorySize < 1 {
		return fmt.Errorf("engine.default_output_history_size must be >= 1, got %d", c.Engine.DefaultOutputHistorySize)
	}
	if c.Engine.MaxExpressionStackDepth < 1 {
		return fmt.Errorf("engine.max_expression_stack_depth must be >= 1, got %d", c.Engine.MaxExpressionStackDepth)
	}
	if c.Engine.MaxVectorLength < 1 {
		return fmt.Errorf("engine.max_vector_length must be >= 1, got %d", c.Engine.MaxVectorLength)
	}
	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("logging.level must be one of debug/info/warn/error, got %q", c.Logging.Level)
	}
	return nil
}

// GetConfigPath returns the platform-specific config file path.
func GetConfigPath() string {
	var configDir string

	switch runtime.GOOS {
	case "windows":
		configDir = os.Getenv("APPDATA")
		if configDir == "" {
			configDir = filepath.Join(os.Getenv("USERPROFILE"), "AppData", "Roaming")
		}
		configDir = filepath.Join(configDir, "mapcore")

	case "darwin", "linux":
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return "config.toml"
		}
		configDir = filepath.Join(homeDir, ".config", "mapcore")

	default:
		return "config.toml"
	}

	if err := os.MkdirAll(configDir, 0750); err != nil {
		return "config.toml"
	}

	return filepath.Join(configDir, "config.toml")
}

// Load loads configuration from the default config file.
func Load() (*Config, error) {
	return LoadFrom(GetConfigPath())
}

// LoadFrom loads configuration from the specified file.
func LoadFrom(path string) (*Config, error) {
	cfg := DefaultConfig()

	if _, err := os.Stat(path); os.IsNotExist(err) {
		return cfg, nil
	}

	if _, err := toml.DecodeFile(path, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// SaveTo saves configuration to the specified file.
func (c *Config) SaveTo(path string) (err error) {
	dir := filepath.Dir(path)
	if mkErr := os.MkdirAll(dir, 0750); mkErr != nil {
		return fmt.Errorf("failed to create config directory: %w", mkErr)
	}

	f, err := os.Create(path) // #nosec G304 -- user config file path
	if err != nil {
		return fmt.Errorf("failed to create config file: %w", err)
	}
	defer func() {
		if closeErr := f.Close(); closeErr != nil && err == nil {
			err = fmt.Errorf("failed to close config file: %w", closeErr)
		}
	}()

	encoder := toml.NewEncoder(f)
	if encErr := encoder.Encode(c); encErr != nil {
		return fmt.Errorf("failed to encode config: %w", encErr)
	}

	return nil
}
