package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.Engine.DefaultInputHistorySize != 1 {
		t.Errorf("expected DefaultInputHistorySize=1, got %d", cfg.Engine.DefaultInputHistorySize)
	}
	if cfg.Engine.MaxExpressionStackDepth != 128 {
		t.Errorf("expected MaxExpressionStackDepth=128, got %d", cfg.Engine.MaxExpressionStackDepth)
	}
	if cfg.Logging.Level != "info" {
		t.Errorf("expected Logging.Level=info, got %s", cfg.Logging.Level)
	}

	if err := cfg.Validate(); err != nil {
		t.Errorf("default config should validate, got %v", err)
	}
}

func TestGetConfigPath(t *testing.T) {
	path := GetConfigPath()

	if path == "" {
		t.Error("GetConfigPath returned empty string")
	}
	if filepath.Base(path) != "config.toml" {
		t.Errorf("expected path to end with config.toml, got %s", path)
	}
}

func TestSaveAndLoad(t *testing.T) {
	tempDir := t.TempDir()
	configPath := filepath.Join(tempDir, "test_config.toml")

	cfg := DefaultConfig()
	cfg.Engine.MaxExpressionStackDepth = 64
	cfg.Engine.DefaultInputHistorySize = 4
	cfg.Random.Seed = 42
	cfg.Logging.Level = "debug"

	if err := cfg.SaveTo(configPath); err != nil {
		t.Fatalf("failed to save config: %v", err)
	}

	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		t.Fatal("config file was not created")
	}

	loaded, err := LoadFrom(configPath)
	if err != nil {
		t.Fatalf("failed to load config: %v", err)
	}

	if loaded.Engine.MaxExpressionStackDepth != 64 {
		t.Errorf("expected MaxExpressionStackDepth=64, got %d", loaded.Engine.MaxExpressionStackDepth)
	}
	if loaded.Engine.DefaultInputHistorySize != 4 {
		t.Errorf("expected DefaultInputHistorySize=4, got %d", loaded.Engine.DefaultInputHistorySize)
	}
	if loaded.Random.Seed != 42 {
		t.Errorf("expected Random.Seed=42, got %d", loaded.Random.Seed)
	}
	if loaded.Logging.Level != "debug" {
		t.Errorf("expected Logging.Level=debug, got %s", loaded.Logging.Level)
	}
}

func TestLoadNonExistent(t *testing.T) {
	tempDir := t.TempDir()
	configPath := filepath.Join(tempDir, "nonexistent.toml")

	cfg, err := LoadFrom(configPath)
	if err != nil {
		t.Fatalf("LoadFrom should not error on non-existent file: %v", err)
	}

	if cfg.Engine.MaxExpressionStackDepth != 128 {
		t.Error("expected default config when file doesn't exist")
	}
}

func TestLoadInvalidTOML(t *testing.T) {
	tempDir := t.TempDir()
	configPath := filepath.Join(tempDir, "invalid.toml")

	invalidTOML := `
[engine]
max_expression_stack_depth = "not a number"
`
	if err := os.WriteFile(configPath, []byte(invalidTOML), 0644); err != nil {
		t.Fatalf("failed to create test file: %v", err)
	}

	if _, err := LoadFrom(configPath); err == nil {
		t.Error("expected error when loading invalid TOML")
	}
}

func TestValidateRejectsBadValues(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Engine.MaxExpressionStackDepth = 0
	if err := cfg.Validate(); err == nil {
		t.Error("expected error for zero stack depth")
	}

	cfg = DefaultConfig()
	cfg.Logging.Level = "verbose"
	if err := cfg.Validate(); err == nil {
		t.Error("expected error for unknown logging level")
	}
}

func TestSaveCreatesDirectory(t *testing.T) {
	tempDir := t.TempDir()
	configPath := filepath.Join(tempDir, "subdir1", "subdir2", "config.toml")

	cfg := DefaultConfig()
	if err := cfg.SaveTo(configPath); err != nil {
		t.Fatalf("failed to save config: %v", err)
	}

	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		t.Error("config file was not created")
	}
}
