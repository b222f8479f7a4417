package config

import (
	"fmt"
	"os"
	"strconv"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config represents the top-level recur.yaml configuration.
type Config struct {
	Database DatabaseConfig `yaml:"database"`
	Engine   EngineConfig   `yaml:"engine"`
	Log      LogConfig      `yaml:"log"`
	Runlog   RunlogConfig   `yaml:"runlog"`
}

// DatabaseConfig locates the sqlite database.
type DatabaseConfig struct {
	Path string `yaml:"path"`
}

// EngineConfig tunes the recurrence engine.
type EngineConfig struct {
	// LookaheadDays extends the occurrence window past today. Only
	// exact-today matches fire; the window is the extension point for
	// a weekend-shift policy.
	LookaheadDays int `yaml:"lookahead_days"`
}

// LogConfig controls logging.
type LogConfig struct {
	Level string `yaml:"level"`
}

// RunlogConfig locates the run audit log.
type RunlogConfig struct {
	Dir string `yaml:"dir"`
}

// Load reads a recur.yaml file, then applies RECUR_* environment
// overrides. A .env file next to the working directory is honored.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}

	_ = godotenv.Load()
	applyEnv(&cfg)
	return &cfg, nil
}

// Save writes a Config to a YAML file.
func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("writing config: %w", err)
	}
	return nil
}

// Default returns a Config with sensible defaults for a new project.
func Default() *Config {
	return &Config{
		Database: DatabaseConfig{Path: "recur.db"},
		Engine:   EngineConfig{LookaheadDays: 2},
		Log:      LogConfig{Level: "info"},
		Runlog:   RunlogConfig{Dir: "logs"},
	}
}

func applyEnv(cfg *Config) {
	if v := os.Getenv("RECUR_DB_PATH"); v != "" {
		cfg.Database.Path = v
	}
	if v := os.Getenv("RECUR_LOOKAHEAD_DAYS"); v != "" {
		if days, err := strconv.Atoi(v); err == nil && days > 0 {
			cfg.Engine.LookaheadDays = days
		}
	}
	if v := os.Getenv("RECUR_LOG_LEVEL"); v != "" {
		cfg.Log.Level = v
	}
	if v := os.Getenv("RECUR_RUNLOG_DIR"); v != "" {
		cfg.Runlog.Dir = v
	}
}
