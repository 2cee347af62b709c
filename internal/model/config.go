package model

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Config is the optional .roadmap.yaml tool configuration.
type Config struct {
	Project   ProjectConfig `yaml:"project"`
	Documents []string      `yaml:"documents"`
	Watcher   WatcherConfig `yaml:"watcher"`
	Backup    BackupConfig  `yaml:"backup"`
	Logging   LoggingConfig `yaml:"logging"`
}

type ProjectConfig struct {
	Name string `yaml:"name"`
}

type WatcherConfig struct {
	DebounceMs int `yaml:"debounce_ms"`
}

type BackupConfig struct {
	Enabled bool `yaml:"enabled"`
}

type LoggingConfig struct {
	Level string `yaml:"level"`
}

// DefaultConfigFile is the config filename looked up in the working
// directory when no --config flag is given.
const DefaultConfigFile = ".roadmap.yaml"

// DefaultDocument is the roadmap file operated on when neither the config
// nor the command line names one.
const DefaultDocument = "ROADMAP.md"

// DefaultConfig returns the configuration used when no file exists.
func DefaultConfig() Config {
	return Config{
		Documents: []string{DefaultDocument},
		Watcher:   WatcherConfig{DebounceMs: 400},
		Backup:    BackupConfig{Enabled: true},
		Logging:   LoggingConfig{Level: "info"},
	}
}

// LoadConfig reads the config file at path, filling unset fields with
// defaults. A missing file is not an error; a malformed one is.
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return cfg, fmt.Errorf("read config: %w", err)
	}

	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parse config %s: %w", path, err)
	}

	if len(cfg.Documents) == 0 {
		cfg.Documents = []string{DefaultDocument}
	}
	if cfg.Watcher.DebounceMs <= 0 {
		cfg.Watcher.DebounceMs = 400
	}
	if cfg.Logging.Level == "" {
		cfg.Logging.Level = "info"
	}
	return cfg, nil
}
