package engine

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/tailored-agentic-units/reactive/observed"
)

const (
	defaultObserver         = "slog"
	defaultLogLevel         = "info"
	defaultLogFormat        = "text"
	defaultMetricsNamespace = "reactive"
)

// Config holds initialization parameters for an Engine.
type Config struct {
	// Observer names a registered observer. "slog" builds a logger from
	// LogLevel and LogFormat.
	Observer         string          `json:"observer,omitempty" yaml:"observer,omitempty"`
	LogLevel         string          `json:"log_level,omitempty" yaml:"log_level,omitempty"`
	LogFormat        string          `json:"log_format,omitempty" yaml:"log_format,omitempty"`
	MetricsNamespace string          `json:"metrics_namespace,omitempty" yaml:"metrics_namespace,omitempty"`
	Observed         observed.Config `json:"observed" yaml:"observed"`
}

// DefaultConfig returns a Config logging at info level as text.
func DefaultConfig() Config {
	return Config{
		Observer:         defaultObserver,
		LogLevel:         defaultLogLevel,
		LogFormat:        defaultLogFormat,
		MetricsNamespace: defaultMetricsNamespace,
		Observed:         observed.DefaultConfig(),
	}
}

// Merge applies non-zero values from source into c.
func (c *Config) Merge(source *Config) {
	c.Observed.Merge(&source.Observed)

	if source.Observer != "" {
		c.Observer = source.Observer
	}
	if source.LogLevel != "" {
		c.LogLevel = source.LogLevel
	}
	if source.LogFormat != "" {
		c.LogFormat = source.LogFormat
	}
	if source.MetricsNamespace != "" {
		c.MetricsNamespace = source.MetricsNamespace
	}
}

// LoadConfig reads a JSON or YAML config file, chosen by extension, merges
// it with defaults, and returns the resulting Config.
func LoadConfig(filename string) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var loaded Config
	switch ext := strings.ToLower(filepath.Ext(filename)); ext {
	case ".json":
		err = json.Unmarshal(data, &loaded)
	case ".yaml", ".yml":
		err = yaml.Unmarshal(data, &loaded)
	default:
		return nil, fmt.Errorf("config extension %q: %w", ext, ErrUnknownFormat)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	cfg.Merge(&loaded)
	return &cfg, nil
}
