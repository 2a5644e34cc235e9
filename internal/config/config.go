// Package config loads the usemin YAML configuration and converts it into
// engine options.
package config

import (
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"git.home.luguber.info/inful/usemin/internal/foundation/errors"
)

// DefaultPath is the configuration file used when none is given.
const DefaultPath = "usemin.yaml"

// Config represents the application configuration.
type Config struct {
	Input  InputConfig  `yaml:"input"`
	Output OutputConfig `yaml:"output"`

	AssetsDir            string `yaml:"assets_dir,omitempty"`
	Path                 string `yaml:"path,omitempty"`
	OutputRelativePath   string `yaml:"output_relative_path,omitempty"`
	EnableHTMLComment    bool   `yaml:"enable_html_comment,omitempty"`
	SkipMissingResources bool   `yaml:"skip_missing_resources,omitempty"`
	SkipConcat           bool   `yaml:"skip_concat,omitempty"`
	NewLine              string `yaml:"new_line,omitempty"`
	Concurrency          int    `yaml:"concurrency,omitempty"`

	JSAttributes JSAttributes         `yaml:"js_attributes,omitempty"`
	Pipelines    map[string]StageList `yaml:"pipelines,omitempty"`

	Logging LoggingConfig `yaml:"logging"`
	Watch   WatchConfig   `yaml:"watch"`
	Serve   ServeConfig   `yaml:"serve"`
	Notify  NotifyConfig  `yaml:"notify"`
}

// InputConfig selects the documents to process.
type InputConfig struct {
	Base    string   `yaml:"base"`
	Include []string `yaml:"include"`
	Exclude []string `yaml:"exclude,omitempty"`
}

// OutputConfig represents output configuration.
type OutputConfig struct {
	Directory string `yaml:"directory"`
	Clean     bool   `yaml:"clean"` // Clean output directory before build
}

// LoggingConfig represents logging configuration.
type LoggingConfig struct {
	Level  LogLevel  `yaml:"level"`
	Format LogFormat `yaml:"format"`
}

// WatchConfig tunes the watch command.
type WatchConfig struct {
	Debounce        time.Duration `yaml:"debounce"`
	RebuildInterval time.Duration `yaml:"rebuild_interval,omitempty"` // 0 disables periodic rebuilds
}

// ServeConfig configures the preview server.
type ServeConfig struct {
	Addr    string `yaml:"addr"`
	Metrics bool   `yaml:"metrics"`
}

// NotifyConfig configures build event publishing.
type NotifyConfig struct {
	NATSURL    string `yaml:"nats_url,omitempty"`
	Subject    string `yaml:"subject,omitempty"`
	MaxRetries int    `yaml:"max_retries,omitempty"`
	Backoff    string `yaml:"backoff,omitempty"` // fixed|linear|exponential
}

// Load loads configuration from the specified file. Environment variables
// from .env files and the process are expanded before parsing.
func Load(configPath string) (*Config, error) {
	loadEnvFiles()

	data, err := os.ReadFile(configPath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.ConfigError("configuration file not found: " + configPath).
				WithContext("path", configPath).
				Build()
		}
		return nil, errors.WrapError(err, errors.CategoryFileSystem, "failed to read config file").
			WithContext("path", configPath).
			Build()
	}

	return Parse([]byte(os.ExpandEnv(string(data))))
}

// Parse decodes a configuration document and applies defaults.
func Parse(data []byte) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, errors.WrapError(err, errors.CategoryConfig, "failed to unmarshal config").Build()
	}
	applyDefaults(&cfg)
	return &cfg, nil
}

// Init creates a new configuration file with example content.
func Init(configPath string, force bool) error {
	if _, err := os.Stat(configPath); err == nil && !force {
		return errors.ConfigError("configuration file already exists: " + configPath + " (use --force to overwrite)").
			WithContext("path", configPath).
			Build()
	}

	data, err := yaml.Marshal(Example())
	if err != nil {
		return errors.WrapError(err, errors.CategoryInternal, "failed to marshal config").Build()
	}

	if err := os.WriteFile(configPath, data, 0o600); err != nil {
		return errors.WrapError(err, errors.CategoryFileSystem, "failed to write config file").
			WithContext("path", configPath).
			Build()
	}
	return nil
}

// Example returns the configuration written by Init.
func Example() *Config {
	cfg := &Config{
		Input:  InputConfig{Base: "src", Include: []string{"**/*.html"}, Exclude: []string{"vendor/**"}},
		Output: OutputConfig{Directory: "dist", Clean: true},
		JSAttributes: JSAttributes{
			{Name: "defer", Value: true},
		},
		Pipelines: map[string]StageList{
			"js":   {{Name: "jsmin"}, {Name: "rev"}},
			"css":  {{Name: "cssmin"}, {Name: "rev"}},
			"html": {{Name: "htmlmin"}},
		},
		Notify: NotifyConfig{Subject: DefaultNotifySubject},
	}
	applyDefaults(cfg)
	return cfg
}
