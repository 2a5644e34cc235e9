package config

import (
	"time"

	"git.home.luguber.info/inful/usemin/internal/stage"
)

const (
	DefaultConcurrency   = 4
	DefaultDebounce      = 300 * time.Millisecond
	DefaultServeAddr     = ":8080"
	DefaultNotifySubject = "usemin.builds"
)

func applyDefaults(cfg *Config) {
	if cfg.Input.Base == "" {
		cfg.Input.Base = "."
	}
	if len(cfg.Input.Include) == 0 {
		cfg.Input.Include = []string{"**/*.html"}
	}
	if cfg.Output.Directory == "" {
		cfg.Output.Directory = "dist"
	}
	if cfg.NewLine == "" {
		cfg.NewLine = stage.DefaultNewLine
	}
	if cfg.Concurrency == 0 {
		cfg.Concurrency = DefaultConcurrency
	}
	if cfg.Logging.Level == "" {
		cfg.Logging.Level = LogLevelInfo
	}
	if cfg.Logging.Format == "" {
		cfg.Logging.Format = LogFormatText
	}
	if cfg.Watch.Debounce == 0 {
		cfg.Watch.Debounce = DefaultDebounce
	}
	if cfg.Serve.Addr == "" {
		cfg.Serve.Addr = DefaultServeAddr
	}
	if cfg.Notify.NATSURL != "" && cfg.Notify.Subject == "" {
		cfg.Notify.Subject = DefaultNotifySubject
	}
}
