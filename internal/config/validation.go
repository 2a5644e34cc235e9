package config

import (
	stderrors "errors"
	"path/filepath"
	"strconv"

	"github.com/bmatcuk/doublestar/v4"

	"git.home.luguber.info/inful/usemin/internal/foundation/errors"
	"git.home.luguber.info/inful/usemin/internal/retry"
	"git.home.luguber.info/inful/usemin/internal/stage"
	"git.home.luguber.info/inful/usemin/internal/stage/builtin"
)

// Validate checks cfg against the stages known to reg. All problems are
// reported together.
func Validate(cfg *Config, reg *builtin.Registry) error {
	if reg == nil {
		reg = builtin.Default()
	}
	v := &validator{cfg: cfg, reg: reg}
	v.validateInput()
	v.validateOutput()
	v.validatePipelines()
	v.validateRuntime()
	return stderrors.Join(v.errs...)
}

type validator struct {
	cfg  *Config
	reg  *builtin.Registry
	errs []error
}

func (v *validator) fail(field, msg string) {
	v.errs = append(v.errs, errors.ValidationError(field+": "+msg).WithContext("field", field).Build())
}

func (v *validator) validateInput() {
	if v.cfg.Input.Base == "" {
		v.fail("input.base", "must not be empty")
	}
	if len(v.cfg.Input.Include) == 0 {
		v.fail("input.include", "at least one pattern is required")
	}
	for _, p := range append(append([]string(nil), v.cfg.Input.Include...), v.cfg.Input.Exclude...) {
		if !doublestar.ValidatePattern(p) {
			v.fail("input", "invalid pattern "+strconv.Quote(p))
		}
	}
}

func (v *validator) validateOutput() {
	if v.cfg.Output.Directory == "" {
		v.fail("output.directory", "must not be empty")
		return
	}
	in, errIn := filepath.Abs(v.cfg.Input.Base)
	out, errOut := filepath.Abs(v.cfg.Output.Directory)
	if errIn == nil && errOut == nil && in == out {
		v.fail("output.directory", "must differ from input.base")
	}
}

func (v *validator) validatePipelines() {
	for id, list := range v.cfg.Pipelines {
		concats := 0
		for i, s := range list {
			field := "pipelines." + id + "[" + strconv.Itoa(i) + "]"
			if s.Name == stage.ConcatName {
				concats++
				continue
			}
			if !v.reg.Has(s.Name) {
				v.errs = append(v.errs, errors.ConfigError(field+": unknown stage "+strconv.Quote(s.Name)).
					WithContext("field", field).
					WithContext("known", v.reg.Names()).
					Build())
				continue
			}
			if s.Name == "exec" && s.Command == "" {
				v.fail(field, "exec stage requires a command")
			}
		}
		if concats > 1 {
			v.errs = append(v.errs, errors.ConfigError("pipelines."+id+": concat listed more than once").
				WithContext("field", "pipelines."+id).
				Build())
		}
	}
}

func (v *validator) validateRuntime() {
	if v.cfg.Concurrency < 1 {
		v.fail("concurrency", "must be at least 1")
	}
	if _, err := logLevelNormalizer.Parse(string(v.cfg.Logging.Level)); err != nil {
		v.fail("logging.level", err.Error())
	}
	if _, err := logFormatNormalizer.Parse(string(v.cfg.Logging.Format)); err != nil {
		v.fail("logging.format", err.Error())
	}
	if v.cfg.Watch.Debounce < 0 {
		v.fail("watch.debounce", "must not be negative")
	}
	if v.cfg.Watch.RebuildInterval < 0 {
		v.fail("watch.rebuild_interval", "must not be negative")
	}
	if v.cfg.Notify.NATSURL != "" && v.cfg.Notify.Subject == "" {
		v.fail("notify.subject", "required when notify.nats_url is set")
	}
	if v.cfg.Notify.MaxRetries < 0 {
		v.fail("notify.max_retries", "must not be negative")
	}
	if _, err := retry.ParseBackoff(v.cfg.Notify.Backoff); err != nil {
		v.fail("notify.backoff", err.Error())
	}
}
