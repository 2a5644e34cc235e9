// Package pipeline threads a block's files through its ordered stage list.
package pipeline

import (
	"context"
	"time"

	"git.home.luguber.info/inful/usemin/internal/asset"
	"git.home.luguber.info/inful/usemin/internal/foundation/errors"
	"git.home.luguber.info/inful/usemin/internal/logfields"
	"git.home.luguber.info/inful/usemin/internal/metrics"
	"git.home.luguber.info/inful/usemin/internal/observability"
	"git.home.luguber.info/inful/usemin/internal/stage"
)

// Options configure one pipeline run.
type Options struct {
	// NewLine separates joined contents; defaults to stage.DefaultNewLine.
	NewLine string

	// SkipConcat suppresses the implicit join for non-empty stage lists.
	SkipConcat bool

	Recorder metrics.Recorder
}

// Plan returns the stage list to execute. The join is prepended unless specs
// already place it, or skipConcat is set and specs is non-empty.
func Plan(specs []stage.Spec, skipConcat bool) ([]stage.Spec, error) {
	concats := 0
	for _, s := range specs {
		if s.IsConcat() {
			concats++
		}
	}
	if concats > 1 {
		return nil, errors.ConfigError("pipeline lists concat more than once").
			WithContext("stages", Names(specs)).
			Build()
	}
	if concats == 1 || (skipConcat && len(specs) > 0) {
		return specs, nil
	}

	planned := make([]stage.Spec, 0, len(specs)+1)
	planned = append(planned, stage.Concat())
	return append(planned, specs...), nil
}

// Names lists the stage names of specs.
func Names(specs []stage.Spec) []string {
	names := make([]string, 0, len(specs))
	for _, s := range specs {
		names = append(names, s.Name())
	}
	return names
}

// Run executes the planned stages over files strictly in order and returns the
// produced files. The first failing stage aborts the run.
func Run(ctx context.Context, outputName string, files []*asset.File, specs []stage.Spec, opts Options) ([]*asset.File, error) {
	planned, err := Plan(specs, opts.SkipConcat)
	if err != nil {
		return nil, err
	}
	newLine := opts.NewLine
	if newLine == "" {
		newLine = stage.DefaultNewLine
	}
	rec := metrics.OrNoop(opts.Recorder)

	current := files
	for _, spec := range planned {
		name := spec.Name()
		if err := ctx.Err(); err != nil {
			rec.IncStageResult(name, metrics.ResultCanceled)
			return nil, errors.WrapError(err, errors.CategoryStage, "stage "+name+" canceled").
				WithContext("stage", name).
				Build()
		}

		sctx := observability.WithStage(ctx, name)
		t0 := time.Now()
		next, err := spec.Resolve(outputName, newLine).Process(sctx, current)
		dur := time.Since(t0)
		rec.ObserveStageDuration(name, dur)

		if err != nil {
			rec.IncStageResult(name, metrics.ResultFailed)
			observability.DebugContext(sctx, "Stage failed", logfields.Error(err))
			return nil, errors.WrapError(err, errors.CategoryStage, "stage "+name+" failed for "+outputName).
				WithContext("stage", name).
				WithContext("output", outputName).
				Build()
		}
		rec.IncStageResult(name, metrics.ResultSuccess)
		observability.DebugContext(sctx, "Stage complete",
			logfields.Files(len(next)),
			logfields.DurationMS(float64(dur.Microseconds())/1000))
		current = next
	}
	return current, nil
}
