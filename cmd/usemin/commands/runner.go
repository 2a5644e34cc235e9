package commands

import (
	"context"
	"log/slog"
	"path/filepath"
	"time"

	"git.home.luguber.info/inful/usemin/internal/config"
	"git.home.luguber.info/inful/usemin/internal/foundation/errors"
	"git.home.luguber.info/inful/usemin/internal/logfields"
	"git.home.luguber.info/inful/usemin/internal/metrics"
	"git.home.luguber.info/inful/usemin/internal/notify"
	"git.home.luguber.info/inful/usemin/internal/observability"
	"git.home.luguber.info/inful/usemin/internal/sink"
	"git.home.luguber.info/inful/usemin/internal/usemin"
)

// Runner performs complete builds: discovery, processing, writing and
// publishing the outcome.
type Runner struct {
	cfg       *config.Config
	processor *usemin.Processor
	outputDir string
	files     []string
	publisher notify.Publisher
}

// RunnerOptions configure NewRunner.
type RunnerOptions struct {
	OutputDir string

	// Files overrides input discovery when non-empty.
	Files []string

	Recorder  metrics.Recorder
	Publisher notify.Publisher
}

// NewRunner converts cfg into a processor.
func NewRunner(g *Global, cfg *config.Config, opts RunnerOptions) (*Runner, error) {
	engine, err := cfg.EngineOptions(g.registry())
	if err != nil {
		return nil, err
	}
	engine.Recorder = opts.Recorder

	publisher := opts.Publisher
	if publisher == nil {
		publisher = notify.Noop{}
	}
	outputDir := opts.OutputDir
	if outputDir == "" {
		outputDir = cfg.Output.Directory
	}
	return &Runner{
		cfg:       cfg,
		processor: usemin.New(engine),
		outputDir: outputDir,
		files:     opts.Files,
		publisher: publisher,
	}, nil
}

// Build runs one build. Per-document failures are reported together after
// every other document was written.
func (r *Runner) Build(ctx context.Context, reason string) error {
	buildID := observability.NewBuildID()
	ctx = observability.WithBuildID(ctx, buildID)
	started := time.Now()

	summary, err := r.build(ctx)

	ev := notify.NewEvent(buildID, reason, started, summary, err)
	if perr := r.publisher.Publish(ctx, ev); perr != nil {
		observability.WarnContext(ctx, "Failed to publish build event", logfields.Error(perr))
	}

	attrs := []slog.Attr{
		logfields.Files(summary.Documents),
		logfields.Blocks(summary.Blocks),
		logfields.DurationMS(float64(time.Since(started).Microseconds()) / 1000),
	}
	if err != nil {
		observability.WarnContext(ctx, "Build finished with errors", attrs...)
		return err
	}
	observability.InfoContext(ctx, "Build completed", attrs...)
	return nil
}

func (r *Runner) build(ctx context.Context) (usemin.Summary, error) {
	paths, err := r.inputs()
	if err != nil {
		return usemin.Summary{}, err
	}
	if len(paths) == 0 {
		observability.WarnContext(ctx, "No documents matched the input patterns")
		return usemin.Summary{}, nil
	}

	base, err := filepath.Abs(r.cfg.Input.Base)
	if err != nil {
		return usemin.Summary{}, errors.WrapError(err, errors.CategoryFileSystem, "cannot resolve input base").Build()
	}
	docs, err := usemin.LoadDocuments(paths, base)
	if err != nil {
		return usemin.Summary{}, err
	}

	out, err := sink.NewDir(r.outputDir, r.cfg.Output.Clean)
	if err != nil {
		return usemin.Summary{}, err
	}
	return r.processor.Run(ctx, docs, r.cfg.Concurrency, out)
}

func (r *Runner) inputs() ([]string, error) {
	if len(r.files) == 0 {
		return r.cfg.InputFiles()
	}
	paths := make([]string, 0, len(r.files))
	for _, f := range r.files {
		abs, err := filepath.Abs(f)
		if err != nil {
			return nil, errors.WrapError(err, errors.CategoryFileSystem, "cannot resolve "+f).Build()
		}
		paths = append(paths, abs)
	}
	return paths, nil
}

// OutputDir is where builds are written.
func (r *Runner) OutputDir() string {
	return r.outputDir
}
