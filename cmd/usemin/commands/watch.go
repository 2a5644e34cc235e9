package commands

import (
	"context"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"

	"git.home.luguber.info/inful/usemin/internal/config"
	"git.home.luguber.info/inful/usemin/internal/metrics"
	"git.home.luguber.info/inful/usemin/internal/notify"
	"git.home.luguber.info/inful/usemin/internal/server"
	"git.home.luguber.info/inful/usemin/internal/watch"
)

// WatchCmd implements the 'watch' command.
type WatchCmd struct {
	Output string `short:"o" help:"Output directory. Overrides output.directory."`
}

func (w *WatchCmd) Run(g *Global, root *CLI) error {
	cfg, err := loadConfig(g, root)
	if err != nil {
		return err
	}
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	s, err := newSession(g, cfg, ResolveOutputDir(w.Output, cfg), nil)
	if err != nil {
		return err
	}
	defer s.close()
	return s.watcher.Run(ctx)
}

// session is the long-running state shared by watch and serve.
type session struct {
	runner    *Runner
	watcher   *watch.Watcher
	tracker   *server.Tracker
	publisher notify.Publisher
}

// newSession connects the publisher, runs the initial build and prepares the
// watcher. reg, when set, receives the Prometheus collectors.
func newSession(g *Global, cfg *config.Config, outputDir string, reg *prometheus.Registry) (*session, error) {
	nats, err := notify.New(notify.Options{
		NATSURL: cfg.Notify.NATSURL,
		Subject: cfg.Notify.Subject,
		Retry:   cfg.RetryPolicy(),
	})
	if err != nil {
		return nil, err
	}
	tracker := &server.Tracker{}
	publisher := notify.Multi{tracker, nats}

	var rec metrics.Recorder
	if reg != nil {
		rec = metrics.NewPrometheusRecorder(reg)
	}
	runner, err := NewRunner(g, cfg, RunnerOptions{OutputDir: outputDir, Recorder: rec, Publisher: publisher})
	if err != nil {
		_ = publisher.Close()
		return nil, err
	}

	// the initial build failing is not fatal; the next change retries
	_ = runner.Build(context.Background(), watch.ReasonManual)

	roots := []string{cfg.Input.Base}
	for _, dir := range []string{cfg.AssetsDir, cfg.Path} {
		if dir != "" {
			roots = append(roots, dir)
		}
	}
	watcher, err := watch.New(watch.Options{
		Roots:    roots,
		Ignore:   []string{outputDir},
		Debounce: cfg.Watch.Debounce,
		Interval: cfg.Watch.RebuildInterval,
	}, runner.Build)
	if err != nil {
		_ = publisher.Close()
		return nil, err
	}
	return &session{runner: runner, watcher: watcher, tracker: tracker, publisher: publisher}, nil
}

func (s *session) close() {
	_ = s.publisher.Close()
}
