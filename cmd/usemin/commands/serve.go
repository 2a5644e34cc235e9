package commands

import (
	"context"
	stderrors "errors"
	"os/signal"
	"sync"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"

	"git.home.luguber.info/inful/usemin/internal/metrics"
	"git.home.luguber.info/inful/usemin/internal/server"
)

// ServeCmd implements the 'serve' command.
type ServeCmd struct {
	Output string `short:"o" help:"Output directory. Overrides output.directory."`
	Addr   string `short:"a" help:"Listen address. Overrides serve.addr."`
}

func (c *ServeCmd) Run(g *Global, root *CLI) error {
	cfg, err := loadConfig(g, root)
	if err != nil {
		return err
	}
	addr := cfg.Serve.Addr
	if c.Addr != "" {
		addr = c.Addr
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	var reg *prometheus.Registry
	if cfg.Serve.Metrics {
		reg = prometheus.NewRegistry()
	}
	s, err := newSession(g, cfg, ResolveOutputDir(c.Output, cfg), reg)
	if err != nil {
		return err
	}
	defer s.close()

	opts := server.Options{
		Root:    s.runner.OutputDir(),
		Status:  s.tracker,
		Rebuild: s.watcher.Rebuild,
		Logger:  g.Logger,
	}
	if reg != nil {
		opts.Metrics = metrics.HTTPHandler(reg)
	}

	// the first component to stop takes the other down with it
	ctx, stop := context.WithCancel(ctx)
	defer stop()
	var (
		wg   sync.WaitGroup
		errs = make([]error, 2)
	)
	wg.Add(2)
	go func() {
		defer wg.Done()
		defer stop()
		errs[0] = s.watcher.Run(ctx)
	}()
	go func() {
		defer wg.Done()
		defer stop()
		errs[1] = server.ListenAndServe(ctx, addr, server.New(opts))
	}()
	wg.Wait()
	return stderrors.Join(errs...)
}
