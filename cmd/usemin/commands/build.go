package commands

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"
)

// BuildCmd implements the 'build' command.
type BuildCmd struct {
	Output string   `short:"o" help:"Output directory. Overrides output.directory."`
	Files  []string `arg:"" optional:"" help:"Documents to process instead of the configured input patterns" type:"path"`
}

func (b *BuildCmd) Run(g *Global, root *CLI) error {
	cfg, err := loadConfig(g, root)
	if err != nil {
		return err
	}
	runner, err := NewRunner(g, cfg, RunnerOptions{
		OutputDir: ResolveOutputDir(b.Output, cfg),
		Files:     b.Files,
	})
	if err != nil {
		return err
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err := runner.Build(ctx, "cli"); err != nil {
		return err
	}
	fmt.Printf("Output written to %s\n", runner.OutputDir())
	return nil
}
