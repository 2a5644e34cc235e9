package commands

import (
	"io"
	"log/slog"
	"os"

	"github.com/alecthomas/kong"

	"git.home.luguber.info/inful/usemin/internal/config"
	"git.home.luguber.info/inful/usemin/internal/stage/builtin"
)

// Global context passed to subcommands.
type Global struct {
	Logger   *slog.Logger
	Registry *builtin.Registry
}

// CLI definition & global flags.
type CLI struct {
	Config    string           `short:"c" help:"Configuration file path" default:"usemin.yaml" type:"path"`
	Verbose   bool             `short:"v" help:"Enable verbose logging"`
	LogFormat string           `name:"log-format" help:"Log output format (text|json). Overrides logging.format."`
	Version   kong.VersionFlag `name:"version" help:"Show version and exit"`

	Build  BuildCmd  `cmd:"" help:"Process HTML documents and write the rewritten documents and their assets"`
	Watch  WatchCmd  `cmd:"" help:"Build, then rebuild on source changes"`
	Serve  ServeCmd  `cmd:"" help:"Watch and serve the output directory over HTTP"`
	Blocks BlocksCmd `cmd:"" help:"Print the build blocks of documents without running any stage"`
	Init   InitCmd   `cmd:"" help:"Initialize a new configuration file"`
}

// AfterApply runs after flag parsing; setup logging once.
// nolint:unparam // AfterApply currently never returns an error.
func (c *CLI) AfterApply() error {
	level := slog.LevelInfo
	if c.Verbose {
		level = slog.LevelDebug
	}
	slog.SetDefault(newLogger(os.Stderr, level, config.LogFormat(c.LogFormat)))
	return nil
}

// applyLogging reconfigures the default logger from cfg. Flags win over the
// configuration file.
func (c *CLI) applyLogging(cfg *config.Config) *slog.Logger {
	level := cfg.Logging.Level.SlogLevel()
	if c.Verbose {
		level = slog.LevelDebug
	}
	format := cfg.Logging.Format
	if c.LogFormat != "" {
		format = config.NormalizeLogFormat(c.LogFormat)
	}
	logger := newLogger(os.Stderr, level, format)
	slog.SetDefault(logger)
	return logger
}

func newLogger(w io.Writer, level slog.Level, format config.LogFormat) *slog.Logger {
	opts := &slog.HandlerOptions{Level: level}
	if format == config.LogFormatJSON {
		return slog.New(slog.NewJSONHandler(w, opts))
	}
	return slog.New(slog.NewTextHandler(w, opts))
}

// loadConfig loads and validates the configuration file.
func loadConfig(g *Global, root *CLI) (*config.Config, error) {
	cfg, err := config.Load(root.Config)
	if err != nil {
		return nil, err
	}
	if err := config.Validate(cfg, g.registry()); err != nil {
		return nil, err
	}
	g.Logger = root.applyLogging(cfg)
	return cfg, nil
}

func (g *Global) registry() *builtin.Registry {
	if g.Registry == nil {
		g.Registry = builtin.Default()
	}
	return g.Registry
}

// ResolveOutputDir picks the output directory: the CLI flag wins over the
// configuration file.
func ResolveOutputDir(cliOutput string, cfg *config.Config) string {
	if cliOutput != "" {
		return cliOutput
	}
	return cfg.Output.Directory
}
