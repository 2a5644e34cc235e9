package errors

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
)

// CLIErrorAdapter handles error presentation and exit code determination for the usemin CLI.
type CLIErrorAdapter struct {
	verbose bool
	logger  *slog.Logger
	out     io.Writer
}

// NewCLIErrorAdapter creates a new CLI error adapter.
func NewCLIErrorAdapter(verbose bool, logger *slog.Logger) *CLIErrorAdapter {
	if logger == nil {
		logger = slog.Default()
	}
	return &CLIErrorAdapter{
		verbose: verbose,
		logger:  logger,
		out:     os.Stderr,
	}
}

// ExitCodeFor determines the appropriate exit code for an error.
func (a *CLIErrorAdapter) ExitCodeFor(err error) int {
	if err == nil {
		return 0
	}

	// Joined errors from a batch exit with the most specific code found.
	for _, category := range []ErrorCategory{CategoryConfig, CategoryValidation, CategoryResolution, CategoryStage, CategoryFileSystem} {
		if HasCategory(err, category) {
			return exitCodeFor(category)
		}
	}
	if classified, ok := AsClassified(err); ok {
		return exitCodeFor(classified.Category())
	}
	return 1
}

func exitCodeFor(category ErrorCategory) int {
	switch category {
	case CategoryValidation:
		return 2 // Invalid usage
	case CategoryResolution:
		return 3
	case CategoryStage:
		return 4
	case CategoryConfig:
		return 7
	case CategoryInternal:
		return 10
	case CategoryFileSystem:
		return 11
	default:
		return 1
	}
}

// FormatError formats an error for user-friendly display.
func (a *CLIErrorAdapter) FormatError(err error) string {
	if err == nil {
		return ""
	}
	if joined, ok := err.(interface{ Unwrap() []error }); ok {
		lines := make([]string, 0, len(joined.Unwrap()))
		for _, inner := range joined.Unwrap() {
			lines = append(lines, a.FormatError(inner))
		}
		return strings.Join(lines, "\n")
	}
	if classified, ok := AsClassified(err); ok && !a.verbose {
		// The cause chain is only shown with -v.
		return fmt.Sprintf("Error: %s: %s", Component, classified.Message())
	}
	return fmt.Sprintf("Error: %v", err)
}

// Report logs err and prints the user-facing message. It returns the exit code.
func (a *CLIErrorAdapter) Report(err error) int {
	if err == nil {
		return 0
	}
	if a.shouldLog(err) {
		a.logError(err)
	}
	_, _ = fmt.Fprintln(a.out, a.FormatError(err))
	return a.ExitCodeFor(err)
}

// HandleError processes an error and exits the program with appropriate code.
func (a *CLIErrorAdapter) HandleError(err error) {
	if err == nil {
		return
	}
	os.Exit(a.Report(err))
}

func (a *CLIErrorAdapter) shouldLog(err error) bool {
	if a.verbose {
		return true
	}
	if classified, ok := AsClassified(err); ok {
		return classified.Severity() == SeverityFatal
	}
	return true
}

func (a *CLIErrorAdapter) logError(err error) {
	if classified, ok := AsClassified(err); ok {
		attrs := []slog.Attr{
			slog.String("category", string(classified.Category())),
		}
		for k, v := range classified.Context() {
			attrs = append(attrs, slog.Any(k, v))
		}
		a.logger.LogAttrs(context.Background(), slogLevelFromSeverity(classified.Severity()), classified.Message(), attrs...)
		return
	}
	a.logger.Error("Unclassified error", "error", err)
}

func slogLevelFromSeverity(severity ErrorSeverity) slog.Level {
	switch severity {
	case SeverityInfo:
		return slog.LevelInfo
	case SeverityWarning:
		return slog.LevelWarn
	default:
		return slog.LevelError
	}
}
