package errors

import (
	"bytes"
	stderrors "errors"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCLIErrorAdapter_ExitCodeFor(t *testing.T) {
	adapter := NewCLIErrorAdapter(false, slog.Default())

	tests := []struct {
		name     string
		err      error
		expected int
	}{
		{"nil error", nil, 0},
		{"validation", ValidationError("bad flag").Build(), 2},
		{"resolution", ResolutionError("Path /x not found!").Build(), 3},
		{"stage", StageError("stage failed").Build(), 4},
		{"config", ConfigError("bad config").Build(), 7},
		{"internal", InternalError("boom").Build(), 10},
		{"filesystem", FileSystemError("write failed").Build(), 11},
		{"joined prefers config", stderrors.Join(StageError("s").Build(), ConfigError("c").Build()), 7},
		{"unclassified", stderrors.New("unknown"), 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, adapter.ExitCodeFor(tt.err))
		})
	}
}

func TestCLIErrorAdapter_FormatError(t *testing.T) {
	cause := stderrors.New("exit status 2")
	err := WrapError(cause, CategoryStage, "stage exec failed").Build()

	quiet := NewCLIErrorAdapter(false, slog.Default())
	assert.Equal(t, "Error: usemin: stage exec failed", quiet.FormatError(err))

	verbose := NewCLIErrorAdapter(true, slog.Default())
	assert.Equal(t, "Error: usemin: stage exec failed: exit status 2", verbose.FormatError(err))

	joined := stderrors.Join(StageError("a").Build(), StageError("b").Build())
	assert.Equal(t, "Error: usemin: a\nError: usemin: b", quiet.FormatError(joined))
	assert.Equal(t, "", quiet.FormatError(nil))
}

func TestCLIErrorAdapter_Report(t *testing.T) {
	var logs, out bytes.Buffer
	adapter := NewCLIErrorAdapter(false, slog.New(slog.NewTextHandler(&logs, nil)))
	adapter.out = &out

	code := adapter.Report(ResolutionError("Path /x.js not found!").WithContext("path", "/x.js").Build())

	assert.Equal(t, 3, code)
	assert.Contains(t, out.String(), "Path /x.js not found!")
	assert.Contains(t, logs.String(), "category=resolution")
	assert.Contains(t, logs.String(), "path=/x.js")
	assert.Equal(t, 0, adapter.Report(nil))
}
