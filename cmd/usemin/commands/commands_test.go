package commands

import (
	"bytes"
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"git.home.luguber.info/inful/usemin/internal/config"
	"git.home.luguber.info/inful/usemin/internal/notify"
	"git.home.luguber.info/inful/usemin/internal/server"
	"git.home.luguber.info/inful/usemin/internal/usemin"
)

const indexHTML = `<html>
<head>
<!-- build:css css/site.css -->
<link rel="stylesheet" href="css/a.css">
<link rel="stylesheet" href="css/b.css">
<!-- endbuild -->
</head>
<body>
<!-- build:js js/app.js -->
<script src="js/a.js"></script>
<script src="js/b.js"></script>
<!-- endbuild -->
<!-- build:remove -->
<script src="livereload.js"></script>
<!-- endbuild -->
</body>
</html>`

func writeSite(t *testing.T) string {
	t.Helper()
	root := t.TempDir()
	files := map[string]string{
		"src/index.html": indexHTML,
		"src/css/a.css":  "a{}",
		"src/css/b.css":  "b{}",
		"src/js/a.js":    "var a;",
		"src/js/b.js":    "var b;",
	}
	for name, content := range files {
		p := filepath.Join(root, filepath.FromSlash(name))
		require.NoError(t, os.MkdirAll(filepath.Dir(p), 0o750))
		require.NoError(t, os.WriteFile(p, []byte(content), 0o600))
	}
	return root
}

func testConfig(root string) *config.Config {
	cfg, _ := config.Parse([]byte("{}"))
	cfg.Input.Base = filepath.Join(root, "src")
	cfg.Output.Directory = filepath.Join(root, "dist")
	return cfg
}

func TestRunner_Build(t *testing.T) {
	root := writeSite(t)
	cfg := testConfig(root)
	tracker := &server.Tracker{}

	runner, err := NewRunner(&Global{}, cfg, RunnerOptions{Publisher: tracker})
	require.NoError(t, err)
	require.NoError(t, runner.Build(context.Background(), "test"))

	out := filepath.Join(root, "dist")
	doc, err := os.ReadFile(filepath.Join(out, "index.html"))
	require.NoError(t, err)
	assert.Contains(t, string(doc), `<link rel="stylesheet" href="css/site.css"/>`)
	assert.Contains(t, string(doc), `<script src="js/app.js"></script>`)
	assert.NotContains(t, string(doc), "livereload")

	js, err := os.ReadFile(filepath.Join(out, "js", "app.js"))
	require.NoError(t, err)
	assert.Equal(t, "var a;\nvar b;", string(js))

	ev, ok := tracker.LastBuild()
	require.True(t, ok)
	assert.Equal(t, notify.StatusSuccess, ev.Status)
	assert.Equal(t, "test", ev.Reason)
	assert.Equal(t, 1, ev.Documents)
	assert.Equal(t, 3, ev.Blocks)
	assert.NotEmpty(t, ev.BuildID)
}

func TestRunner_BuildReportsFailures(t *testing.T) {
	root := writeSite(t)
	require.NoError(t, os.Remove(filepath.Join(root, "src", "js", "b.js")))
	cfg := testConfig(root)
	tracker := &server.Tracker{}

	runner, err := NewRunner(&Global{}, cfg, RunnerOptions{Publisher: tracker})
	require.NoError(t, err)
	err = runner.Build(context.Background(), "test")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not found!")

	ev, ok := tracker.LastBuild()
	require.True(t, ok)
	assert.Equal(t, notify.StatusFailed, ev.Status)
	assert.Len(t, ev.Failed, 1)
}

func TestRunner_ExplicitFiles(t *testing.T) {
	root := writeSite(t)
	cfg := testConfig(root)
	plain := filepath.Join(root, "src", "plain.html")
	require.NoError(t, os.WriteFile(plain, []byte("<p>plain</p>"), 0o600))

	out := filepath.Join(root, "elsewhere")
	runner, err := NewRunner(&Global{}, cfg, RunnerOptions{OutputDir: out, Files: []string{plain}})
	require.NoError(t, err)
	require.NoError(t, runner.Build(context.Background(), "test"))

	data, err := os.ReadFile(filepath.Join(out, "plain.html"))
	require.NoError(t, err)
	assert.Equal(t, "<p>plain</p>", string(data))
	_, err = os.Stat(filepath.Join(out, "index.html"))
	assert.True(t, os.IsNotExist(err))
}

func TestDescribe(t *testing.T) {
	root := writeSite(t)
	cfg := testConfig(root)
	engine, err := cfg.EngineOptions(nil)
	require.NoError(t, err)

	docs, err := usemin.LoadDocuments([]string{filepath.Join(cfg.Input.Base, "index.html")}, cfg.Input.Base)
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, describe(context.Background(), &buf, usemin.New(engine), docs, false))

	var views []documentView
	require.NoError(t, yaml.Unmarshal(buf.Bytes(), &views))
	require.Len(t, views, 1)
	require.Len(t, views[0].Blocks, 3)

	css := views[0].Blocks[0]
	assert.Equal(t, "css", css.Kind)
	assert.Equal(t, "css/site.css", css.OutputName)
	assert.Equal(t, []string{"css/a.css", "css/b.css"}, css.Files)
	assert.Equal(t, []string{"concat"}, css.Stages)

	assert.Equal(t, "remove", views[0].Blocks[2].Type)
	assert.Empty(t, views[0].Blocks[2].Stages)
}

func TestResolveOutputDir(t *testing.T) {
	cfg := &config.Config{Output: config.OutputConfig{Directory: "dist"}}
	assert.Equal(t, "public", ResolveOutputDir("public", cfg))
	assert.Equal(t, "dist", ResolveOutputDir("", cfg))
}

func TestNewLogger(t *testing.T) {
	var buf bytes.Buffer
	newLogger(&buf, slog.LevelInfo, config.LogFormatJSON).Info("hello", "k", "v")
	assert.Contains(t, buf.String(), `"msg":"hello"`)

	buf.Reset()
	logger := newLogger(&buf, slog.LevelWarn, config.LogFormatText)
	logger.Info("hidden")
	logger.Warn("shown")
	assert.NotContains(t, buf.String(), "hidden")
	assert.Contains(t, buf.String(), "msg=shown")
}
