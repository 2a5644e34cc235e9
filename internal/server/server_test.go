package server

import (
	"context"
	"encoding/json"
	"net"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/usemin/internal/metrics"
	"git.home.luguber.info/inful/usemin/internal/notify"
)

func do(t *testing.T, h http.Handler, method, target string) *httptest.ResponseRecorder {
	t.Helper()
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(method, target, nil))
	return rec
}

func TestServer_Health(t *testing.T) {
	rec := do(t, New(Options{}), http.MethodGet, "/healthz")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())
}

func TestServer_Status(t *testing.T) {
	tracker := &Tracker{}
	s := New(Options{Status: tracker})

	rec := do(t, s, http.MethodGet, "/status")
	assert.JSONEq(t, `{"status":"pending"}`, rec.Body.String())

	require.NoError(t, tracker.Publish(context.Background(), notify.Event{BuildID: "b1", Status: notify.StatusSuccess, Documents: 2}))
	rec = do(t, s, http.MethodGet, "/status")
	require.Equal(t, http.StatusOK, rec.Code)

	var ev notify.Event
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &ev))
	assert.Equal(t, "b1", ev.BuildID)
	assert.Equal(t, 2, ev.Documents)
}

func TestServer_Rebuild(t *testing.T) {
	rec := do(t, New(Options{}), http.MethodPost, "/rebuild")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "rebuilds are not enabled")

	var calls atomic.Int32
	rec = do(t, New(Options{Rebuild: func() { calls.Add(1) }}), http.MethodPost, "/rebuild")
	assert.Equal(t, http.StatusAccepted, rec.Code)
	assert.Equal(t, int32(1), calls.Load())

	rec = do(t, New(Options{Rebuild: func() {}}), http.MethodGet, "/rebuild")
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}

func TestServer_ServesOutput(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(root, "js"), 0o750))
	require.NoError(t, os.WriteFile(filepath.Join(root, "js", "app.js"), []byte("A;"), 0o600))

	s := New(Options{Root: root})
	rec := do(t, s, http.MethodGet, "/js/app.js")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "A;", rec.Body.String())

	rec = do(t, s, http.MethodGet, "/missing.js")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestServer_Metrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	rec := metrics.NewPrometheusRecorder(reg)
	rec.IncBlocks("js")

	s := New(Options{Metrics: metrics.HTTPHandler(reg)})
	resp := do(t, s, http.MethodGet, "/metrics")
	assert.Equal(t, http.StatusOK, resp.Code)
	assert.Contains(t, resp.Body.String(), "usemin_")

	assert.Equal(t, http.StatusNotFound, do(t, New(Options{}), http.MethodGet, "/metrics").Code)
}

func TestServer_RecoversPanics(t *testing.T) {
	s := New(Options{})
	s.router.Get("/boom", func(http.ResponseWriter, *http.Request) { panic("boom") })

	rec := do(t, s, http.MethodGet, "/boom")
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Contains(t, rec.Body.String(), "internal server error")
}

func TestServe_ShutsDownOnCancel(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- Serve(ctx, ln, New(Options{})) }()

	require.Eventually(t, func() bool {
		resp, err := http.Get("http://" + ln.Addr().String() + "/healthz")
		if err != nil {
			return false
		}
		_ = resp.Body.Close()
		return resp.StatusCode == http.StatusOK
	}, 5*time.Second, 20*time.Millisecond)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("server did not stop")
	}
}
