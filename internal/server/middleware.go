package server

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5/middleware"

	"git.home.luguber.info/inful/usemin/internal/foundation/errors"
	"git.home.luguber.info/inful/usemin/internal/logfields"
)

// requestLogger logs method, path, status and duration of every request.
func requestLogger(logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(ww, r)

			status := ww.Status()
			if status == 0 {
				status = http.StatusOK
			}
			logger.LogAttrs(r.Context(), slog.LevelDebug, "HTTP request",
				logfields.Method(r.Method),
				logfields.Path(r.URL.Path),
				logfields.Status(status),
				logfields.RequestID(middleware.GetReqID(r.Context())),
				slog.Duration("duration", time.Since(start)),
				logfields.RemoteAddr(r.RemoteAddr))
		})
	}
}

// recoverer turns handler panics into a structured 500 response.
func recoverer(logger *slog.Logger, adapter *errors.HTTPErrorAdapter) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				rec := recover()
				if rec == nil {
					return
				}
				if rec == http.ErrAbortHandler {
					panic(rec)
				}
				logger.Error("HTTP handler panic",
					slog.Any("panic", rec),
					logfields.Path(r.URL.Path),
					logfields.Method(r.Method))

				adapter.WriteErrorResponse(w, r, errors.InternalError("internal server error").
					WithContext("path", r.URL.Path).
					WithContext("method", r.Method).
					Build())
			}()
			next.ServeHTTP(w, r)
		})
	}
}
