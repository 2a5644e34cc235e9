// Package metrics provides the observability hooks for usemin builds.
//
// Components receive a Recorder through dependency injection and default to
// NoopRecorder, so metrics collection needs no nil checks at call sites:
//
//	proc := usemin.New(usemin.Options{Recorder: metrics.NoopRecorder{}})
//
// To enable metrics, pass a PrometheusRecorder registered on the registry the
// HTTP server exposes:
//
//	reg := prometheus.NewRegistry()
//	rec := metrics.NewPrometheusRecorder(reg)
//	http.Handle("/metrics", metrics.HTTPHandler(reg))
package metrics
