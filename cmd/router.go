package main

import (
	"net/http"

	"github.com/angeloszaimis/audio-relay/internal/handler"
	"github.com/angeloszaimis/audio-relay/internal/healthcheck"
	"github.com/angeloszaimis/audio-relay/internal/metrics"
)

func setupRouter(extractHandler *handler.ExtractHandler, metricsCollector *metrics.Collector, monitor *healthcheck.Monitor) *http.ServeMux {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /{$}", extractHandler.Home)
	mux.HandleFunc("GET /extract", extractHandler.Extract)
	mux.HandleFunc("GET /metrics", metricsCollector.Handler())
	mux.HandleFunc("GET /health", monitor.Handler())

	return mux
}
