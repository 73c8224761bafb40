package main

import (
	"net/http"

	"github.com/angeloszaimis/news-aggregator/internal/handler"
	"github.com/angeloszaimis/news-aggregator/internal/metrics"
)

func setupRouter(newsHandler *handler.NewsHandler, metricsCollector *metrics.Collector) *http.ServeMux {
	mux := http.NewServeMux()

	mux.HandleFunc("/aggregate", newsHandler.Aggregate)
	mux.HandleFunc("/aggregate/stream", newsHandler.StreamSSE)
	mux.HandleFunc("/aggregate/ws", newsHandler.StreamWS)
	mux.HandleFunc("/health", newsHandler.Health)
	mux.HandleFunc("/stats", newsHandler.Statistics)
	mux.HandleFunc("/stats/reset", newsHandler.ResetStatistics)
	mux.HandleFunc("/metrics", metricsCollector.Handler())

	return mux
}
