package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/angeloszaimis/news-aggregator/internal/aggregator"
	"github.com/angeloszaimis/news-aggregator/internal/provider"
)

// NewsHandler exposes the aggregator over HTTP.
type NewsHandler struct {
	logger *slog.Logger
	agg    *aggregator.Aggregator
}

func NewNewsHandler(logger *slog.Logger, agg *aggregator.Aggregator) *NewsHandler {
	return &NewsHandler{
		logger: logger,
		agg:    agg,
	}
}

// Aggregate handles GET /aggregate?q=...: the bulk aggregation response.
func (h *NewsHandler) Aggregate(w http.ResponseWriter, r *http.Request) {
	params, err := searchParamsFromRequest(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	h.logger.Info("Received aggregate request",
		slog.String("query", params.Query),
		slog.String("from", r.RemoteAddr))

	result, err := h.agg.Aggregate(r.Context(), params)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	writeJSON(w, h.logger, result)
}

// Health handles GET /health: per-provider health with breaker snapshots.
func (h *NewsHandler) Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, h.logger, h.agg.ProvidersHealth(r.Context()))
}

// Statistics handles GET /stats.
func (h *NewsHandler) Statistics(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, h.logger, h.agg.Statistics())
}

// ResetStatistics handles POST /stats/reset.
func (h *NewsHandler) ResetStatistics(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	h.agg.ResetStatistics()
	h.logger.Info("Statistics reset", slog.String("from", r.RemoteAddr))

	w.WriteHeader(http.StatusNoContent)
}

func searchParamsFromRequest(r *http.Request) (provider.SearchParams, error) {
	query := r.URL.Query()

	params := provider.SearchParams{
		Query:    query.Get("q"),
		Language: query.Get("language"),
		From:     query.Get("from"),
		To:       query.Get("to"),
	}

	if pageSize := query.Get("page_size"); pageSize != "" {
		n, err := strconv.Atoi(pageSize)
		if err != nil {
			return params, err
		}
		params.PageSize = n
	}

	return params, params.Validate()
}

func writeJSON(w http.ResponseWriter, logger *slog.Logger, payload any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		logger.Error("Failed to encode response", slog.String("error", err.Error()))
	}
}
