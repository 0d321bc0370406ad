package httpadapter

import (
	"encoding/json"
	"log/slog"
	"math"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/kirillkom/hybrid-search/internal/config"
	"github.com/kirillkom/hybrid-search/internal/core/domain"
	"github.com/kirillkom/hybrid-search/internal/core/ports"
	"github.com/kirillkom/hybrid-search/internal/core/usecase"
	"github.com/kirillkom/hybrid-search/internal/observability/metrics"
)

const serviceName = "api"

type Router struct {
	search ports.SearchService

	metrics             *metrics.HTTPServerMetrics
	rateLimitRPS        float64
	rateLimitBurst      int
	maxInFlight         int
	backpressureMaxWait time.Duration
}

// NewRouter builds the HTTP surface. httpMetrics may be nil, in which case
// /metrics is not mounted.
func NewRouter(cfg config.Config, search ports.SearchService, httpMetrics *metrics.HTTPServerMetrics) *Router {
	return &Router{
		search:              search,
		metrics:             httpMetrics,
		rateLimitRPS:        cfg.APIRateLimitRPS,
		rateLimitBurst:      cfg.APIRateLimitBurst,
		maxInFlight:         cfg.APIMaxInFlight,
		backpressureMaxWait: cfg.APIBackpressureWait,
	}
}

func (rt *Router) Handler() http.Handler {
	var searchHandler http.Handler = http.HandlerFunc(rt.handleSearch)
	searchHandler = backpressureMiddleware(searchHandler, rt.maxInFlight, rt.backpressureMaxWait)
	searchHandler = rateLimitMiddleware(searchHandler, rt.rateLimitRPS, rt.rateLimitBurst)

	mux := http.NewServeMux()
	mux.HandleFunc("/health", rt.handleHealth)
	mux.Handle("/search", searchHandler)
	if rt.metrics != nil {
		mux.Handle("/metrics", rt.metrics.Handler())
	}

	var handler http.Handler = mux
	handler = corsMiddleware(handler)
	if rt.metrics != nil {
		handler = rt.metrics.Middleware(serviceName, handler)
	}
	handler = accessLogMiddleware(handler)
	return requestIDMiddleware(handler)
}

type healthResponse struct {
	Status             string                    `json:"status"`
	Message            string                    `json:"message"`
	DocumentsLoaded    int                       `json:"documents_loaded"`
	SearchCapabilities domain.SearchCapabilities `json:"search_capabilities"`
}

func (rt *Router) handleHealth(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeJSON(w, http.StatusMethodNotAllowed, map[string]string{"error": "method not allowed"})
		return
	}
	health := rt.search.Health()
	writeJSON(w, http.StatusOK, healthResponse{
		Status:             health.Status,
		Message:            health.Message,
		DocumentsLoaded:    health.DocumentsLoaded,
		SearchCapabilities: health.Capabilities,
	})
}

type searchResponse struct {
	Query           string                       `json:"query"`
	Strategy        string                       `json:"strategy"`
	TotalResults    int                          `json:"total_results"`
	Results         []domain.RankedResult        `json:"results"`
	ExecutionTimeMS float64                      `json:"execution_time_ms"`
	Diagnostics     *domain.NoResultsDiagnostics `json:"diagnostics,omitempty"`
}

func (rt *Router) handleSearch(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeJSON(w, http.StatusMethodNotAllowed, map[string]string{"error": "method not allowed"})
		return
	}
	started := time.Now()

	params := r.URL.Query()
	query := strings.TrimSpace(params.Get("q"))
	if query == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "query parameter 'q' is required"})
		return
	}
	topK := 0
	if raw := strings.TrimSpace(params.Get("top_k")); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "top_k must be an integer"})
			return
		}
		if n == 0 {
			// 0 would silently mean "default" downstream.
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "top_k must be at least 1"})
			return
		}
		topK = n
	}
	filter, err := usecase.ParseFilter(params.Get("date_from"), params.Get("date_to"), params.Get("symbol"))
	if err != nil {
		rt.writeError(w, r, err)
		return
	}

	outcome, err := rt.search.Search(r.Context(), domain.SearchRequest{
		Query:  query,
		TopK:   topK,
		Filter: filter,
	})
	if err != nil {
		rt.writeError(w, r, err)
		return
	}

	results := outcome.Results
	if results == nil {
		results = []domain.RankedResult{}
	}
	elapsed := float64(time.Since(started).Microseconds()) / 1000.0
	writeJSON(w, http.StatusOK, searchResponse{
		Query:           query,
		Strategy:        outcome.Strategy,
		TotalResults:    len(results),
		Results:         results,
		ExecutionTimeMS: math.Round(elapsed*100) / 100,
		Diagnostics:     outcome.Diagnostics,
	})
}

func (rt *Router) writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := mapErrorToHTTPStatus(err)
	if status >= http.StatusInternalServerError {
		slog.Error("search_request_failed",
			"request_id", requestIDFromContext(r.Context()),
			"status", status,
			"error", err,
		)
	}
	writeJSON(w, status, map[string]string{"error": err.Error()})
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}
