package metrics

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/kirillkom/hybrid-search/internal/core/domain"
)

func scrape(t *testing.T, handler http.Handler) string {
	t.Helper()
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	body, err := io.ReadAll(rec.Body)
	if err != nil {
		t.Fatalf("read metrics body: %v", err)
	}
	return string(body)
}

func TestSearchMetricsExposedOnHTTPRegistry(t *testing.T) {
	httpMetrics := NewHTTPServerMetrics("api")
	search := NewSearchMetrics("api", httpMetrics.Registerer())

	search.ObserveSearch(domain.ModeHybrid, &domain.SearchOutcome{
		Analysis: domain.QueryAnalysis{Strategy: "keyword-focused"},
		Results:  []domain.RankedResult{{Rank: 1}},
	}, 0.02)
	search.ObserveSearch(domain.ModeKeywordOnly, &domain.SearchOutcome{
		Analysis:  domain.QueryAnalysis{Strategy: "semantic-focused"},
		NoResults: true,
	}, 0.01)
	search.ObserveRetrievalFailure(domain.SourceSemantic)
	search.ObserveIndexBuild(domain.SourceKeyword, "built", 1.5)

	body := scrape(t, httpMetrics.Handler())
	for _, want := range []string{
		`hybridsearch_search_requests_total{mode="hybrid",service="api",strategy="keyword-focused"} 1`,
		`hybridsearch_search_no_results_total{mode="keyword_only",service="api"} 1`,
		`hybridsearch_retrieval_failures_total{retriever="semantic",service="api"} 1`,
		`hybridsearch_index_builds_total{outcome="built",retriever="keyword",service="api"} 1`,
	} {
		if !strings.Contains(body, want) {
			t.Fatalf("metrics output missing %q\n%s", want, body)
		}
	}
	if strings.Contains(body, `hybridsearch_search_no_results_total{mode="hybrid"`) {
		t.Fatalf("hybrid search with results must not count as no-results")
	}
}

func TestMiddlewareCountsRequestsWithBoundedPath(t *testing.T) {
	m := NewHTTPServerMetrics("api")
	handler := m.Middleware("api", http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/search" {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		w.WriteHeader(http.StatusNotFound)
	}))

	handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/search?q=x", nil))
	handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/random/123", nil))

	body := scrape(t, m.Handler())
	if !strings.Contains(body, `hybridsearch_http_requests_total{method="GET",path="/search",service="api",status="400"} 1`) {
		t.Fatalf("expected /search request counted, got:\n%s", body)
	}
	if !strings.Contains(body, `hybridsearch_http_requests_total{method="GET",path="other",service="api",status="404"} 1`) {
		t.Fatalf("expected unknown path collapsed to other, got:\n%s", body)
	}
	if !strings.Contains(body, "go_goroutines ") {
		t.Fatalf("expected runtime collectors on the registry")
	}
}
