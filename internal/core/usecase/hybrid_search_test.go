package usecase

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/kirillkom/hybrid-search/internal/core/domain"
)

func threeDocCorpus() *Corpus {
	return NewCorpus([]domain.Document{
		{Title: "Apple Reports Earnings", Date: "2024-01-10", Source: "Reuters", Description: "Apple beat estimates."},
		{Title: "Apple Reports Earnings", Date: "2024-04-11", Source: "Bloomberg", Description: "Apple guidance raised."},
		{Title: "Banana Market Update", Date: "2024-02-01", Description: "Banana prices fell."},
	})
}

func TestHybridSearchBothRetrieversNotReady(t *testing.T) {
	corpus := threeDocCorpus()
	h := NewHybridSearcher(nil, &retrieverFake{}, &retrieverFake{},
		NewResultAssembler(tagStripCleaner{}, DedupTitle), time.Second, discardLogger())

	outcome := h.Search(context.Background(), "anything", 10, corpus.View(domain.SearchFilter{}))
	if outcome == nil {
		t.Fatalf("expected outcome")
	}
	if len(outcome.Results) != 0 || !outcome.NoResults {
		t.Fatalf("expected empty results with no-results signal, got %+v", outcome)
	}
	if outcome.Strategy != strategyUnavailable {
		t.Fatalf("unexpected strategy %q", outcome.Strategy)
	}
	if outcome.Diagnostics == nil {
		t.Fatalf("expected diagnostics on empty result")
	}
	if mode := h.Capabilities().Mode; mode != domain.ModeNone {
		t.Fatalf("expected mode none, got %q", mode)
	}
}

func TestHybridSearchFusesWeightedScores(t *testing.T) {
	corpus := threeDocCorpus()
	semantic := &retrieverFake{ready: true, candidates: []domain.Candidate{
		{DocID: 2, Score: 0.9, Source: domain.SourceSemantic},
		{DocID: 0, Score: 0.5, Source: domain.SourceSemantic},
	}}
	lexical := &retrieverFake{ready: true, candidates: []domain.Candidate{
		{DocID: 0, Score: 1.0, Source: domain.SourceKeyword},
	}}
	h := NewHybridSearcher(nil, semantic, lexical, NewResultAssembler(tagStripCleaner{}, DedupTitle), time.Second, discardLogger())

	// Long query: semantic 0.3, keyword 0.7.
	outcome := h.Search(context.Background(), "apple quarterly earnings", 10, corpus.View(domain.SearchFilter{}))
	if len(outcome.Results) != 2 {
		t.Fatalf("expected 2 results, got %+v", outcome.Results)
	}
	if outcome.Results[0].Title != "Apple Reports Earnings" {
		t.Fatalf("expected doc 0 first (0.15+0.7), got %+v", outcome.Results[0])
	}
	if diff := outcome.Results[0].Score - 0.85; diff > 1e-9 || diff < -1e-9 {
		t.Fatalf("expected fused score 0.85, got %v", outcome.Results[0].Score)
	}
	if outcome.Strategy != "30% semantic + 70% keyword (semantic-focused)" {
		t.Fatalf("unexpected strategy %q", outcome.Strategy)
	}
	if semantic.lastTopK() != 40 || lexical.lastTopK() != 20 {
		t.Fatalf("unexpected depths semantic=%d lexical=%d", semantic.lastTopK(), lexical.lastTopK())
	}
}

func TestHybridSearchShortQueryStrategyLabel(t *testing.T) {
	corpus := threeDocCorpus()
	semantic := &retrieverFake{ready: true}
	lexical := &retrieverFake{ready: true}
	h := NewHybridSearcher(nil, semantic, lexical, NewResultAssembler(tagStripCleaner{}, DedupTitle), time.Second, discardLogger())

	outcome := h.Search(context.Background(), "COMI", 10, corpus.View(domain.SearchFilter{}))
	if outcome.Strategy != "90% semantic + 10% keyword (keyword-focused)" {
		t.Fatalf("unexpected strategy %q", outcome.Strategy)
	}
	if semantic.lastTopK() != 30 || lexical.lastTopK() != 30 {
		t.Fatalf("unexpected depths semantic=%d lexical=%d", semantic.lastTopK(), lexical.lastTopK())
	}
}

func TestHybridSearchKeywordOnlyMode(t *testing.T) {
	corpus := threeDocCorpus()
	semantic := &retrieverFake{ready: false}
	lexical := &retrieverFake{ready: true, candidates: []domain.Candidate{{DocID: 2, Score: 0.4}}}
	h := NewHybridSearcher(nil, semantic, lexical, NewResultAssembler(tagStripCleaner{}, DedupTitle), time.Second, discardLogger())

	outcome := h.Search(context.Background(), "banana", 10, corpus.View(domain.SearchFilter{}))
	if outcome.Strategy != strategyKeywordOnly {
		t.Fatalf("unexpected strategy %q", outcome.Strategy)
	}
	if len(outcome.Results) != 1 || outcome.Results[0].Title != "Banana Market Update" {
		t.Fatalf("unexpected results %+v", outcome.Results)
	}
	if semantic.lastTopK() != 0 {
		t.Fatalf("unready retriever must not be queried")
	}
}

func TestHybridSearchTimeoutEmptiesOnlySlowStrategy(t *testing.T) {
	corpus := threeDocCorpus()
	block := make(chan struct{})
	defer close(block)
	semantic := &retrieverFake{ready: true, block: block, candidates: []domain.Candidate{{DocID: 0, Score: 1}}}
	lexical := &retrieverFake{ready: true, candidates: []domain.Candidate{{DocID: 2, Score: 1}}}
	h := NewHybridSearcher(nil, semantic, lexical, NewResultAssembler(tagStripCleaner{}, DedupTitle), 20*time.Millisecond, discardLogger())

	started := time.Now()
	outcome := h.Search(context.Background(), "banana market news", 10, corpus.View(domain.SearchFilter{}))
	if elapsed := time.Since(started); elapsed > time.Second {
		t.Fatalf("search not bounded by retrieval timeout: %s", elapsed)
	}
	if len(outcome.Results) != 1 || outcome.Results[0].Title != "Banana Market Update" {
		t.Fatalf("expected only lexical candidates, got %+v", outcome.Results)
	}
}

func TestHybridSearchFilteredViewWidensDepth(t *testing.T) {
	corpus := threeDocCorpus()
	lexical := &retrieverFake{ready: true, candidates: []domain.Candidate{
		{DocID: 0, Score: 0.9},
		{DocID: 1, Score: 0.8},
	}}
	h := NewHybridSearcher(nil, &retrieverFake{}, lexical, NewResultAssembler(tagStripCleaner{}, DedupTitleDate), time.Second, discardLogger())

	from := time.Date(2024, 4, 1, 0, 0, 0, 0, time.UTC)
	outcome := h.Search(context.Background(), "apple earnings report", 10, corpus.View(domain.SearchFilter{DateFrom: &from}))
	if len(outcome.Results) != 1 || outcome.Results[0].Source != "Bloomberg" {
		t.Fatalf("expected only the April document, got %+v", outcome.Results)
	}
	if lexical.lastTopK() != 20*filteredDepthFactor {
		t.Fatalf("expected widened depth, got %d", lexical.lastTopK())
	}
}

func TestHybridSearchNoResultsDiagnostics(t *testing.T) {
	corpus := threeDocCorpus()
	h := NewHybridSearcher(nil, &retrieverFake{ready: true}, &retrieverFake{ready: true},
		NewResultAssembler(tagStripCleaner{}, DedupTitle), time.Second, discardLogger())

	outcome := h.Search(context.Background(), "Apple", 10, corpus.View(domain.SearchFilter{}))
	if !outcome.NoResults || outcome.Diagnostics == nil {
		t.Fatalf("expected no-results diagnostics, got %+v", outcome)
	}
	if outcome.Diagnostics.TitleMatches != 2 || outcome.Diagnostics.DescriptionMatches != 2 {
		t.Fatalf("unexpected diagnostics %+v", *outcome.Diagnostics)
	}
	if !strings.Contains(outcome.Strategy, "semantic") {
		t.Fatalf("unexpected strategy %q", outcome.Strategy)
	}
}
