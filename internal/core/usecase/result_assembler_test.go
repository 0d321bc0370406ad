package usecase

import (
	"strings"
	"testing"
	"time"

	"github.com/kirillkom/hybrid-search/internal/core/domain"
)

func TestAssembleSkipsDuplicateTitlesKeepingEarlier(t *testing.T) {
	corpus := NewCorpus([]domain.Document{
		{Title: "Same", Date: "2024-01-01", Description: "first"},
		{Title: " Same ", Date: "2024-02-01", Description: "second"},
		{Title: "Other", Description: "third"},
	})
	assembler := NewResultAssembler(tagStripCleaner{}, DedupTitle)

	results := assembler.Assemble([]domain.ScoredDocument{
		{DocID: 1, Score: 0.9},
		{DocID: 0, Score: 0.8},
		{DocID: 2, Score: 0.1},
	}, 10, corpus.View(domain.SearchFilter{}))

	if len(results) != 2 {
		t.Fatalf("expected 2 results, got %d", len(results))
	}
	if results[0].Summary != "second" || results[0].Rank != 1 {
		t.Fatalf("expected higher scored duplicate kept at rank 1, got %+v", results[0])
	}
	if results[1].Title != "Other" || results[1].Rank != 2 {
		t.Fatalf("unexpected second result %+v", results[1])
	}
	if results[1].Date != domain.MissingField || results[1].Source != domain.MissingField {
		t.Fatalf("expected N/A sentinels, got date=%q source=%q", results[1].Date, results[1].Source)
	}
}

func TestAssembleTitleDateKeyKeepsDifferentDates(t *testing.T) {
	corpus := NewCorpus([]domain.Document{
		{Title: "Same", Date: "2024-01-01"},
		{Title: "Same", Date: "2024-02-01"},
		{Title: "Same", Date: "2024-02-01"},
	})
	assembler := NewResultAssembler(tagStripCleaner{}, DedupTitleDate)

	results := assembler.Assemble([]domain.ScoredDocument{
		{DocID: 0, Score: 0.9},
		{DocID: 1, Score: 0.8},
		{DocID: 2, Score: 0.7},
	}, 10, corpus.View(domain.SearchFilter{}))
	if len(results) != 2 {
		t.Fatalf("expected 2 results with title+date key, got %d", len(results))
	}
}

func TestAssembleStopsAtTopK(t *testing.T) {
	corpus := NewCorpus([]domain.Document{{Title: "a"}, {Title: "b"}, {Title: "c"}})
	assembler := NewResultAssembler(tagStripCleaner{}, DedupTitle)
	results := assembler.Assemble([]domain.ScoredDocument{
		{DocID: 0, Score: 3}, {DocID: 1, Score: 2}, {DocID: 2, Score: 1},
	}, 2, corpus.View(domain.SearchFilter{}))
	if len(results) != 2 {
		t.Fatalf("expected 2 results, got %d", len(results))
	}
}

func TestSummarizeTruncationBoundary(t *testing.T) {
	assembler := NewResultAssembler(tagStripCleaner{}, DedupTitle)

	exact := strings.Repeat("a", SummaryMaxRunes)
	if got := assembler.Summarize(exact); got != exact {
		t.Fatalf("expected untouched 300-char summary, got len=%d", len(got))
	}

	long := strings.Repeat("b", SummaryMaxRunes+1)
	got := assembler.Summarize(long)
	if got != strings.Repeat("b", SummaryMaxRunes)+"..." {
		t.Fatalf("expected truncated summary with ellipsis, got len=%d suffix=%q", len(got), got[len(got)-3:])
	}
}

func TestSummarizeStripsMarkupAndNewlines(t *testing.T) {
	assembler := NewResultAssembler(tagStripCleaner{}, DedupTitle)
	got := assembler.Summarize("<p>line one</p>\nline two\r\nline three")
	if strings.ContainsAny(got, "\n\r<>") {
		t.Fatalf("expected flattened plain summary, got %q", got)
	}
	if !strings.Contains(got, "line one") || !strings.Contains(got, "line three") {
		t.Fatalf("expected text preserved, got %q", got)
	}
}

func TestAssembleRespectsFilteredView(t *testing.T) {
	corpus := NewCorpus([]domain.Document{
		{Title: "a", Symbol: "COMI", Date: "2024-03-05"},
		{Title: "b", Symbol: "HRHO", Date: "2024-03-06"},
		{Title: "c", Symbol: "comi", Date: "2023-01-01"},
	})
	from := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	to := time.Date(2024, 3, 5, 0, 0, 0, 0, time.UTC)
	view := corpus.View(domain.SearchFilter{Symbol: "comi", DateFrom: &from, DateTo: &to})

	assembler := NewResultAssembler(tagStripCleaner{}, DedupTitle)
	results := assembler.Assemble([]domain.ScoredDocument{
		{DocID: 0, Score: 3}, {DocID: 1, Score: 2}, {DocID: 2, Score: 1},
	}, 10, view)
	if len(results) != 1 || results[0].Title != "a" {
		t.Fatalf("expected only doc a through filter, got %+v", results)
	}

	unfiltered := corpus.View(domain.SearchFilter{})
	if _, ok := unfiltered.Doc(1); !ok {
		t.Fatalf("filtered view must not affect other views")
	}
}

func TestDiagnoseCountsSubstringMatches(t *testing.T) {
	corpus := NewCorpus([]domain.Document{
		{Title: "Apple earnings", Description: "nothing"},
		{Title: "Banana", Description: "apple pie"},
		{Title: "Cherry", Description: "none"},
	})
	assembler := NewResultAssembler(tagStripCleaner{}, DedupTitle)
	diag := assembler.Diagnose("APPLE", corpus.View(domain.SearchFilter{}))
	if diag.TitleMatches != 1 || diag.DescriptionMatches != 1 {
		t.Fatalf("unexpected diagnostics %+v", diag)
	}
}
