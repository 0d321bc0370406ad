package corpus

import (
	"testing"

	"github.com/kirillkom/hybrid-search/internal/core/domain"
)

func TestDocumentsMapsKnownColumns(t *testing.T) {
	docs, err := Documents(
		[]string{"\ufeffsymbol", " TITLE ", "DESCRIPTION", "MOD_DATE", "SOURCE_NAME", "EXTRA"},
		[][]string{
			{"COMI", "CIB profits", "<p>up</p>", "2024-03-01", "Reuters", "x"},
			{"HRHO", "EFG deal"},
		},
	)
	if err != nil {
		t.Fatalf("documents: %v", err)
	}
	want := domain.Document{Title: "CIB profits", Description: "<p>up</p>", Date: "2024-03-01", Source: "Reuters", Symbol: "COMI"}
	if docs[0] != want {
		t.Fatalf("got %+v, want %+v", docs[0], want)
	}
	if docs[1].Title != "EFG deal" || docs[1].Description != "" || docs[1].Date != "" {
		t.Fatalf("short row must yield empty fields, got %+v", docs[1])
	}
}

func TestResolveColumnsRequiresTitleAndDescription(t *testing.T) {
	_, err := ResolveColumns([]string{"TITLE", "MOD_DATE"})
	if !domain.IsKind(err, domain.ErrCorpus) {
		t.Fatalf("expected ErrCorpus, got %v", err)
	}
}
