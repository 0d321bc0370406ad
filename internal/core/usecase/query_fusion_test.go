package usecase

import (
	"math"
	"testing"

	"github.com/kirillkom/hybrid-search/internal/core/domain"
)

func TestFuseWeightedAddsBothContributions(t *testing.T) {
	analysis := domain.QueryAnalysis{SemanticWeight: 0.3, KeywordWeight: 0.7}
	semantic := []domain.Candidate{
		{DocID: 1, Score: 0.8, Source: domain.SourceSemantic},
		{DocID: 2, Score: 0.5, Source: domain.SourceSemantic},
	}
	lexical := []domain.Candidate{
		{DocID: 2, Score: 0.9, Source: domain.SourceKeyword},
		{DocID: 3, Score: 0.4, Source: domain.SourceKeyword},
	}

	fused := fuseWeighted(semantic, lexical, analysis)
	if len(fused) != 3 {
		t.Fatalf("expected 3 fused documents, got %d", len(fused))
	}

	want := 0.5*0.3 + 0.9*0.7
	if fused[0].DocID != 2 {
		t.Fatalf("expected doc 2 first, got %d", fused[0].DocID)
	}
	if math.Abs(fused[0].Score-want) > 1e-12 {
		t.Fatalf("expected fused score %v, got %v", want, fused[0].Score)
	}
}

func TestFuseWeightedIndependentOfOrder(t *testing.T) {
	analysis := domain.QueryAnalysis{SemanticWeight: 0.9, KeywordWeight: 0.1}
	semantic := []domain.Candidate{{DocID: 7, Score: 0.61}, {DocID: 4, Score: 0.2}}
	lexical := []domain.Candidate{{DocID: 4, Score: 0.33}, {DocID: 7, Score: 0.12}}

	a := fuseWeighted(semantic, lexical, analysis)
	b := fuseWeighted([]domain.Candidate{semantic[1], semantic[0]}, []domain.Candidate{lexical[1], lexical[0]}, analysis)
	if len(a) != len(b) {
		t.Fatalf("length mismatch %d vs %d", len(a), len(b))
	}
	for i := range a {
		if a[i].DocID != b[i].DocID || math.Abs(a[i].Score-b[i].Score) > 1e-12 {
			t.Fatalf("order dependent fusion at %d: %+v vs %+v", i, a[i], b[i])
		}
	}
}

func TestFuseWeightedTieBreakByDocumentID(t *testing.T) {
	analysis := domain.QueryAnalysis{SemanticWeight: 0.5, KeywordWeight: 0.5}
	semantic := []domain.Candidate{{DocID: 9, Score: 0.4}}
	lexical := []domain.Candidate{{DocID: 3, Score: 0.4}}

	fused := fuseWeighted(semantic, lexical, analysis)
	if fused[0].DocID != 3 || fused[1].DocID != 9 {
		t.Fatalf("expected tie-break by ascending id, got %+v", fused)
	}
}

func TestFuseWeightedEmptyInputs(t *testing.T) {
	fused := fuseWeighted(nil, nil, domain.QueryAnalysis{SemanticWeight: 0.3, KeywordWeight: 0.7})
	if len(fused) != 0 {
		t.Fatalf("expected empty fusion, got %d", len(fused))
	}
}
