package usecase

import (
	"sort"

	"github.com/kirillkom/hybrid-search/internal/core/domain"
)

// fuseWeighted accumulates score*weight per document across both strategies
// and returns the documents ordered by fused score, ties by ascending id.
func fuseWeighted(semantic, lexical []domain.Candidate, analysis domain.QueryAnalysis) []domain.ScoredDocument {
	acc := make(map[int]float64, len(semantic)+len(lexical))
	addList := func(candidates []domain.Candidate, weight float64) {
		for _, c := range candidates {
			acc[c.DocID] += c.Score * weight
		}
	}

	addList(semantic, analysis.SemanticWeight)
	addList(lexical, analysis.KeywordWeight)

	out := make([]domain.ScoredDocument, 0, len(acc))
	for docID, score := range acc {
		out = append(out, domain.ScoredDocument{DocID: docID, Score: score})
	}
	sortScored(out)
	return out
}

func sortScored(docs []domain.ScoredDocument) {
	sort.SliceStable(docs, func(i, j int) bool {
		if docs[i].Score != docs[j].Score {
			return docs[i].Score > docs[j].Score
		}
		return docs[i].DocID < docs[j].DocID
	})
}
