package ports

import (
	"context"

	"github.com/kirillkom/hybrid-search/internal/core/domain"
)

// CorpusSource loads the document collection.
type CorpusSource interface {
	Rows(ctx context.Context) ([]domain.Document, error)
}

// TextCleaner removes markup from raw corpus text.
type TextCleaner interface {
	StripMarkup(text string) string
}

// Embedder builds vectors for corpus texts and query text.
type Embedder interface {
	Embed(ctx context.Context, texts []string) ([][]float32, error)
	EmbedQuery(ctx context.Context, text string) ([]float32, error)
	Available(ctx context.Context) bool
}

// IndexStore persists opaque index artifacts by name.
type IndexStore interface {
	Exists(ctx context.Context, name string) (bool, error)
	Save(ctx context.Context, name string, artifact []byte) error
	Load(ctx context.Context, name string) ([]byte, error)
}

// SparseIndex is a fitted term-weighted index over the corpus.
type SparseIndex interface {
	Search(query string, topK int) ([]domain.Candidate, error)
	Len() int
	MarshalBinary() ([]byte, error)
}

// SparseIndexBuilder fits or restores a SparseIndex.
type SparseIndexBuilder interface {
	Build(texts []string) (SparseIndex, error)
	Restore(data []byte) (SparseIndex, error)
}

// DenseIndex is an exact inner-product index over normalized vectors.
type DenseIndex interface {
	Search(vector []float32, topK int) ([]domain.Candidate, error)
	Len() int
	Dim() int
	MarshalBinary() ([]byte, error)
}

// DenseIndexBuilder builds or restores a DenseIndex.
type DenseIndexBuilder interface {
	Build(vectors [][]float32) (DenseIndex, error)
	Restore(data []byte) (DenseIndex, error)
}

// Retriever answers top-k queries for one strategy. Search never returns an
// error; failures degrade to an empty candidate list.
type Retriever interface {
	Search(ctx context.Context, query string, topK int) []domain.Candidate
	Ready() bool
}

// ReloadNotifier publishes and consumes corpus reload events.
type ReloadNotifier interface {
	PublishReload(ctx context.Context, reason string) error
	SubscribeReload(ctx context.Context, handler func(context.Context, string) error) error
}

// SearchObserver receives search and index lifecycle observations.
type SearchObserver interface {
	ObserveSearch(mode domain.SearchMode, outcome *domain.SearchOutcome, durationSeconds float64)
	ObserveRetrievalFailure(strategy domain.CandidateSource)
	ObserveIndexBuild(strategy domain.CandidateSource, outcome string, durationSeconds float64)
}
