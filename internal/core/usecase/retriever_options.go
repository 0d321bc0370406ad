package usecase

import (
	"log/slog"

	"github.com/kirillkom/hybrid-search/internal/core/domain"
	"github.com/kirillkom/hybrid-search/internal/core/ports"
)

const (
	LexicalArtifactName  = "lexical_tfidf"
	SemanticArtifactName = "semantic_flat"

	buildOutcomeLoaded = "loaded"
	buildOutcomeBuilt  = "built"
	buildOutcomeFailed = "failed"
)

type retrieverOptions struct {
	logger       *slog.Logger
	observer     ports.SearchObserver
	artifactName string
	batchSize    int
	concurrency  int
}

// RetrieverOption configures a lexical or semantic retriever.
type RetrieverOption func(*retrieverOptions)

func WithRetrieverLogger(logger *slog.Logger) RetrieverOption {
	return func(o *retrieverOptions) {
		if logger != nil {
			o.logger = logger
		}
	}
}

func WithRetrieverObserver(observer ports.SearchObserver) RetrieverOption {
	return func(o *retrieverOptions) {
		if observer != nil {
			o.observer = observer
		}
	}
}

func WithArtifactName(name string) RetrieverOption {
	return func(o *retrieverOptions) {
		if name != "" {
			o.artifactName = name
		}
	}
}

// WithEmbedBatching sets the corpus embedding batch size and worker count.
// Only the semantic retriever uses it.
func WithEmbedBatching(batchSize, concurrency int) RetrieverOption {
	return func(o *retrieverOptions) {
		if batchSize > 0 {
			o.batchSize = batchSize
		}
		if concurrency > 0 {
			o.concurrency = concurrency
		}
	}
}

func newRetrieverOptions(defaultName string, opts []RetrieverOption) retrieverOptions {
	o := retrieverOptions{
		logger:       slog.Default(),
		observer:     noopObserver{},
		artifactName: defaultName,
		batchSize:    32,
		concurrency:  2,
	}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

type noopObserver struct{}

func (noopObserver) ObserveSearch(domain.SearchMode, *domain.SearchOutcome, float64) {}
func (noopObserver) ObserveRetrievalFailure(domain.CandidateSource) {}
func (noopObserver) ObserveIndexBuild(domain.CandidateSource, string, float64) {}
