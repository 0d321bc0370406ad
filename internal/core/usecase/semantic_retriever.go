package usecase

import (
	"context"
	"errors"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/kirillkom/hybrid-search/internal/core/domain"
	"github.com/kirillkom/hybrid-search/internal/core/ports"
)

// modelNamer is implemented by embedders that can report the model in use.
// The name is folded into the artifact fingerprint so a model change forces
// a rebuild.
type modelNamer interface {
	ModelName() string
}

// SemanticRetriever serves candidates from an exact inner-product index over
// normalized embeddings.
type SemanticRetriever struct {
	embedder ports.Embedder
	store    ports.IndexStore
	builder  ports.DenseIndexBuilder
	opts     retrieverOptions
	index    atomic.Pointer[denseHandle]
}

type denseHandle struct {
	index ports.DenseIndex
}

func NewSemanticRetriever(embedder ports.Embedder, store ports.IndexStore, builder ports.DenseIndexBuilder, opts ...RetrieverOption) *SemanticRetriever {
	return &SemanticRetriever{
		embedder: embedder,
		store:    store,
		builder:  builder,
		opts:     newRetrieverOptions(SemanticArtifactName, opts),
	}
}

// BuildOrLoad requires a reachable embedding model. It restores a matching
// persisted index or embeds the corpus and builds a new one.
func (r *SemanticRetriever) BuildOrLoad(ctx context.Context, texts []string) bool {
	started := time.Now()
	logger := r.opts.logger.With("strategy", domain.SourceSemantic, "artifact", r.opts.artifactName)

	if r.embedder == nil || !r.embedder.Available(ctx) {
		r.opts.observer.ObserveIndexBuild(domain.SourceSemantic, buildOutcomeFailed, time.Since(started).Seconds())
		logger.Warn("semantic_search_disabled", "reason", "embedding model unavailable")
		return false
	}

	var extra []string
	if named, ok := r.embedder.(modelNamer); ok {
		extra = append(extra, named.ModelName())
	}
	fingerprint := corpusFingerprint(texts, extra...)

	if idx, ok := r.restore(ctx, logger, fingerprint, len(texts)); ok {
		r.index.Store(&denseHandle{index: idx})
		r.opts.observer.ObserveIndexBuild(domain.SourceSemantic, buildOutcomeLoaded, time.Since(started).Seconds())
		logger.Info("semantic_index_loaded", "documents", idx.Len(), "dim", idx.Dim())
		return true
	}

	vectors, err := embedInBatches(ctx, r.embedder, texts, r.opts.batchSize, r.opts.concurrency)
	if err != nil {
		r.opts.observer.ObserveIndexBuild(domain.SourceSemantic, buildOutcomeFailed, time.Since(started).Seconds())
		logger.Error("semantic_index_build_failed", "stage", "embed", "error", err)
		return false
	}
	idx, err := r.builder.Build(vectors)
	if err != nil {
		r.opts.observer.ObserveIndexBuild(domain.SourceSemantic, buildOutcomeFailed, time.Since(started).Seconds())
		logger.Error("semantic_index_build_failed", "stage", "index", "error", err)
		return false
	}
	r.persist(ctx, logger, idx, fingerprint, len(texts))
	r.index.Store(&denseHandle{index: idx})
	r.opts.observer.ObserveIndexBuild(domain.SourceSemantic, buildOutcomeBuilt, time.Since(started).Seconds())
	logger.Info("semantic_index_built", "documents", idx.Len(), "dim", idx.Dim(), "duration_ms", time.Since(started).Milliseconds())
	return true
}

func (r *SemanticRetriever) restore(ctx context.Context, logger *slog.Logger, fingerprint uint64, docCount int) (ports.DenseIndex, bool) {
	payload, ok := loadArtifactPayload(ctx, r.store, r.opts.artifactName, fingerprint, docCount, logger)
	if !ok {
		return nil, false
	}
	idx, err := r.builder.Restore(payload)
	if err != nil {
		logger.Warn("index_artifact_restore_failed", "error", err)
		return nil, false
	}
	if idx.Len() != docCount {
		logger.Warn("index_artifact_restore_failed", "error", errors.New("restored index size mismatch"))
		return nil, false
	}
	return idx, true
}

func (r *SemanticRetriever) persist(ctx context.Context, logger *slog.Logger, idx ports.DenseIndex, fingerprint uint64, docCount int) {
	payload, err := idx.MarshalBinary()
	if err != nil {
		logger.Warn("index_artifact_encode_failed", "error", err)
		return
	}
	saveArtifactPayload(ctx, r.store, r.opts.artifactName, fingerprint, docCount, payload, logger)
}

func (r *SemanticRetriever) Ready() bool {
	return r.index.Load() != nil
}

func (r *SemanticRetriever) Search(ctx context.Context, query string, topK int) []domain.Candidate {
	h := r.index.Load()
	if h == nil || topK <= 0 || ctx.Err() != nil {
		return nil
	}
	vector, err := r.embedder.EmbedQuery(ctx, query)
	if err != nil {
		r.opts.logger.Warn("semantic_search_failed", "stage", "embed_query", "error", err)
		r.opts.observer.ObserveRetrievalFailure(domain.SourceSemantic)
		return nil
	}
	candidates, err := h.index.Search(vector, topK)
	if err != nil {
		r.opts.logger.Warn("semantic_search_failed", "stage", "index", "error", err)
		r.opts.observer.ObserveRetrievalFailure(domain.SourceSemantic)
		return nil
	}
	for i := range candidates {
		candidates[i].Source = domain.SourceSemantic
	}
	return candidates
}
