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

// LexicalRetriever serves keyword candidates from a TF-IDF style sparse index.
// It is not ready until BuildOrLoad succeeds.
type LexicalRetriever struct {
	store   ports.IndexStore
	builder ports.SparseIndexBuilder
	opts    retrieverOptions
	index   atomic.Pointer[sparseHandle]
}

type sparseHandle struct {
	index ports.SparseIndex
}

func NewLexicalRetriever(store ports.IndexStore, builder ports.SparseIndexBuilder, opts ...RetrieverOption) *LexicalRetriever {
	return &LexicalRetriever{
		store:   store,
		builder: builder,
		opts:    newRetrieverOptions(LexicalArtifactName, opts),
	}
}

// BuildOrLoad restores the persisted index when it matches texts, otherwise
// fits a new one and persists it. It reports whether the retriever is ready.
func (r *LexicalRetriever) BuildOrLoad(ctx context.Context, texts []string) bool {
	started := time.Now()
	logger := r.opts.logger.With("strategy", domain.SourceKeyword, "artifact", r.opts.artifactName)
	fingerprint := corpusFingerprint(texts)

	if idx, ok := r.restore(ctx, logger, fingerprint, len(texts)); ok {
		r.index.Store(&sparseHandle{index: idx})
		r.opts.observer.ObserveIndexBuild(domain.SourceKeyword, buildOutcomeLoaded, time.Since(started).Seconds())
		logger.Info("lexical_index_loaded", "documents", idx.Len())
		return true
	}

	idx, err := r.build(ctx, texts)
	if err != nil {
		r.opts.observer.ObserveIndexBuild(domain.SourceKeyword, buildOutcomeFailed, time.Since(started).Seconds())
		logger.Error("lexical_index_build_failed", "error", err)
		return false
	}
	r.persist(ctx, logger, idx, fingerprint, len(texts))
	r.index.Store(&sparseHandle{index: idx})
	r.opts.observer.ObserveIndexBuild(domain.SourceKeyword, buildOutcomeBuilt, time.Since(started).Seconds())
	logger.Info("lexical_index_built", "documents", idx.Len(), "duration_ms", time.Since(started).Milliseconds())
	return true
}

func (r *LexicalRetriever) build(ctx context.Context, texts []string) (ports.SparseIndex, error) {
	type result struct {
		idx ports.SparseIndex
		err error
	}
	done := make(chan result, 1)
	go func() {
		idx, err := r.builder.Build(texts)
		done <- result{idx: idx, err: err}
	}()
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res := <-done:
		return res.idx, res.err
	}
}

func (r *LexicalRetriever) restore(ctx context.Context, logger *slog.Logger, fingerprint uint64, docCount int) (ports.SparseIndex, bool) {
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

func (r *LexicalRetriever) persist(ctx context.Context, logger *slog.Logger, idx ports.SparseIndex, fingerprint uint64, docCount int) {
	payload, err := idx.MarshalBinary()
	if err != nil {
		logger.Warn("index_artifact_encode_failed", "error", err)
		return
	}
	saveArtifactPayload(ctx, r.store, r.opts.artifactName, fingerprint, docCount, payload, logger)
}

func (r *LexicalRetriever) Ready() bool {
	return r.index.Load() != nil
}

func (r *LexicalRetriever) Search(ctx context.Context, query string, topK int) []domain.Candidate {
	h := r.index.Load()
	if h == nil || topK <= 0 || ctx.Err() != nil {
		return nil
	}
	candidates, err := h.index.Search(query, topK)
	if err != nil {
		r.opts.logger.Warn("keyword_search_failed", "error", err)
		r.opts.observer.ObserveRetrievalFailure(domain.SourceKeyword)
		return nil
	}
	for i := range candidates {
		candidates[i].Source = domain.SourceKeyword
	}
	return candidates
}
