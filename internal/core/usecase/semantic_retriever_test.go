package usecase

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/kirillkom/hybrid-search/internal/core/domain"
)

func TestSemanticRetrieverDisabledWithoutEmbedder(t *testing.T) {
	embedder := &featureEmbedder{available: false}
	builder := &dotDenseBuilder{}
	r := NewSemanticRetriever(embedder, newMemoryIndexStore(), builder, WithRetrieverLogger(discardLogger()))

	if r.BuildOrLoad(context.Background(), []string{"apple"}) {
		t.Fatalf("expected not ready without a reachable model")
	}
	if len(embedder.batches()) != 0 || builder.buildCount() != 0 {
		t.Fatalf("unavailable embedder must not trigger embedding or building")
	}
	if got := r.Search(context.Background(), "apple", 5); len(got) != 0 {
		t.Fatalf("expected no candidates, got %+v", got)
	}
}

func TestSemanticRetrieverEmbedsInOrderedBatches(t *testing.T) {
	texts := make([]string, 70)
	for i := range texts {
		texts[i] = fmt.Sprintf("filler document %d", i)
	}
	texts[45] = "banana market"

	embedder := &featureEmbedder{available: true, model: "nomic-embed-text"}
	store := newMemoryIndexStore()
	r := NewSemanticRetriever(embedder, store, &dotDenseBuilder{},
		WithRetrieverLogger(discardLogger()), WithEmbedBatching(32, 3))

	if !r.BuildOrLoad(context.Background(), texts) {
		t.Fatalf("expected build to succeed")
	}
	batches := embedder.batches()
	if len(batches) != 3 {
		t.Fatalf("expected 3 batches, got %v", batches)
	}
	total := 0
	for _, size := range batches {
		if size > 32 {
			t.Fatalf("batch larger than configured size: %v", batches)
		}
		total += size
	}
	if total != len(texts) {
		t.Fatalf("expected %d embedded texts, got %d", len(texts), total)
	}

	candidates := r.Search(context.Background(), "banana market", 1)
	if len(candidates) != 1 || candidates[0].DocID != 45 {
		t.Fatalf("expected document 45 on top, got %+v", candidates)
	}
	if candidates[0].Source != domain.SourceSemantic {
		t.Fatalf("expected semantic source, got %q", candidates[0].Source)
	}
	if store.saveCount() != 1 {
		t.Fatalf("expected artifact persisted once, got %d", store.saveCount())
	}
}

func TestSemanticRetrieverModelChangeForcesRebuild(t *testing.T) {
	store := newMemoryIndexStore()
	texts := []string{"apple earnings", "banana market"}

	first := NewSemanticRetriever(&featureEmbedder{available: true, model: "model-a"}, store, &dotDenseBuilder{},
		WithRetrieverLogger(discardLogger()))
	first.BuildOrLoad(context.Background(), texts)

	sameBuilder := &dotDenseBuilder{}
	same := NewSemanticRetriever(&featureEmbedder{available: true, model: "model-a"}, store, sameBuilder,
		WithRetrieverLogger(discardLogger()))
	if !same.BuildOrLoad(context.Background(), texts) || sameBuilder.buildCount() != 0 {
		t.Fatalf("expected matching artifact to load, builds=%d", sameBuilder.buildCount())
	}

	otherBuilder := &dotDenseBuilder{}
	other := NewSemanticRetriever(&featureEmbedder{available: true, model: "model-b"}, store, otherBuilder,
		WithRetrieverLogger(discardLogger()))
	if !other.BuildOrLoad(context.Background(), texts) || otherBuilder.buildCount() != 1 {
		t.Fatalf("expected model change to rebuild, builds=%d", otherBuilder.buildCount())
	}
}

func TestSemanticRetrieverEmbedFailureLeavesNotReady(t *testing.T) {
	observer := &recordingObserver{}
	embedder := &featureEmbedder{available: true, failEmbed: errors.New("model crashed")}
	r := NewSemanticRetriever(embedder, newMemoryIndexStore(), &dotDenseBuilder{},
		WithRetrieverLogger(discardLogger()), WithRetrieverObserver(observer))

	if r.BuildOrLoad(context.Background(), []string{"apple", "banana"}) {
		t.Fatalf("expected build failure")
	}
	if r.Ready() {
		t.Fatalf("retriever must stay not ready")
	}
	if got := observer.lastBuild(domain.SourceSemantic); got != buildOutcomeFailed {
		t.Fatalf("expected %q outcome, got %q", buildOutcomeFailed, got)
	}
}

func TestSemanticRetrieverQueryFailureDegradesToEmpty(t *testing.T) {
	observer := &recordingObserver{}
	embedder := &featureEmbedder{available: true}
	r := NewSemanticRetriever(embedder, newMemoryIndexStore(), &dotDenseBuilder{},
		WithRetrieverLogger(discardLogger()), WithRetrieverObserver(observer))
	if !r.BuildOrLoad(context.Background(), []string{"apple", "banana"}) {
		t.Fatalf("expected build to succeed")
	}

	embedder.failQuery = errors.New("connection refused")
	if got := r.Search(context.Background(), "apple", 5); len(got) != 0 {
		t.Fatalf("expected empty candidates, got %+v", got)
	}
	if len(observer.failures) != 1 || observer.failures[0] != domain.SourceSemantic {
		t.Fatalf("expected one semantic failure observation, got %+v", observer.failures)
	}
}
