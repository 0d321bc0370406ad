package usecase

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"regexp"
	"sort"
	"strings"
	"sync"

	"github.com/kirillkom/hybrid-search/internal/core/domain"
	"github.com/kirillkom/hybrid-search/internal/core/ports"
)

var testTagPattern = regexp.MustCompile(`<[^>]+>`)

type tagStripCleaner struct{}

func (tagStripCleaner) StripMarkup(text string) string {
	return testTagPattern.ReplaceAllString(text, " ")
}

type retrieverFake struct {
	mu         sync.Mutex
	ready      bool
	candidates []domain.Candidate
	topK       int
	query      string
	block      chan struct{}
}

func (f *retrieverFake) Search(ctx context.Context, query string, topK int) []domain.Candidate {
	f.mu.Lock()
	f.topK = topK
	f.query = query
	f.mu.Unlock()
	if f.block != nil {
		select {
		case <-f.block:
		case <-ctx.Done():
			return nil
		}
	}
	if !f.ready {
		return nil
	}
	if len(f.candidates) > topK {
		return f.candidates[:topK]
	}
	return f.candidates
}

func (f *retrieverFake) Ready() bool { return f.ready }

func (f *retrieverFake) lastTopK() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.topK
}

type memoryIndexStore struct {
	mu    sync.Mutex
	items map[string][]byte
	saves int
}

func newMemoryIndexStore() *memoryIndexStore {
	return &memoryIndexStore{items: map[string][]byte{}}
}

func (s *memoryIndexStore) Exists(_ context.Context, name string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.items[name]
	return ok, nil
}

func (s *memoryIndexStore) Save(_ context.Context, name string, artifact []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.items[name] = append([]byte(nil), artifact...)
	s.saves++
	return nil
}

func (s *memoryIndexStore) Load(_ context.Context, name string) ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	data, ok := s.items[name]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return append([]byte(nil), data...), nil
}

func (s *memoryIndexStore) saveCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.saves
}

// termSparseBuilder builds a toy sparse index that scores a document by the
// number of query terms it contains.
type termSparseBuilder struct {
	mu       sync.Mutex
	builds   int
	restores int
	failWith error
}

func (b *termSparseBuilder) Build(texts []string) (ports.SparseIndex, error) {
	b.mu.Lock()
	b.builds++
	b.mu.Unlock()
	if b.failWith != nil {
		return nil, b.failWith
	}
	return &termSparseIndex{texts: append([]string(nil), texts...)}, nil
}

func (b *termSparseBuilder) Restore(data []byte) (ports.SparseIndex, error) {
	b.mu.Lock()
	b.restores++
	b.mu.Unlock()
	var texts []string
	if err := json.Unmarshal(data, &texts); err != nil {
		return nil, err
	}
	return &termSparseIndex{texts: texts}, nil
}

func (b *termSparseBuilder) counts() (builds, restores int) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.builds, b.restores
}

type termSparseIndex struct {
	texts []string
}

func (i *termSparseIndex) Search(query string, topK int) ([]domain.Candidate, error) {
	terms := strings.Fields(strings.ToLower(query))
	out := make([]domain.Candidate, 0)
	for id, text := range i.texts {
		lower := strings.ToLower(text)
		score := 0.0
		for _, term := range terms {
			if strings.Contains(lower, term) {
				score++
			}
		}
		if score > 0 {
			out = append(out, domain.Candidate{DocID: id, Score: score / float64(len(terms))})
		}
	}
	if len(out) > topK {
		out = out[:topK]
	}
	return out, nil
}

func (i *termSparseIndex) Len() int { return len(i.texts) }

func (i *termSparseIndex) MarshalBinary() ([]byte, error) {
	return json.Marshal(i.texts)
}

// featureEmbedder maps text to a fixed feature vector so tests can reason
// about similarity without a model. Documents sharing no feature with the
// query are never returned by dotDenseIndex.
type featureEmbedder struct {
	mu         sync.Mutex
	available  bool
	model      string
	batchSizes []int
	failEmbed  error
	failQuery  error
}

var embedFeatures = []string{"apple", "banana", "market", "earnings"}

func featureVector(text string) []float32 {
	lower := strings.ToLower(text)
	vec := make([]float32, len(embedFeatures))
	for i, f := range embedFeatures {
		if strings.Contains(lower, f) {
			vec[i] = 1
		}
	}
	return vec
}

func (e *featureEmbedder) Embed(_ context.Context, texts []string) ([][]float32, error) {
	e.mu.Lock()
	e.batchSizes = append(e.batchSizes, len(texts))
	e.mu.Unlock()
	if e.failEmbed != nil {
		return nil, e.failEmbed
	}
	out := make([][]float32, len(texts))
	for i, t := range texts {
		out[i] = featureVector(t)
	}
	return out, nil
}

func (e *featureEmbedder) EmbedQuery(_ context.Context, text string) ([]float32, error) {
	if e.failQuery != nil {
		return nil, e.failQuery
	}
	return featureVector(text), nil
}

func (e *featureEmbedder) Available(context.Context) bool { return e.available }

func (e *featureEmbedder) ModelName() string { return e.model }

func (e *featureEmbedder) batches() []int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return append([]int(nil), e.batchSizes...)
}

type dotDenseBuilder struct {
	mu     sync.Mutex
	builds int
}

func (b *dotDenseBuilder) Build(vectors [][]float32) (ports.DenseIndex, error) {
	b.mu.Lock()
	b.builds++
	b.mu.Unlock()
	if len(vectors) == 0 {
		return nil, errors.New("no vectors")
	}
	return &dotDenseIndex{Vectors: vectors}, nil
}

func (b *dotDenseBuilder) Restore(data []byte) (ports.DenseIndex, error) {
	var idx dotDenseIndex
	if err := json.Unmarshal(data, &idx); err != nil {
		return nil, err
	}
	return &idx, nil
}

func (b *dotDenseBuilder) buildCount() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.builds
}

type dotDenseIndex struct {
	Vectors [][]float32
}

func (i *dotDenseIndex) Search(vector []float32, topK int) ([]domain.Candidate, error) {
	out := make([]domain.Candidate, 0, len(i.Vectors))
	for id, v := range i.Vectors {
		var dot float64
		for d := range v {
			dot += float64(v[d] * vector[d])
		}
		if dot <= 0 {
			continue
		}
		out = append(out, domain.Candidate{DocID: id, Score: dot})
	}
	sort.SliceStable(out, func(a, b int) bool { return out[a].Score > out[b].Score })
	if len(out) > topK {
		out = out[:topK]
	}
	return out, nil
}

func (i *dotDenseIndex) Len() int { return len(i.Vectors) }

func (i *dotDenseIndex) Dim() int {
	if len(i.Vectors) == 0 {
		return 0
	}
	return len(i.Vectors[0])
}

func (i *dotDenseIndex) MarshalBinary() ([]byte, error) {
	return json.Marshal(i)
}

type buildEvent struct {
	strategy domain.CandidateSource
	outcome  string
}

type recordingObserver struct {
	mu       sync.Mutex
	builds   []buildEvent
	failures []domain.CandidateSource
	searches int
}

func (o *recordingObserver) ObserveSearch(domain.SearchMode, *domain.SearchOutcome, float64) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.searches++
}

func (o *recordingObserver) ObserveRetrievalFailure(strategy domain.CandidateSource) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.failures = append(o.failures, strategy)
}

func (o *recordingObserver) ObserveIndexBuild(strategy domain.CandidateSource, outcome string, _ float64) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.builds = append(o.builds, buildEvent{strategy: strategy, outcome: outcome})
}

func (o *recordingObserver) lastBuild(strategy domain.CandidateSource) string {
	o.mu.Lock()
	defer o.mu.Unlock()
	for i := len(o.builds) - 1; i >= 0; i-- {
		if o.builds[i].strategy == strategy {
			return o.builds[i].outcome
		}
	}
	return ""
}

type staticSource struct {
	mu   sync.Mutex
	docs []domain.Document
	err  error
}

func (s *staticSource) Rows(context.Context) ([]domain.Document, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return nil, s.err
	}
	return append([]domain.Document(nil), s.docs...), nil
}

func (s *staticSource) set(docs []domain.Document, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.docs = docs
	s.err = err
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}
