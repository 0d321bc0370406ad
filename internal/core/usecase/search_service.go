package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/kirillkom/hybrid-search/internal/core/domain"
	"github.com/kirillkom/hybrid-search/internal/core/ports"
)

const (
	DefaultTopK           = 10
	DefaultMaxTopK        = 50
	DefaultBuildTimeout   = 10 * time.Minute
	healthStatusHealthy   = "healthy"
	healthStatusUnhealthy = "unhealthy"
)

type SearchServiceConfig struct {
	DefaultTopK      int
	MaxTopK          int
	Dedup            DedupKey
	RetrievalTimeout time.Duration
	BuildTimeout     time.Duration
	EmbedBatchSize   int
	EmbedConcurrency int
	Policies         map[QueryShape]WeightPolicy
}

func (c SearchServiceConfig) withDefaults() SearchServiceConfig {
	if c.DefaultTopK <= 0 {
		c.DefaultTopK = DefaultTopK
	}
	if c.MaxTopK <= 0 {
		c.MaxTopK = DefaultMaxTopK
	}
	if c.DefaultTopK > c.MaxTopK {
		c.DefaultTopK = c.MaxTopK
	}
	if c.Dedup == "" {
		c.Dedup = DedupTitle
	}
	if c.RetrievalTimeout <= 0 {
		c.RetrievalTimeout = DefaultRetrievalTimeout
	}
	if c.BuildTimeout <= 0 {
		c.BuildTimeout = DefaultBuildTimeout
	}
	return c
}

// SearchDeps groups the outbound adapters the service is built from.
// Embedder may be nil, in which case semantic search stays disabled.
type SearchDeps struct {
	Source      ports.CorpusSource
	Cleaner     ports.TextCleaner
	Store       ports.IndexStore
	SparseIndex ports.SparseIndexBuilder
	DenseIndex  ports.DenseIndexBuilder
	Embedder    ports.Embedder
	Observer    ports.SearchObserver
	Logger      *slog.Logger
}

// searchState is one complete, immutable generation of loaded corpus and
// indexes. Reload replaces it as a whole.
type searchState struct {
	corpus   *Corpus
	engine   *HybridSearcher
	err      error
	loadedAt time.Time
}

// SearchService owns the search state and serves queries against it.
type SearchService struct {
	deps     SearchDeps
	cfg      SearchServiceConfig
	analyzer *QueryAnalyzer
	logger   *slog.Logger
	observer ports.SearchObserver

	state    atomic.Pointer[searchState]
	reloadMu sync.Mutex
}

func NewSearchService(deps SearchDeps, cfg SearchServiceConfig) *SearchService {
	cfg = cfg.withDefaults()
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}
	var observer ports.SearchObserver = noopObserver{}
	if deps.Observer != nil {
		observer = deps.Observer
	}
	return &SearchService{
		deps:     deps,
		cfg:      cfg,
		analyzer: NewQueryAnalyzer(cfg.Policies),
		logger:   logger,
		observer: observer,
	}
}

// Initialize performs the first load. A corpus failure leaves the service
// running but unhealthy.
func (s *SearchService) Initialize(ctx context.Context) error {
	return s.Reload(ctx)
}

// Reload builds a fresh search state from the corpus and swaps it in.
// In-flight searches keep the state they started with. When loading fails
// and a previous state exists, the previous state keeps serving.
func (s *SearchService) Reload(ctx context.Context) error {
	s.reloadMu.Lock()
	defer s.reloadMu.Unlock()

	started := time.Now()
	next, err := s.buildState(ctx)
	if err != nil {
		s.logger.Error("search_state_load_failed", "error", err)
		if current := s.state.Load(); current == nil || current.err != nil {
			s.state.Store(&searchState{err: err, loadedAt: time.Now()})
		}
		return err
	}
	s.state.Store(next)

	caps := next.engine.Capabilities()
	s.logger.Info("search_state_ready",
		"documents", next.corpus.Len(),
		"mode", caps.Mode,
		"semantic_available", caps.SemanticAvailable,
		"keyword_available", caps.KeywordAvailable,
		"duration_ms", time.Since(started).Milliseconds(),
	)
	return nil
}

func (s *SearchService) buildState(ctx context.Context) (*searchState, error) {
	if s.deps.Source == nil {
		return nil, domain.WrapError(domain.ErrCorpus, "load corpus", fmt.Errorf("no corpus source configured"))
	}
	docs, err := s.deps.Source.Rows(ctx)
	if err != nil {
		if domain.IsKind(err, domain.ErrCorpus) {
			return nil, err
		}
		return nil, domain.WrapError(domain.ErrCorpus, "load corpus", err)
	}
	corpus := NewCorpus(docs)
	texts := ProcessDocuments(s.deps.Cleaner, corpus.Documents())

	retrieverOpts := []RetrieverOption{
		WithRetrieverLogger(s.logger),
		WithRetrieverObserver(s.observer),
		WithEmbedBatching(s.cfg.EmbedBatchSize, s.cfg.EmbedConcurrency),
	}
	lexical := NewLexicalRetriever(s.deps.Store, s.deps.SparseIndex, retrieverOpts...)
	semantic := NewSemanticRetriever(s.deps.Embedder, s.deps.Store, s.deps.DenseIndex, retrieverOpts...)

	// Each build is bounded on its own; one strategy failing leaves the
	// other usable.
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		buildCtx, cancel := context.WithTimeout(gctx, s.cfg.BuildTimeout)
		defer cancel()
		lexical.BuildOrLoad(buildCtx, texts)
		return nil
	})
	g.Go(func() error {
		buildCtx, cancel := context.WithTimeout(gctx, s.cfg.BuildTimeout)
		defer cancel()
		semantic.BuildOrLoad(buildCtx, texts)
		return nil
	})
	_ = g.Wait()

	assembler := NewResultAssembler(s.deps.Cleaner, s.cfg.Dedup)
	engine := NewHybridSearcher(s.analyzer, semantic, lexical, assembler, s.cfg.RetrievalTimeout, s.logger)
	return &searchState{corpus: corpus, engine: engine, loadedAt: time.Now()}, nil
}

func (s *SearchService) Search(ctx context.Context, req domain.SearchRequest) (*domain.SearchOutcome, error) {
	st := s.state.Load()
	if st == nil {
		return nil, domain.WrapError(domain.ErrUnavailable, "search", fmt.Errorf("search service is not initialized"))
	}
	if st.err != nil {
		return nil, domain.WrapError(domain.ErrUnavailable, "search", st.err)
	}

	query := strings.TrimSpace(req.Query)
	if query == "" {
		return nil, domain.WrapError(domain.ErrInvalidInput, "search", fmt.Errorf("query is required"))
	}
	topK := req.TopK
	if topK == 0 {
		topK = s.cfg.DefaultTopK
	}
	if topK < 1 || topK > s.cfg.MaxTopK {
		return nil, domain.WrapError(domain.ErrInvalidInput, "search",
			fmt.Errorf("top_k must be between 1 and %d", s.cfg.MaxTopK))
	}
	filter := req.Filter
	if filter.Symbol != "" && !st.corpus.HasSymbol(filter.Symbol) {
		return nil, domain.WrapError(domain.ErrInvalidInput, "search", fmt.Errorf("unknown symbol %q", filter.Symbol))
	}
	if filter.DateFrom != nil && filter.DateTo != nil && filter.DateFrom.After(*filter.DateTo) {
		return nil, domain.WrapError(domain.ErrInvalidInput, "search", fmt.Errorf("date_from is after date_to"))
	}

	started := time.Now()
	outcome := st.engine.Search(ctx, query, topK, st.corpus.View(filter))
	s.observer.ObserveSearch(st.engine.Capabilities().Mode, outcome, time.Since(started).Seconds())
	return outcome, nil
}

func (s *SearchService) Capabilities() domain.SearchCapabilities {
	st := s.state.Load()
	if st == nil || st.engine == nil {
		return domain.CapabilitiesOf(false, false)
	}
	return st.engine.Capabilities()
}

func (s *SearchService) Health() domain.HealthStatus {
	st := s.state.Load()
	switch {
	case st == nil:
		return domain.HealthStatus{
			Status:       healthStatusUnhealthy,
			Message:      "Search service not initialized",
			Capabilities: domain.CapabilitiesOf(false, false),
		}
	case st.err != nil:
		return domain.HealthStatus{
			Status:       healthStatusUnhealthy,
			Message:      "Search service failed to load corpus: " + st.err.Error(),
			Capabilities: domain.CapabilitiesOf(false, false),
		}
	}
	return domain.HealthStatus{
		Status:          healthStatusHealthy,
		Message:         "Search service is running",
		DocumentsLoaded: st.corpus.Len(),
		Capabilities:    st.engine.Capabilities(),
	}
}
