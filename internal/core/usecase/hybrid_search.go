package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/kirillkom/hybrid-search/internal/core/domain"
	"github.com/kirillkom/hybrid-search/internal/core/ports"
)

const (
	DefaultRetrievalTimeout = 5 * time.Second

	// filteredDepthFactor widens candidate depth when a filter hides part of
	// the corpus, so a restrictive filter still has something to rank.
	filteredDepthFactor = 5

	strategyKeywordOnly = "Keyword matching only"
	strategyUnavailable = "No search strategy available"
)

// HybridSearcher runs both retrievers concurrently, fuses their candidates
// with query-dependent weights and assembles the ranked result list.
type HybridSearcher struct {
	analyzer         *QueryAnalyzer
	semantic         ports.Retriever
	lexical          ports.Retriever
	assembler        *ResultAssembler
	retrievalTimeout time.Duration
	logger           *slog.Logger
}

func NewHybridSearcher(
	analyzer *QueryAnalyzer,
	semantic ports.Retriever,
	lexical ports.Retriever,
	assembler *ResultAssembler,
	retrievalTimeout time.Duration,
	logger *slog.Logger,
) *HybridSearcher {
	if analyzer == nil {
		analyzer = NewQueryAnalyzer(nil)
	}
	if retrievalTimeout <= 0 {
		retrievalTimeout = DefaultRetrievalTimeout
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &HybridSearcher{
		analyzer:         analyzer,
		semantic:         semantic,
		lexical:          lexical,
		assembler:        assembler,
		retrievalTimeout: retrievalTimeout,
		logger:           logger,
	}
}

func (h *HybridSearcher) Capabilities() domain.SearchCapabilities {
	return domain.CapabilitiesOf(isReady(h.semantic), isReady(h.lexical))
}

// Search never fails. Unready or failing retrievers contribute no candidates.
func (h *HybridSearcher) Search(ctx context.Context, query string, topK int, view CorpusView) *domain.SearchOutcome {
	analysis := h.analyzer.Analyze(query)
	caps := h.Capabilities()
	outcome := &domain.SearchOutcome{
		Query:    analysis.Query,
		Strategy: describeStrategy(analysis, caps),
		Analysis: analysis,
		Results:  []domain.RankedResult{},
	}

	semanticDepth, keywordDepth := analysis.SemanticDepth, analysis.KeywordDepth
	if view.Filtered() {
		semanticDepth *= filteredDepthFactor
		keywordDepth *= filteredDepthFactor
	}

	var semantic, lexical []domain.Candidate
	g, gctx := errgroup.WithContext(ctx)
	if caps.SemanticAvailable {
		g.Go(func() error {
			semantic = h.retrieve(gctx, h.semantic, domain.SourceSemantic, analysis.Query, semanticDepth)
			return nil
		})
	}
	if caps.KeywordAvailable {
		g.Go(func() error {
			lexical = h.retrieve(gctx, h.lexical, domain.SourceKeyword, analysis.Query, keywordDepth)
			return nil
		})
	}
	_ = g.Wait()

	fused := fuseWeighted(semantic, lexical, analysis)
	outcome.Results = h.assembler.Assemble(fused, topK, view)
	if len(outcome.Results) == 0 {
		outcome.NoResults = true
		diagnostics := h.assembler.Diagnose(analysis.Query, view)
		outcome.Diagnostics = &diagnostics
		h.logger.Info("search_no_results",
			"query", analysis.Query,
			"mode", caps.Mode,
			"title_matches", diagnostics.TitleMatches,
			"description_matches", diagnostics.DescriptionMatches,
		)
	}
	return outcome
}

// retrieve bounds one retriever call by the retrieval timeout. A retriever
// that overruns is abandoned and contributes nothing.
func (h *HybridSearcher) retrieve(ctx context.Context, r ports.Retriever, source domain.CandidateSource, query string, depth int) []domain.Candidate {
	ctx, cancel := context.WithTimeout(ctx, h.retrievalTimeout)
	defer cancel()

	done := make(chan []domain.Candidate, 1)
	go func() {
		done <- r.Search(ctx, query, depth)
	}()
	select {
	case candidates := <-done:
		return candidates
	case <-ctx.Done():
		h.logger.Warn("retrieval_timeout", "strategy", source, "timeout", h.retrievalTimeout.String())
		return nil
	}
}

func describeStrategy(analysis domain.QueryAnalysis, caps domain.SearchCapabilities) string {
	switch caps.Mode {
	case domain.ModeNone:
		return strategyUnavailable
	case domain.ModeKeywordOnly:
		return strategyKeywordOnly
	}
	return fmt.Sprintf("%.0f%% semantic + %.0f%% keyword (%s)",
		analysis.SemanticWeight*100, analysis.KeywordWeight*100, analysis.Strategy)
}

func isReady(r ports.Retriever) bool {
	return r != nil && r.Ready()
}
