package domain

import "time"

type CandidateSource string

const (
	SourceSemantic CandidateSource = "semantic"
	SourceKeyword  CandidateSource = "keyword"
)

// Candidate is one hit returned by a single retrieval strategy. Scores are
// local to the strategy that produced them.
type Candidate struct {
	DocID  int             `json:"doc_id"`
	Score  float64         `json:"score"`
	Source CandidateSource `json:"source"`
}

// QueryAnalysis describes how a query is weighted across strategies.
type QueryAnalysis struct {
	Query          string  `json:"query"`
	IsShort        bool    `json:"is_short"`
	Length         int     `json:"length"`
	SemanticWeight float64 `json:"semantic_weight"`
	KeywordWeight  float64 `json:"keyword_weight"`
	Strategy       string  `json:"strategy"`
	SemanticDepth  int     `json:"semantic_depth"`
	KeywordDepth   int     `json:"keyword_depth"`
}

// ScoredDocument is a fused (document, score) pair.
type ScoredDocument struct {
	DocID int
	Score float64
}

type RankedResult struct {
	Rank    int     `json:"result_number"`
	Title   string  `json:"title"`
	Date    string  `json:"date"`
	Source  string  `json:"source"`
	Summary string  `json:"summary"`
	Score   float64 `json:"score"`
}

// NoResultsDiagnostics counts plain substring matches in the corpus. It is
// only used to help operators debug empty result sets.
type NoResultsDiagnostics struct {
	TitleMatches       int `json:"title_matches"`
	DescriptionMatches int `json:"description_matches"`
}

type SearchOutcome struct {
	Query       string                `json:"query"`
	Strategy    string                `json:"strategy"`
	Analysis    QueryAnalysis         `json:"analysis"`
	Results     []RankedResult        `json:"results"`
	NoResults   bool                  `json:"no_results"`
	Diagnostics *NoResultsDiagnostics `json:"diagnostics,omitempty"`
}

type SearchFilter struct {
	DateFrom *time.Time
	DateTo   *time.Time
	Symbol   string
}

func (f SearchFilter) IsZero() bool {
	return f.DateFrom == nil && f.DateTo == nil && f.Symbol == ""
}

type SearchRequest struct {
	Query  string
	TopK   int
	Filter SearchFilter
}

type SearchMode string

const (
	ModeHybrid       SearchMode = "hybrid"
	ModeKeywordOnly  SearchMode = "keyword_only"
	ModeSemanticOnly SearchMode = "semantic_only"
	ModeNone         SearchMode = "none"
)

type SearchCapabilities struct {
	SemanticAvailable bool       `json:"semantic_available"`
	KeywordAvailable  bool       `json:"keyword_available"`
	HybridMode        bool       `json:"hybrid_mode"`
	Mode              SearchMode `json:"mode"`
}

func CapabilitiesOf(semanticReady, keywordReady bool) SearchCapabilities {
	caps := SearchCapabilities{
		SemanticAvailable: semanticReady,
		KeywordAvailable:  keywordReady,
		HybridMode:        semanticReady && keywordReady,
	}
	switch {
	case caps.HybridMode:
		caps.Mode = ModeHybrid
	case keywordReady:
		caps.Mode = ModeKeywordOnly
	case semanticReady:
		caps.Mode = ModeSemanticOnly
	default:
		caps.Mode = ModeNone
	}
	return caps
}

type HealthStatus struct {
	Status          string             `json:"status"`
	Message         string             `json:"message"`
	DocumentsLoaded int                `json:"documents_loaded"`
	Capabilities    SearchCapabilities `json:"search_capabilities"`
}
