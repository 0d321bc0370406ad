package usecase

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/kirillkom/hybrid-search/internal/core/domain"
)

type QueryShape string

const (
	ShapeShort QueryShape = "short"
	ShapeLong  QueryShape = "long"
)

// ShortQueryMaxLength is the longest alphanumeric query treated as an exact token.
const ShortQueryMaxLength = 6

// WeightPolicy is the fusion weighting and candidate depth for one query shape.
type WeightPolicy struct {
	SemanticWeight float64
	KeywordWeight  float64
	Strategy       string
	SemanticDepth  int
	KeywordDepth   int
}

// DefaultWeightPolicies keeps the historical weighting. The labels read
// inverted against the numbers and downstream display text depends on them.
var DefaultWeightPolicies = map[QueryShape]WeightPolicy{
	ShapeShort: {
		SemanticWeight: 0.9,
		KeywordWeight:  0.1,
		Strategy:       "keyword-focused",
		SemanticDepth:  30,
		KeywordDepth:   30,
	},
	ShapeLong: {
		SemanticWeight: 0.3,
		KeywordWeight:  0.7,
		Strategy:       "semantic-focused",
		SemanticDepth:  40,
		KeywordDepth:   20,
	},
}

type QueryAnalyzer struct {
	policies map[QueryShape]WeightPolicy
}

func NewQueryAnalyzer(policies map[QueryShape]WeightPolicy) *QueryAnalyzer {
	if len(policies) == 0 {
		policies = DefaultWeightPolicies
	}
	return &QueryAnalyzer{policies: policies}
}

func (a *QueryAnalyzer) Analyze(query string) domain.QueryAnalysis {
	trimmed := strings.TrimSpace(query)
	shape := ClassifyQuery(trimmed)
	policy, ok := a.policies[shape]
	if !ok {
		policy = DefaultWeightPolicies[shape]
	}

	return domain.QueryAnalysis{
		Query:          trimmed,
		IsShort:        shape == ShapeShort,
		Length:         utf8.RuneCountInString(trimmed),
		SemanticWeight: clampWeight(policy.SemanticWeight),
		KeywordWeight:  clampWeight(policy.KeywordWeight),
		Strategy:       policy.Strategy,
		SemanticDepth:  policy.SemanticDepth,
		KeywordDepth:   policy.KeywordDepth,
	}
}

// ClassifyQuery reports ShapeShort for non-empty queries of at most
// ShortQueryMaxLength runes made only of letters and digits.
func ClassifyQuery(query string) QueryShape {
	trimmed := strings.TrimSpace(query)
	if trimmed == "" || utf8.RuneCountInString(trimmed) > ShortQueryMaxLength {
		return ShapeLong
	}
	for _, r := range trimmed {
		if !unicode.IsLetter(r) && !unicode.IsDigit(r) {
			return ShapeLong
		}
	}
	return ShapeShort
}

func clampWeight(w float64) float64 {
	switch {
	case w < 0:
		return 0
	case w > 1:
		return 1
	default:
		return w
	}
}
