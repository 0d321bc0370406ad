package usecase

import (
	"strings"
	"unicode/utf8"

	"github.com/kirillkom/hybrid-search/internal/core/domain"
	"github.com/kirillkom/hybrid-search/internal/core/ports"
)

type DedupKey string

const (
	DedupTitle     DedupKey = "title"
	DedupTitleDate DedupKey = "title_date"
)

const (
	SummaryMaxRunes = 300
	summaryEllipsis = "..."
)

func ParseDedupKey(s string) (DedupKey, bool) {
	switch DedupKey(strings.ToLower(strings.TrimSpace(s))) {
	case DedupTitle:
		return DedupTitle, true
	case DedupTitleDate:
		return DedupTitleDate, true
	default:
		return "", false
	}
}

type ResultAssembler struct {
	cleaner ports.TextCleaner
	dedup   DedupKey
}

func NewResultAssembler(cleaner ports.TextCleaner, dedup DedupKey) *ResultAssembler {
	if dedup == "" {
		dedup = DedupTitle
	}
	return &ResultAssembler{cleaner: cleaner, dedup: dedup}
}

// Assemble walks sorted in order and emits at most topK results with
// distinct de-duplication keys. Documents hidden by view are skipped.
func (a *ResultAssembler) Assemble(sorted []domain.ScoredDocument, topK int, view CorpusView) []domain.RankedResult {
	if topK <= 0 || len(sorted) == 0 {
		return []domain.RankedResult{}
	}

	seen := make(map[string]struct{}, topK)
	out := make([]domain.RankedResult, 0, min(topK, len(sorted)))
	for _, scored := range sorted {
		if len(out) >= topK {
			break
		}
		doc, ok := view.Doc(scored.DocID)
		if !ok {
			continue
		}
		key := a.dedupKey(doc)
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}

		out = append(out, domain.RankedResult{
			Rank:    len(out) + 1,
			Title:   doc.DisplayTitle(),
			Date:    doc.DisplayDate(),
			Source:  doc.DisplaySource(),
			Summary: a.Summarize(doc.Description),
			Score:   scored.Score,
		})
	}
	return out
}

func (a *ResultAssembler) dedupKey(doc domain.Document) string {
	if a.dedup == DedupTitleDate {
		return doc.DisplayTitle() + "\x00" + doc.DisplayDate()
	}
	return doc.DisplayTitle()
}

// Summarize strips markup, flattens newlines and truncates to
// SummaryMaxRunes, adding the ellipsis only when content was cut.
func (a *ResultAssembler) Summarize(description string) string {
	text := strings.TrimSpace(a.cleaner.StripMarkup(description))
	text = strings.NewReplacer("\r\n", " ", "\n", " ", "\r", " ").Replace(text)
	if utf8.RuneCountInString(text) <= SummaryMaxRunes {
		return text
	}
	runes := []rune(text)
	return string(runes[:SummaryMaxRunes]) + summaryEllipsis
}

// Diagnose counts case-insensitive substring hits for the query in titles and
// descriptions visible through view.
func (a *ResultAssembler) Diagnose(query string, view CorpusView) domain.NoResultsDiagnostics {
	var diag domain.NoResultsDiagnostics
	needle := strings.ToLower(strings.TrimSpace(query))
	if needle == "" {
		return diag
	}
	view.Each(func(doc domain.Document) {
		if strings.Contains(strings.ToLower(doc.Title), needle) {
			diag.TitleMatches++
		}
		if strings.Contains(strings.ToLower(doc.Description), needle) {
			diag.DescriptionMatches++
		}
	})
	return diag
}
