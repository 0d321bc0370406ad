package usecase

import (
	"strings"

	"github.com/kirillkom/hybrid-search/internal/core/domain"
	"github.com/kirillkom/hybrid-search/internal/core/ports"
)

// ProcessDocuments builds the searchable text of every document, aligned by
// position. The title is repeated so short queries hit titles harder.
func ProcessDocuments(cleaner ports.TextCleaner, docs []domain.Document) []string {
	out := make([]string, len(docs))
	for i, doc := range docs {
		title := strings.TrimSpace(cleaner.StripMarkup(doc.Title))
		description := strings.TrimSpace(cleaner.StripMarkup(doc.Description))
		out[i] = normalizeWhitespace(title + " " + title + " " + description)
	}
	return out
}

func normalizeWhitespace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
