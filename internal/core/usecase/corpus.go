package usecase

import (
	"fmt"
	"strings"
	"time"

	"github.com/kirillkom/hybrid-search/internal/core/domain"
)

var documentDateLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02",
	"2006/01/02",
	"01/02/2006",
}

// Corpus is the immutable loaded collection. It is shared by every request
// and never mutated after construction.
type Corpus struct {
	docs    []domain.Document
	dates   []time.Time
	symbols map[string]struct{}
}

func NewCorpus(docs []domain.Document) *Corpus {
	c := &Corpus{
		docs:    make([]domain.Document, len(docs)),
		dates:   make([]time.Time, len(docs)),
		symbols: make(map[string]struct{}),
	}
	for i, doc := range docs {
		doc.ID = i
		c.docs[i] = doc
		c.dates[i] = parseDocumentDate(doc.Date)
		if sym := normalizeSymbol(doc.Symbol); sym != "" {
			c.symbols[sym] = struct{}{}
		}
	}
	return c
}

func (c *Corpus) Len() int {
	if c == nil {
		return 0
	}
	return len(c.docs)
}

func (c *Corpus) Documents() []domain.Document {
	return c.docs
}

func (c *Corpus) HasSymbol(symbol string) bool {
	_, ok := c.symbols[normalizeSymbol(symbol)]
	return ok
}

// View returns a per-request view restricted by filter.
func (c *Corpus) View(filter domain.SearchFilter) CorpusView {
	return CorpusView{corpus: c, filter: filter}
}

// CorpusView is a private, read-only, filtered window over a Corpus.
type CorpusView struct {
	corpus *Corpus
	filter domain.SearchFilter
}

func (v CorpusView) Doc(id int) (domain.Document, bool) {
	if v.corpus == nil || id < 0 || id >= len(v.corpus.docs) {
		return domain.Document{}, false
	}
	if !v.allowed(id) {
		return domain.Document{}, false
	}
	return v.corpus.docs[id], true
}

// Filtered reports whether the view hides any part of the corpus.
func (v CorpusView) Filtered() bool {
	return !v.filter.IsZero()
}

// Each calls fn for every document visible through the view.
func (v CorpusView) Each(fn func(domain.Document)) {
	if v.corpus == nil {
		return
	}
	for id, doc := range v.corpus.docs {
		if v.allowed(id) {
			fn(doc)
		}
	}
}

func (v CorpusView) allowed(id int) bool {
	f := v.filter
	if f.IsZero() {
		return true
	}
	doc := v.corpus.docs[id]
	if f.Symbol != "" && normalizeSymbol(doc.Symbol) != normalizeSymbol(f.Symbol) {
		return false
	}
	if f.DateFrom == nil && f.DateTo == nil {
		return true
	}
	date := v.corpus.dates[id]
	if date.IsZero() {
		return false
	}
	if f.DateFrom != nil && date.Before(*f.DateFrom) {
		return false
	}
	if f.DateTo != nil && !date.Before(f.DateTo.AddDate(0, 0, 1)) {
		return false
	}
	return true
}

// ParseFilter builds a SearchFilter from boundary input. Dates use the
// YYYY-MM-DD form; empty values leave that bound open.
func ParseFilter(dateFrom, dateTo, symbol string) (domain.SearchFilter, error) {
	filter := domain.SearchFilter{Symbol: strings.TrimSpace(symbol)}
	parse := func(name, raw string) (*time.Time, error) {
		raw = strings.TrimSpace(raw)
		if raw == "" {
			return nil, nil
		}
		t, err := time.Parse("2006-01-02", raw)
		if err != nil {
			return nil, domain.WrapError(domain.ErrInvalidInput, "parse filter", fmt.Errorf("%s must be YYYY-MM-DD", name))
		}
		return &t, nil
	}
	var err error
	if filter.DateFrom, err = parse("date_from", dateFrom); err != nil {
		return domain.SearchFilter{}, err
	}
	if filter.DateTo, err = parse("date_to", dateTo); err != nil {
		return domain.SearchFilter{}, err
	}
	if filter.DateFrom != nil && filter.DateTo != nil && filter.DateFrom.After(*filter.DateTo) {
		return domain.SearchFilter{}, domain.WrapError(domain.ErrInvalidInput, "parse filter", fmt.Errorf("date_from is after date_to"))
	}
	return filter, nil
}

func parseDocumentDate(raw string) time.Time {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return time.Time{}
	}
	for _, layout := range documentDateLayouts {
		if t, err := time.Parse(layout, raw); err == nil {
			return t
		}
	}
	return time.Time{}
}

func normalizeSymbol(s string) string {
	return strings.ToUpper(strings.TrimSpace(s))
}
