package cli

import (
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"

	"github.com/kirillkom/hybrid-search/internal/core/domain"
)

const ruleWidth = 60

type printer struct {
	w io.Writer

	heading func(a ...any) string
	label   func(a ...any) string
	score   func(a ...any) string
	good    func(a ...any) string
	bad     func(a ...any) string
	muted   func(a ...any) string
}

func newPrinter(w io.Writer) *printer {
	return &printer{
		w:       w,
		heading: color.New(color.FgCyan, color.Bold).SprintFunc(),
		label:   color.New(color.FgWhite, color.Bold).SprintFunc(),
		score:   color.New(color.FgYellow).SprintFunc(),
		good:    color.New(color.FgGreen, color.Bold).SprintFunc(),
		bad:     color.New(color.FgRed, color.Bold).SprintFunc(),
		muted:   color.New(color.Faint).SprintFunc(),
	}
}

func (p *printer) printf(format string, a ...any) {
	_, _ = fmt.Fprintf(p.w, format, a...)
}

func (p *printer) outcome(o *domain.SearchOutcome) {
	if o.NoResults || len(o.Results) == 0 {
		p.noResults(o)
		return
	}
	p.printf("\n%s %q\n", p.heading("Search results for:"), o.Query)
	p.printf("%s %s\n", p.label("Strategy:"), o.Strategy)
	p.printf("%s\n", strings.Repeat("=", ruleWidth))
	for _, r := range o.Results {
		p.printf("%s %s\n", p.heading(fmt.Sprintf("Result #%d", r.Rank)), p.score(fmt.Sprintf("(Score: %.4f)", r.Score)))
		p.printf("   %s %s\n", p.label("Title   :"), r.Title)
		p.printf("   %s %s | Source: %s\n", p.label("Date    :"), r.Date, r.Source)
		p.printf("   %s %s\n", p.label("Summary :"), r.Summary)
		p.printf("%s\n", p.muted(strings.Repeat("-", ruleWidth)))
	}
}

func (p *printer) noResults(o *domain.SearchOutcome) {
	p.printf("%s\n", p.bad("No results found"))
	d := o.Diagnostics
	if d == nil || (d.TitleMatches == 0 && d.DescriptionMatches == 0) {
		return
	}
	p.printf("\nFound %d direct matches in TITLE, %d in DESCRIPTION\n", d.TitleMatches, d.DescriptionMatches)
	p.printf("%s\n", p.muted("Ranking returned nothing although the text appears verbatim; check index status."))
}

func (p *printer) capabilities(h domain.HealthStatus) {
	caps := h.Capabilities
	p.printf("\n%s\n", p.heading("Search System Status:"))
	p.printf("   Documents:       %d\n", h.DocumentsLoaded)
	p.printf("   Semantic Search: %s\n", p.mark(caps.SemanticAvailable))
	p.printf("   Keyword Search:  %s\n", p.mark(caps.KeywordAvailable))
	p.printf("   Mode: %s\n", modeTitle(caps.Mode))
	switch caps.Mode {
	case domain.ModeHybrid:
		p.printf("%s\n", p.good("Hybrid search enabled: works for both short and long queries"))
	case domain.ModeKeywordOnly:
		p.printf("%s\n", p.good("Keyword-only search: still effective for exact matches like 'COMI'"))
	default:
		p.printf("%s\n", p.bad("Limited search capabilities"))
	}
	if h.Status != "healthy" && h.Message != "" {
		p.printf("%s\n", p.bad(h.Message))
	}
}

func (p *printer) mark(ok bool) string {
	if ok {
		return p.good("yes")
	}
	return p.bad("no")
}

func modeTitle(mode domain.SearchMode) string {
	words := strings.Split(string(mode), "_")
	for i, w := range words {
		if w != "" {
			words[i] = strings.ToUpper(w[:1]) + w[1:]
		}
	}
	return strings.Join(words, " ")
}

func (p *printer) banner() {
	p.printf("\n%s\n", strings.Repeat("=", ruleWidth))
	p.printf("%s\n", p.heading("Interactive Search Ready!"))
	p.printf("Commands:\n")
	p.printf("  - Enter any search query\n")
	p.printf("  - Type 'quit', 'exit' or 'q' to stop\n")
	p.printf("%s\n", strings.Repeat("=", ruleWidth))
}

func (p *printer) prompt() {
	p.printf("\n%s ", p.good("Search:"))
}

func (p *printer) notice(msg string) {
	p.printf("%s\n", msg)
}

func (p *printer) failure(err error) {
	p.printf("%s %v\n", p.bad("Error:"), err)
}

func (p *printer) goodbye() {
	p.printf("\nGoodbye!\n")
}
