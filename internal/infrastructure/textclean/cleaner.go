// Package textclean strips HTML markup from corpus text.
package textclean

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"
)

type HTMLCleaner struct{}

func New() HTMLCleaner {
	return HTMLCleaner{}
}

// StripMarkup returns the text nodes of an HTML fragment joined by single
// spaces, with entities decoded. Input that cannot be parsed is returned
// unchanged.
func (HTMLCleaner) StripMarkup(text string) string {
	if !strings.ContainsAny(text, "<&") {
		return text
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(text))
	if err != nil {
		return text
	}
	parts := make([]string, 0, 8)
	for _, node := range doc.Nodes {
		collectText(node, &parts)
	}
	return strings.Join(parts, " ")
}

func collectText(n *html.Node, parts *[]string) {
	if n.Type == html.TextNode {
		*parts = append(*parts, strings.Fields(n.Data)...)
		return
	}
	if n.Type == html.ElementNode && (n.Data == "script" || n.Data == "style") {
		return
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		collectText(c, parts)
	}
}
