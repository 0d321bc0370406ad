package domain

import "strings"

// MissingField is rendered in place of optional corpus fields that are empty.
const MissingField = "N/A"

// Document is one corpus row. ID is the row position inside the loaded corpus
// and is the identifier every index refers to.
type Document struct {
	ID          int    `json:"id"`
	Title       string `json:"title"`
	Date        string `json:"date,omitempty"`
	Source      string `json:"source,omitempty"`
	Description string `json:"description"`
	Symbol      string `json:"symbol,omitempty"`
}

func (d Document) DisplayTitle() string {
	return strings.TrimSpace(d.Title)
}

func (d Document) DisplayDate() string {
	return orMissing(d.Date)
}

func (d Document) DisplaySource() string {
	return orMissing(d.Source)
}

func orMissing(v string) string {
	v = strings.TrimSpace(v)
	if v == "" {
		return MissingField
	}
	return v
}
