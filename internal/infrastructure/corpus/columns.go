// Package corpus maps tabular rows from any source onto documents.
package corpus

import (
	"fmt"
	"strings"

	"github.com/kirillkom/hybrid-search/internal/core/domain"
)

const (
	ColumnTitle       = "TITLE"
	ColumnDescription = "DESCRIPTION"
	ColumnDate        = "MOD_DATE"
	ColumnSource      = "SOURCE_NAME"
	ColumnSymbol      = "SYMBOL"
)

// Columns records where each known column sits in a header row.
type Columns struct {
	title, description   int
	date, source, symbol int
}

// ResolveColumns locates the known columns in header. Header names are
// matched after trimming and upper-casing. TITLE and DESCRIPTION are
// required.
func ResolveColumns(header []string) (Columns, error) {
	index := make(map[string]int, len(header))
	for i, name := range header {
		name = strings.ToUpper(strings.TrimSpace(strings.TrimPrefix(name, "\ufeff")))
		if _, dup := index[name]; !dup {
			index[name] = i
		}
	}
	lookup := func(name string) int {
		if i, ok := index[name]; ok {
			return i
		}
		return -1
	}

	cols := Columns{
		title:       lookup(ColumnTitle),
		description: lookup(ColumnDescription),
		date:        lookup(ColumnDate),
		source:      lookup(ColumnSource),
		symbol:      lookup(ColumnSymbol),
	}
	var missing []string
	if cols.title < 0 {
		missing = append(missing, ColumnTitle)
	}
	if cols.description < 0 {
		missing = append(missing, ColumnDescription)
	}
	if len(missing) > 0 {
		return Columns{}, domain.WrapError(domain.ErrCorpus, "resolve columns",
			fmt.Errorf("missing columns %v, available %v", missing, header))
	}
	return cols, nil
}

// Document builds a document from one data row. Short rows yield empty
// fields.
func (c Columns) Document(row []string) domain.Document {
	cell := func(i int) string {
		if i < 0 || i >= len(row) {
			return ""
		}
		return row[i]
	}
	return domain.Document{
		Title:       cell(c.title),
		Description: cell(c.description),
		Date:        cell(c.date),
		Source:      cell(c.source),
		Symbol:      cell(c.symbol),
	}
}

// Documents maps a header row plus data rows.
func Documents(header []string, rows [][]string) ([]domain.Document, error) {
	cols, err := ResolveColumns(header)
	if err != nil {
		return nil, err
	}
	docs := make([]domain.Document, 0, len(rows))
	for _, row := range rows {
		docs = append(docs, cols.Document(row))
	}
	return docs, nil
}
