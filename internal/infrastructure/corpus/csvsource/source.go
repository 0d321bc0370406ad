// Package csvsource reads the corpus from a CSV file with a header row.
package csvsource

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/kirillkom/hybrid-search/internal/core/domain"
	"github.com/kirillkom/hybrid-search/internal/core/ports"
	"github.com/kirillkom/hybrid-search/internal/infrastructure/corpus"
)

type Source struct {
	path string
}

var _ ports.CorpusSource = (*Source)(nil)

func New(path string) *Source {
	return &Source{path: path}
}

func (s *Source) Rows(ctx context.Context) ([]domain.Document, error) {
	f, err := os.Open(s.path)
	if err != nil {
		return nil, domain.WrapError(domain.ErrCorpus, "open csv", err)
	}
	defer f.Close()
	return Read(ctx, f)
}

// Read parses CSV from r. Every cell is read as text.
func Read(ctx context.Context, r io.Reader) ([]domain.Document, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true

	header, err := reader.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, domain.WrapError(domain.ErrCorpus, "read csv", errors.New("empty file"))
		}
		return nil, domain.WrapError(domain.ErrCorpus, "read csv header", err)
	}
	cols, err := corpus.ResolveColumns(header)
	if err != nil {
		return nil, err
	}

	var docs []domain.Document
	for line := 2; ; line++ {
		if line%1000 == 0 {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
		}
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, domain.WrapError(domain.ErrCorpus, "read csv", fmt.Errorf("line %d: %w", line, err))
		}
		docs = append(docs, cols.Document(record))
	}
	return docs, nil
}
