// Package xlsxsource reads the corpus from one worksheet of an Excel
// workbook. The first row is the header.
package xlsxsource

import (
	"context"
	"errors"
	"fmt"

	"github.com/xuri/excelize/v2"

	"github.com/kirillkom/hybrid-search/internal/core/domain"
	"github.com/kirillkom/hybrid-search/internal/core/ports"
	"github.com/kirillkom/hybrid-search/internal/infrastructure/corpus"
)

type Source struct {
	path  string
	sheet string
}

var _ ports.CorpusSource = (*Source)(nil)

// New reads sheet from the workbook at path; an empty sheet selects the
// first worksheet.
func New(path, sheet string) *Source {
	return &Source{path: path, sheet: sheet}
}

func (s *Source) Rows(ctx context.Context) ([]domain.Document, error) {
	f, err := excelize.OpenFile(s.path)
	if err != nil {
		return nil, domain.WrapError(domain.ErrCorpus, "open workbook", err)
	}
	defer func() { _ = f.Close() }()

	sheet := s.sheet
	if sheet == "" {
		sheets := f.GetSheetList()
		if len(sheets) == 0 {
			return nil, domain.WrapError(domain.ErrCorpus, "open workbook", errors.New("workbook has no sheets"))
		}
		sheet = sheets[0]
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	rows, err := f.GetRows(sheet)
	if err != nil {
		return nil, domain.WrapError(domain.ErrCorpus, "read sheet", fmt.Errorf("%s: %w", sheet, err))
	}
	if len(rows) == 0 {
		return nil, domain.WrapError(domain.ErrCorpus, "read sheet", fmt.Errorf("%s is empty", sheet))
	}
	return corpus.Documents(rows[0], rows[1:])
}
