package xlsxsource

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/xuri/excelize/v2"

	"github.com/kirillkom/hybrid-search/internal/core/domain"
)

func writeWorkbook(t *testing.T, rows [][]any) string {
	t.Helper()
	f := excelize.NewFile()
	defer func() { _ = f.Close() }()
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			t.Fatalf("cell name: %v", err)
		}
		if err := f.SetSheetRow("Sheet1", cell, &row); err != nil {
			t.Fatalf("set row: %v", err)
		}
	}
	path := filepath.Join(t.TempDir(), "news.xlsx")
	if err := f.SaveAs(path); err != nil {
		t.Fatalf("save workbook: %v", err)
	}
	return path
}

func TestRowsReadsFirstSheet(t *testing.T) {
	path := writeWorkbook(t, [][]any{
		{"TITLE", "DESCRIPTION", "SYMBOL"},
		{"Apple Reports Earnings", "Strong quarter", "AAPL"},
		{"Banana Market Update", "Prices fell"},
	})

	docs, err := New(path, "").Rows(context.Background())
	if err != nil {
		t.Fatalf("rows: %v", err)
	}
	if len(docs) != 2 {
		t.Fatalf("expected 2 docs, got %d", len(docs))
	}
	if docs[0].Symbol != "AAPL" || docs[1].Symbol != "" {
		t.Fatalf("unexpected symbols %q %q", docs[0].Symbol, docs[1].Symbol)
	}
}

func TestRowsUnknownSheet(t *testing.T) {
	path := writeWorkbook(t, [][]any{{"TITLE", "DESCRIPTION"}})

	_, err := New(path, "Missing").Rows(context.Background())
	if !domain.IsKind(err, domain.ErrCorpus) {
		t.Fatalf("expected ErrCorpus, got %v", err)
	}
}

func TestRowsMissingFile(t *testing.T) {
	_, err := New(filepath.Join(t.TempDir(), "none.xlsx"), "").Rows(context.Background())
	if !domain.IsKind(err, domain.ErrCorpus) {
		t.Fatalf("expected ErrCorpus, got %v", err)
	}
}
