package flat

import (
	"math"
	"testing"

	"github.com/kirillkom/hybrid-search/internal/core/domain"
)

func TestBuildNormalizesRows(t *testing.T) {
	idx, err := NewBuilder().Build([][]float32{{3, 4}, {0, 2}})
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	got, err := idx.Search([]float32{3, 4}, 1)
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	if got[0].DocID != 0 || math.Abs(got[0].Score-1) > 1e-6 {
		t.Fatalf("expected cosine 1 for identical direction, got %+v", got)
	}
	if idx.Dim() != 2 || idx.Len() != 2 {
		t.Fatalf("unexpected shape %dx%d", idx.Len(), idx.Dim())
	}
}

func TestSearchOrdersByInnerProduct(t *testing.T) {
	idx, err := NewBuilder().Build([][]float32{{1, 0}, {0, 1}, {1, 1}, {0, 1}})
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	got, err := idx.Search([]float32{0, 5}, 3)
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	if len(got) != 3 || got[0].DocID != 1 || got[1].DocID != 3 || got[2].DocID != 2 {
		t.Fatalf("unexpected order %+v", got)
	}
	if got[0].Source != domain.SourceSemantic {
		t.Fatalf("unexpected source %q", got[0].Source)
	}
}

func TestBuildRejectsMixedDimensions(t *testing.T) {
	if _, err := NewBuilder().Build([][]float32{{1, 0}, {1}}); err == nil {
		t.Fatalf("expected dimension error")
	}
}

func TestSearchRejectsWrongDimension(t *testing.T) {
	idx, _ := NewBuilder().Build([][]float32{{1, 0}})
	if _, err := idx.Search([]float32{1, 0, 0}, 1); err == nil {
		t.Fatalf("expected dimension error")
	}
}

func TestRestoreRoundTrip(t *testing.T) {
	idx, _ := NewBuilder().Build([][]float32{{1, 2, 3}, {3, 2, 1}})
	data, err := idx.MarshalBinary()
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	restored, err := NewBuilder().Restore(data)
	if err != nil {
		t.Fatalf("restore: %v", err)
	}
	want, _ := idx.Search([]float32{1, 0, 0}, 2)
	got, _ := restored.Search([]float32{1, 0, 0}, 2)
	if len(got) != 2 || got[0] != want[0] || got[1] != want[1] {
		t.Fatalf("restored %+v, want %+v", got, want)
	}
}

func TestRestoreRejectsCorruptData(t *testing.T) {
	_, err := NewBuilder().Restore([]byte{0xff, 0x00})
	if !domain.IsKind(err, domain.ErrIndexCorrupt) {
		t.Fatalf("expected ErrIndexCorrupt, got %v", err)
	}
}
