// Package flat implements an exact inner-product index over L2-normalized
// vectors.
package flat

import (
	"bytes"
	"encoding/gob"
	"errors"
	"fmt"
	"math"
	"sort"

	"github.com/kirillkom/hybrid-search/internal/core/domain"
	"github.com/kirillkom/hybrid-search/internal/core/ports"
)

const stateVersion = 1

type Builder struct{}

var _ ports.DenseIndexBuilder = Builder{}

func NewBuilder() Builder {
	return Builder{}
}

// Index stores vectors row-major in one contiguous slice.
type Index struct {
	dim  int
	data []float32
}

func (Builder) Build(vectors [][]float32) (ports.DenseIndex, error) {
	if len(vectors) == 0 {
		return nil, errors.New("build flat index: no vectors")
	}
	dim := len(vectors[0])
	if dim == 0 {
		return nil, errors.New("build flat index: zero dimension")
	}
	data := make([]float32, 0, dim*len(vectors))
	for i, v := range vectors {
		if len(v) != dim {
			return nil, fmt.Errorf("build flat index: vector %d has dimension %d, want %d", i, len(v), dim)
		}
		data = append(data, Normalize(v)...)
	}
	return &Index{dim: dim, data: data}, nil
}

// Normalize returns a unit-length copy of v. A zero vector stays zero.
func Normalize(v []float32) []float32 {
	out := make([]float32, len(v))
	var norm float64
	for _, x := range v {
		norm += float64(x) * float64(x)
	}
	if norm == 0 {
		return out
	}
	norm = math.Sqrt(norm)
	for i, x := range v {
		out[i] = float32(float64(x) / norm)
	}
	return out
}

func (idx *Index) Len() int {
	return len(idx.data) / idx.dim
}

func (idx *Index) Dim() int {
	return idx.dim
}

// Search normalizes the query and returns the topK rows by inner product.
// Ties keep ascending doc order.
func (idx *Index) Search(vector []float32, topK int) ([]domain.Candidate, error) {
	if len(vector) != idx.dim {
		return nil, fmt.Errorf("query dimension %d, index dimension %d", len(vector), idx.dim)
	}
	if topK <= 0 {
		return nil, nil
	}
	q := Normalize(vector)
	n := idx.Len()
	out := make([]domain.Candidate, n)
	for doc := 0; doc < n; doc++ {
		row := idx.data[doc*idx.dim : (doc+1)*idx.dim]
		var dot float64
		for i, x := range row {
			dot += float64(x) * float64(q[i])
		}
		out[doc] = domain.Candidate{DocID: doc, Score: dot, Source: domain.SourceSemantic}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Score > out[j].Score })
	if len(out) > topK {
		out = out[:topK]
	}
	return out, nil
}

type state struct {
	Version int
	Dim     int
	Data    []float32
}

func (idx *Index) MarshalBinary() ([]byte, error) {
	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(state{Version: stateVersion, Dim: idx.dim, Data: idx.data}); err != nil {
		return nil, fmt.Errorf("encode flat index: %w", err)
	}
	return buf.Bytes(), nil
}

func (Builder) Restore(data []byte) (ports.DenseIndex, error) {
	var st state
	if err := gob.NewDecoder(bytes.NewReader(data)).Decode(&st); err != nil {
		return nil, domain.WrapError(domain.ErrIndexCorrupt, "decode flat index", err)
	}
	if st.Version != stateVersion || st.Dim <= 0 || len(st.Data) == 0 || len(st.Data)%st.Dim != 0 {
		return nil, domain.WrapError(domain.ErrIndexCorrupt, "decode flat index",
			fmt.Errorf("version=%d dim=%d values=%d", st.Version, st.Dim, len(st.Data)))
	}
	return &Index{dim: st.Dim, data: st.Data}, nil
}
