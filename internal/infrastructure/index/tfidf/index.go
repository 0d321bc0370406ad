// Package tfidf implements a fitted TF-IDF term index with cosine scoring.
package tfidf

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

// ErrEmptyVocabulary is returned when pruning leaves no terms.
var ErrEmptyVocabulary = errors.New("after pruning, no terms remain")

type Config struct {
	NGramMin    int
	NGramMax    int
	MinDF       int
	MaxDF       float64
	MaxFeatures int
}

func DefaultConfig() Config {
	return Config{NGramMin: 1, NGramMax: 2, MinDF: 2, MaxDF: 0.95, MaxFeatures: 10000}
}

// Builder fits and restores Index values.
type Builder struct {
	cfg Config
}

var _ ports.SparseIndexBuilder = (*Builder)(nil)

func NewBuilder(cfg Config) *Builder {
	def := DefaultConfig()
	if cfg.NGramMin <= 0 {
		cfg.NGramMin = def.NGramMin
	}
	if cfg.NGramMax < cfg.NGramMin {
		cfg.NGramMax = cfg.NGramMin
	}
	if cfg.MinDF <= 0 {
		cfg.MinDF = 1
	}
	if cfg.MaxDF <= 0 || cfg.MaxDF > 1 {
		cfg.MaxDF = 1
	}
	return &Builder{cfg: cfg}
}

type posting struct {
	doc    int32
	weight float32
}

// Index holds the full fitted state: vocabulary, IDF weights and the
// L2-normalized document rows. Rows are kept in CSR form for persistence
// and as postings per term for querying.
type Index struct {
	cfg      Config
	vocab    map[string]int
	terms    []string
	idf      []float64
	rowPtr   []int
	cols     []int32
	vals     []float32
	postings [][]posting
}

func (b *Builder) Build(texts []string) (ports.SparseIndex, error) {
	if len(texts) == 0 {
		return nil, fmt.Errorf("fit tfidf: %w", ErrEmptyVocabulary)
	}

	docTerms := make([]map[string]int, len(texts))
	df := make(map[string]int)
	total := make(map[string]int)
	for i, text := range texts {
		counts := make(map[string]int)
		for _, g := range ngrams(tokenize(text), b.cfg.NGramMin, b.cfg.NGramMax) {
			counts[g]++
		}
		for term, c := range counts {
			df[term]++
			total[term] += c
		}
		docTerms[i] = counts
	}

	maxDocCount := b.cfg.MaxDF * float64(len(texts))
	kept := make([]string, 0, len(df))
	for term, n := range df {
		if n < b.cfg.MinDF || float64(n) > maxDocCount {
			continue
		}
		kept = append(kept, term)
	}
	if b.cfg.MaxFeatures > 0 && len(kept) > b.cfg.MaxFeatures {
		sort.Slice(kept, func(i, j int) bool {
			if total[kept[i]] != total[kept[j]] {
				return total[kept[i]] > total[kept[j]]
			}
			return kept[i] < kept[j]
		})
		kept = kept[:b.cfg.MaxFeatures]
	}
	if len(kept) == 0 {
		return nil, fmt.Errorf("fit tfidf: %w", ErrEmptyVocabulary)
	}
	sort.Strings(kept)

	idx := &Index{
		cfg:   b.cfg,
		vocab: make(map[string]int, len(kept)),
		terms: kept,
		idf:   make([]float64, len(kept)),
	}
	n := float64(len(texts))
	for col, term := range kept {
		idx.vocab[term] = col
		idx.idf[col] = math.Log((1+n)/(1+float64(df[term]))) + 1
	}

	idx.rowPtr = make([]int, 0, len(texts)+1)
	idx.rowPtr = append(idx.rowPtr, 0)
	for _, counts := range docTerms {
		cols, vals := idx.weigh(counts)
		idx.cols = append(idx.cols, cols...)
		idx.vals = append(idx.vals, vals...)
		idx.rowPtr = append(idx.rowPtr, len(idx.cols))
	}
	idx.buildPostings()
	return idx, nil
}

// weigh turns raw term counts into a sorted, L2-normalized sparse row over
// the fitted vocabulary. Out-of-vocabulary terms are ignored.
func (idx *Index) weigh(counts map[string]int) ([]int32, []float32) {
	cols := make([]int32, 0, len(counts))
	for term := range counts {
		if col, ok := idx.vocab[term]; ok {
			cols = append(cols, int32(col))
		}
	}
	sort.Slice(cols, func(i, j int) bool { return cols[i] < cols[j] })

	weights := make([]float64, len(cols))
	var norm float64
	for i, col := range cols {
		w := float64(counts[idx.terms[col]]) * idx.idf[col]
		weights[i] = w
		norm += w * w
	}
	vals := make([]float32, len(cols))
	if norm == 0 {
		return cols, vals
	}
	norm = math.Sqrt(norm)
	for i, w := range weights {
		vals[i] = float32(w / norm)
	}
	return cols, vals
}

func (idx *Index) buildPostings() {
	idx.postings = make([][]posting, len(idx.terms))
	for doc := 0; doc+1 < len(idx.rowPtr); doc++ {
		for k := idx.rowPtr[doc]; k < idx.rowPtr[doc+1]; k++ {
			col := idx.cols[k]
			idx.postings[col] = append(idx.postings[col], posting{doc: int32(doc), weight: idx.vals[k]})
		}
	}
}

func (idx *Index) Len() int {
	return len(idx.rowPtr) - 1
}

// VocabularySize reports the number of fitted terms.
func (idx *Index) VocabularySize() int {
	return len(idx.terms)
}

// Search scores every document by cosine similarity with the query and
// returns the best topK with a positive score. Ties keep ascending doc order.
func (idx *Index) Search(query string, topK int) ([]domain.Candidate, error) {
	if topK <= 0 {
		return nil, nil
	}
	counts := make(map[string]int)
	for _, g := range ngrams(tokenize(query), idx.cfg.NGramMin, idx.cfg.NGramMax) {
		counts[g]++
	}
	cols, vals := idx.weigh(counts)
	if len(cols) == 0 {
		return []domain.Candidate{}, nil
	}

	scores := make(map[int32]float64)
	for i, col := range cols {
		qw := float64(vals[i])
		for _, p := range idx.postings[col] {
			scores[p.doc] += qw * float64(p.weight)
		}
	}

	out := make([]domain.Candidate, 0, len(scores))
	for doc, score := range scores {
		if score <= 0 {
			continue
		}
		out = append(out, domain.Candidate{DocID: int(doc), Score: score, Source: domain.SourceKeyword})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Score != out[j].Score {
			return out[i].Score > out[j].Score
		}
		return out[i].DocID < out[j].DocID
	})
	if len(out) > topK {
		out = out[:topK]
	}
	return out, nil
}

type state struct {
	Version int
	Config  Config
	Terms   []string
	IDF     []float64
	RowPtr  []int
	Cols    []int32
	Vals    []float32
}

func (idx *Index) MarshalBinary() ([]byte, error) {
	var buf bytes.Buffer
	err := gob.NewEncoder(&buf).Encode(state{
		Version: stateVersion,
		Config:  idx.cfg,
		Terms:   idx.terms,
		IDF:     idx.idf,
		RowPtr:  idx.rowPtr,
		Cols:    idx.cols,
		Vals:    idx.vals,
	})
	if err != nil {
		return nil, fmt.Errorf("encode tfidf state: %w", err)
	}
	return buf.Bytes(), nil
}

// Restore rebuilds an Index from MarshalBinary output. The fitted state is
// taken as-is; nothing is re-derived from the vocabulary.
func (b *Builder) Restore(data []byte) (ports.SparseIndex, error) {
	var st state
	if err := gob.NewDecoder(bytes.NewReader(data)).Decode(&st); err != nil {
		return nil, domain.WrapError(domain.ErrIndexCorrupt, "decode tfidf state", err)
	}
	if err := st.validate(); err != nil {
		return nil, domain.WrapError(domain.ErrIndexCorrupt, "decode tfidf state", err)
	}
	idx := &Index{
		cfg:    st.Config,
		vocab:  make(map[string]int, len(st.Terms)),
		terms:  st.Terms,
		idf:    st.IDF,
		rowPtr: st.RowPtr,
		cols:   st.Cols,
		vals:   st.Vals,
	}
	for col, term := range st.Terms {
		idx.vocab[term] = col
	}
	idx.buildPostings()
	return idx, nil
}

func (st state) validate() error {
	switch {
	case st.Version != stateVersion:
		return fmt.Errorf("state version %d, want %d", st.Version, stateVersion)
	case len(st.Terms) == 0:
		return ErrEmptyVocabulary
	case len(st.IDF) != len(st.Terms):
		return fmt.Errorf("idf length %d does not match %d terms", len(st.IDF), len(st.Terms))
	case len(st.RowPtr) < 1 || st.RowPtr[0] != 0:
		return errors.New("malformed row pointers")
	case len(st.Cols) != len(st.Vals) || st.RowPtr[len(st.RowPtr)-1] != len(st.Cols):
		return errors.New("row data length mismatch")
	}
	for i := 1; i < len(st.RowPtr); i++ {
		if st.RowPtr[i] < st.RowPtr[i-1] {
			return errors.New("row pointers not monotonic")
		}
	}
	for _, col := range st.Cols {
		if col < 0 || int(col) >= len(st.Terms) {
			return fmt.Errorf("column %d out of range", col)
		}
	}
	return nil
}
