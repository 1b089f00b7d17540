package memory

import (
	"context"
	"fmt"
	"math"
	"sort"
	"sync"

	"finrag/internal/domain"
)

type record struct {
	vector   []float32
	content  string
	source   string
	metadata map[string]any
}

// Store is a brute-force cosine-similarity vector store held in memory. It
// mirrors the Qdrant adapter's filter semantics and exists for tests and
// offline runs; nothing persists across processes.
type Store struct {
	mu        sync.RWMutex
	dimension int
	records   []record
}

func NewStore() *Store { return &Store{} }

func (s *Store) EnsureCollection(_ context.Context, dimension int) error {
	if dimension <= 0 {
		return fmt.Errorf("invalid vector dimension %d", dimension)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.dimension == 0 {
		s.dimension = dimension
	}
	return nil
}

func (s *Store) Upsert(_ context.Context, chunks []domain.EmbeddedChunk) error {
	if len(chunks) == 0 {
		return fmt.Errorf("no embedded chunks to store")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, ec := range chunks {
		if s.dimension != 0 && len(ec.Vector) != s.dimension {
			return fmt.Errorf("vector dimension mismatch: want %d, got %d", s.dimension, len(ec.Vector))
		}
		meta := map[string]any{
			"source":                  ec.Chunk.Source,
			"start_index":             ec.Chunk.StartIndex,
			"contains_financial_info": ec.Chunk.ContainsFinancialInfo,
		}
		if len(ec.Chunk.YearsMentioned) > 0 {
			meta["years_mentioned"] = ec.Chunk.YearsMentioned
		}
		s.records = append(s.records, record{
			vector:   ec.Vector,
			content:  ec.Chunk.Text,
			source:   ec.Chunk.Source,
			metadata: meta,
		})
	}
	return nil
}

func (s *Store) Search(_ context.Context, vector []float32, limit int, filter domain.Filter) ([]domain.Document, error) {
	if limit <= 0 {
		limit = 5
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	type scored struct {
		rec   record
		score float64
	}
	var hits []scored
	for _, r := range s.records {
		if !matches(r, filter) {
			continue
		}
		hits = append(hits, scored{rec: r, score: cosine(r.vector, vector)})
	}
	sort.SliceStable(hits, func(i, j int) bool { return hits[i].score > hits[j].score })
	if limit > len(hits) {
		limit = len(hits)
	}
	docs := make([]domain.Document, 0, limit)
	for _, h := range hits[:limit] {
		docs = append(docs, toDocument(h.rec, h.score))
	}
	return docs, nil
}

func (s *Store) Scroll(_ context.Context, filter domain.Filter, limit int) ([]domain.Document, error) {
	if limit <= 0 {
		limit = 10
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	var docs []domain.Document
	for _, r := range s.records {
		if !matches(r, filter) {
			continue
		}
		docs = append(docs, toDocument(r, 1.0))
		if len(docs) == limit {
			break
		}
	}
	return docs, nil
}

// Len reports the number of stored records.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.records)
}

func matches(r record, f domain.Filter) bool {
	if f.FinancialOnly {
		if v, _ := r.metadata["contains_financial_info"].(bool); !v {
			return false
		}
	}
	if f.Year != 0 {
		years, _ := r.metadata["years_mentioned"].([]int)
		found := false
		for _, y := range years {
			if y == f.Year {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	if f.Source != "" && r.source != f.Source {
		return false
	}
	for key, want := range f.Extra {
		if r.metadata[trimMetaPrefix(key)] != want {
			return false
		}
	}
	return true
}

// trimMetaPrefix accepts Qdrant-style payload paths ("metadata.source") as
// well as bare metadata keys.
func trimMetaPrefix(key string) string {
	const prefix = "metadata."
	if len(key) > len(prefix) && key[:len(prefix)] == prefix {
		return key[len(prefix):]
	}
	return key
}

func toDocument(r record, score float64) domain.Document {
	return domain.Document{
		Content:  r.content,
		Source:   r.source,
		Score:    score,
		Metadata: r.metadata,
	}
}

func cosine(a, b []float32) float64 {
	n := len(a)
	if len(b) < n {
		n = len(b)
	}
	var dot, na, nb float64
	for i := 0; i < n; i++ {
		dot += float64(a[i]) * float64(b[i])
		na += float64(a[i]) * float64(a[i])
		nb += float64(b[i]) * float64(b[i])
	}
	if na == 0 || nb == 0 {
		return 0
	}
	return dot / (math.Sqrt(na) * math.Sqrt(nb))
}
