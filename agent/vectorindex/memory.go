package vectorindex

import (
	"context"
	"fmt"
	"math"
	"sort"
	"sync"

	contractx "github.com/tanpawarit/Chative-Caregiver-Assistant/agent/contract"
)

// Record is one stored vector with its metadata.
type Record struct {
	ID        string
	Namespace string
	Vector    []float32
	Metadata  map[string]any
}

// Memory is an in-process index used for local runs and tests.
type Memory struct {
	mu      sync.RWMutex
	records map[string]Record
}

var _ contractx.VectorIndex = (*Memory)(nil)

func NewMemory() *Memory {
	return &Memory{records: make(map[string]Record)}
}

// Upsert stores records, replacing any with the same namespace and id.
func (m *Memory) Upsert(records ...Record) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, r := range records {
		if r.ID == "" {
			return fmt.Errorf("%w: record id is required", contractx.ErrValidation)
		}
		if len(r.Vector) == 0 {
			return fmt.Errorf("%w: record %s has no vector", contractx.ErrValidation, r.ID)
		}
		vec := make([]float32, len(r.Vector))
		copy(vec, r.Vector)
		r.Vector = vec
		m.records[r.Namespace+"\x00"+r.ID] = r
	}
	return nil
}

func (m *Memory) Query(_ context.Context, vector []float32, topK int, namespace string) ([]contractx.Match, error) {
	if topK <= 0 {
		return nil, fmt.Errorf("%w: topK must be > 0", contractx.ErrValidation)
	}

	m.mu.RLock()
	matches := make([]contractx.Match, 0, len(m.records))
	for _, r := range m.records {
		if r.Namespace != namespace || len(r.Vector) != len(vector) {
			continue
		}
		matches = append(matches, contractx.Match{
			ID:       r.ID,
			Score:    cosineSimilarity(vector, r.Vector),
			Metadata: r.Metadata,
		})
	}
	m.mu.RUnlock()

	sort.Slice(matches, func(i, j int) bool {
		if matches[i].Score == matches[j].Score {
			return matches[i].ID < matches[j].ID
		}
		return matches[i].Score > matches[j].Score
	})
	if len(matches) > topK {
		matches = matches[:topK]
	}
	return matches, nil
}

func cosineSimilarity(a, b []float32) float64 {
	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}
