package vectorindex

import (
	"context"
	"errors"
	"math"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	contractx "github.com/tanpawarit/Chative-Caregiver-Assistant/agent/contract"
	pineconex "github.com/tanpawarit/Chative-Caregiver-Assistant/pkg/pinecone"
)

type fakePinecone struct {
	req  pineconex.QueryRequest
	resp *pineconex.QueryResponse
	err  error
}

func (f *fakePinecone) Query(_ context.Context, req pineconex.QueryRequest) (*pineconex.QueryResponse, error) {
	f.req = req
	return f.resp, f.err
}

func TestPineconeQuery(t *testing.T) {
	t.Parallel()

	fake := &fakePinecone{resp: &pineconex.QueryResponse{Matches: []pineconex.Match{
		{ID: "a", Score: 0.8, Metadata: map[string]any{"content": "Zoe's report"}},
	}}}
	idx := NewPinecone(fake)

	got, err := idx.Query(context.Background(), []float32{1, 0}, 10, "docs")
	if err != nil {
		t.Fatalf("Query() error = %v", err)
	}
	if fake.req.TopK != 10 || fake.req.Namespace != "docs" || !fake.req.IncludeMetadata {
		t.Fatalf("request = %+v", fake.req)
	}
	want := []contractx.Match{{ID: "a", Score: 0.8, Metadata: map[string]any{"content": "Zoe's report"}}}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("matches mismatch (-want +got):\n%s", diff)
	}
}

func TestPineconeQueryMapsStatusError(t *testing.T) {
	t.Parallel()

	idx := NewPinecone(&fakePinecone{err: &pineconex.StatusError{StatusCode: 503, Body: "down"}})
	_, err := idx.Query(context.Background(), []float32{1}, 1, "")

	var statusErr *contractx.StatusError
	if !errors.As(err, &statusErr) || statusErr.Service != "pinecone" || statusErr.StatusCode != 503 {
		t.Fatalf("Query() error = %v, want pinecone StatusError 503", err)
	}
}

func TestMemoryQueryRanksByCosine(t *testing.T) {
	t.Parallel()

	idx := NewMemory()
	err := idx.Upsert(
		Record{ID: "same", Namespace: "docs", Vector: []float32{1, 0}, Metadata: map[string]any{"text": "same"}},
		Record{ID: "diag", Namespace: "docs", Vector: []float32{1, 1}},
		Record{ID: "orth", Namespace: "docs", Vector: []float32{0, 1}},
		Record{ID: "other", Namespace: "notes", Vector: []float32{1, 0}},
	)
	if err != nil {
		t.Fatalf("Upsert() error = %v", err)
	}

	got, err := idx.Query(context.Background(), []float32{2, 0}, 2, "docs")
	if err != nil {
		t.Fatalf("Query() error = %v", err)
	}
	if len(got) != 2 || got[0].ID != "same" || got[1].ID != "diag" {
		t.Fatalf("matches = %+v", got)
	}
	if math.Abs(got[0].Score-1) > 1e-9 || math.Abs(got[1].Score-math.Sqrt2/2) > 1e-6 {
		t.Fatalf("scores = %v, %v", got[0].Score, got[1].Score)
	}
}

func TestMemoryValidation(t *testing.T) {
	t.Parallel()

	idx := NewMemory()
	if err := idx.Upsert(Record{Vector: []float32{1}}); !errors.Is(err, contractx.ErrValidation) {
		t.Fatalf("Upsert() error = %v, want ErrValidation", err)
	}
	if _, err := idx.Query(context.Background(), []float32{1}, 0, ""); !errors.Is(err, contractx.ErrValidation) {
		t.Fatalf("Query() error = %v, want ErrValidation", err)
	}
}

func TestCosineSimilarityZeroVector(t *testing.T) {
	t.Parallel()

	if got := cosineSimilarity([]float32{0, 0}, []float32{1, 1}); got != 0 {
		t.Fatalf("cosineSimilarity() = %v, want 0", got)
	}
}

func TestPGVectorLiteral(t *testing.T) {
	t.Parallel()

	if got := pgVector([]float32{0.5, -1, 2}); got != "[0.5,-1,2]" {
		t.Fatalf("pgVector() = %q", got)
	}
}

func TestBuildPGVectorQuery(t *testing.T) {
	t.Parallel()

	query, err := buildPGVectorQuery("")
	if err != nil {
		t.Fatalf("buildPGVectorQuery() error = %v", err)
	}
	if !strings.Contains(query, "FROM document_chunks") || !strings.Contains(query, "LIMIT $3") {
		t.Fatalf("query = %s", query)
	}
	if _, err := buildPGVectorQuery("chunks; DROP TABLE x"); err == nil {
		t.Fatal("expected error for unsafe table name")
	}
	if _, err := buildPGVectorQuery("rag.chunks"); err != nil {
		t.Fatalf("schema qualified table rejected: %v", err)
	}
}
