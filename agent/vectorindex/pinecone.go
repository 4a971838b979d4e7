package vectorindex

import (
	"context"
	"errors"
	"fmt"

	contractx "github.com/tanpawarit/Chative-Caregiver-Assistant/agent/contract"
	pineconex "github.com/tanpawarit/Chative-Caregiver-Assistant/pkg/pinecone"
)

type pineconeQuerier interface {
	Query(ctx context.Context, req pineconex.QueryRequest) (*pineconex.QueryResponse, error)
}

// Pinecone adapts the Pinecone index client to contract.VectorIndex.
type Pinecone struct {
	client pineconeQuerier
}

var _ contractx.VectorIndex = (*Pinecone)(nil)

func NewPinecone(client pineconeQuerier) *Pinecone {
	return &Pinecone{client: client}
}

func (p *Pinecone) Query(ctx context.Context, vector []float32, topK int, namespace string) ([]contractx.Match, error) {
	if p == nil || p.client == nil {
		return nil, fmt.Errorf("%w: pinecone client is nil", contractx.ErrValidation)
	}

	resp, err := p.client.Query(ctx, pineconex.QueryRequest{
		Vector:          vector,
		TopK:            topK,
		Namespace:       namespace,
		IncludeMetadata: true,
	})
	if err != nil {
		var statusErr *pineconex.StatusError
		if errors.As(err, &statusErr) {
			return nil, &contractx.StatusError{Service: "pinecone", StatusCode: statusErr.StatusCode, Body: statusErr.Body}
		}
		return nil, err
	}

	matches := make([]contractx.Match, 0, len(resp.Matches))
	for _, m := range resp.Matches {
		matches = append(matches, contractx.Match{ID: m.ID, Score: m.Score, Metadata: m.Metadata})
	}
	return matches, nil
}
