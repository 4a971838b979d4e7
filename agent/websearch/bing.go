package websearch

import (
	"context"
	"errors"

	contractx "github.com/tanpawarit/Chative-Caregiver-Assistant/agent/contract"
	bingx "github.com/tanpawarit/Chative-Caregiver-Assistant/pkg/bing"
)

type bingSearcher interface {
	Search(ctx context.Context, query string) ([]bingx.WebPage, error)
}

// Bing adapts the Bing REST client to contract.WebSearcher.
type Bing struct {
	client bingSearcher
}

var _ contractx.WebSearcher = (*Bing)(nil)

func NewBing(client bingSearcher) *Bing {
	return &Bing{client: client}
}

func (b *Bing) Search(ctx context.Context, text string) ([]contractx.SearchResult, error) {
	pages, err := b.client.Search(ctx, text)
	if err != nil {
		var statusErr *bingx.StatusError
		if errors.As(err, &statusErr) {
			return nil, &contractx.StatusError{Service: "bing", StatusCode: statusErr.StatusCode, Body: statusErr.Body}
		}
		return nil, err
	}

	results := make([]contractx.SearchResult, 0, len(pages))
	for _, p := range pages {
		results = append(results, contractx.SearchResult{Name: p.Name, URL: p.URL, Snippet: p.Snippet})
	}
	return results, nil
}
