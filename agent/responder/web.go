package responder

import (
	"context"
	"errors"
	"fmt"
	"strings"

	contractx "github.com/tanpawarit/Chative-Caregiver-Assistant/agent/contract"
)

// Web answers from a web search provider.
type Web struct {
	searcher contractx.WebSearcher
}

func NewWeb(searcher contractx.WebSearcher) *Web {
	return &Web{searcher: searcher}
}

func (w *Web) Respond(ctx context.Context, prompt string) string {
	results, err := w.searcher.Search(ctx, prompt)
	if err != nil {
		var statusErr *contractx.StatusError
		if errors.As(err, &statusErr) {
			return fmt.Sprintf("Web search failed with status code %d", statusErr.StatusCode)
		}
		return fmt.Sprintf("Web search failed: %v", err)
	}

	snippets := make([]string, 0, len(results))
	for _, r := range results {
		snippets = append(snippets, r.Snippet)
	}
	return strings.Join(snippets, "\n")
}
