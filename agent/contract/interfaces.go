package contract

import "context"

// Responder produces text for one capability. Implementations never return
// errors; failures are reported inside the text.
type Responder interface {
	Respond(ctx context.Context, prompt string) string
}

type ResponderFunc func(ctx context.Context, prompt string) string

func (f ResponderFunc) Respond(ctx context.Context, prompt string) string {
	return f(ctx, prompt)
}

type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
}

type VectorIndex interface {
	Query(ctx context.Context, vector []float32, topK int, namespace string) ([]Match, error)
}

type WebSearcher interface {
	Search(ctx context.Context, text string) ([]SearchResult, error)
}

type ConversationStore interface {
	CreateConversation(ctx context.Context, userID string) (string, error)
	AppendMessage(ctx context.Context, conversationID string, turn Turn) error
	GetHistory(ctx context.Context, conversationID string) ([]Turn, error)
}
