package assistantnode

import (
	"context"
	"fmt"

	"github.com/rs/zerolog/log"
	contractx "github.com/tanpawarit/Chative-Caregiver-Assistant/agent/contract"
)

// LoadOrCreateConversation opens a new conversation when the query carries
// no id, otherwise loads the last historyLimit completed exchanges.
func LoadOrCreateConversation(
	ctx context.Context,
	in *GraphState,
	store contractx.ConversationStore,
	historyLimit int,
) (*GraphState, error) {
	if in == nil {
		return nil, fmt.Errorf("%w: graph state is nil", contractx.ErrValidation)
	}

	if in.ConversationID == "" {
		id, err := store.CreateConversation(ctx, in.Query.UserID)
		if err != nil {
			return nil, fmt.Errorf("create conversation: %w", err)
		}
		in.ConversationID = id
		in.Created = true
		log.Debug().Str("conversation_id", id).Msg("conversation created")
		return in, nil
	}

	turns, err := store.GetHistory(ctx, in.ConversationID)
	if err != nil {
		return nil, fmt.Errorf("load conversation history: %w", err)
	}
	in.History = contractx.PairExchanges(turns, historyLimit)
	return in, nil
}
