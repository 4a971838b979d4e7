package assistantnode

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"
	contractx "github.com/tanpawarit/Chative-Caregiver-Assistant/agent/contract"
)

// RecordTurns appends the user turn and then the assistant turn. A store
// error is logged and leaves Persisted false; the answer is still returned.
func RecordTurns(
	ctx context.Context,
	in *GraphState,
	store contractx.ConversationStore,
	nowFn func() time.Time,
) (*GraphState, error) {
	if in == nil {
		return nil, fmt.Errorf("%w: graph state is nil", contractx.ErrValidation)
	}

	answeredAt := nowFn().UTC()
	if answeredAt.Before(in.Now) {
		answeredAt = in.Now
	}

	turns := []contractx.Turn{
		{Sender: contractx.SenderUser, Text: in.Query.Text, Status: contractx.TurnOK, CreatedAt: in.Now},
		{Sender: contractx.SenderAssistant, Text: in.Answer, Status: contractx.TurnOK, CreatedAt: answeredAt},
	}
	for _, turn := range turns {
		if err := store.AppendMessage(ctx, in.ConversationID, turn); err != nil {
			log.Error().Err(err).
				Str("conversation_id", in.ConversationID).
				Str("sender", string(turn.Sender)).
				Msg("persist turn")
			in.Persisted = false
			return in, nil
		}
	}

	in.Persisted = true
	return in, nil
}
