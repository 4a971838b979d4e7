package assistantnode

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"
	contractx "github.com/tanpawarit/Chative-Caregiver-Assistant/agent/contract"
	synthesisx "github.com/tanpawarit/Chative-Caregiver-Assistant/agent/synthesis"
)

type Synthesizer interface {
	Synthesize(ctx context.Context, in synthesisx.Input) (string, error)
}

// SynthesisObserver is told how each synthesis call went.
type SynthesisObserver func(err error, duration time.Duration)

// Synthesize produces the final answer. When the model call fails the user
// turn is stored with status failed so the conversation keeps a record of
// the unanswered question, and the synthesis error is returned.
func Synthesize(
	ctx context.Context,
	in *GraphState,
	synth Synthesizer,
	store contractx.ConversationStore,
	observe SynthesisObserver,
) (*GraphState, error) {
	if in == nil {
		return nil, fmt.Errorf("%w: graph state is nil", contractx.ErrValidation)
	}

	start := time.Now()
	answer, err := synth.Synthesize(ctx, synthesisx.Input{
		Query:   in.Query,
		Outputs: in.Outputs,
		History: in.History,
	})
	if observe != nil {
		observe(err, time.Since(start))
	}
	if err != nil {
		failed := contractx.Turn{
			Sender:    contractx.SenderUser,
			Text:      in.Query.Text,
			Status:    contractx.TurnFailed,
			CreatedAt: in.Now,
		}
		if perr := store.AppendMessage(ctx, in.ConversationID, failed); perr != nil {
			log.Error().Err(perr).Str("conversation_id", in.ConversationID).Msg("record failed turn")
		}
		return nil, err
	}

	in.Answer = answer
	return in, nil
}
