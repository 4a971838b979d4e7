package assistantnode

import (
	"fmt"

	contractx "github.com/tanpawarit/Chative-Caregiver-Assistant/agent/contract"
)

func FinalizeReply(in *GraphState) (GraphOutput, error) {
	if in == nil {
		return GraphOutput{}, fmt.Errorf("%w: graph state is nil", contractx.ErrValidation)
	}

	return GraphOutput{Reply: contractx.Reply{
		Text:           in.Answer,
		ConversationID: in.ConversationID,
		Decision:       in.Decision,
		Outputs:        in.Outputs,
		Persisted:      in.Persisted,
	}}, nil
}
