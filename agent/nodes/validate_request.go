package assistantnode

import (
	"fmt"
	"strings"
	"time"

	contractx "github.com/tanpawarit/Chative-Caregiver-Assistant/agent/contract"
)

var ErrEmptyQuery = fmt.Errorf("%w: query text is empty", contractx.ErrValidation)

type GraphInput struct {
	Query contractx.Query
}

type GraphOutput struct {
	Reply contractx.Reply
}

// GraphState carries one request through the pipeline. Query is never
// modified after ValidateRequest.
type GraphState struct {
	Query contractx.Query
	Now   time.Time

	ConversationID string
	Created        bool
	History        []contractx.Exchange

	Decision contractx.RoutingDecision
	Outputs  contractx.Outputs

	Answer    string
	Persisted bool
}

func ValidateRequest(in GraphInput, nowFn func() time.Time) (*GraphState, error) {
	q := in.Query
	q.Text = strings.TrimSpace(q.Text)
	if q.Text == "" {
		return nil, ErrEmptyQuery
	}

	role, err := contractx.ParseRole(string(q.Role))
	if err != nil {
		return nil, err
	}
	q.Role = role
	q.ConversationID = strings.TrimSpace(q.ConversationID)

	return &GraphState{
		Query:          q,
		Now:            nowFn().UTC(),
		ConversationID: q.ConversationID,
	}, nil
}
