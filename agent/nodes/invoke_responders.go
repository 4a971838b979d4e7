package assistantnode

import (
	"context"
	"fmt"

	contractx "github.com/tanpawarit/Chative-Caregiver-Assistant/agent/contract"
)

type Invoker interface {
	InvokeAll(ctx context.Context, query contractx.Query, decision contractx.RoutingDecision) contractx.Outputs
}

func InvokeResponders(ctx context.Context, in *GraphState, invoker Invoker) (*GraphState, error) {
	if in == nil {
		return nil, fmt.Errorf("%w: graph state is nil", contractx.ErrValidation)
	}

	in.Outputs = invoker.InvokeAll(ctx, in.Query, in.Decision)
	return in, nil
}
