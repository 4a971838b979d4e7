package assistantnode

import (
	"fmt"

	"github.com/rs/zerolog/log"
	contractx "github.com/tanpawarit/Chative-Caregiver-Assistant/agent/contract"
)

type Router interface {
	RouteQuery(q contractx.Query) contractx.RoutingDecision
}

func RouteQuery(in *GraphState, router Router) (*GraphState, error) {
	if in == nil {
		return nil, fmt.Errorf("%w: graph state is nil", contractx.ErrValidation)
	}

	in.Decision = router.RouteQuery(in.Query)
	log.Debug().
		Str("conversation_id", in.ConversationID).
		Bool("document", in.Decision.Document).
		Bool("web_search", in.Decision.WebSearch).
		Bool("calculator", in.Decision.Calculator).
		Msg("query routed")
	return in, nil
}
