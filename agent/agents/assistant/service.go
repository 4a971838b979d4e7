package assistant

import (
	"context"
	"errors"
	"time"

	"github.com/cloudwego/eino/compose"
	contractx "github.com/tanpawarit/Chative-Caregiver-Assistant/agent/contract"
	nodex "github.com/tanpawarit/Chative-Caregiver-Assistant/agent/nodes"
)

const DefaultHistoryLimit = 10

type Config struct {
	HistoryLimit int `envconfig:"HISTORY_LIMIT" split_words:"true" default:"10"`
}

type Deps struct {
	Store       contractx.ConversationStore
	Router      nodex.Router
	Invoker     nodex.Invoker
	Synthesizer nodex.Synthesizer
	OnSynthesis nodex.SynthesisObserver
}

// Assistant answers one query at a time: route, fan out to responders,
// synthesize, then persist the exchange.
type Assistant struct {
	store       contractx.ConversationStore
	router      nodex.Router
	invoker     nodex.Invoker
	synthesizer nodex.Synthesizer
	onSynthesis nodex.SynthesisObserver

	graphRunner compose.Runnable[nodex.GraphInput, nodex.GraphOutput]

	historyLimit int
	now          func() time.Time
}

func New(deps Deps, cfg Config) (*Assistant, error) {
	if deps.Store == nil {
		return nil, errors.New("conversation store is required")
	}
	if deps.Router == nil {
		return nil, errors.New("router is required")
	}
	if deps.Invoker == nil {
		return nil, errors.New("responder invoker is required")
	}
	if deps.Synthesizer == nil {
		return nil, errors.New("synthesizer is required")
	}

	historyLimit := cfg.HistoryLimit
	if historyLimit <= 0 {
		historyLimit = DefaultHistoryLimit
	}

	a := &Assistant{
		store:        deps.Store,
		router:       deps.Router,
		invoker:      deps.Invoker,
		synthesizer:  deps.Synthesizer,
		onSynthesis:  deps.OnSynthesis,
		historyLimit: historyLimit,
		now:          time.Now,
	}

	graphRunner, err := a.compileHandleMessageGraph(context.Background())
	if err != nil {
		return nil, err
	}
	a.graphRunner = graphRunner

	return a, nil
}

func (a *Assistant) HandleMessage(ctx context.Context, q contractx.Query) (contractx.Reply, error) {
	out, err := a.graphRunner.Invoke(ctx, nodex.GraphInput{Query: q})
	if err != nil {
		return contractx.Reply{}, err
	}
	return out.Reply, nil
}

// History returns the stored turns of one conversation.
func (a *Assistant) History(ctx context.Context, conversationID string) ([]contractx.Turn, error) {
	return a.store.GetHistory(ctx, conversationID)
}
