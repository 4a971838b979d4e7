package assistant

import (
	"context"
	"errors"
	"strings"
	"sync"
	"sync/atomic"
	"testing"

	einomodel "github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"
	contractx "github.com/tanpawarit/Chative-Caregiver-Assistant/agent/contract"
	conversationx "github.com/tanpawarit/Chative-Caregiver-Assistant/agent/conversation"
	responderx "github.com/tanpawarit/Chative-Caregiver-Assistant/agent/responder"
	routerx "github.com/tanpawarit/Chative-Caregiver-Assistant/agent/router"
	synthesisx "github.com/tanpawarit/Chative-Caregiver-Assistant/agent/synthesis"
)

type countingResponder struct {
	text  string
	calls atomic.Int32
}

func (c *countingResponder) Respond(ctx context.Context, prompt string) string {
	c.calls.Add(1)
	return c.text
}

type fakeChatModel struct {
	mu       sync.Mutex
	response *schema.Message
	err      error
	inputs   [][]*schema.Message
}

func (f *fakeChatModel) Generate(ctx context.Context, input []*schema.Message, opts ...einomodel.Option) (*schema.Message, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.inputs = append(f.inputs, input)
	if f.err != nil {
		return nil, f.err
	}
	return f.response, nil
}

func (f *fakeChatModel) Stream(ctx context.Context, input []*schema.Message, opts ...einomodel.Option) (*schema.StreamReader[*schema.Message], error) {
	return nil, errors.New("stream not implemented in fake model")
}

func (f *fakeChatModel) lastUserPrompt(t *testing.T) string {
	t.Helper()
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.inputs) == 0 {
		t.Fatal("model was not called")
	}
	msgs := f.inputs[len(f.inputs)-1]
	return msgs[len(msgs)-1].Content
}

type appendFailStore struct {
	*conversationx.MemoryStore
	err error
}

func (s *appendFailStore) AppendMessage(ctx context.Context, id string, turn contractx.Turn) error {
	return s.err
}

type fixture struct {
	assistant *Assistant
	store     contractx.ConversationStore
	model     *fakeChatModel
	document  *countingResponder
	web       *countingResponder
}

func newFixture(t *testing.T, store contractx.ConversationStore, model *fakeChatModel) *fixture {
	t.Helper()

	if store == nil {
		store = conversationx.NewMemoryStore()
	}
	if model == nil {
		model = &fakeChatModel{response: schema.AssistantMessage("final answer", nil)}
	}
	document := &countingResponder{text: "Zoe's report says she is progressing well."}
	web := &countingResponder{text: "news snippet"}

	stage := responderx.NewStage(map[contractx.Capability]contractx.Responder{
		contractx.CapabilityDocument:   document,
		contractx.CapabilityWeb:        web,
		contractx.CapabilityCalculator: responderx.NewCalculator(),
	})
	synth, err := synthesisx.New(context.Background(), model, "You help a {role} caring for {child_name} ({child_inkling}). Notes: {context}")
	if err != nil {
		t.Fatalf("synthesis.New() error = %v", err)
	}

	a, err := New(Deps{
		Store:       store,
		Router:      routerx.New(routerx.Config{}),
		Invoker:     stage,
		Synthesizer: synth,
	}, Config{})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	return &fixture{assistant: a, store: store, model: model, document: document, web: web}
}

func TestHandleMessageDocumentQuery(t *testing.T) {
	t.Parallel()

	f := newFixture(t, nil, nil)
	reply, err := f.assistant.HandleMessage(context.Background(), contractx.Query{Text: "What is Zoe's latest report?"})
	if err != nil {
		t.Fatalf("HandleMessage() error = %v", err)
	}

	want := contractx.RoutingDecision{Document: true}
	if reply.Decision != want {
		t.Fatalf("decision = %+v, want %+v", reply.Decision, want)
	}
	if f.document.calls.Load() != 1 || f.web.calls.Load() != 0 {
		t.Fatalf("calls document=%d web=%d", f.document.calls.Load(), f.web.calls.Load())
	}
	if reply.Outputs[contractx.CapabilityWeb] != "" || reply.Outputs[contractx.CapabilityCalculator] != "" {
		t.Fatalf("outputs = %+v", reply.Outputs)
	}
	if reply.Text != "final answer" || reply.ConversationID == "" || !reply.Persisted {
		t.Fatalf("reply = %+v", reply)
	}

	prompt := f.model.lastUserPrompt(t)
	if !strings.Contains(prompt, "Context:\nZoe's report says she is progressing well.") {
		t.Fatalf("prompt missing document context:\n%s", prompt)
	}
	if strings.Contains(prompt, "Additional Information from Web Search") {
		t.Fatalf("prompt has web section:\n%s", prompt)
	}

	turns, err := f.assistant.History(context.Background(), reply.ConversationID)
	if err != nil {
		t.Fatalf("History() error = %v", err)
	}
	if len(turns) != 2 || turns[0].Sender != contractx.SenderUser || turns[1].Text != "final answer" {
		t.Fatalf("turns = %+v", turns)
	}
}

func TestHandleMessageCalculatorQuery(t *testing.T) {
	t.Parallel()

	f := newFixture(t, nil, nil)
	reply, err := f.assistant.HandleMessage(context.Background(), contractx.Query{Text: "calculate 5 * 6"})
	if err != nil {
		t.Fatalf("HandleMessage() error = %v", err)
	}

	if got := reply.Outputs[contractx.CapabilityCalculator]; got != "30" {
		t.Fatalf("calculator output = %q, want 30", got)
	}
	if f.document.calls.Load() != 0 || f.web.calls.Load() != 0 {
		t.Fatalf("calls document=%d web=%d", f.document.calls.Load(), f.web.calls.Load())
	}
	if prompt := f.model.lastUserPrompt(t); strings.Contains(prompt, "30") {
		t.Fatalf("calculator output leaked into prompt:\n%s", prompt)
	}
}

func TestHandleMessageUsesHistory(t *testing.T) {
	t.Parallel()

	f := newFixture(t, nil, nil)
	ctx := context.Background()

	first, err := f.assistant.HandleMessage(ctx, contractx.Query{Text: "hello there"})
	if err != nil {
		t.Fatalf("first HandleMessage() error = %v", err)
	}
	if _, err := f.assistant.HandleMessage(ctx, contractx.Query{Text: "and again", ConversationID: first.ConversationID}); err != nil {
		t.Fatalf("second HandleMessage() error = %v", err)
	}

	prompt := f.model.lastUserPrompt(t)
	if !strings.HasPrefix(prompt, "User: hello there\nAssistant: final answer\n") {
		t.Fatalf("prompt does not start with history:\n%s", prompt)
	}
}

func TestHandleMessageUnknownConversation(t *testing.T) {
	t.Parallel()

	f := newFixture(t, nil, nil)
	_, err := f.assistant.HandleMessage(context.Background(), contractx.Query{Text: "hi", ConversationID: "nope"})
	if !errors.Is(err, contractx.ErrConversationNotFound) {
		t.Fatalf("HandleMessage() error = %v, want ErrConversationNotFound", err)
	}
}

func TestHandleMessageRejectsEmptyQuery(t *testing.T) {
	t.Parallel()

	f := newFixture(t, nil, nil)
	_, err := f.assistant.HandleMessage(context.Background(), contractx.Query{Text: "  "})
	if !errors.Is(err, contractx.ErrValidation) {
		t.Fatalf("HandleMessage() error = %v, want ErrValidation", err)
	}
}

func TestHandleMessageSynthesisFailureRecordsFailedTurn(t *testing.T) {
	t.Parallel()

	store := conversationx.NewMemoryStore()
	f := newFixture(t, store, &fakeChatModel{err: errors.New("model down")})
	ctx := context.Background()

	id, err := store.CreateConversation(ctx, "u1")
	if err != nil {
		t.Fatalf("CreateConversation() error = %v", err)
	}
	_, err = f.assistant.HandleMessage(ctx, contractx.Query{Text: "hello", ConversationID: id})
	if !errors.Is(err, contractx.ErrSynthesis) {
		t.Fatalf("HandleMessage() error = %v, want ErrSynthesis", err)
	}

	turns, err := store.GetHistory(ctx, id)
	if err != nil {
		t.Fatalf("GetHistory() error = %v", err)
	}
	if len(turns) != 1 || turns[0].Status != contractx.TurnFailed || turns[0].Text != "hello" {
		t.Fatalf("turns = %+v", turns)
	}
}

func TestHandleMessagePersistErrorKeepsAnswer(t *testing.T) {
	t.Parallel()

	store := &appendFailStore{MemoryStore: conversationx.NewMemoryStore(), err: errors.New("disk full")}
	f := newFixture(t, store, nil)

	reply, err := f.assistant.HandleMessage(context.Background(), contractx.Query{Text: "hello"})
	if err != nil {
		t.Fatalf("HandleMessage() error = %v", err)
	}
	if reply.Text != "final answer" || reply.Persisted {
		t.Fatalf("reply = %+v", reply)
	}
}

func TestNewRequiresDeps(t *testing.T) {
	t.Parallel()

	if _, err := New(Deps{}, Config{}); err == nil {
		t.Fatal("expected error for missing deps")
	}
}
