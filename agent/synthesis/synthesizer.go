package synthesis

import (
	"context"
	"fmt"
	"strings"

	einomodel "github.com/cloudwego/eino/components/model"
	einoprompt "github.com/cloudwego/eino/components/prompt"
	"github.com/cloudwego/eino/compose"
	"github.com/cloudwego/eino/schema"
	contractx "github.com/tanpawarit/Chative-Caregiver-Assistant/agent/contract"
)

const (
	defaultChildName    = "the child"
	defaultChildInkling = "general needs"
	defaultNotes        = "No additional notes."
)

// Synthesizer turns responder outputs and history into the final answer
// with one model call.
type Synthesizer struct {
	runner compose.Runnable[map[string]any, *schema.Message]
}

// New compiles the synthesis graph. systemPrompt is an FString template with
// the {role}, {child_name}, {child_inkling} and {context} variables.
func New(ctx context.Context, chatModel einomodel.BaseChatModel, systemPrompt string) (*Synthesizer, error) {
	if chatModel == nil {
		return nil, fmt.Errorf("%w: chat model is nil", contractx.ErrValidation)
	}
	if strings.TrimSpace(systemPrompt) == "" {
		return nil, fmt.Errorf("%w: synthesis system prompt", contractx.ErrPromptMissing)
	}

	runner, err := compileSynthesisGraph(ctx, chatModel, systemPrompt)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", contractx.ErrModelInvoke, err)
	}
	return &Synthesizer{runner: runner}, nil
}

func (s *Synthesizer) Synthesize(ctx context.Context, in Input) (string, error) {
	msg, err := s.runner.Invoke(ctx, templateVariables(in))
	if err != nil {
		return "", fmt.Errorf("%w: %v", contractx.ErrSynthesis, err)
	}
	if msg == nil {
		return "", fmt.Errorf("%w: model returned no message", contractx.ErrSynthesis)
	}

	if strings.TrimSpace(msg.Content) != "" {
		return msg.Content, nil
	}
	return fmt.Sprint(msg), nil
}

func templateVariables(in Input) map[string]any {
	role := in.Query.Role
	if role == "" {
		role = contractx.RoleParent
	}
	return map[string]any{
		"role":          string(role),
		"child_name":    orDefault(in.Query.ChildName, defaultChildName),
		"child_inkling": orDefault(in.Query.ChildInkling, defaultChildInkling),
		"context":       orDefault(in.Query.Context, defaultNotes),
		"input":         BuildPrompt(in),
	}
}

func orDefault(v, def string) string {
	if v = strings.TrimSpace(v); v != "" {
		return v
	}
	return def
}

func compileSynthesisGraph(
	ctx context.Context,
	chatModel einomodel.BaseChatModel,
	systemPrompt string,
) (compose.Runnable[map[string]any, *schema.Message], error) {
	template := einoprompt.FromMessages(
		schema.FString,
		schema.SystemMessage(systemPrompt),
		schema.UserMessage("{input}"),
	)

	graph := compose.NewGraph[map[string]any, *schema.Message]()
	if err := graph.AddChatTemplateNode("prompt", template); err != nil {
		return nil, fmt.Errorf("add synthesis prompt node: %w", err)
	}
	if err := graph.AddChatModelNode("model", chatModel); err != nil {
		return nil, fmt.Errorf("add synthesis model node: %w", err)
	}
	if err := graph.AddEdge(compose.START, "prompt"); err != nil {
		return nil, fmt.Errorf("add synthesis edge start->prompt: %w", err)
	}
	if err := graph.AddEdge("prompt", "model"); err != nil {
		return nil, fmt.Errorf("add synthesis edge prompt->model: %w", err)
	}
	if err := graph.AddEdge("model", compose.END); err != nil {
		return nil, fmt.Errorf("add synthesis edge model->end: %w", err)
	}

	runner, err := graph.Compile(ctx, compose.WithGraphName("synthesis.model_graph"))
	if err != nil {
		return nil, fmt.Errorf("compile synthesis graph: %w", err)
	}
	return runner, nil
}
