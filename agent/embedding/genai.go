package embedding

import (
	"context"
	"fmt"
	"strings"

	contractx "github.com/tanpawarit/Chative-Caregiver-Assistant/agent/contract"
	"google.golang.org/genai"
)

type GenAIConfig struct {
	APIKey   string `envconfig:"API_KEY" split_words:"true"`
	Model    string `envconfig:"EMBEDDING_MODEL" split_words:"true" default:"gemini-embedding-001"`
	TaskType string `envconfig:"TASK_TYPE" split_words:"true" default:"RETRIEVAL_QUERY"`
}

func (c GenAIConfig) Validate() error {
	if strings.TrimSpace(c.APIKey) == "" {
		return fmt.Errorf("%w: genai api key is required", contractx.ErrValidation)
	}
	return nil
}

// GenAI embeds text with the Gemini embedding models.
type GenAI struct {
	client   *genai.Client
	model    string
	taskType string
}

var _ contractx.Embedder = (*GenAI)(nil)

func NewGenAI(ctx context.Context, cfg GenAIConfig) (*GenAI, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  strings.TrimSpace(cfg.APIKey),
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("genai: create client: %w", err)
	}

	model := strings.TrimSpace(cfg.Model)
	if model == "" {
		model = "gemini-embedding-001"
	}

	return &GenAI{
		client:   client,
		model:    model,
		taskType: parseTaskType(cfg.TaskType),
	}, nil
}

func (e *GenAI) Embed(ctx context.Context, text string) ([]float32, error) {
	contents := []*genai.Content{
		genai.NewContentFromText(text, genai.RoleUser),
	}

	result, err := e.client.Models.EmbedContent(ctx, e.model, contents, &genai.EmbedContentConfig{
		TaskType: e.taskType,
	})
	if err != nil {
		return nil, fmt.Errorf("genai embed: %w", err)
	}
	if len(result.Embeddings) == 0 {
		return nil, fmt.Errorf("genai embed: no embeddings returned")
	}
	return result.Embeddings[0].Values, nil
}

var taskTypes = map[string]bool{
	"SEMANTIC_SIMILARITY": true,
	"CLASSIFICATION":      true,
	"CLUSTERING":          true,
	"RETRIEVAL_DOCUMENT":  true,
	"RETRIEVAL_QUERY":     true,
	"QUESTION_ANSWERING":  true,
	"FACT_VERIFICATION":   true,
}

// parseTaskType falls back to RETRIEVAL_QUERY for unknown values.
func parseTaskType(raw string) string {
	task := strings.ToUpper(strings.TrimSpace(raw))
	if taskTypes[task] {
		return task
	}
	return "RETRIEVAL_QUERY"
}
