package embedding

import (
	"context"
	"fmt"
	"strings"

	openaisdk "github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	contractx "github.com/tanpawarit/Chative-Caregiver-Assistant/agent/contract"
)

const defaultOpenAIModel = "text-embedding-3-small"

type OpenAIConfig struct {
	BaseURL    string `envconfig:"BASE_URL" split_words:"true" default:"https://api.openai.com/v1"`
	APIKey     string `envconfig:"API_KEY" split_words:"true"`
	Model      string `envconfig:"EMBEDDING_MODEL" split_words:"true" default:"text-embedding-3-small"`
	Dimensions int64  `envconfig:"EMBEDDING_DIMENSIONS" split_words:"true"`
}

func (c OpenAIConfig) Validate() error {
	if strings.TrimSpace(c.APIKey) == "" {
		return fmt.Errorf("%w: openai api key is required", contractx.ErrValidation)
	}
	return nil
}

// OpenAI embeds text with the embeddings endpoint of any OpenAI-compatible
// API.
type OpenAI struct {
	client     openaisdk.Client
	model      string
	dimensions int64
}

var _ contractx.Embedder = (*OpenAI)(nil)

func NewOpenAI(cfg OpenAIConfig, opts ...option.RequestOption) (*OpenAI, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	reqOpts := []option.RequestOption{
		option.WithAPIKey(strings.TrimSpace(cfg.APIKey)),
	}
	if trimmed := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/"); trimmed != "" {
		reqOpts = append(reqOpts, option.WithBaseURL(trimmed))
	}
	reqOpts = append(reqOpts, opts...)

	return NewOpenAIFromClient(openaisdk.NewClient(reqOpts...), cfg.Model, cfg.Dimensions), nil
}

// NewOpenAIFromClient reuses an already configured SDK client, e.g. the
// OpenRouter one.
func NewOpenAIFromClient(client openaisdk.Client, model string, dimensions int64) *OpenAI {
	model = strings.TrimSpace(model)
	if model == "" {
		model = defaultOpenAIModel
	}
	return &OpenAI{
		client:     client,
		model:      model,
		dimensions: dimensions,
	}
}

func (e *OpenAI) Embed(ctx context.Context, text string) ([]float32, error) {
	params := openaisdk.EmbeddingNewParams{
		Input: openaisdk.EmbeddingNewParamsInputUnion{OfString: openaisdk.String(text)},
		Model: openaisdk.EmbeddingModel(e.model),
	}
	if e.dimensions > 0 {
		params.Dimensions = openaisdk.Int(e.dimensions)
	}

	resp, err := e.client.Embeddings.New(ctx, params)
	if err != nil {
		return nil, fmt.Errorf("openai embed: %w", err)
	}
	if len(resp.Data) == 0 {
		return nil, fmt.Errorf("openai embed: no embeddings returned")
	}

	values := resp.Data[0].Embedding
	out := make([]float32, len(values))
	for i, v := range values {
		out[i] = float32(v)
	}
	return out, nil
}
