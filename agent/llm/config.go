package llm

import (
	"context"
	"fmt"
	"strings"
	"time"

	einomodel "github.com/cloudwego/eino/components/model"
	contractx "github.com/tanpawarit/Chative-Caregiver-Assistant/agent/contract"
	openrouterx "github.com/tanpawarit/Chative-Caregiver-Assistant/pkg/openrouter"
)

// Config selects the chat model used for response synthesis. Loaded with
// the OPENROUTER prefix.
type Config struct {
	BaseURL            string        `envconfig:"BASE_URL" split_words:"true" default:"https://openrouter.ai/api/v1"`
	APIKey             string        `envconfig:"API_KEY" split_words:"true" required:"true"`
	Model              string        `envconfig:"MODEL" split_words:"true" required:"true"`
	MaxCompletionToken int           `envconfig:"MAX_COMPLETION_TOKEN" split_words:"true" default:"2000"`
	Temperature        float32       `envconfig:"TEMPERATURE" split_words:"true" default:"0"`
	Timeout            time.Duration `envconfig:"TIMEOUT" split_words:"true" default:"60s"`
	SiteURL            string        `envconfig:"SITE_URL" split_words:"true"`
	SiteName           string        `envconfig:"SITE_NAME" split_words:"true"`
	ExcludeReasoning   bool          `envconfig:"EXCLUDE_REASONING" split_words:"true"`

	SynthesisModel       string  `envconfig:"SYNTHESIS_MODEL" split_words:"true"`
	SynthesisTemperature float32 `envconfig:"SYNTHESIS_TEMPERATURE" split_words:"true" default:"-1"`
}

func (c Config) Validate() error {
	if strings.TrimSpace(c.APIKey) == "" {
		return fmt.Errorf("%w: openrouter api key is required", contractx.ErrValidation)
	}
	if strings.TrimSpace(c.Model) == "" && strings.TrimSpace(c.SynthesisModel) == "" {
		return fmt.Errorf("%w: default model is required", contractx.ErrValidation)
	}
	if c.MaxCompletionToken < 0 {
		return fmt.Errorf("%w: max completion token must be >= 0", contractx.ErrValidation)
	}
	return nil
}

// OpenRouterFor returns the synthesis model settings. SYNTHESIS_MODEL and a
// non-negative SYNTHESIS_TEMPERATURE override the defaults.
func (c Config) OpenRouterFor() openrouterx.Config {
	modelName := strings.TrimSpace(c.Model)
	if v := strings.TrimSpace(c.SynthesisModel); v != "" {
		modelName = v
	}
	temp := c.Temperature
	if c.SynthesisTemperature >= 0 {
		temp = c.SynthesisTemperature
	}

	out := openrouterx.Config{
		BaseURL:     strings.TrimSpace(c.BaseURL),
		APIKey:      strings.TrimSpace(c.APIKey),
		Model:       modelName,
		Temperature: temp,
		Timeout:     c.Timeout,
		SiteURL:     strings.TrimSpace(c.SiteURL),
		SiteName:    strings.TrimSpace(c.SiteName),

		ExcludeReasoning: c.ExcludeReasoning,
	}
	if c.MaxCompletionToken > 0 {
		maxCompletionToken := c.MaxCompletionToken
		out.MaxCompletionToken = &maxCompletionToken
	}
	return out
}

// NewChatModel builds the synthesis chat model.
func (c Config) NewChatModel(ctx context.Context) (einomodel.BaseChatModel, error) {
	if err := c.Validate(); err != nil {
		return nil, err
	}
	cfg := c.OpenRouterFor()
	m, err := cfg.New(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", contractx.ErrModelInvoke, err)
	}
	return m, nil
}
