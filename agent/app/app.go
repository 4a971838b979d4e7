package app

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/rs/zerolog/log"
	assistantx "github.com/tanpawarit/Chative-Caregiver-Assistant/agent/agents/assistant"
	contractx "github.com/tanpawarit/Chative-Caregiver-Assistant/agent/contract"
	conversationx "github.com/tanpawarit/Chative-Caregiver-Assistant/agent/conversation"
	embeddingx "github.com/tanpawarit/Chative-Caregiver-Assistant/agent/embedding"
	llmx "github.com/tanpawarit/Chative-Caregiver-Assistant/agent/llm"
	promptx "github.com/tanpawarit/Chative-Caregiver-Assistant/agent/prompt"
	responderx "github.com/tanpawarit/Chative-Caregiver-Assistant/agent/responder"
	routerx "github.com/tanpawarit/Chative-Caregiver-Assistant/agent/router"
	synthesisx "github.com/tanpawarit/Chative-Caregiver-Assistant/agent/synthesis"
	vectorindexx "github.com/tanpawarit/Chative-Caregiver-Assistant/agent/vectorindex"
	websearchx "github.com/tanpawarit/Chative-Caregiver-Assistant/agent/websearch"
	bingx "github.com/tanpawarit/Chative-Caregiver-Assistant/pkg/bing"
	configx "github.com/tanpawarit/Chative-Caregiver-Assistant/pkg/config"
	metricsx "github.com/tanpawarit/Chative-Caregiver-Assistant/pkg/metrics"
	openrouterx "github.com/tanpawarit/Chative-Caregiver-Assistant/pkg/openrouter"
	pineconex "github.com/tanpawarit/Chative-Caregiver-Assistant/pkg/pinecone"
)

const (
	StoreMemory   = "memory"
	StoreSQLite   = "sqlite"
	StorePostgres = "postgres"
	StoreUpstash  = "upstash"

	VectorPinecone = "pinecone"
	VectorPGVector = "pgvector"
	VectorMemory   = "memory"

	EmbeddingOpenAI     = "openai"
	EmbeddingOpenRouter = "openrouter"
	EmbeddingGenAI      = "genai"
)

type Config struct {
	HTTPAddr          string        `envconfig:"HTTP_ADDR" default:":8080"`
	StoreDriver       string        `envconfig:"STORE_DRIVER" default:"sqlite"`
	VectorDriver      string        `envconfig:"VECTOR_DRIVER" default:"pinecone"`
	EmbeddingProvider string        `envconfig:"EMBEDDING_PROVIDER" default:"openai"`
	DocumentNamespace string        `envconfig:"DOCUMENT_NAMESPACE"`
	ResponderTimeout  time.Duration `envconfig:"RESPONDER_TIMEOUT" default:"20s"`
	MetricsNamespace  string        `envconfig:"METRICS_NAMESPACE" default:"caregiver"`
}

func (c Config) Validate() error {
	if !oneOf(c.StoreDriver, StoreMemory, StoreSQLite, StorePostgres, StoreUpstash) {
		return fmt.Errorf("%w: unsupported store driver=%q", contractx.ErrValidation, c.StoreDriver)
	}
	if !oneOf(c.VectorDriver, VectorPinecone, VectorPGVector, VectorMemory) {
		return fmt.Errorf("%w: unsupported vector driver=%q", contractx.ErrValidation, c.VectorDriver)
	}
	if !oneOf(c.EmbeddingProvider, EmbeddingOpenAI, EmbeddingOpenRouter, EmbeddingGenAI) {
		return fmt.Errorf("%w: unsupported embedding provider=%q", contractx.ErrValidation, c.EmbeddingProvider)
	}
	return nil
}

func oneOf(v string, options ...string) bool {
	v = strings.ToLower(strings.TrimSpace(v))
	for _, o := range options {
		if v == o {
			return true
		}
	}
	return false
}

// App owns every long lived client. Close releases them in reverse order.
type App struct {
	Config    Config
	Assistant *assistantx.Assistant
	Metrics   *metricsx.Metrics
	Registry  *prometheus.Registry

	closers []func() error
}

func (a *App) Close() error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	a.closers = nil
	return errors.Join(errs...)
}

// Build loads every component config from the environment and wires the
// assistant.
func Build(ctx context.Context) (*App, error) {
	cfg, err := configx.New[Config]("")
	if err != nil {
		return nil, err
	}

	a := &App{Config: *cfg, Registry: prometheus.NewRegistry()}
	a.Registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	a.Metrics = metricsx.New(a.Registry, cfg.MetricsNamespace)

	if err := a.build(ctx); err != nil {
		_ = a.Close()
		return nil, err
	}
	return a, nil
}

func (a *App) build(ctx context.Context) error {
	llmCfg, err := configx.New[llmx.Config]("OPENROUTER")
	if err != nil {
		return err
	}
	chatModel, err := llmCfg.NewChatModel(ctx)
	if err != nil {
		return err
	}
	synth, err := synthesisx.New(ctx, chatModel, promptx.LoadPromptSet().Caregiver)
	if err != nil {
		return err
	}

	store, err := a.openStore(ctx)
	if err != nil {
		return err
	}

	embedder, err := a.newEmbedder(ctx, *llmCfg)
	if err != nil {
		return err
	}
	index, namespace, err := a.openIndex(ctx)
	if err != nil {
		return err
	}

	bingCfg, err := configx.New[bingx.Config]("WEB_SEARCH")
	if err != nil {
		return err
	}
	bingClient, err := bingx.NewClient(*bingCfg)
	if err != nil {
		return err
	}

	routerCfg, err := configx.New[routerx.Config]("ROUTER")
	if err != nil {
		return err
	}

	stage := responderx.NewStage(map[contractx.Capability]contractx.Responder{
		contractx.CapabilityDocument:   responderx.NewDocument(embedder, index, namespace),
		contractx.CapabilityWeb:        responderx.NewWeb(websearchx.NewBing(bingClient)),
		contractx.CapabilityCalculator: responderx.NewCalculator(),
	},
		responderx.WithTimeout(a.Config.ResponderTimeout),
		responderx.WithObserver(responderx.ObserverFunc(func(o responderx.Observation) {
			a.Metrics.RecordResponder(string(o.Capability), string(o.Outcome), o.Duration)
		})),
	)

	assistantCfg, err := configx.New[assistantx.Config]("")
	if err != nil {
		return err
	}
	a.Assistant, err = assistantx.New(assistantx.Deps{
		Store:       store,
		Router:      routerx.New(*routerCfg),
		Invoker:     stage,
		Synthesizer: synth,
		OnSynthesis: a.Metrics.RecordSynthesis,
	}, *assistantCfg)
	if err != nil {
		return err
	}

	log.Info().
		Str("store", a.Config.StoreDriver).
		Str("vector", a.Config.VectorDriver).
		Str("embedding", a.Config.EmbeddingProvider).
		Msg("assistant ready")
	return nil
}

func (a *App) openStore(ctx context.Context) (contractx.ConversationStore, error) {
	switch strings.ToLower(strings.TrimSpace(a.Config.StoreDriver)) {
	case StoreMemory:
		return conversationx.NewMemoryStore(), nil
	case StorePostgres:
		cfg, err := configx.New[conversationx.PostgresConfig]("POSTGRES")
		if err != nil {
			return nil, err
		}
		store, err := conversationx.OpenPostgres(ctx, *cfg)
		if err != nil {
			return nil, err
		}
		a.closers = append(a.closers, store.Close)
		return store, nil
	case StoreUpstash:
		cfg, err := configx.New[conversationx.UpstashRedisConfig]("UPSTASH_REDIS")
		if err != nil {
			return nil, err
		}
		return conversationx.NewUpstashRedisStore(*cfg)
	default:
		cfg, err := configx.New[conversationx.SQLiteConfig]("SQLITE")
		if err != nil {
			return nil, err
		}
		store, err := conversationx.OpenSQLite(ctx, *cfg)
		if err != nil {
			return nil, err
		}
		a.closers = append(a.closers, store.Close)
		return store, nil
	}
}

func (a *App) newEmbedder(ctx context.Context, llmCfg llmx.Config) (contractx.Embedder, error) {
	switch strings.ToLower(strings.TrimSpace(a.Config.EmbeddingProvider)) {
	case EmbeddingGenAI:
		cfg, err := configx.New[embeddingx.GenAIConfig]("GENAI")
		if err != nil {
			return nil, err
		}
		return embeddingx.NewGenAI(ctx, *cfg)
	case EmbeddingOpenRouter:
		client := openrouterx.NewClient(llmCfg.OpenRouterFor())
		if client == nil {
			return nil, fmt.Errorf("%w: openrouter api key is required", contractx.ErrValidation)
		}
		cfg, err := configx.New[embeddingModelConfig]("OPENROUTER")
		if err != nil {
			return nil, err
		}
		return embeddingx.NewOpenAIFromClient(*client, cfg.Model, cfg.Dimensions), nil
	default:
		cfg, err := configx.New[embeddingx.OpenAIConfig]("OPENAI")
		if err != nil {
			return nil, err
		}
		return embeddingx.NewOpenAI(*cfg)
	}
}

type embeddingModelConfig struct {
	Model      string `split_words:"true" envconfig:"EMBEDDING_MODEL" default:"openai/text-embedding-3-small"`
	Dimensions int64  `split_words:"true" envconfig:"EMBEDDING_DIMENSIONS"`
}

func (a *App) openIndex(ctx context.Context) (contractx.VectorIndex, string, error) {
	namespace := strings.TrimSpace(a.Config.DocumentNamespace)

	switch strings.ToLower(strings.TrimSpace(a.Config.VectorDriver)) {
	case VectorMemory:
		log.Warn().Msg("memory vector index starts empty")
		return vectorindexx.NewMemory(), namespace, nil
	case VectorPGVector:
		cfg, err := configx.New[vectorindexx.PGVectorConfig]("PGVECTOR")
		if err != nil {
			return nil, "", err
		}
		idx, err := vectorindexx.OpenPGVector(ctx, *cfg)
		if err != nil {
			return nil, "", err
		}
		a.closers = append(a.closers, func() error {
			idx.Close()
			return nil
		})
		return idx, namespace, nil
	default:
		cfg, err := configx.New[pineconex.Config]("PINECONE")
		if err != nil {
			return nil, "", err
		}
		client, err := pineconex.NewClient(*cfg)
		if err != nil {
			return nil, "", err
		}
		a.closers = append(a.closers, client.Close)
		if namespace == "" {
			namespace = strings.TrimSpace(cfg.Namespace)
		}
		return vectorindexx.NewPinecone(client), namespace, nil
	}
}
