package conversation

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	contractx "github.com/tanpawarit/Chative-Caregiver-Assistant/agent/contract"
)

const (
	defaultStoreKeyPrefix = "caregiver:conversation:"
	defaultStoreTTL       = 30 * 24 * time.Hour
	maxResponseSizeBytes  = 2 << 20
)

// StoreOption customizes UpstashRedisStore.
type StoreOption func(*UpstashRedisStore)

func WithKeyPrefix(prefix string) StoreOption {
	return func(s *UpstashRedisStore) {
		trimmed := strings.TrimSpace(prefix)
		if trimmed != "" {
			s.keyPrefix = trimmed
		}
	}
}

func WithTTL(ttl time.Duration) StoreOption {
	return func(s *UpstashRedisStore) {
		s.ttl = ttl
	}
}

func WithHTTPClient(client *http.Client) StoreOption {
	return func(s *UpstashRedisStore) {
		if client != nil {
			s.httpClient = client
		}
	}
}

// UpstashRedisStore persists conversations in Upstash Redis via REST. Each
// conversation is a metadata key plus a list of JSON encoded turns.
type UpstashRedisStore struct {
	baseURL    string
	token      string
	httpClient *http.Client
	keyPrefix  string
	ttl        time.Duration
	now        func() time.Time
}

var _ contractx.ConversationStore = (*UpstashRedisStore)(nil)

type redisRESTResponse struct {
	Result json.RawMessage `json:"result"`
	Error  string          `json:"error"`
}

type UpstashRedisConfig struct {
	URL     string        `envconfig:"URL" split_words:"true" required:"true"`
	Token   string        `envconfig:"TOKEN" split_words:"true" required:"true"`
	Timeout time.Duration `envconfig:"TIMEOUT" split_words:"true" default:"10s"`
}

type conversationMeta struct {
	UserID    string    `json:"user_id"`
	StartTime time.Time `json:"start_time"`
}

func NewUpstashRedisStore(cfg UpstashRedisConfig, opts ...StoreOption) (*UpstashRedisStore, error) {
	baseURL := strings.TrimRight(strings.TrimSpace(cfg.URL), "/")
	if baseURL == "" {
		return nil, errors.New("upstash redis url is required")
	}
	if _, err := url.ParseRequestURI(baseURL); err != nil {
		return nil, fmt.Errorf("invalid redis rest url: %w", err)
	}

	token := strings.TrimSpace(cfg.Token)
	if token == "" {
		return nil, errors.New("upstash redis token is required")
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	store := &UpstashRedisStore{
		baseURL: baseURL,
		token:   token,
		httpClient: &http.Client{
			Timeout: timeout,
		},
		keyPrefix: defaultStoreKeyPrefix,
		ttl:       defaultStoreTTL,
		now:       time.Now,
	}

	for _, opt := range opts {
		if opt != nil {
			opt(store)
		}
	}
	if store.ttl < 0 {
		return nil, errors.New("ttl must be >= 0")
	}

	return store, nil
}

func (s *UpstashRedisStore) CreateConversation(ctx context.Context, userID string) (string, error) {
	id := newConversationID()
	payload, err := json.Marshal(conversationMeta{
		UserID:    normalizeUserID(userID),
		StartTime: s.now().UTC(),
	})
	if err != nil {
		return "", fmt.Errorf("marshal conversation: %w", err)
	}

	cmd := []any{"SET", s.metaKey(id), string(payload), "NX"}
	if s.ttl > 0 {
		cmd = append(cmd, "EX", ttlSeconds(s.ttl))
	}
	if _, err := s.exec(ctx, cmd); err != nil {
		return "", err
	}
	return id, nil
}

func (s *UpstashRedisStore) AppendMessage(ctx context.Context, conversationID string, turn contractx.Turn) error {
	id, err := validateConversationID(conversationID)
	if err != nil {
		return err
	}
	turn, err = prepareTurn(turn, s.now)
	if err != nil {
		return err
	}
	if err := s.ensureConversation(ctx, id); err != nil {
		return err
	}

	payload, err := json.Marshal(turn)
	if err != nil {
		return fmt.Errorf("marshal turn: %w", err)
	}
	if _, err := s.exec(ctx, []any{"RPUSH", s.messagesKey(id), string(payload)}); err != nil {
		return err
	}

	if s.ttl > 0 {
		for _, key := range []string{s.metaKey(id), s.messagesKey(id)} {
			if _, err := s.exec(ctx, []any{"EXPIRE", key, ttlSeconds(s.ttl)}); err != nil {
				return err
			}
		}
	}
	return nil
}

func (s *UpstashRedisStore) GetHistory(ctx context.Context, conversationID string) ([]contractx.Turn, error) {
	id, err := validateConversationID(conversationID)
	if err != nil {
		return nil, err
	}
	if err := s.ensureConversation(ctx, id); err != nil {
		return nil, err
	}

	resp, err := s.exec(ctx, []any{"LRANGE", s.messagesKey(id), 0, -1})
	if err != nil {
		return nil, err
	}

	var encoded []string
	result := bytes.TrimSpace(resp.Result)
	if len(result) > 0 && !bytes.Equal(result, []byte("null")) {
		if err := json.Unmarshal(result, &encoded); err != nil {
			return nil, fmt.Errorf("decode message list: %w", err)
		}
	}

	turns := make([]contractx.Turn, 0, len(encoded))
	for _, raw := range encoded {
		var turn contractx.Turn
		if err := json.Unmarshal([]byte(raw), &turn); err != nil {
			return nil, fmt.Errorf("unmarshal turn: %w", err)
		}
		turns = append(turns, turn)
	}
	orderTurns(turns)
	return turns, nil
}

func (s *UpstashRedisStore) ensureConversation(ctx context.Context, id string) error {
	resp, err := s.exec(ctx, []any{"EXISTS", s.metaKey(id)})
	if err != nil {
		return err
	}
	var n int
	if err := json.Unmarshal(bytes.TrimSpace(resp.Result), &n); err != nil {
		return fmt.Errorf("decode exists result: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("%w: id=%s", contractx.ErrConversationNotFound, id)
	}
	return nil
}

func (s *UpstashRedisStore) metaKey(id string) string {
	return s.keyPrefix + id
}

func (s *UpstashRedisStore) messagesKey(id string) string {
	return s.keyPrefix + id + ":messages"
}

func (s *UpstashRedisStore) exec(ctx context.Context, command []any) (*redisRESTResponse, error) {
	if len(command) == 0 {
		return nil, errors.New("empty redis command")
	}

	body, err := json.Marshal(command)
	if err != nil {
		return nil, fmt.Errorf("marshal redis command: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.baseURL, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("build redis request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+s.token)
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("execute redis request: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSizeBytes))
	if err != nil {
		return nil, fmt.Errorf("read redis response: %w", err)
	}

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		return nil, &contractx.StatusError{Service: "redis", StatusCode: resp.StatusCode, Body: string(raw)}
	}

	var parsed redisRESTResponse
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return nil, fmt.Errorf("decode redis response: %w", err)
	}
	if parsed.Error != "" {
		return nil, errors.New(parsed.Error)
	}
	return &parsed, nil
}

func ttlSeconds(ttl time.Duration) int64 {
	seconds := ttl / time.Second
	if seconds <= 0 {
		return 1
	}
	if ttl%time.Second != 0 {
		seconds++
	}
	return int64(seconds)
}
