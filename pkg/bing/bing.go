package bing

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
)

const (
	DefaultEndpoint      = "https://api.bing.microsoft.com/v7.0/search"
	maxResponseSizeBytes = 2 << 20
)

type Config struct {
	APIKey   string        `envconfig:"API_KEY" split_words:"true" required:"true"`
	Endpoint string        `envconfig:"ENDPOINT" split_words:"true" default:"https://api.bing.microsoft.com/v7.0/search"`
	Count    int           `envconfig:"COUNT" split_words:"true"`
	Market   string        `envconfig:"MARKET" split_words:"true"`
	Timeout  time.Duration `envconfig:"TIMEOUT" split_words:"true" default:"10s"`
}

// Client calls the Bing Web Search v7 API.
type Client struct {
	endpoint   string
	apiKey     string
	count      int
	market     string
	httpClient *http.Client
}

type WebPage struct {
	Name    string `json:"name"`
	URL     string `json:"url"`
	Snippet string `json:"snippet"`
}

type SearchResponse struct {
	WebPages struct {
		Value []WebPage `json:"value"`
	} `json:"webPages"`
}

// StatusError reports a non-200 response from Bing.
type StatusError struct {
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("bing http status=%d body=%s", e.StatusCode, e.Body)
}

func NewClient(cfg Config) (*Client, error) {
	endpoint := strings.TrimSpace(cfg.Endpoint)
	if endpoint == "" {
		endpoint = DefaultEndpoint
	}
	if _, err := url.ParseRequestURI(endpoint); err != nil {
		return nil, fmt.Errorf("invalid bing endpoint: %w", err)
	}

	apiKey := strings.TrimSpace(cfg.APIKey)
	if apiKey == "" {
		return nil, errors.New("bing api key is required")
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	return &Client{
		endpoint: endpoint,
		apiKey:   apiKey,
		count:    cfg.Count,
		market:   strings.TrimSpace(cfg.Market),
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}, nil
}

func MustNew(cfg Config) *Client {
	client, err := NewClient(cfg)
	if err != nil {
		panic(err)
	}
	return client
}

// Search returns the web pages for query in ranking order.
func (c *Client) Search(ctx context.Context, query string) ([]WebPage, error) {
	params := url.Values{}
	params.Set("q", query)
	params.Set("textDecorations", "true")
	params.Set("textFormat", "HTML")
	if c.count > 0 {
		params.Set("count", strconv.Itoa(c.count))
	}
	if c.market != "" {
		params.Set("mkt", c.market)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.endpoint+"?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("build bing request: %w", err)
	}
	req.Header.Set("Ocp-Apim-Subscription-Key", c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("execute bing request: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSizeBytes))
	if err != nil {
		return nil, fmt.Errorf("read bing response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, &StatusError{StatusCode: resp.StatusCode, Body: string(raw)}
	}

	var parsed SearchResponse
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return nil, fmt.Errorf("decode bing response: %w", err)
	}
	return parsed.WebPages.Value, nil
}
