package pinecone

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	sdk "github.com/pinecone-io/go-pinecone/v3/pinecone"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

type Config struct {
	APIKey    string        `envconfig:"API_KEY" split_words:"true" required:"true"`
	IndexHost string        `envconfig:"INDEX_HOST" split_words:"true" required:"true"`
	Namespace string        `envconfig:"NAMESPACE" split_words:"true"`
	SourceTag string        `envconfig:"SOURCE_TAG" split_words:"true" default:"caregiver_assistant"`
	Timeout   time.Duration `envconfig:"TIMEOUT" split_words:"true" default:"10s"`
}

type QueryRequest struct {
	Vector          []float32
	TopK            int
	Namespace       string
	IncludeMetadata bool
	IncludeValues   bool
}

type Match struct {
	ID       string
	Score    float64
	Metadata map[string]any
}

type QueryResponse struct {
	Matches   []Match
	Namespace string
}

// StatusError reports a failed data plane call. StatusCode is the HTTP
// equivalent of the gRPC status code.
type StatusError struct {
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("pinecone status=%d message=%s", e.StatusCode, e.Body)
}

type indexConn interface {
	QueryByVectorValues(ctx context.Context, in *sdk.QueryByVectorValuesRequest) (*sdk.QueryVectorsResponse, error)
	Close() error
}

type dialFunc func(namespace string) (indexConn, error)

// Client queries one Pinecone index. An index connection is opened on first
// use for each namespace and reused afterwards.
type Client struct {
	dial             dialFunc
	timeout          time.Duration
	defaultNamespace string

	mu    sync.Mutex
	conns map[string]indexConn
}

func NewClient(cfg Config) (*Client, error) {
	host := strings.TrimRight(strings.TrimSpace(cfg.IndexHost), "/")
	if host == "" {
		return nil, errors.New("pinecone index host is required")
	}
	apiKey := strings.TrimSpace(cfg.APIKey)
	if apiKey == "" {
		return nil, errors.New("pinecone api key is required")
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	pc, err := sdk.NewClient(sdk.NewClientParams{
		ApiKey:     apiKey,
		SourceTag:  strings.TrimSpace(cfg.SourceTag),
		RestClient: &http.Client{Timeout: timeout},
	})
	if err != nil {
		return nil, fmt.Errorf("pinecone: create client: %w", err)
	}

	dial := func(namespace string) (indexConn, error) {
		conn, err := pc.Index(sdk.NewIndexConnParams{Host: host, Namespace: namespace})
		if err != nil {
			return nil, err
		}
		return conn, nil
	}
	return newClient(dial, timeout, cfg.Namespace), nil
}

func MustNew(cfg Config) *Client {
	client, err := NewClient(cfg)
	if err != nil {
		panic(err)
	}
	return client
}

func newClient(dial dialFunc, timeout time.Duration, namespace string) *Client {
	return &Client{
		dial:             dial,
		timeout:          timeout,
		defaultNamespace: strings.TrimSpace(namespace),
		conns:            make(map[string]indexConn),
	}
}

func (c *Client) Query(ctx context.Context, req QueryRequest) (*QueryResponse, error) {
	if req.TopK <= 0 {
		return nil, errors.New("pinecone topK must be > 0")
	}

	namespace := strings.TrimSpace(req.Namespace)
	if namespace == "" {
		namespace = c.defaultNamespace
	}
	conn, err := c.conn(namespace)
	if err != nil {
		return nil, fmt.Errorf("pinecone: open index connection: %w", err)
	}

	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	resp, err := conn.QueryByVectorValues(ctx, &sdk.QueryByVectorValuesRequest{
		Vector:          req.Vector,
		TopK:            uint32(req.TopK),
		IncludeValues:   req.IncludeValues,
		IncludeMetadata: req.IncludeMetadata,
	})
	if err != nil {
		return nil, asStatusError(err)
	}
	return convertResponse(resp, namespace), nil
}

// Close releases every open index connection.
func (c *Client) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	var errs []error
	for ns, conn := range c.conns {
		if err := conn.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close namespace=%q: %w", ns, err))
		}
	}
	c.conns = make(map[string]indexConn)
	return errors.Join(errs...)
}

func (c *Client) conn(namespace string) (indexConn, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if conn, ok := c.conns[namespace]; ok {
		return conn, nil
	}
	conn, err := c.dial(namespace)
	if err != nil {
		return nil, err
	}
	c.conns[namespace] = conn
	return conn, nil
}

func convertResponse(resp *sdk.QueryVectorsResponse, namespace string) *QueryResponse {
	out := &QueryResponse{Namespace: namespace}
	if resp == nil {
		return out
	}
	for _, m := range resp.Matches {
		if m == nil || m.Vector == nil {
			continue
		}
		match := Match{ID: m.Vector.Id, Score: float64(m.Score)}
		if m.Vector.Metadata != nil {
			match.Metadata = m.Vector.Metadata.AsMap()
		}
		out.Matches = append(out.Matches, match)
	}
	return out
}

func asStatusError(err error) error {
	st, ok := status.FromError(err)
	if !ok || st.Code() == codes.OK {
		return fmt.Errorf("pinecone query: %w", err)
	}
	return &StatusError{StatusCode: httpStatus(st.Code()), Body: st.Message()}
}

func httpStatus(code codes.Code) int {
	switch code {
	case codes.InvalidArgument, codes.FailedPrecondition, codes.OutOfRange:
		return http.StatusBadRequest
	case codes.Unauthenticated:
		return http.StatusUnauthorized
	case codes.PermissionDenied:
		return http.StatusForbidden
	case codes.NotFound:
		return http.StatusNotFound
	case codes.AlreadyExists, codes.Aborted:
		return http.StatusConflict
	case codes.ResourceExhausted:
		return http.StatusTooManyRequests
	case codes.Canceled:
		return 499
	case codes.Unimplemented:
		return http.StatusNotImplemented
	case codes.Unavailable:
		return http.StatusServiceUnavailable
	case codes.DeadlineExceeded:
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}
