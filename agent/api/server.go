package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog/log"
	contractx "github.com/tanpawarit/Chative-Caregiver-Assistant/agent/contract"
	metricsx "github.com/tanpawarit/Chative-Caregiver-Assistant/pkg/metrics"
)

const maxRequestBodyBytes = 1 << 20

type Assistant interface {
	HandleMessage(ctx context.Context, q contractx.Query) (contractx.Reply, error)
	History(ctx context.Context, conversationID string) ([]contractx.Turn, error)
}

type ChatRequest struct {
	Query        string `json:"query"`
	UserID       string `json:"user_id,omitempty"`
	UserRole     string `json:"user_role,omitempty"`
	ChildName    string `json:"child_name,omitempty"`
	ChildInkling string `json:"child_inkling,omitempty"`
	Context      string `json:"context,omitempty"`
	ThreadID     string `json:"thread_id,omitempty"`
}

func (r ChatRequest) toQuery() contractx.Query {
	return contractx.Query{
		Text:           r.Query,
		UserID:         r.UserID,
		Role:           contractx.Role(r.UserRole),
		ChildName:      r.ChildName,
		ChildInkling:   r.ChildInkling,
		Context:        r.Context,
		ConversationID: r.ThreadID,
	}
}

type ChatResponse struct {
	Response       string `json:"response"`
	ConversationID string `json:"conversation_id"`
}

type HistoryResponse struct {
	ConversationID string           `json:"conversation_id"`
	Messages       []contractx.Turn `json:"messages"`
}

type errorResponse struct {
	Error  string `json:"error"`
	Detail string `json:"detail"`
}

type Server struct {
	router    *chi.Mux
	assistant Assistant
}

// NewServer wires the HTTP routes. metrics and gatherer may be nil, in which
// case /metrics is not served.
func NewServer(assistant Assistant, metrics *metricsx.Metrics, gatherer prometheus.Gatherer) *Server {
	router := chi.NewRouter()
	router.Use(middleware.RequestID)
	router.Use(requestLogger)
	router.Use(middleware.Recoverer)
	if metrics != nil {
		router.Use(metrics.Middleware(routePattern))
	}

	s := &Server{
		router:    router,
		assistant: assistant,
	}

	router.Get("/health", s.health)
	router.Post("/chat", s.chat)
	router.Get("/conversations/{id}/messages", s.history)
	if gatherer != nil {
		router.Method(http.MethodGet, "/metrics", metricsx.Handler(gatherer))
	}

	return s
}

func (s *Server) Handler() http.Handler {
	return s.router
}

// Run serves on addr until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("addr", addr).Msg("api server starting")
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown api server: %w", err)
	}
	return nil
}

func (s *Server) health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) chat(w http.ResponseWriter, r *http.Request) {
	var req ChatRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxRequestBodyBytes)).Decode(&req); err != nil {
		writeError(w, fmt.Errorf("%w: invalid JSON: %v", contractx.ErrValidation, err))
		return
	}

	reply, err := s.assistant.HandleMessage(r.Context(), req.toQuery())
	if err != nil {
		log.Error().Err(err).Str("conversation_id", req.ThreadID).Msg("chat request failed")
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, ChatResponse{
		Response:       reply.Text,
		ConversationID: reply.ConversationID,
	})
}

func (s *Server) history(w http.ResponseWriter, r *http.Request) {
	id := strings.TrimSpace(chi.URLParam(r, "id"))
	turns, err := s.assistant.History(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}
	if turns == nil {
		turns = []contractx.Turn{}
	}
	writeJSON(w, http.StatusOK, HistoryResponse{ConversationID: id, Messages: turns})
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, contractx.ErrValidation):
		return http.StatusBadRequest
	case errors.Is(err, contractx.ErrConversationNotFound):
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

func writeError(w http.ResponseWriter, err error) {
	writeJSON(w, statusFor(err), errorResponse{Error: "request failed", Detail: err.Error()})
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		log.Warn().Err(err).Msg("encode response")
	}
}

func routePattern(r *http.Request) string {
	if rctx := chi.RouteContext(r.Context()); rctx != nil {
		return rctx.RoutePattern()
	}
	return ""
}

func requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		log.Info().
			Str("request_id", middleware.GetReqID(r.Context())).
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", ww.Status()).
			Int("bytes", ww.BytesWritten()).
			Dur("duration", time.Since(start)).
			Msg("http request")
	})
}
