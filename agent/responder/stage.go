package responder

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"
	contractx "github.com/tanpawarit/Chative-Caregiver-Assistant/agent/contract"
	"golang.org/x/sync/errgroup"
)

const DefaultTimeout = 20 * time.Second

type Outcome string

const (
	OutcomeOK      Outcome = "ok"
	OutcomeSkipped Outcome = "skipped"
	OutcomeMissing Outcome = "missing"
	OutcomeTimeout Outcome = "timeout"
	OutcomePanic   Outcome = "panic"
	OutcomeCancel  Outcome = "canceled"
)

type Observation struct {
	Capability contractx.Capability
	Outcome    Outcome
	Duration   time.Duration
}

// Observer receives one observation per capability and request.
// Implementations must be safe for concurrent use.
type Observer interface {
	ObserveResponder(Observation)
}

type ObserverFunc func(Observation)

func (f ObserverFunc) ObserveResponder(o Observation) {
	f(o)
}

type noopObserver struct{}

func (noopObserver) ObserveResponder(Observation) {}

type Option func(*Stage)

// WithTimeout bounds each responder call. Zero or negative disables it.
func WithTimeout(d time.Duration) Option {
	return func(s *Stage) {
		s.timeout = d
	}
}

func WithObserver(o Observer) Option {
	return func(s *Stage) {
		if o != nil {
			s.observer = o
		}
	}
}

// Stage fans a query out to the responders selected by a routing decision.
type Stage struct {
	table    map[contractx.Capability]contractx.Responder
	timeout  time.Duration
	observer Observer
}

func NewStage(table map[contractx.Capability]contractx.Responder, opts ...Option) *Stage {
	s := &Stage{
		table:    make(map[contractx.Capability]contractx.Responder, len(table)),
		timeout:  DefaultTimeout,
		observer: noopObserver{},
	}
	for c, r := range table {
		if r != nil {
			s.table[c] = r
		}
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// InvokeAll runs every flagged responder concurrently and waits for all of
// them. The result always holds every capability; unflagged ones are "".
//
// Responders receive query.Text only. Role, child details and notes shape the
// synthesis system prompt instead; keyword extraction in the document and
// calculator responders expects the bare question.
func (s *Stage) InvokeAll(ctx context.Context, query contractx.Query, decision contractx.RoutingDecision) contractx.Outputs {
	results := make([]contractx.ResponderOutput, len(contractx.Capabilities))

	var g errgroup.Group
	for i, c := range contractx.Capabilities {
		if !decision.Enabled(c) {
			s.observer.ObserveResponder(Observation{Capability: c, Outcome: OutcomeSkipped})
			continue
		}
		r, ok := s.table[c]
		if !ok {
			log.Warn().Str("capability", string(c)).Msg("no responder registered for flagged capability")
			s.observer.ObserveResponder(Observation{Capability: c, Outcome: OutcomeMissing})
			continue
		}

		g.Go(func() error {
			results[i] = contractx.ResponderOutput{Capability: c, Text: s.invoke(ctx, c, r, query.Text)}
			return nil
		})
	}
	_ = g.Wait()

	return contractx.Collect(results...)
}

type callResult struct {
	text     string
	panicked bool
}

func (s *Stage) invoke(ctx context.Context, c contractx.Capability, r contractx.Responder, prompt string) string {
	start := time.Now()

	var (
		callCtx context.Context
		cancel  context.CancelFunc
	)
	if s.timeout > 0 {
		callCtx, cancel = context.WithTimeout(ctx, s.timeout)
	} else {
		callCtx, cancel = context.WithCancel(ctx)
	}
	defer cancel()

	done := make(chan callResult, 1)
	go func() {
		defer func() {
			if p := recover(); p != nil {
				done <- callResult{text: fmt.Sprintf("Error in %s: %v", c, p), panicked: true}
			}
		}()
		done <- callResult{text: r.Respond(callCtx, prompt)}
	}()

	var (
		text    string
		outcome Outcome
	)
	select {
	case res := <-done:
		text, outcome = res.text, OutcomeOK
		if res.panicked {
			outcome = OutcomePanic
		}
	case <-callCtx.Done():
		if errors.Is(callCtx.Err(), context.DeadlineExceeded) && ctx.Err() == nil {
			text, outcome = fmt.Sprintf("Error in %s: timed out after %s", c, s.timeout), OutcomeTimeout
		} else {
			text, outcome = fmt.Sprintf("Error in %s: %v", c, ctx.Err()), OutcomeCancel
		}
	}

	elapsed := time.Since(start)
	s.observer.ObserveResponder(Observation{Capability: c, Outcome: outcome, Duration: elapsed})

	evt := log.Debug()
	if outcome != OutcomeOK {
		evt = log.Warn()
	}
	evt.Str("capability", string(c)).
		Str("outcome", string(outcome)).
		Dur("duration", elapsed).
		Msg("responder finished")
	return text
}
