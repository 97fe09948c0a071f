package narrative

import (
	"context"
	"errors"
	"time"

	"github.com/sashabaranov/go-openai"
	"go.uber.org/zap"

	"github.com/Jainesh24/cwi-backend/internal/contracts"
)

const DefaultTimeout = 10 * time.Second

// Failure reasons reported to the Observer.
const (
	ReasonDisabled = "disabled"
	ReasonTimeout  = "timeout"
	ReasonStatus   = "status"
	ReasonSchema   = "schema"
	ReasonError    = "error"
)

type Observer interface {
	ObserveNarrative(source, reason string)
}

// Resilient calls the primary generator once under a fixed deadline and
// returns the Template narrative on any failure. It never returns an error.
type Resilient struct {
	primary  Generator
	fallback Template
	timeout  time.Duration
	logger   *zap.Logger
	observer Observer
}

type ResilientOption func(*Resilient)

func WithLogger(logger *zap.Logger) ResilientOption {
	return func(r *Resilient) { r.logger = logger }
}

func WithObserver(o Observer) ResilientOption {
	return func(r *Resilient) { r.observer = o }
}

// NewResilient wraps primary. A nil primary always uses the template.
func NewResilient(primary Generator, timeout time.Duration, opts ...ResilientOption) *Resilient {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	r := &Resilient{
		primary: primary,
		timeout: timeout,
		logger:  zap.NewNop(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

func (r *Resilient) Generate(ctx context.Context, in Input) (Narrative, error) {
	if r.primary == nil {
		return r.useFallback(ctx, in, ReasonDisabled, nil)
	}

	callCtx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	type outcome struct {
		n   Narrative
		err error
	}
	done := make(chan outcome, 1)
	go func() {
		n, err := r.primary.Generate(callCtx, in)
		done <- outcome{n: n, err: err}
	}()

	var res outcome
	select {
	case res = <-done:
	case <-callCtx.Done():
		res = outcome{err: callCtx.Err()}
	}

	if res.err != nil {
		return r.useFallback(ctx, in, classify(res.err), res.err)
	}
	if res.n.Assessment == "" || res.n.RecommendedAction == "" {
		return r.useFallback(ctx, in, ReasonSchema, ErrMalformedResponse)
	}

	res.n.Source = contracts.NarrativeLLM
	r.observe(contracts.NarrativeLLM, "")
	return res.n, nil
}

func (r *Resilient) useFallback(ctx context.Context, in Input, reason string, cause error) (Narrative, error) {
	if cause != nil {
		r.logger.Warn("narrative generation failed, using template",
			zap.String("reason", reason),
			zap.String("tenant_id", in.Event.TenantID),
			zap.String("department", string(in.Event.Department)),
			zap.Error(cause),
		)
	}
	r.observe(contracts.NarrativeFallback, reason)
	return r.fallback.Generate(ctx, in)
}

func (r *Resilient) observe(source, reason string) {
	if r.observer != nil {
		r.observer.ObserveNarrative(source, reason)
	}
}

func classify(err error) string {
	var apiErr *openai.APIError
	var reqErr *openai.RequestError
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return ReasonTimeout
	case errors.As(err, &apiErr), errors.As(err, &reqErr):
		return ReasonStatus
	case errors.Is(err, ErrMalformedResponse), errors.Is(err, ErrEmptyResponse):
		return ReasonSchema
	default:
		return ReasonError
	}
}
