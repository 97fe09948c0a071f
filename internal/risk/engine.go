package risk

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/Jainesh24/cwi-backend/internal/contracts"
	"github.com/Jainesh24/cwi-backend/internal/narrative"
)

const DefaultHistoryWindow = 7 * 24 * time.Hour

// BaselineStore returns nil, nil when no baseline is configured.
type BaselineStore interface {
	FindBaseline(ctx context.Context, tenantID string, department contracts.Department) (*contracts.Baseline, error)
}

type HistoryStore interface {
	FindRecentEvents(ctx context.Context, tenantID string, department contracts.Department, since time.Time) ([]contracts.WasteEvent, error)
}

type Observer interface {
	ObserveAnalysis(score int, anomaly bool)
}

// Engine scores events and attaches a narrative. It reads the stores but
// owns no mutable state, so one Engine serves concurrent requests.
type Engine struct {
	baselines BaselineStore
	history   HistoryStore
	scorer    *Scorer
	narrator  narrative.Generator
	window    time.Duration
	now       func() time.Time
	logger    *zap.Logger
	observer  Observer
}

type Option func(*Engine)

func WithHistoryWindow(d time.Duration) Option {
	return func(e *Engine) {
		if d > 0 {
			e.window = d
		}
	}
}

func WithClock(now func() time.Time) Option {
	return func(e *Engine) { e.now = now }
}

func WithLogger(logger *zap.Logger) Option {
	return func(e *Engine) { e.logger = logger }
}

func WithObserver(o Observer) Option {
	return func(e *Engine) { e.observer = o }
}

func NewEngine(baselines BaselineStore, history HistoryStore, scorer *Scorer, narrator narrative.Generator, opts ...Option) *Engine {
	if narrator == nil {
		narrator = narrative.Template{}
	}
	e := &Engine{
		baselines: baselines,
		history:   history,
		scorer:    scorer,
		narrator:  narrator,
		window:    DefaultHistoryWindow,
		now:       func() time.Time { return time.Now().UTC() },
		logger:    zap.NewNop(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Analyze produces the AnalysisResult for one event. Store failures abort
// the analysis; narrative failures never do.
func (e *Engine) Analyze(ctx context.Context, event contracts.WasteEvent, tenantID string) (contracts.AnalysisResult, error) {
	event.TenantID = tenantID

	var (
		baseline *contracts.Baseline
		history  []contracts.WasteEvent
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		b, err := e.baselines.FindBaseline(gctx, tenantID, event.Department)
		if err != nil {
			return fmt.Errorf("load baseline: %w", err)
		}
		baseline = b
		return nil
	})
	g.Go(func() error {
		h, err := e.history.FindRecentEvents(gctx, tenantID, event.Department, e.now().Add(-e.window))
		if err != nil {
			return fmt.Errorf("load history: %w", err)
		}
		history = h
		return nil
	})
	if err := g.Wait(); err != nil {
		return contracts.AnalysisResult{}, err
	}

	assessment := e.scorer.Score(event, baseline, history)

	in := narrative.Input{
		Event:    event,
		Score:    assessment.Score,
		Factors:  assessment.Factors,
		Baseline: baseline,
	}
	story, err := e.narrator.Generate(ctx, in)
	if err != nil || story.Assessment == "" || story.RecommendedAction == "" {
		e.logger.Warn("narrator returned no narrative, using template",
			zap.String("tenant_id", tenantID), zap.Error(err))
		story = narrative.Fallback(in)
	}

	anomaly := IsAnomaly(assessment.Score)
	if e.observer != nil {
		e.observer.ObserveAnalysis(assessment.Score, anomaly)
	}

	e.logger.Debug("event analyzed",
		zap.String("tenant_id", tenantID),
		zap.String("department", string(event.Department)),
		zap.Int("score", assessment.Score),
		zap.Bool("anomaly", anomaly),
		zap.Int("history_events", len(history)),
		zap.String("narrative_source", story.Source),
	)

	return contracts.AnalysisResult{
		RiskScore:         assessment.Score,
		AnomalyDetected:   anomaly,
		Factors:           assessment.Factors,
		Assessment:        story.Assessment,
		RecommendedAction: story.RecommendedAction,
		AlertMessage:      story.AlertMessage,
		NarrativeSource:   story.Source,
	}, nil
}
