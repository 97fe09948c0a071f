// Package alerting turns anomalous analyzed events into alert records.
package alerting

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"

	"github.com/Jainesh24/cwi-backend/internal/contracts"
	"github.com/Jainesh24/cwi-backend/internal/mq"
)

const (
	OutcomeCreated  = "created"
	OutcomeCooldown = "cooldown"
	OutcomeSkipped  = "skipped"
	OutcomeFailed   = "failed"
)

type Store interface {
	HasOpenAlertInCooldown(ctx context.Context, tenantID string, department contracts.Department, category contracts.WasteCategory, cooldown time.Duration) (bool, error)
	InsertAlert(ctx context.Context, alert contracts.AlertRecord) error
}

type MessageReader interface {
	ReadMessage(ctx context.Context) (kafka.Message, error)
}

type Observer interface {
	ObserveAlert(outcome string)
}

type Processor struct {
	store    Store
	cooldown time.Duration
	logger   *zap.Logger
	observer Observer
}

func NewProcessor(store Store, cooldown time.Duration, logger *zap.Logger, observer Observer) *Processor {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Processor{store: store, cooldown: cooldown, logger: logger, observer: observer}
}

// Handle records an alert for an anomalous event unless one is already open
// for the same tenant, department and waste type within the cooldown.
func (p *Processor) Handle(ctx context.Context, ev contracts.WasteEvent) (string, error) {
	if ev.Analysis == nil || !ev.Analysis.AnomalyDetected {
		return OutcomeSkipped, nil
	}

	exists, err := p.store.HasOpenAlertInCooldown(ctx, ev.TenantID, ev.Department, ev.Category, p.cooldown)
	if err != nil {
		return OutcomeFailed, fmt.Errorf("check cooldown: %w", err)
	}
	if exists {
		return OutcomeCooldown, nil
	}

	alert := BuildAlert(ev)
	if err := p.store.InsertAlert(ctx, alert); err != nil {
		return OutcomeFailed, fmt.Errorf("insert alert: %w", err)
	}

	p.logger.Info("alert created",
		zap.String("alert_id", alert.ID),
		zap.String("tenant_id", alert.TenantID),
		zap.String("department", string(alert.Department)),
		zap.Int("score", alert.RiskScore),
		zap.String("severity", alert.Severity))
	return OutcomeCreated, nil
}

// Run consumes analyzed events until ctx is cancelled.
func (p *Processor) Run(ctx context.Context, reader MessageReader) error {
	for {
		msg, err := reader.ReadMessage(ctx)
		if err != nil {
			if ctx.Err() != nil || errors.Is(err, context.Canceled) {
				return nil
			}
			p.logger.Warn("read analyzed event failed", zap.Error(err))
			select {
			case <-ctx.Done():
				return nil
			case <-time.After(500 * time.Millisecond):
			}
			continue
		}

		ev, err := mq.ParseMessageJSON[contracts.WasteEvent](msg)
		if err != nil {
			p.logger.Warn("decode analyzed event failed", zap.Error(err))
			p.observe(OutcomeFailed)
			continue
		}

		outcome, err := p.Handle(ctx, ev)
		if err != nil {
			p.logger.Error("handle analyzed event failed", zap.String("event_id", ev.ID), zap.Error(err))
		}
		p.observe(outcome)
	}
}

func (p *Processor) observe(outcome string) {
	if p.observer != nil && outcome != OutcomeSkipped {
		p.observer.ObserveAlert(outcome)
	}
}

func BuildAlert(ev contracts.WasteEvent) contracts.AlertRecord {
	title := fmt.Sprintf("Anomalous %s waste in %s", ev.Category, ev.Department)
	if msg := ev.Analysis.AlertMessage; msg != nil && *msg != "" {
		title = *msg
	}

	return contracts.AlertRecord{
		ID:           uuid.NewString(),
		TenantID:     ev.TenantID,
		WasteEventID: ev.ID,
		Department:   ev.Department,
		Category:     ev.Category,
		Title:        title,
		Description:  fmt.Sprintf("%s scored %d/100. %s", ev.Department, ev.Analysis.RiskScore, ev.Analysis.Assessment),
		RiskScore:    ev.Analysis.RiskScore,
		Severity:     Severity(ev.Analysis.RiskScore),
		Status:       contracts.AlertOpen,
	}
}

func Severity(score int) string {
	switch {
	case score >= 90:
		return "critical"
	case score >= 75:
		return "high"
	default:
		return "medium"
	}
}
