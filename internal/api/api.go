// Package api holds the chi routers for the ingest and query services.
package api

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/Jainesh24/cwi-backend/internal/contracts"
	"github.com/Jainesh24/cwi-backend/internal/httpx"
	"github.com/Jainesh24/cwi-backend/internal/metrics"
	"github.com/Jainesh24/cwi-backend/internal/storage"
)

type Analyzer interface {
	Analyze(ctx context.Context, event contracts.WasteEvent, tenantID string) (contracts.AnalysisResult, error)
}

type Publisher interface {
	Publish(ctx context.Context, key string, payload any) error
}

type IngestStore interface {
	InsertWasteEvent(ctx context.Context, ev contracts.WasteEvent) error
	DeleteWasteEvents(ctx context.Context, tenantID string) (int64, error)
	UpsertBaseline(ctx context.Context, b contracts.Baseline) (contracts.Baseline, error)
	DeleteBaseline(ctx context.Context, tenantID string, department contracts.Department) error
}

type QueryStore interface {
	ListWasteEvents(ctx context.Context, f storage.WasteFilter) ([]contracts.WasteEvent, error)
	ListBaselines(ctx context.Context, tenantID string) ([]contracts.Baseline, error)
	ListAlerts(ctx context.Context, tenantID, status string, limit int) ([]contracts.AlertRecord, error)
	UpdateAlertStatus(ctx context.Context, tenantID, id, status string) error
}

// Common is shared by both routers. Identity is required; Metrics and
// Logger may be nil.
type Common struct {
	Service  string
	Identity func(http.Handler) http.Handler
	Metrics  *metrics.Metrics
	Logger   *zap.Logger
}

func (c Common) logger() *zap.Logger {
	if c.Logger == nil {
		return zap.NewNop()
	}
	return c.Logger
}

func (c Common) newRouter() chi.Router {
	router := chi.NewRouter()
	router.Use(middleware.RequestID)
	router.Use(middleware.RealIP)
	router.Use(middleware.Recoverer)
	router.Use(c.Metrics.Middleware)
	router.Use(middleware.Timeout(15 * time.Second))

	router.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		httpx.WriteJSON(w, http.StatusOK, map[string]any{"ok": true, "service": c.Service})
	})
	router.Handle("/metrics", c.Metrics.Handler())
	return router
}

func tenantOf(w http.ResponseWriter, r *http.Request) (string, bool) {
	tenant, ok := httpx.TenantFromContext(r.Context())
	if !ok {
		httpx.WriteError(w, http.StatusUnauthorized, "missing credentials")
	}
	return tenant, ok
}

func isDepartment(d contracts.Department) bool {
	for _, known := range contracts.Departments {
		if known == d {
			return true
		}
	}
	return false
}

func parseLimit(raw string, fallback, max int) int {
	if raw == "" {
		return fallback
	}
	v, err := strconv.Atoi(raw)
	if err != nil || v <= 0 {
		return fallback
	}
	if v > max {
		return max
	}
	return v
}

// parseTime accepts RFC3339 timestamps or plain dates.
func parseTime(raw string) (time.Time, error) {
	if raw == "" {
		return time.Time{}, nil
	}
	if t, err := time.Parse(time.RFC3339, raw); err == nil {
		return t, nil
	}
	return time.Parse(time.DateOnly, raw)
}
