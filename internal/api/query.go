package api

import (
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/Jainesh24/cwi-backend/internal/contracts"
	"github.com/Jainesh24/cwi-backend/internal/httpx"
	"github.com/Jainesh24/cwi-backend/internal/storage"
)

const (
	activeAlertWindow = 7 * 24 * time.Hour
	anomalyListLimit  = 50
)

type QueryDeps struct {
	Common
	Store QueryStore
	Now   func() time.Time
}

type queryHandler struct {
	QueryDeps
	log *zap.Logger
}

func NewQueryRouter(deps QueryDeps) http.Handler {
	if deps.Now == nil {
		deps.Now = time.Now
	}
	if deps.Service == "" {
		deps.Service = "query-api"
	}
	h := &queryHandler{QueryDeps: deps, log: deps.logger()}

	router := deps.newRouter()
	router.Group(func(r chi.Router) {
		r.Use(deps.Identity)
		r.Get("/v1/waste", h.listWaste)
		r.Get("/v1/alerts", h.listAnomalies)
		r.Get("/v1/baselines", h.listBaselines)
		r.Get("/v1/alert-records", h.listAlertRecords)
		r.Patch("/v1/alert-records/{id}/ack", h.updateAlertStatus(contracts.AlertAcknowledged))
		r.Patch("/v1/alert-records/{id}/resolve", h.updateAlertStatus(contracts.AlertResolved))
	})
	return router
}

func (h *queryHandler) listWaste(w http.ResponseWriter, r *http.Request) {
	tenant, ok := tenantOf(w, r)
	if !ok {
		return
	}

	q := r.URL.Query()
	filter := storage.WasteFilter{
		TenantID: tenant,
		Limit:    parseLimit(q.Get("limit"), 100, 500),
	}
	if d := q.Get("department"); d != "" {
		filter.Department = contracts.Department(d)
		if !isDepartment(filter.Department) {
			httpx.WriteError(w, http.StatusBadRequest, "unknown department")
			return
		}
	}

	var err error
	if filter.Start, err = parseTime(q.Get("start")); err != nil {
		httpx.WriteError(w, http.StatusBadRequest, "start must be RFC3339 or YYYY-MM-DD")
		return
	}
	if filter.End, err = parseTime(q.Get("end")); err != nil {
		httpx.WriteError(w, http.StatusBadRequest, "end must be RFC3339 or YYYY-MM-DD")
		return
	}

	h.writeEvents(w, r, filter)
}

// listAnomalies returns anomalous events, optionally only recent ones.
func (h *queryHandler) listAnomalies(w http.ResponseWriter, r *http.Request) {
	tenant, ok := tenantOf(w, r)
	if !ok {
		return
	}

	filter := storage.WasteFilter{TenantID: tenant, AnomalousOnly: true, Limit: anomalyListLimit}
	switch r.URL.Query().Get("status") {
	case "", "active":
		filter.Start = h.Now().Add(-activeAlertWindow)
	case "all":
	default:
		httpx.WriteError(w, http.StatusBadRequest, "status must be active or all")
		return
	}

	h.writeEvents(w, r, filter)
}

func (h *queryHandler) writeEvents(w http.ResponseWriter, r *http.Request, filter storage.WasteFilter) {
	events, err := h.Store.ListWasteEvents(r.Context(), filter)
	if err != nil {
		h.log.Error("list waste events failed", zap.String("tenant_id", filter.TenantID), zap.Error(err))
		httpx.WriteError(w, http.StatusInternalServerError, "list waste events failed")
		return
	}
	httpx.WriteJSON(w, http.StatusOK, map[string]any{"items": events})
}

func (h *queryHandler) listBaselines(w http.ResponseWriter, r *http.Request) {
	tenant, ok := tenantOf(w, r)
	if !ok {
		return
	}

	baselines, err := h.Store.ListBaselines(r.Context(), tenant)
	if err != nil {
		h.log.Error("list baselines failed", zap.String("tenant_id", tenant), zap.Error(err))
		httpx.WriteError(w, http.StatusInternalServerError, "list baselines failed")
		return
	}
	httpx.WriteJSON(w, http.StatusOK, map[string]any{"items": baselines})
}

func (h *queryHandler) listAlertRecords(w http.ResponseWriter, r *http.Request) {
	tenant, ok := tenantOf(w, r)
	if !ok {
		return
	}

	status := r.URL.Query().Get("status")
	switch status {
	case "", contracts.AlertOpen, contracts.AlertAcknowledged, contracts.AlertResolved:
	default:
		httpx.WriteError(w, http.StatusBadRequest, "unknown alert status")
		return
	}

	alerts, err := h.Store.ListAlerts(r.Context(), tenant, status, parseLimit(r.URL.Query().Get("limit"), 100, 500))
	if err != nil {
		h.log.Error("list alerts failed", zap.String("tenant_id", tenant), zap.Error(err))
		httpx.WriteError(w, http.StatusInternalServerError, "list alerts failed")
		return
	}
	httpx.WriteJSON(w, http.StatusOK, map[string]any{"items": alerts})
}

func (h *queryHandler) updateAlertStatus(status string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		tenant, ok := tenantOf(w, r)
		if !ok {
			return
		}

		id := chi.URLParam(r, "id")
		err := h.Store.UpdateAlertStatus(r.Context(), tenant, id, status)
		switch {
		case errors.Is(err, storage.ErrNotFound):
			httpx.WriteError(w, http.StatusNotFound, "alert not found")
		case err != nil:
			h.log.Error("update alert failed", zap.String("alert_id", id), zap.Error(err))
			httpx.WriteError(w, http.StatusInternalServerError, "update alert failed")
		default:
			httpx.WriteJSON(w, http.StatusOK, map[string]any{"id": id, "status": status})
		}
	}
}
