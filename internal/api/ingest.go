package api

import (
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/Jainesh24/cwi-backend/internal/contracts"
	"github.com/Jainesh24/cwi-backend/internal/httpx"
	"github.com/Jainesh24/cwi-backend/internal/storage"
)

type IngestDeps struct {
	Common
	Store    IngestStore
	Analyzer Analyzer
	// Publisher is optional; nil disables the analyzed-event stream.
	Publisher Publisher
	Now       func() time.Time
}

type ingestHandler struct {
	IngestDeps
	log *zap.Logger
}

func NewIngestRouter(deps IngestDeps) http.Handler {
	if deps.Now == nil {
		deps.Now = time.Now
	}
	if deps.Service == "" {
		deps.Service = "ingest"
	}
	h := &ingestHandler{IngestDeps: deps, log: deps.logger()}

	router := deps.newRouter()
	router.Group(func(r chi.Router) {
		r.Use(deps.Identity)
		r.Post("/v1/waste", h.submitWaste)
		r.Delete("/v1/waste", h.resetWaste)
		r.Post("/v1/baselines", h.upsertBaseline)
		r.Delete("/v1/baselines/{department}", h.deleteBaseline)
	})
	return router
}

func (h *ingestHandler) submitWaste(w http.ResponseWriter, r *http.Request) {
	tenant, ok := tenantOf(w, r)
	if !ok {
		return
	}

	var in contracts.WasteSubmission
	if err := httpx.DecodeJSON(w, r, &in); err != nil {
		httpx.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err := contracts.Validate(in); err != nil {
		httpx.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	ev := in.Event()
	ev.ID = uuid.NewString()
	ev.TenantID = tenant
	ev.Timestamp = h.Now().UTC()

	result, err := h.Analyzer.Analyze(r.Context(), ev, tenant)
	if err != nil {
		h.log.Error("analysis failed", zap.String("tenant_id", tenant),
			zap.String("department", string(ev.Department)), zap.Error(err))
		httpx.WriteError(w, http.StatusInternalServerError, "analysis failed")
		return
	}
	ev.Analysis = &result

	if err := h.Store.InsertWasteEvent(r.Context(), ev); err != nil {
		h.log.Error("store waste event failed", zap.String("tenant_id", tenant), zap.Error(err))
		httpx.WriteError(w, http.StatusInternalServerError, "store waste event failed")
		return
	}

	if h.Publisher != nil {
		if err := h.Publisher.Publish(r.Context(), ev.Key(), ev); err != nil {
			h.log.Warn("publish analyzed event failed", zap.String("event_id", ev.ID), zap.Error(err))
		}
	}

	h.log.Info("waste event recorded",
		zap.String("tenant_id", tenant),
		zap.String("department", string(ev.Department)),
		zap.Int("score", result.RiskScore),
		zap.Bool("anomaly", result.AnomalyDetected))
	httpx.WriteJSON(w, http.StatusCreated, ev)
}

func (h *ingestHandler) resetWaste(w http.ResponseWriter, r *http.Request) {
	tenant, ok := tenantOf(w, r)
	if !ok {
		return
	}

	deleted, err := h.Store.DeleteWasteEvents(r.Context(), tenant)
	if err != nil {
		h.log.Error("reset waste events failed", zap.String("tenant_id", tenant), zap.Error(err))
		httpx.WriteError(w, http.StatusInternalServerError, "reset failed")
		return
	}
	httpx.WriteJSON(w, http.StatusOK, map[string]any{"deleted": deleted})
}

func (h *ingestHandler) upsertBaseline(w http.ResponseWriter, r *http.Request) {
	tenant, ok := tenantOf(w, r)
	if !ok {
		return
	}

	var in contracts.BaselineInput
	if err := httpx.DecodeJSON(w, r, &in); err != nil {
		httpx.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err := contracts.Validate(in); err != nil {
		httpx.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	saved, err := h.Store.UpsertBaseline(r.Context(), in.Baseline(tenant))
	if err != nil {
		h.log.Error("upsert baseline failed", zap.String("tenant_id", tenant), zap.Error(err))
		httpx.WriteError(w, http.StatusInternalServerError, "save baseline failed")
		return
	}
	httpx.WriteJSON(w, http.StatusCreated, saved)
}

func (h *ingestHandler) deleteBaseline(w http.ResponseWriter, r *http.Request) {
	tenant, ok := tenantOf(w, r)
	if !ok {
		return
	}

	department := contracts.Department(chi.URLParam(r, "department"))
	if !isDepartment(department) {
		httpx.WriteError(w, http.StatusBadRequest, "unknown department")
		return
	}

	err := h.Store.DeleteBaseline(r.Context(), tenant, department)
	switch {
	case errors.Is(err, storage.ErrNotFound):
		httpx.WriteError(w, http.StatusNotFound, "baseline not found")
	case err != nil:
		h.log.Error("delete baseline failed", zap.String("tenant_id", tenant), zap.Error(err))
		httpx.WriteError(w, http.StatusInternalServerError, "delete baseline failed")
	default:
		w.WriteHeader(http.StatusNoContent)
	}
}
