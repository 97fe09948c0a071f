package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics satisfies both risk.Observer and narrative.Observer. A nil
// *Metrics is a no-op.
type Metrics struct {
	gatherer prometheus.Gatherer

	httpRequestsTotal *prometheus.CounterVec
	httpDuration      *prometheus.HistogramVec
	analysesTotal     prometheus.Counter
	anomaliesTotal    prometheus.Counter
	riskScore         prometheus.Histogram
	narrativesTotal   *prometheus.CounterVec
	fallbacksTotal    *prometheus.CounterVec
	alertsTotal       *prometheus.CounterVec
}

func New(reg *prometheus.Registry) *Metrics {
	m := &Metrics{
		gatherer: reg,
		httpRequestsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "cwi_http_requests_total",
			Help: "Total count of HTTP requests processed by route and status.",
		}, []string{"route", "status"}),
		httpDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "cwi_http_request_duration_seconds",
			Help:    "Histogram of HTTP request durations by route.",
			Buckets: prometheus.DefBuckets,
		}, []string{"route"}),
		analysesTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "cwi_analyses_total",
			Help: "Total waste events analyzed.",
		}),
		anomaliesTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "cwi_anomalies_total",
			Help: "Total analyses flagged as anomalous.",
		}),
		riskScore: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "cwi_risk_score",
			Help:    "Distribution of risk scores.",
			Buckets: prometheus.LinearBuckets(0, 10, 11),
		}),
		narrativesTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "cwi_narratives_total",
			Help: "Narratives produced by source.",
		}, []string{"source"}),
		fallbacksTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "cwi_narrative_fallbacks_total",
			Help: "Fallback narratives by failure reason.",
		}, []string{"reason"}),
		alertsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "cwi_alerts_total",
			Help: "Alert records by outcome.",
		}, []string{"outcome"}),
	}

	reg.MustRegister(
		m.httpRequestsTotal,
		m.httpDuration,
		m.analysesTotal,
		m.anomaliesTotal,
		m.riskScore,
		m.narrativesTotal,
		m.fallbacksTotal,
		m.alertsTotal,
	)
	return m
}

func (m *Metrics) ObserveAnalysis(score int, anomaly bool) {
	if m == nil {
		return
	}
	m.analysesTotal.Inc()
	m.riskScore.Observe(float64(score))
	if anomaly {
		m.anomaliesTotal.Inc()
	}
}

func (m *Metrics) ObserveNarrative(source, reason string) {
	if m == nil {
		return
	}
	m.narrativesTotal.WithLabelValues(source).Inc()
	if reason != "" {
		m.fallbacksTotal.WithLabelValues(reason).Inc()
	}
}

// ObserveAlert counts alert-service outcomes: created, cooldown or failed.
func (m *Metrics) ObserveAlert(outcome string) {
	if m == nil {
		return
	}
	m.alertsTotal.WithLabelValues(outcome).Inc()
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (s *statusRecorder) WriteHeader(status int) {
	s.status = status
	s.ResponseWriter.WriteHeader(status)
}

// Middleware labels requests with the matched chi route pattern, so path
// parameters do not explode label cardinality.
func (m *Metrics) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		recorder := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		start := time.Now()

		next.ServeHTTP(recorder, r)

		if m == nil {
			return
		}
		route := "unmatched"
		if rctx := chi.RouteContext(r.Context()); rctx != nil && rctx.RoutePattern() != "" {
			route = rctx.RoutePattern()
		}
		m.httpRequestsTotal.WithLabelValues(route, strconv.Itoa(recorder.status)).Inc()
		m.httpDuration.WithLabelValues(route).Observe(time.Since(start).Seconds())
	})
}

func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return promhttp.Handler()
	}
	return promhttp.HandlerFor(m.gatherer, promhttp.HandlerOpts{})
}
