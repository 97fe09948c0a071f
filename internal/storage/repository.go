package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/Jainesh24/cwi-backend/internal/contracts"
)

var ErrNotFound = errors.New("not found")

// Repository is the tenant-scoped store for baselines, waste events and
// alert records. Every query filters on tenant_id.
type Repository struct {
	pool *pgxpool.Pool
}

func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

const baselineColumns = `tenant_id, department, expected_daily, risk_threshold, infectious_ratio, sharps_ratio, cost_per_kg, created_at, updated_at`

// FindBaseline returns nil, nil when the department has no baseline.
func (r *Repository) FindBaseline(ctx context.Context, tenantID string, department contracts.Department) (*contracts.Baseline, error) {
	row := r.pool.QueryRow(ctx, `
        SELECT `+baselineColumns+`
        FROM baselines
        WHERE tenant_id = $1 AND department = $2
    `, tenantID, string(department))

	b, err := scanBaseline(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find baseline: %w", err)
	}
	return &b, nil
}

// UpsertBaseline stores b as given; defaults are resolved before it gets here.
func (r *Repository) UpsertBaseline(ctx context.Context, b contracts.Baseline) (contracts.Baseline, error) {
	row := r.pool.QueryRow(ctx, `
        INSERT INTO baselines
            (tenant_id, department, expected_daily, risk_threshold, infectious_ratio, sharps_ratio, cost_per_kg)
        VALUES
            ($1, $2, $3, $4, $5, $6, $7)
        ON CONFLICT (tenant_id, department) DO UPDATE
        SET expected_daily   = EXCLUDED.expected_daily,
            risk_threshold   = EXCLUDED.risk_threshold,
            infectious_ratio = EXCLUDED.infectious_ratio,
            sharps_ratio     = EXCLUDED.sharps_ratio,
            cost_per_kg      = EXCLUDED.cost_per_kg,
            updated_at       = NOW()
        RETURNING `+baselineColumns,
		b.TenantID, string(b.Department), b.ExpectedDaily, b.AnomalyThreshold, b.InfectiousRatio, b.SharpsRatio, b.CostPerKg)

	saved, err := scanBaseline(row)
	if err != nil {
		return contracts.Baseline{}, fmt.Errorf("upsert baseline: %w", err)
	}
	return saved, nil
}

func (r *Repository) ListBaselines(ctx context.Context, tenantID string) ([]contracts.Baseline, error) {
	rows, err := r.pool.Query(ctx, `
        SELECT `+baselineColumns+`
        FROM baselines
        WHERE tenant_id = $1
        ORDER BY department ASC
    `, tenantID)
	if err != nil {
		return nil, fmt.Errorf("query baselines: %w", err)
	}
	defer rows.Close()

	baselines := make([]contracts.Baseline, 0, len(contracts.Departments))
	for rows.Next() {
		b, err := scanBaseline(rows)
		if err != nil {
			return nil, fmt.Errorf("scan baseline: %w", err)
		}
		baselines = append(baselines, b)
	}
	return baselines, rows.Err()
}

func (r *Repository) DeleteBaseline(ctx context.Context, tenantID string, department contracts.Department) error {
	cmd, err := r.pool.Exec(ctx, `DELETE FROM baselines WHERE tenant_id = $1 AND department = $2`, tenantID, string(department))
	if err != nil {
		return fmt.Errorf("delete baseline: %w", err)
	}
	if cmd.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

const wasteColumns = `tenant_id, user_id, department, waste_type, quantity, procedure_category, disposal_method, shift, notes, event_ts,
    risk_score, anomaly_detected, factors, assessment, recommended_action, alert_message, narrative_source`

// InsertWasteEvent stores an event together with its analysis. Events
// without an analysis are rejected.
func (r *Repository) InsertWasteEvent(ctx context.Context, ev contracts.WasteEvent) error {
	if ev.Analysis == nil {
		return errors.New("insert waste event: analysis is required")
	}
	if ev.ID == "" {
		ev.ID = uuid.NewString()
	}

	factors, err := json.Marshal(ev.Analysis.Factors)
	if err != nil {
		return fmt.Errorf("marshal factors: %w", err)
	}

	_, err = r.pool.Exec(ctx, `
        INSERT INTO waste_events
            (id, `+wasteColumns+`)
        VALUES
            ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14::jsonb, $15, $16, $17, $18)
    `, ev.ID, ev.TenantID, ev.UserID, string(ev.Department), string(ev.Category), ev.Quantity,
		string(ev.Procedure), string(ev.Disposal), string(ev.Shift), ev.Notes, ev.Timestamp,
		ev.Analysis.RiskScore, ev.Analysis.AnomalyDetected, string(factors), ev.Analysis.Assessment,
		ev.Analysis.RecommendedAction, ev.Analysis.AlertMessage, ev.Analysis.NarrativeSource)
	if err != nil {
		return fmt.Errorf("insert waste event: %w", err)
	}
	return nil
}

// FindRecentEvents returns every event in the window, newest first. Trend
// factors see the whole window, so no page limit applies.
func (r *Repository) FindRecentEvents(ctx context.Context, tenantID string, department contracts.Department, since time.Time) ([]contracts.WasteEvent, error) {
	return r.ListWasteEvents(ctx, historyFilter(tenantID, department, since))
}

func historyFilter(tenantID string, department contracts.Department, since time.Time) WasteFilter {
	return WasteFilter{
		TenantID:   tenantID,
		Department: department,
		Start:      since,
		Unbounded:  true,
	}
}

const (
	defaultListLimit = 100
	maxListLimit     = 500
)

// WasteFilter selects waste events. Limit outside 1..500 falls back to 100;
// Unbounded drops the limit entirely.
type WasteFilter struct {
	TenantID      string
	Department    contracts.Department
	Start         time.Time
	End           time.Time
	AnomalousOnly bool
	Limit         int
	Unbounded     bool
}

// limitArg is bound to LIMIT; NULL means no limit in Postgres.
func (f WasteFilter) limitArg() *int {
	if f.Unbounded {
		return nil
	}
	limit := f.Limit
	if limit <= 0 || limit > maxListLimit {
		limit = defaultListLimit
	}
	return &limit
}

func (r *Repository) ListWasteEvents(ctx context.Context, f WasteFilter) ([]contracts.WasteEvent, error) {
	var start, end *time.Time
	if !f.Start.IsZero() {
		start = &f.Start
	}
	if !f.End.IsZero() {
		end = &f.End
	}

	rows, err := r.pool.Query(ctx, `
        SELECT id::text, `+wasteColumns+`
        FROM waste_events
        WHERE tenant_id = $1
          AND ($2 = '' OR department = $2)
          AND ($3::timestamptz IS NULL OR event_ts >= $3)
          AND ($4::timestamptz IS NULL OR event_ts <= $4)
          AND (NOT $5 OR anomaly_detected)
        ORDER BY event_ts DESC
        LIMIT $6::bigint
    `, f.TenantID, string(f.Department), start, end, f.AnomalousOnly, f.limitArg())
	if err != nil {
		return nil, fmt.Errorf("query waste events: %w", err)
	}
	defer rows.Close()

	events := make([]contracts.WasteEvent, 0)
	for rows.Next() {
		ev, err := scanWasteEvent(rows)
		if err != nil {
			return nil, fmt.Errorf("scan waste event: %w", err)
		}
		events = append(events, ev)
	}
	return events, rows.Err()
}

func (r *Repository) DeleteWasteEvents(ctx context.Context, tenantID string) (int64, error) {
	cmd, err := r.pool.Exec(ctx, `DELETE FROM waste_events WHERE tenant_id = $1`, tenantID)
	if err != nil {
		return 0, fmt.Errorf("delete waste events: %w", err)
	}
	return cmd.RowsAffected(), nil
}

func (r *Repository) HasOpenAlertInCooldown(ctx context.Context, tenantID string, department contracts.Department, category contracts.WasteCategory, cooldown time.Duration) (bool, error) {
	var exists bool
	err := r.pool.QueryRow(ctx, `
        SELECT EXISTS (
            SELECT 1
            FROM alerts
            WHERE status IN ('open', 'acknowledged')
              AND tenant_id = $1
              AND department = $2
              AND waste_type = $3
              AND created_at >= NOW() - $4::interval
        )
    `, tenantID, string(department), string(category), fmt.Sprintf("%f seconds", cooldown.Seconds())).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("check cooldown alert: %w", err)
	}
	return exists, nil
}

func (r *Repository) InsertAlert(ctx context.Context, alert contracts.AlertRecord) error {
	if alert.ID == "" {
		alert.ID = uuid.NewString()
	}

	_, err := r.pool.Exec(ctx, `
        INSERT INTO alerts
            (id, tenant_id, waste_event_id, department, waste_type, title, description, risk_score, severity, status)
        VALUES
            ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
    `, alert.ID, alert.TenantID, nullableUUID(alert.WasteEventID), string(alert.Department), string(alert.Category),
		alert.Title, alert.Description, alert.RiskScore, alert.Severity, alert.Status)
	if err != nil {
		return fmt.Errorf("insert alert: %w", err)
	}
	return nil
}

func (r *Repository) ListAlerts(ctx context.Context, tenantID, status string, limit int) ([]contracts.AlertRecord, error) {
	if limit <= 0 || limit > maxListLimit {
		limit = defaultListLimit
	}

	rows, err := r.pool.Query(ctx, `
        SELECT id::text, tenant_id, COALESCE(waste_event_id::text, ''), department, waste_type, title, description,
               risk_score, severity, status, created_at, updated_at
        FROM alerts
        WHERE tenant_id = $1
          AND ($2 = '' OR status = $2)
        ORDER BY created_at DESC
        LIMIT $3
    `, tenantID, status, limit)
	if err != nil {
		return nil, fmt.Errorf("query alerts: %w", err)
	}
	defer rows.Close()

	alerts := make([]contracts.AlertRecord, 0, limit)
	for rows.Next() {
		var alert contracts.AlertRecord
		var department, category string
		if err := rows.Scan(
			&alert.ID,
			&alert.TenantID,
			&alert.WasteEventID,
			&department,
			&category,
			&alert.Title,
			&alert.Description,
			&alert.RiskScore,
			&alert.Severity,
			&alert.Status,
			&alert.CreatedAt,
			&alert.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan alert: %w", err)
		}
		alert.Department = contracts.Department(department)
		alert.Category = contracts.WasteCategory(category)
		alerts = append(alerts, alert)
	}
	return alerts, rows.Err()
}

func (r *Repository) UpdateAlertStatus(ctx context.Context, tenantID, id, status string) error {
	if _, err := uuid.Parse(id); err != nil {
		return ErrNotFound
	}

	cmd, err := r.pool.Exec(ctx, `
        UPDATE alerts
        SET status = $3,
            updated_at = NOW(),
            acknowledged_at = CASE WHEN $3 = 'acknowledged' THEN NOW() ELSE acknowledged_at END,
            resolved_at = CASE WHEN $3 = 'resolved' THEN NOW() ELSE resolved_at END
        WHERE tenant_id = $1 AND id = $2
    `, tenantID, id, status)
	if err != nil {
		return fmt.Errorf("update alert status: %w", err)
	}
	if cmd.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func scanBaseline(row pgx.Row) (contracts.Baseline, error) {
	var b contracts.Baseline
	var department string
	err := row.Scan(
		&b.TenantID,
		&department,
		&b.ExpectedDaily,
		&b.AnomalyThreshold,
		&b.InfectiousRatio,
		&b.SharpsRatio,
		&b.CostPerKg,
		&b.CreatedAt,
		&b.UpdatedAt,
	)
	b.Department = contracts.Department(department)
	return b, err
}

func scanWasteEvent(row pgx.Row) (contracts.WasteEvent, error) {
	var (
		ev         contracts.WasteEvent
		analysis   contracts.AnalysisResult
		department string
		category   string
		procedure  string
		disposal   string
		shift      string
		factorsRaw []byte
	)
	if err := row.Scan(
		&ev.ID,
		&ev.TenantID,
		&ev.UserID,
		&department,
		&category,
		&ev.Quantity,
		&procedure,
		&disposal,
		&shift,
		&ev.Notes,
		&ev.Timestamp,
		&analysis.RiskScore,
		&analysis.AnomalyDetected,
		&factorsRaw,
		&analysis.Assessment,
		&analysis.RecommendedAction,
		&analysis.AlertMessage,
		&analysis.NarrativeSource,
	); err != nil {
		return contracts.WasteEvent{}, err
	}

	ev.Department = contracts.Department(department)
	ev.Category = contracts.WasteCategory(category)
	ev.Procedure = contracts.Procedure(procedure)
	ev.Disposal = contracts.DisposalMethod(disposal)
	ev.Shift = contracts.Shift(shift)
	if len(factorsRaw) > 0 {
		if err := json.Unmarshal(factorsRaw, &analysis.Factors); err != nil {
			return contracts.WasteEvent{}, fmt.Errorf("decode factors for event %s: %w", ev.ID, err)
		}
	}
	ev.Analysis = &analysis
	return ev, nil
}

func nullableUUID(v string) any {
	if v == "" {
		return nil
	}
	return v
}
