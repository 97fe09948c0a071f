package contracts

// WasteSubmission is the client-supplied part of a WasteEvent. Id, tenant,
// user, timestamp and analysis are always set server-side.
type WasteSubmission struct {
	Department Department     `json:"department" validate:"required,department"`
	Category   WasteCategory  `json:"waste_type" validate:"required,waste_category"`
	Quantity   *float64       `json:"quantity" validate:"required,gte=0"`
	Procedure  Procedure      `json:"procedure_category" validate:"required,procedure"`
	Disposal   DisposalMethod `json:"disposal_method" validate:"required,disposal_method"`
	Shift      Shift          `json:"shift" validate:"required,shift"`
	Notes      string         `json:"notes,omitempty" validate:"max=2000"`
}

// Event must only be called after Validate succeeded.
func (s WasteSubmission) Event() WasteEvent {
	return WasteEvent{
		Department: s.Department,
		Category:   s.Category,
		Quantity:   *s.Quantity,
		Procedure:  s.Procedure,
		Disposal:   s.Disposal,
		Shift:      s.Shift,
		Notes:      s.Notes,
	}
}

// BaselineInput is an upsert payload. Omitted optional fields take their
// defaults; an explicit zero is kept.
type BaselineInput struct {
	Department       Department `json:"department" validate:"required,department"`
	ExpectedDaily    *float64   `json:"expected_daily" validate:"required,gte=0"`
	AnomalyThreshold *float64   `json:"risk_threshold" validate:"omitempty,gte=0,lte=100"`
	InfectiousRatio  *float64   `json:"infectious_ratio" validate:"omitempty,gte=0,lte=100"`
	SharpsRatio      *float64   `json:"sharps_ratio" validate:"omitempty,gte=0,lte=100"`
	CostPerKg        *float64   `json:"cost_per_kg" validate:"omitempty,gte=0"`
}

// Baseline must only be called after Validate succeeded.
func (in BaselineInput) Baseline(tenantID string) Baseline {
	return Baseline{
		TenantID:         tenantID,
		Department:       in.Department,
		ExpectedDaily:    *in.ExpectedDaily,
		AnomalyThreshold: valueOr(in.AnomalyThreshold, DefaultAnomalyThreshold),
		InfectiousRatio:  valueOr(in.InfectiousRatio, DefaultInfectiousRatio),
		SharpsRatio:      valueOr(in.SharpsRatio, DefaultSharpsRatio),
		CostPerKg:        valueOr(in.CostPerKg, DefaultCostPerKg),
	}
}

func valueOr(v *float64, fallback float64) float64 {
	if v == nil {
		return fallback
	}
	return *v
}
