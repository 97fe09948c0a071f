package contracts

import "time"

type Department string

const (
	DeptEmergency   Department = "Emergency"
	DeptSurgery     Department = "Surgery"
	DeptICU         Department = "ICU"
	DeptPediatrics  Department = "Pediatrics"
	DeptOncology    Department = "Oncology"
	DeptRadiology   Department = "Radiology"
	DeptLaboratory  Department = "Laboratory"
	DeptPharmacy    Department = "Pharmacy"
	DeptGeneralWard Department = "General Ward"
	DeptOutpatient  Department = "Outpatient"
)

type WasteCategory string

const (
	WasteInfectious     WasteCategory = "Infectious"
	WastePharmaceutical WasteCategory = "Pharmaceutical"
	WasteSharps         WasteCategory = "Sharps"
	WasteChemical       WasteCategory = "Chemical"
	WasteRadioactive    WasteCategory = "Radioactive"
	WasteGeneral        WasteCategory = "General"
	WasteRecyclable     WasteCategory = "Recyclable"
)

type Procedure string

const (
	ProcRoutineCare       Procedure = "Routine Care"
	ProcMinorProcedure    Procedure = "Minor Procedure"
	ProcMajorSurgery      Procedure = "Major Surgery"
	ProcDiagnostic        Procedure = "Diagnostic"
	ProcTreatment         Procedure = "Treatment"
	ProcEmergencyResponse Procedure = "Emergency Response"
	ProcChemotherapy      Procedure = "Chemotherapy"
	ProcDialysis          Procedure = "Dialysis"
)

type DisposalMethod string

const (
	DisposalIncineration      DisposalMethod = "Incineration"
	DisposalAutoclave         DisposalMethod = "Autoclave"
	DisposalChemicalTreatment DisposalMethod = "Chemical Treatment"
	DisposalSecureLandfill    DisposalMethod = "Secure Landfill"
	DisposalRecycling         DisposalMethod = "Recycling"
	DisposalSpecialHandling   DisposalMethod = "Special Handling"
)

type Shift string

const (
	ShiftMorning   Shift = "Morning"
	ShiftAfternoon Shift = "Afternoon"
	ShiftNight     Shift = "Night"
)

var (
	Departments = []Department{
		DeptEmergency, DeptSurgery, DeptICU, DeptPediatrics, DeptOncology,
		DeptRadiology, DeptLaboratory, DeptPharmacy, DeptGeneralWard, DeptOutpatient,
	}
	WasteCategories = []WasteCategory{
		WasteInfectious, WastePharmaceutical, WasteSharps, WasteChemical,
		WasteRadioactive, WasteGeneral, WasteRecyclable,
	}
	Procedures = []Procedure{
		ProcRoutineCare, ProcMinorProcedure, ProcMajorSurgery, ProcDiagnostic,
		ProcTreatment, ProcEmergencyResponse, ProcChemotherapy, ProcDialysis,
	}
	DisposalMethods = []DisposalMethod{
		DisposalIncineration, DisposalAutoclave, DisposalChemicalTreatment,
		DisposalSecureLandfill, DisposalRecycling, DisposalSpecialHandling,
	}
	Shifts = []Shift{ShiftMorning, ShiftAfternoon, ShiftNight}
)

// Narrative sources recorded on an AnalysisResult.
const (
	NarrativeLLM      = "llm"
	NarrativeFallback = "fallback"
)

// WasteEvent is one disposal record. Analysis is attached once, before the
// event is persisted, and is never recomputed.
type WasteEvent struct {
	ID         string          `json:"id"`
	TenantID   string          `json:"tenant_id"`
	UserID     string          `json:"user_id,omitempty"`
	Department Department      `json:"department"`
	Category   WasteCategory   `json:"waste_type"`
	Quantity   float64         `json:"quantity"`
	Procedure  Procedure       `json:"procedure_category"`
	Disposal   DisposalMethod  `json:"disposal_method"`
	Shift      Shift           `json:"shift"`
	Notes      string          `json:"notes,omitempty"`
	Timestamp  time.Time       `json:"timestamp"`
	Analysis   *AnalysisResult `json:"analysis,omitempty"`
}

// Baseline is the per tenant and department expectation. Every field holds
// its effective value; defaults are resolved by BaselineInput.
type Baseline struct {
	TenantID         string     `json:"tenant_id"`
	Department       Department `json:"department"`
	ExpectedDaily    float64    `json:"expected_daily"`
	AnomalyThreshold float64    `json:"risk_threshold"`
	InfectiousRatio  float64    `json:"infectious_ratio"`
	SharpsRatio      float64    `json:"sharps_ratio"`
	CostPerKg        float64    `json:"cost_per_kg"`
	CreatedAt        time.Time  `json:"created_at"`
	UpdatedAt        time.Time  `json:"updated_at"`
}

const (
	DefaultAnomalyThreshold = 70
	DefaultInfectiousRatio  = 30
	DefaultSharpsRatio      = 15
	DefaultCostPerKg        = 2.5
)

type AnalysisResult struct {
	RiskScore         int      `json:"risk_score"`
	AnomalyDetected   bool     `json:"anomaly_detected"`
	Factors           []string `json:"factors"`
	Assessment        string   `json:"assessment"`
	RecommendedAction string   `json:"recommended_action"`
	AlertMessage      *string  `json:"alert_message"`
	NarrativeSource   string   `json:"narrative_source"`
}

type AlertRecord struct {
	ID           string        `json:"id"`
	TenantID     string        `json:"tenant_id"`
	WasteEventID string        `json:"waste_event_id"`
	Department   Department    `json:"department"`
	Category     WasteCategory `json:"waste_type"`
	Title        string        `json:"title"`
	Description  string        `json:"description"`
	RiskScore    int           `json:"risk_score"`
	Severity     string        `json:"severity"`
	Status       string        `json:"status"`
	CreatedAt    time.Time     `json:"created_at"`
	UpdatedAt    time.Time     `json:"updated_at"`
}

const (
	AlertOpen         = "open"
	AlertAcknowledged = "acknowledged"
	AlertResolved     = "resolved"
)

// Key partitions analyzed events per tenant and department on the bus.
func (e WasteEvent) Key() string {
	return e.TenantID + "|" + string(e.Department)
}
