package risk

import (
	"fmt"
	"os"
	"slices"

	"gopkg.in/yaml.v3"

	"github.com/Jainesh24/cwi-backend/internal/contracts"
)

// Tables holds the static lookups the scorer consults. A Tables value is
// never mutated after construction; accessors return copies.
type Tables struct {
	categoryWeights    map[contracts.WasteCategory]int
	disposalMethods    map[contracts.WasteCategory][]contracts.DisposalMethod
	highRiskProcedures []contracts.Procedure
	sharpsVolumeKg     float64
	highRiskWeight     int
}

// tablesFile is the YAML shape accepted by LoadTables. Omitted sections keep
// their defaults; present map sections override per key.
type tablesFile struct {
	CategoryWeights    map[contracts.WasteCategory]int                      `yaml:"category_weights"`
	DisposalMethods    map[contracts.WasteCategory][]contracts.DisposalMethod `yaml:"disposal_methods"`
	HighRiskProcedures []contracts.Procedure                                `yaml:"high_risk_procedures"`
	SharpsVolumeKg     *float64                                             `yaml:"sharps_volume_kg"`
	HighRiskWeight     *int                                                 `yaml:"high_risk_weight"`
}

func DefaultTables() Tables {
	return Tables{
		categoryWeights: map[contracts.WasteCategory]int{
			contracts.WasteInfectious:     30,
			contracts.WasteRadioactive:    28,
			contracts.WasteChemical:       25,
			contracts.WastePharmaceutical: 20,
			contracts.WasteSharps:         25,
			contracts.WasteGeneral:        5,
			contracts.WasteRecyclable:     0,
		},
		disposalMethods: map[contracts.WasteCategory][]contracts.DisposalMethod{
			contracts.WasteInfectious:     {contracts.DisposalIncineration, contracts.DisposalAutoclave},
			contracts.WastePharmaceutical: {contracts.DisposalIncineration, contracts.DisposalChemicalTreatment, contracts.DisposalSpecialHandling},
			contracts.WasteSharps:         {contracts.DisposalIncineration, contracts.DisposalAutoclave, contracts.DisposalSpecialHandling},
			contracts.WasteChemical:       {contracts.DisposalChemicalTreatment, contracts.DisposalIncineration, contracts.DisposalSpecialHandling},
			contracts.WasteRadioactive:    {contracts.DisposalSpecialHandling},
			contracts.WasteGeneral:        {contracts.DisposalSecureLandfill, contracts.DisposalRecycling},
			contracts.WasteRecyclable:     {contracts.DisposalRecycling},
		},
		highRiskProcedures: []contracts.Procedure{
			contracts.ProcMajorSurgery,
			contracts.ProcChemotherapy,
			contracts.ProcEmergencyResponse,
		},
		sharpsVolumeKg: 5,
		highRiskWeight: 20,
	}
}

// LoadTables reads YAML overrides on top of DefaultTables. An empty path
// returns the defaults.
func LoadTables(path string) (Tables, error) {
	tables := DefaultTables()
	if path == "" {
		return tables, nil
	}

	body, err := os.ReadFile(path)
	if err != nil {
		return Tables{}, fmt.Errorf("read risk tables: %w", err)
	}
	return ParseTables(body)
}

func ParseTables(body []byte) (Tables, error) {
	var file tablesFile
	if err := yaml.Unmarshal(body, &file); err != nil {
		return Tables{}, fmt.Errorf("parse risk tables: %w", err)
	}

	tables := DefaultTables()
	for category, weight := range file.CategoryWeights {
		if weight < 0 {
			return Tables{}, fmt.Errorf("category %s: weight must be non-negative, got %d", category, weight)
		}
		tables.categoryWeights[category] = weight
	}
	for category, methods := range file.DisposalMethods {
		tables.disposalMethods[category] = slices.Clone(methods)
	}
	if len(file.HighRiskProcedures) > 0 {
		tables.highRiskProcedures = slices.Clone(file.HighRiskProcedures)
	}
	if file.SharpsVolumeKg != nil {
		if *file.SharpsVolumeKg < 0 {
			return Tables{}, fmt.Errorf("sharps_volume_kg must be non-negative")
		}
		tables.sharpsVolumeKg = *file.SharpsVolumeKg
	}
	if file.HighRiskWeight != nil {
		tables.highRiskWeight = *file.HighRiskWeight
	}
	return tables, nil
}

// CategoryWeight returns the severity points for a category; unknown
// categories weigh nothing.
func (t Tables) CategoryWeight(category contracts.WasteCategory) int {
	return t.categoryWeights[category]
}

func (t Tables) IsHighRiskCategory(category contracts.WasteCategory) bool {
	return t.CategoryWeight(category) >= t.highRiskWeight
}

// AcceptedMethods reports the allowed disposal methods and whether the
// category is constrained at all.
func (t Tables) AcceptedMethods(category contracts.WasteCategory) ([]contracts.DisposalMethod, bool) {
	methods, ok := t.disposalMethods[category]
	return slices.Clone(methods), ok
}

func (t Tables) IsHighRiskProcedure(procedure contracts.Procedure) bool {
	return slices.Contains(t.highRiskProcedures, procedure)
}

func (t Tables) SharpsVolumeKg() float64 {
	return t.sharpsVolumeKg
}

// CheckDisposal returns a warning when the method is not accepted for the
// category, or "" when compliant. Categories without an entry are open.
func (t Tables) CheckDisposal(category contracts.WasteCategory, method contracts.DisposalMethod) string {
	accepted, constrained := t.disposalMethods[category]
	if !constrained || slices.Contains(accepted, method) {
		return ""
	}
	return fmt.Sprintf("Disposal method %q may be inappropriate for %s waste", method, category)
}

// AssessProcedure scores procedure and department combinations. The two
// rules are independent and additive.
func (t Tables) AssessProcedure(event contracts.WasteEvent) (int, string) {
	score := 0
	reason := ""

	if t.IsHighRiskProcedure(event.Procedure) &&
		event.Category == contracts.WasteSharps && event.Quantity > t.sharpsVolumeKg {
		score += highRiskProcedurePoints
		reason = fmt.Sprintf("High sharps volume in %s", event.Procedure)
	}

	if event.Department == contracts.DeptPediatrics && event.Category == contracts.WasteSharps {
		score += pediatricSharpsPoints
		if reason != "" {
			reason += " in pediatric setting"
		} else {
			reason = "Sharps in pediatric department"
		}
	}

	return score, reason
}
