package risk

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Jainesh24/cwi-backend/internal/contracts"
)

func TestDefaultCategoryWeights(t *testing.T) {
	tables := DefaultTables()
	want := map[contracts.WasteCategory]int{
		contracts.WasteInfectious:     30,
		contracts.WasteRadioactive:    28,
		contracts.WasteChemical:       25,
		contracts.WasteSharps:         25,
		contracts.WastePharmaceutical: 20,
		contracts.WasteGeneral:        5,
		contracts.WasteRecyclable:     0,
		"Mystery":                     0,
	}
	for cat, weight := range want {
		assert.Equal(t, weight, tables.CategoryWeight(cat), cat)
	}

	assert.True(t, tables.IsHighRiskCategory(contracts.WastePharmaceutical))
	assert.False(t, tables.IsHighRiskCategory(contracts.WasteGeneral))
}

func TestCheckDisposal(t *testing.T) {
	tables := DefaultTables()

	assert.Empty(t, tables.CheckDisposal(contracts.WasteInfectious, contracts.DisposalAutoclave))
	assert.Empty(t, tables.CheckDisposal(contracts.WasteRecyclable, contracts.DisposalRecycling))
	assert.Equal(t,
		`Disposal method "Secure Landfill" may be inappropriate for Sharps waste`,
		tables.CheckDisposal(contracts.WasteSharps, contracts.DisposalSecureLandfill))
	assert.NotEmpty(t, tables.CheckDisposal(contracts.WasteRecyclable, contracts.DisposalIncineration))

	// Unmapped categories carry no constraint.
	assert.Empty(t, tables.CheckDisposal("Mystery", contracts.DisposalSecureLandfill))
}

func TestAssessProcedure(t *testing.T) {
	tables := DefaultTables()
	tests := []struct {
		name   string
		ev     contracts.WasteEvent
		score  int
		reason string
	}{
		{"routine sharps", event(contracts.DeptSurgery, contracts.WasteSharps, 10, contracts.ProcRoutineCare, contracts.DisposalAutoclave), 0, ""},
		{"surgery sharps at limit", event(contracts.DeptSurgery, contracts.WasteSharps, 5, contracts.ProcMajorSurgery, contracts.DisposalAutoclave), 0, ""},
		{"surgery sharps over limit", event(contracts.DeptSurgery, contracts.WasteSharps, 5.5, contracts.ProcMajorSurgery, contracts.DisposalAutoclave), 10, "High sharps volume in Major Surgery"},
		{"emergency infectious", event(contracts.DeptEmergency, contracts.WasteInfectious, 50, contracts.ProcEmergencyResponse, contracts.DisposalAutoclave), 0, ""},
		{"pediatric sharps", event(contracts.DeptPediatrics, contracts.WasteSharps, 1, contracts.ProcRoutineCare, contracts.DisposalAutoclave), 5, "Sharps in pediatric department"},
		{"pediatric chemo sharps", event(contracts.DeptPediatrics, contracts.WasteSharps, 8, contracts.ProcChemotherapy, contracts.DisposalAutoclave), 15, "High sharps volume in Chemotherapy in pediatric setting"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			score, reason := tables.AssessProcedure(tt.ev)
			assert.Equal(t, tt.score, score)
			assert.Equal(t, tt.reason, reason)
		})
	}
}

func TestParseTablesOverridesDefaults(t *testing.T) {
	tables, err := ParseTables([]byte(`
category_weights:
  General: 22
disposal_methods:
  Recyclable: [Recycling, Secure Landfill]
high_risk_procedures: [Dialysis]
sharps_volume_kg: 2
`))
	require.NoError(t, err)

	assert.Equal(t, 22, tables.CategoryWeight(contracts.WasteGeneral))
	assert.Equal(t, 30, tables.CategoryWeight(contracts.WasteInfectious))
	assert.True(t, tables.IsHighRiskCategory(contracts.WasteGeneral))
	assert.Empty(t, tables.CheckDisposal(contracts.WasteRecyclable, contracts.DisposalSecureLandfill))
	assert.True(t, tables.IsHighRiskProcedure(contracts.ProcDialysis))
	assert.False(t, tables.IsHighRiskProcedure(contracts.ProcMajorSurgery))
	assert.Equal(t, 2.0, tables.SharpsVolumeKg())

	// Defaults are untouched by the override.
	assert.Equal(t, 5, DefaultTables().CategoryWeight(contracts.WasteGeneral))
}

func TestParseTablesRejectsNegativeWeight(t *testing.T) {
	_, err := ParseTables([]byte("category_weights:\n  General: -1\n"))
	assert.Error(t, err)
}

func TestLoadTables(t *testing.T) {
	tables, err := LoadTables("")
	require.NoError(t, err)
	assert.Equal(t, 30, tables.CategoryWeight(contracts.WasteInfectious))

	path := filepath.Join(t.TempDir(), "tables.yaml")
	require.NoError(t, os.WriteFile(path, []byte("category_weights:\n  Chemical: 12\n"), 0o600))
	tables, err = LoadTables(path)
	require.NoError(t, err)
	assert.Equal(t, 12, tables.CategoryWeight(contracts.WasteChemical))

	_, err = LoadTables(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestAcceptedMethodsReturnsCopy(t *testing.T) {
	tables := DefaultTables()
	methods, ok := tables.AcceptedMethods(contracts.WasteInfectious)
	require.True(t, ok)
	methods[0] = contracts.DisposalRecycling

	assert.Empty(t, tables.CheckDisposal(contracts.WasteInfectious, contracts.DisposalIncineration))

	_, ok = tables.AcceptedMethods("Mystery")
	assert.False(t, ok)
}
