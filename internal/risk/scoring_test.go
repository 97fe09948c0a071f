package risk

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Jainesh24/cwi-backend/internal/contracts"
)

func event(dept contracts.Department, cat contracts.WasteCategory, qty float64, proc contracts.Procedure, disp contracts.DisposalMethod) contracts.WasteEvent {
	return contracts.WasteEvent{
		TenantID:   "tenant-a",
		Department: dept,
		Category:   cat,
		Quantity:   qty,
		Procedure:  proc,
		Disposal:   disp,
		Shift:      contracts.ShiftMorning,
	}
}

func TestScoreICUInfectiousOverBaseline(t *testing.T) {
	scorer := NewScorer(DefaultTables())
	ev := event(contracts.DeptICU, contracts.WasteInfectious, 12, contracts.ProcRoutineCare, contracts.DisposalIncineration)

	got := scorer.Score(ev, &contracts.Baseline{ExpectedDaily: 5}, nil)

	assert.Equal(t, 70, got.Score)
	assert.True(t, IsAnomaly(got.Score))
	assert.Equal(t, []string{
		"Quantity is 240% of expected baseline",
		"High-risk waste type: Infectious",
	}, got.Factors)
}

func TestScoreRecyclableWithoutBaseline(t *testing.T) {
	scorer := NewScorer(DefaultTables())
	ev := event(contracts.DeptGeneralWard, contracts.WasteRecyclable, 1, contracts.ProcRoutineCare, contracts.DisposalRecycling)

	got := scorer.Score(ev, nil, nil)

	assert.Equal(t, 20, got.Score)
	assert.False(t, IsAnomaly(got.Score))
	assert.Equal(t, []string{"No baseline data available for this department"}, got.Factors)
}

func TestScoreDisposalMismatchAddsPenalty(t *testing.T) {
	scorer := NewScorer(DefaultTables())
	ev := event(contracts.DeptSurgery, contracts.WasteSharps, 1, contracts.ProcRoutineCare, contracts.DisposalSecureLandfill)

	got := scorer.Score(ev, &contracts.Baseline{ExpectedDaily: 10}, nil)

	// 25 category + 20 mismatch
	assert.Equal(t, 45, got.Score)
	require.Len(t, got.Factors, 2)
	assert.Equal(t, "High-risk waste type: Sharps", got.Factors[0])
	assert.Contains(t, got.Factors[1], "inappropriate")
}

func TestCompareBaselineBoundaries(t *testing.T) {
	tests := []struct {
		name     string
		quantity float64
		expected float64
		points   int
		factor   string
	}{
		{"below", 4, 5, 0, ""},
		{"exactly 100%", 5, 5, 0, ""},
		{"just over 100%", 5.5, 5, 10, ""},
		{"exactly 120%", 6, 5, 10, ""},
		{"just over 120%", 6.25, 5, 25, "Quantity is 125% of expected baseline"},
		{"exactly 150%", 6, 4, 25, "Quantity is 150% of expected baseline"},
		{"just over 150%", 7.6, 5, 40, "Quantity is 152% of expected baseline"},
		{"far over", 12, 5, 40, "Quantity is 240% of expected baseline"},
		{"zero quantity", 0, 5, 0, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			points, factor := CompareBaseline(tt.quantity, &contracts.Baseline{ExpectedDaily: tt.expected})
			assert.Equal(t, tt.points, points)
			assert.Equal(t, tt.factor, factor)
		})
	}
}

func TestCompareBaselineMissing(t *testing.T) {
	points, factor := CompareBaseline(1000, nil)
	assert.Equal(t, 20, points)
	assert.Equal(t, "No baseline data available for this department", factor)
}

func TestCompareBaselineZeroExpected(t *testing.T) {
	points, factor := CompareBaseline(3, &contracts.Baseline{ExpectedDaily: 0})
	assert.Equal(t, 40, points)
	assert.NotEmpty(t, factor)

	points, factor = CompareBaseline(0, &contracts.Baseline{ExpectedDaily: 0})
	assert.Equal(t, 0, points)
	assert.Empty(t, factor)
}

func TestScoreProcedureRulesAreAdditive(t *testing.T) {
	scorer := NewScorer(DefaultTables())
	ev := event(contracts.DeptPediatrics, contracts.WasteSharps, 6, contracts.ProcMajorSurgery, contracts.DisposalIncineration)

	got := scorer.Score(ev, &contracts.Baseline{ExpectedDaily: 100}, nil)

	// 25 sharps + 10 procedure + 5 pediatric
	assert.Equal(t, 40, got.Score)
	assert.Equal(t, []string{
		"High-risk waste type: Sharps",
		"High sharps volume in Major Surgery in pediatric setting",
	}, got.Factors)
}

func TestScoreClampedAtHundred(t *testing.T) {
	scorer := NewScorer(DefaultTables())
	// 40 quantity + 25 sharps + 20 mismatch + 15 procedure = 100
	ev := event(contracts.DeptPediatrics, contracts.WasteSharps, 50, contracts.ProcChemotherapy, contracts.DisposalRecycling)
	got := scorer.Score(ev, &contracts.Baseline{ExpectedDaily: 1}, nil)
	assert.Equal(t, 100, got.Score)

	spike := TrendFunc(func(contracts.WasteEvent, []contracts.WasteEvent) (int, string) {
		return 30, "Volume spike against 7-day history"
	})
	got = NewScorer(DefaultTables(), spike).Score(ev, &contracts.Baseline{ExpectedDaily: 1}, nil)
	assert.Equal(t, 100, got.Score)
	assert.Equal(t, "Volume spike against 7-day history", got.Factors[len(got.Factors)-1])
}

func TestScoreAlwaysWithinBounds(t *testing.T) {
	scorer := NewScorer(DefaultTables())
	baselines := []*contracts.Baseline{nil, {ExpectedDaily: 0}, {ExpectedDaily: 0.5}, {ExpectedDaily: 10}, {ExpectedDaily: 1000}}
	quantities := []float64{0, 0.3, 5, 5.01, 12, 400}

	for _, dept := range contracts.Departments {
		for _, cat := range contracts.WasteCategories {
			for _, proc := range contracts.Procedures {
				for _, disp := range contracts.DisposalMethods {
					for _, qty := range quantities {
						for _, b := range baselines {
							got := scorer.Score(event(dept, cat, qty, proc, disp), b, nil)
							if got.Score < 0 || got.Score > 100 {
								t.Fatalf("score %d out of range for %s/%s/%s/%s qty=%v", got.Score, dept, cat, proc, disp, qty)
							}
							if len(got.Factors) > 5 {
								t.Fatalf("unexpected factor count %d", len(got.Factors))
							}
						}
					}
				}
			}
		}
	}
}

func TestScoreIsDeterministic(t *testing.T) {
	scorer := NewScorer(DefaultTables())
	ev := event(contracts.DeptOncology, contracts.WasteChemical, 9, contracts.ProcChemotherapy, contracts.DisposalAutoclave)
	baseline := &contracts.Baseline{ExpectedDaily: 7}

	first := scorer.Score(ev, baseline, nil)
	second := scorer.Score(ev, baseline, nil)
	assert.Equal(t, first, second)
}

func TestIsAnomalyThreshold(t *testing.T) {
	assert.False(t, IsAnomaly(64))
	assert.True(t, IsAnomaly(65))
	assert.True(t, IsAnomaly(100))
	assert.False(t, IsAnomaly(0))
}
