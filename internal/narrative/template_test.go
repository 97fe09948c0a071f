package narrative

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Jainesh24/cwi-backend/internal/contracts"
)

func sampleEvent() contracts.WasteEvent {
	return contracts.WasteEvent{
		TenantID:   "tenant-a",
		Department: contracts.DeptOncology,
		Category:   contracts.WasteChemical,
		Quantity:   9,
		Procedure:  contracts.ProcChemotherapy,
		Disposal:   contracts.DisposalIncineration,
		Shift:      contracts.ShiftNight,
	}
}

func TestBandFor(t *testing.T) {
	tests := []struct {
		score int
		want  Band
	}{
		{0, BandLow},
		{49, BandLow},
		{50, BandModerate},
		{69, BandModerate},
		{70, BandHigh},
		{100, BandHigh},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, BandFor(tt.score), "score %d", tt.score)
	}
}

func TestFallbackHighBand(t *testing.T) {
	n := Fallback(Input{Event: sampleEvent(), Score: 82, Factors: []string{"Quantity is 180% of expected baseline", "High-risk waste type: Chemical"}})

	assert.Equal(t, "High risk detected (82/100) in Oncology. Quantity is 180% of expected baseline. Immediate review required.", n.Assessment)
	assert.Equal(t, "• Review waste disposal protocols for Oncology\n"+
		"• Verify staff training on Chemical waste handling\n"+
		"• Evaluate quantity against baseline standards", n.RecommendedAction)
	require.NotNil(t, n.AlertMessage)
	assert.Equal(t, "Potential Anomaly in Chemical Waste Generation", *n.AlertMessage)
	assert.Equal(t, contracts.NarrativeFallback, n.Source)
}

func TestFallbackHighBandWithoutFactors(t *testing.T) {
	n := Fallback(Input{Event: sampleEvent(), Score: 70})
	assert.Equal(t, "High risk detected (70/100) in Oncology. Multiple risk factors identified. Immediate review required.", n.Assessment)
}

func TestFallbackModerateBand(t *testing.T) {
	n := Fallback(Input{Event: sampleEvent(), Score: 55, Factors: []string{"High-risk waste type: Chemical"}})

	assert.Equal(t, "Moderate risk (55/100) detected. High-risk waste type: Chemical. Monitoring recommended.", n.Assessment)
	assert.Equal(t, "• Monitor waste trends over next 48 hours\n"+
		"• Ensure proper segregation of Chemical waste\n"+
		"• Consider staff refresher training", n.RecommendedAction)
	assert.Nil(t, n.AlertMessage)

	n = Fallback(Input{Event: sampleEvent(), Score: 50})
	assert.Equal(t, "Moderate risk (50/100) detected. Some concerns identified. Monitoring recommended.", n.Assessment)
}

func TestFallbackLowBand(t *testing.T) {
	n := Fallback(Input{Event: sampleEvent(), Score: 25, Factors: []string{"High-risk waste type: Chemical"}})

	assert.Equal(t, "Low risk (25/100). Waste handling appears appropriate for Chemotherapy in Oncology.", n.Assessment)
	assert.Equal(t, "• Continue current protocols\n• Maintain proper documentation\n• Regular monitoring recommended", n.RecommendedAction)
	assert.Nil(t, n.AlertMessage)
}

func TestFallbackIsReproducible(t *testing.T) {
	in := Input{Event: sampleEvent(), Score: 77, Factors: []string{"a", "b"}}
	first := Fallback(in)

	// Later factors do not influence the text.
	in.Factors = []string{"a", "something else"}
	second, err := Template{}.Generate(context.Background(), in)
	require.NoError(t, err)

	assert.Equal(t, first, second)
}
