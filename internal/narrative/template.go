package narrative

import (
	"context"
	"fmt"

	"github.com/Jainesh24/cwi-backend/internal/contracts"
)

type Band int

const (
	BandLow Band = iota
	BandModerate
	BandHigh
)

func (b Band) String() string {
	switch b {
	case BandHigh:
		return "high"
	case BandModerate:
		return "moderate"
	default:
		return "low"
	}
}

// BandFor maps a composite score onto one of the three template bands.
func BandFor(score int) Band {
	switch {
	case score >= 70:
		return BandHigh
	case score >= 50:
		return BandModerate
	default:
		return BandLow
	}
}

// Template is the network-free generator. Output depends only on the score,
// the first factor and the event's descriptive fields.
type Template struct{}

func (Template) Generate(_ context.Context, in Input) (Narrative, error) {
	return Fallback(in), nil
}

func Fallback(in Input) Narrative {
	ev := in.Event
	n := Narrative{Source: contracts.NarrativeFallback}

	switch BandFor(in.Score) {
	case BandHigh:
		n.Assessment = fmt.Sprintf("High risk detected (%d/100) in %s. %s. Immediate review required.",
			in.Score, ev.Department, firstFactor(in.Factors, "Multiple risk factors identified"))
		n.RecommendedAction = fmt.Sprintf("• Review waste disposal protocols for %s\n"+
			"• Verify staff training on %s waste handling\n"+
			"• Evaluate quantity against baseline standards", ev.Department, ev.Category)
		alert := fmt.Sprintf("Potential Anomaly in %s Waste Generation", ev.Category)
		n.AlertMessage = &alert
	case BandModerate:
		n.Assessment = fmt.Sprintf("Moderate risk (%d/100) detected. %s. Monitoring recommended.",
			in.Score, firstFactor(in.Factors, "Some concerns identified"))
		n.RecommendedAction = fmt.Sprintf("• Monitor waste trends over next 48 hours\n"+
			"• Ensure proper segregation of %s waste\n"+
			"• Consider staff refresher training", ev.Category)
	default:
		n.Assessment = fmt.Sprintf("Low risk (%d/100). Waste handling appears appropriate for %s in %s.",
			in.Score, ev.Procedure, ev.Department)
		n.RecommendedAction = "• Continue current protocols\n" +
			"• Maintain proper documentation\n" +
			"• Regular monitoring recommended"
	}

	return n
}

func firstFactor(factors []string, fallback string) string {
	if len(factors) == 0 || factors[0] == "" {
		return fallback
	}
	return factors[0]
}
