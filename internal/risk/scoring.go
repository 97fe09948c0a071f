package risk

import (
	"fmt"
	"math"
	"strconv"

	"github.com/Jainesh24/cwi-backend/internal/contracts"
)

const (
	noBaselinePoints        = 20
	disposalMismatchPoints  = 20
	highRiskProcedurePoints = 10
	pediatricSharpsPoints   = 5

	maxScore = 100

	// AnomalyThreshold is the fixed engine cutoff. Baseline.AnomalyThreshold
	// is stored per tenant but not consulted here.
	AnomalyThreshold = 65
)

const noBaselineFactor = "No baseline data available for this department"

// Assessment is the deterministic half of an analysis.
type Assessment struct {
	Score   int
	Factors []string
}

// Scorer combines the factor sources in a fixed order. It holds no mutable
// state and is safe for concurrent use.
type Scorer struct {
	tables Tables
	trends []TrendFactor
}

func NewScorer(tables Tables, trends ...TrendFactor) *Scorer {
	return &Scorer{tables: tables, trends: trends}
}

func (s *Scorer) Tables() Tables {
	return s.tables
}

// Score runs baseline, category, disposal, procedure and then any trend
// factors. Factor order follows that sequence exactly.
func (s *Scorer) Score(event contracts.WasteEvent, baseline *contracts.Baseline, history []contracts.WasteEvent) Assessment {
	score := 0
	factors := make([]string, 0, 5)

	add := func(points int, factor string) {
		score += points
		if factor != "" {
			factors = append(factors, factor)
		}
	}

	add(CompareBaseline(event.Quantity, baseline))

	weight := s.tables.CategoryWeight(event.Category)
	categoryFactor := ""
	if s.tables.IsHighRiskCategory(event.Category) {
		categoryFactor = fmt.Sprintf("High-risk waste type: %s", event.Category)
	}
	add(weight, categoryFactor)

	if warning := s.tables.CheckDisposal(event.Category, event.Disposal); warning != "" {
		add(disposalMismatchPoints, warning)
	}

	add(s.tables.AssessProcedure(event))

	for _, trend := range s.trends {
		points, factor := trend.Evaluate(event, history)
		add(max(points, 0), factor)
	}

	return Assessment{
		Score:   clamp(score, 0, maxScore),
		Factors: factors,
	}
}

// CompareBaseline scores the quantity against the expected daily volume.
// A missing baseline is not an error and scores a flat penalty.
func CompareBaseline(quantity float64, baseline *contracts.Baseline) (int, string) {
	if baseline == nil {
		return noBaselinePoints, noBaselineFactor
	}

	if baseline.ExpectedDaily <= 0 {
		if quantity > 0 {
			return 40, "Quantity recorded against a zero expected baseline"
		}
		return 0, ""
	}

	ratio := quantity * 100 / baseline.ExpectedDaily
	switch {
	case ratio > 150:
		return 40, quantityFactor(ratio)
	case ratio > 120:
		return 25, quantityFactor(ratio)
	case ratio > 100:
		return 10, ""
	default:
		return 0, ""
	}
}

// IsAnomaly classifies a composite score.
func IsAnomaly(score int) bool {
	return score >= AnomalyThreshold
}

func quantityFactor(ratio float64) string {
	return "Quantity is " + strconv.FormatFloat(math.Round(ratio), 'f', 0, 64) + "% of expected baseline"
}

func clamp(value, min, max int) int {
	if value < min {
		return min
	}
	if value > max {
		return max
	}
	return value
}
