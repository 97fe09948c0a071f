package risk

import "github.com/Jainesh24/cwi-backend/internal/contracts"

// TrendFactor scores an event against the department's recent history.
// Implementations must be deterministic and return non-negative points;
// an empty factor string contributes points silently.
type TrendFactor interface {
	Evaluate(event contracts.WasteEvent, history []contracts.WasteEvent) (int, string)
}

type TrendFunc func(event contracts.WasteEvent, history []contracts.WasteEvent) (int, string)

func (f TrendFunc) Evaluate(event contracts.WasteEvent, history []contracts.WasteEvent) (int, string) {
	return f(event, history)
}
