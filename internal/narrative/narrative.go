// Package narrative turns a scored waste event into assessment text,
// recommended actions and an optional alert message.
//
// Two strategies implement Generator: OpenAI calls an external chat
// completion service, Template is a deterministic local generator. Resilient
// bounds the external call and falls back to Template on any failure.
package narrative

import (
	"context"
	"errors"

	"github.com/Jainesh24/cwi-backend/internal/contracts"
)

// Input is everything a generator may use. Baseline is nil when the
// department has none configured.
type Input struct {
	Event    contracts.WasteEvent
	Score    int
	Factors  []string
	Baseline *contracts.Baseline
}

type Narrative struct {
	Assessment        string  `json:"assessment"`
	RecommendedAction string  `json:"recommendedAction"`
	AlertMessage      *string `json:"alertMessage"`
	Source            string  `json:"-"`
}

type Generator interface {
	Generate(ctx context.Context, in Input) (Narrative, error)
}

var (
	ErrEmptyResponse     = errors.New("narrative service returned no choices")
	ErrMalformedResponse = errors.New("narrative response does not match schema")
)
