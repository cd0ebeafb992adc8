package model

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/riskmatrix/pkg/domain/types"
)

// RiskID is a UUID-based identifier for Risk
type RiskID string

// NewRiskID generates a new UUID v4 RiskID
func NewRiskID() RiskID {
	return RiskID(uuid.New().String())
}

// String returns the string representation of RiskID
func (id RiskID) String() string {
	return string(id)
}

// Risk is a recorded hazard. RiskScore and RiskLevel are always derived from
// Probability and Impact; build values through NewRisk to keep them in sync.
type Risk struct {
	ID          RiskID
	Description string
	Probability types.RatingLevel
	Impact      types.RatingLevel
	RiskScore   int
	RiskLevel   types.RiskLevel
	CreatedAt   time.Time
}

// NewRisk builds a Risk with score and tier computed from the ratings
func NewRisk(id RiskID, description string, probability, impact types.RatingLevel, createdAt time.Time) Risk {
	score := types.ScoreOf(probability.Value, impact.Value)
	return Risk{
		ID:          id,
		Description: description,
		Probability: probability,
		Impact:      impact,
		RiskScore:   score,
		RiskLevel:   types.TierOf(score),
		CreatedAt:   createdAt,
	}
}

// IsBlankDescription reports whether s is empty after trimming whitespace
func IsBlankDescription(s string) bool {
	return strings.TrimSpace(s) == ""
}

// Validate checks the invariants of a Risk
func (r *Risk) Validate() error {
	if r.ID == "" {
		return goerr.New("risk ID is required")
	}
	if IsBlankDescription(r.Description) {
		return goerr.New("risk description is required", goerr.V("id", r.ID))
	}
	if !types.IsValidRatingValue(r.Probability.Value) {
		return goerr.New("probability out of range", goerr.V("id", r.ID), goerr.V("probability", r.Probability.Value))
	}
	if !types.IsValidRatingValue(r.Impact.Value) {
		return goerr.New("impact out of range", goerr.V("id", r.ID), goerr.V("impact", r.Impact.Value))
	}
	if want := types.ScoreOf(r.Probability.Value, r.Impact.Value); r.RiskScore != want {
		return goerr.New("risk score does not match ratings",
			goerr.V("id", r.ID), goerr.V("score", r.RiskScore), goerr.V("expected", want))
	}
	if want := types.TierOf(r.RiskScore); r.RiskLevel != want {
		return goerr.New("risk level does not match score",
			goerr.V("id", r.ID), goerr.V("level", r.RiskLevel), goerr.V("expected", want))
	}
	return nil
}
