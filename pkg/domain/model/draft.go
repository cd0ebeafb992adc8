package model

import "github.com/secmon-lab/riskmatrix/pkg/domain/types"

// FormDraft is the uncommitted entry being created or edited. ID is empty
// while creating.
type FormDraft struct {
	ID          RiskID
	Description string
	Probability types.RatingLevel
	Impact      types.RatingLevel
}

// NewFormDraft returns a draft with default values
func NewFormDraft() FormDraft {
	return FormDraft{
		Probability: types.DefaultProbability(),
		Impact:      types.DefaultImpact(),
	}
}

// DraftFromRisk returns a draft populated from an existing risk
func DraftFromRisk(risk Risk) FormDraft {
	return FormDraft{
		ID:          risk.ID,
		Description: risk.Description,
		Probability: risk.Probability,
		Impact:      risk.Impact,
	}
}

// DraftPatch carries the fields to merge into a draft. Nil fields are left
// untouched. Rating values are resolved with the scale lookup, so an
// unknown value selects the lowest level.
type DraftPatch struct {
	Description *string
	Probability *int
	Impact      *int
}

// Apply returns a copy of d with the patch merged in
func (p DraftPatch) Apply(d FormDraft) FormDraft {
	if p.Description != nil {
		d.Description = *p.Description
	}
	if p.Probability != nil {
		d.Probability = types.ProbabilityOf(*p.Probability)
	}
	if p.Impact != nil {
		d.Impact = types.ImpactOf(*p.Impact)
	}
	return d
}

// IsEmpty reports whether the patch changes nothing
func (p DraftPatch) IsEmpty() bool {
	return p.Description == nil && p.Probability == nil && p.Impact == nil
}
