package usecase

import (
	"time"

	"github.com/secmon-lab/riskmatrix/pkg/domain/model"
)

// Command is a state transition request for RiskStore. The set is closed:
// SetRisks, SetDraftFields, BeginEdit, Commit, DeleteRisk and ResetForm.
type Command interface {
	commandName() string
}

// SetRisks replaces the whole collection
type SetRisks struct {
	Risks []model.Risk
}

// SetDraftFields merges Patch into the draft without validation
type SetDraftFields struct {
	Patch model.DraftPatch
}

// BeginEdit loads the risk with ID into the draft and enters editing
type BeginEdit struct {
	ID model.RiskID
}

// Commit validates the draft and creates or replaces a risk
type Commit struct{}

// DeleteRisk removes the risk with ID
type DeleteRisk struct {
	ID model.RiskID
}

// ResetForm returns the draft to creating defaults
type ResetForm struct{}

func (SetRisks) commandName() string       { return "set_risks" }
func (SetDraftFields) commandName() string { return "set_draft_fields" }
func (BeginEdit) commandName() string      { return "begin_edit" }
func (Commit) commandName() string         { return "commit" }
func (DeleteRisk) commandName() string     { return "delete_risk" }
func (ResetForm) commandName() string      { return "reset_form" }

// State is the full store state: the collection and the draft
type State struct {
	Risks     []model.Risk
	Draft     model.FormDraft
	IsEditing bool
}

// NewState returns an empty collection with a creating draft
func NewState() State {
	return State{
		Risks: []model.Risk{},
		Draft: model.NewFormDraft(),
	}
}

// Rejection names why a command was a no-op
type Rejection string

const (
	RejectionNone             Rejection = ""
	RejectionBlankDescription Rejection = "blank_description"
	RejectionRiskNotFound     Rejection = "risk_not_found"
	RejectionIDExhausted      Rejection = "id_exhausted"
)

// Outcome reports what a transition did
type Outcome struct {
	// Applied is false when the command was a silent no-op
	Applied bool
	// Rejection is set when a validation or lookup turned the command into
	// a no-op. A stale edit commit is Applied (the draft resets) and still
	// carries RejectionRiskNotFound.
	Rejection Rejection
	// WasEditing is the editing flag before the command ran
	WasEditing bool
	// RisksChanged is true when the collection must be persisted
	RisksChanged bool
	// Committed holds the created or replaced risk after a Commit
	Committed *model.Risk
}

type transitionEnv struct {
	now               func() time.Time
	newID             func() model.RiskID
	preserveCreatedAt bool
}

// transition is the single state-transition function. It never mutates s;
// slices are copied before they change.
func transition(s State, cmd Command, env transitionEnv) (State, Outcome) {
	next, out := apply(s, cmd, env)
	out.WasEditing = s.IsEditing
	return next, out
}

func apply(s State, cmd Command, env transitionEnv) (State, Outcome) {
	switch c := cmd.(type) {
	case SetRisks:
		s.Risks = cloneRisks(c.Risks)
		return s, Outcome{Applied: true, RisksChanged: true}

	case SetDraftFields:
		s.Draft = c.Patch.Apply(s.Draft)
		return s, Outcome{Applied: true}

	case BeginEdit:
		idx := indexOf(s.Risks, c.ID)
		if idx < 0 {
			return s, Outcome{Rejection: RejectionRiskNotFound}
		}
		s.Draft = model.DraftFromRisk(s.Risks[idx])
		s.IsEditing = true
		return s, Outcome{Applied: true}

	case Commit:
		return commit(s, env)

	case DeleteRisk:
		idx := indexOf(s.Risks, c.ID)
		if idx < 0 {
			return s, Outcome{Rejection: RejectionRiskNotFound}
		}
		risks := make([]model.Risk, 0, len(s.Risks)-1)
		risks = append(risks, s.Risks[:idx]...)
		s.Risks = append(risks, s.Risks[idx+1:]...)
		// An in-progress edit of the deleted risk is left as is
		return s, Outcome{Applied: true, RisksChanged: true}

	case ResetForm:
		s.Draft = model.NewFormDraft()
		s.IsEditing = false
		return s, Outcome{Applied: true}

	default:
		return s, Outcome{}
	}
}

func commit(s State, env transitionEnv) (State, Outcome) {
	d := s.Draft
	if model.IsBlankDescription(d.Description) {
		return s, Outcome{Rejection: RejectionBlankDescription}
	}

	now := env.now()
	var out Outcome

	if s.IsEditing {
		risk := model.NewRisk(d.ID, d.Description, d.Probability, d.Impact, now)
		if idx := indexOf(s.Risks, d.ID); idx >= 0 {
			// CreatedAt is re-stamped on edit unless preservation is enabled
			if env.preserveCreatedAt {
				risk.CreatedAt = s.Risks[idx].CreatedAt
			}
			s.Risks = cloneRisks(s.Risks)
			s.Risks[idx] = risk
			out.RisksChanged = true
			out.Committed = &risk
		} else {
			out.Rejection = RejectionRiskNotFound
		}
	} else {
		id, ok := freshID(s.Risks, env.newID)
		if !ok {
			return s, Outcome{Rejection: RejectionIDExhausted}
		}
		risk := model.NewRisk(id, d.Description, d.Probability, d.Impact, now)
		risks := make([]model.Risk, 0, len(s.Risks)+1)
		risks = append(risks, s.Risks...)
		s.Risks = append(risks, risk)
		out.RisksChanged = true
		out.Committed = &risk
	}

	s.Draft = model.NewFormDraft()
	s.IsEditing = false
	out.Applied = true
	return s, out
}

// maxIDAttempts bounds retries when a generated ID collides with an
// existing one
const maxIDAttempts = 16

func freshID(risks []model.Risk, newID func() model.RiskID) (model.RiskID, bool) {
	for range maxIDAttempts {
		id := newID()
		if id != "" && indexOf(risks, id) < 0 {
			return id, true
		}
	}
	return "", false
}

func indexOf(risks []model.Risk, id model.RiskID) int {
	for i := range risks {
		if risks[i].ID == id {
			return i
		}
	}
	return -1
}

func cloneRisks(risks []model.Risk) []model.Risk {
	cloned := make([]model.Risk, len(risks))
	copy(cloned, risks)
	return cloned
}
