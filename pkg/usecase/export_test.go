package usecase

import (
	"time"

	"github.com/secmon-lab/riskmatrix/pkg/domain/model"
)

// Transition is exported for testing
func Transition(s State, cmd Command, now time.Time, newID func() model.RiskID, preserveCreatedAt bool) (State, Outcome) {
	return transition(s, cmd, transitionEnv{
		now:               func() time.Time { return now },
		newID:             newID,
		preserveCreatedAt: preserveCreatedAt,
	})
}

// TimestampLayout is exported for testing
const TimestampLayout = timestampLayout
