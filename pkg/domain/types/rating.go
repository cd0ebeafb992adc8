package types

import "fmt"

// RatingAxis names the scale a RatingLevel belongs to
type RatingAxis string

const (
	RatingAxisProbability RatingAxis = "probability"
	RatingAxisImpact      RatingAxis = "impact"
)

const (
	// MinRatingValue is the lowest value on every rating scale
	MinRatingValue = 1
	// MaxRatingValue is the highest value on every rating scale
	MaxRatingValue = 5
)

// RatingLevel is one step of a fixed five-step rating scale
type RatingLevel struct {
	Value       int    `json:"value" yaml:"value"`
	Label       string `json:"label" yaml:"label"`
	Description string `json:"description" yaml:"description"`
}

// String returns "Label (Description)"
func (r RatingLevel) String() string {
	return fmt.Sprintf("%s (%s)", r.Label, r.Description)
}

// IsValidRatingValue reports whether v is on the 1..5 scale
func IsValidRatingValue(v int) bool {
	return v >= MinRatingValue && v <= MaxRatingValue
}

// lookupLevel resolves value on a scale. An unknown value resolves to the
// lowest level instead of failing so that a form submission is never
// blocked by a bad selection. This masks bad input on purpose.
func lookupLevel(levels []RatingLevel, value int) RatingLevel {
	for _, level := range levels {
		if level.Value == value {
			return level
		}
	}
	return levels[0]
}

func copyLevels(levels []RatingLevel) []RatingLevel {
	copied := make([]RatingLevel, len(levels))
	copy(copied, levels)
	return copied
}
