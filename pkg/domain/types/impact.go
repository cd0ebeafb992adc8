package types

var impactLevels = []RatingLevel{
	{Value: 1, Label: "Insignificant", Description: "Minimal impact"},
	{Value: 2, Label: "Minor", Description: "Low impact"},
	{Value: 3, Label: "Moderate", Description: "Medium impact"},
	{Value: 4, Label: "Major", Description: "High impact"},
	{Value: 5, Label: "Catastrophic", Description: "Critical impact"},
}

// ImpactLevels returns the impact scale ordered from lowest to highest
func ImpactLevels() []RatingLevel {
	return copyLevels(impactLevels)
}

// ImpactOf returns the impact level for value, falling back to the lowest
// level when value is not on the scale
func ImpactOf(value int) RatingLevel {
	return lookupLevel(impactLevels, value)
}

// DefaultImpact is the level a fresh draft starts with
func DefaultImpact() RatingLevel {
	return impactLevels[0]
}
