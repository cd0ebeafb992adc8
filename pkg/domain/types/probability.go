package types

var probabilityLevels = []RatingLevel{
	{Value: 1, Label: "Very Low", Description: "0-10% probability"},
	{Value: 2, Label: "Low", Description: "11-30% probability"},
	{Value: 3, Label: "Medium", Description: "31-50% probability"},
	{Value: 4, Label: "High", Description: "51-80% probability"},
	{Value: 5, Label: "Very High", Description: "81-100% probability"},
}

// ProbabilityLevels returns the probability scale ordered from lowest to highest
func ProbabilityLevels() []RatingLevel {
	return copyLevels(probabilityLevels)
}

// ProbabilityOf returns the probability level for value, falling back to
// the lowest level when value is not on the scale
func ProbabilityOf(value int) RatingLevel {
	return lookupLevel(probabilityLevels, value)
}

// DefaultProbability is the level a fresh draft starts with
func DefaultProbability() RatingLevel {
	return probabilityLevels[0]
}
