package types

import (
	"github.com/m-mizutani/goerr/v2"
)

// RiskLevel is the severity tier derived from a risk score
type RiskLevel string

const (
	RiskLevelLow    RiskLevel = "Low"
	RiskLevelMedium RiskLevel = "Medium"
	RiskLevelHigh   RiskLevel = "High"
)

const (
	// MaxLowScore is the highest score still classified as Low
	MaxLowScore = 6
	// MaxMediumScore is the highest score still classified as Medium
	MaxMediumScore = 12
)

// AllRiskLevels returns all tiers from lowest to highest
func AllRiskLevels() []RiskLevel {
	return []RiskLevel{
		RiskLevelLow,
		RiskLevelMedium,
		RiskLevelHigh,
	}
}

// ScoreOf returns the risk score for a probability and impact value.
// Inputs are expected on the 1..5 scale; range checks belong to the
// rating lookup.
func ScoreOf(probability, impact int) int {
	return probability * impact
}

// TierOf classifies a score: up to 6 is Low, up to 12 is Medium, anything
// above is High.
func TierOf(score int) RiskLevel {
	switch {
	case score <= MaxLowScore:
		return RiskLevelLow
	case score <= MaxMediumScore:
		return RiskLevelMedium
	default:
		return RiskLevelHigh
	}
}

// IsValid checks if the risk level is one of the known tiers
func (l RiskLevel) IsValid() bool {
	switch l {
	case RiskLevelLow,
		RiskLevelMedium,
		RiskLevelHigh:
		return true
	default:
		return false
	}
}

// String returns the string representation of the risk level
func (l RiskLevel) String() string {
	return string(l)
}

// legacyRiskLevels maps tier names written by earlier releases
var legacyRiskLevels = map[string]RiskLevel{
	"Bajo":  RiskLevelLow,
	"Medio": RiskLevelMedium,
	"Alto":  RiskLevelHigh,
}

// ParseRiskLevel parses a tier name, accepting the legacy Spanish names
func ParseRiskLevel(s string) (RiskLevel, error) {
	level := RiskLevel(s)
	if level.IsValid() {
		return level, nil
	}
	if legacy, ok := legacyRiskLevels[s]; ok {
		return legacy, nil
	}
	return "", goerr.New("invalid risk level", goerr.V("level", s))
}
