package model

import "github.com/secmon-lab/riskmatrix/pkg/domain/types"

// Statistics summarizes a risk collection by tier
type Statistics struct {
	Total            int `json:"total" yaml:"total"`
	Low              int `json:"low" yaml:"low"`
	Medium           int `json:"medium" yaml:"medium"`
	High             int `json:"high" yaml:"high"`
	LowPercentage    int `json:"lowPercentage" yaml:"lowPercentage"`
	MediumPercentage int `json:"mediumPercentage" yaml:"mediumPercentage"`
	HighPercentage   int `json:"highPercentage" yaml:"highPercentage"`
}

// ComputeStatistics counts risks per tier
func ComputeStatistics(risks []Risk) Statistics {
	stats := Statistics{Total: len(risks)}
	for _, risk := range risks {
		switch risk.RiskLevel {
		case types.RiskLevelLow:
			stats.Low++
		case types.RiskLevelMedium:
			stats.Medium++
		case types.RiskLevelHigh:
			stats.High++
		}
	}

	stats.LowPercentage = percentage(stats.Low, stats.Total)
	stats.MediumPercentage = percentage(stats.Medium, stats.Total)
	stats.HighPercentage = percentage(stats.High, stats.Total)
	return stats
}

// percentage returns count/total as a whole percent, halves rounded up.
// Zero total yields zero.
func percentage(count, total int) int {
	if total <= 0 {
		return 0
	}
	return (count*200 + total) / (total * 2)
}

// Count returns the number of risks in level
func (s Statistics) Count(level types.RiskLevel) int {
	switch level {
	case types.RiskLevelLow:
		return s.Low
	case types.RiskLevelMedium:
		return s.Medium
	case types.RiskLevelHigh:
		return s.High
	default:
		return 0
	}
}

// Percentage returns the share of risks in level
func (s Statistics) Percentage(level types.RiskLevel) int {
	switch level {
	case types.RiskLevelLow:
		return s.LowPercentage
	case types.RiskLevelMedium:
		return s.MediumPercentage
	case types.RiskLevelHigh:
		return s.HighPercentage
	default:
		return 0
	}
}
