package model

import "github.com/secmon-lab/riskmatrix/pkg/domain/types"

// MatrixSize is the number of rows and columns of the risk matrix
const MatrixSize = types.MaxRatingValue

// Matrix counts risks per probability (row) and impact (column). Cell
// [p-1][i-1] holds the risks rated probability p and impact i.
type Matrix [MatrixSize][MatrixSize]int

// BuildMatrix counts risks into the matrix. Risks with ratings outside
// the scale are skipped.
func BuildMatrix(risks []Risk) Matrix {
	var m Matrix
	for _, risk := range risks {
		p, i := risk.Probability.Value, risk.Impact.Value
		if !types.IsValidRatingValue(p) || !types.IsValidRatingValue(i) {
			continue
		}
		m[p-1][i-1]++
	}
	return m
}

// Count returns the occupancy for probability p and impact i (both 1..5)
func (m Matrix) Count(p, i int) int {
	if !types.IsValidRatingValue(p) || !types.IsValidRatingValue(i) {
		return 0
	}
	return m[p-1][i-1]
}

// CellLevel returns the tier of the cell for probability p and impact i
func CellLevel(p, i int) types.RiskLevel {
	return types.TierOf(types.ScoreOf(p, i))
}
