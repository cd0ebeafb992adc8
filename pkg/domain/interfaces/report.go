package interfaces

import "github.com/secmon-lab/riskmatrix/pkg/domain/model"

// ReportFormatter renders a snapshot of the risk register
type ReportFormatter interface {
	Format(risks []model.Risk, stats model.Statistics) ([]byte, error)
}
