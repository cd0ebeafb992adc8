package http

import (
	"time"

	"github.com/secmon-lab/riskmatrix/pkg/domain/model"
	"github.com/secmon-lab/riskmatrix/pkg/domain/types"
)

type riskResponse struct {
	ID          string            `json:"id"`
	Description string            `json:"description"`
	Probability types.RatingLevel `json:"probability"`
	Impact      types.RatingLevel `json:"impact"`
	RiskScore   int               `json:"riskScore"`
	RiskLevel   types.RiskLevel   `json:"riskLevel"`
	CreatedAt   time.Time         `json:"createdAt"`
}

func toRiskResponse(r model.Risk) riskResponse {
	return riskResponse{
		ID:          r.ID.String(),
		Description: r.Description,
		Probability: r.Probability,
		Impact:      r.Impact,
		RiskScore:   r.RiskScore,
		RiskLevel:   r.RiskLevel,
		CreatedAt:   r.CreatedAt,
	}
}

type draftResponse struct {
	ID          string            `json:"id"`
	Description string            `json:"description"`
	Probability types.RatingLevel `json:"probability"`
	Impact      types.RatingLevel `json:"impact"`
	IsEditing   bool              `json:"isEditing"`
}

func toDraftResponse(d model.FormDraft, isEditing bool) draftResponse {
	return draftResponse{
		ID:          d.ID.String(),
		Description: d.Description,
		Probability: d.Probability,
		Impact:      d.Impact,
		IsEditing:   isEditing,
	}
}

type draftPatchRequest struct {
	Description *string `json:"description"`
	Probability *int    `json:"probability"`
	Impact      *int    `json:"impact"`
}

func (req draftPatchRequest) toPatch() model.DraftPatch {
	return model.DraftPatch{
		Description: req.Description,
		Probability: req.Probability,
		Impact:      req.Impact,
	}
}

type matrixResponse struct {
	Probability []types.RatingLevel `json:"probability"`
	Impact      []types.RatingLevel `json:"impact"`
	Counts      [][]int             `json:"counts"`
	Levels      [][]types.RiskLevel `json:"levels"`
}

func toMatrixResponse(m model.Matrix) matrixResponse {
	resp := matrixResponse{
		Probability: types.ProbabilityLevels(),
		Impact:      types.ImpactLevels(),
		Counts:      make([][]int, model.MatrixSize),
		Levels:      make([][]types.RiskLevel, model.MatrixSize),
	}
	for p := range model.MatrixSize {
		resp.Counts[p] = make([]int, model.MatrixSize)
		resp.Levels[p] = make([]types.RiskLevel, model.MatrixSize)
		for i := range model.MatrixSize {
			resp.Counts[p][i] = m[p][i]
			resp.Levels[p][i] = model.CellLevel(p+1, i+1)
		}
	}
	return resp
}

type levelsResponse struct {
	Probability []types.RatingLevel `json:"probability"`
	Impact      []types.RatingLevel `json:"impact"`
}
