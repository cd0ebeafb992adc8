package usecase

import (
	"bytes"
	"encoding/json"
	"time"

	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/riskmatrix/pkg/domain/model"
	"github.com/secmon-lab/riskmatrix/pkg/domain/types"
)

// DefaultStorageKey is the fixed key the collection is stored under
const DefaultStorageKey = "risk-calculator-risks"

// timestampLayout is ISO 8601 in UTC with millisecond precision
const timestampLayout = "2006-01-02T15:04:05.000Z07:00"

type ratingRecord struct {
	Value       int    `json:"value"`
	Label       string `json:"label"`
	Description string `json:"description"`
}

type riskRecord struct {
	ID          string       `json:"id"`
	Description string       `json:"description"`
	Probability ratingRecord `json:"probability"`
	Impact      ratingRecord `json:"impact"`
	RiskScore   int          `json:"riskScore"`
	RiskLevel   string       `json:"riskLevel"`
	CreatedAt   string       `json:"createdAt"`
}

func toRatingRecord(level types.RatingLevel) ratingRecord {
	return ratingRecord{
		Value:       level.Value,
		Label:       level.Label,
		Description: level.Description,
	}
}

// EncodeRisks serializes the collection in insertion order
func EncodeRisks(risks []model.Risk) ([]byte, error) {
	records := make([]riskRecord, len(risks))
	for i, risk := range risks {
		records[i] = riskRecord{
			ID:          risk.ID.String(),
			Description: risk.Description,
			Probability: toRatingRecord(risk.Probability),
			Impact:      toRatingRecord(risk.Impact),
			RiskScore:   risk.RiskScore,
			RiskLevel:   risk.RiskLevel.String(),
			CreatedAt:   risk.CreatedAt.UTC().Format(timestampLayout),
		}
	}

	data, err := json.Marshal(records)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to encode risks", goerr.V("count", len(risks)))
	}
	return data, nil
}

// DecodeRisks parses a stored collection. Ratings are resolved against the
// fixed scales and score and tier are recomputed, so stale or legacy
// records load with consistent values. Records without an ID, with a
// blank description, a repeated ID or an unparseable createdAt are
// returned in skipped, as are elements of the wrong shape. Only data that
// is not a JSON array fails the whole decode.
func DecodeRisks(data []byte) (risks []model.Risk, skipped []string, err error) {
	var elems []json.RawMessage
	if err := json.Unmarshal(data, &elems); err != nil {
		return nil, nil, goerr.Wrap(err, "failed to decode risks")
	}

	risks = make([]model.Risk, 0, len(elems))
	seen := make(map[string]bool, len(elems))
	for _, elem := range elems {
		var rec riskRecord
		if err := json.Unmarshal(elem, &rec); err != nil {
			skipped = append(skipped, rec.ID)
			continue
		}
		if rec.ID == "" || model.IsBlankDescription(rec.Description) || seen[rec.ID] {
			skipped = append(skipped, rec.ID)
			continue
		}
		createdAt, err := time.Parse(time.RFC3339Nano, rec.CreatedAt)
		if err != nil {
			skipped = append(skipped, rec.ID)
			continue
		}
		seen[rec.ID] = true

		risks = append(risks, model.NewRisk(
			model.RiskID(rec.ID),
			rec.Description,
			types.ProbabilityOf(rec.Probability.Value),
			types.ImpactOf(rec.Impact.Value),
			createdAt.UTC(),
		))
	}

	return risks, skipped, nil
}

// DecodeImport accepts either a stored collection or a JSON report
// document with a top-level "risks" array.
func DecodeImport(data []byte) (risks []model.Risk, skipped []string, err error) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) > 0 && trimmed[0] == '{' {
		var doc struct {
			Risks json.RawMessage `json:"risks"`
		}
		if err := json.Unmarshal(trimmed, &doc); err != nil {
			return nil, nil, goerr.Wrap(err, "failed to decode report document")
		}
		if doc.Risks == nil {
			return nil, nil, goerr.New("report document has no risks")
		}
		trimmed = doc.Risks
	}
	return DecodeRisks(trimmed)
}
