package report

import (
	"encoding/json"
	"time"

	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/riskmatrix/pkg/domain/interfaces"
	"github.com/secmon-lab/riskmatrix/pkg/domain/model"
	"github.com/secmon-lab/riskmatrix/pkg/domain/types"
	"gopkg.in/yaml.v3"
)

type document struct {
	Title       string           `json:"title" yaml:"title"`
	GeneratedAt time.Time        `json:"generatedAt" yaml:"generatedAt"`
	Statistics  model.Statistics `json:"statistics" yaml:"statistics"`
	Risks       []riskEntry      `json:"risks" yaml:"risks"`
}

type riskEntry struct {
	ID          string            `json:"id" yaml:"id"`
	Description string            `json:"description" yaml:"description"`
	Probability types.RatingLevel `json:"probability" yaml:"probability"`
	Impact      types.RatingLevel `json:"impact" yaml:"impact"`
	RiskScore   int               `json:"riskScore" yaml:"riskScore"`
	RiskLevel   types.RiskLevel   `json:"riskLevel" yaml:"riskLevel"`
	CreatedAt   time.Time         `json:"createdAt" yaml:"createdAt"`
}

func buildDocument(o options, risks []model.Risk, stats model.Statistics) document {
	entries := make([]riskEntry, len(risks))
	for i, risk := range risks {
		entries[i] = riskEntry{
			ID:          risk.ID.String(),
			Description: risk.Description,
			Probability: risk.Probability,
			Impact:      risk.Impact,
			RiskScore:   risk.RiskScore,
			RiskLevel:   risk.RiskLevel,
			CreatedAt:   risk.CreatedAt.In(o.loc),
		}
	}
	return document{
		Title:       o.title,
		GeneratedAt: o.now().In(o.loc),
		Statistics:  stats,
		Risks:       entries,
	}
}

// JSON renders the register as an indented JSON document
type JSON struct {
	opts options
}

var _ interfaces.ReportFormatter = &JSON{}

func NewJSON(opts ...Option) *JSON {
	return &JSON{opts: newOptions(opts)}
}

func (j *JSON) Format(risks []model.Risk, stats model.Statistics) ([]byte, error) {
	data, err := json.MarshalIndent(buildDocument(j.opts, risks, stats), "", "  ")
	if err != nil {
		return nil, goerr.Wrap(err, "failed to marshal JSON report")
	}
	return append(data, '\n'), nil
}

// YAML renders the register as a YAML document
type YAML struct {
	opts options
}

var _ interfaces.ReportFormatter = &YAML{}

func NewYAML(opts ...Option) *YAML {
	return &YAML{opts: newOptions(opts)}
}

func (y *YAML) Format(risks []model.Risk, stats model.Statistics) ([]byte, error) {
	data, err := yaml.Marshal(buildDocument(y.opts, risks, stats))
	if err != nil {
		return nil, goerr.Wrap(err, "failed to marshal YAML report")
	}
	return data, nil
}
