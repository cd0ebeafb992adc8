package report

import (
	"bytes"
	"fmt"

	"github.com/secmon-lab/riskmatrix/pkg/domain/interfaces"
	"github.com/secmon-lab/riskmatrix/pkg/domain/model"
)

const (
	generatedAtLayout = "January 2, 2006 15:04"
	riskDateLayout    = "January 2, 2006"
)

// Markdown renders the register as a Markdown document
type Markdown struct {
	opts options
}

var _ interfaces.ReportFormatter = &Markdown{}

func NewMarkdown(opts ...Option) *Markdown {
	return &Markdown{opts: newOptions(opts)}
}

func (m *Markdown) Format(risks []model.Risk, stats model.Statistics) ([]byte, error) {
	var b bytes.Buffer

	fmt.Fprintf(&b, "# %s\n\n", m.opts.title)
	fmt.Fprintf(&b, "> **Generated at:** %s\n\n", m.opts.now().In(m.opts.loc).Format(generatedAtLayout))

	b.WriteString("## Risk Summary\n\n")
	b.WriteString("| Category | Count | Percentage |\n")
	b.WriteString("|----------|-------|------------|\n")
	fmt.Fprintf(&b, "| **Total** | %d | 100%% |\n", stats.Total)
	fmt.Fprintf(&b, "| **Low** | %d | %d%% |\n", stats.Low, stats.LowPercentage)
	fmt.Fprintf(&b, "| **Medium** | %d | %d%% |\n", stats.Medium, stats.MediumPercentage)
	fmt.Fprintf(&b, "| **High** | %d | %d%% |\n\n", stats.High, stats.HighPercentage)

	b.WriteString("## Risk List\n\n")
	for i, risk := range risks {
		fmt.Fprintf(&b, "### Risk #%d\n\n", i+1)
		fmt.Fprintf(&b, "- **Description:** %s\n", risk.Description)
		fmt.Fprintf(&b, "- **Probability:** %s (%s)\n", risk.Probability.Label, risk.Probability.Description)
		fmt.Fprintf(&b, "- **Impact:** %s (%s)\n", risk.Impact.Label, risk.Impact.Description)
		fmt.Fprintf(&b, "- **Risk Level:** `%s` (Score: %d)\n", risk.RiskLevel, risk.RiskScore)
		fmt.Fprintf(&b, "- **Date:** %s\n\n", risk.CreatedAt.In(m.opts.loc).Format(riskDateLayout))
	}

	b.WriteString("## Statistics\n\n")
	b.WriteString("```\n")
	fmt.Fprintf(&b, "Total risks:   %d\n", stats.Total)
	fmt.Fprintf(&b, "Low risks:     %d (%d%%)\n", stats.Low, stats.LowPercentage)
	fmt.Fprintf(&b, "Medium risks:  %d (%d%%)\n", stats.Medium, stats.MediumPercentage)
	fmt.Fprintf(&b, "High risks:    %d (%d%%)\n", stats.High, stats.HighPercentage)
	b.WriteString("```\n")

	return b.Bytes(), nil
}
