package cli

import (
	"context"
	"fmt"
	"io"
	"slices"
	"strconv"

	"github.com/dustin/go-humanize"
	"github.com/fatih/color"
	"github.com/m-mizutani/goerr/v2"
	"github.com/olekukonko/tablewriter"
	"github.com/secmon-lab/riskmatrix/pkg/domain/model"
	"github.com/secmon-lab/riskmatrix/pkg/domain/types"
	"github.com/secmon-lab/riskmatrix/pkg/usecase"
	"github.com/urfave/cli/v3"
)

const shortIDLength = 8

func levelColor(level types.RiskLevel) *color.Color {
	switch level {
	case types.RiskLevelHigh:
		return color.New(color.FgRed, color.Bold)
	case types.RiskLevelMedium:
		return color.New(color.FgYellow)
	default:
		return color.New(color.FgGreen)
	}
}

func shortID(id model.RiskID) string {
	s := id.String()
	if len(s) > shortIDLength {
		return s[:shortIDLength]
	}
	return s
}

func newTable(w io.Writer, header []string) *tablewriter.Table {
	table := tablewriter.NewWriter(w)
	table.SetHeader(header)
	table.SetAutoFormatHeaders(false)
	table.SetAutoWrapText(false)
	table.SetAlignment(tablewriter.ALIGN_LEFT)
	return table
}

func cmdList() *cli.Command {
	var level string
	var sortBy string
	var fullID bool

	return &cli.Command{
		Name:    "list",
		Aliases: []string{"ls"},
		Usage:   "List risks in insertion order",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:        "level",
				Usage:       "Only show risks of this tier (Low, Medium, High)",
				Destination: &level,
			},
			&cli.StringFlag{
				Name:        "sort",
				Usage:       "Sort order (created, score)",
				Value:       "created",
				Destination: &sortBy,
			},
			&cli.BoolFlag{
				Name:        "full-id",
				Usage:       "Show complete risk IDs",
				Destination: &fullID,
			},
		},
		Action: func(ctx context.Context, c *cli.Command) error {
			risks := usecase.StoreFrom(ctx).Risks()

			if level != "" {
				want, err := types.ParseRiskLevel(level)
				if err != nil {
					return err
				}
				risks = slices.DeleteFunc(risks, func(r model.Risk) bool {
					return r.RiskLevel != want
				})
			}

			switch sortBy {
			case "created":
			case "score":
				slices.SortStableFunc(risks, func(a, b model.Risk) int {
					return b.RiskScore - a.RiskScore
				})
			default:
				return goerr.New("unknown sort order", goerr.V("sort", sortBy))
			}

			w := c.Root().Writer
			if len(risks) == 0 {
				fmt.Fprintln(w, "No risks recorded.")
				return nil
			}

			table := newTable(w, []string{"#", "ID", "Description", "Probability", "Impact", "Score", "Level", "Created"})
			for i, risk := range risks {
				id := shortID(risk.ID)
				if fullID {
					id = risk.ID.String()
				}
				table.Append([]string{
					strconv.Itoa(i + 1),
					id,
					risk.Description,
					risk.Probability.Label,
					risk.Impact.Label,
					strconv.Itoa(risk.RiskScore),
					levelColor(risk.RiskLevel).Sprint(risk.RiskLevel),
					humanize.Time(risk.CreatedAt),
				})
			}
			table.Render()
			return nil
		},
	}
}

func cmdStats() *cli.Command {
	return &cli.Command{
		Name:  "stats",
		Usage: "Show risk counts per tier",
		Action: func(ctx context.Context, c *cli.Command) error {
			stats := usecase.StoreFrom(ctx).Statistics()

			table := newTable(c.Root().Writer, []string{"Level", "Count", "Percentage"})
			table.SetColumnAlignment([]int{tablewriter.ALIGN_LEFT, tablewriter.ALIGN_RIGHT, tablewriter.ALIGN_RIGHT})
			for _, level := range types.AllRiskLevels() {
				table.Append([]string{
					levelColor(level).Sprint(level),
					humanize.Comma(int64(stats.Count(level))),
					strconv.Itoa(stats.Percentage(level)) + "%",
				})
			}
			table.SetFooter([]string{"Total", humanize.Comma(int64(stats.Total)), ""})
			table.Render()
			return nil
		},
	}
}

func cmdMatrix() *cli.Command {
	return &cli.Command{
		Name:  "matrix",
		Usage: "Show the probability/impact matrix with risk counts",
		Action: func(ctx context.Context, c *cli.Command) error {
			m := usecase.StoreFrom(ctx).Matrix()

			header := []string{"Probability \\ Impact"}
			for _, level := range types.ImpactLevels() {
				header = append(header, fmt.Sprintf("%d %s", level.Value, level.Label))
			}

			table := newTable(c.Root().Writer, header)
			levels := types.ProbabilityLevels()
			for p := len(levels); p >= 1; p-- {
				row := []string{fmt.Sprintf("%d %s", p, levels[p-1].Label)}
				for i := 1; i <= model.MatrixSize; i++ {
					cell := strconv.Itoa(m.Count(p, i))
					row = append(row, levelColor(model.CellLevel(p, i)).Sprint(cell))
				}
				table.Append(row)
			}
			table.Render()
			return nil
		},
	}
}

func cmdLevels() *cli.Command {
	return &cli.Command{
		Name:  "levels",
		Usage: "Show the rating scales and tier thresholds",
		Action: func(ctx context.Context, c *cli.Command) error {
			w := c.Root().Writer

			for _, scale := range []struct {
				name   string
				levels []types.RatingLevel
			}{
				{"Probability", types.ProbabilityLevels()},
				{"Impact", types.ImpactLevels()},
			} {
				fmt.Fprintln(w, scale.name)
				table := newTable(w, []string{"Value", "Label", "Description"})
				for _, level := range scale.levels {
					table.Append([]string{strconv.Itoa(level.Value), level.Label, level.Description})
				}
				table.Render()
				fmt.Fprintln(w)
			}

			fmt.Fprintln(w, "Tiers (score = probability x impact)")
			table := newTable(w, []string{"Level", "Score"})
			table.Append([]string{levelColor(types.RiskLevelLow).Sprint(types.RiskLevelLow), fmt.Sprintf("1-%d", types.MaxLowScore)})
			table.Append([]string{levelColor(types.RiskLevelMedium).Sprint(types.RiskLevelMedium), fmt.Sprintf("%d-%d", types.MaxLowScore+1, types.MaxMediumScore)})
			table.Append([]string{levelColor(types.RiskLevelHigh).Sprint(types.RiskLevelHigh), fmt.Sprintf("%d-%d", types.MaxMediumScore+1, types.MaxRatingValue*types.MaxRatingValue)})
			table.Render()
			return nil
		},
	}
}
