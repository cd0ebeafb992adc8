package cli

import (
	"context"
	"fmt"
	"strings"

	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/riskmatrix/pkg/domain/model"
	"github.com/secmon-lab/riskmatrix/pkg/domain/types"
	"github.com/secmon-lab/riskmatrix/pkg/usecase"
	"github.com/urfave/cli/v3"
)

var (
	ErrInvalidRating = goerr.New("rating must be between 1 and 5")
	ErrNothingToEdit = goerr.New("no field to change")
	ErrAmbiguousID   = goerr.New("risk ID prefix matches more than one risk")
)

// resolveID finds a risk by exact ID or unique ID prefix
func resolveID(store *usecase.RiskStore, arg string) (model.RiskID, error) {
	if risk, ok := store.Find(model.RiskID(arg)); ok {
		return risk.ID, nil
	}

	var matched []model.RiskID
	if arg != "" {
		for _, risk := range store.Risks() {
			if strings.HasPrefix(risk.ID.String(), arg) {
				matched = append(matched, risk.ID)
			}
		}
	}

	switch len(matched) {
	case 0:
		return "", goerr.Wrap(usecase.ErrRiskNotFound, "no such risk", goerr.V(usecase.RiskIDKey, arg))
	case 1:
		return matched[0], nil
	default:
		return "", goerr.Wrap(ErrAmbiguousID, "use a longer prefix", goerr.V(usecase.RiskIDKey, arg), goerr.V("matches", len(matched)))
	}
}

func validateRating(name string, v int) error {
	if !types.IsValidRatingValue(v) {
		return goerr.Wrap(ErrInvalidRating, "invalid rating", goerr.V("field", name), goerr.V("value", v))
	}
	return nil
}

func printCommitted(c *cli.Command, verb string, risk model.Risk) {
	fmt.Fprintf(c.Root().Writer, "%s risk %s: score %d (%s)\n",
		verb, risk.ID, risk.RiskScore, levelColor(risk.RiskLevel).Sprint(risk.RiskLevel))
}

func cmdAdd() *cli.Command {
	var description string
	var probability, impact int

	return &cli.Command{
		Name:      "add",
		Aliases:   []string{"a"},
		Usage:     "Record a new risk",
		ArgsUsage: "[description]",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:        "description",
				Aliases:     []string{"d"},
				Usage:       "Risk description",
				Destination: &description,
			},
			&cli.IntFlag{
				Name:        "probability",
				Aliases:     []string{"p"},
				Usage:       "Probability rating (1-5)",
				Value:       types.DefaultProbability().Value,
				Destination: &probability,
			},
			&cli.IntFlag{
				Name:        "impact",
				Aliases:     []string{"i"},
				Usage:       "Impact rating (1-5)",
				Value:       types.DefaultImpact().Value,
				Destination: &impact,
			},
		},
		Action: func(ctx context.Context, c *cli.Command) error {
			if description == "" && c.NArg() > 0 {
				description = strings.Join(c.Args().Slice(), " ")
			}
			if err := validateRating("probability", probability); err != nil {
				return err
			}
			if err := validateRating("impact", impact); err != nil {
				return err
			}

			store := usecase.StoreFrom(ctx)
			store.ResetForm(ctx)
			store.SetDraftFields(ctx, model.DraftPatch{
				Description: &description,
				Probability: &probability,
				Impact:      &impact,
			})

			risk, ok := store.Commit(ctx)
			if !ok {
				return goerr.Wrap(usecase.ErrBlankDescription, "cannot add risk")
			}
			printCommitted(c, "Added", risk)
			return nil
		},
	}
}

func cmdEdit() *cli.Command {
	var description string
	var probability, impact int

	return &cli.Command{
		Name:      "edit",
		Aliases:   []string{"e"},
		Usage:     "Change an existing risk",
		ArgsUsage: "[options] <id>",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:        "description",
				Aliases:     []string{"d"},
				Usage:       "New description",
				Destination: &description,
			},
			&cli.IntFlag{
				Name:        "probability",
				Aliases:     []string{"p"},
				Usage:       "New probability rating (1-5)",
				Destination: &probability,
			},
			&cli.IntFlag{
				Name:        "impact",
				Aliases:     []string{"i"},
				Usage:       "New impact rating (1-5)",
				Destination: &impact,
			},
		},
		Action: func(ctx context.Context, c *cli.Command) error {
			if c.NArg() != 1 {
				return goerr.New("edit takes exactly one risk ID")
			}

			var patch model.DraftPatch
			if c.IsSet("description") {
				patch.Description = &description
			}
			if c.IsSet("probability") {
				if err := validateRating("probability", probability); err != nil {
					return err
				}
				patch.Probability = &probability
			}
			if c.IsSet("impact") {
				if err := validateRating("impact", impact); err != nil {
					return err
				}
				patch.Impact = &impact
			}
			if patch.IsEmpty() {
				return goerr.Wrap(ErrNothingToEdit, "pass --description, --probability or --impact")
			}

			store := usecase.StoreFrom(ctx)
			id, err := resolveID(store, c.Args().First())
			if err != nil {
				return err
			}
			if !store.BeginEdit(ctx, id) {
				return goerr.Wrap(usecase.ErrRiskNotFound, "cannot edit risk", goerr.V(usecase.RiskIDKey, id))
			}
			store.SetDraftFields(ctx, patch)

			risk, ok := store.Commit(ctx)
			if !ok {
				return goerr.Wrap(usecase.ErrBlankDescription, "cannot update risk", goerr.V(usecase.RiskIDKey, id))
			}
			printCommitted(c, "Updated", risk)
			return nil
		},
	}
}

func cmdDelete() *cli.Command {
	var yes bool

	return &cli.Command{
		Name:      "delete",
		Aliases:   []string{"rm"},
		Usage:     "Delete risks by ID",
		ArgsUsage: "<id>...",
		Flags:     []cli.Flag{yesFlag(&yes)},
		Action: func(ctx context.Context, c *cli.Command) error {
			if c.NArg() == 0 {
				return goerr.New("delete takes at least one risk ID")
			}

			store := usecase.StoreFrom(ctx)
			ids := make([]model.RiskID, 0, c.NArg())
			for _, arg := range c.Args().Slice() {
				id, err := resolveID(store, arg)
				if err != nil {
					return err
				}
				ids = append(ids, id)
			}

			ok, err := confirm(c, yes, fmt.Sprintf("Delete %d risk(s)?", len(ids)))
			if err != nil || !ok {
				return err
			}

			for _, id := range ids {
				if store.DeleteRisk(ctx, id) {
					fmt.Fprintf(c.Root().Writer, "Deleted risk %s\n", id)
				}
			}
			return nil
		},
	}
}

func cmdClear() *cli.Command {
	var yes bool

	return &cli.Command{
		Name:  "clear",
		Usage: "Delete every risk",
		Flags: []cli.Flag{yesFlag(&yes)},
		Action: func(ctx context.Context, c *cli.Command) error {
			store := usecase.StoreFrom(ctx)
			count := len(store.Risks())
			if count == 0 {
				fmt.Fprintln(c.Root().Writer, "No risks to delete.")
				return nil
			}

			ok, err := confirm(c, yes, fmt.Sprintf("Delete all %d risks?", count))
			if err != nil || !ok {
				return err
			}

			store.ClearAll(ctx)
			fmt.Fprintf(c.Root().Writer, "Deleted %d risks\n", count)
			return nil
		},
	}
}
