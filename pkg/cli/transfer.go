package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/riskmatrix/pkg/service/report"
	"github.com/secmon-lab/riskmatrix/pkg/usecase"
	"github.com/secmon-lab/riskmatrix/pkg/utils/logging"
	"github.com/urfave/cli/v3"
)

func cmdExport(rt *runtime) *cli.Command {
	var format string
	var output string
	var title string

	return &cli.Command{
		Name:  "export",
		Usage: "Write a risk analysis report",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:        "format",
				Aliases:     []string{"f"},
				Usage:       "Report format (markdown, json, yaml)",
				Value:       string(report.FormatMarkdown),
				Destination: &format,
			},
			&cli.StringFlag{
				Name:        "output",
				Aliases:     []string{"o"},
				Usage:       "Output file or directory; stdout when omitted or '-'",
				Destination: &output,
			},
			&cli.StringFlag{
				Name:        "title",
				Usage:       "Report title",
				Destination: &title,
			},
		},
		Action: func(ctx context.Context, c *cli.Command) error {
			f, err := report.ParseFormat(format)
			if err != nil {
				return err
			}

			opts := rt.app.ReportOptions()
			opts = append(opts, report.WithTitle(title))
			formatter, err := report.New(f, opts...)
			if err != nil {
				return err
			}

			data, err := usecase.StoreFrom(ctx).Export(formatter)
			if err != nil {
				return err
			}

			if output == "" || output == "-" {
				_, err := c.Root().Writer.Write(data)
				return err
			}

			path := output
			if info, err := os.Stat(output); err == nil && info.IsDir() {
				path = filepath.Join(output, report.FileName(f, time.Now()))
			}
			if err := os.WriteFile(path, data, 0600); err != nil {
				return goerr.Wrap(err, "failed to write report", goerr.V("path", path))
			}
			fmt.Fprintf(c.Root().Writer, "Report written to %s\n", path)
			return nil
		},
	}
}

func cmdImport() *cli.Command {
	var yes bool

	return &cli.Command{
		Name:      "import",
		Usage:     "Replace all risks with those in a JSON file",
		ArgsUsage: "<file|->",
		Flags:     []cli.Flag{yesFlag(&yes)},
		Action: func(ctx context.Context, c *cli.Command) error {
			if c.NArg() != 1 {
				return goerr.New("import takes exactly one file")
			}

			src := c.Args().First()
			var data []byte
			var err error
			if src == "-" {
				data, err = io.ReadAll(c.Root().Reader)
			} else {
				// #nosec G304 - path is provided by CLI argument
				data, err = os.ReadFile(src)
			}
			if err != nil {
				return goerr.Wrap(err, "failed to read import file", goerr.V("path", src))
			}

			risks, skipped, err := usecase.DecodeImport(data)
			if err != nil {
				return goerr.Wrap(err, "failed to parse import file", goerr.V("path", src))
			}
			if len(skipped) > 0 {
				logging.From(ctx).Warn("Skipped invalid risks", "ids", skipped)
			}

			store := usecase.StoreFrom(ctx)
			if existing := len(store.Risks()); existing > 0 {
				// Stdin already holds the import data
				if src == "-" && !yes {
					return goerr.Wrap(ErrConfirmationRequired, "pass --yes when importing from stdin")
				}
				ok, err := confirm(c, yes, fmt.Sprintf("Replace %d existing risks with %d imported risks?", existing, len(risks)))
				if err != nil || !ok {
					return err
				}
			}

			store.ReplaceAll(ctx, risks)
			fmt.Fprintf(c.Root().Writer, "Imported %d risks (%d skipped)\n", len(risks), len(skipped))
			return nil
		},
	}
}
