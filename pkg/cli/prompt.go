package cli

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/m-mizutani/goerr/v2"
	"github.com/urfave/cli/v3"
	"golang.org/x/term"
)

var ErrConfirmationRequired = errors.New("confirmation required")

func yesFlag(dst *bool) cli.Flag {
	return &cli.BoolFlag{
		Name:        "yes",
		Aliases:     []string{"y"},
		Usage:       "Skip the confirmation prompt",
		Destination: dst,
	}
}

// confirm asks a yes/no question on the command's reader. Terminal stdin is
// required unless yes is set.
func confirm(c *cli.Command, yes bool, question string) (bool, error) {
	if yes {
		return true, nil
	}

	r := c.Root().Reader
	if f, ok := r.(*os.File); ok && !term.IsTerminal(int(f.Fd())) {
		return false, goerr.Wrap(ErrConfirmationRequired, "input is not a terminal, pass --yes to proceed")
	}

	fmt.Fprintf(c.Root().Writer, "%s [y/N]: ", question)
	line, err := bufio.NewReader(r).ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return false, goerr.Wrap(err, "failed to read confirmation")
	}

	switch strings.ToLower(strings.TrimSpace(line)) {
	case "y", "yes":
		return true, nil
	default:
		fmt.Fprintln(c.Root().Writer, "Aborted.")
		return false, nil
	}
}
