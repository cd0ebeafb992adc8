package cli

import "github.com/urfave/cli/v3"

// NewAppForTest returns the root command without running it
func NewAppForTest(version string) *cli.Command {
	return newApp(version)
}
