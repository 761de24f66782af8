package cli

import (
	"context"
	"os"
	"time"

	"github.com/briandowns/spinner"
	"github.com/urfave/cli/v3"
)

type Error struct {
	Code    int
	Message string
}

func Run(ctx context.Context, argv []string) *Error {
	cmd := &cli.Command{
		Name:  "dormouse",
		Usage: "Memory engine with dual-space retrieval",
		Commands: []*cli.Command{
			rememberCommand(),
			searchCommand(),
			splashCommand(),
			clustersCommand(),
			aliasCommand(),
			showCommand(),
		},
	}

	if err := cmd.Run(ctx, argv); err != nil {
		return &Error{
			Code:    1,
			Message: err.Error(),
		}
	}

	return nil
}

// withSpinner shows progress on stderr while fn runs, so stdout stays clean
// for command output.
func withSpinner(message string, fn func() error) error {
	s := spinner.New(spinner.CharSets[14], 100*time.Millisecond, spinner.WithWriter(os.Stderr))
	s.Suffix = " " + message
	s.Start()
	defer s.Stop()
	return fn()
}
