package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/dormouselabs/dormouse/pkg/usecase/memory"
	"github.com/m-mizutani/goerr/v2"
	"github.com/urfave/cli/v3"
)

func rememberCommand() *cli.Command {
	var (
		cfg     config
		content string
	)

	flags := []cli.Flag{
		&cli.StringFlag{
			Name:        "content",
			Aliases:     []string{"c"},
			Usage:       "Memory content (reads stdin when omitted)",
			Destination: &content,
		},
	}
	flags = append(flags, globalFlags(&cfg)...)
	flags = append(flags, geminiFlags(&cfg)...)

	return &cli.Command{
		Name:      "remember",
		Usage:     "Store a new memory and show what it resonates with",
		ArgsUsage: "[content]",
		Flags:     flags,
		Action: func(ctx context.Context, c *cli.Command) error {
			uc, err := cfg.newUseCase(ctx)
			if err != nil {
				return err
			}

			text := content
			if text == "" && c.Args().Len() > 0 {
				text = strings.Join(c.Args().Slice(), " ")
			}
			if text == "" {
				raw, err := io.ReadAll(os.Stdin)
				if err != nil {
					return goerr.Wrap(err, "failed to read content from stdin")
				}
				text = strings.TrimSpace(string(raw))
			}

			var out *memory.RememberOutput
			if err := withSpinner("storing memory...", func() error {
				out, err = uc.Remember(ctx, &memory.RememberInput{Content: text})
				return err
			}); err != nil {
				return err
			}

			w := c.Root().Writer
			fmt.Fprintf(w, "Stored %s\n", out.Memory.ID)
			if out.Memory.Marginalia.Summary != "" {
				fmt.Fprintf(w, "Summary: %s\n", out.Memory.Marginalia.Summary)
			}
			if len(out.Memory.Marginalia.Entities) > 0 {
				fmt.Fprintf(w, "Entities: %s\n", strings.Join(out.Memory.Marginalia.Entities, ", "))
			}

			if out.Splash != nil {
				printSplash(w, out.Splash)
			}
			return nil
		},
	}
}
