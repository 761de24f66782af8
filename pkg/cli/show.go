package cli

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/dormouselabs/dormouse/pkg/model"
	"github.com/m-mizutani/goerr/v2"
	"github.com/urfave/cli/v3"
)

func showCommand() *cli.Command {
	var cfg config

	return &cli.Command{
		Name:      "show",
		Usage:     "Show a memory in full",
		ArgsUsage: "<memory-id>",
		Flags:     globalFlags(&cfg),
		Action: func(ctx context.Context, c *cli.Command) error {
			if c.Args().Len() != 1 {
				return goerr.New("usage: show <memory-id>")
			}

			if err := cfg.setup(); err != nil {
				return err
			}
			repo, err := cfg.newRepository(ctx)
			if err != nil {
				return err
			}

			m, err := repo.GetMemory(ctx, model.MemoryID(c.Args().Get(0)))
			if err != nil {
				return err
			}

			w := c.Root().Writer
			fmt.Fprintf(w, "ID:       %s\n", m.ID)
			fmt.Fprintf(w, "Created:  %s\n", m.CreatedAt.Format(time.RFC3339))
			if m.Marginalia.Summary != "" {
				fmt.Fprintf(w, "Summary:  %s\n", m.Marginalia.Summary)
			}
			if len(m.Marginalia.Entities) > 0 {
				fmt.Fprintf(w, "Entities: %s\n", strings.Join(m.Marginalia.Entities, ", "))
			}
			if len(m.Marginalia.Keywords) > 0 {
				fmt.Fprintf(w, "Keywords: %s\n", strings.Join(m.Marginalia.Keywords, ", "))
			}
			if m.Marginalia.Importance > 0 {
				fmt.Fprintf(w, "Importance: %.2f\n", m.Marginalia.Importance)
			}
			fmt.Fprintf(w, "\n%s\n", m.Content)
			return nil
		},
	}
}
