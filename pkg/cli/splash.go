package cli

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/dormouselabs/dormouse/pkg/model"
	"github.com/dormouselabs/dormouse/pkg/usecase/memory"
	"github.com/urfave/cli/v3"
)

func splashCommand() *cli.Command {
	var (
		cfg      config
		text     string
		space    string
		count    int64
		minScore float64
		contrast bool
	)

	flags := []cli.Flag{
		&cli.StringFlag{
			Name:        "text",
			Aliases:     []string{"x"},
			Usage:       "Probe text to splash into the corpus",
			Required:    true,
			Destination: &text,
		},
		&cli.StringFlag{
			Name:        "space",
			Aliases:     []string{"s"},
			Usage:       "Embedding space: semantic, emotional, both",
			Value:       "semantic",
			Destination: &space,
		},
		&cli.IntFlag{
			Name:        "count",
			Aliases:     []string{"n"},
			Usage:       "Memories to report per band",
			Value:       5,
			Destination: &count,
		},
		&cli.FloatFlag{
			Name:        "min-score",
			Usage:       "Resonance floor in [0,1]; 0 reports every memory",
			Destination: &minScore,
		},
		&cli.BoolFlag{
			Name:        "contrast",
			Usage:       "Also report the most distant memories",
			Destination: &contrast,
		},
	}
	flags = append(flags, globalFlags(&cfg)...)
	flags = append(flags, geminiFlags(&cfg)...)

	return &cli.Command{
		Name:  "splash",
		Usage: "Show which memories resonate with a piece of text",
		Flags: flags,
		Action: func(ctx context.Context, c *cli.Command) error {
			uc, err := cfg.newUseCase(ctx)
			if err != nil {
				return err
			}

			opts := memory.SplashOptions{
				Space:           model.Space(space),
				Count:           int(count),
				IncludeContrast: contrast,
			}
			if c.IsSet("min-score") {
				opts.MinScore = &minScore
			}

			var result *memory.SplashResult
			if err := withSpinner("splashing...", func() error {
				result, err = uc.Splash(ctx, text, opts)
				return err
			}); err != nil {
				return err
			}

			printSplash(c.Root().Writer, result)
			return nil
		},
	}
}

func printSplash(w io.Writer, result *memory.SplashResult) {
	if len(result.Resonant) == 0 && len(result.Contrasting) == 0 {
		fmt.Fprintln(w, "No resonance")
		return
	}

	if len(result.Resonant) > 0 {
		fmt.Fprintln(w, "Resonant:")
		for _, r := range result.Resonant {
			fmt.Fprintf(w, "  %.3f  %s  %s\n",
				r.Score, r.Memory.CreatedAt.Format(time.RFC3339), r.Memory.Preview(72))
		}
	}
	if len(result.Contrasting) > 0 {
		fmt.Fprintln(w, "Contrasting:")
		for _, r := range result.Contrasting {
			fmt.Fprintf(w, "  %.3f  %s  %s\n",
				r.Score, r.Memory.CreatedAt.Format(time.RFC3339), r.Memory.Preview(72))
		}
	}
}
