package cli

import (
	"context"
	"fmt"
	"time"

	"github.com/dormouselabs/dormouse/pkg/cluster"
	"github.com/dormouselabs/dormouse/pkg/model"
	"github.com/dormouselabs/dormouse/pkg/usecase/memory"
	"github.com/m-mizutani/goerr/v2"
	"github.com/urfave/cli/v3"
)

func clustersCommand() *cli.Command {
	var (
		cfg       config
		space     string
		method    string
		threshold float64
		k         int64
		intervalQ string
		timezone  string
	)

	flags := []cli.Flag{
		&cli.StringFlag{
			Name:        "space",
			Aliases:     []string{"s"},
			Usage:       "Embedding space: semantic or emotional",
			Value:       "semantic",
			Destination: &space,
		},
		&cli.StringFlag{
			Name:        "method",
			Aliases:     []string{"m"},
			Usage:       "Clustering method: density, density-fixed, agglomerative, kmeans",
			Destination: &method,
		},
		&cli.FloatFlag{
			Name:        "threshold",
			Usage:       "Similarity threshold in (0,1) for density methods",
			Destination: &threshold,
		},
		&cli.IntFlag{
			Name:        "k",
			Usage:       "Cluster count for kmeans (0 = sqrt of corpus size)",
			Destination: &k,
		},
		&cli.StringFlag{
			Name:        "interval",
			Aliases:     []string{"i"},
			Usage:       "Restrict candidates to this time window",
			Destination: &intervalQ,
		},
		&cli.StringFlag{
			Name:        "timezone",
			Usage:       "IANA timezone for interval resolution",
			Value:       "UTC",
			Sources:     cli.EnvVars("DORMOUSE_TIMEZONE"),
			Destination: &timezone,
		},
	}
	flags = append(flags, globalFlags(&cfg)...)

	return &cli.Command{
		Name:  "clusters",
		Usage: "Group memories by embedding proximity",
		Flags: flags,
		Action: func(ctx context.Context, c *cli.Command) error {
			// Clustering reads stored embeddings only; no Gemini wiring.
			uc, err := cfg.newOfflineUseCase(ctx)
			if err != nil {
				return err
			}

			loc, err := time.LoadLocation(timezone)
			if err != nil {
				return goerr.Wrap(err, "unknown timezone", goerr.V("timezone", timezone))
			}

			if method == "" {
				method = cfg.settings.Cluster.Method
			}
			if threshold == 0 {
				threshold = cfg.settings.Cluster.Threshold
			}

			var candidates []*model.ClusterCandidate
			if err := withSpinner("clustering...", func() error {
				candidates, err = uc.Clusters(ctx, &memory.ClustersInput{
					Space:     model.Space(space),
					Method:    cluster.Method(method),
					Threshold: threshold,
					K:         int(k),
					Interval:  intervalQ,
					Location:  loc,
				})
				return err
			}); err != nil {
				return err
			}

			w := c.Root().Writer
			if len(candidates) == 0 {
				fmt.Fprintln(w, "No clusters found")
				return nil
			}
			for i, cand := range candidates {
				fmt.Fprintf(w, "Cluster %d: %d members, interestingness %.3f (radius %.3f, dispersion %.3f)\n",
					i+1, len(cand.Members), cand.Interestingness, cand.Radius, cand.Dispersion)
				fmt.Fprintf(w, "  %s .. %s\n",
					cand.Oldest.Format(time.RFC3339), cand.Newest.Format(time.RFC3339))
				for _, m := range cand.Members {
					fmt.Fprintf(w, "  - %s\n", m.Preview(72))
				}
			}
			return nil
		},
	}
}
