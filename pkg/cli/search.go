package cli

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/dormouselabs/dormouse/pkg/model"
	"github.com/dormouselabs/dormouse/pkg/usecase/memory"
	"github.com/m-mizutani/goerr/v2"
	"github.com/urfave/cli/v3"
)

func searchCommand() *cli.Command {
	var (
		cfg        config
		query      string
		searchType string
		intervalQ  string
		timezone   string
		entities   []string
		keywords   []string
		importance float64
		order      string
		limit      int64
		offset     int64
	)

	flags := []cli.Flag{
		&cli.StringFlag{
			Name:        "query",
			Aliases:     []string{"q"},
			Usage:       "Query text (omit to browse chronologically)",
			Destination: &query,
		},
		&cli.StringFlag{
			Name:        "type",
			Aliases:     []string{"t"},
			Usage:       "Search type: browse, exact, semantic, emotional, both",
			Destination: &searchType,
		},
		&cli.StringFlag{
			Name:        "interval",
			Aliases:     []string{"i"},
			Usage:       "Time window, e.g. 'yesterday', 'past 3 days', 'P3H/'",
			Destination: &intervalQ,
		},
		&cli.StringFlag{
			Name:        "timezone",
			Usage:       "IANA timezone for interval resolution",
			Value:       "UTC",
			Sources:     cli.EnvVars("DORMOUSE_TIMEZONE"),
			Destination: &timezone,
		},
		&cli.StringSliceFlag{
			Name:        "entity",
			Aliases:     []string{"e"},
			Usage:       "Restrict to memories mentioning this entity (repeatable)",
			Destination: &entities,
		},
		&cli.StringSliceFlag{
			Name:        "keyword",
			Aliases:     []string{"k"},
			Usage:       "Restrict to memories annotated with this keyword (repeatable)",
			Destination: &keywords,
		},
		&cli.FloatFlag{
			Name:        "importance",
			Usage:       "Minimum extracted importance in [0,1]",
			Destination: &importance,
		},
		&cli.StringFlag{
			Name:        "order",
			Usage:       "Chronological order for browse: asc, desc, auto",
			Value:       "auto",
			Destination: &order,
		},
		&cli.IntFlag{
			Name:        "limit",
			Aliases:     []string{"l"},
			Usage:       "Maximum number of results",
			Value:       20,
			Destination: &limit,
		},
		&cli.IntFlag{
			Name:        "offset",
			Usage:       "Number of results to skip",
			Destination: &offset,
		},
	}
	flags = append(flags, globalFlags(&cfg)...)
	flags = append(flags, geminiFlags(&cfg)...)

	return &cli.Command{
		Name:  "search",
		Usage: "Search memories by similarity, text match and entities",
		Flags: flags,
		Action: func(ctx context.Context, c *cli.Command) error {
			uc, err := cfg.newUseCase(ctx)
			if err != nil {
				return err
			}

			loc, err := time.LoadLocation(timezone)
			if err != nil {
				return goerr.Wrap(err, "unknown timezone", goerr.V("timezone", timezone))
			}

			var results []*model.SearchResult
			if err := withSpinner("searching...", func() error {
				results, err = uc.Search(ctx, &memory.SearchInput{
					Query:         query,
					Type:          memory.SearchType(searchType),
					Interval:      intervalQ,
					Location:      loc,
					Entities:      entities,
					Keywords:      keywords,
					MinImportance: importance,
					Order:         model.Order(order),
					Limit:         int(limit),
					Offset:        int(offset),
				})
				return err
			}); err != nil {
				return err
			}

			w := c.Root().Writer
			if len(results) == 0 {
				fmt.Fprintln(w, "No memories found")
				return nil
			}
			for _, r := range results {
				walls := make([]string, 0, len(r.Walls))
				for _, tag := range r.Walls {
					walls = append(walls, string(tag))
				}
				fmt.Fprintf(w, "%.3f  %s  [%s]  %s\n",
					r.Score,
					r.Memory.CreatedAt.Format(time.RFC3339),
					strings.Join(walls, ","),
					r.Memory.Preview(80))
			}
			return nil
		},
	}
}
