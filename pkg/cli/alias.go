package cli

import (
	"context"
	"fmt"
	"strings"

	"github.com/m-mizutani/goerr/v2"
	"github.com/urfave/cli/v3"
)

func aliasCommand() *cli.Command {
	return &cli.Command{
		Name:  "alias",
		Usage: "Manage entity name aliases",
		Commands: []*cli.Command{
			aliasAddCommand(),
			aliasMergeCommand(),
			aliasResolveCommand(),
		},
	}
}

func aliasAddCommand() *cli.Command {
	var cfg config
	return &cli.Command{
		Name:      "add",
		Usage:     "Record a name as an alias of a canonical name",
		ArgsUsage: "<name> <canonical>",
		Flags:     globalFlags(&cfg),
		Action: func(ctx context.Context, c *cli.Command) error {
			if c.Args().Len() != 2 {
				return goerr.New("usage: alias add <name> <canonical>")
			}

			index, err := cfg.newAliasIndex(ctx)
			if err != nil {
				return err
			}

			name, canonical := c.Args().Get(0), c.Args().Get(1)
			if err := index.SetAlias(ctx, name, canonical); err != nil {
				return err
			}
			fmt.Fprintf(c.Root().Writer, "%s -> %s\n", name, canonical)
			return nil
		},
	}
}

func aliasMergeCommand() *cli.Command {
	var cfg config
	return &cli.Command{
		Name:      "merge",
		Usage:     "Fold one canonical name and all its aliases into another",
		ArgsUsage: "<from> <to>",
		Flags:     globalFlags(&cfg),
		Action: func(ctx context.Context, c *cli.Command) error {
			if c.Args().Len() != 2 {
				return goerr.New("usage: alias merge <from> <to>")
			}

			index, err := cfg.newAliasIndex(ctx)
			if err != nil {
				return err
			}

			from, to := c.Args().Get(0), c.Args().Get(1)
			if err := index.Merge(ctx, from, to); err != nil {
				return err
			}

			aliases, err := index.Aliases(ctx, to)
			if err != nil {
				return err
			}
			fmt.Fprintf(c.Root().Writer, "%s now resolves to %s (aliases: %s)\n",
				from, to, strings.Join(aliases, ", "))
			return nil
		},
	}
}

func aliasResolveCommand() *cli.Command {
	var cfg config
	return &cli.Command{
		Name:      "resolve",
		Usage:     "Show the canonical form of a name",
		ArgsUsage: "<name>",
		Flags:     globalFlags(&cfg),
		Action: func(ctx context.Context, c *cli.Command) error {
			if c.Args().Len() != 1 {
				return goerr.New("usage: alias resolve <name>")
			}

			index, err := cfg.newAliasIndex(ctx)
			if err != nil {
				return err
			}

			fmt.Fprintln(c.Root().Writer, index.Resolve(ctx, c.Args().Get(0)))
			return nil
		},
	}
}
