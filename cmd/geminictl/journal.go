package main

import (
	"fmt"

	"github.com/urfave/cli/v2"
)

// journalCommand reads back what order, sync-trades and balances --snapshot
// recorded. It never calls the exchange.
func (e *env) journalCommand() *cli.Command {
	return &cli.Command{
		Name:  "journal",
		Usage: "show what the local database has recorded",
		Subcommands: []*cli.Command{
			{
				Name:      "fills",
				Usage:     "journaled fills for a symbol, newest first",
				ArgsUsage: "SYMBOL",
				Flags: []cli.Flag{
					&cli.IntFlag{Name: "limit", Value: 20, Usage: "maximum fills to show"},
				},
				Action: func(c *cli.Context) error {
					if err := requireArgs(c, 1); err != nil {
						return err
					}
					if c.Int("limit") <= 0 {
						return fmt.Errorf("--limit must be positive")
					}

					db, err := e.openJournal()
					if err != nil {
						return err
					}
					defer db.Close()

					fills, err := db.RecentFills(c.Args().First(), c.Int("limit"))
					if err != nil {
						return fmt.Errorf("load fills: %w", err)
					}
					return e.print(fills)
				},
			},
			{
				Name:  "balances",
				Usage: "the latest balance snapshot",
				Action: func(c *cli.Context) error {
					db, err := e.openJournal()
					if err != nil {
						return err
					}
					defer db.Close()

					balances, err := db.LatestBalances()
					if err != nil {
						return fmt.Errorf("load balances: %w", err)
					}
					return e.print(balances)
				},
			},
		},
	}
}
