package main

import (
	"github.com/urfave/cli/v2"

	"github.com/web3guy0/gemini/gemini"
)

func (e *env) publicCommands() []*cli.Command {
	return []*cli.Command{
		{
			Name:  "symbols",
			Usage: "list tradable symbols",
			Action: func(c *cli.Context) error {
				symbols, err := e.client.GetSymbols(c.Context)
				if err != nil {
					return err
				}
				return e.print(symbols)
			},
		},
		{
			Name:      "ticker",
			Usage:     "show the ticker for a symbol",
			ArgsUsage: "SYMBOL",
			Action: func(c *cli.Context) error {
				if err := requireArgs(c, 1); err != nil {
					return err
				}
				ticker, err := e.client.GetTicker(c.Context, c.Args().First())
				if err != nil {
					return err
				}
				return e.print(ticker)
			},
		},
		{
			Name:      "book",
			Usage:     "show the order book for a symbol",
			ArgsUsage: "SYMBOL",
			Flags: []cli.Flag{
				&cli.IntFlag{Name: "limit-bids", Usage: "bid levels to return (0 for all)"},
				&cli.IntFlag{Name: "limit-asks", Usage: "ask levels to return (0 for all)"},
			},
			Action: func(c *cli.Context) error {
				if err := requireArgs(c, 1); err != nil {
					return err
				}
				book, err := e.client.GetOrderBook(c.Context, c.Args().First(), &gemini.OrderBookParams{
					LimitBids: c.Int("limit-bids"),
					LimitAsks: c.Int("limit-asks"),
				})
				if err != nil {
					return err
				}
				return e.print(book)
			},
		},
		{
			Name:      "trades",
			Usage:     "show recent public trades for a symbol",
			ArgsUsage: "SYMBOL",
			Flags: []cli.Flag{
				&cli.Int64Flag{Name: "since", Usage: "only trades after this timestamp"},
				&cli.IntFlag{Name: "limit", Usage: "maximum trades to return"},
				&cli.BoolFlag{Name: "include-breaks", Usage: "include broken trades"},
			},
			Action: func(c *cli.Context) error {
				if err := requireArgs(c, 1); err != nil {
					return err
				}
				trades, err := e.client.GetTradeHistory(c.Context, c.Args().First(), &gemini.TradeHistoryParams{
					Since:         c.Int64("since"),
					LimitTrades:   c.Int("limit"),
					IncludeBreaks: c.Bool("include-breaks"),
				})
				if err != nil {
					return err
				}
				return e.print(trades)
			},
		},
		{
			Name:      "auction",
			Usage:     "show the current auction for a symbol",
			ArgsUsage: "SYMBOL",
			Action: func(c *cli.Context) error {
				if err := requireArgs(c, 1); err != nil {
					return err
				}
				auction, err := e.client.GetCurrentAuction(c.Context, c.Args().First())
				if err != nil {
					return err
				}
				return e.print(auction)
			},
		},
		{
			Name:      "auction-history",
			Usage:     "show past auction events for a symbol",
			ArgsUsage: "SYMBOL",
			Flags: []cli.Flag{
				&cli.Int64Flag{Name: "since", Usage: "only events after this timestamp"},
				&cli.IntFlag{Name: "limit", Usage: "maximum events to return"},
				&cli.BoolFlag{Name: "include-indicative", Usage: "include indicative price events"},
			},
			Action: func(c *cli.Context) error {
				if err := requireArgs(c, 1); err != nil {
					return err
				}
				events, err := e.client.GetAuctionHistory(c.Context, c.Args().First(), &gemini.AuctionHistoryParams{
					Since:               c.Int64("since"),
					LimitAuctionResults: c.Int("limit"),
					IncludeIndicative:   c.Bool("include-indicative"),
				})
				if err != nil {
					return err
				}
				return e.print(events)
			},
		},
	}
}
