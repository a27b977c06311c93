package main

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
	"github.com/urfave/cli/v2"

	"github.com/web3guy0/gemini/feeds"
	"github.com/web3guy0/gemini/gemini"
)

// streamLine is one update plus the top of the local book as of printing.
type streamLine struct {
	Symbol    string             `json:"symbol"`
	Sequence  int64              `json:"sequence"`
	EventID   int64              `json:"event_id"`
	Timestamp time.Time          `json:"timestamp"`
	Changes   []feeds.Change     `json:"changes,omitempty"`
	Trades    []feeds.TradeEvent `json:"trades,omitempty"`
	BestBid   *decimal.Decimal   `json:"best_bid,omitempty"`
	BestAsk   *decimal.Decimal   `json:"best_ask,omitempty"`
	Spread    decimal.Decimal    `json:"spread"`
	Mid       decimal.Decimal    `json:"mid"`
	BidDepth  decimal.Decimal    `json:"bid_depth"`
	AskDepth  decimal.Decimal    `json:"ask_depth"`
	Bids      []feeds.PriceLevel `json:"bids"`
	Asks      []feeds.PriceLevel `json:"asks"`
}

type syncResult struct {
	Symbol   string `json:"symbol"`
	Since    int64  `json:"since"`
	Fetched  int    `json:"fetched"`
	Inserted int    `json:"inserted"`
}

func (e *env) feedCommands() []*cli.Command {
	return []*cli.Command{
		{
			Name:      "stream",
			Usage:     "stream market data updates until interrupted",
			ArgsUsage: "SYMBOL",
			Flags: []cli.Flag{
				&cli.IntFlag{Name: "depth", Value: 10, Usage: "price levels shown per side and summed into bid_depth and ask_depth"},
			},
			Action: func(c *cli.Context) error {
				if err := requireArgs(c, 1); err != nil {
					return err
				}
				if c.Int("depth") <= 0 {
					return fmt.Errorf("--depth must be positive")
				}
				return e.stream(c.Context, c.Args().First(), c.Int("depth"))
			},
		},
		{
			Name:      "sync-trades",
			Usage:     "journal the account's new fills for a symbol",
			ArgsUsage: "SYMBOL",
			Flags: []cli.Flag{
				&cli.IntFlag{Name: "limit", Value: 500, Usage: "maximum fills per request"},
			},
			Action: func(c *cli.Context) error {
				if err := requireArgs(c, 1); err != nil {
					return err
				}
				result, err := e.syncTrades(c.Context, c.Args().First(), c.Int("limit"))
				if err != nil {
					return err
				}
				return e.print(result)
			},
		},
	}
}

func (e *env) stream(ctx context.Context, symbol string, depth int) error {
	feed := feeds.NewMarketDataFeed(symbol, e.cfg.FeedOptions()...)
	updates := feed.Subscribe()

	done := make(chan error, 1)
	go func() { done <- feed.Run(ctx) }()

	for update := range updates {
		if err := e.print(topOfBook(update, feed, depth)); err != nil {
			return err
		}
	}

	if err := <-done; err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	log.Info().Str("symbol", symbol).Msg("Stream stopped")
	return nil
}

func topOfBook(u feeds.Update, feed *feeds.MarketDataFeed, depth int) streamLine {
	book := feed.Book()
	line := streamLine{
		Symbol:    u.Symbol,
		Sequence:  u.Sequence,
		EventID:   u.EventID,
		Timestamp: u.Timestamp,
		Changes:   u.Changes,
		Trades:    u.Trades,
		Spread:    book.Spread(),
		Mid:       book.Mid(),
	}
	if bid, ok := feed.BestBid(); ok {
		line.BestBid = &bid.Price
	}
	if ask, ok := feed.BestAsk(); ok {
		line.BestAsk = &ask.Price
	}
	line.BidDepth, line.AskDepth = book.Depth(depth)

	line.Bids, line.Asks = book.Levels()
	if len(line.Bids) > depth {
		line.Bids = line.Bids[:depth]
	}
	if len(line.Asks) > depth {
		line.Asks = line.Asks[:depth]
	}
	return line
}

// syncTrades fetches fills since the newest journaled one and stores the new
// ones. The since bound is inclusive, so the last known fill comes back and
// is skipped by the journal.
func (e *env) syncTrades(ctx context.Context, symbol string, limit int) (*syncResult, error) {
	db, err := e.openJournal()
	if err != nil {
		return nil, err
	}
	defer db.Close()

	since, err := db.LastFillTimestamp(symbol)
	if err != nil {
		return nil, err
	}

	trades, err := e.client.GetPastTrades(ctx, gemini.PastTradesRequest{
		Symbol:      symbol,
		LimitTrades: limit,
		Timestamp:   since,
	})
	if err != nil {
		return nil, err
	}

	inserted, err := db.SaveFills(symbol, trades)
	if err != nil {
		return nil, err
	}

	log.Info().
		Str("symbol", symbol).
		Int("fetched", len(trades)).
		Int("inserted", inserted).
		Msg("💾 Fills synced")

	return &syncResult{Symbol: symbol, Since: since, Fetched: len(trades), Inserted: inserted}, nil
}
