package main

import (
	"fmt"
	"strconv"

	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
	"github.com/urfave/cli/v2"

	"github.com/web3guy0/gemini/gemini"
	"github.com/web3guy0/gemini/internal/notify"
	"github.com/web3guy0/gemini/internal/wallet"
)

func (e *env) privateCommands() []*cli.Command {
	return []*cli.Command{
		{
			Name:  "order",
			Usage: "place a new order",
			Flags: []cli.Flag{
				&cli.StringFlag{Name: "symbol", Required: true},
				&cli.StringFlag{Name: "side", Required: true, Usage: "buy or sell"},
				&cli.StringFlag{Name: "amount", Required: true},
				&cli.StringFlag{Name: "price", Required: true},
				&cli.StringFlag{Name: "stop-price", Usage: "places an exchange stop limit order"},
				&cli.StringFlag{Name: "client-order-id", Usage: "defaults to a random UUID"},
				&cli.StringFlag{Name: "option", Usage: "maker-or-cancel, immediate-or-cancel, fill-or-kill, ..."},
				&cli.BoolFlag{Name: "journal", Value: true, Usage: "record the order in the local database"},
			},
			Action: e.placeOrder,
		},
		{
			Name:      "cancel",
			Usage:     "cancel an order",
			ArgsUsage: "ORDER_ID",
			Action: func(c *cli.Context) error {
				if err := requireArgs(c, 1); err != nil {
					return err
				}
				id, err := strconv.ParseInt(c.Args().First(), 10, 64)
				if err != nil {
					return fmt.Errorf("invalid order id %q: %w", c.Args().First(), err)
				}
				order, err := e.client.CancelOrder(c.Context, id)
				if err != nil {
					return err
				}
				notify.Deliver(e.notifier, notify.FormatOrder(order))
				return e.print(order)
			},
		},
		{
			Name:  "cancel-session",
			Usage: "cancel all orders placed in this API session",
			Action: func(c *cli.Context) error {
				result, err := e.client.CancelAllSessionOrders(c.Context)
				if err != nil {
					return err
				}
				notify.Deliver(e.notifier, notify.FormatCancel("session", result))
				return e.print(result)
			},
		},
		{
			Name:  "cancel-all",
			Usage: "cancel every active order on the account",
			Action: func(c *cli.Context) error {
				result, err := e.client.CancelAllActiveOrders(c.Context)
				if err != nil {
					return err
				}
				notify.Deliver(e.notifier, notify.FormatCancel("all", result))
				return e.print(result)
			},
		},
		{
			Name:  "status",
			Usage: "show an order by exchange or client order id",
			Flags: []cli.Flag{
				&cli.Int64Flag{Name: "order-id"},
				&cli.StringFlag{Name: "client-order-id"},
				&cli.BoolFlag{Name: "include-trades"},
			},
			Action: func(c *cli.Context) error {
				req := gemini.OrderStatusRequest{
					OrderID:       c.Int64("order-id"),
					ClientOrderID: c.String("client-order-id"),
					IncludeTrades: c.Bool("include-trades"),
				}
				if req.OrderID == 0 && req.ClientOrderID == "" {
					return fmt.Errorf("one of --order-id or --client-order-id is required")
				}
				order, err := e.client.GetOrderStatus(c.Context, req)
				if err != nil {
					return err
				}
				return e.print(order)
			},
		},
		{
			Name:  "orders",
			Usage: "list active orders",
			Action: func(c *cli.Context) error {
				orders, err := e.client.GetActiveOrders(c.Context)
				if err != nil {
					return err
				}
				return e.print(orders)
			},
		},
		{
			Name:      "mytrades",
			Usage:     "list the account's fills for a symbol",
			ArgsUsage: "SYMBOL",
			Flags: []cli.Flag{
				&cli.IntFlag{Name: "limit"},
				&cli.Int64Flag{Name: "since", Usage: "only fills on or after this timestamp"},
			},
			Action: func(c *cli.Context) error {
				if err := requireArgs(c, 1); err != nil {
					return err
				}
				trades, err := e.client.GetPastTrades(c.Context, gemini.PastTradesRequest{
					Symbol:      c.Args().First(),
					LimitTrades: c.Int("limit"),
					Timestamp:   c.Int64("since"),
				})
				if err != nil {
					return err
				}
				return e.print(trades)
			},
		},
		{
			Name:  "volume",
			Usage: "show 30 day trade volume",
			Action: func(c *cli.Context) error {
				volume, err := e.client.GetTradeVolume(c.Context)
				if err != nil {
					return err
				}
				return e.print(volume)
			},
		},
		{
			Name:  "balances",
			Usage: "show available balances",
			Flags: []cli.Flag{
				&cli.BoolFlag{Name: "snapshot", Usage: "record the balances in the local database and notify"},
			},
			Action: e.balances,
		},
		{
			Name:      "deposit-address",
			Usage:     "generate a new deposit address",
			ArgsUsage: "CURRENCY",
			Flags: []cli.Flag{
				&cli.StringFlag{Name: "label"},
			},
			Action: func(c *cli.Context) error {
				if err := requireArgs(c, 1); err != nil {
					return err
				}
				addr, err := e.client.GenerateDepositAddress(c.Context, c.Args().First(), gemini.DepositAddressRequest{
					Label: c.String("label"),
				})
				if err != nil {
					return err
				}
				return e.print(addr)
			},
		},
		{
			Name:      "withdraw",
			Usage:     "withdraw crypto to an approved address",
			ArgsUsage: "CURRENCY ADDRESS AMOUNT",
			Action:    e.withdraw,
		},
		{
			Name:  "heartbeat",
			Usage: "keep the API session alive",
			Action: func(c *cli.Context) error {
				result, err := e.client.PingHeartbeat(c.Context)
				if err != nil {
					return err
				}
				return e.print(result)
			},
		},
	}
}

func (e *env) placeOrder(c *cli.Context) error {
	side, err := gemini.ParseSide(c.String("side"))
	if err != nil {
		return err
	}
	amount, err := decimal.NewFromString(c.String("amount"))
	if err != nil {
		return fmt.Errorf("invalid amount: %w", err)
	}
	price, err := decimal.NewFromString(c.String("price"))
	if err != nil {
		return fmt.Errorf("invalid price: %w", err)
	}

	req := gemini.NewOrderRequest{
		ClientOrderID: c.String("client-order-id"),
		Symbol:        c.String("symbol"),
		Amount:        amount,
		Price:         price,
		Side:          side,
	}
	if s := c.String("stop-price"); s != "" {
		stop, err := decimal.NewFromString(s)
		if err != nil {
			return fmt.Errorf("invalid stop price: %w", err)
		}
		req.StopPrice = &stop
		req.Type = gemini.OrderTypeExchangeStopLimit
	}
	if opt := c.String("option"); opt != "" {
		req.Options = []gemini.OrderOption{gemini.OrderOption(opt)}
	}

	order, err := e.client.PlaceOrder(c.Context, req)
	if err != nil {
		return err
	}

	log.Info().
		Str("order_id", order.OrderID).
		Str("symbol", order.Symbol).
		Str("side", string(order.Side)).
		Str("price", order.Price.String()).
		Msg("✅ Order placed")

	if c.Bool("journal") {
		e.journalOrder(order)
	}
	notify.Deliver(e.notifier, notify.FormatOrder(order))
	return e.print(order)
}

// journalOrder records order locally. The order is already live, so a
// journal failure is only logged.
func (e *env) journalOrder(order *gemini.OrderStatus) {
	db, err := e.openJournal()
	if err != nil {
		log.Warn().Err(err).Msg("⚠️ Order not journaled")
		return
	}
	defer db.Close()

	if err := db.SaveOrder(order); err != nil {
		log.Warn().Err(err).Str("order_id", order.OrderID).Msg("⚠️ Order not journaled")
	}
}

func (e *env) balances(c *cli.Context) error {
	balances, err := e.client.GetAvailableBalances(c.Context)
	if err != nil {
		return err
	}

	if c.Bool("snapshot") {
		db, err := e.openJournal()
		if err != nil {
			return err
		}
		defer db.Close()
		if err := db.SaveBalances(balances); err != nil {
			return fmt.Errorf("save balances: %w", err)
		}
		log.Info().Int("currencies", len(balances)).Msg("💾 Balance snapshot saved")
		notify.Deliver(e.notifier, notify.FormatBalances(balances))
	}

	return e.print(balances)
}

func (e *env) withdraw(c *cli.Context) error {
	if err := requireArgs(c, 3); err != nil {
		return err
	}
	currency, address := c.Args().Get(0), c.Args().Get(1)

	amount, err := decimal.NewFromString(c.Args().Get(2))
	if err != nil {
		return fmt.Errorf("invalid amount: %w", err)
	}
	if !amount.IsPositive() {
		return fmt.Errorf("amount must be positive")
	}
	if err := wallet.ValidateWithdrawalAddress(currency, address); err != nil {
		return err
	}

	w, err := e.client.WithdrawCrypto(c.Context, currency, gemini.WithdrawRequest{
		Address: address,
		Amount:  amount,
	})
	if err != nil {
		return err
	}

	log.Info().
		Str("currency", currency).
		Str("amount", w.Amount.String()).
		Str("withdrawal_id", w.WithdrawalID).
		Msg("💸 Withdrawal submitted")

	notify.Deliver(e.notifier, notify.FormatWithdrawal(currency, w))
	return e.print(w)
}
