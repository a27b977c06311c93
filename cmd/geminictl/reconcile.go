package main

import (
	"context"
	"fmt"
	"strconv"

	"github.com/rs/zerolog/log"
	"github.com/urfave/cli/v2"

	"github.com/web3guy0/gemini/gemini"
)

// ═══════════════════════════════════════════════════════════════════════════════
// RECONCILIATION - Journal vs exchange order state
// ═══════════════════════════════════════════════════════════════════════════════
//
// Orders journaled as live may have filled or been cancelled since. Each
// one the exchange no longer lists as active is looked up and its final
// state written back. Active orders missing from the journal are added.
//
// ═══════════════════════════════════════════════════════════════════════════════

type reconcileResult struct {
	Active int `json:"active"`
	Added  int `json:"added"`
	Closed int `json:"closed"`
	Failed int `json:"failed"`
}

func (e *env) reconcileCommand() *cli.Command {
	return &cli.Command{
		Name:  "reconcile",
		Usage: "update journaled orders from the exchange",
		Action: func(c *cli.Context) error {
			result, err := e.reconcile(c.Context)
			if err != nil {
				return err
			}
			return e.print(result)
		},
	}
}

func (e *env) reconcile(ctx context.Context) (*reconcileResult, error) {
	db, err := e.openJournal()
	if err != nil {
		return nil, err
	}
	defer db.Close()

	journaled, err := db.LiveOrders()
	if err != nil {
		return nil, fmt.Errorf("load live orders: %w", err)
	}

	active, err := e.client.GetActiveOrders(ctx)
	if err != nil {
		return nil, err
	}

	result := &reconcileResult{Active: len(active)}

	known := make(map[string]bool, len(journaled))
	for _, o := range journaled {
		known[o.OrderID] = true
	}

	stillActive := make(map[string]bool, len(active))
	for i := range active {
		stillActive[active[i].OrderID] = true
		if !known[active[i].OrderID] {
			result.Added++
		}
		if err := db.SaveOrder(&active[i]); err != nil {
			return nil, err
		}
	}

	for _, o := range journaled {
		if stillActive[o.OrderID] {
			continue
		}

		id, err := strconv.ParseInt(o.OrderID, 10, 64)
		if err != nil {
			log.Warn().Str("order_id", o.OrderID).Msg("⚠️ Journaled order has a non-numeric id")
			result.Failed++
			continue
		}

		status, err := e.client.GetOrderStatus(ctx, gemini.OrderStatusRequest{OrderID: id})
		if err != nil {
			log.Warn().Err(err).Str("order_id", o.OrderID).Msg("⚠️ Order status lookup failed")
			result.Failed++
			continue
		}
		if err := db.SaveOrder(status); err != nil {
			return nil, err
		}
		result.Closed++

		log.Info().
			Str("order_id", o.OrderID).
			Bool("cancelled", status.IsCancelled).
			Str("executed", status.ExecutedAmount.String()).
			Msg("📥 Order closed since last seen")
	}

	log.Info().
		Int("active", result.Active).
		Int("added", result.Added).
		Int("closed", result.Closed).
		Msg("✅ Reconciliation complete")

	return result, nil
}
