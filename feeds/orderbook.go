package feeds

import (
	"sort"
	"sync"

	"github.com/shopspring/decimal"
)

// ═══════════════════════════════════════════════════════════════════════════════
// ORDERBOOK - In-memory price-level book
// ═══════════════════════════════════════════════════════════════════════════════

// PriceLevel represents a single price level in the orderbook
type PriceLevel struct {
	Price decimal.Decimal `json:"price"`
	Size  decimal.Decimal `json:"size"`
}

// Orderbook keeps bids sorted descending and asks ascending. It is safe for
// concurrent use; read levels through Levels or the Best* accessors.
type Orderbook struct {
	mu     sync.RWMutex
	Symbol string
	bids   []PriceLevel
	asks   []PriceLevel
}

// NewOrderbook creates an empty book for symbol
func NewOrderbook(symbol string) *Orderbook {
	return &Orderbook{
		Symbol: symbol,
		bids:   make([]PriceLevel, 0),
		asks:   make([]PriceLevel, 0),
	}
}

// Apply sets the size at price on side ("bid" or "ask"). A zero size
// removes the level.
func (ob *Orderbook) Apply(side string, price, size decimal.Decimal) {
	ob.mu.Lock()
	defer ob.mu.Unlock()

	if side == "ask" {
		ob.asks = setLevel(ob.asks, price, size, func(a, b decimal.Decimal) bool { return a.LessThan(b) })
		return
	}
	ob.bids = setLevel(ob.bids, price, size, func(a, b decimal.Decimal) bool { return a.GreaterThan(b) })
}

// setLevel inserts, updates or removes price in levels ordered by before.
func setLevel(levels []PriceLevel, price, size decimal.Decimal, before func(a, b decimal.Decimal) bool) []PriceLevel {
	i := sort.Search(len(levels), func(i int) bool {
		return !before(levels[i].Price, price)
	})

	exists := i < len(levels) && levels[i].Price.Equal(price)
	switch {
	case size.IsZero() && exists:
		return append(levels[:i], levels[i+1:]...)
	case size.IsZero():
		return levels
	case exists:
		levels[i].Size = size
		return levels
	}

	levels = append(levels, PriceLevel{})
	copy(levels[i+1:], levels[i:])
	levels[i] = PriceLevel{Price: price, Size: size}
	return levels
}

// Reset drops every level
func (ob *Orderbook) Reset() {
	ob.mu.Lock()
	defer ob.mu.Unlock()
	ob.bids = ob.bids[:0]
	ob.asks = ob.asks[:0]
}

// Levels returns a copy of both sides, best price first.
func (ob *Orderbook) Levels() (bids, asks []PriceLevel) {
	ob.mu.RLock()
	defer ob.mu.RUnlock()

	bids = append([]PriceLevel(nil), ob.bids...)
	asks = append([]PriceLevel(nil), ob.asks...)
	return bids, asks
}

// BestBid returns the highest bid level
func (ob *Orderbook) BestBid() (PriceLevel, bool) {
	ob.mu.RLock()
	defer ob.mu.RUnlock()
	if len(ob.bids) == 0 {
		return PriceLevel{}, false
	}
	return ob.bids[0], true
}

// BestAsk returns the lowest ask level
func (ob *Orderbook) BestAsk() (PriceLevel, bool) {
	ob.mu.RLock()
	defer ob.mu.RUnlock()
	if len(ob.asks) == 0 {
		return PriceLevel{}, false
	}
	return ob.asks[0], true
}

// Spread returns the bid-ask spread, zero when either side is empty
func (ob *Orderbook) Spread() decimal.Decimal {
	bid, okBid := ob.BestBid()
	ask, okAsk := ob.BestAsk()
	if !okBid || !okAsk {
		return decimal.Zero
	}
	return ask.Price.Sub(bid.Price)
}

// Mid returns the mid price
func (ob *Orderbook) Mid() decimal.Decimal {
	bid, okBid := ob.BestBid()
	ask, okAsk := ob.BestAsk()
	if !okBid || !okAsk {
		return decimal.Zero
	}
	return bid.Price.Add(ask.Price).Div(decimal.NewFromInt(2))
}

// Depth returns total size over the top priceLevels on each side
func (ob *Orderbook) Depth(priceLevels int) (bidDepth, askDepth decimal.Decimal) {
	ob.mu.RLock()
	defer ob.mu.RUnlock()

	for i := 0; i < priceLevels && i < len(ob.bids); i++ {
		bidDepth = bidDepth.Add(ob.bids[i].Size)
	}
	for i := 0; i < priceLevels && i < len(ob.asks); i++ {
		askDepth = askDepth.Add(ob.asks[i].Size)
	}

	return bidDepth, askDepth
}
