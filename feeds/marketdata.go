package feeds

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
)

// ═══════════════════════════════════════════════════════════════════════════════
// GEMINI MARKET DATA FEED
// ═══════════════════════════════════════════════════════════════════════════════
//
// Streams v1/marketdata/{symbol} and keeps a price-level book in memory.
// The first update of every connection carries the full book ("initial"
// changes); later ones carry deltas and trades.
//
// ═══════════════════════════════════════════════════════════════════════════════

const (
	MarketDataURL        = "wss://api.gemini.com"
	SandboxMarketDataURL = "wss://api.sandbox.gemini.com"

	DefaultReconnectDelay = 5 * time.Second
	subscriberBuffer      = 1000
)

var errSequenceGap = errors.New("socket sequence gap")

// Change is a price level update. Remaining is the new total at Price.
type Change struct {
	Side      string          `json:"side"`
	Price     decimal.Decimal `json:"price"`
	Delta     decimal.Decimal `json:"delta"`
	Remaining decimal.Decimal `json:"remaining"`
	Reason    string          `json:"reason"`
}

// TradeEvent is a trade printed on the symbol.
type TradeEvent struct {
	TID       int64           `json:"tid"`
	Price     decimal.Decimal `json:"price"`
	Amount    decimal.Decimal `json:"amount"`
	MakerSide string          `json:"makerSide"`
}

// Update is one update message, split into book changes and trades.
type Update struct {
	Symbol    string
	EventID   int64
	Sequence  int64
	Timestamp time.Time
	Changes   []Change
	Trades    []TradeEvent
}

type wireEvent struct {
	Type      string          `json:"type"`
	Side      string          `json:"side"`
	Price     decimal.Decimal `json:"price"`
	Delta     decimal.Decimal `json:"delta"`
	Remaining decimal.Decimal `json:"remaining"`
	Reason    string          `json:"reason"`
	TID       int64           `json:"tid"`
	Amount    decimal.Decimal `json:"amount"`
	MakerSide string          `json:"makerSide"`
}

type wireMessage struct {
	Type           string      `json:"type"`
	EventID        int64       `json:"eventId"`
	TimestampMS    int64       `json:"timestampms"`
	SocketSequence int64       `json:"socket_sequence"`
	Events         []wireEvent `json:"events"`
}

// MarketDataFeed manages the websocket connection and fans updates out to
// subscribers.
type MarketDataFeed struct {
	mu sync.RWMutex

	symbol         string
	baseURL        string
	reconnectDelay time.Duration
	dialer         *websocket.Dialer

	connected   bool
	lastSeq     int64
	subscribers []chan Update

	book *Orderbook
}

type Option func(*MarketDataFeed)

// WithURL sets the websocket root, e.g. SandboxMarketDataURL.
func WithURL(base string) Option {
	return func(f *MarketDataFeed) { f.baseURL = strings.TrimRight(base, "/") }
}

// WithReconnectDelay sets the pause between a dropped connection and the next
// dial. Non-positive values keep the default.
func WithReconnectDelay(d time.Duration) Option {
	return func(f *MarketDataFeed) {
		if d > 0 {
			f.reconnectDelay = d
		}
	}
}

// NewMarketDataFeed creates a feed for symbol. Nothing is dialed until Run.
func NewMarketDataFeed(symbol string, opts ...Option) *MarketDataFeed {
	f := &MarketDataFeed{
		symbol:         strings.ToLower(symbol),
		baseURL:        MarketDataURL,
		reconnectDelay: DefaultReconnectDelay,
		dialer:         &websocket.Dialer{HandshakeTimeout: 10 * time.Second},
		lastSeq:        -1,
		book:           NewOrderbook(strings.ToLower(symbol)),
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Subscribe returns a channel receiving every update. A subscriber that falls
// behind by more than the buffer loses updates.
func (f *MarketDataFeed) Subscribe() <-chan Update {
	f.mu.Lock()
	defer f.mu.Unlock()

	ch := make(chan Update, subscriberBuffer)
	f.subscribers = append(f.subscribers, ch)
	return ch
}

func (f *MarketDataFeed) Connected() bool {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.connected
}

// Book is the local book, rebuilt on every connection. Its accessors lock,
// so it can be read while Run applies updates.
func (f *MarketDataFeed) Book() *Orderbook {
	return f.book
}

func (f *MarketDataFeed) BestBid() (PriceLevel, bool) {
	return f.book.BestBid()
}

func (f *MarketDataFeed) BestAsk() (PriceLevel, bool) {
	return f.book.BestAsk()
}

// Run keeps the feed connected until ctx is done, reconnecting after read
// errors and sequence gaps. It returns ctx.Err().
func (f *MarketDataFeed) Run(ctx context.Context) error {
	log.Info().Str("symbol", f.symbol).Msg("📡 Market data feed started")

	for {
		err := f.session(ctx)
		if ctx.Err() != nil {
			f.closeSubscribers()
			return ctx.Err()
		}

		log.Warn().Err(err).Str("symbol", f.symbol).Dur("retry_in", f.reconnectDelay).Msg("Market data disconnected, reconnecting...")

		select {
		case <-ctx.Done():
			f.closeSubscribers()
			return ctx.Err()
		case <-time.After(f.reconnectDelay):
		}
	}
}

func (f *MarketDataFeed) endpoint() string {
	q := url.Values{}
	q.Set("heartbeat", "true")
	return fmt.Sprintf("%s/v1/marketdata/%s?%s", f.baseURL, url.PathEscape(f.symbol), q.Encode())
}

// session runs one connection until it fails.
func (f *MarketDataFeed) session(ctx context.Context) error {
	conn, _, err := f.dialer.DialContext(ctx, f.endpoint(), nil)
	if err != nil {
		return fmt.Errorf("websocket dial failed: %w", err)
	}
	defer conn.Close()

	f.reset()
	f.setConnected(true)
	defer f.setConnected(false)

	log.Info().Str("symbol", f.symbol).Msg("🔌 Market data connected")

	done := make(chan struct{})
	defer close(done)
	go func() {
		select {
		case <-ctx.Done():
			conn.Close()
		case <-done:
		}
	}()

	for {
		_, message, err := conn.ReadMessage()
		if err != nil {
			return fmt.Errorf("websocket read: %w", err)
		}
		if err := f.handleMessage(message); err != nil {
			return err
		}
	}
}

func (f *MarketDataFeed) handleMessage(data []byte) error {
	var msg wireMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		log.Debug().Err(err).Msg("Unparseable market data message")
		return nil
	}

	f.mu.Lock()
	if f.lastSeq >= 0 && msg.SocketSequence != f.lastSeq+1 {
		expected := f.lastSeq + 1
		f.mu.Unlock()
		return fmt.Errorf("%w: expected %d, got %d", errSequenceGap, expected, msg.SocketSequence)
	}
	f.lastSeq = msg.SocketSequence

	if msg.Type != "update" {
		f.mu.Unlock()
		return nil
	}

	update := Update{
		Symbol:   f.symbol,
		EventID:  msg.EventID,
		Sequence: msg.SocketSequence,
	}
	if msg.TimestampMS > 0 {
		update.Timestamp = time.UnixMilli(msg.TimestampMS)
	}

	for _, ev := range msg.Events {
		switch ev.Type {
		case "change":
			change := Change{
				Side:      ev.Side,
				Price:     ev.Price,
				Delta:     ev.Delta,
				Remaining: ev.Remaining,
				Reason:    ev.Reason,
			}
			f.book.Apply(change.Side, change.Price, change.Remaining)
			update.Changes = append(update.Changes, change)
		case "trade":
			update.Trades = append(update.Trades, TradeEvent{
				TID:       ev.TID,
				Price:     ev.Price,
				Amount:    ev.Amount,
				MakerSide: ev.MakerSide,
			})
		}
	}

	subscribers := f.subscribers
	f.mu.Unlock()

	for _, ch := range subscribers {
		select {
		case ch <- update:
		default:
			log.Debug().Str("symbol", f.symbol).Int64("seq", update.Sequence).Msg("Subscriber full, update dropped")
		}
	}
	return nil
}

func (f *MarketDataFeed) reset() {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.lastSeq = -1
	f.book.Reset()
}

func (f *MarketDataFeed) setConnected(v bool) {
	f.mu.Lock()
	f.connected = v
	f.mu.Unlock()
}

func (f *MarketDataFeed) closeSubscribers() {
	f.mu.Lock()
	defer f.mu.Unlock()

	for _, ch := range f.subscribers {
		close(ch)
	}
	f.subscribers = nil
}
