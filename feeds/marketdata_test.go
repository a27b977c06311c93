package feeds

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// wsServer plays back scripts[n] on the n-th connection (the last script is
// reused) and then holds the connection open.
func wsServer(t *testing.T, scripts ...[]string) (*httptest.Server, *int32) {
	t.Helper()

	var conns int32
	upgrader := websocket.Upgrader{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/marketdata/btcusd" || r.URL.Query().Get("heartbeat") != "true" {
			http.NotFound(w, r)
			return
		}

		c, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer c.Close()

		n := int(atomic.AddInt32(&conns, 1)) - 1
		if n >= len(scripts) {
			n = len(scripts) - 1
		}
		for _, msg := range scripts[n] {
			if err := c.WriteMessage(websocket.TextMessage, []byte(msg)); err != nil {
				return
			}
		}
		for {
			if _, _, err := c.ReadMessage(); err != nil {
				return
			}
		}
	}))
	t.Cleanup(srv.Close)
	return srv, &conns
}

func wsURL(srv *httptest.Server) string {
	return "ws" + strings.TrimPrefix(srv.URL, "http")
}

func next(t *testing.T, ch <-chan Update) Update {
	t.Helper()
	select {
	case u, ok := <-ch:
		require.True(t, ok, "channel closed")
		return u
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for update")
		return Update{}
	}
}

const initialBook = `{"type":"update","eventId":5375461993,"socket_sequence":0,"events":[
	{"type":"change","reason":"initial","price":"3641.61","delta":"0.83372051","remaining":"0.83372051","side":"bid"},
	{"type":"change","reason":"initial","price":"3641.50","delta":"2","remaining":"2","side":"bid"},
	{"type":"change","reason":"initial","price":"3641.62","delta":"4.072","remaining":"4.072","side":"ask"},
	{"type":"change","reason":"initial","price":"3642.00","delta":"1","remaining":"1","side":"ask"}]}`

func TestMarketDataFeedBookAndTrades(t *testing.T) {
	srv, _ := wsServer(t, []string{
		initialBook,
		`{"type":"update","eventId":5375461994,"timestamp":1547760288,"timestampms":1547760288001,"socket_sequence":1,"events":[
			{"type":"trade","tid":5375461994,"price":"3641.62","amount":"0.072","makerSide":"ask"},
			{"type":"change","price":"3641.62","delta":"-0.072","remaining":"4","side":"ask","reason":"trade"}]}`,
		`{"type":"heartbeat","socket_sequence":2}`,
		`{"type":"update","eventId":5375461995,"timestampms":1547760289000,"socket_sequence":3,"events":[
			{"type":"change","price":"3641.61","delta":"-0.83372051","remaining":"0","side":"bid","reason":"cancel"}]}`,
	})

	feed := NewMarketDataFeed("BTCUSD", WithURL(wsURL(srv)), WithReconnectDelay(10*time.Millisecond))
	updates := feed.Subscribe()

	ctx, cancel := context.WithCancel(context.Background())
	errCh := make(chan error, 1)
	go func() { errCh <- feed.Run(ctx) }()

	first := next(t, updates)
	assert.Equal(t, "btcusd", first.Symbol)
	assert.Equal(t, int64(0), first.Sequence)
	assert.Len(t, first.Changes, 4)
	assert.Empty(t, first.Trades)
	assert.True(t, first.Timestamp.IsZero())

	second := next(t, updates)
	require.Len(t, second.Trades, 1)
	assert.Equal(t, int64(5375461994), second.Trades[0].TID)
	assert.Equal(t, "ask", second.Trades[0].MakerSide)
	assert.Equal(t, time.UnixMilli(1547760288001), second.Timestamp)

	third := next(t, updates)
	assert.Equal(t, int64(3), third.Sequence)
	require.Len(t, third.Changes, 1)
	assert.Equal(t, "cancel", third.Changes[0].Reason)

	bid, ok := feed.BestBid()
	require.True(t, ok)
	assert.True(t, bid.Price.Equal(decimal.RequireFromString("3641.50")))

	ask, ok := feed.BestAsk()
	require.True(t, ok)
	assert.True(t, ask.Price.Equal(decimal.RequireFromString("3641.62")))
	assert.True(t, ask.Size.Equal(decimal.NewFromInt(4)))
	assert.True(t, feed.Connected())

	cancel()
	select {
	case err := <-errCh:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not return after cancel")
	}

	_, open := <-updates
	assert.False(t, open)
	assert.False(t, feed.Connected())
}

func TestMarketDataFeedReconnectsOnSequenceGap(t *testing.T) {
	srv, conns := wsServer(t,
		[]string{
			initialBook,
			`{"type":"heartbeat","socket_sequence":5}`,
		},
		[]string{
			`{"type":"update","eventId":1,"socket_sequence":0,"events":[
				{"type":"change","reason":"initial","price":"100","delta":"1","remaining":"1","side":"bid"}]}`,
		},
	)

	feed := NewMarketDataFeed("btcusd", WithURL(wsURL(srv)), WithReconnectDelay(10*time.Millisecond))
	updates := feed.Subscribe()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() { _ = feed.Run(ctx) }()

	first := next(t, updates)
	assert.Len(t, first.Changes, 4)

	second := next(t, updates)
	assert.Equal(t, int64(0), second.Sequence)
	assert.Len(t, second.Changes, 1)
	assert.GreaterOrEqual(t, atomic.LoadInt32(conns), int32(2))

	// book was rebuilt from the second connection only
	bid, ok := feed.BestBid()
	require.True(t, ok)
	assert.True(t, bid.Price.Equal(decimal.NewFromInt(100)))
	_, ok = feed.BestAsk()
	assert.False(t, ok)
}

func TestMarketDataFeedEndpoint(t *testing.T) {
	feed := NewMarketDataFeed("ETHUSD", WithURL(SandboxMarketDataURL+"/"))
	assert.Equal(t, "wss://api.sandbox.gemini.com/v1/marketdata/ethusd?heartbeat=true", feed.endpoint())
	assert.Equal(t, DefaultReconnectDelay, feed.reconnectDelay)

	feed = NewMarketDataFeed("ethusd", WithReconnectDelay(0))
	assert.Equal(t, DefaultReconnectDelay, feed.reconnectDelay)
	feed = NewMarketDataFeed("ethusd", WithReconnectDelay(time.Second))
	assert.Equal(t, time.Second, feed.reconnectDelay)
}
