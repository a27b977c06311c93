package rest

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type captured struct {
	Method string
	Path   string
	Query  url.Values
	Header http.Header
	Body   []byte
}

func newServer(t *testing.T, status int, respBody string) (*httptest.Server, *captured, *int32) {
	t.Helper()

	var hits int32
	got := &captured{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&hits, 1)
		got.Method = r.Method
		got.Path = r.URL.Path
		got.Query = r.URL.Query()
		got.Header = r.Header.Clone()
		got.Body, _ = io.ReadAll(r.Body)

		w.WriteHeader(status)
		_, _ = io.WriteString(w, respBody)
	}))
	t.Cleanup(srv.Close)
	return srv, got, &hits
}

func newTestAgent(srv *httptest.Server, key, secret string) *Agent {
	return NewAgent(Options{
		Key:    key,
		Secret: secret,
		Config: RequestConfig{BaseURL: srv.URL},
		Nonce:  FixedNonce("1000"),
	})
}

func TestIsUpgraded(t *testing.T) {
	assert.False(t, NewAgent(Options{}).IsUpgraded())
	assert.False(t, NewAgent(Options{Key: "k"}).IsUpgraded())
	assert.False(t, NewAgent(Options{Secret: "s"}).IsUpgraded())
	assert.True(t, NewAgent(Options{Key: "k", Secret: "s"}).IsUpgraded())
}

func TestUpgradeReplacesCredentials(t *testing.T) {
	a := NewAgent(Options{Key: "old", Secret: "old-secret", Nonce: FixedNonce("5")})

	before, err := a.Sign("/v1/balances", nil)
	require.NoError(t, err)

	a.Upgrade(Credentials{Key: "new", Secret: "new-secret"})
	assert.True(t, a.IsUpgraded())

	after, err := a.Sign("/v1/balances", nil)
	require.NoError(t, err)

	want, err := Sign("/v1/balances", nil, "new-secret", "5")
	require.NoError(t, err)
	assert.Equal(t, want, after)
	assert.NotEqual(t, before.Digest, after.Digest)

	a.Upgrade(Credentials{Key: "only-key"})
	assert.False(t, a.IsUpgraded())
}

func TestGetPublicEndpoint(t *testing.T) {
	srv, got, _ := newServer(t, http.StatusOK, `["btcusd","ethusd"]`)
	a := newTestAgent(srv, "", "")

	resp, err := a.GetPublicEndpoint(context.Background(), "pubticker/btcusd", nil, nil)
	require.NoError(t, err)

	assert.Equal(t, http.MethodGet, got.Method)
	assert.Equal(t, "/v1/pubticker/btcusd", got.Path)
	assert.Empty(t, got.Body)
	assert.Empty(t, got.Header.Get(HeaderAPIKey))
	assert.Empty(t, got.Header.Get(HeaderPayload))
	assert.Empty(t, got.Header.Get(HeaderSignature))
	assert.Equal(t, "no-cache", got.Header.Get("Cache-Control"))
	assert.Equal(t, "text/plain", got.Header.Get("Content-Type"))
	assert.Equal(t, UserAgent, got.Header.Get("User-Agent"))

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, `["btcusd","ethusd"]`, string(resp.Body))
}

func TestGetPublicEndpointQuery(t *testing.T) {
	type bookParams struct {
		LimitBids int `url:"limit_bids,omitempty"`
		LimitAsks int `url:"limit_asks,omitempty"`
	}

	srv, got, _ := newServer(t, http.StatusOK, `{}`)
	a := newTestAgent(srv, "", "")

	_, err := a.GetPublicEndpoint(context.Background(), "book/btcusd", bookParams{LimitBids: 5}, nil)
	require.NoError(t, err)
	assert.Equal(t, "5", got.Query.Get("limit_bids"))
	assert.False(t, got.Query.Has("limit_asks"))

	_, err = a.GetPublicEndpoint(context.Background(), "trades/btcusd", url.Values{"since": {"123"}}, nil)
	require.NoError(t, err)
	assert.Equal(t, "123", got.Query.Get("since"))

	_, err = a.GetPublicEndpoint(context.Background(), "trades/btcusd", map[string]string{"limit_trades": "10"}, nil)
	require.NoError(t, err)
	assert.Equal(t, "10", got.Query.Get("limit_trades"))
}

func TestGetPublicEndpointNon2xx(t *testing.T) {
	srv, _, _ := newServer(t, http.StatusNotFound, `{"result":"error","reason":"InvalidSymbol","message":"Supplied value 'nope' is not a valid symbol"}`)
	a := newTestAgent(srv, "", "")

	resp, err := a.GetPublicEndpoint(context.Background(), "pubticker/nope", nil, nil)
	require.Error(t, err)

	var httpErr *HTTPError
	require.True(t, errors.As(err, &httpErr))
	assert.Equal(t, http.StatusNotFound, httpErr.StatusCode)
	assert.Contains(t, string(httpErr.Body), "InvalidSymbol")
	require.NotNil(t, resp)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestPostToPrivateEndpointUnauthenticated(t *testing.T) {
	srv, _, hits := newServer(t, http.StatusOK, `{}`)
	a := newTestAgent(srv, "", "")

	resp, err := a.PostToPrivateEndpoint(context.Background(), "order/new", map[string]string{"symbol": "btcusd"}, nil)
	assert.Nil(t, resp)
	assert.ErrorIs(t, err, ErrUnauthenticated)
	assert.Equal(t, int32(0), atomic.LoadInt32(hits))
}

func TestPostToPrivateEndpointSigns(t *testing.T) {
	srv, got, _ := newServer(t, http.StatusOK, `{"order_id":"1"}`)
	a := newTestAgent(srv, "mykey", "mysecret")

	body := map[string]interface{}{"symbol": "btcusd", "amount": "1", "price": "1000", "side": "buy"}
	resp, err := a.PostToPrivateEndpoint(context.Background(), "order/new", body, nil)
	require.NoError(t, err)
	assert.Equal(t, `{"order_id":"1"}`, string(resp.Body))

	assert.Equal(t, http.MethodPost, got.Method)
	assert.Equal(t, "/v1/order/new", got.Path)
	assert.Equal(t, "mykey", got.Header.Get(HeaderAPIKey))

	want, err := Sign("/v1/order/new", body, "mysecret", "1000")
	require.NoError(t, err)
	assert.Equal(t, want.Payload, got.Header.Get(HeaderPayload))
	assert.Equal(t, want.Digest, got.Header.Get(HeaderSignature))

	raw, err := base64.StdEncoding.DecodeString(got.Header.Get(HeaderPayload))
	require.NoError(t, err)
	var payload map[string]interface{}
	require.NoError(t, json.Unmarshal(raw, &payload))
	assert.Equal(t, "/v1/order/new", payload["request"])
	assert.Equal(t, "1000", payload["nonce"])

	assert.JSONEq(t, `{"symbol":"btcusd","amount":"1","price":"1000","side":"buy"}`, string(got.Body))
}

func TestPostToPrivateEndpointAPIError(t *testing.T) {
	srv, _, _ := newServer(t, http.StatusBadRequest, `{"result":"error","reason":"InsufficientFunds","message":"Failed to place buy order"}`)
	a := newTestAgent(srv, "k", "s")

	_, err := a.PostToPrivateEndpoint(context.Background(), "order/new", nil, nil)
	require.Error(t, err)

	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, "InsufficientFunds", apiErr.Reason)
	assert.Equal(t, "Failed to place buy order", apiErr.Message)
	assert.Equal(t, http.StatusBadRequest, apiErr.StatusCode)
	assert.True(t, IsAPIError(err, "InsufficientFunds"))
	assert.False(t, IsAPIError(err, "InvalidNonce"))
}

func TestPostToPrivateEndpointLegacyErrorField(t *testing.T) {
	srv, _, _ := newServer(t, http.StatusBadRequest, `{"error":"bad things"}`)
	a := newTestAgent(srv, "k", "s")

	_, err := a.PostToPrivateEndpoint(context.Background(), "balances", nil, nil)

	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, "bad things", apiErr.Message)
}

func TestPostToPrivateEndpointBodyError(t *testing.T) {
	srv, _, _ := newServer(t, http.StatusBadGateway, `<html>bad gateway</html>`)
	a := newTestAgent(srv, "k", "s")

	_, err := a.PostToPrivateEndpoint(context.Background(), "balances", nil, nil)

	var httpErr *HTTPError
	require.True(t, errors.As(err, &httpErr))
	assert.Equal(t, http.StatusBadGateway, httpErr.StatusCode)
	assert.Equal(t, "<html>bad gateway</html>", string(httpErr.Body))
	assert.False(t, IsAPIError(err, ""))
}

func TestPostToPrivateEndpointEmptyBodyError(t *testing.T) {
	srv, _, _ := newServer(t, http.StatusServiceUnavailable, ``)
	a := newTestAgent(srv, "k", "s")

	_, err := a.PostToPrivateEndpoint(context.Background(), "heartbeat", nil, nil)

	var httpErr *HTTPError
	require.True(t, errors.As(err, &httpErr))
	assert.Empty(t, httpErr.Body)
	assert.Equal(t, "server responded with a 503 status code", httpErr.Error())
}

func TestPostToPrivateEndpointTransportError(t *testing.T) {
	srv, _, _ := newServer(t, http.StatusOK, `{}`)
	a := newTestAgent(srv, "k", "s")
	srv.Close()

	_, err := a.PostToPrivateEndpoint(context.Background(), "heartbeat", nil, nil)

	var transportErr *TransportError
	require.True(t, errors.As(err, &transportErr))
	assert.Equal(t, http.MethodPost, transportErr.Method)
}

func TestRequestTimeout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(2 * time.Second):
		}
	}))
	defer srv.Close()

	a := newTestAgent(srv, "", "")
	_, err := a.GetPublicEndpoint(context.Background(), "symbols", nil, &RequestConfig{Timeout: 50 * time.Millisecond})

	var transportErr *TransportError
	require.True(t, errors.As(err, &transportErr))
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestPerCallOverride(t *testing.T) {
	srv, got, _ := newServer(t, http.StatusOK, `{}`)
	a := newTestAgent(srv, "k", "s")

	override := &RequestConfig{
		Version: "v2",
		Headers: map[string]string{"User-Agent": "custom/1.0", "X-Extra": "yes"},
	}
	_, err := a.PostToPrivateEndpoint(context.Background(), "orders", nil, override)
	require.NoError(t, err)

	assert.Equal(t, "/v2/orders", got.Path)
	assert.Equal(t, "custom/1.0", got.Header.Get("User-Agent"))
	assert.Equal(t, "yes", got.Header.Get("X-Extra"))
	assert.Equal(t, "no-cache", got.Header.Get("Cache-Control"))

	raw, err := base64.StdEncoding.DecodeString(got.Header.Get(HeaderPayload))
	require.NoError(t, err)
	assert.JSONEq(t, `{"nonce":"1000","request":"/v2/orders"}`, string(raw))
}

func TestSandboxBaseURL(t *testing.T) {
	assert.Equal(t, SandboxBaseURL, NewAgent(Options{Sandbox: true}).Config().BaseURL)
	assert.Equal(t, BaseURL, NewAgent(Options{}).Config().BaseURL)
	assert.Equal(t, "http://local", NewAgent(Options{Sandbox: true, Config: RequestConfig{BaseURL: "http://local"}}).Config().BaseURL)
}
