package rest

import (
	"crypto/hmac"
	"crypto/sha512"
	"encoding/base64"
	"encoding/hex"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func hmac384(secret, payload string) string {
	mac := hmac.New(sha512.New384, []byte(secret))
	mac.Write([]byte(payload))
	return hex.EncodeToString(mac.Sum(nil))
}

func TestSignKnownOrder(t *testing.T) {
	body := map[string]interface{}{
		"symbol": "btcusd",
		"amount": 1,
		"price":  1000,
		"side":   "buy",
	}

	sig, err := Sign("/v1/order/new", body, "s3cr3t", "1500000000000")
	require.NoError(t, err)

	expectedJSON := `{"amount":1,"nonce":"1500000000000","price":1000,"request":"/v1/order/new","side":"buy","symbol":"btcusd"}`
	expectedPayload := base64.StdEncoding.EncodeToString([]byte(expectedJSON))

	assert.Equal(t, expectedPayload, sig.Payload)
	assert.Equal(t, hmac384("s3cr3t", expectedPayload), sig.Digest)
	assert.Len(t, sig.Digest, 96)
}

func TestSignDeterministic(t *testing.T) {
	body := map[string]string{"symbol": "ethusd"}

	a, err := Sign("/v1/mytrades", body, "secret", "42")
	require.NoError(t, err)
	b, err := Sign("/v1/mytrades", body, "secret", "42")
	require.NoError(t, err)
	assert.Equal(t, a, b)

	c, err := Sign("/v1/mytrades", body, "secret", "43")
	require.NoError(t, err)
	assert.NotEqual(t, a.Payload, c.Payload)
	assert.NotEqual(t, a.Digest, c.Digest)
}

func TestSignPayloadFields(t *testing.T) {
	type cancel struct {
		OrderID int64 `json:"order_id"`
	}

	sig, err := Sign("/v1/order/cancel", cancel{OrderID: 106817811}, "secret", "99")
	require.NoError(t, err)

	raw, err := base64.StdEncoding.DecodeString(sig.Payload)
	require.NoError(t, err)

	var decoded map[string]interface{}
	require.NoError(t, json.Unmarshal(raw, &decoded))

	assert.Equal(t, map[string]interface{}{
		"order_id": float64(106817811),
		"nonce":    "99",
		"request":  "/v1/order/cancel",
	}, decoded)
}

func TestSignNilBody(t *testing.T) {
	sig, err := Sign("/v1/heartbeat", nil, "secret", "7")
	require.NoError(t, err)

	raw, err := base64.StdEncoding.DecodeString(sig.Payload)
	require.NoError(t, err)
	assert.JSONEq(t, `{"nonce":"7","request":"/v1/heartbeat"}`, string(raw))
}

func TestSignOverridesReservedFields(t *testing.T) {
	body := map[string]string{"nonce": "1", "request": "/v1/other"}

	sig, err := Sign("/v1/balances", body, "secret", "2")
	require.NoError(t, err)

	raw, err := base64.StdEncoding.DecodeString(sig.Payload)
	require.NoError(t, err)
	assert.JSONEq(t, `{"nonce":"2","request":"/v1/balances"}`, string(raw))
}

func TestSignRejectsNonObjectBody(t *testing.T) {
	_, err := Sign("/v1/balances", []string{"a"}, "secret", "1")
	assert.Error(t, err)
}

func TestSignSecretChangesDigest(t *testing.T) {
	a, err := Sign("/v1/balances", nil, "one", "1")
	require.NoError(t, err)
	b, err := Sign("/v1/balances", nil, "two", "1")
	require.NoError(t, err)

	assert.Equal(t, a.Payload, b.Payload)
	assert.NotEqual(t, a.Digest, b.Digest)
}

func TestMonotonicNonce(t *testing.T) {
	fixed := time.UnixMilli(1700000000000)
	n := &MonotonicNonce{now: func() time.Time { return fixed }}

	assert.Equal(t, "1700000000000", n.Nonce())
	assert.Equal(t, "1700000000001", n.Nonce())
	assert.Equal(t, "1700000000002", n.Nonce())

	fixed = fixed.Add(time.Second)
	assert.Equal(t, "1700000001000", n.Nonce())
}
