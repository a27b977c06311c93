package rest

import (
	"bytes"
	"crypto/hmac"
	"crypto/sha512"
	"encoding/base64"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"strconv"
	"sync"
	"time"
)

// Signature is what a private request carries in its auth headers.
type Signature struct {
	Payload string // base64(JSON(body + nonce + request))
	Digest  string // hex(HMAC-SHA384(secret, Payload))
}

// Sign builds the payload for an authenticated call to path and signs it with
// secret. body must encode to a JSON object (or be nil). The nonce and request
// fields always override caller fields of the same name.
func Sign(path string, body interface{}, secret, nonce string) (Signature, error) {
	fields, err := bodyFields(body)
	if err != nil {
		return Signature{}, err
	}

	fields["nonce"] = mustRaw(nonce)
	fields["request"] = mustRaw(path)

	raw, err := json.Marshal(fields)
	if err != nil {
		return Signature{}, fmt.Errorf("encode payload: %w", err)
	}

	payload := base64.StdEncoding.EncodeToString(raw)

	mac := hmac.New(sha512.New384, []byte(secret))
	mac.Write([]byte(payload))

	return Signature{
		Payload: payload,
		Digest:  hex.EncodeToString(mac.Sum(nil)),
	}, nil
}

func bodyFields(body interface{}) (map[string]json.RawMessage, error) {
	fields := make(map[string]json.RawMessage)
	if body == nil {
		return fields, nil
	}

	raw, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("encode body: %w", err)
	}
	if bytes.Equal(raw, []byte("null")) {
		return fields, nil
	}
	if err := json.Unmarshal(raw, &fields); err != nil {
		return nil, fmt.Errorf("body must encode to a JSON object: %w", err)
	}
	if fields == nil {
		fields = make(map[string]json.RawMessage)
	}
	return fields, nil
}

func mustRaw(s string) json.RawMessage {
	raw, _ := json.Marshal(s)
	return raw
}

// NonceSource hands out the nonce for each signed request.
type NonceSource interface {
	Nonce() string
}

// MonotonicNonce issues wall-clock milliseconds, bumped by one whenever the
// clock has not moved past the previously issued value. Nothing is persisted,
// so a restarted process relies on the clock alone.
type MonotonicNonce struct {
	mu   sync.Mutex
	last int64
	now  func() time.Time
}

func NewMonotonicNonce() *MonotonicNonce {
	return &MonotonicNonce{now: time.Now}
}

func (n *MonotonicNonce) Nonce() string {
	n.mu.Lock()
	defer n.mu.Unlock()

	now := n.now
	if now == nil {
		now = time.Now
	}

	ms := now().UnixMilli()
	if ms <= n.last {
		ms = n.last + 1
	}
	n.last = ms
	return strconv.FormatInt(ms, 10)
}

// FixedNonce always returns the same value. Useful for reproducing a signature.
type FixedNonce string

func (f FixedNonce) Nonce() string { return string(f) }
