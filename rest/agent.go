// Package rest sends public and signed requests to the Gemini REST API.
//
// Public calls are plain GETs. Private calls are POSTs carrying three headers:
// the API key, a base64 JSON payload holding the body plus a nonce and the
// request path, and the HMAC-SHA384 of that payload keyed by the API secret.
package rest

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sync"
	"time"

	"github.com/google/go-querystring/query"
	"github.com/rs/zerolog/log"
)

// Credentials are an API key pair. Both halves must be set for the pair to
// count as present.
type Credentials struct {
	Key    string
	Secret string
}

func (c Credentials) present() bool {
	return c.Key != "" && c.Secret != ""
}

// Options configures a new Agent. Every field is optional; without a key pair
// the agent only serves public endpoints.
type Options struct {
	Key     string
	Secret  string
	Sandbox bool

	// Config is merged over DefaultRequestConfig. Sandbox only changes the
	// base URL when Config.BaseURL is empty.
	Config RequestConfig

	HTTPClient *http.Client
	Nonce      NonceSource
}

// Agent builds, signs and sends requests.
type Agent struct {
	mu    sync.RWMutex
	creds Credentials

	config     RequestConfig
	httpClient *http.Client
	nonce      NonceSource
}

// NewAgent creates an agent from opts.
func NewAgent(opts Options) *Agent {
	base := DefaultRequestConfig()
	if opts.Sandbox {
		base.BaseURL = SandboxBaseURL
	}

	a := &Agent{
		creds:      Credentials{Key: opts.Key, Secret: opts.Secret},
		config:     base.Merge(opts.Config),
		httpClient: opts.HTTPClient,
		nonce:      opts.Nonce,
	}
	if a.httpClient == nil {
		a.httpClient = &http.Client{}
	}
	if a.nonce == nil {
		a.nonce = NewMonotonicNonce()
	}
	return a
}

// IsUpgraded reports whether the agent holds credentials.
func (a *Agent) IsUpgraded() bool {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.creds.present()
}

// Upgrade replaces the stored credentials. There is no merge with the
// previous pair.
func (a *Agent) Upgrade(creds Credentials) {
	a.mu.Lock()
	a.creds = creds
	a.mu.Unlock()

	log.Debug().Bool("upgraded", creds.present()).Msg("Credentials replaced")
}

// Config returns the instance configuration (defaults merged with Options.Config).
func (a *Agent) Config() RequestConfig {
	return a.config.Merge(RequestConfig{})
}

func (a *Agent) credentials() Credentials {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.creds
}

// Sign signs body for path with the current secret and a fresh nonce. path
// is the absolute request path, e.g. "/v1/order/new".
func (a *Agent) Sign(path string, body interface{}) (Signature, error) {
	creds := a.credentials()
	if !creds.present() {
		return Signature{}, ErrUnauthenticated
	}
	return Sign(path, body, creds.Secret, a.nonce.Nonce())
}

// GetPublicEndpoint issues an unauthenticated GET to {version}/{path}. params
// may be nil, url.Values, map[string]string or a struct with `url` tags.
// A non-2xx status is returned as *HTTPError carrying the body as received.
func (a *Agent) GetPublicEndpoint(ctx context.Context, path string, params interface{}, override *RequestConfig) (*Response, error) {
	cfg := a.merged(http.MethodGet, override)

	values, err := encodeQuery(params)
	if err != nil {
		return nil, err
	}

	reqURL := cfg.url(path)
	if encoded := values.Encode(); encoded != "" {
		reqURL += "?" + encoded
	}

	resp, err := a.do(ctx, cfg, reqURL, nil, nil)
	if err != nil {
		return nil, err
	}
	if !resp.OK() {
		return resp, &HTTPError{StatusCode: resp.StatusCode, Status: resp.Status, Body: resp.Body}
	}
	return resp, nil
}

// PostToPrivateEndpoint signs body and POSTs it to {version}/{path}. Without
// credentials it returns ErrUnauthenticated and sends nothing. A failed call
// returns the most specific error available: *APIError, then *HTTPError, then
// *TransportError.
func (a *Agent) PostToPrivateEndpoint(ctx context.Context, path string, body interface{}, override *RequestConfig) (*Response, error) {
	creds := a.credentials()
	if !creds.present() {
		return nil, ErrUnauthenticated
	}

	cfg := a.merged(http.MethodPost, override)
	requestPath := "/" + cfg.endpoint(path)

	sig, err := Sign(requestPath, body, creds.Secret, a.nonce.Nonce())
	if err != nil {
		return nil, fmt.Errorf("sign %s: %w", requestPath, err)
	}

	payload, err := encodeBody(body)
	if err != nil {
		return nil, err
	}

	headers := map[string]string{
		HeaderAPIKey:    creds.Key,
		HeaderPayload:   sig.Payload,
		HeaderSignature: sig.Digest,
	}

	resp, err := a.do(ctx, cfg, cfg.url(path), payload, headers)
	if err != nil {
		return nil, err
	}
	if !resp.OK() {
		return resp, classify(resp)
	}
	return resp, nil
}

func (a *Agent) merged(method string, override *RequestConfig) RequestConfig {
	cfg := a.config.Merge(RequestConfig{Method: method})
	if override != nil {
		cfg = cfg.Merge(*override)
	}
	return cfg
}

// do sends one request and reads the whole body.
func (a *Agent) do(ctx context.Context, cfg RequestConfig, reqURL string, body []byte, extra map[string]string) (*Response, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	if cfg.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, cfg.Timeout)
		defer cancel()
	}

	req, err := http.NewRequestWithContext(ctx, cfg.Method, reqURL, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}

	// Content-Length is owned by the transport; the default header is only
	// a placeholder for the empty body.
	for k, v := range cfg.Headers {
		if http.CanonicalHeaderKey(k) == "Content-Length" {
			continue
		}
		req.Header.Set(k, v)
	}
	for k, v := range extra {
		req.Header.Set(k, v)
	}
	req.ContentLength = int64(len(body))
	if len(body) == 0 {
		req.Body = http.NoBody
	}

	start := time.Now()
	resp, err := a.httpClient.Do(req)
	if err != nil {
		log.Debug().Err(err).Str("method", cfg.Method).Str("url", reqURL).Msg("Request failed")
		return nil, &TransportError{Method: cfg.Method, URL: reqURL, Err: err}
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &TransportError{Method: cfg.Method, URL: reqURL, Err: fmt.Errorf("read body: %w", err)}
	}

	log.Debug().
		Str("method", cfg.Method).
		Str("url", reqURL).
		Int("status", resp.StatusCode).
		Dur("took", time.Since(start)).
		Msg("Request complete")

	return &Response{
		StatusCode: resp.StatusCode,
		Status:     resp.Status,
		Header:     resp.Header,
		Body:       respBody,
		Raw:        resp,
	}, nil
}

func encodeQuery(params interface{}) (url.Values, error) {
	switch p := params.(type) {
	case nil:
		return url.Values{}, nil
	case url.Values:
		return p, nil
	case map[string]string:
		values := url.Values{}
		for k, v := range p {
			values.Set(k, v)
		}
		return values, nil
	}

	values, err := query.Values(params)
	if err != nil {
		return nil, fmt.Errorf("encode query: %w", err)
	}
	return values, nil
}

func encodeBody(body interface{}) ([]byte, error) {
	if body == nil {
		return nil, nil
	}
	raw, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("encode body: %w", err)
	}
	return raw, nil
}
