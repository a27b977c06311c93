package rest

import (
	"strings"
	"time"
)

const (
	BaseURL        = "https://api.gemini.com"
	SandboxBaseURL = "https://api.sandbox.gemini.com"
	DefaultVersion = "v1"
	DefaultTimeout = 10 * time.Second

	Version   = "1.0.0"
	UserAgent = "gemini-go/" + Version

	HeaderAPIKey    = "X-GEMINI-APIKEY"
	HeaderPayload   = "X-GEMINI-PAYLOAD"
	HeaderSignature = "X-GEMINI-SIGNATURE"
)

// RequestConfig describes how a single request is built. Zero-valued fields
// mean "not set" and fall through to the next layer when merged.
type RequestConfig struct {
	BaseURL string
	Version string
	Timeout time.Duration
	Headers map[string]string
	Method  string
}

// DefaultRequestConfig returns the configuration every agent starts from.
func DefaultRequestConfig() RequestConfig {
	return RequestConfig{
		BaseURL: BaseURL,
		Version: DefaultVersion,
		Timeout: DefaultTimeout,
		Headers: map[string]string{
			"Cache-Control":  "no-cache",
			"Content-Length": "0",
			"Content-Type":   "text/plain",
			"User-Agent":     UserAgent,
		},
	}
}

// Merge returns a copy of c with every set field of o applied on top.
// Headers are merged key by key, o winning on conflicts.
func (c RequestConfig) Merge(o RequestConfig) RequestConfig {
	out := c
	if o.BaseURL != "" {
		out.BaseURL = o.BaseURL
	}
	if o.Version != "" {
		out.Version = o.Version
	}
	if o.Timeout > 0 {
		out.Timeout = o.Timeout
	}
	if o.Method != "" {
		out.Method = o.Method
	}

	out.Headers = make(map[string]string, len(c.Headers)+len(o.Headers))
	for k, v := range c.Headers {
		out.Headers[k] = v
	}
	for k, v := range o.Headers {
		out.Headers[k] = v
	}
	return out
}

// endpoint returns the versioned path without a leading slash, e.g. "v1/symbols".
func (c RequestConfig) endpoint(path string) string {
	path = strings.TrimPrefix(path, "/")
	if c.Version == "" {
		return path
	}
	return strings.Trim(c.Version, "/") + "/" + path
}

// url joins the base URL and the versioned path.
func (c RequestConfig) url(path string) string {
	return strings.TrimRight(c.BaseURL, "/") + "/" + c.endpoint(path)
}
