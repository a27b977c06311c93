package rest

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// ErrUnauthenticated is returned by private calls on an agent without
// credentials. No request is sent.
var ErrUnauthenticated = errors.New("unauthenticated: API key and secret required for private endpoints")

// TransportError wraps a failure that produced no HTTP response at all
// (DNS, connection reset, timeout, cancelled context).
type TransportError struct {
	Method string
	URL    string
	Err    error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Method, e.URL, e.Err)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

// HTTPError is a non-2xx response without a structured exchange error.
// Body is empty when the server sent nothing back.
type HTTPError struct {
	StatusCode int
	Status     string
	Body       []byte
}

func (e *HTTPError) Error() string {
	if len(e.Body) == 0 {
		return fmt.Sprintf("server responded with a %d status code", e.StatusCode)
	}
	return fmt.Sprintf("server responded with a %d status code: %s", e.StatusCode, strings.TrimSpace(string(e.Body)))
}

// APIError is an error reported by the exchange itself, e.g.
//
//	{"result":"error","reason":"InvalidSignature","message":"InvalidSignature"}
type APIError struct {
	StatusCode int    `json:"-"`
	Result     string `json:"result"`
	Reason     string `json:"reason"`
	Message    string `json:"message"`
}

func (e *APIError) Error() string {
	switch {
	case e.Reason != "" && e.Message != "" && e.Reason != e.Message:
		return fmt.Sprintf("gemini: %s (%d): %s", e.Reason, e.StatusCode, e.Message)
	case e.Reason != "":
		return fmt.Sprintf("gemini: %s (%d)", e.Reason, e.StatusCode)
	default:
		return fmt.Sprintf("gemini: %s (%d)", e.Message, e.StatusCode)
	}
}

// IsAPIError reports whether err is an APIError with the given reason. An
// empty reason matches any APIError.
func IsAPIError(err error, reason string) bool {
	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		return false
	}
	return reason == "" || apiErr.Reason == reason
}

// apiErrorFrom pulls a structured error out of a response body. The legacy
// "error" field is treated as the message when reason/message are missing.
func apiErrorFrom(statusCode int, body []byte) (*APIError, bool) {
	var raw struct {
		Result  string `json:"result"`
		Reason  string `json:"reason"`
		Message string `json:"message"`
		Error   string `json:"error"`
	}
	if err := json.Unmarshal(body, &raw); err != nil {
		return nil, false
	}

	apiErr := &APIError{
		StatusCode: statusCode,
		Result:     raw.Result,
		Reason:     raw.Reason,
		Message:    raw.Message,
	}
	if apiErr.Message == "" {
		apiErr.Message = raw.Error
	}
	if apiErr.Reason == "" && apiErr.Message == "" {
		return nil, false
	}
	return apiErr, true
}

// classify picks the most specific error for a failed private call:
// structured exchange error, then the body, then the bare status.
func classify(resp *Response) error {
	if apiErr, ok := apiErrorFrom(resp.StatusCode, resp.Body); ok {
		return apiErr
	}
	return &HTTPError{
		StatusCode: resp.StatusCode,
		Status:     resp.Status,
		Body:       resp.Body,
	}
}
