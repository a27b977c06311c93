package rest

import (
	"encoding/json"
	"fmt"
	"net/http"
)

// Response is the transport response with its body already read. Raw.Body
// is closed and must not be read again.
type Response struct {
	StatusCode int
	Status     string
	Header     http.Header
	Body       []byte
	Raw        *http.Response
}

// OK reports a 2xx status.
func (r *Response) OK() bool {
	return r.StatusCode >= 200 && r.StatusCode < 300
}

// Decode unmarshals the JSON body into v.
func (r *Response) Decode(v interface{}) error {
	if err := json.Unmarshal(r.Body, v); err != nil {
		return fmt.Errorf("decode %d response: %w", r.StatusCode, err)
	}
	return nil
}
