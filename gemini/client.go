// Package gemini maps every Gemini REST endpoint to a typed method. Requests
// are built and signed by package rest; this package only chooses the verb,
// path and parameters and decodes the result.
package gemini

import (
	"context"
	"fmt"
	"net/url"

	"github.com/web3guy0/gemini/rest"
)

// Options is an alias so callers only need this package for the common case.
type Options = rest.Options

// Credentials is an API key pair.
type Credentials = rest.Credentials

// Client is the Gemini REST client.
type Client struct {
	agent *rest.Agent
}

// New creates a client. Without Key and Secret only public methods work;
// private ones fail with rest.ErrUnauthenticated until Upgrade is called.
func New(opts Options) *Client {
	return &Client{agent: rest.NewAgent(opts)}
}

// Agent exposes the underlying request agent, e.g. for Sign or raw calls.
func (c *Client) Agent() *rest.Agent {
	return c.agent
}

func (c *Client) IsUpgraded() bool {
	return c.agent.IsUpgraded()
}

func (c *Client) Upgrade(creds Credentials) {
	c.agent.Upgrade(creds)
}

// DecodeError means the exchange answered 2xx but the body did not match
// the expected model.
type DecodeError struct {
	Path string
	Body []byte
	Err  error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("decode %s: %v", e.Path, e.Err)
}

func (e *DecodeError) Unwrap() error {
	return e.Err
}

func (c *Client) get(ctx context.Context, path string, params interface{}, out interface{}) error {
	resp, err := c.agent.GetPublicEndpoint(ctx, path, params, nil)
	if err != nil {
		return err
	}
	if err := resp.Decode(out); err != nil {
		return &DecodeError{Path: path, Body: resp.Body, Err: err}
	}
	return nil
}

func (c *Client) post(ctx context.Context, path string, body interface{}, out interface{}) error {
	resp, err := c.agent.PostToPrivateEndpoint(ctx, path, body, nil)
	if err != nil {
		return err
	}
	if err := resp.Decode(out); err != nil {
		return &DecodeError{Path: path, Body: resp.Body, Err: err}
	}
	return nil
}

func segment(s string) string {
	return url.PathEscape(s)
}
