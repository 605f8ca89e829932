// Package genai is a typed client for the vendor's generative REST API:
// text generation, grounded search, image generation and editing, video
// generation with long-running polling, speech synthesis, and audio
// transcription.
package genai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"golang.org/x/oauth2"

	"github.com/aria-studio/aria/internal/httpc"
)

// DefaultBaseURL is the production REST endpoint.
const DefaultBaseURL = "https://generativelanguage.googleapis.com/v1beta"

// Client talks to the generative REST API. Authentication is either an
// API key (appended as a query parameter) or an OAuth2 token source
// (sent as a bearer header); the token source wins when both are set.
type Client struct {
	apiKey  string
	baseURL string
	http    *http.Client
	tokens  oauth2.TokenSource
}

// Option configures a Client.
type Option func(*Client)

// WithBaseURL points the client at a different endpoint. Tests use this
// to target a local server.
func WithBaseURL(u string) Option {
	return func(c *Client) { c.baseURL = strings.TrimRight(u, "/") }
}

// WithHTTPClient substitutes the HTTP client.
func WithHTTPClient(h *http.Client) Option {
	return func(c *Client) { c.http = h }
}

// WithTokenSource authenticates with OAuth2 bearer tokens instead of an
// API key.
func WithTokenSource(ts oauth2.TokenSource) Option {
	return func(c *Client) { c.tokens = ts }
}

// NewClient builds a client authenticated with the given API key.
func NewClient(apiKey string, opts ...Option) *Client {
	c := &Client{
		apiKey:  apiKey,
		baseURL: DefaultBaseURL,
		http:    httpc.Client,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// HasCredentials reports whether the client can authenticate at all.
func (c *Client) HasCredentials() bool {
	return c.apiKey != "" || c.tokens != nil
}

// do issues one JSON request against path (e.g. "/models/x:generateContent")
// and decodes the response into out. Non-2xx responses decode into an
// *APIError.
func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	var rd io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("genai: encode request: %w", err)
		}
		rd = bytes.NewReader(data)
	}

	u, err := c.requestURL(path)
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, method, u, rd)
	if err != nil {
		return fmt.Errorf("genai: build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.tokens != nil {
		tok, err := c.tokens.Token()
		if err != nil {
			return fmt.Errorf("genai: fetch token: %w", err)
		}
		tok.SetAuthHeader(req)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("genai: request failed: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("genai: read response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return parseAPIError(resp.StatusCode, data)
	}
	if out == nil {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("genai: decode response: %w", err)
	}
	return nil
}

// requestURL joins path onto the base URL and appends the API key when
// bearer auth is not in use.
func (c *Client) requestURL(path string) (string, error) {
	u, err := url.Parse(c.baseURL + path)
	if err != nil {
		return "", fmt.Errorf("genai: bad url: %w", err)
	}
	if c.tokens == nil && c.apiKey != "" {
		q := u.Query()
		q.Set("key", c.apiKey)
		u.RawQuery = q.Encode()
	}
	return u.String(), nil
}

// generate runs one generateContent call and returns the response.
func (c *Client) generate(ctx context.Context, model string, req generateContentRequest) (*generateContentResponse, error) {
	if model == "" {
		return nil, fmt.Errorf("genai: model is required")
	}
	var resp generateContentResponse
	if err := c.do(ctx, http.MethodPost, "/models/"+model+":generateContent", req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}
