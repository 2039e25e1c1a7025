// Package api is the client for the visitor-management REST backend.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/buger/jsonparser"
	"github.com/jrsteele09/go-guard-companion/internal/errors"
	pkgerrors "github.com/pkg/errors"
	"golang.org/x/oauth2"
)

// tokenSource hands the current session token to the oauth2 transport. It is
// the client's "default Authorization header".
type tokenSource struct {
	mu    sync.RWMutex
	token string
}

func (ts *tokenSource) Token() (*oauth2.Token, error) {
	ts.mu.RLock()
	defer ts.mu.RUnlock()
	if ts.token == "" {
		return nil, errors.ErrNoSession
	}
	return &oauth2.Token{AccessToken: ts.token, TokenType: "Bearer"}, nil
}

func (ts *tokenSource) set(token string) {
	ts.mu.Lock()
	defer ts.mu.Unlock()
	ts.token = token
}

func (ts *tokenSource) get() string {
	ts.mu.RLock()
	defer ts.mu.RUnlock()
	return ts.token
}

type Client struct {
	baseURL string
	tokens  *tokenSource
	authed  *http.Client
	plain   *http.Client
}

type Option func(*options)

type options struct {
	base    http.RoundTripper
	timeout time.Duration
}

// WithTransport replaces the underlying round tripper
func WithTransport(rt http.RoundTripper) Option {
	return func(o *options) {
		o.base = rt
	}
}

func WithTimeout(d time.Duration) Option {
	return func(o *options) {
		o.timeout = d
	}
}

// New returns a client for the API rooted at baseURL (e.g. "https://host/api")
func New(baseURL string, opts ...Option) *Client {
	o := options{base: http.DefaultTransport, timeout: 15 * time.Second}
	for _, opt := range opts {
		opt(&o)
	}
	ts := &tokenSource{}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		tokens:  ts,
		authed: &http.Client{
			Transport: &oauth2.Transport{Source: ts, Base: o.base},
			Timeout:   o.timeout,
		},
		plain: &http.Client{Transport: o.base, Timeout: o.timeout},
	}
}

// SetToken attaches token to every authenticated request
func (c *Client) SetToken(token string) {
	c.tokens.set(token)
}

// ClearToken detaches the session token
func (c *Client) ClearToken() {
	c.tokens.set("")
}

// HasToken reports whether a session token is attached
func (c *Client) HasToken() bool {
	return c.tokens.get() != ""
}

// BaseURL is the API root without a trailing slash
func (c *Client) BaseURL() string {
	return c.baseURL
}

type request struct {
	method string
	path   string
	query  url.Values
	body   any
	// raw overrides body with a pre-encoded payload
	raw         io.Reader
	contentType string
	anonymous   bool
}

func (c *Client) do(ctx context.Context, req request, out any) error {
	body, err := c.send(ctx, req)
	if err != nil {
		return err
	}
	if out == nil || len(bytes.TrimSpace(body)) == 0 {
		return nil
	}
	if err := json.Unmarshal(body, out); err != nil {
		return pkgerrors.Wrapf(err, "[api] decode %s %s", req.method, req.path)
	}
	return nil
}

// send performs req and returns the body of a 2xx answer
func (c *Client) send(ctx context.Context, req request) ([]byte, error) {
	if !req.anonymous && !c.HasToken() {
		return nil, errors.Wrapf(errors.ErrNoSession, "[api] %s %s", req.method, req.path)
	}

	target := c.baseURL + req.path
	if len(req.query) > 0 {
		target += "?" + req.query.Encode()
	}

	reader := req.raw
	contentType := req.contentType
	if reader == nil && req.body != nil {
		payload, err := json.Marshal(req.body)
		if err != nil {
			return nil, pkgerrors.Wrapf(err, "[api] encode %s %s", req.method, req.path)
		}
		reader = bytes.NewReader(payload)
		contentType = "application/json"
	}

	httpReq, err := http.NewRequestWithContext(ctx, req.method, target, reader)
	if err != nil {
		return nil, pkgerrors.Wrapf(err, "[api] build %s %s", req.method, req.path)
	}
	httpReq.Header.Set("Accept", "application/json")
	if contentType != "" {
		httpReq.Header.Set("Content-Type", contentType)
	}

	httpClient := c.authed
	if req.anonymous {
		httpClient = c.plain
	}
	resp, err := httpClient.Do(httpReq)
	if err != nil {
		return nil, pkgerrors.Wrapf(err, "[api] %s %s", req.method, req.path)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, pkgerrors.Wrapf(err, "[api] read %s %s", req.method, req.path)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, errors.NewAPIError(resp.StatusCode, errorMessage(body))
	}
	return body, nil
}

// errorMessage extracts the backend's "message", which is either a string or
// a list of validation messages
func errorMessage(body []byte) string {
	if msg, err := jsonparser.GetString(body, "message"); err == nil {
		return msg
	}
	var parts []string
	_, _ = jsonparser.ArrayEach(body, func(value []byte, dataType jsonparser.ValueType, _ int, _ error) {
		if dataType == jsonparser.String {
			if s, err := jsonparser.ParseString(value); err == nil {
				parts = append(parts, s)
			}
		}
	}, "message")
	if len(parts) > 0 {
		return strings.Join(parts, ", ")
	}
	if msg, err := jsonparser.GetString(body, "error"); err == nil {
		return msg
	}
	return ""
}
