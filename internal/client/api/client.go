// Package api is the single authenticated HTTP gateway to the CRM REST API.
//
// Every call is independent and at-most-once: no retries, no caching and no
// request deduplication. A 401 answer clears the stored session and notifies
// the subscribers registered with OnSessionInvalidated.
package api

import (
	"bytes"
	"cmp"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"slices"
	"strconv"
	"strings"
	"sync"

	"github.com/meucrm/crmdesk/internal/models"
	"go.uber.org/zap"
)

const maxErrorBody = 4 << 10

// SessionStore is the durable storage of the session.
type SessionStore interface {
	Load() (models.Session, bool, error)
	Save(token string, user models.User) error
	Clear() error
}

// RequestOptions describes one call made through Request.
type RequestOptions struct {
	// Method defaults to GET.
	Method string
	Query  url.Values
	// Body is JSON-encoded when non-nil.
	Body any
	// Header is merged over Content-Type; Authorization is always set last.
	Header http.Header
}

// Client talks to the CRM API on behalf of the current session.
type Client struct {
	baseURL string
	http    *http.Client
	store   SessionStore
	log     *zap.Logger

	mu          sync.RWMutex
	token       string
	subscribers []func(reason error)
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces http.DefaultClient.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.http = hc }
}

// WithLogger sets the logger; a no-op logger is used otherwise.
func WithLogger(l *zap.Logger) Option {
	return func(c *Client) { c.log = l }
}

// New returns a Client for baseURL and restores the persisted token, if any.
func New(baseURL string, store SessionStore, opts ...Option) *Client {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    http.DefaultClient,
		store:   store,
		log:     zap.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	if _, _, err := c.Restore(); err != nil {
		c.log.Warn("stored session is unreadable", zap.Error(err))
	}
	return c
}

// Restore reloads the session from the store and adopts its token.
func (c *Client) Restore() (models.Session, bool, error) {
	sess, ok, err := c.store.Load()
	c.mu.Lock()
	defer c.mu.Unlock()
	if err != nil || !ok {
		c.token = ""
		return models.Session{}, false, err
	}
	c.token = sess.Token
	return sess, true, nil
}

// Token returns the bearer token in use, or "".
func (c *Client) Token() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.token
}

// HasSession reports whether a token is held.
func (c *Client) HasSession() bool {
	return c.Token() != ""
}

// OnSessionInvalidated registers fn to run after the session is dropped.
// reason is nil for an explicit Logout and an *AuthenticationError for a 401.
func (c *Client) OnSessionInvalidated(fn func(reason error)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.subscribers = append(c.subscribers, fn)
}

// Request sends one JSON request to endpoint and decodes the answer into out.
// out may be nil when the body is not needed.
func (c *Client) Request(ctx context.Context, endpoint string, opts RequestOptions, out any) error {
	method := cmp.Or(opts.Method, http.MethodGet)
	target := c.baseURL + endpoint
	if len(opts.Query) > 0 {
		target += "?" + opts.Query.Encode()
	}

	var body io.Reader
	if opts.Body != nil {
		b, err := json.Marshal(opts.Body)
		if err != nil {
			return fmt.Errorf("encode request body: %w", err)
		}
		body = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, target, body)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	for k, vs := range opts.Header {
		req.Header.Del(k)
		for _, v := range vs {
			req.Header.Add(k, v)
		}
	}
	if token := c.Token(); token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	} else {
		req.Header.Del("Authorization")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		c.log.Error("request failed", zap.String("method", method), zap.String("endpoint", endpoint), zap.Error(err))
		return &NetworkError{Method: method, Endpoint: endpoint, Err: err}
	}
	defer resp.Body.Close()

	c.log.Debug("request done",
		zap.String("method", method),
		zap.String("endpoint", endpoint),
		zap.Int("status", resp.StatusCode),
	)

	if resp.StatusCode == http.StatusUnauthorized {
		dropped := c.dropSession()
		authErr := &AuthenticationError{Endpoint: endpoint, SessionDropped: dropped}
		if dropped {
			c.notify(authErr)
		}
		return authErr
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return &HTTPError{
			Status:     resp.StatusCode,
			StatusText: statusText(resp),
			Body:       strings.TrimSpace(string(snippet)),
		}
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return &NetworkError{Method: method, Endpoint: endpoint, Err: err}
	}
	if len(bytes.TrimSpace(data)) == 0 {
		if out == nil {
			return nil
		}
		return &DecodeError{Endpoint: endpoint, Err: io.ErrUnexpectedEOF}
	}
	if out == nil {
		if !json.Valid(data) {
			return &DecodeError{Endpoint: endpoint, Err: errNotJSON}
		}
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return &DecodeError{Endpoint: endpoint, Err: err}
	}
	return nil
}

// dropSession forgets the token and clears the store. It reports whether a
// session existed.
func (c *Client) dropSession() bool {
	c.mu.Lock()
	had := c.token != ""
	c.token = ""
	c.mu.Unlock()

	if err := c.store.Clear(); err != nil {
		c.log.Error("failed to clear stored session", zap.Error(err))
	}
	return had
}

func (c *Client) notify(reason error) {
	c.mu.RLock()
	subs := slices.Clone(c.subscribers)
	c.mu.RUnlock()
	for _, fn := range subs {
		fn(reason)
	}
}

// statusText returns the reason phrase of resp, e.g. "Not Found".
func statusText(resp *http.Response) string {
	if text, ok := strings.CutPrefix(resp.Status, strconv.Itoa(resp.StatusCode)+" "); ok && text != "" {
		return text
	}
	return http.StatusText(resp.StatusCode)
}
