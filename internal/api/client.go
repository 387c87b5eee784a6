// Package api provides the REST client used by every dashboard service
package api

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/goccy/go-json"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/net/publicsuffix"

	"github.com/mrcode/diabetes-dashboard/internal/logger"
	"github.com/mrcode/diabetes-dashboard/internal/tokenstore"
)

// DefaultTimeout applies to every request unless WithTimeout overrides it
const DefaultTimeout = 10 * time.Second

// RequestIDHeader carries a per-request id for correlating logs
const RequestIDHeader = "X-Request-ID"

// Client handles communication with the dashboard backend
type Client struct {
	baseURL    string
	store      tokenstore.Store
	httpClient *http.Client
	timeout    time.Duration
	logger     *zap.Logger
	now        func() time.Time

	hookMu            sync.RWMutex
	onUnauthenticated func()
}

// Option configures a Client
type Option func(*Client)

// WithTimeout sets the per-request timeout
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.timeout = d
		}
	}
}

// WithLogger sets the logger
func WithLogger(l *zap.Logger) Option {
	return func(c *Client) {
		if l != nil {
			c.logger = l
		}
	}
}

// WithHTTPClient replaces the underlying http.Client
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.httpClient = hc
		}
	}
}

// WithUnauthenticatedHook registers fn to run after the server rejects the token
func WithUnauthenticatedHook(fn func()) Option {
	return func(c *Client) {
		c.onUnauthenticated = fn
	}
}

// WithClock overrides the clock used for local token expiry checks
func WithClock(now func() time.Time) Option {
	return func(c *Client) {
		if now != nil {
			c.now = now
		}
	}
}

// NewClient creates a new backend client
func NewClient(baseURL string, store tokenstore.Store, opts ...Option) (*Client, error) {
	if store == nil {
		return nil, errors.New("token store is required")
	}
	if _, err := url.Parse(baseURL); err != nil {
		return nil, fmt.Errorf("invalid base URL: %w", err)
	}

	c := &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		store:      store,
		httpClient: &http.Client{},
		timeout:    DefaultTimeout,
		logger:     zap.NewNop(),
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}

	if c.httpClient.Jar == nil {
		jar, err := cookiejar.New(&cookiejar.Options{PublicSuffixList: publicsuffix.List})
		if err != nil {
			return nil, fmt.Errorf("creating cookie jar: %w", err)
		}
		c.httpClient.Jar = jar
	}
	c.httpClient.Timeout = c.timeout

	return c, nil
}

// SetUnauthenticatedHook replaces the hook after construction.
// The session registers itself here once it exists.
func (c *Client) SetUnauthenticatedHook(fn func()) {
	c.hookMu.Lock()
	defer c.hookMu.Unlock()
	c.onUnauthenticated = fn
}

// BaseURL returns the backend root
func (c *Client) BaseURL() string {
	return c.baseURL
}

// HasToken reports whether a token is available for authenticated calls
func (c *Client) HasToken() bool {
	creds, ok := c.store.Get()
	return ok && creds.Token != ""
}

// RequestOptions describes one call
type RequestOptions struct {
	Body    any
	Form    url.Values
	Query   url.Values
	Headers http.Header

	// Multipart is an encoded multipart body. MultipartType must carry its
	// boundary, as multipart.Writer.FormDataContentType returns it.
	Multipart     io.Reader
	MultipartType string

	// Public calls may go out without a token
	Public bool
	// Login marks the credential exchange so a 401 means bad credentials
	Login bool
}

// Get is shorthand for an authenticated GET
func (c *Client) Get(ctx context.Context, path string, query url.Values, out any) error {
	return c.Send(ctx, http.MethodGet, path, RequestOptions{Query: query}, out)
}

// Post is shorthand for an authenticated JSON POST
func (c *Client) Post(ctx context.Context, path string, body, out any) error {
	return c.Send(ctx, http.MethodPost, path, RequestOptions{Body: body}, out)
}

// Put is shorthand for an authenticated JSON PUT
func (c *Client) Put(ctx context.Context, path string, body, out any) error {
	return c.Send(ctx, http.MethodPut, path, RequestOptions{Body: body}, out)
}

// Delete is shorthand for an authenticated DELETE
func (c *Client) Delete(ctx context.Context, path string, out any) error {
	return c.Send(ctx, http.MethodDelete, path, RequestOptions{}, out)
}

// Send executes a request and decodes a successful body into out.
// Every failure is returned as *Error.
func (c *Client) Send(ctx context.Context, method, path string, opts RequestOptions, out any) error {
	requestID := uuid.NewString()
	log := c.logger.With(
		zap.String(logger.RequestIDKey, requestID),
		zap.String("method", method),
		zap.String("path", path),
	)
	log.Debug("api.Send called")

	var token string
	if creds, ok := c.store.Get(); ok {
		token = creds.Token
		if !opts.Public && creds.Expired(c.now()) {
			log.Info("stored token expired locally")
			c.sessionEnded(token)
			return &Error{Kind: KindUnauthenticated, Message: FallbackMessage(KindUnauthenticated)}
		}
	}
	if token == "" && !opts.Public {
		// nothing to send; a session that still thinks it is signed in ends here
		c.sessionEnded("")
		return &Error{Kind: KindUnauthenticated, Message: FallbackMessage(KindUnauthenticated)}
	}

	req, err := c.buildRequest(ctx, method, path, opts, token, requestID)
	if err != nil {
		return &Error{Kind: KindUnknown, Message: FallbackMessage(KindUnknown), Err: err}
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		log.Warn("request failed", zap.Error(err), zap.String("kind", string(KindNetwork)))
		return &Error{Kind: KindNetwork, Message: FallbackMessage(KindNetwork), Err: err}
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return &Error{Kind: KindNetwork, Status: resp.StatusCode, Message: FallbackMessage(KindNetwork), Err: err}
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		apiErr := newStatusError(resp.StatusCode, body, opts.Login)
		log.Warn("request rejected",
			zap.Int("status", resp.StatusCode),
			zap.String("kind", string(apiErr.Kind)),
		)
		if apiErr.Kind == KindUnauthenticated && !c.sessionEnded(token) {
			log.Info("ignoring 401 for a replaced token")
		}
		return apiErr
	}

	if out == nil || resp.StatusCode == http.StatusNoContent || len(bytes.TrimSpace(body)) == 0 {
		return nil
	}
	if err := json.Unmarshal(body, out); err != nil {
		log.Warn("decoding response failed", zap.Error(err))
		return &Error{Kind: KindUnknown, Status: resp.StatusCode, Message: "Unexpected response from server", Err: err}
	}
	return nil
}

// sessionEnded clears the token the failed request was sent with, before
// the caller sees the error. If the store already holds a different token
// the rejection belongs to an older session: nothing is cleared and it
// returns false.
func (c *Client) sessionEnded(token string) bool {
	if creds, ok := c.store.Get(); ok && creds.Token != token {
		return false
	}
	if err := c.store.Clear(); err != nil {
		c.logger.Error("clearing token store", zap.Error(err))
	}

	c.hookMu.RLock()
	hook := c.onUnauthenticated
	c.hookMu.RUnlock()
	if hook != nil {
		hook()
	}
	return true
}

// buildRequest creates an HTTP request with headers and authentication
func (c *Client) buildRequest(ctx context.Context, method, path string, opts RequestOptions, token, requestID string) (*http.Request, error) {
	fullURL := c.baseURL + path
	if len(opts.Query) > 0 {
		fullURL += "?" + opts.Query.Encode()
	}

	var body io.Reader
	contentType := ""
	switch {
	case opts.Multipart != nil:
		if !strings.HasPrefix(opts.MultipartType, "multipart/") {
			return nil, fmt.Errorf("multipart body with content type %q", opts.MultipartType)
		}
		body = opts.Multipart
		contentType = opts.MultipartType
	case opts.Form != nil:
		body = strings.NewReader(opts.Form.Encode())
		contentType = "application/x-www-form-urlencoded"
	case opts.Body != nil:
		data, err := json.Marshal(opts.Body)
		if err != nil {
			return nil, fmt.Errorf("encoding body: %w", err)
		}
		body = bytes.NewReader(data)
		contentType = "application/json"
	}

	req, err := http.NewRequestWithContext(ctx, method, fullURL, body)
	if err != nil {
		return nil, err
	}

	req.Header.Set("Accept", "application/json")
	req.Header.Set("Cache-Control", "no-cache")
	req.Header.Set(RequestIDHeader, requestID)
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	for key, values := range opts.Headers {
		req.Header.Del(key)
		for _, v := range values {
			req.Header.Add(key, v)
		}
	}

	return req, nil
}
