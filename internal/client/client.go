package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
)

const (
	refreshPath    = "/api/auth/refresh"
	loginPath      = "/login"
	refreshTimeout = 10 * time.Second
	uploadTimeout  = 30 * time.Second
)

type Option func(*Client)

// WithOnAuthCleared registers the callback fired when a refresh fails and
// the session is gone.
func WithOnAuthCleared(fn func()) Option { return func(c *Client) { c.onCleared = fn } }

// WithRedirect registers the callback that receives the login URL once the
// session cannot be recovered.
func WithRedirect(fn func(loginURL string)) Option { return func(c *Client) { c.redirect = fn } }

// WithLocation reports the caller's current surface as path plus query.
func WithLocation(fn func() string) Option { return func(c *Client) { c.location = fn } }

func WithLogger(l *zap.Logger) Option { return func(c *Client) { c.log = l } }

func WithHTTPClient(hc *http.Client) Option { return func(c *Client) { c.hc = hc } }

func WithUploadTimeout(d time.Duration) Option { return func(c *Client) { c.uploadTimeout = d } }

// WithTimeout bounds each attempt of Do and Download. Uploads use their own
// budget.
func WithTimeout(d time.Duration) Option { return func(c *Client) { c.timeout = d } }

// Client talks to the auth API with a private cookie jar. A 401 triggers one
// coalesced refresh and a single retry of the original request.
type Client struct {
	base          *url.URL
	hc            *http.Client
	log           *zap.Logger
	refreshes     singleflight.Group
	onCleared     func()
	redirect      func(string)
	location      func() string
	timeout       time.Duration
	uploadTimeout time.Duration
}

func New(baseURL string, opts ...Option) (*Client, error) {
	base, err := url.Parse(strings.TrimRight(baseURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("parse base url: %w", err)
	}
	if base.Scheme == "" || base.Host == "" {
		return nil, fmt.Errorf("base url %q must be absolute", baseURL)
	}

	c := &Client{
		base:          base,
		log:           zap.NewNop(),
		timeout:       defaultTimeout,
		uploadTimeout: uploadTimeout,
	}
	for _, o := range opts {
		o(c)
	}
	// No http.Client.Timeout: it would cap uploads too. Deadlines come from
	// the per-call contexts.
	if c.hc == nil {
		c.hc = &http.Client{Transport: newTransport(defaultTimeout)}
	}
	if c.hc.Jar == nil {
		jar, err := cookiejar.New(nil)
		if err != nil {
			return nil, fmt.Errorf("cookie jar: %w", err)
		}
		c.hc.Jar = jar
	}
	return c, nil
}

// Cookies returns the cookies the jar would send to the API.
func (c *Client) Cookies() []*http.Cookie { return c.hc.Jar.Cookies(c.base) }

func (c *Client) SetCookies(cookies []*http.Cookie) { c.hc.Jar.SetCookies(c.base, cookies) }

// Do sends body as JSON and returns the response envelope. When out is not
// nil and the call succeeded, the data member is decoded into it.
func (c *Client) Do(ctx context.Context, method, path string, body, out any) Envelope {
	var payload []byte
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return transportFailure(err)
		}
		payload = b
	}

	env := c.send(ctx, method, path, payload, 0)
	if out != nil && env.Success && len(env.Data) > 0 {
		if err := env.DecodeData(out); err != nil {
			c.log.Warn("client.decode", zap.String("path", path), zap.Error(err))
			bad := failure(msgInvalidResponse)
			bad.Status = env.Status
			return bad
		}
	}
	return env
}

func (c *Client) send(ctx context.Context, method, path string, payload []byte, attempt int) Envelope {
	var (
		body        io.Reader
		contentType string
	)
	if payload != nil {
		body = bytes.NewReader(payload)
		contentType = "application/json"
	}

	rctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	resp, err := c.roundTrip(rctx, method, path, body, contentType, -1)
	if err != nil {
		c.log.Debug("client.request", zap.String("path", path), zap.Error(err))
		return transportFailure(err)
	}
	defer resp.Body.Close()
	env := readEnvelope(resp.Body)
	env.Status = resp.StatusCode

	if resp.StatusCode == http.StatusUnauthorized && c.mayRefresh(attempt) {
		if c.Refresh(ctx) {
			return c.send(ctx, method, path, payload, attempt+1)
		}
		c.redirectToLogin()
	}
	return env
}

// Refresh rotates the token pair. Concurrent callers share one network call
// and its outcome.
func (c *Client) Refresh(ctx context.Context) bool {
	v, _, _ := c.refreshes.Do("refresh", func() (any, error) {
		rctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), refreshTimeout)
		defer cancel()
		return c.refresh(rctx), nil
	})
	return v.(bool)
}

func (c *Client) refresh(ctx context.Context) bool {
	resp, err := c.roundTrip(ctx, http.MethodPost, refreshPath, nil, "", -1)
	if err != nil {
		c.log.Warn("client.refresh", zap.Error(err))
		c.clearAuth()
		return false
	}
	defer resp.Body.Close()

	env := readEnvelope(resp.Body)
	if !env.Success {
		c.log.Warn("client.refresh", zap.Int("status", resp.StatusCode), zap.String("message", env.Message))
		c.clearAuth()
		return false
	}
	c.log.Debug("client.refresh ok")
	return true
}

func (c *Client) roundTrip(ctx context.Context, method, path string, body io.Reader, contentType string, length int64) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, method, c.base.String()+path, body)
	if err != nil {
		return nil, err
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	if length >= 0 {
		req.ContentLength = length
	}
	req.Header.Set("Accept", "application/json")
	return c.hc.Do(req)
}

// mayRefresh bounds the protocol to one refresh per request and keeps the
// login surface from looping on its own 401s.
func (c *Client) mayRefresh(attempt int) bool {
	if attempt > 0 {
		return false
	}
	u, err := url.Parse(c.currentLocation())
	if err != nil {
		return true
	}
	return u.Path != loginPath
}

func (c *Client) currentLocation() string {
	if c.location == nil {
		return ""
	}
	return c.location()
}

func (c *Client) clearAuth() {
	if c.onCleared != nil {
		c.onCleared()
	}
}

func (c *Client) redirectToLogin() {
	if c.redirect == nil {
		return
	}
	current := c.currentLocation()
	if strings.HasPrefix(current, loginPath) {
		return
	}
	c.redirect(loginPath + "?expired=true&redirect=" + url.QueryEscape(current))
}
