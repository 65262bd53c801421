package api

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/jrsteele09/storefront-client/internal/metrics"
)

const (
	DefaultPrefix       = "/api/v1"
	DefaultTenantHeader = "X-Tenant-Id"
	RequestIDHeader     = "X-Request-Id"

	maxResponseBytes = 4 << 20
)

// RequestOptions are the per-call settings of a request.
type RequestOptions struct {
	// Token is sent as a bearer token when set.
	Token string
	// TenantID is sent in the tenant header when set.
	TenantID string
	// SkipAuthRecovery disables the 401 refresh-and-retry sequence for this call.
	SkipAuthRecovery bool
}

// Client performs JSON requests against the storefront backend.
type Client struct {
	baseURL      string
	prefix       string
	tenantHeader string
	httpClient   *http.Client
	handler      AuthHandler
	logger       zerolog.Logger
	metrics      *metrics.Metrics
	lock         sync.RWMutex
}

type ClientOption func(*Client)

func WithHTTPClient(hc *http.Client) ClientOption {
	return func(c *Client) {
		c.httpClient = hc
	}
}

// WithPrefix sets the fixed path prefix prepended to every request path.
func WithPrefix(prefix string) ClientOption {
	return func(c *Client) {
		c.prefix = "/" + strings.Trim(prefix, "/")
		if c.prefix == "/" {
			c.prefix = ""
		}
	}
}

func WithTenantHeader(name string) ClientOption {
	return func(c *Client) {
		c.tenantHeader = name
	}
}

// WithAuthHandler injects the 401 recovery hook at construction.
func WithAuthHandler(h AuthHandler) ClientOption {
	return func(c *Client) {
		c.handler = h
	}
}

func WithLogger(logger zerolog.Logger) ClientOption {
	return func(c *Client) {
		c.logger = logger
	}
}

func WithMetrics(m *metrics.Metrics) ClientOption {
	return func(c *Client) {
		c.metrics = m
	}
}

func New(baseURL string, options ...ClientOption) *Client {
	c := &Client{
		baseURL:      strings.TrimRight(strings.TrimSpace(baseURL), "/"),
		prefix:       DefaultPrefix,
		tenantHeader: DefaultTenantHeader,
		httpClient:   &http.Client{Timeout: 15 * time.Second},
		logger:       log.Logger,
	}
	for _, opt := range options {
		opt(c)
	}
	return c
}

func (c *Client) Get(ctx context.Context, path string, opts RequestOptions) (*Envelope, error) {
	return c.Do(ctx, http.MethodGet, path, nil, opts)
}

func (c *Client) Post(ctx context.Context, path string, body any, opts RequestOptions) (*Envelope, error) {
	return c.Do(ctx, http.MethodPost, path, body, opts)
}

func (c *Client) Put(ctx context.Context, path string, body any, opts RequestOptions) (*Envelope, error) {
	return c.Do(ctx, http.MethodPut, path, body, opts)
}

// Do sends one logical request, including 401 recovery when it applies.
func (c *Client) Do(ctx context.Context, method, path string, body any, opts RequestOptions) (*Envelope, error) {
	var payload []byte
	if body != nil {
		var err error
		if payload, err = json.Marshal(body); err != nil {
			return nil, errors.Wrapf(err, "[api.Do] encode %s %s body", method, path)
		}
	}
	return c.execute(ctx, request{method: method, path: path, body: payload}, opts)
}

// URL returns the full URL for path. A path that already starts with the
// prefix is not prefixed twice.
func (c *Client) URL(path string) string {
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}
	if c.prefix != "" && path != c.prefix && !strings.HasPrefix(path, c.prefix+"/") {
		path = c.prefix + path
	}
	return c.baseURL + path
}

type request struct {
	method string
	path   string
	body   []byte
}

// send performs a single HTTP exchange.
func (c *Client) send(ctx context.Context, req request, opts RequestOptions) (*Envelope, error) {
	var body io.Reader
	if req.body != nil {
		body = bytes.NewReader(req.body)
	}
	httpReq, err := http.NewRequestWithContext(ctx, req.method, c.URL(req.path), body)
	if err != nil {
		return nil, errors.Wrapf(err, "[api.send] %s %s", req.method, req.path)
	}

	requestID := uuid.NewString()
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Accept", "application/json")
	httpReq.Header.Set(RequestIDHeader, requestID)
	if opts.Token != "" {
		httpReq.Header.Set("Authorization", "Bearer "+opts.Token)
	}
	if opts.TenantID != "" && c.tenantHeader != "" {
		httpReq.Header.Set(c.tenantHeader, opts.TenantID)
	}

	start := time.Now()
	res, err := c.httpClient.Do(httpReq)
	if err != nil {
		c.metrics.ObserveRequest(req.method, 0, time.Since(start))
		c.logger.Debug().Err(err).Str("method", req.method).Str("path", req.path).Str("request_id", requestID).Msg("Request failed")
		return nil, errors.Wrapf(err, "[api.send] %s %s", req.method, req.path)
	}
	defer res.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(res.Body, maxResponseBytes))
	c.metrics.ObserveRequest(req.method, res.StatusCode, time.Since(start))
	if err != nil {
		return nil, errors.Wrapf(err, "[api.send] read %s %s", req.method, req.path)
	}

	c.logger.Debug().
		Str("method", req.method).
		Str("path", req.path).
		Int("status", res.StatusCode).
		Str("request_id", requestID).
		Dur("elapsed", time.Since(start)).
		Msg("Request complete")

	env := normalize(res.StatusCode, raw)
	if res.StatusCode < 200 || res.StatusCode > 299 {
		return nil, env.asError(res.StatusCode)
	}
	return &env, nil
}

// Get sends a GET and decodes the envelope data into T.
func Get[T any](ctx context.Context, c *Client, path string, opts RequestOptions) (*Response[T], error) {
	env, err := c.Get(ctx, path, opts)
	if err != nil {
		return nil, err
	}
	return Decode[T](env)
}

// Post sends a POST and decodes the envelope data into T.
func Post[T any](ctx context.Context, c *Client, path string, body any, opts RequestOptions) (*Response[T], error) {
	env, err := c.Post(ctx, path, body, opts)
	if err != nil {
		return nil, err
	}
	return Decode[T](env)
}

// Put sends a PUT and decodes the envelope data into T.
func Put[T any](ctx context.Context, c *Client, path string, body any, opts RequestOptions) (*Response[T], error) {
	env, err := c.Put(ctx, path, body, opts)
	if err != nil {
		return nil, err
	}
	return Decode[T](env)
}
