// Package transport is the single point of outbound HTTP configuration.
// Every request to the backend flows through Client: bearer injection,
// request IDs, timeouts, rate limiting, envelope decoding, and the global
// 401 session-clear all live here and nowhere else.
package transport

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/terzoomedia/hasad-go/internal/envelope"
	"github.com/terzoomedia/hasad-go/internal/session"
	"github.com/terzoomedia/hasad-go/pkg/config"
	apperrors "github.com/terzoomedia/hasad-go/pkg/errors"
)

// Client wraps http.Client with the backend's conventions.
type Client struct {
	base          *url.URL
	http          *http.Client
	session       *session.Store
	logger        *zap.Logger
	metrics       *Metrics
	limiter       *rate.Limiter
	onAuthExpired func()
}

// Option customises a Client.
type Option func(*Client)

// WithMetrics attaches Prometheus instrumentation.
func WithMetrics(m *Metrics) Option {
	return func(c *Client) { c.metrics = m }
}

// WithAuthExpiredHook registers the callback fired after a 401 clears the
// session. The embedding application routes back to its login entry point
// here.
func WithAuthExpiredHook(fn func()) Option {
	return func(c *Client) { c.onAuthExpired = fn }
}

// WithHTTPClient overrides the underlying client, used by tests.
func WithHTTPClient(h *http.Client) Option {
	return func(c *Client) { c.http = h }
}

// New builds a Client from config. A zero rate limit disables throttling.
func New(cfg config.APIConfig, sess *session.Store, logger *zap.Logger, opts ...Option) (*Client, error) {
	base, err := url.Parse(strings.TrimRight(cfg.BaseURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("parse base url: %w", err)
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}

	c := &Client{
		base:    base,
		http:    &http.Client{Timeout: timeout},
		session: sess,
		logger:  logger,
	}
	if cfg.RateLimitRPS > 0 {
		burst := cfg.RateLimitBurst
		if burst < 1 {
			burst = 1
		}
		c.limiter = rate.NewLimiter(rate.Limit(cfg.RateLimitRPS), burst)
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// RequestOpts carries the optional parts of a request. JSON and Body are
// mutually exclusive; Body is for prebuilt payloads such as multipart forms.
type RequestOpts struct {
	Query       url.Values
	JSON        any
	Body        io.Reader
	ContentType string
}

// Do performs a request and decodes the response envelope. Non-2xx statuses
// and network failures surface as typed errors; callers decide how to
// report them.
func (c *Client) Do(ctx context.Context, method, path string, opts *RequestOpts) (*envelope.Envelope, error) {
	body, status, err := c.roundTrip(ctx, method, path, opts)
	if err != nil {
		return nil, err
	}

	env, err := envelope.Parse(body)
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.ErrTransport.Code, status, "unexpected response body")
	}
	return env, nil
}

// Blob is a raw download plus the filename the server suggested, if any.
type Blob struct {
	Data        []byte
	Filename    string
	ContentType string
}

// Download fetches a binary response (CSV exports, report PDFs). The
// filename is extracted from Content-Disposition when present.
func (c *Client) Download(ctx context.Context, path string, query url.Values) (*Blob, error) {
	req, err := c.newRequest(ctx, http.MethodGet, path, &RequestOpts{Query: query})
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "*/*")

	resp, err := c.send(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close() //nolint:errcheck

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.ErrTransport.Code, resp.StatusCode, "failed to read download")
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, c.statusError(resp.StatusCode, data)
	}

	return &Blob{
		Data:        data,
		Filename:    dispositionFilename(resp.Header.Get("Content-Disposition")),
		ContentType: resp.Header.Get("Content-Type"),
	}, nil
}

func (c *Client) roundTrip(ctx context.Context, method, path string, opts *RequestOpts) ([]byte, int, error) {
	req, err := c.newRequest(ctx, method, path, opts)
	if err != nil {
		return nil, 0, err
	}

	resp, err := c.send(req)
	if err != nil {
		return nil, 0, err
	}
	defer resp.Body.Close() //nolint:errcheck

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, resp.StatusCode, apperrors.Wrap(err, apperrors.ErrTransport.Code, resp.StatusCode, "failed to read response")
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, resp.StatusCode, c.statusError(resp.StatusCode, body)
	}
	return body, resp.StatusCode, nil
}

func (c *Client) newRequest(ctx context.Context, method, path string, opts *RequestOpts) (*http.Request, error) {
	if opts == nil {
		opts = &RequestOpts{}
	}

	target := c.base.JoinPath(strings.Split(strings.Trim(path, "/"), "/")...)
	if len(opts.Query) > 0 {
		target.RawQuery = opts.Query.Encode()
	}

	var body io.Reader
	contentType := opts.ContentType
	switch {
	case opts.Body != nil:
		body = opts.Body
	case opts.JSON != nil:
		payload, err := json.Marshal(opts.JSON)
		if err != nil {
			return nil, fmt.Errorf("encode request body: %w", err)
		}
		body = bytes.NewReader(payload)
		contentType = "application/json"
	}

	req, err := http.NewRequestWithContext(ctx, method, target.String(), body)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}

	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Request-ID", uuid.NewString())
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	if c.session != nil {
		if token := c.session.Token(); token != "" {
			req.Header.Set("Authorization", "Bearer "+token)
		}
	}
	return req, nil
}

func (c *Client) send(req *http.Request) (*http.Response, error) {
	if c.limiter != nil {
		if err := c.limiter.Wait(req.Context()); err != nil {
			return nil, apperrors.Wrap(err, apperrors.ErrTransport.Code, 0, "request cancelled")
		}
	}

	start := time.Now()
	resp, err := c.http.Do(req)
	latency := time.Since(start)

	status := 0
	if resp != nil {
		status = resp.StatusCode
	}
	c.logger.Info("api_request",
		zap.String("method", req.Method),
		zap.String("path", req.URL.Path),
		zap.Int("status", status),
		zap.Duration("latency", latency),
		zap.String("request_id", req.Header.Get("X-Request-ID")),
	)
	if c.metrics != nil {
		c.metrics.ObserveRequest(req.Method, req.URL.Path, status, latency)
	}

	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.ErrTransport.Code, 0, apperrors.ErrTransport.Message)
	}
	return resp, nil
}

// statusError maps a failed response onto the error taxonomy. A 401 clears
// the session globally so no stale-session request loop can form.
func (c *Client) statusError(status int, body []byte) error {
	env, parseErr := envelope.Parse(body)
	message := ""
	if parseErr == nil {
		message = env.ErrorMessage()
	}

	switch status {
	case http.StatusUnauthorized:
		c.expireSession()
		return apperrors.Clone(apperrors.ErrUnauthorized, message)
	case http.StatusNotFound:
		return apperrors.Clone(apperrors.ErrNotFound, message)
	case http.StatusUnprocessableEntity:
		if parseErr == nil {
			if fields := envelope.FieldErrors(env.Errors); fields != nil {
				return apperrors.WithFields(apperrors.ErrUnprocessable, fields)
			}
		}
		return apperrors.Clone(apperrors.ErrUnprocessable, message)
	default:
		err := apperrors.Clone(apperrors.ErrTransport, message)
		err.Status = status
		return err
	}
}

func (c *Client) expireSession() {
	if c.session == nil || !c.session.Authenticated() {
		return
	}
	c.session.Logout()
	c.logger.Warn("session expired, credentials cleared")
	if c.onAuthExpired != nil {
		c.onAuthExpired()
	}
}

// dispositionFilename extracts a filename from a Content-Disposition header,
// honouring the RFC 5987 filename* form the backend uses for UTF-8 names.
func dispositionFilename(header string) string {
	if header == "" {
		return ""
	}
	if _, params, err := mime.ParseMediaType(header); err == nil {
		if name := params["filename"]; name != "" {
			return name
		}
	}
	// filename*=UTF-8''... with percent escapes that ParseMediaType rejects.
	if idx := strings.Index(header, "filename*=UTF-8''"); idx >= 0 {
		name := header[idx+len("filename*=UTF-8''"):]
		if semi := strings.IndexByte(name, ';'); semi >= 0 {
			name = name[:semi]
		}
		if decoded, err := url.QueryUnescape(strings.TrimSpace(name)); err == nil {
			return decoded
		}
	}
	return ""
}
