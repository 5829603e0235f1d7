package transport

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/bytedance/sonic"
	"github.com/hashicorp/go-cleanhttp"

	"github.com/dmitrymomot/contestkit/pkg/logger"
	"github.com/dmitrymomot/contestkit/pkg/requestid"
)

// maxBodySize caps how much of a response body is read.
const maxBodySize = 10 << 20

// Requester performs one API request. The query layer depends only on this.
type Requester interface {
	Request(ctx context.Context, path string, opts RequestOptions) (*Response, error)
}

// RequestOptions describe a request relative to the client's base URL.
type RequestOptions struct {
	// Method defaults to GET.
	Method string
	Params url.Values
	// Body is encoded as JSON unless it is []byte or io.Reader.
	Body    any
	Headers map[string]string
}

// Response is a fully read, successful response.
type Response struct {
	StatusCode int
	Header     http.Header
	Data       []byte
}

// Client is a JSON API client. Zero value is not usable; use New.
type Client struct {
	base       *url.URL
	http       *http.Client
	tokens     TokenSource
	timeout    time.Duration
	maxRetries int
	backoff    Backoff
	userAgent  string
	log        *slog.Logger
}

// New creates a Client for the absolute http(s) baseURL.
func New(baseURL string, opts ...Option) (*Client, error) {
	u, err := url.Parse(baseURL)
	if err != nil {
		return nil, errors.Join(ErrInvalidURL, err)
	}
	if (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return nil, fmt.Errorf("%w: %q", ErrInvalidURL, baseURL)
	}

	cfg := DefaultConfig()
	c := &Client{
		base:       u,
		http:       cleanhttp.DefaultPooledClient(),
		timeout:    cfg.Timeout,
		maxRetries: cfg.MaxRetries,
		backoff:    ExponentialBackoff{JitterFactor: 0.2},
		userAgent:  cfg.UserAgent,
		log:        slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	c.log = c.log.With(logger.Component("transport"))
	return c, nil
}

// Request sends the request and returns the response for 2xx statuses.
// Non-2xx statuses yield *StatusError; other failures wrap ErrRequestFailed.
// GET and HEAD are retried on network errors, 5xx and 429.
func (c *Client) Request(ctx context.Context, path string, opts RequestOptions) (*Response, error) {
	method := cmpOrString(opts.Method, http.MethodGet)

	target, err := c.resolve(path, opts.Params)
	if err != nil {
		return nil, err
	}

	body, contentType, err := encodeBody(opts.Body)
	if err != nil {
		return nil, err
	}

	retries := 0
	if method == http.MethodGet || method == http.MethodHead {
		retries = c.maxRetries
	}

	var lastErr error
	for attempt := 0; attempt <= retries; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(c.backoff.NextInterval(attempt)):
			}
		}

		resp, err := c.attempt(ctx, method, target, body, contentType, opts.Headers)
		if err == nil {
			return resp, nil
		}
		lastErr = err
		if !retryable(err) || ctx.Err() != nil {
			break
		}
		c.log.DebugContext(ctx, "retrying request",
			slog.String("method", method),
			slog.String("path", path),
			slog.Int("attempt", attempt+1),
			logger.Error(err),
		)
	}
	return nil, lastErr
}

func (c *Client) attempt(ctx context.Context, method, target string, body []byte, contentType string, headers map[string]string) (*Response, error) {
	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, target, reader)
	if err != nil {
		return nil, errors.Join(ErrRequestFailed, err)
	}

	req.Header.Set("Accept", "application/json")
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	if c.userAgent != "" {
		req.Header.Set("User-Agent", c.userAgent)
	}
	if c.tokens != nil {
		if token, ok := c.tokens.Token(); ok {
			req.Header.Set("Authorization", "Bearer "+token)
		}
	}
	if id := requestid.FromContext(ctx); id != "" {
		req.Header.Set(requestid.Header, id)
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return nil, fmt.Errorf("%w: %w: %w", ErrRequestFailed, ErrTimeout, err)
		}
		return nil, fmt.Errorf("%w: %w", ErrRequestFailed, err)
	}
	defer func() { _ = resp.Body.Close() }()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
	if err != nil {
		return nil, fmt.Errorf("%w: reading body: %w", ErrRequestFailed, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &StatusError{StatusCode: resp.StatusCode, Body: excerpt(data)}
	}

	return &Response{StatusCode: resp.StatusCode, Header: resp.Header, Data: data}, nil
}

func (c *Client) resolve(path string, params url.Values) (string, error) {
	ref, err := url.Parse(strings.TrimPrefix(path, "/"))
	if err != nil {
		return "", errors.Join(ErrInvalidURL, err)
	}

	base := *c.base
	if !strings.HasSuffix(base.Path, "/") {
		base.Path += "/"
	}
	u := base.ResolveReference(ref)

	if len(params) > 0 {
		q := u.Query()
		for k, vs := range params {
			for _, v := range vs {
				q.Add(k, v)
			}
		}
		u.RawQuery = q.Encode()
	}
	return u.String(), nil
}

// Decode unmarshals the response body into T.
func Decode[T any](resp *Response) (T, error) {
	var v T
	if resp == nil || len(resp.Data) == 0 {
		return v, fmt.Errorf("%w: empty body", ErrDecode)
	}
	if err := sonic.Unmarshal(resp.Data, &v); err != nil {
		return v, errors.Join(ErrDecode, err)
	}
	return v, nil
}

// Get is Request followed by Decode.
func Get[T any](ctx context.Context, r Requester, path string, opts RequestOptions) (T, error) {
	resp, err := r.Request(ctx, path, opts)
	if err != nil {
		var zero T
		return zero, err
	}
	return Decode[T](resp)
}

func encodeBody(body any) ([]byte, string, error) {
	switch b := body.(type) {
	case nil:
		return nil, "", nil
	case []byte:
		return b, "application/octet-stream", nil
	case io.Reader:
		data, err := io.ReadAll(b)
		if err != nil {
			return nil, "", errors.Join(ErrInvalidBody, err)
		}
		return data, "application/octet-stream", nil
	default:
		data, err := sonic.Marshal(b)
		if err != nil {
			return nil, "", errors.Join(ErrInvalidBody, err)
		}
		return data, "application/json", nil
	}
}

func retryable(err error) bool {
	var se *StatusError
	if errors.As(err, &se) {
		return se.StatusCode >= 500 || se.StatusCode == http.StatusTooManyRequests
	}
	return errors.Is(err, ErrRequestFailed)
}

// excerpt keeps error messages short and on one line.
func excerpt(data []byte) string {
	s := strings.ReplaceAll(string(data), "\n", " ")
	if len(s) > 200 {
		s = s[:200] + "..."
	}
	return s
}

func cmpOrString(s, fallback string) string {
	if s == "" {
		return fallback
	}
	return s
}
