package apiclient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/sony/gobreaker/v2"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.uber.org/zap"

	"storefront/internal/logging"
)

const (
	defaultTimeout     = 10 * time.Second
	defaultMaxFailures = 5
	defaultCooldown    = 30 * time.Second
)

// ErrUnavailable is returned while the circuit breaker is open.
var ErrUnavailable = errors.New("commerce api unavailable")

// errCallerGone marks calls abandoned by the caller's own context. They say
// nothing about the API's health and do not count against the breaker.
var errCallerGone = errors.New("request abandoned by caller")

type BreakerSettings struct {
	MaxFailures uint32
	Cooldown    time.Duration
}

// Client talks to the remote commerce API. The zero token means anonymous
// calls; WithToken derives a client that authenticates as a user while
// sharing the transport and the circuit breaker.
type Client struct {
	baseURL        string
	httpClient     *http.Client
	timeout        time.Duration
	breaker        *gobreaker.CircuitBreaker[*response]
	token          string
	onUnauthorized func()
	logger         *zap.Logger
}

type Option func(*clientOptions)

type clientOptions struct {
	httpClient *http.Client
	timeout    time.Duration
	breaker    BreakerSettings
	logger     *zap.Logger
}

func WithHTTPClient(h *http.Client) Option {
	return func(o *clientOptions) { o.httpClient = h }
}

func WithTimeout(d time.Duration) Option {
	return func(o *clientOptions) {
		if d > 0 {
			o.timeout = d
		}
	}
}

func WithBreaker(s BreakerSettings) Option {
	return func(o *clientOptions) { o.breaker = s }
}

func WithLogger(l *zap.Logger) Option {
	return func(o *clientOptions) { o.logger = l }
}

func New(baseURL string, opts ...Option) *Client {
	o := clientOptions{
		timeout: defaultTimeout,
		breaker: BreakerSettings{MaxFailures: defaultMaxFailures, Cooldown: defaultCooldown},
	}
	for _, opt := range opts {
		opt(&o)
	}
	if o.httpClient == nil {
		o.httpClient = &http.Client{Transport: otelhttp.NewTransport(http.DefaultTransport)}
	}
	if o.breaker.MaxFailures == 0 {
		o.breaker.MaxFailures = defaultMaxFailures
	}
	logger := logging.Component(o.logger, "apiclient")

	maxFailures := o.breaker.MaxFailures
	breaker := gobreaker.NewCircuitBreaker[*response](gobreaker.Settings{
		Name:        "commerce-api",
		MaxRequests: 1,
		Timeout:     o.breaker.Cooldown,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= maxFailures
		},
		// A per-call timeout with the caller still waiting is a failure;
		// the caller hanging up is not.
		IsSuccessful: func(err error) bool {
			return err == nil || errors.Is(err, errCallerGone)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warn("circuit breaker state changed",
				zap.String("breaker", name),
				zap.String("from", from.String()),
				zap.String("to", to.String()))
		},
	})

	return &Client{
		baseURL:    baseURL,
		httpClient: o.httpClient,
		timeout:    o.timeout,
		breaker:    breaker,
		logger:     logger,
	}
}

// WithToken returns a copy of the client that sends the bearer token.
func (c *Client) WithToken(token string) *Client {
	clone := *c
	clone.token = token
	return &clone
}

// OnUnauthorized returns a copy of the client that calls fn whenever the
// API answers 401, so the caller can drop the stale token.
func (c *Client) OnUnauthorized(fn func()) *Client {
	clone := *c
	clone.onUnauthorized = fn
	return &clone
}

func (c *Client) Token() string {
	return c.token
}

type response struct {
	status int
	body   []byte
}

type request struct {
	method  string
	path    string
	query   url.Values
	body    any
	headers map[string]string
}

func (c *Client) get(ctx context.Context, path string, query url.Values, out any) error {
	return c.do(ctx, request{method: http.MethodGet, path: path, query: query}, out)
}

func (c *Client) post(ctx context.Context, path string, body, out any) error {
	return c.do(ctx, request{method: http.MethodPost, path: path, body: body}, out)
}

func (c *Client) put(ctx context.Context, path string, body, out any) error {
	return c.do(ctx, request{method: http.MethodPut, path: path, body: body}, out)
}

func (c *Client) delete(ctx context.Context, path string, out any) error {
	return c.do(ctx, request{method: http.MethodDelete, path: path}, out)
}

func (c *Client) do(parent context.Context, r request, out any) error {
	ctx, cancel := context.WithTimeout(parent, c.timeout)
	defer cancel()

	var payload []byte
	if r.body != nil {
		var err error
		payload, err = json.Marshal(r.body)
		if err != nil {
			return fmt.Errorf("marshal %s %s body: %w", r.method, r.path, err)
		}
	}

	target := c.baseURL + r.path
	if len(r.query) > 0 {
		target += "?" + r.query.Encode()
	}

	res, err := c.breaker.Execute(func() (*response, error) {
		req, err := http.NewRequestWithContext(ctx, r.method, target, bytes.NewReader(payload))
		if err != nil {
			return nil, err
		}
		req.Header.Set("Accept", "application/json")
		if payload != nil {
			req.Header.Set("Content-Type", "application/json")
		}
		if c.token != "" {
			req.Header.Set("Authorization", "Bearer "+c.token)
		}
		for k, v := range r.headers {
			req.Header.Set(k, v)
		}

		httpRes, err := c.httpClient.Do(req)
		if err != nil {
			return nil, transportError(parent, err)
		}
		defer httpRes.Body.Close()

		body, err := io.ReadAll(httpRes.Body)
		if err != nil {
			return nil, transportError(parent, err)
		}

		res := &response{status: httpRes.StatusCode, body: body}
		if res.status >= http.StatusInternalServerError {
			// 5xx counts against the breaker, 4xx does not.
			return res, decodeAPIError(res)
		}
		return res, nil
	})
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return fmt.Errorf("%s %s: %w", r.method, r.path, ErrUnavailable)
	}
	if err != nil {
		var apiErr *APIError
		if errors.As(err, &apiErr) {
			c.logger.Warn("api server error",
				zap.String("method", r.method),
				zap.String("path", r.path),
				zap.Int("status", apiErr.Status))
			return apiErr
		}
		return fmt.Errorf("%s %s: %w", r.method, r.path, err)
	}

	if res.status >= http.StatusBadRequest {
		apiErr := decodeAPIError(res)
		if apiErr.Status == http.StatusUnauthorized && c.onUnauthorized != nil {
			c.onUnauthorized()
		}
		return apiErr
	}

	if out == nil || len(bytes.TrimSpace(res.body)) == 0 {
		return nil
	}
	if err := json.Unmarshal(res.body, out); err != nil {
		return fmt.Errorf("decode %s %s response: %w", r.method, r.path, err)
	}
	return nil
}

func transportError(parent context.Context, err error) error {
	if parent.Err() != nil {
		return fmt.Errorf("%w: %w", errCallerGone, err)
	}
	return err
}

// Message is the generic acknowledgement body of mutation endpoints.
type Message struct {
	Message string `json:"message"`
}
