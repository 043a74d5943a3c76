package resilience

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/sony/gobreaker/v2"

	"github.com/mappatterns/geoprovider/internal/provider"
)

// maxBodyBytes bounds how much of a provider response is read into memory.
const maxBodyBytes = 8 << 20

// ErrCircuitOpen is returned when the circuit breaker is open.
var ErrCircuitOpen = errors.New("circuit breaker is open")

// ClientConfig holds configuration for the resilient HTTP client.
type ClientConfig struct {
	// Name identifies this client for circuit breaker naming and health reporting.
	// Adapters use their provider id.
	Name string

	// Timeout is the request timeout for individual HTTP calls.
	// Default: 10 seconds
	Timeout time.Duration

	// MaxRetries is the maximum number of retry attempts after the first call.
	// Zero disables retries.
	MaxRetries uint64

	// InitialInterval is the initial retry backoff interval.
	// Default: 100ms
	InitialInterval time.Duration

	// MaxInterval is the maximum retry backoff interval.
	// Default: 2 seconds
	MaxInterval time.Duration

	// CircuitBreaker is the circuit breaker configuration.
	// If nil, uses DefaultCircuitBreakerConfig.
	CircuitBreaker *CircuitBreakerConfig

	// Registry receives success and failure records. Optional.
	Registry *Registry

	// Transport overrides the HTTP round tripper. Optional.
	Transport http.RoundTripper
}

// DefaultClientConfig returns the defaults used by provider adapters.
func DefaultClientConfig(name string) ClientConfig {
	cbConfig := DefaultCircuitBreakerConfig(name)
	return ClientConfig{
		Name:            name,
		Timeout:         10 * time.Second,
		MaxRetries:      2,
		InitialInterval: 100 * time.Millisecond,
		MaxInterval:     2 * time.Second,
		CircuitBreaker:  &cbConfig,
	}
}

// Client is a resilient HTTP client with circuit breaker and retry logic.
type Client struct {
	httpClient     *http.Client
	circuitBreaker *gobreaker.CircuitBreaker[*http.Response]
	config         ClientConfig
}

// NewClient creates a new resilient HTTP client and registers it with
// cfg.Registry when one is set.
func NewClient(cfg ClientConfig) *Client {
	if cfg.Timeout == 0 {
		cfg.Timeout = 10 * time.Second
	}
	if cfg.InitialInterval == 0 {
		cfg.InitialInterval = 100 * time.Millisecond
	}
	if cfg.MaxInterval == 0 {
		cfg.MaxInterval = 2 * time.Second
	}

	cbConfig := DefaultCircuitBreakerConfig(cfg.Name)
	if cfg.CircuitBreaker != nil {
		cbConfig = *cfg.CircuitBreaker
	}

	c := &Client{
		httpClient: &http.Client{
			Timeout:   cfg.Timeout,
			Transport: cfg.Transport,
		},
		circuitBreaker: NewCircuitBreaker[*http.Response](cbConfig), //nolint:bodyclose // type param, not response
		config:         cfg,
	}

	if cfg.Registry != nil {
		cfg.Registry.Register(cfg.Name, c)
	}
	return c
}

// Name returns the client name.
func (c *Client) Name() string {
	return c.config.Name
}

// Do executes an HTTP request with circuit breaker protection and retry logic.
// The request is retried on transient failures (5xx, network errors) with exponential backoff.
// Returns immediately with ErrCircuitOpen if the circuit breaker is open.
func (c *Client) Do(req *http.Request) (*http.Response, error) {
	return c.DoWithContext(req.Context(), req)
}

// DoWithContext executes an HTTP request with the given context.
func (c *Client) DoWithContext(ctx context.Context, req *http.Request) (*http.Response, error) {
	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = c.config.InitialInterval
	bo.MaxInterval = c.config.MaxInterval
	bo.MaxElapsedTime = 0 // retries are bounded by WithMaxRetries

	policy := backoff.WithContext(backoff.WithMaxRetries(bo, c.config.MaxRetries), ctx)

	var lastResp *http.Response

	operation := func() error {
		// 5xx is reported as an error so it counts against the breaker.
		resp, err := c.circuitBreaker.Execute(func() (*http.Response, error) { //nolint:bodyclose // caller is responsible for closing
			attempt := req.Clone(ctx)
			if req.GetBody != nil {
				body, err := req.GetBody()
				if err != nil {
					return nil, err
				}
				attempt.Body = body
			}
			r, err := c.httpClient.Do(attempt)
			if err != nil {
				return nil, err
			}
			if r.StatusCode >= 500 {
				return r, &ServerError{StatusCode: r.StatusCode}
			}
			return r, nil
		})

		if err != nil {
			if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
				return backoff.Permanent(ErrCircuitOpen)
			}
			if ctx.Err() != nil {
				return backoff.Permanent(ctx.Err())
			}
			if resp != nil {
				if lastResp != nil {
					_ = lastResp.Body.Close()
				}
				lastResp = resp
			}
			return err
		}

		if lastResp != nil {
			_ = lastResp.Body.Close()
		}
		lastResp = resp
		return nil
	}

	if err := backoff.Retry(operation, policy); err != nil {
		if ctx.Err() != nil {
			if lastResp != nil {
				_ = lastResp.Body.Close()
			}
			return nil, ctx.Err()
		}
		// A 5xx that exhausted its retries is handed back as a response.
		if lastResp != nil {
			return lastResp, nil
		}
		return nil, err
	}

	return lastResp, nil
}

// Call describes a single request against a provider endpoint. A call with a
// nil Body is a GET; otherwise Body is POSTed as JSON.
type Call struct {
	ProviderID string
	Operation  string
	URL        string
	Header     http.Header
	Body       []byte
}

// GetJSON performs call and decodes a 2xx JSON body into out.
//
// Failures are returned as *provider.Error. When ctx is done the context
// error is returned unwrapped.
func (c *Client) GetJSON(ctx context.Context, call Call, out any) error {
	body, err := c.GetBytes(ctx, call)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(body, out); err != nil {
		perr := provider.InvalidResponse(call.ProviderID, call.Operation, err)
		c.recordFailure(perr)
		return perr
	}
	return nil
}

// PostJSON marshals in as the request body of call and decodes the 2xx JSON
// answer into out.
func (c *Client) PostJSON(ctx context.Context, call Call, in, out any) error {
	raw, err := json.Marshal(in)
	if err != nil {
		return fmt.Errorf("marshaling %s %s request: %w", call.ProviderID, call.Operation, err)
	}
	call.Body = raw
	return c.GetJSON(ctx, call, out)
}

// GetBytes performs call and returns the raw 2xx body.
func (c *Client) GetBytes(ctx context.Context, call Call) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	method, body := http.MethodGet, io.Reader(http.NoBody)
	if call.Body != nil {
		method, body = http.MethodPost, bytes.NewReader(call.Body)
	}
	req, err := http.NewRequestWithContext(ctx, method, call.URL, body)
	if err != nil {
		return nil, &provider.Error{
			Message:    fmt.Sprintf("%s %s: build request", call.ProviderID, call.Operation),
			ProviderID: call.ProviderID,
			Code:       provider.CodeNetworkError,
			Err:        err,
		}
	}
	for k, values := range call.Header {
		for _, v := range values {
			req.Header.Add(k, v)
		}
	}
	if req.Header.Get("Accept") == "" {
		req.Header.Set("Accept", "application/json")
	}
	if call.Body != nil && req.Header.Get("Content-Type") == "" {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		perr := c.transportError(call, err)
		c.recordFailure(perr)
		return nil, perr
	}
	defer resp.Body.Close()

	payload, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		perr := c.transportError(call, err)
		c.recordFailure(perr)
		return nil, perr
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		perr := provider.StatusError(call.ProviderID, call.Operation, resp.StatusCode)
		c.recordFailure(perr)
		return nil, perr
	}

	c.recordSuccess()
	return payload, nil
}

func (c *Client) transportError(call Call, err error) *provider.Error {
	if errors.Is(err, ErrCircuitOpen) {
		return &provider.Error{
			Message:    fmt.Sprintf("%s %s: circuit breaker is open", call.ProviderID, call.Operation),
			ProviderID: call.ProviderID,
			Code:       provider.CodeCircuitOpen,
			Err:        err,
		}
	}
	return &provider.Error{
		Message:    fmt.Sprintf("%s %s: request failed", call.ProviderID, call.Operation),
		ProviderID: call.ProviderID,
		Code:       provider.CodeNetworkError,
		Err:        err,
	}
}

func (c *Client) recordSuccess() {
	if c.config.Registry != nil {
		c.config.Registry.RecordSuccess(c.config.Name)
	}
}

func (c *Client) recordFailure(err error) {
	if c.config.Registry != nil {
		c.config.Registry.RecordFailure(c.config.Name, err)
	}
}

// ServerError represents an HTTP 5xx server error.
type ServerError struct {
	StatusCode int
}

func (e *ServerError) Error() string {
	return "server error: " + http.StatusText(e.StatusCode)
}

// CircuitBreakerState returns the current state of the circuit breaker.
func (c *Client) CircuitBreakerState() gobreaker.State {
	return c.circuitBreaker.State()
}

// CircuitBreakerCounts returns the current counts of the circuit breaker.
func (c *Client) CircuitBreakerCounts() gobreaker.Counts {
	return c.circuitBreaker.Counts()
}

// ClientFor returns existing when set, otherwise a default client named name
// with the given timeout, registered with registry.
func ClientFor(existing *Client, name string, timeout time.Duration, registry *Registry) *Client {
	if existing != nil {
		return existing
	}
	cfg := DefaultClientConfig(name)
	if timeout > 0 {
		cfg.Timeout = timeout
	}
	cfg.Registry = registry
	return NewClient(cfg)
}
