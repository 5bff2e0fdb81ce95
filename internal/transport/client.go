package transport

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"time"

	"mindwell/internal/credentials"
)

var (
	ErrRetriesExhausted = errors.New("retries exhausted")
	ErrMissingSigner    = errors.New("no request signer configured for signed endpoint")
)

// Result is the uniform outcome of an adapter call. HTTP-level failures
// (4xx, exhausted 5xx) come back as OK=false with the status and body;
// only transport failures surface as Go errors.
type Result struct {
	OK     bool
	Status int
	Data   json.RawMessage
}

// Decode unmarshals the result body into v
func (r Result) Decode(v interface{}) error {
	if len(r.Data) == 0 {
		return nil
	}
	if err := json.Unmarshal(r.Data, v); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}

// RequestSigner signs an outgoing request (SigV4 hosts)
type RequestSigner interface {
	Sign(ctx context.Context, req *http.Request, payloadHash string) error
}

// Options configures adapter behavior
type Options struct {
	Timeout   time.Duration
	Attempts  int
	BaseDelay time.Duration
	Signer    RequestSigner
	Throttle  *Throttle
}

// Client issues action-keyed calls against the backend hosts with bounded
// retry. Transport failures and 5xx responses are retried with a linearly
// increasing delay; any other error response is terminal.
type Client struct {
	http      *http.Client
	attempts  int
	baseDelay time.Duration
	signer    RequestSigner
	throttle  *Throttle
}

// New creates a client with the given options
func New(opts Options) *Client {
	if opts.Timeout <= 0 {
		opts.Timeout = 15 * time.Second
	}
	if opts.Attempts <= 0 {
		opts.Attempts = 3
	}
	if opts.BaseDelay <= 0 {
		opts.BaseDelay = 500 * time.Millisecond
	}
	return &Client{
		http:      &http.Client{Timeout: opts.Timeout},
		attempts:  opts.Attempts,
		baseDelay: opts.BaseDelay,
		signer:    opts.Signer,
		throttle:  opts.Throttle,
	}
}

// Do issues one call to an endpoint. The request body is marshaled to a
// flat JSON object; nil means an empty body (GET endpoints).
func (c *Client) Do(ctx context.Context, ep Endpoint, cred *credentials.Credential, body interface{}) (Result, error) {
	var payload []byte
	if body != nil {
		var err error
		payload, err = json.Marshal(body)
		if err != nil {
			return Result{}, fmt.Errorf("failed to encode request body: %w", err)
		}
	}

	var token string
	switch ep.Auth {
	case AuthBearer:
		var err error
		token, err = cred.Token()
		if err != nil {
			return Result{}, err
		}
	case AuthSigV4:
		if c.signer == nil {
			return Result{}, ErrMissingSigner
		}
	}

	if c.throttle != nil {
		if err := c.throttle.Wait(ctx, ep.Host); err != nil {
			return Result{}, err
		}
	}

	var lastErr error
	for attempt := 1; attempt <= c.attempts; attempt++ {
		if attempt > 1 {
			// linear backoff: baseDelay, 2*baseDelay, ...
			select {
			case <-time.After(c.baseDelay * time.Duration(attempt-1)):
			case <-ctx.Done():
				return Result{}, ctx.Err()
			}
		}

		res, retryable, err := c.send(ctx, ep, token, payload)
		if err == nil && !retryable {
			return res, nil
		}
		if err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				return Result{}, err
			}
			lastErr = err
			log.Printf("%s %s: attempt %d/%d failed: %v", ep.Method, ep.Action, attempt, c.attempts, err)
			continue
		}
		// retryable HTTP failure (5xx)
		if attempt == c.attempts {
			return res, nil
		}
		log.Printf("%s %s: attempt %d/%d got status %d", ep.Method, ep.Action, attempt, c.attempts, res.Status)
	}

	return Result{}, fmt.Errorf("%s %s: %w: %v", ep.Method, ep.Action, ErrRetriesExhausted, lastErr)
}

// send issues a single request. retryable is true for 5xx responses.
func (c *Client) send(ctx context.Context, ep Endpoint, token string, payload []byte) (Result, bool, error) {
	var reader io.Reader
	if len(payload) > 0 {
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, ep.Method, ep.URL(), reader)
	if err != nil {
		return Result{}, false, fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	switch ep.Auth {
	case AuthBearer:
		req.Header.Set("Authorization", "Bearer "+token)
	case AuthSigV4:
		if err := c.signer.Sign(ctx, req, payloadHash(payload)); err != nil {
			return Result{}, false, fmt.Errorf("failed to sign request: %w", err)
		}
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return Result{}, true, err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return Result{}, true, fmt.Errorf("failed to read response: %w", err)
	}

	res := Result{
		OK:     resp.StatusCode >= 200 && resp.StatusCode < 300,
		Status: resp.StatusCode,
		Data:   data,
	}
	return res, resp.StatusCode >= 500, nil
}
