package providers

import (
	"context"
	"errors"
	"fmt"
	"math"
	"net/http"
	"time"

	"github.com/sony/gobreaker"
)

// BackoffConfig controls exponential backoff behaviour.
type BackoffConfig struct {
	MaxRetries      int
	InitialInterval time.Duration
	MaxInterval     time.Duration
}

// DefaultBackoff is used by every provider unless overridden.
var DefaultBackoff = BackoffConfig{
	MaxRetries:      3,
	InitialInterval: 500 * time.Millisecond,
	MaxInterval:     5 * time.Second,
}

var (
	errRateLimited   = errors.New("rate limited")
	errServerError   = errors.New("server error")
	errUnexpected    = errors.New("unexpected status code")
	errCircuitOpen   = errors.New("circuit breaker open")
	errNoHTTPClient  = errors.New("http client not configured")
	errInvalidConfig = errors.New("invalid backoff configuration")
)

// resilientClient wraps an http.Client with retries, exponential backoff
// and a per-provider circuit breaker.
type resilientClient struct {
	client  *http.Client
	backoff BackoffConfig
	circuit *gobreaker.CircuitBreaker
}

func newResilientClient(name string, client *http.Client, backoff BackoffConfig) *resilientClient {
	cb := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        name,
		MaxRequests: 5,
		Interval:    1 * time.Minute,
		Timeout:     2 * time.Minute,
	})
	return &resilientClient{client: client, backoff: backoff, circuit: cb}
}

// get issues a GET for rawURL. Rate limiting and 5xx responses are retried;
// an open circuit is returned immediately.
func (rc *resilientClient) get(ctx context.Context, rawURL string) (*http.Response, error) {
	if rc.client == nil {
		return nil, errNoHTTPClient
	}
	if rc.backoff.MaxRetries < 0 || rc.backoff.InitialInterval <= 0 {
		return nil, errInvalidConfig
	}

	var attempt int
	for {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
		if err != nil {
			return nil, err
		}

		result, err := rc.circuit.Execute(func() (interface{}, error) {
			resp, execErr := rc.client.Do(req)
			if execErr != nil {
				return nil, execErr
			}

			switch {
			case resp.StatusCode == http.StatusTooManyRequests:
				resp.Body.Close()
				return nil, errRateLimited
			case resp.StatusCode >= 500:
				resp.Body.Close()
				return nil, errServerError
			case resp.StatusCode < 200 || resp.StatusCode >= 300:
				resp.Body.Close()
				return nil, fmt.Errorf("%w: %d", errUnexpected, resp.StatusCode)
			}
			return resp, nil
		})

		if err == nil {
			resp, ok := result.(*http.Response)
			if !ok {
				return nil, fmt.Errorf("unexpected result type from circuit breaker")
			}
			return resp, nil
		}

		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			return nil, fmt.Errorf("%w: %v", errCircuitOpen, err)
		}
		if errors.Is(err, errUnexpected) || attempt >= rc.backoff.MaxRetries {
			return nil, err
		}

		delay := rc.backoff.InitialInterval * time.Duration(math.Pow(2, float64(attempt)))
		if rc.backoff.MaxInterval > 0 && delay > rc.backoff.MaxInterval {
			delay = rc.backoff.MaxInterval
		}

		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil, ctx.Err()
		case <-timer.C:
		}

		attempt++
	}
}
