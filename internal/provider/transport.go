package provider

import (
	"context"
	"fmt"
	"math"
	"net/http"
	"time"
)

const (
	defaultRetries     = 2
	defaultBaseBackoff = 500 * time.Millisecond
	maxBackoff         = 5 * time.Second
)

// transport posts requests, retrying 429 and 5xx responses with exponential
// backoff until the context ends
type transport struct {
	http        *http.Client
	retries     int
	baseBackoff time.Duration
}

func newTransport() *transport {
	return &transport{
		http:        &http.Client{Transport: http.DefaultTransport},
		retries:     defaultRetries,
		baseBackoff: defaultBaseBackoff,
	}
}

// post returns the response of the last attempt, even when retries were
// exhausted on a retryable status
func (t *transport) post(ctx context.Context, url string, headers map[string]string, body []byte) (*http.Response, error) {
	for attempt := 0; ; attempt++ {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bodyReader(body))
		if err != nil {
			return nil, fmt.Errorf("failed to create request: %w", err)
		}
		for k, v := range headers {
			req.Header.Set(k, v)
		}

		resp, err := t.http.Do(req)
		if err != nil {
			return nil, fmt.Errorf("http request failed: %w", err)
		}
		if !isRetryable(resp.StatusCode) || attempt >= t.retries {
			return resp, nil
		}

		_ = resp.Body.Close()
		if err := sleepWithContext(ctx, t.backoff(attempt)); err != nil {
			return nil, fmt.Errorf("context cancelled during retry backoff: %w", err)
		}
	}
}

func isRetryable(statusCode int) bool {
	return statusCode == http.StatusTooManyRequests || statusCode >= 500
}

func (t *transport) backoff(attempt int) time.Duration {
	d := time.Duration(float64(t.baseBackoff) * math.Pow(2, float64(attempt)))
	if d > maxBackoff {
		d = maxBackoff
	}
	return d
}

func sleepWithContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
