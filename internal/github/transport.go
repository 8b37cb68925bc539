// internal/github/transport.go
package github

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"golang.org/x/time/rate"
)

const (
	// Total attempts per API request, including the first one.
	maxRetries = 3

	retryBaseDelay   = 500 * time.Millisecond
	maxRateLimitWait = time.Minute
)

// retryTransport retries transient GitHub failures below go-github, so every
// API call gets the same policy: 5xx responses and network errors back off
// linearly, rate-limit responses wait for the advertised reset.
type retryTransport struct {
	next      http.RoundTripper
	limiter   *rate.Limiter
	logger    *slog.Logger
	attempts  int
	baseDelay time.Duration
	maxWait   time.Duration
}

func newRetryTransport(next http.RoundTripper, logger *slog.Logger) *retryTransport {
	return &retryTransport{
		next:      next,
		logger:    logger,
		attempts:  maxRetries,
		baseDelay: retryBaseDelay,
		maxWait:   maxRateLimitWait,
	}
}

func (t *retryTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	ctx := req.Context()
	replayable := req.Body == nil || req.Body == http.NoBody

	for attempt := 1; ; attempt++ {
		if t.limiter != nil {
			if err := t.limiter.Wait(ctx); err != nil {
				return nil, err
			}
		}

		resp, err := t.next.RoundTrip(req)
		if attempt >= t.attempts || !replayable {
			return resp, err
		}

		wait, retry := t.retryDelay(ctx, attempt, resp, err)
		if !retry {
			return resp, err
		}
		if resp != nil {
			_, _ = io.Copy(io.Discard, resp.Body)
			resp.Body.Close()
		}

		t.logger.Warn("Retrying GitHub request",
			"method", req.Method,
			"url", req.URL.String(),
			"attempt", attempt,
			"max_attempts", t.attempts,
			"status", statusOf(resp),
			"wait", wait,
			"error", err,
		)

		timer := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil, ctx.Err()
		case <-timer.C:
		}
	}
}

// retryDelay decides whether a response is worth another attempt and how long
// to wait before it.
func (t *retryTransport) retryDelay(ctx context.Context, attempt int, resp *http.Response, err error) (time.Duration, bool) {
	if err != nil {
		if ctx.Err() != nil {
			return 0, false
		}
		return t.baseDelay * time.Duration(attempt), true
	}

	switch {
	case isRateLimited(resp):
		return t.rateLimitWait(resp), true
	case resp.StatusCode >= http.StatusInternalServerError:
		return t.baseDelay * time.Duration(attempt), true
	default:
		return 0, false
	}
}

func isRateLimited(resp *http.Response) bool {
	switch resp.StatusCode {
	case http.StatusTooManyRequests:
		return true
	case http.StatusForbidden:
		return resp.Header.Get("Retry-After") != "" || resp.Header.Get("X-RateLimit-Remaining") == "0"
	}
	return false
}

func (t *retryTransport) rateLimitWait(resp *http.Response) time.Duration {
	var wait time.Duration
	if s := resp.Header.Get("Retry-After"); s != "" {
		if secs, err := strconv.Atoi(s); err == nil {
			wait = time.Duration(secs) * time.Second
		}
	} else if s := resp.Header.Get("X-RateLimit-Reset"); s != "" {
		if epoch, err := strconv.ParseInt(s, 10, 64); err == nil {
			wait = time.Until(time.Unix(epoch, 0)) + time.Second
		}
	}

	if wait < t.baseDelay {
		wait = t.baseDelay
	}
	if wait > t.maxWait {
		wait = t.maxWait
	}
	return wait
}

func statusOf(resp *http.Response) int {
	if resp == nil {
		return 0
	}
	return resp.StatusCode
}
