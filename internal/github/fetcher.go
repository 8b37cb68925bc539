// internal/github/fetcher.go
package github

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/google/go-github/v62/github"

	custom_errors "challenge-crawler/internal/errors"
)

const (
	DefaultFetchAttempts   = 60
	DefaultFetchRetryDelay = time.Second
)

type blobGetter interface {
	GetBlobContent(ctx context.Context, blobURL string) (string, error)
}

// Fetcher retrieves blob contents with a fixed-delay retry policy: a missing
// content field is treated as rate limiting and retried.
type Fetcher struct {
	blobs       blobGetter
	logger      *slog.Logger
	maxAttempts int
	delay       time.Duration
}

// NewFetcher creates a Fetcher. Non-positive values fall back to 60 attempts
// and a one second delay.
func NewFetcher(c *Client, logger *slog.Logger, maxAttempts int, delay time.Duration) *Fetcher {
	if maxAttempts <= 0 {
		maxAttempts = DefaultFetchAttempts
	}
	if delay <= 0 {
		delay = DefaultFetchRetryDelay
	}
	return &Fetcher{
		blobs:       c,
		logger:      logger,
		maxAttempts: maxAttempts,
		delay:       delay,
	}
}

// Fetch returns the decoded content behind blobURL. When every attempt fails
// the error matches custom_errors.ErrFetchExhausted.
func (f *Fetcher) Fetch(ctx context.Context, blobURL string) (string, error) {
	var (
		content   string
		attempts  int
		permanent bool
	)

	op := func() error {
		attempts++
		c, err := f.blobs.GetBlobContent(ctx, blobURL)
		if err == nil {
			content = c
			return nil
		}
		if !isRetryable(err) {
			permanent = true
			return backoff.Permanent(err)
		}
		return err
	}

	policy := backoff.WithContext(
		backoff.WithMaxRetries(backoff.NewConstantBackOff(f.delay), uint64(f.maxAttempts-1)),
		ctx,
	)
	notify := func(err error, next time.Duration) {
		f.logger.Warn("Content fetch failed, retrying",
			"url", blobURL,
			"attempt", attempts,
			"max_attempts", f.maxAttempts,
			"retry_in", next,
			"error", err,
		)
	}

	err := backoff.RetryNotify(op, policy, notify)
	switch {
	case err == nil:
		return content, nil
	case ctx.Err() != nil:
		return "", ctx.Err()
	case permanent:
		return "", fmt.Errorf("fetching %s: %w", blobURL, err)
	default:
		return "", &custom_errors.FetchExhaustedError{URL: blobURL, Attempts: attempts, Err: err}
	}
}

func isRetryable(err error) bool {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}
	if errors.Is(err, errUndecodable) {
		return false
	}
	if errors.Is(err, custom_errors.ErrRateLimited) {
		return true
	}

	var rateErr *github.RateLimitError
	var abuseErr *github.AbuseRateLimitError
	if errors.As(err, &rateErr) || errors.As(err, &abuseErr) {
		return true
	}

	var respErr *github.ErrorResponse
	if errors.As(err, &respErr) && respErr.Response != nil {
		code := respErr.Response.StatusCode
		return code == http.StatusTooManyRequests || code >= http.StatusInternalServerError
	}

	// Transport-level failures.
	return true
}
