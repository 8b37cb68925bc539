// internal/errors/errors.go
package errors

import (
	"errors"
	"fmt"
)

var (
	// ErrRateLimited is returned by a single content fetch attempt when the
	// response carries no content. It is the retryable signal for the fetcher.
	ErrRateLimited = errors.New("no content found, rate limit exceeded")

	// ErrFetchExhausted matches any *FetchExhaustedError via errors.Is.
	ErrFetchExhausted = errors.New("content fetch attempts exhausted")
)

// ErrInvalidRepoFormat is returned when a repository string in the config is not in 'owner/name' format.
type ErrInvalidRepoFormat struct {
	Repo string
}

func (e *ErrInvalidRepoFormat) Error() string {
	return fmt.Sprintf("invalid repository format: %q, expected 'owner/name'", e.Repo)
}

// FetchExhaustedError reports that a single file could not be fetched within
// the configured number of attempts.
type FetchExhaustedError struct {
	URL      string
	Attempts int
	Err      error
}

func (e *FetchExhaustedError) Error() string {
	return fmt.Sprintf("fetching %s failed after %d attempts: %v", e.URL, e.Attempts, e.Err)
}

func (e *FetchExhaustedError) Unwrap() error { return e.Err }

func (e *FetchExhaustedError) Is(target error) bool { return target == ErrFetchExhausted }

// MetadataUnavailableError is fatal to the scan of one repository only.
type MetadataUnavailableError struct {
	Repo string
	Err  error
}

func (e *MetadataUnavailableError) Error() string {
	return fmt.Sprintf("metadata for repository %q unavailable: %v", e.Repo, e.Err)
}

func (e *MetadataUnavailableError) Unwrap() error { return e.Err }
