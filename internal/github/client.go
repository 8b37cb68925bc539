// internal/github/client.go
package github

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	"github.com/google/go-github/v62/github"
	"golang.org/x/oauth2"
	"golang.org/x/time/rate"

	custom_errors "challenge-crawler/internal/errors"
	"challenge-crawler/internal/model"
)

// Client is a wrapper around the go-github client.
type Client struct {
	gh     *github.Client
	rt     *retryTransport
	logger *slog.Logger
}

// Option customizes a Client.
type Option func(*Client) error

// WithBaseURL points the client at a GitHub Enterprise or test server.
func WithBaseURL(baseURL string) Option {
	return func(c *Client) error {
		u, err := url.Parse(baseURL)
		if err != nil {
			return fmt.Errorf("invalid GitHub API URL %q: %w", baseURL, err)
		}
		if !strings.HasSuffix(u.Path, "/") {
			u.Path += "/"
		}
		c.gh.BaseURL = u
		return nil
	}
}

// WithRateLimit puts a token bucket in front of every API request.
// A non-positive rps leaves requests unthrottled.
func WithRateLimit(rps float64, burst int) Option {
	return func(c *Client) error {
		if rps <= 0 {
			c.rt.limiter = nil
			return nil
		}
		if burst < 1 {
			burst = 1
		}
		c.rt.limiter = rate.NewLimiter(rate.Limit(rps), burst)
		return nil
	}
}

// NewClient creates and configures a new Client instance.
// The provided token is used to create an authenticated http.Client.
func NewClient(token string, logger *slog.Logger, opts ...Option) (*Client, error) {
	rt := newRetryTransport(http.DefaultTransport, logger)

	httpClient := &http.Client{Transport: rt}
	if token != "" {
		ctx := context.WithValue(context.Background(), oauth2.HTTPClient, httpClient)
		ts := oauth2.StaticTokenSource(
			&oauth2.Token{AccessToken: token},
		)
		httpClient = oauth2.NewClient(ctx, ts)
	}

	c := &Client{
		gh:     github.NewClient(httpClient),
		rt:     rt,
		logger: logger,
	}
	for _, opt := range opts {
		if err := opt(c); err != nil {
			return nil, err
		}
	}
	return c, nil
}

// GetRepository fetches repository details and translates them to our internal model.
func (c *Client) GetRepository(ctx context.Context, owner, name string) (*model.RepositoryMetadata, error) {
	repo, _, err := c.gh.Repositories.Get(ctx, owner, name)
	if err != nil {
		return nil, err
	}
	return toRepositoryMetadata(repo), nil
}

// ListTree lists the direct children of a tree. sha may also be a branch
// name. The returned string is the resolved SHA of the listed tree.
func (c *Client) ListTree(ctx context.Context, owner, name, sha string) (string, []model.TreeNode, error) {
	c.logger.Debug("Listing tree", "owner", owner, "repo", name, "sha", sha)

	tree, _, err := c.gh.Git.GetTree(ctx, owner, name, sha, false)
	if err != nil {
		return "", nil, err
	}
	if tree.GetTruncated() {
		c.logger.Warn("Tree listing truncated by the API", "owner", owner, "repo", name, "sha", sha)
	}

	nodes := make([]model.TreeNode, 0, len(tree.Entries))
	for _, e := range tree.Entries {
		nodes = append(nodes, model.TreeNode{
			Path: e.GetPath(),
			Type: e.GetType(),
			SHA:  e.GetSHA(),
			URL:  e.GetURL(),
		})
	}

	resolved := tree.GetSHA()
	if resolved == "" {
		resolved = sha
	}
	return resolved, nodes, nil
}

// GetBlobContent performs a single fetch of a blob URL and decodes it.
// A response without a content field yields ErrRateLimited.
func (c *Client) GetBlobContent(ctx context.Context, blobURL string) (string, error) {
	req, err := c.gh.NewRequest(http.MethodGet, blobURL, nil)
	if err != nil {
		return "", err
	}

	var blob github.Blob
	if _, err := c.gh.Do(ctx, req, &blob); err != nil {
		return "", err
	}
	if blob.Content == nil {
		return "", custom_errors.ErrRateLimited
	}

	return decodeBlob(blob.GetContent(), blob.GetEncoding())
}

var errUndecodable = errors.New("undecodable blob content")

func decodeBlob(content, encoding string) (string, error) {
	switch encoding {
	case "utf-8", "utf8":
		return content, nil
	case "", "base64":
		raw, err := base64.StdEncoding.DecodeString(strings.ReplaceAll(content, "\n", ""))
		if err != nil {
			return "", fmt.Errorf("%w: %v", errUndecodable, err)
		}
		return string(raw), nil
	default:
		return "", fmt.Errorf("%w: unsupported encoding %q", errUndecodable, encoding)
	}
}

// toRepositoryMetadata translates a github.Repository object to our internal model.
func toRepositoryMetadata(r *github.Repository) *model.RepositoryMetadata {
	license := r.GetLicense().GetName()
	if license == "" {
		license = "Other"
	}
	return &model.RepositoryMetadata{
		Owner:         r.GetOwner().GetLogin(),
		Name:          r.GetName(),
		Language:      r.GetLanguage(),
		HTMLURL:       r.GetHTMLURL(),
		Stars:         r.GetStargazersCount(),
		LicenseName:   license,
		OwnerAvatar:   r.GetOwner().GetAvatarURL(),
		DefaultBranch: r.GetDefaultBranch(),
	}
}
