package analyzer

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/go-github/v62/github"
	"golang.org/x/oauth2"
)

const (
	probeTimeout = 10 * time.Second

	// Below this many remaining requests a warning is logged so the
	// operator knows why a later run may start failing.
	lowRateThreshold = 100
)

// Client wraps the authenticated GitHub API surface used by the pipeline:
// a connectivity probe and the direct-data manifest request.
type Client struct {
	gh *github.Client
}

// NewClient builds a GitHub client authenticated with a personal access
// token. The token needs manage_billing:copilot or read:enterprise scope.
func NewClient(token string) *Client {
	ts := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: token})
	tc := oauth2.NewClient(context.Background(), ts)
	return &Client{gh: github.NewClient(tc)}
}

// SetBaseURL points the client at an alternate API root, keeping the
// trailing slash go-github requires. Used by tests.
func (c *Client) SetBaseURL(raw string) error {
	if !strings.HasSuffix(raw, "/") {
		raw += "/"
	}
	u, err := url.Parse(raw)
	if err != nil {
		return err
	}
	c.gh.BaseURL = u
	return nil
}

// Probe confirms the token works before the manifest request is spent on
// it, and reports the remaining core rate limit.
func (c *Client) Probe(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, probeTimeout)
	defer cancel()

	limits, resp, err := c.gh.RateLimit.Get(ctx)
	if err != nil {
		if resp != nil {
			return fmt.Errorf("GitHub API connection test failed (status %d): %w", resp.StatusCode, err)
		}
		return fmt.Errorf("GitHub API connection test failed: %w", err)
	}

	remaining := -1
	if limits.Core != nil {
		remaining = limits.Core.Remaining
	}
	slog.Info("GitHub API connection successful", "rate_limit_remaining", remaining)
	return nil
}

// FetchManifest requests the usage-export manifest for the window: one
// entry per date, each carrying the pre-signed blob URIs for that day.
// One attempt; any failure is fatal to the run.
func (c *Client) FetchManifest(ctx context.Context, enterprise string, w Window) ([]ManifestEntry, error) {
	u := fmt.Sprintf("enterprises/%s/copilot/direct-data?since=%s&until=%s",
		enterprise, w.SinceString(), w.UntilString())
	slog.Debug("fetching usage manifest", "url", u)

	req, err := c.gh.NewRequest(http.MethodGet, u, nil)
	if err != nil {
		return nil, fmt.Errorf("build manifest request: %w", err)
	}

	var entries []ManifestEntry
	resp, err := c.gh.Do(ctx, req, &entries)
	if err != nil {
		if resp != nil {
			return nil, fmt.Errorf("fetch usage manifest (status %d): %w", resp.StatusCode, err)
		}
		return nil, fmt.Errorf("fetch usage manifest: %w", err)
	}
	logRateRemaining(resp)

	slog.Info("usage manifest received", "entries", len(entries))
	return entries, nil
}

func logRateRemaining(resp *github.Response) {
	if resp != nil && resp.Rate.Remaining > 0 && resp.Rate.Remaining < lowRateThreshold {
		slog.Warn("GitHub API rate limit is low", "remaining", resp.Rate.Remaining)
	}
}
