// Package orgstats counts commit activity across the repositories of a
// GitHub organization.
package orgstats

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"strings"
	"time"

	"github.com/google/go-github/v62/github"
	"golang.org/x/oauth2"
)

// RepoCommits pairs a repository with its commit count for the window.
type RepoCommits struct {
	Repo    string
	Commits int
}

// Collector counts commits per repository since a cutoff date.
type Collector struct {
	org    string
	since  time.Time
	client *github.Client
}

// NewCollector creates a collector with an authenticated GitHub client.
func NewCollector(org, token string, since time.Time) *Collector {
	ts := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: token})
	tc := oauth2.NewClient(context.Background(), ts)
	return &Collector{org: org, since: since, client: github.NewClient(tc)}
}

// SetBaseURL points the collector at an alternate API root. Used by tests.
func (c *Collector) SetBaseURL(raw string) error {
	if !strings.HasSuffix(raw, "/") {
		raw += "/"
	}
	u, err := url.Parse(raw)
	if err != nil {
		return err
	}
	c.client.BaseURL = u
	return nil
}

// checkRateLimit sleeps when the remaining quota gets low.
func (c *Collector) checkRateLimit(resp *github.Response) {
	if resp.Rate.Remaining > 0 && resp.Rate.Remaining < 100 {
		time.Sleep(5 * time.Second)
	}
}

// CommitCounts lists the organization's repositories and counts commits
// since the cutoff, in repository listing order. A failure listing repos
// is fatal; a failure counting one repository is logged and that
// repository is skipped.
func (c *Collector) CommitCounts(ctx context.Context) ([]RepoCommits, error) {
	repos, err := c.listRepos(ctx)
	if err != nil {
		return nil, err
	}

	counts := make([]RepoCommits, 0, len(repos))
	for _, repo := range repos {
		n, err := c.countCommits(ctx, repo)
		if err != nil {
			slog.Error("skipping repository", "repo", repo, "err", err)
			continue
		}
		counts = append(counts, RepoCommits{Repo: repo, Commits: n})
	}
	return counts, nil
}

func (c *Collector) listRepos(ctx context.Context) ([]string, error) {
	opts := &github.RepositoryListByOrgOptions{ListOptions: github.ListOptions{PerPage: 100}}
	var names []string
	for {
		repos, resp, err := c.client.Repositories.ListByOrg(ctx, c.org, opts)
		if err != nil {
			return nil, fmt.Errorf("list repositories for %s: %w", c.org, err)
		}
		for _, r := range repos {
			names = append(names, r.GetName())
		}
		if resp.NextPage == 0 {
			break
		}
		opts.Page = resp.NextPage
		c.checkRateLimit(resp)
	}
	return names, nil
}

func (c *Collector) countCommits(ctx context.Context, repo string) (int, error) {
	opts := &github.CommitsListOptions{
		Since:       c.since,
		ListOptions: github.ListOptions{PerPage: 100},
	}

	count := 0
	for {
		commits, resp, err := c.client.Repositories.ListCommits(ctx, c.org, repo, opts)
		if err != nil {
			return 0, err
		}
		count += len(commits)
		if resp.NextPage == 0 {
			break
		}
		opts.Page = resp.NextPage
		c.checkRateLimit(resp)
	}
	return count, nil
}
