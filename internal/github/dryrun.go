package gh

import (
	"context"
	"log/slog"
)

// NewDryRunClient wraps a Client so that read operations reach the host while
// merges are only logged.
func NewDryRunClient(inner Client, logger *slog.Logger) Client {
	return &dryRunClient{inner: inner, log: logger}
}

type dryRunClient struct {
	inner Client
	log   *slog.Logger
}

func (c *dryRunClient) ListCommits(ctx context.Context, owner, repo string, number, perPage int) ([]Commit, error) {
	return c.inner.ListCommits(ctx, owner, repo, number, perPage)
}

func (c *dryRunClient) GetCommit(ctx context.Context, owner, repo, sha string) (Commit, error) {
	return c.inner.GetCommit(ctx, owner, repo, sha)
}

func (c *dryRunClient) MergePullRequest(ctx context.Context, owner, repo string, number int, opts MergeOptions) (MergeResult, error) {
	if c.log != nil {
		c.log.Info("dry run: skipping pull request merge", "owner", owner, "repo", repo, "number", number, "merge_method", opts.Method, "sha", opts.SHA)
	}
	return MergeResult{Merged: false, SHA: opts.SHA, Message: "dry run"}, nil
}
