package gh

import (
	"context"
	"log/slog"
	"time"

	"github.com/cenkalti/backoff"
)

// RetryPolicy bounds how often a retryable host failure is retried.
type RetryPolicy struct {
	MaxRetries      uint64
	InitialInterval time.Duration
	MaxInterval     time.Duration
}

// DefaultRetryPolicy retries three times starting at one second.
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{MaxRetries: 3, InitialInterval: time.Second, MaxInterval: 30 * time.Second}
}

// NewRetryingClient wraps inner so that calls failing with an error for which
// IsRetryable reports true are retried with exponential backoff. Merges are pinned
// to the head SHA, so repeating them is safe.
func NewRetryingClient(inner Client, policy RetryPolicy, logger *slog.Logger) Client {
	return &retryingClient{inner: inner, policy: policy, log: logger}
}

type retryingClient struct {
	inner  Client
	policy RetryPolicy
	log    *slog.Logger
}

func (c *retryingClient) ListCommits(ctx context.Context, owner, repo string, number, perPage int) ([]Commit, error) {
	var commits []Commit
	err := c.do(ctx, "list_commits", func() error {
		var err error
		commits, err = c.inner.ListCommits(ctx, owner, repo, number, perPage)
		return err
	})
	return commits, err
}

func (c *retryingClient) GetCommit(ctx context.Context, owner, repo, sha string) (Commit, error) {
	var commit Commit
	err := c.do(ctx, "get_commit", func() error {
		var err error
		commit, err = c.inner.GetCommit(ctx, owner, repo, sha)
		return err
	})
	return commit, err
}

func (c *retryingClient) MergePullRequest(ctx context.Context, owner, repo string, number int, opts MergeOptions) (MergeResult, error) {
	var result MergeResult
	err := c.do(ctx, "merge_pull_request", func() error {
		var err error
		result, err = c.inner.MergePullRequest(ctx, owner, repo, number, opts)
		return err
	})
	return result, err
}

func (c *retryingClient) do(ctx context.Context, op string, fn func() error) error {
	bo := backoff.NewExponentialBackOff()
	if c.policy.InitialInterval > 0 {
		bo.InitialInterval = c.policy.InitialInterval
	}
	if c.policy.MaxInterval > 0 {
		bo.MaxInterval = c.policy.MaxInterval
	}
	bo.MaxElapsedTime = 0

	attempt := 0
	operation := func() error {
		attempt++
		err := fn()
		if err != nil && !IsRetryable(err) {
			return backoff.Permanent(err)
		}
		return err
	}

	notify := func(err error, next time.Duration) {
		if c.log != nil {
			c.log.Warn("retrying github request", "operation", op, "attempt", attempt, "retry_in", next, "error", err)
		}
	}

	err := backoff.RetryNotify(operation, backoff.WithContext(backoff.WithMaxRetries(bo, c.policy.MaxRetries), ctx), notify)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		return err
	}
	return nil
}
