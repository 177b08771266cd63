package gh

import (
	"context"
	"errors"
	"strings"
	"time"
)

// PullRequest contains the pull request details the merge and rebase flows read.
type PullRequest struct {
	Number int
	Title  string
	Merged bool
	Head   HeadBranch
	Base   BaseBranch
	Labels []Label
}

// HeadBranch describes the branch a pull request proposes to merge.
type HeadBranch struct {
	Ref     string
	SHA     string
	Repo    Repository
	Commits int
}

// BaseBranch describes the branch a pull request targets.
type BaseBranch struct {
	Ref  string
	Repo Repository
}

// Repository identifies a repository by owner and name.
type Repository struct {
	FullName string
	Owner    string
	Name     string
}

// Label is a label attached to a pull request.
type Label struct {
	Name string
}

// LabelNames returns the label names in the order they were attached.
func (pr PullRequest) LabelNames() []string {
	names := make([]string, 0, len(pr.Labels))
	for _, l := range pr.Labels {
		names = append(names, l.Name)
	}
	return names
}

// IsFromFork reports whether the head branch lives in a different repository than the base.
func (pr PullRequest) IsFromFork() bool {
	return !strings.EqualFold(pr.Head.Repo.FullName, pr.Base.Repo.FullName)
}

// Commit is a git commit as reported by the host.
type Commit struct {
	SHA       string
	Parents   []CommitRef
	Committer Signature
}

// CommitRef points at another commit.
type CommitRef struct {
	SHA string
}

// Signature carries the author or committer timestamp of a commit.
type Signature struct {
	Name  string
	Email string
	Date  time.Time
}

// MergeMethod selects how the host combines a pull request into its base.
type MergeMethod string

const (
	MergeMethodMerge  MergeMethod = "merge"
	MergeMethodSquash MergeMethod = "squash"
	MergeMethodRebase MergeMethod = "rebase"
)

// MergeOptions configures a host side pull request merge.
type MergeOptions struct {
	Method        MergeMethod
	CommitTitle   string
	CommitMessage string
	// SHA must match the pull request head for the merge to be accepted.
	SHA string
}

// MergeResult reports the outcome of a host side merge.
type MergeResult struct {
	Merged  bool
	SHA     string
	Message string
}

// Client exposes the repository host operations required by the orchestrator.
type Client interface {
	ListCommits(ctx context.Context, owner, repo string, number, perPage int) ([]Commit, error)
	GetCommit(ctx context.Context, owner, repo, sha string) (Commit, error)
	MergePullRequest(ctx context.Context, owner, repo string, number int, opts MergeOptions) (MergeResult, error)
}

// Factory builds concrete GitHub clients (e.g., REST-backed) for the orchestrator.
type Factory interface {
	New(ctx context.Context, token string) (Client, error)
}

// ErrNotMergeable indicates the host refused to merge the pull request.
var ErrNotMergeable = errors.New("github: pull request is not mergeable")

// ErrHeadModified indicates the pull request head moved after it was read.
var ErrHeadModified = errors.New("github: pull request head was modified")

// retryableError marks an error that may succeed if the operation is retried.
type retryableError struct {
	err error
}

func (e *retryableError) Error() string {
	if e == nil || e.err == nil {
		return ""
	}
	return e.err.Error()
}

func (e *retryableError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.err
}

// IsRetryable reports whether the supplied error resulted from a retryable GitHub
// API failure (for example, a transient network problem or rate-limited request).
func IsRetryable(err error) bool {
	if err == nil {
		return false
	}
	var target *retryableError
	return errors.As(err, &target)
}
