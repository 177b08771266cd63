package testutil

import (
	"time"

	gh "github.com/rancher/autorebase-action/internal/github"
)

// NewPullRequest returns an open, same-repository pull request carrying the given labels.
func NewPullRequest(labels ...string) gh.PullRequest {
	pr := gh.PullRequest{
		Number: 42,
		Title:  "Improve feature",
		Head: gh.HeadBranch{
			Ref:     "feature",
			SHA:     "head-sha",
			Commits: 2,
			Repo:    gh.Repository{FullName: "rancher/repo", Owner: "rancher", Name: "repo"},
		},
		Base: gh.BaseBranch{
			Ref:  "main",
			Repo: gh.Repository{FullName: "rancher/repo", Owner: "rancher", Name: "repo"},
		},
	}
	for _, name := range labels {
		pr.Labels = append(pr.Labels, gh.Label{Name: name})
	}
	return pr
}

// NewCommit returns a commit with the given parents committed at date (RFC 3339).
func NewCommit(sha, date string, parents ...string) gh.Commit {
	when, err := time.Parse(time.RFC3339, date)
	if err != nil {
		panic(err)
	}

	commit := gh.Commit{SHA: sha, Committer: gh.Signature{Date: when}}
	for _, p := range parents {
		commit.Parents = append(commit.Parents, gh.CommitRef{SHA: p})
	}
	return commit
}
