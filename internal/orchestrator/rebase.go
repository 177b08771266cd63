package orchestrator

import (
	"context"
	"errors"
	"strings"

	gh "github.com/rancher/autorebase-action/internal/github"
	"github.com/rancher/autorebase-action/internal/labels"
)

// DiscoverBaseCommits returns the parents of the pull request's earliest commit.
func DiscoverBaseCommits(ctx context.Context, client gh.Client, pr gh.PullRequest) ([]gh.Commit, error) {
	owner, repo := ownerAndName(pr.Head.Repo)

	commits, err := client.ListCommits(ctx, owner, repo, pr.Number, 1)
	if err != nil {
		return nil, err
	}
	if len(commits) == 0 {
		return nil, errors.New("pull request has no commits")
	}

	first := commits[0]
	baseCommits := make([]gh.Commit, 0, len(first.Parents))
	for _, parent := range first.Parents {
		commit, err := client.GetCommit(ctx, owner, repo, parent.SHA)
		if err != nil {
			return nil, err
		}
		baseCommits = append(baseCommits, commit)
	}

	return baseCommits, nil
}

func (o *Orchestrator) rebase(ctx context.Context, pr gh.PullRequest, baseCommits []gh.Commit) (Result, error) {
	dir, url := o.cfg.Dir, o.cfg.RemoteURL

	// one extra commit exposes the parent of the first pull request commit
	if err := o.git.Clone(ctx, url, dir, pr.Head.Ref, pr.Head.Commits+1); err != nil {
		return Result{}, collabErr("clone head", err)
	}

	if since, ok := EarliestDate(baseCommits); ok {
		if err := o.git.FetchSince(ctx, dir, pr.Base.Ref, since); err != nil {
			return Result{}, collabErr("fetch base", err)
		}
	} else if err := o.git.Fetch(ctx, dir, pr.Base.Ref); err != nil {
		return Result{}, collabErr("fetch base", err)
	}

	head, err := o.git.Head(ctx, dir)
	if err != nil {
		return Result{}, collabErr("read head", err)
	}
	if head != pr.Head.SHA {
		o.logInfo("skipping rebase: HEAD changed", pr, "expected", pr.Head.SHA, "actual", head)
		return skip(labels.ActionRebase, ReasonHeadChanged), nil
	}

	onto, err := o.git.SHA(ctx, dir, pr.Base.Ref)
	if err != nil {
		return Result{}, collabErr("read base", err)
	}

	if len(baseCommits) == 1 && baseCommits[0].SHA == onto {
		o.logInfo("skipping rebase: already up to date", pr, "base_sha", onto)
		r := skip(labels.ActionRebase, ReasonUpToDate)
		r.Onto = onto
		return r, nil
	}

	if err := o.git.Rebase(ctx, dir, onto); err != nil {
		return Result{}, collabErr("rebase", err)
	}

	if err := o.git.Push(ctx, dir, true, pr.Head.Ref); err != nil {
		return Result{}, collabErr("push", err)
	}

	o.logInfo("rebased pull request", pr, "onto", onto)
	return Result{Action: labels.ActionRebase, Status: StatusSucceeded, Onto: onto}, nil
}

func ownerAndName(repo gh.Repository) (string, string) {
	owner, name := repo.Owner, repo.Name
	if owner != "" && name != "" {
		return owner, name
	}
	if parts := strings.SplitN(repo.FullName, "/", 2); len(parts) == 2 {
		if owner == "" {
			owner = parts[0]
		}
		if name == "" {
			name = parts[1]
		}
	}
	return owner, name
}
