package orchestrator

import (
	"context"
	"errors"
	"fmt"

	gh "github.com/rancher/autorebase-action/internal/github"
	"github.com/rancher/autorebase-action/internal/labels"
)

// MergePolicy applies a merge once the workspace holds the head branch and the
// fetched base branch.
type MergePolicy interface {
	Apply(ctx context.Context, dir string, pr gh.PullRequest) error
}

// HostMergePolicy merges through the repository host API. The pull request head
// SHA is sent along so the host rejects the merge if the branch moved.
type HostMergePolicy struct {
	Client gh.Client
	Method gh.MergeMethod
}

func (p *HostMergePolicy) Apply(ctx context.Context, _ string, pr gh.PullRequest) error {
	owner, repo := ownerAndName(pr.Base.Repo)
	method := p.Method
	if method == "" {
		method = gh.MergeMethodMerge
	}

	_, err := p.Client.MergePullRequest(ctx, owner, repo, pr.Number, gh.MergeOptions{
		Method:      method,
		CommitTitle: fmt.Sprintf("%s (#%d)", pr.Title, pr.Number),
		SHA:         pr.Head.SHA,
	})
	return err
}

func (o *Orchestrator) merge(ctx context.Context, pr gh.PullRequest) (Result, error) {
	if o.merger == nil {
		return Result{}, configErr(ErrMergeNotImplemented)
	}

	dir, url := o.cfg.Dir, o.cfg.RemoteURL

	if err := o.git.Clone(ctx, url, dir, pr.Head.Ref, 1); err != nil {
		return Result{}, collabErr("clone head", err)
	}

	if err := o.git.Fetch(ctx, dir, pr.Base.Ref); err != nil {
		return Result{}, collabErr("fetch base", err)
	}

	if err := o.merger.Apply(ctx, dir, pr); err != nil {
		if errors.Is(err, gh.ErrHeadModified) {
			o.logInfo("skipping merge: head changed since the event was captured", pr, "head_sha", pr.Head.SHA)
			return skip(labels.ActionMerge, ReasonHeadChanged), nil
		}
		return Result{}, collabErr("merge", err)
	}

	o.logInfo("merged pull request", pr, "base", pr.Base.Ref)
	return Result{Action: labels.ActionMerge, Status: StatusSucceeded}, nil
}
