package orchestrator

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/rancher/autorebase-action/internal/git"
	gh "github.com/rancher/autorebase-action/internal/github"
	"github.com/rancher/autorebase-action/internal/labels"
)

// Orchestrator decides whether a pull request should be merged or rebased and
// carries that action out against a working clone.
type Orchestrator struct {
	cfg    Config
	gh     gh.Client
	git    git.VCS
	merger MergePolicy
	log    *slog.Logger
}

// New returns a configured Orchestrator instance. merger may be nil, in which case
// automerge requests fail with ErrMergeNotImplemented.
func New(cfg Config, ghClient gh.Client, vcs git.VCS, merger MergePolicy, logger *slog.Logger) *Orchestrator {
	if cfg.Labels == nil {
		cfg.Labels = labels.DefaultTable()
	}
	return &Orchestrator{cfg: cfg, gh: ghClient, git: vcs, merger: merger, log: logger}
}

// Update resolves the action requested by pr's labels and performs it. Skipped
// results are returned with a nil error; configuration problems surface as
// *ConfigurationError and git or host failures as *CollaboratorError.
func (o *Orchestrator) Update(ctx context.Context, pr gh.PullRequest) (Result, error) {
	action, err := labels.Resolve(pr.LabelNames(), o.cfg.Labels)
	if err != nil {
		return Result{}, configErr(err)
	}

	skipped, err := o.CheckPreconditions(pr, action)
	if err != nil {
		return Result{}, err
	}
	if skipped != nil {
		o.logInfo("skipping pull request", pr, "action", action.String(), "reason", skipped.Reason)
		return *skipped, nil
	}

	o.logInfo("processing pull request", pr, "action", action.String(), "head", pr.Head.Ref, "base", pr.Base.Ref)

	switch action {
	case labels.ActionMerge:
		return o.merge(ctx, pr)
	case labels.ActionRebase:
		baseCommits, err := DiscoverBaseCommits(ctx, o.gh, pr)
		if err != nil {
			return Result{}, collabErr("discover base commits", err)
		}
		return o.rebase(ctx, pr, baseCommits)
	default:
		return Result{}, configErr(fmt.Errorf("%w: %s", ErrUnknownAction, action))
	}
}

func (o *Orchestrator) logInfo(msg string, pr gh.PullRequest, args ...any) {
	if o.log == nil {
		return
	}
	owner, repo := ownerAndName(pr.Base.Repo)
	attrs := append([]any{"owner", owner, "repo", repo, "number", pr.Number}, args...)
	o.log.Info(msg, attrs...)
}
