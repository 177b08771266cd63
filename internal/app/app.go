package app

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"github.com/rancher/autorebase-action/internal/event"
	"github.com/rancher/autorebase-action/internal/git"
	gh "github.com/rancher/autorebase-action/internal/github"
	"github.com/rancher/autorebase-action/internal/orchestrator"
)

// Reasons reported when the workflow event is not handled at all.
const (
	ReasonUnsupportedEvent = "unsupported event"
	ReasonClosedUnmerged   = "pull request closed"
)

// Runner glues together the orchestrator and supporting services to execute the
// merge or rebase flow for the triggering pull request.
type Runner struct {
	cfg       Config
	log       *slog.Logger
	ghFactory gh.Factory
	vcs       git.VCS // only set for testing via NewRunnerWithDeps
}

// NewRunner constructs a Runner with the supplied configuration.
func NewRunner(cfg Config) (*Runner, error) {
	logger, err := NewLogger(cfg.LogLevel, cfg.LogFormat)
	if err != nil {
		return nil, fmt.Errorf("create logger: %w", err)
	}

	return &Runner{
		cfg:       cfg,
		log:       logger,
		ghFactory: gh.NewRESTFactory(cfg.GitHubBaseURL, cfg.GitHubUploadURL),
	}, nil
}

// NewRunnerWithDeps constructs a Runner with injected dependencies for testing.
func NewRunnerWithDeps(cfg Config, log *slog.Logger, ghFactory gh.Factory, vcs git.VCS) *Runner {
	return &Runner{cfg: cfg, log: log, ghFactory: ghFactory, vcs: vcs}
}

// Run processes the pull request described by the workflow event. Unsupported events
// produce a skipped result with a nil error.
func (r *Runner) Run(ctx context.Context) (orchestrator.Result, error) {
	if r.log != nil {
		r.log.Info("starting autorebase action run", "dry_run", r.cfg.DryRun, "merge_method", r.cfg.MergeMethod)
	}

	eventName := strings.TrimSpace(os.Getenv("GITHUB_EVENT_NAME"))
	if !event.IsSupported(eventName) {
		if r.log != nil {
			r.log.Info("ignoring unsupported event", "event_name", eventName)
		}
		return orchestrator.Result{Status: orchestrator.StatusSkipped, Reason: ReasonUnsupportedEvent}, nil
	}

	eventPath := strings.TrimSpace(os.Getenv("GITHUB_EVENT_PATH"))
	if eventPath == "" {
		return orchestrator.Result{}, fmt.Errorf("GITHUB_EVENT_PATH is required for %s events", eventName)
	}

	payload, err := event.ParsePullRequestEventFile(eventPath)
	if err != nil {
		return orchestrator.Result{}, fmt.Errorf("parse pull request event: %w", err)
	}

	pr := payload.PullRequest
	if payload.Action == event.PullRequestActionClosed && !pr.Merged {
		if r.log != nil {
			r.log.Info("ignoring closed pull request", "number", pr.Number)
		}
		return orchestrator.Result{Status: orchestrator.StatusSkipped, Reason: ReasonClosedUnmerged}, nil
	}

	if pr.Number == 0 {
		return orchestrator.Result{}, fmt.Errorf("event payload missing pull request number")
	}

	result, err := r.process(ctx, pr)
	r.report(pr, result, err)
	return result, err
}

func (r *Runner) process(ctx context.Context, pr gh.PullRequest) (orchestrator.Result, error) {
	table, err := r.cfg.LabelTable()
	if err != nil {
		return orchestrator.Result{}, &orchestrator.ConfigurationError{Err: err}
	}

	ghClient, err := r.ghFactory.New(ctx, r.cfg.GitHubToken)
	if err != nil {
		return orchestrator.Result{}, fmt.Errorf("initialize github client: %w", err)
	}
	ghClient = gh.NewRetryingClient(ghClient, gh.DefaultRetryPolicy(), r.log)
	if r.cfg.DryRun {
		ghClient = gh.NewDryRunClient(ghClient, r.log)
	}

	vcs := r.vcs
	if vcs == nil {
		vcs = r.buildGitExecutor()
	}
	if r.cfg.DryRun {
		vcs = git.NewDryRun(vcs, r.log)
	}

	remote, err := remoteURL(r.cfg, pr.Base.Repo)
	if err != nil {
		return orchestrator.Result{}, &orchestrator.ConfigurationError{Err: err}
	}

	workspace, cleanup, err := r.workspace()
	if err != nil {
		return orchestrator.Result{}, err
	}
	defer cleanup()

	orchCfg := orchestrator.Config{
		Dir:       filepath.Join(workspace, "repo"),
		RemoteURL: remote,
		Labels:    table,
	}
	policy := &orchestrator.HostMergePolicy{Client: ghClient, Method: gh.MergeMethod(r.cfg.MergeMethod)}

	return orchestrator.New(orchCfg, ghClient, vcs, policy, r.log).Update(ctx, pr)
}

func (r *Runner) report(pr gh.PullRequest, result orchestrator.Result, runErr error) {
	if r.log != nil {
		if runErr != nil {
			r.log.Error("autorebase action failed", "number", pr.Number, "error", runErr)
		} else {
			r.log.Info("autorebase action finished", "number", pr.Number, "action", result.Action.String(), "status", result.Status, "reason", result.Reason)
		}
	}

	if err := r.writeStepSummary(pr, result, runErr); err != nil && r.log != nil {
		r.log.Warn("failed to write step summary", "error", err)
	}

	if err := r.writeGitHubOutputs(result, runErr); err != nil && r.log != nil {
		r.log.Warn("failed to write action outputs", "error", err)
	}
}

func (r *Runner) buildGitExecutor() git.VCS {
	exec := git.NewShellExecutor()
	exec.UserName = r.cfg.GitUserName
	exec.UserEmail = r.cfg.GitUserEmail
	exec.Log = r.log
	return exec
}

// workspace creates a scratch directory for the clone and returns a function removing it.
func (r *Runner) workspace() (string, func(), error) {
	base := strings.TrimSpace(r.cfg.WorkDir)
	if base == "" {
		base = strings.TrimSpace(os.Getenv("RUNNER_TEMP"))
	}
	if base != "" {
		if err := os.MkdirAll(base, 0o755); err != nil {
			return "", nil, fmt.Errorf("create workspace root: %w", err)
		}
	}

	dir, err := os.MkdirTemp(base, "autorebase-")
	if err != nil {
		return "", nil, fmt.Errorf("create workspace: %w", err)
	}

	return dir, func() {
		if err := os.RemoveAll(dir); err != nil && r.log != nil {
			r.log.Warn("failed to remove workspace", "dir", dir, "error", err)
		}
	}, nil
}

// remoteURL returns the HTTPS clone URL of repo with the token embedded as
// x-access-token credentials.
func remoteURL(cfg Config, repo gh.Repository) (string, error) {
	fullName := strings.Trim(strings.TrimSpace(repo.FullName), "/")
	if fullName == "" {
		return "", fmt.Errorf("%w: base repository name is empty", orchestrator.ErrInvalidArguments)
	}

	root := &url.URL{Scheme: "https", Host: "github.com"}
	if base := strings.TrimSpace(cfg.GitHubBaseURL); base != "" {
		parsed, err := url.Parse(base)
		if err != nil || parsed.Scheme == "" || parsed.Host == "" {
			return "", fmt.Errorf("%w: invalid github base url %q", orchestrator.ErrInvalidArguments, base)
		}
		root = &url.URL{Scheme: parsed.Scheme, Host: parsed.Host}
	}

	remote := *root
	remote.Path = "/" + fullName + ".git"
	if cfg.GitHubToken != "" {
		remote.User = url.UserPassword("x-access-token", cfg.GitHubToken)
	}
	return remote.String(), nil
}
