package orchestrator

import (
	"fmt"
	"strings"

	gh "github.com/rancher/autorebase-action/internal/github"
	"github.com/rancher/autorebase-action/internal/labels"
)

// CheckPreconditions decides whether action may run against pr. A non-nil Result
// is a benign skip; an error is a configuration error. Both nil means proceed.
func (o *Orchestrator) CheckPreconditions(pr gh.PullRequest, action labels.Action) (*Result, error) {
	if missing := o.missingArguments(); len(missing) > 0 {
		return nil, configErr(fmt.Errorf("%w: missing %s", ErrInvalidArguments, strings.Join(missing, ", ")))
	}

	if pr.Merged {
		r := skip(action, ReasonAlreadyMerged)
		return &r, nil
	}

	if pr.IsFromFork() {
		r := skip(action, ReasonExternalRepository)
		return &r, nil
	}

	if action == labels.ActionNone {
		r := skip(action, ReasonNoMatchingLabel)
		return &r, nil
	}

	return nil, nil
}

func (o *Orchestrator) missingArguments() []string {
	var missing []string
	if o.gh == nil {
		missing = append(missing, "github client")
	}
	if o.git == nil {
		missing = append(missing, "git executor")
	}
	if strings.TrimSpace(o.cfg.Dir) == "" {
		missing = append(missing, "working directory")
	}
	if strings.TrimSpace(o.cfg.RemoteURL) == "" {
		missing = append(missing, "remote url")
	}
	return missing
}
