package event

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/google/go-github/v55/github"

	gh "github.com/rancher/autorebase-action/internal/github"
)

// Names of the workflow events carrying a pull_request payload.
const (
	NamePullRequest       = "pull_request"
	NamePullRequestTarget = "pull_request_target"
)

// PullRequestAction enumerates actions we care about from pull_request events.
type PullRequestAction string

const (
	PullRequestActionOpened      PullRequestAction = "opened"
	PullRequestActionReopened    PullRequestAction = "reopened"
	PullRequestActionSynchronize PullRequestAction = "synchronize"
	PullRequestActionLabeled     PullRequestAction = "labeled"
	PullRequestActionClosed      PullRequestAction = "closed"
)

// PullRequestPayload captures the subset of GitHub pull_request event data used by the action.
type PullRequestPayload struct {
	Action      PullRequestAction
	Repository  gh.Repository
	PullRequest gh.PullRequest
	LabelName   string
}

// IsSupported reports whether eventName delivers a pull_request payload.
func IsSupported(eventName string) bool {
	switch strings.TrimSpace(eventName) {
	case NamePullRequest, NamePullRequestTarget:
		return true
	default:
		return false
	}
}

// ParsePullRequestEvent decodes a GitHub pull_request event payload from the provided reader.
func ParsePullRequestEvent(r io.Reader) (PullRequestPayload, error) {
	var raw github.PullRequestEvent

	dec := json.NewDecoder(r)
	if err := dec.Decode(&raw); err != nil {
		return PullRequestPayload{}, fmt.Errorf("decode pull_request event: %w", err)
	}

	if raw.PullRequest == nil {
		return PullRequestPayload{}, fmt.Errorf("decode pull_request event: payload has no pull_request")
	}

	ghPR := raw.GetPullRequest()
	payload := PullRequestPayload{
		Action:     PullRequestAction(strings.ToLower(strings.TrimSpace(raw.GetAction()))),
		Repository: toRepository(raw.GetRepo()),
		PullRequest: gh.PullRequest{
			Number: ghPR.GetNumber(),
			Title:  ghPR.GetTitle(),
			Merged: ghPR.GetMerged(),
			Head: gh.HeadBranch{
				Ref:     strings.TrimSpace(ghPR.GetHead().GetRef()),
				SHA:     strings.TrimSpace(ghPR.GetHead().GetSHA()),
				Repo:    toRepository(ghPR.GetHead().GetRepo()),
				Commits: ghPR.GetCommits(),
			},
			Base: gh.BaseBranch{
				Ref:  strings.TrimSpace(ghPR.GetBase().GetRef()),
				Repo: toRepository(ghPR.GetBase().GetRepo()),
			},
		},
	}

	for _, l := range ghPR.Labels {
		if name := l.GetName(); name != "" {
			payload.PullRequest.Labels = append(payload.PullRequest.Labels, gh.Label{Name: name})
		}
	}

	if raw.Label != nil {
		payload.LabelName = strings.TrimSpace(raw.Label.GetName())
	}

	return payload, nil
}

// ParsePullRequestEventFile reads the event JSON from disk.
func ParsePullRequestEventFile(path string) (PullRequestPayload, error) {
	f, err := os.Open(path)
	if err != nil {
		return PullRequestPayload{}, fmt.Errorf("open event file: %w", err)
	}
	defer func() {
		if closeErr := f.Close(); closeErr != nil {
			fmt.Fprintf(os.Stderr, "failed to close event file: %v\n", closeErr)
		}
	}()

	return ParsePullRequestEvent(f)
}

func toRepository(repo *github.Repository) gh.Repository {
	if repo == nil {
		return gh.Repository{}
	}

	r := gh.Repository{
		FullName: strings.TrimSpace(repo.GetFullName()),
		Owner:    strings.TrimSpace(repo.GetOwner().GetLogin()),
		Name:     strings.TrimSpace(repo.GetName()),
	}
	if r.FullName == "" && r.Owner != "" && r.Name != "" {
		r.FullName = r.Owner + "/" + r.Name
	}
	return r
}
