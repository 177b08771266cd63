package gh

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"net/url"
	"strings"

	github "github.com/google/go-github/v55/github"
	"golang.org/x/oauth2"
)

const defaultUserAgent = "rancher-autorebase-action"

// NewRESTFactory returns a GitHub client factory backed by the go-github REST client. When
// base and upload URLs are provided, the factory targets a GitHub Enterprise instance.
func NewRESTFactory(baseURL, uploadURL string) Factory {
	return &restFactory{
		userAgent: defaultUserAgent,
		baseURL:   strings.TrimSpace(baseURL),
		uploadURL: strings.TrimSpace(uploadURL),
	}
}

type restFactory struct {
	userAgent string
	baseURL   string
	uploadURL string
}

type restClient struct {
	client *github.Client
}

func (f *restFactory) New(ctx context.Context, token string) (Client, error) {
	if token == "" {
		return nil, fmt.Errorf("github token is required")
	}

	ts := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: token})
	tc := oauth2.NewClient(ctx, ts)

	if f.baseURL == "" && f.uploadURL != "" {
		return nil, fmt.Errorf("github upload url cannot be set without base url")
	}

	var ghClient *github.Client
	if f.baseURL != "" {
		baseURLNormalized, err := normalizeGitHubURL(f.baseURL)
		if err != nil {
			return nil, fmt.Errorf("parse github base url: %w", err)
		}

		uploadURL := f.uploadURL
		if uploadURL == "" {
			return nil, fmt.Errorf("github upload url must be provided when base url is set")
		}

		uploadURLNormalized, err := normalizeGitHubURL(uploadURL)
		if err != nil {
			return nil, fmt.Errorf("parse github upload url: %w", err)
		}

		ghClient, err = github.NewClient(tc).WithEnterpriseURLs(baseURLNormalized, uploadURLNormalized)
		if err != nil {
			return nil, fmt.Errorf("construct enterprise github client: %w", err)
		}
	} else {
		ghClient = github.NewClient(tc)
	}

	if f.userAgent != "" {
		ghClient.UserAgent = f.userAgent
	}

	return &restClient{client: ghClient}, nil
}

func normalizeGitHubURL(raw string) (string, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", fmt.Errorf("url cannot be empty")
	}

	parsed, err := url.Parse(raw)
	if err != nil {
		return "", err
	}

	if parsed.Scheme == "" {
		return "", fmt.Errorf("url must include scheme (e.g. https://)")
	}

	if parsed.Host == "" {
		return "", fmt.Errorf("url must include host")
	}

	if parsed.Path == "" {
		parsed.Path = "/"
	} else if !strings.HasSuffix(parsed.Path, "/") {
		parsed.Path += "/"
	}

	parsed.RawQuery = ""
	parsed.Fragment = ""

	return parsed.String(), nil
}

// ListCommits returns a single page of commits for the pull request, oldest first.
func (c *restClient) ListCommits(ctx context.Context, owner, repo string, number, perPage int) ([]Commit, error) {
	opts := &github.ListOptions{PerPage: perPage}

	commits, _, err := c.client.PullRequests.ListCommits(ctx, owner, repo, number, opts)
	if err != nil {
		err = classifyGitHubError(err)
		return nil, fmt.Errorf("list pull request commits: %w", err)
	}

	results := make([]Commit, 0, len(commits))
	for _, rc := range commits {
		if rc == nil {
			continue
		}
		commit := Commit{
			SHA:     rc.GetSHA(),
			Parents: toCommitRefs(rc.Parents),
		}
		if inner := rc.GetCommit(); inner != nil {
			commit.Committer = toSignature(inner.GetCommitter())
		}
		results = append(results, commit)
	}

	return results, nil
}

// GetCommit fetches a git commit object including its parents and committer date.
func (c *restClient) GetCommit(ctx context.Context, owner, repo, sha string) (Commit, error) {
	commit, resp, err := c.client.Git.GetCommit(ctx, owner, repo, sha)
	if err != nil {
		if isNotFound(resp, err) {
			return Commit{}, fmt.Errorf("get commit %s: not found: %w", sha, err)
		}
		err = classifyGitHubError(err)
		return Commit{}, fmt.Errorf("get commit %s: %w", sha, err)
	}

	return Commit{
		SHA:       commit.GetSHA(),
		Parents:   toCommitRefs(commit.Parents),
		Committer: toSignature(commit.GetCommitter()),
	}, nil
}

// MergePullRequest asks the host to merge the pull request using the requested method.
func (c *restClient) MergePullRequest(ctx context.Context, owner, repo string, number int, opts MergeOptions) (MergeResult, error) {
	result, resp, err := c.client.PullRequests.Merge(ctx, owner, repo, number, opts.CommitMessage, &github.PullRequestOptions{
		CommitTitle: opts.CommitTitle,
		SHA:         opts.SHA,
		MergeMethod: string(opts.Method),
	})
	if err != nil {
		switch statusCode(resp, err) {
		case http.StatusMethodNotAllowed:
			return MergeResult{}, fmt.Errorf("merge pull request #%d: %w: %v", number, ErrNotMergeable, err)
		case http.StatusConflict:
			return MergeResult{}, fmt.Errorf("merge pull request #%d: %w: %v", number, ErrHeadModified, err)
		}
		err = classifyGitHubError(err)
		return MergeResult{}, fmt.Errorf("merge pull request #%d: %w", number, err)
	}

	return MergeResult{
		Merged:  result.GetMerged(),
		SHA:     result.GetSHA(),
		Message: result.GetMessage(),
	}, nil
}

func toCommitRefs(parents []*github.Commit) []CommitRef {
	refs := make([]CommitRef, 0, len(parents))
	for _, p := range parents {
		if p == nil {
			continue
		}
		refs = append(refs, CommitRef{SHA: p.GetSHA()})
	}
	return refs
}

func toSignature(author *github.CommitAuthor) Signature {
	if author == nil {
		return Signature{}
	}
	return Signature{
		Name:  author.GetName(),
		Email: author.GetEmail(),
		Date:  author.GetDate().Time,
	}
}

func statusCode(resp *github.Response, err error) int {
	if resp != nil && resp.Response != nil {
		return resp.StatusCode
	}
	var githubErr *github.ErrorResponse
	if errors.As(err, &githubErr) && githubErr.Response != nil {
		return githubErr.Response.StatusCode
	}
	return 0
}

func isNotFound(resp *github.Response, err error) bool {
	if resp != nil && resp.StatusCode == http.StatusNotFound {
		return true
	}
	var githubErr *github.ErrorResponse
	if errors.As(err, &githubErr) {
		if githubErr.Response != nil && githubErr.Response.StatusCode == http.StatusNotFound {
			return true
		}
	}
	return false
}

func classifyGitHubError(err error) error {
	if err == nil {
		return nil
	}
	if isRetryableGitHubError(err) {
		return &retryableError{err: err}
	}
	return err
}

func isRetryableGitHubError(err error) bool {
	if err == nil {
		return false
	}

	var rateLimitErr *github.RateLimitError
	if errors.As(err, &rateLimitErr) {
		return true
	}

	var abuseErr *github.AbuseRateLimitError
	if errors.As(err, &abuseErr) {
		return true
	}

	var acceptedErr *github.AcceptedError
	if errors.As(err, &acceptedErr) {
		return true
	}

	var respErr *github.ErrorResponse
	if errors.As(err, &respErr) {
		if respErr.Response != nil {
			code := respErr.Response.StatusCode
			if code == http.StatusTooManyRequests || (code >= 500 && code <= 599) {
				return true
			}
		}
	}

	var netErr net.Error
	if errors.As(err, &netErr) {
		if netErr.Timeout() {
			return true
		}
	}

	return false
}
