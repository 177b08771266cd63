package git

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/cenkalti/backoff"
)

// ShellExecutor shells out to the system git binary for network and history
// rewriting commands, and reads refs with go-git.
type ShellExecutor struct {
	// Git is the git binary to execute. Defaults to "git" when empty.
	Git string

	// UserName and UserEmail configure the git identity used when rebasing.
	UserName  string
	UserEmail string

	// RemoteName controls which remote the workspace interacts with. Defaults to "origin".
	RemoteName string

	// NetworkRetries controls how many additional attempts should be made for network
	// oriented git commands (clone, fetch, push). When zero, a default of 2 retries is used.
	NetworkRetries int

	// NetworkRetryDelay controls the initial backoff delay between retries. When zero,
	// a default of 1 second is used. Backoff grows exponentially per attempt.
	NetworkRetryDelay time.Duration

	// NetworkTimeout bounds network commands that would otherwise inherit an unbounded
	// context. When zero, a default of 2 minutes is used.
	NetworkTimeout time.Duration

	// Log receives retry notifications. Optional.
	Log *slog.Logger
}

var _ VCS = (*ShellExecutor)(nil)

// NewShellExecutor returns a VCS backed by system git commands.
func NewShellExecutor() *ShellExecutor {
	return &ShellExecutor{}
}

func (e *ShellExecutor) gitBinary() string {
	if e.Git == "" {
		return "git"
	}
	return e.Git
}

func (e *ShellExecutor) remoteName() string {
	if e.RemoteName == "" {
		return "origin"
	}
	return e.RemoteName
}

func (e *ShellExecutor) Clone(ctx context.Context, url, dir, ref string, depth int) error {
	if url == "" || dir == "" || ref == "" {
		return fmt.Errorf("url, dir and ref are required")
	}

	args := []string{"clone", "--quiet", "--no-tags", "--single-branch", "--origin", e.remoteName(), "--branch", ref}
	if depth > 0 {
		args = append(args, "--depth", strconv.Itoa(depth))
	}
	args = append(args, "--", url, dir)

	if err := e.runGit(ctx, args...); err != nil {
		return fmt.Errorf("git clone %s: %w", ref, err)
	}

	if e.UserName != "" {
		if err := e.runGit(ctx, "-C", dir, "config", "user.name", e.UserName); err != nil {
			return fmt.Errorf("git config user.name: %w", err)
		}
	}
	if e.UserEmail != "" {
		if err := e.runGit(ctx, "-C", dir, "config", "user.email", e.UserEmail); err != nil {
			return fmt.Errorf("git config user.email: %w", err)
		}
	}

	return nil
}

func (e *ShellExecutor) Fetch(ctx context.Context, dir, ref string) error {
	if err := e.runGit(ctx, "-C", dir, "fetch", "--quiet", "--no-tags", e.remoteName(), e.refspec(ref)); err != nil {
		return fmt.Errorf("git fetch %s: %w", ref, err)
	}
	return nil
}

func (e *ShellExecutor) FetchSince(ctx context.Context, dir, ref string, since time.Time) error {
	if since.IsZero() {
		return e.Fetch(ctx, dir, ref)
	}

	shallowSince := "--shallow-since=" + since.UTC().Format(time.RFC3339)
	if err := e.runGit(ctx, "-C", dir, "fetch", "--quiet", "--no-tags", shallowSince, e.remoteName(), e.refspec(ref)); err != nil {
		return fmt.Errorf("git fetch %s since %s: %w", ref, since.UTC().Format(time.RFC3339), err)
	}
	return nil
}

func (e *ShellExecutor) Head(ctx context.Context, dir string) (string, error) {
	sha, err := readHead(dir)
	if err != nil {
		return "", fmt.Errorf("read HEAD: %w", err)
	}
	return sha, nil
}

func (e *ShellExecutor) SHA(ctx context.Context, dir, ref string) (string, error) {
	sha, err := readRef(dir, e.remoteName(), ref)
	if err != nil {
		return "", fmt.Errorf("read ref %s: %w", ref, err)
	}
	return sha, nil
}

func (e *ShellExecutor) Rebase(ctx context.Context, dir, onto string) error {
	err := e.runGit(ctx, "-C", dir, "rebase", "--quiet", onto)
	if err == nil {
		return nil
	}

	if abortErr := e.runGit(ctx, "-C", dir, "rebase", "--abort"); abortErr != nil && !isNoRebaseInProgress(abortErr) && e.Log != nil {
		e.Log.Warn("failed to abort rebase after error", "dir", dir, "error", abortErr)
	}

	return fmt.Errorf("git rebase onto %s: %w", onto, err)
}

func (e *ShellExecutor) Push(ctx context.Context, dir string, force bool, ref string) error {
	args := []string{"-C", dir, "push", "--quiet"}
	if force {
		args = append(args, "--force-with-lease")
	}
	args = append(args, e.remoteName(), fmt.Sprintf("refs/heads/%s:refs/heads/%s", ref, ref))

	if err := e.runGit(ctx, args...); err != nil {
		return fmt.Errorf("git push %s: %w", ref, err)
	}
	return nil
}

func (e *ShellExecutor) refspec(ref string) string {
	return fmt.Sprintf("+refs/heads/%s:refs/remotes/%s/%s", ref, e.remoteName(), ref)
}

func (e *ShellExecutor) runGit(ctx context.Context, args ...string) error {
	primary := primaryGitCommand(args)
	if !isNetworkCommand(primary) {
		return e.runGitOnce(ctx, args...)
	}

	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = e.networkRetryDelayValue()
	bo.MaxElapsedTime = 0
	policy := backoff.WithContext(backoff.WithMaxRetries(bo, uint64(e.networkRetriesValue())), ctx)

	attempt := 0
	operation := func() error {
		attempt++
		attemptCtx, cancel := e.applyNetworkTimeout(ctx)
		defer cancel()

		err := e.runGitOnce(attemptCtx, args...)
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return backoff.Permanent(err)
		}
		return err
	}

	notify := func(err error, next time.Duration) {
		if e.Log != nil {
			e.Log.Warn("retrying git command", "command", primary, "attempt", attempt, "retry_in", next, "error", err)
		}
	}

	err := backoff.RetryNotify(operation, policy, notify)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		return err
	}
	return nil
}

func (e *ShellExecutor) runGitOnce(ctx context.Context, args ...string) error {
	cmd := exec.CommandContext(ctx, e.gitBinary(), args...)
	cmd.Env = append(os.Environ(), "GIT_TERMINAL_PROMPT=0")
	setProcessGroup(cmd)
	var output bytes.Buffer
	cmd.Stdout = &output
	cmd.Stderr = &output

	if err := cmd.Start(); err != nil {
		return &GitError{Args: args, Output: output.String(), Err: err}
	}

	done := make(chan error, 1)
	go func() {
		done <- cmd.Wait()
	}()

	select {
	case <-ctx.Done():
		terminateProcessGroup(cmd)
		<-done
		return ctx.Err()
	case err := <-done:
		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return ctxErr
			}
			return &GitError{Args: args, Output: output.String(), Err: err}
		}
	}

	return nil
}

func primaryGitCommand(args []string) string {
	for i := 0; i < len(args); i++ {
		arg := args[i]
		if arg == "--" {
			if i+1 < len(args) {
				return args[i+1]
			}
			return ""
		}
		if strings.HasPrefix(arg, "-") {
			switch arg {
			case "-C", "--git-dir", "-c":
				i++
			}
			continue
		}
		return arg
	}
	return ""
}

func isNetworkCommand(cmd string) bool {
	switch cmd {
	case "clone", "fetch", "push", "pull", "remote":
		return true
	default:
		return false
	}
}

func (e *ShellExecutor) networkRetriesValue() int {
	if e.NetworkRetries < 0 {
		return 0
	}
	if e.NetworkRetries == 0 {
		return 2
	}
	return e.NetworkRetries
}

func (e *ShellExecutor) networkRetryDelayValue() time.Duration {
	if e.NetworkRetryDelay <= 0 {
		return time.Second
	}
	return e.NetworkRetryDelay
}

func (e *ShellExecutor) networkTimeoutValue() time.Duration {
	if e.NetworkTimeout <= 0 {
		return 2 * time.Minute
	}
	return e.NetworkTimeout
}

func (e *ShellExecutor) applyNetworkTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if deadline, ok := ctx.Deadline(); ok && !deadline.IsZero() {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, e.networkTimeoutValue())
}

// GitError wraps failures when invoking the git binary. Credentials embedded in
// remote URLs are masked in its message.
type GitError struct {
	Args   []string
	Output string
	Err    error
}

func (e *GitError) Error() string {
	if e == nil {
		return ""
	}
	return redactCredentials(fmt.Sprintf("git %s: %v\n%s", strings.Join(e.Args, " "), e.Err, e.Output))
}

func (e *GitError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

var credentialPattern = regexp.MustCompile(`(://)[^/@\s]+@`)

func redactCredentials(s string) string {
	return credentialPattern.ReplaceAllString(s, "${1}***@")
}

func isNoRebaseInProgress(err error) bool {
	var gitErr *GitError
	if !errors.As(err, &gitErr) {
		return false
	}
	return strings.Contains(strings.ToLower(gitErr.Output), "no rebase in progress")
}
