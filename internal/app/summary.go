package app

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	gh "github.com/rancher/autorebase-action/internal/github"
	"github.com/rancher/autorebase-action/internal/orchestrator"
)

const statusFailed = "failed"

func (r *Runner) writeStepSummary(pr gh.PullRequest, result orchestrator.Result, runErr error) error {
	path := strings.TrimSpace(os.Getenv("GITHUB_STEP_SUMMARY"))
	if path == "" {
		return nil
	}

	ensureParentDir(path, "summary")

	var builder strings.Builder
	builder.WriteString("## Autorebase action summary\n\n")
	builder.WriteString(renderResultDetails(pr, result, runErr))

	file, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("open step summary: %w", err)
	}
	defer func() {
		if closeErr := file.Close(); closeErr != nil {
			fmt.Fprintf(os.Stderr, "failed to close step summary file: %v\n", closeErr)
		}
	}()

	if _, err := file.WriteString(builder.String()); err != nil {
		return fmt.Errorf("write step summary: %w", err)
	}

	return nil
}

func (r *Runner) writeGitHubOutputs(result orchestrator.Result, runErr error) error {
	path := strings.TrimSpace(os.Getenv("GITHUB_OUTPUT"))
	if path == "" {
		return nil
	}

	ensureParentDir(path, "outputs")

	status, reason := outcome(result, runErr)

	file, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("open github output: %w", err)
	}
	defer func() {
		if closeErr := file.Close(); closeErr != nil {
			fmt.Fprintf(os.Stderr, "failed to close github output file: %v\n", closeErr)
		}
	}()

	if _, err := fmt.Fprintf(file, "action=%s\nstatus=%s\n", result.Action, status); err != nil {
		return fmt.Errorf("write outputs: %w", err)
	}

	if err := writeMultilineOutput(file, "reason", reason); err != nil {
		return err
	}

	if result.Onto != "" {
		if _, err := fmt.Fprintf(file, "onto=%s\n", result.Onto); err != nil {
			return fmt.Errorf("write output onto: %w", err)
		}
	}

	return nil
}

func renderResultDetails(pr gh.PullRequest, result orchestrator.Result, runErr error) string {
	status, reason := outcome(result, runErr)
	if reason == "" {
		reason = "-"
	}

	var builder strings.Builder
	builder.WriteString("| Pull request | Action | Status | Details |\n")
	builder.WriteString("| --- | --- | --- | --- |\n")
	builder.WriteString(fmt.Sprintf("| %s | %s | %s | %s |\n",
		sanitizeMarkdownCell(pullRequestCell(pr)),
		sanitizeMarkdownCell(result.Action.String()),
		sanitizeMarkdownCell(status),
		sanitizeMarkdownCell(reason),
	))

	if result.Onto != "" {
		builder.WriteString(fmt.Sprintf("\nRebased onto `%s`.\n", result.Onto))
	}

	return builder.String()
}

func outcome(result orchestrator.Result, runErr error) (string, string) {
	if runErr != nil {
		return statusFailed, runErr.Error()
	}
	return string(result.Status), result.Reason
}

func pullRequestCell(pr gh.PullRequest) string {
	if pr.Number == 0 {
		return "-"
	}
	if pr.Title == "" {
		return fmt.Sprintf("#%d", pr.Number)
	}
	return fmt.Sprintf("#%d %s", pr.Number, pr.Title)
}

func ensureParentDir(path, what string) {
	dir := filepath.Dir(path)
	if _, err := os.Stat(dir); os.IsNotExist(err) {
		if mkErr := os.MkdirAll(dir, 0o755); mkErr != nil {
			fmt.Fprintf(os.Stderr, "warning: could not create %s directory: %v\n", what, mkErr)
		}
	}
}

func writeMultilineOutput(file *os.File, key, value string) error {
	if _, err := fmt.Fprintf(file, "%s<<EOF\n%s\nEOF\n", key, value); err != nil {
		return fmt.Errorf("write output %s: %w", key, err)
	}
	return nil
}

func sanitizeMarkdownCell(value string) string {
	value = strings.ReplaceAll(value, "|", "\\|")
	value = strings.ReplaceAll(value, "\n", "<br>")
	value = strings.TrimSpace(value)
	if value == "" {
		return "-"
	}
	return value
}
