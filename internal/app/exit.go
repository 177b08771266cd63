package app

import "github.com/rancher/autorebase-action/internal/orchestrator"

// Process exit codes.
const (
	ExitSuccess       = 0
	ExitFailure       = 1
	ExitConfiguration = 2
)

// ExitCode maps the outcome of Run to a process exit code. Skipped runs exit with
// neutral so workflows can tell "nothing to do" apart from success.
func ExitCode(result orchestrator.Result, err error, neutral int) int {
	switch {
	case err != nil && orchestrator.IsConfigurationError(err):
		return ExitConfiguration
	case err != nil:
		return ExitFailure
	case result.Skipped():
		return neutral
	default:
		return ExitSuccess
	}
}
