package orchestrator

import (
	"errors"
	"fmt"

	"github.com/rancher/autorebase-action/internal/labels"
)

// Status describes how an Update call ended.
type Status string

const (
	StatusSucceeded Status = "succeeded"
	StatusSkipped   Status = "skipped"
)

// Reasons reported with StatusSkipped.
const (
	ReasonAlreadyMerged      = "already merged"
	ReasonExternalRepository = "external repository"
	ReasonNoMatchingLabel    = "no matching label"
	ReasonHeadChanged        = "HEAD changed"
	ReasonUpToDate           = "already up to date"
)

// Result captures the outcome of a single Update call. A skipped result is a
// successful no-op, not a failure.
type Result struct {
	Action labels.Action
	Status Status
	Reason string
	// Onto is the base commit the head was rebased onto, if a rebase ran.
	Onto string
}

// Skipped reports whether no action was taken.
func (r Result) Skipped() bool {
	return r.Status == StatusSkipped
}

func skip(action labels.Action, reason string) Result {
	return Result{Action: action, Status: StatusSkipped, Reason: reason}
}

var (
	// ErrInvalidArguments indicates a required collaborator or setting is missing.
	ErrInvalidArguments = errors.New("invalid arguments")
	// ErrMergeNotImplemented indicates automerge was requested without a merge policy.
	ErrMergeNotImplemented = errors.New("automerge requires a merge policy")
	// ErrUnknownAction indicates the resolved action has no executor.
	ErrUnknownAction = errors.New("unknown action")
)

// ConfigurationError reports a misconfiguration that retrying will not fix.
type ConfigurationError struct {
	Err error
}

func (e *ConfigurationError) Error() string {
	if e == nil || e.Err == nil {
		return "configuration error"
	}
	return fmt.Sprintf("configuration error: %v", e.Err)
}

func (e *ConfigurationError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// CollaboratorError wraps a failure returned by git or the repository host.
type CollaboratorError struct {
	Op  string
	Err error
}

func (e *CollaboratorError) Error() string {
	if e == nil || e.Err == nil {
		return ""
	}
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *CollaboratorError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// IsConfigurationError reports whether err was caused by misconfiguration.
func IsConfigurationError(err error) bool {
	var target *ConfigurationError
	return errors.As(err, &target)
}

// IsCollaboratorError reports whether err was returned by git or the repository host.
func IsCollaboratorError(err error) bool {
	var target *CollaboratorError
	return errors.As(err, &target)
}

func configErr(err error) error {
	return &ConfigurationError{Err: err}
}

func collabErr(op string, err error) error {
	return &CollaboratorError{Op: op, Err: err}
}
