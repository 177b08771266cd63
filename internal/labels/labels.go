package labels

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

// Action is the automation a pull request label asks for.
type Action int

const (
	// ActionNone means no recognized label is present.
	ActionNone Action = iota
	ActionMerge
	ActionRebase
)

const (
	DefaultMergeLabel  = "automerge"
	DefaultRebaseLabel = "autorebase"
)

// String returns the lower-case name used in configuration and action outputs.
func (a Action) String() string {
	switch a {
	case ActionNone:
		return "none"
	case ActionMerge:
		return "merge"
	case ActionRebase:
		return "rebase"
	default:
		return fmt.Sprintf("action(%d)", int(a))
	}
}

// ParseAction converts a name produced by Action.String back into an Action.
func ParseAction(name string) (Action, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "none", "":
		return ActionNone, nil
	case "merge":
		return ActionMerge, nil
	case "rebase":
		return ActionRebase, nil
	default:
		return ActionNone, fmt.Errorf("unknown action %q", name)
	}
}

// Table maps label names to the action they request. Label names are matched exactly.
type Table map[string]Action

// DefaultTable recognizes the automerge and autorebase labels.
func DefaultTable() Table {
	return Table{
		DefaultMergeLabel:  ActionMerge,
		DefaultRebaseLabel: ActionRebase,
	}
}

// NewTable builds a Table from the configured merge and rebase label names.
func NewTable(mergeLabel, rebaseLabel string) (Table, error) {
	mergeLabel = strings.TrimSpace(mergeLabel)
	rebaseLabel = strings.TrimSpace(rebaseLabel)

	if mergeLabel == "" || rebaseLabel == "" {
		return nil, errors.New("merge and rebase label names cannot be empty")
	}
	if mergeLabel == rebaseLabel {
		return nil, fmt.Errorf("merge and rebase labels must differ, both are %q", mergeLabel)
	}

	return Table{mergeLabel: ActionMerge, rebaseLabel: ActionRebase}, nil
}

// Names returns the recognized label names in sorted order.
func (t Table) Names() []string {
	names := make([]string, 0, len(t))
	for name, action := range t {
		if action == ActionNone {
			continue
		}
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// AmbiguousLabelsError is returned when labels for two different actions are present.
type AmbiguousLabelsError struct {
	First  string
	Second string
}

func (e *AmbiguousLabelsError) Error() string {
	return fmt.Sprintf("ambiguous labels: %q and %q", e.First, e.Second)
}

// Resolve returns the single action requested by the label names. ActionNone with a
// nil error means no recognized label is present.
func Resolve(names []string, table Table) (Action, error) {
	if table == nil {
		table = DefaultTable()
	}

	resolved := ActionNone
	var matched string

	for _, name := range names {
		action, ok := table[name]
		if !ok || action == ActionNone {
			continue
		}

		if resolved == ActionNone {
			resolved = action
			matched = name
			continue
		}

		if action != resolved {
			return ActionNone, &AmbiguousLabelsError{First: matched, Second: name}
		}
	}

	return resolved, nil
}
