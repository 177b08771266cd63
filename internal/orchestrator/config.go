package orchestrator

import "github.com/rancher/autorebase-action/internal/labels"

// Config captures the runtime controls the orchestrator needs.
type Config struct {
	// Dir is the working directory the clone is created in. It must not exist or be empty.
	Dir string
	// RemoteURL is the clone URL of the pull request's repository.
	RemoteURL string
	// Labels maps label names to actions. DefaultTable is used when nil.
	Labels labels.Table
}
