package git

import (
	"context"
	"time"
)

// VCS exposes the git primitives required by the orchestrator. Every method
// operates on the clone rooted at dir.
type VCS interface {
	// Clone clones ref from url into dir, limited to depth commits.
	Clone(ctx context.Context, url, dir, ref string, depth int) error
	// Fetch fetches the full history of ref into an existing clone.
	Fetch(ctx context.Context, dir, ref string) error
	// FetchSince fetches the history of ref truncated to commits newer than since.
	FetchSince(ctx context.Context, dir, ref string, since time.Time) error
	// Head returns the checked out commit.
	Head(ctx context.Context, dir string) (string, error)
	// SHA returns the tip commit of the fetched ref.
	SHA(ctx context.Context, dir, ref string) (string, error)
	// Rebase rebases the current branch onto the given commit. It fails on conflicts.
	Rebase(ctx context.Context, dir, onto string) error
	// Push pushes the local ref to the remote, optionally forced.
	Push(ctx context.Context, dir string, force bool, ref string) error
}
