package git

import (
	"context"
	"log/slog"
	"time"
)

// NewDryRun wraps a VCS so that everything up to and including the local rebase
// runs, while pushes are only logged.
func NewDryRun(inner VCS, logger *slog.Logger) VCS {
	return &dryRun{inner: inner, log: logger}
}

type dryRun struct {
	inner VCS
	log   *slog.Logger
}

func (d *dryRun) Clone(ctx context.Context, url, dir, ref string, depth int) error {
	return d.inner.Clone(ctx, url, dir, ref, depth)
}

func (d *dryRun) Fetch(ctx context.Context, dir, ref string) error {
	return d.inner.Fetch(ctx, dir, ref)
}

func (d *dryRun) FetchSince(ctx context.Context, dir, ref string, since time.Time) error {
	return d.inner.FetchSince(ctx, dir, ref, since)
}

func (d *dryRun) Head(ctx context.Context, dir string) (string, error) {
	return d.inner.Head(ctx, dir)
}

func (d *dryRun) SHA(ctx context.Context, dir, ref string) (string, error) {
	return d.inner.SHA(ctx, dir, ref)
}

func (d *dryRun) Rebase(ctx context.Context, dir, onto string) error {
	return d.inner.Rebase(ctx, dir, onto)
}

func (d *dryRun) Push(ctx context.Context, dir string, force bool, ref string) error {
	if d.log != nil {
		d.log.Info("dry run: skipping push", "dir", dir, "ref", ref, "force", force)
	}
	return nil
}
