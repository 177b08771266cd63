package testutil

import (
	"context"
	"time"

	"github.com/stretchr/testify/mock"

	gh "github.com/rancher/autorebase-action/internal/github"
)

// MockVCS is a mock implementation of git.VCS for testing
type MockVCS struct {
	mock.Mock
}

func (m *MockVCS) Clone(ctx context.Context, url, dir, ref string, depth int) error {
	args := m.Called(ctx, url, dir, ref, depth)
	return args.Error(0)
}

func (m *MockVCS) Fetch(ctx context.Context, dir, ref string) error {
	args := m.Called(ctx, dir, ref)
	return args.Error(0)
}

func (m *MockVCS) FetchSince(ctx context.Context, dir, ref string, since time.Time) error {
	args := m.Called(ctx, dir, ref, since)
	return args.Error(0)
}

func (m *MockVCS) Head(ctx context.Context, dir string) (string, error) {
	args := m.Called(ctx, dir)
	return args.String(0), args.Error(1)
}

func (m *MockVCS) SHA(ctx context.Context, dir, ref string) (string, error) {
	args := m.Called(ctx, dir, ref)
	return args.String(0), args.Error(1)
}

func (m *MockVCS) Rebase(ctx context.Context, dir, onto string) error {
	args := m.Called(ctx, dir, onto)
	return args.Error(0)
}

func (m *MockVCS) Push(ctx context.Context, dir string, force bool, ref string) error {
	args := m.Called(ctx, dir, force, ref)
	return args.Error(0)
}

// MockHostClient is a mock implementation of gh.Client for testing
type MockHostClient struct {
	mock.Mock
}

func (m *MockHostClient) ListCommits(ctx context.Context, owner, repo string, number, perPage int) ([]gh.Commit, error) {
	args := m.Called(ctx, owner, repo, number, perPage)
	if commits := args.Get(0); commits != nil {
		return commits.([]gh.Commit), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockHostClient) GetCommit(ctx context.Context, owner, repo, sha string) (gh.Commit, error) {
	args := m.Called(ctx, owner, repo, sha)
	return args.Get(0).(gh.Commit), args.Error(1)
}

func (m *MockHostClient) MergePullRequest(ctx context.Context, owner, repo string, number int, opts gh.MergeOptions) (gh.MergeResult, error) {
	args := m.Called(ctx, owner, repo, number, opts)
	return args.Get(0).(gh.MergeResult), args.Error(1)
}
