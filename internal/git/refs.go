package git

import (
	"errors"
	"fmt"

	gogit "github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
)

// readHead resolves HEAD of the clone at dir without spawning git.
func readHead(dir string) (string, error) {
	repo, err := gogit.PlainOpen(dir)
	if err != nil {
		return "", fmt.Errorf("open repository %s: %w", dir, err)
	}

	head, err := repo.Head()
	if err != nil {
		return "", err
	}
	return head.Hash().String(), nil
}

// readRef resolves the remote tracking ref for branch, falling back to the local
// branch of the same name.
func readRef(dir, remote, branch string) (string, error) {
	repo, err := gogit.PlainOpen(dir)
	if err != nil {
		return "", fmt.Errorf("open repository %s: %w", dir, err)
	}

	candidates := []plumbing.ReferenceName{
		plumbing.NewRemoteReferenceName(remote, branch),
		plumbing.NewBranchReferenceName(branch),
	}

	for _, name := range candidates {
		ref, err := repo.Reference(name, true)
		if err == nil {
			return ref.Hash().String(), nil
		}
		if !errors.Is(err, plumbing.ErrReferenceNotFound) {
			return "", err
		}
	}

	return "", fmt.Errorf("%w: %s", plumbing.ErrReferenceNotFound, branch)
}
