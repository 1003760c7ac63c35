// Package gitsync keeps a local copy of the suite repository up to date.
// Suites are plain YAML documents, so teams version them in git; a sync is
// a clone on first use and a pull afterwards.
package gitsync

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/transport"
	"github.com/go-git/go-git/v5/plumbing/transport/http"
	"github.com/go-git/go-git/v5/plumbing/transport/ssh"

	"snowcheck/internal/common"
	"snowcheck/pkg/errors"
)

// Syncer clones or updates the suite repository.
type Syncer struct {
	cacheDir string
}

// NewSyncer creates a syncer caching repositories under cacheDir.
func NewSyncer(cacheDir string) *Syncer {
	return &Syncer{cacheDir: cacheDir}
}

// Sync makes the repository's working tree current and returns its local
// path. branch is optional; empty means the remote default.
func (s *Syncer) Sync(gitURL, branch string) (string, error) {
	localPath := s.localPath(gitURL)

	if err := cloneOrPull(gitURL, localPath); err != nil {
		if strings.Contains(err.Error(), "authentication") || strings.Contains(err.Error(), "unauthorized") {
			return "", errors.Wrap(err, errors.ErrCodeGitSync, "Authentication failed for suite repository").
				WithContext("url", gitURL).
				WithSuggestions(
					"Set GIT_USERNAME and GIT_PASSWORD, or GITHUB_TOKEN",
					"Try cloning the repository manually to verify access",
				)
		}
		return "", errors.Wrap(err, errors.ErrCodeGitSync,
			fmt.Sprintf("Failed to sync suite repository %s", gitURL)).
			WithContext("url", gitURL).
			AsRecoverable()
	}

	if branch != "" {
		if err := checkoutBranch(localPath, branch); err != nil {
			return "", errors.Wrap(err, errors.ErrCodeGitSync,
				fmt.Sprintf("Failed to checkout branch %s", branch)).
				WithContext("branch", branch).
				WithSuggestions(fmt.Sprintf("Verify branch %q exists on the remote", branch))
		}
	}

	return localPath, nil
}

// localPath maps a repository URL to a stable cache directory name.
func (s *Syncer) localPath(gitURL string) string {
	name := strings.TrimSuffix(gitURL, ".git")
	if i := strings.LastIndexAny(name, "/:"); i >= 0 {
		name = name[i+1:]
	}
	if name == "" {
		name = "suites"
	}
	return filepath.Join(s.cacheDir, name)
}

func cloneOrPull(gitURL, localPath string) error {
	if err := os.MkdirAll(filepath.Dir(localPath), common.DirPermissionNormal); err != nil {
		return fmt.Errorf("failed to create cache directory: %w", err)
	}

	auth := authMethod(gitURL)

	if _, err := os.Stat(filepath.Join(localPath, ".git")); err == nil {
		repo, err := git.PlainOpen(localPath)
		if err != nil {
			return fmt.Errorf("failed to open existing repository: %w", err)
		}
		worktree, err := repo.Worktree()
		if err != nil {
			return fmt.Errorf("failed to get worktree: %w", err)
		}
		err = worktree.Pull(&git.PullOptions{
			RemoteName: "origin",
			Auth:       auth,
		})
		if err != nil && err != git.NoErrAlreadyUpToDate {
			return fmt.Errorf("failed to pull updates: %w", err)
		}
		return nil
	}

	_, err := git.PlainClone(localPath, false, &git.CloneOptions{
		URL:  gitURL,
		Auth: auth,
	})
	if err != nil {
		return fmt.Errorf("failed to clone repository: %w", err)
	}
	return nil
}

func checkoutBranch(repoPath, branchName string) error {
	repo, err := git.PlainOpen(repoPath)
	if err != nil {
		return fmt.Errorf("failed to open repository: %w", err)
	}

	worktree, err := repo.Worktree()
	if err != nil {
		return fmt.Errorf("failed to get worktree: %w", err)
	}

	branchRef := plumbing.ReferenceName("refs/heads/" + branchName)
	if _, err := repo.Reference(branchRef, false); err == nil {
		return worktree.Checkout(&git.CheckoutOptions{Branch: branchRef})
	}

	// Create a local branch from the remote-tracking ref.
	remoteRef := plumbing.ReferenceName("refs/remotes/origin/" + branchName)
	ref, err := repo.Reference(remoteRef, false)
	if err != nil {
		return fmt.Errorf("branch %s not found", branchName)
	}
	return worktree.Checkout(&git.CheckoutOptions{
		Branch: branchRef,
		Hash:   ref.Hash(),
		Create: true,
	})
}

// authMethod returns the appropriate auth method based on the URL.
func authMethod(gitURL string) transport.AuthMethod {
	if strings.HasPrefix(gitURL, "git@") || strings.HasPrefix(gitURL, "ssh://") {
		sshKeyPath := filepath.Join(os.Getenv("HOME"), ".ssh", "id_rsa")
		if _, err := os.Stat(sshKeyPath); err == nil {
			if auth, err := ssh.NewPublicKeysFromFile("git", sshKeyPath, ""); err == nil {
				return auth
			}
		}
	}

	if strings.HasPrefix(gitURL, "https://") {
		username := os.Getenv("GIT_USERNAME")
		password := os.Getenv("GIT_PASSWORD")
		if username != "" && password != "" {
			return &http.BasicAuth{Username: username, Password: password}
		}
		if token := os.Getenv("GITHUB_TOKEN"); token != "" {
			return &http.BasicAuth{Username: "token", Password: token}
		}
	}

	return nil
}
