package main

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"lispy/interpreter-go/pkg/driver"
	git "github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
)

type gitFetcher struct {
	cacheDir string
}

func newGitFetcher(cacheDir string) *gitFetcher {
	if cacheDir == "" {
		return nil
	}
	return &gitFetcher{cacheDir: cacheDir}
}

func gitPackageDir(cacheDir, name string) string {
	return filepath.Join(cacheDir, "pkg", "src", driver.SanitizeName(name))
}

// gitCheckoutDir is where a locked git package's sources live in the cache.
func gitCheckoutDir(cacheDir, name, version string) string {
	return filepath.Join(gitPackageDir(cacheDir, name), sanitizePathSegment(version))
}

// Fetch checks out the pinned revision of a git dependency into the cache and
// returns its locked entry along with the checkout directory.
func (g *gitFetcher) Fetch(name string, spec *driver.DependencySpec) (*driver.LockedPackage, string, error) {
	if g == nil {
		return nil, "", errors.New("git fetcher unavailable")
	}
	url := strings.TrimSpace(spec.Git)
	if url == "" {
		return nil, "", errors.New("git URL required")
	}

	baseDir := gitPackageDir(g.cacheDir, name)
	version, commit, err := ensureGitCheckout(baseDir, url, spec)
	if err != nil {
		return nil, "", err
	}
	checkoutDir := gitCheckoutDir(g.cacheDir, name, version)
	checksum, err := dirChecksum(checkoutDir)
	if err != nil {
		return nil, "", fmt.Errorf("checksum %s: %w", checkoutDir, err)
	}
	return &driver.LockedPackage{
		Name:     driver.SanitizeName(name),
		Version:  version,
		Source:   fmt.Sprintf("git+%s@%s", url, commit),
		Checksum: checksum,
	}, checkoutDir, nil
}

// ensureGitCheckout clones url into a scratch directory, checks out the
// requested revision, and moves the tree to baseDir/<version>. An existing
// checkout of the same version is reused.
func ensureGitCheckout(baseDir, url string, spec *driver.DependencySpec) (string, string, error) {
	if err := os.MkdirAll(baseDir, 0o755); err != nil {
		return "", "", err
	}
	revision, descriptor, err := gitRevisionFromSpec(spec)
	if err != nil {
		return "", "", err
	}

	if rev := strings.TrimSpace(spec.Rev); rev != "" {
		if _, err := os.Stat(filepath.Join(baseDir, sanitizePathSegment(rev))); err == nil {
			return rev, rev, nil
		}
	}

	tmpDir, err := os.MkdirTemp(baseDir, "git-fetch-*")
	if err != nil {
		return "", "", err
	}
	if err := os.RemoveAll(tmpDir); err != nil {
		return "", "", err
	}
	cleanup := func() { _ = os.RemoveAll(tmpDir) }

	repo, err := git.PlainClone(tmpDir, false, &git.CloneOptions{
		URL:               url,
		RecurseSubmodules: git.DefaultSubmoduleRecursionDepth,
	})
	if err != nil {
		cleanup()
		return "", "", fmt.Errorf("git clone %s: %w", url, err)
	}
	hash, err := repo.ResolveRevision(revision)
	if err != nil {
		cleanup()
		return "", "", fmt.Errorf("resolve revision %s: %w", revision, err)
	}

	commit := hash.String()
	version := gitPinnedVersion(descriptor, commit)
	targetDir := filepath.Join(baseDir, sanitizePathSegment(version))
	if _, err := os.Stat(targetDir); err == nil {
		cleanup()
		return version, commit, nil
	}

	worktree, err := repo.Worktree()
	if err != nil {
		cleanup()
		return "", "", err
	}
	if err := worktree.Checkout(&git.CheckoutOptions{Hash: *hash, Force: true}); err != nil {
		cleanup()
		return "", "", fmt.Errorf("git checkout %s: %w", revision, err)
	}
	if err := os.Rename(tmpDir, targetDir); err != nil {
		cleanup()
		return "", "", err
	}
	return version, commit, nil
}

// gitPinnedVersion names a checkout: the commit alone, or tag@commit /
// branch@commit when the manifest pinned a symbolic ref.
func gitPinnedVersion(descriptor, commit string) string {
	if descriptor == "" || descriptor == commit {
		return commit
	}
	return descriptor + "@" + commit
}

func gitRevisionFromSpec(spec *driver.DependencySpec) (plumbing.Revision, string, error) {
	if rev := strings.TrimSpace(spec.Rev); rev != "" {
		return plumbing.Revision(rev), rev, nil
	}
	if tag := strings.TrimSpace(spec.Tag); tag != "" {
		return plumbing.Revision("refs/tags/" + tag), tag, nil
	}
	if branch := strings.TrimSpace(spec.Branch); branch != "" {
		// Only the default branch gets a local ref after a clone.
		return plumbing.Revision("refs/remotes/origin/" + branch), branch, nil
	}
	return "", "", fmt.Errorf("git dependencies require rev, tag, or branch")
}

// dirChecksum hashes every file under path except git metadata, keyed by its
// slash-separated relative path.
func dirChecksum(path string) (string, error) {
	h := sha256.New()
	err := filepath.WalkDir(path, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if d.Name() == ".git" {
				return filepath.SkipDir
			}
			return nil
		}
		rel, err := filepath.Rel(path, p)
		if err != nil {
			return err
		}
		data, err := os.ReadFile(p)
		if err != nil {
			return err
		}
		h.Write([]byte(filepath.ToSlash(rel)))
		h.Write([]byte{0})
		h.Write(data)
		return nil
	})
	if err != nil {
		return "", err
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}

func sanitizePathSegment(segment string) string {
	segment = strings.TrimSpace(segment)
	if segment == "" {
		return "head"
	}
	var b strings.Builder
	for _, r := range segment {
		if (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9') || r == '.' || r == '-' || r == '_' {
			b.WriteRune(r)
		} else {
			b.WriteByte('_')
		}
	}
	return b.String()
}
