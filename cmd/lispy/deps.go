package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"lispy/interpreter-go/pkg/driver"
)

func runDeps(args []string) int {
	if len(args) == 0 {
		fmt.Fprintln(os.Stderr, "lispy deps requires a subcommand (install, update)")
		return 1
	}
	switch args[0] {
	case "install":
		if len(args) > 1 {
			fmt.Fprintf(os.Stderr, "lispy deps install does not take arguments (received %s)\n", strings.Join(args[1:], " "))
			return 1
		}
		return runDepsInstall()
	case "update":
		return runDepsUpdate(args[1:])
	default:
		fmt.Fprintf(os.Stderr, "unknown deps subcommand %q\n", args[0])
		return 1
	}
}

// depsContext is the state shared by install and update.
type depsContext struct {
	manifest    *driver.Manifest
	cacheDir    string
	lock        *driver.Lockfile
	lockCreated bool
}

func openDepsContext() (*depsContext, error) {
	manifest, err := loadManifestFrom(".")
	if err != nil {
		if errors.Is(err, errManifestNotFound) {
			return nil, fmt.Errorf("unable to locate package.yml: %w", err)
		}
		return nil, fmt.Errorf("failed to read manifest: %w", err)
	}
	cacheDir, err := resolveLispyHome()
	if err != nil {
		return nil, fmt.Errorf("failed to resolve LISPY_HOME: %w", err)
	}

	ctx := &depsContext{manifest: manifest, cacheDir: cacheDir}
	lockPath := driver.LockfilePathFor(manifest)
	lock, err := driver.LoadLockfile(lockPath)
	switch {
	case err == nil:
		if lock.Root != manifest.Name {
			return nil, fmt.Errorf("lockfile root %q does not match manifest name %q", lock.Root, manifest.Name)
		}
	case errors.Is(err, os.ErrNotExist):
		lock = driver.NewLockfile(manifest.Name, cliToolVersion)
		ctx.lockCreated = true
	default:
		return nil, fmt.Errorf("failed to read lockfile: %w", err)
	}
	lock.Path = lockPath
	lock.Tool = cliToolVersion
	ctx.lock = lock
	return ctx, nil
}

// install resolves the manifest into the lockfile and writes it when the
// resolution changed. It returns the verb describing what happened to the
// lockfile, or "" when it was already current.
func (c *depsContext) install() (string, error) {
	installer := newDependencyInstaller(c.manifest, c.cacheDir)
	changed, logs, err := installer.Install(c.lock)
	for _, line := range logs {
		fmt.Fprintln(os.Stdout, line)
	}
	if err != nil {
		return "", err
	}
	if !changed && !c.lockCreated {
		return "", nil
	}
	if err := driver.WriteLockfile(c.lock, c.lock.Path); err != nil {
		return "", err
	}
	if c.lockCreated {
		return "Created", nil
	}
	return "Updated", nil
}

func runDepsInstall() int {
	ctx, err := openDepsContext()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}

	fmt.Fprintf(os.Stdout, "Manifest: %s\n", ctx.manifest.Path)
	fmt.Fprintf(os.Stdout, "Root package: %s\n", ctx.manifest.Name)
	fmt.Fprintf(os.Stdout, "Dependencies: %d\n", len(ctx.manifest.Dependencies)+len(ctx.manifest.DevDependencies))
	fmt.Fprintf(os.Stdout, "Cache directory: %s\n", ctx.cacheDir)

	action, err := ctx.install()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to resolve dependencies: %v\n", err)
		return 1
	}
	if action == "" {
		fmt.Fprintf(os.Stdout, "package.lock already up to date: %s\n", ctx.lock.Path)
	} else {
		fmt.Fprintf(os.Stdout, "%s package.lock: %s\n", action, ctx.lock.Path)
	}
	fmt.Fprintln(os.Stdout, "Dependencies installed.")
	return 0
}

// runDepsUpdate re-resolves the named dependencies, or all of them when none
// are named, by dropping their locked entries before installing.
func runDepsUpdate(names []string) int {
	ctx, err := openDepsContext()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}

	updateSet := make(map[string]struct{}, len(names))
	declared := make(map[string]struct{})
	for _, group := range []map[string]*driver.DependencySpec{ctx.manifest.Dependencies, ctx.manifest.DevDependencies} {
		for name := range group {
			declared[driver.SanitizeName(name)] = struct{}{}
		}
	}
	for _, name := range names {
		key := driver.SanitizeName(name)
		if _, ok := declared[key]; !ok {
			fmt.Fprintf(os.Stderr, "dependency %q not declared in manifest\n", name)
			return 1
		}
		updateSet[key] = struct{}{}
	}

	if len(updateSet) == 0 {
		ctx.lock.Packages = nil
	} else {
		kept := ctx.lock.Packages[:0]
		for _, pkg := range ctx.lock.Packages {
			if _, drop := updateSet[pkg.Name]; !drop {
				kept = append(kept, pkg)
			}
		}
		ctx.lock.Packages = kept
	}

	action, err := ctx.install()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to update dependencies: %v\n", err)
		return 1
	}
	if action == "" {
		fmt.Fprintln(os.Stdout, "Dependencies already up to date.")
	} else {
		fmt.Fprintf(os.Stdout, "%s package.lock: %s\n", action, ctx.lock.Path)
	}
	return 0
}

func loadManifestFrom(start string) (*driver.Manifest, error) {
	absStart, err := filepath.Abs(start)
	if err != nil {
		return nil, fmt.Errorf("resolve manifest search path %q: %w", start, err)
	}
	if info, statErr := os.Stat(absStart); statErr != nil || !info.IsDir() {
		absStart = filepath.Dir(absStart)
	}
	manifestPath, err := findManifest(absStart)
	if err != nil {
		return nil, err
	}
	return driver.LoadManifest(manifestPath)
}

func findManifest(start string) (string, error) {
	dir, err := filepath.Abs(start)
	if err != nil {
		return "", fmt.Errorf("resolve start directory %q: %w", start, err)
	}
	origin := dir
	for {
		candidate := filepath.Join(dir, driver.ManifestFileName)
		info, err := os.Stat(candidate)
		if err == nil && !info.IsDir() {
			return candidate, nil
		}
		if err != nil && !errors.Is(err, os.ErrNotExist) {
			return "", err
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return "", fmt.Errorf("no package.yml found from %s upwards: %w", origin, errManifestNotFound)
		}
		dir = parent
	}
}

func resolveLispyHome() (string, error) {
	if home := strings.TrimSpace(os.Getenv("LISPY_HOME")); home != "" {
		abs, err := filepath.Abs(home)
		if err != nil {
			return "", fmt.Errorf("resolve LISPY_HOME %q: %w", home, err)
		}
		return abs, nil
	}
	userHome, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("resolve user home: %w", err)
	}
	return filepath.Join(userHome, ".lispy"), nil
}

// loadLockfileForManifest returns the lockfile a run should preload from. A
// manifest without dependencies needs none.
func loadLockfileForManifest(manifest *driver.Manifest) (*driver.Lockfile, error) {
	if manifest == nil {
		return nil, nil
	}
	lockPath := driver.LockfilePathFor(manifest)
	lock, err := driver.LoadLockfile(lockPath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			if manifest.HasDependencies() {
				return nil, fmt.Errorf("package.lock missing for %q; run `lispy deps install`", manifest.Name)
			}
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read lockfile %s: %w", lockPath, err)
	}
	if lock.Root != manifest.Name {
		return nil, fmt.Errorf("lockfile root %q does not match manifest name %q", lock.Root, manifest.Name)
	}
	return lock, nil
}
