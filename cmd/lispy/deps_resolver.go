package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"lispy/interpreter-go/pkg/driver"
)

const devVersion = "0.0.0-dev"

type resolvedPackage struct {
	pkg      *driver.LockedPackage
	manifest *driver.Manifest
	root     string
}

// buildExecutionSearchPaths lists the locked dependencies of a project so that
// every package comes after the packages it depends on.
func buildExecutionSearchPaths(manifest *driver.Manifest, lock *driver.Lockfile) ([]driver.SearchPath, error) {
	if lock == nil || len(lock.Packages) == 0 {
		return nil, nil
	}
	cacheDir, err := resolveLispyHome()
	if err != nil {
		return nil, err
	}

	byName := make(map[string]*driver.LockedPackage, len(lock.Packages))
	for _, pkg := range lock.Packages {
		byName[pkg.Name] = pkg
	}

	var paths []driver.SearchPath
	visited := make(map[string]bool, len(lock.Packages))
	var visit func(pkg *driver.LockedPackage) error
	visit = func(pkg *driver.LockedPackage) error {
		if done, seen := visited[pkg.Name]; seen {
			if !done {
				return fmt.Errorf("package.lock: dependency cycle at %s", pkg.Name)
			}
			return nil
		}
		visited[pkg.Name] = false
		for _, dep := range pkg.Dependencies {
			child, ok := byName[dep.Name]
			if !ok {
				return fmt.Errorf("package.lock: %s depends on %s, which is not locked", pkg.Name, dep.Name)
			}
			if err := visit(child); err != nil {
				return err
			}
		}
		visited[pkg.Name] = true
		paths = append(paths, driver.SearchPath{
			Path: resolvePackageSourcePath(pkg, manifest.Root(), cacheDir),
			Kind: driver.RootDependency,
		})
		return nil
	}
	for _, pkg := range lock.Packages {
		if err := visit(pkg); err != nil {
			return nil, err
		}
	}
	return paths, nil
}

// resolvePackageSourcePath maps a locked package to the directory holding its
// sources: the linked directory for path packages, the cache checkout otherwise.
func resolvePackageSourcePath(pkg *driver.LockedPackage, manifestRoot, cacheDir string) string {
	if pathSpec, ok := strings.CutPrefix(pkg.Source, "path:"); ok && strings.TrimSpace(pathSpec) != "" {
		pathSpec = filepath.FromSlash(strings.TrimSpace(pathSpec))
		if filepath.IsAbs(pathSpec) {
			return filepath.Clean(pathSpec)
		}
		return filepath.Join(manifestRoot, pathSpec)
	}
	return gitCheckoutDir(cacheDir, pkg.Name, pkg.Version)
}

type dependencyInstaller struct {
	manifest     *driver.Manifest
	manifestRoot string
	cacheDir     string
	logs         []string
	git          *gitFetcher
	resolved     map[string]*driver.LockedPackage
	resolving    map[string]bool
}

func newDependencyInstaller(manifest *driver.Manifest, cacheDir string) *dependencyInstaller {
	return &dependencyInstaller{
		manifest:     manifest,
		manifestRoot: manifest.Root(),
		cacheDir:     cacheDir,
		git:          newGitFetcher(cacheDir),
	}
}

// Install resolves the manifest's dependency graph into lock. It reports
// whether the locked packages changed, along with progress lines.
func (d *dependencyInstaller) Install(lock *driver.Lockfile) (bool, []string, error) {
	if d.manifest == nil {
		return false, d.logs, nil
	}
	d.logs = []string{}
	d.resolved = make(map[string]*driver.LockedPackage)
	d.resolving = make(map[string]bool)

	for _, group := range []map[string]*driver.DependencySpec{d.manifest.Dependencies, d.manifest.DevDependencies} {
		for _, name := range sortedDependencyNames(group, false) {
			if _, err := d.installDependency(name, group[name].Clone(), d.manifestRoot); err != nil {
				return false, d.logs, err
			}
		}
	}

	desired := make([]*driver.LockedPackage, 0, len(d.resolved))
	for _, pkg := range d.resolved {
		desired = append(desired, pkg)
	}
	sort.Slice(desired, func(i, j int) bool {
		return desired[i].Name < desired[j].Name
	})

	existing := make(map[string]*driver.LockedPackage, len(lock.Packages))
	for _, pkg := range lock.Packages {
		if pkg != nil {
			existing[pkg.Name] = pkg
		}
	}
	changed := len(desired) != len(existing)
	for _, pkg := range desired {
		if !pkg.Equal(existing[pkg.Name]) {
			changed = true
		}
	}

	lock.Packages = desired
	return changed, d.logs, nil
}

// installDependency resolves one dependency and, depth first, the
// non-optional dependencies of its own manifest. Relative paths resolve
// against base, the directory of the manifest that declared the dependency.
func (d *dependencyInstaller) installDependency(name string, spec *driver.DependencySpec, base string) (*driver.LockedPackage, error) {
	if spec == nil {
		return nil, fmt.Errorf("dependency %q has no descriptor", name)
	}
	key := driver.SanitizeName(name)
	if pkg, ok := d.resolved[key]; ok {
		return pkg, nil
	}
	if d.resolving[key] {
		return nil, fmt.Errorf("dependency cycle detected at %s", key)
	}
	d.resolving[key] = true
	defer delete(d.resolving, key)

	resolved, err := d.resolveDependency(key, spec, base)
	if err != nil {
		return nil, err
	}
	pkg := resolved.pkg
	pkg.Name = key
	pkg.Dependencies = nil

	if resolved.manifest != nil {
		children := resolved.manifest.Dependencies
		for _, childName := range sortedDependencyNames(children, true) {
			child, err := d.installDependency(childName, children[childName].Clone(), resolved.root)
			if err != nil {
				return nil, err
			}
			pkg.Dependencies = append(pkg.Dependencies, driver.LockedDependency{
				Name:    child.Name,
				Version: child.Version,
			})
		}
		driver.SortLockedDependencies(pkg.Dependencies)
	}

	d.resolved[key] = pkg
	return pkg, nil
}

func (d *dependencyInstaller) resolveDependency(name string, spec *driver.DependencySpec, base string) (*resolvedPackage, error) {
	switch {
	case spec.Path != "":
		return d.resolvePathDependency(name, spec, base)
	case spec.Git != "":
		return d.resolveGitDependency(name, spec)
	default:
		return nil, fmt.Errorf("dependency %q: unsupported descriptor", name)
	}
}

func (d *dependencyInstaller) resolvePathDependency(name string, spec *driver.DependencySpec, base string) (*resolvedPackage, error) {
	pathSpec := filepath.FromSlash(spec.Path)
	if !filepath.IsAbs(pathSpec) {
		pathSpec = filepath.Join(base, pathSpec)
	}
	abs, err := filepath.Abs(pathSpec)
	if err != nil {
		return nil, fmt.Errorf("dependency %q: resolve path %q: %w", name, spec.Path, err)
	}
	info, err := os.Stat(abs)
	if err != nil {
		return nil, fmt.Errorf("dependency %q: stat %s: %w", name, abs, err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("dependency %q: expected directory at %s", name, abs)
	}

	manifest, err := loadDependencyManifest(name, abs)
	if err != nil {
		return nil, err
	}
	version := packageVersion(manifest)
	d.logs = append(d.logs, fmt.Sprintf("linked %s %s (%s)", name, version, d.displayPath(abs)))
	return &resolvedPackage{
		pkg: &driver.LockedPackage{
			Version: version,
			Source:  "path:" + filepath.ToSlash(abs),
		},
		manifest: manifest,
		root:     abs,
	}, nil
}

func (d *dependencyInstaller) resolveGitDependency(name string, spec *driver.DependencySpec) (*resolvedPackage, error) {
	if d.git == nil {
		return nil, fmt.Errorf("dependency %q: git support unavailable without a cache directory", name)
	}
	pkg, root, err := d.git.Fetch(name, spec)
	if err != nil {
		return nil, fmt.Errorf("dependency %q: %w", name, err)
	}
	manifest, err := loadDependencyManifest(name, root)
	if err != nil {
		return nil, err
	}
	d.logs = append(d.logs, fmt.Sprintf("fetched git dependency %s (%s)", name, pkg.Version))
	return &resolvedPackage{pkg: pkg, manifest: manifest, root: root}, nil
}

// loadDependencyManifest returns nil for a dependency without package.yml;
// such a directory only needs a lib.lspy to be loadable.
func loadDependencyManifest(name, dir string) (*driver.Manifest, error) {
	manifestPath := filepath.Join(dir, driver.ManifestFileName)
	manifest, err := driver.LoadManifest(manifestPath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("dependency %q: %w", name, err)
	}
	return manifest, nil
}

func packageVersion(manifest *driver.Manifest) string {
	if manifest == nil || manifest.Version == "" {
		return devVersion
	}
	return manifest.Version
}

func (d *dependencyInstaller) displayPath(path string) string {
	if d.manifestRoot != "" {
		if rel, err := filepath.Rel(d.manifestRoot, path); err == nil && !strings.HasPrefix(rel, "..") {
			return rel
		}
	}
	return path
}

func sortedDependencyNames(deps map[string]*driver.DependencySpec, skipOptional bool) []string {
	names := make([]string, 0, len(deps))
	for name, spec := range deps {
		if skipOptional && spec != nil && spec.Optional {
			continue
		}
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
