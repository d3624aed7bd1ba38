package driver

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// LockfileName sits next to package.yml.
const LockfileName = "package.lock"

// Lockfile records the resolved dependency graph of a project.
type Lockfile struct {
	Path      string
	Root      string
	Generated string
	Tool      string
	Packages  []*LockedPackage
}

// LockedPackage is one resolved dependency. Source is "path:<dir>" for local
// projects and "git+<url>@<commit>" for git checkouts.
type LockedPackage struct {
	Name         string
	Version      string
	Source       string
	Checksum     string
	Dependencies []LockedDependency
}

// LockedDependency is an edge from a locked package to one of its own
// dependencies.
type LockedDependency struct {
	Name    string
	Version string
}

// NewLockfile returns an empty lockfile for the named root project.
func NewLockfile(root, tool string) *Lockfile {
	return &Lockfile{
		Root:      sanitizeSegment(root),
		Generated: time.Now().UTC().Format(time.RFC3339),
		Tool:      strings.TrimSpace(tool),
		Packages:  []*LockedPackage{},
	}
}

// LockfilePathFor returns where the lockfile of manifest lives.
func LockfilePathFor(manifest *Manifest) string {
	return filepath.Join(manifest.Root(), LockfileName)
}

// LoadLockfile parses package.lock. A missing file is reported with an error
// satisfying errors.Is(err, os.ErrNotExist).
func LoadLockfile(path string) (*Lockfile, error) {
	if path == "" {
		return nil, fmt.Errorf("lockfile: empty path")
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("lockfile: resolve %s: %w", path, err)
	}
	data, err := os.ReadFile(abs)
	if err != nil {
		return nil, fmt.Errorf("lockfile: read %s: %w", abs, err)
	}

	var disk lockfileDisk
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&disk); err != nil {
		return nil, fmt.Errorf("lockfile: parse %s: %w", abs, err)
	}

	lock := &Lockfile{
		Path:      abs,
		Root:      disk.Root,
		Generated: disk.Generated,
		Tool:      disk.Tool,
	}
	for _, pkg := range disk.Packages {
		locked := &LockedPackage{
			Name:     pkg.Name,
			Version:  pkg.Version,
			Source:   pkg.Source,
			Checksum: pkg.Checksum,
		}
		for _, dep := range pkg.Dependencies {
			locked.Dependencies = append(locked.Dependencies, LockedDependency(dep))
		}
		lock.Packages = append(lock.Packages, locked)
	}
	lock.normalize()
	return lock, nil
}

// WriteLockfile serialises lock to path, or to lock.Path when path is empty.
func WriteLockfile(lock *Lockfile, path string) error {
	if lock == nil {
		return fmt.Errorf("lockfile: nil lockfile")
	}
	if path == "" {
		path = lock.Path
	}
	if path == "" {
		return fmt.Errorf("lockfile: missing path")
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return fmt.Errorf("lockfile: resolve %s: %w", path, err)
	}
	if lock.Generated == "" {
		lock.Generated = time.Now().UTC().Format(time.RFC3339)
	}
	lock.Path = abs
	lock.normalize()

	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(lock.toDisk()); err != nil {
		return fmt.Errorf("lockfile: marshal %s: %w", abs, err)
	}
	if err := enc.Close(); err != nil {
		return fmt.Errorf("lockfile: encoder close: %w", err)
	}
	if err := os.WriteFile(abs, buf.Bytes(), 0o644); err != nil {
		return fmt.Errorf("lockfile: write %s: %w", abs, err)
	}
	return nil
}

// Find returns the locked package with the given name.
func (l *Lockfile) Find(name string) (*LockedPackage, bool) {
	if l == nil {
		return nil, false
	}
	name = sanitizeSegment(name)
	for _, pkg := range l.Packages {
		if pkg != nil && pkg.Name == name {
			return pkg, true
		}
	}
	return nil, false
}

// Equal reports whether two locked packages describe the same resolution.
func (p *LockedPackage) Equal(other *LockedPackage) bool {
	if p == nil || other == nil {
		return p == other
	}
	if p.Name != other.Name || p.Version != other.Version || p.Source != other.Source || p.Checksum != other.Checksum {
		return false
	}
	if len(p.Dependencies) != len(other.Dependencies) {
		return false
	}
	for i := range p.Dependencies {
		if p.Dependencies[i] != other.Dependencies[i] {
			return false
		}
	}
	return true
}

// normalize trims fields and sorts packages and edges by name so the written
// file is stable across runs.
func (l *Lockfile) normalize() {
	l.Root = sanitizeSegment(l.Root)
	l.Generated = strings.TrimSpace(l.Generated)
	l.Tool = strings.TrimSpace(l.Tool)

	packages := l.Packages[:0]
	for _, pkg := range l.Packages {
		if pkg == nil {
			continue
		}
		pkg.Name = sanitizeSegment(pkg.Name)
		pkg.Version = strings.TrimSpace(pkg.Version)
		pkg.Source = strings.TrimSpace(pkg.Source)
		pkg.Checksum = strings.TrimSpace(pkg.Checksum)
		for i := range pkg.Dependencies {
			pkg.Dependencies[i].Name = sanitizeSegment(pkg.Dependencies[i].Name)
			pkg.Dependencies[i].Version = strings.TrimSpace(pkg.Dependencies[i].Version)
		}
		SortLockedDependencies(pkg.Dependencies)
		packages = append(packages, pkg)
	}
	sort.SliceStable(packages, func(i, j int) bool {
		return packages[i].Name < packages[j].Name
	})
	l.Packages = packages
}

// SortLockedDependencies orders dependency edges the way they are written.
func SortLockedDependencies(deps []LockedDependency) {
	sort.SliceStable(deps, func(i, j int) bool {
		if deps[i].Name == deps[j].Name {
			return deps[i].Version < deps[j].Version
		}
		return deps[i].Name < deps[j].Name
	})
}

func (l *Lockfile) toDisk() lockfileDisk {
	disk := lockfileDisk{
		Root:      l.Root,
		Generated: l.Generated,
		Tool:      l.Tool,
		Packages:  make([]lockfilePackage, 0, len(l.Packages)),
	}
	for _, pkg := range l.Packages {
		entry := lockfilePackage{
			Name:     pkg.Name,
			Version:  pkg.Version,
			Source:   pkg.Source,
			Checksum: pkg.Checksum,
		}
		for _, dep := range pkg.Dependencies {
			entry.Dependencies = append(entry.Dependencies, lockfileDependency(dep))
		}
		disk.Packages = append(disk.Packages, entry)
	}
	return disk
}

type lockfileDisk struct {
	Root      string            `yaml:"root"`
	Generated string            `yaml:"generated"`
	Tool      string            `yaml:"tool"`
	Packages  []lockfilePackage `yaml:"packages"`
}

type lockfilePackage struct {
	Name         string               `yaml:"name"`
	Version      string               `yaml:"version"`
	Source       string               `yaml:"source"`
	Checksum     string               `yaml:"checksum,omitempty"`
	Dependencies []lockfileDependency `yaml:"dependencies,omitempty"`
}

type lockfileDependency struct {
	Name    string `yaml:"name"`
	Version string `yaml:"version"`
}
