package driver

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// ManifestFileName is the project manifest looked up by the CLI.
const ManifestFileName = "package.yml"

// Manifest represents the parsed contents of package.yml.
type Manifest struct {
	Path            string
	Name            string
	Version         string
	License         string
	Authors         []string
	Targets         map[string]*TargetSpec
	TargetOrder     []string
	Dependencies    map[string]*DependencySpec
	DevDependencies map[string]*DependencySpec

	targets []*TargetSpec
}

// TargetSpec describes a runnable or loadable entry point of the project.
type TargetSpec struct {
	Name         string
	OriginalName string
	Type         TargetType
	Main         string
}

// TargetType enumerates supported target kinds.
type TargetType string

const (
	TargetTypeExecutable TargetType = "executable"
	TargetTypeLibrary    TargetType = "library"
)

// DependencySpec points at another lispy project, either on disk or in a git
// repository.
type DependencySpec struct {
	Git      string
	Rev      string
	Tag      string
	Branch   string
	Path     string
	Optional bool
}

// ValidationError aggregates manifest validation failures.
type ValidationError struct {
	Issues []string
}

func (e *ValidationError) Error() string {
	if len(e.Issues) == 0 {
		return "manifest: invalid configuration"
	}
	var b strings.Builder
	b.WriteString("manifest validation failed:")
	for _, issue := range e.Issues {
		b.WriteString("\n- ")
		b.WriteString(issue)
	}
	return b.String()
}

var ErrNoExecutableTarget = errors.New("manifest: no executable targets defined")

// LoadManifest parses package.yml from disk, returning a validated manifest.
func LoadManifest(path string) (*Manifest, error) {
	if path == "" {
		return nil, fmt.Errorf("manifest: empty path")
	}
	absPath, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("manifest: resolve %s: %w", path, err)
	}
	file, err := os.Open(absPath)
	if err != nil {
		return nil, fmt.Errorf("manifest: open %s: %w", absPath, err)
	}
	defer file.Close()

	decoder := yaml.NewDecoder(file)
	decoder.KnownFields(true)

	var raw manifestFile
	if err := decoder.Decode(&raw); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("manifest: %s is empty", absPath)
		}
		return nil, fmt.Errorf("manifest: parse %s: %w", absPath, err)
	}

	manifest := raw.toManifest(absPath)
	if err := manifest.validate(); err != nil {
		return nil, err
	}
	return manifest, nil
}

// Root returns the directory containing the manifest.
func (m *Manifest) Root() string {
	if m == nil || m.Path == "" {
		return ""
	}
	return filepath.Dir(m.Path)
}

// HasDependencies reports whether any dependency group is non-empty.
func (m *Manifest) HasDependencies() bool {
	return m != nil && (len(m.Dependencies) > 0 || len(m.DevDependencies) > 0)
}

// DefaultTarget returns the first executable target in manifest order.
func (m *Manifest) DefaultTarget() (*TargetSpec, error) {
	if m == nil {
		return nil, ErrNoExecutableTarget
	}
	for _, target := range m.targets {
		if target.Type == TargetTypeExecutable {
			return target, nil
		}
	}
	return nil, ErrNoExecutableTarget
}

// LibraryTarget returns the first library target, if any.
func (m *Manifest) LibraryTarget() (*TargetSpec, bool) {
	if m == nil {
		return nil, false
	}
	for _, target := range m.targets {
		if target.Type == TargetTypeLibrary {
			return target, true
		}
	}
	return nil, false
}

// FindTarget looks up a target by sanitized or original name, ignoring case
// for the latter.
func (m *Manifest) FindTarget(name string) (*TargetSpec, bool) {
	if m == nil {
		return nil, false
	}
	name = strings.TrimSpace(name)
	if target, ok := m.Targets[sanitizeSegment(name)]; ok && name != "" {
		return target, true
	}
	for _, target := range m.targets {
		if strings.EqualFold(target.OriginalName, name) {
			return target, true
		}
	}
	return nil, false
}

// ResolveMain returns the absolute path of the target's entry file.
func (m *Manifest) ResolveMain(target *TargetSpec) (string, error) {
	if m == nil || target == nil {
		return "", fmt.Errorf("manifest: missing manifest or target")
	}
	mainPath := strings.TrimSpace(target.Main)
	if mainPath == "" {
		return "", fmt.Errorf("manifest: target %q has no main entrypoint", target.OriginalName)
	}
	if filepath.IsAbs(mainPath) {
		return filepath.Clean(mainPath), nil
	}
	return filepath.Join(m.Root(), filepath.FromSlash(mainPath)), nil
}

// IsValid reports whether the target type is recognised.
func (t TargetType) IsValid() bool {
	switch t {
	case TargetTypeExecutable, TargetTypeLibrary:
		return true
	default:
		return false
	}
}

func (m *Manifest) validate() error {
	var errs ValidationError
	if m.Name == "" {
		errs.Issues = append(errs.Issues, "name must be provided")
	}
	for i, author := range m.Authors {
		if author == "" {
			errs.Issues = append(errs.Issues, fmt.Sprintf("authors[%d] must be a non-empty string", i))
		}
	}

	seen := make(map[string]string, len(m.targets))
	for _, target := range m.targets {
		if other, exists := seen[target.Name]; exists {
			errs.Issues = append(errs.Issues, fmt.Sprintf("targets %q and %q collide after sanitization", other, target.OriginalName))
			continue
		}
		seen[target.Name] = target.OriginalName
		if !target.Type.IsValid() {
			errs.Issues = append(errs.Issues, fmt.Sprintf("target %q has unsupported type %q", target.OriginalName, target.Type))
		}
		if target.Type == TargetTypeExecutable && target.Main == "" {
			errs.Issues = append(errs.Issues, fmt.Sprintf("target %q requires an entrypoint path", target.OriginalName))
		}
	}

	for _, group := range []struct {
		name string
		deps map[string]*DependencySpec
	}{
		{name: "dependencies", deps: m.Dependencies},
		{name: "dev_dependencies", deps: m.DevDependencies},
	} {
		for depName, dep := range group.deps {
			for _, issue := range dep.validate() {
				errs.Issues = append(errs.Issues, fmt.Sprintf("%s.%s: %s", group.name, depName, issue))
			}
		}
	}

	if len(errs.Issues) > 0 {
		return &errs
	}
	return nil
}

func (d *DependencySpec) validate() []string {
	var errs []string
	if d == nil {
		return []string{"must specify git or path"}
	}
	switch {
	case d.Path != "" && d.Git != "":
		errs = append(errs, "path dependencies cannot also specify git")
	case d.Path == "" && d.Git == "":
		errs = append(errs, "must specify git or path")
	}
	refs := 0
	for _, ref := range []string{d.Rev, d.Tag, d.Branch} {
		if ref != "" {
			refs++
		}
	}
	if d.Git != "" && refs == 0 {
		errs = append(errs, "git dependencies require rev, tag, or branch")
	}
	if refs > 1 {
		errs = append(errs, "only one of rev, tag, or branch may be given")
	}
	if d.Git == "" && refs > 0 {
		errs = append(errs, "rev, tag, and branch apply only to git dependencies")
	}
	return errs
}

// Clone returns an independent copy of the descriptor.
func (d *DependencySpec) Clone() *DependencySpec {
	if d == nil {
		return nil
	}
	out := *d
	return &out
}

type manifestFile struct {
	Name            string        `yaml:"name"`
	Version         string        `yaml:"version"`
	License         string        `yaml:"license"`
	Authors         stringList    `yaml:"authors"`
	Targets         targetMap     `yaml:"targets"`
	Dependencies    dependencyMap `yaml:"dependencies"`
	DevDependencies dependencyMap `yaml:"dev_dependencies"`
}

type targetEntry struct {
	name string
	typ  TargetType
	main string
}

// targetMap keeps targets in file order. A target is either a bare entry path
// (an executable) or a mapping with type and main.
type targetMap struct {
	items []targetEntry
}

func (tm *targetMap) UnmarshalYAML(value *yaml.Node) error {
	if value.Kind == 0 || (value.Kind == yaml.ScalarNode && value.Tag == "!!null") {
		tm.items = nil
		return nil
	}
	if value.Kind != yaml.MappingNode {
		return fmt.Errorf("manifest: targets must be a mapping")
	}
	items := make([]targetEntry, 0, len(value.Content)/2)
	for i := 0; i < len(value.Content); i += 2 {
		var key string
		if err := value.Content[i].Decode(&key); err != nil {
			return err
		}
		key = strings.TrimSpace(key)
		if key == "" {
			return fmt.Errorf("manifest: targets must not use empty keys")
		}
		entry := targetEntry{name: key}
		node := value.Content[i+1]
		switch node.Kind {
		case yaml.ScalarNode:
			entry.typ = TargetTypeExecutable
			if node.Tag != "!!null" {
				entry.main = strings.TrimSpace(node.Value)
			}
		case yaml.MappingNode:
			var raw struct {
				Type TargetType `yaml:"type"`
				Main string     `yaml:"main"`
			}
			if err := node.Decode(&raw); err != nil {
				return fmt.Errorf("manifest: target %q: %w", key, err)
			}
			entry.typ = TargetType(strings.TrimSpace(string(raw.Type)))
			if entry.typ == "" {
				entry.typ = TargetTypeExecutable
			}
			entry.main = strings.TrimSpace(raw.Main)
		default:
			return fmt.Errorf("manifest: target %q must be a path or mapping, found %s", key, node.ShortTag())
		}
		items = append(items, entry)
	}
	tm.items = items
	return nil
}

type dependencyMap map[string]*DependencySpec

// UnmarshalYAML accepts either a mapping descriptor or a bare string, which is
// shorthand for a path dependency.
func (dm *dependencyMap) UnmarshalYAML(value *yaml.Node) error {
	if value.Kind == 0 || (value.Kind == yaml.ScalarNode && value.Tag == "!!null") {
		*dm = make(dependencyMap)
		return nil
	}
	if value.Kind != yaml.MappingNode {
		return fmt.Errorf("manifest: dependencies must be a mapping")
	}
	result := make(dependencyMap, len(value.Content)/2)
	for i := 0; i < len(value.Content); i += 2 {
		var key string
		if err := value.Content[i].Decode(&key); err != nil {
			return err
		}
		key = strings.TrimSpace(key)
		if key == "" {
			return fmt.Errorf("manifest: dependency names must be non-empty")
		}
		dep, err := decodeDependency(value.Content[i+1])
		if err != nil {
			return fmt.Errorf("manifest: dependency %q: %w", key, err)
		}
		result[key] = dep
	}
	*dm = result
	return nil
}

func decodeDependency(value *yaml.Node) (*DependencySpec, error) {
	switch value.Kind {
	case yaml.ScalarNode:
		if value.Tag == "!!null" {
			return nil, nil
		}
		return &DependencySpec{Path: strings.TrimSpace(value.Value)}, nil
	case yaml.MappingNode:
		var raw struct {
			Git      string `yaml:"git"`
			Rev      string `yaml:"rev"`
			Tag      string `yaml:"tag"`
			Branch   string `yaml:"branch"`
			Path     string `yaml:"path"`
			Optional bool   `yaml:"optional"`
		}
		if err := value.Decode(&raw); err != nil {
			return nil, err
		}
		return &DependencySpec{
			Git:      strings.TrimSpace(raw.Git),
			Rev:      strings.TrimSpace(raw.Rev),
			Tag:      strings.TrimSpace(raw.Tag),
			Branch:   strings.TrimSpace(raw.Branch),
			Path:     strings.TrimSpace(raw.Path),
			Optional: raw.Optional,
		}, nil
	case yaml.AliasNode:
		return decodeDependency(value.Alias)
	default:
		return nil, fmt.Errorf("expected string or mapping, found %s", value.ShortTag())
	}
}

type stringList []string

func (l *stringList) UnmarshalYAML(value *yaml.Node) error {
	switch value.Kind {
	case 0:
		*l = nil
		return nil
	case yaml.ScalarNode:
		if value.Tag == "!!null" {
			*l = nil
			return nil
		}
		*l = stringList{strings.TrimSpace(value.Value)}
		return nil
	case yaml.SequenceNode:
		items := make([]string, 0, len(value.Content))
		for _, node := range value.Content {
			var str string
			if err := node.Decode(&str); err != nil {
				return err
			}
			items = append(items, strings.TrimSpace(str))
		}
		*l = items
		return nil
	case yaml.AliasNode:
		return l.UnmarshalYAML(value.Alias)
	default:
		return fmt.Errorf("manifest: expected string or sequence for list but found %s", value.ShortTag())
	}
}

func (mf manifestFile) toManifest(path string) *Manifest {
	result := &Manifest{
		Path:            path,
		Name:            sanitizeSegment(mf.Name),
		Version:         strings.TrimSpace(mf.Version),
		License:         strings.TrimSpace(mf.License),
		Authors:         append([]string(nil), mf.Authors...),
		Targets:         make(map[string]*TargetSpec, len(mf.Targets.items)),
		TargetOrder:     make([]string, 0, len(mf.Targets.items)),
		Dependencies:    cloneDependencies(mf.Dependencies),
		DevDependencies: cloneDependencies(mf.DevDependencies),
	}
	for _, item := range mf.Targets.items {
		spec := &TargetSpec{
			Name:         sanitizeSegment(item.name),
			OriginalName: item.name,
			Type:         item.typ,
			Main:         item.main,
		}
		if _, exists := result.Targets[spec.Name]; !exists {
			result.Targets[spec.Name] = spec
			result.TargetOrder = append(result.TargetOrder, spec.Name)
		}
		result.targets = append(result.targets, spec)
	}
	return result
}

func cloneDependencies(src dependencyMap) map[string]*DependencySpec {
	out := make(map[string]*DependencySpec, len(src))
	for name, dep := range src {
		out[name] = dep.Clone()
	}
	return out
}
