package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"lispy/interpreter-go/pkg/driver"
	"lispy/interpreter-go/pkg/interpreter"
)

const (
	languageVersion = "0.0002"
	cliToolVersion  = "lispy " + languageVersion
	defaultPrompt   = "lispy> "
)

var errManifestNotFound = errors.New("package.yml not found")

// cliOptions holds the flags shared by run and repl.
type cliOptions struct {
	prompt    string
	noPrelude bool
}

func main() {
	os.Exit(run(os.Args[1:]))
}

func run(args []string) int {
	if len(args) == 0 {
		return runRepl(nil)
	}

	switch args[0] {
	case "--help", "-h", "help":
		printUsage()
		return 0
	case "--version", "-V", "version":
		fmt.Fprintln(os.Stdout, cliToolVersion)
		return 0
	case "run":
		return runEntry(args[1:])
	case "repl":
		return runRepl(args[1:])
	case "deps":
		return runDeps(args[1:])
	default:
		if strings.HasPrefix(args[0], "--") {
			return runRepl(args)
		}
		return runEntry(args)
	}
}

// parseOptions splits recognised flags from positional arguments.
func parseOptions(args []string) (cliOptions, []string, error) {
	opts := cliOptions{prompt: defaultPrompt}
	var rest []string
	for _, arg := range args {
		switch {
		case arg == "--no-prelude":
			opts.noPrelude = true
		case strings.HasPrefix(arg, "--prompt="):
			opts.prompt = strings.TrimPrefix(arg, "--prompt=")
		case arg == "--prompt":
			return opts, nil, fmt.Errorf("--prompt requires a value (use --prompt=<text>)")
		case strings.HasPrefix(arg, "--"):
			return opts, nil, fmt.Errorf("unknown flag %s", arg)
		default:
			rest = append(rest, arg)
		}
	}
	return opts, rest, nil
}

func runEntry(args []string) int {
	opts, args, err := parseOptions(args)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	if len(args) > 1 {
		fmt.Fprintf(os.Stderr, "unexpected arguments: %s\n", strings.Join(args[1:], " "))
		return 1
	}

	manifest, err := loadManifestFrom(".")
	if err != nil {
		switch {
		case errors.Is(err, errManifestNotFound):
			manifest = nil
		case len(args) == 1 && looksLikePathCandidate(args[0]):
			fmt.Fprintf(os.Stderr, "warning: unable to load manifest (%v); falling back to direct file execution\n", err)
			manifest = nil
		default:
			fmt.Fprintf(os.Stderr, "failed to load manifest: %v\n", err)
			return 1
		}
	}

	if len(args) == 0 {
		if manifest == nil {
			fmt.Fprintln(os.Stderr, "lispy run requires a manifest target or source file (package.yml not found)")
			return 1
		}
		target, err := manifest.DefaultTarget()
		if err != nil {
			fmt.Fprintf(os.Stderr, "manifest error: %v\n", err)
			return 1
		}
		return runTarget(manifest, target, opts)
	}

	candidate := args[0]
	if manifest != nil && !looksLikePathCandidate(candidate) {
		if target, ok := manifest.FindTarget(candidate); ok {
			return runTarget(manifest, target, opts)
		}
	}

	// A direct file uses the manifest of the directory it lives in, if any.
	entryManifest, err := loadManifestFrom(candidate)
	if err != nil && !errors.Is(err, errManifestNotFound) {
		fmt.Fprintf(os.Stderr, "failed to read manifest for %s: %v\n", candidate, err)
		return 1
	}
	lock, err := loadLockfileForManifest(entryManifest)
	if err != nil {
		fmt.Fprintf(os.Stderr, "%v\n", err)
		return 1
	}
	return executeEntry(candidate, entryManifest, lock, opts)
}

func runTarget(manifest *driver.Manifest, target *driver.TargetSpec, opts cliOptions) int {
	if target.Type != driver.TargetTypeExecutable {
		fmt.Fprintf(os.Stderr, "target %q is a %s and cannot be run\n", target.OriginalName, target.Type)
		return 1
	}
	entryPath, err := manifest.ResolveMain(target)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to resolve target %q: %v\n", target.OriginalName, err)
		return 1
	}
	lock, err := loadLockfileForManifest(manifest)
	if err != nil {
		fmt.Fprintf(os.Stderr, "%v\n", err)
		return 1
	}
	return executeEntry(entryPath, manifest, lock, opts)
}

func executeEntry(entry string, manifest *driver.Manifest, lock *driver.Lockfile, opts cliOptions) int {
	entry = strings.TrimSpace(entry)
	if entry == "" {
		fmt.Fprintln(os.Stderr, "lispy run requires a source file")
		return 1
	}
	loader := driver.NewLoader(interpreter.New(), os.Stdout)
	if err := preload(loader, manifest, lock, opts); err != nil {
		fmt.Fprintf(os.Stderr, "failed to load libraries: %v\n", err)
		return 1
	}
	if err := loader.RunFile(entry); err != nil {
		fmt.Fprintf(os.Stderr, "%v\n", err)
		return 1
	}
	return 0
}

// preload loads LISPY_PATH directories and then locked dependencies, in
// dependency order, into the loader's session.
func preload(loader *driver.Loader, manifest *driver.Manifest, lock *driver.Lockfile, opts cliOptions) error {
	var paths []driver.SearchPath
	if !opts.noPrelude {
		paths = append(paths, preludeSearchPaths()...)
	}
	deps, err := buildExecutionSearchPaths(manifest, lock)
	if err != nil {
		return err
	}
	paths = append(paths, deps...)
	return loader.Preload(paths)
}

func preludeSearchPaths() []driver.SearchPath {
	var paths []driver.SearchPath
	seen := make(map[string]struct{})
	for _, part := range filepath.SplitList(os.Getenv("LISPY_PATH")) {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		abs, err := filepath.Abs(part)
		if err != nil {
			continue
		}
		if info, err := os.Stat(abs); err != nil || !info.IsDir() {
			continue
		}
		if _, ok := seen[abs]; ok {
			continue
		}
		seen[abs] = struct{}{}
		paths = append(paths, driver.SearchPath{Path: abs, Kind: driver.RootPrelude})
	}
	return paths
}

func looksLikePathCandidate(arg string) bool {
	if arg == "" {
		return false
	}
	if strings.ContainsAny(arg, `/\`) || strings.Contains(arg, string(os.PathSeparator)) {
		return true
	}
	return filepath.Ext(arg) == driver.SourceExt || strings.HasPrefix(arg, ".")
}
