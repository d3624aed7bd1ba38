package driver

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"lispy/interpreter-go/pkg/interpreter"
	"lispy/interpreter-go/pkg/parser"
	"lispy/interpreter-go/pkg/runtime"
)

// SourceExt is the extension of lispy source files.
const SourceExt = ".lspy"

// LibraryEntryFile is loaded from a library directory that has no manifest
// library target.
const LibraryEntryFile = "lib" + SourceExt

// ErrNoLibraryEntry reports a directory with nothing to preload.
var ErrNoLibraryEntry = errors.New("no library entry")

type RootKind int

const (
	// RootDependency is an installed project dependency; it must provide an entry.
	RootDependency RootKind = iota
	// RootPrelude is a directory named on LISPY_PATH; it is skipped when empty.
	RootPrelude
)

// SearchPath is a directory whose library entry is loaded before a program.
type SearchPath struct {
	Path string
	Kind RootKind
}

// StatementError reports a library statement that evaluated to an error.
type StatementError struct {
	File  string
	Line  int
	Value runtime.ErrorValue
}

func (e *StatementError) Error() string {
	return fmt.Sprintf("%s:%d: %s", e.File, e.Line, e.Value.String())
}

// Loader feeds source files into one interpreter session.
type Loader struct {
	interp *interpreter.Interpreter
	out    io.Writer
	loaded map[string]struct{}
}

// NewLoader returns a loader evaluating into interp and printing program
// results to out.
func NewLoader(interp *interpreter.Interpreter, out io.Writer) *Loader {
	if out == nil {
		out = io.Discard
	}
	return &Loader{
		interp: interp,
		out:    out,
		loaded: make(map[string]struct{}),
	}
}

// Interpreter returns the session the loader evaluates into.
func (l *Loader) Interpreter() *interpreter.Interpreter {
	return l.interp
}

// LibraryEntry returns the file to preload from dir: the main of the first
// library target in dir/package.yml, or dir/lib.lspy.
func LibraryEntry(dir string) (string, error) {
	manifestPath := filepath.Join(dir, ManifestFileName)
	if _, err := os.Stat(manifestPath); err == nil {
		manifest, err := LoadManifest(manifestPath)
		if err != nil {
			return "", err
		}
		if target, ok := manifest.LibraryTarget(); ok && target.Main != "" {
			return manifest.ResolveMain(target)
		}
	} else if !errors.Is(err, os.ErrNotExist) {
		return "", fmt.Errorf("loader: stat %s: %w", manifestPath, err)
	}

	entry := filepath.Join(dir, LibraryEntryFile)
	info, err := os.Stat(entry)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return "", fmt.Errorf("loader: %s: %w", dir, ErrNoLibraryEntry)
		}
		return "", fmt.Errorf("loader: stat %s: %w", entry, err)
	}
	if info.IsDir() {
		return "", fmt.Errorf("loader: %s is a directory", entry)
	}
	return entry, nil
}

// Preload evaluates the library entry of each search path in order. Library
// results are not printed; the first statement that yields an error value
// stops the preload with a *StatementError.
func (l *Loader) Preload(paths []SearchPath) error {
	for _, sp := range paths {
		entry, err := LibraryEntry(sp.Path)
		if err != nil {
			if sp.Kind == RootPrelude && errors.Is(err, ErrNoLibraryEntry) {
				continue
			}
			return err
		}
		if err := l.LoadLibrary(entry); err != nil {
			return err
		}
	}
	return nil
}

// LoadLibrary evaluates path once per session without printing results.
func (l *Loader) LoadLibrary(path string) error {
	abs, err := filepath.Abs(path)
	if err != nil {
		return fmt.Errorf("loader: resolve %s: %w", path, err)
	}
	if _, done := l.loaded[abs]; done {
		return nil
	}
	l.loaded[abs] = struct{}{}
	return l.evalFile(abs, func(line int, val runtime.Value) error {
		if errVal, ok := val.(runtime.ErrorValue); ok {
			return &StatementError{File: abs, Line: line, Value: errVal}
		}
		return nil
	})
}

// RunFile evaluates every statement of path and prints each result on its own
// line. Error values are printed like any other result; only unreadable or
// syntactically invalid files return an error.
func (l *Loader) RunFile(path string) error {
	abs, err := filepath.Abs(path)
	if err != nil {
		return fmt.Errorf("loader: resolve %s: %w", path, err)
	}
	l.loaded[abs] = struct{}{}
	return l.evalFile(abs, func(_ int, val runtime.Value) error {
		_, err := fmt.Fprintln(l.out, interpreter.Render(val))
		return err
	})
}

func (l *Loader) evalFile(path string, each func(line int, val runtime.Value) error) error {
	src, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("loader: read %s: %w", path, err)
	}
	statements, err := parser.Parse(path, src)
	if err != nil {
		return err
	}
	env := l.interp.GlobalEnvironment()
	for _, stmt := range statements {
		if err := each(stmt.Span.Start.Line, l.interp.EvalNode(env, stmt)); err != nil {
			return err
		}
	}
	return nil
}
