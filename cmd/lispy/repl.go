package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/peterh/liner"

	"lispy/interpreter-go/pkg/driver"
	"lispy/interpreter-go/pkg/interpreter"
	"lispy/interpreter-go/pkg/parser"
)

const historyFileName = "history"

// lineReader is the part of liner.State the REPL drives.
type lineReader interface {
	Prompt(prompt string) (string, error)
	AppendHistory(item string)
}

type replSession struct {
	interp *interpreter.Interpreter
	input  lineReader
	out    io.Writer
	errOut io.Writer
	prompt string
}

func runRepl(args []string) int {
	opts, rest, err := parseOptions(args)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	if len(rest) > 0 {
		fmt.Fprintf(os.Stderr, "lispy repl does not take arguments (received %s)\n", strings.Join(rest, " "))
		return 1
	}

	manifest, err := loadManifestFrom(".")
	if err != nil && !errors.Is(err, errManifestNotFound) {
		fmt.Fprintf(os.Stderr, "warning: ignoring manifest: %v\n", err)
	}
	lock, err := loadLockfileForManifest(manifest)
	if err != nil {
		fmt.Fprintf(os.Stderr, "warning: %v\n", err)
		lock = nil
	}
	loader := driver.NewLoader(interpreter.New(), os.Stdout)
	if err := preload(loader, manifest, lock, opts); err != nil {
		fmt.Fprintf(os.Stderr, "warning: failed to load libraries: %v\n", err)
	}

	input := newLinerInput(os.Stderr)
	defer input.Close()

	session := &replSession{
		interp: loader.Interpreter(),
		input:  input,
		out:    os.Stdout,
		errOut: os.Stderr,
		prompt: opts.prompt,
	}
	if err := session.run(); err != nil {
		fmt.Fprintf(os.Stderr, "repl: %v\n", err)
		return 1
	}
	return 0
}

// run reads statements until end of input. Input that stops inside an open
// bracket or string is held and continued on the next line; Ctrl+C discards it.
func (r *replSession) run() error {
	fmt.Fprintf(r.out, "Lispy %s\n", languageVersion)
	var pending strings.Builder
	for {
		prompt := r.prompt
		if pending.Len() > 0 {
			prompt = continuationPrompt(r.prompt)
		}
		line, err := r.input.Prompt(prompt)
		if err != nil {
			switch {
			case errors.Is(err, liner.ErrPromptAborted):
				pending.Reset()
				continue
			case errors.Is(err, io.EOF):
				fmt.Fprintln(r.out)
				return nil
			default:
				return err
			}
		}

		pending.WriteString(line)
		pending.WriteByte('\n')
		src := pending.String()
		results, err := r.interp.EvalSource(r.interp.GlobalEnvironment(), "<stdin>", []byte(src))
		if parser.IsIncomplete(err) {
			continue
		}
		pending.Reset()
		if entry := strings.TrimSpace(src); entry != "" {
			r.input.AppendHistory(entry)
		}
		if err != nil {
			fmt.Fprintln(r.errOut, err)
			continue
		}
		for _, val := range results {
			fmt.Fprintln(r.out, interpreter.Render(val))
		}
	}
}

func continuationPrompt(prompt string) string {
	width := len(strings.TrimRight(prompt, " "))
	if width < 2 {
		return "... "
	}
	return strings.Repeat(".", width-1) + "> "
}

// historyStore is the history half of liner.State.
type historyStore interface {
	ReadHistory(r io.Reader) (int, error)
	WriteHistory(w io.Writer) (int, error)
}

// linerInput persists history under LISPY_HOME between sessions.
type linerInput struct {
	*liner.State
	historyPath string
	errOut      io.Writer
}

func newLinerInput(errOut io.Writer) *linerInput {
	state := liner.NewLiner()
	state.SetCtrlCAborts(true)
	input := &linerInput{State: state, errOut: errOut}
	if home, err := resolveLispyHome(); err == nil {
		input.historyPath = filepath.Join(home, historyFileName)
		if err := loadHistory(state, input.historyPath); err != nil {
			fmt.Fprintf(errOut, "warning: %v\n", err)
		}
	}
	return input
}

func (l *linerInput) Close() error {
	if l.historyPath != "" {
		if err := saveHistory(l.State, l.historyPath); err != nil {
			fmt.Fprintf(l.errOut, "warning: %v\n", err)
		}
	}
	return l.State.Close()
}

// loadHistory reads the history file at path into h. A missing file is fine.
func loadHistory(h historyStore, path string) error {
	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("read history %s: %w", path, err)
	}
	defer f.Close()
	if _, err := h.ReadHistory(f); err != nil {
		return fmt.Errorf("read history %s: %w", path, err)
	}
	return nil
}

func saveHistory(h historyStore, path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("write history %s: %w", path, err)
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("write history %s: %w", path, err)
	}
	if _, err := h.WriteHistory(f); err != nil {
		f.Close()
		return fmt.Errorf("write history %s: %w", path, err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("write history %s: %w", path, err)
	}
	return nil
}
