package main

import (
	"fmt"
	"os"
)

func printUsage() {
	fmt.Fprintln(os.Stderr, "Usage:")
	fmt.Fprintln(os.Stderr, "  lispy                              start the REPL")
	fmt.Fprintln(os.Stderr, "  lispy repl [--prompt=<text>] [--no-prelude]")
	fmt.Fprintln(os.Stderr, "  lispy run [target] [--no-prelude]")
	fmt.Fprintln(os.Stderr, "  lispy run <file.lspy> [--no-prelude]")
	fmt.Fprintln(os.Stderr, "  lispy <file.lspy>")
	fmt.Fprintln(os.Stderr, "  lispy deps install")
	fmt.Fprintln(os.Stderr, "  lispy deps update [dependency ...]")
	fmt.Fprintln(os.Stderr, "  lispy --version")
	fmt.Fprintln(os.Stderr, "")
	fmt.Fprintln(os.Stderr, "Environment:")
	fmt.Fprintln(os.Stderr, "  LISPY_HOME   dependency cache and REPL history (default ~/.lispy)")
	fmt.Fprintln(os.Stderr, "  LISPY_PATH   directories whose lib.lspy is loaded before every program")
}
