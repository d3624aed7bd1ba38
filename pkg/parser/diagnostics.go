package parser

import (
	"errors"
	"fmt"

	"github.com/alecthomas/participle/v2"
	"github.com/alecthomas/participle/v2/lexer"

	"lispy/interpreter-go/pkg/ast"
)

// SourceLocation captures a source position for parser diagnostics.
type SourceLocation struct {
	File   string
	Line   int
	Column int
}

func (l SourceLocation) String() string {
	if l.File == "" {
		return fmt.Sprintf("%d:%d", l.Line, l.Column)
	}
	return fmt.Sprintf("%s:%d:%d", l.File, l.Line, l.Column)
}

// ParseError includes a message plus the location where reading stopped.
// Incomplete is set when the input ended inside an open bracket or string,
// which the REPL treats as a request for another line.
type ParseError struct {
	Message    string
	Location   SourceLocation
	Incomplete bool
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("%s: parser: %s", e.Location, e.Message)
}

// IsIncomplete reports whether err is a ParseError caused by premature end of input.
func IsIncomplete(err error) bool {
	var parseErr *ParseError
	if errors.As(err, &parseErr) {
		return parseErr.Incomplete
	}
	return false
}

func (r *reader) errorf(pos lexer.Position, format string, args ...any) *ParseError {
	return r.errorAt(position(pos), format, args...)
}

func (r *reader) incompletef(pos ast.Position, format string, args ...any) *ParseError {
	err := r.errorAt(pos, format, args...)
	err.Incomplete = true
	return err
}

func (r *reader) errorAt(pos ast.Position, format string, args ...any) *ParseError {
	return &ParseError{
		Message:  fmt.Sprintf(format, args...),
		Location: SourceLocation{File: r.name, Line: pos.Line, Column: pos.Column},
	}
}

// wrap converts a lexer or grammar failure into a ParseError.
func (r *reader) wrap(err error) error {
	var perr participle.Error
	if errors.As(err, &perr) {
		return r.errorf(perr.Position(), "%s", perr.Message())
	}
	return &ParseError{Message: err.Error(), Location: SourceLocation{File: r.name}}
}
