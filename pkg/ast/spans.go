package ast

import "fmt"

// Position is a 1-based line/column pair.
type Position struct {
	Line   int
	Column int
}

// Span covers the source text of a node.
type Span struct {
	Start Position
	End   Position
}

func (p Position) String() string {
	return fmt.Sprintf("%d:%d", p.Line, p.Column)
}
