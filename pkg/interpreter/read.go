package interpreter

import (
	"strconv"

	"lispy/interpreter-go/pkg/ast"
	"lispy/interpreter-go/pkg/runtime"
)

// ReadNode converts a syntax tree node into an unevaluated value. Statement
// roots become S-expressions. Numbers that do not fit in 64 bits read as an
// error value, matching how they would surface at the REPL.
func ReadNode(node *ast.Node) runtime.Value {
	if node == nil {
		return runtime.NewSExpr()
	}
	switch node.Tag {
	case ast.TagNumber:
		n, err := strconv.ParseInt(node.Contents, 10, 64)
		if err != nil {
			return runtime.Err(runtime.ErrInvalidNumber, "Invalid number")
		}
		return runtime.Num(n)
	case ast.TagSymbol:
		return runtime.Sym(node.Contents)
	case ast.TagString:
		return runtime.Str(node.Contents)
	case ast.TagQExpr:
		q := runtime.NewQExpr()
		for _, child := range node.Children {
			q.Append(ReadNode(child))
		}
		return q
	case ast.TagSExpr, ast.TagRoot:
		s := runtime.NewSExpr()
		for _, child := range node.Children {
			s.Append(ReadNode(child))
		}
		return s
	default:
		return runtime.Errf(runtime.ErrGeneric, "Unknown syntax node %q", string(node.Tag))
	}
}
