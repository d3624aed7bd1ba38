package parser

import (
	"github.com/alecthomas/participle/v2"
	"github.com/alecthomas/participle/v2/lexer"
)

// Rules are tried in order. Unterminated and Invalid never reach the grammar:
// Parse turns them into diagnostics while checking the token stream.
var lispyLexer = lexer.MustSimple([]lexer.SimpleRule{
	{Name: "Whitespace", Pattern: `[ \t\r]+`},
	{Name: "Comment", Pattern: `;[^\n]*`},
	{Name: "Newline", Pattern: `\n`},
	{Name: "String", Pattern: `"(?:\\[\s\S]|[^"\\])*"`},
	{Name: "Unterminated", Pattern: `"(?:\\[\s\S]|[^"\\])*\\?`},
	{Name: "Atom", Pattern: `[a-zA-Z0-9_+\-*/\\=<>!&%^]+`},
	{Name: "Punct", Pattern: `[(){}]`},
	{Name: "Invalid", Pattern: `.`},
})

// sourceFile is a flat run of expressions and line breaks; Parse groups it
// into statements.
type sourceFile struct {
	Elements []*element `parser:"@@*"`
}

type element struct {
	Pos lexer.Position

	Newline bool        `parser:"  @Newline"`
	Expr    *expression `parser:"| @@"`
}

type expression struct {
	Pos lexer.Position

	Atom   *string `parser:"  @Atom"`
	String *string `parser:"| @String"`
	SExpr  *sexpr  `parser:"| @@"`
	QExpr  *qexpr  `parser:"| @@"`
}

// Line breaks inside brackets are kept as elements and skipped when building
// the tree.
type sexpr struct {
	Elements []*element `parser:"\"(\" @@* \")\""`
}

type qexpr struct {
	Elements []*element `parser:"\"{\" @@* \"}\""`
}

var grammar = participle.MustBuild[sourceFile](
	participle.Lexer(lispyLexer),
	participle.Elide("Whitespace", "Comment"),
)
