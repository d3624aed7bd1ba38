package parser

import (
	"bytes"
	"unicode/utf8"

	"github.com/alecthomas/participle/v2/lexer"

	"lispy/interpreter-go/pkg/ast"
)

// Parse reads every statement in src. A statement is one logical line of
// source: a newline outside of any bracket ends it, so an expression may span
// several lines while a '(' or '{' is open. Each statement is returned as a
// root node whose children are the expressions written on that line.
// Comments run from ';' to the end of the line and are dropped.
func Parse(name string, src []byte) ([]*ast.Node, error) {
	r := &reader{
		name:    name,
		src:     src,
		closers: make(map[int]lexer.Position),
	}
	if err := r.checkTokens(); err != nil {
		return nil, err
	}
	file, err := grammar.ParseBytes(name, src)
	if err != nil {
		return nil, r.wrap(err)
	}
	return r.statements(file), nil
}

type reader struct {
	name string
	src  []byte
	// closers maps the offset of each opening bracket to its closing bracket.
	closers map[int]lexer.Position
}

// checkTokens lexes src and reports bad characters, unterminated strings and
// unbalanced brackets before the grammar runs.
func (r *reader) checkTokens() error {
	lex, err := lispyLexer.Lex(r.name, bytes.NewReader(r.src))
	if err != nil {
		return r.wrap(err)
	}
	tokens, err := lexer.ConsumeAll(lex)
	if err != nil {
		return r.wrap(err)
	}
	symbols := lispyLexer.Symbols()
	var open []lexer.Token
	for _, tok := range tokens {
		switch tok.Type {
		case symbols["Invalid"]:
			ch, _ := utf8.DecodeRuneInString(tok.Value)
			return r.errorf(tok.Pos, "unexpected character %q", ch)
		case symbols["Unterminated"]:
			return r.incompletef(r.end(), "unterminated string literal")
		case symbols["Punct"]:
			switch tok.Value {
			case "(", "{":
				open = append(open, tok)
				continue
			}
			if len(open) == 0 {
				return r.errorf(tok.Pos, "unexpected '%s'", tok.Value)
			}
			opener := open[len(open)-1]
			if want := closerFor(opener.Value); tok.Value != want {
				return r.errorf(tok.Pos, "unexpected '%s', expected '%s'", tok.Value, want)
			}
			open = open[:len(open)-1]
			r.closers[opener.Pos.Offset] = tok.Pos
		}
	}
	if len(open) > 0 {
		return r.incompletef(r.end(), "expected '%s' before end of input", closerFor(open[len(open)-1].Value))
	}
	return nil
}

func (r *reader) statements(file *sourceFile) []*ast.Node {
	var statements []*ast.Node
	current := ast.Root()
	flush := func(end ast.Position) {
		if len(current.Children) == 0 {
			return
		}
		current.Span = ast.Span{Start: current.Children[0].Span.Start, End: end}
		statements = append(statements, current)
		current = ast.Root()
	}
	for _, el := range file.Elements {
		if el.Newline {
			flush(position(el.Pos))
			continue
		}
		current.Children = append(current.Children, r.expression(el.Expr))
	}
	flush(r.end())
	return statements
}

func (r *reader) expression(expr *expression) *ast.Node {
	start := position(expr.Pos)
	var (
		node *ast.Node
		end  ast.Position
	)
	switch {
	case expr.Atom != nil:
		if isNumberLiteral(*expr.Atom) {
			node = ast.Num(*expr.Atom)
		} else {
			node = ast.Sym(*expr.Atom)
		}
		end = advance(start, *expr.Atom)
	case expr.String != nil:
		node = ast.Str(unquote(*expr.String))
		end = advance(start, *expr.String)
	case expr.SExpr != nil:
		node = ast.Branch(ast.TagSExpr, r.children(expr.SExpr.Elements)...)
		end = r.closerEnd(expr.Pos)
	default:
		node = ast.Branch(ast.TagQExpr, r.children(expr.QExpr.Elements)...)
		end = r.closerEnd(expr.Pos)
	}
	node.Span = ast.Span{Start: start, End: end}
	return node
}

func (r *reader) children(elements []*element) []*ast.Node {
	var out []*ast.Node
	for _, el := range elements {
		if el.Expr != nil {
			out = append(out, r.expression(el.Expr))
		}
	}
	return out
}

func (r *reader) closerEnd(open lexer.Position) ast.Position {
	return advance(position(r.closers[open.Offset]), ")")
}

// end is the position just past the last byte of input.
func (r *reader) end() ast.Position {
	return advance(ast.Position{Line: 1, Column: 1}, string(r.src))
}

func position(pos lexer.Position) ast.Position {
	return ast.Position{Line: pos.Line, Column: pos.Column}
}

// advance moves pos over text, counting columns in runes.
func advance(pos ast.Position, text string) ast.Position {
	for _, ch := range text {
		if ch == '\n' {
			pos.Line++
			pos.Column = 1
			continue
		}
		pos.Column++
	}
	return pos
}

func closerFor(open string) string {
	if open == "{" {
		return "}"
	}
	return ")"
}

// unquote strips the quotes from a string token and resolves its escapes.
func unquote(lit string) string {
	body := lit[1 : len(lit)-1]
	buf := make([]byte, 0, len(body))
	for i := 0; i < len(body); i++ {
		c := body[i]
		if c == '\\' && i+1 < len(body) {
			i++
			c = unescape(body[i])
		}
		buf = append(buf, c)
	}
	return string(buf)
}

func unescape(c byte) byte {
	switch c {
	case 'a':
		return '\a'
	case 'b':
		return '\b'
	case 'f':
		return '\f'
	case 'n':
		return '\n'
	case 'r':
		return '\r'
	case 't':
		return '\t'
	case 'v':
		return '\v'
	case '0':
		return 0
	default:
		return c
	}
}

// isNumberLiteral matches -?[0-9]+. Any other atom reads as a symbol.
func isNumberLiteral(text string) bool {
	digits := text
	if len(digits) > 0 && digits[0] == '-' {
		digits = digits[1:]
	}
	if digits == "" {
		return false
	}
	for i := 0; i < len(digits); i++ {
		if digits[i] < '0' || digits[i] > '9' {
			return false
		}
	}
	return true
}
