package ast

// Tag identifies the syntactic category of a node produced by the reader.
type Tag string

const (
	TagRoot   Tag = "root"
	TagNumber Tag = "number"
	TagSymbol Tag = "symbol"
	TagString Tag = "string"
	TagSExpr  Tag = "sexpr"
	TagQExpr  Tag = "qexpr"
)

// Node is the generic syntax tree shape handed from the reader to the runtime:
// leaves carry literal text, containers carry ordered children.
type Node struct {
	Tag      Tag
	Contents string
	Children []*Node
	Span     Span
}

// Leaf constructs a literal node.
func Leaf(tag Tag, contents string) *Node {
	return &Node{Tag: tag, Contents: contents}
}

// Branch constructs a container node.
func Branch(tag Tag, children ...*Node) *Node {
	if children == nil {
		children = []*Node{}
	}
	return &Node{Tag: tag, Children: children}
}

// Num, Sym, Str, SExpr, QExpr and Root are shorthands used by tests and fixtures.
func Num(text string) *Node         { return Leaf(TagNumber, text) }
func Sym(name string) *Node         { return Leaf(TagSymbol, name) }
func Str(text string) *Node         { return Leaf(TagString, text) }
func SExpr(children ...*Node) *Node { return Branch(TagSExpr, children...) }
func QExpr(children ...*Node) *Node { return Branch(TagQExpr, children...) }
func Root(children ...*Node) *Node  { return Branch(TagRoot, children...) }
