package runtime

import (
	"fmt"
	"strconv"
	"strings"
)

// Kind identifies the runtime value category.
type Kind int

const (
	KindNumber Kind = iota
	KindError
	KindSymbol
	KindString
	KindSExpr
	KindQExpr
	KindBuiltin
	KindLambda
)

// String returns the name used for the kind in error messages. Builtins and
// lambdas share the name Function since callers only ever expect "a function".
func (k Kind) String() string {
	switch k {
	case KindNumber:
		return "Number"
	case KindError:
		return "Error"
	case KindSymbol:
		return "Symbol"
	case KindString:
		return "String"
	case KindSExpr:
		return "S-Expression"
	case KindQExpr:
		return "Q-Expression"
	case KindBuiltin, KindLambda:
		return "Function"
	default:
		return fmt.Sprintf("unknown_kind_%d", int(k))
	}
}

// Value is the closed set of runtime values. The unexported marker keeps the
// set of implementations inside this package so type switches stay exhaustive.
type Value interface {
	Kind() Kind
	String() string
	value()
}

//-----------------------------------------------------------------------------
// Scalars
//-----------------------------------------------------------------------------

type NumberValue struct {
	Val int64
}

func (NumberValue) Kind() Kind       { return KindNumber }
func (NumberValue) value()           {}
func (v NumberValue) String() string { return strconv.FormatInt(v.Val, 10) }

// Num constructs a number.
func Num(n int64) NumberValue {
	return NumberValue{Val: n}
}

type SymbolValue struct {
	Name string
}

func (SymbolValue) Kind() Kind       { return KindSymbol }
func (SymbolValue) value()           {}
func (v SymbolValue) String() string { return v.Name }

// Sym constructs a symbol.
func Sym(name string) SymbolValue {
	return SymbolValue{Name: name}
}

type StringValue struct {
	Val string
}

func (StringValue) Kind() Kind       { return KindString }
func (StringValue) value()           {}
func (v StringValue) String() string { return strconv.Quote(v.Val) }

// Str constructs a string.
func Str(s string) StringValue {
	return StringValue{Val: s}
}

//-----------------------------------------------------------------------------
// Errors
//-----------------------------------------------------------------------------

// ErrorCategory classifies evaluation failures.
type ErrorCategory int

const (
	ErrGeneric ErrorCategory = iota
	ErrDivisionByZero
	ErrUnboundSymbol
	ErrInvalidHead
	ErrArityMismatch
	ErrTooManyArguments
	ErrTypeMismatch
	ErrEmptyArgument
	ErrInvalidNumber
)

func (c ErrorCategory) String() string {
	switch c {
	case ErrDivisionByZero:
		return "DivisionByZero"
	case ErrUnboundSymbol:
		return "UnboundSymbol"
	case ErrInvalidHead:
		return "InvalidHead"
	case ErrArityMismatch:
		return "ArityMismatch"
	case ErrTooManyArguments:
		return "TooManyArguments"
	case ErrTypeMismatch:
		return "TypeMismatch"
	case ErrEmptyArgument:
		return "EmptyArgument"
	case ErrInvalidNumber:
		return "InvalidNumber"
	default:
		return "Generic"
	}
}

// ErrorValue is a failed evaluation. It flows through the evaluator like any
// other value.
type ErrorValue struct {
	Category ErrorCategory
	Message  string
}

func (ErrorValue) Kind() Kind       { return KindError }
func (ErrorValue) value()           {}
func (v ErrorValue) String() string { return "ERROR: " + v.Message }

// Err constructs an error value; the message is never empty.
func Err(category ErrorCategory, message string) ErrorValue {
	if strings.TrimSpace(message) == "" {
		message = "unknown error"
	}
	return ErrorValue{Category: category, Message: message}
}

// Errf formats the message of an error value.
func Errf(category ErrorCategory, format string, args ...any) ErrorValue {
	return Err(category, fmt.Sprintf(format, args...))
}

//-----------------------------------------------------------------------------
// Expression containers
//-----------------------------------------------------------------------------

// Cells is the ordered child list shared by S- and Q-expressions. Children
// are owned exclusively by the container holding them.
type Cells struct {
	Items []Value
}

// Len returns the number of children.
func (c *Cells) Len() int {
	return len(c.Items)
}

// At returns the child at idx without removing it.
func (c *Cells) At(idx int) Value {
	return c.Items[idx]
}

// Append adds v to the end of the container.
func (c *Cells) Append(v Value) {
	c.Items = append(c.Items, v)
}

// Pop removes and returns the child at idx, keeping the others in order.
func (c *Cells) Pop(idx int) Value {
	v := c.Items[idx]
	copy(c.Items[idx:], c.Items[idx+1:])
	c.Items[len(c.Items)-1] = nil
	c.Items = c.Items[:len(c.Items)-1]
	return v
}

// Take pops the child at idx and discards the rest of the container.
func (c *Cells) Take(idx int) Value {
	v := c.Pop(idx)
	c.Items = nil
	return v
}

func (c *Cells) render(open, close string) string {
	var b strings.Builder
	b.WriteString(open)
	for i, item := range c.Items {
		if i > 0 {
			b.WriteByte(' ')
		}
		b.WriteString(item.String())
	}
	b.WriteString(close)
	return b.String()
}

// SExprValue is an expression awaiting evaluation.
type SExprValue struct {
	Cells
}

func (*SExprValue) Kind() Kind       { return KindSExpr }
func (*SExprValue) value()           {}
func (v *SExprValue) String() string { return v.render("(", ")") }

// NewSExpr constructs an S-expression holding items.
func NewSExpr(items ...Value) *SExprValue {
	return &SExprValue{Cells{Items: items}}
}

// Quote re-tags the S-expression as a Q-expression, moving its children.
func (v *SExprValue) Quote() *QExprValue {
	q := &QExprValue{Cells{Items: v.Items}}
	v.Items = nil
	return q
}

// QExprValue is a quoted sequence; it is never reduced automatically.
type QExprValue struct {
	Cells
}

func (*QExprValue) Kind() Kind       { return KindQExpr }
func (*QExprValue) value()           {}
func (v *QExprValue) String() string { return v.render("{", "}") }

// NewQExpr constructs a Q-expression holding items.
func NewQExpr(items ...Value) *QExprValue {
	return &QExprValue{Cells{Items: items}}
}

// Unquote re-tags the Q-expression as an S-expression, moving its children.
func (v *QExprValue) Unquote() *SExprValue {
	s := &SExprValue{Cells{Items: v.Items}}
	v.Items = nil
	return s
}

//-----------------------------------------------------------------------------
// Functions
//-----------------------------------------------------------------------------

// Evaluator is the hook natives use to re-enter evaluation.
type Evaluator interface {
	Evaluate(env *Environment, v Value) Value
}

// NativeCallContext carries the caller's environment and evaluator into a
// builtin.
type NativeCallContext struct {
	Env       *Environment
	Evaluator Evaluator
}

// NativeFunc implements a builtin. It receives every argument, already
// evaluated, and is responsible for its own arity and type checks.
type NativeFunc func(ctx *NativeCallContext, args *SExprValue) Value

// BuiltinValue is a native operation. Builtins are stateless and compared by
// name only.
type BuiltinValue struct {
	Name string
	Impl NativeFunc
}

func (*BuiltinValue) Kind() Kind     { return KindBuiltin }
func (*BuiltinValue) value()         {}
func (*BuiltinValue) String() string { return "<builtin>" }

// NewBuiltin constructs a builtin function value.
func NewBuiltin(name string, impl NativeFunc) *BuiltinValue {
	return &BuiltinValue{Name: name, Impl: impl}
}

// LambdaValue is a user-defined function. Formals contains only symbols and
// Closure is owned by the lambda.
type LambdaValue struct {
	Formals *QExprValue
	Body    *SExprValue
	Closure *Environment
}

func (*LambdaValue) Kind() Kind { return KindLambda }
func (*LambdaValue) value()     {}

func (v *LambdaValue) String() string {
	return "(\\ " + v.Formals.String() + " " + v.Body.render("{", "}") + ")"
}

// NewLambda constructs a lambda capturing a fresh, empty closure.
func NewLambda(formals *QExprValue, body *SExprValue) *LambdaValue {
	return &LambdaValue{Formals: formals, Body: body, Closure: NewEnvironment(nil)}
}

// IsFunction reports whether v can be applied.
func IsFunction(v Value) bool {
	switch v.(type) {
	case *BuiltinValue, *LambdaValue:
		return true
	default:
		return false
	}
}
