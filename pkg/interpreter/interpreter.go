package interpreter

import (
	"lispy/interpreter-go/pkg/ast"
	"lispy/interpreter-go/pkg/parser"
	"lispy/interpreter-go/pkg/runtime"
)

// Interpreter owns one session's global environment.
type Interpreter struct {
	global *runtime.Environment
}

// New returns an interpreter whose global environment holds the builtin library.
func New() *Interpreter {
	i := &Interpreter{global: runtime.NewEnvironment(nil)}
	for _, spec := range Builtins() {
		i.Register(spec.Name, spec.Impl)
	}
	return i
}

// GlobalEnvironment returns the interpreter’s global environment.
func (i *Interpreter) GlobalEnvironment() *runtime.Environment {
	return i.global
}

// Register binds a native operation in the global environment, replacing any
// existing binding with the same name.
func (i *Interpreter) Register(name string, impl runtime.NativeFunc) {
	i.global.Put(name, runtime.NewBuiltin(name, impl))
}

// Evaluate reduces v against env. Symbols resolve through the scope chain,
// S-expressions are applied, and all other values are returned unchanged.
func (i *Interpreter) Evaluate(env *runtime.Environment, v runtime.Value) runtime.Value {
	switch val := v.(type) {
	case runtime.SymbolValue:
		return env.Get(val.Name)
	case *runtime.SExprValue:
		return i.evaluateSExpr(env, val)
	default:
		return v
	}
}

func (i *Interpreter) evaluateSExpr(env *runtime.Environment, expr *runtime.SExprValue) runtime.Value {
	for idx := range expr.Items {
		expr.Items[idx] = i.Evaluate(env, expr.Items[idx])
	}
	for _, item := range expr.Items {
		if errVal, ok := item.(runtime.ErrorValue); ok {
			return errVal
		}
	}

	switch expr.Len() {
	case 0:
		return expr
	case 1:
		return expr.Take(0)
	}

	head := expr.Pop(0)
	if !runtime.IsFunction(head) {
		return runtime.Errf(runtime.ErrInvalidHead,
			"S-Expression starts with incorrect type. Got %s, expected %s",
			head.Kind(), runtime.KindBuiltin)
	}
	return i.call(env, head, expr)
}

// EvalNode converts a parsed statement into a value and evaluates it.
func (i *Interpreter) EvalNode(env *runtime.Environment, node *ast.Node) runtime.Value {
	return i.Evaluate(env, ReadNode(node))
}

// EvalSource parses src and evaluates each statement in order against env,
// returning one result per statement. Syntax errors are reported before any
// statement runs.
func (i *Interpreter) EvalSource(env *runtime.Environment, name string, src []byte) ([]runtime.Value, error) {
	statements, err := parser.Parse(name, src)
	if err != nil {
		return nil, err
	}
	results := make([]runtime.Value, 0, len(statements))
	for _, stmt := range statements {
		results = append(results, i.EvalNode(env, stmt))
	}
	return results, nil
}

// EvalString evaluates src in the global environment and returns the result
// of the last statement, or an empty S-expression when src has none.
func (i *Interpreter) EvalString(src string) (runtime.Value, error) {
	results, err := i.EvalSource(i.global, "<string>", []byte(src))
	if err != nil {
		return nil, err
	}
	if len(results) == 0 {
		return runtime.NewSExpr(), nil
	}
	return results[len(results)-1], nil
}

// Render returns the printed form of v used by the REPL and file runner.
func Render(v runtime.Value) string {
	if v == nil {
		return "()"
	}
	return v.String()
}
