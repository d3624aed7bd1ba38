package interpreter

import (
	"fmt"
	"testing"

	"lispy/interpreter-go/pkg/ast"
	"lispy/interpreter-go/pkg/runtime"
)

func TestScenarios(t *testing.T) {
	cases := []struct {
		name  string
		lines []string
		want  string
	}{
		{name: "Add", lines: []string{"+ 1 2 3"}, want: "6"},
		{name: "Negate", lines: []string{"- 5"}, want: "-5"},
		{name: "DivideByZero", lines: []string{"/ 1 0"}, want: "ERROR: Division by zero"},
		{name: "Head", lines: []string{"head {1 2 3}"}, want: "{1}"},
		{name: "Tail", lines: []string{"tail {1 2 3}"}, want: "{2 3}"},
		{name: "Add1", lines: []string{`def {add1} (\ {x} {+ x 1})`, "add1 41"}, want: "42"},
		{name: "Unbound", lines: []string{"y"}, want: "ERROR: Unbound symbol y"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			expectRender(t, tc.want, tc.lines...)
		})
	}
}

func TestNormalForms(t *testing.T) {
	cases := []struct {
		src  string
		want string
	}{
		{src: "5", want: "5"},
		{src: "()", want: "()"},
		{src: "{}", want: "{}"},
		{src: "{1 (+ 1 1) x}", want: "{1 (+ 1 1) x}"},
		{src: "((((7))))", want: "7"},
		{src: "+", want: "<builtin>"},
		{src: `"hello\tworld"`, want: `"hello\tworld"`},
		{src: `\ {x y} {+ x y}`, want: `(\ {x y} {+ x y})`},
		{src: "99999999999999999999", want: "ERROR: Invalid number"},
	}
	for _, tc := range cases {
		expectRender(t, tc.want, tc.src)
	}
}

func TestArithmetic(t *testing.T) {
	cases := []struct {
		src  string
		want string
	}{
		{src: "+ 5", want: "5"},
		{src: "- 10 3 2", want: "5"},
		{src: "- 2 10", want: "-8"},
		{src: "* 2 3 4", want: "24"},
		{src: "/ 100 5 2", want: "10"},
		{src: "/ 7 2", want: "3"},
		{src: "/ -7 2", want: "-3"},
		{src: "% 17 5 3", want: "2"},
		{src: "% -7 3", want: "-1"},
		{src: "^ 2 10", want: "1024"},
		{src: "^ 3 0", want: "1"},
		{src: "^ 2 3 2", want: "64"},
		{src: "^ 2 -1", want: "0"},
		{src: "^ -1 -3", want: "-1"},
		{src: "^ 0 -1", want: "ERROR: Division by zero"},
		{src: "% 7 0", want: "ERROR: Division by zero"},
		{src: "min 4 -2 9", want: "-2"},
		{src: "max 4 -2 9", want: "9"},
		{src: "- (- 5)", want: "5"},
		{src: "+ 9223372036854775807 1", want: "-9223372036854775808"},
		{src: "/ -9223372036854775808 -1", want: "-9223372036854775808"},
	}
	for _, tc := range cases {
		expectRender(t, tc.want, tc.src)
	}
}

func TestArithmeticFoldProperties(t *testing.T) {
	triples := [][3]int64{{1, 2, 3}, {-4, 7, 0}, {100, -25, 3}, {9, 9, -9}}
	for _, tr := range triples {
		a, b, c := tr[0], tr[1], tr[2]
		for _, op := range []string{"+", "*"} {
			left := fmt.Sprintf("%s (%s %d %d) %d", op, op, a, b, c)
			right := fmt.Sprintf("%s %d (%s %d %d)", op, a, op, b, c)
			flat := fmt.Sprintf("%s %d %d %d", op, a, b, c)
			interp := New()
			l, r, f := Render(mustEval(t, interp, left)), Render(mustEval(t, interp, right)), Render(mustEval(t, interp, flat))
			if l != r || r != f {
				t.Fatalf("%s not associative for %v: %s / %s / %s", op, tr, l, r, f)
			}
		}
		interp := New()
		if got, want := Render(mustEval(t, interp, fmt.Sprintf("- %d %d %d", a, b, c))), fmt.Sprint(a-b-c); got != want {
			t.Fatalf("- fold for %v: got %s want %s", tr, got, want)
		}
		if c != 0 && b != 0 {
			if got, want := Render(mustEval(t, interp, fmt.Sprintf("/ %d %d %d", a, b, c))), fmt.Sprint(a/b/c); got != want {
				t.Fatalf("/ fold for %v: got %s want %s", tr, got, want)
			}
		}
	}
}

func TestEvalOfListMatchesDirectEvaluation(t *testing.T) {
	exprs := []string{"+ 1 2", "head {4 5 6}", "join {1} {2}", "- 5", "max 1 7 3"}
	for _, expr := range exprs {
		interp := New()
		direct := Render(mustEval(t, interp, expr))
		quoted := Render(mustEval(t, interp, "eval {"+expr+"}"))
		listed := Render(mustEval(t, interp, "eval (list "+expr+")"))
		if direct != quoted || direct != listed {
			t.Fatalf("%s: direct %s, eval {} %s, eval (list) %s", expr, direct, quoted, listed)
		}
	}
}

func TestJoinHeadTailReconstructs(t *testing.T) {
	for _, q := range []string{"{1}", "{1 2 3}", "{{a} b (c d)}", `{"s" 2}`} {
		expectRender(t, q, fmt.Sprintf("join (head %s) (tail %s)", q, q))
	}
}

func TestListBuiltins(t *testing.T) {
	cases := []struct {
		src  string
		want string
	}{
		{src: "list 1 2 3", want: "{1 2 3}"},
		{src: "list (+ 1 2) {x}", want: "{3 {x}}"},
		{src: "head {{1 2} 3}", want: "{{1 2}}"},
		{src: "tail {1}", want: "{}"},
		{src: "join {1 2} {} {3} {{4}}", want: "{1 2 3 {4}}"},
		{src: "join {1}", want: "{1}"},
		{src: "eval {}", want: "()"},
		{src: "eval {+ 1 (* 2 3)}", want: "7"},
		{src: "eval (tail {tail tail {5 6 7}})", want: "{6 7}"},
		{src: "eval (head {(+ 1 2) (+ 10 20)})", want: "3"},
	}
	for _, tc := range cases {
		expectRender(t, tc.want, tc.src)
	}
}

func TestBuiltinContractErrors(t *testing.T) {
	cases := []struct {
		src      string
		category runtime.ErrorCategory
		message  string
	}{
		{src: "1 2", category: runtime.ErrInvalidHead, message: "S-Expression starts with incorrect type. Got Number, expected Function"},
		{src: "{+} 1", category: runtime.ErrInvalidHead, message: "S-Expression starts with incorrect type. Got Q-Expression, expected Function"},
		{src: "head 1", category: runtime.ErrTypeMismatch, message: "Function 'head' passed incorrect type for argument 0. Got Number, expected Q-Expression"},
		{src: "head {1} {2}", category: runtime.ErrArityMismatch, message: "Function 'head' passed incorrect number of arguments. Got 2, expected 1"},
		{src: "head {}", category: runtime.ErrEmptyArgument, message: "Function 'head' passed {} for argument 0"},
		{src: "tail {}", category: runtime.ErrEmptyArgument, message: "Function 'tail' passed {} for argument 0"},
		{src: "eval 5", category: runtime.ErrTypeMismatch, message: "Function 'eval' passed incorrect type for argument 0. Got Number, expected Q-Expression"},
		{src: "join {1} 2", category: runtime.ErrTypeMismatch, message: "Function 'join' passed incorrect type for argument 1. Got Number, expected Q-Expression"},
		{src: "+ 1 {2}", category: runtime.ErrTypeMismatch, message: "Function '+' passed incorrect type for argument 1. Got Q-Expression, expected Number"},
		{src: `* 2 "3"`, category: runtime.ErrTypeMismatch, message: "Function '*' passed incorrect type for argument 1. Got String, expected Number"},
		{src: `\ {x}`, category: runtime.ErrArityMismatch, message: `Function '\' passed incorrect number of arguments. Got 1, expected 2`},
		{src: `\ {x 1} {x}`, category: runtime.ErrTypeMismatch, message: `Function '\' cannot define non-symbol. Got Number, expected Symbol`},
		{src: `\ {x} x`, category: runtime.ErrUnboundSymbol, message: "Unbound symbol x"},
		{src: "def {a b} 1", category: runtime.ErrArityMismatch, message: "Function 'def' passed incorrect number of values for symbols. Got 1, expected 2"},
		{src: "def 1 2", category: runtime.ErrTypeMismatch, message: "Function 'def' passed incorrect type for argument 0. Got Number, expected Q-Expression"},
		{src: "= {1} 2", category: runtime.ErrTypeMismatch, message: "Function '=' cannot define non-symbol. Got Number, expected Symbol"},
	}
	for _, tc := range cases {
		errVal := expectErrorCategory(t, mustEval(t, New(), tc.src), tc.category)
		if errVal.Message != tc.message {
			t.Fatalf("%s: message %q, want %q", tc.src, errVal.Message, tc.message)
		}
	}
}

func TestFirstErrorWinsAfterAllChildrenEvaluate(t *testing.T) {
	interp := New()
	val := mustEval(t, interp, "(+ 1 a) (/ 1 0) (def {seen} 1)")
	errVal := expectErrorCategory(t, val, runtime.ErrUnboundSymbol)
	if errVal.Message != "Unbound symbol a" {
		t.Fatalf("expected first error to win, got %q", errVal.Message)
	}
	if got := Render(mustEval(t, interp, "seen")); got != "1" {
		t.Fatalf("later children should still run, seen = %s", got)
	}
}

func TestDefAndPutReturnEmptyExpression(t *testing.T) {
	expectRender(t, "()", "def {x y} 1 2")
	expectRender(t, "3", "def {x y} 1 2", "+ x y")
	expectRender(t, "()", "= {x} 1")
	expectRender(t, "{1 2}", "def {xs} {1 2}", "xs")
}

func TestPartialApplication(t *testing.T) {
	interp := New()
	mustEval(t, interp, `def {f} (\ {x y} {+ x y})`)

	partial := mustEval(t, interp, "f 1")
	lambda, ok := partial.(*runtime.LambdaValue)
	if !ok {
		t.Fatalf("expected lambda from partial application, got %T (%s)", partial, Render(partial))
	}
	if got := Render(lambda.Formals); got != "{y}" {
		t.Fatalf("expected remaining formal {y}, got %s", got)
	}
	if got := Render(mustEval(t, interp, "(f 1) 2")); got != "3" {
		t.Fatalf("expected 3, got %s", got)
	}

	mustEval(t, interp, "def {inc} (f 1)")
	if got := Render(mustEval(t, interp, "inc 5")); got != "6" {
		t.Fatalf("inc 5 = %s", got)
	}
	if got := Render(mustEval(t, interp, "inc 10")); got != "11" {
		t.Fatalf("inc 10 = %s", got)
	}
}

func TestTooManyArguments(t *testing.T) {
	interp := New()
	mustEval(t, interp, `def {f} (\ {x y} {+ x y})`)
	errVal := expectErrorCategory(t, mustEval(t, interp, "f 1 2 3"), runtime.ErrTooManyArguments)
	if errVal.Message != "Function passed too many arguments. Got 3, expected 2" {
		t.Fatalf("unexpected message %q", errVal.Message)
	}
	errVal = expectErrorCategory(t, mustEval(t, interp, "(f 1) 2 3"), runtime.ErrTooManyArguments)
	if errVal.Message != "Function passed too many arguments. Got 2, expected 1" {
		t.Fatalf("unexpected message %q", errVal.Message)
	}
}

func TestGlobalDefinitionVisibleFromOtherScopes(t *testing.T) {
	interp := New()
	mustEval(t, interp, "def {x} 5")
	mustEval(t, interp, `def {addx} (\ {y} {+ x y})`)
	mustEval(t, interp, `def {apply1} (\ {g} {g 1})`)

	if got := Render(mustEval(t, interp, "apply1 addx")); got != "6" {
		t.Fatalf("expected 6, got %s", got)
	}
	mustEval(t, interp, `def {definer} (\ {v} {def {fromlambda} v})`)
	mustEval(t, interp, "definer 9")
	if got := Render(mustEval(t, interp, "fromlambda")); got != "9" {
		t.Fatalf("def inside a lambda should bind globally, got %s", got)
	}
}

func TestLocalBindingDoesNotLeak(t *testing.T) {
	interp := New()
	mustEval(t, interp, `def {setlocal} (\ {v} {= {leak} v})`)
	if got := Render(mustEval(t, interp, "setlocal 7")); got != "()" {
		t.Fatalf("= should evaluate to (), got %s", got)
	}
	expectErrorCategory(t, mustEval(t, interp, "leak"), runtime.ErrUnboundSymbol)
	expectErrorCategory(t, interp.GlobalEnvironment().Get("leak"), runtime.ErrUnboundSymbol)
}

func TestFormalsShadowCallerBindings(t *testing.T) {
	interp := New()
	mustEval(t, interp, "def {x} 100")
	mustEval(t, interp, `def {id} (\ {x} {x})`)
	if got := Render(mustEval(t, interp, "id 1")); got != "1" {
		t.Fatalf("formal should shadow global, got %s", got)
	}
	if got := Render(mustEval(t, interp, "x")); got != "100" {
		t.Fatalf("global x changed by call: %s", got)
	}
}

func TestSaturatedCallsLeaveClosureUntouched(t *testing.T) {
	interp := New()
	env := interp.GlobalEnvironment()
	lambda := runtime.NewLambda(
		runtime.NewQExpr(runtime.Sym("x"), runtime.Sym("y")),
		runtime.NewSExpr(runtime.Sym("+"), runtime.Sym("x"), runtime.Sym("y")),
	)

	first := interp.call(env, lambda, runtime.NewSExpr(runtime.Num(1), runtime.Num(2)))
	second := interp.call(env, lambda, runtime.NewSExpr(runtime.Num(10), runtime.Num(20)))
	if Render(first) != "3" || Render(second) != "30" {
		t.Fatalf("unexpected results %s / %s", Render(first), Render(second))
	}
	for _, name := range []string{"x", "y"} {
		expectErrorCategory(t, lambda.Closure.Get(name), runtime.ErrUnboundSymbol)
	}
	// A closure re-parented to the caller would see the global builtins.
	expectErrorCategory(t, lambda.Closure.Get("+"), runtime.ErrUnboundSymbol)
	if lambda.Formals.Len() != 2 {
		t.Fatalf("formals consumed by a call: %s", Render(lambda.Formals))
	}

	partial := interp.call(env, lambda, runtime.NewSExpr(runtime.Num(4))).(*runtime.LambdaValue)
	if partial.Closure == lambda.Closure {
		t.Fatalf("partial application must not share the closure")
	}
	if Render(interp.call(env, partial, runtime.NewSExpr(runtime.Num(1)))) != "5" {
		t.Fatalf("partial call failed")
	}
	if Render(interp.call(env, partial, runtime.NewSExpr(runtime.Num(2)))) != "6" {
		t.Fatalf("partial call reused a mutated frame")
	}
}

func TestEvalUsesCallerScope(t *testing.T) {
	interp := New()
	mustEval(t, interp, `def {run} (\ {code} {eval code})`)
	mustEval(t, interp, `def {localize} (\ {v} {eval {= {inner} v}})`)
	mustEval(t, interp, "localize 3")
	expectErrorCategory(t, mustEval(t, interp, "inner"), runtime.ErrUnboundSymbol)
	if got := Render(mustEval(t, interp, "run {+ 1 2}")); got != "3" {
		t.Fatalf("expected 3, got %s", got)
	}
}

func TestRecursiveDefinition(t *testing.T) {
	interp := New()
	mustEval(t, interp, `def {len} (\ {xs} {eval (join {len-step} (list xs))})`)
	mustEval(t, interp, `def {len-step} (\ {xs} {+ 1 (len (tail xs))})`)
	// No conditionals, so the recursion bottoms out on tail {}.
	expectErrorCategory(t, mustEval(t, interp, "len {1 2 3}"), runtime.ErrEmptyArgument)
}

func TestRegisterCustomBuiltin(t *testing.T) {
	interp := New()
	interp.Register("count", func(_ *runtime.NativeCallContext, args *runtime.SExprValue) runtime.Value {
		return runtime.Num(int64(args.Len()))
	})
	if got := Render(mustEval(t, interp, "count 1 2 {3}")); got != "3" {
		t.Fatalf("expected 3, got %s", got)
	}
}

func TestBuiltinsTableIsComplete(t *testing.T) {
	env := New().GlobalEnvironment()
	for _, name := range []string{"\\", "def", "=", "list", "head", "tail", "eval", "join", "+", "-", "*", "/", "%", "^", "min", "max"} {
		if _, ok := env.Get(name).(*runtime.BuiltinValue); !ok {
			t.Fatalf("builtin %q not registered", name)
		}
	}
}

func TestEvalNodeFromSyntaxTree(t *testing.T) {
	interp := New()
	root := ast.Root(ast.Sym("+"), ast.Num("1"), ast.SExpr(ast.Sym("*"), ast.Num("2"), ast.Num("3")))
	if got := Render(interp.EvalNode(interp.GlobalEnvironment(), root)); got != "7" {
		t.Fatalf("expected 7, got %s", got)
	}
	q := ReadNode(ast.QExpr(ast.Str("a"), ast.Num("1")))
	if got := Render(q); got != `{"a" 1}` {
		t.Fatalf("unexpected read result %s", got)
	}
}

func TestEvalSourceReportsSyntaxErrors(t *testing.T) {
	interp := New()
	if _, err := interp.EvalSource(interp.GlobalEnvironment(), "broken.lspy", []byte("def {x} 1\n(+ 1")); err == nil {
		t.Fatalf("expected syntax error")
	}
	expectErrorCategory(t, interp.GlobalEnvironment().Get("x"), runtime.ErrUnboundSymbol)
	results, err := interp.EvalSource(interp.GlobalEnvironment(), "ok.lspy", []byte("def {x} 1\n+ x 1\n"))
	if err != nil {
		t.Fatalf("EvalSource: %v", err)
	}
	if len(results) != 2 || Render(results[1]) != "2" {
		t.Fatalf("unexpected results %v", results)
	}
}

func TestSessionsAreIndependent(t *testing.T) {
	a, b := New(), New()
	mustEval(t, a, "def {x} 1")
	expectErrorCategory(t, mustEval(t, b, "x"), runtime.ErrUnboundSymbol)
}
