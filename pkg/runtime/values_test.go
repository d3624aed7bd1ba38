package runtime

import "testing"

func TestValueRendering(t *testing.T) {
	lambda := NewLambda(NewQExpr(Sym("x")), NewSExpr(Sym("+"), Sym("x"), Num(1)))
	cases := []struct {
		name string
		val  Value
		want string
	}{
		{name: "Number", val: Num(-42), want: "-42"},
		{name: "Error", val: Err(ErrDivisionByZero, "Division by zero"), want: "ERROR: Division by zero"},
		{name: "Symbol", val: Sym("head"), want: "head"},
		{name: "String", val: Str("a\"b\n"), want: `"a\"b\n"`},
		{name: "EmptySExpr", val: NewSExpr(), want: "()"},
		{name: "EmptyQExpr", val: NewQExpr(), want: "{}"},
		{name: "Nested", val: NewSExpr(Sym("+"), Num(1), NewQExpr(Num(2), Num(3))), want: "(+ 1 {2 3})"},
		{name: "Builtin", val: NewBuiltin("+", nil), want: "<builtin>"},
		{name: "Lambda", val: lambda, want: `(\ {x} {+ x 1})`},
	}
	for _, tc := range cases {
		if got := tc.val.String(); got != tc.want {
			t.Fatalf("%s: expected %q, got %q", tc.name, tc.want, got)
		}
	}
}

func TestKindNames(t *testing.T) {
	if KindBuiltin.String() != "Function" || KindLambda.String() != "Function" {
		t.Fatalf("function kinds should render as Function, got %s/%s", KindBuiltin, KindLambda)
	}
	if KindQExpr.String() != "Q-Expression" || KindSExpr.String() != "S-Expression" {
		t.Fatalf("unexpected container kind names: %s/%s", KindSExpr, KindQExpr)
	}
}

func TestErrorMessageNeverEmpty(t *testing.T) {
	errVal := Err(ErrGeneric, "  ")
	if errVal.Message == "" || errVal.Message == "  " {
		t.Fatalf("expected placeholder message, got %q", errVal.Message)
	}
	if got := Errf(ErrUnboundSymbol, "Unbound symbol %s", "y").String(); got != "ERROR: Unbound symbol y" {
		t.Fatalf("unexpected rendering %q", got)
	}
}

func TestCellsPopPreservesOrder(t *testing.T) {
	s := NewSExpr(Num(1), Num(2), Num(3), Num(4))
	popped := s.Pop(1)
	if popped.(NumberValue).Val != 2 {
		t.Fatalf("expected to pop 2, got %s", popped)
	}
	if got := s.String(); got != "(1 3 4)" {
		t.Fatalf("expected (1 3 4), got %s", got)
	}
	s.Append(Num(5))
	if got := s.String(); got != "(1 3 4 5)" {
		t.Fatalf("expected (1 3 4 5), got %s", got)
	}
}

func TestCellsTakeDiscardsRest(t *testing.T) {
	q := NewQExpr(Num(1), Num(2), Num(3))
	taken := q.Take(2)
	if taken.(NumberValue).Val != 3 {
		t.Fatalf("expected 3, got %s", taken)
	}
	if q.Len() != 0 {
		t.Fatalf("expected container to be emptied, got %s", q)
	}
}

func TestQuoteAndUnquoteMoveChildren(t *testing.T) {
	s := NewSExpr(Num(1), Num(2))
	q := s.Quote()
	if q.String() != "{1 2}" || s.Len() != 0 {
		t.Fatalf("quote: got %s, source left with %d items", q, s.Len())
	}
	back := q.Unquote()
	if back.String() != "(1 2)" || q.Len() != 0 {
		t.Fatalf("unquote: got %s, source left with %d items", back, q.Len())
	}
}

func TestCopyIsDeep(t *testing.T) {
	inner := NewQExpr(Num(1), Num(2))
	orig := NewSExpr(Sym("list"), inner)
	dup := Copy(orig).(*SExprValue)

	dup.At(1).(*QExprValue).Append(Num(3))
	dup.Pop(0)

	if got := orig.String(); got != "(list {1 2})" {
		t.Fatalf("original mutated through copy: %s", got)
	}
}

func TestCopyLambdaClosureIsIndependent(t *testing.T) {
	lambda := NewLambda(NewQExpr(Sym("y")), NewSExpr(Sym("+"), Sym("x"), Sym("y")))
	lambda.Closure.Put("x", Num(1))

	dup := Copy(lambda).(*LambdaValue)
	dup.Closure.Put("x", Num(99))
	dup.Closure.Put("z", Num(7))
	dup.Formals.Pop(0)

	if got := lambda.Closure.Get("x"); got.(NumberValue).Val != 1 {
		t.Fatalf("original closure mutated: x = %s", got)
	}
	if _, ok := lambda.Closure.values["z"]; ok {
		t.Fatalf("binding leaked into original closure")
	}
	if lambda.Formals.Len() != 1 {
		t.Fatalf("original formals mutated: %s", lambda.Formals)
	}
}

func TestIsFunction(t *testing.T) {
	if !IsFunction(NewBuiltin("+", nil)) {
		t.Fatalf("builtin should be a function")
	}
	if !IsFunction(NewLambda(NewQExpr(), NewSExpr())) {
		t.Fatalf("lambda should be a function")
	}
	if IsFunction(Sym("+")) || IsFunction(NewQExpr()) {
		t.Fatalf("symbols and q-expressions are not functions")
	}
}
