package interpreter

import (
	"testing"

	"lispy/interpreter-go/pkg/runtime"
)

// mustEval runs src against interp and fails the test on syntax errors.
func mustEval(t *testing.T, interp *Interpreter, src string) runtime.Value {
	t.Helper()
	val, err := interp.EvalString(src)
	if err != nil {
		t.Fatalf("EvalString(%q) returned error: %v", src, err)
	}
	return val
}

// expectRender evaluates each source line in a fresh interpreter session and
// compares the printed result of the last one.
func expectRender(t *testing.T, want string, lines ...string) {
	t.Helper()
	interp := New()
	var got runtime.Value
	for _, line := range lines {
		got = mustEval(t, interp, line)
	}
	if Render(got) != want {
		t.Fatalf("%v: expected %q, got %q", lines, want, Render(got))
	}
}

func expectErrorCategory(t *testing.T, val runtime.Value, category runtime.ErrorCategory) runtime.ErrorValue {
	t.Helper()
	errVal, ok := val.(runtime.ErrorValue)
	if !ok {
		t.Fatalf("expected error value, got %T (%s)", val, Render(val))
	}
	if errVal.Category != category {
		t.Fatalf("expected %s, got %s (%s)", category, errVal.Category, errVal.Message)
	}
	return errVal
}
