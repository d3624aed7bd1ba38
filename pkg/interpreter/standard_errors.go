package interpreter

import (
	"errors"

	"lispy/interpreter-go/pkg/runtime"
)

var errDivisionByZero = errors.New("Division by zero")

func argCountError(fn string, got, want int) runtime.Value {
	return runtime.Errf(runtime.ErrArityMismatch,
		"Function '%s' passed incorrect number of arguments. Got %d, expected %d", fn, got, want)
}

func argTypeError(fn string, idx int, got, want runtime.Kind) runtime.Value {
	return runtime.Errf(runtime.ErrTypeMismatch,
		"Function '%s' passed incorrect type for argument %d. Got %s, expected %s", fn, idx, got, want)
}

func emptyArgError(fn string, idx int) runtime.Value {
	return runtime.Errf(runtime.ErrEmptyArgument, "Function '%s' passed {} for argument %d", fn, idx)
}

// expectCount returns an error value unless args holds exactly want values.
func expectCount(fn string, args *runtime.SExprValue, want int) runtime.Value {
	if args.Len() != want {
		return argCountError(fn, args.Len(), want)
	}
	return nil
}

func expectAtLeastOne(fn string, args *runtime.SExprValue) runtime.Value {
	if args.Len() == 0 {
		return runtime.Errf(runtime.ErrArityMismatch, "Function '%s' passed no arguments", fn)
	}
	return nil
}

// expectKind returns an error value unless argument idx has the given kind.
func expectKind(fn string, args *runtime.SExprValue, idx int, want runtime.Kind) runtime.Value {
	if got := args.At(idx).Kind(); got != want {
		return argTypeError(fn, idx, got, want)
	}
	return nil
}

// expectAllKind checks every argument against want.
func expectAllKind(fn string, args *runtime.SExprValue, want runtime.Kind) runtime.Value {
	for idx := range args.Items {
		if errVal := expectKind(fn, args, idx, want); errVal != nil {
			return errVal
		}
	}
	return nil
}

func expectNonEmpty(fn string, args *runtime.SExprValue, idx int) runtime.Value {
	if q, ok := args.At(idx).(*runtime.QExprValue); ok && q.Len() == 0 {
		return emptyArgError(fn, idx)
	}
	return nil
}

// expectSymbols checks that every element of q is a symbol.
func expectSymbols(fn string, q *runtime.QExprValue) runtime.Value {
	for _, item := range q.Items {
		if item.Kind() != runtime.KindSymbol {
			return runtime.Errf(runtime.ErrTypeMismatch,
				"Function '%s' cannot define non-symbol. Got %s, expected %s", fn, item.Kind(), runtime.KindSymbol)
		}
	}
	return nil
}

// firstError returns the first non-nil check result.
func firstError(checks ...func() runtime.Value) runtime.Value {
	for _, check := range checks {
		if errVal := check(); errVal != nil {
			return errVal
		}
	}
	return nil
}
