package interpreter

import "lispy/interpreter-go/pkg/runtime"

// builtinLambda builds a function from a list of formal symbols and a body.
func builtinLambda(_ *runtime.NativeCallContext, args *runtime.SExprValue) runtime.Value {
	if errVal := firstError(
		func() runtime.Value { return expectCount("\\", args, 2) },
		func() runtime.Value { return expectKind("\\", args, 0, runtime.KindQExpr) },
		func() runtime.Value { return expectKind("\\", args, 1, runtime.KindQExpr) },
		func() runtime.Value { return expectSymbols("\\", args.At(0).(*runtime.QExprValue)) },
	); errVal != nil {
		return errVal
	}
	formals := args.Pop(0).(*runtime.QExprValue)
	body := args.Pop(0).(*runtime.QExprValue).Unquote()
	return runtime.NewLambda(formals, body)
}

// builtinVar implements def (global) and = (local). The first argument lists
// the symbols; the remaining arguments are the values bound to them in order.
func builtinVar(fn string, global bool) runtime.NativeFunc {
	return func(ctx *runtime.NativeCallContext, args *runtime.SExprValue) runtime.Value {
		if errVal := firstError(
			func() runtime.Value { return expectAtLeastOne(fn, args) },
			func() runtime.Value { return expectKind(fn, args, 0, runtime.KindQExpr) },
		); errVal != nil {
			return errVal
		}
		syms := args.Pop(0).(*runtime.QExprValue)
		if errVal := expectSymbols(fn, syms); errVal != nil {
			return errVal
		}
		if syms.Len() != args.Len() {
			return runtime.Errf(runtime.ErrArityMismatch,
				"Function '%s' passed incorrect number of values for symbols. Got %d, expected %d",
				fn, args.Len(), syms.Len())
		}
		for idx, item := range syms.Items {
			name := item.(runtime.SymbolValue).Name
			if global {
				ctx.Env.Def(name, args.At(idx))
			} else {
				ctx.Env.Put(name, args.At(idx))
			}
		}
		return runtime.NewSExpr()
	}
}
