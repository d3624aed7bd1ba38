package interpreter

import "lispy/interpreter-go/pkg/runtime"

// call applies fn to args, which have already been evaluated.
func (i *Interpreter) call(env *runtime.Environment, fn runtime.Value, args *runtime.SExprValue) runtime.Value {
	switch f := fn.(type) {
	case *runtime.BuiltinValue:
		return f.Impl(&runtime.NativeCallContext{Env: env, Evaluator: i}, args)
	case *runtime.LambdaValue:
		return i.callLambda(env, f, args)
	default:
		return runtime.Errf(runtime.ErrInvalidHead, "Cannot call value of type %s", fn.Kind())
	}
}

// callLambda binds arguments into a fresh frame copied from the closure. With
// formals left over the frame becomes the closure of a partially applied
// lambda; otherwise the body runs in the frame, parented to the caller, and
// the frame is dropped. The lambda's own closure is never written to.
func (i *Interpreter) callLambda(env *runtime.Environment, fn *runtime.LambdaValue, args *runtime.SExprValue) runtime.Value {
	given := args.Len()
	total := fn.Formals.Len()

	frame := fn.Closure.Copy()
	formals := runtime.Copy(fn.Formals).(*runtime.QExprValue)
	for args.Len() > 0 {
		if formals.Len() == 0 {
			return runtime.Errf(runtime.ErrTooManyArguments,
				"Function passed too many arguments. Got %d, expected %d", given, total)
		}
		formal := formals.Pop(0)
		sym, ok := formal.(runtime.SymbolValue)
		if !ok {
			return runtime.Errf(runtime.ErrTypeMismatch,
				"Function formal has incorrect type. Got %s, expected %s", formal.Kind(), runtime.KindSymbol)
		}
		frame.Put(sym.Name, args.Pop(0))
	}

	body := runtime.Copy(fn.Body).(*runtime.SExprValue)
	if formals.Len() > 0 {
		return &runtime.LambdaValue{
			Formals: formals,
			Body:    body,
			Closure: frame,
		}
	}

	frame.SetParent(env)
	return i.Evaluate(frame, body)
}
