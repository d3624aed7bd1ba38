package interpreter

import "lispy/interpreter-go/pkg/runtime"

func builtinList(_ *runtime.NativeCallContext, args *runtime.SExprValue) runtime.Value {
	return args.Quote()
}

func builtinHead(_ *runtime.NativeCallContext, args *runtime.SExprValue) runtime.Value {
	if errVal := checkSingleList("head", args); errVal != nil {
		return errVal
	}
	q := args.Take(0).(*runtime.QExprValue)
	return runtime.NewQExpr(q.Take(0))
}

func builtinTail(_ *runtime.NativeCallContext, args *runtime.SExprValue) runtime.Value {
	if errVal := checkSingleList("tail", args); errVal != nil {
		return errVal
	}
	q := args.Take(0).(*runtime.QExprValue)
	q.Pop(0)
	return q
}

func builtinEval(ctx *runtime.NativeCallContext, args *runtime.SExprValue) runtime.Value {
	if errVal := firstError(
		func() runtime.Value { return expectCount("eval", args, 1) },
		func() runtime.Value { return expectKind("eval", args, 0, runtime.KindQExpr) },
	); errVal != nil {
		return errVal
	}
	q := args.Take(0).(*runtime.QExprValue)
	return ctx.Evaluator.Evaluate(ctx.Env, q.Unquote())
}

func builtinJoin(_ *runtime.NativeCallContext, args *runtime.SExprValue) runtime.Value {
	if errVal := firstError(
		func() runtime.Value { return expectAtLeastOne("join", args) },
		func() runtime.Value { return expectAllKind("join", args, runtime.KindQExpr) },
	); errVal != nil {
		return errVal
	}
	joined := args.Pop(0).(*runtime.QExprValue)
	for args.Len() > 0 {
		next := args.Pop(0).(*runtime.QExprValue)
		joined.Items = append(joined.Items, next.Items...)
	}
	return joined
}

func checkSingleList(fn string, args *runtime.SExprValue) runtime.Value {
	return firstError(
		func() runtime.Value { return expectCount(fn, args, 1) },
		func() runtime.Value { return expectKind(fn, args, 0, runtime.KindQExpr) },
		func() runtime.Value { return expectNonEmpty(fn, args, 0) },
	)
}
