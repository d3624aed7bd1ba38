package runtime

// Copy returns a deep structural copy of v. Containers copy every child and
// lambdas copy their closure, so the result shares no mutable state with v.
func Copy(v Value) Value {
	switch val := v.(type) {
	case nil:
		return nil
	case NumberValue, SymbolValue, StringValue, ErrorValue:
		return val
	case *SExprValue:
		return &SExprValue{Cells{Items: copyItems(val.Items)}}
	case *QExprValue:
		return copyQExpr(val)
	case *BuiltinValue:
		return val
	case *LambdaValue:
		return &LambdaValue{
			Formals: copyQExpr(val.Formals),
			Body:    &SExprValue{Cells{Items: copyItems(val.Body.Items)}},
			Closure: val.Closure.Copy(),
		}
	default:
		panic("runtime: copy of unknown value type")
	}
}

func copyQExpr(q *QExprValue) *QExprValue {
	return &QExprValue{Cells{Items: copyItems(q.Items)}}
}

func copyItems(items []Value) []Value {
	if items == nil {
		return nil
	}
	out := make([]Value, len(items))
	for i, item := range items {
		out[i] = Copy(item)
	}
	return out
}
