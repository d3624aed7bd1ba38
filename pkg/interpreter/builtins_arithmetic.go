package interpreter

import (
	"fmt"

	"lispy/interpreter-go/pkg/runtime"
)

// arithmetic folds args left to right with op. A lone argument to '-' is
// negated instead.
func arithmetic(op string) runtime.NativeFunc {
	return func(_ *runtime.NativeCallContext, args *runtime.SExprValue) runtime.Value {
		if errVal := firstError(
			func() runtime.Value { return expectAtLeastOne(op, args) },
			func() runtime.Value { return expectAllKind(op, args, runtime.KindNumber) },
		); errVal != nil {
			return errVal
		}

		acc := args.Pop(0).(runtime.NumberValue).Val
		if op == "-" && args.Len() == 0 {
			return runtime.Num(-acc)
		}
		for args.Len() > 0 {
			next := args.Pop(0).(runtime.NumberValue).Val
			result, err := applyArithmetic(op, acc, next)
			if err != nil {
				return runtime.Err(runtime.ErrDivisionByZero, err.Error())
			}
			acc = result
		}
		return runtime.Num(acc)
	}
}

func applyArithmetic(op string, x, y int64) (int64, error) {
	switch op {
	case "+":
		return x + y, nil
	case "-":
		return x - y, nil
	case "*":
		return x * y, nil
	case "/":
		if y == 0 {
			return 0, errDivisionByZero
		}
		return x / y, nil
	case "%":
		if y == 0 {
			return 0, errDivisionByZero
		}
		return x % y, nil
	case "^":
		return power(x, y)
	case "min":
		return min(x, y), nil
	case "max":
		return max(x, y), nil
	default:
		panic(fmt.Sprintf("interpreter: unknown arithmetic operator %q", op))
	}
}

// power raises base to exp with wrapping multiplication. Negative exponents
// truncate toward zero the way a floating point pow cast back to an integer
// would, and zero to a negative power is a division by zero.
func power(base, exp int64) (int64, error) {
	if exp < 0 {
		switch base {
		case 0:
			return 0, errDivisionByZero
		case 1:
			return 1, nil
		case -1:
			if exp%2 == 0 {
				return 1, nil
			}
			return -1, nil
		default:
			return 0, nil
		}
	}
	result := int64(1)
	for exp > 0 {
		if exp&1 == 1 {
			result *= base
		}
		base *= base
		exp >>= 1
	}
	return result, nil
}
