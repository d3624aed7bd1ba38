package interpreter

import "lispy/interpreter-go/pkg/runtime"

// BuiltinSpec names one native operation of the standard library.
type BuiltinSpec struct {
	Name string
	Impl runtime.NativeFunc
}

// Builtins returns the standard library in registration order.
func Builtins() []BuiltinSpec {
	return []BuiltinSpec{
		{Name: "\\", Impl: builtinLambda},
		{Name: "def", Impl: builtinVar("def", true)},
		{Name: "=", Impl: builtinVar("=", false)},

		{Name: "list", Impl: builtinList},
		{Name: "head", Impl: builtinHead},
		{Name: "tail", Impl: builtinTail},
		{Name: "eval", Impl: builtinEval},
		{Name: "join", Impl: builtinJoin},

		{Name: "+", Impl: arithmetic("+")},
		{Name: "-", Impl: arithmetic("-")},
		{Name: "*", Impl: arithmetic("*")},
		{Name: "/", Impl: arithmetic("/")},
		{Name: "%", Impl: arithmetic("%")},
		{Name: "^", Impl: arithmetic("^")},
		{Name: "min", Impl: arithmetic("min")},
		{Name: "max", Impl: arithmetic("max")},
	}
}
