// Package interpreter reduces lispy values to normal form.
//
// Evaluation is a plain recursive descent over the value tree: symbols are
// looked up, S-expressions have their children reduced left to right and are
// then applied, and every other value is already in normal form. Failures are
// ordinary runtime.ErrorValue results rather than Go errors, so they flow back
// to the caller through the same path as any other value.
//
// There is no tail-call elimination. Recursion depth follows expression and
// call nesting, and exhausting the goroutine stack terminates the process.
// An Interpreter must not be shared between goroutines.
package interpreter
