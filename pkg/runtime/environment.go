package runtime

// Environment binds symbol names to values for one lexical scope. The parent
// link is non-owning.
type Environment struct {
	values map[string]Value
	parent *Environment
}

// NewEnvironment creates a new environment, optionally nested under a parent.
func NewEnvironment(parent *Environment) *Environment {
	return &Environment{
		values: make(map[string]Value),
		parent: parent,
	}
}

// SetParent relinks the environment under a new enclosing scope.
func (e *Environment) SetParent(parent *Environment) {
	e.parent = parent
}

// Get returns a copy of the value bound to name in the nearest scope that
// defines it, or an UnboundSymbol error value.
func (e *Environment) Get(name string) Value {
	for env := e; env != nil; env = env.parent {
		if v, ok := env.values[name]; ok {
			return Copy(v)
		}
	}
	return Errf(ErrUnboundSymbol, "Unbound symbol %s", name)
}

// Put binds name in the current scope, replacing any existing local binding.
// The value is copied so later changes to the caller's value cannot reach it.
func (e *Environment) Put(name string, value Value) {
	e.values[name] = Copy(value)
}

// Def binds name in the outermost (global) scope of the chain.
func (e *Environment) Def(name string, value Value) {
	e.Global().Put(name, value)
}

// Global walks the parent links to the outermost environment.
func (e *Environment) Global() *Environment {
	env := e
	for env.parent != nil {
		env = env.parent
	}
	return env
}

// Copy duplicates the local bindings into an independent environment that
// shares the same parent.
func (e *Environment) Copy() *Environment {
	if e == nil {
		return NewEnvironment(nil)
	}
	out := &Environment{
		values: make(map[string]Value, len(e.values)),
		parent: e.parent,
	}
	for name, v := range e.values {
		out.values[name] = Copy(v)
	}
	return out
}
