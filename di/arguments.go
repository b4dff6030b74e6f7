package di

import "reflect"

// ExplicitArguments are caller-supplied values that take the place of
// registered instances for one build session. Values are returned as they
// are; no interceptor runs on them.
type ExplicitArguments struct {
	values map[instanceKey]any
}

// NewArguments creates an empty argument set.
func NewArguments() *ExplicitArguments {
	return &ExplicitArguments{values: make(map[instanceKey]any)}
}

// Add supplies value for the default instance of contract.
func (a *ExplicitArguments) Add(contract reflect.Type, value any) *ExplicitArguments {
	return a.AddNamed(contract, Default, value)
}

// AddNamed supplies value for the instance of contract registered under name.
func (a *ExplicitArguments) AddNamed(contract reflect.Type, name string, value any) *ExplicitArguments {
	a.values[instanceKey{contract: contract, name: name}] = value
	return a
}

// Get returns the value supplied for exactly (contract, name).
func (a *ExplicitArguments) Get(contract reflect.Type, name string) (any, bool) {
	if a == nil {
		return nil, false
	}
	v, ok := a.values[instanceKey{contract: contract, name: name}]
	return v, ok
}

// Len returns the number of supplied values.
func (a *ExplicitArguments) Len() int {
	if a == nil {
		return 0
	}
	return len(a.values)
}

// Set supplies value for the default instance of T.
func Set[T any](a *ExplicitArguments, value T) *ExplicitArguments {
	return a.Add(TypeOf[T](), value)
}

// SetNamed supplies value for the instance of T registered under name.
func SetNamed[T any](a *ExplicitArguments, name string, value T) *ExplicitArguments {
	return a.AddNamed(TypeOf[T](), name, value)
}
