package di

import (
	"fmt"
	"reflect"

	"github.com/google/uuid"

	"github.com/kbukum/objectgraph/errors"
)

// Kind identifies how an Instance produces its value.
type Kind int

const (
	// KindConstructed calls a factory function.
	KindConstructed Kind = iota
	// KindObject returns a value built by the caller.
	KindObject
	// KindLazy returns a LazyFunc that resolves a target on invocation.
	KindLazy
	// KindReferenced resolves another named instance of the same contract.
	KindReferenced
	// KindEnumerable returns every registered instance of an element contract.
	KindEnumerable
)

func (k Kind) String() string {
	switch k {
	case KindConstructed:
		return "constructed"
	case KindObject:
		return "object"
	case KindLazy:
		return "lazy"
	case KindReferenced:
		return "referenced"
	case KindEnumerable:
		return "enumerable"
	default:
		return fmt.Sprintf("Kind(%d)", int(k))
	}
}

// BuildFunc is the construction logic of a KindConstructed instance. It
// resolves its own dependencies through creator.
type BuildFunc func(creator InstanceCreator) (any, error)

// LazyFunc resolves its target when called, under the build frames active
// at that moment.
type LazyFunc func() (any, error)

// Instance is a recipe for one value of a contract.
type Instance struct {
	contract    reflect.Type
	name        string
	named       bool
	lifecycle   Lifecycle
	interceptor InstanceInterceptor
	description string

	kind       Kind
	factory    BuildFunc
	value      any
	target     reflect.Type
	targetName string
}

func newInstance(contract reflect.Type, kind Kind) *Instance {
	return &Instance{
		contract: contract,
		name:     uuid.NewString(),
		kind:     kind,
	}
}

// ConstructedBy creates an instance of contract built by factory.
func ConstructedBy(contract reflect.Type, factory BuildFunc) *Instance {
	i := newInstance(contract, KindConstructed)
	i.factory = factory
	return i
}

// Construct creates an instance of T built by factory.
func Construct[T any](factory func(creator InstanceCreator) (T, error)) *Instance {
	var build BuildFunc
	if factory != nil {
		build = func(creator InstanceCreator) (any, error) {
			return factory(creator)
		}
	}
	return ConstructedBy(TypeOf[T](), build)
}

// Object creates an instance of contract that always yields value.
func Object(contract reflect.Type, value any) *Instance {
	i := newInstance(contract, KindObject)
	i.value = value
	return i
}

// Value creates an instance of T that always yields value.
func Value[T any](value T) *Instance {
	return Object(TypeOf[T](), value)
}

// Lazy creates an instance of contract whose value is a LazyFunc resolving
// target by name.
func Lazy(contract, target reflect.Type, name string) *Instance {
	i := newInstance(contract, KindLazy)
	i.target = target
	i.targetName = name
	return i
}

// Referenced creates an instance of contract that resolves the instance of
// the same contract registered under name.
func Referenced(contract reflect.Type, name string) *Instance {
	i := newInstance(contract, KindReferenced)
	i.target = contract
	i.targetName = name
	return i
}

// AllOf creates an instance of contract whose value is a []any holding every
// registered instance of element, in registration order.
func AllOf(contract, element reflect.Type) *Instance {
	i := newInstance(contract, KindEnumerable)
	i.target = element
	return i
}

// Named sets the instance name.
func (i *Instance) Named(name string) *Instance {
	if name == Default {
		i.name = uuid.NewString()
		i.named = false
		return i
	}
	i.name = name
	i.named = true
	return i
}

// WithLifecycle sets the lifecycle.
func (i *Instance) WithLifecycle(l Lifecycle) *Instance {
	i.lifecycle = l
	return i
}

// AlwaysUnique builds a new value for every request.
func (i *Instance) AlwaysUnique() *Instance { return i.WithLifecycle(LifecycleUnique) }

// Singleton caches the value for the lifetime of the registry.
func (i *Instance) Singleton() *Instance { return i.WithLifecycle(LifecycleSingleton) }

// InterceptWith sets the instance's own interceptor, applied before any
// interceptor registered for the value's runtime type.
func (i *Instance) InterceptWith(interceptor InstanceInterceptor) *Instance {
	i.interceptor = interceptor
	return i
}

// Describe attaches a human-readable description.
func (i *Instance) Describe(description string) *Instance {
	i.description = description
	return i
}

// Contract returns the contract the instance is registered for.
func (i *Instance) Contract() reflect.Type { return i.contract }

// Name returns the instance name. Unnamed instances have a generated name.
func (i *Instance) Name() string { return i.name }

// IsNamed reports whether the name was set explicitly.
func (i *Instance) IsNamed() bool { return i.named }

// Label is the name used in messages: the name, or "(default)".
func (i *Instance) Label() string {
	if !i.named {
		return nameLabel(Default)
	}
	return i.name
}

// Kind returns the variant.
func (i *Instance) Kind() Kind { return i.kind }

// Lifecycle returns the effective lifecycle.
func (i *Instance) Lifecycle() Lifecycle {
	if i.lifecycle == lifecycleUnset {
		return LifecycleSession
	}
	return i.lifecycle
}

// Interceptor returns the instance's own interceptor, or Identity.
func (i *Instance) Interceptor() InstanceInterceptor {
	if i.interceptor == nil {
		return Identity
	}
	return i.interceptor
}

// Description returns the description set by Describe.
func (i *Instance) Description() string { return i.description }

func (i *Instance) String() string {
	return fmt.Sprintf("%s %s named %s", i.kind, contractName(i.contract), i.Label())
}

// Validate reports a malformed recipe.
func (i *Instance) Validate() error {
	if i == nil {
		return errors.InvalidRecipe("nil instance")
	}
	if i.contract == nil {
		return errors.InvalidRecipe(fmt.Sprintf("%s instance has no contract", i.kind))
	}
	switch i.kind {
	case KindConstructed:
		if i.factory == nil {
			return errors.InvalidRecipe("nil factory for " + i.contract.String())
		}
	case KindObject:
		if i.value == nil {
			return errors.InvalidRecipe("nil object for " + i.contract.String())
		}
		if got := reflect.TypeOf(i.value); !got.AssignableTo(i.contract) {
			return errors.InvalidRecipe(fmt.Sprintf("object of type %s does not satisfy %s", got, i.contract))
		}
	case KindLazy, KindEnumerable:
		if i.target == nil {
			return errors.InvalidRecipe(fmt.Sprintf("%s instance of %s has no target", i.kind, i.contract))
		}
	case KindReferenced:
		if i.named && i.targetName == i.name {
			return errors.InvalidRecipe(fmt.Sprintf("instance %s of %s references itself", i.name, i.contract))
		}
	default:
		return errors.InvalidRecipe(fmt.Sprintf("unknown instance kind %d", int(i.kind)))
	}
	return nil
}

// Build produces the value for contract: the variant's own construction,
// then the instance interceptor, then the interceptors registered for the
// runtime type of the constructed value.
func (i *Instance) Build(contract reflect.Type, creator InstanceCreator) (any, error) {
	if err := i.Validate(); err != nil {
		return nil, err
	}

	raw, err := i.build(contract, creator)
	if err != nil {
		return nil, i.failure(errors.ConstructionFailed, contract, err)
	}
	if raw == nil {
		return nil, errors.ConstructionFailed(contractName(contract), i.labelFor(), fmt.Errorf("construction returned nil"))
	}
	if i.checksType() && contract != nil && !reflect.TypeOf(raw).AssignableTo(contract) {
		return nil, errors.TypeMismatch(contractName(contract), reflect.TypeOf(raw).String(), contract.String())
	}

	value, err := i.Interceptor().Process(raw)
	if err != nil {
		return nil, i.failure(errors.InterceptionFailed, contract, err)
	}

	value, err = creator.FindInterceptor(reflect.TypeOf(raw)).Process(value)
	if err != nil {
		return nil, i.failure(errors.InterceptionFailed, contract, err)
	}
	return value, nil
}

func (i *Instance) build(contract reflect.Type, creator InstanceCreator) (any, error) {
	switch i.kind {
	case KindConstructed:
		return i.factory(creator)
	case KindObject:
		return i.value, nil
	case KindLazy:
		return creator.CreateLazy(i.target, i.targetName), nil
	case KindReferenced:
		return creator.Resolve(i.target, i.targetName)
	case KindEnumerable:
		return creator.ResolveAll(i.target)
	default:
		return nil, errors.InvalidRecipe(fmt.Sprintf("unknown instance kind %d", int(i.kind)))
	}
}

// checksType reports whether the variant yields values of the contract
// itself, rather than a LazyFunc or a slice.
func (i *Instance) checksType() bool {
	return i.kind == KindConstructed || i.kind == KindObject || i.kind == KindReferenced
}

func (i *Instance) labelFor() string {
	if !i.named {
		return Default
	}
	return i.name
}

// failure tags err with the contract and name unless it already carries a
// resolution error from a deeper build.
func (i *Instance) failure(wrap func(contract, name string, cause error) *errors.AppError, contract reflect.Type, err error) error {
	if errors.IsAppError(err) {
		return err
	}
	return wrap(contractName(contract), i.labelFor(), err)
}
