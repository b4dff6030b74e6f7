package di

import (
	"context"
	"fmt"
	"reflect"

	"github.com/kbukum/objectgraph/errors"
)

func as[T any](contract reflect.Type, instance any) (T, error) {
	result, ok := instance.(T)
	if !ok {
		var zero T
		return zero, errors.TypeMismatch(contractName(contract), fmt.Sprintf("%T", instance), contractName(TypeOf[T]()))
	}
	return result, nil
}

// Get resolves the default instance of T.
//
// Example:
//
//	store, err := di.Get[Store](ctx, c)
//	if err != nil {
//	    return fmt.Errorf("failed to get store: %w", err)
//	}
func Get[T any](ctx context.Context, c *Container) (T, error) {
	return GetNamed[T](ctx, c, Default)
}

// GetNamed resolves the instance of T registered under name.
func GetNamed[T any](ctx context.Context, c *Container, name string) (T, error) {
	contract := TypeOf[T]()
	instance, err := c.GetInstance(ctx, contract, name)
	if err != nil {
		var zero T
		return zero, err
	}
	return as[T](contract, instance)
}

// MustGet resolves the default instance of T, panics on error.
// Use this during wiring, where a missing dependency is a programming error.
func MustGet[T any](ctx context.Context, c *Container) T {
	result, err := Get[T](ctx, c)
	if err != nil {
		panic(fmt.Sprintf("di: failed to resolve %s: %v", TypeOf[T](), err))
	}
	return result
}

// TryGet resolves the default instance of T, returns the zero value and
// false if it cannot be resolved. Use this when a dependency is optional.
//
// Example:
//
//	if metrics, ok := di.TryGet[MetricsClient](ctx, c); ok {
//	    metrics.RecordEvent(...)
//	}
func TryGet[T any](ctx context.Context, c *Container) (T, bool) {
	result, err := Get[T](ctx, c)
	if err != nil {
		var zero T
		return zero, false
	}
	return result, true
}

// GetAll builds every registered instance of T, in registration order.
func GetAll[T any](ctx context.Context, c *Container) ([]T, error) {
	contract := TypeOf[T]()
	instances, err := c.GetAllInstances(ctx, contract)
	if err != nil {
		return nil, err
	}
	return asAll[T](contract, instances)
}

// Resolve resolves the default instance of T from inside construction logic.
func Resolve[T any](creator InstanceCreator) (T, error) {
	return ResolveNamed[T](creator, Default)
}

// ResolveNamed resolves the instance of T registered under name from inside
// construction logic.
func ResolveNamed[T any](creator InstanceCreator, name string) (T, error) {
	contract := TypeOf[T]()
	instance, err := creator.Resolve(contract, name)
	if err != nil {
		var zero T
		return zero, err
	}
	return as[T](contract, instance)
}

// ResolveAll builds every instance of T from inside construction logic.
func ResolveAll[T any](creator InstanceCreator) ([]T, error) {
	contract := TypeOf[T]()
	instances, err := creator.ResolveAll(contract)
	if err != nil {
		return nil, err
	}
	return asAll[T](contract, instances)
}

// LazyOf returns a typed deferred factory for the default instance of T.
func LazyOf[T any](creator InstanceCreator) func() (T, error) {
	return LazyNamed[T](creator, Default)
}

// LazyNamed returns a typed deferred factory for the instance of T
// registered under name.
func LazyNamed[T any](creator InstanceCreator, name string) func() (T, error) {
	contract := TypeOf[T]()
	lazy := creator.CreateLazy(contract, name)
	return func() (T, error) {
		instance, err := lazy()
		if err != nil {
			var zero T
			return zero, err
		}
		return as[T](contract, instance)
	}
}

func asAll[T any](contract reflect.Type, instances []any) ([]T, error) {
	result := make([]T, 0, len(instances))
	for _, instance := range instances {
		v, err := as[T](contract, instance)
		if err != nil {
			return nil, err
		}
		result = append(result, v)
	}
	return result, nil
}
