package di

import (
	"reflect"
)

// InstanceCreator is what construction logic sees of the session building
// it: nested resolution, interceptor discovery and the build context.
type InstanceCreator interface {
	// Resolve builds the instance of contract registered under name, within
	// the current session.
	Resolve(contract reflect.Type, name string) (any, error)
	// ResolveAll builds every instance of contract in registration order.
	ResolveAll(contract reflect.Type) ([]any, error)
	// CreateLazy returns a LazyFunc that resolves (contract, name) when called.
	CreateLazy(contract reflect.Type, name string) LazyFunc
	// FindInterceptor returns the interceptors registered for a runtime type.
	FindInterceptor(runtimeType reflect.Type) InstanceInterceptor
	// RootType is the contract the whole graph is being built for.
	RootType() reflect.Type
	// ParentType is the contract whose build requested the current one.
	ParentType() reflect.Type
}

var _ InstanceCreator = (*BuildSession)(nil)

// Resolve implements InstanceCreator.
func (s *BuildSession) Resolve(contract reflect.Type, name string) (any, error) {
	return s.GetInstance(contract, name)
}

// ResolveAll implements InstanceCreator.
func (s *BuildSession) ResolveAll(contract reflect.Type) ([]any, error) {
	return s.GetAllInstances(contract)
}

// CreateLazy returns a LazyFunc bound to this session. The build happens at
// invocation time, under whatever frames are active then.
func (s *BuildSession) CreateLazy(contract reflect.Type, name string) LazyFunc {
	return func() (any, error) {
		return s.GetInstance(contract, name)
	}
}

// FindInterceptor implements InstanceCreator.
func (s *BuildSession) FindInterceptor(runtimeType reflect.Type) InstanceInterceptor {
	return s.interceptors.Lookup(runtimeType)
}

// buildLifecycle builds inst according to its lifecycle. cached reports
// whether the value was served from a cache.
func (s *BuildSession) buildLifecycle(contract reflect.Type, inst *Instance) (value any, cached bool, err error) {
	switch inst.Lifecycle() {
	case LifecycleUnique:
		value, err = s.buildUnique(contract, inst)
		return value, false, err
	case LifecycleSingleton:
		return s.buildSingleton(contract, inst)
	default:
		return s.buildCached(contract, inst)
	}
}

func (s *BuildSession) buildUnique(contract reflect.Type, inst *Instance) (any, error) {
	return inst.Build(contract, s)
}

// buildCached builds inst at most once per session. Failures are not cached.
func (s *BuildSession) buildCached(contract reflect.Type, inst *Instance) (any, bool, error) {
	if v, ok := s.cache[inst]; ok {
		return v, true, nil
	}
	v, err := inst.Build(contract, s)
	if err != nil {
		return nil, false, err
	}
	s.cache[inst] = v
	return v, false, nil
}

// buildSingleton builds inst at most once per registry. Without a registry
// cache the session cache is used.
func (s *BuildSession) buildSingleton(contract reflect.Type, inst *Instance) (any, bool, error) {
	if s.singletons == nil {
		return s.buildCached(contract, inst)
	}
	return s.singletons.GetOrBuild(inst, func() (any, error) {
		return inst.Build(contract, s)
	})
}
