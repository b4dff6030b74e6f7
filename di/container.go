package di

import (
	"context"
	stderrors "errors"
	"fmt"
	"io"
	"reflect"
	"sync"

	"go.opentelemetry.io/otel/trace"

	"github.com/kbukum/objectgraph/config"
	"github.com/kbukum/objectgraph/logger"
	"github.com/kbukum/objectgraph/observability"
)

// Registration describes a registered instance for introspection.
type Registration struct {
	Contract    string `json:"contract"`
	Name        string `json:"name"`
	Default     bool   `json:"default"`
	Kind        string `json:"kind"`
	Lifecycle   string `json:"lifecycle"`
	Description string `json:"description,omitempty"`
	Intercepted bool   `json:"intercepted"`
	Built       bool   `json:"built"`
}

// family is every instance registered for one contract.
type family struct {
	instances []*Instance
	byName    map[string]*Instance
	def       *Instance
}

// Container is a thread-safe Registry. It owns the singleton cache and the
// interceptor chain shared by the sessions it opens. No lock is held while
// a session builds.
type Container struct {
	families     map[reflect.Type]*family
	contracts    []reflect.Type
	interceptors *InterceptorChain
	singletons   *SingletonCache
	mutex        sync.RWMutex

	maxDepth         int
	defaultLifecycle Lifecycle
	log              *logger.Logger
	tracer           trace.Tracer
	metrics          *observability.BuildMetrics
}

var (
	_ Registry          = (*Container)(nil)
	_ SingletonSource   = (*Container)(nil)
	_ InterceptorSource = (*Container)(nil)
)

// Option configures a Container.
type Option func(*Container) error

// WithConfig applies the resolution settings of cfg.
func WithConfig(cfg config.Config) Option {
	return func(c *Container) error {
		lifecycle, err := ParseLifecycle(cfg.Resolution.DefaultLifecycle)
		if err != nil {
			return err
		}
		c.defaultLifecycle = lifecycle
		if cfg.Resolution.MaxDepth > 0 {
			c.maxDepth = cfg.Resolution.MaxDepth
		}
		return nil
	}
}

// WithLogger sets the logger used by the container and its sessions.
func WithLogger(l *logger.Logger) Option {
	return func(c *Container) error {
		c.log = l
		return nil
	}
}

// WithTracer sets the tracer used for build spans.
func WithTracer(t trace.Tracer) Option {
	return func(c *Container) error {
		c.tracer = t
		return nil
	}
}

// WithMetrics sets the build instruments.
func WithMetrics(m *observability.BuildMetrics) Option {
	return func(c *Container) error {
		c.metrics = m
		return nil
	}
}

// NewContainer creates an empty container.
func NewContainer(opts ...Option) (*Container, error) {
	c := &Container{
		families:         make(map[reflect.Type]*family),
		interceptors:     NewInterceptorChain(),
		singletons:       NewSingletonCache(),
		maxDepth:         config.DefaultMaxDepth,
		defaultLifecycle: LifecycleSession,
	}
	for _, opt := range opts {
		if err := opt(c); err != nil {
			return nil, err
		}
	}
	if c.log == nil {
		c.log = logger.Get("di")
	}
	return c, nil
}

// MustContainer is NewContainer that panics on an invalid option.
func MustContainer(opts ...Option) *Container {
	c, err := NewContainer(opts...)
	if err != nil {
		panic(fmt.Sprintf("di: %v", err))
	}
	return c
}

// Use registers inst and makes it the default instance of its contract.
func (c *Container) Use(inst *Instance) error {
	return c.register(inst, true)
}

// Add registers inst. It becomes the default only if its contract has none.
func (c *Container) Add(inst *Instance) error {
	return c.register(inst, false)
}

func (c *Container) register(inst *Instance, makeDefault bool) error {
	if err := inst.Validate(); err != nil {
		return err
	}
	if inst.lifecycle == lifecycleUnset {
		inst.lifecycle = c.defaultLifecycle
	}

	c.mutex.Lock()
	defer c.mutex.Unlock()

	f, ok := c.families[inst.contract]
	if !ok {
		f = &family{byName: make(map[string]*Instance)}
		c.families[inst.contract] = f
		c.contracts = append(c.contracts, inst.contract)
	}

	if prev, ok := f.byName[inst.name]; ok {
		for n, existing := range f.instances {
			if existing == prev {
				f.instances[n] = inst
			}
		}
		if f.def == prev {
			f.def = inst
		}
		c.log.Debug("instance replaced", logger.Fields(
			logger.FieldContract, contractName(inst.contract),
			logger.FieldInstance, inst.Label(),
		))
	} else {
		f.instances = append(f.instances, inst)
	}
	f.byName[inst.name] = inst

	if makeDefault || f.def == nil {
		f.def = inst
	}
	return nil
}

// Intercept registers an interceptor for runtime type t, or for every type
// implementing t when t is an interface.
func (c *Container) Intercept(t reflect.Type, interceptor InstanceInterceptor) error {
	return c.interceptors.Register(t, interceptor)
}

// InterceptMatching registers an interceptor for every runtime type accepted by match.
func (c *Container) InterceptMatching(description string, match func(reflect.Type) bool, interceptor InstanceInterceptor) error {
	return c.interceptors.RegisterMatching(description, match, interceptor)
}

// Lookup implements Registry.
func (c *Container) Lookup(contract reflect.Type, name string) (*Instance, bool) {
	c.mutex.RLock()
	defer c.mutex.RUnlock()

	f, ok := c.families[contract]
	if !ok {
		return nil, false
	}
	if name == Default {
		return f.def, f.def != nil
	}
	inst, ok := f.byName[name]
	return inst, ok
}

// LookupAll implements Registry.
func (c *Container) LookupAll(contract reflect.Type) []*Instance {
	c.mutex.RLock()
	defer c.mutex.RUnlock()

	f, ok := c.families[contract]
	if !ok {
		return nil
	}
	return append([]*Instance(nil), f.instances...)
}

// Singletons implements SingletonSource.
func (c *Container) Singletons() *SingletonCache { return c.singletons }

// Interceptors implements InterceptorSource.
func (c *Container) Interceptors() *InterceptorChain { return c.interceptors }

// NewSession opens a build session against the container.
func (c *Container) NewSession(ctx context.Context, opts ...SessionOption) *BuildSession {
	base := []SessionOption{
		WithContext(ctx),
		WithMaxDepth(c.maxDepth),
		WithSessionLogger(c.log),
		WithSessionTracer(c.tracer),
		WithSessionMetrics(c.metrics),
	}
	return NewBuildSession(c, append(base, opts...)...)
}

// GetInstance resolves the instance of contract registered under name in a
// new session.
func (c *Container) GetInstance(ctx context.Context, contract reflect.Type, name string) (any, error) {
	return c.NewSession(ctx).GetInstance(contract, name)
}

// GetInstanceWithArgs resolves like GetInstance, with explicit arguments
// taking the place of registered instances.
func (c *Container) GetInstanceWithArgs(ctx context.Context, contract reflect.Type, name string, args *ExplicitArguments) (any, error) {
	return c.NewSession(ctx, WithArguments(args)).GetInstance(contract, name)
}

// GetInstanceOf builds inst for contract in a new session without
// registering it.
func (c *Container) GetInstanceOf(ctx context.Context, contract reflect.Type, inst *Instance) (any, error) {
	return c.NewSession(ctx).GetInstanceOf(contract, inst)
}

// GetAllInstances builds every instance of contract in a new session.
func (c *Container) GetAllInstances(ctx context.Context, contract reflect.Type) ([]any, error) {
	return c.NewSession(ctx).GetAllInstances(contract)
}

// Registrations returns info about all registered instances, in
// registration order.
func (c *Container) Registrations() []Registration {
	c.mutex.RLock()
	defer c.mutex.RUnlock()

	result := make([]Registration, 0, len(c.contracts))
	for _, contract := range c.contracts {
		f := c.families[contract]
		for _, inst := range f.instances {
			result = append(result, Registration{
				Contract:    contractName(contract),
				Name:        inst.Label(),
				Default:     f.def == inst,
				Kind:        inst.kind.String(),
				Lifecycle:   inst.Lifecycle().String(),
				Description: inst.description,
				Intercepted: inst.interceptor != nil,
				Built:       c.singletons.Has(inst),
			})
		}
	}
	return result
}

// InterceptorRules lists the registered interceptor rules.
func (c *Container) InterceptorRules() []InterceptorRule {
	return c.interceptors.Rules()
}

// EjectAllInstancesOf drops, and closes, the cached singletons of contract.
// Registrations are kept; the next request builds new values.
func (c *Container) EjectAllInstancesOf(contract reflect.Type) error {
	c.log.Debug("ejecting singletons", logger.Fields(logger.FieldContract, contractName(contract)))
	return c.singletons.Eject(contract)
}

// ResetSingletons drops, and closes, every cached singleton.
func (c *Container) ResetSingletons() error {
	return c.singletons.Reset()
}

// Close closes every cached singleton and every registered object that
// implements io.Closer. An object cached as a singleton is closed once.
func (c *Container) Close() error {
	c.mutex.RLock()
	var closers []io.Closer
	for _, contract := range c.contracts {
		for _, inst := range c.families[contract].instances {
			if inst.kind != KindObject || c.singletons.Has(inst) {
				continue
			}
			if closer, ok := inst.value.(io.Closer); ok {
				closers = append(closers, closer)
			}
		}
	}
	c.mutex.RUnlock()

	errs := []error{c.singletons.Close()}
	for _, closer := range closers {
		if err := closer.Close(); err != nil {
			errs = append(errs, err)
		}
	}

	err := stderrors.Join(errs...)
	if err != nil {
		c.log.Warn("container closed with errors", logger.ErrorFields("close", err))
	} else {
		c.log.Info("container closed", logger.Fields(logger.FieldCount, len(closers)))
	}
	return err
}
