package di

import (
	stderrors "errors"
	"fmt"
	"io"
	"reflect"
	"sync"
	"sync/atomic"
)

// Registry maps contracts to instances. Implementations must be safe for
// concurrent reads.
type Registry interface {
	// Lookup returns the instance of contract registered under name, or the
	// contract's default instance when name is Default.
	Lookup(contract reflect.Type, name string) (*Instance, bool)
	// LookupAll returns every instance of contract in registration order.
	LookupAll(contract reflect.Type) []*Instance
}

// SingletonSource is implemented by registries that own a singleton cache.
type SingletonSource interface {
	Singletons() *SingletonCache
}

// InterceptorSource is implemented by registries that own an interceptor chain.
type InterceptorSource interface {
	Interceptors() *InterceptorChain
}

type singletonEntry struct {
	mu    sync.Mutex
	value any
	built atomic.Bool
}

// SingletonCache holds process-wide singleton values, one per instance.
// Each instance has its own lock, so building one singleton never blocks the
// build of another. Failed builds are not cached.
type SingletonCache struct {
	mu      sync.Mutex
	entries map[*Instance]*singletonEntry
	order   []*Instance
}

// NewSingletonCache creates an empty cache.
func NewSingletonCache() *SingletonCache {
	return &SingletonCache{entries: make(map[*Instance]*singletonEntry)}
}

func (c *SingletonCache) entry(inst *Instance) *singletonEntry {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.entries[inst]
	if !ok {
		e = &singletonEntry{}
		c.entries[inst] = e
	}
	return e
}

// GetOrBuild returns the cached value for inst, building it with build on
// first use. cached reports whether the value came from the cache.
func (c *SingletonCache) GetOrBuild(inst *Instance, build func() (any, error)) (value any, cached bool, err error) {
	e := c.entry(inst)

	e.mu.Lock()
	defer e.mu.Unlock()

	if e.built.Load() {
		return e.value, true, nil
	}

	value, err = build()
	if err != nil {
		return nil, false, err
	}
	e.value = value
	e.built.Store(true)

	c.mu.Lock()
	c.order = append(c.order, inst)
	c.mu.Unlock()
	return value, false, nil
}

// Has reports whether a value for inst is cached. It does not wait for a
// build in progress.
func (c *SingletonCache) Has(inst *Instance) bool {
	c.mu.Lock()
	e, ok := c.entries[inst]
	c.mu.Unlock()
	return ok && e.built.Load()
}

// Len returns the number of cached values.
func (c *SingletonCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	n := 0
	for _, inst := range c.order {
		if _, ok := c.entries[inst]; ok {
			n++
		}
	}
	return n
}

// Eject drops and closes every cached value of contract.
func (c *SingletonCache) Eject(contract reflect.Type) error {
	return c.drop(func(inst *Instance) bool { return inst.contract == contract })
}

// Reset drops and closes every cached value.
func (c *SingletonCache) Reset() error {
	return c.drop(func(*Instance) bool { return true })
}

// Close closes every cached value that implements io.Closer, most recently
// built first, and empties the cache.
func (c *SingletonCache) Close() error {
	return c.Reset()
}

func (c *SingletonCache) drop(match func(*Instance) bool) error {
	c.mu.Lock()
	var (
		values []any
		names  []string
		kept   []*Instance
	)
	for n := len(c.order) - 1; n >= 0; n-- {
		inst := c.order[n]
		e, ok := c.entries[inst]
		if !ok {
			continue
		}
		if !match(inst) {
			kept = append(kept, inst)
			continue
		}
		delete(c.entries, inst)
		values = append(values, e.value)
		names = append(names, inst.String())
	}
	for inst := range c.entries {
		if match(inst) {
			delete(c.entries, inst)
		}
	}
	// kept was collected newest first.
	for l, r := 0, len(kept)-1; l < r; l, r = l+1, r-1 {
		kept[l], kept[r] = kept[r], kept[l]
	}
	c.order = kept
	c.mu.Unlock()

	var errs []error
	for n, v := range values {
		if closer, ok := v.(io.Closer); ok {
			if err := closer.Close(); err != nil {
				errs = append(errs, fmt.Errorf("closing %s: %w", names[n], err))
			}
		}
	}
	return stderrors.Join(errs...)
}
