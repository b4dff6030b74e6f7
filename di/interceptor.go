package di

import (
	"reflect"
	"sort"
	"sync"

	"github.com/kbukum/objectgraph/errors"
)

// InstanceInterceptor transforms a freshly built value before it is handed
// back to the requester.
type InstanceInterceptor interface {
	Process(value any) (any, error)
}

// InterceptorFunc adapts a function to InstanceInterceptor.
type InterceptorFunc func(value any) (any, error)

// Process calls f(value).
func (f InterceptorFunc) Process(value any) (any, error) {
	return f(value)
}

type identity struct{}

func (identity) Process(value any) (any, error) { return value, nil }

// Identity returns its input unchanged.
var Identity InstanceInterceptor = identity{}

type composite []InstanceInterceptor

func (c composite) Process(value any) (any, error) {
	var err error
	for _, interceptor := range c {
		if value, err = interceptor.Process(value); err != nil {
			return nil, err
		}
	}
	return value, nil
}

// Compose chains interceptors so that each receives the previous result.
// Nil and identity interceptors are skipped.
func Compose(interceptors ...InstanceInterceptor) InstanceInterceptor {
	out := make(composite, 0, len(interceptors))
	for _, i := range interceptors {
		switch v := i.(type) {
		case nil, identity:
		case composite:
			out = append(out, v...)
		default:
			out = append(out, v)
		}
	}
	switch len(out) {
	case 0:
		return Identity
	case 1:
		return out[0]
	default:
		return out
	}
}

// InterceptorRule describes one registered interceptor rule.
type InterceptorRule struct {
	Match       string `json:"match"`
	Kind        string `json:"kind"`
	Description string `json:"description,omitempty"`
}

type typeRule struct {
	iface       reflect.Type
	interceptor InstanceInterceptor
}

type matchRule struct {
	description string
	match       func(reflect.Type) bool
	interceptor InstanceInterceptor
}

// InterceptorChain maps runtime types to interceptors.
//
// Lookup composes, in this order: rules registered for the exact type, rules
// registered for interfaces the type implements, then predicate rules. Within
// each group rules apply in registration order. Results are memoised per type
// until the next registration.
type InterceptorChain struct {
	mu       sync.RWMutex
	exact    map[reflect.Type][]InstanceInterceptor
	ifaces   []typeRule
	matchers []matchRule
	memo     map[reflect.Type]InstanceInterceptor
	gen      uint64
}

// NewInterceptorChain creates an empty chain.
func NewInterceptorChain() *InterceptorChain {
	return &InterceptorChain{
		exact: make(map[reflect.Type][]InstanceInterceptor),
		memo:  make(map[reflect.Type]InstanceInterceptor),
	}
}

// Register adds an interceptor for t. When t is an interface type the rule
// matches every runtime type that implements it.
func (c *InterceptorChain) Register(t reflect.Type, interceptor InstanceInterceptor) error {
	if t == nil {
		return errors.InvalidRecipe("interceptor registered for a nil type")
	}
	if interceptor == nil {
		return errors.InvalidRecipe("nil interceptor for " + t.String())
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if t.Kind() == reflect.Interface {
		c.ifaces = append(c.ifaces, typeRule{iface: t, interceptor: interceptor})
	} else {
		c.exact[t] = append(c.exact[t], interceptor)
	}
	c.gen++
	clear(c.memo)
	return nil
}

// RegisterMatching adds an interceptor for every runtime type accepted by match.
func (c *InterceptorChain) RegisterMatching(description string, match func(reflect.Type) bool, interceptor InstanceInterceptor) error {
	if match == nil {
		return errors.InvalidRecipe("nil type predicate for interceptor " + description)
	}
	if interceptor == nil {
		return errors.InvalidRecipe("nil interceptor for " + description)
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	c.matchers = append(c.matchers, matchRule{
		description: description,
		match:       match,
		interceptor: interceptor,
	})
	c.gen++
	clear(c.memo)
	return nil
}

// Lookup returns the composed interceptor for t, or Identity.
func (c *InterceptorChain) Lookup(t reflect.Type) InstanceInterceptor {
	if c == nil || t == nil {
		return Identity
	}

	c.mu.RLock()
	interceptor, ok := c.memo[t]
	c.mu.RUnlock()
	if ok {
		return interceptor
	}

	// Predicates are user code; evaluate them against a snapshot.
	c.mu.RLock()
	found := append([]InstanceInterceptor(nil), c.exact[t]...)
	ifaces := c.ifaces
	matchers := c.matchers
	gen := c.gen
	c.mu.RUnlock()

	for _, rule := range ifaces {
		if t.Implements(rule.iface) {
			found = append(found, rule.interceptor)
		}
	}
	for _, rule := range matchers {
		if rule.match(t) {
			found = append(found, rule.interceptor)
		}
	}
	interceptor = Compose(found...)

	c.mu.Lock()
	if c.gen == gen {
		c.memo[t] = interceptor
	}
	c.mu.Unlock()
	return interceptor
}

// Rules lists registered rules in lookup order.
func (c *InterceptorChain) Rules() []InterceptorRule {
	c.mu.RLock()
	defer c.mu.RUnlock()

	rules := make([]InterceptorRule, 0, len(c.exact)+len(c.ifaces)+len(c.matchers))
	exact := make([]reflect.Type, 0, len(c.exact))
	for t := range c.exact {
		exact = append(exact, t)
	}
	sort.Slice(exact, func(i, j int) bool { return exact[i].String() < exact[j].String() })
	for _, t := range exact {
		for range c.exact[t] {
			rules = append(rules, InterceptorRule{Match: t.String(), Kind: "exact"})
		}
	}
	for _, rule := range c.ifaces {
		rules = append(rules, InterceptorRule{Match: rule.iface.String(), Kind: "interface"})
	}
	for _, rule := range c.matchers {
		rules = append(rules, InterceptorRule{Match: "*", Kind: "predicate", Description: rule.description})
	}
	return rules
}
