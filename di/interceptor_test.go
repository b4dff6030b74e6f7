package di

import (
	"reflect"
	"strings"
	"testing"

	"github.com/kbukum/objectgraph/errors"
)

func TestInterceptorChain_LookupEmpty(t *testing.T) {
	chain := NewInterceptorChain()
	if chain.Lookup(TypeOf[*trail]()) != Identity {
		t.Error("expected identity for an empty chain")
	}

	var nilChain *InterceptorChain
	if nilChain.Lookup(TypeOf[*trail]()) != Identity {
		t.Error("expected identity for a nil chain")
	}
}

func TestInterceptorChain_Order(t *testing.T) {
	chain := NewInterceptorChain()

	// Registered out of group order on purpose.
	mustRegisterMatching(t, chain, "all pointers", func(t reflect.Type) bool { return t.Kind() == reflect.Pointer }, stepInterceptor("pred"))
	mustRegister(t, chain, TypeOf[stepper](), stepInterceptor("iface"))
	mustRegister(t, chain, TypeOf[*trail](), stepInterceptor("exact-1"))
	mustRegister(t, chain, TypeOf[*trail](), stepInterceptor("exact-2"))

	v, err := chain.Lookup(TypeOf[*trail]()).Process(&trail{})
	if err != nil {
		t.Fatalf("Process: %v", err)
	}
	got := strings.Join(v.(*trail).steps, ",")
	if got != "exact-1,exact-2,iface,pred" {
		t.Errorf("unexpected order %q", got)
	}
}

func TestInterceptorChain_InterfaceRuleSkipsNonImplementers(t *testing.T) {
	chain := NewInterceptorChain()
	mustRegister(t, chain, TypeOf[stepper](), stepInterceptor("iface"))

	if chain.Lookup(TypeOf[*counter]()) != Identity {
		t.Error("expected identity for a type that does not implement the interface")
	}
}

func TestInterceptorChain_MemoInvalidatedOnRegister(t *testing.T) {
	chain := NewInterceptorChain()
	mustRegister(t, chain, TypeOf[*trail](), stepInterceptor("first"))

	_ = chain.Lookup(TypeOf[*trail]())
	mustRegister(t, chain, TypeOf[*trail](), stepInterceptor("second"))

	v, _ := chain.Lookup(TypeOf[*trail]()).Process(&trail{})
	if got := strings.Join(v.(*trail).steps, ","); got != "first,second" {
		t.Errorf("expected both interceptors after re-registration, got %q", got)
	}
}

func TestInterceptorChain_RegisterInvalid(t *testing.T) {
	chain := NewInterceptorChain()
	tests := []struct {
		name string
		err  error
	}{
		{"nil type", chain.Register(nil, Identity)},
		{"nil interceptor", chain.Register(TypeOf[*trail](), nil)},
		{"nil predicate", chain.RegisterMatching("none", nil, Identity)},
		{"nil predicate interceptor", chain.RegisterMatching("none", func(reflect.Type) bool { return true }, nil)},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if !errors.IsCode(tc.err, errors.ErrCodeInvalidRecipe) {
				t.Errorf("expected INVALID_RECIPE, got %v", tc.err)
			}
		})
	}
}

func TestInterceptorChain_Rules(t *testing.T) {
	chain := NewInterceptorChain()
	mustRegisterMatching(t, chain, "everything", func(reflect.Type) bool { return true }, Identity)
	mustRegister(t, chain, TypeOf[stepper](), Identity)
	mustRegister(t, chain, TypeOf[*trail](), Identity)

	rules := chain.Rules()
	if len(rules) != 3 {
		t.Fatalf("expected 3 rules, got %d", len(rules))
	}
	kinds := []string{rules[0].Kind, rules[1].Kind, rules[2].Kind}
	if strings.Join(kinds, ",") != "exact,interface,predicate" {
		t.Errorf("unexpected rule order %v", kinds)
	}
	if rules[2].Description != "everything" {
		t.Errorf("expected predicate description, got %q", rules[2].Description)
	}
}

func TestCompose(t *testing.T) {
	if Compose() != Identity {
		t.Error("expected identity for no interceptors")
	}
	if Compose(nil, Identity) != Identity {
		t.Error("expected nil and identity to be skipped")
	}

	inner := Compose(stepInterceptor("a"), stepInterceptor("b"))
	v, err := Compose(inner, stepInterceptor("c")).Process(&trail{})
	if err != nil {
		t.Fatalf("Process: %v", err)
	}
	if got := strings.Join(v.(*trail).steps, ","); got != "a,b,c" {
		t.Errorf("unexpected order %q", got)
	}

	if _, err := Compose(failingInterceptor("stop"), stepInterceptor("never")).Process(&trail{}); err == nil {
		t.Error("expected the first failure to stop the chain")
	}
}

func TestBuildAppliesOwnThenRuntimeInterceptors(t *testing.T) {
	c := newTestContainer(t)
	mustUse(t, c, Construct(func(InstanceCreator) (stepper, error) {
		return &trail{}, nil
	}).InterceptWith(stepInterceptor("own")))

	// Registered against the runtime type, not the contract.
	if err := c.Intercept(TypeOf[*trail](), stepInterceptor("runtime")); err != nil {
		t.Fatalf("Intercept: %v", err)
	}

	v, err := Get[stepper](ctx, c)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got := strings.Join(v.(*trail).steps, ","); got != "own,runtime" {
		t.Errorf("expected own then runtime, got %q", got)
	}
}

func TestBuildWithoutInterceptorsIsPassThrough(t *testing.T) {
	c := newTestContainer(t)
	value := &trail{}
	mustUse(t, c, Value(value))

	got := MustGet[*trail](ctx, c)
	if got != value || len(got.steps) != 0 {
		t.Errorf("expected the registered value untouched, got %+v", got)
	}
}

type wrapped struct {
	inner *trail
}

func TestInterceptorMayReplaceValue(t *testing.T) {
	c := newTestContainer(t)
	mustUse(t, c, ConstructedBy(TypeOf[any](), func(InstanceCreator) (any, error) {
		return &trail{}, nil
	}))
	if err := c.Intercept(TypeOf[*trail](), InterceptorFunc(func(v any) (any, error) {
		return &wrapped{inner: v.(*trail)}, nil
	})); err != nil {
		t.Fatalf("Intercept: %v", err)
	}

	v, err := c.GetInstance(ctx, TypeOf[any](), Default)
	if err != nil {
		t.Fatalf("GetInstance: %v", err)
	}
	if _, ok := v.(*wrapped); !ok {
		t.Errorf("expected the interceptor's replacement, got %T", v)
	}
}

func TestInterceptionFailure(t *testing.T) {
	tests := []struct {
		name  string
		setup func(t *testing.T, c *Container)
	}{
		{
			name: "own interceptor",
			setup: func(t *testing.T, c *Container) {
				mustUse(t, c, Value(&trail{}).Named("t").InterceptWith(failingInterceptor("own failed")))
			},
		},
		{
			name: "runtime interceptor",
			setup: func(t *testing.T, c *Container) {
				mustUse(t, c, Value(&trail{}).Named("t"))
				if err := c.Intercept(TypeOf[*trail](), failingInterceptor("runtime failed")); err != nil {
					t.Fatalf("Intercept: %v", err)
				}
			},
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			c := newTestContainer(t)
			tc.setup(t, c)

			_, err := Get[*trail](ctx, c)
			appErr, ok := errors.AsAppError(err)
			if !ok {
				t.Fatalf("expected AppError, got %v", err)
			}
			if appErr.Code != errors.ErrCodeInterceptionFailed {
				t.Errorf("expected INTERCEPTION_FAILED, got %s", appErr.Code)
			}
			if appErr.Contract != "*di.trail" || appErr.Name != "t" {
				t.Errorf("expected tags *di.trail/t, got %s/%s", appErr.Contract, appErr.Name)
			}
			if appErr.Cause == nil || !strings.Contains(appErr.Cause.Error(), "failed") {
				t.Errorf("expected the interceptor error as cause, got %v", appErr.Cause)
			}
		})
	}
}

func mustRegister(t *testing.T, chain *InterceptorChain, typ reflect.Type, i InstanceInterceptor) {
	t.Helper()
	if err := chain.Register(typ, i); err != nil {
		t.Fatalf("Register(%v): %v", typ, err)
	}
}

func mustRegisterMatching(t *testing.T, chain *InterceptorChain, desc string, match func(reflect.Type) bool, i InstanceInterceptor) {
	t.Helper()
	if err := chain.RegisterMatching(desc, match, i); err != nil {
		t.Fatalf("RegisterMatching(%s): %v", desc, err)
	}
}
