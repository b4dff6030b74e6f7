package di

import (
	"context"
	"fmt"
	"reflect"
	"sync/atomic"
	"testing"
)

// loggerHolder is the contract most scenarios resolve.
type loggerHolder interface {
	Kind() string
}

// fakeLogger records the build context it was created under.
type fakeLogger struct {
	root   reflect.Type
	parent reflect.Type
}

type holderWithLogger struct {
	logger *fakeLogger
}

func (h *holderWithLogger) Kind() string { return "holderWithLogger" }

type sessionTarget struct {
	logger *fakeLogger
}

func (t *sessionTarget) Kind() string { return "sessionTarget" }

type counter struct {
	id int64
}

type closer struct {
	closed atomic.Bool
	calls  atomic.Int32
	err    error
}

func (c *closer) Close() error {
	c.closed.Store(true)
	c.calls.Add(1)
	return c.err
}

type trail struct {
	steps []string
}

type stepper interface {
	Step(string)
}

func (t *trail) Step(s string) { t.steps = append(t.steps, s) }

func newFakeLogger() *Instance {
	return Construct(func(c InstanceCreator) (*fakeLogger, error) {
		return &fakeLogger{root: c.RootType(), parent: c.ParentType()}, nil
	})
}

func newHolderWithLogger() *Instance {
	return Construct(func(c InstanceCreator) (loggerHolder, error) {
		l, err := Resolve[*fakeLogger](c)
		if err != nil {
			return nil, err
		}
		return &holderWithLogger{logger: l}, nil
	})
}

func newSessionTarget() *Instance {
	return Construct(func(c InstanceCreator) (loggerHolder, error) {
		l, err := Resolve[*fakeLogger](c)
		if err != nil {
			return nil, err
		}
		return &sessionTarget{logger: l}, nil
	})
}

// newCounter returns an instance producing a new *counter on every build
// and the number of builds performed.
func newCounter() (*Instance, *atomic.Int64) {
	var n atomic.Int64
	inst := Construct(func(InstanceCreator) (*counter, error) {
		return &counter{id: n.Add(1)}, nil
	})
	return inst, &n
}

func stepInterceptor(step string) InstanceInterceptor {
	return InterceptorFunc(func(v any) (any, error) {
		v.(stepper).Step(step)
		return v, nil
	})
}

func failingInterceptor(msg string) InstanceInterceptor {
	return InterceptorFunc(func(any) (any, error) {
		return nil, fmt.Errorf("%s", msg)
	})
}

func newTestContainer(t *testing.T, opts ...Option) *Container {
	t.Helper()
	c, err := NewContainer(opts...)
	if err != nil {
		t.Fatalf("NewContainer: %v", err)
	}
	return c
}

func mustUse(t *testing.T, c *Container, inst *Instance) {
	t.Helper()
	if err := c.Use(inst); err != nil {
		t.Fatalf("Use(%s): %v", inst, err)
	}
}

func mustAdd(t *testing.T, c *Container, inst *Instance) {
	t.Helper()
	if err := c.Add(inst); err != nil {
		t.Fatalf("Add(%s): %v", inst, err)
	}
}

var ctx = context.Background()
