package di

import (
	"context"
	"reflect"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/kbukum/objectgraph/config"
	"github.com/kbukum/objectgraph/errors"
	"github.com/kbukum/objectgraph/logger"
	"github.com/kbukum/objectgraph/observability"
)

// frame is one nested build in progress.
type frame struct {
	contract reflect.Type
	name     string
	instance *Instance
	prevCtx  context.Context
}

// BuildSession resolves one top-level request. It carries the root
// contract, the stack of builds in progress, the session cache and the
// explicit arguments.
//
// A session is used by one goroutine at a time and holds no locks.
type BuildSession struct {
	id           string
	ctx          context.Context
	registry     Registry
	args         *ExplicitArguments
	interceptors *InterceptorChain
	singletons   *SingletonCache
	cache        map[*Instance]any
	frames       []frame
	root         reflect.Type
	maxDepth     int
	annotated    map[*errors.AppError]struct{}

	log     *logger.Logger
	tracer  trace.Tracer
	metrics *observability.BuildMetrics
}

// SessionOption configures a BuildSession.
type SessionOption func(*BuildSession)

// WithArguments supplies explicit arguments for the session.
func WithArguments(args *ExplicitArguments) SessionOption {
	return func(s *BuildSession) { s.args = args }
}

// WithContext sets the context spans and metrics are recorded against.
func WithContext(ctx context.Context) SessionOption {
	return func(s *BuildSession) {
		if ctx != nil {
			s.ctx = ctx
		}
	}
}

// WithMaxDepth bounds how deep the graph may nest.
func WithMaxDepth(n int) SessionOption {
	return func(s *BuildSession) {
		if n > 0 {
			s.maxDepth = n
		}
	}
}

// WithSessionLogger sets the session logger.
func WithSessionLogger(l *logger.Logger) SessionOption {
	return func(s *BuildSession) {
		if l != nil {
			s.log = l
		}
	}
}

// WithSessionTracer sets the tracer used for build spans.
func WithSessionTracer(t trace.Tracer) SessionOption {
	return func(s *BuildSession) {
		if t != nil {
			s.tracer = t
		}
	}
}

// WithSessionMetrics sets the build instruments.
func WithSessionMetrics(m *observability.BuildMetrics) SessionOption {
	return func(s *BuildSession) { s.metrics = m }
}

// NewBuildSession creates a session resolving against registry. When the
// registry also implements SingletonSource or InterceptorSource, the session
// uses its singleton cache and interceptor chain.
func NewBuildSession(registry Registry, opts ...SessionOption) *BuildSession {
	s := &BuildSession{
		id:       uuid.NewString(),
		ctx:      context.Background(),
		registry: registry,
		cache:    make(map[*Instance]any),
		maxDepth: config.DefaultMaxDepth,
	}
	if src, ok := registry.(SingletonSource); ok {
		s.singletons = src.Singletons()
	}
	if src, ok := registry.(InterceptorSource); ok {
		s.interceptors = src.Interceptors()
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.log == nil {
		s.log = logger.Get("di.session")
	}
	if s.tracer == nil {
		s.tracer = observability.Tracer()
	}
	s.log = s.log.WithFields(logger.Fields(logger.FieldSessionID, s.id))
	s.metrics.RecordSession(s.ctx)
	return s
}

// ID returns the session identifier used in logs and spans.
func (s *BuildSession) ID() string { return s.id }

// Context returns the context of the build in progress, carrying its span.
func (s *BuildSession) Context() context.Context { return s.ctx }

// RootType returns the contract the session was first asked to resolve.
// It is nil until the first request.
func (s *BuildSession) RootType() reflect.Type { return s.root }

// ParentType returns the contract whose build requested the build in
// progress, or nil when the build in progress is the top-level request.
func (s *BuildSession) ParentType() reflect.Type {
	if len(s.frames) < 2 {
		return nil
	}
	return s.frames[len(s.frames)-2].contract
}

// RequestedType returns the contract of the build in progress.
func (s *BuildSession) RequestedType() reflect.Type {
	if len(s.frames) == 0 {
		return nil
	}
	return s.frames[len(s.frames)-1].contract
}

// RequestedName returns the name requested for the build in progress.
func (s *BuildSession) RequestedName() string {
	if len(s.frames) == 0 {
		return Default
	}
	return s.frames[len(s.frames)-1].name
}

// Path returns the contracts of the builds in progress, root first.
func (s *BuildSession) Path() []string {
	path := make([]string, len(s.frames))
	for n, f := range s.frames {
		path[n] = contractName(f.contract)
	}
	return path
}

// GetInstance resolves the instance of contract registered under name.
// An explicit argument for exactly (contract, name) is returned as is.
func (s *BuildSession) GetInstance(contract reflect.Type, name string) (any, error) {
	if contract == nil {
		return nil, errors.InvalidRecipe("nil contract requested")
	}
	if s.root == nil {
		s.root = contract
	}

	if v, ok := s.args.Get(contract, name); ok {
		return v, nil
	}

	inst, ok := s.registry.Lookup(contract, name)
	if !ok {
		err := s.fail(contract, false, errors.Unresolvable(contractName(contract), name))
		s.logFailure(contract, name, len(s.frames), err)
		return nil, err
	}
	return s.build(contract, name, inst)
}

// GetAllInstances builds every registered instance of contract, in
// registration order.
func (s *BuildSession) GetAllInstances(contract reflect.Type) ([]any, error) {
	if contract == nil {
		return nil, errors.InvalidRecipe("nil contract requested")
	}
	if s.root == nil {
		s.root = contract
	}

	instances := s.registry.LookupAll(contract)

	ctx, span := s.tracer.Start(s.ctx, observability.SpanResolveAll, trace.WithAttributes(
		attribute.String(observability.AttrContract, contractName(contract)),
		attribute.String(observability.AttrSessionID, s.id),
		attribute.Int(observability.AttrCount, len(instances)),
	))
	defer span.End()
	prev := s.ctx
	s.ctx = ctx
	defer func() { s.ctx = prev }()

	values := make([]any, 0, len(instances))
	for _, inst := range instances {
		v, err := s.build(contract, inst.labelFor(), inst)
		if err != nil {
			observability.SetSpanError(span, err)
			return nil, err
		}
		values = append(values, v)
	}
	return values, nil
}

// GetInstanceOf builds inst for contract although inst is not registered.
func (s *BuildSession) GetInstanceOf(contract reflect.Type, inst *Instance) (any, error) {
	if contract == nil {
		return nil, errors.InvalidRecipe("nil contract requested")
	}
	if err := inst.Validate(); err != nil {
		return nil, err
	}
	if s.root == nil {
		s.root = contract
	}
	return s.build(contract, inst.labelFor(), inst)
}

// build runs inst inside a new frame. The frame is popped on every return.
func (s *BuildSession) build(contract reflect.Type, name string, inst *Instance) (any, error) {
	for _, f := range s.frames {
		if f.instance == inst {
			return nil, s.fail(contract, false, errors.CyclicDependency(contractName(contract), name))
		}
	}
	if len(s.frames) >= s.maxDepth {
		return nil, s.fail(contract, false, errors.MaxDepthExceeded(contractName(contract), s.maxDepth))
	}

	lifecycle := inst.Lifecycle().String()
	ctx, span := s.tracer.Start(s.ctx, observability.SpanResolve, trace.WithAttributes(
		attribute.String(observability.AttrContract, contractName(contract)),
		attribute.String(observability.AttrInstance, inst.Label()),
		attribute.String(observability.AttrLifecycle, lifecycle),
		attribute.String(observability.AttrSessionID, s.id),
		attribute.Int(observability.AttrDepth, len(s.frames)),
	))
	defer span.End()

	s.push(frame{contract: contract, name: name, instance: inst, prevCtx: s.ctx})
	s.ctx = ctx
	defer s.pop()

	start := time.Now()
	value, cached, err := s.buildLifecycle(contract, inst)
	if err != nil {
		err = s.fail(contract, true, err)
		observability.SetSpanError(span, err)
		s.logFailure(contract, name, len(s.frames)-1, err)
		return nil, err
	}

	if cached {
		s.metrics.RecordCacheHit(s.ctx, contractName(contract), lifecycle)
		span.SetAttributes(attribute.String(observability.AttrStatus, "cached"))
	} else {
		s.metrics.RecordBuild(s.ctx, contractName(contract), lifecycle, time.Since(start))
		span.SetAttributes(attribute.String(observability.AttrStatus, "built"))
	}

	if s.log.Enabled(zerolog.DebugLevel) {
		s.log.WithContext(s.ctx).Debug("instance resolved", logger.Fields(
			logger.FieldContract, contractName(contract),
			logger.FieldInstance, inst.Label(),
			logger.FieldLifecycle, lifecycle,
			logger.FieldDepth, len(s.frames)-1,
			"cached", cached,
			logger.FieldDuration, time.Since(start).Milliseconds(),
		))
	}
	return value, nil
}

func (s *BuildSession) push(f frame) {
	s.frames = append(s.frames, f)
}

func (s *BuildSession) pop() {
	top := s.frames[len(s.frames)-1]
	s.frames = s.frames[:len(s.frames)-1]
	s.ctx = top.prevCtx
}

// fail attaches the resolution path to err, ending at contract. pushed
// reports whether contract's frame is already on the stack. The deepest
// frame annotates a copy; shallower frames recognise the copy and keep its
// path. Errors created outside the session are never modified.
func (s *BuildSession) fail(contract reflect.Type, pushed bool, err error) error {
	appErr, ok := errors.AsAppError(err)
	if !ok {
		return err
	}
	if _, done := s.annotated[appErr]; done {
		return err
	}
	path := s.Path()
	if !pushed {
		path = append(path, contractName(contract))
	}
	annotated := appErr.AtPath(path)
	if s.annotated == nil {
		s.annotated = make(map[*errors.AppError]struct{})
	}
	s.annotated[annotated] = struct{}{}
	return annotated
}

// logFailure reports a failure surfacing at depth 0, the top-level request.
func (s *BuildSession) logFailure(contract reflect.Type, name string, depth int, err error) {
	if depth > 0 {
		return
	}
	code := "UNKNOWN"
	var path []string
	if appErr, ok := errors.AsAppError(err); ok {
		code = string(appErr.Code)
		path = appErr.Path
	}
	s.metrics.RecordError(s.ctx, contractName(contract), code)
	s.log.WithContext(s.ctx).Warn("resolution failed", logger.MergeWithError(logger.Fields(
		logger.FieldContract, contractName(contract),
		logger.FieldInstance, nameLabel(name),
		logger.FieldPath, path,
	), err))
}
