// Package di builds object graphs from registered recipes.
//
// A contract is a Go type, usually an interface, identified by its
// reflect.Type. An Instance is a recipe that produces a value for one
// contract. A BuildSession resolves one top-level request: it looks recipes
// up in a Registry, builds them under their Lifecycle, applies interceptors,
// and lets nested construction logic ask which contract the whole graph was
// requested for (RootType) and which contract requested it (ParentType).
//
// Container is a thread-safe Registry that owns the process-wide singleton
// cache and the interceptor chain shared by its sessions.
//
// # Registration
//
//	c := di.MustContainer()
//	c.Use(di.Construct(func(r di.InstanceCreator) (Store, error) {
//	    log, err := di.Resolve[Logger](r)
//	    if err != nil {
//	        return nil, err
//	    }
//	    return NewStore(log), nil
//	}).Singleton())
//
// # Resolution
//
//	store := di.MustGet[Store](ctx, c)
//	red, err := di.GetNamed[Holder](ctx, c, "Red")
//
// # From configuration
//
//	var cfg config.Config
//	if err := config.Load("orders", &cfg); err != nil {
//	    return err
//	}
//	rt, err := di.Setup(ctx, cfg)
//	if err != nil {
//	    return err
//	}
//	defer rt.Shutdown(ctx)
package di
