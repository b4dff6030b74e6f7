package di

import (
	"fmt"

	"github.com/kbukum/objectgraph/config"
	"github.com/kbukum/objectgraph/validation"
)

var lifecycleNames = []string{config.LifecycleSession, config.LifecycleUnique, config.LifecycleSingleton}

// Lifecycle controls whether, and where, a built value is cached.
type Lifecycle int

const (
	// lifecycleUnset defers to the registry's default lifecycle.
	lifecycleUnset Lifecycle = iota
	// LifecycleSession caches the value for the rest of the build session.
	LifecycleSession
	// LifecycleUnique builds a new value for every request.
	LifecycleUnique
	// LifecycleSingleton caches the value in the registry's singleton cache.
	LifecycleSingleton
)

func (l Lifecycle) String() string {
	switch l {
	case LifecycleSession, lifecycleUnset:
		return config.LifecycleSession
	case LifecycleUnique:
		return config.LifecycleUnique
	case LifecycleSingleton:
		return config.LifecycleSingleton
	default:
		return fmt.Sprintf("Lifecycle(%d)", int(l))
	}
}

// ParseLifecycle converts a configured lifecycle name. The empty string
// means session.
func ParseLifecycle(s string) (Lifecycle, error) {
	switch s {
	case config.LifecycleSession, "":
		return LifecycleSession, nil
	case config.LifecycleUnique:
		return LifecycleUnique, nil
	case config.LifecycleSingleton:
		return LifecycleSingleton, nil
	default:
		return lifecycleUnset, validation.New().OneOf("lifecycle", s, lifecycleNames).Validate()
	}
}
