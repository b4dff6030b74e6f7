package errors

// ErrorCode represents a machine-readable error code.
type ErrorCode string

// Resolution errors
const (
	// ErrCodeUnresolvable indicates no instance and no explicit argument exist for a contract.
	ErrCodeUnresolvable ErrorCode = "UNRESOLVABLE"
	// ErrCodeConstructionFailed indicates a recipe's own build logic failed.
	ErrCodeConstructionFailed ErrorCode = "CONSTRUCTION_FAILED"
	// ErrCodeInterceptionFailed indicates an interceptor failed on an otherwise successful build.
	ErrCodeInterceptionFailed ErrorCode = "INTERCEPTION_FAILED"
	// ErrCodeCyclicDependency indicates a contract requested itself through its own dependencies.
	ErrCodeCyclicDependency ErrorCode = "CYCLIC_DEPENDENCY"
	// ErrCodeMaxDepthExceeded indicates the graph nested deeper than the configured limit.
	ErrCodeMaxDepthExceeded ErrorCode = "MAX_DEPTH_EXCEEDED"
	// ErrCodeTypeMismatch indicates a built value does not satisfy the requested Go type.
	ErrCodeTypeMismatch ErrorCode = "TYPE_MISMATCH"
)

// Configuration errors
const (
	// ErrCodeInvalidRecipe indicates an instance recipe is malformed.
	ErrCodeInvalidRecipe ErrorCode = "INVALID_RECIPE"
	// ErrCodeInvalidConfiguration indicates engine configuration failed validation.
	ErrCodeInvalidConfiguration ErrorCode = "INVALID_CONFIGURATION"
)

// Lookup errors
const (
	// ErrCodeNotFound indicates a requested diagnostic resource does not exist.
	ErrCodeNotFound ErrorCode = "NOT_FOUND"
	// ErrCodeInternal indicates an unexpected failure.
	ErrCodeInternal ErrorCode = "INTERNAL_ERROR"
)
