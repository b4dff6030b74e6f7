package errors

import (
	stderrors "errors"
	"fmt"
	"net/http"
	"strings"
)

// DefaultNameLabel is how the unnamed (default) instance of a contract is
// rendered in messages and details.
const DefaultNameLabel = "(default)"

// AppError is the unified resolution error type.
type AppError struct {
	// Code is a machine-readable error code.
	Code ErrorCode `json:"code"`
	// Message is a human-readable error message.
	Message string `json:"message"`
	// Contract is the contract type being resolved when the failure occurred.
	Contract string `json:"contract,omitempty"`
	// Name is the instance name, DefaultNameLabel for the default instance.
	Name string `json:"name,omitempty"`
	// Path is the chain of contracts from the root request to the failure point.
	Path []string `json:"path,omitempty"`
	// Retryable indicates if the operation can be retried.
	Retryable bool `json:"retryable"`
	// HTTPStatus is the status used when the error is rendered by diagnostics handlers.
	HTTPStatus int `json:"-"`
	// Details contains additional context for the error.
	Details map[string]any `json:"details,omitempty"`
	// Cause is the underlying error that caused this error.
	Cause error `json:"-"`

	// origin is the error this one was annotated from, if any.
	origin *AppError
}

// Error returns the string representation of the error.
func (e *AppError) Error() string {
	var b strings.Builder
	b.WriteString(string(e.Code))
	b.WriteString(": ")
	b.WriteString(e.Message)
	if len(e.Path) > 0 {
		fmt.Fprintf(&b, " [path: %s]", strings.Join(e.Path, " -> "))
	}
	if e.Cause != nil {
		fmt.Fprintf(&b, " (cause: %v)", e.Cause)
	}
	return b.String()
}

// Unwrap returns the underlying cause of the error.
func (e *AppError) Unwrap() error { return e.Cause }

// WithCause sets the underlying cause of the error and returns the receiver.
func (e *AppError) WithCause(cause error) *AppError {
	e.Cause = cause
	return e
}

// WithDetails merges the provided details into the error and returns the receiver.
func (e *AppError) WithDetails(details map[string]any) *AppError {
	if e.Details == nil {
		e.Details = make(map[string]any)
	}
	for k, v := range details {
		e.Details[k] = v
	}
	return e
}

// WithDetail sets a single detail key-value pair and returns the receiver.
func (e *AppError) WithDetail(key string, value any) *AppError {
	if e.Details == nil {
		e.Details = make(map[string]any)
	}
	e.Details[key] = value
	return e
}

// WithPath records the resolution path unless one was already recorded.
// The deepest frame sees the failure first, so the first path set wins.
func (e *AppError) WithPath(path []string) *AppError {
	if len(e.Path) > 0 || len(path) == 0 {
		return e
	}
	e.Path = append([]string(nil), path...)
	return e
}

// AtPath returns a copy of e annotated with path. e itself is not changed,
// so shared or package-level errors never carry the path of one particular
// resolution. The copy matches e under errors.Is.
func (e *AppError) AtPath(path []string) *AppError {
	annotated := *e
	annotated.Path = append([]string(nil), path...)
	if e.Details != nil {
		annotated.Details = make(map[string]any, len(e.Details))
		for k, v := range e.Details {
			annotated.Details[k] = v
		}
	}
	annotated.origin = e
	if e.origin != nil {
		annotated.origin = e.origin
	}
	return &annotated
}

// Is reports whether target is the error e was annotated from.
func (e *AppError) Is(target error) bool {
	t, ok := target.(*AppError)
	return ok && e.origin != nil && e.origin == t
}

// New creates a new AppError.
func New(code ErrorCode, message string) *AppError {
	return &AppError{
		Code:       code,
		Message:    message,
		HTTPStatus: http.StatusInternalServerError,
	}
}

// NameLabel renders an instance name for messages.
func NameLabel(name string) string {
	if name == "" {
		return DefaultNameLabel
	}
	return name
}

// --- Resolution Error Constructors ---

// Unresolvable creates an error for a contract with no instance and no explicit argument.
func Unresolvable(contract, name string) *AppError {
	return &AppError{
		Code:       ErrCodeUnresolvable,
		Message:    fmt.Sprintf("no instance registered for %s named %s", contract, NameLabel(name)),
		Contract:   contract,
		Name:       NameLabel(name),
		HTTPStatus: http.StatusNotFound,
	}
}

// ConstructionFailed creates an error for a recipe whose build logic failed.
func ConstructionFailed(contract, name string, cause error) *AppError {
	return &AppError{
		Code:       ErrCodeConstructionFailed,
		Message:    fmt.Sprintf("failed to build %s named %s", contract, NameLabel(name)),
		Contract:   contract,
		Name:       NameLabel(name),
		HTTPStatus: http.StatusInternalServerError,
		Cause:      cause,
	}
}

// InterceptionFailed creates an error for an interceptor that failed on a built value.
func InterceptionFailed(contract, name string, cause error) *AppError {
	return &AppError{
		Code:       ErrCodeInterceptionFailed,
		Message:    fmt.Sprintf("interceptor failed for %s named %s", contract, NameLabel(name)),
		Contract:   contract,
		Name:       NameLabel(name),
		HTTPStatus: http.StatusInternalServerError,
		Cause:      cause,
	}
}

// CyclicDependency creates an error for a contract that depends on itself.
func CyclicDependency(contract, name string) *AppError {
	return &AppError{
		Code:       ErrCodeCyclicDependency,
		Message:    fmt.Sprintf("bidirectional dependency detected while building %s named %s", contract, NameLabel(name)),
		Contract:   contract,
		Name:       NameLabel(name),
		HTTPStatus: http.StatusInternalServerError,
	}
}

// MaxDepthExceeded creates an error for a graph nested beyond the configured limit.
func MaxDepthExceeded(contract string, limit int) *AppError {
	return &AppError{
		Code:       ErrCodeMaxDepthExceeded,
		Message:    fmt.Sprintf("resolution of %s exceeded the maximum depth of %d", contract, limit),
		Contract:   contract,
		HTTPStatus: http.StatusInternalServerError,
		Details:    map[string]any{"max_depth": limit},
	}
}

// TypeMismatch creates an error for a built value that is not of the requested Go type.
func TypeMismatch(contract, got, want string) *AppError {
	return &AppError{
		Code:       ErrCodeTypeMismatch,
		Message:    fmt.Sprintf("value resolved for %s is %s, expected %s", contract, got, want),
		Contract:   contract,
		HTTPStatus: http.StatusInternalServerError,
		Details:    map[string]any{"got": got, "want": want},
	}
}

// InvalidRecipe creates an error for a malformed instance recipe.
func InvalidRecipe(reason string) *AppError {
	return &AppError{
		Code:       ErrCodeInvalidRecipe,
		Message:    fmt.Sprintf("invalid instance: %s", reason),
		HTTPStatus: http.StatusBadRequest,
	}
}

// InvalidConfiguration creates an error for configuration that failed validation.
func InvalidConfiguration(message string) *AppError {
	return &AppError{
		Code:       ErrCodeInvalidConfiguration,
		Message:    message,
		HTTPStatus: http.StatusBadRequest,
	}
}

// NotFound creates a new AppError for a resource that was not found.
func NotFound(resource, id string) *AppError {
	details := map[string]any{"resource": resource}
	if id != "" {
		details["id"] = id
	}
	return &AppError{
		Code: ErrCodeNotFound, Message: fmt.Sprintf("The requested %s was not found.", resource),
		HTTPStatus: http.StatusNotFound, Details: details,
	}
}

// Internal creates a new AppError for an unexpected failure.
func Internal(cause error) *AppError {
	return &AppError{
		Code: ErrCodeInternal, Message: "An unexpected error occurred.",
		HTTPStatus: http.StatusInternalServerError, Cause: cause,
	}
}

// IsCode reports whether err, or any error it wraps, is an AppError with code.
func IsCode(err error, code ErrorCode) bool {
	var appErr *AppError
	return stderrors.As(err, &appErr) && appErr.Code == code
}
