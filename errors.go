package sdk

import (
	"errors"
	"fmt"
)

// Sentinel errors for common SDK error conditions.
// These errors can be used with errors.Is() for error checking.
var (
	// ErrToolNotFound indicates a referenced tool is absent from the sample's catalogue.
	ErrToolNotFound = errors.New("tool not found")

	// ErrBehaviorNotFound indicates no behavior model is registered for a called tool.
	ErrBehaviorNotFound = errors.New("behavior not found")

	// ErrInvalidConfig indicates the provided configuration is invalid or incomplete.
	ErrInvalidConfig = errors.New("invalid configuration")

	// ErrBudgetExceeded indicates an episode hit its call budget before completing.
	ErrBudgetExceeded = errors.New("call budget exceeded")

	// ErrEmptyRun indicates aggregation was requested over a run with no samples
	// in any category.
	ErrEmptyRun = errors.New("no samples in any category")
)

// Error kinds categorize errors by their type.
const (
	// KindParse represents errors from malformed call-expression text.
	KindParse = "parse"

	// KindMatch represents ground-truth matching failures.
	KindMatch = "match"

	// KindDetection represents problem-detection (special sample) failures.
	KindDetection = "detection"

	// KindSandbox represents errors raised while replaying calls against a sandbox.
	KindSandbox = "sandbox"

	// KindValidation represents errors related to input validation.
	KindValidation = "validation"

	// KindConfiguration represents errors related to configuration.
	KindConfiguration = "configuration"

	// KindNotFound represents errors where a resource was not found.
	KindNotFound = "not_found"

	// KindTimeout represents errors related to operation timeouts.
	KindTimeout = "timeout"

	// KindInternal represents internal SDK errors.
	KindInternal = "internal"
)

// Error is a structured error type that wraps underlying errors with
// additional context about the operation that failed and the category of error.
//
// Error implements the error interface and supports error unwrapping,
// making it compatible with errors.Is() and errors.As().
//
// Example usage:
//
//	err := &sdk.Error{
//		Op:   "Episode.Apply",
//		Kind: sdk.KindSandbox,
//		Err:  sdk.ErrBehaviorNotFound,
//	}
type Error struct {
	// Op is the operation that failed (e.g., "callexpr.Parse", "Episode.Apply").
	Op string

	// Kind categorizes the error (e.g., KindParse, KindSandbox).
	Kind string

	// Err is the underlying error that caused this error.
	Err error

	// Context provides additional context about the error (optional).
	// This can include sample IDs, tool names, or other debugging information.
	Context map[string]any
}

// Error implements the error interface, returning a formatted error message
// that includes the operation, kind, and underlying error.
func (e *Error) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("sdk: %s: %s", e.Op, e.Kind)
	}

	if len(e.Context) > 0 {
		return fmt.Sprintf("sdk: %s (%s): %v [context: %+v]", e.Op, e.Kind, e.Err, e.Context)
	}

	return fmt.Sprintf("sdk: %s (%s): %v", e.Op, e.Kind, e.Err)
}

// Unwrap returns the underlying error, allowing errors.Is() and errors.As()
// to work correctly with wrapped errors.
func (e *Error) Unwrap() error {
	return e.Err
}

// Is implements error matching for Error, allowing comparison based on
// the underlying error or the Error itself.
func (e *Error) Is(target error) bool {
	if target == nil {
		return false
	}

	// Check if target is an Error with matching Kind
	if t, ok := target.(*Error); ok {
		if t.Kind != "" && e.Kind == t.Kind {
			if t.Op == "" || e.Op == t.Op {
				return true
			}
		}
	}

	// Delegate to underlying error
	return errors.Is(e.Err, target)
}

// WithContext returns a new Error with the provided context added.
// This is useful for adding debugging information to errors.
func (e *Error) WithContext(ctx map[string]any) *Error {
	newErr := *e
	if newErr.Context == nil {
		newErr.Context = make(map[string]any)
	}
	for k, v := range ctx {
		newErr.Context[k] = v
	}
	return &newErr
}

// NewParseError creates a new Error with KindParse.
func NewParseError(op string, err error) *Error {
	return &Error{
		Op:   op,
		Kind: KindParse,
		Err:  err,
	}
}

// NewMatchError creates a new Error with KindMatch.
func NewMatchError(op string, err error) *Error {
	return &Error{
		Op:   op,
		Kind: KindMatch,
		Err:  err,
	}
}

// NewSandboxError creates a new Error with KindSandbox.
func NewSandboxError(op string, err error) *Error {
	return &Error{
		Op:   op,
		Kind: KindSandbox,
		Err:  err,
	}
}

// NewValidationError creates a new Error with KindValidation.
func NewValidationError(op string, err error) *Error {
	return &Error{
		Op:   op,
		Kind: KindValidation,
		Err:  err,
	}
}

// NewConfigurationError creates a new Error with KindConfiguration.
func NewConfigurationError(op string, err error) *Error {
	return &Error{
		Op:   op,
		Kind: KindConfiguration,
		Err:  err,
	}
}

// NewNotFoundError creates a new Error with KindNotFound.
func NewNotFoundError(op string, err error) *Error {
	return &Error{
		Op:   op,
		Kind: KindNotFound,
		Err:  err,
	}
}

// NewTimeoutError creates a new Error with KindTimeout.
func NewTimeoutError(op string, err error) *Error {
	return &Error{
		Op:   op,
		Kind: KindTimeout,
		Err:  err,
	}
}

// NewInternalError creates a new Error with KindInternal.
func NewInternalError(op string, err error) *Error {
	return &Error{
		Op:   op,
		Kind: KindInternal,
		Err:  err,
	}
}
