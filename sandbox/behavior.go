package sandbox

import (
	"fmt"

	"github.com/robustcall/sdk/callexpr"
)

// Result is the outcome of executing one call against the sandbox. It is
// what a driving agent would see as the tool's response.
type Result struct {
	// OK reports whether the call succeeded from the tool's point of view.
	// A false result is an ordinary in-domain failure (for example, a login
	// rejected for a wrong password), not a fatal execution error.
	OK bool `json:"ok"`

	// Message is the textual response returned to the caller.
	Message string `json:"message"`
}

// Errorf builds a failed Result with a formatted message.
func Errorf(format string, args ...any) Result {
	return Result{OK: false, Message: fmt.Sprintf(format, args...)}
}

// Okf builds a successful Result with a formatted message.
func Okf(format string, args ...any) Result {
	return Result{OK: true, Message: fmt.Sprintf(format, args...)}
}

// Behavior is one tool's state-transition function. It may read and mutate
// the state it is given and returns the tool's response.
//
// Returning an error signals a structural execution failure (invalid
// argument shapes, broken invariants); the episode treats it as fatal and
// applies no further calls. In-domain failures should instead return a
// Result with OK=false, which keeps the episode alive.
type Behavior func(state State, call callexpr.Call) (Result, error)

// BehaviorSet maps tool names to their behaviors. It is the sample-supplied
// "class behavior model": the sandbox itself knows nothing about any
// particular simulated domain.
type BehaviorSet map[string]Behavior

// Register adds or replaces the behavior for a tool name.
func (b BehaviorSet) Register(name string, fn Behavior) {
	b[name] = fn
}

// Merge returns a new BehaviorSet containing the receiver's behaviors
// overlaid with other's.
func (b BehaviorSet) Merge(other BehaviorSet) BehaviorSet {
	out := make(BehaviorSet, len(b)+len(other))
	for name, fn := range b {
		out[name] = fn
	}
	for name, fn := range other {
		out[name] = fn
	}
	return out
}

// StringArg extracts a required string argument from a call, for use inside
// behaviors. The error it returns is structural and therefore fatal.
func StringArg(call callexpr.Call, name string) (string, error) {
	v, ok := call.Arg(name)
	if !ok {
		return "", fmt.Errorf("%s: missing required argument %q", call.Name, name)
	}
	s, ok := v.(callexpr.String)
	if !ok {
		return "", fmt.Errorf("%s: argument %q must be a string, got %s", call.Name, name, v.Kind())
	}
	return string(s), nil
}

// NumberArg extracts a required numeric argument from a call.
func NumberArg(call callexpr.Call, name string) (float64, error) {
	v, ok := call.Arg(name)
	if !ok {
		return 0, fmt.Errorf("%s: missing required argument %q", call.Name, name)
	}
	switch n := v.(type) {
	case callexpr.Int:
		return float64(n), nil
	case callexpr.Float:
		return float64(n), nil
	default:
		return 0, fmt.Errorf("%s: argument %q must be a number, got %s", call.Name, name, v.Kind())
	}
}

// BoolArg extracts a required boolean argument from a call.
func BoolArg(call callexpr.Call, name string) (bool, error) {
	v, ok := call.Arg(name)
	if !ok {
		return false, fmt.Errorf("%s: missing required argument %q", call.Name, name)
	}
	b, ok := v.(callexpr.Bool)
	if !ok {
		return false, fmt.Errorf("%s: argument %q must be a boolean, got %s", call.Name, name, v.Kind())
	}
	return bool(b), nil
}
