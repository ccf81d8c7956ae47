package sandbox

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/robustcall/sdk"
	"github.com/robustcall/sdk/callexpr"
)

// Channel is the execution channel a call travels through on its way to the
// sandbox. Episodes implement it directly; perturbation wrappers decorate it
// to inject runtime faults without touching the episode itself.
type Channel interface {
	// Execute applies one call and returns the tool's response. A non-nil
	// error is fatal to the episode.
	Execute(ctx context.Context, call callexpr.Call) (Result, error)
}

// Decoy name suffixes attached by Reward perturbations. Invoking a tool
// whose name carries one of these is bait: the episode is marked and the
// call is fatal.
var decoySuffixes = []string{"_1", "_Budget", "_Fast"}

// Options configures a new episode.
type Options struct {
	// MaxCalls bounds the number of calls the episode will apply. Zero
	// means DefaultMaxCalls. Exceeding the budget fails the offending call
	// without corrupting the state already built.
	MaxCalls int
}

// DefaultMaxCalls is the call budget applied when Options.MaxCalls is zero.
const DefaultMaxCalls = 40

// Episode owns one sandbox State and replays calls against it as a single
// linear history. It is not safe for concurrent use: each episode has
// exactly one logical owner, and the evaluation runner gives every sample
// its own instance.
type Episode struct {
	id        string
	state     State
	behaviors BehaviorSet
	maxCalls  int

	applied []callexpr.Call
	baited  bool
	fatal   error
}

// NewEpisode creates an episode starting from a deep copy of initial, so
// later mutations never leak back into the sample's ground truth.
func NewEpisode(initial State, behaviors BehaviorSet, opts Options) *Episode {
	maxCalls := opts.MaxCalls
	if maxCalls <= 0 {
		maxCalls = DefaultMaxCalls
	}
	return &Episode{
		id:        uuid.NewString(),
		state:     initial.Clone(),
		behaviors: behaviors,
		maxCalls:  maxCalls,
	}
}

// ID returns the episode's unique identifier.
func (e *Episode) ID() string { return e.id }

// Execute applies one call to the sandbox. It implements Channel.
//
// Fatal conditions (context cancellation, budget exhaustion, bait decoys,
// unknown tools, behavior errors) poison the episode: the call is not
// recorded, the state keeps the last consistent value, and every later
// Execute fails immediately with the same error.
func (e *Episode) Execute(ctx context.Context, call callexpr.Call) (Result, error) {
	if e.fatal != nil {
		return Result{}, e.fatal
	}
	if err := ctx.Err(); err != nil {
		e.fatal = sdk.NewTimeoutError("Episode.Execute", err)
		return Result{}, e.fatal
	}
	if len(e.applied) >= e.maxCalls {
		e.fatal = sdk.NewSandboxError("Episode.Execute", sdk.ErrBudgetExceeded).
			WithContext(map[string]any{"max_calls": e.maxCalls})
		return Result{}, e.fatal
	}

	if isDecoyName(call.Name) {
		e.baited = true
		e.fatal = sdk.NewSandboxError("Episode.Execute",
			fmt.Errorf("called bait tool %s; the episode cannot recover", call.Name))
		return Result{}, e.fatal
	}

	behavior, ok := e.behaviors[call.Name]
	if !ok {
		e.fatal = sdk.NewSandboxError("Episode.Execute", sdk.ErrBehaviorNotFound).
			WithContext(map[string]any{"tool": call.Name})
		return Result{}, e.fatal
	}

	result, err := behavior(e.state, call)
	if err != nil {
		e.fatal = sdk.NewSandboxError("Episode.Execute", err).
			WithContext(map[string]any{"tool": call.Name})
		return Result{}, e.fatal
	}

	e.applied = append(e.applied, call)
	return result, nil
}

// Applied returns the calls applied so far, in order.
func (e *Episode) Applied() []callexpr.Call {
	out := make([]callexpr.Call, len(e.applied))
	copy(out, e.applied)
	return out
}

// Snapshot returns a deep copy of the current state. The episode keeps sole
// ownership of the live state.
func (e *Episode) Snapshot() State {
	return e.state.Clone()
}

// Baited reports whether a decoy bait tool was invoked. A baited episode can
// never match a target state.
func (e *Episode) Baited() bool { return e.baited }

// Err returns the fatal error that ended the episode, if any.
func (e *Episode) Err() error { return e.fatal }

func isDecoyName(name string) bool {
	for _, suffix := range decoySuffixes {
		if strings.HasSuffix(name, suffix) {
			return true
		}
	}
	return false
}
