package perturb

import (
	"context"
	"fmt"

	"github.com/robustcall/sdk"
	"github.com/robustcall/sdk/callexpr"
	"github.com/robustcall/sdk/sandbox"
)

// TransientFailureMessage is what the first invocation of a wrapped tool
// returns instead of executing. The wording marks the fault as retryable so
// a caller can tell it apart from a permanent failure.
const TransientFailureMessage = "Error: the tool call timed out. This is a transient fault, please retry the same call."

// transitionChannel wraps an execution channel and fails the first
// invocation of each wrapped tool. Counters live on the wrapper, and the
// wrapper lives one-per-episode, so concurrent episodes never share fault
// state.
type transitionChannel struct {
	inner sandbox.Channel
	// tools is nil when every tool faults on first call.
	tools map[string]struct{}
	seen  map[string]int
}

// WrapChannel applies a Transition perturbation around an execution channel.
// The Spec's optional "tools" parameter names which tools fault on their
// first invocation; without it, every tool does. Wrap once per episode.
func WrapChannel(spec Spec, inner sandbox.Channel) (sandbox.Channel, error) {
	if spec.Category != CategoryTransition {
		return nil, sdk.NewConfigurationError("perturb.WrapChannel",
			fmt.Errorf("%s perturbations are static; use Apply", spec.Category))
	}
	if spec.Subtype != SubtypeFirstCallTimeout {
		return nil, unknownSubtype("perturb.WrapChannel", spec)
	}

	ch := &transitionChannel{
		inner: inner,
		seen:  make(map[string]int),
	}
	if raw, ok := spec.Parameters["tools"]; ok {
		names, err := stringSliceValue(raw)
		if err != nil {
			return nil, err
		}
		ch.tools = make(map[string]struct{}, len(names))
		for _, name := range names {
			ch.tools[name] = struct{}{}
		}
	}
	return ch, nil
}

func (c *transitionChannel) Execute(ctx context.Context, call callexpr.Call) (sandbox.Result, error) {
	c.seen[call.Name]++
	if c.seen[call.Name] == 1 && c.wrapped(call.Name) {
		return sandbox.Result{OK: false, Message: TransientFailureMessage}, nil
	}
	return c.inner.Execute(ctx, call)
}

func (c *transitionChannel) wrapped(name string) bool {
	if c.tools == nil {
		return true
	}
	_, ok := c.tools[name]
	return ok
}

func stringSliceValue(raw any) ([]string, error) {
	switch v := raw.(type) {
	case []string:
		return v, nil
	case []any:
		out := make([]string, len(v))
		for i, item := range v {
			s, ok := item.(string)
			if !ok {
				return nil, sdk.NewConfigurationError("perturb.WrapChannel",
					fmt.Errorf("parameter \"tools\" entry %d must be a string", i))
			}
			out[i] = s
		}
		return out, nil
	default:
		return nil, sdk.NewConfigurationError("perturb.WrapChannel",
			fmt.Errorf("parameter \"tools\" must be a string list"))
	}
}
