package perturb

import (
	"fmt"

	"github.com/robustcall/sdk"
	"github.com/robustcall/sdk/toolspec"
)

// Category is the top level of the perturbation taxonomy.
type Category string

const (
	CategoryObservation Category = "observation"
	CategoryAction      Category = "action"
	CategoryReward      Category = "reward"
	CategoryTransition  Category = "transition"
)

// Subtype names per category.
const (
	// Observation subtypes.
	SubtypeTypos      = "typos"
	SubtypeParaphrase = "paraphrase"
	SubtypeToolDesc   = "tool_desc"
	SubtypeParamDesc  = "param_desc"

	// Action subtypes. The same-name variants degrade the decoy in
	// increasingly confusable ways; redundant adds supplied distractors
	// under different names.
	SubtypeSameNameEmpty          = "same_name_empty"
	SubtypeSameNameDescOnly       = "same_name_desc_only"
	SubtypeSameNameWrongParams    = "same_name_wrong_params"
	SubtypeSameNameDescWrongParam = "same_name_desc_wrong_params"
	SubtypeSameNameOtherDesc      = "same_name_other_desc"
	SubtypeRedundant              = "redundant"

	// Reward subtypes.
	SubtypeCostMisleading = "cost_misleading"
	SubtypeCostAbbrev     = "cost_abbreviated"
	SubtypeCostNeutral    = "cost_neutral"
	SubtypeTimeMisleading = "time_misleading"
	SubtypeTimeAbbrev     = "time_abbreviated"
	SubtypeTimeNeutral    = "time_neutral"

	// Transition subtype, applied through WrapChannel rather than Apply.
	SubtypeFirstCallTimeout = "first_call_timeout"
)

// Spec describes one perturbation. It is pure data; applying it produces a
// new transformed input or a wrapped execution channel.
type Spec struct {
	Category   Category       `json:"category" yaml:"category"`
	Subtype    string         `json:"subtype" yaml:"subtype"`
	Parameters map[string]any `json:"parameters,omitempty" yaml:"parameters,omitempty"`
}

// Input is the observable part of a sample that static perturbations work
// on. TargetTools names the tools the ground truth actually invokes; decoy
// construction keys off them.
type Input struct {
	Question    string
	Tools       toolspec.Catalogue
	TargetTools []string
}

// Output is the transformed observable input. Renamed maps an original
// target-tool name to its new name for the variants that rename the real
// tool; callers apply the same mapping to their expected calls.
type Output struct {
	Question string
	Tools    toolspec.Catalogue
	Renamed  map[string]string
}

// Apply runs a static (Observation, Action, or Reward) perturbation over a
// deep copy of in. The input is never mutated. Transition specs are runtime
// wrappers and are rejected here; use WrapChannel.
func Apply(spec Spec, in Input) (Output, error) {
	out := Output{
		Question: in.Question,
		Tools:    in.Tools.Clone(),
	}

	switch spec.Category {
	case CategoryObservation:
		return applyObservation(spec, in, out)
	case CategoryAction:
		return applyAction(spec, in, out)
	case CategoryReward:
		return applyReward(spec, in, out)
	case CategoryTransition:
		return Output{}, sdk.NewConfigurationError("perturb.Apply",
			fmt.Errorf("transition perturbations wrap an execution channel; use WrapChannel"))
	default:
		return Output{}, sdk.NewConfigurationError("perturb.Apply",
			fmt.Errorf("unknown perturbation category %q", spec.Category))
	}
}

func unknownSubtype(op string, spec Spec) error {
	return sdk.NewConfigurationError(op,
		fmt.Errorf("unknown %s subtype %q", spec.Category, spec.Subtype))
}

// Parameter accessors. Spec.Parameters arrives from JSON or YAML config, so
// values are validated at use.

func stringParam(spec Spec, key string) (string, error) {
	v, ok := spec.Parameters[key]
	if !ok {
		return "", sdk.NewConfigurationError("perturb.Apply",
			fmt.Errorf("%s/%s requires parameter %q", spec.Category, spec.Subtype, key))
	}
	s, ok := v.(string)
	if !ok {
		return "", sdk.NewConfigurationError("perturb.Apply",
			fmt.Errorf("parameter %q must be a string", key))
	}
	return s, nil
}

func intParam(spec Spec, key string, fallback int64) (int64, error) {
	v, ok := spec.Parameters[key]
	if !ok {
		return fallback, nil
	}
	switch n := v.(type) {
	case int:
		return int64(n), nil
	case int64:
		return n, nil
	case float64:
		return int64(n), nil
	default:
		return 0, sdk.NewConfigurationError("perturb.Apply",
			fmt.Errorf("parameter %q must be an integer", key))
	}
}

func stringMapParam(spec Spec, key string) (map[string]string, error) {
	v, ok := spec.Parameters[key]
	if !ok {
		return nil, sdk.NewConfigurationError("perturb.Apply",
			fmt.Errorf("%s/%s requires parameter %q", spec.Category, spec.Subtype, key))
	}
	switch m := v.(type) {
	case map[string]string:
		return m, nil
	case map[string]any:
		out := make(map[string]string, len(m))
		for k, raw := range m {
			s, ok := raw.(string)
			if !ok {
				return nil, sdk.NewConfigurationError("perturb.Apply",
					fmt.Errorf("parameter %q entry %q must be a string", key, k))
			}
			out[k] = s
		}
		return out, nil
	default:
		return nil, sdk.NewConfigurationError("perturb.Apply",
			fmt.Errorf("parameter %q must be a string mapping", key))
	}
}

func toolsParam(spec Spec, key string) ([]toolspec.ToolSpec, error) {
	v, ok := spec.Parameters[key]
	if !ok {
		return nil, sdk.NewConfigurationError("perturb.Apply",
			fmt.Errorf("%s/%s requires parameter %q", spec.Category, spec.Subtype, key))
	}
	tools, ok := v.([]toolspec.ToolSpec)
	if !ok {
		return nil, sdk.NewConfigurationError("perturb.Apply",
			fmt.Errorf("parameter %q must be a tool list", key))
	}
	return tools, nil
}
