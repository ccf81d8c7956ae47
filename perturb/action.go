package perturb

import (
	"fmt"

	"github.com/robustcall/sdk"
	"github.com/robustcall/sdk/toolspec"
)

func applyAction(spec Spec, in Input, out Output) (Output, error) {
	switch spec.Subtype {
	case SubtypeSameNameEmpty,
		SubtypeSameNameDescOnly,
		SubtypeSameNameWrongParams,
		SubtypeSameNameDescWrongParam,
		SubtypeSameNameOtherDesc:
		tools, err := addSameNameDecoys(spec.Subtype, out.Tools, in.TargetTools)
		if err != nil {
			return Output{}, err
		}
		out.Tools = tools
		return out, nil

	case SubtypeRedundant:
		// Functionally-adjacent distractors are supplied content, like
		// paraphrases; this engine never fabricates tool semantics.
		decoys, err := toolsParam(spec, "decoys")
		if err != nil {
			return Output{}, err
		}
		for _, decoy := range decoys {
			if _, exists := out.Tools.Find(decoy.Name); exists {
				return Output{}, sdk.NewConfigurationError("perturb.Apply",
					fmt.Errorf("redundant decoy %q collides with an existing tool", decoy.Name))
			}
			out.Tools = append(out.Tools, decoy.Clone())
		}
		return out, nil

	default:
		return Output{}, unknownSubtype("perturb.Apply", spec)
	}
}

// addSameNameDecoys inserts, for every target tool, a decoy carrying the
// same name but degraded content. The catalogue is reordered so that
// non-target tools come first, then each decoy immediately before its real
// tool; the real tools themselves are untouched.
func addSameNameDecoys(subtype string, tools toolspec.Catalogue, targets []string) (toolspec.Catalogue, error) {
	targetSet := make(map[string]struct{}, len(targets))
	for _, name := range targets {
		targetSet[name] = struct{}{}
	}

	var targetTools, otherTools toolspec.Catalogue
	for _, tool := range tools {
		if _, ok := targetSet[tool.Name]; ok {
			targetTools = append(targetTools, tool)
		} else {
			otherTools = append(otherTools, tool)
		}
	}
	if len(targetTools) == 0 {
		return nil, sdk.NewConfigurationError("perturb.Apply",
			fmt.Errorf("no target tools present in the catalogue"))
	}

	out := make(toolspec.Catalogue, 0, len(tools)+len(targetTools))
	out = append(out, otherTools...)

	for i, gt := range targetTools {
		decoy := toolspec.ToolSpec{Name: gt.Name}

		switch subtype {
		case SubtypeSameNameEmpty:
			// Empty shell.
		case SubtypeSameNameDescOnly:
			decoy.Description = gt.Description
		case SubtypeSameNameWrongParams:
			params, err := wrongParams(otherTools, targetTools, i)
			if err != nil {
				return nil, err
			}
			decoy.Parameters = params
		case SubtypeSameNameDescWrongParam:
			params, err := wrongParams(otherTools, targetTools, i)
			if err != nil {
				return nil, err
			}
			decoy.Description = gt.Description
			decoy.Parameters = params
		case SubtypeSameNameOtherDesc:
			desc, err := otherDescription(otherTools, targetTools, i)
			if err != nil {
				return nil, err
			}
			params, err := wrongParams(otherTools, targetTools, i)
			if err != nil {
				return nil, err
			}
			decoy.Description = desc
			decoy.Parameters = params
		}

		out = append(out, decoy, gt)
	}
	return out, nil
}

// wrongParams steals a parameter schema from a tool other than the target.
// Non-target tools are preferred; with none available it falls back to a
// different target tool.
func wrongParams(others, targets toolspec.Catalogue, selfIdx int) (map[string]toolspec.Parameter, error) {
	for _, tool := range others {
		if len(tool.Parameters) > 0 {
			return tool.Clone().Parameters, nil
		}
	}
	for i, tool := range targets {
		if i != selfIdx && len(tool.Parameters) > 0 {
			return tool.Clone().Parameters, nil
		}
	}
	return nil, sdk.NewConfigurationError("perturb.Apply",
		fmt.Errorf("no tool with parameters available to borrow a wrong schema from"))
}

func otherDescription(others, targets toolspec.Catalogue, selfIdx int) (string, error) {
	for _, tool := range others {
		if tool.Description != "" {
			return tool.Description, nil
		}
	}
	for i, tool := range targets {
		if i != selfIdx && tool.Description != "" {
			return tool.Description, nil
		}
	}
	return "", sdk.NewConfigurationError("perturb.Apply",
		fmt.Errorf("no tool with a description available to borrow from"))
}
