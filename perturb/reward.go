package perturb

import (
	"fmt"
	"strings"
	"unicode"

	"github.com/robustcall/sdk"
	"github.com/robustcall/sdk/toolspec"
)

// Description metadata the Reward variants append. The real tool always
// advertises the better figure; the distractor the worse one.
const (
	costMetadataGood = " [Cost: $0.01 per call]"
	costMetadataBad  = " [Cost: $0.15 per call]"
	timeMetadataGood = " [Response time: ~50ms]"
	timeMetadataBad  = " [Response time: ~2100ms]"
)

// Distractor name suffixes. SuffixBudget and SuffixFast misleadingly promise
// the property the metadata contradicts; SuffixNeutral carries no hint.
const (
	SuffixBudget  = "_Budget"
	SuffixFast    = "_Fast"
	SuffixNeutral = "_1"
)

func applyReward(spec Spec, in Input, out Output) (Output, error) {
	var goodMeta, badMeta string
	var distractorSuffix string
	abbreviate := false

	switch spec.Subtype {
	case SubtypeCostMisleading:
		goodMeta, badMeta, distractorSuffix = costMetadataGood, costMetadataBad, SuffixBudget
	case SubtypeCostAbbrev:
		goodMeta, badMeta, distractorSuffix = costMetadataGood, costMetadataBad, SuffixNeutral
		abbreviate = true
	case SubtypeCostNeutral:
		goodMeta, badMeta, distractorSuffix = costMetadataGood, costMetadataBad, SuffixNeutral
	case SubtypeTimeMisleading:
		goodMeta, badMeta, distractorSuffix = timeMetadataGood, timeMetadataBad, SuffixFast
	case SubtypeTimeAbbrev:
		goodMeta, badMeta, distractorSuffix = timeMetadataGood, timeMetadataBad, SuffixNeutral
		abbreviate = true
	case SubtypeTimeNeutral:
		goodMeta, badMeta, distractorSuffix = timeMetadataGood, timeMetadataBad, SuffixNeutral
	default:
		return Output{}, unknownSubtype("perturb.Apply", spec)
	}

	targetSet := make(map[string]struct{}, len(in.TargetTools))
	for _, name := range in.TargetTools {
		targetSet[name] = struct{}{}
	}

	var targetTools, otherTools toolspec.Catalogue
	for _, tool := range out.Tools {
		if _, ok := targetSet[tool.Name]; ok {
			targetTools = append(targetTools, tool)
		} else {
			otherTools = append(otherTools, tool)
		}
	}
	if len(targetTools) == 0 {
		return Output{}, sdk.NewConfigurationError("perturb.Apply",
			fmt.Errorf("no target tools present in the catalogue"))
	}

	result := make(toolspec.Catalogue, 0, len(out.Tools)+len(targetTools))
	result = append(result, otherTools...)
	renamed := make(map[string]string)

	for _, gt := range targetTools {
		realName := gt.Name
		if abbreviate {
			realName = AbbreviateName(gt.Name)
			renamed[gt.Name] = realName
		}

		real := gt
		real.Name = realName
		real.Description = gt.Description + goodMeta

		distractor := toolspec.ToolSpec{
			Name:        gt.Name + distractorSuffix,
			Description: gt.Description + badMeta,
		}

		result = append(result, distractor, real)
	}

	out.Tools = result
	if len(renamed) > 0 {
		out.Renamed = renamed
	}
	return out, nil
}

// AbbreviateName shortens a tool name to the capitals of each segment, so
// ProteinRichMealPlanner_generateList becomes PRMP_GL and
// HomeProjectManager.trackProgress becomes HPM_TP. Segments without capitals
// contribute their first letter uppercased.
func AbbreviateName(full string) string {
	var parts []string
	for _, segment := range strings.FieldsFunc(full, func(r rune) bool {
		return r == '_' || r == '.'
	}) {
		var capitals []rune
		for _, r := range segment {
			if unicode.IsUpper(r) {
				capitals = append(capitals, r)
			}
		}
		if len(capitals) > 0 {
			parts = append(parts, string(capitals))
		} else {
			runes := []rune(segment)
			parts = append(parts, strings.ToUpper(string(runes[0])))
		}
	}
	return strings.Join(parts, "_")
}
