package perturb

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/robustcall/sdk/toolspec"
)

func applyAct(t *testing.T, subtype string, params map[string]any) Output {
	t.Helper()
	out, err := Apply(Spec{
		Category:   CategoryAction,
		Subtype:    subtype,
		Parameters: params,
	}, Input{
		Question:    "Plan dinner.",
		Tools:       mealPlannerTools(),
		TargetTools: []string{"ProteinRichMealPlanner_generateList"},
	})
	require.NoError(t, err)
	return out
}

// decoyAndReal returns the two catalogue entries sharing the target name,
// in catalogue order.
func decoyAndReal(t *testing.T, tools toolspec.Catalogue, name string) (toolspec.ToolSpec, toolspec.ToolSpec) {
	t.Helper()
	var matches []toolspec.ToolSpec
	for _, tool := range tools {
		if tool.Name == name {
			matches = append(matches, tool)
		}
	}
	require.Len(t, matches, 2, "one decoy and one real tool")
	return matches[0], matches[1]
}

func TestSameNameDecoyVariants(t *testing.T) {
	const target = "ProteinRichMealPlanner_generateList"
	const gtDesc = "Plan protein-rich meals for a given cuisine."
	const otherDesc = "Compare grocery prices across nearby stores."

	tests := []struct {
		subtype    string
		wantDesc   string
		wantParams bool
	}{
		{SubtypeSameNameEmpty, "", false},
		{SubtypeSameNameDescOnly, gtDesc, false},
		{SubtypeSameNameWrongParams, "", true},
		{SubtypeSameNameDescWrongParam, gtDesc, true},
		{SubtypeSameNameOtherDesc, otherDesc, true},
	}

	for _, tt := range tests {
		t.Run(tt.subtype, func(t *testing.T) {
			out := applyAct(t, tt.subtype, nil)
			decoy, real := decoyAndReal(t, out.Tools, target)

			assert.Equal(t, tt.wantDesc, decoy.Description)
			if tt.wantParams {
				// Wrong params are borrowed from the price checker.
				_, hasItem := decoy.Parameters["item"]
				assert.True(t, hasItem, "borrowed schema")
				_, hasOwn := decoy.Parameters["meal_type"]
				assert.False(t, hasOwn)
			} else {
				assert.Empty(t, decoy.Parameters)
			}

			// The real tool is byte-for-byte what it was.
			assert.Equal(t, gtDesc, real.Description)
			assert.Contains(t, real.Parameters, "meal_type")
		})
	}
}

func TestRedundantDecoysAreSupplied(t *testing.T) {
	decoy := toolspec.ToolSpec{
		Name:        "MealIdeaBrowser_suggest",
		Description: "Suggest meal ideas loosely matching a craving.",
		Parameters: map[string]toolspec.Parameter{
			"craving": {Type: toolspec.TypeString},
		},
	}

	out := applyAct(t, SubtypeRedundant, map[string]any{
		"decoys": []toolspec.ToolSpec{decoy},
	})
	assert.Len(t, out.Tools, 3)
	added, found := out.Tools.Find("MealIdeaBrowser_suggest")
	require.True(t, found)
	assert.Equal(t, decoy.Description, added.Description)

	// Colliding names are rejected.
	_, err := Apply(Spec{
		Category: CategoryAction,
		Subtype:  SubtypeRedundant,
		Parameters: map[string]any{
			"decoys": []toolspec.ToolSpec{{Name: "GroceryPriceChecker_compare"}},
		},
	}, Input{Tools: mealPlannerTools(), TargetTools: []string{"ProteinRichMealPlanner_generateList"}})
	assert.Error(t, err)
}

func TestActionRequiresKnownTargets(t *testing.T) {
	_, err := Apply(Spec{Category: CategoryAction, Subtype: SubtypeSameNameEmpty}, Input{
		Tools:       mealPlannerTools(),
		TargetTools: []string{"not_in_catalogue"},
	})
	assert.Error(t, err)
}
