package perturb

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/robustcall/sdk/toolspec"
)

func mealPlannerTools() toolspec.Catalogue {
	return toolspec.Catalogue{
		{
			Name:        "ProteinRichMealPlanner_generateList",
			Description: "Plan protein-rich meals for a given cuisine.",
			Parameters: map[string]toolspec.Parameter{
				"meal_type":          {Type: toolspec.TypeString, Description: "Which meal to plan.", Required: true},
				"cuisine_preference": {Type: toolspec.TypeString, Description: "Preferred cuisine."},
			},
		},
		{
			Name:        "GroceryPriceChecker_compare",
			Description: "Compare grocery prices across nearby stores.",
			Parameters: map[string]toolspec.Parameter{
				"item": {Type: toolspec.TypeString, Required: true},
			},
		},
	}
}

func TestInjectTyposDeterministic(t *testing.T) {
	text := "please find the best dinner plan for Osaka with 3 dishes"

	a := InjectTypos(text, 7, 2)
	b := InjectTypos(text, 7, 2)
	assert.Equal(t, a, b, "same seed, same output")

	c := InjectTypos(text, 8, 2)
	assert.NotEqual(t, a, c, "different seed, different corruption")
	assert.NotEqual(t, text, a)

	// Proper nouns and numbers survive.
	assert.Contains(t, a, "Osaka")
	assert.Contains(t, a, "3")
	assert.Equal(t, len(strings.Fields(text)), len(strings.Fields(a)))
}

func TestInjectTyposNoCandidates(t *testing.T) {
	text := "Osaka 2024 JFK"
	assert.Equal(t, text, InjectTypos(text, 1, 2))
}

func TestApplyParaphrase(t *testing.T) {
	in := Input{
		Question:    "Plan a protein-rich dinner.",
		Tools:       mealPlannerTools(),
		TargetTools: []string{"ProteinRichMealPlanner_generateList"},
	}

	out, err := Apply(Spec{
		Category:   CategoryObservation,
		Subtype:    SubtypeParaphrase,
		Parameters: map[string]any{"text": "Could you put together a dinner high in protein?"},
	}, in)
	require.NoError(t, err)
	assert.Equal(t, "Could you put together a dinner high in protein?", out.Question)
	assert.Equal(t, in.Tools, out.Tools)
	assert.Equal(t, "Plan a protein-rich dinner.", in.Question, "input untouched")
}

func TestApplyToolDescRewrite(t *testing.T) {
	in := Input{Tools: mealPlannerTools()}

	out, err := Apply(Spec{
		Category: CategoryObservation,
		Subtype:  SubtypeToolDesc,
		Parameters: map[string]any{
			"rewrites": map[string]any{
				"GroceryPriceChecker_compare": "Look up how much groceries cost in different shops.",
			},
		},
	}, in)
	require.NoError(t, err)

	rewritten, _ := out.Tools.Find("GroceryPriceChecker_compare")
	assert.Equal(t, "Look up how much groceries cost in different shops.", rewritten.Description)

	original, _ := in.Tools.Find("GroceryPriceChecker_compare")
	assert.Equal(t, "Compare grocery prices across nearby stores.", original.Description)

	_, err = Apply(Spec{
		Category:   CategoryObservation,
		Subtype:    SubtypeToolDesc,
		Parameters: map[string]any{"rewrites": map[string]any{"missing_tool": "x"}},
	}, in)
	assert.Error(t, err)
}

func TestApplyParamDescRewrite(t *testing.T) {
	in := Input{Tools: mealPlannerTools()}

	out, err := Apply(Spec{
		Category: CategoryObservation,
		Subtype:  SubtypeParamDesc,
		Parameters: map[string]any{
			"rewrites": map[string]any{
				"ProteinRichMealPlanner_generateList.meal_type": "The meal slot being planned.",
			},
		},
	}, in)
	require.NoError(t, err)

	tool, _ := out.Tools.Find("ProteinRichMealPlanner_generateList")
	assert.Equal(t, "The meal slot being planned.", tool.Parameters["meal_type"].Description)

	original, _ := in.Tools.Find("ProteinRichMealPlanner_generateList")
	assert.Equal(t, "Which meal to plan.", original.Parameters["meal_type"].Description)

	_, err = Apply(Spec{
		Category:   CategoryObservation,
		Subtype:    SubtypeParamDesc,
		Parameters: map[string]any{"rewrites": map[string]any{"no_dot_here": "x"}},
	}, in)
	assert.Error(t, err)
}
