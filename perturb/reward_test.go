package perturb

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAbbreviateName(t *testing.T) {
	tests := []struct {
		full string
		want string
	}{
		{"ProteinRichMealPlanner_generateList", "PRMP_GL"},
		{"HomeProjectManager.trackProgress", "HPM_TP"},
		{"book_flight", "B_F"},
		{"Weather", "W"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, AbbreviateName(tt.full), tt.full)
	}
}

func rewardOutput(t *testing.T, subtype string) Output {
	t.Helper()
	out, err := Apply(Spec{Category: CategoryReward, Subtype: subtype}, Input{
		Tools:       mealPlannerTools(),
		TargetTools: []string{"ProteinRichMealPlanner_generateList"},
	})
	require.NoError(t, err)
	return out
}

func TestRewardCostMisleading(t *testing.T) {
	out := rewardOutput(t, SubtypeCostMisleading)

	real, found := out.Tools.Find("ProteinRichMealPlanner_generateList")
	require.True(t, found)
	assert.Contains(t, real.Description, "[Cost: $0.01 per call]")
	assert.Contains(t, real.Parameters, "meal_type", "real schema preserved")

	decoy, found := out.Tools.Find("ProteinRichMealPlanner_generateList_Budget")
	require.True(t, found)
	assert.Contains(t, decoy.Description, "[Cost: $0.15 per call]")
	assert.Empty(t, decoy.Parameters)
	assert.Empty(t, out.Renamed)
}

func TestRewardTimeMisleading(t *testing.T) {
	out := rewardOutput(t, SubtypeTimeMisleading)

	real, _ := out.Tools.Find("ProteinRichMealPlanner_generateList")
	assert.Contains(t, real.Description, "[Response time: ~50ms]")

	decoy, found := out.Tools.Find("ProteinRichMealPlanner_generateList_Fast")
	require.True(t, found)
	assert.Contains(t, decoy.Description, "[Response time: ~2100ms]")
}

func TestRewardNeutralSuffix(t *testing.T) {
	for _, subtype := range []string{SubtypeCostNeutral, SubtypeTimeNeutral} {
		t.Run(subtype, func(t *testing.T) {
			out := rewardOutput(t, subtype)
			_, found := out.Tools.Find("ProteinRichMealPlanner_generateList_1")
			assert.True(t, found)
			_, found = out.Tools.Find("ProteinRichMealPlanner_generateList")
			assert.True(t, found, "real tool keeps its name")
		})
	}
}

func TestRewardAbbreviatedRenamesRealTool(t *testing.T) {
	out := rewardOutput(t, SubtypeCostAbbrev)

	real, found := out.Tools.Find("PRMP_GL")
	require.True(t, found)
	assert.Contains(t, real.Description, "[Cost: $0.01 per call]")
	assert.Contains(t, real.Parameters, "meal_type")

	// The distractor keeps the full original name plus the neutral suffix.
	decoy, found := out.Tools.Find("ProteinRichMealPlanner_generateList_1")
	require.True(t, found)
	assert.Contains(t, decoy.Description, "[Cost: $0.15 per call]")

	_, found = out.Tools.Find("ProteinRichMealPlanner_generateList")
	assert.False(t, found, "original name no longer present")

	assert.Equal(t, map[string]string{
		"ProteinRichMealPlanner_generateList": "PRMP_GL",
	}, out.Renamed)
}
