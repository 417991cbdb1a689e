package skills

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/agentcore/core/internal/core/types"
)

func TestScoreCombinesKeywordSubstringSuccess(t *testing.T) {
	sk := &types.Skill{
		Name:        "open-application",
		Description: "open or launch a named application",
		Pattern:     types.SkillPattern{IntentKeywords: []string{"open", "launch"}},
		SuccessRate: 1.0,
	}
	got := score("please open notes", sk)
	// keyword_overlap = 1/2 (only "open" matches); the short intent contains
	// neither the skill's name nor its full description as a substring.
	// 0.5*0.5 + 0.3*0 + 0.2*1.0 = 0.45
	require.InDelta(t, 0.45, got, 0.0001)
}

func TestFindMatchingFiltersBelowThresholdAndCapsAtThree(t *testing.T) {
	var candidates []*types.Skill
	for i := 0; i < 5; i++ {
		candidates = append(candidates, &types.Skill{
			Name:        "open-application",
			Pattern:     types.SkillPattern{IntentKeywords: []string{"open", "launch"}},
			SuccessRate: 1.0,
		})
	}
	candidates = append(candidates, &types.Skill{
		Name:        "unrelated",
		Pattern:     types.SkillPattern{IntentKeywords: []string{"bake", "bread"}},
		SuccessRate: 1.0,
	})

	matches := findMatching("open the calculator app", candidates)
	require.LessOrEqual(t, len(matches), maxMatches)
	for _, m := range matches {
		require.Greater(t, m.Score, matchThreshold)
	}
}

func TestExtractParamsAppName(t *testing.T) {
	params := extractParams("open notes and write a list")
	require.Equal(t, "notes and write a list", params["app_name"])
}

func TestExtractParamsSearchQuery(t *testing.T) {
	params := extractParams("search for flights to lisbon")
	require.Equal(t, "flights to lisbon", params["query"])
}

func TestExtractParamsURL(t *testing.T) {
	params := extractParams("go to github.com/agentcore/core")
	require.Equal(t, "https://github.com/agentcore/core", params["url"])
}
