// Test Type: Unit Test
// Description: Tests for the rules package - criterion evaluation and rule resolution

package rules_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"dcmsort/pkg/metadata"
	"dcmsort/pkg/rules"
)

func TestCriterion_Matches(t *testing.T) {
	criterion := rules.Criterion{
		metadata.SeriesDescription: rules.Wildcard("*FLAIR*"),
		metadata.SliceThickness:    rules.Relational(rules.OpLe, 2.5),
	}

	t.Run("all_fields_match", func(t *testing.T) {
		rec := metadata.Record{
			metadata.SeriesDescription: metadata.String("AX FLAIR T2"),
			metadata.SliceThickness:    metadata.Number(1.0),
		}
		assert.True(t, criterion.Matches(rec))
	})

	t.Run("one_field_fails_whole_criterion", func(t *testing.T) {
		rec := metadata.Record{
			metadata.SeriesDescription: metadata.String("AX FLAIR T2"),
			metadata.SliceThickness:    metadata.Number(3.0),
		}
		assert.False(t, criterion.Matches(rec))
	})

	t.Run("missing_field_never_raises", func(t *testing.T) {
		rec := metadata.Record{
			metadata.SeriesDescription: metadata.String("AX FLAIR T2"),
		}
		assert.False(t, criterion.Matches(rec))
	})

	t.Run("empty_criterion_matches_everything", func(t *testing.T) {
		assert.True(t, rules.Criterion{}.Matches(metadata.Record{}))
	})
}

func TestResolver_FirstMatchWins(t *testing.T) {
	ruleList := []rules.Rule{
		{Datatype: "anat", Suffix: "FLAIR", Criteria: rules.Criterion{
			metadata.SeriesDescription: rules.Wildcard("*FLAIR*"),
		}},
		{Datatype: "anat", Suffix: "T2w", Criteria: rules.Criterion{
			metadata.SeriesDescription: rules.Wildcard("*"),
		}},
	}
	resolver := rules.NewResolver(ruleList)

	// This record satisfies both rules; the one listed first must win
	rec := metadata.Record{
		metadata.SeriesDescription: metadata.String("AX FLAIR T2"),
	}

	result := resolver.Resolve(rec)
	require.True(t, result.Matched)
	assert.Equal(t, 0, result.Index)
	assert.Equal(t, "FLAIR", result.Rule.Suffix)
}

func TestResolver_Deterministic(t *testing.T) {
	resolver := rules.NewResolver(rules.DefaultRules())
	rec := metadata.Record{
		metadata.SeriesDescription: metadata.String("3D T2 FLAIR sag"),
	}

	first := resolver.Resolve(rec)
	for i := 0; i < 10; i++ {
		assert.Equal(t, first, resolver.Resolve(rec))
	}
}

func TestResolver_NoMatch(t *testing.T) {
	resolver := rules.NewResolver([]rules.Rule{
		{Datatype: "anat", Suffix: "T1w", Criteria: rules.Criterion{
			metadata.SeriesDescription: rules.Wildcard("*mprage*"),
		}},
	})

	result := resolver.Resolve(metadata.Record{
		metadata.SeriesDescription: metadata.String("localizer"),
	})

	assert.False(t, result.Matched)
	assert.Nil(t, result.Rule)
	assert.Equal(t, -1, result.Index)
}

func TestResolver_UnmatchedDistinctFromEmptyLabel(t *testing.T) {
	// A rule with empty label components that matches must still be
	// distinguishable from no rule matching at all
	resolver := rules.NewResolver([]rules.Rule{
		{Datatype: "misc", Suffix: "unknown", Criteria: rules.Criterion{}},
	})

	matched := resolver.Resolve(metadata.Record{})
	assert.True(t, matched.Matched)

	empty := rules.NewResolver(nil).Resolve(metadata.Record{})
	assert.False(t, empty.Matched)
}

// TestResolver_ContrastEnhancedScenario walks the two-rule T1w setup:
// the same series description routes to a different category depending
// on the series number range.
func TestResolver_ContrastEnhancedScenario(t *testing.T) {
	ruleList := []rules.Rule{
		{Datatype: "anat", Suffix: "T1w", Criteria: rules.Criterion{
			metadata.SeriesDescription: rules.AnyOf(rules.Wildcard("*neuronav*"), rules.Wildcard("*TFE*")),
			metadata.SliceThickness:    rules.Relational(rules.OpLe, 2.5),
			metadata.SeriesNumber:      rules.Relational(rules.OpLt, 500),
		}},
		{Datatype: "anat", Suffix: "T1w", CustomEntities: "ce-GD", Criteria: rules.Criterion{
			metadata.SeriesDescription: rules.AnyOf(rules.Wildcard("*euronav*"), rules.Wildcard("*TFE*"), rules.Wildcard("FFE")),
			metadata.SliceThickness:    rules.Relational(rules.OpLe, 2.5),
			metadata.SeriesNumber:      rules.Relational(rules.OpGe, 500),
		}},
	}
	resolver := rules.NewResolver(ruleList)

	t.Run("pre_contrast_series", func(t *testing.T) {
		result := resolver.Resolve(metadata.Record{
			metadata.SeriesDescription: metadata.String("TFE_sequence"),
			metadata.SliceThickness:    metadata.Number(1.0),
			metadata.SeriesNumber:      metadata.Number(10),
		})
		require.True(t, result.Matched)
		assert.Equal(t, 0, result.Index)
		assert.Empty(t, result.Rule.CustomEntities)
	})

	t.Run("post_contrast_series", func(t *testing.T) {
		result := resolver.Resolve(metadata.Record{
			metadata.SeriesDescription: metadata.String("TFE_sequence"),
			metadata.SliceThickness:    metadata.Number(1.0),
			metadata.SeriesNumber:      metadata.Number(600),
		})
		require.True(t, result.Matched)
		assert.Equal(t, 1, result.Index)
		assert.Equal(t, "ce-GD", result.Rule.CustomEntities)
	})
}
