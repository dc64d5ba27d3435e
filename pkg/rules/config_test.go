// Test Type: Unit Test
// Description: Tests for the rules package - rule file loading and validation

package rules_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"dcmsort/pkg/errors"
	"dcmsort/pkg/metadata"
	"dcmsort/pkg/rules"
)

func writeRuleFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestLoad_JSON(t *testing.T) {
	path := writeRuleFile(t, "rules.json", `{
		"descriptions": [
			{
				"datatype": "anat",
				"suffix": "T1w",
				"criteria": {
					"SeriesDescription": {"any": ["*neuronav*", "*TFE*"]},
					"SliceThickness": {"le": 2.5},
					"SeriesNumber": {"lt": 500}
				}
			},
			{
				"datatype": "anat",
				"suffix": "T1w",
				"custom_entities": "ce-GD",
				"criteria": {
					"SeriesDescription": {"any": ["*euronav*", "*TFE*", "FFE"]},
					"SliceThickness": {"le": "2.5"},
					"SeriesNumber": {"ge": 500}
				}
			}
		]
	}`)

	ruleList, err := rules.Load(path)
	require.NoError(t, err)
	require.Len(t, ruleList, 2)

	assert.Equal(t, "anat", ruleList[0].Datatype)
	assert.Equal(t, "ce-GD", ruleList[1].CustomEntities)

	// Loaded rules behave like hand-built ones
	resolver := rules.NewResolver(ruleList)
	result := resolver.Resolve(metadata.Record{
		metadata.SeriesDescription: metadata.String("TFE_sequence"),
		metadata.SliceThickness:    metadata.Number(1.0),
		metadata.SeriesNumber:      metadata.Number(600),
	})
	require.True(t, result.Matched)
	assert.Equal(t, 1, result.Index)
}

func TestLoad_SequenceCriteria(t *testing.T) {
	path := writeRuleFile(t, "rules.json", `{
		"descriptions": [
			{
				"datatype": "fmap",
				"suffix": "phase",
				"criteria": {
					"ImageType": {"any": [["ORIGINAL", "PRIMARY", "P"], ["ORIGINAL", "PRIMARY", "PHASE"]]}
				}
			}
		]
	}`)

	ruleList, err := rules.Load(path)
	require.NoError(t, err)

	resolver := rules.NewResolver(ruleList)
	assert.True(t, resolver.Resolve(metadata.Record{
		metadata.ImageType: metadata.Sequence("ORIGINAL", "PRIMARY", "P"),
	}).Matched)
	assert.False(t, resolver.Resolve(metadata.Record{
		metadata.ImageType: metadata.Sequence("ORIGINAL", "PRIMARY", "M"),
	}).Matched)
}

func TestLoad_YAML(t *testing.T) {
	path := writeRuleFile(t, "rules.yaml", `
descriptions:
  - datatype: anat
    suffix: FLAIR
    criteria:
      SeriesDescription: "*FLAIR*"
`)

	ruleList, err := rules.Load(path)
	require.NoError(t, err)
	require.Len(t, ruleList, 1)
	assert.Equal(t, "FLAIR", ruleList[0].Suffix)
}

func TestLoad_ConfigurationErrors(t *testing.T) {
	tests := []struct {
		name    string
		file    string
		content string
	}{
		{
			name: "unknown_operator",
			file: "rules.json",
			content: `{"descriptions": [{"datatype": "anat", "suffix": "T1w",
				"criteria": {"SeriesNumber": {"between": 500}}}]}`,
		},
		{
			name: "malformed_any_list",
			file: "rules.json",
			content: `{"descriptions": [{"datatype": "anat", "suffix": "T1w",
				"criteria": {"SeriesDescription": {"any": "not-a-list"}}}]}`,
		},
		{
			name: "non_numeric_bound",
			file: "rules.json",
			content: `{"descriptions": [{"datatype": "anat", "suffix": "T1w",
				"criteria": {"SliceThickness": {"le": "thin"}}}]}`,
		},
		{
			name:    "missing_datatype",
			file:    "rules.json",
			content: `{"descriptions": [{"suffix": "T1w", "criteria": {}}]}`,
		},
		{
			name:    "empty_descriptions",
			file:    "rules.json",
			content: `{"descriptions": []}`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := writeRuleFile(t, tt.file, tt.content)
			_, err := rules.Load(path)
			require.Error(t, err)
			assert.True(t, errors.IsErrorCode(err, errors.ErrConfigValid),
				"want CONFIG_INVALID, got %v", err)
		})
	}
}

func TestLoad_UnsupportedExtension(t *testing.T) {
	path := writeRuleFile(t, "rules.ini", "[descriptions]")
	_, err := rules.Load(path)
	require.Error(t, err)
	assert.True(t, errors.IsErrorCode(err, errors.ErrConfigLoad))
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := rules.Load(filepath.Join(t.TempDir(), "nope.json"))
	require.Error(t, err)
}

func TestDefaultRules(t *testing.T) {
	ruleList := rules.DefaultRules()
	require.NotEmpty(t, ruleList)

	resolver := rules.NewResolver(ruleList)
	result := resolver.Resolve(metadata.Record{
		metadata.SeriesDescription: metadata.String("sag 3D FLAIR"),
	})
	require.True(t, result.Matched)
	assert.Equal(t, "anat", result.Rule.Datatype)
	assert.Equal(t, "FLAIR", result.Rule.Suffix)
}
