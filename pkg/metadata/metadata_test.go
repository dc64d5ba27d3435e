// Test Type: Unit Test
// Description: Tests for the metadata package - record access and soft coercions

package metadata_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"dcmsort/pkg/metadata"
)

func TestValue_AsString(t *testing.T) {
	tests := []struct {
		name  string
		value metadata.Value
		want  string
		ok    bool
	}{
		{"string_scalar", metadata.String("AX FLAIR"), "AX FLAIR", true},
		{"number_scalar", metadata.Number(2.5), "2.5", true},
		{"integral_number", metadata.Number(500), "500", true},
		{"sequence_does_not_coerce", metadata.Sequence("A", "B"), "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := tt.value.AsString()
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestValue_AsFloat(t *testing.T) {
	tests := []struct {
		name  string
		value metadata.Value
		want  float64
		ok    bool
	}{
		{"number", metadata.Number(1.5), 1.5, true},
		{"numeric_string", metadata.String("2.5"), 2.5, true},
		{"non_numeric_string", metadata.String("FLAIR"), 0, false},
		{"sequence", metadata.Sequence("1", "2"), 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := tt.value.AsFloat()
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestValue_AsSequence(t *testing.T) {
	seq, ok := metadata.Sequence("ORIGINAL", "PRIMARY", "M").AsSequence()
	require.True(t, ok)
	assert.Equal(t, []string{"ORIGINAL", "PRIMARY", "M"}, seq)

	// Scalars do not promote to single-element sequences
	_, ok = metadata.String("ORIGINAL").AsSequence()
	assert.False(t, ok)
}

func TestRecord_Get(t *testing.T) {
	rec := metadata.Record{
		metadata.SeriesDescription: metadata.String("TFE_sequence"),
	}

	v, ok := rec.Get(metadata.SeriesDescription)
	require.True(t, ok)
	s, _ := v.AsString()
	assert.Equal(t, "TFE_sequence", s)

	_, ok = rec.Get(metadata.EchoTime)
	assert.False(t, ok, "absent attribute must report absence, not a zero value")
}

func TestRecord_StringOr(t *testing.T) {
	rec := metadata.Record{
		metadata.PatientID: metadata.String("PAT001"),
		metadata.ImageType: metadata.Sequence("ORIGINAL", "PRIMARY"),
	}

	assert.Equal(t, "PAT001", rec.StringOr(metadata.PatientID, "UNKNOWN"))
	assert.Equal(t, "UNKNOWN", rec.StringOr(metadata.StudyDate, "UNKNOWN"))
	assert.Equal(t, "UNKNOWN", rec.StringOr(metadata.ImageType, "UNKNOWN"),
		"sequence values fall back for string contexts")
}

func TestRecord_Clone(t *testing.T) {
	rec := metadata.Record{
		metadata.PatientID: metadata.String("PAT001"),
		metadata.ImageType: metadata.Sequence("ORIGINAL", "PRIMARY"),
	}

	clone := rec.Clone()
	clone[metadata.PatientID] = metadata.String("SUB-01")

	assert.Equal(t, "PAT001", rec.StringOr(metadata.PatientID, ""),
		"mutating the clone must not touch the original")

	seq, ok := clone[metadata.ImageType].AsSequence()
	require.True(t, ok)
	assert.Equal(t, []string{"ORIGINAL", "PRIMARY"}, seq)
}
